package postgres

import (
	"fmt"
	"time"

	jsoniter "github.com/json-iterator/go"

	"github.com/fitarena/challenge-engine/internal/domain/challenge"
)

type challengeTableModel struct {
	ID          string `db:"id"`
	Name        string `db:"name"`
	Description string `db:"description"`
	ClubID      string `db:"club_id"`
	Category    string `db:"category"`
	Type        string `db:"type"`
	Difficulty  string `db:"difficulty"`
	Visibility  string `db:"visibility"`

	TargetValue float64 `db:"target_value"`
	TargetUnit  string  `db:"target_unit"`

	StartDate time.Time `db:"start_date"`
	EndDate   time.Time `db:"end_date"`

	MaxParticipants int `db:"max_participants"`
	MaxTeams        int `db:"max_teams"`
	MaxTeamMembers  int `db:"max_team_members"`

	AdmissionPolicy string `db:"admission_policy"`
	PasswordHash    string `db:"password_hash"`

	MaxIndividualContribution float64 `db:"max_individual_contribution"`
	MinTracklogDistance       float64 `db:"min_tracklog_distance"`

	Status          string  `db:"status"`
	FrozenAdmission *[]byte `db:"frozen_admission"`

	CreatedBy string    `db:"created_by"`
	CreatedAt time.Time `db:"created_at"`
	UpdatedAt time.Time `db:"updated_at"`
}

func (m challengeTableModel) toDomain() (challenge.Challenge, error) {
	ch := challenge.Challenge{
		ID:          m.ID,
		Name:        m.Name,
		Description: m.Description,
		ClubID:      m.ClubID,
		Category:    challenge.Category(m.Category),
		Type:        challenge.Type(m.Type),
		Difficulty:  challenge.Difficulty(m.Difficulty),
		Visibility:  challenge.Visibility(m.Visibility),

		TargetValue: m.TargetValue,
		TargetUnit:  m.TargetUnit,

		StartDate: m.StartDate,
		EndDate:   m.EndDate,

		MaxParticipants: m.MaxParticipants,
		MaxTeams:        m.MaxTeams,
		MaxTeamMembers:  m.MaxTeamMembers,

		AdmissionPolicy: challenge.AdmissionPolicy(m.AdmissionPolicy),
		PasswordHash:    m.PasswordHash,

		MaxIndividualContribution: m.MaxIndividualContribution,
		MinTracklogDistance:       m.MinTracklogDistance,

		Status: challenge.Status(m.Status),

		CreatedBy: m.CreatedBy,
		CreatedAt: m.CreatedAt,
		UpdatedAt: m.UpdatedAt,
	}

	if m.FrozenAdmission != nil && len(*m.FrozenAdmission) > 0 {
		var frozen challenge.AdmissionSnapshot
		if err := jsoniter.ConfigCompatibleWithStandardLibrary.Unmarshal(*m.FrozenAdmission, &frozen); err != nil {
			return challenge.Challenge{}, fmt.Errorf("decode frozen admission for challenge %s: %w", m.ID, err)
		}
		ch.FrozenAdmission = &frozen
	}

	return ch, nil
}

func marshalAdmissionSnapshot(frozen *challenge.AdmissionSnapshot) (*[]byte, error) {
	if frozen == nil {
		return nil, nil
	}
	raw, err := jsoniter.ConfigCompatibleWithStandardLibrary.Marshal(frozen)
	if err != nil {
		return nil, fmt.Errorf("encode admission snapshot: %w", err)
	}
	return &raw, nil
}
