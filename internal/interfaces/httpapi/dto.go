package httpapi

import (
	"context"
	"time"

	"github.com/fitarena/challenge-engine/internal/domain/challenge"
	"github.com/fitarena/challenge-engine/internal/domain/invitation"
	"github.com/fitarena/challenge-engine/internal/domain/participant"
)

type challengeDTO struct {
	ID              string  `json:"id"`
	Name            string  `json:"name"`
	Description     string  `json:"description,omitempty"`
	ClubID          string  `json:"club_id,omitempty"`
	Category        string  `json:"category"`
	Type            string  `json:"type"`
	Difficulty      string  `json:"difficulty,omitempty"`
	Visibility      string  `json:"visibility"`
	TargetValue     float64 `json:"target_value"`
	TargetUnit      string  `json:"target_unit"`
	StartDate       string  `json:"start_date"`
	EndDate         string  `json:"end_date"`
	MaxParticipants int     `json:"max_participants,omitempty"`
	MaxTeams        int     `json:"max_teams,omitempty"`
	MaxTeamMembers  int     `json:"max_team_members,omitempty"`
	AdmissionPolicy string  `json:"admission_policy"`
	Status          string  `json:"status"`
	Phase           string  `json:"phase,omitempty"`
	CreatedBy       string  `json:"created_by"`
	CreatedAt       string  `json:"created_at"`
	UpdatedAt       string  `json:"updated_at"`
}

type participantDTO struct {
	ID              string  `json:"id"`
	ChallengeID     string  `json:"challenge_id"`
	UserID          string  `json:"user_id"`
	TeamID          string  `json:"team_id,omitempty"`
	Status          string  `json:"status"`
	JoinedAt        string  `json:"joined_at"`
	CurrentProgress float64 `json:"current_progress"`
	CurrentStreak   int     `json:"current_streak"`
	LastActivityAt  string  `json:"last_activity_at,omitempty"`
	CompletedAt     string  `json:"completed_at,omitempty"`
	DecidedBy       string  `json:"decided_by,omitempty"`
	DecisionReason  string  `json:"decision_reason,omitempty"`
}

type invitationDTO struct {
	ID            string `json:"id"`
	ChallengeID   string `json:"challenge_id"`
	InvitedClubID string `json:"invited_club_id"`
	Status        string `json:"status"`
	InvitedBy     string `json:"invited_by"`
	CreatedAt     string `json:"created_at"`
	ExpiresAt     string `json:"expires_at"`
	RespondedAt   string `json:"responded_at,omitempty"`
}

type joinResultDTO struct {
	Participant      participantDTO `json:"participant"`
	RequiresApproval bool           `json:"requires_approval"`
}

type updatedProgressDTO struct {
	ParticipantID   string  `json:"participant_id"`
	Progress        float64 `json:"progress"`
	Streak          int     `json:"streak"`
	ProgressPercent float64 `json:"progress_percent"`
	Completed       bool    `json:"completed"`
	Discarded       bool    `json:"discarded"`
}

func challengeToDTO(ctx context.Context, v challenge.Challenge, phase challenge.Phase) challengeDTO {
	ctx, span := startSpan(ctx, "httpapi.challengeToDTO")
	defer span.End()

	return challengeDTO{
		ID:              v.ID,
		Name:            v.Name,
		Description:     v.Description,
		ClubID:          v.ClubID,
		Category:        string(v.Category),
		Type:            string(v.Type),
		Difficulty:      string(v.Difficulty),
		Visibility:      string(v.Visibility),
		TargetValue:     v.TargetValue,
		TargetUnit:      v.TargetUnit,
		StartDate:       v.StartDate.UTC().Format(time.RFC3339),
		EndDate:         v.EndDate.UTC().Format(time.RFC3339),
		MaxParticipants: v.MaxParticipants,
		MaxTeams:        v.MaxTeams,
		MaxTeamMembers:  v.MaxTeamMembers,
		AdmissionPolicy: string(v.AdmissionPolicy),
		Status:          string(v.Status),
		Phase:           string(phase),
		CreatedBy:       v.CreatedBy,
		CreatedAt:       v.CreatedAt.UTC().Format(time.RFC3339),
		UpdatedAt:       v.UpdatedAt.UTC().Format(time.RFC3339),
	}
}

func participantToDTO(ctx context.Context, v participant.Participant) participantDTO {
	ctx, span := startSpan(ctx, "httpapi.participantToDTO")
	defer span.End()

	dto := participantDTO{
		ID:              v.ID,
		ChallengeID:     v.ChallengeID,
		UserID:          v.UserID,
		TeamID:          v.TeamID,
		Status:          string(v.Status),
		JoinedAt:        v.JoinedAt.UTC().Format(time.RFC3339),
		CurrentProgress: v.CurrentProgress,
		CurrentStreak:   v.CurrentStreak,
		DecidedBy:       v.DecidedBy,
		DecisionReason:  v.DecisionReason,
	}
	if v.LastActivityAt != nil {
		dto.LastActivityAt = v.LastActivityAt.UTC().Format(time.RFC3339)
	}
	if v.CompletedAt != nil {
		dto.CompletedAt = v.CompletedAt.UTC().Format(time.RFC3339)
	}

	return dto
}

func invitationToDTO(ctx context.Context, v invitation.Invitation) invitationDTO {
	ctx, span := startSpan(ctx, "httpapi.invitationToDTO")
	defer span.End()

	dto := invitationDTO{
		ID:            v.ID,
		ChallengeID:   v.ChallengeID,
		InvitedClubID: v.InvitedClubID,
		Status:        string(v.Status),
		InvitedBy:     v.InvitedBy,
		CreatedAt:     v.CreatedAt.UTC().Format(time.RFC3339),
		ExpiresAt:     v.ExpiresAt.UTC().Format(time.RFC3339),
	}
	if v.RespondedAt != nil {
		dto.RespondedAt = v.RespondedAt.UTC().Format(time.RFC3339)
	}

	return dto
}
