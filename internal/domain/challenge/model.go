package challenge

import (
	"fmt"
	"time"
)

// Category splits challenges into individually-scored and team-scored ones.
// It is immutable after creation.
type Category string

const (
	CategoryIndividual Category = "individual"
	CategoryTeam       Category = "team"
)

// Type names the metric a challenge measures.
type Type string

const (
	TypeDistance  Type = "distance"
	TypeTime      Type = "time"
	TypeFrequency Type = "frequency"
	TypeSpeed     Type = "speed"
	TypeStreak    Type = "streak"
	TypeCombined  Type = "combined"
	TypeCustom    Type = "custom"
)

var AllTypes = map[Type]struct{}{
	TypeDistance:  {},
	TypeTime:      {},
	TypeFrequency: {},
	TypeSpeed:     {},
	TypeStreak:    {},
	TypeCombined:  {},
	TypeCustom:    {},
}

type Difficulty string

const (
	DifficultyEasy     Difficulty = "easy"
	DifficultyModerate Difficulty = "moderate"
	DifficultyHard     Difficulty = "hard"
)

type Visibility string

const (
	VisibilityPublic     Visibility = "public"
	VisibilityClub       Visibility = "club"
	VisibilityInviteOnly Visibility = "invite_only"
)

// AdmissionPolicy controls how join requests are admitted.
type AdmissionPolicy string

const (
	AdmissionOpen             AdmissionPolicy = "open"
	AdmissionPassword         AdmissionPolicy = "password"
	AdmissionApprovalRequired AdmissionPolicy = "approval_required"
)

// Challenge is a time-boxed goal users or teams join and progress toward.
type Challenge struct {
	ID          string
	Name        string
	Description string
	ClubID      string
	Category    Category
	Type        Type
	Difficulty  Difficulty
	Visibility  Visibility

	TargetValue float64
	TargetUnit  string

	StartDate time.Time
	EndDate   time.Time

	MaxParticipants int
	MaxTeams        int
	MaxTeamMembers  int

	AdmissionPolicy AdmissionPolicy
	PasswordHash    string

	// Team-challenge contribution guards. Zero disables the guard.
	MaxIndividualContribution float64
	MinTracklogDistance       float64

	Status Status

	// FrozenAdmission is set once the challenge transitions to active.
	// Late edits to capacity or password never affect admitted participants.
	FrozenAdmission *AdmissionSnapshot

	CreatedBy string
	CreatedAt time.Time
	UpdatedAt time.Time
}

// AdmissionSnapshot captures the admission rules in force at activation.
type AdmissionSnapshot struct {
	Policy          AdmissionPolicy `json:"policy"`
	PasswordHash    string          `json:"password_hash,omitempty"`
	MaxParticipants int             `json:"max_participants"`
	MaxTeams        int             `json:"max_teams"`
	MaxTeamMembers  int             `json:"max_team_members"`
	FrozenAt        time.Time       `json:"frozen_at"`
}

// EffectiveAdmission returns the frozen snapshot once the challenge is
// active, and the live field values before that.
func (c Challenge) EffectiveAdmission() AdmissionSnapshot {
	if c.FrozenAdmission != nil {
		return *c.FrozenAdmission
	}
	return AdmissionSnapshot{
		Policy:          c.AdmissionPolicy,
		PasswordHash:    c.PasswordHash,
		MaxParticipants: c.MaxParticipants,
		MaxTeams:        c.MaxTeams,
		MaxTeamMembers:  c.MaxTeamMembers,
	}
}

func (c Challenge) IsTeam() bool {
	return c.Category == CategoryTeam
}

func (c Challenge) Validate() error {
	if c.ID == "" {
		return fmt.Errorf("challenge id is required")
	}
	if c.Name == "" {
		return fmt.Errorf("challenge name is required")
	}
	if c.Category != CategoryIndividual && c.Category != CategoryTeam {
		return fmt.Errorf("invalid challenge category %q", c.Category)
	}
	if _, ok := AllTypes[c.Type]; !ok {
		return fmt.Errorf("invalid challenge type %q", c.Type)
	}
	if c.TargetValue <= 0 {
		return fmt.Errorf("challenge target value must be greater than zero")
	}
	if c.TargetUnit == "" {
		return fmt.Errorf("challenge target unit is required")
	}
	if c.StartDate.IsZero() || c.EndDate.IsZero() {
		return fmt.Errorf("challenge start and end dates are required")
	}
	if !c.EndDate.After(c.StartDate) {
		return fmt.Errorf("challenge end date must be after start date")
	}
	if c.AdmissionPolicy == AdmissionPassword && c.PasswordHash == "" {
		return fmt.Errorf("password admission policy requires a password")
	}
	if c.IsTeam() {
		if c.MaxTeams <= 0 {
			return fmt.Errorf("team challenge requires max teams > 0")
		}
		if c.MaxTeamMembers <= 0 {
			return fmt.Errorf("team challenge requires max team members > 0")
		}
	} else if c.MaxParticipants <= 0 {
		return fmt.Errorf("individual challenge requires max participants > 0")
	}

	return nil
}
