package participant

import (
	"fmt"
	"time"
)

// Participant is one user's membership record in a challenge. For team
// challenges TeamID links the member to their team; progress still
// accumulates on the member record and is folded up per team.
type Participant struct {
	ID          string
	ChallengeID string
	UserID      string
	TeamID      string

	Status   Status
	JoinedAt time.Time

	CurrentProgress float64
	CurrentStreak   int
	LastActivityAt  *time.Time
	CompletedAt     *time.Time

	// Admission decision audit trail.
	DecidedBy      string
	DecisionReason string

	UpdatedAt time.Time
}

func (p Participant) Validate() error {
	if p.ID == "" {
		return fmt.Errorf("participant id is required")
	}
	if p.ChallengeID == "" {
		return fmt.Errorf("participant challenge id is required")
	}
	if p.UserID == "" {
		return fmt.Errorf("participant user id is required")
	}
	if _, ok := AllStatuses[p.Status]; !ok {
		return fmt.Errorf("invalid participant status %q", p.Status)
	}
	if p.JoinedAt.IsZero() {
		return fmt.Errorf("participant joined at is required")
	}

	return nil
}
