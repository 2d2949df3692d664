package invitation

import (
	"errors"
	"fmt"
	"time"
)

var (
	ErrIllegalTransition = errors.New("illegal invitation status transition")
	// ErrExpired rejects actor-driven transitions on an invitation whose
	// expiry has already passed, even if storage still says pending.
	ErrExpired = errors.New("invitation expired")
)

type Status string

const (
	StatusPending  Status = "pending"
	StatusAccepted Status = "accepted"
	StatusDeclined Status = "declined"
	StatusExpired  Status = "expired"
)

// Invitation offers a club a slot in a team challenge. Only pending
// invitations move; everything else is terminal.
type Invitation struct {
	ID            string
	ChallengeID   string
	InvitedClubID string
	Status        Status
	InvitedBy     string
	CreatedAt     time.Time
	ExpiresAt     time.Time
	RespondedAt   *time.Time
}

func (i Invitation) Validate() error {
	if i.ID == "" {
		return fmt.Errorf("invitation id is required")
	}
	if i.ChallengeID == "" {
		return fmt.Errorf("invitation challenge id is required")
	}
	if i.InvitedClubID == "" {
		return fmt.Errorf("invitation club id is required")
	}
	if i.InvitedBy == "" {
		return fmt.Errorf("invitation inviter is required")
	}
	if i.ExpiresAt.IsZero() {
		return fmt.Errorf("invitation expiry is required")
	}
	if !i.ExpiresAt.After(i.CreatedAt) {
		return fmt.Errorf("invitation expiry must be after creation")
	}

	return nil
}

// EffectiveStatus applies lazy expiry: a stored pending invitation past its
// expiry reads as expired without requiring a write.
func (i Invitation) EffectiveStatus(now time.Time) Status {
	if i.Status == StatusPending && !now.Before(i.ExpiresAt) {
		return StatusExpired
	}
	return i.Status
}

// Respond validates an actor-driven transition at the given instant.
// Lazy expiry wins over the stored status: responding to a logically
// expired invitation fails with ErrExpired.
func (i Invitation) Respond(now time.Time, next Status) error {
	effective := i.EffectiveStatus(now)
	if effective == StatusExpired {
		return fmt.Errorf("%w: expired at %s", ErrExpired, i.ExpiresAt.Format(time.RFC3339))
	}
	if effective != StatusPending {
		return fmt.Errorf("%w: %s is terminal", ErrIllegalTransition, effective)
	}
	if next != StatusAccepted && next != StatusDeclined {
		return fmt.Errorf("%w: pending -> %s", ErrIllegalTransition, next)
	}

	return nil
}
