package invitation

import (
	"context"
	"time"
)

// Repository describes invitation persistence needs from use cases.
type Repository interface {
	Create(ctx context.Context, inv Invitation) error
	GetByID(ctx context.Context, invitationID string) (Invitation, bool, error)
	ListByChallenge(ctx context.Context, challengeID string) ([]Invitation, error)
	// HasAccepted reports whether the club holds an accepted invitation for
	// the challenge. Used by the invite-only admission gate.
	HasAccepted(ctx context.Context, challengeID, clubID string) (bool, error)
	// UpdateStatus swaps the status only when the stored value still matches
	// from; the returned bool reports whether the swap happened.
	UpdateStatus(ctx context.Context, invitationID string, from, to Status, respondedAt *time.Time) (bool, error)
}
