package participant

import (
	"context"
	"time"
)

// Repository describes participant persistence needs from use cases.
type Repository interface {
	// CreateWithinCapacity inserts p only if the number of non-terminal
	// participants for the challenge stays below capacity. The count and
	// insert are atomic; losing the slot yields ErrCapacityRaceLost.
	// capacity <= 0 disables the check.
	CreateWithinCapacity(ctx context.Context, p Participant, capacity int) error
	GetByID(ctx context.Context, participantID string) (Participant, bool, error)
	// GetOpenByChallengeAndUser returns the single non-terminal record for
	// the (challenge, user) pair, if any.
	GetOpenByChallengeAndUser(ctx context.Context, challengeID, userID string) (Participant, bool, error)
	ListByChallenge(ctx context.Context, challengeID string) ([]Participant, error)
	CountOpenByChallenge(ctx context.Context, challengeID string) (int, error)
	CountOpenByTeam(ctx context.Context, teamID string) (int, error)
	// UpdateStatus swaps the status only when the stored value still matches
	// from; the returned bool reports whether the swap happened.
	UpdateStatus(ctx context.Context, participantID string, from, to Status, decidedBy, reason string, completedAt *time.Time) (bool, error)
	UpdateProgress(ctx context.Context, participantID string, progress float64, streak int, lastActivityAt time.Time) error
}
