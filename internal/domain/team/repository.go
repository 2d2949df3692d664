package team

import (
	"context"
	"errors"
)

// ErrTeamFull reports an AddMember that lost the last roster slot at
// commit time.
var ErrTeamFull = errors.New("team roster is full")

// Repository describes team persistence needs from use cases.
type Repository interface {
	Create(ctx context.Context, t Team) error
	GetByID(ctx context.Context, teamID string) (Team, bool, error)
	GetByChallengeAndClub(ctx context.Context, challengeID, clubID string) (Team, bool, error)
	ListByChallenge(ctx context.Context, challengeID string) ([]Team, error)
	CountByChallenge(ctx context.Context, challengeID string) (int, error)
	// AddMember appends userID only while the roster holds fewer than
	// maxMembers entries; the check and append are atomic.
	AddMember(ctx context.Context, teamID, userID string, maxMembers int) error
	// RemoveMember compensates a failed join after the roster was extended.
	RemoveMember(ctx context.Context, teamID, userID string) error
}
