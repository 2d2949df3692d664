package progress

import "context"

// Repository is the append-only snapshot log. Listings return snapshots
// ordered by occurredAt then id, which is the replay order.
type Repository interface {
	Append(ctx context.Context, s Snapshot) error
	ListByParticipant(ctx context.Context, participantID string) ([]Snapshot, error)
	ListByTeam(ctx context.Context, teamID string) ([]Snapshot, error)
	ListByChallenge(ctx context.Context, challengeID string) ([]Snapshot, error)
}
