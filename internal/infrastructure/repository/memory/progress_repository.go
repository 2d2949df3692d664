package memory

import (
	"context"
	"sort"
	"sync"

	"github.com/fitarena/challenge-engine/internal/domain/progress"
)

// ProgressRepository is an append-only in-memory snapshot log.
type ProgressRepository struct {
	mu    sync.RWMutex
	items []progress.Snapshot
}

func NewProgressRepository() *ProgressRepository {
	return &ProgressRepository{}
}

func (r *ProgressRepository) Append(_ context.Context, s progress.Snapshot) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.items = append(r.items, s)
	return nil
}

func (r *ProgressRepository) ListByParticipant(_ context.Context, participantID string) ([]progress.Snapshot, error) {
	return r.list(func(s progress.Snapshot) bool { return s.ParticipantID == participantID }), nil
}

func (r *ProgressRepository) ListByTeam(_ context.Context, teamID string) ([]progress.Snapshot, error) {
	return r.list(func(s progress.Snapshot) bool { return s.TeamID == teamID }), nil
}

func (r *ProgressRepository) ListByChallenge(_ context.Context, challengeID string) ([]progress.Snapshot, error) {
	return r.list(func(s progress.Snapshot) bool { return s.ChallengeID == challengeID }), nil
}

func (r *ProgressRepository) list(match func(progress.Snapshot) bool) []progress.Snapshot {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]progress.Snapshot, 0)
	for _, s := range r.items {
		if match(s) {
			out = append(out, s)
		}
	}
	sort.SliceStable(out, func(i, j int) bool {
		if !out[i].OccurredAt.Equal(out[j].OccurredAt) {
			return out[i].OccurredAt.Before(out[j].OccurredAt)
		}
		return out[i].ID < out[j].ID
	})

	return out
}
