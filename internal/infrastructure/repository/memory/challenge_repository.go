package memory

import (
	"context"
	"sort"
	"sync"

	"github.com/fitarena/challenge-engine/internal/domain/challenge"
)

type ChallengeRepository struct {
	mu    sync.RWMutex
	items map[string]challenge.Challenge
}

func NewChallengeRepository() *ChallengeRepository {
	return &ChallengeRepository{items: make(map[string]challenge.Challenge)}
}

func (r *ChallengeRepository) Create(_ context.Context, ch challenge.Challenge) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.items[ch.ID] = cloneChallenge(ch)
	return nil
}

func (r *ChallengeRepository) GetByID(_ context.Context, challengeID string) (challenge.Challenge, bool, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	ch, ok := r.items[challengeID]
	if !ok {
		return challenge.Challenge{}, false, nil
	}

	return cloneChallenge(ch), true, nil
}

func (r *ChallengeRepository) List(_ context.Context) ([]challenge.Challenge, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]challenge.Challenge, 0, len(r.items))
	for _, ch := range r.items {
		out = append(out, cloneChallenge(ch))
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].CreatedAt.Before(out[j].CreatedAt)
		}
		return out[i].ID < out[j].ID
	})

	return out, nil
}

func (r *ChallengeRepository) ListByStatus(_ context.Context, statuses ...challenge.Status) ([]challenge.Challenge, error) {
	wanted := make(map[challenge.Status]struct{}, len(statuses))
	for _, s := range statuses {
		wanted[s] = struct{}{}
	}

	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]challenge.Challenge, 0, len(r.items))
	for _, ch := range r.items {
		if _, ok := wanted[ch.Status]; !ok {
			continue
		}
		out = append(out, cloneChallenge(ch))
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].CreatedAt.Before(out[j].CreatedAt)
		}
		return out[i].ID < out[j].ID
	})

	return out, nil
}

func (r *ChallengeRepository) UpdateStatus(_ context.Context, challengeID string, from, to challenge.Status, frozen *challenge.AdmissionSnapshot) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	ch, ok := r.items[challengeID]
	if !ok || ch.Status != from {
		return false, nil
	}

	ch.Status = to
	if frozen != nil {
		snapshot := *frozen
		ch.FrozenAdmission = &snapshot
	}
	r.items[challengeID] = ch

	return true, nil
}

func cloneChallenge(ch challenge.Challenge) challenge.Challenge {
	copied := ch
	if ch.FrozenAdmission != nil {
		snapshot := *ch.FrozenAdmission
		copied.FrozenAdmission = &snapshot
	}
	return copied
}
