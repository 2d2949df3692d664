package memory

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/fitarena/challenge-engine/internal/domain/participant"
)

type ParticipantRepository struct {
	mu    sync.Mutex
	items map[string]participant.Participant
}

func NewParticipantRepository() *ParticipantRepository {
	return &ParticipantRepository{items: make(map[string]participant.Participant)}
}

// CreateWithinCapacity counts non-terminal participants and inserts under the
// same lock, so concurrent joins cannot both claim the last slot.
func (r *ParticipantRepository) CreateWithinCapacity(_ context.Context, p participant.Participant, capacity int) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if capacity > 0 {
		open := 0
		for _, existing := range r.items {
			if existing.ChallengeID == p.ChallengeID && !existing.Status.Terminal() {
				open++
			}
		}
		if open >= capacity {
			return participant.ErrCapacityRaceLost
		}
	}

	r.items[p.ID] = cloneParticipant(p)
	return nil
}

func (r *ParticipantRepository) GetByID(_ context.Context, participantID string) (participant.Participant, bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	p, ok := r.items[participantID]
	if !ok {
		return participant.Participant{}, false, nil
	}

	return cloneParticipant(p), true, nil
}

func (r *ParticipantRepository) GetOpenByChallengeAndUser(_ context.Context, challengeID, userID string) (participant.Participant, bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	for _, p := range r.items {
		if p.ChallengeID == challengeID && p.UserID == userID && !p.Status.Terminal() {
			return cloneParticipant(p), true, nil
		}
	}

	return participant.Participant{}, false, nil
}

func (r *ParticipantRepository) ListByChallenge(_ context.Context, challengeID string) ([]participant.Participant, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	out := make([]participant.Participant, 0)
	for _, p := range r.items {
		if p.ChallengeID == challengeID {
			out = append(out, cloneParticipant(p))
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].JoinedAt.Equal(out[j].JoinedAt) {
			return out[i].JoinedAt.Before(out[j].JoinedAt)
		}
		return out[i].ID < out[j].ID
	})

	return out, nil
}

func (r *ParticipantRepository) CountOpenByChallenge(_ context.Context, challengeID string) (int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	count := 0
	for _, p := range r.items {
		if p.ChallengeID == challengeID && !p.Status.Terminal() {
			count++
		}
	}

	return count, nil
}

func (r *ParticipantRepository) CountOpenByTeam(_ context.Context, teamID string) (int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	count := 0
	for _, p := range r.items {
		if p.TeamID == teamID && !p.Status.Terminal() {
			count++
		}
	}

	return count, nil
}

func (r *ParticipantRepository) UpdateStatus(_ context.Context, participantID string, from, to participant.Status, decidedBy, reason string, completedAt *time.Time) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	p, ok := r.items[participantID]
	if !ok || p.Status != from {
		return false, nil
	}

	p.Status = to
	p.DecidedBy = decidedBy
	p.DecisionReason = reason
	if completedAt != nil {
		at := *completedAt
		p.CompletedAt = &at
	}
	p.UpdatedAt = time.Now()
	r.items[participantID] = p

	return true, nil
}

func (r *ParticipantRepository) UpdateProgress(_ context.Context, participantID string, progress float64, streak int, lastActivityAt time.Time) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	p, ok := r.items[participantID]
	if !ok {
		return nil
	}

	p.CurrentProgress = progress
	p.CurrentStreak = streak
	at := lastActivityAt
	p.LastActivityAt = &at
	p.UpdatedAt = time.Now()
	r.items[participantID] = p

	return nil
}

func cloneParticipant(p participant.Participant) participant.Participant {
	copied := p
	if p.LastActivityAt != nil {
		at := *p.LastActivityAt
		copied.LastActivityAt = &at
	}
	if p.CompletedAt != nil {
		at := *p.CompletedAt
		copied.CompletedAt = &at
	}
	return copied
}
