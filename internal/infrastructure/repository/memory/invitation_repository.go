package memory

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/fitarena/challenge-engine/internal/domain/invitation"
)

type InvitationRepository struct {
	mu    sync.RWMutex
	items map[string]invitation.Invitation
}

func NewInvitationRepository() *InvitationRepository {
	return &InvitationRepository{items: make(map[string]invitation.Invitation)}
}

func (r *InvitationRepository) Create(_ context.Context, inv invitation.Invitation) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.items[inv.ID] = cloneInvitation(inv)
	return nil
}

func (r *InvitationRepository) GetByID(_ context.Context, invitationID string) (invitation.Invitation, bool, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	inv, ok := r.items[invitationID]
	if !ok {
		return invitation.Invitation{}, false, nil
	}

	return cloneInvitation(inv), true, nil
}

func (r *InvitationRepository) ListByChallenge(_ context.Context, challengeID string) ([]invitation.Invitation, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]invitation.Invitation, 0)
	for _, inv := range r.items {
		if inv.ChallengeID == challengeID {
			out = append(out, cloneInvitation(inv))
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].CreatedAt.Before(out[j].CreatedAt)
		}
		return out[i].ID < out[j].ID
	})

	return out, nil
}

func (r *InvitationRepository) HasAccepted(_ context.Context, challengeID, clubID string) (bool, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	for _, inv := range r.items {
		if inv.ChallengeID == challengeID && inv.InvitedClubID == clubID && inv.Status == invitation.StatusAccepted {
			return true, nil
		}
	}

	return false, nil
}

func (r *InvitationRepository) UpdateStatus(_ context.Context, invitationID string, from, to invitation.Status, respondedAt *time.Time) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	inv, ok := r.items[invitationID]
	if !ok || inv.Status != from {
		return false, nil
	}

	inv.Status = to
	if respondedAt != nil {
		at := *respondedAt
		inv.RespondedAt = &at
	}
	r.items[invitationID] = inv

	return true, nil
}

func cloneInvitation(inv invitation.Invitation) invitation.Invitation {
	copied := inv
	if inv.RespondedAt != nil {
		at := *inv.RespondedAt
		copied.RespondedAt = &at
	}
	return copied
}
