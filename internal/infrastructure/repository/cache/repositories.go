package cache

import (
	"context"
	"strings"
	"time"

	"github.com/fitarena/challenge-engine/internal/domain/challenge"
	"github.com/fitarena/challenge-engine/internal/domain/invitation"
	basecache "github.com/fitarena/challenge-engine/internal/platform/cache"
)

// ChallengeRepository caches challenge reads in front of the persistent
// repository. The discovery endpoints hammer List and GetByID; writes
// invalidate so a status transition is visible on the next read.
type ChallengeRepository struct {
	next  challenge.Repository
	cache *basecache.Store
}

func NewChallengeRepository(next challenge.Repository, cache *basecache.Store) *ChallengeRepository {
	return &ChallengeRepository{next: next, cache: cache}
}

func (r *ChallengeRepository) Create(ctx context.Context, ch challenge.Challenge) error {
	if err := r.next.Create(ctx, ch); err != nil {
		return err
	}

	r.cache.Delete(ctx, challengeByIDKey(ch.ID))
	r.cache.Delete(ctx, challengeListKey)
	r.cache.DeletePrefix(ctx, challengeListByStatusPrefix)
	return nil
}

func (r *ChallengeRepository) GetByID(ctx context.Context, challengeID string) (challenge.Challenge, bool, error) {
	v, err := r.cache.GetOrLoad(ctx, challengeByIDKey(challengeID), func(ctx context.Context) (any, error) {
		item, exists, err := r.next.GetByID(ctx, challengeID)
		if err != nil {
			return nil, err
		}
		return cachedChallengeByID{value: cloneChallenge(item), exists: exists}, nil
	})
	if err != nil {
		return challenge.Challenge{}, false, err
	}

	cached, _ := v.(cachedChallengeByID)
	return cloneChallenge(cached.value), cached.exists, nil
}

func (r *ChallengeRepository) List(ctx context.Context) ([]challenge.Challenge, error) {
	v, err := r.cache.GetOrLoad(ctx, challengeListKey, func(ctx context.Context) (any, error) {
		items, err := r.next.List(ctx)
		if err != nil {
			return nil, err
		}
		return cloneChallenges(items), nil
	})
	if err != nil {
		return nil, err
	}

	items, _ := v.([]challenge.Challenge)
	return cloneChallenges(items), nil
}

func (r *ChallengeRepository) ListByStatus(ctx context.Context, statuses ...challenge.Status) ([]challenge.Challenge, error) {
	key := challengeListByStatusKey(statuses)
	v, err := r.cache.GetOrLoad(ctx, key, func(ctx context.Context) (any, error) {
		items, err := r.next.ListByStatus(ctx, statuses...)
		if err != nil {
			return nil, err
		}
		return cloneChallenges(items), nil
	})
	if err != nil {
		return nil, err
	}

	items, _ := v.([]challenge.Challenge)
	return cloneChallenges(items), nil
}

func (r *ChallengeRepository) UpdateStatus(ctx context.Context, challengeID string, from, to challenge.Status, frozen *challenge.AdmissionSnapshot) (bool, error) {
	swapped, err := r.next.UpdateStatus(ctx, challengeID, from, to, frozen)
	if err != nil {
		return false, err
	}
	if swapped {
		r.cache.Delete(ctx, challengeByIDKey(challengeID))
		r.cache.Delete(ctx, challengeListKey)
		r.cache.DeletePrefix(ctx, challengeListByStatusPrefix)
	}

	return swapped, nil
}

type cachedChallengeByID struct {
	value  challenge.Challenge
	exists bool
}

const (
	challengeListKey            = "challenge:list"
	challengeListByStatusPrefix = "challenge:list:status:"
)

func challengeByIDKey(challengeID string) string {
	return "challenge:id:" + challengeID
}

func challengeListByStatusKey(statuses []challenge.Status) string {
	names := make([]string, 0, len(statuses))
	for _, s := range statuses {
		names = append(names, string(s))
	}
	return challengeListByStatusPrefix + strings.Join(names, ",")
}

func cloneChallenge(ch challenge.Challenge) challenge.Challenge {
	out := ch
	if ch.FrozenAdmission != nil {
		frozen := *ch.FrozenAdmission
		out.FrozenAdmission = &frozen
	}
	return out
}

func cloneChallenges(items []challenge.Challenge) []challenge.Challenge {
	out := make([]challenge.Challenge, 0, len(items))
	for _, item := range items {
		out = append(out, cloneChallenge(item))
	}
	return out
}

// InvitationRepository caches the accepted-invitation lookup that gates
// every invite-only join, plus the per-challenge listing.
type InvitationRepository struct {
	next  invitation.Repository
	cache *basecache.Store
}

func NewInvitationRepository(next invitation.Repository, cache *basecache.Store) *InvitationRepository {
	return &InvitationRepository{next: next, cache: cache}
}

func (r *InvitationRepository) Create(ctx context.Context, inv invitation.Invitation) error {
	if err := r.next.Create(ctx, inv); err != nil {
		return err
	}

	r.cache.Delete(ctx, invitationByIDKey(inv.ID))
	r.cache.Delete(ctx, invitationListKey(inv.ChallengeID))
	r.cache.Delete(ctx, invitationAcceptedKey(inv.ChallengeID, inv.InvitedClubID))
	return nil
}

func (r *InvitationRepository) GetByID(ctx context.Context, invitationID string) (invitation.Invitation, bool, error) {
	v, err := r.cache.GetOrLoad(ctx, invitationByIDKey(invitationID), func(ctx context.Context) (any, error) {
		item, exists, err := r.next.GetByID(ctx, invitationID)
		if err != nil {
			return nil, err
		}
		return cachedInvitationByID{value: cloneInvitation(item), exists: exists}, nil
	})
	if err != nil {
		return invitation.Invitation{}, false, err
	}

	cached, _ := v.(cachedInvitationByID)
	return cloneInvitation(cached.value), cached.exists, nil
}

func (r *InvitationRepository) ListByChallenge(ctx context.Context, challengeID string) ([]invitation.Invitation, error) {
	v, err := r.cache.GetOrLoad(ctx, invitationListKey(challengeID), func(ctx context.Context) (any, error) {
		items, err := r.next.ListByChallenge(ctx, challengeID)
		if err != nil {
			return nil, err
		}
		out := make([]invitation.Invitation, 0, len(items))
		for _, item := range items {
			out = append(out, cloneInvitation(item))
		}
		return out, nil
	})
	if err != nil {
		return nil, err
	}

	items, _ := v.([]invitation.Invitation)
	out := make([]invitation.Invitation, 0, len(items))
	for _, item := range items {
		out = append(out, cloneInvitation(item))
	}
	return out, nil
}

func (r *InvitationRepository) HasAccepted(ctx context.Context, challengeID, clubID string) (bool, error) {
	v, err := r.cache.GetOrLoad(ctx, invitationAcceptedKey(challengeID, clubID), func(ctx context.Context) (any, error) {
		accepted, err := r.next.HasAccepted(ctx, challengeID, clubID)
		if err != nil {
			return nil, err
		}
		return accepted, nil
	})
	if err != nil {
		return false, err
	}

	accepted, _ := v.(bool)
	return accepted, nil
}

func (r *InvitationRepository) UpdateStatus(ctx context.Context, invitationID string, from, to invitation.Status, respondedAt *time.Time) (bool, error) {
	swapped, err := r.next.UpdateStatus(ctx, invitationID, from, to, respondedAt)
	if err != nil {
		return false, err
	}
	if swapped {
		r.cache.Delete(ctx, invitationByIDKey(invitationID))
		r.cache.DeletePrefix(ctx, invitationListPrefix)
		r.cache.DeletePrefix(ctx, invitationAcceptedPrefix)
	}

	return swapped, nil
}

type cachedInvitationByID struct {
	value  invitation.Invitation
	exists bool
}

const (
	invitationListPrefix     = "invitation:list:"
	invitationAcceptedPrefix = "invitation:accepted:"
)

func invitationByIDKey(invitationID string) string {
	return "invitation:id:" + invitationID
}

func invitationListKey(challengeID string) string {
	return invitationListPrefix + challengeID
}

func invitationAcceptedKey(challengeID, clubID string) string {
	return invitationAcceptedPrefix + challengeID + ":" + clubID
}

func cloneInvitation(inv invitation.Invitation) invitation.Invitation {
	out := inv
	if inv.RespondedAt != nil {
		at := *inv.RespondedAt
		out.RespondedAt = &at
	}
	return out
}
