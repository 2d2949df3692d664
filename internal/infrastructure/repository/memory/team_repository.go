package memory

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/fitarena/challenge-engine/internal/domain/team"
)

type TeamRepository struct {
	mu    sync.Mutex
	items map[string]team.Team
}

func NewTeamRepository() *TeamRepository {
	return &TeamRepository{items: make(map[string]team.Team)}
}

func (r *TeamRepository) Create(_ context.Context, t team.Team) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.items[t.ID] = cloneTeam(t)
	return nil
}

func (r *TeamRepository) GetByID(_ context.Context, teamID string) (team.Team, bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	t, ok := r.items[teamID]
	if !ok {
		return team.Team{}, false, nil
	}

	return cloneTeam(t), true, nil
}

func (r *TeamRepository) GetByChallengeAndClub(_ context.Context, challengeID, clubID string) (team.Team, bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	for _, t := range r.items {
		if t.ChallengeID == challengeID && t.ClubID == clubID {
			return cloneTeam(t), true, nil
		}
	}

	return team.Team{}, false, nil
}

func (r *TeamRepository) ListByChallenge(_ context.Context, challengeID string) ([]team.Team, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	out := make([]team.Team, 0)
	for _, t := range r.items {
		if t.ChallengeID == challengeID {
			out = append(out, cloneTeam(t))
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

func (r *TeamRepository) CountByChallenge(_ context.Context, challengeID string) (int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	count := 0
	for _, t := range r.items {
		if t.ChallengeID == challengeID {
			count++
		}
	}

	return count, nil
}

// AddMember checks the roster size and appends under one lock, so two joins
// cannot both take the last seat.
func (r *TeamRepository) AddMember(_ context.Context, teamID, userID string, maxMembers int) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	t, ok := r.items[teamID]
	if !ok {
		return nil
	}
	if t.HasMember(userID) {
		return nil
	}
	if maxMembers > 0 && len(t.MemberIDs) >= maxMembers {
		return team.ErrTeamFull
	}

	t.MemberIDs = append(append([]string(nil), t.MemberIDs...), userID)
	t.UpdatedAt = time.Now()
	r.items[teamID] = t

	return nil
}

func (r *TeamRepository) RemoveMember(_ context.Context, teamID, userID string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	t, ok := r.items[teamID]
	if !ok {
		return nil
	}

	members := make([]string, 0, len(t.MemberIDs))
	for _, id := range t.MemberIDs {
		if id != userID {
			members = append(members, id)
		}
	}
	t.MemberIDs = members
	t.UpdatedAt = time.Now()
	r.items[teamID] = t

	return nil
}

func cloneTeam(t team.Team) team.Team {
	copied := t
	copied.MemberIDs = append([]string(nil), t.MemberIDs...)
	return copied
}
