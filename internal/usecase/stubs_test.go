package usecase

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/fitarena/challenge-engine/internal/domain/challenge"
	"github.com/fitarena/challenge-engine/internal/domain/invitation"
	"github.com/fitarena/challenge-engine/internal/domain/participant"
	"github.com/fitarena/challenge-engine/internal/domain/progress"
	"github.com/fitarena/challenge-engine/internal/domain/team"
)

type stubChallengeRepo struct {
	mu    sync.Mutex
	items map[string]challenge.Challenge
}

func newStubChallengeRepo(items ...challenge.Challenge) *stubChallengeRepo {
	repo := &stubChallengeRepo{items: make(map[string]challenge.Challenge)}
	for _, ch := range items {
		repo.items[ch.ID] = ch
	}
	return repo
}

func (r *stubChallengeRepo) Create(_ context.Context, ch challenge.Challenge) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, exists := r.items[ch.ID]; exists {
		return fmt.Errorf("challenge %s already exists", ch.ID)
	}
	r.items[ch.ID] = ch
	return nil
}

func (r *stubChallengeRepo) GetByID(_ context.Context, challengeID string) (challenge.Challenge, bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	ch, ok := r.items[challengeID]
	return ch, ok, nil
}

func (r *stubChallengeRepo) List(_ context.Context) ([]challenge.Challenge, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]challenge.Challenge, 0, len(r.items))
	for _, ch := range r.items {
		out = append(out, ch)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (r *stubChallengeRepo) ListByStatus(_ context.Context, statuses ...challenge.Status) ([]challenge.Challenge, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	wanted := make(map[challenge.Status]struct{}, len(statuses))
	for _, s := range statuses {
		wanted[s] = struct{}{}
	}
	out := make([]challenge.Challenge, 0, len(r.items))
	for _, ch := range r.items {
		if _, ok := wanted[ch.Status]; ok {
			out = append(out, ch)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (r *stubChallengeRepo) UpdateStatus(_ context.Context, challengeID string, from, to challenge.Status, frozen *challenge.AdmissionSnapshot) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	ch, ok := r.items[challengeID]
	if !ok || ch.Status != from {
		return false, nil
	}
	ch.Status = to
	if frozen != nil {
		ch.FrozenAdmission = frozen
	}
	r.items[challengeID] = ch
	return true, nil
}

type stubParticipantRepo struct {
	mu    sync.Mutex
	items map[string]participant.Participant
}

func newStubParticipantRepo(items ...participant.Participant) *stubParticipantRepo {
	repo := &stubParticipantRepo{items: make(map[string]participant.Participant)}
	for _, p := range items {
		repo.items[p.ID] = p
	}
	return repo
}

func (r *stubParticipantRepo) CreateWithinCapacity(_ context.Context, p participant.Participant, capacity int) error {
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
	r.items[p.ID] = p
	return nil
}

func (r *stubParticipantRepo) GetByID(_ context.Context, participantID string) (participant.Participant, bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	p, ok := r.items[participantID]
	return p, ok, nil
}

func (r *stubParticipantRepo) GetOpenByChallengeAndUser(_ context.Context, challengeID, userID string) (participant.Participant, bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, p := range r.items {
		if p.ChallengeID == challengeID && p.UserID == userID && !p.Status.Terminal() {
			return p, true, nil
		}
	}
	return participant.Participant{}, false, nil
}

func (r *stubParticipantRepo) ListByChallenge(_ context.Context, challengeID string) ([]participant.Participant, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]participant.Participant, 0)
	for _, p := range r.items {
		if p.ChallengeID == challengeID {
			out = append(out, p)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (r *stubParticipantRepo) CountOpenByChallenge(_ context.Context, challengeID string) (int, error) {
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

func (r *stubParticipantRepo) CountOpenByTeam(_ context.Context, teamID string) (int, error) {
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

func (r *stubParticipantRepo) UpdateStatus(_ context.Context, participantID string, from, to participant.Status, decidedBy, reason string, completedAt *time.Time) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	p, ok := r.items[participantID]
	if !ok || p.Status != from {
		return false, nil
	}
	p.Status = to
	p.DecidedBy = decidedBy
	p.DecisionReason = reason
	p.CompletedAt = completedAt
	r.items[participantID] = p
	return true, nil
}

func (r *stubParticipantRepo) UpdateProgress(_ context.Context, participantID string, progressValue float64, streak int, lastActivityAt time.Time) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	p, ok := r.items[participantID]
	if !ok {
		return fmt.Errorf("participant %s not found", participantID)
	}
	p.CurrentProgress = progressValue
	p.CurrentStreak = streak
	p.LastActivityAt = &lastActivityAt
	r.items[participantID] = p
	return nil
}

type stubTeamRepo struct {
	mu    sync.Mutex
	items map[string]team.Team
}

func newStubTeamRepo(items ...team.Team) *stubTeamRepo {
	repo := &stubTeamRepo{items: make(map[string]team.Team)}
	for _, t := range items {
		repo.items[t.ID] = t
	}
	return repo
}

func (r *stubTeamRepo) Create(_ context.Context, t team.Team) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, exists := r.items[t.ID]; exists {
		return fmt.Errorf("team %s already exists", t.ID)
	}
	r.items[t.ID] = t
	return nil
}

func (r *stubTeamRepo) GetByID(_ context.Context, teamID string) (team.Team, bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	t, ok := r.items[teamID]
	return t, ok, nil
}

func (r *stubTeamRepo) GetByChallengeAndClub(_ context.Context, challengeID, clubID string) (team.Team, bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, t := range r.items {
		if t.ChallengeID == challengeID && t.ClubID == clubID {
			return t, true, nil
		}
	}
	return team.Team{}, false, nil
}

func (r *stubTeamRepo) ListByChallenge(_ context.Context, challengeID string) ([]team.Team, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]team.Team, 0)
	for _, t := range r.items {
		if t.ChallengeID == challengeID {
			out = append(out, t)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (r *stubTeamRepo) CountByChallenge(_ context.Context, challengeID string) (int, error) {
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

func (r *stubTeamRepo) AddMember(_ context.Context, teamID, userID string, maxMembers int) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	t, ok := r.items[teamID]
	if !ok {
		return fmt.Errorf("team %s not found", teamID)
	}
	if maxMembers > 0 && len(t.MemberIDs) >= maxMembers {
		return team.ErrTeamFull
	}
	t.MemberIDs = append(t.MemberIDs, userID)
	r.items[teamID] = t
	return nil
}

func (r *stubTeamRepo) RemoveMember(_ context.Context, teamID, userID string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	t, ok := r.items[teamID]
	if !ok {
		return fmt.Errorf("team %s not found", teamID)
	}
	kept := t.MemberIDs[:0]
	for _, id := range t.MemberIDs {
		if id != userID {
			kept = append(kept, id)
		}
	}
	t.MemberIDs = kept
	r.items[teamID] = t
	return nil
}

type stubInvitationRepo struct {
	mu    sync.Mutex
	items map[string]invitation.Invitation
}

func newStubInvitationRepo(items ...invitation.Invitation) *stubInvitationRepo {
	repo := &stubInvitationRepo{items: make(map[string]invitation.Invitation)}
	for _, inv := range items {
		repo.items[inv.ID] = inv
	}
	return repo
}

func (r *stubInvitationRepo) Create(_ context.Context, inv invitation.Invitation) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, exists := r.items[inv.ID]; exists {
		return fmt.Errorf("invitation %s already exists", inv.ID)
	}
	r.items[inv.ID] = inv
	return nil
}

func (r *stubInvitationRepo) GetByID(_ context.Context, invitationID string) (invitation.Invitation, bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	inv, ok := r.items[invitationID]
	return inv, ok, nil
}

func (r *stubInvitationRepo) ListByChallenge(_ context.Context, challengeID string) ([]invitation.Invitation, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]invitation.Invitation, 0)
	for _, inv := range r.items {
		if inv.ChallengeID == challengeID {
			out = append(out, inv)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (r *stubInvitationRepo) HasAccepted(_ context.Context, challengeID, clubID string) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, inv := range r.items {
		if inv.ChallengeID == challengeID && inv.InvitedClubID == clubID && inv.Status == invitation.StatusAccepted {
			return true, nil
		}
	}
	return false, nil
}

func (r *stubInvitationRepo) UpdateStatus(_ context.Context, invitationID string, from, to invitation.Status, respondedAt *time.Time) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	inv, ok := r.items[invitationID]
	if !ok || inv.Status != from {
		return false, nil
	}
	inv.Status = to
	inv.RespondedAt = respondedAt
	r.items[invitationID] = inv
	return true, nil
}

type stubProgressRepo struct {
	mu    sync.Mutex
	items []progress.Snapshot
}

func newStubProgressRepo(items ...progress.Snapshot) *stubProgressRepo {
	return &stubProgressRepo{items: items}
}

func (r *stubProgressRepo) Append(_ context.Context, s progress.Snapshot) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.items = append(r.items, s)
	return nil
}

func (r *stubProgressRepo) list(match func(progress.Snapshot) bool) []progress.Snapshot {
	r.mu.Lock()
	defer r.mu.Unlock()
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

func (r *stubProgressRepo) ListByParticipant(_ context.Context, participantID string) ([]progress.Snapshot, error) {
	return r.list(func(s progress.Snapshot) bool { return s.ParticipantID == participantID }), nil
}

func (r *stubProgressRepo) ListByTeam(_ context.Context, teamID string) ([]progress.Snapshot, error) {
	return r.list(func(s progress.Snapshot) bool { return s.TeamID == teamID }), nil
}

func (r *stubProgressRepo) ListByChallenge(_ context.Context, challengeID string) ([]progress.Snapshot, error) {
	return r.list(func(s progress.Snapshot) bool { return s.ChallengeID == challengeID }), nil
}

type seqIDGen struct {
	mu   sync.Mutex
	next int
}

func (g *seqIDGen) NewID() (string, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.next++
	return fmt.Sprintf("id-%03d", g.next), nil
}

type publishedEvent struct {
	EventType string
	DedupID   string
}

type capturePublisher struct {
	mu     sync.Mutex
	events []publishedEvent
}

func (p *capturePublisher) Publish(_ context.Context, eventType string, _ any, dedupID string) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, publishedEvent{EventType: eventType, DedupID: dedupID})
	return nil
}

func (p *capturePublisher) published() []publishedEvent {
	p.mu.Lock()
	defer p.mu.Unlock()
	out := make([]publishedEvent, len(p.events))
	copy(out, p.events)
	return out
}
