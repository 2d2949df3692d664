package usecase

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/fitarena/challenge-engine/internal/domain/challenge"
	"github.com/fitarena/challenge-engine/internal/domain/invitation"
	"github.com/fitarena/challenge-engine/internal/domain/participant"
	"github.com/fitarena/challenge-engine/internal/domain/team"
	"github.com/fitarena/challenge-engine/internal/domain/user"
	"github.com/fitarena/challenge-engine/internal/infrastructure/repository/memory"
	"github.com/fitarena/challenge-engine/internal/platform/logging"
)

func activeIndividualChallenge() challenge.Challenge {
	return challenge.Challenge{
		ID:              "ch-1",
		Name:            "Spring 100k",
		Category:        challenge.CategoryIndividual,
		Type:            challenge.TypeDistance,
		Visibility:      challenge.VisibilityPublic,
		TargetValue:     100,
		TargetUnit:      "km",
		StartDate:       time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC),
		EndDate:         time.Date(2026, 3, 31, 0, 0, 0, 0, time.UTC),
		MaxParticipants: 2,
		AdmissionPolicy: challenge.AdmissionOpen,
		Status:          challenge.StatusActive,
	}
}

func activeTeamChallenge() challenge.Challenge {
	ch := activeIndividualChallenge()
	ch.Category = challenge.CategoryTeam
	ch.MaxParticipants = 0
	ch.MaxTeams = 2
	ch.MaxTeamMembers = 2
	return ch
}

func memberPrincipal(userID, clubID string) user.Principal {
	return user.Principal{UserID: userID, ClubID: clubID}
}

func newAdmissionFixture(ch challenge.Challenge) (*AdmissionService, *stubParticipantRepo, *stubTeamRepo, *stubInvitationRepo, *capturePublisher) {
	participants := newStubParticipantRepo()
	teams := newStubTeamRepo()
	invitations := newStubInvitationRepo()
	publisher := &capturePublisher{}
	svc := NewAdmissionService(newStubChallengeRepo(ch), participants, teams, invitations, publisher, &seqIDGen{}, logging.NewNop())
	return svc, participants, teams, invitations, publisher
}

func TestAdmissionJoinOpenChallenge(t *testing.T) {
	t.Parallel()

	svc, _, _, _, publisher := newAdmissionFixture(activeIndividualChallenge())

	result, err := svc.Join(context.Background(), memberPrincipal("user-1", "club-1"), JoinInput{ChallengeID: "ch-1"})
	if err != nil {
		t.Fatalf("Join: %v", err)
	}
	if result.RequiresApproval {
		t.Fatal("open admission must auto-approve")
	}
	if result.Participant.Status != participant.StatusActive {
		t.Fatalf("expected active participant, got %s", result.Participant.Status)
	}

	events := publisher.published()
	if len(events) != 1 || events[0].EventType != EventParticipantAdmitted {
		t.Fatalf("expected one admission event, got %+v", events)
	}
}

func TestAdmissionJoinRejectsNonJoinableStates(t *testing.T) {
	t.Parallel()

	for _, status := range []challenge.Status{
		challenge.StatusDraft,
		challenge.StatusPaused,
		challenge.StatusCompleted,
		challenge.StatusCancelled,
	} {
		ch := activeIndividualChallenge()
		ch.Status = status
		svc, _, _, _, _ := newAdmissionFixture(ch)

		_, err := svc.Join(context.Background(), memberPrincipal("user-1", "club-1"), JoinInput{ChallengeID: "ch-1"})
		if !errors.Is(err, ErrChallengeNotJoinable) {
			t.Fatalf("status %s: expected ErrChallengeNotJoinable, got %v", status, err)
		}
	}
}

func TestAdmissionJoinDuplicate(t *testing.T) {
	t.Parallel()

	svc, _, _, _, _ := newAdmissionFixture(activeIndividualChallenge())

	requester := memberPrincipal("user-1", "club-1")
	if _, err := svc.Join(context.Background(), requester, JoinInput{ChallengeID: "ch-1"}); err != nil {
		t.Fatalf("first join: %v", err)
	}
	if _, err := svc.Join(context.Background(), requester, JoinInput{ChallengeID: "ch-1"}); !errors.Is(err, ErrAlreadyJoined) {
		t.Fatalf("expected ErrAlreadyJoined, got %v", err)
	}
}

func TestAdmissionJoinCapacityBeforePassword(t *testing.T) {
	t.Parallel()

	ch := activeIndividualChallenge()
	ch.AdmissionPolicy = challenge.AdmissionPassword
	ch.PasswordHash = challenge.HashPassword("sekrit")
	ch.MaxParticipants = 1
	svc, _, _, _, _ := newAdmissionFixture(ch)

	if _, err := svc.Join(context.Background(), memberPrincipal("user-1", "club-1"), JoinInput{ChallengeID: "ch-1", Password: "sekrit"}); err != nil {
		t.Fatalf("first join: %v", err)
	}

	// Wrong password on a full challenge must report fullness, not leak
	// password validity.
	_, err := svc.Join(context.Background(), memberPrincipal("user-2", "club-1"), JoinInput{ChallengeID: "ch-1", Password: "wrong"})
	if !errors.Is(err, ErrChallengeFull) {
		t.Fatalf("expected ErrChallengeFull before password check, got %v", err)
	}
}

func TestAdmissionJoinBadPassword(t *testing.T) {
	t.Parallel()

	ch := activeIndividualChallenge()
	ch.AdmissionPolicy = challenge.AdmissionPassword
	ch.PasswordHash = challenge.HashPassword("sekrit")
	svc, _, _, _, _ := newAdmissionFixture(ch)

	if _, err := svc.Join(context.Background(), memberPrincipal("user-1", "club-1"), JoinInput{ChallengeID: "ch-1", Password: "wrong"}); !errors.Is(err, ErrBadPassword) {
		t.Fatalf("expected ErrBadPassword, got %v", err)
	}
}

func TestAdmissionJoinInviteOnlyRequiresAcceptedInvitation(t *testing.T) {
	t.Parallel()

	ch := activeIndividualChallenge()
	ch.Visibility = challenge.VisibilityInviteOnly
	svc, _, _, invitations, _ := newAdmissionFixture(ch)

	if _, err := svc.Join(context.Background(), memberPrincipal("user-1", "club-9"), JoinInput{ChallengeID: "ch-1"}); !errors.Is(err, ErrInvitationRequired) {
		t.Fatalf("expected ErrInvitationRequired, got %v", err)
	}

	_ = invitations.Create(context.Background(), invitation.Invitation{
		ID:            "inv-1",
		ChallengeID:   "ch-1",
		InvitedClubID: "club-9",
		Status:        invitation.StatusAccepted,
	})

	if _, err := svc.Join(context.Background(), memberPrincipal("user-1", "club-9"), JoinInput{ChallengeID: "ch-1"}); err != nil {
		t.Fatalf("join after accepted invitation: %v", err)
	}
}

func TestAdmissionJoinApprovalRequiredYieldsPending(t *testing.T) {
	t.Parallel()

	ch := activeIndividualChallenge()
	ch.AdmissionPolicy = challenge.AdmissionApprovalRequired
	svc, _, _, _, publisher := newAdmissionFixture(ch)

	result, err := svc.Join(context.Background(), memberPrincipal("user-1", "club-1"), JoinInput{ChallengeID: "ch-1"})
	if err != nil {
		t.Fatalf("Join: %v", err)
	}
	if !result.RequiresApproval || result.Participant.Status != participant.StatusPending {
		t.Fatalf("expected pending participant, got %+v", result)
	}
	if events := publisher.published(); len(events) != 0 {
		t.Fatalf("pending admission must not announce, got %+v", events)
	}
}

func TestAdmissionJoinUsesFrozenSnapshot(t *testing.T) {
	t.Parallel()

	ch := activeIndividualChallenge()
	// Live capacity was lowered after activation; the frozen snapshot wins.
	ch.MaxParticipants = 1
	ch.FrozenAdmission = &challenge.AdmissionSnapshot{
		Policy:          challenge.AdmissionOpen,
		MaxParticipants: 3,
		FrozenAt:        time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC),
	}
	svc, _, _, _, _ := newAdmissionFixture(ch)

	for i, uid := range []string{"user-1", "user-2", "user-3"} {
		if _, err := svc.Join(context.Background(), memberPrincipal(uid, "club-1"), JoinInput{ChallengeID: "ch-1"}); err != nil {
			t.Fatalf("join %d: %v", i, err)
		}
	}
	if _, err := svc.Join(context.Background(), memberPrincipal("user-4", "club-1"), JoinInput{ChallengeID: "ch-1"}); !errors.Is(err, ErrChallengeFull) {
		t.Fatalf("expected ErrChallengeFull at frozen capacity, got %v", err)
	}
}

func TestAdmissionJoinTeamChallengeCreatesClubTeam(t *testing.T) {
	t.Parallel()

	svc, _, teams, _, _ := newAdmissionFixture(activeTeamChallenge())

	result, err := svc.Join(context.Background(), memberPrincipal("user-1", "club-1"), JoinInput{ChallengeID: "ch-1", TeamName: "Road Runners"})
	if err != nil {
		t.Fatalf("Join: %v", err)
	}
	if result.Participant.TeamID == "" {
		t.Fatal("expected team placement")
	}

	clubTeam, exists, _ := teams.GetByChallengeAndClub(context.Background(), "ch-1", "club-1")
	if !exists || clubTeam.Name != "Road Runners" {
		t.Fatalf("club team not created: exists=%v team=%+v", exists, clubTeam)
	}
	if !clubTeam.HasMember("user-1") {
		t.Fatal("joining member missing from roster")
	}

	// Second member of the same club lands on the existing team.
	second, err := svc.Join(context.Background(), memberPrincipal("user-2", "club-1"), JoinInput{ChallengeID: "ch-1"})
	if err != nil {
		t.Fatalf("second join: %v", err)
	}
	if second.Participant.TeamID != clubTeam.ID {
		t.Fatalf("expected same team %s, got %s", clubTeam.ID, second.Participant.TeamID)
	}
}

func TestAdmissionJoinTeamRosterFull(t *testing.T) {
	t.Parallel()

	svc, _, _, _, _ := newAdmissionFixture(activeTeamChallenge())

	for _, uid := range []string{"user-1", "user-2"} {
		if _, err := svc.Join(context.Background(), memberPrincipal(uid, "club-1"), JoinInput{ChallengeID: "ch-1"}); err != nil {
			t.Fatalf("join %s: %v", uid, err)
		}
	}
	if _, err := svc.Join(context.Background(), memberPrincipal("user-3", "club-1"), JoinInput{ChallengeID: "ch-1"}); !errors.Is(err, ErrChallengeFull) {
		t.Fatalf("expected ErrChallengeFull on full roster, got %v", err)
	}
}

func TestAdmissionJoinTeamRollbackOnInsertFailure(t *testing.T) {
	t.Parallel()

	ch := activeTeamChallenge()
	svc, participants, teams, _, _ := newAdmissionFixture(ch)

	_ = teams.Create(context.Background(), team.Team{ID: "t-1", ChallengeID: "ch-1", ClubID: "club-1", Name: "Full House", MemberIDs: []string{"m1"}})
	// Pre-fill the participant table to the aggregate capacity so the final
	// insert loses the commit-time swap.
	for i := 0; i < ch.MaxTeams*ch.MaxTeamMembers; i++ {
		_ = participants.CreateWithinCapacity(context.Background(), participant.Participant{
			ID:          string(rune('A' + i)),
			ChallengeID: "ch-1",
			UserID:      "filler",
			Status:      participant.StatusActive,
		}, 0)
	}

	_, err := svc.Join(context.Background(), memberPrincipal("user-9", "club-1"), JoinInput{ChallengeID: "ch-1"})
	if !errors.Is(err, participant.ErrCapacityRaceLost) {
		t.Fatalf("expected ErrCapacityRaceLost, got %v", err)
	}

	clubTeam, _, _ := teams.GetByID(context.Background(), "t-1")
	if clubTeam.HasMember("user-9") {
		t.Fatal("failed join must roll the roster extension back")
	}
}

func TestAdmissionApproveActivatesPending(t *testing.T) {
	t.Parallel()

	ch := activeIndividualChallenge()
	ch.AdmissionPolicy = challenge.AdmissionApprovalRequired
	svc, _, _, _, publisher := newAdmissionFixture(ch)

	if _, err := svc.Join(context.Background(), memberPrincipal("user-1", "club-1"), JoinInput{ChallengeID: "ch-1"}); err != nil {
		t.Fatalf("Join: %v", err)
	}

	updated, err := svc.Approve(context.Background(), testOperator(), "ch-1", "user-1")
	if err != nil {
		t.Fatalf("Approve: %v", err)
	}
	if updated.Status != participant.StatusActive || updated.DecidedBy != "operator-1" {
		t.Fatalf("unexpected approval result: %+v", updated)
	}

	events := publisher.published()
	if len(events) != 1 || events[0].EventType != EventParticipantAdmitted {
		t.Fatalf("expected admission event after approval, got %+v", events)
	}
}

func TestAdmissionRejectRequiresReason(t *testing.T) {
	t.Parallel()

	ch := activeIndividualChallenge()
	ch.AdmissionPolicy = challenge.AdmissionApprovalRequired
	svc, _, _, _, _ := newAdmissionFixture(ch)

	if _, err := svc.Join(context.Background(), memberPrincipal("user-1", "club-1"), JoinInput{ChallengeID: "ch-1"}); err != nil {
		t.Fatalf("Join: %v", err)
	}

	if _, err := svc.Reject(context.Background(), testOperator(), "ch-1", "user-1", "  "); !errors.Is(err, ErrInvalidInput) {
		t.Fatalf("expected ErrInvalidInput for empty reason, got %v", err)
	}

	rejected, err := svc.Reject(context.Background(), testOperator(), "ch-1", "user-1", "duplicate account")
	if err != nil {
		t.Fatalf("Reject: %v", err)
	}
	if rejected.Status != participant.StatusRejected || rejected.DecisionReason != "duplicate account" {
		t.Fatalf("unexpected rejection result: %+v", rejected)
	}
}

func TestAdmissionLeave(t *testing.T) {
	t.Parallel()

	svc, _, _, _, _ := newAdmissionFixture(activeIndividualChallenge())

	requester := memberPrincipal("user-1", "club-1")
	if _, err := svc.Join(context.Background(), requester, JoinInput{ChallengeID: "ch-1"}); err != nil {
		t.Fatalf("Join: %v", err)
	}

	left, err := svc.Leave(context.Background(), requester, "ch-1")
	if err != nil {
		t.Fatalf("Leave: %v", err)
	}
	if left.Status != participant.StatusDropped {
		t.Fatalf("expected dropped, got %s", left.Status)
	}

	// A dropped spot frees capacity for a fresh join.
	if _, err := svc.Join(context.Background(), requester, JoinInput{ChallengeID: "ch-1"}); err != nil {
		t.Fatalf("rejoin after leave: %v", err)
	}
}

func TestAdmissionCompleteEnforcesThreshold(t *testing.T) {
	t.Parallel()

	svc, participants, _, _, _ := newAdmissionFixture(activeIndividualChallenge())

	if _, err := svc.Join(context.Background(), memberPrincipal("user-1", "club-1"), JoinInput{ChallengeID: "ch-1"}); err != nil {
		t.Fatalf("Join: %v", err)
	}

	if _, err := svc.Complete(context.Background(), testOperator(), "ch-1", "user-1"); !errors.Is(err, participant.ErrThresholdNotMet) {
		t.Fatalf("expected ErrThresholdNotMet, got %v", err)
	}

	p, _, _ := participants.GetOpenByChallengeAndUser(context.Background(), "ch-1", "user-1")
	_ = participants.UpdateProgress(context.Background(), p.ID, 120, 0, time.Now())

	completed, err := svc.Complete(context.Background(), testOperator(), "ch-1", "user-1")
	if err != nil {
		t.Fatalf("Complete: %v", err)
	}
	if completed.Status != participant.StatusCompleted || completed.CompletedAt == nil {
		t.Fatalf("unexpected completion result: %+v", completed)
	}
}

func TestAdmissionDisqualifyRequiresReason(t *testing.T) {
	t.Parallel()

	svc, _, _, _, _ := newAdmissionFixture(activeIndividualChallenge())

	if _, err := svc.Join(context.Background(), memberPrincipal("user-1", "club-1"), JoinInput{ChallengeID: "ch-1"}); err != nil {
		t.Fatalf("Join: %v", err)
	}

	if _, err := svc.Disqualify(context.Background(), testOperator(), "ch-1", "user-1", ""); !errors.Is(err, ErrInvalidInput) {
		t.Fatalf("expected ErrInvalidInput, got %v", err)
	}

	dq, err := svc.Disqualify(context.Background(), testOperator(), "ch-1", "user-1", "gps spoofing")
	if err != nil {
		t.Fatalf("Disqualify: %v", err)
	}
	if dq.Status != participant.StatusDisqualified {
		t.Fatalf("expected disqualified, got %s", dq.Status)
	}
}

func TestAdmissionOperatorEndpointsRequireCapability(t *testing.T) {
	t.Parallel()

	svc, _, _, _, _ := newAdmissionFixture(activeIndividualChallenge())
	member := memberPrincipal("user-2", "club-1")

	if _, err := svc.Approve(context.Background(), member, "ch-1", "user-1"); !errors.Is(err, ErrForbidden) {
		t.Fatalf("Approve: expected ErrForbidden, got %v", err)
	}
	if _, err := svc.Reject(context.Background(), member, "ch-1", "user-1", "reason"); !errors.Is(err, ErrForbidden) {
		t.Fatalf("Reject: expected ErrForbidden, got %v", err)
	}
	if _, err := svc.Disqualify(context.Background(), member, "ch-1", "user-1", "reason"); !errors.Is(err, ErrForbidden) {
		t.Fatalf("Disqualify: expected ErrForbidden, got %v", err)
	}
}

func TestAdmissionJoinConcurrentLastSlot(t *testing.T) {
	t.Parallel()

	ch := activeIndividualChallenge()
	ch.MaxParticipants = 1

	challenges := memory.NewChallengeRepository()
	if err := challenges.Create(context.Background(), ch); err != nil {
		t.Fatalf("seed challenge: %v", err)
	}
	participants := memory.NewParticipantRepository()
	svc := NewAdmissionService(challenges, participants, memory.NewTeamRepository(), memory.NewInvitationRepository(), NopPublisher{}, &seqIDGen{}, logging.NewNop())

	const contenders = 2
	start := make(chan struct{})
	joinErrs := make([]error, contenders)

	var wg sync.WaitGroup
	for i := 0; i < contenders; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			<-start
			_, err := svc.Join(context.Background(), memberPrincipal(fmt.Sprintf("user-%d", i), "club-1"), JoinInput{ChallengeID: ch.ID})
			joinErrs[i] = err
		}(i)
	}
	close(start)
	wg.Wait()

	winners := 0
	for _, err := range joinErrs {
		switch {
		case err == nil:
			winners++
		case errors.Is(err, ErrChallengeFull), errors.Is(err, participant.ErrCapacityRaceLost):
		default:
			t.Fatalf("unexpected join error: %v", err)
		}
	}
	if winners != 1 {
		t.Fatalf("winners=%d, want exactly one for the last slot", winners)
	}

	count, err := participants.CountOpenByChallenge(context.Background(), ch.ID)
	if err != nil {
		t.Fatalf("count participants: %v", err)
	}
	if count != 1 {
		t.Fatalf("open participants=%d, want 1", count)
	}
}
