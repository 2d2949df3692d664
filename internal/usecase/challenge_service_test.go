package usecase

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/fitarena/challenge-engine/internal/domain/challenge"
	"github.com/fitarena/challenge-engine/internal/domain/user"
	"github.com/fitarena/challenge-engine/internal/platform/logging"
)

func testOperator() user.Principal {
	return user.Principal{
		UserID:       "operator-1",
		ClubID:       "club-1",
		Capabilities: []user.Capability{user.CapChallengeManage},
	}
}

func testCreateInput() CreateChallengeInput {
	return CreateChallengeInput{
		Name:            "Spring 100k",
		ClubID:          "club-1",
		Category:        challenge.CategoryIndividual,
		Type:            challenge.TypeDistance,
		Difficulty:      challenge.DifficultyModerate,
		Visibility:      challenge.VisibilityPublic,
		TargetValue:     100,
		TargetUnit:      "km",
		StartDate:       time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC),
		EndDate:         time.Date(2026, 3, 31, 0, 0, 0, 0, time.UTC),
		MaxParticipants: 50,
		AdmissionPolicy: challenge.AdmissionOpen,
	}
}

func TestChallengeServiceCreate(t *testing.T) {
	t.Parallel()

	repo := newStubChallengeRepo()
	svc := NewChallengeService(repo, nil, &seqIDGen{}, logging.NewNop())

	ch, err := svc.Create(context.Background(), testOperator(), testCreateInput())
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	if ch.Status != challenge.StatusDraft {
		t.Fatalf("expected draft status, got %s", ch.Status)
	}
	if ch.ID == "" || ch.CreatedBy != "operator-1" {
		t.Fatalf("unexpected challenge identity: id=%q created_by=%q", ch.ID, ch.CreatedBy)
	}

	stored, exists, _ := repo.GetByID(context.Background(), ch.ID)
	if !exists || stored.Name != "Spring 100k" {
		t.Fatalf("challenge not persisted: exists=%v name=%q", exists, stored.Name)
	}
}

func TestChallengeServiceCreateRequiresCapability(t *testing.T) {
	t.Parallel()

	svc := NewChallengeService(newStubChallengeRepo(), nil, &seqIDGen{}, logging.NewNop())

	member := user.Principal{UserID: "user-1", ClubID: "club-1"}
	if _, err := svc.Create(context.Background(), member, testCreateInput()); !errors.Is(err, ErrForbidden) {
		t.Fatalf("expected ErrForbidden, got %v", err)
	}
}

func TestChallengeServiceCreatePasswordPolicyRequiresPassword(t *testing.T) {
	t.Parallel()

	svc := NewChallengeService(newStubChallengeRepo(), nil, &seqIDGen{}, logging.NewNop())

	input := testCreateInput()
	input.AdmissionPolicy = challenge.AdmissionPassword
	if _, err := svc.Create(context.Background(), testOperator(), input); !errors.Is(err, ErrInvalidInput) {
		t.Fatalf("expected ErrInvalidInput, got %v", err)
	}

	input.Password = "sekrit"
	ch, err := svc.Create(context.Background(), testOperator(), input)
	if err != nil {
		t.Fatalf("Create with password: %v", err)
	}
	if !challenge.VerifyPassword(ch.PasswordHash, "sekrit") {
		t.Fatal("stored hash does not verify the supplied password")
	}
}

func TestChallengeServiceChangeStatusFreezesAdmission(t *testing.T) {
	t.Parallel()

	ch := challenge.Challenge{
		ID:              "ch-1",
		Name:            "Spring 100k",
		Category:        challenge.CategoryIndividual,
		Type:            challenge.TypeDistance,
		TargetValue:     100,
		TargetUnit:      "km",
		StartDate:       time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC),
		EndDate:         time.Date(2026, 3, 31, 0, 0, 0, 0, time.UTC),
		MaxParticipants: 50,
		AdmissionPolicy: challenge.AdmissionOpen,
		Status:          challenge.StatusPublished,
	}
	repo := newStubChallengeRepo(ch)
	publisher := &capturePublisher{}
	svc := NewChallengeService(repo, publisher, &seqIDGen{}, logging.NewNop())

	updated, err := svc.ChangeStatus(context.Background(), testOperator(), "ch-1", challenge.StatusActive)
	if err != nil {
		t.Fatalf("ChangeStatus: %v", err)
	}
	if updated.Status != challenge.StatusActive {
		t.Fatalf("expected active, got %s", updated.Status)
	}
	if updated.FrozenAdmission == nil {
		t.Fatal("expected admission snapshot to freeze on activation")
	}
	if updated.FrozenAdmission.MaxParticipants != 50 {
		t.Fatalf("frozen snapshot capacity = %d, want 50", updated.FrozenAdmission.MaxParticipants)
	}

	events := publisher.published()
	if len(events) != 1 || events[0].EventType != EventChallengeActivated {
		t.Fatalf("expected one activation event, got %+v", events)
	}
}

func TestChallengeServiceChangeStatusResumeDoesNotRefreeze(t *testing.T) {
	t.Parallel()

	frozen := &challenge.AdmissionSnapshot{Policy: challenge.AdmissionOpen, MaxParticipants: 10, FrozenAt: time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC)}
	ch := challenge.Challenge{
		ID:              "ch-1",
		Name:            "Spring 100k",
		Category:        challenge.CategoryIndividual,
		Type:            challenge.TypeDistance,
		TargetValue:     100,
		TargetUnit:      "km",
		StartDate:       time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC),
		EndDate:         time.Date(2026, 3, 31, 0, 0, 0, 0, time.UTC),
		MaxParticipants: 50,
		AdmissionPolicy: challenge.AdmissionOpen,
		Status:          challenge.StatusPaused,
		FrozenAdmission: frozen,
	}
	publisher := &capturePublisher{}
	svc := NewChallengeService(newStubChallengeRepo(ch), publisher, &seqIDGen{}, logging.NewNop())

	updated, err := svc.ChangeStatus(context.Background(), testOperator(), "ch-1", challenge.StatusActive)
	if err != nil {
		t.Fatalf("ChangeStatus: %v", err)
	}
	if updated.FrozenAdmission.MaxParticipants != 10 {
		t.Fatalf("resume must keep the original frozen snapshot, got %+v", updated.FrozenAdmission)
	}
	if events := publisher.published(); len(events) != 0 {
		t.Fatalf("resume must not re-announce activation, got %+v", events)
	}
}

func TestChallengeServiceChangeStatusRejectsIllegalTransition(t *testing.T) {
	t.Parallel()

	ch := challenge.Challenge{ID: "ch-1", Status: challenge.StatusDraft}
	svc := NewChallengeService(newStubChallengeRepo(ch), nil, &seqIDGen{}, logging.NewNop())

	if _, err := svc.ChangeStatus(context.Background(), testOperator(), "ch-1", challenge.StatusActive); !errors.Is(err, challenge.ErrIllegalTransition) {
		t.Fatalf("expected ErrIllegalTransition for draft -> active, got %v", err)
	}
}

func TestChallengeServiceGetReportsPhase(t *testing.T) {
	t.Parallel()

	ch := challenge.Challenge{
		ID:        "ch-1",
		Status:    challenge.StatusPublished,
		StartDate: time.Now().Add(24 * time.Hour),
		EndDate:   time.Now().Add(48 * time.Hour),
	}
	svc := NewChallengeService(newStubChallengeRepo(ch), nil, &seqIDGen{}, logging.NewNop())

	_, phase, err := svc.Get(context.Background(), "ch-1")
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if phase != challenge.PhaseUpcoming {
		t.Fatalf("expected upcoming phase, got %s", phase)
	}
}
