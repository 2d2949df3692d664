package usecase

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/mock"

	"github.com/fitarena/challenge-engine/internal/domain/challenge"
	"github.com/fitarena/challenge-engine/internal/domain/invitation"
	challengemock "github.com/fitarena/challenge-engine/internal/mocks/domain/challenge"
	invitationmock "github.com/fitarena/challenge-engine/internal/mocks/domain/invitation"
	"github.com/fitarena/challenge-engine/internal/platform/logging"
)

func TestInvitationService_Invite_SuccessUsingMockery(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	challengeRepo := challengemock.NewRepository(t)
	invitationRepo := invitationmock.NewRepository(t)

	svc := NewInvitationService(challengeRepo, invitationRepo, &seqIDGen{}, logging.NewNop())

	ch := inviteOnlyChallenge()
	challengeRepo.
		On("GetByID", mock.Anything, ch.ID).
		Return(ch, true, nil).
		Once()
	invitationRepo.
		On("ListByChallenge", mock.Anything, ch.ID).
		Return(nil, nil).
		Once()
	invitationRepo.
		On("Create", mock.Anything, mock.AnythingOfType("invitation.Invitation")).
		Return(nil).
		Once()

	inv, err := svc.Invite(ctx, testOperator(), InviteInput{ChallengeID: ch.ID, InvitedClubID: "club-9"})
	if err != nil {
		t.Fatalf("invite: %v", err)
	}
	if inv.Status != invitation.StatusPending {
		t.Fatalf("unexpected status: got=%s want=%s", inv.Status, invitation.StatusPending)
	}
	if inv.InvitedClubID != "club-9" {
		t.Fatalf("unexpected club: got=%s want=club-9", inv.InvitedClubID)
	}
}

func TestInvitationService_Invite_RepoFailureUsingMockery(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	challengeRepo := challengemock.NewRepository(t)
	invitationRepo := invitationmock.NewRepository(t)

	svc := NewInvitationService(challengeRepo, invitationRepo, &seqIDGen{}, logging.NewNop())

	repoErr := errors.New("connection reset")
	challengeRepo.
		On("GetByID", mock.Anything, "ch-1").
		Return(challenge.Challenge{}, false, repoErr).
		Once()

	if _, err := svc.Invite(ctx, testOperator(), InviteInput{ChallengeID: "ch-1", InvitedClubID: "club-9"}); !errors.Is(err, repoErr) {
		t.Fatalf("expected wrapped repo error, got %v", err)
	}
}
