package usecase

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/fitarena/challenge-engine/internal/domain/challenge"
	"github.com/fitarena/challenge-engine/internal/domain/invitation"
	"github.com/fitarena/challenge-engine/internal/domain/user"
	idgen "github.com/fitarena/challenge-engine/internal/platform/id"
	"github.com/fitarena/challenge-engine/internal/platform/logging"
)

const defaultInvitationTTL = 14 * 24 * time.Hour

// InvitationService manages club invitations for invite-only challenges.
type InvitationService struct {
	challengeRepo  challenge.Repository
	invitationRepo invitation.Repository
	idGen          idgen.Generator
	logger         *logging.Logger
	ttl            time.Duration
	now            func() time.Time
}

func NewInvitationService(
	challengeRepo challenge.Repository,
	invitationRepo invitation.Repository,
	idGen idgen.Generator,
	logger *logging.Logger,
) *InvitationService {
	if logger == nil {
		logger = logging.Default()
	}

	return &InvitationService{
		challengeRepo:  challengeRepo,
		invitationRepo: invitationRepo,
		idGen:          idGen,
		logger:         logger,
		ttl:            defaultInvitationTTL,
		now:            time.Now,
	}
}

type InviteInput struct {
	ChallengeID   string
	InvitedClubID string
	// ExpiresAt overrides the default invitation lifetime when set.
	ExpiresAt time.Time
}

// Invite offers a club a slot. Only invite-only challenges that have not
// finished accept new invitations.
func (s *InvitationService) Invite(ctx context.Context, actor user.Principal, input InviteInput) (invitation.Invitation, error) {
	ctx, span := startUsecaseSpan(ctx, "usecase.InvitationService.Invite")
	defer span.End()

	if !actor.Can(user.CapChallengeManage) {
		return invitation.Invitation{}, fmt.Errorf("%w: challenge:manage capability required", ErrForbidden)
	}

	ch, exists, err := s.challengeRepo.GetByID(ctx, strings.TrimSpace(input.ChallengeID))
	if err != nil {
		return invitation.Invitation{}, fmt.Errorf("get challenge: %w", err)
	}
	if !exists {
		return invitation.Invitation{}, fmt.Errorf("%w: challenge=%s", ErrNotFound, input.ChallengeID)
	}
	if ch.Visibility != challenge.VisibilityInviteOnly {
		return invitation.Invitation{}, fmt.Errorf("%w: challenge is not invite-only", ErrInvalidInput)
	}
	if ch.Status.Terminal() {
		return invitation.Invitation{}, fmt.Errorf("%w: challenge status=%s", ErrChallengeNotJoinable, ch.Status)
	}

	clubID := strings.TrimSpace(input.InvitedClubID)
	if clubID == "" {
		return invitation.Invitation{}, fmt.Errorf("%w: invited club id is required", ErrInvalidInput)
	}

	existing, err := s.invitationRepo.ListByChallenge(ctx, ch.ID)
	if err != nil {
		return invitation.Invitation{}, fmt.Errorf("list invitations: %w", err)
	}
	now := s.now()
	for _, inv := range existing {
		if inv.InvitedClubID != clubID {
			continue
		}
		switch inv.EffectiveStatus(now) {
		case invitation.StatusPending, invitation.StatusAccepted:
			return invitation.Invitation{}, fmt.Errorf("%w: club %s already holds a %s invitation", ErrInvalidInput, clubID, inv.EffectiveStatus(now))
		}
	}

	id, err := s.idGen.NewID()
	if err != nil {
		return invitation.Invitation{}, fmt.Errorf("generate invitation id: %w", err)
	}

	expiresAt := input.ExpiresAt
	if expiresAt.IsZero() {
		expiresAt = now.Add(s.ttl)
	}

	inv := invitation.Invitation{
		ID:            id,
		ChallengeID:   ch.ID,
		InvitedClubID: clubID,
		Status:        invitation.StatusPending,
		InvitedBy:     actor.UserID,
		CreatedAt:     now,
		ExpiresAt:     expiresAt,
	}
	if err := inv.Validate(); err != nil {
		return invitation.Invitation{}, fmt.Errorf("%w: %v", ErrInvalidInput, err)
	}
	if err := s.invitationRepo.Create(ctx, inv); err != nil {
		return invitation.Invitation{}, fmt.Errorf("create invitation: %w", err)
	}

	s.logger.InfoContext(ctx, "club invited to challenge",
		"challenge_id", ch.ID,
		"invitation_id", inv.ID,
		"club_id", clubID,
	)

	return inv, nil
}

// Accept records the invited club's acceptance, which opens the invite-only
// admission gate for that club's members.
func (s *InvitationService) Accept(ctx context.Context, actor user.Principal, invitationID string) (invitation.Invitation, error) {
	return s.respond(ctx, actor, invitationID, invitation.StatusAccepted, "usecase.InvitationService.Accept")
}

// Decline records the invited club's refusal.
func (s *InvitationService) Decline(ctx context.Context, actor user.Principal, invitationID string) (invitation.Invitation, error) {
	return s.respond(ctx, actor, invitationID, invitation.StatusDeclined, "usecase.InvitationService.Decline")
}

// Revoke withdraws a pending invitation on behalf of the challenge operator.
// A revoked invitation is stored as declined; already-admitted participants
// of the club keep their spots.
func (s *InvitationService) Revoke(ctx context.Context, actor user.Principal, invitationID string) (invitation.Invitation, error) {
	ctx, span := startUsecaseSpan(ctx, "usecase.InvitationService.Revoke")
	defer span.End()

	if !actor.Can(user.CapChallengeManage) {
		return invitation.Invitation{}, fmt.Errorf("%w: challenge:manage capability required", ErrForbidden)
	}

	inv, exists, err := s.invitationRepo.GetByID(ctx, strings.TrimSpace(invitationID))
	if err != nil {
		return invitation.Invitation{}, fmt.Errorf("get invitation: %w", err)
	}
	if !exists {
		return invitation.Invitation{}, fmt.Errorf("%w: invitation=%s", ErrNotFound, invitationID)
	}

	return s.transition(ctx, inv, invitation.StatusDeclined)
}

func (s *InvitationService) respond(ctx context.Context, actor user.Principal, invitationID string, next invitation.Status, spanName string) (invitation.Invitation, error) {
	ctx, span := startUsecaseSpan(ctx, spanName)
	defer span.End()

	inv, exists, err := s.invitationRepo.GetByID(ctx, strings.TrimSpace(invitationID))
	if err != nil {
		return invitation.Invitation{}, fmt.Errorf("get invitation: %w", err)
	}
	if !exists {
		return invitation.Invitation{}, fmt.Errorf("%w: invitation=%s", ErrNotFound, invitationID)
	}

	if actor.ClubID != inv.InvitedClubID && !actor.Can(user.CapChallengeManage) {
		return invitation.Invitation{}, fmt.Errorf("%w: invitation belongs to club %s", ErrForbidden, inv.InvitedClubID)
	}
	if actor.ClubID == inv.InvitedClubID && !actor.Can(user.CapClubManage) {
		return invitation.Invitation{}, fmt.Errorf("%w: club:manage capability required", ErrForbidden)
	}

	return s.transition(ctx, inv, next)
}

func (s *InvitationService) transition(ctx context.Context, inv invitation.Invitation, next invitation.Status) (invitation.Invitation, error) {
	now := s.now()
	if err := inv.Respond(now, next); err != nil {
		return invitation.Invitation{}, err
	}

	swapped, err := s.invitationRepo.UpdateStatus(ctx, inv.ID, invitation.StatusPending, next, &now)
	if err != nil {
		return invitation.Invitation{}, fmt.Errorf("update invitation status: %w", err)
	}
	if !swapped {
		return invitation.Invitation{}, fmt.Errorf("%w: invitation changed concurrently", invitation.ErrIllegalTransition)
	}

	s.logger.InfoContext(ctx, "invitation resolved",
		"invitation_id", inv.ID,
		"challenge_id", inv.ChallengeID,
		"status", next,
	)

	inv.Status = next
	inv.RespondedAt = &now
	return inv, nil
}

// List returns the challenge's invitations with lazy expiry applied to the
// reported status.
func (s *InvitationService) List(ctx context.Context, actor user.Principal, challengeID string) ([]invitation.Invitation, error) {
	ctx, span := startUsecaseSpan(ctx, "usecase.InvitationService.List")
	defer span.End()

	if !actor.Can(user.CapChallengeManage) {
		return nil, fmt.Errorf("%w: challenge:manage capability required", ErrForbidden)
	}

	invitations, err := s.invitationRepo.ListByChallenge(ctx, strings.TrimSpace(challengeID))
	if err != nil {
		return nil, fmt.Errorf("list invitations: %w", err)
	}

	now := s.now()
	for i := range invitations {
		invitations[i].Status = invitations[i].EffectiveStatus(now)
	}

	return invitations, nil
}
