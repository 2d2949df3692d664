package httpapi

import (
	"context"
	"fmt"
	"net/http"
	"time"

	jsoniter "github.com/json-iterator/go"

	"github.com/fitarena/challenge-engine/internal/domain/invitation"
	"github.com/fitarena/challenge-engine/internal/domain/user"
	"github.com/fitarena/challenge-engine/internal/usecase"
)

type createInvitationRequest struct {
	InvitedClubID string    `json:"invited_club_id" validate:"required"`
	ExpiresAt     time.Time `json:"expires_at"`
}

func (h *Handler) CreateInvitation(w http.ResponseWriter, r *http.Request) {
	ctx, span := startSpan(r.Context(), "httpapi.Handler.CreateInvitation")
	defer span.End()

	principal, ok := principalFromContext(ctx)
	if !ok {
		writeError(ctx, w, fmt.Errorf("%w: principal is missing from request context", usecase.ErrUnauthorized))
		return
	}

	challengeID := r.PathValue("challengeID")

	var req createInvitationRequest
	decoder := jsoniter.NewDecoder(r.Body)
	decoder.DisallowUnknownFields()
	if err := decoder.Decode(&req); err != nil {
		writeError(ctx, w, fmt.Errorf("%w: invalid JSON payload: %v", usecase.ErrInvalidInput, err))
		return
	}
	if err := h.validateRequest(ctx, req); err != nil {
		writeError(ctx, w, err)
		return
	}

	inv, err := h.invitationService.Invite(ctx, principal, usecase.InviteInput{
		ChallengeID:   challengeID,
		InvitedClubID: req.InvitedClubID,
		ExpiresAt:     req.ExpiresAt,
	})
	if err != nil {
		h.logger.WarnContext(ctx, "create invitation failed", "challenge_id", challengeID, "club_id", req.InvitedClubID, "error", err)
		writeError(ctx, w, err)
		return
	}

	writeSuccess(ctx, w, http.StatusCreated, invitationToDTO(ctx, inv))
}

func (h *Handler) ListInvitations(w http.ResponseWriter, r *http.Request) {
	ctx, span := startSpan(r.Context(), "httpapi.Handler.ListInvitations")
	defer span.End()

	principal, ok := principalFromContext(ctx)
	if !ok {
		writeError(ctx, w, fmt.Errorf("%w: principal is missing from request context", usecase.ErrUnauthorized))
		return
	}

	challengeID := r.PathValue("challengeID")
	invitations, err := h.invitationService.List(ctx, principal, challengeID)
	if err != nil {
		h.logger.WarnContext(ctx, "list invitations failed", "challenge_id", challengeID, "error", err)
		writeError(ctx, w, err)
		return
	}

	items := make([]invitationDTO, 0, len(invitations))
	for _, inv := range invitations {
		items = append(items, invitationToDTO(ctx, inv))
	}

	writeSuccess(ctx, w, http.StatusOK, items)
}

func (h *Handler) AcceptInvitation(w http.ResponseWriter, r *http.Request) {
	h.respondInvitation(w, r, "httpapi.Handler.AcceptInvitation", h.invitationService.Accept)
}

func (h *Handler) DeclineInvitation(w http.ResponseWriter, r *http.Request) {
	h.respondInvitation(w, r, "httpapi.Handler.DeclineInvitation", h.invitationService.Decline)
}

func (h *Handler) RevokeInvitation(w http.ResponseWriter, r *http.Request) {
	h.respondInvitation(w, r, "httpapi.Handler.RevokeInvitation", h.invitationService.Revoke)
}

func (h *Handler) respondInvitation(
	w http.ResponseWriter,
	r *http.Request,
	spanName string,
	respond func(ctx context.Context, actor user.Principal, invitationID string) (invitation.Invitation, error),
) {
	ctx, span := startSpan(r.Context(), spanName)
	defer span.End()

	principal, ok := principalFromContext(ctx)
	if !ok {
		writeError(ctx, w, fmt.Errorf("%w: principal is missing from request context", usecase.ErrUnauthorized))
		return
	}

	invitationID := r.PathValue("invitationID")
	inv, err := respond(ctx, principal, invitationID)
	if err != nil {
		h.logger.WarnContext(ctx, "invitation response failed", "invitation_id", invitationID, "error", err)
		writeError(ctx, w, err)
		return
	}

	writeSuccess(ctx, w, http.StatusOK, invitationToDTO(ctx, inv))
}
