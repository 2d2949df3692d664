package httpapi

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"

	jsoniter "github.com/json-iterator/go"

	"github.com/fitarena/challenge-engine/internal/domain/participant"
	"github.com/fitarena/challenge-engine/internal/domain/user"
	"github.com/fitarena/challenge-engine/internal/usecase"
)

type joinChallengeRequest struct {
	Password string `json:"password" validate:"omitempty,max=128"`
	TeamName string `json:"team_name" validate:"omitempty,max=100"`
}

type participantDecisionRequest struct {
	Reason string `json:"reason" validate:"required,max=500"`
}

func (h *Handler) JoinChallenge(w http.ResponseWriter, r *http.Request) {
	ctx, span := startSpan(r.Context(), "httpapi.Handler.JoinChallenge")
	defer span.End()

	principal, ok := principalFromContext(ctx)
	if !ok {
		writeError(ctx, w, fmt.Errorf("%w: principal is missing from request context", usecase.ErrUnauthorized))
		return
	}

	challengeID := r.PathValue("challengeID")

	// The body is optional: open challenges need no password or team name.
	var req joinChallengeRequest
	decoder := jsoniter.NewDecoder(r.Body)
	decoder.DisallowUnknownFields()
	if err := decoder.Decode(&req); err != nil && !errors.Is(err, io.EOF) {
		writeError(ctx, w, fmt.Errorf("%w: invalid JSON payload: %v", usecase.ErrInvalidInput, err))
		return
	}
	if err := h.validateRequest(ctx, req); err != nil {
		writeError(ctx, w, err)
		return
	}

	result, err := h.admissionService.Join(ctx, principal, usecase.JoinInput{
		ChallengeID: challengeID,
		Password:    req.Password,
		TeamName:    req.TeamName,
	})
	if err != nil {
		h.logger.WarnContext(ctx, "join challenge failed", "challenge_id", challengeID, "user_id", principal.UserID, "error", err)
		writeError(ctx, w, err)
		return
	}

	status := http.StatusCreated
	if result.RequiresApproval {
		status = http.StatusAccepted
	}

	writeSuccess(ctx, w, status, joinResultDTO{
		Participant:      participantToDTO(ctx, result.Participant),
		RequiresApproval: result.RequiresApproval,
	})
}

func (h *Handler) LeaveChallenge(w http.ResponseWriter, r *http.Request) {
	ctx, span := startSpan(r.Context(), "httpapi.Handler.LeaveChallenge")
	defer span.End()

	principal, ok := principalFromContext(ctx)
	if !ok {
		writeError(ctx, w, fmt.Errorf("%w: principal is missing from request context", usecase.ErrUnauthorized))
		return
	}

	challengeID := r.PathValue("challengeID")
	dropped, err := h.admissionService.Leave(ctx, principal, challengeID)
	if err != nil {
		h.logger.WarnContext(ctx, "leave challenge failed", "challenge_id", challengeID, "user_id", principal.UserID, "error", err)
		writeError(ctx, w, err)
		return
	}

	writeSuccess(ctx, w, http.StatusOK, participantToDTO(ctx, dropped))
}

func (h *Handler) ListParticipants(w http.ResponseWriter, r *http.Request) {
	ctx, span := startSpan(r.Context(), "httpapi.Handler.ListParticipants")
	defer span.End()

	challengeID := r.PathValue("challengeID")
	participants, err := h.admissionService.ListParticipants(ctx, challengeID)
	if err != nil {
		h.logger.WarnContext(ctx, "list participants failed", "challenge_id", challengeID, "error", err)
		writeError(ctx, w, err)
		return
	}

	items := make([]participantDTO, 0, len(participants))
	for _, p := range participants {
		items = append(items, participantToDTO(ctx, p))
	}

	writeSuccess(ctx, w, http.StatusOK, items)
}

func (h *Handler) ApproveParticipant(w http.ResponseWriter, r *http.Request) {
	ctx, span := startSpan(r.Context(), "httpapi.Handler.ApproveParticipant")
	defer span.End()

	principal, ok := principalFromContext(ctx)
	if !ok {
		writeError(ctx, w, fmt.Errorf("%w: principal is missing from request context", usecase.ErrUnauthorized))
		return
	}

	challengeID := r.PathValue("challengeID")
	userID := r.PathValue("userID")

	approved, err := h.admissionService.Approve(ctx, principal, challengeID, userID)
	if err != nil {
		h.logger.WarnContext(ctx, "approve participant failed", "challenge_id", challengeID, "user_id", userID, "error", err)
		writeError(ctx, w, err)
		return
	}

	writeSuccess(ctx, w, http.StatusOK, participantToDTO(ctx, approved))
}

func (h *Handler) RejectParticipant(w http.ResponseWriter, r *http.Request) {
	h.decideParticipant(w, r, "httpapi.Handler.RejectParticipant", h.admissionService.Reject)
}

func (h *Handler) DisqualifyParticipant(w http.ResponseWriter, r *http.Request) {
	h.decideParticipant(w, r, "httpapi.Handler.DisqualifyParticipant", h.admissionService.Disqualify)
}

// decideParticipant handles the reasoned operator decisions (reject and
// disqualify), which share the request shape and response mapping.
func (h *Handler) decideParticipant(
	w http.ResponseWriter,
	r *http.Request,
	spanName string,
	decide func(ctx context.Context, operator user.Principal, challengeID, userID, reason string) (participant.Participant, error),
) {
	ctx, span := startSpan(r.Context(), spanName)
	defer span.End()

	principal, ok := principalFromContext(ctx)
	if !ok {
		writeError(ctx, w, fmt.Errorf("%w: principal is missing from request context", usecase.ErrUnauthorized))
		return
	}

	challengeID := r.PathValue("challengeID")
	userID := r.PathValue("userID")

	var req participantDecisionRequest
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

	decided, err := decide(ctx, principal, challengeID, userID, req.Reason)
	if err != nil {
		h.logger.WarnContext(ctx, "participant decision failed", "challenge_id", challengeID, "user_id", userID, "error", err)
		writeError(ctx, w, err)
		return
	}

	writeSuccess(ctx, w, http.StatusOK, participantToDTO(ctx, decided))
}

func (h *Handler) CompleteParticipant(w http.ResponseWriter, r *http.Request) {
	ctx, span := startSpan(r.Context(), "httpapi.Handler.CompleteParticipant")
	defer span.End()

	principal, ok := principalFromContext(ctx)
	if !ok {
		writeError(ctx, w, fmt.Errorf("%w: principal is missing from request context", usecase.ErrUnauthorized))
		return
	}

	challengeID := r.PathValue("challengeID")
	userID := r.PathValue("userID")

	completed, err := h.admissionService.Complete(ctx, principal, challengeID, userID)
	if err != nil {
		h.logger.WarnContext(ctx, "complete participant failed", "challenge_id", challengeID, "user_id", userID, "error", err)
		writeError(ctx, w, err)
		return
	}

	writeSuccess(ctx, w, http.StatusOK, participantToDTO(ctx, completed))
}
