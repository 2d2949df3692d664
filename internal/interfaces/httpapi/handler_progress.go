package httpapi

import (
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	jsoniter "github.com/json-iterator/go"

	"github.com/fitarena/challenge-engine/internal/domain/progress"
	"github.com/fitarena/challenge-engine/internal/usecase"
)

type applyProgressRequest struct {
	UserID           string    `json:"user_id" validate:"required"`
	Amount           float64   `json:"amount" validate:"required"`
	Unit             string    `json:"unit" validate:"required,max=32"`
	OccurredAt       time.Time `json:"occurred_at" validate:"required"`
	SourceActivityID string    `json:"source_activity_id" validate:"omitempty,max=128"`
	Note             string    `json:"note" validate:"omitempty,max=500"`
}

type replayProgressRequest struct {
	MaxWorkers int `json:"max_workers" validate:"gte=0,lte=64"`
}

func (h *Handler) ApplyProgress(w http.ResponseWriter, r *http.Request) {
	ctx, span := startSpan(r.Context(), "httpapi.Handler.ApplyProgress")
	defer span.End()

	principal, ok := principalFromContext(ctx)
	if !ok {
		writeError(ctx, w, fmt.Errorf("%w: principal is missing from request context", usecase.ErrUnauthorized))
		return
	}

	challengeID := r.PathValue("challengeID")

	var req applyProgressRequest
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

	updated, err := h.progressService.ApplyContribution(ctx, principal, usecase.ApplyContributionInput{
		ChallengeID:      challengeID,
		UserID:           req.UserID,
		Amount:           req.Amount,
		Unit:             req.Unit,
		OccurredAt:       req.OccurredAt,
		SourceActivityID: req.SourceActivityID,
		Note:             req.Note,
	})
	if err != nil {
		h.logger.WarnContext(ctx, "apply progress failed", "challenge_id", challengeID, "user_id", req.UserID, "error", err)
		writeError(ctx, w, err)
		return
	}

	h.rankingService.Invalidate(ctx, challengeID)

	writeSuccess(ctx, w, http.StatusOK, updatedProgressDTO{
		ParticipantID:   updated.ParticipantID,
		Progress:        updated.Progress,
		Streak:          updated.Streak,
		ProgressPercent: updated.ProgressPercent,
		Completed:       updated.Completed,
		Discarded:       updated.Discarded,
	})
}

func (h *Handler) ReplayProgress(w http.ResponseWriter, r *http.Request) {
	ctx, span := startSpan(r.Context(), "httpapi.Handler.ReplayProgress")
	defer span.End()

	principal, ok := principalFromContext(ctx)
	if !ok {
		writeError(ctx, w, fmt.Errorf("%w: principal is missing from request context", usecase.ErrUnauthorized))
		return
	}

	challengeID := r.PathValue("challengeID")

	var req replayProgressRequest
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

	report, err := h.progressService.Replay(ctx, principal, challengeID, req.MaxWorkers)
	if err != nil {
		// A mismatch still carries the full report so operators see which
		// participants diverged.
		if errors.Is(err, progress.ErrReplayInconsistency) {
			h.logger.ErrorContext(ctx, "progress replay found mismatches", "challenge_id", challengeID, "mismatches", len(report.Mismatches))
			writeJSON(ctx, w, http.StatusConflict, googleResponseEnvelope{
				APIVersion: googleAPIVersion,
				Data:       report,
				Error: &googleErrorBody{
					Code:    http.StatusConflict,
					Message: err.Error(),
					Status:  "DATA_LOSS",
					Errors: []googleErrorItem{
						{Domain: errorDomain, Reason: "replayInconsistency", Message: err.Error()},
					},
				},
			})
			return
		}
		h.logger.WarnContext(ctx, "progress replay failed", "challenge_id", challengeID, "error", err)
		writeError(ctx, w, err)
		return
	}

	writeSuccess(ctx, w, http.StatusOK, report)
}
