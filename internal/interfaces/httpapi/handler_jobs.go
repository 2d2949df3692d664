package httpapi

import (
	"errors"
	"fmt"
	"io"
	"net/http"

	jsoniter "github.com/json-iterator/go"

	"github.com/fitarena/challenge-engine/internal/usecase"
)

type refreshLeaderboardsJobRequest struct {
	ChallengeID string `json:"challenge_id" validate:"omitempty,max=64"`
	MaxWorkers  int    `json:"max_workers" validate:"gte=0,lte=64"`
}

// RunRefreshLeaderboardsJob sweeps active challenges: idle streaks decay and
// cached leaderboards recompute. Scheduler calls arrive with an empty body.
func (h *Handler) RunRefreshLeaderboardsJob(w http.ResponseWriter, r *http.Request) {
	ctx, span := startSpan(r.Context(), "httpapi.Handler.RunRefreshLeaderboardsJob")
	defer span.End()

	var req refreshLeaderboardsJobRequest
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

	result, err := h.refreshService.Refresh(ctx, usecase.RefreshInput{
		ChallengeID: req.ChallengeID,
		MaxWorkers:  req.MaxWorkers,
	})
	if err != nil {
		h.logger.ErrorContext(ctx, "refresh leaderboards job failed", "challenge_id", req.ChallengeID, "error", err)
		writeError(ctx, w, err)
		return
	}

	h.logger.InfoContext(ctx, "refresh leaderboards job finished",
		"challenges", result.ChallengeCount,
		"success", result.SuccessCount,
		"failed", result.FailedCount,
		"skipped", result.SkippedCount,
	)

	writeSuccess(ctx, w, http.StatusOK, result)
}
