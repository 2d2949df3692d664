package httpapi

import "net/http"

func (h *Handler) GetLeaderboard(w http.ResponseWriter, r *http.Request) {
	ctx, span := startSpan(r.Context(), "httpapi.Handler.GetLeaderboard")
	defer span.End()

	challengeID := r.PathValue("challengeID")
	board, err := h.rankingService.Rank(ctx, challengeID)
	if err != nil {
		h.logger.WarnContext(ctx, "get leaderboard failed", "challenge_id", challengeID, "error", err)
		writeError(ctx, w, err)
		return
	}

	writeSuccess(ctx, w, http.StatusOK, board)
}

func (h *Handler) GetCompletionStats(w http.ResponseWriter, r *http.Request) {
	ctx, span := startSpan(r.Context(), "httpapi.Handler.GetCompletionStats")
	defer span.End()

	challengeID := r.PathValue("challengeID")
	stats, err := h.rankingService.Stats(ctx, challengeID)
	if err != nil {
		h.logger.WarnContext(ctx, "get completion stats failed", "challenge_id", challengeID, "error", err)
		writeError(ctx, w, err)
		return
	}

	writeSuccess(ctx, w, http.StatusOK, stats)
}

func (h *Handler) GetChallengeResults(w http.ResponseWriter, r *http.Request) {
	ctx, span := startSpan(r.Context(), "httpapi.Handler.GetChallengeResults")
	defer span.End()

	challengeID := r.PathValue("challengeID")
	results, err := h.rankingService.Results(ctx, challengeID)
	if err != nil {
		h.logger.WarnContext(ctx, "get challenge results failed", "challenge_id", challengeID, "error", err)
		writeError(ctx, w, err)
		return
	}

	writeSuccess(ctx, w, http.StatusOK, results)
}
