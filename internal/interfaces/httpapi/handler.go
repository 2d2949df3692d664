package httpapi

import (
	"context"
	"fmt"
	"net/http"

	"github.com/go-playground/validator/v10"

	"github.com/fitarena/challenge-engine/internal/platform/logging"
	"github.com/fitarena/challenge-engine/internal/usecase"
)

type Handler struct {
	challengeService  *usecase.ChallengeService
	admissionService  *usecase.AdmissionService
	progressService   *usecase.ProgressService
	rankingService    *usecase.RankingService
	invitationService *usecase.InvitationService
	refreshService    *usecase.LeaderboardRefreshService
	logger            *logging.Logger
	validator         *validator.Validate
}

func NewHandler(
	challengeService *usecase.ChallengeService,
	admissionService *usecase.AdmissionService,
	progressService *usecase.ProgressService,
	rankingService *usecase.RankingService,
	invitationService *usecase.InvitationService,
	refreshService *usecase.LeaderboardRefreshService,
	logger *logging.Logger,
) *Handler {
	if logger == nil {
		logger = logging.Default()
	}

	return &Handler{
		challengeService:  challengeService,
		admissionService:  admissionService,
		progressService:   progressService,
		rankingService:    rankingService,
		invitationService: invitationService,
		refreshService:    refreshService,
		logger:            logger,
		validator:         validator.New(),
	}
}

func (h *Handler) Healthz(w http.ResponseWriter, r *http.Request) {
	ctx, span := startSpan(r.Context(), "httpapi.Handler.Healthz")
	defer span.End()

	writeSuccess(ctx, w, http.StatusOK, map[string]string{"status": "ok"})
}

func (h *Handler) validateRequest(ctx context.Context, payload any) error {
	ctx, span := startSpan(ctx, "httpapi.Handler.validateRequest")
	defer span.End()

	if err := h.validator.StructCtx(ctx, payload); err != nil {
		return fmt.Errorf("%w: validation failed: %v", usecase.ErrInvalidInput, err)
	}

	return nil
}
