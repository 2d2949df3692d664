package httpapi

import (
	"fmt"
	"net/http"
	"time"

	jsoniter "github.com/json-iterator/go"

	"github.com/fitarena/challenge-engine/internal/domain/challenge"
	"github.com/fitarena/challenge-engine/internal/usecase"
)

type createChallengeRequest struct {
	Name            string    `json:"name" validate:"required,max=200"`
	Description     string    `json:"description" validate:"max=2000"`
	ClubID          string    `json:"club_id"`
	Category        string    `json:"category" validate:"required,oneof=individual team"`
	Type            string    `json:"type" validate:"required,oneof=distance time frequency speed streak combined custom"`
	Difficulty      string    `json:"difficulty" validate:"omitempty,oneof=easy moderate hard"`
	Visibility      string    `json:"visibility" validate:"required,oneof=public club invite_only"`
	TargetValue     float64   `json:"target_value" validate:"required,gt=0"`
	TargetUnit      string    `json:"target_unit" validate:"required,max=32"`
	StartDate       time.Time `json:"start_date" validate:"required"`
	EndDate         time.Time `json:"end_date" validate:"required"`
	MaxParticipants int       `json:"max_participants" validate:"gte=0"`
	MaxTeams        int       `json:"max_teams" validate:"gte=0"`
	MaxTeamMembers  int       `json:"max_team_members" validate:"gte=0"`
	AdmissionPolicy string    `json:"admission_policy" validate:"required,oneof=open password approval_required"`
	Password        string    `json:"password" validate:"omitempty,min=4,max=128"`

	MaxIndividualContribution float64 `json:"max_individual_contribution" validate:"gte=0"`
	MinTracklogDistance       float64 `json:"min_tracklog_distance" validate:"gte=0"`
}

type changeChallengeStatusRequest struct {
	Status string `json:"status" validate:"required,oneof=draft published active paused completed cancelled"`
}

func (h *Handler) CreateChallenge(w http.ResponseWriter, r *http.Request) {
	ctx, span := startSpan(r.Context(), "httpapi.Handler.CreateChallenge")
	defer span.End()

	principal, ok := principalFromContext(ctx)
	if !ok {
		writeError(ctx, w, fmt.Errorf("%w: principal is missing from request context", usecase.ErrUnauthorized))
		return
	}

	var req createChallengeRequest
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

	created, err := h.challengeService.Create(ctx, principal, usecase.CreateChallengeInput{
		Name:                      req.Name,
		Description:               req.Description,
		ClubID:                    req.ClubID,
		Category:                  challenge.Category(req.Category),
		Type:                      challenge.Type(req.Type),
		Difficulty:                challenge.Difficulty(req.Difficulty),
		Visibility:                challenge.Visibility(req.Visibility),
		TargetValue:               req.TargetValue,
		TargetUnit:                req.TargetUnit,
		StartDate:                 req.StartDate,
		EndDate:                   req.EndDate,
		MaxParticipants:           req.MaxParticipants,
		MaxTeams:                  req.MaxTeams,
		MaxTeamMembers:            req.MaxTeamMembers,
		AdmissionPolicy:           challenge.AdmissionPolicy(req.AdmissionPolicy),
		Password:                  req.Password,
		MaxIndividualContribution: req.MaxIndividualContribution,
		MinTracklogDistance:       req.MinTracklogDistance,
	})
	if err != nil {
		h.logger.WarnContext(ctx, "create challenge failed", "actor", principal.UserID, "error", err)
		writeError(ctx, w, err)
		return
	}

	writeSuccess(ctx, w, http.StatusCreated, challengeToDTO(ctx, created, ""))
}

func (h *Handler) ListChallenges(w http.ResponseWriter, r *http.Request) {
	ctx, span := startSpan(r.Context(), "httpapi.Handler.ListChallenges")
	defer span.End()

	challenges, err := h.challengeService.List(ctx)
	if err != nil {
		h.logger.ErrorContext(ctx, "list challenges failed", "error", err)
		writeError(ctx, w, err)
		return
	}

	items := make([]challengeDTO, 0, len(challenges))
	for _, ch := range challenges {
		items = append(items, challengeToDTO(ctx, ch, ""))
	}

	writeSuccess(ctx, w, http.StatusOK, items)
}

func (h *Handler) GetChallenge(w http.ResponseWriter, r *http.Request) {
	ctx, span := startSpan(r.Context(), "httpapi.Handler.GetChallenge")
	defer span.End()

	challengeID := r.PathValue("challengeID")
	ch, phase, err := h.challengeService.Get(ctx, challengeID)
	if err != nil {
		h.logger.WarnContext(ctx, "get challenge failed", "challenge_id", challengeID, "error", err)
		writeError(ctx, w, err)
		return
	}

	writeSuccess(ctx, w, http.StatusOK, challengeToDTO(ctx, ch, phase))
}

func (h *Handler) ChangeChallengeStatus(w http.ResponseWriter, r *http.Request) {
	ctx, span := startSpan(r.Context(), "httpapi.Handler.ChangeChallengeStatus")
	defer span.End()

	principal, ok := principalFromContext(ctx)
	if !ok {
		writeError(ctx, w, fmt.Errorf("%w: principal is missing from request context", usecase.ErrUnauthorized))
		return
	}

	challengeID := r.PathValue("challengeID")

	var req changeChallengeStatusRequest
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

	updated, err := h.challengeService.ChangeStatus(ctx, principal, challengeID, challenge.Status(req.Status))
	if err != nil {
		h.logger.WarnContext(ctx, "change challenge status failed", "challenge_id", challengeID, "status", req.Status, "error", err)
		writeError(ctx, w, err)
		return
	}

	writeSuccess(ctx, w, http.StatusOK, challengeToDTO(ctx, updated, ""))
}
