package httpapi

import (
	"context"
	"errors"
	"net/http"

	sonic "github.com/bytedance/sonic"

	"github.com/fitarena/challenge-engine/internal/domain/challenge"
	"github.com/fitarena/challenge-engine/internal/domain/invitation"
	"github.com/fitarena/challenge-engine/internal/domain/participant"
	"github.com/fitarena/challenge-engine/internal/domain/progress"
	"github.com/fitarena/challenge-engine/internal/usecase"
)

const (
	googleAPIVersion = "2.0"
	errorDomain      = "challenge-engine"
)

type googleResponseEnvelope struct {
	APIVersion string           `json:"apiVersion"`
	Data       any              `json:"data,omitempty"`
	Error      *googleErrorBody `json:"error,omitempty"`
}

type googleErrorBody struct {
	Code    int               `json:"code"`
	Message string            `json:"message"`
	Status  string            `json:"status"`
	Errors  []googleErrorItem `json:"errors,omitempty"`
}

type googleErrorItem struct {
	Domain  string `json:"domain"`
	Reason  string `json:"reason"`
	Message string `json:"message"`
}

type mappedError struct {
	HTTPStatus int
	Reason     string
	Status     string
}

func writeJSON(ctx context.Context, w http.ResponseWriter, status int, payload any) {
	ctx, span := startSpan(ctx, "httpapi.writeJSON")
	defer span.End()

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = sonic.ConfigDefault.NewEncoder(w).Encode(payload)
}

func writeSuccess(ctx context.Context, w http.ResponseWriter, status int, data any) {
	ctx, span := startSpan(ctx, "httpapi.writeSuccess")
	defer span.End()

	writeJSON(ctx, w, status, googleResponseEnvelope{
		APIVersion: googleAPIVersion,
		Data:       data,
	})
}

func writeError(ctx context.Context, w http.ResponseWriter, err error) {
	ctx, span := startSpan(ctx, "httpapi.writeError")
	defer span.End()

	mapped := mapError(ctx, err)
	writeJSON(ctx, w, mapped.HTTPStatus, googleResponseEnvelope{
		APIVersion: googleAPIVersion,
		Error: &googleErrorBody{
			Code:    mapped.HTTPStatus,
			Message: err.Error(),
			Status:  mapped.Status,
			Errors: []googleErrorItem{
				{
					Domain:  errorDomain,
					Reason:  mapped.Reason,
					Message: err.Error(),
				},
			},
		},
	})
}

func writeInternalError(ctx context.Context, w http.ResponseWriter) {
	ctx, span := startSpan(ctx, "httpapi.writeInternalError")
	defer span.End()

	const msg = "internal server error"

	writeJSON(ctx, w, http.StatusInternalServerError, googleResponseEnvelope{
		APIVersion: googleAPIVersion,
		Error: &googleErrorBody{
			Code:    http.StatusInternalServerError,
			Message: msg,
			Status:  "INTERNAL",
			Errors: []googleErrorItem{
				{
					Domain:  errorDomain,
					Reason:  "internalError",
					Message: msg,
				},
			},
		},
	})
}

func mapError(ctx context.Context, err error) mappedError {
	ctx, span := startSpan(ctx, "httpapi.mapError")
	defer span.End()

	switch {
	case errors.Is(err, usecase.ErrInvalidInput):
		return mappedError{
			HTTPStatus: http.StatusBadRequest,
			Reason:     "invalidInput",
			Status:     "INVALID_ARGUMENT",
		}
	case errors.Is(err, usecase.ErrNotFound):
		return mappedError{
			HTTPStatus: http.StatusNotFound,
			Reason:     "notFound",
			Status:     "NOT_FOUND",
		}
	case errors.Is(err, usecase.ErrUnauthorized):
		return mappedError{
			HTTPStatus: http.StatusUnauthorized,
			Reason:     "unauthorized",
			Status:     "UNAUTHENTICATED",
		}
	case errors.Is(err, usecase.ErrForbidden):
		return mappedError{
			HTTPStatus: http.StatusForbidden,
			Reason:     "forbidden",
			Status:     "PERMISSION_DENIED",
		}
	case errors.Is(err, usecase.ErrBadPassword):
		return mappedError{
			HTTPStatus: http.StatusForbidden,
			Reason:     "badChallengePassword",
			Status:     "PERMISSION_DENIED",
		}
	case errors.Is(err, usecase.ErrInvitationRequired):
		return mappedError{
			HTTPStatus: http.StatusForbidden,
			Reason:     "invitationRequired",
			Status:     "PERMISSION_DENIED",
		}
	case errors.Is(err, usecase.ErrChallengeNotJoinable):
		return mappedError{
			HTTPStatus: http.StatusConflict,
			Reason:     "challengeNotJoinable",
			Status:     "FAILED_PRECONDITION",
		}
	case errors.Is(err, usecase.ErrChallengeFull):
		return mappedError{
			HTTPStatus: http.StatusConflict,
			Reason:     "challengeFull",
			Status:     "FAILED_PRECONDITION",
		}
	case errors.Is(err, usecase.ErrAlreadyJoined):
		return mappedError{
			HTTPStatus: http.StatusConflict,
			Reason:     "alreadyJoined",
			Status:     "ALREADY_EXISTS",
		}
	case errors.Is(err, challenge.ErrIllegalTransition),
		errors.Is(err, participant.ErrIllegalTransition),
		errors.Is(err, invitation.ErrIllegalTransition):
		return mappedError{
			HTTPStatus: http.StatusConflict,
			Reason:     "illegalTransition",
			Status:     "FAILED_PRECONDITION",
		}
	case errors.Is(err, participant.ErrThresholdNotMet):
		return mappedError{
			HTTPStatus: http.StatusConflict,
			Reason:     "thresholdNotMet",
			Status:     "FAILED_PRECONDITION",
		}
	case errors.Is(err, participant.ErrCapacityRaceLost):
		return mappedError{
			HTTPStatus: http.StatusConflict,
			Reason:     "capacityRaceLost",
			Status:     "ABORTED",
		}
	case errors.Is(err, invitation.ErrExpired):
		return mappedError{
			HTTPStatus: http.StatusConflict,
			Reason:     "invitationExpired",
			Status:     "FAILED_PRECONDITION",
		}
	case errors.Is(err, progress.ErrReplayInconsistency):
		return mappedError{
			HTTPStatus: http.StatusInternalServerError,
			Reason:     "replayInconsistency",
			Status:     "DATA_LOSS",
		}
	case errors.Is(err, usecase.ErrDependencyUnavailable):
		return mappedError{
			HTTPStatus: http.StatusServiceUnavailable,
			Reason:     "dependencyUnavailable",
			Status:     "UNAVAILABLE",
		}
	default:
		return mappedError{
			HTTPStatus: http.StatusInternalServerError,
			Reason:     "internalError",
			Status:     "INTERNAL",
		}
	}
}
