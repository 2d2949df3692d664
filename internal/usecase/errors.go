package usecase

import "errors"

var (
	ErrInvalidInput          = errors.New("invalid input")
	ErrNotFound              = errors.New("resource not found")
	ErrUnauthorized          = errors.New("unauthorized")
	ErrForbidden             = errors.New("forbidden")
	ErrDependencyUnavailable = errors.New("dependency unavailable")

	// Admission rejections, evaluated in order: state, capacity, invitation,
	// password. Each carries a stable reason code in the HTTP mapper.
	ErrChallengeNotJoinable = errors.New("challenge is not open for joining")
	ErrChallengeFull        = errors.New("challenge capacity reached")
	ErrInvitationRequired   = errors.New("club invitation required")
	ErrBadPassword          = errors.New("challenge password mismatch")
	ErrAlreadyJoined        = errors.New("already participating in challenge")
)
