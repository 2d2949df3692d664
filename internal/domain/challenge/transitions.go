package challenge

import (
	"errors"
	"fmt"
)

var ErrIllegalTransition = errors.New("illegal challenge status transition")

// Status is the persisted lifecycle state. It only changes through
// Transition; the time-derived display phase lives in phase.go.
type Status string

const (
	StatusDraft     Status = "draft"
	StatusPublished Status = "published"
	StatusActive    Status = "active"
	StatusPaused    Status = "paused"
	StatusCompleted Status = "completed"
	StatusCancelled Status = "cancelled"
)

var AllStatuses = map[Status]struct{}{
	StatusDraft:     {},
	StatusPublished: {},
	StatusActive:    {},
	StatusPaused:    {},
	StatusCompleted: {},
	StatusCancelled: {},
}

var transitions = map[Status]map[Status]struct{}{
	StatusDraft: {
		StatusPublished: {},
		StatusCancelled: {},
	},
	StatusPublished: {
		StatusActive:    {},
		StatusPaused:    {},
		StatusCancelled: {},
	},
	StatusActive: {
		StatusPaused:    {},
		StatusCompleted: {},
		StatusCancelled: {},
	},
	StatusPaused: {
		StatusActive:    {},
		StatusCancelled: {},
	},
}

func (s Status) Terminal() bool {
	return s == StatusCompleted || s == StatusCancelled
}

// Transition validates a status change against the lifecycle table:
// draft -> published -> active -> completed, paused as a resumable detour,
// cancellation from any non-terminal state. Terminal states never move.
func Transition(current, next Status) error {
	if _, ok := AllStatuses[next]; !ok {
		return fmt.Errorf("%w: unknown status %q", ErrIllegalTransition, next)
	}
	allowed, ok := transitions[current]
	if !ok {
		return fmt.Errorf("%w: %s is terminal", ErrIllegalTransition, current)
	}
	if _, ok := allowed[next]; !ok {
		return fmt.Errorf("%w: %s -> %s", ErrIllegalTransition, current, next)
	}

	return nil
}
