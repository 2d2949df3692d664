package participant

import (
	"errors"
	"fmt"
)

var (
	ErrIllegalTransition = errors.New("illegal participant status transition")
	ErrThresholdNotMet   = errors.New("completion threshold not met")
	// ErrCapacityRaceLost reports a join that passed the capacity precheck
	// but lost the slot at commit time. Retryable once; a second loss means
	// the challenge is genuinely full.
	ErrCapacityRaceLost = errors.New("capacity race lost")
)

type Status string

const (
	StatusPending      Status = "pending"
	StatusActive       Status = "active"
	StatusRejected     Status = "rejected"
	StatusCompleted    Status = "completed"
	StatusDropped      Status = "dropped"
	StatusDisqualified Status = "disqualified"
)

var AllStatuses = map[Status]struct{}{
	StatusPending:      {},
	StatusActive:       {},
	StatusRejected:     {},
	StatusCompleted:    {},
	StatusDropped:      {},
	StatusDisqualified: {},
}

var transitions = map[Status]map[Status]struct{}{
	StatusPending: {
		StatusActive:   {},
		StatusRejected: {},
	},
	StatusActive: {
		StatusCompleted:    {},
		StatusDropped:      {},
		StatusDisqualified: {},
	},
}

// Terminal statuses accept no further transitions. Records are only ever
// soft-closed, never deleted, while the challenge itself is non-terminal.
func (s Status) Terminal() bool {
	switch s {
	case StatusRejected, StatusCompleted, StatusDropped, StatusDisqualified:
		return true
	default:
		return false
	}
}

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
