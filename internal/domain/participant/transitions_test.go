package participant

import (
	"errors"
	"testing"
)

func TestTransition_AdmissionDecisions(t *testing.T) {
	t.Parallel()

	if err := Transition(StatusPending, StatusActive); err != nil {
		t.Fatalf("pending -> active: %v", err)
	}
	if err := Transition(StatusPending, StatusRejected); err != nil {
		t.Fatalf("pending -> rejected: %v", err)
	}
}

func TestTransition_ActiveOutcomes(t *testing.T) {
	t.Parallel()

	for _, to := range []Status{StatusCompleted, StatusDropped, StatusDisqualified} {
		if err := Transition(StatusActive, to); err != nil {
			t.Fatalf("active -> %s: %v", to, err)
		}
	}
}

func TestTransition_TerminalStatesNeverMove(t *testing.T) {
	t.Parallel()

	terminals := []Status{StatusRejected, StatusCompleted, StatusDropped, StatusDisqualified}
	for _, from := range terminals {
		if !from.Terminal() {
			t.Fatalf("%s should be terminal", from)
		}
		for to := range AllStatuses {
			if err := Transition(from, to); !errors.Is(err, ErrIllegalTransition) {
				t.Fatalf("%s -> %s: expected ErrIllegalTransition, got %v", from, to, err)
			}
		}
	}
}

func TestTransition_NeverBackToPending(t *testing.T) {
	t.Parallel()

	if err := Transition(StatusActive, StatusPending); !errors.Is(err, ErrIllegalTransition) {
		t.Fatalf("active -> pending: expected ErrIllegalTransition, got %v", err)
	}
}
