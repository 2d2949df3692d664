package progress

import (
	"errors"
	"fmt"
	"time"
)

// ErrReplayInconsistency signals that replaying the snapshot log produced a
// different total than the stored materialized value. This is data
// corruption or a bug; it is escalated, never silently healed.
var ErrReplayInconsistency = errors.New("progress replay inconsistency")

// Snapshot is one immutable contribution event. The log is append-only;
// corrections are new snapshots with negative amounts, never edits.
type Snapshot struct {
	ID               string
	ChallengeID      string
	ParticipantID    string
	TeamID           string
	UserID           string
	Amount           float64
	Unit             string
	OccurredAt       time.Time
	SourceActivityID string
	// Note documents administrative corrections.
	Note      string
	CreatedAt time.Time
}

func (s Snapshot) Validate() error {
	if s.ID == "" {
		return fmt.Errorf("snapshot id is required")
	}
	if s.ChallengeID == "" {
		return fmt.Errorf("snapshot challenge id is required")
	}
	if s.ParticipantID == "" {
		return fmt.Errorf("snapshot participant id is required")
	}
	if s.Unit == "" {
		return fmt.Errorf("snapshot unit is required")
	}
	if s.Amount == 0 {
		return fmt.Errorf("snapshot amount must be non-zero")
	}
	if s.OccurredAt.IsZero() {
		return fmt.Errorf("snapshot occurred at is required")
	}

	return nil
}
