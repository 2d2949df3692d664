package team

import (
	"fmt"
	"time"
)

// Team groups participants of a team challenge under one club. Aggregate
// progress is not stored here; it is folded from member snapshots.
type Team struct {
	ID          string
	ChallengeID string
	ClubID      string
	Name        string
	MemberIDs   []string
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

func (t Team) Validate() error {
	if t.ID == "" {
		return fmt.Errorf("team id is required")
	}
	if t.ChallengeID == "" {
		return fmt.Errorf("team challenge id is required")
	}
	if t.ClubID == "" {
		return fmt.Errorf("team club id is required")
	}
	if t.Name == "" {
		return fmt.Errorf("team name is required")
	}

	return nil
}

func (t Team) HasMember(userID string) bool {
	for _, id := range t.MemberIDs {
		if id == userID {
			return true
		}
	}
	return false
}
