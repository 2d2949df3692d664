package postgres

import (
	"time"

	"github.com/fitarena/challenge-engine/internal/domain/participant"
)

type participantTableModel struct {
	ID          string `db:"id"`
	ChallengeID string `db:"challenge_id"`
	UserID      string `db:"user_id"`
	TeamID      string `db:"team_id"`

	Status   string    `db:"status"`
	JoinedAt time.Time `db:"joined_at"`

	CurrentProgress float64    `db:"current_progress"`
	CurrentStreak   int        `db:"current_streak"`
	LastActivityAt  *time.Time `db:"last_activity_at"`
	CompletedAt     *time.Time `db:"completed_at"`

	DecidedBy      string `db:"decided_by"`
	DecisionReason string `db:"decision_reason"`

	UpdatedAt time.Time `db:"updated_at"`
}

func (m participantTableModel) toDomain() participant.Participant {
	return participant.Participant{
		ID:          m.ID,
		ChallengeID: m.ChallengeID,
		UserID:      m.UserID,
		TeamID:      m.TeamID,

		Status:   participant.Status(m.Status),
		JoinedAt: m.JoinedAt,

		CurrentProgress: m.CurrentProgress,
		CurrentStreak:   m.CurrentStreak,
		LastActivityAt:  m.LastActivityAt,
		CompletedAt:     m.CompletedAt,

		DecidedBy:      m.DecidedBy,
		DecisionReason: m.DecisionReason,

		UpdatedAt: m.UpdatedAt,
	}
}
