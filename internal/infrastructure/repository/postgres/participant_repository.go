package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/fitarena/challenge-engine/internal/domain/participant"
)

const participantColumns = `
id, challenge_id, user_id, team_id, status, joined_at,
current_progress, current_streak, last_activity_at, completed_at,
decided_by, decision_reason, updated_at`

// openParticipantStatuses matches participant.Status.Terminal: a record is
// open while pending or active.
const openParticipantStatuses = `('pending', 'active')`

type ParticipantRepository struct {
	db *sqlx.DB
}

func NewParticipantRepository(db *sqlx.DB) *ParticipantRepository {
	return &ParticipantRepository{db: db}
}

// CreateWithinCapacity inserts only while the open-participant count for the
// challenge stays below capacity. The count and the insert run in one
// statement, so two joins racing for the last slot cannot both land.
func (r *ParticipantRepository) CreateWithinCapacity(ctx context.Context, p participant.Participant, capacity int) error {
	const query = `
INSERT INTO challenge_participants (
    id, challenge_id, user_id, team_id, status, joined_at,
    current_progress, current_streak,
    decided_by, decision_reason, updated_at
)
SELECT :id, :challenge_id, :user_id, :team_id, :status, :joined_at,
       :current_progress, :current_streak,
       :decided_by, :decision_reason, :updated_at
WHERE CAST(:capacity AS INT) <= 0
   OR (SELECT COUNT(*)
       FROM challenge_participants
       WHERE challenge_id = :challenge_id
         AND status IN ` + openParticipantStatuses + `) < CAST(:capacity AS INT)`

	args := map[string]any{
		"id":               p.ID,
		"challenge_id":     p.ChallengeID,
		"user_id":          p.UserID,
		"team_id":          p.TeamID,
		"status":           string(p.Status),
		"joined_at":        p.JoinedAt,
		"current_progress": p.CurrentProgress,
		"current_streak":   p.CurrentStreak,
		"decided_by":       p.DecidedBy,
		"decision_reason":  p.DecisionReason,
		"updated_at":       p.UpdatedAt,
		"capacity":         capacity,
	}
	insertSQL, insertArgs, err := sqlx.Named(query, args)
	if err != nil {
		return fmt.Errorf("bind insert participant query: %w", err)
	}
	insertSQL = r.db.Rebind(insertSQL)

	result, err := r.db.ExecContext(ctx, insertSQL, insertArgs...)
	if err != nil {
		return fmt.Errorf("insert participant: %w", err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("insert participant rows affected: %w", err)
	}
	if affected == 0 {
		return participant.ErrCapacityRaceLost
	}

	return nil
}

func (r *ParticipantRepository) GetByID(ctx context.Context, participantID string) (participant.Participant, bool, error) {
	query := `
SELECT ` + participantColumns + `
FROM challenge_participants
WHERE id = $1`

	var row participantTableModel
	if err := r.db.GetContext(ctx, &row, query, participantID); err != nil {
		if isNotFound(err) {
			return participant.Participant{}, false, nil
		}
		return participant.Participant{}, false, fmt.Errorf("get participant: %w", err)
	}

	return row.toDomain(), true, nil
}

func (r *ParticipantRepository) GetOpenByChallengeAndUser(ctx context.Context, challengeID, userID string) (participant.Participant, bool, error) {
	query := `
SELECT ` + participantColumns + `
FROM challenge_participants
WHERE challenge_id = $1
  AND user_id = $2
  AND status IN ` + openParticipantStatuses

	var row participantTableModel
	if err := r.db.GetContext(ctx, &row, query, challengeID, userID); err != nil {
		if isNotFound(err) {
			return participant.Participant{}, false, nil
		}
		return participant.Participant{}, false, fmt.Errorf("get open participant: %w", err)
	}

	return row.toDomain(), true, nil
}

func (r *ParticipantRepository) ListByChallenge(ctx context.Context, challengeID string) ([]participant.Participant, error) {
	query := `
SELECT ` + participantColumns + `
FROM challenge_participants
WHERE challenge_id = $1
ORDER BY joined_at, id`

	var rows []participantTableModel
	if err := r.db.SelectContext(ctx, &rows, query, challengeID); err != nil {
		return nil, fmt.Errorf("list participants: %w", err)
	}

	out := make([]participant.Participant, 0, len(rows))
	for _, row := range rows {
		out = append(out, row.toDomain())
	}

	return out, nil
}

func (r *ParticipantRepository) CountOpenByChallenge(ctx context.Context, challengeID string) (int, error) {
	query := `
SELECT COUNT(*)
FROM challenge_participants
WHERE challenge_id = $1
  AND status IN ` + openParticipantStatuses

	var count int
	if err := r.db.GetContext(ctx, &count, query, challengeID); err != nil {
		return 0, fmt.Errorf("count open participants: %w", err)
	}

	return count, nil
}

func (r *ParticipantRepository) CountOpenByTeam(ctx context.Context, teamID string) (int, error) {
	query := `
SELECT COUNT(*)
FROM challenge_participants
WHERE team_id = $1
  AND status IN ` + openParticipantStatuses

	var count int
	if err := r.db.GetContext(ctx, &count, query, teamID); err != nil {
		return 0, fmt.Errorf("count open team participants: %w", err)
	}

	return count, nil
}

func (r *ParticipantRepository) UpdateStatus(ctx context.Context, participantID string, from, to participant.Status, decidedBy, reason string, completedAt *time.Time) (bool, error) {
	const query = `
UPDATE challenge_participants
SET status = :to,
    decided_by = :decided_by,
    decision_reason = :decision_reason,
    completed_at = COALESCE(:completed_at, completed_at),
    updated_at = NOW()
WHERE id = :id
  AND status = :from`

	updateSQL, updateArgs, err := sqlx.Named(query, map[string]any{
		"id":              participantID,
		"from":            string(from),
		"to":              string(to),
		"decided_by":      decidedBy,
		"decision_reason": reason,
		"completed_at":    completedAt,
	})
	if err != nil {
		return false, fmt.Errorf("bind update participant status query: %w", err)
	}
	updateSQL = r.db.Rebind(updateSQL)

	result, err := r.db.ExecContext(ctx, updateSQL, updateArgs...)
	if err != nil {
		return false, fmt.Errorf("update participant status: %w", err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("update participant status rows affected: %w", err)
	}

	return affected == 1, nil
}

func (r *ParticipantRepository) UpdateProgress(ctx context.Context, participantID string, progress float64, streak int, lastActivityAt time.Time) error {
	const query = `
UPDATE challenge_participants
SET current_progress = :current_progress,
    current_streak = :current_streak,
    last_activity_at = :last_activity_at,
    updated_at = NOW()
WHERE id = :id`

	updateSQL, updateArgs, err := sqlx.Named(query, map[string]any{
		"id":               participantID,
		"current_progress": progress,
		"current_streak":   streak,
		"last_activity_at": lastActivityAt,
	})
	if err != nil {
		return fmt.Errorf("bind update participant progress query: %w", err)
	}
	updateSQL = r.db.Rebind(updateSQL)

	if _, err := r.db.ExecContext(ctx, updateSQL, updateArgs...); err != nil {
		return fmt.Errorf("update participant progress: %w", err)
	}

	return nil
}
