package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/fitarena/challenge-engine/internal/domain/progress"
)

type progressSnapshotTableModel struct {
	ID               string    `db:"id"`
	ChallengeID      string    `db:"challenge_id"`
	ParticipantID    string    `db:"participant_id"`
	TeamID           string    `db:"team_id"`
	UserID           string    `db:"user_id"`
	Amount           float64   `db:"amount"`
	Unit             string    `db:"unit"`
	OccurredAt       time.Time `db:"occurred_at"`
	SourceActivityID string    `db:"source_activity_id"`
	Note             string    `db:"note"`
	CreatedAt        time.Time `db:"created_at"`
}

func (m progressSnapshotTableModel) toDomain() progress.Snapshot {
	return progress.Snapshot{
		ID:               m.ID,
		ChallengeID:      m.ChallengeID,
		ParticipantID:    m.ParticipantID,
		TeamID:           m.TeamID,
		UserID:           m.UserID,
		Amount:           m.Amount,
		Unit:             m.Unit,
		OccurredAt:       m.OccurredAt,
		SourceActivityID: m.SourceActivityID,
		Note:             m.Note,
		CreatedAt:        m.CreatedAt,
	}
}

const progressSnapshotColumns = `
id, challenge_id, participant_id, team_id, user_id,
amount, unit, occurred_at, source_activity_id, note, created_at`

// ProgressRepository is the append-only snapshot log. Rows are never
// updated or deleted; corrections land as new rows.
type ProgressRepository struct {
	db *sqlx.DB
}

func NewProgressRepository(db *sqlx.DB) *ProgressRepository {
	return &ProgressRepository{db: db}
}

func (r *ProgressRepository) Append(ctx context.Context, s progress.Snapshot) error {
	const query = `
INSERT INTO progress_snapshots (
    id, challenge_id, participant_id, team_id, user_id,
    amount, unit, occurred_at, source_activity_id, note, created_at
) VALUES (
    :id, :challenge_id, :participant_id, :team_id, :user_id,
    :amount, :unit, :occurred_at, :source_activity_id, :note, :created_at
)`

	insertSQL, insertArgs, err := sqlx.Named(query, map[string]any{
		"id":                 s.ID,
		"challenge_id":       s.ChallengeID,
		"participant_id":     s.ParticipantID,
		"team_id":            s.TeamID,
		"user_id":            s.UserID,
		"amount":             s.Amount,
		"unit":               s.Unit,
		"occurred_at":        s.OccurredAt,
		"source_activity_id": s.SourceActivityID,
		"note":               s.Note,
		"created_at":         s.CreatedAt,
	})
	if err != nil {
		return fmt.Errorf("bind append snapshot query: %w", err)
	}
	insertSQL = r.db.Rebind(insertSQL)
	if _, err := r.db.ExecContext(ctx, insertSQL, insertArgs...); err != nil {
		return fmt.Errorf("append snapshot: %w", err)
	}

	return nil
}

func (r *ProgressRepository) ListByParticipant(ctx context.Context, participantID string) ([]progress.Snapshot, error) {
	query := `
SELECT ` + progressSnapshotColumns + `
FROM progress_snapshots
WHERE participant_id = $1
ORDER BY occurred_at, id`

	return r.list(ctx, query, participantID)
}

func (r *ProgressRepository) ListByTeam(ctx context.Context, teamID string) ([]progress.Snapshot, error) {
	query := `
SELECT ` + progressSnapshotColumns + `
FROM progress_snapshots
WHERE team_id = $1
ORDER BY occurred_at, id`

	return r.list(ctx, query, teamID)
}

func (r *ProgressRepository) ListByChallenge(ctx context.Context, challengeID string) ([]progress.Snapshot, error) {
	query := `
SELECT ` + progressSnapshotColumns + `
FROM progress_snapshots
WHERE challenge_id = $1
ORDER BY occurred_at, id`

	return r.list(ctx, query, challengeID)
}

func (r *ProgressRepository) list(ctx context.Context, query string, arg any) ([]progress.Snapshot, error) {
	var rows []progressSnapshotTableModel
	if err := r.db.SelectContext(ctx, &rows, query, arg); err != nil {
		return nil, fmt.Errorf("list snapshots: %w", err)
	}

	out := make([]progress.Snapshot, 0, len(rows))
	for _, row := range rows {
		out = append(out, row.toDomain())
	}

	return out, nil
}
