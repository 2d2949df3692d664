package postgres

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"

	"github.com/fitarena/challenge-engine/internal/domain/challenge"
)

const challengeColumns = `
id, name, description, club_id, category, type, difficulty, visibility,
target_value, target_unit, start_date, end_date,
max_participants, max_teams, max_team_members,
admission_policy, password_hash,
max_individual_contribution, min_tracklog_distance,
status, frozen_admission, created_by, created_at, updated_at`

type ChallengeRepository struct {
	db *sqlx.DB
}

func NewChallengeRepository(db *sqlx.DB) *ChallengeRepository {
	return &ChallengeRepository{db: db}
}

func (r *ChallengeRepository) Create(ctx context.Context, ch challenge.Challenge) error {
	const query = `
INSERT INTO challenges (
    id, name, description, club_id, category, type, difficulty, visibility,
    target_value, target_unit, start_date, end_date,
    max_participants, max_teams, max_team_members,
    admission_policy, password_hash,
    max_individual_contribution, min_tracklog_distance,
    status, created_by, created_at, updated_at
) VALUES (
    :id, :name, :description, :club_id, :category, :type, :difficulty, :visibility,
    :target_value, :target_unit, :start_date, :end_date,
    :max_participants, :max_teams, :max_team_members,
    :admission_policy, :password_hash,
    :max_individual_contribution, :min_tracklog_distance,
    :status, :created_by, :created_at, :updated_at
)`

	args := map[string]any{
		"id":          ch.ID,
		"name":        ch.Name,
		"description": ch.Description,
		"club_id":     ch.ClubID,
		"category":    string(ch.Category),
		"type":        string(ch.Type),
		"difficulty":  string(ch.Difficulty),
		"visibility":  string(ch.Visibility),

		"target_value": ch.TargetValue,
		"target_unit":  ch.TargetUnit,
		"start_date":   ch.StartDate,
		"end_date":     ch.EndDate,

		"max_participants": ch.MaxParticipants,
		"max_teams":        ch.MaxTeams,
		"max_team_members": ch.MaxTeamMembers,

		"admission_policy": string(ch.AdmissionPolicy),
		"password_hash":    ch.PasswordHash,

		"max_individual_contribution": ch.MaxIndividualContribution,
		"min_tracklog_distance":       ch.MinTracklogDistance,

		"status":     string(ch.Status),
		"created_by": ch.CreatedBy,
		"created_at": ch.CreatedAt,
		"updated_at": ch.UpdatedAt,
	}
	insertSQL, insertArgs, err := sqlx.Named(query, args)
	if err != nil {
		return fmt.Errorf("bind insert challenge query: %w", err)
	}
	insertSQL = r.db.Rebind(insertSQL)
	if _, err := r.db.ExecContext(ctx, insertSQL, insertArgs...); err != nil {
		return fmt.Errorf("insert challenge: %w", err)
	}

	return nil
}

func (r *ChallengeRepository) GetByID(ctx context.Context, challengeID string) (challenge.Challenge, bool, error) {
	query := `
SELECT ` + challengeColumns + `
FROM challenges
WHERE id = $1`

	var row challengeTableModel
	if err := r.db.GetContext(ctx, &row, query, challengeID); err != nil {
		if isNotFound(err) {
			return challenge.Challenge{}, false, nil
		}
		return challenge.Challenge{}, false, fmt.Errorf("get challenge: %w", err)
	}

	ch, err := row.toDomain()
	if err != nil {
		return challenge.Challenge{}, false, err
	}

	return ch, true, nil
}

func (r *ChallengeRepository) List(ctx context.Context) ([]challenge.Challenge, error) {
	query := `
SELECT ` + challengeColumns + `
FROM challenges
ORDER BY created_at, id`

	var rows []challengeTableModel
	if err := r.db.SelectContext(ctx, &rows, query); err != nil {
		return nil, fmt.Errorf("list challenges: %w", err)
	}

	return challengeRowsToDomain(rows)
}

func (r *ChallengeRepository) ListByStatus(ctx context.Context, statuses ...challenge.Status) ([]challenge.Challenge, error) {
	query := `
SELECT ` + challengeColumns + `
FROM challenges
WHERE status = ANY($1)
ORDER BY created_at, id`

	wanted := make([]string, 0, len(statuses))
	for _, s := range statuses {
		wanted = append(wanted, string(s))
	}

	var rows []challengeTableModel
	if err := r.db.SelectContext(ctx, &rows, query, pq.Array(wanted)); err != nil {
		return nil, fmt.Errorf("list challenges by status: %w", err)
	}

	return challengeRowsToDomain(rows)
}

// UpdateStatus swaps the status only while the stored value still matches
// from. The frozen admission snapshot is written in the same statement so a
// transition to active can never race an admission-rule edit.
func (r *ChallengeRepository) UpdateStatus(ctx context.Context, challengeID string, from, to challenge.Status, frozen *challenge.AdmissionSnapshot) (bool, error) {
	const query = `
UPDATE challenges
SET status = :to,
    frozen_admission = COALESCE(:frozen_admission, frozen_admission),
    updated_at = NOW()
WHERE id = :id
  AND status = :from`

	raw, err := marshalAdmissionSnapshot(frozen)
	if err != nil {
		return false, err
	}

	updateSQL, updateArgs, err := sqlx.Named(query, map[string]any{
		"id":               challengeID,
		"from":             string(from),
		"to":               string(to),
		"frozen_admission": raw,
	})
	if err != nil {
		return false, fmt.Errorf("bind update challenge status query: %w", err)
	}
	updateSQL = r.db.Rebind(updateSQL)

	result, err := r.db.ExecContext(ctx, updateSQL, updateArgs...)
	if err != nil {
		return false, fmt.Errorf("update challenge status: %w", err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("update challenge status rows affected: %w", err)
	}

	return affected == 1, nil
}

func challengeRowsToDomain(rows []challengeTableModel) ([]challenge.Challenge, error) {
	out := make([]challenge.Challenge, 0, len(rows))
	for _, row := range rows {
		ch, err := row.toDomain()
		if err != nil {
			return nil, err
		}
		out = append(out, ch)
	}
	return out, nil
}
