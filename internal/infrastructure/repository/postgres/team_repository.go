package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/fitarena/challenge-engine/internal/domain/team"
)

type teamTableModel struct {
	ID          string    `db:"id"`
	ChallengeID string    `db:"challenge_id"`
	ClubID      string    `db:"club_id"`
	Name        string    `db:"name"`
	CreatedAt   time.Time `db:"created_at"`
	UpdatedAt   time.Time `db:"updated_at"`
}

type TeamRepository struct {
	db *sqlx.DB
}

func NewTeamRepository(db *sqlx.DB) *TeamRepository {
	return &TeamRepository{db: db}
}

func (r *TeamRepository) Create(ctx context.Context, t team.Team) error {
	const query = `
INSERT INTO challenge_teams (id, challenge_id, club_id, name, created_at, updated_at)
VALUES (:id, :challenge_id, :club_id, :name, :created_at, :updated_at)`

	insertSQL, insertArgs, err := sqlx.Named(query, map[string]any{
		"id":           t.ID,
		"challenge_id": t.ChallengeID,
		"club_id":      t.ClubID,
		"name":         t.Name,
		"created_at":   t.CreatedAt,
		"updated_at":   t.UpdatedAt,
	})
	if err != nil {
		return fmt.Errorf("bind insert team query: %w", err)
	}
	insertSQL = r.db.Rebind(insertSQL)
	if _, err := r.db.ExecContext(ctx, insertSQL, insertArgs...); err != nil {
		return fmt.Errorf("insert team: %w", err)
	}

	const memberQuery = `
INSERT INTO challenge_team_members (team_id, user_id)
VALUES (:team_id, :user_id)`
	for _, userID := range t.MemberIDs {
		memberSQL, memberArgs, err := sqlx.Named(memberQuery, map[string]any{
			"team_id": t.ID,
			"user_id": userID,
		})
		if err != nil {
			return fmt.Errorf("bind insert team member user=%s query: %w", userID, err)
		}
		memberSQL = r.db.Rebind(memberSQL)
		if _, err := r.db.ExecContext(ctx, memberSQL, memberArgs...); err != nil {
			return fmt.Errorf("insert team member user=%s: %w", userID, err)
		}
	}

	return nil
}

func (r *TeamRepository) GetByID(ctx context.Context, teamID string) (team.Team, bool, error) {
	const query = `
SELECT id, challenge_id, club_id, name, created_at, updated_at
FROM challenge_teams
WHERE id = $1`

	var row teamTableModel
	if err := r.db.GetContext(ctx, &row, query, teamID); err != nil {
		if isNotFound(err) {
			return team.Team{}, false, nil
		}
		return team.Team{}, false, fmt.Errorf("get team: %w", err)
	}

	t, err := r.withMembers(ctx, row)
	if err != nil {
		return team.Team{}, false, err
	}

	return t, true, nil
}

func (r *TeamRepository) GetByChallengeAndClub(ctx context.Context, challengeID, clubID string) (team.Team, bool, error) {
	const query = `
SELECT id, challenge_id, club_id, name, created_at, updated_at
FROM challenge_teams
WHERE challenge_id = $1
  AND club_id = $2`

	var row teamTableModel
	if err := r.db.GetContext(ctx, &row, query, challengeID, clubID); err != nil {
		if isNotFound(err) {
			return team.Team{}, false, nil
		}
		return team.Team{}, false, fmt.Errorf("get team by club: %w", err)
	}

	t, err := r.withMembers(ctx, row)
	if err != nil {
		return team.Team{}, false, err
	}

	return t, true, nil
}

func (r *TeamRepository) ListByChallenge(ctx context.Context, challengeID string) ([]team.Team, error) {
	const query = `
SELECT id, challenge_id, club_id, name, created_at, updated_at
FROM challenge_teams
WHERE challenge_id = $1
ORDER BY created_at, id`

	var rows []teamTableModel
	if err := r.db.SelectContext(ctx, &rows, query, challengeID); err != nil {
		return nil, fmt.Errorf("list teams: %w", err)
	}

	out := make([]team.Team, 0, len(rows))
	for _, row := range rows {
		t, err := r.withMembers(ctx, row)
		if err != nil {
			return nil, err
		}
		out = append(out, t)
	}

	return out, nil
}

func (r *TeamRepository) CountByChallenge(ctx context.Context, challengeID string) (int, error) {
	const query = `
SELECT COUNT(*)
FROM challenge_teams
WHERE challenge_id = $1`

	var count int
	if err := r.db.GetContext(ctx, &count, query, challengeID); err != nil {
		return 0, fmt.Errorf("count teams: %w", err)
	}

	return count, nil
}

// AddMember locks the team row, so the roster count and the insert are
// serialized against concurrent joins on the same team. A duplicate member
// is an idempotent no-op.
func (r *TeamRepository) AddMember(ctx context.Context, teamID, userID string, maxMembers int) error {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tx for add team member: %w", err)
	}
	defer func() {
		_ = tx.Rollback()
	}()

	var lockedID string
	if err := tx.GetContext(ctx, &lockedID, `SELECT id FROM challenge_teams WHERE id = $1 FOR UPDATE`, teamID); err != nil {
		if isNotFound(err) {
			return nil
		}
		return fmt.Errorf("lock team: %w", err)
	}

	var exists bool
	if err := tx.GetContext(ctx, &exists,
		`SELECT EXISTS (SELECT 1 FROM challenge_team_members WHERE team_id = $1 AND user_id = $2)`,
		teamID, userID); err != nil {
		return fmt.Errorf("check team member: %w", err)
	}
	if exists {
		return nil
	}

	if maxMembers > 0 {
		var count int
		if err := tx.GetContext(ctx, &count,
			`SELECT COUNT(*) FROM challenge_team_members WHERE team_id = $1`, teamID); err != nil {
			return fmt.Errorf("count team members: %w", err)
		}
		if count >= maxMembers {
			return team.ErrTeamFull
		}
	}

	insertSQL, insertArgs, err := sqlx.Named(`
INSERT INTO challenge_team_members (team_id, user_id)
VALUES (:team_id, :user_id)`, map[string]any{
		"team_id": teamID,
		"user_id": userID,
	})
	if err != nil {
		return fmt.Errorf("bind insert team member query: %w", err)
	}
	insertSQL = tx.Rebind(insertSQL)
	if _, err := tx.ExecContext(ctx, insertSQL, insertArgs...); err != nil {
		if isUniqueViolation(err) {
			return nil
		}
		return fmt.Errorf("insert team member: %w", err)
	}

	if _, err := tx.ExecContext(ctx, tx.Rebind(`UPDATE challenge_teams SET updated_at = NOW() WHERE id = ?`), teamID); err != nil {
		return fmt.Errorf("touch team: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit add team member tx: %w", err)
	}

	return nil
}

func (r *TeamRepository) RemoveMember(ctx context.Context, teamID, userID string) error {
	const query = `
DELETE FROM challenge_team_members
WHERE team_id = :team_id
  AND user_id = :user_id`

	deleteSQL, deleteArgs, err := sqlx.Named(query, map[string]any{
		"team_id": teamID,
		"user_id": userID,
	})
	if err != nil {
		return fmt.Errorf("bind remove team member query: %w", err)
	}
	deleteSQL = r.db.Rebind(deleteSQL)
	if _, err := r.db.ExecContext(ctx, deleteSQL, deleteArgs...); err != nil {
		return fmt.Errorf("remove team member: %w", err)
	}

	return nil
}

func (r *TeamRepository) withMembers(ctx context.Context, row teamTableModel) (team.Team, error) {
	const query = `
SELECT user_id
FROM challenge_team_members
WHERE team_id = $1
ORDER BY id`

	var memberIDs []string
	if err := r.db.SelectContext(ctx, &memberIDs, query, row.ID); err != nil {
		return team.Team{}, fmt.Errorf("list team members: %w", err)
	}

	return team.Team{
		ID:          row.ID,
		ChallengeID: row.ChallengeID,
		ClubID:      row.ClubID,
		Name:        row.Name,
		MemberIDs:   memberIDs,
		CreatedAt:   row.CreatedAt,
		UpdatedAt:   row.UpdatedAt,
	}, nil
}
