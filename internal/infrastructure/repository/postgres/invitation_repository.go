package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/fitarena/challenge-engine/internal/domain/invitation"
)

type invitationTableModel struct {
	ID            string     `db:"id"`
	ChallengeID   string     `db:"challenge_id"`
	InvitedClubID string     `db:"invited_club_id"`
	Status        string     `db:"status"`
	InvitedBy     string     `db:"invited_by"`
	CreatedAt     time.Time  `db:"created_at"`
	ExpiresAt     time.Time  `db:"expires_at"`
	RespondedAt   *time.Time `db:"responded_at"`
}

func (m invitationTableModel) toDomain() invitation.Invitation {
	return invitation.Invitation{
		ID:            m.ID,
		ChallengeID:   m.ChallengeID,
		InvitedClubID: m.InvitedClubID,
		Status:        invitation.Status(m.Status),
		InvitedBy:     m.InvitedBy,
		CreatedAt:     m.CreatedAt,
		ExpiresAt:     m.ExpiresAt,
		RespondedAt:   m.RespondedAt,
	}
}

type InvitationRepository struct {
	db *sqlx.DB
}

func NewInvitationRepository(db *sqlx.DB) *InvitationRepository {
	return &InvitationRepository{db: db}
}

func (r *InvitationRepository) Create(ctx context.Context, inv invitation.Invitation) error {
	const query = `
INSERT INTO challenge_invitations (
    id, challenge_id, invited_club_id, status, invited_by, created_at, expires_at
) VALUES (
    :id, :challenge_id, :invited_club_id, :status, :invited_by, :created_at, :expires_at
)`

	insertSQL, insertArgs, err := sqlx.Named(query, map[string]any{
		"id":              inv.ID,
		"challenge_id":    inv.ChallengeID,
		"invited_club_id": inv.InvitedClubID,
		"status":          string(inv.Status),
		"invited_by":      inv.InvitedBy,
		"created_at":      inv.CreatedAt,
		"expires_at":      inv.ExpiresAt,
	})
	if err != nil {
		return fmt.Errorf("bind insert invitation query: %w", err)
	}
	insertSQL = r.db.Rebind(insertSQL)
	if _, err := r.db.ExecContext(ctx, insertSQL, insertArgs...); err != nil {
		return fmt.Errorf("insert invitation: %w", err)
	}

	return nil
}

func (r *InvitationRepository) GetByID(ctx context.Context, invitationID string) (invitation.Invitation, bool, error) {
	const query = `
SELECT id, challenge_id, invited_club_id, status, invited_by, created_at, expires_at, responded_at
FROM challenge_invitations
WHERE id = $1`

	var row invitationTableModel
	if err := r.db.GetContext(ctx, &row, query, invitationID); err != nil {
		if isNotFound(err) {
			return invitation.Invitation{}, false, nil
		}
		return invitation.Invitation{}, false, fmt.Errorf("get invitation: %w", err)
	}

	return row.toDomain(), true, nil
}

func (r *InvitationRepository) ListByChallenge(ctx context.Context, challengeID string) ([]invitation.Invitation, error) {
	const query = `
SELECT id, challenge_id, invited_club_id, status, invited_by, created_at, expires_at, responded_at
FROM challenge_invitations
WHERE challenge_id = $1
ORDER BY created_at, id`

	var rows []invitationTableModel
	if err := r.db.SelectContext(ctx, &rows, query, challengeID); err != nil {
		return nil, fmt.Errorf("list invitations: %w", err)
	}

	out := make([]invitation.Invitation, 0, len(rows))
	for _, row := range rows {
		out = append(out, row.toDomain())
	}

	return out, nil
}

func (r *InvitationRepository) HasAccepted(ctx context.Context, challengeID, clubID string) (bool, error) {
	const query = `
SELECT EXISTS (
    SELECT 1
    FROM challenge_invitations
    WHERE challenge_id = $1
      AND invited_club_id = $2
      AND status = 'accepted'
)`

	var accepted bool
	if err := r.db.GetContext(ctx, &accepted, query, challengeID, clubID); err != nil {
		return false, fmt.Errorf("check accepted invitation: %w", err)
	}

	return accepted, nil
}

func (r *InvitationRepository) UpdateStatus(ctx context.Context, invitationID string, from, to invitation.Status, respondedAt *time.Time) (bool, error) {
	const query = `
UPDATE challenge_invitations
SET status = :to,
    responded_at = COALESCE(:responded_at, responded_at)
WHERE id = :id
  AND status = :from`

	updateSQL, updateArgs, err := sqlx.Named(query, map[string]any{
		"id":           invitationID,
		"from":         string(from),
		"to":           string(to),
		"responded_at": respondedAt,
	})
	if err != nil {
		return false, fmt.Errorf("bind update invitation status query: %w", err)
	}
	updateSQL = r.db.Rebind(updateSQL)

	result, err := r.db.ExecContext(ctx, updateSQL, updateArgs...)
	if err != nil {
		return false, fmt.Errorf("update invitation status: %w", err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("update invitation status rows affected: %w", err)
	}

	return affected == 1, nil
}
