package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"f1fantasy/internal/database"
	"f1fantasy/internal/models"
)

// PendingInviteRepository handles invites recorded on existing accounts
type PendingInviteRepository struct {
	db database.DBTX
}

// NewPendingInviteRepository creates a new pending invite repository
func NewPendingInviteRepository(db database.DBTX) *PendingInviteRepository {
	return &PendingInviteRepository{db: db}
}

// CreateInvite inserts inv and sets its ID. A second invite for the same
// user and league is reported as database.ErrUniqueViolation.
func (r *PendingInviteRepository) CreateInvite(ctx context.Context, inv *models.PendingInvite) error {
	query := `INSERT INTO pending_invites (user_id, league_id, inviter_id, role, ` + grantColumns + `, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`
	inv.CreatedAt = utcNow()
	args := append([]any{inv.UserID, inv.LeagueID, nullInt64(inv.InviterID), string(inv.Role)}, grantArgs(inv.Grants)...)
	id, err := r.db.ExecReturningID(ctx, query, append(args, inv.CreatedAt)...)
	if err != nil {
		return fmt.Errorf("failed to create invite: %w", err)
	}
	inv.ID = id
	return nil
}

const inviteSelect = `SELECT i.id, i.user_id, i.league_id, i.inviter_id, i.role, i.can_edit_name, i.can_edit_description,
		i.can_edit_is_public, i.can_edit_max_teams, i.can_edit_draft_type, i.can_edit_point_system, i.created_at,
		l.name, COALESCE(u.username, '')
	FROM pending_invites i
	JOIN leagues l ON l.id = i.league_id
	LEFT JOIN users u ON u.id = i.inviter_id`

func scanInvite(row rowScanner) (*models.PendingInvite, error) {
	var (
		inv       models.PendingInvite
		inviterID sql.NullInt64
		role      string
	)
	dest := append([]any{&inv.ID, &inv.UserID, &inv.LeagueID, &inviterID, &role}, grantDest(&inv.Grants)...)
	dest = append(dest, &inv.CreatedAt, &inv.LeagueName, &inv.InviterName)
	if err := row.Scan(dest...); err != nil {
		return nil, err
	}
	inv.InviterID = int64Ptr(inviterID)
	inv.Role = models.Role(role)
	return &inv, nil
}

// GetInvite returns nil when no such invite exists
func (r *PendingInviteRepository) GetInvite(ctx context.Context, id int64) (*models.PendingInvite, error) {
	inv, err := scanInvite(r.db.QueryRowContext(ctx, inviteSelect+" WHERE i.id = ?", id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get invite: %w", err)
	}
	return inv, nil
}

// ListInvitesForUser returns the user's pending invites, oldest first
func (r *PendingInviteRepository) ListInvitesForUser(ctx context.Context, userID int64) ([]models.PendingInvite, error) {
	rows, err := r.db.QueryContext(ctx, inviteSelect+" WHERE i.user_id = ? ORDER BY i.created_at, i.id", userID)
	if err != nil {
		return nil, fmt.Errorf("failed to query invites: %w", err)
	}
	defer rows.Close()

	var invites []models.PendingInvite
	for rows.Next() {
		inv, err := scanInvite(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan invite: %w", err)
		}
		invites = append(invites, *inv)
	}
	return invites, rows.Err()
}

func (r *PendingInviteRepository) CountInvitesForUser(ctx context.Context, userID int64) (int, error) {
	var count int
	if err := r.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM pending_invites WHERE user_id = ?", userID).Scan(&count); err != nil {
		return 0, fmt.Errorf("failed to count invites: %w", err)
	}
	return count, nil
}

// DeleteInvite removes an invite and reports whether it existed
func (r *PendingInviteRepository) DeleteInvite(ctx context.Context, id int64) (bool, error) {
	result, err := r.db.ExecContext(ctx, "DELETE FROM pending_invites WHERE id = ?", id)
	if err != nil {
		return false, fmt.Errorf("failed to delete invite: %w", err)
	}
	n, err := result.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("failed to read delete invite result: %w", err)
	}
	return n == 1, nil
}

// DeleteInvitesForUserLeague clears any invite once the user has joined
func (r *PendingInviteRepository) DeleteInvitesForUserLeague(ctx context.Context, userID, leagueID int64) error {
	if _, err := r.db.ExecContext(ctx, "DELETE FROM pending_invites WHERE user_id = ? AND league_id = ?", userID, leagueID); err != nil {
		return fmt.Errorf("failed to delete invites: %w", err)
	}
	return nil
}
