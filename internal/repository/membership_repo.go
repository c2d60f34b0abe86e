package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"f1fantasy/internal/database"
	"f1fantasy/internal/models"
)

const grantColumns = `can_edit_name, can_edit_description, can_edit_is_public, can_edit_max_teams, can_edit_draft_type, can_edit_point_system`

func grantArgs(g models.EditGrants) []any {
	return []any{g.Name, g.Description, g.IsPublic, g.MaxTeams, g.DraftType, g.PointSystem}
}

func grantDest(g *models.EditGrants) []any {
	return []any{&g.Name, &g.Description, &g.IsPublic, &g.MaxTeams, &g.DraftType, &g.PointSystem}
}

// MembershipRepository handles the league_members join table
type MembershipRepository struct {
	db database.DBTX
}

// NewMembershipRepository creates a new membership repository
func NewMembershipRepository(db database.DBTX) *MembershipRepository {
	return &MembershipRepository{db: db}
}

// AddMember inserts m unconditionally. An existing membership is reported
// as database.ErrUniqueViolation.
func (r *MembershipRepository) AddMember(ctx context.Context, m *models.Membership) error {
	query := `INSERT INTO league_members (league_id, user_id, role, ` + grantColumns + `, joined_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`
	m.JoinedAt = utcNow()
	args := append([]any{m.LeagueID, m.UserID, string(m.Role)}, grantArgs(m.Grants)...)
	if _, err := r.db.ExecContext(ctx, query, append(args, m.JoinedAt)...); err != nil {
		return fmt.Errorf("failed to add member: %w", err)
	}
	return nil
}

// AddMemberIfCapacity inserts m while the league has fewer than maxTeams
// members and reports false when it is full. The caller must hold the
// league lock (LeagueRepository.LockLeague) in the same transaction.
func (r *MembershipRepository) AddMemberIfCapacity(ctx context.Context, m *models.Membership, maxTeams int) (bool, error) {
	count, err := r.CountMembers(ctx, m.LeagueID)
	if err != nil {
		return false, err
	}
	if count >= maxTeams {
		return false, nil
	}
	if err := r.AddMember(ctx, m); err != nil {
		return false, err
	}
	return true, nil
}

// GetMembership returns nil when the user is not in the league
func (r *MembershipRepository) GetMembership(ctx context.Context, leagueID, userID int64) (*models.Membership, error) {
	query := `SELECT league_id, user_id, role, ` + grantColumns + `, joined_at
		FROM league_members WHERE league_id = ? AND user_id = ?`

	var (
		m    models.Membership
		role string
	)
	dest := append([]any{&m.LeagueID, &m.UserID, &role}, grantDest(&m.Grants)...)
	err := r.db.QueryRowContext(ctx, query, leagueID, userID).Scan(append(dest, &m.JoinedAt)...)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get membership: %w", err)
	}
	m.Role = models.Role(role)
	return &m, nil
}

// ListMembers returns the league's members with their usernames, in join order
func (r *MembershipRepository) ListMembers(ctx context.Context, leagueID int64) ([]models.Member, error) {
	query := `SELECT m.league_id, m.user_id, m.role, m.can_edit_name, m.can_edit_description, m.can_edit_is_public,
			m.can_edit_max_teams, m.can_edit_draft_type, m.can_edit_point_system, m.joined_at, u.username, u.name
		FROM league_members m
		JOIN users u ON u.id = m.user_id
		WHERE m.league_id = ?
		ORDER BY m.joined_at, u.username`

	rows, err := r.db.QueryContext(ctx, query, leagueID)
	if err != nil {
		return nil, fmt.Errorf("failed to query members: %w", err)
	}
	defer rows.Close()

	var members []models.Member
	for rows.Next() {
		var (
			mem  models.Member
			role string
		)
		dest := append([]any{&mem.LeagueID, &mem.UserID, &role}, grantDest(&mem.Grants)...)
		dest = append(dest, &mem.JoinedAt, &mem.Username, &mem.Name)
		if err := rows.Scan(dest...); err != nil {
			return nil, fmt.Errorf("failed to scan member: %w", err)
		}
		mem.Role = models.Role(role)
		members = append(members, mem)
	}
	return members, rows.Err()
}

func (r *MembershipRepository) CountMembers(ctx context.Context, leagueID int64) (int, error) {
	var count int
	if err := r.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM league_members WHERE league_id = ?", leagueID).Scan(&count); err != nil {
		return 0, fmt.Errorf("failed to count members: %w", err)
	}
	return count, nil
}

// UpdateRole sets the role and grants of an existing membership
func (r *MembershipRepository) UpdateRole(ctx context.Context, leagueID, userID int64, role models.Role, grants models.EditGrants) error {
	query := `UPDATE league_members
		SET role = ?, can_edit_name = ?, can_edit_description = ?, can_edit_is_public = ?,
			can_edit_max_teams = ?, can_edit_draft_type = ?, can_edit_point_system = ?
		WHERE league_id = ? AND user_id = ?`
	args := append([]any{string(role)}, grantArgs(grants)...)
	if _, err := r.db.ExecContext(ctx, query, append(args, leagueID, userID)...); err != nil {
		return fmt.Errorf("failed to update member role: %w", err)
	}
	return nil
}

// RemoveMember deletes the membership and the user's team in that league.
// It reports false when there was no membership.
func (r *MembershipRepository) RemoveMember(ctx context.Context, leagueID, userID int64) (bool, error) {
	if _, err := r.db.ExecContext(ctx, "DELETE FROM teams WHERE league_id = ? AND owner_id = ?", leagueID, userID); err != nil {
		return false, fmt.Errorf("failed to remove member team: %w", err)
	}
	result, err := r.db.ExecContext(ctx, "DELETE FROM league_members WHERE league_id = ? AND user_id = ?", leagueID, userID)
	if err != nil {
		return false, fmt.Errorf("failed to remove member: %w", err)
	}
	n, err := result.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("failed to read remove member result: %w", err)
	}
	return n == 1, nil
}
