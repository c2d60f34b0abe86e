package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"f1fantasy/internal/database"
	"f1fantasy/internal/models"
)

const leagueColumns = `l.id, l.name, l.description, l.is_public, l.max_teams, l.draft_type, l.point_system,
	l.status, l.owner_id, l.commissioner_id, l.created_at, l.updated_at`

const leagueSummaryColumns = leagueColumns + `,
	(SELECT COUNT(*) FROM league_members m WHERE m.league_id = l.id),
	(SELECT COUNT(*) FROM teams t WHERE t.league_id = l.id),
	(SELECT u.username FROM users u WHERE u.id = l.owner_id)`

// LeagueRepository handles database operations for leagues
type LeagueRepository struct {
	db database.DBTX
}

// NewLeagueRepository creates a new league repository
func NewLeagueRepository(db database.DBTX) *LeagueRepository {
	return &LeagueRepository{db: db}
}

func scanLeague(row rowScanner, extra ...any) (*models.League, error) {
	var (
		l                             models.League
		draftType, pointSystem, state string
	)
	dest := []any{
		&l.ID, &l.Name, &l.Description, &l.IsPublic, &l.MaxTeams, &draftType, &pointSystem,
		&state, &l.OwnerID, &l.CommissionerID, &l.CreatedAt, &l.UpdatedAt,
	}
	if err := row.Scan(append(dest, extra...)...); err != nil {
		return nil, err
	}
	l.DraftType = models.DraftType(draftType)
	l.PointSystem = models.PointSystem(pointSystem)
	l.Status = models.LeagueStatus(state)
	return &l, nil
}

func scanLeagueSummary(row rowScanner) (*models.LeagueSummary, error) {
	var (
		s         models.LeagueSummary
		ownerName sql.NullString
	)
	l, err := scanLeague(row, &s.MemberCount, &s.TeamCount, &ownerName)
	if err != nil {
		return nil, err
	}
	s.League = *l
	s.OwnerName = ownerName.String
	return &s, nil
}

// CreateLeague inserts l and sets its ID. A taken name is reported as
// database.ErrUniqueViolation.
func (r *LeagueRepository) CreateLeague(ctx context.Context, l *models.League) error {
	query := `
		INSERT INTO leagues (name, description, is_public, max_teams, draft_type, point_system, status, owner_id, commissioner_id, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`
	now := utcNow()
	id, err := r.db.ExecReturningID(ctx, query,
		l.Name, l.Description, l.IsPublic, l.MaxTeams, string(l.DraftType), string(l.PointSystem),
		string(l.Status), l.OwnerID, l.CommissionerID, now, now)
	if err != nil {
		return fmt.Errorf("failed to create league: %w", err)
	}
	l.ID = id
	l.CreatedAt = now
	l.UpdatedAt = now
	return nil
}

// GetLeagueByID returns nil when the league does not exist
func (r *LeagueRepository) GetLeagueByID(ctx context.Context, id int64) (*models.League, error) {
	return r.getLeague(ctx, id, "")
}

// LockLeague reads the league and, where supported, holds a row lock on it
// until the surrounding transaction ends.
func (r *LeagueRepository) LockLeague(ctx context.Context, id int64) (*models.League, error) {
	return r.getLeague(ctx, id, r.db.GetDialect().ForUpdate())
}

func (r *LeagueRepository) getLeague(ctx context.Context, id int64, suffix string) (*models.League, error) {
	query := "SELECT " + leagueColumns + " FROM leagues l WHERE l.id = ?" + suffix
	l, err := scanLeague(r.db.QueryRowContext(ctx, query, id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get league: %w", err)
	}
	return l, nil
}

// GetLeagueSummary returns the league with member and team counts
func (r *LeagueRepository) GetLeagueSummary(ctx context.Context, id int64) (*models.LeagueSummary, error) {
	query := "SELECT " + leagueSummaryColumns + " FROM leagues l WHERE l.id = ?"
	s, err := scanLeagueSummary(r.db.QueryRowContext(ctx, query, id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get league: %w", err)
	}
	return s, nil
}

func (r *LeagueRepository) listSummaries(ctx context.Context, where string, args ...any) ([]models.LeagueSummary, error) {
	query := "SELECT " + leagueSummaryColumns + " FROM leagues l"
	if where != "" {
		query += " WHERE " + where
	}
	query += " ORDER BY l.name"

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query leagues: %w", err)
	}
	defer rows.Close()

	var leagues []models.LeagueSummary
	for rows.Next() {
		s, err := scanLeagueSummary(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan league: %w", err)
		}
		leagues = append(leagues, *s)
	}
	return leagues, rows.Err()
}

// ListLeaguesForUser returns every league the user is a member of
func (r *LeagueRepository) ListLeaguesForUser(ctx context.Context, userID int64) ([]models.LeagueSummary, error) {
	return r.listSummaries(ctx, "l.id IN (SELECT league_id FROM league_members WHERE user_id = ?)", userID)
}

// ListOwnedLeagues returns the leagues the user created
func (r *LeagueRepository) ListOwnedLeagues(ctx context.Context, userID int64) ([]models.LeagueSummary, error) {
	return r.listSummaries(ctx, "l.owner_id = ?", userID)
}

// ListPublicLeagues returns every public league
func (r *LeagueRepository) ListPublicLeagues(ctx context.Context) ([]models.LeagueSummary, error) {
	return r.listSummaries(ctx, "l.is_public = ?", true)
}

// ListAllLeagues is used by the admin panel
func (r *LeagueRepository) ListAllLeagues(ctx context.Context) ([]models.LeagueSummary, error) {
	return r.listSummaries(ctx, "")
}

// UpdateLeague writes the editable settings of l
func (r *LeagueRepository) UpdateLeague(ctx context.Context, l *models.League) error {
	query := `
		UPDATE leagues
		SET name = ?, description = ?, is_public = ?, max_teams = ?, draft_type = ?, point_system = ?, updated_at = ?
		WHERE id = ?
	`
	_, err := r.db.ExecContext(ctx, query,
		l.Name, l.Description, l.IsPublic, l.MaxTeams, string(l.DraftType), string(l.PointSystem), utcNow(), l.ID)
	if err != nil {
		return fmt.Errorf("failed to update league: %w", err)
	}
	return nil
}

// UpdateStatus moves the league from one status to another. It reports
// false when the league was not in the expected status.
func (r *LeagueRepository) UpdateStatus(ctx context.Context, id int64, from, to models.LeagueStatus) (bool, error) {
	result, err := r.db.ExecContext(ctx,
		"UPDATE leagues SET status = ?, updated_at = ? WHERE id = ? AND status = ?",
		string(to), utcNow(), id, string(from))
	if err != nil {
		return false, fmt.Errorf("failed to update league status: %w", err)
	}
	n, err := result.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("failed to read status update result: %w", err)
	}
	return n == 1, nil
}

func (r *LeagueRepository) SetCommissioner(ctx context.Context, leagueID, userID int64) error {
	_, err := r.db.ExecContext(ctx, "UPDATE leagues SET commissioner_id = ?, updated_at = ? WHERE id = ?", userID, utcNow(), leagueID)
	if err != nil {
		return fmt.Errorf("failed to set commissioner: %w", err)
	}
	return nil
}

// DeleteLeague removes the league; memberships, teams and pending invites cascade
func (r *LeagueRepository) DeleteLeague(ctx context.Context, id int64) error {
	if _, err := r.db.ExecContext(ctx, "DELETE FROM leagues WHERE id = ?", id); err != nil {
		return fmt.Errorf("failed to delete league: %w", err)
	}
	return nil
}

func (r *LeagueRepository) CountLeagues(ctx context.Context) (int, error) {
	var count int
	if err := r.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM leagues").Scan(&count); err != nil {
		return 0, fmt.Errorf("failed to count leagues: %w", err)
	}
	return count, nil
}

func (r *LeagueRepository) CountOwnedLeagues(ctx context.Context, userID int64) (int, error) {
	var count int
	if err := r.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM leagues WHERE owner_id = ?", userID).Scan(&count); err != nil {
		return 0, fmt.Errorf("failed to count owned leagues: %w", err)
	}
	return count, nil
}
