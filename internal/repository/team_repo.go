package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"f1fantasy/internal/database"
	"f1fantasy/internal/models"
)

// TeamRepository handles database operations for teams
type TeamRepository struct {
	db database.DBTX
}

// NewTeamRepository creates a new team repository
func NewTeamRepository(db database.DBTX) *TeamRepository {
	return &TeamRepository{db: db}
}

// CreateTeam inserts t and sets its ID. A duplicate name in the league, or a
// second team for the same owner, is reported as database.ErrUniqueViolation.
func (r *TeamRepository) CreateTeam(ctx context.Context, t *models.Team) error {
	query := `INSERT INTO teams (name, league_id, owner_id, created_at) VALUES (?, ?, ?, ?)`
	t.CreatedAt = utcNow()
	id, err := r.db.ExecReturningID(ctx, query, t.Name, t.LeagueID, t.OwnerID, t.CreatedAt)
	if err != nil {
		return fmt.Errorf("failed to create team: %w", err)
	}
	t.ID = id
	return nil
}

const teamSelect = `SELECT t.id, t.name, t.league_id, t.owner_id, t.created_at, COALESCE(u.username, '')
	FROM teams t
	LEFT JOIN users u ON u.id = t.owner_id`

func scanTeam(row rowScanner) (*models.Team, error) {
	var t models.Team
	if err := row.Scan(&t.ID, &t.Name, &t.LeagueID, &t.OwnerID, &t.CreatedAt, &t.OwnerName); err != nil {
		return nil, err
	}
	return &t, nil
}

func (r *TeamRepository) getOne(ctx context.Context, where string, args ...any) (*models.Team, error) {
	t, err := scanTeam(r.db.QueryRowContext(ctx, teamSelect+" WHERE "+where, args...))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get team: %w", err)
	}
	return t, nil
}

func (r *TeamRepository) GetTeamByID(ctx context.Context, id int64) (*models.Team, error) {
	return r.getOne(ctx, "t.id = ?", id)
}

// GetUserTeam returns the user's team in the league, or nil
func (r *TeamRepository) GetUserTeam(ctx context.Context, leagueID, userID int64) (*models.Team, error) {
	return r.getOne(ctx, "t.league_id = ? AND t.owner_id = ?", leagueID, userID)
}

// ListTeamsByLeague returns the league's teams ordered by name
func (r *TeamRepository) ListTeamsByLeague(ctx context.Context, leagueID int64) ([]models.Team, error) {
	rows, err := r.db.QueryContext(ctx, teamSelect+" WHERE t.league_id = ? ORDER BY t.name", leagueID)
	if err != nil {
		return nil, fmt.Errorf("failed to query teams: %w", err)
	}
	defer rows.Close()

	var teams []models.Team
	for rows.Next() {
		t, err := scanTeam(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan team: %w", err)
		}
		teams = append(teams, *t)
	}
	return teams, rows.Err()
}

func (r *TeamRepository) CountTeamsByLeague(ctx context.Context, leagueID int64) (int, error) {
	var count int
	if err := r.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM teams WHERE league_id = ?", leagueID).Scan(&count); err != nil {
		return 0, fmt.Errorf("failed to count teams: %w", err)
	}
	return count, nil
}

func (r *TeamRepository) CountTeams(ctx context.Context) (int, error) {
	var count int
	if err := r.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM teams").Scan(&count); err != nil {
		return 0, fmt.Errorf("failed to count teams: %w", err)
	}
	return count, nil
}
