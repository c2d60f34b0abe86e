package repository

import (
	"context"
	"fmt"

	"f1fantasy/internal/database"
	"f1fantasy/internal/models"
)

// F1DataRepository stores imported races and drivers
type F1DataRepository struct {
	db database.DBTX
}

func NewF1DataRepository(db database.DBTX) *F1DataRepository {
	return &F1DataRepository{db: db}
}

// UpsertRace inserts the race or refreshes the row for the same season and round
func (r *F1DataRepository) UpsertRace(ctx context.Context, race *models.Race) error {
	query := `INSERT INTO races (season, round, name, circuit_name, country, city, race_date, race_time, status, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)` +
		r.db.GetDialect().UpsertClause(
			[]string{"season", "round"},
			[]string{"name", "circuit_name", "country", "city", "race_date", "race_time", "status", "updated_at"},
		)

	if race.Status == "" {
		race.Status = "scheduled"
	}
	_, err := r.db.ExecContext(ctx, query,
		race.Season, race.Round, race.Name, race.CircuitName, race.Country, race.City,
		race.Date, race.Time, race.Status, utcNow())
	if err != nil {
		return fmt.Errorf("failed to upsert race %d/%d: %w", race.Season, race.Round, err)
	}
	return nil
}

// UpsertDriver inserts the driver or refreshes the row for the same season and driver ref
func (r *F1DataRepository) UpsertDriver(ctx context.Context, d *models.Driver) error {
	query := `INSERT INTO drivers (season, driver_ref, driver_number, code, first_name, last_name, nationality, date_of_birth, constructor, status, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)` +
		r.db.GetDialect().UpsertClause(
			[]string{"season", "driver_ref"},
			[]string{"driver_number", "code", "first_name", "last_name", "nationality", "date_of_birth", "constructor", "status", "updated_at"},
		)

	if d.Status == "" {
		d.Status = "active"
	}
	_, err := r.db.ExecContext(ctx, query,
		d.Season, d.DriverRef, d.Number, d.Code, d.FirstName, d.LastName, d.Nationality,
		d.DateOfBirth, d.Constructor, d.Status, utcNow())
	if err != nil {
		return fmt.Errorf("failed to upsert driver %d/%s: %w", d.Season, d.DriverRef, err)
	}
	return nil
}

// ListRaces returns a season's calendar in round order
func (r *F1DataRepository) ListRaces(ctx context.Context, season int) ([]models.Race, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT id, season, round, name, circuit_name, country, city, race_date, race_time, status, updated_at
		FROM races WHERE season = ? ORDER BY round`, season)
	if err != nil {
		return nil, fmt.Errorf("failed to query races: %w", err)
	}
	defer rows.Close()

	var races []models.Race
	for rows.Next() {
		var race models.Race
		if err := rows.Scan(&race.ID, &race.Season, &race.Round, &race.Name, &race.CircuitName, &race.Country,
			&race.City, &race.Date, &race.Time, &race.Status, &race.UpdatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan race: %w", err)
		}
		races = append(races, race)
	}
	return races, rows.Err()
}

// ListDrivers returns a season's drivers ordered by surname
func (r *F1DataRepository) ListDrivers(ctx context.Context, season int) ([]models.Driver, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT id, season, driver_ref, driver_number, code, first_name, last_name, nationality, date_of_birth, constructor, status, updated_at
		FROM drivers WHERE season = ? ORDER BY last_name, first_name`, season)
	if err != nil {
		return nil, fmt.Errorf("failed to query drivers: %w", err)
	}
	defer rows.Close()

	var drivers []models.Driver
	for rows.Next() {
		var d models.Driver
		if err := rows.Scan(&d.ID, &d.Season, &d.DriverRef, &d.Number, &d.Code, &d.FirstName, &d.LastName,
			&d.Nationality, &d.DateOfBirth, &d.Constructor, &d.Status, &d.UpdatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan driver: %w", err)
		}
		drivers = append(drivers, d)
	}
	return drivers, rows.Err()
}

func (r *F1DataRepository) CountRaces(ctx context.Context) (int, error) {
	var count int
	if err := r.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM races").Scan(&count); err != nil {
		return 0, fmt.Errorf("failed to count races: %w", err)
	}
	return count, nil
}

func (r *F1DataRepository) CountDrivers(ctx context.Context) (int, error) {
	var count int
	if err := r.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM drivers").Scan(&count); err != nil {
		return 0, fmt.Errorf("failed to count drivers: %w", err)
	}
	return count, nil
}

// LatestSeason returns the newest imported season, or 0 when nothing is imported
func (r *F1DataRepository) LatestSeason(ctx context.Context) (int, error) {
	var season int
	if err := r.db.QueryRowContext(ctx, "SELECT COALESCE(MAX(season), 0) FROM races").Scan(&season); err != nil {
		return 0, fmt.Errorf("failed to read latest season: %w", err)
	}
	return season, nil
}
