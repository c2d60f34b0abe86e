package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"f1fantasy/internal/database"
	"f1fantasy/internal/models"
)

// SettingsRepository handles the key/value settings table
type SettingsRepository struct {
	db database.DBTX
}

func NewSettingsRepository(db database.DBTX) *SettingsRepository {
	return &SettingsRepository{db: db}
}

// GetSetting retrieves a setting value by key. found is false when the key
// has never been stored.
func (r *SettingsRepository) GetSetting(ctx context.Context, key string) (value string, found bool, err error) {
	err = r.db.QueryRowContext(ctx, "SELECT value FROM settings WHERE setting_key = ?", key).Scan(&value)
	if errors.Is(err, sql.ErrNoRows) {
		return "", false, nil
	}
	if err != nil {
		return "", false, fmt.Errorf("failed to get setting %s: %w", key, err)
	}
	return value, true, nil
}

// SetSetting updates or inserts a setting
func (r *SettingsRepository) SetSetting(ctx context.Context, s *models.Setting) error {
	dialect := r.db.GetDialect()
	query := `INSERT INTO settings (setting_key, value, description, category, updated_at, updated_by)
		VALUES (?, ?, ?, ?, ?, ?)` +
		dialect.UpsertClause([]string{"setting_key"}, []string{"value", "description", "category", "updated_at", "updated_by"})

	s.UpdatedAt = utcNow()
	_, err := r.db.ExecContext(ctx, query, s.Key, s.Value, s.Description, s.Category, s.UpdatedAt, nullInt64(s.UpdatedBy))
	if err != nil {
		return fmt.Errorf("failed to save setting %s: %w", s.Key, err)
	}
	return nil
}

// ListSettings returns stored settings, optionally filtered by category
func (r *SettingsRepository) ListSettings(ctx context.Context, category string) ([]models.Setting, error) {
	query := "SELECT id, setting_key, value, description, category, updated_at, updated_by FROM settings"
	var args []any
	if category != "" {
		query += " WHERE category = ?"
		args = append(args, category)
	}
	query += " ORDER BY category, setting_key"

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query settings: %w", err)
	}
	defer rows.Close()

	var settings []models.Setting
	for rows.Next() {
		var (
			s         models.Setting
			updatedBy sql.NullInt64
		)
		if err := rows.Scan(&s.ID, &s.Key, &s.Value, &s.Description, &s.Category, &s.UpdatedAt, &updatedBy); err != nil {
			return nil, fmt.Errorf("failed to scan setting: %w", err)
		}
		s.UpdatedBy = int64Ptr(updatedBy)
		settings = append(settings, s)
	}
	return settings, rows.Err()
}
