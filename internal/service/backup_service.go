package service

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"io"
	"time"

	"f1fantasy/internal/database"
	"f1fantasy/internal/models"

	"github.com/rs/zerolog/log"
)

// BackupVersion is written into every export
const BackupVersion = "1.0"

// BackupData is a dialect-neutral dump of the league data. Imported race
// and driver tables are not included; they are re-imported from the
// statistics source.
type BackupData struct {
	Version      string          `json:"version"`
	ExportedAt   time.Time       `json:"exported_at"`
	DatabaseType string          `json:"database_type"`
	Users        []UserBackup    `json:"users"`
	Leagues      []LeagueBackup  `json:"leagues"`
	Members      []MemberBackup  `json:"members"`
	Teams        []TeamBackup    `json:"teams"`
	Invites      []InviteBackup  `json:"pending_invites"`
	Settings     []SettingBackup `json:"settings"`
}

// UserBackup represents a user record for backup
type UserBackup struct {
	ID            int64      `json:"id"`
	Username      string     `json:"username"`
	Email         string     `json:"email,omitempty"`
	PasswordHash  string     `json:"password_hash"`
	Name          string     `json:"name"`
	IsAdmin       bool       `json:"is_admin"`
	IsActive      bool       `json:"is_active"`
	Visibility    string     `json:"visibility"`
	OAuthProvider string     `json:"oauth_provider,omitempty"`
	OAuthSubject  string     `json:"oauth_subject,omitempty"`
	CreatedAt     time.Time  `json:"created_at"`
	LastLogin     *time.Time `json:"last_login,omitempty"`
}

// LeagueBackup represents a league record for backup
type LeagueBackup struct {
	ID             int64     `json:"id"`
	Name           string    `json:"name"`
	Description    string    `json:"description"`
	IsPublic       bool      `json:"is_public"`
	MaxTeams       int       `json:"max_teams"`
	DraftType      string    `json:"draft_type"`
	PointSystem    string    `json:"point_system"`
	Status         string    `json:"status"`
	OwnerID        int64     `json:"owner_id"`
	CommissionerID int64     `json:"commissioner_id"`
	CreatedAt      time.Time `json:"created_at"`
	UpdatedAt      time.Time `json:"updated_at"`
}

// MemberBackup represents a league membership for backup
type MemberBackup struct {
	LeagueID int64             `json:"league_id"`
	UserID   int64             `json:"user_id"`
	Role     string            `json:"role"`
	Grants   models.EditGrants `json:"grants"`
	JoinedAt time.Time         `json:"joined_at"`
}

// TeamBackup represents a team for backup
type TeamBackup struct {
	ID        int64     `json:"id"`
	Name      string    `json:"name"`
	LeagueID  int64     `json:"league_id"`
	OwnerID   int64     `json:"owner_id"`
	CreatedAt time.Time `json:"created_at"`
}

// InviteBackup represents a pending invite for backup
type InviteBackup struct {
	ID        int64             `json:"id"`
	UserID    int64             `json:"user_id"`
	LeagueID  int64             `json:"league_id"`
	InviterID *int64            `json:"inviter_id,omitempty"`
	Role      string            `json:"role"`
	Grants    models.EditGrants `json:"grants"`
	CreatedAt time.Time         `json:"created_at"`
}

// SettingBackup represents a stored setting for backup
type SettingBackup struct {
	Key         string    `json:"key"`
	Value       string    `json:"value"`
	Description string    `json:"description"`
	Category    string    `json:"category"`
	UpdatedAt   time.Time `json:"updated_at"`
	UpdatedBy   *int64    `json:"updated_by,omitempty"`
}

// BackupService handles database backup and restore operations
type BackupService struct {
	db *database.DB
}

// NewBackupService creates a new backup service
func NewBackupService(db *database.DB) *BackupService {
	return &BackupService{db: db}
}

// Export reads every league table into a BackupData
func (s *BackupService) Export(ctx context.Context) (*BackupData, error) {
	backup := &BackupData{
		Version:      BackupVersion,
		ExportedAt:   time.Now().UTC(),
		DatabaseType: s.db.GetDialect().DriverName(),
	}

	steps := []struct {
		name string
		fn   func(context.Context, *BackupData) error
	}{
		{"users", s.exportUsers},
		{"leagues", s.exportLeagues},
		{"members", s.exportMembers},
		{"teams", s.exportTeams},
		{"pending invites", s.exportInvites},
		{"settings", s.exportSettings},
	}
	for _, step := range steps {
		if err := step.fn(ctx, backup); err != nil {
			return nil, fmt.Errorf("failed to export %s: %w", step.name, err)
		}
	}

	log.Info().Int("users", len(backup.Users)).Int("leagues", len(backup.Leagues)).Int("members", len(backup.Members)).
		Int("teams", len(backup.Teams)).Int("invites", len(backup.Invites)).Int("settings", len(backup.Settings)).
		Msg("Database exported")
	return backup, nil
}

// ExportToWriter writes an indented JSON backup to w
func (s *BackupService) ExportToWriter(ctx context.Context, w io.Writer) error {
	backup, err := s.Export(ctx)
	if err != nil {
		return err
	}
	encoder := json.NewEncoder(w)
	encoder.SetIndent("", "  ")
	return encoder.Encode(backup)
}

// ImportFromReader restores a JSON backup into an empty database
func (s *BackupService) ImportFromReader(ctx context.Context, r io.Reader) error {
	var backup BackupData
	if err := json.NewDecoder(r).Decode(&backup); err != nil {
		return fmt.Errorf("failed to decode backup: %w", err)
	}
	return s.Import(ctx, &backup)
}

// Import replaces the league data with backup inside one transaction.
// Sessions are dropped, so everyone signs in again with restored accounts.
func (s *BackupService) Import(ctx context.Context, backup *BackupData) error {
	if backup.Version != BackupVersion {
		return fmt.Errorf("unsupported backup version %q", backup.Version)
	}
	if len(backup.Users) == 0 {
		return fmt.Errorf("backup contains no users")
	}
	log.Info().Str("version", backup.Version).Time("exported_at", backup.ExportedAt).
		Str("source", backup.DatabaseType).Msg("Starting database import")

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	steps := []struct {
		name string
		fn   func(context.Context, database.DBTX, *BackupData) error
	}{
		{"existing data", clearTables},
		{"users", importUsers},
		{"leagues", importLeagues},
		{"members", importMembers},
		{"teams", importTeams},
		{"pending invites", importInvites},
		{"settings", importSettings},
		{"sequences", resetSequences},
	}
	for _, step := range steps {
		if err := step.fn(ctx, tx, backup); err != nil {
			return fmt.Errorf("failed to import %s: %w", step.name, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return err
	}
	log.Info().Int("users", len(backup.Users)).Int("leagues", len(backup.Leagues)).Msg("Database import completed")
	return nil
}

func (s *BackupService) exportUsers(ctx context.Context, backup *BackupData) error {
	rows, err := s.db.QueryContext(ctx, `SELECT id, username, email, password_hash, name, is_admin, is_active, visibility,
		oauth_provider, oauth_subject, created_at, last_login FROM users ORDER BY id`)
	if err != nil {
		return err
	}
	defer rows.Close()

	for rows.Next() {
		var (
			u                        UserBackup
			email, provider, subject sql.NullString
			lastLogin                sql.NullTime
		)
		if err := rows.Scan(&u.ID, &u.Username, &email, &u.PasswordHash, &u.Name, &u.IsAdmin, &u.IsActive, &u.Visibility,
			&provider, &subject, &u.CreatedAt, &lastLogin); err != nil {
			return err
		}
		u.Email, u.OAuthProvider, u.OAuthSubject = email.String, provider.String, subject.String
		if lastLogin.Valid {
			u.LastLogin = &lastLogin.Time
		}
		backup.Users = append(backup.Users, u)
	}
	return rows.Err()
}

func (s *BackupService) exportLeagues(ctx context.Context, backup *BackupData) error {
	rows, err := s.db.QueryContext(ctx, `SELECT id, name, description, is_public, max_teams, draft_type, point_system, status,
		owner_id, commissioner_id, created_at, updated_at FROM leagues ORDER BY id`)
	if err != nil {
		return err
	}
	defer rows.Close()

	for rows.Next() {
		var l LeagueBackup
		if err := rows.Scan(&l.ID, &l.Name, &l.Description, &l.IsPublic, &l.MaxTeams, &l.DraftType, &l.PointSystem, &l.Status,
			&l.OwnerID, &l.CommissionerID, &l.CreatedAt, &l.UpdatedAt); err != nil {
			return err
		}
		backup.Leagues = append(backup.Leagues, l)
	}
	return rows.Err()
}

func (s *BackupService) exportMembers(ctx context.Context, backup *BackupData) error {
	rows, err := s.db.QueryContext(ctx, `SELECT league_id, user_id, role, can_edit_name, can_edit_description, can_edit_is_public,
		can_edit_max_teams, can_edit_draft_type, can_edit_point_system, joined_at FROM league_members ORDER BY league_id, user_id`)
	if err != nil {
		return err
	}
	defer rows.Close()

	for rows.Next() {
		var m MemberBackup
		g := &m.Grants
		if err := rows.Scan(&m.LeagueID, &m.UserID, &m.Role, &g.Name, &g.Description, &g.IsPublic,
			&g.MaxTeams, &g.DraftType, &g.PointSystem, &m.JoinedAt); err != nil {
			return err
		}
		backup.Members = append(backup.Members, m)
	}
	return rows.Err()
}

func (s *BackupService) exportTeams(ctx context.Context, backup *BackupData) error {
	rows, err := s.db.QueryContext(ctx, "SELECT id, name, league_id, owner_id, created_at FROM teams ORDER BY id")
	if err != nil {
		return err
	}
	defer rows.Close()

	for rows.Next() {
		var t TeamBackup
		if err := rows.Scan(&t.ID, &t.Name, &t.LeagueID, &t.OwnerID, &t.CreatedAt); err != nil {
			return err
		}
		backup.Teams = append(backup.Teams, t)
	}
	return rows.Err()
}

func (s *BackupService) exportInvites(ctx context.Context, backup *BackupData) error {
	rows, err := s.db.QueryContext(ctx, `SELECT id, user_id, league_id, inviter_id, role, can_edit_name, can_edit_description,
		can_edit_is_public, can_edit_max_teams, can_edit_draft_type, can_edit_point_system, created_at
		FROM pending_invites ORDER BY id`)
	if err != nil {
		return err
	}
	defer rows.Close()

	for rows.Next() {
		var (
			inv     InviteBackup
			inviter sql.NullInt64
		)
		g := &inv.Grants
		if err := rows.Scan(&inv.ID, &inv.UserID, &inv.LeagueID, &inviter, &inv.Role, &g.Name, &g.Description,
			&g.IsPublic, &g.MaxTeams, &g.DraftType, &g.PointSystem, &inv.CreatedAt); err != nil {
			return err
		}
		if inviter.Valid {
			inv.InviterID = &inviter.Int64
		}
		backup.Invites = append(backup.Invites, inv)
	}
	return rows.Err()
}

func (s *BackupService) exportSettings(ctx context.Context, backup *BackupData) error {
	rows, err := s.db.QueryContext(ctx, "SELECT setting_key, value, description, category, updated_at, updated_by FROM settings ORDER BY setting_key")
	if err != nil {
		return err
	}
	defer rows.Close()

	for rows.Next() {
		var (
			st        SettingBackup
			updatedBy sql.NullInt64
		)
		if err := rows.Scan(&st.Key, &st.Value, &st.Description, &st.Category, &st.UpdatedAt, &updatedBy); err != nil {
			return err
		}
		if updatedBy.Valid {
			st.UpdatedBy = &updatedBy.Int64
		}
		backup.Settings = append(backup.Settings, st)
	}
	return rows.Err()
}

func nullIfEmpty(s string) any {
	if s == "" {
		return nil
	}
	return s
}

func nullIfNil[T any](p *T) any {
	if p == nil {
		return nil
	}
	return *p
}

// clearedTables lists the tables an import replaces, children first
var clearedTables = []string{"sessions", "pending_invites", "teams", "league_members", "leagues", "settings", "users"}

func clearTables(ctx context.Context, q database.DBTX, _ *BackupData) error {
	for _, table := range clearedTables {
		if _, err := q.ExecContext(ctx, "DELETE FROM "+table); err != nil {
			return fmt.Errorf("failed to clear %s: %w", table, err)
		}
	}
	return nil
}

func importUsers(ctx context.Context, q database.DBTX, backup *BackupData) error {
	for _, u := range backup.Users {
		_, err := q.ExecContext(ctx, `INSERT INTO users (id, username, email, password_hash, name, is_admin, is_active, visibility,
			oauth_provider, oauth_subject, created_at, last_login) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
			u.ID, u.Username, nullIfEmpty(u.Email), u.PasswordHash, u.Name, u.IsAdmin, u.IsActive, u.Visibility,
			nullIfEmpty(u.OAuthProvider), nullIfEmpty(u.OAuthSubject), u.CreatedAt.UTC(), nullIfNil(u.LastLogin))
		if err != nil {
			return fmt.Errorf("user %d: %w", u.ID, err)
		}
	}
	return nil
}

func importLeagues(ctx context.Context, q database.DBTX, backup *BackupData) error {
	for _, l := range backup.Leagues {
		_, err := q.ExecContext(ctx, `INSERT INTO leagues (id, name, description, is_public, max_teams, draft_type, point_system, status,
			owner_id, commissioner_id, created_at, updated_at) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
			l.ID, l.Name, l.Description, l.IsPublic, l.MaxTeams, l.DraftType, l.PointSystem, l.Status,
			l.OwnerID, l.CommissionerID, l.CreatedAt.UTC(), l.UpdatedAt.UTC())
		if err != nil {
			return fmt.Errorf("league %d: %w", l.ID, err)
		}
	}
	return nil
}

func importMembers(ctx context.Context, q database.DBTX, backup *BackupData) error {
	for _, m := range backup.Members {
		g := m.Grants
		_, err := q.ExecContext(ctx, `INSERT INTO league_members (league_id, user_id, role, can_edit_name, can_edit_description,
			can_edit_is_public, can_edit_max_teams, can_edit_draft_type, can_edit_point_system, joined_at)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
			m.LeagueID, m.UserID, m.Role, g.Name, g.Description, g.IsPublic, g.MaxTeams, g.DraftType, g.PointSystem, m.JoinedAt.UTC())
		if err != nil {
			return fmt.Errorf("member %d of league %d: %w", m.UserID, m.LeagueID, err)
		}
	}
	return nil
}

func importTeams(ctx context.Context, q database.DBTX, backup *BackupData) error {
	for _, t := range backup.Teams {
		_, err := q.ExecContext(ctx, "INSERT INTO teams (id, name, league_id, owner_id, created_at) VALUES (?, ?, ?, ?, ?)",
			t.ID, t.Name, t.LeagueID, t.OwnerID, t.CreatedAt.UTC())
		if err != nil {
			return fmt.Errorf("team %d: %w", t.ID, err)
		}
	}
	return nil
}

func importInvites(ctx context.Context, q database.DBTX, backup *BackupData) error {
	for _, inv := range backup.Invites {
		g := inv.Grants
		_, err := q.ExecContext(ctx, `INSERT INTO pending_invites (id, user_id, league_id, inviter_id, role, can_edit_name,
			can_edit_description, can_edit_is_public, can_edit_max_teams, can_edit_draft_type, can_edit_point_system, created_at)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
			inv.ID, inv.UserID, inv.LeagueID, nullIfNil(inv.InviterID), inv.Role, g.Name, g.Description, g.IsPublic,
			g.MaxTeams, g.DraftType, g.PointSystem, inv.CreatedAt.UTC())
		if err != nil {
			return fmt.Errorf("invite %d: %w", inv.ID, err)
		}
	}
	return nil
}

func importSettings(ctx context.Context, q database.DBTX, backup *BackupData) error {
	for _, st := range backup.Settings {
		_, err := q.ExecContext(ctx, `INSERT INTO settings (setting_key, value, description, category, updated_at, updated_by)
			VALUES (?, ?, ?, ?, ?, ?)`,
			st.Key, st.Value, st.Description, st.Category, st.UpdatedAt.UTC(), nullIfNil(st.UpdatedBy))
		if err != nil {
			return fmt.Errorf("setting %s: %w", st.Key, err)
		}
	}
	return nil
}

// resetSequences moves Postgres serial sequences past the imported IDs.
// SQLite and MySQL advance their counters on explicit inserts.
func resetSequences(ctx context.Context, q database.DBTX, _ *BackupData) error {
	if _, ok := q.GetDialect().(*database.PostgresDialect); !ok {
		return nil
	}
	for _, table := range []string{"users", "leagues", "teams", "pending_invites"} {
		query := fmt.Sprintf("SELECT setval(pg_get_serial_sequence('%s', 'id'), COALESCE((SELECT MAX(id) FROM %s), 0) + 1, false)", table, table)
		if _, err := q.ExecContext(ctx, query); err != nil {
			return fmt.Errorf("%s: %w", table, err)
		}
	}
	return nil
}
