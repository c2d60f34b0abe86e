package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"f1fantasy/internal/database"
	"f1fantasy/internal/models"
)

const userColumns = `id, username, COALESCE(email, ''), password_hash, name, is_admin, is_active, visibility,
	COALESCE(oauth_provider, ''), COALESCE(oauth_subject, ''), created_at, last_login`

// UserRepository handles database operations for users and sessions
type UserRepository struct {
	db database.DBTX
}

// NewUserRepository creates a new user repository
func NewUserRepository(db database.DBTX) *UserRepository {
	return &UserRepository{db: db}
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanUser(row rowScanner) (*models.User, error) {
	var (
		user       models.User
		visibility string
		lastLogin  sql.NullTime
	)
	err := row.Scan(
		&user.ID,
		&user.Username,
		&user.Email,
		&user.PasswordHash,
		&user.Name,
		&user.IsAdmin,
		&user.IsActive,
		&visibility,
		&user.OAuthProvider,
		&user.OAuthSubject,
		&user.CreatedAt,
		&lastLogin,
	)
	if err != nil {
		return nil, err
	}
	user.Visibility = models.Visibility(visibility)
	user.LastLogin = timePtr(lastLogin)
	return &user, nil
}

func (r *UserRepository) getOne(ctx context.Context, where string, args ...any) (*models.User, error) {
	query := "SELECT " + userColumns + " FROM users WHERE " + where
	user, err := scanUser(r.db.QueryRowContext(ctx, query, args...))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get user: %w", err)
	}
	return user, nil
}

// CreateUser inserts u and sets its ID. The very first account becomes an
// administrator.
func (r *UserRepository) CreateUser(ctx context.Context, u *models.User) error {
	count, err := r.CountUsers(ctx)
	if err != nil {
		return err
	}
	if count == 0 {
		u.IsAdmin = true
	}
	if u.Visibility == "" {
		u.Visibility = models.VisibilityPublic
	}
	u.Email = normalizeEmail(u.Email)

	query := `
		INSERT INTO users (username, email, password_hash, name, is_admin, is_active, visibility, oauth_provider, oauth_subject, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`
	u.CreatedAt = utcNow()
	id, err := r.db.ExecReturningID(ctx, query,
		u.Username, nullString(u.Email), u.PasswordHash, u.Name, u.IsAdmin, u.IsActive,
		string(u.Visibility), nullString(u.OAuthProvider), nullString(u.OAuthSubject), u.CreatedAt)
	if err != nil {
		return fmt.Errorf("failed to create user: %w", err)
	}
	u.ID = id
	return nil
}

// GetUserByID retrieves a user by ID
func (r *UserRepository) GetUserByID(ctx context.Context, id int64) (*models.User, error) {
	return r.getOne(ctx, "id = ?", id)
}

// GetUserByUsername matches the username exactly
func (r *UserRepository) GetUserByUsername(ctx context.Context, username string) (*models.User, error) {
	return r.getOne(ctx, "username = ?", username)
}

// GetUserByEmail retrieves a user by email address
func (r *UserRepository) GetUserByEmail(ctx context.Context, email string) (*models.User, error) {
	email = normalizeEmail(email)
	if email == "" {
		return nil, nil
	}
	return r.getOne(ctx, "email = ?", email)
}

// GetUserByIdentifier resolves a username first, then an email address.
func (r *UserRepository) GetUserByIdentifier(ctx context.Context, identifier string) (*models.User, error) {
	user, err := r.GetUserByUsername(ctx, identifier)
	if err != nil || user != nil {
		return user, err
	}
	return r.GetUserByEmail(ctx, identifier)
}

// GetUserByOAuth retrieves a user by OAuth provider and subject
func (r *UserRepository) GetUserByOAuth(ctx context.Context, provider, subject string) (*models.User, error) {
	return r.getOne(ctx, "oauth_provider = ? AND oauth_subject = ?", provider, subject)
}

// LinkOAuthProvider links an existing user to an OAuth provider
func (r *UserRepository) LinkOAuthProvider(ctx context.Context, userID int64, provider, subject string) error {
	query := `
		UPDATE users
		SET oauth_provider = ?, oauth_subject = ?
		WHERE id = ?
		AND (oauth_provider IS NULL OR oauth_provider = '')
	`
	result, err := r.db.ExecContext(ctx, query, provider, subject, userID)
	if err != nil {
		return fmt.Errorf("failed to link oauth provider: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to read link result: %w", err)
	}
	if rows == 0 {
		return fmt.Errorf("oauth provider already linked")
	}
	return nil
}

// ListUsers returns every user ordered by username
func (r *UserRepository) ListUsers(ctx context.Context) ([]models.User, error) {
	rows, err := r.db.QueryContext(ctx, "SELECT "+userColumns+" FROM users ORDER BY username")
	if err != nil {
		return nil, fmt.Errorf("failed to query users: %w", err)
	}
	defer rows.Close()

	var users []models.User
	for rows.Next() {
		user, err := scanUser(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan user: %w", err)
		}
		users = append(users, *user)
	}
	return users, rows.Err()
}

func (r *UserRepository) CountUsers(ctx context.Context) (int, error) {
	var count int
	if err := r.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM users").Scan(&count); err != nil {
		return 0, fmt.Errorf("failed to count users: %w", err)
	}
	return count, nil
}

// UpdateUser writes the admin-editable profile fields of u
func (r *UserRepository) UpdateUser(ctx context.Context, u *models.User) error {
	query := `
		UPDATE users
		SET username = ?, email = ?, name = ?, is_admin = ?, is_active = ?, visibility = ?
		WHERE id = ?
	`
	_, err := r.db.ExecContext(ctx, query,
		u.Username, nullString(normalizeEmail(u.Email)), u.Name, u.IsAdmin, u.IsActive, string(u.Visibility), u.ID)
	if err != nil {
		return fmt.Errorf("failed to update user: %w", err)
	}
	return nil
}

func (r *UserRepository) UpdatePassword(ctx context.Context, userID int64, passwordHash string) error {
	_, err := r.db.ExecContext(ctx, "UPDATE users SET password_hash = ? WHERE id = ?", passwordHash, userID)
	if err != nil {
		return fmt.Errorf("failed to update password: %w", err)
	}
	return nil
}

func (r *UserRepository) UpdateVisibility(ctx context.Context, userID int64, v models.Visibility) error {
	_, err := r.db.ExecContext(ctx, "UPDATE users SET visibility = ? WHERE id = ?", string(v), userID)
	if err != nil {
		return fmt.Errorf("failed to update visibility: %w", err)
	}
	return nil
}

func (r *UserRepository) UpdateLastLogin(ctx context.Context, userID int64) error {
	_, err := r.db.ExecContext(ctx, "UPDATE users SET last_login = ? WHERE id = ?", utcNow(), userID)
	if err != nil {
		return fmt.Errorf("failed to update last login: %w", err)
	}
	return nil
}

// DeleteUser removes the user. Leagues where they were the designated
// commissioner fall back to the owner; memberships, teams, sessions and
// pending invites cascade.
func (r *UserRepository) DeleteUser(ctx context.Context, id int64) error {
	if _, err := r.db.ExecContext(ctx, "UPDATE leagues SET commissioner_id = owner_id WHERE commissioner_id = ? AND owner_id <> ?", id, id); err != nil {
		return fmt.Errorf("failed to reassign commissioner: %w", err)
	}
	if _, err := r.db.ExecContext(ctx, "DELETE FROM users WHERE id = ?", id); err != nil {
		return fmt.Errorf("failed to delete user: %w", err)
	}
	return nil
}

// CreateSession creates a new session for a user
func (r *UserRepository) CreateSession(ctx context.Context, sessionID string, userID int64, expiresAt time.Time) (*models.Session, error) {
	query := `
		INSERT INTO sessions (id, user_id, expires_at, created_at)
		VALUES (?, ?, ?, ?)
	`
	now := utcNow()
	if _, err := r.db.ExecContext(ctx, query, sessionID, userID, expiresAt.UTC(), now); err != nil {
		return nil, fmt.Errorf("failed to create session: %w", err)
	}

	return &models.Session{
		ID:        sessionID,
		UserID:    userID,
		ExpiresAt: expiresAt,
		CreatedAt: now,
	}, nil
}

// GetSession retrieves a session by ID
func (r *UserRepository) GetSession(ctx context.Context, sessionID string) (*models.Session, error) {
	query := `
		SELECT id, user_id, expires_at, created_at
		FROM sessions
		WHERE id = ?
	`
	session := &models.Session{}
	err := r.db.QueryRowContext(ctx, query, sessionID).Scan(
		&session.ID,
		&session.UserID,
		&session.ExpiresAt,
		&session.CreatedAt,
	)

	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get session: %w", err)
	}
	return session, nil
}

// DeleteSession removes a session from the database
func (r *UserRepository) DeleteSession(ctx context.Context, sessionID string) error {
	if _, err := r.db.ExecContext(ctx, "DELETE FROM sessions WHERE id = ?", sessionID); err != nil {
		return fmt.Errorf("failed to delete session: %w", err)
	}
	return nil
}

// DeleteUserSessions signs a user out everywhere
func (r *UserRepository) DeleteUserSessions(ctx context.Context, userID int64) error {
	if _, err := r.db.ExecContext(ctx, "DELETE FROM sessions WHERE user_id = ?", userID); err != nil {
		return fmt.Errorf("failed to delete user sessions: %w", err)
	}
	return nil
}

// DeleteExpiredSessions removes all expired sessions and reports how many
func (r *UserRepository) DeleteExpiredSessions(ctx context.Context) (int64, error) {
	result, err := r.db.ExecContext(ctx, "DELETE FROM sessions WHERE expires_at < ?", utcNow())
	if err != nil {
		return 0, fmt.Errorf("failed to delete expired sessions: %w", err)
	}
	n, _ := result.RowsAffected()
	return n, nil
}
