package models

import "time"

// Visibility controls whether a user can be found by invite search
type Visibility string

const (
	VisibilityPublic Visibility = "public"
	VisibilityHidden Visibility = "hidden"
)

// Valid reports whether v is a known visibility
func (v Visibility) Valid() bool {
	return v == VisibilityPublic || v == VisibilityHidden
}

// User represents an account in the system
type User struct {
	ID            int64
	Username      string
	Email         string // empty when not provided
	PasswordHash  string
	Name          string
	IsAdmin       bool
	IsActive      bool
	Visibility    Visibility
	OAuthProvider string
	OAuthSubject  string
	CreatedAt     time.Time
	LastLogin     *time.Time
}

// IsSearchable reports whether other users may find and invite this user
func (u *User) IsSearchable() bool {
	return u.IsActive && u.Visibility == VisibilityPublic
}

// DisplayName prefers the full name and falls back to the username
func (u *User) DisplayName() string {
	if u.Name != "" {
		return u.Name
	}
	return u.Username
}

// Session represents an authenticated session
type Session struct {
	ID        string
	UserID    int64
	ExpiresAt time.Time
	CreatedAt time.Time
}

// IsExpired checks if the session has expired
func (s *Session) IsExpired() bool {
	return time.Now().After(s.ExpiresAt)
}
