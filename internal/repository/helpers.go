package repository

import (
	"database/sql"
	"strings"
	"time"
)

// nullString maps "" to SQL NULL
func nullString(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}

func nullInt64(p *int64) sql.NullInt64 {
	if p == nil {
		return sql.NullInt64{}
	}
	return sql.NullInt64{Int64: *p, Valid: true}
}

func int64Ptr(n sql.NullInt64) *int64 {
	if !n.Valid {
		return nil
	}
	v := n.Int64
	return &v
}

func timePtr(t sql.NullTime) *time.Time {
	if !t.Valid {
		return nil
	}
	v := t.Time
	return &v
}

// normalizeEmail lowercases and trims an address before it is stored or compared
func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// utcNow is used for every timestamp written from Go so SQLite text
// comparisons stay ordered.
func utcNow() time.Time {
	return time.Now().UTC()
}
