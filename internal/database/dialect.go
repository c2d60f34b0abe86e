package database

import (
	"database/sql"
	"regexp"
	"strconv"
)

// Dialect defines the interface for database-specific operations
type Dialect interface {
	// DriverName returns the driver name for sql.Open
	DriverName() string

	// DSN returns the data source name for the connection
	DSN(config DialectConfig) string

	// RewriteQuery converts placeholder syntax if needed (e.g., ? to $1 for postgres)
	RewriteQuery(query string) string

	// SupportsLastInsertId returns true if the driver supports LastInsertId()
	SupportsLastInsertId() bool

	// ConfigureConnection applies any database-specific connection settings
	ConfigureConnection(db *sql.DB) error

	// MigrationsSubdir returns the subdirectory name for migrations (e.g., "sqlite", "postgres")
	MigrationsSubdir() string

	// CreateMigrationsTableQuery returns the SQL to create the migrations tracking table
	CreateMigrationsTableQuery() string

	// BoolValue returns the SQL representation of a boolean value
	BoolValue(b bool) string

	// UpsertClause returns the tail of an INSERT that updates the given
	// columns when a row with the same conflict key already exists.
	UpsertClause(conflict []string, update []string) string

	// ForUpdate returns the row-lock suffix for a SELECT, or "" when the
	// database serializes writers another way.
	ForUpdate() string

	// IsUniqueViolation reports whether err came from a unique constraint.
	IsUniqueViolation(err error) bool
}

// DialectConfig holds configuration for database connection
type DialectConfig struct {
	// For SQLite
	Path string

	// For PostgreSQL/MySQL
	URL string
}

var placeholderRegexp = regexp.MustCompile(`\?`)

// rewritePlaceholdersToNumbered converts ? placeholders to $1, $2, etc.
func rewritePlaceholdersToNumbered(query string) string {
	counter := 0
	return placeholderRegexp.ReplaceAllStringFunc(query, func(match string) string {
		counter++
		return "$" + strconv.Itoa(counter)
	})
}

// excludedUpsert builds "ON CONFLICT (...) DO UPDATE SET c = excluded.c", shared
// by SQLite and PostgreSQL.
func excludedUpsert(conflict []string, update []string) string {
	clause := " ON CONFLICT ("
	for i, c := range conflict {
		if i > 0 {
			clause += ", "
		}
		clause += c
	}
	clause += ") DO UPDATE SET "
	for i, c := range update {
		if i > 0 {
			clause += ", "
		}
		clause += c + " = excluded." + c
	}
	return clause
}
