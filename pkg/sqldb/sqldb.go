// Package sqldb opens the SQL databases backing the archive and the
// recipient registry.
//
// Two drivers are linked in: "sqlite" (modernc.org/sqlite, pure Go) for local
// workspaces and "postgres" (github.com/lib/pq) for shared deployments.
// Queries are written with "?" placeholders and rewritten per dialect by
// [DB.Rebind].
package sqldb

import (
	"context"
	"database/sql"
	"strconv"
	"strings"

	_ "github.com/lib/pq"
	_ "modernc.org/sqlite"

	"github.com/matzehuels/campaignkit/pkg/errors"
)

// Supported drivers.
const (
	SQLite   = "sqlite"
	Postgres = "postgres"
)

// DB is a *sql.DB that knows its dialect.
type DB struct {
	*sql.DB
	Driver string
}

// Open connects to dsn with driver and pings it. "sqlite3" and "postgresql"
// are accepted as aliases.
func Open(ctx context.Context, driver, dsn string) (*DB, error) {
	switch strings.ToLower(driver) {
	case SQLite, "sqlite3":
		driver = SQLite
	case Postgres, "postgresql", "pg":
		driver = Postgres
	default:
		return nil, errors.New(errors.ErrCodeUnsupported, "unsupported sql driver %q (use sqlite or postgres)", driver)
	}
	if dsn == "" {
		return nil, errors.New(errors.ErrCodeInvalidInput, "%s dsn is empty", driver)
	}

	db, err := sql.Open(driver, dsn)
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeStorage, err, "open %s", driver)
	}
	if driver == SQLite {
		// One writer at a time; concurrent writers on a single file otherwise see SQLITE_BUSY.
		db.SetMaxOpenConns(1)
	}
	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, errors.Wrap(errors.ErrCodeStorage, err, "connect to %s", driver)
	}
	return &DB{DB: db, Driver: driver}, nil
}

// Rebind rewrites "?" placeholders to "$1", "$2", ... for postgres.
func (db *DB) Rebind(query string) string {
	if db.Driver != Postgres {
		return query
	}
	var b strings.Builder
	n := 0
	for _, r := range query {
		if r == '?' {
			n++
			b.WriteByte('$')
			b.WriteString(strconv.Itoa(n))
			continue
		}
		b.WriteRune(r)
	}
	return b.String()
}

// IsUniqueViolation reports whether err is a primary-key or unique constraint failure.
func IsUniqueViolation(err error) bool {
	if err == nil {
		return false
	}
	msg := strings.ToLower(err.Error())
	return strings.Contains(msg, "unique constraint") ||
		strings.Contains(msg, "duplicate key") ||
		strings.Contains(msg, "constraint failed: unique")
}
