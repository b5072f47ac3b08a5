package sqldb

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/matzehuels/campaignkit/pkg/errors"
)

func TestRebind(t *testing.T) {
	pg := &DB{Driver: Postgres}
	if got := pg.Rebind("SELECT * FROM t WHERE a = ? AND b = ?"); got != "SELECT * FROM t WHERE a = $1 AND b = $2" {
		t.Errorf("postgres Rebind = %q", got)
	}
	lite := &DB{Driver: SQLite}
	if got := lite.Rebind("a = ?"); got != "a = ?" {
		t.Errorf("sqlite Rebind = %q", got)
	}
}

func TestOpenSQLite(t *testing.T) {
	db, err := Open(context.Background(), "sqlite3", filepath.Join(t.TempDir(), "test.db"))
	if err != nil {
		t.Fatal(err)
	}
	defer db.Close()
	if db.Driver != SQLite {
		t.Errorf("Driver = %q", db.Driver)
	}

	ctx := context.Background()
	if _, err := db.ExecContext(ctx, `CREATE TABLE t (id TEXT PRIMARY KEY)`); err != nil {
		t.Fatal(err)
	}
	if _, err := db.ExecContext(ctx, `INSERT INTO t (id) VALUES (?)`, "a"); err != nil {
		t.Fatal(err)
	}
	_, err = db.ExecContext(ctx, `INSERT INTO t (id) VALUES (?)`, "a")
	if !IsUniqueViolation(err) {
		t.Errorf("duplicate insert err = %v, want unique violation", err)
	}
}

func TestOpenErrors(t *testing.T) {
	ctx := context.Background()
	if _, err := Open(ctx, "mysql", "x"); !errors.Is(err, errors.ErrCodeUnsupported) {
		t.Errorf("mysql: %v", err)
	}
	if _, err := Open(ctx, "sqlite", ""); !errors.Is(err, errors.ErrCodeInvalidInput) {
		t.Errorf("empty dsn: %v", err)
	}
}
