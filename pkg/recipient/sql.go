package recipient

import (
	"context"
	"database/sql"

	"github.com/matzehuels/campaignkit/pkg/errors"
	"github.com/matzehuels/campaignkit/pkg/sqldb"
)

const recipientsSchema = `
CREATE TABLE IF NOT EXISTS recipients (
	id           TEXT PRIMARY KEY,
	display_name TEXT NOT NULL DEFAULT '',
	email        TEXT NOT NULL DEFAULT '',
	phone        TEXT NOT NULL DEFAULT '',
	status       TEXT NOT NULL DEFAULT ''
)`

// SQLRegistry reads recipients from a "recipients" table.
type SQLRegistry struct {
	db *sqldb.DB
}

// NewSQLRegistry ensures the table exists and returns a registry over db.
func NewSQLRegistry(ctx context.Context, db *sqldb.DB) (*SQLRegistry, error) {
	if _, err := db.ExecContext(ctx, recipientsSchema); err != nil {
		return nil, errors.Wrap(errors.ErrCodeStorage, err, "create recipients table")
	}
	return &SQLRegistry{db: db}, nil
}

// List implements Registry, ordered by display name then id.
func (s *SQLRegistry) List(ctx context.Context) ([]Recipient, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, display_name, email, phone, status
		FROM recipients
		ORDER BY display_name, id`)
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeStorage, err, "list recipients")
	}
	defer rows.Close()

	var out []Recipient
	for rows.Next() {
		var r Recipient
		if err := rows.Scan(&r.ID, &r.DisplayName, &r.Email, &r.Phone, &r.Status); err != nil {
			return nil, errors.Wrap(errors.ErrCodeStorage, err, "scan recipient")
		}
		out = append(out, r)
	}
	if err := rows.Err(); err != nil {
		return nil, errors.Wrap(errors.ErrCodeStorage, err, "list recipients")
	}
	return out, nil
}

// Get implements Registry.
func (s *SQLRegistry) Get(ctx context.Context, id string) (Recipient, bool, error) {
	row := s.db.QueryRowContext(ctx, s.db.Rebind(`
		SELECT id, display_name, email, phone, status
		FROM recipients
		WHERE id = ?`), id)

	var r Recipient
	if err := row.Scan(&r.ID, &r.DisplayName, &r.Email, &r.Phone, &r.Status); err != nil {
		if err == sql.ErrNoRows {
			return Recipient{}, false, nil
		}
		return Recipient{}, false, errors.Wrap(errors.ErrCodeStorage, err, "get recipient %s", id)
	}
	return r, true, nil
}

// Upsert inserts or replaces r.
func (s *SQLRegistry) Upsert(ctx context.Context, r Recipient) error {
	_, err := s.db.ExecContext(ctx, s.db.Rebind(`
		INSERT INTO recipients (id, display_name, email, phone, status)
		VALUES (?, ?, ?, ?, ?)
		ON CONFLICT (id) DO UPDATE SET
			display_name = excluded.display_name,
			email = excluded.email,
			phone = excluded.phone,
			status = excluded.status`),
		r.ID, r.DisplayName, r.Email, r.Phone, r.Status)
	if err != nil {
		return errors.Wrap(errors.ErrCodeStorage, err, "upsert recipient %s", r.ID)
	}
	return nil
}

var _ Registry = (*SQLRegistry)(nil)
