package archive

import (
	"context"
	"database/sql"
	"time"

	"github.com/matzehuels/campaignkit/pkg/campaign"
	"github.com/matzehuels/campaignkit/pkg/errors"
	"github.com/matzehuels/campaignkit/pkg/sqldb"
)

const campaignsSchema = `
CREATE TABLE IF NOT EXISTS campaigns (
	id              TEXT PRIMARY KEY,
	channel         TEXT NOT NULL,
	subject         TEXT NOT NULL DEFAULT '',
	body            TEXT NOT NULL DEFAULT '',
	asset_url       TEXT NOT NULL DEFAULT '',
	recipient_count INTEGER NOT NULL,
	sent_at_ns      BIGINT NOT NULL,
	target_status   TEXT NOT NULL DEFAULT 'ALL'
)`

const campaignColumns = `id, channel, subject, body, asset_url, recipient_count, sent_at_ns, target_status`

// SQLArchive stores records in a "campaigns" table.
// Timestamps are kept as UTC unix nanoseconds so both dialects order them the same way.
type SQLArchive struct {
	db *sqldb.DB
}

// NewSQLArchive ensures the table exists and returns an archive over db.
// Closing the archive closes db.
func NewSQLArchive(ctx context.Context, db *sqldb.DB) (*SQLArchive, error) {
	if _, err := db.ExecContext(ctx, campaignsSchema); err != nil {
		return nil, errors.Wrap(errors.ErrCodeStorage, err, "create campaigns table")
	}
	return &SQLArchive{db: db}, nil
}

func (a *SQLArchive) Append(ctx context.Context, rec campaign.Record) error {
	if err := validateRecord(rec); err != nil {
		return err
	}
	_, err := a.db.ExecContext(ctx, a.db.Rebind(`
		INSERT INTO campaigns (`+campaignColumns+`)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)`),
		rec.ID, string(rec.Channel), rec.Subject, rec.Body, rec.AssetURL,
		rec.RecipientCount, rec.Timestamp.UTC().UnixNano(), rec.TargetStatus)
	if err != nil {
		if sqldb.IsUniqueViolation(err) {
			return conflict(rec.ID)
		}
		return errors.Wrap(errors.ErrCodeStorage, err, "insert campaign %s", rec.ID)
	}
	return nil
}

func (a *SQLArchive) List(ctx context.Context) ([]campaign.Record, error) {
	rows, err := a.db.QueryContext(ctx, `
		SELECT `+campaignColumns+`
		FROM campaigns
		ORDER BY sent_at_ns DESC, id DESC`)
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeStorage, err, "list campaigns")
	}
	defer rows.Close()

	var out []campaign.Record
	for rows.Next() {
		rec, err := scanRecord(rows)
		if err != nil {
			return nil, errors.Wrap(errors.ErrCodeStorage, err, "scan campaign")
		}
		out = append(out, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, errors.Wrap(errors.ErrCodeStorage, err, "list campaigns")
	}
	return out, nil
}

func (a *SQLArchive) Get(ctx context.Context, id string) (campaign.Record, error) {
	row := a.db.QueryRowContext(ctx, a.db.Rebind(`
		SELECT `+campaignColumns+`
		FROM campaigns
		WHERE id = ?`), id)
	rec, err := scanRecord(row)
	if err != nil {
		if err == sql.ErrNoRows {
			return campaign.Record{}, notFound(id)
		}
		return campaign.Record{}, errors.Wrap(errors.ErrCodeStorage, err, "get campaign %s", id)
	}
	return rec, nil
}

func (a *SQLArchive) Close() error { return a.db.Close() }

type scanner interface {
	Scan(dest ...any) error
}

func scanRecord(s scanner) (campaign.Record, error) {
	var (
		rec     campaign.Record
		channel string
		ns      int64
	)
	if err := s.Scan(&rec.ID, &channel, &rec.Subject, &rec.Body, &rec.AssetURL,
		&rec.RecipientCount, &ns, &rec.TargetStatus); err != nil {
		return campaign.Record{}, err
	}
	rec.Channel = campaign.Channel(channel)
	rec.Timestamp = time.Unix(0, ns).UTC()
	return rec, nil
}

var _ Archive = (*SQLArchive)(nil)
