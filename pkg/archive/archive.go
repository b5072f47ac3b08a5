// Package archive stores completed dispatch sequences.
//
// The archive is append-only: a record is written once, when the last
// recipient of a sequence has been visited, and never modified. Every backend
// lists records most recent first and rejects a second append of the same id
// with CONFLICT.
//
// Backends:
//   - [MemoryArchive]: in-process, for tests and ephemeral sessions
//   - [FileArchive]: one JSON file per record under a directory
//   - [SQLArchive]: sqlite or postgres through [sqldb]
//   - [MongoArchive]: a MongoDB collection
//
// [Publishing] wraps any backend and announces appended records on a message
// broker.
package archive

import (
	"context"
	"sort"
	"strings"

	"github.com/matzehuels/campaignkit/pkg/campaign"
	"github.com/matzehuels/campaignkit/pkg/design"
	"github.com/matzehuels/campaignkit/pkg/errors"
	"github.com/matzehuels/campaignkit/pkg/sqldb"
)

// Archive is the campaign log.
type Archive interface {
	// Append stores rec. It fails with CONFLICT if rec.ID already exists.
	Append(ctx context.Context, rec campaign.Record) error
	// List returns all records, most recent first.
	List(ctx context.Context) ([]campaign.Record, error)
	// Get returns the record with id, or NOT_FOUND.
	Get(ctx context.Context, id string) (campaign.Record, error)
	Close() error
}

// Recall turns a stored record back into editable state: the draft (channel,
// subject, body, target status) and the design fragment carrying the asset.
// Recipient selection is never restored.
func Recall(rec campaign.Record) (design.Fragment, campaign.Draft, error) {
	draft := rec.Draft()
	if draft.TargetStatus == "" {
		draft.TargetStatus = campaign.StatusAll
	}
	if rec.AssetURL == "" {
		return design.Fragment{}, draft, nil
	}
	asset, err := design.ParseAssetURL(rec.AssetURL)
	if err != nil {
		return design.Fragment{}, draft, errors.Wrap(errors.ErrCodeDecode, err, "recall asset of campaign %s", rec.ID)
	}
	if asset.Source == "" {
		asset.Source = "campaign:" + rec.ID
	}
	return design.Fragment{Base: &asset}, draft, nil
}

// Open returns the backend named by driver:
//
//	memory              dsn ignored
//	file                dsn is a directory
//	sqlite, postgres    dsn is passed to the SQL driver
//	mongodb             dsn is a mongodb:// URI; the database is "campaignkit"
func Open(ctx context.Context, driver, dsn string) (Archive, error) {
	switch strings.ToLower(driver) {
	case "", "memory":
		return NewMemoryArchive(), nil
	case "file":
		return NewFileArchive(dsn)
	case "mongo", "mongodb":
		return NewMongoArchive(ctx, MongoConfig{URI: dsn})
	}
	db, err := sqldb.Open(ctx, driver, dsn)
	if err != nil {
		return nil, err
	}
	a, err := NewSQLArchive(ctx, db)
	if err != nil {
		db.Close()
		return nil, err
	}
	return a, nil
}

func validateRecord(rec campaign.Record) error {
	if strings.TrimSpace(rec.ID) == "" {
		return errors.New(errors.ErrCodeInvalidInput, "campaign record has no id")
	}
	if _, err := campaign.ParseChannel(string(rec.Channel)); err != nil {
		return err
	}
	if rec.RecipientCount < 0 {
		return errors.New(errors.ErrCodeInvalidInput, "negative recipient count")
	}
	return nil
}

func conflict(id string) error {
	return errors.New(errors.ErrCodeConflict, "campaign %s already archived", id)
}

func notFound(id string) error {
	return errors.New(errors.ErrCodeNotFound, "campaign %s not found", id)
}

// sortRecent orders records newest first; ties keep the later id first.
func sortRecent(list []campaign.Record) {
	sort.SliceStable(list, func(i, j int) bool {
		if !list[i].Timestamp.Equal(list[j].Timestamp) {
			return list[i].Timestamp.After(list[j].Timestamp)
		}
		return list[i].ID > list[j].ID
	})
}
