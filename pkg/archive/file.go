package archive

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"sync"

	"github.com/matzehuels/campaignkit/pkg/campaign"
	"github.com/matzehuels/campaignkit/pkg/errors"
)

// FileArchive stores one JSON file per record in a directory.
type FileArchive struct {
	mu      sync.RWMutex
	baseDir string
}

// NewFileArchive creates a file-based archive.
// If baseDir is empty, defaults to ~/.config/campaignkit/campaigns/
func NewFileArchive(baseDir string) (*FileArchive, error) {
	if baseDir == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return nil, errors.Wrap(errors.ErrCodeStorage, err, "get home dir")
		}
		baseDir = filepath.Join(home, ".config", "campaignkit", "campaigns")
	}
	if err := os.MkdirAll(baseDir, 0700); err != nil {
		return nil, errors.Wrap(errors.ErrCodeStorage, err, "create archive dir")
	}
	return &FileArchive{baseDir: baseDir}, nil
}

func (a *FileArchive) recordPath(id string) string {
	return filepath.Join(a.baseDir, id+".json")
}

func (a *FileArchive) Append(_ context.Context, rec campaign.Record) error {
	if err := validateRecord(rec); err != nil {
		return err
	}
	if err := errors.ValidateFilename(rec.ID); err != nil {
		return err
	}

	data, err := json.MarshalIndent(rec, "", "  ")
	if err != nil {
		return errors.Wrap(errors.ErrCodeInternal, err, "marshal campaign")
	}

	a.mu.Lock()
	defer a.mu.Unlock()

	// O_EXCL: an existing file is a conflict, also across processes.
	f, err := os.OpenFile(a.recordPath(rec.ID), os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0600)
	if err != nil {
		if os.IsExist(err) {
			return conflict(rec.ID)
		}
		return errors.Wrap(errors.ErrCodeStorage, err, "create campaign file")
	}
	if _, err := f.Write(data); err != nil {
		f.Close()
		os.Remove(f.Name())
		return errors.Wrap(errors.ErrCodeStorage, err, "write campaign file")
	}
	if err := f.Close(); err != nil {
		return errors.Wrap(errors.ErrCodeStorage, err, "close campaign file")
	}
	return nil
}

func (a *FileArchive) List(context.Context) ([]campaign.Record, error) {
	a.mu.RLock()
	defer a.mu.RUnlock()

	entries, err := os.ReadDir(a.baseDir)
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeStorage, err, "read archive dir")
	}

	out := make([]campaign.Record, 0, len(entries))
	for _, entry := range entries {
		if entry.IsDir() || filepath.Ext(entry.Name()) != ".json" {
			continue
		}
		rec, err := readRecord(filepath.Join(a.baseDir, entry.Name()))
		if err != nil {
			continue
		}
		out = append(out, rec)
	}
	sortRecent(out)
	return out, nil
}

func (a *FileArchive) Get(_ context.Context, id string) (campaign.Record, error) {
	if errors.ValidateFilename(id) != nil {
		return campaign.Record{}, notFound(id)
	}
	a.mu.RLock()
	defer a.mu.RUnlock()

	rec, err := readRecord(a.recordPath(id))
	if err != nil {
		if os.IsNotExist(err) {
			return campaign.Record{}, notFound(id)
		}
		return campaign.Record{}, errors.Wrap(errors.ErrCodeStorage, err, "read campaign %s", id)
	}
	return rec, nil
}

func (a *FileArchive) Close() error { return nil }

// Path returns the directory holding the record files.
func (a *FileArchive) Path() string {
	return a.baseDir
}

func readRecord(path string) (campaign.Record, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return campaign.Record{}, err
	}
	var rec campaign.Record
	if err := json.Unmarshal(data, &rec); err != nil {
		return campaign.Record{}, err
	}
	return rec, nil
}

var _ Archive = (*FileArchive)(nil)
