package archive

import (
	"context"
	"sync"

	"github.com/matzehuels/campaignkit/pkg/campaign"
)

// MemoryArchive keeps records in process memory.
type MemoryArchive struct {
	mu      sync.RWMutex
	records map[string]campaign.Record
}

// NewMemoryArchive returns an empty archive.
func NewMemoryArchive() *MemoryArchive {
	return &MemoryArchive{records: make(map[string]campaign.Record)}
}

func (m *MemoryArchive) Append(_ context.Context, rec campaign.Record) error {
	if err := validateRecord(rec); err != nil {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.records[rec.ID]; ok {
		return conflict(rec.ID)
	}
	m.records[rec.ID] = rec
	return nil
}

func (m *MemoryArchive) List(context.Context) ([]campaign.Record, error) {
	m.mu.RLock()
	out := make([]campaign.Record, 0, len(m.records))
	for _, r := range m.records {
		out = append(out, r)
	}
	m.mu.RUnlock()
	sortRecent(out)
	return out, nil
}

func (m *MemoryArchive) Get(_ context.Context, id string) (campaign.Record, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	r, ok := m.records[id]
	if !ok {
		return campaign.Record{}, notFound(id)
	}
	return r, nil
}

func (m *MemoryArchive) Close() error { return nil }

var _ Archive = (*MemoryArchive)(nil)
