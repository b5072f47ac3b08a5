package recipient

import (
	"context"
	"os"
	"sync"

	"github.com/BurntSushi/toml"

	"github.com/matzehuels/campaignkit/pkg/errors"
)

// MemoryRegistry is an in-process registry.
type MemoryRegistry struct {
	mu    sync.RWMutex
	order []string
	byID  map[string]Recipient
}

// NewMemoryRegistry returns a registry holding list. Later duplicates of an
// id replace earlier ones in place.
func NewMemoryRegistry(list ...Recipient) *MemoryRegistry {
	m := &MemoryRegistry{byID: make(map[string]Recipient)}
	for _, r := range list {
		m.Put(r)
	}
	return m
}

// Put adds or replaces r.
func (m *MemoryRegistry) Put(r Recipient) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.byID[r.ID]; !ok {
		m.order = append(m.order, r.ID)
	}
	m.byID[r.ID] = r
}

// Remove deletes id if present.
func (m *MemoryRegistry) Remove(id string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.byID[id]; !ok {
		return
	}
	delete(m.byID, id)
	for i, v := range m.order {
		if v == id {
			m.order = append(m.order[:i], m.order[i+1:]...)
			break
		}
	}
}

// List implements Registry.
func (m *MemoryRegistry) List(context.Context) ([]Recipient, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]Recipient, 0, len(m.order))
	for _, id := range m.order {
		out = append(out, m.byID[id])
	}
	return out, nil
}

// Get implements Registry.
func (m *MemoryRegistry) Get(_ context.Context, id string) (Recipient, bool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	r, ok := m.byID[id]
	return r, ok, nil
}

// rosterFile is the on-disk layout of a TOML roster:
//
//	[[recipient]]
//	id = "c-1"
//	display_name = "Ada"
//	email = "ada@example.com"
//	status = "ACTIVE"
type rosterFile struct {
	Recipients []Recipient `toml:"recipient"`
}

// LoadTOML reads a roster file into a MemoryRegistry.
func LoadTOML(path string) (*MemoryRegistry, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, errors.Wrap(errors.ErrCodeNotFound, err, "roster %s", path)
		}
		return nil, errors.Wrap(errors.ErrCodeStorage, err, "read roster %s", path)
	}
	var f rosterFile
	if err := toml.Unmarshal(data, &f); err != nil {
		return nil, errors.Wrap(errors.ErrCodeInvalidInput, err, "parse roster %s", path)
	}
	for i, r := range f.Recipients {
		if r.ID == "" {
			return nil, errors.New(errors.ErrCodeInvalidInput, "roster %s: recipient %d has no id", path, i+1)
		}
	}
	return NewMemoryRegistry(f.Recipients...), nil
}

var _ Registry = (*MemoryRegistry)(nil)
