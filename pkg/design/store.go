package design

import (
	"sync"
)

// Snapshot is an immutable view of the store at one generation.
type Snapshot struct {
	Generation uint64
	Settings   Settings
	Base       Asset
	Logo       *Asset
}

// HasBase reports whether a base raster has been loaded.
func (s Snapshot) HasBase() bool { return !s.Base.Empty() }

// Fragment is the part of the design state restored when recalling a campaign.
type Fragment struct {
	Base *Asset
}

// Store owns the design state of the active campaign.
//
// Every mutation bumps the generation and notifies subscribers outside the
// lock. Notifications from concurrent mutations may arrive out of order;
// consumers compare generations.
type Store struct {
	mu       sync.Mutex
	gen      uint64
	settings Settings
	base     Asset
	logo     *Asset

	subMu  sync.RWMutex
	subs   map[int]func(Snapshot)
	nextID int
}

// NewStore returns a store initialised with settings (normalized).
func NewStore(settings Settings) *Store {
	return &Store{
		settings: settings.Normalize(),
		subs:     make(map[int]func(Snapshot)),
	}
}

// Snapshot returns the current state.
func (s *Store) Snapshot() Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.snapshotLocked()
}

// Settings returns the current settings.
func (s *Store) Settings() Settings {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.settings
}

// SetSettings validates and replaces the settings.
func (s *Store) SetSettings(settings Settings) (Snapshot, error) {
	if err := settings.Validate(); err != nil {
		return Snapshot{}, err
	}
	return s.mutate(func() { s.settings = settings.Normalize() }), nil
}

// Update applies fn to a copy of the settings and stores the result.
func (s *Store) Update(fn func(*Settings)) (Snapshot, error) {
	next := s.Settings()
	fn(&next)
	return s.SetSettings(next)
}

// SetBase replaces the base raster.
func (s *Store) SetBase(a Asset) Snapshot {
	return s.mutate(func() { s.base = a })
}

// SetLogo replaces the logo raster; nil removes it.
func (s *Store) SetLogo(a *Asset) Snapshot {
	return s.mutate(func() {
		if a == nil {
			s.logo = nil
			return
		}
		cp := *a
		s.logo = &cp
	})
}

// Reset starts a new campaign: settings are replaced and the base cleared.
// The logo is a brand asset and survives.
func (s *Store) Reset(settings Settings) Snapshot {
	return s.mutate(func() {
		s.settings = settings.Normalize()
		s.base = Asset{}
	})
}

// Apply restores a recalled fragment. A fragment without a base clears the
// current one.
func (s *Store) Apply(f Fragment) Snapshot {
	return s.mutate(func() {
		if f.Base == nil {
			s.base = Asset{}
			return
		}
		s.base = *f.Base
	})
}

// Subscribe registers fn for every subsequent mutation.
// The returned function unregisters it.
func (s *Store) Subscribe(fn func(Snapshot)) (cancel func()) {
	s.subMu.Lock()
	id := s.nextID
	s.nextID++
	s.subs[id] = fn
	s.subMu.Unlock()

	return func() {
		s.subMu.Lock()
		delete(s.subs, id)
		s.subMu.Unlock()
	}
}

func (s *Store) mutate(fn func()) Snapshot {
	s.mu.Lock()
	fn()
	s.gen++
	snap := s.snapshotLocked()
	s.mu.Unlock()

	s.subMu.RLock()
	subs := make([]func(Snapshot), 0, len(s.subs))
	for _, sub := range s.subs {
		subs = append(subs, sub)
	}
	s.subMu.RUnlock()

	for _, sub := range subs {
		sub(snap)
	}
	return snap
}

func (s *Store) snapshotLocked() Snapshot {
	snap := Snapshot{Generation: s.gen, Settings: s.settings, Base: s.base}
	if s.logo != nil {
		cp := *s.logo
		snap.Logo = &cp
	}
	return snap
}
