package placement

import (
	"github.com/1broseidon/winplace/internal/platform"
)

// Store owns the in-memory placement map and mediates every read and write
// against it. Persistence goes through the backend fixed at construction;
// geometry capture and apply go through the bridge.
//
// The store is callback-driven and not safe for concurrent use. It is meant
// to run on whatever thread dispatches window-system events; callers that
// touch it from elsewhere synchronize around it.
type Store struct {
	backend    Backend
	bridge     platform.Bridge
	placements Map
}

// NewStore creates a store bound to the given backend and bridge, and
// immediately loads the map. A load failure leaves an empty map: a corrupt
// or first-run settings store must never prevent windows from opening.
func NewStore(backend Backend, bridge platform.Bridge) *Store {
	s := &Store{backend: backend, bridge: bridge}
	s.Load()
	return s
}

// NewFileStore creates a store persisted to a file at path.
func NewFileStore(path string, bridge platform.Bridge) *Store {
	return NewStore(NewFileBackend(path), bridge)
}

// NewFuncStore creates a store persisted through a caller-supplied
// load/save pair.
func NewFuncStore(load func() (Map, error), save func(Map) error, bridge platform.Bridge) *Store {
	return NewStore(FuncBackend{LoadFunc: load, SaveFunc: save}, bridge)
}

// Load repopulates the map from the backend. Backend errors (missing file,
// malformed data, delegate failure) are swallowed and yield an empty map.
func (s *Store) Load() {
	m, err := s.backend.Load()
	if err != nil || m == nil {
		m = Map{}
	}
	s.placements = m
}

// Save writes the current map through the backend. Unlike Load, errors
// propagate: a failed save near shutdown is actionable for the caller. A
// nil map (never the case after construction) is a silent no-op.
func (s *Store) Save() error {
	if s.placements == nil {
		return nil
	}
	return s.backend.Save(s.placements)
}

// Restore applies the stored position and size for key to the window.
// An unknown key is a no-op: a first-run window keeps its default geometry.
func (s *Store) Restore(id platform.WindowID, key string) error {
	r, ok := s.placements[key]
	if !ok {
		return nil
	}
	return s.bridge.Apply(id, r)
}

// RestorePosition applies only the stored position for key, leaving the
// window's size alone. An unknown key is a no-op.
func (s *Store) RestorePosition(id platform.WindowID, key string) error {
	r, ok := s.placements[key]
	if !ok {
		return nil
	}
	return s.bridge.ApplyPosition(id, r.X, r.Y)
}

// Store captures the window's current geometry and records it at key,
// overwriting any previous entry. It does not persist; call Save for that.
func (s *Store) Store(id platform.WindowID, key string) error {
	r, err := s.bridge.Capture(id)
	if err != nil {
		return err
	}
	s.placements[key] = r
	return nil
}

// Put records a geometry at key directly, without consulting the bridge.
func (s *Store) Put(key string, r platform.Rect) {
	s.placements[key] = r
}

// IsRegistered reports whether a geometry is recorded for key, either from
// a prior Store call or from loaded backend data.
func (s *Store) IsRegistered(key string) bool {
	_, ok := s.placements[key]
	return ok
}

// Placements returns a copy of the current map, for listing and status.
func (s *Store) Placements() Map {
	return s.placements.Clone()
}

// Len returns the number of recorded keys.
func (s *Store) Len() int {
	return len(s.placements)
}
