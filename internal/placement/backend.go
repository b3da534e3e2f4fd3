package placement

import "fmt"

// Backend is the persistence strategy for the placement map. Exactly one
// backend is bound to a store at construction and stays fixed for the
// store's lifetime.
type Backend interface {
	// Load reads the full map. Missing or malformed data is an error;
	// the store decides what to do with it.
	Load() (Map, error)
	// Save writes the full map.
	Save(Map) error
}

// FuncBackend adapts a caller-supplied load/save pair to the Backend
// interface, for callers that keep placements somewhere other than a file.
type FuncBackend struct {
	LoadFunc func() (Map, error)
	SaveFunc func(Map) error
}

var _ Backend = FuncBackend{}

func (b FuncBackend) Load() (Map, error) {
	if b.LoadFunc == nil {
		return nil, fmt.Errorf("no load function configured")
	}
	return b.LoadFunc()
}

func (b FuncBackend) Save(m Map) error {
	if b.SaveFunc == nil {
		return fmt.Errorf("no save function configured")
	}
	return b.SaveFunc(m)
}
