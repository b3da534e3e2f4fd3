package placement

import (
	"log"
	"reflect"

	"github.com/1broseidon/winplace/internal/platform"
)

// CloseEvent is passed to every closing handler of a window. A handler may
// cancel the close; handlers running after it see the updated flag.
type CloseEvent struct {
	Cancelled bool
}

// Window is the windowing-framework collaborator the binder subscribes to.
// The shown signal fires exactly once, after the native handle is valid;
// the closing signal fires before teardown with a shared, cancellable event.
type Window interface {
	ID() platform.WindowID
	OnShown(fn func())
	OnClosing(fn func(ev *CloseEvent))
}

// Binder wires window lifecycle signals to automatic restore and store
// calls, so callers don't invoke the store by hand at the right moments.
//
// A window is expected to be bound at most once per key per store; double
// registration double-fires both handlers.
type Binder struct {
	store *Store
}

// NewBinder creates a binder over store.
func NewBinder(store *Store) *Binder {
	return &Binder{store: store}
}

// Register restores position and size for key when the window is shown and
// captures its geometry at key when it closes uncancelled.
func (b *Binder) Register(w Window, key string) {
	b.register(w, key, false)
}

// RegisterType is Register with the key derived from the window value's
// type name via TypeKey. All instances of one window type share a single
// persisted slot; use Register with an explicit key when instances need
// independent placements.
func (b *Binder) RegisterType(w Window) {
	b.Register(w, TypeKey(w))
}

// RegisterPositionOnly is Register, but restoring only applies the stored
// position. The full geometry is still captured on close.
func (b *Binder) RegisterPositionOnly(w Window, key string) {
	b.register(w, key, true)
}

// RegisterTypePositionOnly is RegisterPositionOnly with a type-derived key.
func (b *Binder) RegisterTypePositionOnly(w Window) {
	b.RegisterPositionOnly(w, TypeKey(w))
}

func (b *Binder) register(w Window, key string, positionOnly bool) {
	w.OnShown(func() {
		var err error
		if positionOnly {
			err = b.store.RestorePosition(w.ID(), key)
		} else {
			err = b.store.Restore(w.ID(), key)
		}
		if err != nil {
			log.Printf("placement: restore %q failed: %v", key, err)
		}
	})

	w.OnClosing(func(ev *CloseEvent) {
		if ev != nil && ev.Cancelled {
			// A cancelled close may carry transient geometry; keep the
			// recorded entry as is.
			return
		}
		if err := b.store.Store(w.ID(), key); err != nil {
			log.Printf("placement: store %q failed: %v", key, err)
		}
	})
}

// TypeKey derives a placement key from the dynamic type of w: the declared
// type name, with pointers dereferenced. Unnamed types fall back to their
// full type string.
func TypeKey(w Window) string {
	t := reflect.TypeOf(w)
	for t != nil && t.Kind() == reflect.Ptr {
		t = t.Elem()
	}
	if t == nil {
		return ""
	}
	if name := t.Name(); name != "" {
		return name
	}
	return t.String()
}
