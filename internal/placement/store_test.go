package placement

import (
	"fmt"
	"path/filepath"
	"testing"

	"github.com/1broseidon/winplace/internal/platform"
)

// fakeBridge records Apply/Capture traffic per window so tests can assert
// exactly what reached the window system.
type fakeBridge struct {
	geometries map[platform.WindowID]platform.Rect
	applied    []platform.Rect
	captureErr error
	applyErr   error
}

func newFakeBridge() *fakeBridge {
	return &fakeBridge{geometries: make(map[platform.WindowID]platform.Rect)}
}

func (b *fakeBridge) Capture(id platform.WindowID) (platform.Rect, error) {
	if b.captureErr != nil {
		return platform.Rect{}, b.captureErr
	}
	r, ok := b.geometries[id]
	if !ok {
		return platform.Rect{}, fmt.Errorf("no such window %d", id)
	}
	return r, nil
}

func (b *fakeBridge) Apply(id platform.WindowID, r platform.Rect) error {
	if b.applyErr != nil {
		return b.applyErr
	}
	b.geometries[id] = r
	b.applied = append(b.applied, r)
	return nil
}

func (b *fakeBridge) ApplyPosition(id platform.WindowID, x, y int) error {
	if b.applyErr != nil {
		return b.applyErr
	}
	r := b.geometries[id]
	r.X, r.Y = x, y
	b.geometries[id] = r
	b.applied = append(b.applied, r)
	return nil
}

func TestStoreCaptureAndRestore(t *testing.T) {
	bridge := newFakeBridge()
	bridge.geometries[1] = platform.Rect{X: 100, Y: 200, Width: 800, Height: 600}

	store := NewFuncStore(
		func() (Map, error) { return Map{}, nil },
		func(Map) error { return nil },
		bridge,
	)

	if err := store.Store(1, "editor"); err != nil {
		t.Fatalf("Store failed: %v", err)
	}
	if !store.IsRegistered("editor") {
		t.Fatal("expected key to be registered after Store")
	}

	// Move the window, then restore: it must come back to the recorded spot.
	bridge.geometries[1] = platform.Rect{X: 5, Y: 5, Width: 300, Height: 300}
	if err := store.Restore(1, "editor"); err != nil {
		t.Fatalf("Restore failed: %v", err)
	}
	got := bridge.geometries[1]
	want := platform.Rect{X: 100, Y: 200, Width: 800, Height: 600}
	if got != want {
		t.Errorf("restored geometry = %+v, want %+v", got, want)
	}
}

func TestRestoreUnknownKeyIsNoOp(t *testing.T) {
	bridge := newFakeBridge()
	bridge.geometries[1] = platform.Rect{X: 10, Y: 20, Width: 640, Height: 480}

	store := NewFuncStore(
		func() (Map, error) { return Map{}, nil },
		func(Map) error { return nil },
		bridge,
	)

	if err := store.Restore(1, "never-stored"); err != nil {
		t.Fatalf("Restore of unknown key returned error: %v", err)
	}
	if err := store.RestorePosition(1, "never-stored"); err != nil {
		t.Fatalf("RestorePosition of unknown key returned error: %v", err)
	}
	if len(bridge.applied) != 0 {
		t.Errorf("expected no bridge traffic for unknown key, got %d applies", len(bridge.applied))
	}
	if got := bridge.geometries[1]; got != (platform.Rect{X: 10, Y: 20, Width: 640, Height: 480}) {
		t.Errorf("window geometry changed on unknown-key restore: %+v", got)
	}
}

func TestRestorePositionKeepsSize(t *testing.T) {
	bridge := newFakeBridge()
	bridge.geometries[1] = platform.Rect{X: 100, Y: 100, Width: 800, Height: 600}

	store := NewFuncStore(
		func() (Map, error) { return Map{}, nil },
		func(Map) error { return nil },
		bridge,
	)
	if err := store.Store(1, "popup"); err != nil {
		t.Fatalf("Store failed: %v", err)
	}

	// Resize and move the window, then restore position only.
	bridge.geometries[1] = platform.Rect{X: 0, Y: 0, Width: 1024, Height: 768}
	if err := store.RestorePosition(1, "popup"); err != nil {
		t.Fatalf("RestorePosition failed: %v", err)
	}
	got := bridge.geometries[1]
	if got.X != 100 || got.Y != 100 {
		t.Errorf("position = %d,%d, want 100,100", got.X, got.Y)
	}
	if got.Width != 1024 || got.Height != 768 {
		t.Errorf("size changed on position-only restore: %dx%d", got.Width, got.Height)
	}
}

func TestStoreOverwritesPreviousEntry(t *testing.T) {
	bridge := newFakeBridge()
	store := NewFuncStore(
		func() (Map, error) { return Map{}, nil },
		func(Map) error { return nil },
		bridge,
	)

	bridge.geometries[1] = platform.Rect{X: 1, Y: 1, Width: 100, Height: 100}
	if err := store.Store(1, "k"); err != nil {
		t.Fatalf("first Store failed: %v", err)
	}
	bridge.geometries[1] = platform.Rect{X: 2, Y: 2, Width: 200, Height: 200}
	if err := store.Store(1, "k"); err != nil {
		t.Fatalf("second Store failed: %v", err)
	}

	if got := store.Placements()["k"]; got != (platform.Rect{X: 2, Y: 2, Width: 200, Height: 200}) {
		t.Errorf("entry = %+v, want latest capture", got)
	}
	if store.Len() != 1 {
		t.Errorf("Len = %d, want 1", store.Len())
	}
}

func TestStorePropagatesCaptureError(t *testing.T) {
	bridge := newFakeBridge()
	bridge.captureErr = fmt.Errorf("window gone")

	store := NewFuncStore(
		func() (Map, error) { return Map{}, nil },
		func(Map) error { return nil },
		bridge,
	)
	if err := store.Store(1, "gone"); err == nil {
		t.Fatal("expected capture error to propagate")
	}
	if store.IsRegistered("gone") {
		t.Error("failed capture must not record an entry")
	}
}

func TestLoadErrorYieldsEmptyMap(t *testing.T) {
	store := NewFuncStore(
		func() (Map, error) { return nil, fmt.Errorf("backend down") },
		func(Map) error { return nil },
		newFakeBridge(),
	)
	if store.Len() != 0 {
		t.Errorf("Len = %d after failed load, want 0", store.Len())
	}
	// The map must be usable, not nil.
	store.Put("k", platform.Rect{Width: 10, Height: 10})
	if !store.IsRegistered("k") {
		t.Error("store unusable after failed load")
	}
}

func TestSaveErrorPropagates(t *testing.T) {
	store := NewFuncStore(
		func() (Map, error) { return Map{}, nil },
		func(Map) error { return fmt.Errorf("disk full") },
		newFakeBridge(),
	)
	if err := store.Save(); err == nil {
		t.Fatal("expected save error to propagate")
	}
}

func TestFuncBackendNilFuncs(t *testing.T) {
	b := FuncBackend{}
	if _, err := b.Load(); err == nil {
		t.Error("expected error from nil LoadFunc")
	}
	if err := b.Save(Map{}); err == nil {
		t.Error("expected error from nil SaveFunc")
	}
}

func TestReloadIsIdempotent(t *testing.T) {
	saved := Map{"a": {X: 1, Y: 2, Width: 3, Height: 4}}
	store := NewFuncStore(
		func() (Map, error) { return saved.Clone(), nil },
		func(m Map) error { saved = m.Clone(); return nil },
		newFakeBridge(),
	)

	store.Put("b", platform.Rect{X: 9, Y: 9, Width: 9, Height: 9})
	store.Load()

	// Load replaces the whole map from the backend.
	if store.IsRegistered("b") {
		t.Error("unsaved entry survived reload")
	}
	if got := store.Placements()["a"]; got != (platform.Rect{X: 1, Y: 2, Width: 3, Height: 4}) {
		t.Errorf("entry a = %+v after reload", got)
	}
}

func TestPersistAcrossStores(t *testing.T) {
	path := filepath.Join(t.TempDir(), "placements.json")
	bridge := newFakeBridge()
	bridge.geometries[7] = platform.Rect{X: 50, Y: 60, Width: 1280, Height: 720}

	first := NewFileStore(path, bridge)
	if err := first.Store(7, "browser"); err != nil {
		t.Fatalf("Store failed: %v", err)
	}
	if err := first.Save(); err != nil {
		t.Fatalf("Save failed: %v", err)
	}

	// A fresh store over the same file sees the entry and can restore it.
	bridge.geometries[7] = platform.Rect{}
	second := NewFileStore(path, bridge)
	if !second.IsRegistered("browser") {
		t.Fatal("entry not visible to a reconstructed store")
	}
	if err := second.Restore(7, "browser"); err != nil {
		t.Fatalf("Restore failed: %v", err)
	}
	if got := bridge.geometries[7]; got != (platform.Rect{X: 50, Y: 60, Width: 1280, Height: 720}) {
		t.Errorf("restored geometry = %+v", got)
	}
}

func TestPlacementsReturnsCopy(t *testing.T) {
	store := NewFuncStore(
		func() (Map, error) { return Map{"k": {Width: 1, Height: 1}}, nil },
		func(Map) error { return nil },
		newFakeBridge(),
	)
	m := store.Placements()
	m["k"] = platform.Rect{Width: 99, Height: 99}
	delete(m, "k")

	if got := store.Placements()["k"]; got != (platform.Rect{Width: 1, Height: 1}) {
		t.Errorf("mutating the returned map leaked into the store: %+v", got)
	}
}
