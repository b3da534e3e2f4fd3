package placement

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/1broseidon/winplace/internal/platform"
)

func TestFileBackendJSONRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "placements.json")
	b := NewFileBackend(path)

	want := Map{
		"editor":  {X: 100, Y: 200, Width: 800, Height: 600},
		"palette": {X: -4, Y: 0, Width: 320, Height: 480},
	}
	if err := b.Save(want); err != nil {
		t.Fatalf("Save failed: %v", err)
	}

	got, err := b.Load()
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if len(got) != len(want) {
		t.Fatalf("loaded %d entries, want %d", len(got), len(want))
	}
	for k, r := range want {
		if got[k] != r {
			t.Errorf("entry %q = %+v, want %+v", k, got[k], r)
		}
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("failed to read saved file: %v", err)
	}
	if !strings.HasSuffix(string(data), "\n") {
		t.Error("saved JSON missing trailing newline")
	}
	if !strings.Contains(string(data), `"placements"`) {
		t.Error("saved JSON missing placements envelope")
	}
}

func TestFileBackendYAMLRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "placements.yaml")
	b := NewFileBackend(path)

	want := Map{"main": {X: 10, Y: 20, Width: 640, Height: 480}}
	if err := b.Save(want); err != nil {
		t.Fatalf("Save failed: %v", err)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("failed to read saved file: %v", err)
	}
	if strings.Contains(string(data), "{") {
		t.Errorf("expected YAML output for .yaml extension, got:\n%s", data)
	}

	got, err := b.Load()
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if got["main"] != want["main"] {
		t.Errorf("entry = %+v, want %+v", got["main"], want["main"])
	}
}

func TestFileBackendMissingFile(t *testing.T) {
	b := NewFileBackend(filepath.Join(t.TempDir(), "absent.json"))
	if _, err := b.Load(); err == nil {
		t.Fatal("expected error for missing file")
	}
}

func TestFileBackendMalformedFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "bad.json")
	if err := os.WriteFile(path, []byte("{not json"), 0644); err != nil {
		t.Fatalf("failed to write fixture: %v", err)
	}
	b := NewFileBackend(path)
	if _, err := b.Load(); err == nil {
		t.Fatal("expected error for malformed file")
	}
}

func TestFileBackendCreatesParentDirs(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "deeper", "placements.json")
	b := NewFileBackend(path)
	if err := b.Save(Map{"k": {Width: 1, Height: 1}}); err != nil {
		t.Fatalf("Save failed: %v", err)
	}
	if _, err := os.Stat(path); err != nil {
		t.Fatalf("saved file not on disk: %v", err)
	}
}

func TestBoltBackendRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "placements.db")
	b, err := OpenBolt(path)
	if err != nil {
		t.Fatalf("OpenBolt failed: %v", err)
	}
	defer b.Close()

	want := Map{
		"editor": {X: 100, Y: 200, Width: 800, Height: 600},
		"log":    {X: 0, Y: 900, Width: 1920, Height: 180},
	}
	if err := b.Save(want); err != nil {
		t.Fatalf("Save failed: %v", err)
	}

	got, err := b.Load()
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if len(got) != len(want) {
		t.Fatalf("loaded %d entries, want %d", len(got), len(want))
	}
	for k, r := range want {
		if got[k] != r {
			t.Errorf("entry %q = %+v, want %+v", k, got[k], r)
		}
	}
}

func TestBoltBackendSaveReplacesMap(t *testing.T) {
	path := filepath.Join(t.TempDir(), "placements.db")
	b, err := OpenBolt(path)
	if err != nil {
		t.Fatalf("OpenBolt failed: %v", err)
	}
	defer b.Close()

	if err := b.Save(Map{"old": {Width: 1, Height: 1}}); err != nil {
		t.Fatalf("first Save failed: %v", err)
	}
	if err := b.Save(Map{"new": {Width: 2, Height: 2}}); err != nil {
		t.Fatalf("second Save failed: %v", err)
	}

	got, err := b.Load()
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if _, ok := got["old"]; ok {
		t.Error("stale entry survived a full-map save")
	}
	if got["new"] != (platform.Rect{Width: 2, Height: 2}) {
		t.Errorf("entry new = %+v", got["new"])
	}
}

func TestBoltBackendReopen(t *testing.T) {
	path := filepath.Join(t.TempDir(), "placements.db")
	b, err := OpenBolt(path)
	if err != nil {
		t.Fatalf("OpenBolt failed: %v", err)
	}
	if err := b.Save(Map{"k": {X: 3, Y: 4, Width: 5, Height: 6}}); err != nil {
		t.Fatalf("Save failed: %v", err)
	}
	if err := b.Close(); err != nil {
		t.Fatalf("Close failed: %v", err)
	}

	b2, err := OpenBolt(path)
	if err != nil {
		t.Fatalf("reopen failed: %v", err)
	}
	defer b2.Close()
	got, err := b2.Load()
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if got["k"] != (platform.Rect{X: 3, Y: 4, Width: 5, Height: 6}) {
		t.Errorf("entry = %+v after reopen", got["k"])
	}
}
