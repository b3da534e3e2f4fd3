package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatalf("failed to write config: %v", err)
	}
	return path
}

func TestLoadMissingFileYieldsDefaults(t *testing.T) {
	cfg, err := LoadFromPath(filepath.Join(t.TempDir(), "absent.yaml"))
	if err != nil {
		t.Fatalf("LoadFromPath failed: %v", err)
	}
	if cfg.PlacementsFile == "" {
		t.Error("default config has no placements file")
	}
	if len(cfg.Track) != 1 || cfg.Track[0].Class != "*" {
		t.Errorf("default track rules = %+v, want a single catch-all", cfg.Track)
	}
}

func TestLoadMalformedFile(t *testing.T) {
	path := writeConfig(t, "track: [not: valid: yaml\n")
	if _, err := LoadFromPath(path); err == nil {
		t.Fatal("expected error for malformed config")
	}
}

func TestLoadFullConfig(t *testing.T) {
	path := writeConfig(t, `
placements_file: /tmp/test-placements.db
track:
  - class: "kitty"
    ignore: true
  - class: "firefox*"
    key: browser
  - class: "*"
    position_only: true
logging:
  enabled: true
  level: debug
  max_size_mb: 5
`)
	cfg, err := LoadFromPath(path)
	if err != nil {
		t.Fatalf("LoadFromPath failed: %v", err)
	}
	if cfg.PlacementsFile != "/tmp/test-placements.db" {
		t.Errorf("PlacementsFile = %q", cfg.PlacementsFile)
	}
	if len(cfg.Track) != 3 {
		t.Fatalf("len(Track) = %d, want 3", len(cfg.Track))
	}
	if !cfg.Logging.Enabled || cfg.Logging.Level != "debug" || cfg.Logging.MaxSizeMB != 5 {
		t.Errorf("Logging = %+v", cfg.Logging)
	}
}

func TestExpandHome(t *testing.T) {
	path := writeConfig(t, "placements_file: ~/placements.json\n")
	cfg, err := LoadFromPath(path)
	if err != nil {
		t.Fatalf("LoadFromPath failed: %v", err)
	}
	if strings.HasPrefix(cfg.PlacementsFile, "~") {
		t.Errorf("PlacementsFile not expanded: %q", cfg.PlacementsFile)
	}
	if !filepath.IsAbs(cfg.PlacementsFile) {
		t.Errorf("PlacementsFile not absolute: %q", cfg.PlacementsFile)
	}
}

func TestValidateRejectsEmptyClass(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Track = append(cfg.Track, TrackRule{Class: "  "})
	if err := cfg.Validate(); err == nil {
		t.Fatal("expected error for empty class")
	}
}

func TestValidateRejectsBadPattern(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Track = []TrackRule{{Class: "[unclosed"}}
	if err := cfg.Validate(); err == nil {
		t.Fatal("expected error for invalid glob pattern")
	}
}

func TestValidateRejectsBadLogLevel(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Logging.Level = "verbose"
	if err := cfg.Validate(); err == nil {
		t.Fatal("expected error for unknown log level")
	}
}

func TestRuleForFirstMatchWins(t *testing.T) {
	cfg := &Config{
		PlacementsFile: "/tmp/p.json",
		Track: []TrackRule{
			{Class: "kitty", Ignore: true},
			{Class: "firefox*", Key: "browser"},
			{Class: "*", PositionOnly: true},
		},
	}

	if _, ok := cfg.RuleFor("kitty"); ok {
		t.Error("ignored class reported as tracked")
	}

	rule, ok := cfg.RuleFor("firefox-esr")
	if !ok {
		t.Fatal("expected firefox-esr to match")
	}
	if rule.KeyFor("firefox-esr") != "browser" {
		t.Errorf("key = %q, want browser", rule.KeyFor("firefox-esr"))
	}

	rule, ok = cfg.RuleFor("anything-else")
	if !ok {
		t.Fatal("expected catch-all to match")
	}
	if !rule.PositionOnly {
		t.Error("catch-all rule lost position_only")
	}
	if rule.KeyFor("anything-else") != "anything-else" {
		t.Errorf("key = %q, want class name", rule.KeyFor("anything-else"))
	}
}

func TestRuleForEmptyTrackList(t *testing.T) {
	cfg := &Config{PlacementsFile: "/tmp/p.json"}
	if _, ok := cfg.RuleFor("anything"); ok {
		t.Error("empty track list must track nothing")
	}
}

func TestGetLoggingConfigDefaults(t *testing.T) {
	cfg := DefaultConfig()
	lc := cfg.GetLoggingConfig()
	if lc.Level != "info" {
		t.Errorf("Level = %q, want info", lc.Level)
	}
	if lc.MaxSizeMB != 10 || lc.MaxFiles != 3 {
		t.Errorf("rotation defaults = %d MB / %d files", lc.MaxSizeMB, lc.MaxFiles)
	}
	if lc.File == "" {
		t.Error("no default log file path")
	}
}
