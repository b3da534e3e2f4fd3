package config

import (
	"fmt"
	"os"
	"path"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"
)

// TrackRule decides whether the daemon tracks windows of a given WM_CLASS
// and how their placement key is derived.
type TrackRule struct {
	// Class is a glob matched against the window's WM_CLASS class name.
	// "*" tracks everything.
	Class string `yaml:"class"`
	// Key overrides the derived key. Empty means "use the class name".
	Key string `yaml:"key,omitempty"`
	// PositionOnly restores position but not size for matching windows.
	PositionOnly bool `yaml:"position_only,omitempty"`
	// Ignore excludes matching windows even if a later rule would track them.
	Ignore bool `yaml:"ignore,omitempty"`
}

// LoggingConfig configures the placement action log.
type LoggingConfig struct {
	Enabled bool `yaml:"enabled,omitempty"`
	// Level controls logging verbosity: debug, info, warn, error
	Level string `yaml:"level,omitempty"`
	// File is the log file path (default: ~/.local/share/winplace/actions.log)
	File string `yaml:"file,omitempty"`
	// MaxSizeMB is the log size that triggers rotation (default: 10)
	MaxSizeMB int `yaml:"max_size_mb,omitempty"`
	// MaxFiles is the number of rotated files to keep (default: 3)
	MaxFiles int `yaml:"max_files,omitempty"`
}

// Config is the winplace configuration.
type Config struct {
	// PlacementsFile is where the placement map is persisted. The
	// extension selects the backend: .yaml/.yml for YAML, .db for bbolt,
	// anything else for JSON.
	PlacementsFile string `yaml:"placements_file,omitempty"`

	// Track lists rules applied in order; the first matching rule wins.
	// An empty list tracks nothing.
	Track []TrackRule `yaml:"track,omitempty"`

	Logging LoggingConfig `yaml:"logging,omitempty"`
}

// DefaultConfigPath returns the standard config file location.
func DefaultConfigPath() (string, error) {
	homeDir, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("failed to get home directory: %w", err)
	}
	return filepath.Join(homeDir, ".config", "winplace", "config.yaml"), nil
}

// DefaultPlacementsPath returns the standard placements file location.
func DefaultPlacementsPath() (string, error) {
	homeDir, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("failed to get home directory: %w", err)
	}
	return filepath.Join(homeDir, ".config", "winplace", "placements.json"), nil
}

// DefaultConfig returns the built-in defaults: every normal window tracked,
// placements in JSON next to the config, logging off.
func DefaultConfig() *Config {
	placements, _ := DefaultPlacementsPath()
	return &Config{
		PlacementsFile: placements,
		Track: []TrackRule{
			{Class: "*"},
		},
	}
}

// Load reads the configuration from the standard location.
func Load() (*Config, error) {
	configPath, err := DefaultConfigPath()
	if err != nil {
		return nil, err
	}
	return LoadFromPath(configPath)
}

// LoadFromPath reads the configuration from path. A missing file yields
// the defaults; a present but malformed file is an error.
func LoadFromPath(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return DefaultConfig(), nil
		}
		return nil, fmt.Errorf("failed to read config %q: %w", path, err)
	}

	cfg := DefaultConfig()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config %q: %w", path, err)
	}

	if cfg.PlacementsFile == "" {
		cfg.PlacementsFile, _ = DefaultPlacementsPath()
	}
	cfg.PlacementsFile = expandHome(cfg.PlacementsFile)

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks the configuration for obvious mistakes.
func (c *Config) Validate() error {
	if strings.TrimSpace(c.PlacementsFile) == "" {
		return fmt.Errorf("placements_file is required")
	}
	for i, rule := range c.Track {
		if strings.TrimSpace(rule.Class) == "" {
			return fmt.Errorf("track rule %d: class is required", i)
		}
		if _, err := path.Match(rule.Class, ""); err != nil {
			return fmt.Errorf("track rule %d: invalid class pattern %q", i, rule.Class)
		}
	}
	switch strings.ToLower(c.Logging.Level) {
	case "", "debug", "info", "warn", "warning", "error":
	default:
		return fmt.Errorf("logging.level must be one of debug, info, warn, error")
	}
	return nil
}

// RuleFor returns the first track rule matching class. The second result
// is false when no rule matches or the matching rule is an ignore rule.
func (c *Config) RuleFor(class string) (TrackRule, bool) {
	for _, rule := range c.Track {
		ok, err := path.Match(rule.Class, class)
		if err != nil || !ok {
			continue
		}
		if rule.Ignore {
			return TrackRule{}, false
		}
		return rule, true
	}
	return TrackRule{}, false
}

// KeyFor returns the placement key for a window class under this config.
func (r TrackRule) KeyFor(class string) string {
	if r.Key != "" {
		return r.Key
	}
	return class
}

// GetLoggingConfig returns the logging section with defaults filled in.
func (c *Config) GetLoggingConfig() LoggingConfig {
	out := c.Logging
	if out.Level == "" {
		out.Level = "info"
	}
	if out.File == "" {
		if homeDir, err := os.UserHomeDir(); err == nil {
			out.File = filepath.Join(homeDir, ".local", "share", "winplace", "actions.log")
		}
	}
	if out.MaxSizeMB <= 0 {
		out.MaxSizeMB = 10
	}
	if out.MaxFiles <= 0 {
		out.MaxFiles = 3
	}
	return out
}

func expandHome(p string) string {
	if !strings.HasPrefix(p, "~/") {
		return p
	}
	homeDir, err := os.UserHomeDir()
	if err != nil {
		return p
	}
	return filepath.Join(homeDir, p[2:])
}
