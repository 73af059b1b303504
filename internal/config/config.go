// Package config reads the optional viewkit.yaml or viewkit.toml project
// configuration.
package config

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/BurntSushi/toml"
	"gopkg.in/yaml.v3"

	"github.com/roach88/viewkit/internal/engine"
)

// File names looked up by LoadOptional, in order.
const (
	YAMLFile = "viewkit.yaml"
	TOMLFile = "viewkit.toml"
)

// Defaults applied by Resolve.
const (
	DefaultJournalPath = "viewkit.db"
	DefaultLogLevel    = "info"
	DefaultFormat      = "text"
	DefaultScenarios   = "scenarios"
	DefaultIDs         = engine.IDsSequential
)

// Config is the optional project configuration.
type Config struct {
	Journal   JournalConfig `yaml:"journal" toml:"journal"`
	LogLevel  string        `yaml:"log_level,omitempty" toml:"log_level"`
	Format    string        `yaml:"format,omitempty" toml:"format"`
	Scenarios string        `yaml:"scenarios,omitempty" toml:"scenarios"`
	IDs       string        `yaml:"ids,omitempty" toml:"ids"`

	// Source is the file the configuration was read from, empty when none
	// was found.
	Source string `yaml:"-" toml:"-"`
}

// JournalConfig configures the SQLite journal.
type JournalConfig struct {
	Path string `yaml:"path,omitempty" toml:"path"`
}

// Resolved holds configuration with defaults applied and paths made
// relative to the project directory.
type Resolved struct {
	Root        string
	Source      string
	JournalPath string
	LogLevel    slog.Level
	Format      string
	Scenarios   string
	IDs         string // engine.IDsSequential or engine.IDsUUID
}

// LoadOptional reads viewkit.yaml, or viewkit.toml when there is no YAML
// file. A missing file yields an empty Config.
func LoadOptional(dir string) (*Config, error) {
	cfg, err := loadYAML(filepath.Join(dir, YAMLFile))
	if cfg != nil || err != nil {
		return cfg, err
	}
	cfg, err = loadTOML(filepath.Join(dir, TOMLFile))
	if cfg != nil || err != nil {
		return cfg, err
	}
	return &Config{}, nil
}

func loadYAML(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to read %s: %w", YAMLFile, err)
	}
	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("failed to parse %s: %w", YAMLFile, err)
	}
	cfg.Source = path
	return &cfg, nil
}

func loadTOML(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to read %s: %w", TOMLFile, err)
	}
	var cfg Config
	if err := toml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("failed to parse %s: %w", TOMLFile, err)
	}
	cfg.Source = path
	return &cfg, nil
}

// Resolve loads the configuration in dir (if present) and applies defaults.
func Resolve(dir string) (*Resolved, error) {
	cfg, err := LoadOptional(dir)
	if err != nil {
		return nil, err
	}

	level, err := ParseLevel(cfg.LogLevel)
	if err != nil {
		return nil, err
	}

	format := strings.ToLower(strings.TrimSpace(cfg.Format))
	switch format {
	case "":
		format = DefaultFormat
	case "text", "json":
	default:
		return nil, fmt.Errorf("invalid format %q: must be text or json", cfg.Format)
	}

	ids := strings.ToLower(orDefault(cfg.IDs, DefaultIDs))
	if _, err := engine.NewIDGenerator(ids); err != nil {
		return nil, fmt.Errorf("invalid ids: %w", err)
	}

	return &Resolved{
		Root:        dir,
		Source:      cfg.Source,
		JournalPath: within(dir, orDefault(cfg.Journal.Path, DefaultJournalPath)),
		LogLevel:    level,
		Format:      format,
		Scenarios:   within(dir, orDefault(cfg.Scenarios, DefaultScenarios)),
		IDs:         ids,
	}, nil
}

// ParseLevel maps debug, info, warn and error to slog levels. Empty means
// info.
func ParseLevel(s string) (slog.Level, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", DefaultLogLevel:
		return slog.LevelInfo, nil
	case "debug":
		return slog.LevelDebug, nil
	case "warn", "warning":
		return slog.LevelWarn, nil
	case "error":
		return slog.LevelError, nil
	default:
		return 0, fmt.Errorf("invalid log_level %q", s)
	}
}

func orDefault(s, def string) string {
	if s = strings.TrimSpace(s); s == "" {
		return def
	}
	return s
}

func within(dir, path string) string {
	if filepath.IsAbs(path) || dir == "" {
		return path
	}
	return filepath.Join(dir, path)
}
