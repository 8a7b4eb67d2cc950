// Package config loads runtime configuration. Values resolve in three
// layers: built-in defaults, an optional YAML file, then RELAY_*
// environment overrides.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"

	"github.com/caarlos0/env/v11"
	"gopkg.in/yaml.v3"
)

// Config holds the runtime subsystem settings.
type Config struct {
	// StatsPath is the persisted stats JSON document.
	StatsPath string `yaml:"stats_path" env:"RELAY_STATS_PATH"`
	// ArchivePath is the SQLite session-history database. Empty disables
	// the archive.
	ArchivePath string `yaml:"archive_path" env:"RELAY_ARCHIVE_PATH"`
	// LogLevel is one of debug, info, warn, error.
	LogLevel string `yaml:"log_level" env:"RELAY_LOG_LEVEL"`
}

// Default returns the built-in configuration.
func Default() Config {
	return Config{
		StatsPath:   "Data/JSONS/GameStats.json",
		ArchivePath: "Data/sessions.db",
		LogLevel:    "info",
	}
}

// Load resolves the configuration. A missing file is not an error; a
// present but malformed file is.
func Load(path string) (Config, error) {
	cfg := Default()

	if path != "" {
		raw, err := os.ReadFile(path)
		switch {
		case errors.Is(err, fs.ErrNotExist):
			// Defaults plus env only.
		case err != nil:
			return Config{}, fmt.Errorf("read config %s: %w", path, err)
		default:
			if err := yaml.Unmarshal(raw, &cfg); err != nil {
				return Config{}, fmt.Errorf("parse config %s: %w", path, err)
			}
		}
	}

	if err := env.Parse(&cfg); err != nil {
		return Config{}, fmt.Errorf("parse env overrides: %w", err)
	}
	return cfg, nil
}
