// Package config loads pipeline configuration from YAML.
package config

import (
	"log/slog"
	"os"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// Config holds the settings the CLI and facade need.
type Config struct {
	Database DatabaseConfig `yaml:"database"`
	Lexicon  LexiconConfig  `yaml:"lexicon"`
	Logging  LoggingConfig  `yaml:"logging"`
	Retry    RetryConfig    `yaml:"retry"`
}

// DatabaseConfig describes the SQLite database location.
type DatabaseConfig struct {
	Path string `yaml:"path"`
}

// LexiconConfig points at a marker-word YAML file. Empty means the
// built-in default lexicon.
type LexiconConfig struct {
	Path string `yaml:"path"`
}

// LoggingConfig controls log verbosity.
type LoggingConfig struct {
	Level string `yaml:"level"`
}

// RetryConfig controls caller-side retries of transient failures.
type RetryConfig struct {
	Attempts int      `yaml:"attempts"`
	Backoff  Duration `yaml:"backoff"`
}

// Duration decodes YAML strings like "250ms" or "1s".
type Duration time.Duration

// UnmarshalYAML implements yaml.Unmarshaler.
func (d *Duration) UnmarshalYAML(value *yaml.Node) error {
	var raw string
	if err := value.Decode(&raw); err != nil {
		return err
	}
	parsed, err := time.ParseDuration(raw)
	if err != nil {
		return err
	}
	*d = Duration(parsed)
	return nil
}

// Default returns the configuration used when no file is given.
func Default() Config {
	return Config{
		Database: DatabaseConfig{Path: "textpipe.db"},
		Logging:  LoggingConfig{Level: "info"},
		Retry:    RetryConfig{Attempts: 0, Backoff: Duration(250 * time.Millisecond)},
	}
}

// Load reads a YAML config file and merges it over the defaults.
func Load(path string) (Config, error) {
	cfg := Default()

	data, err := os.ReadFile(path)
	if err != nil {
		return Config{}, err
	}
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return Config{}, err
	}

	return cfg, nil
}

// SlogLevel resolves the configured level string.
func (l LoggingConfig) SlogLevel() slog.Level {
	switch strings.ToLower(strings.TrimSpace(l.Level)) {
	case "error":
		return slog.LevelError
	case "warn", "warning":
		return slog.LevelWarn
	case "debug":
		return slog.LevelDebug
	default:
		return slog.LevelInfo
	}
}

// NewLogger builds a text-handler slog.Logger at the configured level.
func (l LoggingConfig) NewLogger() *slog.Logger {
	handler := slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: l.SlogLevel()})
	return slog.New(handler)
}
