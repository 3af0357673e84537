package config

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	validation "github.com/go-ozzo/ozzo-validation/v4"
	"gopkg.in/yaml.v3"

	"github.com/tacogips/frecency/internal/engine"
	"github.com/tacogips/frecency/internal/store"
)

// Config holds all frecency configuration.
type Config struct {
	Database DatabaseConfig `yaml:"database"`
	Visits   VisitsConfig   `yaml:"visits"`
	LogLevel slog.Level     `yaml:"log_level"`
}

type DatabaseConfig struct {
	Path string `yaml:"path"` // empty: resolved at runtime via DefaultDBPath()
}

type VisitsConfig struct {
	MaxLogSize int `yaml:"max_log_size"`
}

// Default returns a Config with sensible defaults.
func Default() *Config {
	return &Config{
		Visits: VisitsConfig{
			MaxLogSize: engine.DefaultMaxVisitLogSize,
		},
		LogLevel: slog.LevelInfo,
	}
}

// Validate checks the configuration. Failures wrap store.ErrConfiguration.
func (c *Config) Validate() error {
	if err := c.Visits.Validate(); err != nil {
		return fmt.Errorf("%w: visits: %v", store.ErrConfiguration, err)
	}
	return nil
}

// Validate validates the visit log settings.
func (c *VisitsConfig) Validate() error {
	return validation.ValidateStruct(c,
		validation.Field(&c.MaxLogSize, validation.Required, validation.Min(1)),
	)
}

// DefaultConfigPath returns ~/.config/frecency/config.yaml.
func DefaultConfigPath() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("get home dir: %w", err)
	}
	return filepath.Join(home, ".config", "frecency", "config.yaml"), nil
}

// Load reads a YAML config file over the defaults, expanding environment
// variables first. An empty filename loads the default config path if that
// file exists and plain defaults otherwise.
func Load(filename string) (*Config, error) {
	cfg := Default()

	if filename == "" {
		def, err := DefaultConfigPath()
		if err != nil {
			return nil, err
		}
		if _, err := os.Stat(def); errors.Is(err, os.ErrNotExist) {
			return cfg, nil
		}
		filename = def
	}

	data, err := os.ReadFile(filename)
	if err != nil {
		return nil, fmt.Errorf("read config file %s: %w", filename, err)
	}

	expanded := os.ExpandEnv(string(data))
	if err := yaml.Unmarshal([]byte(expanded), cfg); err != nil {
		return nil, fmt.Errorf("parse config file %s: %w", filename, err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config file %s: %w", filename, err)
	}
	return cfg, nil
}
