// Package config reads and writes the bookport.yaml configuration.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"

	"gopkg.in/yaml.v3"
)

// DefaultFileName is where the CLI looks for configuration.
const DefaultFileName = "bookport.yaml"

// Store drivers.
const (
	DriverMemory   = "memory"
	DriverPostgres = "postgres"
)

// Config represents the top-level bookport.yaml configuration.
type Config struct {
	Store   StoreConfig   `yaml:"store"`
	Import  ImportConfig  `yaml:"import"`
	Export  ExportConfig  `yaml:"export"`
	Logging LoggingConfig `yaml:"logging"`
}

// StoreConfig selects the ledger store backing imports and exports.
type StoreConfig struct {
	Driver string `yaml:"driver"`
	DSN    string `yaml:"dsn,omitempty"`
}

// ImportConfig controls import-time reconciliation.
type ImportConfig struct {
	CatchUp bool `yaml:"catch_up"`
	Merge   bool `yaml:"merge"`
}

// ExportConfig controls the serialized output.
type ExportConfig struct {
	Gzip bool `yaml:"gzip"`
}

// LoggingConfig controls diagnostic output.
type LoggingConfig struct {
	Level string `yaml:"level"`
}

// Load reads a bookport.yaml file from disk.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading config: %w", err)
	}
	cfg := Default()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parsing config: %w", err)
	}
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// LoadOrDefault reads path if it exists and falls back to defaults when
// it does not. Any other read or parse failure is still an error.
func LoadOrDefault(path string) (*Config, error) {
	cfg, err := Load(path)
	if errors.Is(err, fs.ErrNotExist) {
		return Default(), nil
	}
	return cfg, err
}

// Save writes a Config to a YAML file.
func Save(path string, cfg *Config) error {
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("marshaling config: %w", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("writing config: %w", err)
	}
	return nil
}

// Default returns the configuration used when no file is present: an
// in-memory store, catch-up enabled, plain XML output.
func Default() *Config {
	return &Config{
		Store:   StoreConfig{Driver: DriverMemory},
		Import:  ImportConfig{CatchUp: true},
		Logging: LoggingConfig{Level: "info"},
	}
}

func (c *Config) validate() error {
	switch c.Store.Driver {
	case "", DriverMemory:
	case DriverPostgres:
		if c.Store.DSN == "" {
			return fmt.Errorf("store driver %q requires a dsn", c.Store.Driver)
		}
	default:
		return fmt.Errorf("unknown store driver %q", c.Store.Driver)
	}
	return nil
}
