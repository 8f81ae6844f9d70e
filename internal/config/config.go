// Package config loads the engine/CLI configuration: the DSL root path,
// the storage DSN, the default jurisdiction and the log level.
package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/Smarticus81/psurRegOSv1/internal/model"
)

// Config is the root configuration document for cmd/psurctl.
type Config struct {
	// DSLRoot is the configured directory for DSL source files. It is
	// loaded and defaulted to "." but no command reads it: psurctl compile
	// resolves its dsl-file argument against the working directory, and
	// IMPORT paths against the importing file's directory.
	DSLRoot string `yaml:"dsl_root"`

	// StorageDSN is the data source name passed to database/sql when
	// opening the reference SQLiteStore.
	StorageDSN string `yaml:"storage_dsn"`

	// DefaultJurisdiction is the configured default jurisdiction, checked
	// against the closed set by Load. The compiler does not read it:
	// SOURCE and OBLIGATION blocks that omit a jurisdiction compile to EU.
	DefaultJurisdiction model.Jurisdiction `yaml:"default_jurisdiction"`

	// LogLevel is one of "debug", "info", "warn", "error".
	LogLevel string `yaml:"log_level"`
}

// Default returns the configuration used when no file is supplied.
func Default() *Config {
	return &Config{
		DSLRoot:             ".",
		StorageDSN:          "psur_orchestrator.db",
		DefaultJurisdiction: model.EU,
		LogLevel:            "info",
	}
}

// Load reads and parses a YAML configuration file at path, filling
// unset fields from Default().
func Load(path string) (*Config, error) {
	cfg := Default()
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("config: read %s: %w", path, err)
	}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("config: parse %s: %w", path, err)
	}
	if cfg.DSLRoot == "" {
		cfg.DSLRoot = "."
	}
	if cfg.StorageDSN == "" {
		cfg.StorageDSN = "psur_orchestrator.db"
	}
	if cfg.DefaultJurisdiction == "" {
		cfg.DefaultJurisdiction = model.EU
	}
	if cfg.LogLevel == "" {
		cfg.LogLevel = "info"
	}
	if _, err := model.ParseJurisdiction(string(cfg.DefaultJurisdiction)); err != nil {
		return nil, fmt.Errorf("config: %w", err)
	}
	return cfg, nil
}
