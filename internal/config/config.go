// Package config loads application configuration.
//
// Values come from, in increasing priority: defaults, LIBRARY_* environment
// variables, and command-line flags. Environment parsing happens here; the
// CLI registers flags whose defaults are the environment-derived values, so an
// explicitly passed flag always wins.
package config

import (
	"errors"
	"fmt"
	"path/filepath"

	"github.com/caarlos0/env/v11"
)

// Config holds the application configuration.
type Config struct {
	// DataDir holds the record files (or the SQLite database).
	DataDir string `env:"LIBRARY_DATA_DIR" envDefault:"."`
	// Store selects the record store backend: file or sqlite.
	Store string `env:"LIBRARY_STORE" envDefault:"file"`
	// EBooksDir is listed by the e-book menu entry. Relative paths resolve
	// against DataDir.
	EBooksDir string `env:"LIBRARY_EBOOKS_DIR" envDefault:"ebooks"`

	LogLevel  string `env:"LIBRARY_LOG_LEVEL" envDefault:"warn"`
	LogFormat string `env:"LIBRARY_LOG_FORMAT" envDefault:"text"`

	// LoanDays is the fixed loan period.
	LoanDays int `env:"LIBRARY_LOAN_DAYS" envDefault:"14"`
	// FineRate is charged per day late, in whole currency units.
	FineRate int `env:"LIBRARY_FINE_RATE" envDefault:"2"`
	// AllowDuplicateLoans lets a member hold several outstanding loans of the
	// same book.
	AllowDuplicateLoans bool `env:"LIBRARY_ALLOW_DUPLICATE_LOANS" envDefault:"false"`
}

// Load parses the environment into a Config.
func Load() (*Config, error) {
	var cfg Config
	if err := env.Parse(&cfg); err != nil {
		return nil, fmt.Errorf("parse env: %w", err)
	}
	return &cfg, nil
}

// Validate reports every invalid setting at once.
func (c *Config) Validate() error {
	var errs []error
	if c.LoanDays <= 0 {
		errs = append(errs, fmt.Errorf("loan days must be positive, got %d", c.LoanDays))
	}
	if c.FineRate < 0 {
		errs = append(errs, fmt.Errorf("fine rate must not be negative, got %d", c.FineRate))
	}
	switch c.Store {
	case "file", "sqlite":
	default:
		errs = append(errs, fmt.Errorf("store must be file or sqlite, got %q", c.Store))
	}
	switch c.LogFormat {
	case "text", "json":
	default:
		errs = append(errs, fmt.Errorf("log format must be text or json, got %q", c.LogFormat))
	}
	return errors.Join(errs...)
}

// EBooksPath resolves EBooksDir against DataDir.
func (c *Config) EBooksPath() string {
	if filepath.IsAbs(c.EBooksDir) {
		return c.EBooksDir
	}
	return filepath.Join(c.DataDir, c.EBooksDir)
}
