package config

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, ".", cfg.DataDir)
	assert.Equal(t, "file", cfg.Store)
	assert.Equal(t, 14, cfg.LoanDays)
	assert.Equal(t, 2, cfg.FineRate)
	assert.False(t, cfg.AllowDuplicateLoans)
	assert.NoError(t, cfg.Validate())
}

func TestLoadFromEnv(t *testing.T) {
	t.Setenv("LIBRARY_DATA_DIR", "/var/lib/library")
	t.Setenv("LIBRARY_STORE", "sqlite")
	t.Setenv("LIBRARY_LOAN_DAYS", "21")
	t.Setenv("LIBRARY_ALLOW_DUPLICATE_LOANS", "true")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, "/var/lib/library", cfg.DataDir)
	assert.Equal(t, "sqlite", cfg.Store)
	assert.Equal(t, 21, cfg.LoanDays)
	assert.True(t, cfg.AllowDuplicateLoans)
	assert.Equal(t, filepath.Join("/var/lib/library", "ebooks"), cfg.EBooksPath())
}

func TestLoadRejectsBadNumber(t *testing.T) {
	t.Setenv("LIBRARY_FINE_RATE", "two")
	_, err := Load()
	assert.Error(t, err)
}

func TestValidate(t *testing.T) {
	cfg := &Config{LoanDays: 0, FineRate: -1, Store: "postgres", LogFormat: "xml"}
	err := cfg.Validate()
	require.Error(t, err)
	for _, want := range []string{"loan days", "fine rate", "store", "log format"} {
		assert.Contains(t, err.Error(), want)
	}
}

func TestEBooksPathAbsolute(t *testing.T) {
	cfg := &Config{DataDir: "data", EBooksDir: "/srv/ebooks"}
	assert.Equal(t, "/srv/ebooks", cfg.EBooksPath())
}
