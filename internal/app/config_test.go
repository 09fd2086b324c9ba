package app

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewConfigDefaults(t *testing.T) {
	cfg, err := NewConfig("", nil)
	require.NoError(t, err)

	assert.Equal(t, "sdfx", cfg.Kernel)
	assert.Equal(t, "text", cfg.LogFormat)
	assert.Equal(t, "info", cfg.LogLevel)
	assert.Empty(t, cfg.DocPath)
}

func TestNewConfigFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte("kernel: stub\nlog_level: debug\n"), 0o644))

	cfg, err := NewConfig(path, nil)
	require.NoError(t, err)
	assert.Equal(t, "stub", cfg.Kernel)
	assert.Equal(t, "debug", cfg.LogLevel)
	assert.Equal(t, "text", cfg.LogFormat) // untouched default

	_, err = NewConfig(filepath.Join(t.TempDir(), "missing.yaml"), nil)
	assert.Error(t, err)
}

func TestNewConfigEnv(t *testing.T) {
	t.Setenv("PARAMDOC_LOG_FORMAT", "json")

	cfg, err := NewConfig("", nil)
	require.NoError(t, err)
	assert.Equal(t, "json", cfg.LogFormat)
}

func TestNewConfigFlagOverridesWin(t *testing.T) {
	t.Setenv("PARAMDOC_KERNEL", "stub")
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte("log_level: warn\n"), 0o644))

	cfg, err := NewConfig(path, map[string]any{
		"kernel":    "sdfx",
		"log_level": "error",
		"set":       []string{"Box001.Length=5"},
	})
	require.NoError(t, err)
	assert.Equal(t, "sdfx", cfg.Kernel)
	assert.Equal(t, "error", cfg.LogLevel)
	assert.Equal(t, []string{"Box001.Length=5"}, cfg.Edits)
}

func TestNewConfigValidation(t *testing.T) {
	_, err := NewConfig("", map[string]any{"kernel": "occt"})
	assert.ErrorContains(t, err, "kernel")

	_, err = NewConfig("", map[string]any{"log_format": "xml"})
	assert.ErrorContains(t, err, "log_format")

	_, err = NewConfig("", map[string]any{"log_level": "loud"})
	assert.ErrorContains(t, err, "log_level")
}
