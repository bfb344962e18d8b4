package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_Defaults(t *testing.T) {
	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, ":8080", cfg.Addr)
	assert.Equal(t, "assets_inventory.db", cfg.DBPath)
	assert.Equal(t, "info", cfg.LogLevel)
	assert.False(t, cfg.LogDevelopment)
	assert.Equal(t, 15*time.Second, cfg.ReadTimeout)
	assert.Equal(t, 60*time.Second, cfg.IdleTimeout)
	assert.Len(t, cfg.CORSOrigins, 2)
}

func TestLoad_Overrides(t *testing.T) {
	t.Setenv("ASSETS_ADDR", ":9090")
	t.Setenv("ASSETS_DB_PATH", "/tmp/ledger.db")
	t.Setenv("ASSETS_LOG_LEVEL", "debug")
	t.Setenv("ASSETS_LOG_DEVELOPMENT", "true")
	t.Setenv("ASSETS_WRITE_TIMEOUT", "30s")
	t.Setenv("ASSETS_CORS_ORIGINS", "https://assets.example.org")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, ":9090", cfg.Addr)
	assert.Equal(t, "/tmp/ledger.db", cfg.DBPath)
	assert.Equal(t, 30*time.Second, cfg.WriteTimeout)
	assert.Equal(t, []string{"https://assets.example.org"}, cfg.CORSOrigins)

	lc := cfg.Logging()
	assert.Equal(t, "debug", lc.Level)
	assert.True(t, lc.Development)
}

func TestLoad_InvalidDuration(t *testing.T) {
	t.Setenv("ASSETS_READ_TIMEOUT", "soon")

	_, err := Load()
	assert.Error(t, err)
}

func TestLoad_EmptyDBPath(t *testing.T) {
	t.Setenv("ASSETS_DB_PATH", "")

	_, err := Load()
	assert.Error(t, err)
}
