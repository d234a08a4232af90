package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setRequiredEnv(t *testing.T) {
	t.Helper()
	t.Setenv("DATABASE_URL", "postgres://localhost/drumline")
	t.Setenv("REDIS_URL", "redis://localhost:6379")
	t.Setenv("TOKEN_SECRET", "test-secret-test-secret-test-secret!")
	t.Setenv("SESSION_SECRET", "cookie-secret")
}

func TestLoad_Defaults(t *testing.T) {
	setRequiredEnv(t)

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "development", cfg.AppEnv)
	assert.Equal(t, "8080", cfg.Port)
	assert.Equal(t, "info", cfg.LogLevel)
	assert.Equal(t, 168*time.Hour, cfg.SessionTTL)
	assert.Equal(t, 10000, cfg.MaxConnections)
	assert.Equal(t, 0, cfg.MaxClientsPerRoom)
	assert.Equal(t, 30*time.Second, cfg.SweepInterval)
}

func TestLoad_MissingRequired(t *testing.T) {
	setRequiredEnv(t)
	t.Setenv("TOKEN_SECRET", "")

	_, err := Load()
	assert.ErrorContains(t, err, "TOKEN_SECRET")
}

func TestLoad_ShortTokenSecret(t *testing.T) {
	setRequiredEnv(t)
	t.Setenv("TOKEN_SECRET", "too-short")

	_, err := Load()
	assert.ErrorContains(t, err, "32 characters")
}

func TestLoad_SweepIntervalFloor(t *testing.T) {
	setRequiredEnv(t)
	t.Setenv("SWEEP_INTERVAL", "100ms")

	_, err := Load()
	assert.ErrorContains(t, err, "SWEEP_INTERVAL")
}

func TestLoad_Overrides(t *testing.T) {
	setRequiredEnv(t)
	t.Setenv("MAX_CONNECTIONS", "500")
	t.Setenv("SWEEP_INTERVAL", "10s")
	t.Setenv("LOG_FORMAT", "json")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, 500, cfg.MaxConnections)
	assert.Equal(t, 10*time.Second, cfg.SweepInterval)
	assert.Equal(t, "json", cfg.LogFormat)
}
