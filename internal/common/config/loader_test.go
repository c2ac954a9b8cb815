package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, dir, name, body string) {
	t.Helper()
	require.NoError(t, os.MkdirAll(filepath.Join(dir, "configs"), 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "configs", name), []byte(body), 0o644))
}

func TestLoadAppliesDefaults(t *testing.T) {
	dir := t.TempDir()
	writeConfig(t, dir, "config.yaml", `
api:
  base_url: https://backend.example.com
`)
	t.Chdir(dir)

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "https://backend.example.com", cfg.API.BaseURL)
	assert.Equal(t, 30*time.Second, cfg.API.Timeout)
	assert.Equal(t, "file", cfg.Session.Backend)
	assert.Equal(t, time.Minute, cfg.Review.SweepInterval)
	assert.Equal(t, 4, cfg.Review.Concurrency)
	assert.Equal(t, "info", cfg.Logging.Level)
	assert.NotEmpty(t, cfg.Session.StateDir)
}

func TestLoadRejectsMissingBaseURL(t *testing.T) {
	dir := t.TempDir()
	writeConfig(t, dir, "config.yaml", `
logging:
  level: debug
`)
	t.Chdir(dir)

	_, err := Load()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "api.base_url")
}

func TestLoadRejectsUnknownSessionBackend(t *testing.T) {
	dir := t.TempDir()
	writeConfig(t, dir, "config.yaml", `
api:
  base_url: https://backend.example.com
session:
  backend: sqlite
`)
	t.Chdir(dir)

	_, err := Load()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "session.backend")
}

func TestLoadRedisBackendNeedsAddress(t *testing.T) {
	dir := t.TempDir()
	writeConfig(t, dir, "config.yaml", `
api:
  base_url: https://backend.example.com
session:
  backend: redis
`)
	t.Chdir(dir)

	_, err := Load()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "session.redis.address")
}

func TestLoadEnvironmentOverlay(t *testing.T) {
	dir := t.TempDir()
	writeConfig(t, dir, "config.yaml", `
api:
  base_url: https://backend.example.com
logging:
  level: info
`)
	writeConfig(t, dir, "config.staging.yaml", `
logging:
  level: debug
`)
	t.Chdir(dir)
	t.Setenv("PORTAL_APP_ENVIRONMENT", "staging")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, "debug", cfg.Logging.Level)
	assert.Equal(t, "https://backend.example.com", cfg.API.BaseURL)
}
