package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// chdir moves into an empty directory so no stray growthrec.yaml is picked up.
func chdir(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	t.Chdir(dir)
	return dir
}

func TestLoadDefaults(t *testing.T) {
	chdir(t)

	cfg, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, 8080, cfg.Server.Port)
	assert.Equal(t, "info", cfg.Server.LogLevel)
	assert.Equal(t, "text", cfg.Server.LogFormat)
	assert.Equal(t, 20, cfg.Server.RateLimit)
	assert.False(t, cfg.Server.TrustProxy)
	assert.Equal(t, "growth.db", cfg.Storage.Path)
	assert.Equal(t, "growth-data.json", cfg.Sync.Filename)
	assert.Equal(t, 30*time.Second, cfg.Sync.Timeout)
	assert.Equal(t, time.Duration(0), cfg.Sync.Interval)
	assert.Equal(t, "baby-growth-record-secret", cfg.App.Secret)
}

func TestLoadEnvOverrides(t *testing.T) {
	chdir(t)
	t.Setenv("GROWTH_SERVER_PORT", "9090")
	t.Setenv("GROWTH_SERVER_LOG_LEVEL", "debug")
	t.Setenv("GROWTH_STORAGE_PATH", "/data/family.db")
	t.Setenv("GROWTH_SYNC_INTERVAL", "5m")
	t.Setenv("GROWTH_SERVER_TRUST_PROXY", "true")

	cfg, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, 9090, cfg.Server.Port)
	assert.Equal(t, "debug", cfg.Server.LogLevel)
	assert.Equal(t, "/data/family.db", cfg.Storage.Path)
	assert.Equal(t, 5*time.Minute, cfg.Sync.Interval)
	assert.True(t, cfg.Server.TrustProxy)
}

func TestLoadFile(t *testing.T) {
	dir := chdir(t)
	path := filepath.Join(dir, "custom.yaml")
	content := `
server:
  port: 7000
  log_format: json
  origin_patterns: ["localhost:5173", "*.example.com"]
sync:
  filename: family.json
  timeout: 10s
`
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	t.Setenv("GROWTH_SERVER_PORT", "7100")

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, 7100, cfg.Server.Port, "environment wins over the file")
	assert.Equal(t, "json", cfg.Server.LogFormat)
	assert.Equal(t, []string{"localhost:5173", "*.example.com"}, cfg.Server.OriginPatterns)
	assert.Equal(t, "family.json", cfg.Sync.Filename)
	assert.Equal(t, 10*time.Second, cfg.Sync.Timeout)
}

func TestLoadMissingExplicitFile(t *testing.T) {
	dir := chdir(t)
	_, err := Load(filepath.Join(dir, "missing.yaml"))
	assert.Error(t, err)
}

func TestLoadValidation(t *testing.T) {
	tests := map[string]string{
		"GROWTH_SERVER_PORT":       "70000",
		"GROWTH_SERVER_LOG_LEVEL":  "loud",
		"GROWTH_SERVER_LOG_FORMAT": "xml",
		"GROWTH_SYNC_FILENAME":     "dir/file.json",
		"GROWTH_SYNC_TIMEOUT":      "0s",
	}
	for env, value := range tests {
		t.Run(env, func(t *testing.T) {
			chdir(t)
			t.Setenv(env, value)
			_, err := Load("")
			assert.Error(t, err)
		})
	}
}
