package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestLoadDefaults(t *testing.T) {
	// Change to temp dir so no config.yaml is found
	dir := t.TempDir()
	origDir, _ := os.Getwd()
	require.NoError(t, os.Chdir(dir))
	t.Cleanup(func() { os.Chdir(origDir) })

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "postgres", cfg.Store.Driver)
	assert.Equal(t, "name", cfg.Store.KeyPolicy)
	assert.Equal(t, "gemini", cfg.LLM.Provider)
	assert.Equal(t, "gemini-2.5-flash-lite", cfg.LLM.Gemini.Model)
	assert.Equal(t, 30, cfg.LLM.Gemini.RequestsPerMinute)
	assert.Equal(t, "claude-haiku-4-5-20251001", cfg.LLM.Anthropic.Model)
	assert.InDelta(t, 0.10, cfg.Pricing.InputPerMTok, 0.001)
	assert.InDelta(t, 0.40, cfg.Pricing.OutputPerMTok, 0.001)
	assert.InDelta(t, 7.2, cfg.Pricing.USDToCNY, 0.001)
	assert.Equal(t, 3, cfg.Pipeline.MaxMissingFields)
	assert.Equal(t, 3, cfg.Batch.MaxConcurrentParks)
	assert.Equal(t, 8080, cfg.Server.Port)
	assert.Equal(t, "info", cfg.Log.Level)
	assert.Equal(t, "json", cfg.Log.Format)
}

func TestLoadFromYAML(t *testing.T) {
	dir := t.TempDir()
	origDir, _ := os.Getwd()
	require.NoError(t, os.Chdir(dir))
	t.Cleanup(func() { os.Chdir(origDir) })

	yaml := `
store:
  driver: sqlite
  key_policy: wiki_url
log:
  level: debug
  format: console
server:
  port: 9090
batch:
  max_concurrent_parks: 10
`
	require.NoError(t, os.WriteFile(filepath.Join(dir, "config.yaml"), []byte(yaml), 0644))

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "sqlite", cfg.Store.Driver)
	assert.Equal(t, "wiki_url", cfg.Store.KeyPolicy)
	assert.Equal(t, "debug", cfg.Log.Level)
	assert.Equal(t, "console", cfg.Log.Format)
	assert.Equal(t, 9090, cfg.Server.Port)
	assert.Equal(t, 10, cfg.Batch.MaxConcurrentParks)
	// Defaults still apply for unset values
	assert.Equal(t, 3, cfg.Pipeline.MaxMissingFields)
}

func TestLoadEnvOverridesFile(t *testing.T) {
	dir := t.TempDir()
	origDir, _ := os.Getwd()
	require.NoError(t, os.Chdir(dir))
	t.Cleanup(func() { os.Chdir(origDir) })

	yaml := `
store:
  driver: sqlite
log:
  level: debug
`
	require.NoError(t, os.WriteFile(filepath.Join(dir, "config.yaml"), []byte(yaml), 0644))

	t.Setenv("PARKATLAS_STORE_DRIVER", "postgres")
	t.Setenv("PARKATLAS_LOG_LEVEL", "warn")

	cfg, err := Load()
	require.NoError(t, err)

	// Env overrides file
	assert.Equal(t, "postgres", cfg.Store.Driver)
	assert.Equal(t, "warn", cfg.Log.Level)
}

func TestLoadEnvOverridesDefaults(t *testing.T) {
	dir := t.TempDir()
	origDir, _ := os.Getwd()
	require.NoError(t, os.Chdir(dir))
	t.Cleanup(func() { os.Chdir(origDir) })

	t.Setenv("PARKATLAS_SERVER_PORT", "3000")
	t.Setenv("PARKATLAS_PIPELINE_MAX_MISSING_FIELDS", "5")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, 3000, cfg.Server.Port)
	assert.Equal(t, 5, cfg.Pipeline.MaxMissingFields)
}

func TestLoadEnvOnlyKeys(t *testing.T) {
	// Secrets and connection strings have no defaults; they must still be
	// reachable from the environment alone.
	dir := t.TempDir()
	origDir, _ := os.Getwd()
	require.NoError(t, os.Chdir(dir))
	t.Cleanup(func() { os.Chdir(origDir) })

	t.Setenv("PARKATLAS_LLM_GEMINI_KEY", "secret-key")
	t.Setenv("PARKATLAS_LLM_ANTHROPIC_KEY", "sk-ant-key")
	t.Setenv("PARKATLAS_STORE_DATABASE_URL", "postgres://localhost/parks")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "secret-key", cfg.LLM.Gemini.Key)
	assert.Equal(t, "sk-ant-key", cfg.LLM.Anthropic.Key)
	assert.Equal(t, "postgres://localhost/parks", cfg.Store.DatabaseURL)
}

func TestInitLoggerConsole(t *testing.T) {
	err := InitLogger(LogConfig{Level: "debug", Format: "console"})
	require.NoError(t, err)
	assert.NotNil(t, zap.L())
}

func TestInitLoggerJSON(t *testing.T) {
	err := InitLogger(LogConfig{Level: "info", Format: "json"})
	require.NoError(t, err)
	assert.NotNil(t, zap.L())
}

func TestInitLoggerInvalidLevel(t *testing.T) {
	err := InitLogger(LogConfig{Level: "invalid", Format: "json"})
	assert.Error(t, err)
}
