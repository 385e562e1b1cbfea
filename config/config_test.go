package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefault(t *testing.T) {
	cfg := Default()
	assert.Equal(t, 20, cfg.Orchestration.MaxTurns)
	assert.Equal(t, 5*time.Minute, cfg.Orchestration.InteractiveTimeout)
	assert.Equal(t, 60*time.Second, cfg.Orchestration.NestedTimeout)
	assert.Equal(t, "cl100k_base", cfg.History.Encoding)
	assert.Equal(t, "agentrelay:conversation:", cfg.History.RedisKeyPrefix)
	assert.Equal(t, "info", cfg.Log.Level)
	assert.Empty(t, cfg.History.RedisAddr)
}

func TestLoad_YAMLOverridesDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
orchestration:
  max_turns: 8
history:
  token_budget: 4096
  redis_addr: "127.0.0.1:6379"
log:
  level: debug
  development: true
`), 0o600))

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, 8, cfg.Orchestration.MaxTurns)
	assert.Equal(t, 4096, cfg.History.TokenBudget)
	assert.Equal(t, "127.0.0.1:6379", cfg.History.RedisAddr)
	assert.Equal(t, "debug", cfg.Log.Level)
	assert.True(t, cfg.Log.Development)

	// Untouched fields keep their defaults.
	assert.Equal(t, 5*time.Minute, cfg.Orchestration.InteractiveTimeout)
	assert.Equal(t, "cl100k_base", cfg.History.Encoding)
}

func TestLoad_EnvOverridesFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte("orchestration:\n  max_turns: 8\n"), 0o600))

	t.Setenv("AGENTRELAY_MAX_TURNS", "3")
	t.Setenv("AGENTRELAY_INTERACTIVE_TIMEOUT", "90s")
	t.Setenv("AGENTRELAY_REDIS_ADDR", "redis:6379")
	t.Setenv("AGENTRELAY_LOG_LEVEL", "warn")

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, 3, cfg.Orchestration.MaxTurns)
	assert.Equal(t, 90*time.Second, cfg.Orchestration.InteractiveTimeout)
	assert.Equal(t, "redis:6379", cfg.History.RedisAddr)
	assert.Equal(t, "warn", cfg.Log.Level)
}

func TestLoad_EmptyPathSkipsFileLayer(t *testing.T) {
	cfg, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, Default().Orchestration.MaxTurns, cfg.Orchestration.MaxTurns)
}

func TestLoad_MissingFileIsError(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
	assert.Error(t, err)
}

func TestLoad_InvalidEnvValue(t *testing.T) {
	t.Setenv("AGENTRELAY_MAX_TURNS", "many")
	_, err := Load("")
	assert.ErrorContains(t, err, "AGENTRELAY_MAX_TURNS")
}

func TestBuildLogger(t *testing.T) {
	cfg := Default()
	logger, err := cfg.BuildLogger()
	require.NoError(t, err)
	logger.Info("logger built")
	_ = logger.Sync()

	cfg.Log.Level = "not-a-level"
	_, err = cfg.BuildLogger()
	assert.Error(t, err)
}
