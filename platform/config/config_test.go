package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestLoad_Defaults(t *testing.T) {
	t.Setenv("CONFIG_FILE", "")
	t.Setenv("OPENAI_API_KEY", "")

	cfg, err := Load()
	require.NoError(t, err)

	require.Equal(t, "https://api.openai.com/v1/chat/completions", cfg.GetOpenAIAPIURL())
	require.Equal(t, "gpt-4", cfg.GetOpenAIModel())
	require.True(t, cfg.AIScoringEnabled)
	require.False(t, cfg.IsAIScoringEnabled(), "empty api key must disable ai scoring")
	require.Equal(t, 10*time.Second, cfg.GetAIScoringTimeout())
	require.Equal(t, CacheBackendMemory, cfg.GetScoringCacheBackend())
	require.Equal(t, 8, cfg.GetBatchConcurrency())
}

func TestLoad_FileKeysAndEnvOverride(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "scoring.yaml")
	content := []byte(`
openai:
  api:
    key: file-key
    url: https://llm.internal/v1/chat/completions
  model: gpt-4o-mini
lead:
  scoring:
    ai:
      enabled: false
`)
	require.NoError(t, os.WriteFile(path, content, 0o600))

	t.Setenv("CONFIG_FILE", path)
	t.Setenv("OPENAI_MODEL", "gpt-4.1")

	cfg, err := Load()
	require.NoError(t, err)

	require.Equal(t, "file-key", cfg.GetOpenAIAPIKey())
	require.Equal(t, "https://llm.internal/v1/chat/completions", cfg.GetOpenAIAPIURL())
	require.Equal(t, "gpt-4.1", cfg.GetOpenAIModel())
	require.False(t, cfg.IsAIScoringEnabled())
}

func TestLoad_TimeoutCappedAtTenSeconds(t *testing.T) {
	t.Setenv("CONFIG_FILE", "")
	t.Setenv("LEAD_SCORING_AI_TIMEOUT", "45s")

	cfg, err := Load()
	require.NoError(t, err)
	require.Equal(t, 10*time.Second, cfg.GetAIScoringTimeout())
}

func TestLoad_RedisCacheRequiresURL(t *testing.T) {
	t.Setenv("CONFIG_FILE", "")
	t.Setenv("LEAD_SCORING_CACHE", "redis")
	t.Setenv("REDIS_URL", "")

	_, err := Load()
	require.Error(t, err)
}

func TestRequireDatabase(t *testing.T) {
	cfg := &Config{}
	require.Error(t, cfg.RequireDatabase())

	cfg.DatabaseURL = "postgres://localhost/smartlead"
	require.NoError(t, cfg.RequireDatabase())
}
