package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func clearProviderEnv(t *testing.T) {
	t.Helper()
	for _, v := range []string{
		"ANTHROPIC_API_KEY", "OPENAI_API_KEY", "GEMINI_API_KEY",
		"SHELLMIND_PROVIDER", "SHELLMIND_MODEL", "SHELLMIND_DB",
	} {
		t.Setenv(v, "")
		os.Unsetenv(v)
	}
}

func TestDefaults(t *testing.T) {
	clearProviderEnv(t)

	cfg, err := Load(filepath.Join(t.TempDir(), "missing.yaml"))
	require.NoError(t, err)

	assert.Equal(t, DefaultMaxRetries, cfg.Agent.MaxRetries)
	assert.Equal(t, "sequential", cfg.Agent.ExecutionMode)
	assert.False(t, cfg.Agent.AutoApproveModerate)
	assert.Equal(t, 10*time.Minute, cfg.LLMTimeout())
	assert.Equal(t, 60*time.Second, cfg.ToolTimeout())
}

func TestLoadFromFile(t *testing.T) {
	clearProviderEnv(t)

	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
llm:
  provider: openai
  model: gpt-4o
  timeout: 2m
agent:
  max_retries: 5
  execution_mode: parallel
  auto_approve_moderate: true
execution:
  default_timeout: 30s
`), 0644))

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "openai", cfg.LLM.Provider)
	assert.Equal(t, "gpt-4o", cfg.LLM.Model)
	assert.Equal(t, 5, cfg.Agent.MaxRetries)
	assert.Equal(t, "parallel", cfg.Agent.ExecutionMode)
	assert.True(t, cfg.Agent.AutoApproveModerate)
	assert.Equal(t, 2*time.Minute, cfg.LLMTimeout())
	assert.Equal(t, 30*time.Second, cfg.ToolTimeout())
}

func TestRetryClamping(t *testing.T) {
	clearProviderEnv(t)
	dir := t.TempDir()

	tests := []struct {
		name string
		yaml string
		want int
	}{
		{"zero resets to default", "agent:\n  max_retries: 0\n", DefaultMaxRetries},
		{"negative resets to default", "agent:\n  max_retries: -2\n", DefaultMaxRetries},
		{"over max clamps", "agent:\n  max_retries: 50\n", MaxMaxRetries},
		{"in range kept", "agent:\n  max_retries: 7\n", 7},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path := filepath.Join(dir, "c.yaml")
			require.NoError(t, os.WriteFile(path, []byte(tt.yaml), 0644))

			cfg, err := Load(path)
			require.NoError(t, err)
			assert.Equal(t, tt.want, cfg.Agent.MaxRetries)
		})
	}
}

func TestUnknownExecutionModeFallsBack(t *testing.T) {
	clearProviderEnv(t)

	path := filepath.Join(t.TempDir(), "c.yaml")
	require.NoError(t, os.WriteFile(path, []byte("agent:\n  execution_mode: turbo\n"), 0644))

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "sequential", cfg.Agent.ExecutionMode)
}

func TestEnvOverridePriority(t *testing.T) {
	clearProviderEnv(t)
	t.Setenv("GEMINI_API_KEY", "g-key")
	t.Setenv("ANTHROPIC_API_KEY", "a-key")

	cfg, err := Load(filepath.Join(t.TempDir(), "missing.yaml"))
	require.NoError(t, err)

	assert.Equal(t, "anthropic", cfg.LLM.Provider)
	assert.Equal(t, "a-key", cfg.LLM.APIKey)
}

func TestEnvExplicitProviderKeepsOwnKey(t *testing.T) {
	clearProviderEnv(t)
	t.Setenv("SHELLMIND_PROVIDER", "gemini")
	t.Setenv("ANTHROPIC_API_KEY", "a-key")
	t.Setenv("GEMINI_API_KEY", "g-key")

	cfg, err := Load(filepath.Join(t.TempDir(), "missing.yaml"))
	require.NoError(t, err)

	assert.Equal(t, "gemini", cfg.LLM.Provider)
	assert.Equal(t, "g-key", cfg.LLM.APIKey)
}

func TestEnvConfiguredProviderIgnoresForeignKey(t *testing.T) {
	clearProviderEnv(t)
	t.Setenv("ANTHROPIC_API_KEY", "a-key")

	path := filepath.Join(t.TempDir(), "c.yaml")
	require.NoError(t, os.WriteFile(path, []byte("llm:\n  provider: gemini\n  api_key: file-key\n"), 0644))

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "gemini", cfg.LLM.Provider)
	assert.Equal(t, "file-key", cfg.LLM.APIKey)
}

func TestEnvModelOverride(t *testing.T) {
	clearProviderEnv(t)
	t.Setenv("OPENAI_API_KEY", "o-key")
	t.Setenv("SHELLMIND_MODEL", "gpt-4o-mini")

	cfg, err := Load(filepath.Join(t.TempDir(), "missing.yaml"))
	require.NoError(t, err)

	assert.Equal(t, "openai", cfg.LLM.Provider)
	assert.Equal(t, "gpt-4o-mini", cfg.LLM.Model)
}

func TestSaveRoundTrip(t *testing.T) {
	clearProviderEnv(t)

	cfg := DefaultConfig()
	cfg.Agent.MaxRetries = 4
	cfg.LLM.Provider = "anthropic"

	path := filepath.Join(t.TempDir(), "nested", "config.yaml")
	require.NoError(t, cfg.Save(path))

	loaded, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, 4, loaded.Agent.MaxRetries)
	assert.Equal(t, "anthropic", loaded.LLM.Provider)
}

func TestInvalidYAML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "c.yaml")
	require.NoError(t, os.WriteFile(path, []byte("{not yaml"), 0644))

	_, err := Load(path)
	assert.Error(t, err)
}
