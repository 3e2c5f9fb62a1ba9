package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/promptforge/promptforge/utils"
)

func TestNewConfigDefaults(t *testing.T) {
	cfg := NewConfig()

	assert.Equal(t, "openai", cfg.Provider)
	assert.Equal(t, "gpt-4o-mini", cfg.Model)
	assert.InDelta(t, 0.7, cfg.Temperature, 1e-9)
	assert.Equal(t, 1024, cfg.MaxTokens)
	assert.Equal(t, 30*time.Second, cfg.Timeout)
	assert.Equal(t, 60*time.Second, cfg.OptimizationTimeout)
	assert.Equal(t, 3, cfg.MaxRetries)
	assert.Equal(t, utils.LogLevelWarn, cfg.LogLevel)
}

func TestConfigOptionsApplyInOrder(t *testing.T) {
	cfg := NewConfig(
		SetProvider("anthropic"),
		SetModel("claude-sonnet"),
		SetAPIKey("test-key"),
		SetTemperature(0.2),
		SetMaxTokens(4096),
		SetTimeout(10*time.Second),
		SetOptimizationTimeout(2*time.Minute),
		SetMaxRetries(1),
		SetRetryDelay(500*time.Millisecond),
		SetLogLevel(utils.LogLevelDebug),
	)

	assert.Equal(t, "anthropic", cfg.Provider)
	assert.Equal(t, "claude-sonnet", cfg.Model)
	assert.Equal(t, "test-key", cfg.APIKeys["anthropic"], "the key attaches to the selected provider")
	assert.InDelta(t, 0.2, cfg.Temperature, 1e-9)
	assert.Equal(t, 4096, cfg.MaxTokens)
	assert.Equal(t, 10*time.Second, cfg.Timeout)
	assert.Equal(t, 2*time.Minute, cfg.OptimizationTimeout)
	assert.Equal(t, 1, cfg.MaxRetries)
	assert.Equal(t, 500*time.Millisecond, cfg.RetryDelay)
	assert.Equal(t, utils.LogLevelDebug, cfg.LogLevel)
}

func TestSetMaxTokensFloor(t *testing.T) {
	cfg := NewConfig(SetMaxTokens(0))
	assert.Equal(t, 1, cfg.MaxTokens)
}

func TestLoadConfigFromEnv(t *testing.T) {
	t.Setenv("PF_PROVIDER", "anthropic")
	t.Setenv("PF_MODEL", "claude-haiku")
	t.Setenv("PF_TEMPERATURE", "0.3")
	t.Setenv("PF_TIMEOUT", "15s")
	t.Setenv("ANTHROPIC_API_KEY", "env-key")

	cfg, err := LoadConfig()
	require.NoError(t, err)

	assert.Equal(t, "anthropic", cfg.Provider)
	assert.Equal(t, "claude-haiku", cfg.Model)
	assert.InDelta(t, 0.3, cfg.Temperature, 1e-9)
	assert.Equal(t, 15*time.Second, cfg.Timeout)
	assert.Equal(t, "env-key", cfg.APIKeys["anthropic"])
}

func TestLoadConfigDefaultsWhenUnset(t *testing.T) {
	t.Setenv("PF_PROVIDER", "")
	t.Setenv("PF_MODEL", "")

	cfg, err := LoadConfig()
	require.NoError(t, err)
	assert.Equal(t, "openai", cfg.Provider)
	assert.Equal(t, "gpt-4o-mini", cfg.Model)
	assert.Equal(t, 3, cfg.MaxRetries)
}
