package providers

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestResolveModelAlias(t *testing.T) {
	registry := NewRegistry()

	alias, err := registry.ResolveModel("claude-sonnet", "openai")
	require.NoError(t, err)
	assert.Equal(t, "anthropic", alias.Provider)
	assert.Equal(t, "claude-3-5-sonnet-20241022", alias.ModelID)

	alias, err = registry.ResolveModel("gpt-4o", "anthropic")
	require.NoError(t, err)
	assert.Equal(t, "openai", alias.Provider, "an alias wins over the default provider")
}

func TestResolveModelPassThrough(t *testing.T) {
	registry := NewRegistry()

	alias, err := registry.ResolveModel("my-finetune-v2", "openai")
	require.NoError(t, err)
	assert.Equal(t, ModelAlias{Provider: "openai", ModelID: "my-finetune-v2"}, alias)
}

func TestResolveModelUnknownProvider(t *testing.T) {
	registry := NewRegistry()

	_, err := registry.ResolveModel("my-finetune-v2", "nonexistent")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unknown provider")
}

func TestRegisterAliasValidatesProvider(t *testing.T) {
	registry := NewRegistry()

	err := registry.RegisterAlias("fast-model", ModelAlias{Provider: "nonexistent", ModelID: "x"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unknown provider")

	require.NoError(t, registry.RegisterAlias("fast-model", ModelAlias{Provider: "mock", ModelID: "mock-fast"}))
	alias, err := registry.ResolveModel("fast-model", "openai")
	require.NoError(t, err)
	assert.Equal(t, "mock", alias.Provider)
}

func TestRegisterAliasOverridesDefault(t *testing.T) {
	registry := NewRegistry()

	require.NoError(t, registry.RegisterAlias("gpt-4o", ModelAlias{Provider: "mock", ModelID: "gpt-4o"}))
	alias, err := registry.ResolveModel("gpt-4o", "openai")
	require.NoError(t, err)
	assert.Equal(t, "mock", alias.Provider)
}

func TestKnownIsSorted(t *testing.T) {
	registry := NewRegistry()
	assert.Equal(t, []string{"anthropic", "mock", "openai"}, registry.Known())
}

func TestGetUnknownProvider(t *testing.T) {
	registry := NewRegistry()
	_, err := registry.Get("nonexistent", "key", "model", nil)
	require.Error(t, err)
}

func TestGetConstructsProvider(t *testing.T) {
	registry := NewRegistry()
	provider, err := registry.Get("mock", "", "mock-model", nil)
	require.NoError(t, err)
	assert.Equal(t, "mock", provider.Name())
}
