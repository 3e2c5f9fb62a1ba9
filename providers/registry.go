package providers

import (
	"fmt"
	"sort"
	"sync"
)

// ModelAlias maps a user-facing model name to the identifier a provider's
// API expects. Aliases are declared up front and validated when the registry
// resolves them, not at call time.
type ModelAlias struct {
	Provider string
	ModelID  string
}

var defaultModelAliases = map[string]ModelAlias{
	"gpt-4o":        {Provider: "openai", ModelID: "gpt-4o"},
	"gpt-4o-mini":   {Provider: "openai", ModelID: "gpt-4o-mini"},
	"gpt-4-turbo":   {Provider: "openai", ModelID: "gpt-4-turbo"},
	"claude-sonnet": {Provider: "anthropic", ModelID: "claude-3-5-sonnet-20241022"},
	"claude-haiku":  {Provider: "anthropic", ModelID: "claude-3-5-haiku-20241022"},
	"claude-opus":   {Provider: "anthropic", ModelID: "claude-3-opus-20240229"},
}

// Registry resolves provider names and model aliases to configured Provider
// instances. It is safe for concurrent use.
type Registry struct {
	mu           sync.RWMutex
	constructors map[string]ProviderConstructor
	aliases      map[string]ModelAlias
}

func NewRegistry() *Registry {
	r := &Registry{
		constructors: make(map[string]ProviderConstructor),
		aliases:      make(map[string]ModelAlias),
	}
	r.Register("openai", NewOpenAIProvider)
	r.Register("anthropic", NewAnthropicProvider)
	r.Register("mock", NewMockProvider)
	for name, alias := range defaultModelAliases {
		r.aliases[name] = alias
	}
	return r
}

func (r *Registry) Register(name string, constructor ProviderConstructor) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.constructors[name] = constructor
}

// RegisterAlias adds or overrides a model alias. Returns an error when the
// alias points at an unregistered provider, so bad configuration fails at
// setup rather than mid-run.
func (r *Registry) RegisterAlias(name string, alias ModelAlias) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.constructors[alias.Provider]; !ok {
		return fmt.Errorf("alias %q references unknown provider %q", name, alias.Provider)
	}
	r.aliases[name] = alias
	return nil
}

// ResolveModel maps a user-facing model name to its provider and API model
// identifier. Unaliased names pass through to the named default provider.
func (r *Registry) ResolveModel(name, defaultProvider string) (ModelAlias, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	if alias, ok := r.aliases[name]; ok {
		return alias, nil
	}
	if _, ok := r.constructors[defaultProvider]; !ok {
		return ModelAlias{}, fmt.Errorf("unknown provider: %s", defaultProvider)
	}
	return ModelAlias{Provider: defaultProvider, ModelID: name}, nil
}

// Get constructs a Provider for the given name.
func (r *Registry) Get(name, apiKey, model string, extraHeaders map[string]string) (Provider, error) {
	r.mu.RLock()
	constructor, ok := r.constructors[name]
	r.mu.RUnlock()
	if !ok {
		return nil, fmt.Errorf("unknown provider: %s", name)
	}
	return constructor(apiKey, model, extraHeaders), nil
}

// Known returns the registered provider names, sorted.
func (r *Registry) Known() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	names := make([]string, 0, len(r.constructors))
	for name := range r.constructors {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

var (
	defaultRegistry     *Registry
	defaultRegistryOnce sync.Once
)

// DefaultRegistry returns the process-wide registry with the built-in
// providers and model aliases.
func DefaultRegistry() *Registry {
	defaultRegistryOnce.Do(func() {
		defaultRegistry = NewRegistry()
	})
	return defaultRegistry
}
