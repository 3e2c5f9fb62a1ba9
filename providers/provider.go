// Package providers implements the HTTP request/response shaping for each
// supported text-generation backend.
package providers

import (
	"github.com/promptforge/promptforge/config"
	"github.com/promptforge/promptforge/utils"
)

// Provider shapes requests for and parses responses from one backend API.
// Implementations hold no per-request state and are safe for concurrent use
// once configured.
type Provider interface {
	Name() string
	Endpoint() string
	Headers() map[string]string

	// PrepareRequest builds the request body for a system prompt plus a
	// sequence of user messages.
	PrepareRequest(systemPrompt string, messages []string, options map[string]any) ([]byte, error)
	// PrepareRequestWithSchema additionally constrains the response to a
	// JSON schema, for backends that support structured output.
	PrepareRequestWithSchema(systemPrompt string, messages []string, options map[string]any, schema any) ([]byte, error)
	ParseResponse(body []byte) (string, error)

	SetDefaultOptions(cfg *config.Config)
	SetOption(key string, value any)
	SetLogger(logger utils.Logger)
	SupportsJSONSchema() bool
}

// ProviderConstructor builds a Provider from an API key, a resolved model
// identifier, and optional extra headers.
type ProviderConstructor func(apiKey, model string, extraHeaders map[string]string) Provider
