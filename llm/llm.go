// Package llm provides a retrying, timeout-bounded client over the provider
// abstraction in package providers.
package llm

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/promptforge/promptforge/config"
	"github.com/promptforge/promptforge/providers"
	"github.com/promptforge/promptforge/utils"
)

// LLM is the text-generation capability the optimization engine consumes.
// Implementations must be safe for concurrent use; the engine fans calls out
// across goroutines.
type LLM interface {
	Generate(ctx context.Context, prompt *Prompt) (string, error)
	GenerateWithSchema(ctx context.Context, prompt *Prompt, schema any) (string, error)
	SupportsJSONSchema() bool
	GetLogger() utils.Logger
}

// Client implements LLM over an HTTP provider with bounded retries. Each
// attempt is individually limited by the configured per-call timeout.
type Client struct {
	provider   providers.Provider
	httpClient *http.Client
	logger     utils.Logger
	cfg        *config.Config
	maxRetries int
	retryDelay time.Duration
}

// NewClient resolves the configured provider from the registry and builds a
// client around it.
func NewClient(cfg *config.Config, logger utils.Logger, registry *providers.Registry) (*Client, error) {
	alias, err := registry.ResolveModel(cfg.Model, cfg.Provider)
	if err != nil {
		return nil, err
	}
	provider, err := registry.Get(alias.Provider, cfg.APIKeys[alias.Provider], alias.ModelID, cfg.ExtraHeaders)
	if err != nil {
		return nil, err
	}
	provider.SetDefaultOptions(cfg)
	provider.SetLogger(logger)

	return &Client{
		provider:   provider,
		httpClient: &http.Client{Timeout: cfg.Timeout},
		logger:     logger,
		cfg:        cfg,
		maxRetries: cfg.MaxRetries,
		retryDelay: cfg.RetryDelay,
	}, nil
}

// NewClientWithProvider builds a client around an already-constructed
// provider. Tests use this with providers.MockProvider.
func NewClientWithProvider(cfg *config.Config, logger utils.Logger, provider providers.Provider) *Client {
	return &Client{
		provider:   provider,
		httpClient: &http.Client{Timeout: cfg.Timeout},
		logger:     logger,
		cfg:        cfg,
		maxRetries: cfg.MaxRetries,
		retryDelay: cfg.RetryDelay,
	}
}

func (c *Client) GetLogger() utils.Logger { return c.logger }

func (c *Client) SupportsJSONSchema() bool { return c.provider.SupportsJSONSchema() }

func (c *Client) callOptions(prompt *Prompt) map[string]any {
	options := make(map[string]any)
	if prompt.Temperature != nil {
		options["temperature"] = *prompt.Temperature
	}
	if prompt.MaxTokens != nil {
		options["max_tokens"] = *prompt.MaxTokens
	}
	return options
}

func (c *Client) Generate(ctx context.Context, prompt *Prompt) (string, error) {
	var lastErr error
	for attempt := 0; attempt <= c.maxRetries; attempt++ {
		c.logger.Debug("generating text", "provider", c.provider.Name(), "attempt", attempt+1)

		result, err := c.attempt(ctx, prompt, nil)
		if err == nil {
			return result, nil
		}
		lastErr = err

		c.logger.Warn("generation attempt failed", "error", err, "attempt", attempt+1)
		if attempt < c.maxRetries {
			if err := c.wait(ctx); err != nil {
				return "", err
			}
		}
	}
	return "", fmt.Errorf("failed to generate after %d attempts: %w", c.maxRetries+1, lastErr)
}

func (c *Client) GenerateWithSchema(ctx context.Context, prompt *Prompt, schema any) (string, error) {
	var lastErr error
	for attempt := 0; attempt <= c.maxRetries; attempt++ {
		c.logger.Debug("generating with schema", "provider", c.provider.Name(), "attempt", attempt+1)

		result, err := c.attempt(ctx, prompt, schema)
		if err == nil {
			return result, nil
		}
		lastErr = err

		c.logger.Warn("schema generation attempt failed", "error", err, "attempt", attempt+1)
		if attempt < c.maxRetries {
			if err := c.wait(ctx); err != nil {
				return "", err
			}
		}
	}
	return "", fmt.Errorf("failed to generate with schema after %d attempts: %w", c.maxRetries+1, lastErr)
}

func (c *Client) wait(ctx context.Context) error {
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-time.After(c.retryDelay):
		return nil
	}
}

func (c *Client) attempt(ctx context.Context, prompt *Prompt, schema any) (string, error) {
	options := c.callOptions(prompt)
	messages := []string{prompt.String()}

	var reqBody []byte
	var err error
	switch {
	case schema == nil:
		reqBody, err = c.provider.PrepareRequest(prompt.SystemPrompt, messages, options)
	case c.provider.SupportsJSONSchema():
		reqBody, err = c.provider.PrepareRequestWithSchema(prompt.SystemPrompt, messages, options, schema)
	default:
		messages = []string{appendSchemaHint(prompt.String(), schema)}
		reqBody, err = c.provider.PrepareRequest(prompt.SystemPrompt, messages, options)
	}
	if err != nil {
		return "", NewGenerationError(ErrorTypeRequest, "failed to prepare request", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.provider.Endpoint(), bytes.NewReader(reqBody))
	if err != nil {
		return "", NewGenerationError(ErrorTypeRequest, "failed to create request", err)
	}
	for k, v := range c.provider.Headers() {
		req.Header.Set(k, v)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) || isHTTPTimeout(err) {
			return "", NewGenerationError(ErrorTypeTimeout, "generation call timed out", err)
		}
		return "", NewGenerationError(ErrorTypeRequest, "failed to send request", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", NewGenerationError(ErrorTypeResponse, "failed to read response body", err)
	}

	if resp.StatusCode != http.StatusOK {
		c.logger.Error("API error", "provider", c.provider.Name(), "status", resp.StatusCode)
		return "", NewGenerationError(ErrorTypeAPI, fmt.Sprintf("API error: status code %d", resp.StatusCode), nil)
	}

	result, err := c.provider.ParseResponse(body)
	if err != nil {
		return "", NewGenerationError(ErrorTypeResponse, "failed to parse response", err)
	}
	return result, nil
}

func isHTTPTimeout(err error) bool {
	var netErr interface{ Timeout() bool }
	return errors.As(err, &netErr) && netErr.Timeout()
}
