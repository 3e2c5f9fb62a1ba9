package providers

import (
	"encoding/json"
	"fmt"

	"github.com/promptforge/promptforge/config"
	"github.com/promptforge/promptforge/utils"
)

// AnthropicProvider implements the Provider interface for Anthropic's
// messages API.
type AnthropicProvider struct {
	apiKey       string
	model        string
	extraHeaders map[string]string
	options      map[string]any
	logger       utils.Logger
}

func NewAnthropicProvider(apiKey, model string, extraHeaders map[string]string) Provider {
	if extraHeaders == nil {
		extraHeaders = make(map[string]string)
	}
	return &AnthropicProvider{
		apiKey:       apiKey,
		model:        model,
		extraHeaders: extraHeaders,
		options:      make(map[string]any),
		logger:       utils.NewLogger(utils.LogLevelWarn),
	}
}

func (p *AnthropicProvider) Name() string     { return "anthropic" }
func (p *AnthropicProvider) Endpoint() string { return "https://api.anthropic.com/v1/messages" }

// Anthropic has no native JSON-schema response mode; the caller embeds the
// schema in the prompt instead.
func (p *AnthropicProvider) SupportsJSONSchema() bool { return false }

func (p *AnthropicProvider) SetLogger(logger utils.Logger) { p.logger = logger }

func (p *AnthropicProvider) SetOption(key string, value any) {
	p.options[key] = value
}

func (p *AnthropicProvider) SetDefaultOptions(cfg *config.Config) {
	p.SetOption("temperature", cfg.Temperature)
	p.SetOption("max_tokens", cfg.MaxTokens)
}

func (p *AnthropicProvider) Headers() map[string]string {
	headers := map[string]string{
		"Content-Type":      "application/json",
		"x-api-key":         p.apiKey,
		"anthropic-version": "2023-06-01",
	}
	for key, value := range p.extraHeaders {
		headers[key] = value
	}
	return headers
}

func (p *AnthropicProvider) PrepareRequest(systemPrompt string, messages []string, options map[string]any) ([]byte, error) {
	userMessages := make([]map[string]string, 0, len(messages))
	for _, msg := range messages {
		userMessages = append(userMessages, map[string]string{"role": "user", "content": msg})
	}

	request := map[string]any{
		"model":    p.model,
		"messages": userMessages,
	}
	if systemPrompt != "" {
		request["system"] = systemPrompt
	}
	for k, v := range p.options {
		request[k] = v
	}
	for k, v := range options {
		request[k] = v
	}
	if _, ok := request["max_tokens"]; !ok {
		request["max_tokens"] = 1024 // required by the messages API
	}
	return json.Marshal(request)
}

func (p *AnthropicProvider) PrepareRequestWithSchema(systemPrompt string, messages []string, options map[string]any, schema any) ([]byte, error) {
	return p.PrepareRequest(systemPrompt, messages, options)
}

func (p *AnthropicProvider) ParseResponse(body []byte) (string, error) {
	var response struct {
		Content []struct {
			Type string `json:"type"`
			Text string `json:"text"`
		} `json:"content"`
		Error *struct {
			Message string `json:"message"`
		} `json:"error"`
	}
	if err := json.Unmarshal(body, &response); err != nil {
		return "", fmt.Errorf("failed to parse anthropic response: %w", err)
	}
	if response.Error != nil {
		return "", fmt.Errorf("anthropic API error: %s", response.Error.Message)
	}
	for _, block := range response.Content {
		if block.Type == "text" {
			return block.Text, nil
		}
	}
	return "", fmt.Errorf("no text content in anthropic response")
}
