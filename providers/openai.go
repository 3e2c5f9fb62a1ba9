package providers

import (
	"encoding/json"
	"fmt"

	"github.com/promptforge/promptforge/config"
	"github.com/promptforge/promptforge/utils"
)

// OpenAIProvider implements the Provider interface for OpenAI's chat
// completions API. It also serves OpenAI-compatible endpoints.
type OpenAIProvider struct {
	apiKey       string
	model        string
	extraHeaders map[string]string
	options      map[string]any
	logger       utils.Logger
}

func NewOpenAIProvider(apiKey, model string, extraHeaders map[string]string) Provider {
	if extraHeaders == nil {
		extraHeaders = make(map[string]string)
	}
	return &OpenAIProvider{
		apiKey:       apiKey,
		model:        model,
		extraHeaders: extraHeaders,
		options:      make(map[string]any),
		logger:       utils.NewLogger(utils.LogLevelWarn),
	}
}

func (p *OpenAIProvider) Name() string     { return "openai" }
func (p *OpenAIProvider) Endpoint() string { return "https://api.openai.com/v1/chat/completions" }

func (p *OpenAIProvider) SupportsJSONSchema() bool { return true }

func (p *OpenAIProvider) SetLogger(logger utils.Logger) { p.logger = logger }

func (p *OpenAIProvider) SetOption(key string, value any) {
	p.options[key] = value
}

func (p *OpenAIProvider) SetDefaultOptions(cfg *config.Config) {
	p.SetOption("temperature", cfg.Temperature)
	p.SetOption("max_tokens", cfg.MaxTokens)
}

func (p *OpenAIProvider) Headers() map[string]string {
	headers := map[string]string{
		"Content-Type":  "application/json",
		"Authorization": "Bearer " + p.apiKey,
	}
	for key, value := range p.extraHeaders {
		headers[key] = value
	}
	return headers
}

func (p *OpenAIProvider) buildMessages(systemPrompt string, messages []string) []map[string]string {
	out := make([]map[string]string, 0, len(messages)+1)
	if systemPrompt != "" {
		out = append(out, map[string]string{"role": "system", "content": systemPrompt})
	}
	for _, msg := range messages {
		out = append(out, map[string]string{"role": "user", "content": msg})
	}
	return out
}

func (p *OpenAIProvider) PrepareRequest(systemPrompt string, messages []string, options map[string]any) ([]byte, error) {
	request := map[string]any{
		"model":    p.model,
		"messages": p.buildMessages(systemPrompt, messages),
	}
	for k, v := range p.options {
		request[k] = v
	}
	for k, v := range options {
		request[k] = v
	}
	return json.Marshal(request)
}

func (p *OpenAIProvider) PrepareRequestWithSchema(systemPrompt string, messages []string, options map[string]any, schema any) ([]byte, error) {
	request := map[string]any{
		"model":    p.model,
		"messages": p.buildMessages(systemPrompt, messages),
		"response_format": map[string]any{
			"type": "json_schema",
			"json_schema": map[string]any{
				"name":   "response",
				"schema": schema,
			},
		},
	}
	for k, v := range p.options {
		request[k] = v
	}
	for k, v := range options {
		request[k] = v
	}
	return json.Marshal(request)
}

func (p *OpenAIProvider) ParseResponse(body []byte) (string, error) {
	var response struct {
		Choices []struct {
			Message struct {
				Content string `json:"content"`
			} `json:"message"`
		} `json:"choices"`
		Error *struct {
			Message string `json:"message"`
		} `json:"error"`
	}
	if err := json.Unmarshal(body, &response); err != nil {
		return "", fmt.Errorf("failed to parse openai response: %w", err)
	}
	if response.Error != nil {
		return "", fmt.Errorf("openai API error: %s", response.Error.Message)
	}
	if len(response.Choices) == 0 {
		return "", fmt.Errorf("empty response from openai")
	}
	return response.Choices[0].Message.Content, nil
}
