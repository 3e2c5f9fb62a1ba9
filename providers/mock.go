package providers

import (
	"encoding/json"
	"errors"
	"sync"

	"github.com/promptforge/promptforge/config"
	"github.com/promptforge/promptforge/utils"
)

// MockProvider implements the Provider interface for tests. Responses are
// served from a queue so multi-call flows can be scripted.
type MockProvider struct {
	mu           sync.Mutex
	model        string
	extraHeaders map[string]string
	options      map[string]any
	logger       utils.Logger

	responseText  string
	responses     []string
	currentIndex  int
	loopResponses bool
	err           error
}

func NewMockProvider(apiKey, model string, extraHeaders map[string]string) Provider {
	if extraHeaders == nil {
		extraHeaders = make(map[string]string)
	}
	return &MockProvider{
		model:        model,
		extraHeaders: extraHeaders,
		options:      make(map[string]any),
		logger:       utils.NewLogger(utils.LogLevelOff),
		responseText: "mock response",
	}
}

// SetMockResponse sets the default response returned when the queue is empty.
func (p *MockProvider) SetMockResponse(response string) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.responseText = response
}

// SetResponses scripts a sequence of responses. With loop set, the sequence
// repeats; otherwise exhausted calls fall back to the default response.
func (p *MockProvider) SetResponses(responses []string, loop bool) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.responses = responses
	p.currentIndex = 0
	p.loopResponses = loop
}

// SetMockError makes every call fail with the given message.
func (p *MockProvider) SetMockError(message string) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if message == "" {
		p.err = nil
		return
	}
	p.err = errors.New(message)
}

func (p *MockProvider) Name() string                     { return "mock" }
func (p *MockProvider) Endpoint() string                 { return "mock://generate" }
func (p *MockProvider) SupportsJSONSchema() bool         { return true }
func (p *MockProvider) SetLogger(logger utils.Logger)    { p.logger = logger }
func (p *MockProvider) SetDefaultOptions(*config.Config) {}
func (p *MockProvider) SetOption(key string, value any)  { p.options[key] = value }

func (p *MockProvider) Headers() map[string]string {
	headers := map[string]string{"Content-Type": "application/json"}
	for k, v := range p.extraHeaders {
		headers[k] = v
	}
	return headers
}

func (p *MockProvider) PrepareRequest(systemPrompt string, messages []string, options map[string]any) ([]byte, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.err != nil {
		return nil, p.err
	}
	return json.Marshal(map[string]any{
		"model":    p.model,
		"system":   systemPrompt,
		"messages": messages,
	})
}

func (p *MockProvider) PrepareRequestWithSchema(systemPrompt string, messages []string, options map[string]any, schema any) ([]byte, error) {
	return p.PrepareRequest(systemPrompt, messages, options)
}

// ParseResponse ignores the body and serves the next scripted response.
func (p *MockProvider) ParseResponse(body []byte) (string, error) {
	return p.NextResponse()
}

// NextResponse pops the next scripted response. Exposed so in-process fakes
// can bypass the HTTP layer entirely.
func (p *MockProvider) NextResponse() (string, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.err != nil {
		return "", p.err
	}
	if len(p.responses) == 0 {
		return p.responseText, nil
	}
	if p.currentIndex >= len(p.responses) {
		if !p.loopResponses {
			return p.responseText, nil
		}
		p.currentIndex = 0
	}
	response := p.responses[p.currentIndex]
	p.currentIndex++
	return response, nil
}
