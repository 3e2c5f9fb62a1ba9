package llm

import "strings"

// Prompt is a structured request to a text-generation backend. The zero
// value is unusable; build one with NewPrompt.
type Prompt struct {
	Input        string
	SystemPrompt string
	Directives   []string
	Output       string

	// Per-call overrides; nil falls through to the configured defaults.
	Temperature *float64
	MaxTokens   *int
}

func NewPrompt(input string) *Prompt {
	return &Prompt{Input: input}
}

// WithSystemPrompt sets the system instruction for this prompt.
func (p *Prompt) WithSystemPrompt(system string) *Prompt {
	p.SystemPrompt = system
	return p
}

// WithDirective appends a directive rendered ahead of the input.
func (p *Prompt) WithDirective(directive string) *Prompt {
	p.Directives = append(p.Directives, directive)
	return p
}

// WithOutput appends an output specification after the input.
func (p *Prompt) WithOutput(output string) *Prompt {
	p.Output = output
	return p
}

// WithTemperature overrides the sampling temperature for this call only.
func (p *Prompt) WithTemperature(temperature float64) *Prompt {
	p.Temperature = &temperature
	return p
}

// WithMaxTokens overrides the completion budget for this call only.
func (p *Prompt) WithMaxTokens(maxTokens int) *Prompt {
	p.MaxTokens = &maxTokens
	return p
}

// String renders the prompt as a single user message.
func (p *Prompt) String() string {
	var sb strings.Builder

	if len(p.Directives) > 0 {
		sb.WriteString("Directives:\n")
		for _, d := range p.Directives {
			sb.WriteString("- ")
			sb.WriteString(d)
			sb.WriteString("\n")
		}
		sb.WriteString("\n")
	}

	sb.WriteString(p.Input)

	if p.Output != "" {
		sb.WriteString("\n\n")
		sb.WriteString(p.Output)
	}

	return sb.String()
}
