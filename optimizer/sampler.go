package optimizer

import (
	"context"
	"fmt"
	"time"

	"github.com/promptforge/promptforge/llm"
	"github.com/promptforge/promptforge/utils"
)

// DefaultSampleTimeout bounds each individual sampling call.
const DefaultSampleTimeout = 30 * time.Second

// SampleResult is one drawn output. A failed call carries an error string
// instead of text so the batch keeps its shape.
type SampleResult struct {
	Text string
	Err  string
}

// ResponseSampler draws repeated outputs for a prompt from the generation
// capability, each call individually time-bounded.
type ResponseSampler struct {
	llm     llm.LLM
	logger  utils.Logger
	timeout time.Duration
}

func NewResponseSampler(client llm.LLM, logger utils.Logger, timeout time.Duration) *ResponseSampler {
	if timeout <= 0 {
		timeout = DefaultSampleTimeout
	}
	return &ResponseSampler{
		llm:     client,
		logger:  logger,
		timeout: timeout,
	}
}

// Sample draws count outputs for the prompt. A timed-out or failed call
// degrades to a sentinel error entry rather than aborting the batch.
func (s *ResponseSampler) Sample(ctx context.Context, prompt string, count int) []SampleResult {
	results := make([]SampleResult, 0, count)
	for i := 0; i < count; i++ {
		callCtx, cancel := context.WithTimeout(ctx, s.timeout)
		text, err := s.llm.Generate(callCtx, llm.NewPrompt(prompt))
		cancel()

		if err != nil {
			s.logger.Warn("sample call failed", "index", i, "error", err)
			results = append(results, SampleResult{Err: fmt.Sprintf("generation failed: %v", err)})
			continue
		}
		results = append(results, SampleResult{Text: text})
	}
	return results
}

// Texts returns the successful sample texts in order.
func Texts(results []SampleResult) []string {
	texts := make([]string, 0, len(results))
	for _, r := range results {
		if r.Err == "" {
			texts = append(texts, r.Text)
		}
	}
	return texts
}
