package optimizer

import (
	"context"
	"errors"
	"strings"
	"sync"

	"github.com/promptforge/promptforge/llm"
	"github.com/promptforge/promptforge/utils"
)

// fakeLLM is a scripted in-process stand-in for the generation capability.
// Responses are served in order; failWhen can fail calls whose rendered
// prompt contains a marker.
type fakeLLM struct {
	mu        sync.Mutex
	responses []string
	idx       int
	failWhen  string
	failErr   error
	calls     []string
}

func newFakeLLM(responses ...string) *fakeLLM {
	return &fakeLLM{responses: responses}
}

func (f *fakeLLM) Generate(ctx context.Context, prompt *llm.Prompt) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	f.mu.Lock()
	defer f.mu.Unlock()

	rendered := prompt.SystemPrompt + "\n" + prompt.String()
	f.calls = append(f.calls, rendered)

	if f.failWhen != "" && strings.Contains(rendered, f.failWhen) {
		if f.failErr != nil {
			return "", f.failErr
		}
		return "", errors.New("scripted failure")
	}
	if f.idx >= len(f.responses) {
		if len(f.responses) == 0 {
			return "fake response", nil
		}
		return f.responses[len(f.responses)-1], nil
	}
	response := f.responses[f.idx]
	f.idx++
	return response, nil
}

func (f *fakeLLM) GenerateWithSchema(ctx context.Context, prompt *llm.Prompt, schema any) (string, error) {
	return f.Generate(ctx, prompt)
}

func (f *fakeLLM) SupportsJSONSchema() bool { return true }

func (f *fakeLLM) GetLogger() utils.Logger { return utils.NewLogger(utils.LogLevelOff) }

func (f *fakeLLM) callCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.calls)
}

// scriptedEvaluator serves a fixed sequence of evaluations, repeating the
// last one when exhausted.
type scriptedEvaluator struct {
	mu          sync.Mutex
	evaluations []Evaluation
	idx         int
	err         error
}

func (s *scriptedEvaluator) Evaluate(ctx context.Context, original, optimized string) (Evaluation, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.err != nil {
		return Evaluation{}, s.err
	}
	if len(s.evaluations) == 0 {
		return fallbackEvaluation, nil
	}
	if s.idx >= len(s.evaluations) {
		return s.evaluations[len(s.evaluations)-1], nil
	}
	evaluation := s.evaluations[s.idx]
	s.idx++
	return evaluation, nil
}

// fixedJudge scores every response the same.
type fixedJudge struct {
	score float64
	err   error
}

func (j fixedJudge) Score(ctx context.Context, input, response string) (float64, error) {
	return j.score, j.err
}

// slowThenFastLLM stalls any call made under a deadline until that deadline
// fires, and delegates deadline-free calls to the inner client. It simulates
// a provider that is too slow for the bounded iterative path while the fast
// path still works.
type slowThenFastLLM struct {
	inner *fakeLLM
}

func (s *slowThenFastLLM) Generate(ctx context.Context, prompt *llm.Prompt) (string, error) {
	if _, ok := ctx.Deadline(); ok {
		<-ctx.Done()
		return "", ctx.Err()
	}
	return s.inner.Generate(ctx, prompt)
}

func (s *slowThenFastLLM) GenerateWithSchema(ctx context.Context, prompt *llm.Prompt, schema any) (string, error) {
	return s.Generate(ctx, prompt)
}

func (s *slowThenFastLLM) SupportsJSONSchema() bool { return true }

func (s *slowThenFastLLM) GetLogger() utils.Logger { return utils.NewLogger(utils.LogLevelOff) }

func floatPtr(v float64) *float64 { return &v }

func evalWith(overall, improvement float64) Evaluation {
	return Evaluation{
		Before: Scores{Overall: 0.5},
		After: Scores{
			Overall:             overall,
			ResponseQuality:     overall,
			StructureCompliance: overall,
			HallucinationRate:   0.2,
			PassRate:            overall,
		},
		Improvement: improvement,
	}
}

func testLogger() utils.Logger { return utils.NewLogger(utils.LogLevelOff) }
