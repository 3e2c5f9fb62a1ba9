package optimizer

import (
	"context"
)

// Judge scores how well a response answers its input, in [0,1].
type Judge interface {
	Score(ctx context.Context, input, response string) (float64, error)
}

// Evaluation is the before/after verdict from the external scoring
// capability for one optimization step.
type Evaluation struct {
	Before      Scores
	After       Scores
	Improvement float64 // signed percentage
	TestCases   []TestResult
	Metrics     *EvaluationMetrics
}

// Evaluator scores optimized content against the original configuration.
type Evaluator interface {
	Evaluate(ctx context.Context, original, optimized string) (Evaluation, error)
}

// TestCorpus supplies domain test inputs for candidate scoring.
type TestCorpus interface {
	SampleInputs(ctx context.Context, domain string, count int) ([]string, error)
}

// DomainPatterns is previously-observed prompt knowledge for one domain.
type DomainPatterns struct {
	CommonPatterns       []string
	SuccessfulPrompts    []string
	RecommendedStructure string
}

// PatternCorpus supplies exemplar patterns for the exemplar-guided
// generation technique.
type PatternCorpus interface {
	Patterns(ctx context.Context, domain string) (DomainPatterns, error)
}

// fallbackEvaluation is the fixed verdict used when no Evaluator is wired or
// the wired one fails. The values are deliberately constant so retries are
// reproducible: a modest, below-target improvement that never satisfies
// targets on its own.
var fallbackEvaluation = Evaluation{
	Before: Scores{
		Overall:             0.50,
		ResponseQuality:     0.50,
		StructureCompliance: 0.50,
		HallucinationRate:   0.30,
		PassRate:            0.50,
	},
	After: Scores{
		Overall:             0.55,
		ResponseQuality:     0.55,
		StructureCompliance: 0.55,
		HallucinationRate:   0.25,
		PassRate:            0.55,
	},
	Improvement: 5.0,
}

// FixedEvaluator always returns the same Evaluation. It is the deterministic
// stand-in for the external scoring capability.
type FixedEvaluator struct {
	Result Evaluation
}

func (f *FixedEvaluator) Evaluate(ctx context.Context, original, optimized string) (Evaluation, error) {
	return f.Result, nil
}

// staticCorpus serves a fixed set of generic test inputs when no domain
// corpus is wired.
type staticCorpus struct{}

var genericInputs = []string{
	"Summarize the key points of the attached document.",
	"Explain this concept to someone new to the field.",
	"List the main risks and how to mitigate each one.",
	"Draft a short response to the customer complaint below.",
	"Compare the two options and recommend one.",
}

func (staticCorpus) SampleInputs(ctx context.Context, domain string, count int) ([]string, error) {
	if count > len(genericInputs) {
		count = len(genericInputs)
	}
	return genericInputs[:count], nil
}

// heuristicJudge scores responses with the package's own output metrics when
// no external judge is wired. Quality here is structure minus hallucination
// risk, so it is deterministic for a given response.
type heuristicJudge struct{}

func (heuristicJudge) Score(ctx context.Context, input, response string) (float64, error) {
	samples := []string{response}
	score := 0.6*StructureScore(samples) + 0.4*(1-HallucinationRate(samples))
	return clamp01(score), nil
}
