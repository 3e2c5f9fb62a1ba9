package optimizer

import (
	"context"
	"time"

	"golang.org/x/sync/errgroup"
	"golang.org/x/time/rate"

	"github.com/promptforge/promptforge/llm"
	"github.com/promptforge/promptforge/utils"
)

// ModelEvaluation is one model's metric verdict. A failed model carries
// zero-valued metrics and an error string instead of aborting the batch.
type ModelEvaluation struct {
	Model   string            `json:"model"`
	Metrics EvaluationMetrics `json:"metrics"`
	Err     string            `json:"error,omitempty"`

	sampleTexts []string
}

// EvaluationReport is the cross-model comparison of original vs optimized
// content.
type EvaluationReport struct {
	Original  string                     `json:"original"`
	Optimized string                     `json:"optimized"`
	PerModel  map[string]ModelEvaluation `json:"perModel"`
	Aggregate EvaluationMetrics          `json:"aggregate"`
}

// ClientFactory builds a generation client for a named model.
type ClientFactory func(model string) (llm.LLM, error)

// ModelEvaluator samples the optimized content on several models in
// parallel and computes the heuristic output metrics per model. Fan-out is
// rate-limited to respect provider limits.
type ModelEvaluator struct {
	factory     ClientFactory
	logger      utils.Logger
	limiter     *rate.Limiter
	sampleCount int
	callTimeout time.Duration
}

func NewModelEvaluator(factory ClientFactory, logger utils.Logger, sampleCount int, callTimeout time.Duration) *ModelEvaluator {
	if sampleCount <= 0 {
		sampleCount = 3
	}
	if callTimeout <= 0 {
		callTimeout = DefaultSampleTimeout
	}
	return &ModelEvaluator{
		factory:     factory,
		logger:      logger,
		limiter:     rate.NewLimiter(rate.Every(time.Second), 2),
		sampleCount: sampleCount,
		callTimeout: callTimeout,
	}
}

// SetRateLimit adjusts the fan-out rate limiter.
func (e *ModelEvaluator) SetRateLimit(r rate.Limit, burst int) {
	e.limiter = rate.NewLimiter(r, burst)
}

// EvaluateWithModels fans out all models in parallel and fans their results
// back in. Individual model failures degrade to zero-valued metrics; the
// report itself always comes back.
func (e *ModelEvaluator) EvaluateWithModels(ctx context.Context, original, optimized string, models []string) (*EvaluationReport, error) {
	results := make([]ModelEvaluation, len(models))

	g, gctx := errgroup.WithContext(ctx)
	for i, model := range models {
		i, model := i, model
		g.Go(func() error {
			results[i] = e.evaluateModel(gctx, optimized, model)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	report := &EvaluationReport{
		Original:  original,
		Optimized: optimized,
		PerModel:  make(map[string]ModelEvaluation, len(results)),
	}
	var allSamples []string
	for _, result := range results {
		report.PerModel[result.Model] = result
		if result.Err == "" {
			allSamples = append(allSamples, result.sampleTexts...)
		}
	}
	report.Aggregate = ComputeMetrics(allSamples)
	return report, nil
}

// evaluateModel draws samples on one model and computes its metrics.
func (e *ModelEvaluator) evaluateModel(ctx context.Context, content, model string) ModelEvaluation {
	evaluation := ModelEvaluation{Model: model}

	if err := e.limiter.Wait(ctx); err != nil {
		evaluation.Err = "rate limiter wait cancelled: " + err.Error()
		return evaluation
	}

	client, err := e.factory(model)
	if err != nil {
		e.logger.Warn("failed to build client for model", "model", model, "error", err)
		evaluation.Err = "client construction failed: " + err.Error()
		return evaluation
	}

	sampler := NewResponseSampler(client, e.logger, e.callTimeout)
	samples := sampler.Sample(ctx, content, e.sampleCount)
	texts := Texts(samples)
	if len(texts) == 0 {
		evaluation.Err = firstError(samples)
		return evaluation
	}

	evaluation.Metrics = ComputeMetrics(texts)
	evaluation.sampleTexts = texts
	return evaluation
}

func firstError(samples []SampleResult) string {
	for _, s := range samples {
		if s.Err != "" {
			return s.Err
		}
	}
	return "no samples produced"
}
