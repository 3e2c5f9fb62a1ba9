// Package promptforge turns a natural-language prompt into an improved one
// by generating variants, scoring sampled model outputs with heuristic
// metrics, and iterating until targets are met, the budget runs out, or
// improvements diminish.
package promptforge

import (
	"context"
	"fmt"

	"github.com/promptforge/promptforge/config"
	"github.com/promptforge/promptforge/llm"
	"github.com/promptforge/promptforge/optimizer"
	"github.com/promptforge/promptforge/providers"
	"github.com/promptforge/promptforge/utils"
)

// Re-exported core types so callers only import the root package.
type (
	OptimizationConfig    = optimizer.OptimizationConfig
	OptimizationTargets   = optimizer.OptimizationTargets
	OptimizationResult    = optimizer.OptimizationResult
	OptimizationIteration = optimizer.OptimizationIteration
	EvaluationMetrics     = optimizer.EvaluationMetrics
	EvaluationReport      = optimizer.EvaluationReport
	PromptCandidate       = optimizer.PromptCandidate
	StopReason            = optimizer.StopReason
)

// Forge is the top-level handle: a configured generation client plus the
// optimization engine built on it.
type Forge struct {
	cfg      *config.Config
	client   *llm.Client
	engine   *optimizer.Engine
	registry *providers.Registry
	logger   utils.Logger
}

// Option configures a Forge beyond its config.Config.
type Option func(*forgeSetup)

type forgeSetup struct {
	logger      utils.Logger
	registry    *providers.Registry
	engineOpts  []optimizer.EngineOption
	useEstimate bool
}

func WithLogger(logger utils.Logger) Option {
	return func(s *forgeSetup) { s.logger = logger }
}

func WithRegistry(registry *providers.Registry) Option {
	return func(s *forgeSetup) { s.registry = registry }
}

// WithEngineOptions passes collaborator wiring (judge, evaluator, corpora)
// through to the engine.
func WithEngineOptions(opts ...optimizer.EngineOption) Option {
	return func(s *forgeSetup) { s.engineOpts = append(s.engineOpts, opts...) }
}

// WithCostEstimation prices iterations from token counts instead of
// requiring a fixed per-iteration cost.
func WithCostEstimation() Option {
	return func(s *forgeSetup) { s.useEstimate = true }
}

// New builds a Forge from the given config.
func New(cfg *config.Config, opts ...Option) (*Forge, error) {
	setup := &forgeSetup{}
	for _, opt := range opts {
		opt(setup)
	}
	if setup.logger == nil {
		setup.logger = utils.NewLogger(cfg.LogLevel)
	}
	if setup.registry == nil {
		setup.registry = providers.DefaultRegistry()
	}

	client, err := llm.NewClient(cfg, setup.logger, setup.registry)
	if err != nil {
		return nil, fmt.Errorf("failed to build generation client: %w", err)
	}

	engineOpts := append([]optimizer.EngineOption{
		optimizer.WithOptimizationTimeout(cfg.OptimizationTimeout),
	}, setup.engineOpts...)

	if setup.useEstimate {
		estimator, err := optimizer.NewCostEstimator(cfg.Model)
		if err != nil {
			return nil, fmt.Errorf("failed to build cost estimator: %w", err)
		}
		engineOpts = append(engineOpts, optimizer.WithEngineCostEstimator(estimator))
	}

	return &Forge{
		cfg:      cfg,
		client:   client,
		engine:   optimizer.NewEngine(client, setup.logger, engineOpts...),
		registry: setup.registry,
		logger:   setup.logger,
	}, nil
}

// NewFromEnv builds a Forge from environment configuration.
func NewFromEnv(opts ...Option) (*Forge, error) {
	cfg, err := config.LoadConfig()
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}
	return New(cfg, opts...)
}

// Optimize improves the original prompt, iteratively when the config sets
// targets or an iteration count, single-shot otherwise.
func (f *Forge) Optimize(ctx context.Context, original string, cfg OptimizationConfig) (*OptimizationResult, error) {
	return f.engine.Optimize(ctx, original, cfg)
}

// EvaluateWithModels samples the optimized content on each named model in
// parallel and reports per-model and aggregate output metrics.
func (f *Forge) EvaluateWithModels(ctx context.Context, original, optimized string, models []string) (*EvaluationReport, error) {
	factory := func(model string) (llm.LLM, error) {
		cfg := *f.cfg
		cfg.Model = model
		return llm.NewClient(&cfg, f.logger, f.registry)
	}
	evaluator := optimizer.NewModelEvaluator(factory, f.logger, 3, f.cfg.Timeout)
	return evaluator.EvaluateWithModels(ctx, original, optimized, models)
}

// Logger exposes the Forge's logger for callers wiring their own components.
func (f *Forge) Logger() utils.Logger { return f.logger }

// Client exposes the underlying generation client.
func (f *Forge) Client() *llm.Client { return f.client }
