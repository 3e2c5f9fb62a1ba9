package optimizer

import (
	"context"
	"errors"
	"time"

	"github.com/promptforge/promptforge/llm"
	"github.com/promptforge/promptforge/utils"
)

// DefaultOptimizationTimeout bounds a whole advanced optimization request.
const DefaultOptimizationTimeout = 60 * time.Second

// Engine wires the candidate generator, selector, and iteration controller
// behind one Optimize entry point. All collaborators are injected; the
// engine holds no global state and is safe for concurrent use.
type Engine struct {
	llm       llm.LLM
	logger    utils.Logger
	judge     Judge
	evaluator Evaluator
	corpus    TestCorpus
	patterns  PatternCorpus
	debug     *utils.DebugManager
	estimator *CostEstimator

	optimizationTimeout time.Duration
	callback            IterationCallback
}

type EngineOption func(*Engine)

func WithJudge(judge Judge) EngineOption {
	return func(e *Engine) { e.judge = judge }
}

func WithEvaluator(evaluator Evaluator) EngineOption {
	return func(e *Engine) { e.evaluator = evaluator }
}

func WithTestCorpus(corpus TestCorpus) EngineOption {
	return func(e *Engine) { e.corpus = corpus }
}

func WithPatterns(patterns PatternCorpus) EngineOption {
	return func(e *Engine) { e.patterns = patterns }
}

func WithEngineDebug(debug *utils.DebugManager) EngineOption {
	return func(e *Engine) { e.debug = debug }
}

func WithEngineCostEstimator(estimator *CostEstimator) EngineOption {
	return func(e *Engine) { e.estimator = estimator }
}

func WithOptimizationTimeout(timeout time.Duration) EngineOption {
	return func(e *Engine) {
		if timeout > 0 {
			e.optimizationTimeout = timeout
		}
	}
}

func WithEngineIterationCallback(callback IterationCallback) EngineOption {
	return func(e *Engine) { e.callback = callback }
}

func NewEngine(client llm.LLM, logger utils.Logger, opts ...EngineOption) *Engine {
	e := &Engine{
		llm:                 client,
		logger:              logger,
		optimizationTimeout: DefaultOptimizationTimeout,
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Optimize improves the original prompt. With targets or an explicit
// iteration count it runs the iterative controller under the top-level
// timeout, falling back to the fast single-shot path when that timeout
// expires; otherwise it runs the single-shot path directly. It never
// returns an error for degraded collaborators; every failure path yields a
// usable result.
func (e *Engine) Optimize(ctx context.Context, original string, cfg OptimizationConfig) (*OptimizationResult, error) {
	iterative := cfg.Iterative()
	cfg = cfg.withDefaults()

	if !iterative {
		return e.optimizeSingleShot(ctx, original, cfg), nil
	}

	runCtx, cancel := context.WithTimeout(ctx, e.optimizationTimeout)
	defer cancel()

	outcome, err := e.runIterative(runCtx, original, cfg)
	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) && ctx.Err() == nil {
			// The advanced path ran out of time but the caller has not
			// cancelled: fall back to the fast path, keeping any history.
			e.logger.Warn("iterative optimization timed out, falling back to single-shot path")
			result := e.optimizeSingleShot(ctx, original, cfg)
			if outcome != nil {
				result.IterationHistory = outcome.History
			}
			return result, nil
		}
		// Caller cancellation: best-effort partial result.
		return AssembleResult(original, outcome), err
	}
	return AssembleResult(original, outcome), nil
}

func (e *Engine) runIterative(ctx context.Context, original string, cfg OptimizationConfig) (*RunOutcome, error) {
	opts := []ControllerOption{
		WithTargets(cfg.Targets),
		WithBudget(cfg.Budget),
		WithCostPerIteration(cfg.CostPerIteration),
		WithMaxIterations(cfg.MaxIterations),
		WithDiminishingReturnsThreshold(cfg.DiminishingReturnsThreshold),
	}
	if e.estimator != nil {
		opts = append(opts, WithCostEstimator(e.estimator))
	}
	if e.debug != nil {
		opts = append(opts, WithDebugManager(e.debug))
	}
	if e.callback != nil {
		opts = append(opts, WithIterationCallback(e.callback))
	}

	controller := NewIterationController(e.llm, e.evaluator, e.logger, opts...)
	return controller.Run(ctx, original)
}

// optimizeSingleShot generates candidates with all three techniques, scores
// them, and selects the best. Collaborator failures degrade; an empty
// candidate set falls back to the original prompt.
func (e *Engine) optimizeSingleShot(ctx context.Context, original string, cfg OptimizationConfig) *OptimizationResult {
	genOpts := []GeneratorOption{WithExemplarCount(cfg.ExemplarCount)}
	if e.patterns != nil {
		genOpts = append(genOpts, WithPatternCorpus(e.patterns))
	}
	generator := NewCandidateGenerator(e.llm, e.logger, genOpts...)
	candidates := generator.Generate(ctx, original, cfg.Domain, 1)

	selector := NewCandidateSelector(e.llm, e.judge, e.corpus, e.logger, cfg.TestInputCount)
	candidates = selector.ScoreCandidates(ctx, candidates, cfg.Domain)

	winner, ok := selector.Select(candidates)
	return AssembleCandidateResult(original, winner, ok)
}
