package optimizer

import (
	"context"
	"fmt"
	"math"
	"strings"
	"time"

	"github.com/promptforge/promptforge/llm"
	"github.com/promptforge/promptforge/utils"
)

const (
	// DefaultMaxIterations bounds the optimization loop.
	DefaultMaxIterations = 5
	// DefaultDiminishingReturnsThreshold stops the loop when consecutive
	// improvements differ by less than this.
	DefaultDiminishingReturnsThreshold = 0.02
)

// IterationCallback is invoked after each iteration is recorded.
type IterationCallback func(iteration int, record OptimizationIteration)

// RunOutcome is the raw product of an optimization loop: the full history,
// the best iteration seen, and the stop reason.
type RunOutcome struct {
	History    []OptimizationIteration
	Best       *OptimizationIteration
	TotalCost  float64
	StopReason StopReason
}

// IterationController runs the optimize/evaluate/decide loop. The loop
// itself is strictly sequential; each iteration depends on the previous
// content.
type IterationController struct {
	llm       llm.LLM
	evaluator Evaluator
	logger    utils.Logger
	debug     *utils.DebugManager
	estimator *CostEstimator

	targets              *OptimizationTargets
	budget               float64
	costPerIteration     float64
	maxIterations        int
	diminishingThreshold float64
	callback             IterationCallback
}

type ControllerOption func(*IterationController)

func WithTargets(targets *OptimizationTargets) ControllerOption {
	return func(c *IterationController) {
		c.targets = targets
	}
}

// WithBudget caps cumulative iteration cost. Zero or negative means
// unbounded.
func WithBudget(budget float64) ControllerOption {
	return func(c *IterationController) {
		c.budget = budget
	}
}

// WithCostPerIteration pins a fixed per-iteration cost instead of the
// token-count estimate.
func WithCostPerIteration(cost float64) ControllerOption {
	return func(c *IterationController) {
		c.costPerIteration = cost
	}
}

func WithMaxIterations(max int) ControllerOption {
	return func(c *IterationController) {
		if max > 0 {
			c.maxIterations = max
		}
	}
}

func WithDiminishingReturnsThreshold(threshold float64) ControllerOption {
	return func(c *IterationController) {
		if threshold > 0 {
			c.diminishingThreshold = threshold
		}
	}
}

func WithIterationCallback(callback IterationCallback) ControllerOption {
	return func(c *IterationController) {
		c.callback = callback
	}
}

func WithCostEstimator(estimator *CostEstimator) ControllerOption {
	return func(c *IterationController) {
		c.estimator = estimator
	}
}

func WithDebugManager(debug *utils.DebugManager) ControllerOption {
	return func(c *IterationController) {
		c.debug = debug
	}
}

func NewIterationController(client llm.LLM, evaluator Evaluator, logger utils.Logger, opts ...ControllerOption) *IterationController {
	c := &IterationController{
		llm:                  client,
		evaluator:            evaluator,
		logger:               logger,
		maxIterations:        DefaultMaxIterations,
		diminishingThreshold: DefaultDiminishingReturnsThreshold,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

func (c *IterationController) iterationCost(content string) float64 {
	if c.costPerIteration > 0 {
		return c.costPerIteration
	}
	if c.estimator != nil {
		return c.estimator.EstimateIteration(content)
	}
	return 0
}

// Run executes the loop against the original content. The returned outcome
// is never nil: on cancellation the history accumulated so far is returned
// alongside the context error.
func (c *IterationController) Run(ctx context.Context, original string) (*RunOutcome, error) {
	outcome := &RunOutcome{}
	current := original
	previousImprovement := 0.0
	bestOverall := math.Inf(-1)
	bestIdx := -1

	defer func() {
		if bestIdx >= 0 {
			outcome.Best = &outcome.History[bestIdx]
		}
	}()

	for iteration := 1; iteration <= c.maxIterations; iteration++ {
		if err := ctx.Err(); err != nil {
			// Best-effort: hand back whatever history accumulated.
			c.logger.Info("optimization cancelled", "iteration", iteration)
			return outcome, err
		}

		// Budget pre-check: the iteration that would exceed the budget is
		// never created.
		cost := c.iterationCost(current)
		if c.budget > 0 && outcome.TotalCost+cost > c.budget {
			c.logger.Info("budget exhausted", "total_cost", outcome.TotalCost, "next_cost", cost, "budget", c.budget)
			c.finish(outcome, StopBudgetExceeded)
			return outcome, nil
		}

		improved, err := c.generateImprovement(ctx, current, iteration)
		if err != nil {
			c.logger.Warn("improvement generation failed, keeping current content", "iteration", iteration, "error", err)
			improved = current
		}

		evaluation := c.evaluate(ctx, original, improved)
		targetsMet := c.targets.Met(evaluation.After)

		record := OptimizationIteration{
			Iteration:   iteration,
			Content:     improved,
			Before:      evaluation.Before,
			After:       evaluation.After,
			TargetsMet:  targetsMet,
			Improvement: evaluation.Improvement,
			Cost:        cost,
			Timestamp:   time.Now(),
		}
		outcome.History = append(outcome.History, record)
		outcome.TotalCost += cost

		if c.debug != nil {
			c.debug.SaveIteration(iteration, record)
		}
		if c.callback != nil {
			c.callback(iteration, record)
		}

		if evaluation.After.Overall > bestOverall {
			bestOverall = evaluation.After.Overall
			bestIdx = len(outcome.History) - 1
		}

		if targetsMet {
			c.finish(outcome, StopTargetsMet)
			return outcome, nil
		}

		if iteration > 1 && math.Abs(evaluation.Improvement-previousImprovement) < c.diminishingThreshold {
			c.finish(outcome, StopDiminishingReturns)
			return outcome, nil
		}

		current = improved
		previousImprovement = evaluation.Improvement
	}

	c.finish(outcome, StopMaxIterations)
	return outcome, nil
}

// finish stamps the stop reason on the outcome and on the terminal record.
func (c *IterationController) finish(outcome *RunOutcome, reason StopReason) {
	outcome.StopReason = reason
	if len(outcome.History) > 0 {
		outcome.History[len(outcome.History)-1].StoppingReason = reason
	}
	c.logger.Info("optimization finished", "reason", reason, "iterations", len(outcome.History), "total_cost", outcome.TotalCost)
}

// generateImprovement produces the single improved prompt for this pass.
func (c *IterationController) generateImprovement(ctx context.Context, current string, iteration int) (string, error) {
	prompt := llm.NewPrompt(fmt.Sprintf(`This is optimization pass %d. Improve the prompt below.
%s
Current prompt:
%s

Return only the full improved prompt text, nothing else.`, iteration, c.targetDescription(), current)).
		WithSystemPrompt("You are an expert prompt engineer. Each pass you make one round of focused improvements.")

	response, err := c.llm.Generate(ctx, prompt)
	if err != nil {
		return "", err
	}
	improved := strings.TrimSpace(response)
	if improved == "" {
		return "", fmt.Errorf("%w: empty improvement response", ErrParse)
	}
	return improved, nil
}

func (c *IterationController) targetDescription() string {
	if c.targets.Empty() {
		return ""
	}
	var parts []string
	if c.targets.Overall != nil {
		parts = append(parts, fmt.Sprintf("overall quality of at least %.2f", *c.targets.Overall))
	}
	if c.targets.ResponseQuality != nil {
		parts = append(parts, fmt.Sprintf("response quality of at least %.2f", *c.targets.ResponseQuality))
	}
	if c.targets.StructureCompliance != nil {
		parts = append(parts, fmt.Sprintf("structure compliance of at least %.2f", *c.targets.StructureCompliance))
	}
	if c.targets.HallucinationRate != nil {
		parts = append(parts, fmt.Sprintf("hallucination rate of at most %.2f", *c.targets.HallucinationRate))
	}
	if c.targets.PassRate != nil {
		parts = append(parts, fmt.Sprintf("pass rate of at least %.2f", *c.targets.PassRate))
	}
	return "Optimize toward: " + strings.Join(parts, ", ") + ".\n"
}

// evaluate calls the external scorer, degrading to the fixed fallback
// verdict on failure so the loop always has a usable evaluation.
func (c *IterationController) evaluate(ctx context.Context, original, optimized string) Evaluation {
	if c.evaluator == nil {
		return fallbackEvaluation
	}
	evaluation, err := c.evaluator.Evaluate(ctx, original, optimized)
	if err != nil {
		c.logger.Warn("evaluator failed, using fallback scores", "error", &EvaluationError{Stage: "before/after scoring", Err: err})
		return fallbackEvaluation
	}
	return evaluation
}
