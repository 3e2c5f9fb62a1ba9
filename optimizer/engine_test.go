package optimizer

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestOptimizeSingleShotPath(t *testing.T) {
	client := newFakeLLM(
		variationResponse, // exemplar
		variationResponse, // diversity
		"structural rewrite one",
		"structural rewrite two",
		"simulated test response", // selector simulations reuse the last response
	)
	engine := NewEngine(client, testLogger(), WithJudge(fixedJudge{score: 0.8}))

	result, err := engine.Optimize(context.Background(), "summarize this document", OptimizationConfig{})
	require.NoError(t, err)

	assert.Equal(t, "summarize this document", result.OriginalContent)
	assert.NotEqual(t, result.OriginalContent, result.OptimizedContent)
	assert.NotEmpty(t, result.Explanation)
	assert.Empty(t, result.IterationHistory, "single-shot path records no iterations")
	assert.Greater(t, result.Confidence, 0.0)
}

func TestOptimizeSingleShotAllTechniquesFail(t *testing.T) {
	client := newFakeLLM()
	client.failWhen = "prompt"
	engine := NewEngine(client, testLogger())

	result, err := engine.Optimize(context.Background(), "original prompt text", OptimizationConfig{})
	require.NoError(t, err)

	assert.Equal(t, "original prompt text", result.OptimizedContent, "falls back to the original")
	assert.InDelta(t, lowDefaultConfidence, result.Confidence, 1e-9)
}

func TestOptimizeIterativePath(t *testing.T) {
	client := newFakeLLM("improved pass one")
	engine := NewEngine(client, testLogger(),
		WithEvaluator(&scriptedEvaluator{evaluations: []Evaluation{evalWith(0.92, 20.0)}}),
	)

	cfg := OptimizationConfig{
		Targets: &OptimizationTargets{Overall: floatPtr(0.85)},
	}
	result, err := engine.Optimize(context.Background(), "original prompt", cfg)
	require.NoError(t, err)

	require.Len(t, result.IterationHistory, 1)
	assert.Equal(t, StopTargetsMet, result.IterationHistory[0].StoppingReason)
	assert.Equal(t, "improved pass one", result.OptimizedContent)
	assert.InDelta(t, 0.92, result.Confidence, 1e-9)
}

func TestOptimizeIterativeNoImprovementReturnsOriginal(t *testing.T) {
	client := newFakeLLM()
	client.failWhen = "optimization pass" // every improvement call fails
	engine := NewEngine(client, testLogger(),
		WithEvaluator(&scriptedEvaluator{evaluations: []Evaluation{evalWith(0.4, 1.0), evalWith(0.4, 1.005)}}),
	)

	cfg := OptimizationConfig{
		Targets:       &OptimizationTargets{Overall: floatPtr(0.99)},
		MaxIterations: 3,
	}
	result, err := engine.Optimize(context.Background(), "original prompt", cfg)
	require.NoError(t, err)

	assert.Equal(t, "original prompt", result.OptimizedContent)
	assert.NotEmpty(t, result.IterationHistory)
}

func TestOptimizeTimeoutFallsBackToSingleShot(t *testing.T) {
	// The improvement call blocks until the engine-level deadline fires;
	// the engine must fall back to the fast path instead of erroring.
	slow := &slowThenFastLLM{inner: newFakeLLM(
		variationResponse,
		variationResponse,
		"structural one",
		"structural two",
		"simulated response",
	)}
	engine := NewEngine(slow, testLogger(),
		WithEvaluator(&scriptedEvaluator{}),
		WithOptimizationTimeout(30*time.Millisecond),
		WithJudge(fixedJudge{score: 0.7}),
	)

	cfg := OptimizationConfig{Targets: &OptimizationTargets{Overall: floatPtr(0.99)}}
	result, err := engine.Optimize(context.Background(), "original prompt", cfg)
	require.NoError(t, err)
	require.NotNil(t, result)
	assert.NotEmpty(t, result.Explanation)
}

func TestBatchOptimizeAll(t *testing.T) {
	client := newFakeLLM(
		variationResponse, variationResponse, "s1", "s2", "resp",
	)
	engine := NewEngine(client, testLogger(), WithJudge(fixedJudge{score: 0.6}))
	batch := NewBatchOptimizer(engine)
	batch.SetRateLimit(1000, 10)

	items := []BatchItem{
		{Name: "first", Prompt: "prompt one"},
		{Name: "second", Prompt: "prompt two"},
	}
	results := batch.OptimizeAll(context.Background(), items)
	require.Len(t, results, 2)
	assert.Equal(t, "first", results[0].Name)
	assert.Equal(t, "second", results[1].Name)
	for _, r := range results {
		require.NoError(t, r.Err)
		require.NotNil(t, r.Result)
	}
}
