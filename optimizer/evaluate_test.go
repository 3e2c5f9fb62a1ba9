package optimizer

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/time/rate"

	"github.com/promptforge/promptforge/llm"
)

func TestEvaluateWithModelsParallelFanOut(t *testing.T) {
	factory := func(model string) (llm.LLM, error) {
		return newFakeLLM("Sampled output for " + model), nil
	}
	evaluator := NewModelEvaluator(factory, testLogger(), 2, time.Second)
	evaluator.SetRateLimit(rate.Inf, 1)

	report, err := evaluator.EvaluateWithModels(context.Background(), "original", "optimized", []string{"gpt-4o", "claude-sonnet", "gpt-4o-mini"})
	require.NoError(t, err)

	require.Len(t, report.PerModel, 3)
	for _, model := range []string{"gpt-4o", "claude-sonnet", "gpt-4o-mini"} {
		eval, ok := report.PerModel[model]
		require.True(t, ok)
		assert.Empty(t, eval.Err)
		assert.Equal(t, 2, eval.Metrics.TotalSamples)
	}
	assert.Equal(t, 6, report.Aggregate.TotalSamples)
}

func TestEvaluateWithModelsFailingModelDegrades(t *testing.T) {
	factory := func(model string) (llm.LLM, error) {
		if model == "broken-model" {
			return nil, errors.New("no such model")
		}
		return newFakeLLM("fine output"), nil
	}
	evaluator := NewModelEvaluator(factory, testLogger(), 2, time.Second)
	evaluator.SetRateLimit(rate.Inf, 1)

	report, err := evaluator.EvaluateWithModels(context.Background(), "original", "optimized", []string{"good-model", "broken-model"})
	require.NoError(t, err)

	broken := report.PerModel["broken-model"]
	assert.NotEmpty(t, broken.Err)
	assert.Zero(t, broken.Metrics.HallucinationRate)
	assert.Zero(t, broken.Metrics.TotalSamples)

	good := report.PerModel["good-model"]
	assert.Empty(t, good.Err)
	assert.Equal(t, 2, good.Metrics.TotalSamples)
}

func TestEvaluateWithModelsAllSamplesFail(t *testing.T) {
	factory := func(model string) (llm.LLM, error) {
		client := newFakeLLM()
		client.failWhen = "optimized"
		return client, nil
	}
	evaluator := NewModelEvaluator(factory, testLogger(), 2, time.Second)
	evaluator.SetRateLimit(rate.Inf, 1)

	report, err := evaluator.EvaluateWithModels(context.Background(), "original", "optimized content", []string{"m1"})
	require.NoError(t, err)

	eval := report.PerModel["m1"]
	assert.Contains(t, eval.Err, "generation failed")
	assert.Equal(t, EvaluationMetrics{}, eval.Metrics)
}

func TestSamplerDegradesPerCall(t *testing.T) {
	client := newFakeLLM("good output")
	sampler := NewResponseSampler(client, testLogger(), time.Second)

	results := sampler.Sample(context.Background(), "some prompt", 3)
	require.Len(t, results, 3)
	assert.Len(t, Texts(results), 3)
}

func TestSamplerSentinelOnFailure(t *testing.T) {
	client := newFakeLLM()
	client.failWhen = "doomed"
	sampler := NewResponseSampler(client, testLogger(), time.Second)

	results := sampler.Sample(context.Background(), "doomed prompt", 2)
	require.Len(t, results, 2)
	assert.Empty(t, Texts(results))
	for _, r := range results {
		assert.Contains(t, r.Err, "generation failed")
	}
}
