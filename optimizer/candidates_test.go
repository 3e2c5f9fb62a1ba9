package optimizer

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const variationResponse = `VARIATION 1: You are a careful analyst. Summarize the document in three bullet points.
REASONING 1: Adds a role and a concrete output shape.
VARIATION 2: Summarize the document below. Use exactly three bullets and plain language.
REASONING 2: Tightens the format constraint.`

func TestParseVariations(t *testing.T) {
	variations, err := parseVariations(variationResponse)
	require.NoError(t, err)
	require.Len(t, variations, 2)

	assert.Contains(t, variations[0].Text, "careful analyst")
	assert.Equal(t, "Adds a role and a concrete output shape.", variations[0].Reasoning)
	assert.Contains(t, variations[1].Text, "exactly three bullets")
}

func TestParseVariationsMalformed(t *testing.T) {
	_, err := parseVariations("here are some ideas:\n1. be nicer\n2. add detail")
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrParse)
}

func TestParseVariationsMissingReasoning(t *testing.T) {
	variations, err := parseVariations("VARIATION 1: Improved prompt text here.")
	require.NoError(t, err)
	require.Len(t, variations, 1)
	assert.Empty(t, variations[0].Reasoning)
}

func TestGenerateAllTechniques(t *testing.T) {
	// Call order: exemplar, diversity, then two structural calls.
	client := newFakeLLM(
		variationResponse,
		variationResponse,
		"structural rewrite one",
		"structural rewrite two",
	)
	generator := NewCandidateGenerator(client, testLogger())

	candidates := generator.Generate(context.Background(), "summarize this", "general", 1)
	require.Len(t, candidates, 6)

	byTechnique := map[Technique]int{}
	for _, c := range candidates {
		byTechnique[c.Metadata.Technique]++
		assert.NotEmpty(t, c.ID)
		assert.Equal(t, 1, c.Metadata.Generation)
		assert.Zero(t, c.Score, "score is filled in by the selector, not the generator")
	}
	assert.Equal(t, 2, byTechnique[TechniqueExemplar])
	assert.Equal(t, 2, byTechnique[TechniqueDiversity])
	assert.Equal(t, 2, byTechnique[TechniqueStructural])
}

func TestGenerateTechniqueFailureIsolated(t *testing.T) {
	// The exemplar call mentions "distinct improved variants"; failing it
	// must not block the diversity or structural techniques.
	client := newFakeLLM(
		variationResponse,
		"structural rewrite one",
		"structural rewrite two",
	)
	client.failWhen = "distinct improved variants"
	client.failErr = errors.New("provider outage")

	generator := NewCandidateGenerator(client, testLogger())
	candidates := generator.Generate(context.Background(), "summarize this", "general", 1)

	require.NotEmpty(t, candidates)
	for _, c := range candidates {
		assert.NotEqual(t, TechniqueExemplar, c.Metadata.Technique)
	}
}

func TestGenerateParseFailureYieldsZeroFromTechnique(t *testing.T) {
	client := newFakeLLM(
		"not the expected format at all",
		variationResponse,
		"structural rewrite one",
		"structural rewrite two",
	)
	generator := NewCandidateGenerator(client, testLogger())
	candidates := generator.Generate(context.Background(), "summarize this", "general", 2)

	for _, c := range candidates {
		assert.NotEqual(t, TechniqueExemplar, c.Metadata.Technique)
		assert.Equal(t, 2, c.Metadata.Generation)
	}
	assert.Len(t, candidates, 4)
}

type fakePatterns struct {
	patterns DomainPatterns
	err      error
}

func (f fakePatterns) Patterns(ctx context.Context, domain string) (DomainPatterns, error) {
	return f.patterns, f.err
}

func TestExemplarUsesPatternCorpus(t *testing.T) {
	client := newFakeLLM(variationResponse, variationResponse, "s1", "s2")
	corpus := fakePatterns{patterns: DomainPatterns{
		SuccessfulPrompts:    []string{"You are a domain expert."},
		RecommendedStructure: "role, task, format",
	}}

	generator := NewCandidateGenerator(client, testLogger(), WithPatternCorpus(corpus))
	generator.Generate(context.Background(), "summarize this", "support", 1)

	require.NotEmpty(t, client.calls)
	assert.Contains(t, client.calls[0], "You are a domain expert.")
	assert.Contains(t, client.calls[0], "role, task, format")
}

func TestExemplarPatternCorpusFailureDegrades(t *testing.T) {
	client := newFakeLLM(variationResponse, variationResponse, "s1", "s2")
	corpus := fakePatterns{err: errors.New("corpus unavailable")}

	generator := NewCandidateGenerator(client, testLogger(), WithPatternCorpus(corpus))
	candidates := generator.Generate(context.Background(), "summarize this", "support", 1)

	// Exemplar proceeds without guidance rather than failing.
	byTechnique := map[Technique]int{}
	for _, c := range candidates {
		byTechnique[c.Metadata.Technique]++
	}
	assert.Equal(t, 2, byTechnique[TechniqueExemplar])
}
