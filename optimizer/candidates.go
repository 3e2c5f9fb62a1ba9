package optimizer

import (
	"context"
	"fmt"
	"regexp"
	"strings"

	"github.com/google/uuid"

	"github.com/promptforge/promptforge/llm"
	"github.com/promptforge/promptforge/utils"
)

const diversityRewriteCount = 3

// structuralTechniques are applied one at a time, each producing exactly one
// candidate. Only the first two run per generation round to bound cost.
var structuralTechniques = []struct {
	Name        string
	Instruction string
}{
	{
		Name:        "role_definition",
		Instruction: "Add a clear role definition telling the model who it is and what expertise it brings.",
	},
	{
		Name:        "output_format",
		Instruction: "Add an explicit output-format specification describing the exact structure the response must follow.",
	},
	{
		Name:        "step_decomposition",
		Instruction: "Break the task into explicit numbered steps the model must work through in order.",
	},
	{
		Name:        "constraint_block",
		Instruction: "Add a constraints section listing what the response must and must not contain.",
	},
}

const structuralTechniquesPerRound = 2

// CandidateGenerator produces prompt variants with three independent
// techniques. A failure in one technique yields zero candidates from it and
// never blocks the others.
type CandidateGenerator struct {
	llm           llm.LLM
	patterns      PatternCorpus
	logger        utils.Logger
	exemplarCount int
}

type GeneratorOption func(*CandidateGenerator)

func WithPatternCorpus(corpus PatternCorpus) GeneratorOption {
	return func(g *CandidateGenerator) {
		g.patterns = corpus
	}
}

func WithExemplarCount(count int) GeneratorOption {
	return func(g *CandidateGenerator) {
		if count > 0 {
			g.exemplarCount = count
		}
	}
}

func NewCandidateGenerator(client llm.LLM, logger utils.Logger, opts ...GeneratorOption) *CandidateGenerator {
	g := &CandidateGenerator{
		llm:           client,
		logger:        logger,
		exemplarCount: 3,
	}
	for _, opt := range opts {
		opt(g)
	}
	return g
}

// Generate runs all three techniques against the original prompt and returns
// the union of their candidates.
func (g *CandidateGenerator) Generate(ctx context.Context, original, domain string, generation int) []PromptCandidate {
	var candidates []PromptCandidate

	exemplar, err := g.exemplarCandidates(ctx, original, domain, generation)
	if err != nil {
		g.logger.Warn("exemplar technique failed", "error", err)
	} else {
		candidates = append(candidates, exemplar...)
	}

	diverse, err := g.diversityCandidates(ctx, original, generation)
	if err != nil {
		g.logger.Warn("diversity technique failed", "error", err)
	} else {
		candidates = append(candidates, diverse...)
	}

	structural, err := g.structuralCandidates(ctx, original, generation)
	if err != nil {
		g.logger.Warn("structural technique failed", "error", err)
	} else {
		candidates = append(candidates, structural...)
	}

	g.logger.Debug("candidate generation complete", "count", len(candidates), "generation", generation)
	return candidates
}

func (g *CandidateGenerator) exemplarCandidates(ctx context.Context, original, domain string, generation int) ([]PromptCandidate, error) {
	guidance := ""
	if g.patterns != nil {
		patterns, err := g.patterns.Patterns(ctx, domain)
		if err != nil {
			g.logger.Warn("pattern corpus lookup failed, continuing without guidance", "error", err)
		} else {
			guidance = formatGuidance(patterns)
		}
	}

	prompt := llm.NewPrompt(fmt.Sprintf(`Improve the following prompt. Produce %d distinct improved variants.
%s
Original prompt:
%s

Respond using exactly this format for each variant:
VARIATION 1: <full improved prompt text>
REASONING 1: <why this variant should perform better>
VARIATION 2: ...
REASONING 2: ...`, g.exemplarCount, guidance, original)).
		WithSystemPrompt("You are an expert prompt engineer. You rewrite prompts so models produce more accurate, better structured output.")

	response, err := g.llm.Generate(ctx, prompt)
	if err != nil {
		return nil, err
	}

	variations, err := parseVariations(response)
	if err != nil {
		return nil, err
	}
	return g.toCandidates(variations, TechniqueExemplar, generation), nil
}

func (g *CandidateGenerator) diversityCandidates(ctx context.Context, original string, generation int) ([]PromptCandidate, error) {
	prompt := llm.NewPrompt(fmt.Sprintf(`Rewrite the following prompt %d times, each in a clearly different style.
Vary formality, level of detail, and framing between rewrites. Keep the task the same.

Original prompt:
%s

Respond using exactly this format for each rewrite:
VARIATION 1: <full rewritten prompt text>
REASONING 1: <what stylistic angle this rewrite takes>
VARIATION 2: ...
REASONING 2: ...`, diversityRewriteCount, original)).
		WithSystemPrompt("You are a prompt engineer who explores stylistically diverse phrasings of the same task.").
		WithTemperature(0.9)

	response, err := g.llm.Generate(ctx, prompt)
	if err != nil {
		return nil, err
	}

	variations, err := parseVariations(response)
	if err != nil {
		return nil, err
	}
	return g.toCandidates(variations, TechniqueDiversity, generation), nil
}

func (g *CandidateGenerator) structuralCandidates(ctx context.Context, original string, generation int) ([]PromptCandidate, error) {
	var candidates []PromptCandidate
	var lastErr error

	limit := structuralTechniquesPerRound
	if limit > len(structuralTechniques) {
		limit = len(structuralTechniques)
	}

	for _, technique := range structuralTechniques[:limit] {
		prompt := llm.NewPrompt(fmt.Sprintf(`Apply one structural change to the prompt below: %s
Return only the full rewritten prompt, nothing else.

Original prompt:
%s`, technique.Instruction, original)).
			WithSystemPrompt("You are a prompt engineer applying one targeted structural improvement at a time.")

		response, err := g.llm.Generate(ctx, prompt)
		if err != nil {
			g.logger.Warn("structural technique call failed", "technique", technique.Name, "error", err)
			lastErr = err
			continue
		}

		text := strings.TrimSpace(response)
		if text == "" {
			continue
		}
		candidates = append(candidates, PromptCandidate{
			ID:     uuid.NewString(),
			Prompt: text,
			Metadata: CandidateMetadata{
				Generation: generation,
				Technique:  TechniqueStructural,
				Reasoning:  fmt.Sprintf("applied structural technique %q", technique.Name),
			},
		})
	}

	if len(candidates) == 0 && lastErr != nil {
		return nil, lastErr
	}
	return candidates, nil
}

func (g *CandidateGenerator) toCandidates(variations []parsedVariation, technique Technique, generation int) []PromptCandidate {
	candidates := make([]PromptCandidate, 0, len(variations))
	for _, v := range variations {
		candidates = append(candidates, PromptCandidate{
			ID:     uuid.NewString(),
			Prompt: v.Text,
			Metadata: CandidateMetadata{
				Generation: generation,
				Technique:  technique,
				Reasoning:  v.Reasoning,
			},
		})
	}
	return candidates
}

func formatGuidance(patterns DomainPatterns) string {
	var sb strings.Builder
	if len(patterns.SuccessfulPrompts) > 0 {
		sb.WriteString("\nPrompts that performed well in this domain:\n")
		for _, p := range patterns.SuccessfulPrompts {
			sb.WriteString("- ")
			sb.WriteString(p)
			sb.WriteString("\n")
		}
	}
	if len(patterns.CommonPatterns) > 0 {
		sb.WriteString("\nCommon effective patterns:\n")
		for _, p := range patterns.CommonPatterns {
			sb.WriteString("- ")
			sb.WriteString(p)
			sb.WriteString("\n")
		}
	}
	if patterns.RecommendedStructure != "" {
		sb.WriteString("\nRecommended structure: ")
		sb.WriteString(patterns.RecommendedStructure)
		sb.WriteString("\n")
	}
	return sb.String()
}

type parsedVariation struct {
	Text      string
	Reasoning string
}

var (
	variationHeaderRe = regexp.MustCompile(`(?m)^\s*VARIATION\s+\d+:\s*`)
	reasoningHeaderRe = regexp.MustCompile(`(?m)^\s*REASONING\s+\d+:\s*`)
)

// parseVariations parses the strict VARIATION n: / REASONING n: block format
// back into variant/reasoning pairs. A response with no VARIATION blocks is
// a parse error; a block without reasoning keeps an empty reasoning.
func parseVariations(response string) ([]parsedVariation, error) {
	headers := variationHeaderRe.FindAllStringIndex(response, -1)
	if len(headers) == 0 {
		return nil, fmt.Errorf("%w: no VARIATION blocks found", ErrParse)
	}

	var variations []parsedVariation
	for i, header := range headers {
		start := header[1]
		end := len(response)
		if i+1 < len(headers) {
			end = headers[i+1][0]
		}
		block := response[start:end]

		text := block
		reasoning := ""
		if loc := reasoningHeaderRe.FindStringIndex(block); loc != nil {
			text = block[:loc[0]]
			reasoning = strings.TrimSpace(block[loc[1]:])
		}
		text = strings.TrimSpace(text)
		if text == "" {
			continue
		}
		variations = append(variations, parsedVariation{Text: text, Reasoning: reasoning})
	}

	if len(variations) == 0 {
		return nil, fmt.Errorf("%w: all VARIATION blocks were empty", ErrParse)
	}
	return variations, nil
}
