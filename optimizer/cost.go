package optimizer

import (
	"fmt"
	"strings"

	"github.com/pkoukk/tiktoken-go"
)

// Per-1K-token rates used when the caller does not pin a fixed cost per
// iteration. Keyed by model-name prefix; the blank key is the fallback.
var tokenRates = map[string]struct{ Prompt, Completion float64 }{
	"gpt-4o":      {Prompt: 0.0025, Completion: 0.010},
	"gpt-4o-mini": {Prompt: 0.00015, Completion: 0.0006},
	"claude":      {Prompt: 0.003, Completion: 0.015},
	"":            {Prompt: 0.002, Completion: 0.008},
}

// CostEstimator prices one optimization iteration from token counts. Each
// iteration makes one improvement call and one evaluation call, both roughly
// proportional to the content length.
type CostEstimator struct {
	encoding       *tiktoken.Tiktoken
	promptRate     float64
	completionRate float64
}

func NewCostEstimator(model string) (*CostEstimator, error) {
	encoding, err := tiktoken.EncodingForModel(model)
	if err != nil {
		encoding, err = tiktoken.GetEncoding("cl100k_base")
		if err != nil {
			return nil, fmt.Errorf("failed to load token encoding: %w", err)
		}
	}

	rate := tokenRates[""]
	for prefix, r := range tokenRates {
		if prefix != "" && strings.HasPrefix(model, prefix) {
			rate = r
			break
		}
	}
	return &CostEstimator{
		encoding:       encoding,
		promptRate:     rate.Prompt,
		completionRate: rate.Completion,
	}, nil
}

// CountTokens returns the token count of the text under the model encoding.
func (e *CostEstimator) CountTokens(text string) int {
	return len(e.encoding.Encode(text, nil, nil))
}

// EstimateIteration prices one loop pass over the given content. The content
// is sent once as a prompt and roughly regenerated once as a completion, for
// each of the two calls in a pass.
func (e *CostEstimator) EstimateIteration(content string) float64 {
	tokens := float64(e.CountTokens(content))
	perCall := tokens/1000*e.promptRate + tokens/1000*e.completionRate
	return 2 * perCall
}
