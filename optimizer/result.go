package optimizer

import (
	"fmt"
	"strings"
	"time"
)

// Confidence assigned when no iteration improved on the original and the
// original content is returned unchanged.
const lowDefaultConfidence = 0.3

// AssembleResult packages a loop outcome into the caller-facing result. When
// the loop produced no improvement the original content comes back with a
// low default confidence.
func AssembleResult(original string, outcome *RunOutcome) *OptimizationResult {
	result := &OptimizationResult{
		OriginalContent:  original,
		OptimizedContent: original,
		Confidence:       lowDefaultConfidence,
		Timestamp:        time.Now(),
	}
	if outcome == nil {
		result.Explanation = "Optimization produced no result; the original prompt is returned unchanged."
		return result
	}

	result.IterationHistory = outcome.History

	if outcome.Best == nil || outcome.Best.Content == original {
		result.Explanation = fmt.Sprintf(
			"No iteration improved on the original prompt (%d attempted, stopped: %s). The original is returned unchanged.",
			len(outcome.History), reasonPhrase(outcome.StopReason))
		return result
	}

	best := outcome.Best
	result.OptimizedContent = best.Content
	result.Confidence = clamp01(best.After.Overall)
	result.Changes = []Change{{
		Type:      "rewrite",
		Original:  original,
		Optimized: best.Content,
		Reason:    fmt.Sprintf("iteration %d scored highest overall (%.2f)", best.Iteration, best.After.Overall),
	}}
	result.Explanation = explain(outcome)
	return result
}

// AssembleCandidateResult packages a single-shot selection (no iteration
// loop) into the caller-facing result.
func AssembleCandidateResult(original string, winner PromptCandidate, improved bool) *OptimizationResult {
	result := &OptimizationResult{
		OriginalContent:  original,
		OptimizedContent: original,
		Confidence:       lowDefaultConfidence,
		Timestamp:        time.Now(),
	}
	if !improved {
		result.Explanation = "Candidate generation produced no usable variants; the original prompt is returned unchanged."
		return result
	}

	result.OptimizedContent = winner.Prompt
	result.Confidence = clamp01(CombinedScore(winner))
	result.Changes = []Change{{
		Type:      winner.Metadata.Technique.String(),
		Original:  original,
		Optimized: winner.Prompt,
		Reason:    winner.Metadata.Reasoning,
	}}
	result.Explanation = fmt.Sprintf(
		"Selected the %s-generated variant (quality %.2f, diversity %.2f) from generation %d.",
		winner.Metadata.Technique, winner.Score, winner.Diversity, winner.Metadata.Generation)
	return result
}

func explain(outcome *RunOutcome) string {
	best := outcome.Best
	var sb strings.Builder
	fmt.Fprintf(&sb, "Ran %d optimization iteration(s) and stopped because %s. ",
		len(outcome.History), reasonPhrase(outcome.StopReason))
	fmt.Fprintf(&sb, "The best version came from iteration %d with an overall score of %.2f (%.1f%% improvement over the previous pass).",
		best.Iteration, best.After.Overall, best.Improvement)
	if outcome.TotalCost > 0 {
		fmt.Fprintf(&sb, " Total estimated cost: $%.4f.", outcome.TotalCost)
	}
	return sb.String()
}

func reasonPhrase(reason StopReason) string {
	switch reason {
	case StopTargetsMet:
		return "all quality targets were met"
	case StopDiminishingReturns:
		return "improvements diminished between passes"
	case StopMaxIterations:
		return "the iteration limit was reached"
	case StopBudgetExceeded:
		return "the next pass would have exceeded the budget"
	default:
		return "the run ended early"
	}
}
