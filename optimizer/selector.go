package optimizer

import (
	"context"
	"fmt"
	"sort"

	"github.com/promptforge/promptforge/llm"
	"github.com/promptforge/promptforge/utils"
)

const (
	scoreWeight     = 0.8
	diversityWeight = 0.2
)

// CandidateSelector scores candidates against domain test inputs, computes
// population-relative diversity, and ranks by a weighted combination.
type CandidateSelector struct {
	llm            llm.LLM
	judge          Judge
	corpus         TestCorpus
	logger         utils.Logger
	testInputCount int
}

func NewCandidateSelector(client llm.LLM, judge Judge, corpus TestCorpus, logger utils.Logger, testInputCount int) *CandidateSelector {
	if judge == nil {
		judge = heuristicJudge{}
	}
	if corpus == nil {
		corpus = staticCorpus{}
	}
	if testInputCount <= 0 {
		testInputCount = 3
	}
	return &CandidateSelector{
		llm:            client,
		judge:          judge,
		corpus:         corpus,
		logger:         logger,
		testInputCount: testInputCount,
	}
}

// ScoreCandidates fills in Score, Diversity, and TestResults on every
// candidate. Each candidate is mutated exactly once; the returned slice is
// the input slice.
func (s *CandidateSelector) ScoreCandidates(ctx context.Context, candidates []PromptCandidate, domain string) []PromptCandidate {
	for i := range candidates {
		s.scoreOne(ctx, &candidates[i], domain)
	}
	fillDiversity(candidates)
	return candidates
}

func (s *CandidateSelector) scoreOne(ctx context.Context, candidate *PromptCandidate, domain string) {
	inputs, err := s.corpus.SampleInputs(ctx, domain, s.testInputCount)
	if err != nil || len(inputs) == 0 {
		if err != nil {
			s.logger.Warn("test corpus lookup failed", "error", err)
		}
		candidate.Score = 0
		return
	}

	total := 0.0
	scored := 0
	for _, input := range inputs {
		response, err := s.llm.Generate(ctx, llm.NewPrompt(input).WithSystemPrompt(candidate.Prompt))
		if err != nil {
			s.logger.Warn("candidate simulation failed", "candidate", candidate.ID, "error", err)
			candidate.TestResults = append(candidate.TestResults, TestResult{
				Input: input,
				After: fmt.Sprintf("generation failed: %v", err),
			})
			continue
		}

		score, err := s.judge.Score(ctx, input, response)
		if err != nil {
			s.logger.Warn("judge scoring failed", "candidate", candidate.ID, "error", err)
			score = 0
		}
		candidate.TestResults = append(candidate.TestResults, TestResult{
			Input:  input,
			After:  response,
			Score:  score,
			Passed: score >= 0.5,
		})
		total += score
		scored++
	}

	if scored > 0 {
		candidate.Score = total / float64(scored)
	}
}

// fillDiversity sets each candidate's diversity to one minus its average
// Jaccard similarity against every sibling. A lone candidate has diversity 1.
func fillDiversity(candidates []PromptCandidate) {
	if len(candidates) == 0 {
		return
	}
	if len(candidates) == 1 {
		candidates[0].Diversity = 1
		return
	}

	sets := make([]map[string]bool, len(candidates))
	for i := range candidates {
		sets[i] = tokenSet(candidates[i].Prompt)
	}

	for i := range candidates {
		total := 0.0
		for j := range candidates {
			if i == j {
				continue
			}
			total += jaccard(sets[i], sets[j])
		}
		candidates[i].Diversity = clamp01(1 - total/float64(len(candidates)-1))
	}
}

// CombinedScore is the selection objective.
func CombinedScore(c PromptCandidate) float64 {
	return scoreWeight*c.Score + diversityWeight*c.Diversity
}

// Select ranks scored candidates and returns the winner. The ranking is
// deterministic for a given scored set: ties break on candidate ID, so
// re-running selection yields the same winner. The second return is false
// when the set is empty (caller falls back to the original prompt).
func (s *CandidateSelector) Select(candidates []PromptCandidate) (PromptCandidate, bool) {
	if len(candidates) == 0 {
		return PromptCandidate{}, false
	}

	ranked := make([]PromptCandidate, len(candidates))
	copy(ranked, candidates)
	sort.SliceStable(ranked, func(i, j int) bool {
		ci, cj := CombinedScore(ranked[i]), CombinedScore(ranked[j])
		if ci != cj {
			return ci > cj
		}
		return ranked[i].ID < ranked[j].ID
	})
	return ranked[0], true
}
