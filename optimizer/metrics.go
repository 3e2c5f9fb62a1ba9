package optimizer

import (
	"regexp"
	"strings"
)

// The metric functions in this file are pure: given the same sample set they
// return the same value, independent of sample order.

var uncertaintyMarkers = []string{
	"maybe", "probably", "might", "perhaps", "possibly",
	"i think", "i believe", "not sure", "unclear",
}

var claimMarkers = []string{
	"always", "never", "definitely", "certainly",
	"absolutely", "guaranteed", "undoubtedly",
}

// antonymPairs drives contradiction detection. Order matters: the negative
// term is checked before the positive so "is not" is not mistaken for "is".
var antonymPairs = [][2]string{
	{"always", "never"},
	{"must", "must not"},
	{"is", "is not"},
	{"can", "cannot"},
	{"will", "will not"},
	{"should", "should not"},
}

var (
	specificClaimRe = regexp.MustCompile(`\b\d+(\.\d+)?%|\$\d+(\.\d+)?|\b(19|20)\d{2}\b|\b\d{2,}\b`)
	sentenceSplitRe = regexp.MustCompile(`[.!?]+`)
	bulletRe        = regexp.MustCompile(`(?m)^\s*([-*•]|\d+\.)\s+`)
	headingRe       = regexp.MustCompile(`(?m)^#{1,6}\s+`)
)

func clamp01(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}

func containsAny(text string, markers []string) bool {
	for _, m := range markers {
		if strings.Contains(text, m) {
			return true
		}
	}
	return false
}

// HallucinationRate estimates, in [0,1], how likely the sampled outputs are
// to contain invented or inconsistent claims. Per sample: +0.2 when an
// uncertainty marker co-occurs with a strong factual claim, +0.3 when two
// sentences contradict each other, +0.2 when a specific number, date,
// currency, or percentage co-occurs with an uncertainty marker.
func HallucinationRate(samples []string) float64 {
	if len(samples) == 0 {
		return 0
	}

	total := 0.0
	for _, sample := range samples {
		lower := strings.ToLower(sample)
		score := 0.0

		uncertain := containsAny(lower, uncertaintyMarkers)
		if uncertain && containsAny(lower, claimMarkers) {
			score += 0.2
		}
		if hasContradiction(lower) {
			score += 0.3
		}
		if uncertain && specificClaimRe.MatchString(lower) {
			score += 0.2
		}
		total += score
	}
	return clamp01(total / float64(len(samples)))
}

// hasContradiction splits the sample into sentences and flags it when any
// sentence pair holds opposite sides of an antonym pair while sharing more
// than two tokens, a crude same-topic check.
func hasContradiction(lowerSample string) bool {
	sentences := splitSentences(lowerSample)
	for i := 0; i < len(sentences); i++ {
		for j := i + 1; j < len(sentences); j++ {
			if sentencesContradict(sentences[i], sentences[j]) {
				return true
			}
		}
	}
	return false
}

func splitSentences(text string) []string {
	parts := sentenceSplitRe.Split(text, -1)
	sentences := make([]string, 0, len(parts))
	for _, part := range parts {
		if trimmed := strings.TrimSpace(part); trimmed != "" {
			sentences = append(sentences, trimmed)
		}
	}
	return sentences
}

func sentencesContradict(a, b string) bool {
	for _, pair := range antonymPairs {
		pos, neg := pair[0], pair[1]
		aPos := strings.Contains(a, pos) && !strings.Contains(a, neg)
		bPos := strings.Contains(b, pos) && !strings.Contains(b, neg)
		aNeg := strings.Contains(a, neg)
		bNeg := strings.Contains(b, neg)
		if (aPos && bNeg) || (bPos && aNeg) {
			if sharedTokens(a, b) > 2 {
				return true
			}
		}
	}
	return false
}

func sharedTokens(a, b string) int {
	setA := tokenSet(a)
	count := 0
	for token := range tokenSet(b) {
		if setA[token] {
			count++
		}
	}
	return count
}

func tokenSet(text string) map[string]bool {
	set := make(map[string]bool)
	for _, token := range strings.Fields(strings.ToLower(text)) {
		set[token] = true
	}
	return set
}

// StructureScore estimates formatting quality in [0,1]. Each sample earns
// 0.2 per structural indicator present: blank-line-separated paragraphs,
// bullet markers, markdown headings, fenced code blocks, and sentence
// variety. Per-sample scores are averaged.
func StructureScore(samples []string) float64 {
	if len(samples) == 0 {
		return 0
	}

	total := 0.0
	for _, sample := range samples {
		score := 0.0
		if strings.Contains(sample, "\n\n") {
			score += 0.2
		}
		if bulletRe.MatchString(sample) {
			score += 0.2
		}
		if headingRe.MatchString(sample) {
			score += 0.2
		}
		if strings.Contains(sample, "```") {
			score += 0.2
		}
		if hasSentenceVariety(sample) {
			score += 0.2
		}
		total += score
	}
	return clamp01(total / float64(len(samples)))
}

// hasSentenceVariety requires at least two sentences whose length variance
// exceeds half the mean length and which span more than one sentence type.
func hasSentenceVariety(sample string) bool {
	sentences := splitSentencesWithTerminators(sample)
	if len(sentences) < 2 {
		return false
	}

	lengths := make([]float64, len(sentences))
	mean := 0.0
	for i, s := range sentences {
		lengths[i] = float64(len(strings.Fields(s)))
		mean += lengths[i]
	}
	mean /= float64(len(lengths))

	variance := 0.0
	for _, l := range lengths {
		variance += (l - mean) * (l - mean)
	}
	variance /= float64(len(lengths))
	if variance <= mean/2 {
		return false
	}

	types := make(map[string]bool)
	for _, s := range sentences {
		types[sentenceType(s)] = true
	}
	return len(types) > 1
}

// splitSentencesWithTerminators keeps the terminating punctuation attached
// so sentence types remain distinguishable.
func splitSentencesWithTerminators(text string) []string {
	var sentences []string
	var current strings.Builder
	for _, r := range text {
		current.WriteRune(r)
		if r == '.' || r == '!' || r == '?' {
			if trimmed := strings.TrimSpace(current.String()); len(trimmed) > 1 {
				sentences = append(sentences, trimmed)
			}
			current.Reset()
		}
	}
	if trimmed := strings.TrimSpace(current.String()); len(strings.Fields(trimmed)) > 1 {
		sentences = append(sentences, trimmed)
	}
	return sentences
}

var subordinators = []string{"because", "although", "while", "which", "unless", "whereas"}

func sentenceType(sentence string) string {
	trimmed := strings.TrimSpace(sentence)
	switch {
	case strings.HasSuffix(trimmed, "?"):
		return "question"
	case strings.HasSuffix(trimmed, "!"):
		return "exclamation"
	case strings.Contains(trimmed, ",") || containsAny(strings.ToLower(trimmed), subordinators):
		return "complex"
	default:
		return "simple"
	}
}

// ConsistencyScore is the average pairwise Jaccard similarity of the
// samples' lower-cased word sets. Fewer than two samples are trivially
// consistent.
func ConsistencyScore(samples []string) float64 {
	if len(samples) < 2 {
		return 1
	}

	sets := make([]map[string]bool, len(samples))
	for i, sample := range samples {
		sets[i] = tokenSet(sample)
	}

	total := 0.0
	pairs := 0
	for i := 0; i < len(sets); i++ {
		for j := i + 1; j < len(sets); j++ {
			total += jaccard(sets[i], sets[j])
			pairs++
		}
	}
	return clamp01(total / float64(pairs))
}

func jaccard(a, b map[string]bool) float64 {
	if len(a) == 0 && len(b) == 0 {
		return 1
	}
	intersection := 0
	for token := range a {
		if b[token] {
			intersection++
		}
	}
	union := len(a) + len(b) - intersection
	if union == 0 {
		return 1
	}
	return float64(intersection) / float64(union)
}

// ComputeMetrics derives all three metrics from one sample set.
func ComputeMetrics(samples []string) EvaluationMetrics {
	return EvaluationMetrics{
		HallucinationRate: HallucinationRate(samples),
		StructureScore:    StructureScore(samples),
		ConsistencyScore:  ConsistencyScore(samples),
		TotalSamples:      len(samples),
	}
}
