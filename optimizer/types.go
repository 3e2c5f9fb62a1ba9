// Package optimizer implements the iterative prompt optimization and
// evaluation engine: candidate generation, heuristic output metrics,
// multi-objective selection, and the iteration control loop.
package optimizer

import (
	"errors"
	"fmt"
	"time"
)

// Technique identifies which generation strategy produced a candidate.
type Technique int

const (
	TechniqueExemplar Technique = iota
	TechniqueDiversity
	TechniqueStructural
	TechniqueRL
	TechniqueHybrid
)

func (t Technique) String() string {
	switch t {
	case TechniqueExemplar:
		return "exemplar"
	case TechniqueDiversity:
		return "diversity"
	case TechniqueStructural:
		return "structural"
	case TechniqueRL:
		return "rl"
	case TechniqueHybrid:
		return "hybrid"
	default:
		return fmt.Sprintf("technique(%d)", int(t))
	}
}

// CandidateMetadata records a candidate's provenance.
type CandidateMetadata struct {
	Generation int       `json:"generation"`
	ParentID   string    `json:"parentId,omitempty"`
	Technique  Technique `json:"technique"`
	Reasoning  string    `json:"reasoning"`
}

// TestResult is one per-input evaluation record on a candidate.
type TestResult struct {
	Input  string  `json:"input"`
	Before string  `json:"before"`
	After  string  `json:"after"`
	Score  float64 `json:"score"`
	Passed bool    `json:"passed"`
}

// PromptCandidate is a proposed prompt text plus its provenance and scores.
// The prompt text is immutable once created; Score, Diversity, and
// TestResults are filled in exactly once by the selector.
type PromptCandidate struct {
	ID          string            `json:"id"`
	Prompt      string            `json:"prompt"`
	Score       float64           `json:"score"`
	Diversity   float64           `json:"diversity"`
	TestResults []TestResult      `json:"testResults,omitempty"`
	Metadata    CandidateMetadata `json:"metadata"`
}

// EvaluationMetrics holds the three heuristic output metrics. Always
// recomputed from a sample set, never persisted.
type EvaluationMetrics struct {
	HallucinationRate float64 `json:"hallucinationRate" validate:"gte=0,lte=1"`
	StructureScore    float64 `json:"structureScore" validate:"gte=0,lte=1"`
	ConsistencyScore  float64 `json:"consistencyScore" validate:"gte=0,lte=1"`
	TotalSamples      int     `json:"totalSamples" validate:"gte=0"`
}

// Scores is the shape shared by targets and measured before/after results.
type Scores struct {
	Overall             float64 `json:"overall"`
	ResponseQuality     float64 `json:"responseQuality"`
	StructureCompliance float64 `json:"structureCompliance"`
	HallucinationRate   float64 `json:"hallucinationRate"`
	PassRate            float64 `json:"passRate"`
}

// OptimizationTargets are caller-specified quality thresholds. A nil field
// means no constraint on that dimension.
type OptimizationTargets struct {
	Overall             *float64 `json:"overall,omitempty" validate:"omitempty,gte=0,lte=1"`
	ResponseQuality     *float64 `json:"responseQuality,omitempty" validate:"omitempty,gte=0,lte=1"`
	StructureCompliance *float64 `json:"structureCompliance,omitempty" validate:"omitempty,gte=0,lte=1"`
	HallucinationRate   *float64 `json:"hallucinationRate,omitempty" validate:"omitempty,gte=0,lte=1"`
	PassRate            *float64 `json:"passRate,omitempty" validate:"omitempty,gte=0,lte=1"`
}

// Met reports whether measured scores satisfy every set target. Hallucination
// rate is satisfied when the measured value is at or below the target; every
// other dimension when at or above. Unset fields are vacuously satisfied.
func (t *OptimizationTargets) Met(measured Scores) bool {
	if t == nil {
		return true
	}
	if t.Overall != nil && measured.Overall < *t.Overall {
		return false
	}
	if t.ResponseQuality != nil && measured.ResponseQuality < *t.ResponseQuality {
		return false
	}
	if t.StructureCompliance != nil && measured.StructureCompliance < *t.StructureCompliance {
		return false
	}
	if t.HallucinationRate != nil && measured.HallucinationRate > *t.HallucinationRate {
		return false
	}
	if t.PassRate != nil && measured.PassRate < *t.PassRate {
		return false
	}
	return true
}

// Empty reports whether no target dimension is set.
func (t *OptimizationTargets) Empty() bool {
	return t == nil || (t.Overall == nil && t.ResponseQuality == nil &&
		t.StructureCompliance == nil && t.HallucinationRate == nil && t.PassRate == nil)
}

// StopReason is why the iteration loop halted.
type StopReason string

const (
	StopTargetsMet         StopReason = "targets_met"
	StopDiminishingReturns StopReason = "diminishing_returns"
	StopMaxIterations      StopReason = "max_iterations"
	StopBudgetExceeded     StopReason = "budget_exceeded"
)

// OptimizationIteration is one pass of the optimization loop. Records are
// append-only; only the terminal pass has StoppingReason set afterwards.
type OptimizationIteration struct {
	Iteration      int        `json:"iteration"`
	Content        string     `json:"content"`
	Before         Scores     `json:"beforeScore"`
	After          Scores     `json:"afterScore"`
	TargetsMet     bool       `json:"targetsMet"`
	Improvement    float64    `json:"improvement"`
	Cost           float64    `json:"cost"`
	Timestamp      time.Time  `json:"timestamp"`
	StoppingReason StopReason `json:"stoppingReason,omitempty"`
}

// Change describes one edit between the original and optimized content.
type Change struct {
	Type      string `json:"type"`
	Original  string `json:"original"`
	Optimized string `json:"optimized"`
	Reason    string `json:"reason"`
}

// OptimizationResult packages the final best content for the caller.
type OptimizationResult struct {
	OriginalContent  string                  `json:"originalContent"`
	OptimizedContent string                  `json:"optimizedContent"`
	Explanation      string                  `json:"explanation"`
	Changes          []Change                `json:"changes"`
	Confidence       float64                 `json:"confidence"`
	IterationHistory []OptimizationIteration `json:"iterationHistory,omitempty"`
	Timestamp        time.Time               `json:"timestamp"`
}

// ErrParse flags a candidate-generation response that did not match the
// expected VARIATION/REASONING block format.
var ErrParse = errors.New("response does not match expected block format")

// EvaluationError wraps a failure of the external scoring capability.
type EvaluationError struct {
	Stage string
	Err   error
}

func (e *EvaluationError) Error() string {
	return fmt.Sprintf("evaluation failed at %s: %v", e.Stage, e.Err)
}

func (e *EvaluationError) Unwrap() error { return e.Err }
