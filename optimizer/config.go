package optimizer

import "time"

// OptimizationConfig controls one optimization request.
type OptimizationConfig struct {
	// Domain selects which corpus patterns and test inputs apply.
	Domain string

	// Targets, when set, switches on the iterative path and defines when it
	// may stop early.
	Targets *OptimizationTargets

	// Budget caps cumulative iteration cost in dollars. Zero means no cap.
	Budget float64

	// CostPerIteration pins a fixed cost per pass. Zero means estimate from
	// token counts.
	CostPerIteration float64

	// MaxIterations bounds the loop; zero means the default of 5.
	MaxIterations int

	// DiminishingReturnsThreshold stops the loop when consecutive
	// improvements differ by less than this; zero means the default 0.02.
	DiminishingReturnsThreshold float64

	// SampleCount is how many outputs are drawn per prompt when computing
	// output metrics.
	SampleCount int

	// ExemplarCount is how many variants the exemplar technique requests.
	ExemplarCount int

	// TestInputCount is how many domain inputs each candidate is scored on.
	TestInputCount int

	// PerCallTimeout bounds each individual generation call.
	PerCallTimeout time.Duration
}

// DefaultOptimizationConfig returns the defaults used when fields are unset.
func DefaultOptimizationConfig() OptimizationConfig {
	return OptimizationConfig{
		MaxIterations:               DefaultMaxIterations,
		DiminishingReturnsThreshold: DefaultDiminishingReturnsThreshold,
		SampleCount:                 3,
		ExemplarCount:               3,
		TestInputCount:              3,
		PerCallTimeout:              DefaultSampleTimeout,
	}
}

func (c OptimizationConfig) withDefaults() OptimizationConfig {
	defaults := DefaultOptimizationConfig()
	if c.MaxIterations <= 0 {
		c.MaxIterations = defaults.MaxIterations
	}
	if c.DiminishingReturnsThreshold <= 0 {
		c.DiminishingReturnsThreshold = defaults.DiminishingReturnsThreshold
	}
	if c.SampleCount <= 0 {
		c.SampleCount = defaults.SampleCount
	}
	if c.ExemplarCount <= 0 {
		c.ExemplarCount = defaults.ExemplarCount
	}
	if c.TestInputCount <= 0 {
		c.TestInputCount = defaults.TestInputCount
	}
	if c.PerCallTimeout <= 0 {
		c.PerCallTimeout = defaults.PerCallTimeout
	}
	return c
}

// Iterative reports whether the config selects the iterative path. Decided
// on the caller's config, before defaults are applied.
func (c OptimizationConfig) Iterative() bool {
	return c.Targets != nil || c.MaxIterations > 0
}
