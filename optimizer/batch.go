package optimizer

import (
	"context"
	"fmt"
	"sync"
	"time"

	"golang.org/x/time/rate"
)

// BatchItem is one prompt in a batch optimization request.
type BatchItem struct {
	Name   string
	Prompt string
	Config OptimizationConfig
}

// BatchResult pairs one item with its outcome or error.
type BatchResult struct {
	Name     string
	Original string
	Result   *OptimizationResult
	Err      error
}

// BatchOptimizer optimizes many prompts concurrently through one Engine,
// rate-limited so the fan-out stays inside provider limits.
type BatchOptimizer struct {
	engine  *Engine
	limiter *rate.Limiter
}

func NewBatchOptimizer(engine *Engine) *BatchOptimizer {
	return &BatchOptimizer{
		engine:  engine,
		limiter: rate.NewLimiter(rate.Every(3*time.Second), 1),
	}
}

func (b *BatchOptimizer) SetRateLimit(r rate.Limit, burst int) {
	b.limiter = rate.NewLimiter(r, burst)
}

// OptimizeAll runs every item and returns results in item order.
func (b *BatchOptimizer) OptimizeAll(ctx context.Context, items []BatchItem) []BatchResult {
	results := make([]BatchResult, len(items))
	var wg sync.WaitGroup

	for i, item := range items {
		wg.Add(1)
		go func(i int, item BatchItem) {
			defer wg.Done()

			if err := b.limiter.Wait(ctx); err != nil {
				results[i] = BatchResult{
					Name:     item.Name,
					Original: item.Prompt,
					Err:      fmt.Errorf("rate limiter wait: %w", err),
				}
				return
			}

			result, err := b.engine.Optimize(ctx, item.Prompt, item.Config)
			results[i] = BatchResult{
				Name:     item.Name,
				Original: item.Prompt,
				Result:   result,
				Err:      err,
			}
		}(i, item)
	}
	wg.Wait()
	return results
}
