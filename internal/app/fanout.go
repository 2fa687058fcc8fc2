package app

import (
	"context"
	"sync"
	"time"
)

// fanOut runs fn once per input concurrently, bounded to limit in flight,
// each branch under its own deadline. Results come back indexed to their
// inputs; a failed or timed-out branch reports its error in place rather
// than aborting the others.
func fanOut[T, R any](ctx context.Context, inputs []T, limit int, timeout time.Duration, fn func(ctx context.Context, in T) (R, error)) ([]R, []error) {
	if limit < 1 {
		limit = 1
	}

	results := make([]R, len(inputs))
	errs := make([]error, len(inputs))
	sem := make(chan struct{}, limit)

	var wg sync.WaitGroup
	for i := range inputs {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			sem <- struct{}{}
			defer func() { <-sem }()

			branchCtx, cancel := context.WithTimeout(ctx, timeout)
			defer cancel()

			results[i], errs[i] = fn(branchCtx, inputs[i])
		}(i)
	}
	wg.Wait()

	return results, errs
}
