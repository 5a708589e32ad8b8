package tasks

import (
	"context"
	"sync"

	"golang.org/x/sync/errgroup"
)

// Result wraps one fan-out response with its input position.
type Result[T any] struct {
	Index int
	Value T
	Err   error
}

// ExecuteAll runs fn concurrently for each item and collects results in input order.
// It does not fail fast: every item is attempted and per-item errors are recorded.
// Cancellation of ctx still reaches fn.
func ExecuteAll[I, T any](
	ctx context.Context,
	items []I,
	limit int,
	fn func(ctx context.Context, item I) (T, error),
) []Result[T] {
	results := make([]Result[T], len(items))
	var mu sync.Mutex

	g, gctx := errgroup.WithContext(ctx)
	if limit > 0 {
		g.SetLimit(limit)
	}
	for i, item := range items {
		i, item := i, item
		g.Go(func() error {
			val, err := fn(gctx, item)
			mu.Lock()
			results[i] = Result[T]{Index: i, Value: val, Err: err}
			mu.Unlock()
			return nil // don't fail-fast; collect all results
		})
	}

	_ = g.Wait()
	return results
}
