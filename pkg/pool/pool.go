// ABOUTME: Bounded parallel task runner
// ABOUTME: Index-aligned results, first error cancels the rest

package pool

import (
	"context"
	"fmt"
	"runtime"

	"golang.org/x/sync/errgroup"
)

// MaxWorkers caps the pool regardless of hardware concurrency.
const MaxWorkers = 32

// Task produces one result. Tasks must not share mutable state; the
// caller assembles results after Run returns.
type Task[T any] func(ctx context.Context) (T, error)

// Resolve maps a configured worker count to an effective one: zero or
// negative means hardware concurrency, and everything is clamped to
// MaxWorkers.
func Resolve(maxWorkers int) int {
	if maxWorkers <= 0 {
		maxWorkers = runtime.NumCPU()
	}
	if maxWorkers > MaxWorkers {
		maxWorkers = MaxWorkers
	}
	if maxWorkers < 1 {
		maxWorkers = 1
	}
	return maxWorkers
}

// Run executes tasks with at most Resolve(maxWorkers) goroutines and
// returns their results aligned with the task slice. The first failure
// cancels the context handed to outstanding tasks and is returned,
// wrapped with the task index; no partial results are handed back.
func Run[T any](ctx context.Context, tasks []Task[T], maxWorkers int) ([]T, error) {
	if len(tasks) == 0 {
		return nil, nil
	}
	results := make([]T, len(tasks))
	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(Resolve(maxWorkers))
	for i, task := range tasks {
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			v, err := task(ctx)
			if err != nil {
				return fmt.Errorf("task %d: %w", i, err)
			}
			results[i] = v
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return results, nil
}
