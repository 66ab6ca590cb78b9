// Package parallel runs read-only work over a frozen index snapshot on a
// bounded number of goroutines.
package parallel

import (
	"context"
	"errors"
	"runtime"
	"sync/atomic"

	"golang.org/x/sync/errgroup"
)

// ErrPoolShutdown is returned when running tasks on a shut down pool.
var ErrPoolShutdown = errors.New("worker pool has been shutdown")

// WorkerPool bounds how many tasks of one Run execute at the same time.
// Tasks must only read shared state; the pool adds no locking.
type WorkerPool struct {
	maxWorkers int
	closed     atomic.Bool
}

// NewWorkerPool creates a pool running at most maxWorkers tasks at once.
// If maxWorkers is 0 or negative, it defaults to the number of CPU cores.
func NewWorkerPool(maxWorkers int) *WorkerPool {
	if maxWorkers <= 0 {
		maxWorkers = runtime.NumCPU()
	}
	return &WorkerPool{maxWorkers: maxWorkers}
}

// MaxWorkers returns the concurrency bound.
func (wp *WorkerPool) MaxWorkers() int { return wp.maxWorkers }

// Run calls task(ctx, i) for every i in [0, n) and waits for all of them.
// The first error cancels the context passed to the remaining tasks and is
// returned.
func (wp *WorkerPool) Run(ctx context.Context, n int, task func(ctx context.Context, i int) error) error {
	if wp.closed.Load() {
		return ErrPoolShutdown
	}
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(wp.maxWorkers)
	for i := 0; i < n; i++ {
		if gctx.Err() != nil {
			break
		}
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			return task(gctx, i)
		})
	}
	if err := g.Wait(); err != nil {
		return err
	}
	return ctx.Err()
}

// Shutdown makes later Run calls fail with ErrPoolShutdown. Runs already
// in progress complete normally.
func (wp *WorkerPool) Shutdown() {
	wp.closed.Store(true)
}
