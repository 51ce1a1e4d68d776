// Package bridge runs blocking store and script calls off the caller's
// goroutine and hands back futures. The calls themselves keep their
// blocking semantics; only waiting for them can be abandoned.
package bridge

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/sync/semaphore"
)

// Dispatcher bounds how many submitted jobs run at once.
type Dispatcher struct {
	sem    *semaphore.Weighted
	logger *zap.Logger
	wg     sync.WaitGroup
}

// NewDispatcher creates a dispatcher running at most workers jobs concurrently.
// Values below one are treated as one.
func NewDispatcher(workers int, logger *zap.Logger) *Dispatcher {
	if workers < 1 {
		workers = 1
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Dispatcher{
		sem:    semaphore.NewWeighted(int64(workers)),
		logger: logger,
	}
}

// Wait blocks until every submitted job has finished.
func (d *Dispatcher) Wait() {
	d.wg.Wait()
}

// Future is the pending result of a submitted job.
type Future[T any] struct {
	id    string
	name  string
	done  chan struct{}
	value T
	err   error
}

// ID returns the job id assigned at submission.
func (f *Future[T]) ID() string {
	return f.id
}

// Done is closed once the job has finished.
func (f *Future[T]) Done() <-chan struct{} {
	return f.done
}

// Await waits for the job result. If ctx ends first, ctx.Err() is returned
// and the job keeps running to completion in the background.
func (f *Future[T]) Await(ctx context.Context) (T, error) {
	select {
	case <-f.done:
		return f.value, f.err
	case <-ctx.Done():
		var zero T
		return zero, ctx.Err()
	}
}

// Submit schedules fn on d and returns its future immediately.
func Submit[T any](d *Dispatcher, name string, fn func() (T, error)) *Future[T] {
	f := &Future[T]{
		id:   uuid.New().String(),
		name: name,
		done: make(chan struct{}),
	}

	d.wg.Add(1)
	go func() {
		defer d.wg.Done()
		defer close(f.done)

		// Acquire with a background context never fails.
		_ = d.sem.Acquire(context.Background(), 1)
		defer d.sem.Release(1)

		sugar := d.logger.Sugar()
		start := time.Now()
		sugar.Debugw("job started", "job_id", f.id, "job", name)
		f.value, f.err = fn()
		if f.err != nil {
			sugar.Infow("job failed", "job_id", f.id, "job", name, "elapsed", time.Since(start), "error", f.err)
			return
		}
		sugar.Debugw("job finished", "job_id", f.id, "job", name, "elapsed", time.Since(start))
	}()
	return f
}
