// Package background runs fire-and-forget side effects. A task never joins
// the caller's error path: failures and panics are logged, and the caller
// only learns that the task was started.
package background

import (
	"context"
	"fmt"
	"log/slog"
	"runtime/debug"
	"sync"
	"time"
)

// DefaultTimeout bounds a single detached task.
const DefaultTimeout = 10 * time.Second

// Task is a unit of detached work.
type Task func(ctx context.Context) error

// ErrorHook observes task failures. The default hook logs them.
type ErrorHook func(name string, err error)

// Runner spawns detached tasks. Tasks get a fresh context with the runner's
// timeout, so cancelling the request that started them has no effect.
type Runner struct {
	wg      sync.WaitGroup
	timeout time.Duration
	onError ErrorHook
}

// Option configures a Runner.
type Option func(*Runner)

// WithErrorHook replaces the logging error hook.
func WithErrorHook(hook ErrorHook) Option {
	return func(r *Runner) {
		if hook != nil {
			r.onError = hook
		}
	}
}

// New creates a Runner. A zero timeout uses DefaultTimeout.
func New(timeout time.Duration, opts ...Option) *Runner {
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	r := &Runner{timeout: timeout, onError: logError}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Go starts task in its own goroutine and returns immediately.
func (r *Runner) Go(name string, task Task) {
	r.wg.Add(1)
	go func() {
		defer r.wg.Done()
		r.run(name, task)
	}()
}

func (r *Runner) run(name string, task Task) {
	ctx, cancel := context.WithTimeout(context.Background(), r.timeout)
	defer cancel()

	defer func() {
		if rec := recover(); rec != nil {
			slog.Error("background task panicked",
				"task", name,
				"error", rec,
				"stack", string(debug.Stack()),
			)
			r.onError(name, fmt.Errorf("panic: %v", rec))
		}
	}()

	start := time.Now()
	if err := task(ctx); err != nil {
		r.onError(name, err)
		return
	}
	slog.Debug("background task done", "task", name, "duration", time.Since(start).String())
}

// Wait blocks until every started task has finished.
func (r *Runner) Wait() {
	r.wg.Wait()
}

// Shutdown waits for running tasks until ctx is done.
func (r *Runner) Shutdown(ctx context.Context) error {
	done := make(chan struct{})
	go func() {
		r.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return fmt.Errorf("background shutdown: %w", ctx.Err())
	}
}

func logError(name string, err error) {
	slog.Warn("background task failed", "task", name, "error", err)
}
