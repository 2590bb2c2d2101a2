// Package tasks runs fire-and-forget side effects (event writes, click
// increments, cache purges) detached from the request path that spawned
// them. Each task gets its own bounded context and error boundary; a slow
// or failed task never delays the HTTP response. Wait exposes a completion
// hook so tests can flush pending tasks before asserting.
package tasks

import (
	"context"
	"fmt"
	"sync"
	"time"
)

// Logger interface for logging
type Logger interface {
	Info(msg string, keysAndValues ...interface{})
	Error(msg string, keysAndValues ...interface{})
	Warn(msg string, keysAndValues ...interface{})
	Debug(msg string, keysAndValues ...interface{})
}

// DefaultTimeout bounds each detached task
const DefaultTimeout = 5 * time.Second

// Runner launches detached tasks
type Runner struct {
	wg      sync.WaitGroup
	timeout time.Duration
	logger  Logger
}

// NewRunner creates a runner with the default per-task timeout
func NewRunner(logger Logger) *Runner {
	return &Runner{
		timeout: DefaultTimeout,
		logger:  logger,
	}
}

// NewRunnerWithTimeout creates a runner with a custom per-task timeout
func NewRunnerWithTimeout(logger Logger, timeout time.Duration) *Runner {
	return &Runner{
		timeout: timeout,
		logger:  logger,
	}
}

// Go launches fn on its own goroutine with a fresh bounded context.
// The task is deliberately detached from the caller's context so an HTTP
// response finishing (or being cancelled) does not cancel the side effect.
// Panics and errors are logged and swallowed.
func (r *Runner) Go(name string, fn func(ctx context.Context) error) {
	r.wg.Add(1)

	go func() {
		defer r.wg.Done()

		ctx, cancel := context.WithTimeout(context.Background(), r.timeout)
		defer cancel()

		defer func() {
			if rec := recover(); rec != nil {
				r.logger.Error("detached task panicked", "task", name, "panic", fmt.Sprintf("%v", rec))
			}
		}()

		if err := fn(ctx); err != nil {
			r.logger.Warn("detached task failed", "task", name, "error", err)
			return
		}

		r.logger.Debug("detached task completed", "task", name)
	}()
}

// Wait blocks until every task launched so far has finished. Tests use it
// to flush side effects before asserting; shutdown uses it to drain.
func (r *Runner) Wait() {
	r.wg.Wait()
}
