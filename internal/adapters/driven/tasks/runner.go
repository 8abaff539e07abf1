// Package tasks provides a background task runner for fire-and-forget
// work scheduled off the request path.
package tasks

import (
	"context"
	"sync"
	"time"

	"github.com/nordvig-labs/byggqa-cli/internal/core/ports/driven"
	"github.com/nordvig-labs/byggqa-cli/internal/logger"
)

// Ensure Runner implements the interface.
var _ driven.TaskRunner = (*Runner)(nil)

// DefaultTaskTimeout bounds each background task.
const DefaultTaskTimeout = 30 * time.Second

// Runner executes submitted tasks on their own goroutines. A panicking
// task is logged and swallowed; it never takes down the process or the
// request that scheduled it.
type Runner struct {
	mu      sync.Mutex
	wg      sync.WaitGroup
	timeout time.Duration
	closed  bool
}

// NewRunner creates a task runner. taskTimeout bounds each task; zero
// uses the default.
func NewRunner(taskTimeout time.Duration) *Runner {
	if taskTimeout <= 0 {
		taskTimeout = DefaultTaskTimeout
	}
	return &Runner{timeout: taskTimeout}
}

// Submit schedules fn for asynchronous execution. After Close, tasks
// are dropped with a log line rather than running against torn-down
// dependencies.
func (r *Runner) Submit(fn func(ctx context.Context)) {
	r.mu.Lock()
	if r.closed {
		r.mu.Unlock()
		logger.Warn("Task submitted after shutdown, dropping")
		return
	}
	r.wg.Add(1)
	r.mu.Unlock()

	go func() {
		defer r.wg.Done()
		defer func() {
			if rec := recover(); rec != nil {
				logger.Warn("Background task panicked: %v", rec)
			}
		}()

		ctx, cancel := context.WithTimeout(context.Background(), r.timeout)
		defer cancel()
		fn(ctx)
	}()
}

// Close waits for in-flight tasks and stops accepting new ones.
func (r *Runner) Close() error {
	r.mu.Lock()
	r.closed = true
	r.mu.Unlock()

	r.wg.Wait()
	return nil
}
