package engine

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
)

// ErrStopped is returned by RunUntil when the loop is stopped before the
// awaited condition is met.
var ErrStopped = errors.New("engine stopped")

// Engine is the single-consumer task loop.
//
// Thread-safety model:
//   - Post: safe from any goroutine
//   - Run, RunUntil, RunPending: call from the UI goroutine only
type Engine struct {
	queue  *taskQueue
	logger *slog.Logger
}

// Option configures an Engine.
type Option func(*Engine)

// WithLogger sets the logger used for task failures. Defaults to
// slog.Default().
func WithLogger(l *slog.Logger) Option {
	return func(e *Engine) {
		e.logger = l
	}
}

// New creates an idle engine.
func New(opts ...Option) *Engine {
	e := &Engine{
		queue:  newTaskQueue(),
		logger: slog.Default(),
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Post schedules t to run on the loop. Returns false if the engine has been
// stopped.
func (e *Engine) Post(t Task) bool {
	return e.queue.push(t)
}

// Pending returns the number of queued tasks.
func (e *Engine) Pending() int {
	return e.queue.len()
}

// RunPending runs every task that is queued right now, plus any those tasks
// post, until the queue is empty. Returns the number of tasks run.
func (e *Engine) RunPending() int {
	n := 0
	for {
		t, ok := e.queue.pop()
		if !ok {
			return n
		}
		e.runTask(t)
		n++
	}
}

// Run processes tasks until ctx is cancelled or Stop is called.
//
// A panicking task is logged and the loop continues.
func (e *Engine) Run(ctx context.Context) error {
	e.logger.Debug("engine loop starting")
	for {
		if t, ok := e.queue.pop(); ok {
			e.runTask(t)
			continue
		}
		select {
		case <-ctx.Done():
			e.logger.Debug("engine loop stopping: context cancelled")
			return ctx.Err()
		case <-e.queue.wait():
			if e.queue.isClosed() && e.queue.len() == 0 {
				e.logger.Debug("engine loop stopping: stopped")
				return nil
			}
		}
	}
}

// RunUntil processes tasks until done is closed, ctx is cancelled or the
// engine is stopped. Tasks already queued when done closes are left for the
// next turn.
func (e *Engine) RunUntil(ctx context.Context, done <-chan struct{}) error {
	for {
		select {
		case <-done:
			return nil
		default:
		}
		if t, ok := e.queue.pop(); ok {
			e.runTask(t)
			continue
		}
		select {
		case <-done:
			return nil
		case <-ctx.Done():
			return ctx.Err()
		case <-e.queue.wait():
			if e.queue.isClosed() && e.queue.len() == 0 {
				select {
				case <-done:
					return nil
				default:
					return ErrStopped
				}
			}
		}
	}
}

// Stop closes the queue. Run returns once the queue drains.
func (e *Engine) Stop() {
	e.queue.close()
}

func (e *Engine) runTask(t Task) {
	defer func() {
		if r := recover(); r != nil {
			e.logger.Error("engine task panicked", "panic", fmt.Sprint(r))
		}
	}()
	t()
}
