package engine

import (
	"context"
	"sync"
)

// Future is a value produced later on the loop. Resolve it exactly once;
// later calls are ignored.
type Future[T any] struct {
	once sync.Once
	done chan struct{}
	val  T
	err  error
}

// NewFuture returns an unresolved future.
func NewFuture[T any]() *Future[T] {
	return &Future[T]{done: make(chan struct{})}
}

// Resolved returns a future that is already complete.
func Resolved[T any](val T, err error) *Future[T] {
	f := NewFuture[T]()
	f.Resolve(val, err)
	return f
}

// Resolve completes the future.
func (f *Future[T]) Resolve(val T, err error) {
	f.once.Do(func() {
		f.val = val
		f.err = err
		close(f.done)
	})
}

// Done is closed once the future is resolved.
func (f *Future[T]) Done() <-chan struct{} {
	return f.done
}

// Result returns the value and error. Only meaningful after Done closes.
func (f *Future[T]) Result() (T, error) {
	return f.val, f.err
}

// Await drives e until the future resolves and returns its result. Call it
// from the UI goroutine; the continuation that resolves the future runs on e.
func (f *Future[T]) Await(ctx context.Context, e *Engine) (T, error) {
	if err := e.RunUntil(ctx, f.done); err != nil {
		var zero T
		return zero, err
	}
	return f.Result()
}
