package orchestration

import (
	"context"
	"sync"
	"time"

	"github.com/BaSui01/agentrelay/types"
)

// Result is a future resolved once with a final value or a typed failure.
// Bounded waiting fails only the caller's wait; the producing work keeps
// running unless its runtime is shut down.
type Result[T any] struct {
	done     chan struct{}
	mu       sync.Mutex
	value    T
	err      error
	terminal bool
}

// NewResult creates an unresolved result handle.
func NewResult[T any]() *Result[T] {
	return &Result[T]{done: make(chan struct{})}
}

// Resolve terminates the result with a value. Returns false if the result
// was already terminal.
func (r *Result[T]) Resolve(value T) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.terminal {
		return false
	}
	r.value = value
	r.terminal = true
	close(r.done)
	return true
}

// Fail terminates the result with an error. Returns false if the result was
// already terminal.
func (r *Result[T]) Fail(err error) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.terminal {
		return false
	}
	r.err = err
	r.terminal = true
	close(r.done)
	return true
}

// Done returns a channel closed once the result is terminal.
func (r *Result[T]) Done() <-chan struct{} { return r.done }

// Await blocks until the result is terminal or the timeout elapses. Past the
// deadline it fails with a TIMEOUT error; the underlying work is not
// stopped.
func (r *Result[T]) Await(timeout time.Duration) (T, error) {
	select {
	case <-r.done:
		return r.get()
	case <-time.After(timeout):
		var zero T
		return zero, types.NewError(types.ErrTimeout, "result not resolved within bound").WithRetryable(true)
	}
}

// AwaitContext blocks until the result is terminal or ctx is done, failing
// with a CANCELLED error in the latter case.
func (r *Result[T]) AwaitContext(ctx context.Context) (T, error) {
	select {
	case <-r.done:
		return r.get()
	case <-ctx.Done():
		var zero T
		return zero, types.NewError(types.ErrCancelled, "wait cancelled").WithCause(ctx.Err())
	}
}

func (r *Result[T]) get() (T, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.value, r.err
}
