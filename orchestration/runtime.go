package orchestration

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/BaSui01/agentrelay/types"
)

// Runtime is the execution context one orchestration invocation runs inside.
// It owns cancellation and lifecycle: every task spawned through Go sees the
// runtime's context, and Shutdown cancels them and waits for quiescence.
//
// A runtime timeout is tied to cancellation: when it elapses, in-flight work
// is cancelled rather than abandoned.
type Runtime struct {
	id     string
	ctx    context.Context
	cancel context.CancelFunc
	group  *errgroup.Group
	logger *zap.Logger
}

type runtimeOptions struct {
	timeout time.Duration
	logger  *zap.Logger
}

// RuntimeOption configures a Runtime.
type RuntimeOption func(*runtimeOptions)

// WithTimeout bounds the runtime's lifetime; zero means unbounded.
func WithTimeout(timeout time.Duration) RuntimeOption {
	return func(o *runtimeOptions) { o.timeout = timeout }
}

// WithRuntimeLogger attaches a logger to the runtime.
func WithRuntimeLogger(logger *zap.Logger) RuntimeOption {
	return func(o *runtimeOptions) { o.logger = logger }
}

// NewRuntime creates a runtime derived from parent. Cancellation of the
// parent context propagates into the runtime; the runtime's own cancellation
// never affects the parent, so nested orchestrations stay isolated.
func NewRuntime(parent context.Context, opts ...RuntimeOption) *Runtime {
	o := runtimeOptions{logger: zap.NewNop()}
	for _, opt := range opts {
		opt(&o)
	}

	id := uuid.NewString()
	ctx := types.WithRunID(parent, id)

	var cancel context.CancelFunc
	if o.timeout > 0 {
		ctx, cancel = context.WithTimeout(ctx, o.timeout)
	} else {
		ctx, cancel = context.WithCancel(ctx)
	}

	group, gctx := errgroup.WithContext(ctx)
	return &Runtime{
		id:     id,
		ctx:    gctx,
		cancel: cancel,
		group:  group,
		logger: o.logger.With(zap.String("component", "runtime"), zap.String("run_id", id)),
	}
}

// ID returns the runtime's unique run identifier.
func (rt *Runtime) ID() string { return rt.id }

// Context returns the runtime's context. It is cancelled by Shutdown, by the
// runtime timeout, or by the parent context.
func (rt *Runtime) Context() context.Context { return rt.ctx }

// Go spawns a task tracked by the runtime.
func (rt *Runtime) Go(fn func(ctx context.Context) error) {
	rt.group.Go(func() error {
		return fn(rt.ctx)
	})
}

// Wait blocks until all spawned tasks finish and returns the first task
// error, if any.
func (rt *Runtime) Wait() error {
	return rt.group.Wait()
}

// Shutdown cancels the runtime and waits for all spawned tasks to unwind.
func (rt *Runtime) Shutdown() error {
	rt.cancel()
	err := rt.group.Wait()
	if err != nil && !errors.Is(err, context.Canceled) && !errors.Is(err, context.DeadlineExceeded) {
		rt.logger.Warn("runtime shut down with task error", zap.Error(err))
		return err
	}
	return nil
}
