package orchestration

import (
	"context"

	"go.uber.org/zap"

	"github.com/BaSui01/agentrelay/agent"
	"github.com/BaSui01/agentrelay/types"
)

// ResponseCallback observes every agent response. Observability only: it has
// no routing effect, and a panicking sink must not corrupt orchestration
// state.
type ResponseCallback func(msg types.Message)

// StreamingCallback observes incremental agent output.
type StreamingCallback func(delta string, final bool)

// InteractiveFunc supplies the next human message when a human-in-the-loop
// edge is taken. It may be backed by a terminal prompt, a queue, or a UI;
// the engine never assumes a terminal exists.
type InteractiveFunc func(ctx context.Context) (types.Message, error)

// emitResponse invokes the response sink, recovering panics so a throwing
// observer cannot abort the routing loop.
func emitResponse(cb ResponseCallback, msg types.Message, logger *zap.Logger) {
	if cb == nil {
		return
	}
	defer func() {
		if r := recover(); r != nil {
			logger.Warn("response callback panicked", zap.Any("panic", r))
		}
	}()
	cb(msg)
}

// emitDelta invokes the streaming sink with the same panic isolation.
func emitDelta(cb StreamingCallback, delta string, final bool, logger *zap.Logger) {
	if cb == nil {
		return
	}
	defer func() {
		if r := recover(); r != nil {
			logger.Warn("streaming callback panicked", zap.Any("panic", r))
		}
	}()
	cb(delta, final)
}

// invokeAgent runs one agent turn, using the streaming form when a streaming
// sink is configured and falling back to the batch form otherwise. Both
// paths return the same ResponseItem view.
func invokeAgent(ctx context.Context, a agent.Agent, messages []types.Message, streaming StreamingCallback, logger *zap.Logger) ([]agent.ResponseItem, error) {
	if streaming == nil {
		return a.Invoke(ctx, messages, nil)
	}

	stream, err := a.InvokeStream(ctx, messages, nil)
	if err != nil {
		return nil, err
	}
	var items []agent.ResponseItem
	for item := range stream {
		switch {
		case item.Err != nil:
			return nil, item.Err
		case item.Final && item.Message != nil:
			emitDelta(streaming, "", true, logger)
			items = append(items, agent.ResponseItem{Message: *item.Message, Handoff: item.Handoff})
		case item.Delta != "":
			emitDelta(streaming, item.Delta, false, logger)
		}
	}
	return items, nil
}

// wrapInvocationError normalizes an agent failure into the engine's typed
// taxonomy, preserving codes that are already typed.
func wrapInvocationError(ctx context.Context, agentName string, err error) error {
	if types.GetErrorCode(err) != "" {
		return err
	}
	if ctx.Err() != nil {
		return types.NewError(types.ErrCancelled, "invocation cancelled").
			WithAgent(agentName).WithCause(err)
	}
	return types.NewError(types.ErrAgentInvocation, "agent invocation failed").
		WithAgent(agentName).WithCause(err)
}
