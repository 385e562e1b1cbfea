package agent

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/BaSui01/agentrelay/types"
)

// Logging wraps an Agent and emits structured before/after trace events for
// every invocation. It is a pure cross-cutting concern: responses, errors,
// and channel capability pass through untouched.
type Logging struct {
	inner  Agent
	logger *zap.Logger
}

// NewLogging wraps inner with structured invocation logging.
func NewLogging(inner Agent, logger *zap.Logger) *Logging {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Logging{
		inner:  inner,
		logger: logger.With(zap.String("component", "agent_log"), zap.String("agent", inner.Name())),
	}
}

// Name returns the inner agent's identity.
func (l *Logging) Name() string { return l.inner.Name() }

// Description returns the inner agent's capability metadata.
func (l *Logging) Description() string { return l.inner.Description() }

// Invoke delegates and logs the outcome.
func (l *Logging) Invoke(ctx context.Context, messages []types.Message, opts *InvokeOptions) ([]ResponseItem, error) {
	l.logger.Info("invoking agent", zap.Int("messages", len(messages)))
	start := time.Now()

	items, err := l.inner.Invoke(ctx, messages, opts)
	if err != nil {
		l.logger.Warn("agent invocation failed",
			zap.Duration("duration", time.Since(start)),
			zap.Error(err),
		)
		return nil, err
	}

	fields := []zap.Field{
		zap.Int("responses", len(items)),
		zap.Duration("duration", time.Since(start)),
	}
	if target := handoffTarget(items); target != "" {
		fields = append(fields, zap.String("handoff_to", target))
	}
	l.logger.Info("agent responded", fields...)
	return items, nil
}

// InvokeStream delegates, logging stream start and completion.
func (l *Logging) InvokeStream(ctx context.Context, messages []types.Message, opts *InvokeOptions) (<-chan StreamItem, error) {
	l.logger.Info("invoking agent stream", zap.Int("messages", len(messages)))
	start := time.Now()

	stream, err := l.inner.InvokeStream(ctx, messages, opts)
	if err != nil {
		l.logger.Warn("agent stream failed to start", zap.Error(err))
		return nil, err
	}

	out := make(chan StreamItem)
	go func() {
		defer close(out)
		var chunks int
		for item := range stream {
			if item.Delta != "" {
				chunks++
			}
			out <- item
		}
		l.logger.Info("agent stream completed",
			zap.Int("chunks", chunks),
			zap.Duration("duration", time.Since(start)),
		)
	}()
	return out, nil
}

// ChannelKeys propagates the inner agent's channel capability as-is.
func (l *Logging) ChannelKeys() []string { return l.inner.ChannelKeys() }

// CreateChannel delegates to the inner agent.
func (l *Logging) CreateChannel(ctx context.Context) (Channel, error) {
	return l.inner.CreateChannel(ctx)
}

// RestoreChannel delegates to the inner agent.
func (l *Logging) RestoreChannel(ctx context.Context, state []byte) (Channel, error) {
	return l.inner.RestoreChannel(ctx, state)
}

func handoffTarget(items []ResponseItem) string {
	for _, item := range items {
		if item.Handoff != nil {
			return item.Handoff.Target
		}
	}
	return ""
}
