package agent

import (
	"context"
	"strings"

	"go.uber.org/zap"

	"github.com/BaSui01/agentrelay/types"
)

// StopFunc decides, from the pending input messages, whether a guarded
// agent's turn should be suppressed.
type StopFunc func(pending []types.Message) bool

// Guard wraps an inner Agent and suppresses its turn when the predicate
// holds: Invoke yields zero responses and the inner agent is never called.
// When the predicate does not hold, both invocation forms and the channel
// capability delegate to the inner agent unchanged.
type Guard struct {
	inner      Agent
	shouldStop StopFunc
	logger     *zap.Logger
}

// NewGuard wraps inner with the given stop predicate.
func NewGuard(inner Agent, shouldStop StopFunc, logger *zap.Logger) *Guard {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Guard{
		inner:      inner,
		shouldStop: shouldStop,
		logger:     logger.With(zap.String("component", "guard"), zap.String("agent", inner.Name())),
	}
}

// StopIfContains builds a predicate that stops once any pending message
// contains the given marker, e.g. a termination sentinel a pipeline stage
// previously emitted.
func StopIfContains(marker string) StopFunc {
	return func(pending []types.Message) bool {
		for _, msg := range pending {
			if strings.Contains(msg.Content, marker) {
				return true
			}
		}
		return false
	}
}

// Name returns the inner agent's identity.
func (g *Guard) Name() string { return g.inner.Name() }

// Description returns the inner agent's capability metadata.
func (g *Guard) Description() string { return g.inner.Description() }

// Invoke yields no responses when the predicate holds, otherwise delegates.
func (g *Guard) Invoke(ctx context.Context, messages []types.Message, opts *InvokeOptions) ([]ResponseItem, error) {
	if g.shouldStop != nil && g.shouldStop(messages) {
		g.logger.Debug("turn suppressed by guard", zap.Int("pending", len(messages)))
		return nil, nil
	}
	return g.inner.Invoke(ctx, messages, opts)
}

// InvokeStream yields an immediately closed stream when the predicate holds,
// otherwise delegates.
func (g *Guard) InvokeStream(ctx context.Context, messages []types.Message, opts *InvokeOptions) (<-chan StreamItem, error) {
	if g.shouldStop != nil && g.shouldStop(messages) {
		g.logger.Debug("streaming turn suppressed by guard", zap.Int("pending", len(messages)))
		out := make(chan StreamItem)
		close(out)
		return out, nil
	}
	return g.inner.InvokeStream(ctx, messages, opts)
}

// ChannelKeys propagates the inner agent's channel capability as-is.
func (g *Guard) ChannelKeys() []string { return g.inner.ChannelKeys() }

// CreateChannel delegates to the inner agent.
func (g *Guard) CreateChannel(ctx context.Context) (Channel, error) {
	return g.inner.CreateChannel(ctx)
}

// RestoreChannel delegates to the inner agent.
func (g *Guard) RestoreChannel(ctx context.Context, state []byte) (Channel, error) {
	return g.inner.RestoreChannel(ctx, state)
}
