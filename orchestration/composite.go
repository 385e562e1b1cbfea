package orchestration

import (
	"context"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/BaSui01/agentrelay/agent"
	"github.com/BaSui01/agentrelay/types"
)

// DefaultInnerTimeout bounds a nested orchestration's result. It must stay
// shorter than the enclosing orchestration's own deadline so the outer loop
// always makes progress or fails explicitly.
const DefaultInnerTimeout = 60 * time.Second

// Orchestration is the driver contract shared by Handoff and Sequential.
// OrchestrationAgent adapts any implementation to the Agent interface, so
// orchestrations nest to arbitrary depth through the composite pattern.
type Orchestration interface {
	Invoke(task string, rt *Runtime) *Result[string]
}

// CompositeConfig configures an OrchestrationAgent.
type CompositeConfig struct {
	Name        string
	Description string
	// InnerTimeout bounds the nested result wait. Defaults to
	// DefaultInnerTimeout. The nested runtime shares this bound, so a
	// timed-out inner orchestration is also cancelled.
	InnerTimeout time.Duration
	// Separator joins incoming message contents into the nested task
	// string. Defaults to "\n".
	Separator string
}

// OrchestrationAgent exposes an orchestration through the Agent interface.
// Incoming messages are flattened into a single task string: nested
// orchestrations see a linear task description, not the caller's structured
// history. Each invocation runs inside a fresh runtime, so a failure or hang
// inside the nested orchestration cannot corrupt or block the outer one.
type OrchestrationAgent struct {
	inner  Orchestration
	config CompositeConfig
	logger *zap.Logger
}

// NewOrchestrationAgent adapts the orchestration to the Agent interface.
func NewOrchestrationAgent(inner Orchestration, config CompositeConfig, logger *zap.Logger) *OrchestrationAgent {
	if logger == nil {
		logger = zap.NewNop()
	}
	if config.InnerTimeout <= 0 {
		config.InnerTimeout = DefaultInnerTimeout
	}
	if config.Separator == "" {
		config.Separator = "\n"
	}
	return &OrchestrationAgent{
		inner:  inner,
		config: config,
		logger: logger.With(zap.String("component", "orchestration_agent"), zap.String("agent", config.Name)),
	}
}

// Name returns the composite's identity.
func (a *OrchestrationAgent) Name() string { return a.config.Name }

// Description returns the composite's capability metadata.
func (a *OrchestrationAgent) Description() string { return a.config.Description }

// Invoke flattens the input, drives the nested orchestration inside its own
// runtime, and yields the final text as a single response. The nested
// runtime is run to quiescence before returning.
func (a *OrchestrationAgent) Invoke(ctx context.Context, messages []types.Message, _ *agent.InvokeOptions) ([]agent.ResponseItem, error) {
	task := a.flatten(messages)

	rt := NewRuntime(ctx, WithTimeout(a.config.InnerTimeout), WithRuntimeLogger(a.logger))
	defer func() {
		if err := rt.Shutdown(); err != nil {
			a.logger.Warn("nested runtime shutdown error", zap.Error(err))
		}
	}()

	a.logger.Info("nested orchestration started", zap.String("run_id", rt.ID()))
	result := a.inner.Invoke(task, rt)

	text, err := result.Await(a.config.InnerTimeout)
	if err != nil {
		if types.IsCode(err, types.ErrTimeout) {
			a.logger.Warn("nested orchestration timed out", zap.Duration("bound", a.config.InnerTimeout))
			return nil, types.NewError(types.ErrTimeout, "nested orchestration did not resolve").
				WithAgent(a.config.Name).WithCause(err)
		}
		return nil, err
	}

	msg := types.NewAssistantMessage(a.config.Name, text)
	return []agent.ResponseItem{{Message: msg}}, nil
}

// InvokeStream yields the nested orchestration's final text as a single
// terminal item; composites have no incremental source to stream from.
func (a *OrchestrationAgent) InvokeStream(ctx context.Context, messages []types.Message, opts *agent.InvokeOptions) (<-chan agent.StreamItem, error) {
	items, err := a.Invoke(ctx, messages, opts)
	if err != nil {
		return nil, err
	}

	out := make(chan agent.StreamItem, len(items))
	for _, item := range items {
		msg := item.Message
		out <- agent.StreamItem{Final: true, Message: &msg, Handoff: item.Handoff}
	}
	close(out)
	return out, nil
}

// ChannelKeys returns nil: a composite has no single underlying channel.
func (a *OrchestrationAgent) ChannelKeys() []string { return nil }

// CreateChannel is intentionally unsupported for composites.
func (a *OrchestrationAgent) CreateChannel(context.Context) (agent.Channel, error) {
	return nil, agent.NewNotSupported(a.config.Name, "create channel")
}

// RestoreChannel is intentionally unsupported for composites.
func (a *OrchestrationAgent) RestoreChannel(context.Context, []byte) (agent.Channel, error) {
	return nil, agent.NewNotSupported(a.config.Name, "restore channel")
}

func (a *OrchestrationAgent) flatten(messages []types.Message) string {
	parts := make([]string, 0, len(messages))
	for _, msg := range messages {
		if msg.Content != "" {
			parts = append(parts, msg.Content)
		}
	}
	return strings.Join(parts, a.config.Separator)
}

var (
	_ agent.Agent   = (*OrchestrationAgent)(nil)
	_ Orchestration = (*Handoff)(nil)
	_ Orchestration = (*Sequential)(nil)
)
