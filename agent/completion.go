package agent

import (
	"context"
	"encoding/json"
	"errors"

	"go.uber.org/zap"

	"github.com/BaSui01/agentrelay/history"
	"github.com/BaSui01/agentrelay/types"
)

// Reply is the backend's answer for one turn. HandoffTo, when non-empty,
// names the agent the backend wants to transfer control to; the routing
// layer decides whether that transfer is permitted.
type Reply struct {
	Content   string
	HandoffTo string
	Payload   json.RawMessage
}

// Chunk is an incremental piece of a streamed backend reply.
type Chunk struct {
	Delta     string
	Done      bool
	HandoffTo string
	Err       error
}

// Completer is the model/capability backend boundary. Everything beyond this
// contract (provider protocol, retries, rate limits) is the backend's own
// concern.
type Completer interface {
	Complete(ctx context.Context, messages []types.Message) (Reply, error)
	Stream(ctx context.Context, messages []types.Message) (<-chan Chunk, error)
}

// CompletionConfig configures a CompletionAgent.
type CompletionConfig struct {
	Name        string
	Description string
	// Instructions is prepended as a system message on every invocation.
	Instructions string
	// ChannelKey is the compatibility group shared with agents backed by the
	// same history representation. Defaults to "completion".
	ChannelKey string
}

// CompletionAgent is the reference Agent implementation over a Completer
// backend. When a shared history store is attached, the agent records its
// own replies there so other participants observe them.
type CompletionAgent struct {
	config    CompletionConfig
	completer Completer
	shared    history.Store
	logger    *zap.Logger
}

// NewCompletionAgent creates an agent over the given backend.
func NewCompletionAgent(config CompletionConfig, completer Completer, logger *zap.Logger) *CompletionAgent {
	if logger == nil {
		logger = zap.NewNop()
	}
	if config.ChannelKey == "" {
		config.ChannelKey = "completion"
	}
	return &CompletionAgent{
		config:    config,
		completer: completer,
		logger:    logger.With(zap.String("component", "completion_agent"), zap.String("agent", config.Name)),
	}
}

// WithSharedHistory attaches a shared conversation store the agent records
// its replies to. Returns the agent for chaining at construction time.
// Do not combine with an orchestration that records to the same store, or
// assistant turns are written twice.
func (a *CompletionAgent) WithSharedHistory(store history.Store) *CompletionAgent {
	a.shared = store
	return a
}

// Name returns the agent's unique identity.
func (a *CompletionAgent) Name() string { return a.config.Name }

// Description returns the agent's capability metadata.
func (a *CompletionAgent) Description() string { return a.config.Description }

// Invoke sends the conversation to the backend and yields its reply.
func (a *CompletionAgent) Invoke(ctx context.Context, messages []types.Message, _ *InvokeOptions) ([]ResponseItem, error) {
	reply, err := a.completer.Complete(ctx, a.withInstructions(messages))
	if err != nil {
		return nil, a.invocationError(ctx, err)
	}

	msg := types.NewAssistantMessage(a.config.Name, reply.Content)
	if len(reply.Payload) > 0 {
		msg = msg.WithPayload(reply.Payload)
	}

	item := ResponseItem{Message: msg}
	if reply.HandoffTo != "" {
		item.Handoff = &HandoffDirective{Target: reply.HandoffTo}
	}

	a.record(ctx, msg)
	return []ResponseItem{item}, nil
}

// InvokeStream streams the backend reply, assembling the final message from
// the accumulated deltas.
func (a *CompletionAgent) InvokeStream(ctx context.Context, messages []types.Message, _ *InvokeOptions) (<-chan StreamItem, error) {
	chunks, err := a.completer.Stream(ctx, a.withInstructions(messages))
	if err != nil {
		return nil, a.invocationError(ctx, err)
	}

	out := make(chan StreamItem)
	go func() {
		defer close(out)
		var assembled string
		for chunk := range chunks {
			if chunk.Err != nil {
				out <- StreamItem{Err: a.invocationError(ctx, chunk.Err)}
				return
			}
			if chunk.Delta != "" {
				assembled += chunk.Delta
				select {
				case out <- StreamItem{Delta: chunk.Delta}:
				case <-ctx.Done():
					return
				}
			}
			if chunk.Done {
				msg := types.NewAssistantMessage(a.config.Name, assembled)
				item := StreamItem{Final: true, Message: &msg}
				if chunk.HandoffTo != "" {
					item.Handoff = &HandoffDirective{Target: chunk.HandoffTo}
				}
				a.record(ctx, msg)
				select {
				case out <- item:
				case <-ctx.Done():
				}
				return
			}
		}
	}()
	return out, nil
}

// ChannelKeys returns the agent's compatibility group.
func (a *CompletionAgent) ChannelKeys() []string {
	return []string{a.config.ChannelKey}
}

// CreateChannel acquires a fresh, empty conversation channel.
func (a *CompletionAgent) CreateChannel(_ context.Context) (Channel, error) {
	return &completionChannel{key: a.config.ChannelKey}, nil
}

// RestoreChannel rebuilds a channel from serialized state.
func (a *CompletionAgent) RestoreChannel(_ context.Context, state []byte) (Channel, error) {
	var msgs []types.Message
	if err := json.Unmarshal(state, &msgs); err != nil {
		return nil, types.NewError(types.ErrAgentInvocation, "invalid channel state").
			WithAgent(a.config.Name).WithCause(err)
	}
	return &completionChannel{key: a.config.ChannelKey, messages: msgs}, nil
}

func (a *CompletionAgent) withInstructions(messages []types.Message) []types.Message {
	if a.config.Instructions == "" {
		return messages
	}
	out := make([]types.Message, 0, len(messages)+1)
	out = append(out, types.NewSystemMessage(a.config.Instructions))
	return append(out, messages...)
}

func (a *CompletionAgent) record(ctx context.Context, msg types.Message) {
	if a.shared == nil {
		return
	}
	if _, err := a.shared.Append(ctx, msg); err != nil {
		a.logger.Warn("shared history append failed", zap.Error(err))
	}
}

func (a *CompletionAgent) invocationError(ctx context.Context, err error) error {
	if errors.Is(err, context.Canceled) || errors.Is(ctx.Err(), context.Canceled) {
		return types.NewError(types.ErrCancelled, "invocation cancelled").
			WithAgent(a.config.Name).WithCause(err)
	}
	return types.NewError(types.ErrAgentInvocation, "backend completion failed").
		WithAgent(a.config.Name).WithRetryable(types.IsRetryable(err)).WithCause(err)
}

// completionChannel holds the serialized conversation state shared between
// agents in the same compatibility group.
type completionChannel struct {
	key      string
	messages []types.Message
}

func (c *completionChannel) Key() string { return c.key }

func (c *completionChannel) State() ([]byte, error) {
	return json.Marshal(c.messages)
}
