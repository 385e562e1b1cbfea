package agent

import (
	"context"

	"github.com/BaSui01/agentrelay/types"
)

// HandoffDirective is a structured routing decision attached to a response,
// distinct from its prose content. The routing layer validates the target
// against the handoff graph; agents only express intent.
type HandoffDirective struct {
	Target string `json:"target"`
	Reason string `json:"reason,omitempty"`
}

// ResponseItem is a single unit of agent output.
type ResponseItem struct {
	Message types.Message
	Handoff *HandoffDirective
}

// StreamItem is an incremental unit of agent output. Delta carries partial
// content; when Final is set, Message holds the fully assembled response.
type StreamItem struct {
	Delta   string
	Final   bool
	Message *types.Message
	Handoff *HandoffDirective
	Err     error
}

// InvokeOptions carries per-invocation parameters.
type InvokeOptions struct {
	// ThreadID identifies the conversation thread, when the caller tracks one.
	ThreadID string
	// Metadata is passed through to the backend untouched.
	Metadata map[string]any
}

// Channel is a stateful handle an agent acquires to participate in a shared
// conversation representation with compatible agents.
type Channel interface {
	// Key returns the compatibility group this channel belongs to.
	Key() string
	// State serializes the channel so it can be restored later.
	State() ([]byte, error)
}

// Agent is the capability interface every orchestration participant
// implements, whether atomic or composite.
type Agent interface {
	// Name returns the agent's unique identity within a graph.
	Name() string
	// Description returns human-readable capability metadata.
	Description() string

	// Invoke produces zero or more responses for the given input messages.
	Invoke(ctx context.Context, messages []types.Message, opts *InvokeOptions) ([]ResponseItem, error)
	// InvokeStream is the incremental variant of Invoke.
	InvokeStream(ctx context.Context, messages []types.Message, opts *InvokeOptions) (<-chan StreamItem, error)

	// ChannelKeys identifies which compatibility groups this agent can share
	// history representations with.
	ChannelKeys() []string
	// CreateChannel acquires a fresh channel handle. Agents without a real
	// channel implementation return a NOT_SUPPORTED error.
	CreateChannel(ctx context.Context) (Channel, error)
	// RestoreChannel rebuilds a channel from serialized state.
	RestoreChannel(ctx context.Context, state []byte) (Channel, error)
}

// NewNotSupported builds the typed error agents return for capability gaps.
// It must be used instead of panicking or silently succeeding.
func NewNotSupported(agentName, operation string) error {
	return types.NewError(types.ErrNotSupported, operation+" is not supported").WithAgent(agentName)
}

// FirstText returns the content of the first response carrying text, or ""
// when the response set is empty.
func FirstText(items []ResponseItem) string {
	for _, item := range items {
		if item.Message.Content != "" {
			return item.Message.Content
		}
	}
	return ""
}
