package orchestration

import (
	"context"
	"sync/atomic"

	"github.com/BaSui01/agentrelay/agent"
	"github.com/BaSui01/agentrelay/types"
)

// scriptedAgent is a deterministic Agent for routing tests. replyFn decides
// content and handoff target from the conversation so far.
type scriptedAgent struct {
	name    string
	replyFn func(call int, messages []types.Message) ([]agent.ResponseItem, error)
	calls   atomic.Int32
}

func newScriptedAgent(name string, replyFn func(call int, messages []types.Message) ([]agent.ResponseItem, error)) *scriptedAgent {
	return &scriptedAgent{name: name, replyFn: replyFn}
}

// answerWith builds an agent that always answers with fixed content.
func answerWith(name, content string) *scriptedAgent {
	return newScriptedAgent(name, func(int, []types.Message) ([]agent.ResponseItem, error) {
		return []agent.ResponseItem{{Message: types.NewAssistantMessage(name, content)}}, nil
	})
}

// reply is a convenience for a single content+handoff response.
func reply(author, content, handoffTo string) []agent.ResponseItem {
	item := agent.ResponseItem{Message: types.NewAssistantMessage(author, content)}
	if handoffTo != "" {
		item.Handoff = &agent.HandoffDirective{Target: handoffTo}
	}
	return []agent.ResponseItem{item}
}

func (s *scriptedAgent) Name() string        { return s.name }
func (s *scriptedAgent) Description() string { return "scripted test agent" }

func (s *scriptedAgent) Invoke(_ context.Context, messages []types.Message, _ *agent.InvokeOptions) ([]agent.ResponseItem, error) {
	call := int(s.calls.Add(1))
	return s.replyFn(call, messages)
}

func (s *scriptedAgent) InvokeStream(ctx context.Context, messages []types.Message, opts *agent.InvokeOptions) (<-chan agent.StreamItem, error) {
	items, err := s.Invoke(ctx, messages, opts)
	if err != nil {
		return nil, err
	}
	out := make(chan agent.StreamItem, 2*len(items))
	for _, item := range items {
		msg := item.Message
		if msg.Content != "" {
			out <- agent.StreamItem{Delta: msg.Content}
		}
		out <- agent.StreamItem{Final: true, Message: &msg, Handoff: item.Handoff}
	}
	close(out)
	return out, nil
}

func (s *scriptedAgent) ChannelKeys() []string { return []string{"scripted"} }

func (s *scriptedAgent) CreateChannel(context.Context) (agent.Channel, error) {
	return nil, agent.NewNotSupported(s.name, "create channel")
}

func (s *scriptedAgent) RestoreChannel(context.Context, []byte) (agent.Channel, error) {
	return nil, agent.NewNotSupported(s.name, "restore channel")
}

// blockingAgent blocks until its context is done.
type blockingAgent struct {
	name string
}

func (b *blockingAgent) Name() string        { return b.name }
func (b *blockingAgent) Description() string { return "blocking test agent" }

func (b *blockingAgent) Invoke(ctx context.Context, _ []types.Message, _ *agent.InvokeOptions) ([]agent.ResponseItem, error) {
	<-ctx.Done()
	return nil, ctx.Err()
}

func (b *blockingAgent) InvokeStream(ctx context.Context, messages []types.Message, opts *agent.InvokeOptions) (<-chan agent.StreamItem, error) {
	_, err := b.Invoke(ctx, messages, opts)
	return nil, err
}

func (b *blockingAgent) ChannelKeys() []string { return nil }

func (b *blockingAgent) CreateChannel(context.Context) (agent.Channel, error) {
	return nil, agent.NewNotSupported(b.name, "create channel")
}

func (b *blockingAgent) RestoreChannel(context.Context, []byte) (agent.Channel, error) {
	return nil, agent.NewNotSupported(b.name, "restore channel")
}
