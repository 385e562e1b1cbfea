package agent

import (
	"context"
	"sync/atomic"

	"github.com/BaSui01/agentrelay/types"
)

// stubAgent is a call-counting Agent used across the decorator tests.
type stubAgent struct {
	name        string
	invokeFn    func(ctx context.Context, messages []types.Message) ([]ResponseItem, error)
	invocations atomic.Int32
	streamCalls atomic.Int32
	channelKeys []string
}

func newStubAgent(name string) *stubAgent {
	return &stubAgent{name: name, channelKeys: []string{"stub"}}
}

func (s *stubAgent) Name() string        { return s.name }
func (s *stubAgent) Description() string { return "stub agent" }

func (s *stubAgent) Invoke(ctx context.Context, messages []types.Message, _ *InvokeOptions) ([]ResponseItem, error) {
	s.invocations.Add(1)
	if s.invokeFn != nil {
		return s.invokeFn(ctx, messages)
	}
	return []ResponseItem{{Message: types.NewAssistantMessage(s.name, "ok")}}, nil
}

func (s *stubAgent) InvokeStream(ctx context.Context, messages []types.Message, opts *InvokeOptions) (<-chan StreamItem, error) {
	s.streamCalls.Add(1)
	items, err := s.Invoke(ctx, messages, opts)
	if err != nil {
		return nil, err
	}
	out := make(chan StreamItem, len(items))
	for _, item := range items {
		msg := item.Message
		out <- StreamItem{Final: true, Message: &msg, Handoff: item.Handoff}
	}
	close(out)
	return out, nil
}

func (s *stubAgent) ChannelKeys() []string { return s.channelKeys }

func (s *stubAgent) CreateChannel(context.Context) (Channel, error) {
	return &completionChannel{key: s.channelKeys[0]}, nil
}

func (s *stubAgent) RestoreChannel(context.Context, []byte) (Channel, error) {
	return &completionChannel{key: s.channelKeys[0]}, nil
}
