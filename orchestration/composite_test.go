package orchestration

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/BaSui01/agentrelay/agent"
	"github.com/BaSui01/agentrelay/types"
)

func TestOrchestrationAgent_InvokeRunsNestedPipeline(t *testing.T) {
	inner := NewSequential([]agent.Agent{
		answerWith("draft", "first draft"),
		answerWith("polish", "final copy"),
	}, SequentialConfig{}, nil)

	composite := NewOrchestrationAgent(inner, CompositeConfig{
		Name:        "writing_team",
		Description: "drafts and polishes prose",
	}, nil)

	items, err := composite.Invoke(context.Background(), []types.Message{types.NewUserMessage("write a blurb")}, nil)
	require.NoError(t, err)
	require.Len(t, items, 1)
	assert.Equal(t, "final copy", items[0].Message.Content)
	assert.Equal(t, "writing_team", items[0].Message.Name)
	assert.Equal(t, types.RoleAssistant, items[0].Message.Role)
}

func TestOrchestrationAgent_FlattensMessagesIntoTask(t *testing.T) {
	var seenTask string
	inner := orchestrationFunc(func(task string, rt *Runtime) *Result[string] {
		seenTask = task
		r := NewResult[string]()
		r.Resolve("ok")
		return r
	})

	composite := NewOrchestrationAgent(inner, CompositeConfig{Name: "team", Separator: " | "}, nil)

	_, err := composite.Invoke(context.Background(), []types.Message{
		types.NewUserMessage("part one"),
		types.NewAssistantMessage("someone", "part two"),
	}, nil)
	require.NoError(t, err)
	assert.Equal(t, "part one | part two", seenTask)
}

// A composite inside a handoff graph: the outer triage agent hands off to a
// nested pipeline exposed as a regular participant.
func TestOrchestrationAgent_NestsInsideHandoff(t *testing.T) {
	pipeline := NewSequential([]agent.Agent{
		answerWith("draft", "first draft"),
		answerWith("polish", "final copy"),
	}, SequentialConfig{}, nil)
	team := NewOrchestrationAgent(pipeline, CompositeConfig{Name: "writing_team"}, nil)

	triage := newScriptedAgent("triage", func(_ int, messages []types.Message) ([]agent.ResponseItem, error) {
		if strings.Contains(messages[len(messages)-1].Content, "blurb") {
			return reply("triage", "delegating to the writing team", "writing_team"), nil
		}
		return reply("triage", "nothing to do", ""), nil
	})

	graph, err := NewGraphBuilder().
		StartWith(triage).
		Add(triage, team).
		Build()
	require.NoError(t, err)

	final, err := runHandoff(t, graph, HandoffConfig{}, "write a blurb for the launch")
	require.NoError(t, err)
	assert.Equal(t, "final copy", final)
}

// A nested orchestration that never resolves must surface a typed timeout
// instead of hanging the outer turn.
func TestOrchestrationAgent_InnerTimeout(t *testing.T) {
	stuck := orchestrationFunc(func(task string, rt *Runtime) *Result[string] {
		return NewResult[string]()
	})

	composite := NewOrchestrationAgent(stuck, CompositeConfig{
		Name:         "stuck_team",
		InnerTimeout: 30 * time.Millisecond,
	}, nil)

	start := time.Now()
	_, err := composite.Invoke(context.Background(), []types.Message{types.NewUserMessage("go")}, nil)
	require.Error(t, err)
	assert.True(t, types.IsCode(err, types.ErrTimeout))
	assert.Less(t, time.Since(start), 5*time.Second)

	var typed *types.Error
	require.ErrorAs(t, err, &typed)
	assert.Equal(t, "stuck_team", typed.Agent)
}

// The nested runtime's timeout also cancels the nested work, so a hung inner
// agent unwinds rather than leaking.
func TestOrchestrationAgent_InnerTimeoutCancelsWork(t *testing.T) {
	unwound := make(chan struct{})
	stuck := orchestrationFunc(func(task string, rt *Runtime) *Result[string] {
		result := NewResult[string]()
		rt.Go(func(ctx context.Context) error {
			<-ctx.Done()
			close(unwound)
			return ctx.Err()
		})
		return result
	})

	composite := NewOrchestrationAgent(stuck, CompositeConfig{
		Name:         "stuck_team",
		InnerTimeout: 30 * time.Millisecond,
	}, nil)

	_, err := composite.Invoke(context.Background(), []types.Message{types.NewUserMessage("go")}, nil)
	require.Error(t, err)

	select {
	case <-unwound:
	case <-time.After(time.Second):
		t.Fatal("nested work was not cancelled by the inner timeout")
	}
}

func TestOrchestrationAgent_InvokeStream(t *testing.T) {
	inner := NewSequential([]agent.Agent{answerWith("solo", "done")}, SequentialConfig{}, nil)
	composite := NewOrchestrationAgent(inner, CompositeConfig{Name: "team"}, nil)

	stream, err := composite.InvokeStream(context.Background(), []types.Message{types.NewUserMessage("go")}, nil)
	require.NoError(t, err)

	var finals []string
	for item := range stream {
		require.True(t, item.Final)
		finals = append(finals, item.Message.Content)
	}
	assert.Equal(t, []string{"done"}, finals)
}

func TestOrchestrationAgent_ChannelsUnsupported(t *testing.T) {
	inner := NewSequential(nil, SequentialConfig{}, nil)
	composite := NewOrchestrationAgent(inner, CompositeConfig{Name: "team"}, nil)

	assert.Nil(t, composite.ChannelKeys())

	_, err := composite.CreateChannel(context.Background())
	assert.True(t, types.IsCode(err, types.ErrNotSupported))

	_, err = composite.RestoreChannel(context.Background(), nil)
	assert.True(t, types.IsCode(err, types.ErrNotSupported))
}

// orchestrationFunc adapts a function to the Orchestration interface.
type orchestrationFunc func(task string, rt *Runtime) *Result[string]

func (f orchestrationFunc) Invoke(task string, rt *Runtime) *Result[string] {
	return f(task, rt)
}
