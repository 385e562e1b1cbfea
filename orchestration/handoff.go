package orchestration

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"

	"github.com/BaSui01/agentrelay/agent"
	"github.com/BaSui01/agentrelay/config"
	"github.com/BaSui01/agentrelay/history"
	"github.com/BaSui01/agentrelay/types"
)

const (
	// DefaultMaxTurns guards against infinite routing loops.
	DefaultMaxTurns = 20
	// DefaultInteractiveTimeout bounds a human-in-the-loop suspension.
	DefaultInteractiveTimeout = 5 * time.Minute
)

// HandoffConfig configures a handoff orchestration.
type HandoffConfig struct {
	// MaxTurns bounds the routing loop. Defaults to DefaultMaxTurns.
	MaxTurns int
	// InteractiveTimeout bounds each human-in-the-loop suspension.
	// Defaults to DefaultInteractiveTimeout.
	InteractiveTimeout time.Duration
	// Interactive supplies human input for human-flagged edges. Taking a
	// human edge without a provider fails the orchestration.
	Interactive InteractiveFunc
	// ResponseCallback observes every agent response.
	ResponseCallback ResponseCallback
	// StreamingCallback, when set, switches agent turns to the streaming
	// invocation form and observes incremental output.
	StreamingCallback StreamingCallback
	// History, when set, backs the conversation with a shared store so
	// every participant observes the same ledger. Participants recording to
	// the same store themselves will duplicate their turns.
	History history.Store
}

// HandoffConfigFromSettings maps engine configuration onto a HandoffConfig.
// Callbacks and history are wired by the caller.
func HandoffConfigFromSettings(s config.OrchestrationSettings) HandoffConfig {
	return HandoffConfig{
		MaxTurns:           s.MaxTurns,
		InteractiveTimeout: s.InteractiveTimeout,
	}
}

// Handoff drives a multi-turn conversation across agents per an immutable
// routing graph. Turns are strictly sequential: the state machine never
// invokes two agents concurrently against the same conversation.
type Handoff struct {
	graph  *Graph
	config HandoffConfig
	logger *zap.Logger
	tracer trace.Tracer
}

// NewHandoff creates a handoff orchestration over the given graph.
func NewHandoff(graph *Graph, config HandoffConfig, logger *zap.Logger) *Handoff {
	if logger == nil {
		logger = zap.NewNop()
	}
	if config.MaxTurns <= 0 {
		config.MaxTurns = DefaultMaxTurns
	}
	if config.InteractiveTimeout <= 0 {
		config.InteractiveTimeout = DefaultInteractiveTimeout
	}
	return &Handoff{
		graph:  graph,
		config: config,
		logger: logger.With(zap.String("component", "handoff_orchestration")),
		tracer: otel.Tracer("github.com/BaSui01/agentrelay/orchestration"),
	}
}

// Invoke starts the routing loop for the given task inside the runtime and
// returns a result resolved with the final textual content. The caller
// always receives either a resolved value or a typed failure.
func (h *Handoff) Invoke(task string, rt *Runtime) *Result[string] {
	result := NewResult[string]()
	rt.Go(func(ctx context.Context) error {
		h.run(ctx, task, result)
		return nil
	})
	return result
}

func (h *Handoff) run(ctx context.Context, task string, result *Result[string]) {
	invocationID := uuid.NewString()
	ctx = types.WithOrchestrationID(ctx, invocationID)

	ctx, span := h.tracer.Start(ctx, "orchestration.handoff",
		trace.WithAttributes(attribute.String("orchestration.id", invocationID)))
	defer span.End()

	logger := h.logger.With(zap.String("invocation", invocationID))
	logger.Info("handoff orchestration started", zap.Int("participants", len(h.graph.Participants())))

	conversation := []types.Message{types.NewUserMessage(task)}
	h.appendShared(ctx, logger, conversation[0])

	current := h.graph.Start()
	lastText := ""

	for turn := 1; ; turn++ {
		if turn > h.config.MaxTurns {
			logger.Warn("turn budget exhausted", zap.Int("max_turns", h.config.MaxTurns))
			span.SetAttributes(attribute.Int("orchestration.turns", turn-1))
			result.Resolve(lastText)
			return
		}
		if err := ctx.Err(); err != nil {
			h.fail(result, span, logger, types.NewError(types.ErrCancelled, "orchestration cancelled").WithCause(err))
			return
		}

		turnsTotal.Inc()
		turnCtx := types.WithAgentName(ctx, current.Name())
		items, err := invokeAgent(turnCtx, current, conversation, h.config.StreamingCallback, logger)
		if err != nil {
			h.fail(result, span, logger, wrapInvocationError(turnCtx, current.Name(), err))
			return
		}

		var directive *agent.HandoffDirective
		for _, item := range items {
			emitResponse(h.config.ResponseCallback, item.Message, logger)
			if item.Message.Content != "" {
				conversation = append(conversation, item.Message)
				h.appendShared(ctx, logger, item.Message)
				lastText = item.Message.Content
			}
			if item.Handoff != nil {
				directive = item.Handoff
			}
		}

		if directive == nil {
			logger.Info("orchestration resolved", zap.String("agent", current.Name()), zap.Int("turns", turn))
			span.SetAttributes(attribute.Int("orchestration.turns", turn))
			result.Resolve(lastText)
			return
		}

		next, injected, err := h.route(ctx, logger, current, directive)
		if err != nil {
			h.fail(result, span, logger, err)
			return
		}
		if injected != nil {
			conversation = append(conversation, *injected)
			h.appendShared(ctx, logger, *injected)
		}
		current = next
	}
}

// route applies one handoff directive: transfer to a permitted target, or
// suspend on human input for a human-flagged edge, or fall back when the
// target is not permitted. Returns the agent taking the next turn and an
// optional injected user message.
func (h *Handoff) route(ctx context.Context, logger *zap.Logger, current agent.Agent, directive *agent.HandoffDirective) (agent.Agent, *types.Message, error) {
	edge, permitted := h.graph.EdgeTo(current.Name(), directive.Target)
	if !permitted {
		fallback, ok := h.graph.Fallback()
		if !ok {
			return nil, nil, types.NewError(types.ErrRoutingDenied, "handoff target not permitted: "+directive.Target).
				WithAgent(current.Name())
		}
		logger.Warn("handoff not permitted, routing to fallback",
			zap.String("from", current.Name()),
			zap.String("target", directive.Target),
			zap.String("fallback", fallback.Name()),
		)
		handoffsTotal.WithLabelValues(current.Name(), fallback.Name()).Inc()
		return fallback, nil, nil
	}

	if edge.Human {
		humanPromptsTotal.Inc()
		msg, err := h.askHuman(ctx)
		if err != nil {
			return nil, nil, err
		}
		logger.Info("human input injected", zap.String("agent", current.Name()))
		// Control stays with the current agent; the human reply becomes
		// the next user turn.
		return current, &msg, nil
	}

	target, _ := h.graph.Participant(edge.To)
	logger.Info("handoff accepted",
		zap.String("from", current.Name()),
		zap.String("to", target.Name()),
	)
	handoffsTotal.WithLabelValues(current.Name(), target.Name()).Inc()
	return target, nil, nil
}

// askHuman suspends on the interactive provider, bounded by the configured
// timeout. A timeout here is reported distinctly from routing errors.
func (h *Handoff) askHuman(ctx context.Context) (types.Message, error) {
	if h.config.Interactive == nil {
		return types.Message{}, types.NewError(types.ErrRoutingDenied, "human edge taken but no interactive provider configured")
	}

	waitCtx, cancel := context.WithTimeout(ctx, h.config.InteractiveTimeout)
	defer cancel()

	msg, err := h.config.Interactive(waitCtx)
	if err != nil {
		switch {
		case errors.Is(err, context.DeadlineExceeded) && ctx.Err() == nil:
			return types.Message{}, types.NewError(types.ErrHumanInputTimeout, "no human input within bound").WithCause(err)
		case ctx.Err() != nil:
			return types.Message{}, types.NewError(types.ErrCancelled, "human input wait cancelled").WithCause(err)
		default:
			return types.Message{}, types.NewError(types.ErrAgentInvocation, "interactive provider failed").WithCause(err)
		}
	}
	if msg.Role == "" {
		msg.Role = types.RoleUser
	}
	return msg, nil
}

func (h *Handoff) appendShared(ctx context.Context, logger *zap.Logger, msg types.Message) {
	if h.config.History == nil {
		return
	}
	if _, err := h.config.History.Append(ctx, msg); err != nil {
		logger.Warn("shared history append failed", zap.Error(err))
	}
}

func (h *Handoff) fail(result *Result[string], span trace.Span, logger *zap.Logger, err error) {
	code := string(types.GetErrorCode(err))
	failuresTotal.WithLabelValues(code).Inc()
	span.SetAttributes(attribute.String("orchestration.error_code", code))
	logger.Warn("orchestration failed", zap.Error(err))
	result.Fail(err)
}
