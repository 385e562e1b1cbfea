package orchestration

import (
	"context"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"

	"github.com/BaSui01/agentrelay/agent"
	"github.com/BaSui01/agentrelay/history"
	"github.com/BaSui01/agentrelay/types"
)

// SequentialConfig configures a sequential orchestration.
type SequentialConfig struct {
	// ResponseCallback observes every stage response.
	ResponseCallback ResponseCallback
	// StreamingCallback, when set, switches stages to streaming invocation.
	StreamingCallback StreamingCallback
	// History, when set, backs the pipeline with a shared store.
	History history.Store
}

// Sequential invokes a fixed list of agents strictly in declared order. The
// accumulated output of each stage is appended to the message list fed to
// the next stage; a guarded stage may no-op and the pipeline still advances.
// There is no branching and no fallback.
type Sequential struct {
	stages []agent.Agent
	config SequentialConfig
	logger *zap.Logger
	tracer trace.Tracer
}

// NewSequential creates a pipeline over the given stages.
func NewSequential(stages []agent.Agent, config SequentialConfig, logger *zap.Logger) *Sequential {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Sequential{
		stages: stages,
		config: config,
		logger: logger.With(zap.String("component", "sequential_orchestration")),
		tracer: otel.Tracer("github.com/BaSui01/agentrelay/orchestration"),
	}
}

// Invoke runs the pipeline for the given task inside the runtime and returns
// a result resolved with the last textual content produced.
func (s *Sequential) Invoke(task string, rt *Runtime) *Result[string] {
	result := NewResult[string]()
	rt.Go(func(ctx context.Context) error {
		s.run(ctx, task, result)
		return nil
	})
	return result
}

func (s *Sequential) run(ctx context.Context, task string, result *Result[string]) {
	invocationID := uuid.NewString()
	ctx = types.WithOrchestrationID(ctx, invocationID)

	ctx, span := s.tracer.Start(ctx, "orchestration.sequential",
		trace.WithAttributes(
			attribute.String("orchestration.id", invocationID),
			attribute.Int("orchestration.stages", len(s.stages)),
		))
	defer span.End()

	logger := s.logger.With(zap.String("invocation", invocationID))

	conversation := []types.Message{types.NewUserMessage(task)}
	s.appendShared(ctx, logger, conversation[0])
	lastText := ""

	for i, stage := range s.stages {
		if err := ctx.Err(); err != nil {
			s.fail(result, span, logger, types.NewError(types.ErrCancelled, "pipeline cancelled").WithCause(err))
			return
		}

		turnsTotal.Inc()
		stageCtx := types.WithAgentName(ctx, stage.Name())
		items, err := invokeAgent(stageCtx, stage, conversation, s.config.StreamingCallback, logger)
		if err != nil {
			s.fail(result, span, logger, wrapInvocationError(stageCtx, stage.Name(), err))
			return
		}
		if len(items) == 0 {
			logger.Debug("stage yielded no responses", zap.Int("stage", i), zap.String("agent", stage.Name()))
			continue
		}

		for _, item := range items {
			emitResponse(s.config.ResponseCallback, item.Message, logger)
			if item.Message.Content != "" {
				conversation = append(conversation, item.Message)
				s.appendShared(ctx, logger, item.Message)
				lastText = item.Message.Content
			}
		}
	}

	logger.Info("pipeline resolved", zap.Int("stages", len(s.stages)))
	result.Resolve(lastText)
}

func (s *Sequential) appendShared(ctx context.Context, logger *zap.Logger, msg types.Message) {
	if s.config.History == nil {
		return
	}
	if _, err := s.config.History.Append(ctx, msg); err != nil {
		logger.Warn("shared history append failed", zap.Error(err))
	}
}

func (s *Sequential) fail(result *Result[string], span trace.Span, logger *zap.Logger, err error) {
	code := string(types.GetErrorCode(err))
	failuresTotal.WithLabelValues(code).Inc()
	span.SetAttributes(attribute.String("orchestration.error_code", code))
	logger.Warn("pipeline failed", zap.Error(err))
	result.Fail(err)
}
