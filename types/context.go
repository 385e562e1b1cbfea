package types

import "context"

// contextKey is used for storing values in context.Context.
type contextKey string

const (
	keyTraceID         contextKey = "trace_id"
	keyRunID           contextKey = "run_id"
	keyOrchestrationID contextKey = "orchestration_id"
	keyAgentName       contextKey = "agent_name"
)

// WithTraceID adds trace ID to context.
func WithTraceID(ctx context.Context, traceID string) context.Context {
	return context.WithValue(ctx, keyTraceID, traceID)
}

// TraceID extracts trace ID from context.
func TraceID(ctx context.Context) (string, bool) {
	v, ok := ctx.Value(keyTraceID).(string)
	return v, ok && v != ""
}

// WithRunID adds runtime run ID to context.
func WithRunID(ctx context.Context, runID string) context.Context {
	return context.WithValue(ctx, keyRunID, runID)
}

// RunID extracts runtime run ID from context.
func RunID(ctx context.Context) (string, bool) {
	v, ok := ctx.Value(keyRunID).(string)
	return v, ok && v != ""
}

// WithOrchestrationID adds orchestration invocation ID to context.
func WithOrchestrationID(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, keyOrchestrationID, id)
}

// OrchestrationID extracts orchestration invocation ID from context.
func OrchestrationID(ctx context.Context) (string, bool) {
	v, ok := ctx.Value(keyOrchestrationID).(string)
	return v, ok && v != ""
}

// WithAgentName adds the currently executing agent name to context.
func WithAgentName(ctx context.Context, name string) context.Context {
	return context.WithValue(ctx, keyAgentName, name)
}

// AgentName extracts the currently executing agent name from context.
func AgentName(ctx context.Context) (string, bool) {
	v, ok := ctx.Value(keyAgentName).(string)
	return v, ok && v != ""
}
