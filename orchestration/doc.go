// Package orchestration drives multi-agent conversations to a final result.
//
// Two drivers are provided: Handoff, a routing state machine transferring
// control between agents along an immutable permission graph (with optional
// human-in-the-loop edges and a fallback agent), and Sequential, a
// fixed-order pipeline with output accumulation. Both resolve a Result with
// the last textual content and run inside a Runtime owning cancellation and
// task lifecycle.
//
// OrchestrationAgent closes the loop: it exposes any orchestration through
// the agent.Agent interface, so whole orchestrations participate in other
// orchestrations as ordinary agents, nesting to arbitrary depth.
//
// Failure taxonomy: callers always receive a resolved value or a typed
// error (AGENT_INVOCATION, ROUTING_DENIED, TIMEOUT, HUMAN_INPUT_TIMEOUT,
// CANCELLED). Routing-layer errors are never retried here; retry, if any, is
// the invoked backend's own concern.
package orchestration
