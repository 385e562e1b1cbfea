// Package types defines the shared vocabulary of the agentrelay engine:
// conversation messages and roles, the unified structured error model,
// context propagation helpers, and token counting.
//
// Design rules:
//   - Zero dependencies on other agentrelay packages. types is the lowest
//     layer; everything else imports it.
//   - Messages are value types and treated as immutable after creation.
//   - Errors carry an ErrorCode so callers can branch on failure class
//     (routing vs timeout vs cancellation) without string matching.
package types
