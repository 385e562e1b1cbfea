// Package agent defines the Agent capability interface and its decorators.
//
// An Agent is the atomic unit of the engine: given the conversation so far it
// produces zero or more responses, optionally carrying a structured
// HandoffDirective that the routing layer interprets. How a response is
// produced is opaque; CompletionAgent adapts any model backend implementing
// the narrow Completer contract.
//
// Optional capabilities (channels, streaming) are part of the interface with
// typed NOT_SUPPORTED signalling, so decorators always delegate through
// interface methods instead of reaching into implementation internals.
package agent
