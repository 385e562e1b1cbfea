// Package history provides the shared conversation ledger agents read and
// write across handoffs.
//
// The store keeps the raw, ordered message sequence; a VisibilityPolicy
// decides per read which roles are exposed to consuming agents (tool and
// system messages are hidden by default to avoid provider incompatibilities).
// SharedStore is the in-process, mutex-guarded implementation; RedisStore
// persists the ledger so a conversation can outlive the process.
package history
