package history

import (
	"context"
	"sync"

	"go.uber.org/zap"

	"github.com/BaSui01/agentrelay/types"
)

// VisibilityPolicy decides whether a message is exposed to consuming agents.
// Filtering must be deterministic given a message's role.
type VisibilityPolicy func(msg types.Message) bool

// DefaultVisibility exposes user and assistant messages and hides tool and
// system messages.
func DefaultVisibility(msg types.Message) bool {
	return msg.Role == types.RoleUser || msg.Role == types.RoleAssistant
}

// AllowRoles builds a policy exposing exactly the given roles.
func AllowRoles(roles ...types.Role) VisibilityPolicy {
	allowed := make(map[types.Role]struct{}, len(roles))
	for _, r := range roles {
		allowed[r] = struct{}{}
	}
	return func(msg types.Message) bool {
		_, ok := allowed[msg.Role]
		return ok
	}
}

// Store is the conversation ledger contract shared by the in-memory and
// persistent implementations. All operations take a context so persistent
// backends can honor cancellation; the in-memory store ignores it.
type Store interface {
	// Append records a message and reports whether the visibility policy
	// exposes it to consuming agents.
	Append(ctx context.Context, msg types.Message) (visible bool, err error)
	// Snapshot returns the policy-filtered conversation in insertion order.
	Snapshot(ctx context.Context) ([]types.Message, error)
	// Raw returns the full unfiltered conversation in insertion order.
	Raw(ctx context.Context) ([]types.Message, error)
	// Recent returns the last n policy-visible messages.
	Recent(ctx context.Context, n int) ([]types.Message, error)
	// Clear empties the store; used when the owning thread is torn down.
	Clear(ctx context.Context) error
	// Len returns the number of stored messages.
	Len(ctx context.Context) (int, error)
}

// SharedStore is the thread-safe in-process ledger. A single mutex
// linearizes all appends and reads; readers never observe a partially
// appended message.
type SharedStore struct {
	mu        sync.Mutex
	messages  []types.Message
	policy    VisibilityPolicy
	tokenizer types.Tokenizer
	budget    int
	logger    *zap.Logger
}

// SharedOption configures a SharedStore.
type SharedOption func(*SharedStore)

// WithPolicy overrides the default visibility policy.
func WithPolicy(policy VisibilityPolicy) SharedOption {
	return func(s *SharedStore) { s.policy = policy }
}

// WithTokenBudget bounds the stored conversation: once the token count
// exceeds budget, the oldest messages are evicted. The most recent message
// is always kept.
func WithTokenBudget(budget int, tokenizer types.Tokenizer) SharedOption {
	return func(s *SharedStore) {
		s.budget = budget
		s.tokenizer = tokenizer
	}
}

// WithLogger attaches a logger for eviction diagnostics.
func WithLogger(logger *zap.Logger) SharedOption {
	return func(s *SharedStore) { s.logger = logger }
}

// NewSharedStore creates an empty in-process conversation store.
func NewSharedStore(opts ...SharedOption) *SharedStore {
	s := &SharedStore{
		policy: DefaultVisibility,
		logger: zap.NewNop(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Append records the message and reports its visibility.
func (s *SharedStore) Append(_ context.Context, msg types.Message) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.messages = append(s.messages, msg)
	s.trimLocked()
	return s.policy(msg), nil
}

// Snapshot returns the policy-filtered conversation.
func (s *SharedStore) Snapshot(_ context.Context) ([]types.Message, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := make([]types.Message, 0, len(s.messages))
	for _, msg := range s.messages {
		if s.policy(msg) {
			out = append(out, msg)
		}
	}
	return out, nil
}

// Raw returns a copy of the full conversation, unfiltered.
func (s *SharedStore) Raw(_ context.Context) ([]types.Message, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]types.Message(nil), s.messages...), nil
}

// Recent returns the last n policy-visible messages.
func (s *SharedStore) Recent(ctx context.Context, n int) ([]types.Message, error) {
	visible, err := s.Snapshot(ctx)
	if err != nil {
		return nil, err
	}
	if n <= 0 || n >= len(visible) {
		return visible, nil
	}
	return visible[len(visible)-n:], nil
}

// Clear empties the store.
func (s *SharedStore) Clear(_ context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.messages = nil
	return nil
}

// Len returns the number of stored messages.
func (s *SharedStore) Len(_ context.Context) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.messages), nil
}

// trimLocked evicts the oldest messages while the token budget is exceeded.
// Callers must hold s.mu.
func (s *SharedStore) trimLocked() {
	if s.budget <= 0 || s.tokenizer == nil {
		return
	}
	evicted := 0
	for len(s.messages) > 1 && s.tokenizer.CountMessagesTokens(s.messages) > s.budget {
		s.messages = s.messages[1:]
		evicted++
	}
	if evicted > 0 {
		s.logger.Debug("evicted messages over token budget",
			zap.Int("evicted", evicted),
			zap.Int("budget", s.budget),
		)
	}
}
