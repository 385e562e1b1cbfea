package history

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/redis/go-redis/v9"

	"github.com/BaSui01/agentrelay/types"
)

// RedisStore persists the conversation ledger in a Redis list, one JSON
// document per message. Ordering and linearization rely on Redis executing
// commands for a single key serially; the visibility policy is applied on
// read, same as SharedStore.
type RedisStore struct {
	client *redis.Client
	key    string
	policy VisibilityPolicy
}

// RedisOption configures a RedisStore.
type RedisOption func(*RedisStore)

// WithRedisPolicy overrides the default visibility policy.
func WithRedisPolicy(policy VisibilityPolicy) RedisOption {
	return func(s *RedisStore) { s.policy = policy }
}

// NewRedisStore creates a conversation store backed by the given client.
// key names the Redis list holding the conversation.
func NewRedisStore(client *redis.Client, key string, opts ...RedisOption) *RedisStore {
	s := &RedisStore{
		client: client,
		key:    key,
		policy: DefaultVisibility,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Append records the message and reports its visibility.
func (s *RedisStore) Append(ctx context.Context, msg types.Message) (bool, error) {
	data, err := json.Marshal(msg)
	if err != nil {
		return false, fmt.Errorf("marshal message: %w", err)
	}
	if err := s.client.RPush(ctx, s.key, data).Err(); err != nil {
		return false, fmt.Errorf("append to %s: %w", s.key, err)
	}
	return s.policy(msg), nil
}

// Snapshot returns the policy-filtered conversation.
func (s *RedisStore) Snapshot(ctx context.Context) ([]types.Message, error) {
	all, err := s.Raw(ctx)
	if err != nil {
		return nil, err
	}
	out := make([]types.Message, 0, len(all))
	for _, msg := range all {
		if s.policy(msg) {
			out = append(out, msg)
		}
	}
	return out, nil
}

// Raw returns the full unfiltered conversation.
func (s *RedisStore) Raw(ctx context.Context) ([]types.Message, error) {
	entries, err := s.client.LRange(ctx, s.key, 0, -1).Result()
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", s.key, err)
	}
	out := make([]types.Message, 0, len(entries))
	for _, entry := range entries {
		var msg types.Message
		if err := json.Unmarshal([]byte(entry), &msg); err != nil {
			return nil, fmt.Errorf("decode message in %s: %w", s.key, err)
		}
		out = append(out, msg)
	}
	return out, nil
}

// Recent returns the last n policy-visible messages.
func (s *RedisStore) Recent(ctx context.Context, n int) ([]types.Message, error) {
	visible, err := s.Snapshot(ctx)
	if err != nil {
		return nil, err
	}
	if n <= 0 || n >= len(visible) {
		return visible, nil
	}
	return visible[len(visible)-n:], nil
}

// Clear deletes the conversation key.
func (s *RedisStore) Clear(ctx context.Context) error {
	return s.client.Del(ctx, s.key).Err()
}

// Len returns the number of stored messages.
func (s *RedisStore) Len(ctx context.Context) (int, error) {
	n, err := s.client.LLen(ctx, s.key).Result()
	if err != nil {
		return 0, fmt.Errorf("len of %s: %w", s.key, err)
	}
	return int(n), nil
}
