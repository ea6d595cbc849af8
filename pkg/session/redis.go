package session

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// Key prefixes used by the Redis stores.
const (
	redisSessionPrefix = "session:"
	redisStatePrefix   = "oauth-state:"
)

// RedisStore stores sessions in Redis with the session lifetime as TTL.
// Expired sessions are evicted by Redis itself.
type RedisStore struct {
	client *redis.Client
	prefix string
}

// NewRedisStore wraps an existing client. prefix is prepended to every key.
func NewRedisStore(client *redis.Client, prefix string) *RedisStore {
	return &RedisStore{client: client, prefix: prefix + redisSessionPrefix}
}

func (s *RedisStore) Get(ctx context.Context, sessionID string) (*Session, error) {
	data, err := s.client.Get(ctx, s.prefix+sessionID).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("redis get session: %w", err)
	}

	var sess Session
	if err := json.Unmarshal(data, &sess); err != nil {
		return nil, fmt.Errorf("parse session: %w", err)
	}
	if sess.IsExpired() {
		return nil, nil
	}
	return &sess, nil
}

func (s *RedisStore) Set(ctx context.Context, sess *Session) error {
	ttl := time.Until(sess.ExpiresAt)
	if ttl <= 0 {
		return nil
	}
	data, err := json.Marshal(sess)
	if err != nil {
		return fmt.Errorf("marshal session: %w", err)
	}
	if err := s.client.Set(ctx, s.prefix+sess.ID, data, ttl).Err(); err != nil {
		return fmt.Errorf("redis set session: %w", err)
	}
	return nil
}

func (s *RedisStore) Delete(ctx context.Context, sessionID string) error {
	if err := s.client.Del(ctx, s.prefix+sessionID).Err(); err != nil {
		return fmt.Errorf("redis delete session: %w", err)
	}
	return nil
}

// Cleanup is a no-op; Redis expires keys on its own.
func (s *RedisStore) Cleanup(context.Context) error { return nil }

var _ Store = (*RedisStore)(nil)

// RedisStateStore stores OAuth state tokens in Redis so any instance can
// complete a login started on another.
type RedisStateStore struct {
	client *redis.Client
	prefix string
}

// NewRedisStateStore wraps an existing client. prefix is prepended to every key.
func NewRedisStateStore(client *redis.Client, prefix string) *RedisStateStore {
	return &RedisStateStore{client: client, prefix: prefix + redisStatePrefix}
}

func (s *RedisStateStore) Generate(ctx context.Context, ttl time.Duration) (string, error) {
	state, err := GenerateState()
	if err != nil {
		return "", err
	}
	if err := s.client.Set(ctx, s.prefix+state, "1", ttl).Err(); err != nil {
		return "", fmt.Errorf("redis set state: %w", err)
	}
	return state, nil
}

// Validate consumes the token atomically with GETDEL.
func (s *RedisStateStore) Validate(ctx context.Context, state string) (bool, error) {
	err := s.client.GetDel(ctx, s.prefix+state).Err()
	if errors.Is(err, redis.Nil) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("redis validate state: %w", err)
	}
	return true, nil
}

func (s *RedisStateStore) Cleanup(context.Context) error { return nil }

var _ StateStore = (*RedisStateStore)(nil)
