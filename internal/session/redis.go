package session

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

const redisKeyPrefix = "clinicbot:session:"

// RedisStore persists sessions in Redis so the dialog survives a process
// restart. The idle TTL is applied as the key expiration and refreshed on
// every Put.
type RedisStore struct {
	client *redis.Client
	ttl    time.Duration
}

// NewRedisStore creates a Redis-backed session store.
func NewRedisStore(client *redis.Client, ttl time.Duration) *RedisStore {
	return &RedisStore{client: client, ttl: ttl}
}

var _ Store = (*RedisStore)(nil)

// Get returns the contact's session, or nil when idle or expired.
func (r *RedisStore) Get(ctx context.Context, contactID string) (*Session, error) {
	raw, err := r.client.Get(ctx, redisKeyPrefix+contactID).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("session: redis get %s: %w", contactID, err)
	}

	var s Session
	if err := json.Unmarshal(raw, &s); err != nil {
		return nil, fmt.Errorf("session: decode %s: %w", contactID, err)
	}
	return &s, nil
}

// Put stores the session and refreshes its idle deadline.
func (r *RedisStore) Put(ctx context.Context, contactID string, s *Session) error {
	raw, err := json.Marshal(s)
	if err != nil {
		return fmt.Errorf("session: encode %s: %w", contactID, err)
	}
	if err := r.client.Set(ctx, redisKeyPrefix+contactID, raw, r.ttl).Err(); err != nil {
		return fmt.Errorf("session: redis set %s: %w", contactID, err)
	}
	return nil
}

// Delete removes the contact's session.
func (r *RedisStore) Delete(ctx context.Context, contactID string) error {
	if err := r.client.Del(ctx, redisKeyPrefix+contactID).Err(); err != nil {
		return fmt.Errorf("session: redis del %s: %w", contactID, err)
	}
	return nil
}
