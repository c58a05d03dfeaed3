package idempotency

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/easymo/marketplace-core/pkg/cache"
)

// pendingMarker reserves a key before the quote insert commits. A crash
// between reserve and complete leaves the marker to expire on its own.
const pendingMarker = "pending"

// Store is a Redis-backed idempotency register for quote creation.
// Replayed keys return the quote ID stored by the first request instead
// of inserting a second row.
type Store struct {
	redis      *redis.Client
	ttl        time.Duration
	pendingTTL time.Duration
}

// NewStore creates a new idempotency store
func NewStore(client *redis.Client, ttl time.Duration) *Store {
	return &Store{
		redis:      client,
		ttl:        ttl,
		pendingTTL: time.Minute,
	}
}

// Reserve attempts to claim the key. It returns the previously stored
// quote ID when the key was already completed, or empty string with
// fresh=true when this request owns the key.
func (s *Store) Reserve(ctx context.Context, key string) (existing string, fresh bool, err error) {
	ok, err := cache.SetNX(ctx, s.redis, s.redisKey(key), pendingMarker, s.pendingTTL)
	if err != nil {
		return "", false, fmt.Errorf("failed to reserve idempotency key: %w", err)
	}
	if ok {
		return "", true, nil
	}

	val, err := cache.Get(ctx, s.redis, s.redisKey(key))
	if err == redis.Nil {
		// Marker expired between SETNX and GET; treat as fresh
		return "", true, nil
	}
	if err != nil {
		return "", false, fmt.Errorf("failed to read idempotency key: %w", err)
	}
	if val == pendingMarker {
		return "", false, ErrRequestInFlight
	}
	return val, false, nil
}

// Complete records the quote ID produced for the key
func (s *Store) Complete(ctx context.Context, key, quoteID string) error {
	return cache.SetWithExpiry(ctx, s.redis, s.redisKey(key), quoteID, s.ttl)
}

// Release drops the pending marker after a failed insert so the caller
// can retry with the same key
func (s *Store) Release(ctx context.Context, key string) error {
	return cache.Delete(ctx, s.redis, s.redisKey(key))
}

func (s *Store) redisKey(key string) string {
	return "idem:quote:" + key
}
