// Package cache is a small JSON read-through cache on Redis.
//
// A nil *Store, or one built without a client, is a valid no-op cache:
// every Get misses and every Set/Del succeeds.
package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/shashiranjanraj/stockbook/pkg/logger"
)

// Store wraps a Redis client with a key prefix and default TTL.
type Store struct {
	rdb    redis.UniversalClient
	prefix string
	ttl    time.Duration
}

// New wraps rdb. A nil rdb yields a no-op store.
func New(rdb redis.UniversalClient, prefix string, ttl time.Duration) *Store {
	return &Store{rdb: rdb, prefix: prefix, ttl: ttl}
}

// Connect dials addr and pings it.
func Connect(ctx context.Context, addr, password string) (*redis.Client, error) {
	rdb := redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: password,
		DB:       0,
	})
	if err := rdb.Ping(ctx).Err(); err != nil {
		_ = rdb.Close()
		return nil, fmt.Errorf("cache: redis ping: %w", err)
	}
	return rdb, nil
}

// Enabled reports whether a backend is configured.
func (s *Store) Enabled() bool { return s != nil && s.rdb != nil }

func (s *Store) key(k string) string { return s.prefix + k }

// Get unmarshals the value at key into dest. It returns false on a miss or
// on any backend error; errors other than a miss are logged.
func (s *Store) Get(ctx context.Context, key string, dest interface{}) bool {
	if !s.Enabled() {
		return false
	}

	val, err := s.rdb.Get(ctx, s.key(key)).Bytes()
	if err != nil {
		if !errors.Is(err, redis.Nil) {
			logger.WithCtx(ctx).Warn("cache: get failed", "key", key, "error", err)
		}
		return false
	}

	if err := json.Unmarshal(val, dest); err != nil {
		logger.WithCtx(ctx).Warn("cache: decode failed", "key", key, "error", err)
		return false
	}
	return true
}

// Set stores value under key for the store TTL.
func (s *Store) Set(ctx context.Context, key string, value interface{}) error {
	if !s.Enabled() {
		return nil
	}

	data, err := json.Marshal(value)
	if err != nil {
		return fmt.Errorf("cache: encode %s: %w", key, err)
	}
	return s.rdb.Set(ctx, s.key(key), data, s.ttl).Err()
}

// Del removes keys.
func (s *Store) Del(ctx context.Context, keys ...string) error {
	if !s.Enabled() || len(keys) == 0 {
		return nil
	}
	full := make([]string, len(keys))
	for i, k := range keys {
		full[i] = s.key(k)
	}
	return s.rdb.Del(ctx, full...).Err()
}
