package store

import (
	"context"
	"errors"
	"time"
)

// ErrNotFound is returned when a key has no value
var ErrNotFound = errors.New("key not found")

// KVStore is the Redis-compatible semantic set the managers rely on.
// Implementations: RedisStore (production) and MemoryStore (tests and
// degraded mode when Redis is unreachable).
type KVStore interface {
	Get(ctx context.Context, key string) (string, error)
	Set(ctx context.Context, key, value string) error
	Del(ctx context.Context, keys ...string) error

	// LPush prepends values; LTrim caps a list; LRange reads a slice
	LPush(ctx context.Context, key string, values ...string) error
	RPush(ctx context.Context, key string, values ...string) error
	LTrim(ctx context.Context, key string, start, stop int64) error
	LRange(ctx context.Context, key string, start, stop int64) ([]string, error)

	HSet(ctx context.Context, key, field, value string) error
	HGet(ctx context.Context, key, field string) (string, error)
	HGetAll(ctx context.Context, key string) (map[string]string, error)
	HDel(ctx context.Context, key string, fields ...string) error
	HIncrBy(ctx context.Context, key, field string, incr int64) (int64, error)

	Expire(ctx context.Context, key string, ttl time.Duration) error
	Ping(ctx context.Context) error
}
