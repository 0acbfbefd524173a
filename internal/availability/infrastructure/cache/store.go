// Package cache implements the availability result cache: the key and
// invalidation protocol, the dirty-set tracker, and Redis plus in-memory
// stores behind a common interface. The cache is an optimization only;
// callers must treat every error here as non-fatal.
package cache

import (
	"context"
	"errors"
	"time"
)

// ErrCacheMiss is returned by Get when the key does not exist.
var ErrCacheMiss = errors.New("cache miss")

// ErrCacheUnavailable is returned when the backend cannot be reached,
// including while a circuit breaker holds the connection open.
var ErrCacheUnavailable = errors.New("cache unavailable")

// Store is the key/value interface the engine consumes. Patterns use the
// Redis glob dialect; only `*` is relied upon.
type Store interface {
	Get(ctx context.Context, key string) ([]byte, error)
	Set(ctx context.Context, key string, value []byte, ttl time.Duration) error
	Delete(ctx context.Context, keys ...string) error
	// DeletePattern removes all keys matching the glob pattern and returns
	// how many were removed.
	DeletePattern(ctx context.Context, pattern string) (int, error)

	// Set-valued keys back the dirty-organizer list.
	SetAdd(ctx context.Context, key, member string, ttl time.Duration) error
	SetMembers(ctx context.Context, key string) ([]string, error)
	SetRemove(ctx context.Context, key, member string) error
}
