package cache

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/sony/gobreaker/v2"
)

// RedisStore implements Store on a Redis backend. All calls run through a
// circuit breaker so a down Redis degrades to fast ErrCacheUnavailable
// instead of stalling every request on connection timeouts.
type RedisStore struct {
	client  *redis.Client
	breaker *gobreaker.CircuitBreaker[any]
	logger  *slog.Logger
}

// RedisStoreConfig configures the breaker around the Redis client.
type RedisStoreConfig struct {
	// MaxRequests allowed through in half-open state.
	MaxRequests uint32
	// Interval between failure-count resets while closed.
	Interval time.Duration
	// Timeout before an open breaker probes again.
	Timeout time.Duration
	// ConsecutiveFailures that trip the breaker.
	ConsecutiveFailures uint32
}

// DefaultRedisStoreConfig returns breaker settings suited to a cache that
// callers treat as optional.
func DefaultRedisStoreConfig() RedisStoreConfig {
	return RedisStoreConfig{
		MaxRequests:         3,
		Interval:            time.Minute,
		Timeout:             30 * time.Second,
		ConsecutiveFailures: 5,
	}
}

// NewRedisStore creates a Redis-backed store.
func NewRedisStore(client *redis.Client, cfg RedisStoreConfig, logger *slog.Logger) *RedisStore {
	if logger == nil {
		logger = slog.Default()
	}

	settings := gobreaker.Settings{
		Name:        "availability-cache",
		MaxRequests: cfg.MaxRequests,
		Interval:    cfg.Interval,
		Timeout:     cfg.Timeout,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= cfg.ConsecutiveFailures
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			logger.Warn("cache breaker state changed",
				"breaker", name,
				"from", from.String(),
				"to", to.String(),
			)
		},
	}

	return &RedisStore{
		client:  client,
		breaker: gobreaker.NewCircuitBreaker[any](settings),
		logger:  logger,
	}
}

// execute runs op through the breaker. On op failure the partial result is
// passed through alongside the error so callers like DeletePattern can
// report work already done.
func (s *RedisStore) execute(op func() (any, error)) (any, error) {
	result, err := s.breaker.Execute(op)
	if err != nil {
		if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
			return nil, ErrCacheUnavailable
		}
		return result, err
	}
	return result, nil
}

func (s *RedisStore) Get(ctx context.Context, key string) ([]byte, error) {
	result, err := s.execute(func() (any, error) {
		val, err := s.client.Get(ctx, key).Bytes()
		if err == redis.Nil {
			// A miss is not a backend failure; keep it away from the breaker.
			return nil, nil
		}
		return val, err
	})
	if err != nil {
		return nil, err
	}
	if result == nil {
		return nil, ErrCacheMiss
	}
	return result.([]byte), nil
}

func (s *RedisStore) Set(ctx context.Context, key string, value []byte, ttl time.Duration) error {
	_, err := s.execute(func() (any, error) {
		return nil, s.client.Set(ctx, key, value, ttl).Err()
	})
	return err
}

func (s *RedisStore) Delete(ctx context.Context, keys ...string) error {
	if len(keys) == 0 {
		return nil
	}
	_, err := s.execute(func() (any, error) {
		return nil, s.client.Del(ctx, keys...).Err()
	})
	return err
}

// DeletePattern scans for keys matching the glob pattern and deletes them.
// SCAN is used instead of KEYS to avoid blocking the server on large
// keyspaces.
func (s *RedisStore) DeletePattern(ctx context.Context, pattern string) (int, error) {
	result, err := s.execute(func() (any, error) {
		removed := 0
		iter := s.client.Scan(ctx, 0, pattern, 0).Iterator()
		for iter.Next(ctx) {
			if err := s.client.Del(ctx, iter.Val()).Err(); err != nil {
				return removed, fmt.Errorf("deleting %s: %w", iter.Val(), err)
			}
			removed++
		}
		if err := iter.Err(); err != nil {
			return removed, err
		}
		return removed, nil
	})
	if result == nil {
		return 0, err
	}
	return result.(int), err
}

func (s *RedisStore) SetAdd(ctx context.Context, key, member string, ttl time.Duration) error {
	_, err := s.execute(func() (any, error) {
		if err := s.client.SAdd(ctx, key, member).Err(); err != nil {
			return nil, err
		}
		if ttl > 0 {
			return nil, s.client.Expire(ctx, key, ttl).Err()
		}
		return nil, nil
	})
	return err
}

func (s *RedisStore) SetMembers(ctx context.Context, key string) ([]string, error) {
	result, err := s.execute(func() (any, error) {
		return s.client.SMembers(ctx, key).Result()
	})
	if err != nil {
		return nil, err
	}
	return result.([]string), nil
}

func (s *RedisStore) SetRemove(ctx context.Context, key, member string) error {
	_, err := s.execute(func() (any, error) {
		return nil, s.client.SRem(ctx, key, member).Err()
	})
	return err
}
