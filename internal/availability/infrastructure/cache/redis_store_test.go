package cache

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRedisStoreExecutePartialResult(t *testing.T) {
	store := NewRedisStore(nil, DefaultRedisStoreConfig(), nil)

	// An op that fails midway still surfaces the work already done, so
	// DeletePattern can report a partial removal count with the error.
	result, err := store.execute(func() (any, error) {
		return 3, errors.New("connection reset")
	})
	require.Error(t, err)
	assert.Equal(t, 3, result)
}

func TestRedisStoreExecuteOpenBreaker(t *testing.T) {
	cfg := RedisStoreConfig{
		MaxRequests:         1,
		Interval:            time.Minute,
		Timeout:             time.Minute,
		ConsecutiveFailures: 1,
	}
	store := NewRedisStore(nil, cfg, nil)

	_, err := store.execute(func() (any, error) {
		return nil, errors.New("down")
	})
	require.Error(t, err)

	// The breaker is open now; the backend error is replaced by the
	// unavailability sentinel and no partial result leaks through.
	result, err := store.execute(func() (any, error) {
		return 7, nil
	})
	assert.ErrorIs(t, err, ErrCacheUnavailable)
	assert.Nil(t, result)
}
