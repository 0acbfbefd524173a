package workers

import (
	"context"
	"testing"
	"time"

	"github.com/slotfair/slotfair/internal/availability/infrastructure/cache"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type sweeperFixture struct {
	store   *cache.MemoryStore
	tracker *cache.DirtyTracker
	keys    *cache.KeyBuilder
	sweeper *CacheSweeper
}

func newSweeperFixture() *sweeperFixture {
	store := cache.NewMemoryStore()
	tracker := cache.NewDirtyTracker(store, nil)
	keys := cache.NewKeyBuilder(nil, nil)
	return &sweeperFixture{
		store:   store,
		tracker: tracker,
		keys:    keys,
		sweeper: NewCacheSweeper(tracker, store, keys, DefaultCacheSweeperConfig(), nil),
	}
}

func (f *sweeperFixture) cacheResult(t *testing.T, organizerID uuid.UUID, start time.Time) string {
	t.Helper()
	key := f.keys.AvailabilityKey(organizerID, uuid.New(), start, start.AddDate(0, 0, 6), "UTC", 1)
	require.NoError(t, f.store.Set(context.Background(), key, []byte(`{}`), 0))
	return key
}

func TestCacheSweeperFullInvalidation(t *testing.T) {
	f := newSweeperFixture()
	ctx := context.Background()
	organizerID := uuid.New()
	otherID := uuid.New()
	monday := time.Date(2025, 6, 2, 0, 0, 0, 0, time.UTC)

	dirtyKey := f.cacheResult(t, organizerID, monday)
	otherKey := f.cacheResult(t, otherID, monday)

	require.NoError(t, f.tracker.MarkDirty(ctx, organizerID, "buffer_settings", true, nil))

	f.sweeper.runSweepCycle(ctx)

	_, err := f.store.Get(ctx, dirtyKey)
	assert.ErrorIs(t, err, cache.ErrCacheMiss)

	// Other organizers' entries are untouched.
	_, err = f.store.Get(ctx, otherKey)
	assert.NoError(t, err)

	entry, err := f.tracker.Entry(ctx, organizerID)
	require.NoError(t, err)
	assert.Nil(t, entry)

	dirty, err := f.tracker.DirtyOrganizers(ctx)
	require.NoError(t, err)
	assert.Empty(t, dirty)
}

func TestCacheSweeperDateNarrowedInvalidation(t *testing.T) {
	f := newSweeperFixture()
	ctx := context.Background()
	organizerID := uuid.New()
	touched := time.Date(2025, 6, 2, 0, 0, 0, 0, time.UTC)
	untouched := time.Date(2025, 7, 7, 0, 0, 0, 0, time.UTC)

	touchedKey := f.cacheResult(t, organizerID, touched)
	untouchedKey := f.cacheResult(t, organizerID, untouched)

	require.NoError(t, f.tracker.MarkDirty(ctx, organizerID, "date_overrides", false,
		map[string]string{"date": "2025-06-02"}))

	f.sweeper.runSweepCycle(ctx)

	_, err := f.store.Get(ctx, touchedKey)
	assert.ErrorIs(t, err, cache.ErrCacheMiss)

	_, err = f.store.Get(ctx, untouchedKey)
	assert.NoError(t, err)
}

func TestCacheSweeperDatelessChangeSweepsOrganizerWide(t *testing.T) {
	f := newSweeperFixture()
	ctx := context.Background()
	organizerID := uuid.New()
	monday := time.Date(2025, 6, 2, 0, 0, 0, 0, time.UTC)

	key := f.cacheResult(t, organizerID, monday)

	require.NoError(t, f.tracker.MarkDirty(ctx, organizerID, "blocked_times", false, nil))

	f.sweeper.runSweepCycle(ctx)

	_, err := f.store.Get(ctx, key)
	assert.ErrorIs(t, err, cache.ErrCacheMiss)
}

func TestCacheSweeperClearsStaleListMembership(t *testing.T) {
	f := newSweeperFixture()
	ctx := context.Background()
	organizerID := uuid.New()

	// List membership without a dirty entry, as after the entry's TTL fired.
	require.NoError(t, f.store.SetAdd(ctx, "dirty_cache_list", organizerID.String(), cache.DirtyEntryTTL))

	f.sweeper.runSweepCycle(ctx)

	dirty, err := f.tracker.DirtyOrganizers(ctx)
	require.NoError(t, err)
	assert.Empty(t, dirty)
}

func TestCacheSweeperRunStops(t *testing.T) {
	f := newSweeperFixture()

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- f.sweeper.Run(ctx) }()

	require.Eventually(t, f.sweeper.IsRunning, time.Second, 5*time.Millisecond)
	cancel()

	select {
	case err := <-done:
		assert.ErrorIs(t, err, context.Canceled)
	case <-time.After(time.Second):
		t.Fatal("sweeper did not stop on context cancellation")
	}
	assert.False(t, f.sweeper.IsRunning())
}
