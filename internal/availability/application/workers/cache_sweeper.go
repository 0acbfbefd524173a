// Package workers holds the availability context's background workers.
package workers

import (
	"context"
	"log/slog"
	"sync/atomic"
	"time"

	"github.com/slotfair/slotfair/internal/availability/infrastructure/cache"
	"github.com/google/uuid"
)

// DefaultSweepInterval is the default interval between sweep cycles.
const DefaultSweepInterval = 30 * time.Second

// CacheSweeperConfig configures the sweeper worker.
type CacheSweeperConfig struct {
	Interval time.Duration
}

// DefaultCacheSweeperConfig returns the default configuration.
func DefaultCacheSweeperConfig() CacheSweeperConfig {
	return CacheSweeperConfig{Interval: DefaultSweepInterval}
}

// CacheSweeper periodically drains the dirty-organizer list and deletes the
// cached availability results their changes invalidated. Sweeping is purely
// an optimization on top of the result TTL: a missed cycle only delays
// freshness, never breaks correctness.
type CacheSweeper struct {
	dirty   *cache.DirtyTracker
	store   cache.Store
	keys    *cache.KeyBuilder
	config  CacheSweeperConfig
	logger  *slog.Logger
	running atomic.Bool
	stopCh  chan struct{}
}

// NewCacheSweeper creates a new cache sweeper worker.
func NewCacheSweeper(
	dirty *cache.DirtyTracker,
	store cache.Store,
	keys *cache.KeyBuilder,
	config CacheSweeperConfig,
	logger *slog.Logger,
) *CacheSweeper {
	if logger == nil {
		logger = slog.Default()
	}
	if config.Interval <= 0 {
		config.Interval = DefaultSweepInterval
	}
	return &CacheSweeper{
		dirty:  dirty,
		store:  store,
		keys:   keys,
		config: config,
		logger: logger,
		stopCh: make(chan struct{}),
	}
}

// Run starts the worker and blocks until context is cancelled or Stop() is called.
func (w *CacheSweeper) Run(ctx context.Context) error {
	w.running.Store(true)
	w.logger.Info("cache sweeper started", "interval", w.config.Interval)

	// Run immediately on start
	w.runSweepCycle(ctx)

	ticker := time.NewTicker(w.config.Interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			w.running.Store(false)
			w.logger.Info("cache sweeper stopped (context cancelled)")
			return ctx.Err()
		case <-w.stopCh:
			w.running.Store(false)
			w.logger.Info("cache sweeper stopped (stop signal)")
			return nil
		case <-ticker.C:
			w.runSweepCycle(ctx)
		}
	}
}

// Stop signals the worker to stop gracefully.
func (w *CacheSweeper) Stop() {
	if w.running.Load() {
		close(w.stopCh)
	}
}

// IsRunning returns true if the worker is currently running.
func (w *CacheSweeper) IsRunning() bool {
	return w.running.Load()
}

// runSweepCycle processes every organizer currently on the dirty list.
func (w *CacheSweeper) runSweepCycle(ctx context.Context) {
	organizers, err := w.dirty.DirtyOrganizers(ctx)
	if err != nil {
		w.logger.Error("failed to read dirty organizer list", "error", err)
		return
	}
	if len(organizers) == 0 {
		return
	}

	w.logger.Debug("sweeping dirty organizers", "count", len(organizers))

	for _, organizerID := range organizers {
		if err := ctx.Err(); err != nil {
			return // Context cancelled
		}
		w.sweepOrganizer(ctx, organizerID)
	}
}

// sweepOrganizer invalidates one organizer's cached results and clears their
// dirty record. A failed deletion leaves the record in place for the next
// cycle.
func (w *CacheSweeper) sweepOrganizer(ctx context.Context, organizerID uuid.UUID) {
	entry, err := w.dirty.Entry(ctx, organizerID)
	if err != nil {
		w.logger.Error("failed to read dirty entry", "organizer_id", organizerID, "error", err)
		return
	}
	if entry == nil {
		// Entry expired; just drop the stale list membership.
		if err := w.dirty.ClearDirty(ctx, organizerID); err != nil {
			w.logger.Warn("failed to clear stale dirty entry", "organizer_id", organizerID, "error", err)
		}
		return
	}

	removed := 0
	for _, pattern := range w.patternsFor(organizerID, entry) {
		n, err := w.store.DeletePattern(ctx, pattern)
		if err != nil {
			w.logger.Error("failed to delete cache pattern",
				"organizer_id", organizerID,
				"pattern", pattern,
				"error", err,
			)
			return
		}
		removed += n
	}

	if err := w.dirty.ClearDirty(ctx, organizerID); err != nil {
		w.logger.Error("failed to clear dirty entry", "organizer_id", organizerID, "error", err)
		return
	}

	w.logger.Info("swept organizer cache",
		"organizer_id", organizerID,
		"keys_removed", removed,
		"full_invalidation", entry.RequiresFullInvalidation,
		"changes", len(entry.Changes),
	)
}

// patternsFor plans the invalidation patterns for a dirty entry. The sticky
// full-invalidation flag collapses everything into one organizer-wide
// pattern; otherwise each change record narrows by the dates it touched.
func (w *CacheSweeper) patternsFor(organizerID uuid.UUID, entry *cache.DirtyEntry) []string {
	if entry.RequiresFullInvalidation {
		return w.keys.InvalidationPatterns(organizerID, nil, nil)
	}

	seen := make(map[string]struct{})
	var patterns []string
	for _, change := range entry.Changes {
		for _, pattern := range w.keys.InvalidationPatterns(organizerID, nil, dateRangeFor(change)) {
			if _, dup := seen[pattern]; dup {
				continue
			}
			seen[pattern] = struct{}{}
			patterns = append(patterns, pattern)
		}
	}
	if len(patterns) == 0 {
		patterns = w.keys.InvalidationPatterns(organizerID, nil, nil)
	}
	return patterns
}

// dateRangeFor extracts a date span from a change record's extras, falling
// back to nil (organizer-wide) when no dates were recorded.
func dateRangeFor(change cache.ChangeRecord) *cache.DateRange {
	const layout = "2006-01-02"

	if date, ok := change.Extras["date"]; ok {
		if d, err := time.Parse(layout, date); err == nil {
			return &cache.DateRange{Start: d, End: d}
		}
		return nil
	}

	start, okStart := change.Extras["start_date"]
	end, okEnd := change.Extras["end_date"]
	if okStart && okEnd {
		s, errS := time.Parse(layout, start)
		e, errE := time.Parse(layout, end)
		if errS == nil && errE == nil && !e.Before(s) {
			return &cache.DateRange{Start: s, End: e}
		}
	}
	return nil
}
