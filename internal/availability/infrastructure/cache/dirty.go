package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
)

const (
	dirtyKeyPrefix = "dirty_cache:"
	dirtyListKey   = "dirty_cache_list"

	// DirtyEntryTTL bounds how long an unswept dirty record survives.
	DirtyEntryTTL = time.Hour
)

// ChangeRecord describes one mutation that dirtied an organizer's cache.
type ChangeRecord struct {
	CacheType string            `json:"cache_type"`
	Timestamp time.Time         `json:"timestamp"`
	Extras    map[string]string `json:"extras,omitempty"`
}

// DirtyEntry is the accumulated dirty state for one organizer. The
// RequiresFullInvalidation flag is sticky: once set it stays set until the
// entry is cleared, so a sweeper racing concurrent writers still observes
// it.
type DirtyEntry struct {
	OrganizerID              string         `json:"organizer_id"`
	RequiresFullInvalidation bool           `json:"requires_full_invalidation"`
	Changes                  []ChangeRecord `json:"changes"`
}

// DirtyTracker records which organizers have pending cache invalidations.
// Writes are last-writer-wins; correctness only requires the sticky flag to
// be eventually observed.
type DirtyTracker struct {
	store  Store
	logger *slog.Logger
}

// NewDirtyTracker creates a dirty tracker on the given store.
func NewDirtyTracker(store Store, logger *slog.Logger) *DirtyTracker {
	if logger == nil {
		logger = slog.Default()
	}
	return &DirtyTracker{store: store, logger: logger}
}

// MarkDirty upserts the organizer's dirty entry and adds the organizer to
// the dirty list, both with a one-hour TTL.
func (t *DirtyTracker) MarkDirty(
	ctx context.Context,
	organizerID uuid.UUID,
	cacheType string,
	requiresFullInvalidation bool,
	extras map[string]string,
) error {
	key := dirtyKeyPrefix + organizerID.String()

	entry := DirtyEntry{OrganizerID: organizerID.String()}
	if raw, err := t.store.Get(ctx, key); err == nil {
		if err := json.Unmarshal(raw, &entry); err != nil {
			t.logger.Warn("discarding corrupt dirty entry", "organizer_id", organizerID, "error", err)
			entry = DirtyEntry{OrganizerID: organizerID.String()}
		}
	} else if !errors.Is(err, ErrCacheMiss) {
		return fmt.Errorf("reading dirty entry: %w", err)
	}

	if requiresFullInvalidation {
		entry.RequiresFullInvalidation = true
	}
	entry.Changes = append(entry.Changes, ChangeRecord{
		CacheType: cacheType,
		Timestamp: time.Now().UTC(),
		Extras:    extras,
	})

	raw, err := json.Marshal(entry)
	if err != nil {
		return fmt.Errorf("encoding dirty entry: %w", err)
	}
	if err := t.store.Set(ctx, key, raw, DirtyEntryTTL); err != nil {
		return fmt.Errorf("writing dirty entry: %w", err)
	}

	if err := t.store.SetAdd(ctx, dirtyListKey, organizerID.String(), DirtyEntryTTL); err != nil {
		return fmt.Errorf("adding to dirty list: %w", err)
	}

	return nil
}

// DirtyOrganizers returns the organizers with pending invalidations.
func (t *DirtyTracker) DirtyOrganizers(ctx context.Context) ([]uuid.UUID, error) {
	members, err := t.store.SetMembers(ctx, dirtyListKey)
	if err != nil {
		return nil, fmt.Errorf("reading dirty list: %w", err)
	}

	ids := make([]uuid.UUID, 0, len(members))
	for _, member := range members {
		id, err := uuid.Parse(member)
		if err != nil {
			t.logger.Warn("skipping malformed dirty list member", "member", member)
			continue
		}
		ids = append(ids, id)
	}
	return ids, nil
}

// Entry returns the organizer's dirty record, or nil when none exists.
func (t *DirtyTracker) Entry(ctx context.Context, organizerID uuid.UUID) (*DirtyEntry, error) {
	raw, err := t.store.Get(ctx, dirtyKeyPrefix+organizerID.String())
	if errors.Is(err, ErrCacheMiss) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("reading dirty entry: %w", err)
	}

	var entry DirtyEntry
	if err := json.Unmarshal(raw, &entry); err != nil {
		return nil, fmt.Errorf("decoding dirty entry: %w", err)
	}
	return &entry, nil
}

// ClearDirty removes the organizer's dirty record and its list membership.
func (t *DirtyTracker) ClearDirty(ctx context.Context, organizerID uuid.UUID) error {
	if err := t.store.Delete(ctx, dirtyKeyPrefix+organizerID.String()); err != nil {
		return fmt.Errorf("deleting dirty entry: %w", err)
	}
	if err := t.store.SetRemove(ctx, dirtyListKey, organizerID.String()); err != nil {
		return fmt.Errorf("removing from dirty list: %w", err)
	}
	return nil
}
