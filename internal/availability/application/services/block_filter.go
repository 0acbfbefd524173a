package services

import (
	"context"
	"fmt"
	"time"

	"github.com/slotfair/slotfair/internal/availability/domain"
	"github.com/google/uuid"
)

// BlockFilter decides whether a candidate slot collides with one-time
// blocks, recurring blocks, or date-override exclusions. All comparisons
// happen on absolute instants; wall-clock block times are composed in the
// zone the slot was generated in.
type BlockFilter struct {
	blocks    domain.BlockedTimeRepository
	recurring domain.RecurringBlockRepository
	overrides domain.DateOverrideRepository
}

// NewBlockFilter creates a block filter.
func NewBlockFilter(
	blocks domain.BlockedTimeRepository,
	recurring domain.RecurringBlockRepository,
	overrides domain.DateOverrideRepository,
) *BlockFilter {
	return &BlockFilter{blocks: blocks, recurring: recurring, overrides: overrides}
}

// IsSlotBlocked reports whether any block source rules the slot out.
func (f *BlockFilter) IsSlotBlocked(
	ctx context.Context,
	organizerID uuid.UUID,
	eventType *domain.EventType,
	slot domain.Slot,
	date time.Time,
	loc *time.Location,
) (bool, error) {
	blocked, err := f.blockedByOneTime(ctx, organizerID, slot)
	if err != nil || blocked {
		return blocked, err
	}

	blocked, err = f.blockedByRecurring(ctx, organizerID, slot, date, loc)
	if err != nil || blocked {
		return blocked, err
	}

	return f.blockedByOverride(ctx, organizerID, eventType, slot, date, loc)
}

func (f *BlockFilter) blockedByOneTime(ctx context.Context, organizerID uuid.UUID, slot domain.Slot) (bool, error) {
	blocks, err := f.blocks.FindActiveOverlapping(ctx, organizerID, slot.StartTime, slot.EndTime)
	if err != nil {
		return false, fmt.Errorf("loading blocked times: %w", err)
	}
	return len(blocks) > 0, nil
}

// blockedByRecurring composes each recurring block's wall-clock window in
// loc, the zone the slot was generated in. If the organizer changes
// timezone between writing a block and querying, the block shifts with the
// new zone; past queries are not replayed.
func (f *BlockFilter) blockedByRecurring(
	ctx context.Context,
	organizerID uuid.UUID,
	slot domain.Slot,
	date time.Time,
	loc *time.Location,
) (bool, error) {
	blocks, err := f.recurring.FindActiveByOrganizerAndDay(ctx, organizerID, domain.DayOfWeek(date))
	if err != nil {
		return false, fmt.Errorf("loading recurring blocks: %w", err)
	}

	for _, block := range blocks {
		if !block.AppliesToDate(date) {
			continue
		}
		window := domain.ComposeLocalRange(date, block.StartTime(), block.EndTime(), loc)
		if window.Overlaps(slot.Interval()) {
			return true, nil
		}
	}

	return false, nil
}

// blockedByOverride blocks the slot when an applicable override closes the
// whole day, or opens a window the slot does not fit inside entirely.
func (f *BlockFilter) blockedByOverride(
	ctx context.Context,
	organizerID uuid.UUID,
	eventType *domain.EventType,
	slot domain.Slot,
	date time.Time,
	loc *time.Location,
) (bool, error) {
	overrides, err := f.overrides.FindActiveByOrganizerAndDate(ctx, organizerID, date)
	if err != nil {
		return false, fmt.Errorf("loading date overrides: %w", err)
	}

	for _, override := range overrides {
		if !override.AppliesToEventType(eventType.ID) {
			continue
		}
		if !override.IsAvailable() {
			return true, nil
		}
		if override.StartTime().IsZero() || override.EndTime().IsZero() {
			continue
		}
		window := domain.ComposeLocalRange(date, override.StartTime(), override.EndTime(), loc)
		if !window.Contains(slot.Interval()) {
			return true, nil
		}
	}

	return false, nil
}
