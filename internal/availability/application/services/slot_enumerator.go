package services

import (
	"time"

	"github.com/slotfair/slotfair/internal/availability/domain"
)

// SlotEnumerator emits candidate slots from available intervals at a fixed
// cadence.
type SlotEnumerator struct{}

// NewSlotEnumerator creates a slot enumerator.
func NewSlotEnumerator() *SlotEnumerator {
	return &SlotEnumerator{}
}

// Enumerate emits slots of durationMinutes starting at the interval start
// and striding by slotIntervalMinutes while the full duration still fits.
// Slots are converted to UTC so downstream conflict math is zone-agnostic.
func (e *SlotEnumerator) Enumerate(interval domain.Interval, durationMinutes, slotIntervalMinutes int) []domain.Slot {
	if durationMinutes <= 0 || slotIntervalMinutes <= 0 {
		return nil
	}

	duration := time.Duration(durationMinutes) * time.Minute
	stride := time.Duration(slotIntervalMinutes) * time.Minute

	var slots []domain.Slot
	for current := interval.Start; !current.Add(duration).After(interval.End); current = current.Add(stride) {
		slots = append(slots, domain.Slot{
			StartTime:       current.UTC(),
			EndTime:         current.Add(duration).UTC(),
			DurationMinutes: durationMinutes,
		})
	}

	return slots
}

// EnumerateAll flattens enumeration across several intervals.
func (e *SlotEnumerator) EnumerateAll(intervals []domain.Interval, durationMinutes, slotIntervalMinutes int) []domain.Slot {
	var slots []domain.Slot
	for _, interval := range intervals {
		slots = append(slots, e.Enumerate(interval, durationMinutes, slotIntervalMinutes)...)
	}
	return slots
}
