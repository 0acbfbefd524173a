package services

import (
	"context"
	"fmt"

	"github.com/slotfair/slotfair/internal/availability/domain"
	"github.com/google/uuid"
)

// ConflictChecker decides whether a candidate slot collides with existing
// confirmed bookings. Buffers on the candidate protect its own
// neighborhood; the minimum gap enforces a required idle band around every
// existing booking regardless of the candidate's preferences.
type ConflictChecker struct {
	bookings domain.BookingReader
}

// NewConflictChecker creates a conflict checker.
func NewConflictChecker(bookings domain.BookingReader) *ConflictChecker {
	return &ConflictChecker{bookings: bookings}
}

// IsSlotConflicting reports whether the slot's protected zone collides with
// any confirmed booking's protected zone. Group events escalate to a
// capacity check across same-event-type bookings overlapping the raw slot
// instead of rejecting outright.
func (c *ConflictChecker) IsSlotConflicting(
	ctx context.Context,
	organizerID uuid.UUID,
	eventType *domain.EventType,
	slot domain.Slot,
	attendeeCount int,
	bufferBefore, bufferAfter, minimumGap int,
) (bool, error) {
	protected := slot.ProtectedZone(bufferBefore, bufferAfter)

	bookings, err := c.bookings.FindConfirmedOverlapping(ctx, organizerID, protected.Start, protected.End)
	if err != nil {
		return false, fmt.Errorf("loading bookings: %w", err)
	}

	for _, booking := range bookings {
		bookingZone := domain.Slot{StartTime: booking.StartTime, EndTime: booking.EndTime}.
			ProtectedZone(minimumGap, minimumGap)
		if !bookingZone.Overlaps(protected) {
			continue
		}

		if eventType.IsGroupEvent && booking.EventTypeID == eventType.ID {
			over, err := c.exceedsCapacity(ctx, organizerID, eventType, slot, attendeeCount)
			if err != nil {
				return false, err
			}
			if over {
				return true, nil
			}
			continue
		}

		return true, nil
	}

	return false, nil
}

// exceedsCapacity sums attendee counts across confirmed bookings of the
// same event type overlapping the raw (unbuffered) slot and checks whether
// admitting the request would overflow the group size.
func (c *ConflictChecker) exceedsCapacity(
	ctx context.Context,
	organizerID uuid.UUID,
	eventType *domain.EventType,
	slot domain.Slot,
	attendeeCount int,
) (bool, error) {
	overlapping, err := c.bookings.FindConfirmedForEventTypeOverlapping(
		ctx, organizerID, eventType.ID, slot.StartTime, slot.EndTime)
	if err != nil {
		return false, fmt.Errorf("loading group bookings: %w", err)
	}

	total := 0
	for _, booking := range overlapping {
		total += booking.AttendeeCount
	}

	return total+attendeeCount > eventType.MaxAttendees, nil
}
