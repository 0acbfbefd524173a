package domain

import (
	"time"

	"github.com/google/uuid"
)

// EventType is a read model of a bookable offering, owned by the event-type
// subsystem and consumed here read-only. Nil override fields fall back to
// the organizer's buffer settings.
type EventType struct {
	ID                  uuid.UUID
	OrganizerID         uuid.UUID
	Slug                string
	DurationMinutes     int
	BufferBefore        *int // minutes, overrides organizer default
	BufferAfter         *int
	SlotIntervalMinutes *int
	IsGroupEvent        bool
	MaxAttendees        int
}

// BookingStatus is the lifecycle state of a booking.
type BookingStatus string

const (
	BookingStatusConfirmed BookingStatus = "confirmed"
	BookingStatusCancelled BookingStatus = "cancelled"
	BookingStatusPending   BookingStatus = "pending"
)

// Booking is a read model of an existing booking, owned by the booking
// subsystem and consumed here read-only.
type Booking struct {
	ID            uuid.UUID
	OrganizerID   uuid.UUID
	EventTypeID   uuid.UUID
	StartTime     time.Time
	EndTime       time.Time
	Status        BookingStatus
	AttendeeCount int
}

// OrganizerProfile is a read model of the organizer settings the engine
// needs: home timezone and the window considered reasonable for meetings.
type OrganizerProfile struct {
	OrganizerID          uuid.UUID
	Timezone             string
	ReasonableHoursStart int // local hour, inclusive
	ReasonableHoursEnd   int // local hour, inclusive
}

// DefaultReasonableHoursStart and DefaultReasonableHoursEnd bound the
// default "reasonable hours" window used by fairness scoring.
const (
	DefaultReasonableHoursStart = 9
	DefaultReasonableHoursEnd   = 18
)
