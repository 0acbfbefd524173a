package domain

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// AvailabilityRuleRepository persists weekly availability rules.
type AvailabilityRuleRepository interface {
	// FindActiveByOrganizerAndDay returns active rules for the organizer on
	// the given weekday (Monday = 0).
	FindActiveByOrganizerAndDay(ctx context.Context, organizerID uuid.UUID, dayOfWeek int) ([]*AvailabilityRule, error)
	Save(ctx context.Context, rule *AvailabilityRule) error
}

// DateOverrideRepository persists per-date override rules.
type DateOverrideRepository interface {
	// FindActiveByOrganizerAndDate returns active overrides for the
	// organizer on the given calendar date.
	FindActiveByOrganizerAndDate(ctx context.Context, organizerID uuid.UUID, date time.Time) ([]*DateOverrideRule, error)
	Save(ctx context.Context, override *DateOverrideRule) error
}

// BlockedTimeRepository persists one-off blocked times.
type BlockedTimeRepository interface {
	// FindActiveOverlapping returns active blocks intersecting [start, end).
	FindActiveOverlapping(ctx context.Context, organizerID uuid.UUID, start, end time.Time) ([]*BlockedTime, error)
	Save(ctx context.Context, block *BlockedTime) error
}

// RecurringBlockRepository persists weekly recurring blocks.
type RecurringBlockRepository interface {
	FindActiveByOrganizerAndDay(ctx context.Context, organizerID uuid.UUID, dayOfWeek int) ([]*RecurringBlockedTime, error)
	Save(ctx context.Context, block *RecurringBlockedTime) error
}

// BufferSettingsRepository persists per-organizer buffer settings.
type BufferSettingsRepository interface {
	// GetOrCreate returns the organizer's settings, lazily creating the
	// defaults row on first access.
	GetOrCreate(ctx context.Context, organizerID uuid.UUID) (*BufferSettings, error)
	Save(ctx context.Context, settings *BufferSettings) error
}

// BookingReader provides read-only access to the booking subsystem.
type BookingReader interface {
	// FindConfirmedOverlapping returns confirmed bookings intersecting
	// [start, end).
	FindConfirmedOverlapping(ctx context.Context, organizerID uuid.UUID, start, end time.Time) ([]Booking, error)
	// FindConfirmedForEventTypeOverlapping narrows to one event type.
	FindConfirmedForEventTypeOverlapping(ctx context.Context, organizerID, eventTypeID uuid.UUID, start, end time.Time) ([]Booking, error)
}

// EventTypeReader provides read-only access to event-type definitions.
type EventTypeReader interface {
	FindBySlug(ctx context.Context, organizerID uuid.UUID, slug string) (*EventType, error)
}

// OrganizerProfileReader provides read-only access to organizer settings.
type OrganizerProfileReader interface {
	Find(ctx context.Context, organizerID uuid.UUID) (*OrganizerProfile, error)
}
