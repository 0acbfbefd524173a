package domain

import (
	"time"

	sharedDomain "github.com/slotfair/slotfair/internal/shared/domain"
	"github.com/google/uuid"
)

// DateOverrideRule is a per-date exception that fully replaces the weekly
// rules for that date within its event-type scope. An unavailable override
// closes the day; an available one opens exactly its window.
type DateOverrideRule struct {
	sharedDomain.BaseEntity
	organizerID  uuid.UUID
	date         time.Time // date component only, normalized to UTC midnight
	available    bool
	startTime    TimeOfDay
	endTime      TimeOfDay
	eventTypeIDs []uuid.UUID
	reason       string
	active       bool
}

// NewDateOverrideRule creates a date override. Available overrides must
// carry a window with distinct start and end times.
func NewDateOverrideRule(
	organizerID uuid.UUID,
	date time.Time,
	available bool,
	startTime, endTime TimeOfDay,
	eventTypeIDs []uuid.UUID,
	reason string,
) (*DateOverrideRule, error) {
	if available {
		if startTime.IsZero() || endTime.IsZero() {
			return nil, ErrOverrideTimesRequired
		}
		if startTime.Equal(endTime) {
			return nil, ErrEqualTimes
		}
	}

	return &DateOverrideRule{
		BaseEntity:   sharedDomain.NewBaseEntity(),
		organizerID:  organizerID,
		date:         NormalizeDate(date),
		available:    available,
		startTime:    startTime,
		endTime:      endTime,
		eventTypeIDs: eventTypeIDs,
		reason:       reason,
		active:       true,
	}, nil
}

func (o *DateOverrideRule) OrganizerID() uuid.UUID    { return o.organizerID }
func (o *DateOverrideRule) Date() time.Time           { return o.date }
func (o *DateOverrideRule) IsAvailable() bool         { return o.available }
func (o *DateOverrideRule) StartTime() TimeOfDay      { return o.startTime }
func (o *DateOverrideRule) EndTime() TimeOfDay        { return o.endTime }
func (o *DateOverrideRule) EventTypeIDs() []uuid.UUID { return o.eventTypeIDs }
func (o *DateOverrideRule) Reason() string            { return o.reason }
func (o *DateOverrideRule) IsActive() bool            { return o.active }

// SpansMidnight reports whether the override window wraps past midnight.
func (o *DateOverrideRule) SpansMidnight() bool {
	return SpansMidnight(o.startTime, o.endTime)
}

// AppliesToEventType reports whether the override's scope includes the
// event type. An empty scope matches all.
func (o *DateOverrideRule) AppliesToEventType(eventTypeID uuid.UUID) bool {
	return scopeIncludes(o.eventTypeIDs, eventTypeID)
}

// Deactivate retires the override without deleting it.
func (o *DateOverrideRule) Deactivate() {
	o.active = false
	o.Touch()
}

// RehydrateDateOverrideRule recreates an override from persisted state.
func RehydrateDateOverrideRule(
	id uuid.UUID,
	organizerID uuid.UUID,
	date time.Time,
	available bool,
	startTime, endTime TimeOfDay,
	eventTypeIDs []uuid.UUID,
	reason string,
	active bool,
	createdAt, updatedAt time.Time,
) *DateOverrideRule {
	return &DateOverrideRule{
		BaseEntity:   sharedDomain.RehydrateBaseEntity(id, createdAt, updatedAt),
		organizerID:  organizerID,
		date:         NormalizeDate(date),
		available:    available,
		startTime:    startTime,
		endTime:      endTime,
		eventTypeIDs: eventTypeIDs,
		reason:       reason,
		active:       active,
	}
}

// NormalizeDate strips the time and zone components, keeping only the
// calendar date at UTC midnight. Dates are compared and stored in this form.
func NormalizeDate(t time.Time) time.Time {
	year, month, day := t.Date()
	return time.Date(year, month, day, 0, 0, 0, 0, time.UTC)
}

// SameDate reports whether two instants name the same calendar date.
func SameDate(a, b time.Time) bool {
	return NormalizeDate(a).Equal(NormalizeDate(b))
}
