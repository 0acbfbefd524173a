package domain

import (
	"time"

	sharedDomain "github.com/slotfair/slotfair/internal/shared/domain"
	"github.com/google/uuid"
)

// AvailabilityRule is a weekly recurring availability window for an
// organizer. An empty event-type scope applies the rule to every event type.
type AvailabilityRule struct {
	sharedDomain.BaseEntity
	organizerID  uuid.UUID
	dayOfWeek    int // Monday = 0
	startTime    TimeOfDay
	endTime      TimeOfDay
	eventTypeIDs []uuid.UUID
	active       bool
}

// NewAvailabilityRule creates a weekly availability rule. Midnight-spanning
// windows are allowed; identical start and end are not.
func NewAvailabilityRule(
	organizerID uuid.UUID,
	dayOfWeek int,
	startTime, endTime TimeOfDay,
	eventTypeIDs []uuid.UUID,
) (*AvailabilityRule, error) {
	if dayOfWeek < 0 || dayOfWeek > 6 {
		return nil, ErrInvalidDayOfWeek
	}
	if startTime.IsZero() || endTime.IsZero() || startTime.Equal(endTime) {
		return nil, ErrEqualTimes
	}

	return &AvailabilityRule{
		BaseEntity:   sharedDomain.NewBaseEntity(),
		organizerID:  organizerID,
		dayOfWeek:    dayOfWeek,
		startTime:    startTime,
		endTime:      endTime,
		eventTypeIDs: eventTypeIDs,
		active:       true,
	}, nil
}

func (r *AvailabilityRule) OrganizerID() uuid.UUID    { return r.organizerID }
func (r *AvailabilityRule) DayOfWeek() int            { return r.dayOfWeek }
func (r *AvailabilityRule) StartTime() TimeOfDay      { return r.startTime }
func (r *AvailabilityRule) EndTime() TimeOfDay        { return r.endTime }
func (r *AvailabilityRule) EventTypeIDs() []uuid.UUID { return r.eventTypeIDs }
func (r *AvailabilityRule) IsActive() bool            { return r.active }

// SpansMidnight reports whether the rule's window wraps past midnight.
func (r *AvailabilityRule) SpansMidnight() bool {
	return SpansMidnight(r.startTime, r.endTime)
}

// AppliesToEventType reports whether the rule's scope includes the event
// type. An empty scope matches all.
func (r *AvailabilityRule) AppliesToEventType(eventTypeID uuid.UUID) bool {
	return scopeIncludes(r.eventTypeIDs, eventTypeID)
}

// Deactivate retires the rule without deleting it.
func (r *AvailabilityRule) Deactivate() {
	r.active = false
	r.Touch()
}

// RehydrateAvailabilityRule recreates a rule from persisted state.
func RehydrateAvailabilityRule(
	id uuid.UUID,
	organizerID uuid.UUID,
	dayOfWeek int,
	startTime, endTime TimeOfDay,
	eventTypeIDs []uuid.UUID,
	active bool,
	createdAt, updatedAt time.Time,
) *AvailabilityRule {
	return &AvailabilityRule{
		BaseEntity:   sharedDomain.RehydrateBaseEntity(id, createdAt, updatedAt),
		organizerID:  organizerID,
		dayOfWeek:    dayOfWeek,
		startTime:    startTime,
		endTime:      endTime,
		eventTypeIDs: eventTypeIDs,
		active:       active,
	}
}

// scopeIncludes reports whether an event-type scope admits the given event
// type. Empty scopes admit everything.
func scopeIncludes(scope []uuid.UUID, eventTypeID uuid.UUID) bool {
	if len(scope) == 0 {
		return true
	}
	for _, id := range scope {
		if id == eventTypeID {
			return true
		}
	}
	return false
}

// ScopesIntersect reports whether two event-type scopes can both apply to
// some event type. An empty scope intersects everything.
func ScopesIntersect(a, b []uuid.UUID) bool {
	if len(a) == 0 || len(b) == 0 {
		return true
	}
	for _, x := range a {
		for _, y := range b {
			if x == y {
				return true
			}
		}
	}
	return false
}
