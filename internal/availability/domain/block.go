package domain

import (
	"time"

	sharedDomain "github.com/slotfair/slotfair/internal/shared/domain"
	"github.com/google/uuid"
)

// BlockSource identifies which system wrote a one-off blocked time.
type BlockSource string

const (
	// BlockSourceManual marks blocks created through the organizer API.
	BlockSourceManual BlockSource = "manual"
	// BlockSourceExternalCalendar marks blocks mirrored from an external
	// calendar by a sync worker. The manual API must not touch these.
	BlockSourceExternalCalendar BlockSource = "external_calendar"
)

// BlockedTime is a one-off busy window on absolute instants.
type BlockedTime struct {
	sharedDomain.BaseEntity
	organizerID uuid.UUID
	startTime   time.Time
	endTime     time.Time
	reason      string
	source      BlockSource
	externalID  string
	active      bool
}

// NewManualBlockedTime creates an organizer-authored blocked time. The
// source is always manual; sync-worker sources go through
// NewSyncedBlockedTime.
func NewManualBlockedTime(
	organizerID uuid.UUID,
	startTime, endTime time.Time,
	reason string,
) (*BlockedTime, error) {
	if !endTime.After(startTime) {
		return nil, ErrInvalidBlockRange
	}

	return &BlockedTime{
		BaseEntity:  sharedDomain.NewBaseEntity(),
		organizerID: organizerID,
		startTime:   startTime,
		endTime:     endTime,
		reason:      reason,
		source:      BlockSourceManual,
		active:      true,
	}, nil
}

// NewSyncedBlockedTime creates a blocked time owned by a sync worker,
// carrying the external system's identifier for reconciliation.
func NewSyncedBlockedTime(
	organizerID uuid.UUID,
	startTime, endTime time.Time,
	reason string,
	source BlockSource,
	externalID string,
) (*BlockedTime, error) {
	if !endTime.After(startTime) {
		return nil, ErrInvalidBlockRange
	}
	if source == BlockSourceManual {
		return nil, ErrReservedBlockSource
	}

	return &BlockedTime{
		BaseEntity:  sharedDomain.NewBaseEntity(),
		organizerID: organizerID,
		startTime:   startTime,
		endTime:     endTime,
		reason:      reason,
		source:      source,
		externalID:  externalID,
		active:      true,
	}, nil
}

func (b *BlockedTime) OrganizerID() uuid.UUID { return b.organizerID }
func (b *BlockedTime) StartTime() time.Time   { return b.startTime }
func (b *BlockedTime) EndTime() time.Time     { return b.endTime }
func (b *BlockedTime) Reason() string         { return b.reason }
func (b *BlockedTime) Source() BlockSource    { return b.source }
func (b *BlockedTime) ExternalID() string     { return b.externalID }
func (b *BlockedTime) IsActive() bool         { return b.active }

// Interval returns the busy window as an absolute interval.
func (b *BlockedTime) Interval() Interval {
	return Interval{Start: b.startTime, End: b.endTime}
}

// Deactivate retires the block without deleting it.
func (b *BlockedTime) Deactivate() {
	b.active = false
	b.Touch()
}

// RehydrateBlockedTime recreates a blocked time from persisted state.
func RehydrateBlockedTime(
	id uuid.UUID,
	organizerID uuid.UUID,
	startTime, endTime time.Time,
	reason string,
	source BlockSource,
	externalID string,
	active bool,
	createdAt, updatedAt time.Time,
) *BlockedTime {
	return &BlockedTime{
		BaseEntity:  sharedDomain.RehydrateBaseEntity(id, createdAt, updatedAt),
		organizerID: organizerID,
		startTime:   startTime,
		endTime:     endTime,
		reason:      reason,
		source:      source,
		externalID:  externalID,
		active:      active,
	}
}

// RecurringBlockedTime is a weekly busy window layered on top of
// availability, optionally bounded to a date range.
type RecurringBlockedTime struct {
	sharedDomain.BaseEntity
	organizerID uuid.UUID
	name        string
	dayOfWeek   int // Monday = 0
	startTime   TimeOfDay
	endTime     TimeOfDay
	startDate   *time.Time // open bound when nil
	endDate     *time.Time // open bound when nil
	active      bool
}

// NewRecurringBlockedTime creates a weekly recurring block.
func NewRecurringBlockedTime(
	organizerID uuid.UUID,
	name string,
	dayOfWeek int,
	startTime, endTime TimeOfDay,
	startDate, endDate *time.Time,
) (*RecurringBlockedTime, error) {
	if dayOfWeek < 0 || dayOfWeek > 6 {
		return nil, ErrInvalidDayOfWeek
	}
	if startTime.IsZero() || endTime.IsZero() || startTime.Equal(endTime) {
		return nil, ErrEqualTimes
	}
	if startDate != nil && endDate != nil && endDate.Before(*startDate) {
		return nil, ErrInvalidDateRange
	}

	return &RecurringBlockedTime{
		BaseEntity:  sharedDomain.NewBaseEntity(),
		organizerID: organizerID,
		name:        name,
		dayOfWeek:   dayOfWeek,
		startTime:   startTime,
		endTime:     endTime,
		startDate:   normalizeDatePtr(startDate),
		endDate:     normalizeDatePtr(endDate),
		active:      true,
	}, nil
}

func (r *RecurringBlockedTime) OrganizerID() uuid.UUID { return r.organizerID }
func (r *RecurringBlockedTime) Name() string           { return r.name }
func (r *RecurringBlockedTime) DayOfWeek() int         { return r.dayOfWeek }
func (r *RecurringBlockedTime) StartTime() TimeOfDay   { return r.startTime }
func (r *RecurringBlockedTime) EndTime() TimeOfDay     { return r.endTime }
func (r *RecurringBlockedTime) StartDate() *time.Time  { return r.startDate }
func (r *RecurringBlockedTime) EndDate() *time.Time    { return r.endDate }
func (r *RecurringBlockedTime) IsActive() bool         { return r.active }

// SpansMidnight reports whether the block's window wraps past midnight.
func (r *RecurringBlockedTime) SpansMidnight() bool {
	return SpansMidnight(r.startTime, r.endTime)
}

// AppliesToDate reports whether the block is in force on the given date.
// Missing bounds are open.
func (r *RecurringBlockedTime) AppliesToDate(date time.Time) bool {
	d := NormalizeDate(date)
	if r.startDate != nil && d.Before(*r.startDate) {
		return false
	}
	if r.endDate != nil && d.After(*r.endDate) {
		return false
	}
	return true
}

// Deactivate retires the block without deleting it.
func (r *RecurringBlockedTime) Deactivate() {
	r.active = false
	r.Touch()
}

// RehydrateRecurringBlockedTime recreates a recurring block from persisted
// state.
func RehydrateRecurringBlockedTime(
	id uuid.UUID,
	organizerID uuid.UUID,
	name string,
	dayOfWeek int,
	startTime, endTime TimeOfDay,
	startDate, endDate *time.Time,
	active bool,
	createdAt, updatedAt time.Time,
) *RecurringBlockedTime {
	return &RecurringBlockedTime{
		BaseEntity:  sharedDomain.RehydrateBaseEntity(id, createdAt, updatedAt),
		organizerID: organizerID,
		name:        name,
		dayOfWeek:   dayOfWeek,
		startTime:   startTime,
		endTime:     endTime,
		startDate:   normalizeDatePtr(startDate),
		endDate:     normalizeDatePtr(endDate),
		active:      active,
	}
}

func normalizeDatePtr(t *time.Time) *time.Time {
	if t == nil {
		return nil
	}
	d := NormalizeDate(*t)
	return &d
}
