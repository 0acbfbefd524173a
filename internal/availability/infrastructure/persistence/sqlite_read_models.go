package persistence

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/slotfair/slotfair/internal/availability/domain"
	"github.com/google/uuid"
)

// SQLiteBookingReader implements domain.BookingReader using SQLite.
type SQLiteBookingReader struct {
	db *sql.DB
}

// NewSQLiteBookingReader creates a new SQLite booking reader.
func NewSQLiteBookingReader(db *sql.DB) *SQLiteBookingReader {
	return &SQLiteBookingReader{db: db}
}

// FindConfirmedOverlapping retrieves confirmed bookings intersecting
// [start, end).
func (r *SQLiteBookingReader) FindConfirmedOverlapping(
	ctx context.Context,
	organizerID uuid.UUID,
	start, end time.Time,
) ([]domain.Booking, error) {
	query := `
		SELECT id, organizer_id, event_type_id, start_time, end_time, status, attendee_count
		FROM bookings
		WHERE organizer_id = ? AND status = ?
		  AND start_time < ? AND end_time > ?
		ORDER BY start_time
	`

	rows, err := r.db.QueryContext(ctx, query,
		organizerID.String(), string(domain.BookingStatusConfirmed),
		end.UTC().Format(time.RFC3339), start.UTC().Format(time.RFC3339))
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	return scanSQLiteBookings(rows)
}

// FindConfirmedForEventTypeOverlapping narrows to one event type.
func (r *SQLiteBookingReader) FindConfirmedForEventTypeOverlapping(
	ctx context.Context,
	organizerID, eventTypeID uuid.UUID,
	start, end time.Time,
) ([]domain.Booking, error) {
	query := `
		SELECT id, organizer_id, event_type_id, start_time, end_time, status, attendee_count
		FROM bookings
		WHERE organizer_id = ? AND event_type_id = ? AND status = ?
		  AND start_time < ? AND end_time > ?
		ORDER BY start_time
	`

	rows, err := r.db.QueryContext(ctx, query,
		organizerID.String(), eventTypeID.String(), string(domain.BookingStatusConfirmed),
		end.UTC().Format(time.RFC3339), start.UTC().Format(time.RFC3339))
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	return scanSQLiteBookings(rows)
}

func scanSQLiteBookings(rows *sql.Rows) ([]domain.Booking, error) {
	bookings := make([]domain.Booking, 0)
	for rows.Next() {
		var (
			idStr, orgStr, etStr string
			startStr, endStr     string
			status               string
			attendees            int
		)
		err := rows.Scan(&idStr, &orgStr, &etStr, &startStr, &endStr, &status, &attendees)
		if err != nil {
			return nil, err
		}

		id, err := uuid.Parse(idStr)
		if err != nil {
			return nil, err
		}
		orgID, err := uuid.Parse(orgStr)
		if err != nil {
			return nil, err
		}
		etID, err := uuid.Parse(etStr)
		if err != nil {
			return nil, err
		}
		startTime, err := time.Parse(time.RFC3339, startStr)
		if err != nil {
			return nil, err
		}
		endTime, err := time.Parse(time.RFC3339, endStr)
		if err != nil {
			return nil, err
		}

		bookings = append(bookings, domain.Booking{
			ID:            id,
			OrganizerID:   orgID,
			EventTypeID:   etID,
			StartTime:     startTime,
			EndTime:       endTime,
			Status:        domain.BookingStatus(status),
			AttendeeCount: attendees,
		})
	}

	if err := rows.Err(); err != nil {
		return nil, err
	}

	return bookings, nil
}

// SQLiteEventTypeReader implements domain.EventTypeReader using SQLite.
type SQLiteEventTypeReader struct {
	db *sql.DB
}

// NewSQLiteEventTypeReader creates a new SQLite event-type reader.
func NewSQLiteEventTypeReader(db *sql.DB) *SQLiteEventTypeReader {
	return &SQLiteEventTypeReader{db: db}
}

// FindBySlug retrieves an event type by organizer and slug.
func (r *SQLiteEventTypeReader) FindBySlug(
	ctx context.Context,
	organizerID uuid.UUID,
	slug string,
) (*domain.EventType, error) {
	query := `
		SELECT id, organizer_id, slug, duration_minutes, buffer_before,
		       buffer_after, slot_interval_minutes, is_group_event, max_attendees
		FROM event_types
		WHERE organizer_id = ? AND slug = ?
	`

	var (
		idStr, orgStr string
		isGroup       int64
		et            domain.EventType
	)
	err := r.db.QueryRowContext(ctx, query, organizerID.String(), slug).Scan(
		&idStr,
		&orgStr,
		&et.Slug,
		&et.DurationMinutes,
		&et.BufferBefore,
		&et.BufferAfter,
		&et.SlotIntervalMinutes,
		&isGroup,
		&et.MaxAttendees,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		return nil, err
	}

	et.ID, err = uuid.Parse(idStr)
	if err != nil {
		return nil, err
	}
	et.OrganizerID, err = uuid.Parse(orgStr)
	if err != nil {
		return nil, err
	}
	et.IsGroupEvent = isGroup != 0

	return &et, nil
}

// SQLiteProfileReader implements domain.OrganizerProfileReader using SQLite.
type SQLiteProfileReader struct {
	db *sql.DB
}

// NewSQLiteProfileReader creates a new SQLite profile reader.
func NewSQLiteProfileReader(db *sql.DB) *SQLiteProfileReader {
	return &SQLiteProfileReader{db: db}
}

// Find retrieves an organizer's scheduling profile. A missing row returns
// nil so callers fall back to defaults.
func (r *SQLiteProfileReader) Find(ctx context.Context, organizerID uuid.UUID) (*domain.OrganizerProfile, error) {
	query := `
		SELECT organizer_id, timezone, reasonable_hours_start, reasonable_hours_end
		FROM organizer_profiles
		WHERE organizer_id = ?
	`

	var (
		orgStr string
		p      domain.OrganizerProfile
	)
	err := r.db.QueryRowContext(ctx, query, organizerID.String()).Scan(
		&orgStr,
		&p.Timezone,
		&p.ReasonableHoursStart,
		&p.ReasonableHoursEnd,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}

	p.OrganizerID, err = uuid.Parse(orgStr)
	if err != nil {
		return nil, err
	}

	return &p, nil
}
