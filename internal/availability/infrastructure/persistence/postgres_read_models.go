package persistence

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/slotfair/slotfair/internal/availability/domain"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// PostgresBookingReader implements domain.BookingReader against the booking
// subsystem's tables.
type PostgresBookingReader struct {
	pool *pgxpool.Pool
}

// NewPostgresBookingReader creates a new PostgreSQL booking reader.
func NewPostgresBookingReader(pool *pgxpool.Pool) *PostgresBookingReader {
	return &PostgresBookingReader{pool: pool}
}

const bookingColumns = `id, organizer_id, event_type_id, start_time, end_time, status, attendee_count`

// FindConfirmedOverlapping retrieves confirmed bookings intersecting
// [start, end).
func (r *PostgresBookingReader) FindConfirmedOverlapping(
	ctx context.Context,
	organizerID uuid.UUID,
	start, end time.Time,
) ([]domain.Booking, error) {
	query := fmt.Sprintf(`
		SELECT %s
		FROM bookings
		WHERE organizer_id = $1 AND status = $2
		  AND start_time < $4 AND end_time > $3
		ORDER BY start_time
	`, bookingColumns)

	rows, err := r.pool.Query(ctx, query, organizerID, string(domain.BookingStatusConfirmed), start, end)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	return scanBookings(rows)
}

// FindConfirmedForEventTypeOverlapping narrows to one event type.
func (r *PostgresBookingReader) FindConfirmedForEventTypeOverlapping(
	ctx context.Context,
	organizerID, eventTypeID uuid.UUID,
	start, end time.Time,
) ([]domain.Booking, error) {
	query := fmt.Sprintf(`
		SELECT %s
		FROM bookings
		WHERE organizer_id = $1 AND event_type_id = $2 AND status = $3
		  AND start_time < $5 AND end_time > $4
		ORDER BY start_time
	`, bookingColumns)

	rows, err := r.pool.Query(ctx, query, organizerID, eventTypeID,
		string(domain.BookingStatusConfirmed), start, end)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	return scanBookings(rows)
}

func scanBookings(rows pgx.Rows) ([]domain.Booking, error) {
	bookings := make([]domain.Booking, 0)
	for rows.Next() {
		var b domain.Booking
		var status string
		err := rows.Scan(&b.ID, &b.OrganizerID, &b.EventTypeID,
			&b.StartTime, &b.EndTime, &status, &b.AttendeeCount)
		if err != nil {
			return nil, err
		}
		b.Status = domain.BookingStatus(status)
		bookings = append(bookings, b)
	}

	if err := rows.Err(); err != nil {
		return nil, err
	}

	return bookings, nil
}

// PostgresEventTypeReader implements domain.EventTypeReader against the
// event-type subsystem's tables.
type PostgresEventTypeReader struct {
	pool *pgxpool.Pool
}

// NewPostgresEventTypeReader creates a new PostgreSQL event-type reader.
func NewPostgresEventTypeReader(pool *pgxpool.Pool) *PostgresEventTypeReader {
	return &PostgresEventTypeReader{pool: pool}
}

// FindBySlug retrieves an event type by organizer and slug.
func (r *PostgresEventTypeReader) FindBySlug(
	ctx context.Context,
	organizerID uuid.UUID,
	slug string,
) (*domain.EventType, error) {
	query := `
		SELECT id, organizer_id, slug, duration_minutes, buffer_before,
		       buffer_after, slot_interval_minutes, is_group_event, max_attendees
		FROM event_types
		WHERE organizer_id = $1 AND slug = $2
	`

	var et domain.EventType
	err := r.pool.QueryRow(ctx, query, organizerID, slug).Scan(
		&et.ID,
		&et.OrganizerID,
		&et.Slug,
		&et.DurationMinutes,
		&et.BufferBefore,
		&et.BufferAfter,
		&et.SlotIntervalMinutes,
		&et.IsGroupEvent,
		&et.MaxAttendees,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		return nil, err
	}

	return &et, nil
}

// PostgresProfileReader implements domain.OrganizerProfileReader against the
// identity subsystem's tables.
type PostgresProfileReader struct {
	pool *pgxpool.Pool
}

// NewPostgresProfileReader creates a new PostgreSQL profile reader.
func NewPostgresProfileReader(pool *pgxpool.Pool) *PostgresProfileReader {
	return &PostgresProfileReader{pool: pool}
}

// Find retrieves an organizer's scheduling profile. A missing row returns
// nil so callers fall back to defaults.
func (r *PostgresProfileReader) Find(ctx context.Context, organizerID uuid.UUID) (*domain.OrganizerProfile, error) {
	query := `
		SELECT organizer_id, timezone, reasonable_hours_start, reasonable_hours_end
		FROM organizer_profiles
		WHERE organizer_id = $1
	`

	var p domain.OrganizerProfile
	err := r.pool.QueryRow(ctx, query, organizerID).Scan(
		&p.OrganizerID,
		&p.Timezone,
		&p.ReasonableHoursStart,
		&p.ReasonableHoursEnd,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}

	return &p, nil
}
