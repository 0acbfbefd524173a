package persistence

import (
	"context"
	"time"

	"github.com/slotfair/slotfair/internal/availability/domain"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
)

// PostgresOverrideRepository implements domain.DateOverrideRepository using
// PostgreSQL.
type PostgresOverrideRepository struct {
	pool *pgxpool.Pool
}

// NewPostgresOverrideRepository creates a new PostgreSQL override repository.
func NewPostgresOverrideRepository(pool *pgxpool.Pool) *PostgresOverrideRepository {
	return &PostgresOverrideRepository{pool: pool}
}

// overrideRow represents a database row for date overrides. Start and end
// times are NULL for unavailable overrides.
type overrideRow struct {
	ID           uuid.UUID
	OrganizerID  uuid.UUID
	Date         time.Time
	Available    bool
	StartTime    *string
	EndTime      *string
	EventTypeIDs []string
	Reason       string
	Active       bool
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// Save persists an override to the database.
func (r *PostgresOverrideRepository) Save(ctx context.Context, override *domain.DateOverrideRule) error {
	query := `
		INSERT INTO date_overrides (
			id, organizer_id, date, available, start_time, end_time,
			event_type_ids, reason, active, created_at, updated_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
		ON CONFLICT (id) DO UPDATE SET
			date = EXCLUDED.date,
			available = EXCLUDED.available,
			start_time = EXCLUDED.start_time,
			end_time = EXCLUDED.end_time,
			event_type_ids = EXCLUDED.event_type_ids,
			reason = EXCLUDED.reason,
			active = EXCLUDED.active,
			updated_at = EXCLUDED.updated_at
	`

	_, err := r.pool.Exec(ctx, query,
		override.ID(),
		override.OrganizerID(),
		override.Date(),
		override.IsAvailable(),
		timeOfDayPtr(override.StartTime()),
		timeOfDayPtr(override.EndTime()),
		scopeToStrings(override.EventTypeIDs()),
		override.Reason(),
		override.IsActive(),
		override.CreatedAt(),
		override.UpdatedAt(),
	)
	return err
}

// FindActiveByOrganizerAndDate retrieves active overrides for a calendar
// date.
func (r *PostgresOverrideRepository) FindActiveByOrganizerAndDate(
	ctx context.Context,
	organizerID uuid.UUID,
	date time.Time,
) ([]*domain.DateOverrideRule, error) {
	query := `
		SELECT id, organizer_id, date, available, start_time, end_time,
		       event_type_ids, reason, active, created_at, updated_at
		FROM date_overrides
		WHERE organizer_id = $1 AND date = $2 AND active = TRUE
		ORDER BY created_at
	`

	rows, err := r.pool.Query(ctx, query, organizerID, domain.NormalizeDate(date))
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	overrides := make([]*domain.DateOverrideRule, 0)
	for rows.Next() {
		var row overrideRow
		err := rows.Scan(
			&row.ID,
			&row.OrganizerID,
			&row.Date,
			&row.Available,
			&row.StartTime,
			&row.EndTime,
			&row.EventTypeIDs,
			&row.Reason,
			&row.Active,
			&row.CreatedAt,
			&row.UpdatedAt,
		)
		if err != nil {
			return nil, err
		}

		override, err := rowToOverride(row)
		if err != nil {
			return nil, err
		}
		overrides = append(overrides, override)
	}

	if err := rows.Err(); err != nil {
		return nil, err
	}

	return overrides, nil
}

func rowToOverride(row overrideRow) (*domain.DateOverrideRule, error) {
	start, err := timeOfDayFromPtr(row.StartTime)
	if err != nil {
		return nil, err
	}
	end, err := timeOfDayFromPtr(row.EndTime)
	if err != nil {
		return nil, err
	}
	scope, err := scopeFromStrings(row.EventTypeIDs)
	if err != nil {
		return nil, err
	}

	return domain.RehydrateDateOverrideRule(
		row.ID,
		row.OrganizerID,
		row.Date,
		row.Available,
		start,
		end,
		scope,
		row.Reason,
		row.Active,
		row.CreatedAt,
		row.UpdatedAt,
	), nil
}

func timeOfDayPtr(t domain.TimeOfDay) *string {
	if t.IsZero() {
		return nil
	}
	s := t.String()
	return &s
}

func timeOfDayFromPtr(s *string) (domain.TimeOfDay, error) {
	if s == nil || *s == "" {
		return domain.TimeOfDay{}, nil
	}
	return domain.ParseTimeOfDay(*s)
}
