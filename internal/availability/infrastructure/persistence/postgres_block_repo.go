package persistence

import (
	"context"
	"time"

	"github.com/slotfair/slotfair/internal/availability/domain"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
)

// PostgresBlockedTimeRepository implements domain.BlockedTimeRepository
// using PostgreSQL.
type PostgresBlockedTimeRepository struct {
	pool *pgxpool.Pool
}

// NewPostgresBlockedTimeRepository creates a new PostgreSQL blocked-time
// repository.
func NewPostgresBlockedTimeRepository(pool *pgxpool.Pool) *PostgresBlockedTimeRepository {
	return &PostgresBlockedTimeRepository{pool: pool}
}

// Save persists a blocked time to the database.
func (r *PostgresBlockedTimeRepository) Save(ctx context.Context, block *domain.BlockedTime) error {
	query := `
		INSERT INTO blocked_times (
			id, organizer_id, start_time, end_time, reason, source,
			external_id, active, created_at, updated_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
		ON CONFLICT (id) DO UPDATE SET
			start_time = EXCLUDED.start_time,
			end_time = EXCLUDED.end_time,
			reason = EXCLUDED.reason,
			active = EXCLUDED.active,
			updated_at = EXCLUDED.updated_at
	`

	_, err := r.pool.Exec(ctx, query,
		block.ID(),
		block.OrganizerID(),
		block.StartTime(),
		block.EndTime(),
		block.Reason(),
		string(block.Source()),
		block.ExternalID(),
		block.IsActive(),
		block.CreatedAt(),
		block.UpdatedAt(),
	)
	return err
}

// FindActiveOverlapping retrieves active blocks intersecting [start, end).
func (r *PostgresBlockedTimeRepository) FindActiveOverlapping(
	ctx context.Context,
	organizerID uuid.UUID,
	start, end time.Time,
) ([]*domain.BlockedTime, error) {
	query := `
		SELECT id, organizer_id, start_time, end_time, reason, source,
		       external_id, active, created_at, updated_at
		FROM blocked_times
		WHERE organizer_id = $1 AND active = TRUE
		  AND start_time < $3 AND end_time > $2
		ORDER BY start_time
	`

	rows, err := r.pool.Query(ctx, query, organizerID, start, end)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	blocks := make([]*domain.BlockedTime, 0)
	for rows.Next() {
		var (
			id, orgID            uuid.UUID
			startTime, endTime   time.Time
			reason, source       string
			externalID           string
			active               bool
			createdAt, updatedAt time.Time
		)
		err := rows.Scan(&id, &orgID, &startTime, &endTime, &reason, &source,
			&externalID, &active, &createdAt, &updatedAt)
		if err != nil {
			return nil, err
		}

		blocks = append(blocks, domain.RehydrateBlockedTime(
			id, orgID, startTime, endTime, reason,
			domain.BlockSource(source), externalID, active, createdAt, updatedAt,
		))
	}

	if err := rows.Err(); err != nil {
		return nil, err
	}

	return blocks, nil
}

// PostgresRecurringBlockRepository implements domain.RecurringBlockRepository
// using PostgreSQL.
type PostgresRecurringBlockRepository struct {
	pool *pgxpool.Pool
}

// NewPostgresRecurringBlockRepository creates a new PostgreSQL recurring
// block repository.
func NewPostgresRecurringBlockRepository(pool *pgxpool.Pool) *PostgresRecurringBlockRepository {
	return &PostgresRecurringBlockRepository{pool: pool}
}

// Save persists a recurring block to the database.
func (r *PostgresRecurringBlockRepository) Save(ctx context.Context, block *domain.RecurringBlockedTime) error {
	query := `
		INSERT INTO recurring_blocks (
			id, organizer_id, name, day_of_week, start_time, end_time,
			start_date, end_date, active, created_at, updated_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
		ON CONFLICT (id) DO UPDATE SET
			name = EXCLUDED.name,
			day_of_week = EXCLUDED.day_of_week,
			start_time = EXCLUDED.start_time,
			end_time = EXCLUDED.end_time,
			start_date = EXCLUDED.start_date,
			end_date = EXCLUDED.end_date,
			active = EXCLUDED.active,
			updated_at = EXCLUDED.updated_at
	`

	_, err := r.pool.Exec(ctx, query,
		block.ID(),
		block.OrganizerID(),
		block.Name(),
		block.DayOfWeek(),
		block.StartTime().String(),
		block.EndTime().String(),
		block.StartDate(),
		block.EndDate(),
		block.IsActive(),
		block.CreatedAt(),
		block.UpdatedAt(),
	)
	return err
}

// FindActiveByOrganizerAndDay retrieves active recurring blocks for a
// weekday. Date-bound filtering happens in the domain via AppliesToDate.
func (r *PostgresRecurringBlockRepository) FindActiveByOrganizerAndDay(
	ctx context.Context,
	organizerID uuid.UUID,
	dayOfWeek int,
) ([]*domain.RecurringBlockedTime, error) {
	query := `
		SELECT id, organizer_id, name, day_of_week, start_time, end_time,
		       start_date, end_date, active, created_at, updated_at
		FROM recurring_blocks
		WHERE organizer_id = $1 AND day_of_week = $2 AND active = TRUE
		ORDER BY start_time
	`

	rows, err := r.pool.Query(ctx, query, organizerID, dayOfWeek)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	blocks := make([]*domain.RecurringBlockedTime, 0)
	for rows.Next() {
		var (
			id, orgID            uuid.UUID
			name                 string
			day                  int
			startStr, endStr     string
			startDate, endDate   *time.Time
			active               bool
			createdAt, updatedAt time.Time
		)
		err := rows.Scan(&id, &orgID, &name, &day, &startStr, &endStr,
			&startDate, &endDate, &active, &createdAt, &updatedAt)
		if err != nil {
			return nil, err
		}

		start, err := domain.ParseTimeOfDay(startStr)
		if err != nil {
			return nil, err
		}
		end, err := domain.ParseTimeOfDay(endStr)
		if err != nil {
			return nil, err
		}

		blocks = append(blocks, domain.RehydrateRecurringBlockedTime(
			id, orgID, name, day, start, end, startDate, endDate,
			active, createdAt, updatedAt,
		))
	}

	if err := rows.Err(); err != nil {
		return nil, err
	}

	return blocks, nil
}
