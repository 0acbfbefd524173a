package persistence

import (
	"context"
	"errors"
	"time"

	"github.com/slotfair/slotfair/internal/availability/domain"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// PostgresBufferRepository implements domain.BufferSettingsRepository using
// PostgreSQL.
type PostgresBufferRepository struct {
	pool *pgxpool.Pool
}

// NewPostgresBufferRepository creates a new PostgreSQL buffer-settings
// repository.
func NewPostgresBufferRepository(pool *pgxpool.Pool) *PostgresBufferRepository {
	return &PostgresBufferRepository{pool: pool}
}

// GetOrCreate returns the organizer's settings, inserting the defaults row
// on first access. The insert is idempotent so concurrent first reads are
// safe.
func (r *PostgresBufferRepository) GetOrCreate(ctx context.Context, organizerID uuid.UUID) (*domain.BufferSettings, error) {
	settings, err := r.find(ctx, organizerID)
	if err == nil {
		return settings, nil
	}
	if !errors.Is(err, pgx.ErrNoRows) {
		return nil, err
	}

	defaults := domain.DefaultBufferSettings(organizerID)
	query := `
		INSERT INTO buffer_settings (
			id, organizer_id, buffer_before, buffer_after, minimum_gap,
			slot_interval_minutes, created_at, updated_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		ON CONFLICT (organizer_id) DO NOTHING
	`
	_, err = r.pool.Exec(ctx, query,
		defaults.ID(),
		defaults.OrganizerID(),
		defaults.DefaultBufferBefore(),
		defaults.DefaultBufferAfter(),
		defaults.MinimumGap(),
		defaults.SlotIntervalMinutes(),
		defaults.CreatedAt(),
		defaults.UpdatedAt(),
	)
	if err != nil {
		return nil, err
	}

	// Re-read so a concurrent winner's row is returned.
	return r.find(ctx, organizerID)
}

// Save persists updated settings to the database.
func (r *PostgresBufferRepository) Save(ctx context.Context, settings *domain.BufferSettings) error {
	query := `
		INSERT INTO buffer_settings (
			id, organizer_id, buffer_before, buffer_after, minimum_gap,
			slot_interval_minutes, created_at, updated_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		ON CONFLICT (organizer_id) DO UPDATE SET
			buffer_before = EXCLUDED.buffer_before,
			buffer_after = EXCLUDED.buffer_after,
			minimum_gap = EXCLUDED.minimum_gap,
			slot_interval_minutes = EXCLUDED.slot_interval_minutes,
			updated_at = EXCLUDED.updated_at
	`

	_, err := r.pool.Exec(ctx, query,
		settings.ID(),
		settings.OrganizerID(),
		settings.DefaultBufferBefore(),
		settings.DefaultBufferAfter(),
		settings.MinimumGap(),
		settings.SlotIntervalMinutes(),
		settings.CreatedAt(),
		settings.UpdatedAt(),
	)
	return err
}

func (r *PostgresBufferRepository) find(ctx context.Context, organizerID uuid.UUID) (*domain.BufferSettings, error) {
	query := `
		SELECT id, organizer_id, buffer_before, buffer_after, minimum_gap,
		       slot_interval_minutes, created_at, updated_at
		FROM buffer_settings
		WHERE organizer_id = $1
	`

	var (
		id, orgID            uuid.UUID
		before, after        int
		gap, interval        int
		createdAt, updatedAt time.Time
	)
	err := r.pool.QueryRow(ctx, query, organizerID).Scan(
		&id, &orgID, &before, &after, &gap, &interval, &createdAt, &updatedAt,
	)
	if err != nil {
		return nil, err
	}

	return domain.RehydrateBufferSettings(id, orgID, before, after, gap, interval, createdAt, updatedAt), nil
}
