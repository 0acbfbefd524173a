package persistence

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/slotfair/slotfair/internal/availability/domain"
	"github.com/google/uuid"
)

// SQLiteBufferRepository implements domain.BufferSettingsRepository using
// SQLite.
type SQLiteBufferRepository struct {
	db *sql.DB
}

// NewSQLiteBufferRepository creates a new SQLite buffer-settings repository.
func NewSQLiteBufferRepository(db *sql.DB) *SQLiteBufferRepository {
	return &SQLiteBufferRepository{db: db}
}

// GetOrCreate returns the organizer's settings, inserting the defaults row
// on first access.
func (r *SQLiteBufferRepository) GetOrCreate(ctx context.Context, organizerID uuid.UUID) (*domain.BufferSettings, error) {
	settings, err := r.find(ctx, organizerID)
	if err == nil {
		return settings, nil
	}
	if !errors.Is(err, sql.ErrNoRows) {
		return nil, err
	}

	defaults := domain.DefaultBufferSettings(organizerID)
	query := `
		INSERT INTO buffer_settings (
			id, organizer_id, buffer_before, buffer_after, minimum_gap,
			slot_interval_minutes, created_at, updated_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT (organizer_id) DO NOTHING
	`
	_, err = r.db.ExecContext(ctx, query,
		defaults.ID().String(),
		defaults.OrganizerID().String(),
		defaults.DefaultBufferBefore(),
		defaults.DefaultBufferAfter(),
		defaults.MinimumGap(),
		defaults.SlotIntervalMinutes(),
		defaults.CreatedAt().Format(time.RFC3339),
		defaults.UpdatedAt().Format(time.RFC3339),
	)
	if err != nil {
		return nil, err
	}

	return r.find(ctx, organizerID)
}

// Save persists updated settings to the database.
func (r *SQLiteBufferRepository) Save(ctx context.Context, settings *domain.BufferSettings) error {
	query := `
		INSERT INTO buffer_settings (
			id, organizer_id, buffer_before, buffer_after, minimum_gap,
			slot_interval_minutes, created_at, updated_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT (organizer_id) DO UPDATE SET
			buffer_before = excluded.buffer_before,
			buffer_after = excluded.buffer_after,
			minimum_gap = excluded.minimum_gap,
			slot_interval_minutes = excluded.slot_interval_minutes,
			updated_at = excluded.updated_at
	`

	_, err := r.db.ExecContext(ctx, query,
		settings.ID().String(),
		settings.OrganizerID().String(),
		settings.DefaultBufferBefore(),
		settings.DefaultBufferAfter(),
		settings.MinimumGap(),
		settings.SlotIntervalMinutes(),
		settings.CreatedAt().Format(time.RFC3339),
		settings.UpdatedAt().Format(time.RFC3339),
	)
	return err
}

func (r *SQLiteBufferRepository) find(ctx context.Context, organizerID uuid.UUID) (*domain.BufferSettings, error) {
	query := `
		SELECT id, organizer_id, buffer_before, buffer_after, minimum_gap,
		       slot_interval_minutes, created_at, updated_at
		FROM buffer_settings
		WHERE organizer_id = ?
	`

	var (
		idStr, orgStr          string
		before, after          int
		gap, interval          int
		createdStr, updatedStr string
	)
	err := r.db.QueryRowContext(ctx, query, organizerID.String()).Scan(
		&idStr, &orgStr, &before, &after, &gap, &interval, &createdStr, &updatedStr,
	)
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
	createdAt, err := time.Parse(time.RFC3339, createdStr)
	if err != nil {
		return nil, err
	}
	updatedAt, err := time.Parse(time.RFC3339, updatedStr)
	if err != nil {
		return nil, err
	}

	return domain.RehydrateBufferSettings(id, orgID, before, after, gap, interval, createdAt, updatedAt), nil
}
