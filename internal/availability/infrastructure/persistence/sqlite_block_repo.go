package persistence

import (
	"context"
	"database/sql"
	"time"

	"github.com/slotfair/slotfair/internal/availability/domain"
	"github.com/google/uuid"
)

// SQLiteBlockedTimeRepository implements domain.BlockedTimeRepository using
// SQLite.
type SQLiteBlockedTimeRepository struct {
	db *sql.DB
}

// NewSQLiteBlockedTimeRepository creates a new SQLite blocked-time
// repository.
func NewSQLiteBlockedTimeRepository(db *sql.DB) *SQLiteBlockedTimeRepository {
	return &SQLiteBlockedTimeRepository{db: db}
}

// Save persists a blocked time to the database.
func (r *SQLiteBlockedTimeRepository) Save(ctx context.Context, block *domain.BlockedTime) error {
	query := `
		INSERT INTO blocked_times (
			id, organizer_id, start_time, end_time, reason, source,
			external_id, active, created_at, updated_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT (id) DO UPDATE SET
			start_time = excluded.start_time,
			end_time = excluded.end_time,
			reason = excluded.reason,
			active = excluded.active,
			updated_at = excluded.updated_at
	`

	_, err := r.db.ExecContext(ctx, query,
		block.ID().String(),
		block.OrganizerID().String(),
		block.StartTime().UTC().Format(time.RFC3339),
		block.EndTime().UTC().Format(time.RFC3339),
		block.Reason(),
		string(block.Source()),
		block.ExternalID(),
		boolToInt64(block.IsActive()),
		block.CreatedAt().Format(time.RFC3339),
		block.UpdatedAt().Format(time.RFC3339),
	)
	return err
}

// FindActiveOverlapping retrieves active blocks intersecting [start, end).
// RFC3339 UTC strings compare lexicographically in time order, so the
// overlap predicate runs directly on the stored text.
func (r *SQLiteBlockedTimeRepository) FindActiveOverlapping(
	ctx context.Context,
	organizerID uuid.UUID,
	start, end time.Time,
) ([]*domain.BlockedTime, error) {
	query := `
		SELECT id, organizer_id, start_time, end_time, reason, source,
		       external_id, active, created_at, updated_at
		FROM blocked_times
		WHERE organizer_id = ? AND active = 1
		  AND start_time < ? AND end_time > ?
		ORDER BY start_time
	`

	rows, err := r.db.QueryContext(ctx, query,
		organizerID.String(),
		end.UTC().Format(time.RFC3339),
		start.UTC().Format(time.RFC3339),
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	blocks := make([]*domain.BlockedTime, 0)
	for rows.Next() {
		var (
			idStr, orgStr          string
			startStr, endStr       string
			reason, source         string
			externalID             string
			active                 int64
			createdStr, updatedStr string
		)
		err := rows.Scan(&idStr, &orgStr, &startStr, &endStr, &reason, &source,
			&externalID, &active, &createdStr, &updatedStr)
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
		startTime, err := time.Parse(time.RFC3339, startStr)
		if err != nil {
			return nil, err
		}
		endTime, err := time.Parse(time.RFC3339, endStr)
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

		blocks = append(blocks, domain.RehydrateBlockedTime(
			id, orgID, startTime, endTime, reason,
			domain.BlockSource(source), externalID, active != 0, createdAt, updatedAt,
		))
	}

	if err := rows.Err(); err != nil {
		return nil, err
	}

	return blocks, nil
}

// SQLiteRecurringBlockRepository implements domain.RecurringBlockRepository
// using SQLite.
type SQLiteRecurringBlockRepository struct {
	db *sql.DB
}

// NewSQLiteRecurringBlockRepository creates a new SQLite recurring block
// repository.
func NewSQLiteRecurringBlockRepository(db *sql.DB) *SQLiteRecurringBlockRepository {
	return &SQLiteRecurringBlockRepository{db: db}
}

// Save persists a recurring block to the database.
func (r *SQLiteRecurringBlockRepository) Save(ctx context.Context, block *domain.RecurringBlockedTime) error {
	query := `
		INSERT INTO recurring_blocks (
			id, organizer_id, name, day_of_week, start_time, end_time,
			start_date, end_date, active, created_at, updated_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT (id) DO UPDATE SET
			name = excluded.name,
			day_of_week = excluded.day_of_week,
			start_time = excluded.start_time,
			end_time = excluded.end_time,
			start_date = excluded.start_date,
			end_date = excluded.end_date,
			active = excluded.active,
			updated_at = excluded.updated_at
	`

	_, err := r.db.ExecContext(ctx, query,
		block.ID().String(),
		block.OrganizerID().String(),
		block.Name(),
		block.DayOfWeek(),
		block.StartTime().String(),
		block.EndTime().String(),
		formatTimePtr(block.StartDate()),
		formatTimePtr(block.EndDate()),
		boolToInt64(block.IsActive()),
		block.CreatedAt().Format(time.RFC3339),
		block.UpdatedAt().Format(time.RFC3339),
	)
	return err
}

// FindActiveByOrganizerAndDay retrieves active recurring blocks for a
// weekday.
func (r *SQLiteRecurringBlockRepository) FindActiveByOrganizerAndDay(
	ctx context.Context,
	organizerID uuid.UUID,
	dayOfWeek int,
) ([]*domain.RecurringBlockedTime, error) {
	query := `
		SELECT id, organizer_id, name, day_of_week, start_time, end_time,
		       start_date, end_date, active, created_at, updated_at
		FROM recurring_blocks
		WHERE organizer_id = ? AND day_of_week = ? AND active = 1
		ORDER BY start_time
	`

	rows, err := r.db.QueryContext(ctx, query, organizerID.String(), dayOfWeek)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	blocks := make([]*domain.RecurringBlockedTime, 0)
	for rows.Next() {
		var (
			idStr, orgStr          string
			name                   string
			day                    int
			startStr, endStr       string
			startDateStr           *string
			endDateStr             *string
			active                 int64
			createdStr, updatedStr string
		)
		err := rows.Scan(&idStr, &orgStr, &name, &day, &startStr, &endStr,
			&startDateStr, &endDateStr, &active, &createdStr, &updatedStr)
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
		start, err := domain.ParseTimeOfDay(startStr)
		if err != nil {
			return nil, err
		}
		end, err := domain.ParseTimeOfDay(endStr)
		if err != nil {
			return nil, err
		}
		startDate, err := parseDatePtr(startDateStr)
		if err != nil {
			return nil, err
		}
		endDate, err := parseDatePtr(endDateStr)
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

		blocks = append(blocks, domain.RehydrateRecurringBlockedTime(
			id, orgID, name, day, start, end, startDate, endDate,
			active != 0, createdAt, updatedAt,
		))
	}

	if err := rows.Err(); err != nil {
		return nil, err
	}

	return blocks, nil
}
