package persistence

import (
	"context"
	"database/sql"
	"time"

	"github.com/slotfair/slotfair/internal/availability/domain"
	"github.com/google/uuid"
)

// SQLiteOverrideRepository implements domain.DateOverrideRepository using
// SQLite.
type SQLiteOverrideRepository struct {
	db *sql.DB
}

// NewSQLiteOverrideRepository creates a new SQLite override repository.
func NewSQLiteOverrideRepository(db *sql.DB) *SQLiteOverrideRepository {
	return &SQLiteOverrideRepository{db: db}
}

// Save persists an override to the database.
func (r *SQLiteOverrideRepository) Save(ctx context.Context, override *domain.DateOverrideRule) error {
	query := `
		INSERT INTO date_overrides (
			id, organizer_id, date, available, start_time, end_time,
			event_type_ids, reason, active, created_at, updated_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT (id) DO UPDATE SET
			date = excluded.date,
			available = excluded.available,
			start_time = excluded.start_time,
			end_time = excluded.end_time,
			event_type_ids = excluded.event_type_ids,
			reason = excluded.reason,
			active = excluded.active,
			updated_at = excluded.updated_at
	`

	_, err := r.db.ExecContext(ctx, query,
		override.ID().String(),
		override.OrganizerID().String(),
		override.Date().Format(sqliteDateLayout),
		boolToInt64(override.IsAvailable()),
		timeOfDayPtr(override.StartTime()),
		timeOfDayPtr(override.EndTime()),
		scopeToJSON(override.EventTypeIDs()),
		override.Reason(),
		boolToInt64(override.IsActive()),
		override.CreatedAt().Format(time.RFC3339),
		override.UpdatedAt().Format(time.RFC3339),
	)
	return err
}

// FindActiveByOrganizerAndDate retrieves active overrides for a calendar
// date.
func (r *SQLiteOverrideRepository) FindActiveByOrganizerAndDate(
	ctx context.Context,
	organizerID uuid.UUID,
	date time.Time,
) ([]*domain.DateOverrideRule, error) {
	query := `
		SELECT id, organizer_id, date, available, start_time, end_time,
		       event_type_ids, reason, active, created_at, updated_at
		FROM date_overrides
		WHERE organizer_id = ? AND date = ? AND active = 1
		ORDER BY created_at
	`

	rows, err := r.db.QueryContext(ctx, query,
		organizerID.String(), domain.NormalizeDate(date).Format(sqliteDateLayout))
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	overrides := make([]*domain.DateOverrideRule, 0)
	for rows.Next() {
		var (
			idStr, orgStr          string
			dateStr                string
			available              int64
			startPtr, endPtr       *string
			scopeJSON, reason      string
			active                 int64
			createdStr, updatedStr string
		)
		err := rows.Scan(&idStr, &orgStr, &dateStr, &available, &startPtr, &endPtr,
			&scopeJSON, &reason, &active, &createdStr, &updatedStr)
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
		day, err := time.Parse(sqliteDateLayout, dateStr)
		if err != nil {
			return nil, err
		}
		start, err := timeOfDayFromPtr(startPtr)
		if err != nil {
			return nil, err
		}
		end, err := timeOfDayFromPtr(endPtr)
		if err != nil {
			return nil, err
		}
		scope, err := scopeFromJSON(scopeJSON)
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

		overrides = append(overrides, domain.RehydrateDateOverrideRule(
			id, orgID, day, available != 0, start, end, scope, reason,
			active != 0, createdAt, updatedAt,
		))
	}

	if err := rows.Err(); err != nil {
		return nil, err
	}

	return overrides, nil
}
