package persistence

import (
	"context"
	"database/sql"
	"time"

	"github.com/slotfair/slotfair/internal/availability/domain"
	"github.com/google/uuid"
)

// SQLiteRuleRepository implements domain.AvailabilityRuleRepository using
// SQLite.
type SQLiteRuleRepository struct {
	db *sql.DB
}

// NewSQLiteRuleRepository creates a new SQLite rule repository.
func NewSQLiteRuleRepository(db *sql.DB) *SQLiteRuleRepository {
	return &SQLiteRuleRepository{db: db}
}

// Save persists a rule to the database.
func (r *SQLiteRuleRepository) Save(ctx context.Context, rule *domain.AvailabilityRule) error {
	query := `
		INSERT INTO availability_rules (
			id, organizer_id, day_of_week, start_time, end_time,
			event_type_ids, active, created_at, updated_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT (id) DO UPDATE SET
			day_of_week = excluded.day_of_week,
			start_time = excluded.start_time,
			end_time = excluded.end_time,
			event_type_ids = excluded.event_type_ids,
			active = excluded.active,
			updated_at = excluded.updated_at
	`

	_, err := r.db.ExecContext(ctx, query,
		rule.ID().String(),
		rule.OrganizerID().String(),
		rule.DayOfWeek(),
		rule.StartTime().String(),
		rule.EndTime().String(),
		scopeToJSON(rule.EventTypeIDs()),
		boolToInt64(rule.IsActive()),
		rule.CreatedAt().Format(time.RFC3339),
		rule.UpdatedAt().Format(time.RFC3339),
	)
	return err
}

// FindActiveByOrganizerAndDay retrieves active rules for a weekday.
func (r *SQLiteRuleRepository) FindActiveByOrganizerAndDay(
	ctx context.Context,
	organizerID uuid.UUID,
	dayOfWeek int,
) ([]*domain.AvailabilityRule, error) {
	query := `
		SELECT id, organizer_id, day_of_week, start_time, end_time,
		       event_type_ids, active, created_at, updated_at
		FROM availability_rules
		WHERE organizer_id = ? AND day_of_week = ? AND active = 1
		ORDER BY start_time
	`

	rows, err := r.db.QueryContext(ctx, query, organizerID.String(), dayOfWeek)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	rules := make([]*domain.AvailabilityRule, 0)
	for rows.Next() {
		var (
			idStr, orgStr        string
			day                  int
			startStr, endStr     string
			scopeJSON            string
			active               int64
			createdStr, updated  string
		)
		err := rows.Scan(&idStr, &orgStr, &day, &startStr, &endStr,
			&scopeJSON, &active, &createdStr, &updated)
		if err != nil {
			return nil, err
		}

		rule, err := sqliteRowToRule(idStr, orgStr, day, startStr, endStr,
			scopeJSON, active, createdStr, updated)
		if err != nil {
			return nil, err
		}
		rules = append(rules, rule)
	}

	if err := rows.Err(); err != nil {
		return nil, err
	}

	return rules, nil
}

func sqliteRowToRule(
	idStr, orgStr string,
	day int,
	startStr, endStr, scopeJSON string,
	active int64,
	createdStr, updatedStr string,
) (*domain.AvailabilityRule, error) {
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

	return domain.RehydrateAvailabilityRule(
		id, orgID, day, start, end, scope, active != 0, createdAt, updatedAt,
	), nil
}
