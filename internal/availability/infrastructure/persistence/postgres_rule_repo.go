// Package persistence implements the availability repositories for
// PostgreSQL and SQLite. Event-type scopes are stored as text arrays of
// UUIDs on Postgres and as JSON text on SQLite.
package persistence

import (
	"context"
	"time"

	"github.com/slotfair/slotfair/internal/availability/domain"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// PostgresRuleRepository implements domain.AvailabilityRuleRepository using
// PostgreSQL.
type PostgresRuleRepository struct {
	pool *pgxpool.Pool
}

// NewPostgresRuleRepository creates a new PostgreSQL rule repository.
func NewPostgresRuleRepository(pool *pgxpool.Pool) *PostgresRuleRepository {
	return &PostgresRuleRepository{pool: pool}
}

// ruleRow represents a database row for availability rules.
type ruleRow struct {
	ID           uuid.UUID
	OrganizerID  uuid.UUID
	DayOfWeek    int
	StartTime    string
	EndTime      string
	EventTypeIDs []string
	Active       bool
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// Save persists a rule to the database.
func (r *PostgresRuleRepository) Save(ctx context.Context, rule *domain.AvailabilityRule) error {
	query := `
		INSERT INTO availability_rules (
			id, organizer_id, day_of_week, start_time, end_time,
			event_type_ids, active, created_at, updated_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		ON CONFLICT (id) DO UPDATE SET
			day_of_week = EXCLUDED.day_of_week,
			start_time = EXCLUDED.start_time,
			end_time = EXCLUDED.end_time,
			event_type_ids = EXCLUDED.event_type_ids,
			active = EXCLUDED.active,
			updated_at = EXCLUDED.updated_at
	`

	_, err := r.pool.Exec(ctx, query,
		rule.ID(),
		rule.OrganizerID(),
		rule.DayOfWeek(),
		rule.StartTime().String(),
		rule.EndTime().String(),
		scopeToStrings(rule.EventTypeIDs()),
		rule.IsActive(),
		rule.CreatedAt(),
		rule.UpdatedAt(),
	)
	return err
}

// FindActiveByOrganizerAndDay retrieves active rules for a weekday.
func (r *PostgresRuleRepository) FindActiveByOrganizerAndDay(
	ctx context.Context,
	organizerID uuid.UUID,
	dayOfWeek int,
) ([]*domain.AvailabilityRule, error) {
	query := `
		SELECT id, organizer_id, day_of_week, start_time, end_time,
		       event_type_ids, active, created_at, updated_at
		FROM availability_rules
		WHERE organizer_id = $1 AND day_of_week = $2 AND active = TRUE
		ORDER BY start_time
	`

	rows, err := r.pool.Query(ctx, query, organizerID, dayOfWeek)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	return scanRules(rows)
}

func scanRules(rows pgx.Rows) ([]*domain.AvailabilityRule, error) {
	rules := make([]*domain.AvailabilityRule, 0)

	for rows.Next() {
		var row ruleRow
		err := rows.Scan(
			&row.ID,
			&row.OrganizerID,
			&row.DayOfWeek,
			&row.StartTime,
			&row.EndTime,
			&row.EventTypeIDs,
			&row.Active,
			&row.CreatedAt,
			&row.UpdatedAt,
		)
		if err != nil {
			return nil, err
		}

		rule, err := rowToRule(row)
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

func rowToRule(row ruleRow) (*domain.AvailabilityRule, error) {
	start, err := domain.ParseTimeOfDay(row.StartTime)
	if err != nil {
		return nil, err
	}
	end, err := domain.ParseTimeOfDay(row.EndTime)
	if err != nil {
		return nil, err
	}
	scope, err := scopeFromStrings(row.EventTypeIDs)
	if err != nil {
		return nil, err
	}

	return domain.RehydrateAvailabilityRule(
		row.ID,
		row.OrganizerID,
		row.DayOfWeek,
		start,
		end,
		scope,
		row.Active,
		row.CreatedAt,
		row.UpdatedAt,
	), nil
}

func scopeToStrings(scope []uuid.UUID) []string {
	out := make([]string, 0, len(scope))
	for _, id := range scope {
		out = append(out, id.String())
	}
	return out
}

func scopeFromStrings(scope []string) ([]uuid.UUID, error) {
	if len(scope) == 0 {
		return nil, nil
	}
	out := make([]uuid.UUID, 0, len(scope))
	for _, s := range scope {
		id, err := uuid.Parse(s)
		if err != nil {
			return nil, err
		}
		out = append(out, id)
	}
	return out, nil
}
