package persistence

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	_ "modernc.org/sqlite" // Pure Go SQLite driver

	"github.com/google/uuid"
)

// OpenSQLite opens (and bootstraps) a SQLite database for zero-config local
// mode. The schema is created on first open.
func OpenSQLite(ctx context.Context, path string) (*sql.DB, error) {
	// Build DSN with pragmas for optimal SQLite performance
	// - journal_mode=WAL: Write-Ahead Logging for better concurrency
	// - foreign_keys=ON: Enforce foreign key constraints
	// - busy_timeout=5000: Wait 5s on lock instead of failing immediately
	// - synchronous=NORMAL: Good balance of safety and speed
	dsn := path
	if !strings.Contains(dsn, "?") {
		dsn += "?"
	} else {
		dsn += "&"
	}
	dsn += "_pragma=journal_mode(WAL)&_pragma=foreign_keys(1)&_pragma=busy_timeout(5000)&_pragma=synchronous(NORMAL)"

	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open SQLite database: %w", err)
	}

	// SQLite doesn't support multiple writers, so limit connections
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)

	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to ping SQLite database: %w", err)
	}

	if _, err := db.ExecContext(ctx, sqliteSchema); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to bootstrap SQLite schema: %w", err)
	}

	return db, nil
}

const sqliteSchema = `
CREATE TABLE IF NOT EXISTS availability_rules (
	id TEXT PRIMARY KEY,
	organizer_id TEXT NOT NULL,
	day_of_week INTEGER NOT NULL,
	start_time TEXT NOT NULL,
	end_time TEXT NOT NULL,
	event_type_ids TEXT NOT NULL DEFAULT '[]',
	active INTEGER NOT NULL DEFAULT 1,
	created_at TEXT NOT NULL,
	updated_at TEXT NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_rules_organizer_day
	ON availability_rules(organizer_id, day_of_week, active);

CREATE TABLE IF NOT EXISTS date_overrides (
	id TEXT PRIMARY KEY,
	organizer_id TEXT NOT NULL,
	date TEXT NOT NULL,
	available INTEGER NOT NULL,
	start_time TEXT,
	end_time TEXT,
	event_type_ids TEXT NOT NULL DEFAULT '[]',
	reason TEXT NOT NULL DEFAULT '',
	active INTEGER NOT NULL DEFAULT 1,
	created_at TEXT NOT NULL,
	updated_at TEXT NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_overrides_organizer_date
	ON date_overrides(organizer_id, date, active);

CREATE TABLE IF NOT EXISTS blocked_times (
	id TEXT PRIMARY KEY,
	organizer_id TEXT NOT NULL,
	start_time TEXT NOT NULL,
	end_time TEXT NOT NULL,
	reason TEXT NOT NULL DEFAULT '',
	source TEXT NOT NULL DEFAULT 'manual',
	external_id TEXT NOT NULL DEFAULT '',
	active INTEGER NOT NULL DEFAULT 1,
	created_at TEXT NOT NULL,
	updated_at TEXT NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_blocked_organizer_span
	ON blocked_times(organizer_id, start_time, end_time);

CREATE TABLE IF NOT EXISTS recurring_blocks (
	id TEXT PRIMARY KEY,
	organizer_id TEXT NOT NULL,
	name TEXT NOT NULL DEFAULT '',
	day_of_week INTEGER NOT NULL,
	start_time TEXT NOT NULL,
	end_time TEXT NOT NULL,
	start_date TEXT,
	end_date TEXT,
	active INTEGER NOT NULL DEFAULT 1,
	created_at TEXT NOT NULL,
	updated_at TEXT NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_recurring_organizer_day
	ON recurring_blocks(organizer_id, day_of_week, active);

CREATE TABLE IF NOT EXISTS buffer_settings (
	id TEXT PRIMARY KEY,
	organizer_id TEXT NOT NULL UNIQUE,
	buffer_before INTEGER NOT NULL DEFAULT 0,
	buffer_after INTEGER NOT NULL DEFAULT 0,
	minimum_gap INTEGER NOT NULL DEFAULT 0,
	slot_interval_minutes INTEGER NOT NULL DEFAULT 30,
	created_at TEXT NOT NULL,
	updated_at TEXT NOT NULL
);

CREATE TABLE IF NOT EXISTS bookings (
	id TEXT PRIMARY KEY,
	organizer_id TEXT NOT NULL,
	event_type_id TEXT NOT NULL,
	start_time TEXT NOT NULL,
	end_time TEXT NOT NULL,
	status TEXT NOT NULL,
	attendee_count INTEGER NOT NULL DEFAULT 1
);
CREATE INDEX IF NOT EXISTS idx_bookings_organizer_span
	ON bookings(organizer_id, status, start_time, end_time);

CREATE TABLE IF NOT EXISTS event_types (
	id TEXT PRIMARY KEY,
	organizer_id TEXT NOT NULL,
	slug TEXT NOT NULL,
	duration_minutes INTEGER NOT NULL,
	buffer_before INTEGER,
	buffer_after INTEGER,
	slot_interval_minutes INTEGER,
	is_group_event INTEGER NOT NULL DEFAULT 0,
	max_attendees INTEGER NOT NULL DEFAULT 1,
	UNIQUE (organizer_id, slug)
);

CREATE TABLE IF NOT EXISTS organizer_profiles (
	organizer_id TEXT PRIMARY KEY,
	timezone TEXT NOT NULL DEFAULT 'UTC',
	reasonable_hours_start INTEGER NOT NULL DEFAULT 9,
	reasonable_hours_end INTEGER NOT NULL DEFAULT 18
);
`

const (
	sqliteDateLayout = "2006-01-02"
)

func boolToInt64(b bool) int64 {
	if b {
		return 1
	}
	return 0
}

func scopeToJSON(scope []uuid.UUID) string {
	raw, err := json.Marshal(scopeToStrings(scope))
	if err != nil {
		return "[]"
	}
	return string(raw)
}

func scopeFromJSON(raw string) ([]uuid.UUID, error) {
	if raw == "" {
		return nil, nil
	}
	var parts []string
	if err := json.Unmarshal([]byte(raw), &parts); err != nil {
		return nil, err
	}
	return scopeFromStrings(parts)
}

func formatTimePtr(t *time.Time) *string {
	if t == nil {
		return nil
	}
	s := t.Format(sqliteDateLayout)
	return &s
}

func parseDatePtr(s *string) (*time.Time, error) {
	if s == nil || *s == "" {
		return nil, nil
	}
	t, err := time.Parse(sqliteDateLayout, *s)
	if err != nil {
		return nil, err
	}
	return &t, nil
}
