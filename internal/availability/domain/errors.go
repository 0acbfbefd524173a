package domain

import "errors"

var (
	// ErrInvalidTimezone indicates a timezone identifier that does not
	// resolve against the IANA database.
	ErrInvalidTimezone = errors.New("invalid timezone identifier")
	// ErrInvalidDateRange indicates end date before start date.
	ErrInvalidDateRange = errors.New("end date must not precede start date")
	// ErrDateRangeTooLong indicates a query window beyond the supported span.
	ErrDateRangeTooLong = errors.New("date range exceeds the maximum of 90 days")
	// ErrEqualTimes indicates a window whose start and end coincide.
	ErrEqualTimes = errors.New("start time and end time cannot be the same")
	// ErrOverrideTimesRequired indicates an available override without a window.
	ErrOverrideTimesRequired = errors.New("start and end time are required when the date is available")
	// ErrRuleOverlap indicates a rule write colliding with an existing rule.
	ErrRuleOverlap = errors.New("time range overlaps an existing availability rule")
	// ErrRecurringBlockOverlap indicates a recurring block write colliding
	// with an existing block on the same weekday.
	ErrRecurringBlockOverlap = errors.New("time range overlaps an existing recurring block")
	// ErrInvalidBlockRange indicates a blocked time whose end is not after
	// its start.
	ErrInvalidBlockRange = errors.New("block end must be after block start")
	// ErrReservedBlockSource indicates an attempt to create or change a
	// sync-worker-owned block through the manual API.
	ErrReservedBlockSource = errors.New("block source is managed by sync workers")
	// ErrInvalidDayOfWeek indicates a weekday outside 0 (Monday) .. 6 (Sunday).
	ErrInvalidDayOfWeek = errors.New("day of week must be between 0 and 6")
	// ErrNotFound indicates a missing record.
	ErrNotFound = errors.New("record not found")
	// ErrPersistence wraps failures of required database reads.
	ErrPersistence = errors.New("persistence failure")
)
