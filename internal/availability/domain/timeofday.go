// Package domain contains the availability engine's entities and time
// primitives: weekly rules, date overrides, blocked times, buffer settings,
// and the slot values the engine produces.
package domain

import (
	"fmt"
	"strconv"
	"strings"
	"time"
)

const minutesPerDay = 24 * 60

// TimeOfDay is a wall-clock time without a date or zone. The zero value is
// "unset", which lets optional rule fields distinguish midnight from absent.
type TimeOfDay struct {
	hour   int
	minute int
	set    bool
}

// NewTimeOfDay creates a TimeOfDay from hour and minute components.
func NewTimeOfDay(hour, minute int) (TimeOfDay, error) {
	if hour < 0 || hour > 23 || minute < 0 || minute > 59 {
		return TimeOfDay{}, fmt.Errorf("time of day out of range: %02d:%02d", hour, minute)
	}
	return TimeOfDay{hour: hour, minute: minute, set: true}, nil
}

// MustTimeOfDay is NewTimeOfDay that panics on invalid input. For literals.
func MustTimeOfDay(hour, minute int) TimeOfDay {
	t, err := NewTimeOfDay(hour, minute)
	if err != nil {
		panic(err)
	}
	return t
}

// ParseTimeOfDay parses "HH:MM" or "HH:MM:SS". Seconds are discarded.
func ParseTimeOfDay(s string) (TimeOfDay, error) {
	parts := strings.Split(s, ":")
	if len(parts) < 2 || len(parts) > 3 {
		return TimeOfDay{}, fmt.Errorf("invalid time of day %q", s)
	}
	hour, err := strconv.Atoi(parts[0])
	if err != nil {
		return TimeOfDay{}, fmt.Errorf("invalid time of day %q", s)
	}
	minute, err := strconv.Atoi(parts[1])
	if err != nil {
		return TimeOfDay{}, fmt.Errorf("invalid time of day %q", s)
	}
	return NewTimeOfDay(hour, minute)
}

// IsZero reports whether the value is unset.
func (t TimeOfDay) IsZero() bool { return !t.set }

// Hour returns the hour component.
func (t TimeOfDay) Hour() int { return t.hour }

// Minute returns the minute component.
func (t TimeOfDay) Minute() int { return t.minute }

// Minutes returns minutes from midnight.
func (t TimeOfDay) Minutes() int { return t.hour*60 + t.minute }

// Equal reports whether two set values name the same wall-clock time.
func (t TimeOfDay) Equal(other TimeOfDay) bool {
	return t.set && other.set && t.Minutes() == other.Minutes()
}

func (t TimeOfDay) String() string {
	if !t.set {
		return ""
	}
	return fmt.Sprintf("%02d:%02d", t.hour, t.minute)
}

// SpansMidnight reports whether a window running from start to end crosses
// midnight. End at or before start means the window wraps into the next day.
func SpansMidnight(start, end TimeOfDay) bool {
	if start.IsZero() || end.IsZero() {
		return false
	}
	return end.Minutes() <= start.Minutes()
}

// TimesOverlap is the canonical wall-clock overlap check. Midnight-spanning
// windows are normalized by extending their end past 24:00. With
// allowAdjacency, touching boundaries count as overlapping; that variant is
// used when validating rule writes so adjacent windows get consolidated
// instead of accumulating. Unset inputs fail safe to false.
func TimesOverlap(aStart, aEnd, bStart, bEnd TimeOfDay, allowAdjacency bool) bool {
	if aStart.IsZero() || aEnd.IsZero() || bStart.IsZero() || bEnd.IsZero() {
		return false
	}

	aStartMin, aEndMin := aStart.Minutes(), aEnd.Minutes()
	bStartMin, bEndMin := bStart.Minutes(), bEnd.Minutes()

	if aEndMin < aStartMin {
		aEndMin += minutesPerDay
	}
	if bEndMin < bStartMin {
		bEndMin += minutesPerDay
	}

	if allowAdjacency {
		return aStartMin <= bEndMin && aEndMin >= bStartMin
	}
	return aStartMin < bEndMin && aEndMin > bStartMin
}

// ComposeLocal attaches a wall-clock time to the given date in loc,
// producing an absolute instant.
func ComposeLocal(date time.Time, tod TimeOfDay, loc *time.Location) time.Time {
	year, month, day := date.Date()
	return time.Date(year, month, day, tod.hour, tod.minute, 0, 0, loc)
}

// ComposeLocalRange composes a start/end window on the given date in loc.
// When the window spans midnight the end lands on the following day.
func ComposeLocalRange(date time.Time, start, end TimeOfDay, loc *time.Location) Interval {
	startAt := ComposeLocal(date, start, loc)
	endDate := date
	if SpansMidnight(start, end) {
		endDate = date.AddDate(0, 0, 1)
	}
	return Interval{Start: startAt, End: ComposeLocal(endDate, end, loc)}
}

// DayOfWeek returns the weekday of t with Monday as 0 and Sunday as 6.
func DayOfWeek(t time.Time) int {
	return (int(t.Weekday()) + 6) % 7
}
