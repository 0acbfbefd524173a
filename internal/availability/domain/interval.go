package domain

import (
	"sort"
	"time"
)

// Interval is a half-open [Start, End) range of absolute instants.
type Interval struct {
	Start time.Time
	End   time.Time
}

// Duration returns the interval length.
func (i Interval) Duration() time.Duration {
	return i.End.Sub(i.Start)
}

// Overlaps reports whether two intervals share any instant (strict: touching
// boundaries do not overlap).
func (i Interval) Overlaps(other Interval) bool {
	return i.Start.Before(other.End) && i.End.After(other.Start)
}

// Contains reports whether other lies entirely within i.
func (i Interval) Contains(other Interval) bool {
	return !other.Start.Before(i.Start) && !other.End.After(i.End)
}

// MergeIntervals merges overlapping or adjacent intervals into a minimal
// sorted set.
func MergeIntervals(intervals []Interval) []Interval {
	if len(intervals) == 0 {
		return nil
	}

	sorted := make([]Interval, len(intervals))
	copy(sorted, intervals)
	sort.Slice(sorted, func(a, b int) bool {
		return sorted[a].Start.Before(sorted[b].Start)
	})

	merged := []Interval{sorted[0]}
	for _, cur := range sorted[1:] {
		last := &merged[len(merged)-1]
		if !cur.Start.After(last.End) {
			if cur.End.After(last.End) {
				last.End = cur.End
			}
			continue
		}
		merged = append(merged, cur)
	}

	return merged
}

// ValidateTimezone reports whether tz resolves against the IANA database.
// The empty string is rejected even though the time package would map it
// to UTC.
func ValidateTimezone(tz string) bool {
	if tz == "" {
		return false
	}
	_, err := time.LoadLocation(tz)
	return err == nil
}

// ZoneOffsetHours returns the difference between the UTC offsets of two
// zones, in fractional hours, evaluated at noon of the reference date so a
// DST transition on that day does not skew the result. Returns 0 when either
// zone fails to resolve.
func ZoneOffsetHours(fromTZ, toTZ string, reference time.Time) float64 {
	fromLoc, err := time.LoadLocation(fromTZ)
	if err != nil {
		return 0
	}
	toLoc, err := time.LoadLocation(toTZ)
	if err != nil {
		return 0
	}

	year, month, day := reference.Date()
	ref := time.Date(year, month, day, 12, 0, 0, 0, fromLoc)

	_, fromOffset := ref.Zone()
	_, toOffset := ref.In(toLoc).Zone()

	return float64(toOffset-fromOffset) / 3600
}
