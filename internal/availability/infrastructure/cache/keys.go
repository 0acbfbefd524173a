package cache

import (
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
)

const (
	keyPrefix  = "availability"
	dateFormat = "2006-01-02"
)

// DateRange is an inclusive calendar date span.
type DateRange struct {
	Start time.Time
	End   time.Time
}

// KeyBuilder derives cache keys and invalidation patterns for availability
// results. The common timezone and attendee-count lists come from
// configuration and drive pre-warm/invalidation permutations.
type KeyBuilder struct {
	commonTimezones      []string
	commonAttendeeCounts []int
}

// NewKeyBuilder creates a key builder.
func NewKeyBuilder(commonTimezones []string, commonAttendeeCounts []int) *KeyBuilder {
	if len(commonTimezones) == 0 {
		commonTimezones = []string{"UTC"}
	}
	if len(commonAttendeeCounts) == 0 {
		commonAttendeeCounts = []int{1}
	}
	return &KeyBuilder{
		commonTimezones:      commonTimezones,
		commonAttendeeCounts: commonAttendeeCounts,
	}
}

// AvailabilityKey derives the canonical result key. Identical inputs always
// produce byte-identical keys; changing any field changes the key.
func (k *KeyBuilder) AvailabilityKey(
	organizerID, eventTypeID uuid.UUID,
	startDate, endDate time.Time,
	inviteeTimezone string,
	attendeeCount int,
) string {
	parts := []string{
		keyPrefix,
		organizerID.String(),
		eventTypeID.String(),
		startDate.Format(dateFormat),
		endDate.Format(dateFormat),
		inviteeTimezone,
		fmt.Sprintf("%d", attendeeCount),
	}
	return strings.Join(parts, ":")
}

// InvalidationPatterns plans the glob patterns that cover every cached
// result affected by a change. Narrower inputs produce narrower patterns.
func (k *KeyBuilder) InvalidationPatterns(
	organizerID uuid.UUID,
	eventTypeID *uuid.UUID,
	dateRange *DateRange,
) []string {
	var patterns []string

	switch {
	case eventTypeID != nil && dateRange != nil:
		for d := dateRange.Start; !d.After(dateRange.End); d = d.AddDate(0, 0, 1) {
			patterns = append(patterns, fmt.Sprintf("%s:%s:%s:%s*",
				keyPrefix, organizerID, eventTypeID, d.Format(dateFormat)))
		}
	case eventTypeID != nil:
		patterns = append(patterns, fmt.Sprintf("%s:%s:%s:*", keyPrefix, organizerID, eventTypeID))
	case dateRange != nil:
		for d := dateRange.Start; !d.After(dateRange.End); d = d.AddDate(0, 0, 1) {
			patterns = append(patterns, fmt.Sprintf("%s:%s:*:%s*",
				keyPrefix, organizerID, d.Format(dateFormat)))
		}
	default:
		patterns = append(patterns, fmt.Sprintf("%s:%s:*", keyPrefix, organizerID))
	}

	return patterns
}

// WeeklyKeys emits one key per ISO week (Monday through Sunday) spanning
// the range, deduplicated, preserving week order.
func (k *KeyBuilder) WeeklyKeys(organizerID uuid.UUID, startDate, endDate time.Time) []string {
	var keys []string
	seen := make(map[string]struct{})

	for d := startDate; !d.After(endDate); {
		weekStart := d.AddDate(0, 0, -((int(d.Weekday()) + 6) % 7))
		weekEnd := weekStart.AddDate(0, 0, 6)

		key := fmt.Sprintf("%s:%s:*:%s:%s",
			keyPrefix, organizerID, weekStart.Format(dateFormat), weekEnd.Format(dateFormat))
		if _, dup := seen[key]; !dup {
			seen[key] = struct{}{}
			keys = append(keys, key)
		}

		d = weekEnd.AddDate(0, 0, 1)
	}

	return keys
}

// KeyVariations expands a base key with the configured common timezone and
// attendee-count permutations, base first.
func (k *KeyBuilder) KeyVariations(baseKey string) []string {
	variations := []string{baseKey}
	for _, tz := range k.commonTimezones {
		for _, count := range k.commonAttendeeCounts {
			variations = append(variations, fmt.Sprintf("%s:%s:%d", baseKey, tz, count))
		}
	}
	return variations
}
