// Package services contains the availability pipeline stages: rule
// resolution, slot enumeration, block and booking filtering, and
// multi-invitee enrichment.
package services

import (
	"context"
	"fmt"
	"time"

	"github.com/slotfair/slotfair/internal/availability/domain"
	"github.com/google/uuid"
)

// RuleResolver computes the effective available intervals for one organizer
// and date from layered rule sources. Date overrides take full precedence:
// if any applicable override exists for the date, the weekly rules are
// ignored entirely for that date.
type RuleResolver struct {
	rules     domain.AvailabilityRuleRepository
	overrides domain.DateOverrideRepository
}

// NewRuleResolver creates a rule resolver.
func NewRuleResolver(
	rules domain.AvailabilityRuleRepository,
	overrides domain.DateOverrideRepository,
) *RuleResolver {
	return &RuleResolver{rules: rules, overrides: overrides}
}

// DailyAvailableIntervals resolves the organizer's available intervals on
// the given date, composed in the organizer's zone and merged.
func (r *RuleResolver) DailyAvailableIntervals(
	ctx context.Context,
	organizerID uuid.UUID,
	eventType *domain.EventType,
	date time.Time,
	organizerTZ *time.Location,
) ([]domain.Interval, error) {
	overrides, err := r.overrides.FindActiveByOrganizerAndDate(ctx, organizerID, date)
	if err != nil {
		return nil, fmt.Errorf("loading date overrides: %w", err)
	}

	applicable := overrides[:0:0]
	for _, o := range overrides {
		if o.AppliesToEventType(eventType.ID) {
			applicable = append(applicable, o)
		}
	}

	if len(applicable) > 0 {
		var intervals []domain.Interval
		for _, o := range applicable {
			if !o.IsAvailable() || o.StartTime().IsZero() || o.EndTime().IsZero() {
				continue
			}
			intervals = append(intervals, domain.ComposeLocalRange(date, o.StartTime(), o.EndTime(), organizerTZ))
		}
		return intervals, nil
	}

	rules, err := r.rules.FindActiveByOrganizerAndDay(ctx, organizerID, domain.DayOfWeek(date))
	if err != nil {
		return nil, fmt.Errorf("loading availability rules: %w", err)
	}

	var intervals []domain.Interval
	for _, rule := range rules {
		if !rule.AppliesToEventType(eventType.ID) {
			continue
		}
		intervals = append(intervals, domain.ComposeLocalRange(date, rule.StartTime(), rule.EndTime(), organizerTZ))
	}

	return domain.MergeIntervals(intervals), nil
}
