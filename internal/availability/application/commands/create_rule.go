package commands

import (
	"context"
	"errors"
	"log/slog"

	"github.com/slotfair/slotfair/internal/availability/domain"
	"github.com/slotfair/slotfair/internal/availability/infrastructure/cache"
	"github.com/slotfair/slotfair/internal/shared/infrastructure/eventbus"
	"github.com/google/uuid"
)

// CreateRuleCommand contains the data needed to create a weekly
// availability rule. Times are "HH:MM" strings in the organizer's zone.
type CreateRuleCommand struct {
	OrganizerID  uuid.UUID
	DayOfWeek    int // Monday = 0
	StartTime    string
	EndTime      string
	EventTypeIDs []uuid.UUID
}

// Validate validates the command.
func (c CreateRuleCommand) Validate() error {
	if c.OrganizerID == uuid.Nil {
		return errors.New("organizer_id is required")
	}
	if c.StartTime == "" || c.EndTime == "" {
		return errors.New("start_time and end_time are required")
	}
	return nil
}

// CreateRuleHandler handles the CreateRuleCommand.
type CreateRuleHandler struct {
	rules    domain.AvailabilityRuleRepository
	notifier changeNotifier
}

// NewCreateRuleHandler creates a new CreateRuleHandler.
func NewCreateRuleHandler(
	rules domain.AvailabilityRuleRepository,
	dirty *cache.DirtyTracker,
	publisher eventbus.Publisher,
	logger *slog.Logger,
) *CreateRuleHandler {
	return &CreateRuleHandler{
		rules:    rules,
		notifier: newChangeNotifier(dirty, publisher, logger),
	}
}

// Handle executes the CreateRuleCommand. A new rule is rejected when its
// window touches or overlaps an existing active rule on the same weekday
// with an intersecting event-type scope; back-to-back windows count as a
// collision here even though the read path treats them as compatible.
func (h *CreateRuleHandler) Handle(ctx context.Context, cmd CreateRuleCommand) (*domain.AvailabilityRule, error) {
	if err := cmd.Validate(); err != nil {
		return nil, err
	}

	start, err := domain.ParseTimeOfDay(cmd.StartTime)
	if err != nil {
		return nil, err
	}
	end, err := domain.ParseTimeOfDay(cmd.EndTime)
	if err != nil {
		return nil, err
	}

	rule, err := domain.NewAvailabilityRule(cmd.OrganizerID, cmd.DayOfWeek, start, end, cmd.EventTypeIDs)
	if err != nil {
		return nil, err
	}

	existing, err := h.rules.FindActiveByOrganizerAndDay(ctx, cmd.OrganizerID, cmd.DayOfWeek)
	if err != nil {
		return nil, err
	}
	for _, other := range existing {
		if !domain.ScopesIntersect(rule.EventTypeIDs(), other.EventTypeIDs()) {
			continue
		}
		if domain.TimesOverlap(start, end, other.StartTime(), other.EndTime(), true) {
			return nil, domain.ErrRuleOverlap
		}
	}

	if err := h.rules.Save(ctx, rule); err != nil {
		return nil, err
	}

	h.notifier.notify(ctx, cmd.OrganizerID, rule.ID(), "availability_rules",
		RoutingKeyRuleChanged, true, nil)

	return rule, nil
}
