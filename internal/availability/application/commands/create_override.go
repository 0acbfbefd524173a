package commands

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/slotfair/slotfair/internal/availability/domain"
	"github.com/slotfair/slotfair/internal/availability/infrastructure/cache"
	"github.com/slotfair/slotfair/internal/shared/infrastructure/eventbus"
	"github.com/google/uuid"
)

// CreateOverrideCommand contains the data needed to create a date override.
// StartTime and EndTime are "HH:MM" strings and are required only when the
// date is marked available.
type CreateOverrideCommand struct {
	OrganizerID  uuid.UUID
	Date         time.Time
	Available    bool
	StartTime    string
	EndTime      string
	EventTypeIDs []uuid.UUID
	Reason       string
}

// Validate validates the command.
func (c CreateOverrideCommand) Validate() error {
	if c.OrganizerID == uuid.Nil {
		return errors.New("organizer_id is required")
	}
	if c.Date.IsZero() {
		return errors.New("date is required")
	}
	return nil
}

// CreateOverrideHandler handles the CreateOverrideCommand.
type CreateOverrideHandler struct {
	overrides domain.DateOverrideRepository
	notifier  changeNotifier
}

// NewCreateOverrideHandler creates a new CreateOverrideHandler.
func NewCreateOverrideHandler(
	overrides domain.DateOverrideRepository,
	dirty *cache.DirtyTracker,
	publisher eventbus.Publisher,
	logger *slog.Logger,
) *CreateOverrideHandler {
	return &CreateOverrideHandler{
		overrides: overrides,
		notifier:  newChangeNotifier(dirty, publisher, logger),
	}
}

// Handle executes the CreateOverrideCommand. The affected date travels with
// the dirty record so the sweeper can invalidate narrowly.
func (h *CreateOverrideHandler) Handle(ctx context.Context, cmd CreateOverrideCommand) (*domain.DateOverrideRule, error) {
	if err := cmd.Validate(); err != nil {
		return nil, err
	}

	var start, end domain.TimeOfDay
	if cmd.StartTime != "" {
		parsed, err := domain.ParseTimeOfDay(cmd.StartTime)
		if err != nil {
			return nil, err
		}
		start = parsed
	}
	if cmd.EndTime != "" {
		parsed, err := domain.ParseTimeOfDay(cmd.EndTime)
		if err != nil {
			return nil, err
		}
		end = parsed
	}

	override, err := domain.NewDateOverrideRule(
		cmd.OrganizerID, cmd.Date, cmd.Available, start, end, cmd.EventTypeIDs, cmd.Reason,
	)
	if err != nil {
		return nil, err
	}

	if err := h.overrides.Save(ctx, override); err != nil {
		return nil, err
	}

	h.notifier.notify(ctx, cmd.OrganizerID, override.ID(), "date_overrides",
		RoutingKeyOverrideChanged, false,
		map[string]string{"date": override.Date().Format("2006-01-02")})

	return override, nil
}
