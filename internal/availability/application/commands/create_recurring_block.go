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

// CreateRecurringBlockCommand contains the data needed to create a weekly
// recurring block. Times are "HH:MM" strings; the date bounds are optional.
type CreateRecurringBlockCommand struct {
	OrganizerID uuid.UUID
	Name        string
	DayOfWeek   int // Monday = 0
	StartTime   string
	EndTime     string
	StartDate   *time.Time
	EndDate     *time.Time
}

// Validate validates the command.
func (c CreateRecurringBlockCommand) Validate() error {
	if c.OrganizerID == uuid.Nil {
		return errors.New("organizer_id is required")
	}
	if c.StartTime == "" || c.EndTime == "" {
		return errors.New("start_time and end_time are required")
	}
	return nil
}

// CreateRecurringBlockHandler handles the CreateRecurringBlockCommand.
type CreateRecurringBlockHandler struct {
	blocks   domain.RecurringBlockRepository
	notifier changeNotifier
}

// NewCreateRecurringBlockHandler creates a new CreateRecurringBlockHandler.
func NewCreateRecurringBlockHandler(
	blocks domain.RecurringBlockRepository,
	dirty *cache.DirtyTracker,
	publisher eventbus.Publisher,
	logger *slog.Logger,
) *CreateRecurringBlockHandler {
	return &CreateRecurringBlockHandler{
		blocks:   blocks,
		notifier: newChangeNotifier(dirty, publisher, logger),
	}
}

// Handle executes the CreateRecurringBlockCommand. Touching or overlapping
// another active block on the same weekday is rejected, regardless of date
// bounds.
func (h *CreateRecurringBlockHandler) Handle(ctx context.Context, cmd CreateRecurringBlockCommand) (*domain.RecurringBlockedTime, error) {
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

	block, err := domain.NewRecurringBlockedTime(
		cmd.OrganizerID, cmd.Name, cmd.DayOfWeek, start, end, cmd.StartDate, cmd.EndDate,
	)
	if err != nil {
		return nil, err
	}

	existing, err := h.blocks.FindActiveByOrganizerAndDay(ctx, cmd.OrganizerID, cmd.DayOfWeek)
	if err != nil {
		return nil, err
	}
	for _, other := range existing {
		if domain.TimesOverlap(start, end, other.StartTime(), other.EndTime(), true) {
			return nil, domain.ErrRecurringBlockOverlap
		}
	}

	if err := h.blocks.Save(ctx, block); err != nil {
		return nil, err
	}

	h.notifier.notify(ctx, cmd.OrganizerID, block.ID(), "recurring_blocks",
		RoutingKeyRecurringBlockChanged, true, nil)

	return block, nil
}
