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

// CreateBlockedTimeCommand contains the data needed to create a one-off
// blocked time through the organizer API.
type CreateBlockedTimeCommand struct {
	OrganizerID uuid.UUID
	StartTime   time.Time
	EndTime     time.Time
	Reason      string
	// Source must be empty or "manual"; sync-worker sources are reserved.
	Source string
}

// Validate validates the command.
func (c CreateBlockedTimeCommand) Validate() error {
	if c.OrganizerID == uuid.Nil {
		return errors.New("organizer_id is required")
	}
	if c.StartTime.IsZero() || c.EndTime.IsZero() {
		return errors.New("start_time and end_time are required")
	}
	if c.Source != "" && c.Source != string(domain.BlockSourceManual) {
		return domain.ErrReservedBlockSource
	}
	return nil
}

// CreateBlockedTimeHandler handles the CreateBlockedTimeCommand.
type CreateBlockedTimeHandler struct {
	blocks   domain.BlockedTimeRepository
	notifier changeNotifier
}

// NewCreateBlockedTimeHandler creates a new CreateBlockedTimeHandler.
func NewCreateBlockedTimeHandler(
	blocks domain.BlockedTimeRepository,
	dirty *cache.DirtyTracker,
	publisher eventbus.Publisher,
	logger *slog.Logger,
) *CreateBlockedTimeHandler {
	return &CreateBlockedTimeHandler{
		blocks:   blocks,
		notifier: newChangeNotifier(dirty, publisher, logger),
	}
}

// Handle executes the CreateBlockedTimeCommand. The block's date span
// travels with the dirty record so the sweeper can invalidate narrowly.
func (h *CreateBlockedTimeHandler) Handle(ctx context.Context, cmd CreateBlockedTimeCommand) (*domain.BlockedTime, error) {
	if err := cmd.Validate(); err != nil {
		return nil, err
	}

	block, err := domain.NewManualBlockedTime(cmd.OrganizerID, cmd.StartTime, cmd.EndTime, cmd.Reason)
	if err != nil {
		return nil, err
	}

	if err := h.blocks.Save(ctx, block); err != nil {
		return nil, err
	}

	h.notifier.notify(ctx, cmd.OrganizerID, block.ID(), "blocked_times",
		RoutingKeyBlockedTimeChanged, false,
		map[string]string{
			"start_date": domain.NormalizeDate(block.StartTime()).Format("2006-01-02"),
			"end_date":   domain.NormalizeDate(block.EndTime()).Format("2006-01-02"),
		})

	return block, nil
}
