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

// UpdateBufferSettingsCommand replaces an organizer's scheduling defaults.
type UpdateBufferSettingsCommand struct {
	OrganizerID         uuid.UUID
	DefaultBufferBefore int
	DefaultBufferAfter  int
	MinimumGap          int
	SlotIntervalMinutes int
}

// Validate validates the command.
func (c UpdateBufferSettingsCommand) Validate() error {
	if c.OrganizerID == uuid.Nil {
		return errors.New("organizer_id is required")
	}
	return nil
}

// UpdateBufferSettingsHandler handles the UpdateBufferSettingsCommand.
type UpdateBufferSettingsHandler struct {
	buffers  domain.BufferSettingsRepository
	notifier changeNotifier
}

// NewUpdateBufferSettingsHandler creates a new UpdateBufferSettingsHandler.
func NewUpdateBufferSettingsHandler(
	buffers domain.BufferSettingsRepository,
	dirty *cache.DirtyTracker,
	publisher eventbus.Publisher,
	logger *slog.Logger,
) *UpdateBufferSettingsHandler {
	return &UpdateBufferSettingsHandler{
		buffers:  buffers,
		notifier: newChangeNotifier(dirty, publisher, logger),
	}
}

// Handle executes the UpdateBufferSettingsCommand. Buffer changes shift
// every computed slot, so the organizer's whole cache is invalidated.
func (h *UpdateBufferSettingsHandler) Handle(ctx context.Context, cmd UpdateBufferSettingsCommand) (*domain.BufferSettings, error) {
	if err := cmd.Validate(); err != nil {
		return nil, err
	}

	settings, err := h.buffers.GetOrCreate(ctx, cmd.OrganizerID)
	if err != nil {
		return nil, err
	}

	if err := settings.Update(
		cmd.DefaultBufferBefore,
		cmd.DefaultBufferAfter,
		cmd.MinimumGap,
		cmd.SlotIntervalMinutes,
	); err != nil {
		return nil, err
	}

	if err := h.buffers.Save(ctx, settings); err != nil {
		return nil, err
	}

	h.notifier.notify(ctx, cmd.OrganizerID, settings.ID(), "buffer_settings",
		RoutingKeyBufferChanged, true, nil)

	return settings, nil
}
