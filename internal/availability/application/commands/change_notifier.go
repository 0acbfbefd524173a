// Package commands implements the availability write path. Every mutation
// marks the organizer's cache dirty for the sweeper and publishes a domain
// event; neither side effect can fail the write itself.
package commands

import (
	"context"
	"encoding/json"
	"log/slog"
	"time"

	"github.com/slotfair/slotfair/internal/availability/infrastructure/cache"
	"github.com/slotfair/slotfair/internal/shared/infrastructure/eventbus"
	"github.com/google/uuid"
)

// Routing keys for availability change events.
const (
	RoutingKeyRuleChanged           = "availability.changed.rule"
	RoutingKeyOverrideChanged       = "availability.changed.override"
	RoutingKeyBlockedTimeChanged    = "availability.changed.blocked_time"
	RoutingKeyRecurringBlockChanged = "availability.changed.recurring_block"
	RoutingKeyBufferChanged         = "availability.changed.buffer_settings"
)

// changeNotifier fans a committed write out to the dirty tracker and the
// event bus. Failures are logged and swallowed: the database is the source
// of truth and dirty entries expire on their own.
type changeNotifier struct {
	dirty     *cache.DirtyTracker
	publisher eventbus.Publisher
	logger    *slog.Logger
}

func newChangeNotifier(dirty *cache.DirtyTracker, publisher eventbus.Publisher, logger *slog.Logger) changeNotifier {
	if logger == nil {
		logger = slog.Default()
	}
	if publisher == nil {
		publisher = eventbus.NewNoopPublisher(logger)
	}
	return changeNotifier{dirty: dirty, publisher: publisher, logger: logger}
}

type changeEvent struct {
	OrganizerID string            `json:"organizer_id"`
	EntityID    string            `json:"entity_id"`
	ChangeType  string            `json:"change_type"`
	OccurredAt  time.Time         `json:"occurred_at"`
	Extras      map[string]string `json:"extras,omitempty"`
}

func (n changeNotifier) notify(
	ctx context.Context,
	organizerID, entityID uuid.UUID,
	cacheType, routingKey string,
	requiresFullInvalidation bool,
	extras map[string]string,
) {
	if n.dirty != nil {
		if err := n.dirty.MarkDirty(ctx, organizerID, cacheType, requiresFullInvalidation, extras); err != nil {
			n.logger.Warn("failed to mark cache dirty",
				"organizer_id", organizerID,
				"cache_type", cacheType,
				"error", err,
			)
		}
	}

	payload, err := json.Marshal(changeEvent{
		OrganizerID: organizerID.String(),
		EntityID:    entityID.String(),
		ChangeType:  cacheType,
		OccurredAt:  time.Now().UTC(),
		Extras:      extras,
	})
	if err != nil {
		n.logger.Warn("failed to encode change event", "error", err)
		return
	}
	if err := n.publisher.Publish(ctx, routingKey, payload); err != nil {
		n.logger.Warn("failed to publish change event",
			"routing_key", routingKey,
			"error", err,
		)
	}
}
