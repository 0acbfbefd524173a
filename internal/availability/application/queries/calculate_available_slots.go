// Package queries exposes the availability engine's public entry point.
package queries

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/slotfair/slotfair/internal/availability/application/services"
	"github.com/slotfair/slotfair/internal/availability/domain"
	"github.com/slotfair/slotfair/internal/availability/infrastructure/cache"
	"github.com/slotfair/slotfair/pkg/observability"
	"github.com/google/uuid"
)

// MaxDateRangeDays bounds a single availability query.
const MaxDateRangeDays = 90

// CalculateAvailableSlotsQuery carries the parameters of one availability
// request.
type CalculateAvailableSlotsQuery struct {
	OrganizerID      uuid.UUID
	EventTypeSlug    string
	StartDate        time.Time
	EndDate          time.Time
	InviteeTimezone  string
	AttendeeCount    int
	InviteeTimezones []string
}

// PerformanceMetrics reports how much work a query did.
type PerformanceMetrics struct {
	Duration             float64 `json:"duration"` // seconds
	TotalSlotsCalculated int     `json:"total_slots_calculated"`
	DateRangeDays        int     `json:"date_range_days"`
}

// AvailabilityResult is the engine's response record.
type AvailabilityResult struct {
	Slots              []domain.Slot      `json:"slots"`
	Warnings           []string           `json:"warnings"`
	PerformanceMetrics PerformanceMetrics `json:"performance_metrics"`
}

// CalculateAvailableSlotsHandler drives the per-day availability pipeline:
// rule resolution, slot enumeration, block filtering, booking conflict
// filtering, and timezone enrichment. Results are cached read-through under
// the canonical key; every cache failure is swallowed.
type CalculateAvailableSlotsHandler struct {
	eventTypes  domain.EventTypeReader
	profiles    domain.OrganizerProfileReader
	buffers     domain.BufferSettingsRepository
	resolver    *services.RuleResolver
	enumerator  *services.SlotEnumerator
	blockFilter *services.BlockFilter
	conflicts   *services.ConflictChecker
	intersector *services.InviteeIntersector
	store       cache.Store
	keys        *cache.KeyBuilder
	resultTTL   time.Duration
	logger      *slog.Logger
}

// CalculateAvailableSlotsConfig holds the handler's dependencies. Store may
// be nil to disable result caching.
type CalculateAvailableSlotsConfig struct {
	EventTypes  domain.EventTypeReader
	Profiles    domain.OrganizerProfileReader
	Buffers     domain.BufferSettingsRepository
	Resolver    *services.RuleResolver
	Enumerator  *services.SlotEnumerator
	BlockFilter *services.BlockFilter
	Conflicts   *services.ConflictChecker
	Intersector *services.InviteeIntersector
	Store       cache.Store
	Keys        *cache.KeyBuilder
	ResultTTL   time.Duration
	Logger      *slog.Logger
}

// NewCalculateAvailableSlotsHandler creates the orchestrator.
func NewCalculateAvailableSlotsHandler(cfg CalculateAvailableSlotsConfig) *CalculateAvailableSlotsHandler {
	if cfg.Logger == nil {
		cfg.Logger = slog.Default()
	}
	if cfg.ResultTTL <= 0 {
		cfg.ResultTTL = 5 * time.Minute
	}
	return &CalculateAvailableSlotsHandler{
		eventTypes:  cfg.EventTypes,
		profiles:    cfg.Profiles,
		buffers:     cfg.Buffers,
		resolver:    cfg.Resolver,
		enumerator:  cfg.Enumerator,
		blockFilter: cfg.BlockFilter,
		conflicts:   cfg.Conflicts,
		intersector: cfg.Intersector,
		store:       cfg.Store,
		keys:        cfg.Keys,
		resultTTL:   cfg.ResultTTL,
		logger:      cfg.Logger,
	}
}

// Handle executes the query. Input validation errors surface before any
// work; timezone problems inside the pipeline downgrade to warnings with a
// UTC fallback; required database reads fail the request; anything
// unexpected is converted into an empty result with a warning rather than
// escaping the orchestrator.
func (h *CalculateAvailableSlotsHandler) Handle(
	ctx context.Context,
	query CalculateAvailableSlotsQuery,
) (result *AvailabilityResult, err error) {
	if err := validateQuery(&query); err != nil {
		return nil, err
	}

	timer := observability.StartTimer("calculate_available_slots")

	// Warnings about the request itself (bad invitee timezones) are
	// re-derived on every call so cache hits still report them; warnings
	// produced by the computation travel with the slots they describe.
	requestWarnings := []string{}
	var calcWarnings []string

	defer func() {
		if r := recover(); r != nil {
			h.logger.Error("availability calculation panicked",
				"organizer_id", query.OrganizerID,
				"panic", r,
			)
			result = &AvailabilityResult{
				Slots:              []domain.Slot{},
				Warnings:           append(mergeWarnings(requestWarnings, calcWarnings), fmt.Sprintf("Calculation error: %v", r)),
				PerformanceMetrics: PerformanceMetrics{Duration: timer.Elapsed().Seconds()},
			}
			err = nil
		}
	}()

	if !domain.ValidateTimezone(query.InviteeTimezone) {
		requestWarnings = append(requestWarnings, fmt.Sprintf("Invalid invitee timezone: %s", query.InviteeTimezone))
		query.InviteeTimezone = "UTC"
	}

	validInviteeTZs := query.InviteeTimezones[:0:0]
	for _, tz := range query.InviteeTimezones {
		if domain.ValidateTimezone(tz) {
			validInviteeTZs = append(validInviteeTZs, tz)
		} else {
			requestWarnings = append(requestWarnings, fmt.Sprintf("Invalid timezone in list: %s", tz))
		}
	}

	eventType, err := h.eventTypes.FindBySlug(ctx, query.OrganizerID, query.EventTypeSlug)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return nil, err
		}
		return nil, fmt.Errorf("%w: %v", domain.ErrPersistence, err)
	}

	// Intersection output depends on the timezone list, which the canonical
	// key does not encode, so multi-invitee requests bypass the cache.
	cacheable := len(validInviteeTZs) < 2
	cacheKey := ""
	if cacheable && h.store != nil && h.keys != nil {
		cacheKey = h.keys.AvailabilityKey(
			query.OrganizerID, eventType.ID,
			query.StartDate, query.EndDate,
			query.InviteeTimezone, query.AttendeeCount,
		)
		if cached := h.cachedResult(ctx, cacheKey); cached != nil {
			cached.Warnings = mergeWarnings(requestWarnings, cached.Warnings)
			return cached, nil
		}
	}

	organizerTZ, reasonableStart, reasonableEnd, tzWarnings := h.resolveOrganizerSettings(ctx, query.OrganizerID)
	calcWarnings = append(calcWarnings, tzWarnings...)

	settings, err := h.buffers.GetOrCreate(ctx, query.OrganizerID)
	if err != nil {
		return nil, fmt.Errorf("%w: loading buffer settings: %v", domain.ErrPersistence, err)
	}

	bufferBefore := settings.DefaultBufferBefore()
	if eventType.BufferBefore != nil {
		bufferBefore = *eventType.BufferBefore
	}
	bufferAfter := settings.DefaultBufferAfter()
	if eventType.BufferAfter != nil {
		bufferAfter = *eventType.BufferAfter
	}
	slotInterval := settings.SlotIntervalMinutes()
	if eventType.SlotIntervalMinutes != nil {
		slotInterval = *eventType.SlotIntervalMinutes
	}

	var slots []domain.Slot
	timedOut := false

	for date := domain.NormalizeDate(query.StartDate); !date.After(domain.NormalizeDate(query.EndDate)); date = date.AddDate(0, 0, 1) {
		if ctx.Err() != nil {
			calcWarnings = append(calcWarnings, "timeout: returning partial results")
			timedOut = true
			break
		}

		daily, err := h.calculateDailySlots(ctx, query, eventType, date, organizerTZ,
			bufferBefore, bufferAfter, settings.MinimumGap(), slotInterval)
		if err != nil {
			return nil, err
		}
		slots = append(slots, daily...)
	}

	if len(validInviteeTZs) >= 2 {
		slots = h.intersector.IntersectTimezones(slots, validInviteeTZs, reasonableStart, reasonableEnd)
	} else {
		slots = h.intersector.EnhanceWithDST(slots, query.InviteeTimezone)
	}

	if slots == nil {
		slots = []domain.Slot{}
	}

	result = &AvailabilityResult{
		Slots:    slots,
		Warnings: mergeWarnings(requestWarnings, calcWarnings),
		PerformanceMetrics: PerformanceMetrics{
			Duration:             timer.Stop().Seconds(),
			TotalSlotsCalculated: len(slots),
			DateRangeDays:        int(domain.NormalizeDate(query.EndDate).Sub(domain.NormalizeDate(query.StartDate)).Hours()/24) + 1,
		},
	}

	// Partial results are never cached; a Set happens once, after the full
	// computation, so no entry is ever half-written. Request-local warnings
	// stay out of the cached entry: they describe the caller, not the slots.
	if cacheable && !timedOut && cacheKey != "" {
		toCache := *result
		toCache.Warnings = calcWarnings
		h.storeResult(ctx, cacheKey, &toCache)
	}

	return result, nil
}

// mergeWarnings concatenates request-scoped and computation-scoped warnings
// into a fresh, never-nil slice.
func mergeWarnings(request, calc []string) []string {
	merged := make([]string, 0, len(request)+len(calc))
	merged = append(merged, request...)
	return append(merged, calc...)
}

func validateQuery(query *CalculateAvailableSlotsQuery) error {
	if query.EndDate.Before(query.StartDate) {
		return domain.ErrInvalidDateRange
	}
	days := int(domain.NormalizeDate(query.EndDate).Sub(domain.NormalizeDate(query.StartDate)).Hours() / 24)
	if days > MaxDateRangeDays {
		return domain.ErrDateRangeTooLong
	}
	if query.AttendeeCount < 1 {
		query.AttendeeCount = 1
	}
	if query.InviteeTimezone == "" {
		query.InviteeTimezone = "UTC"
	}
	return nil
}

// resolveOrganizerSettings loads the organizer's zone and reasonable-hours
// window, degrading to UTC and the 9..18 defaults on any failure.
func (h *CalculateAvailableSlotsHandler) resolveOrganizerSettings(
	ctx context.Context,
	organizerID uuid.UUID,
) (*time.Location, int, int, []string) {
	var warnings []string

	reasonableStart := domain.DefaultReasonableHoursStart
	reasonableEnd := domain.DefaultReasonableHoursEnd
	tz := "UTC"

	profile, err := h.profiles.Find(ctx, organizerID)
	switch {
	case err != nil:
		h.logger.Warn("failed to load organizer profile", "organizer_id", organizerID, "error", err)
		warnings = append(warnings, "Invalid organizer timezone, using UTC")
	case profile != nil:
		if domain.ValidateTimezone(profile.Timezone) {
			tz = profile.Timezone
		} else {
			warnings = append(warnings, "Invalid organizer timezone, using UTC")
		}
		if profile.ReasonableHoursStart != 0 || profile.ReasonableHoursEnd != 0 {
			reasonableStart = profile.ReasonableHoursStart
			reasonableEnd = profile.ReasonableHoursEnd
		}
	}

	loc, err := time.LoadLocation(tz)
	if err != nil {
		loc = time.UTC
	}

	return loc, reasonableStart, reasonableEnd, warnings
}

func (h *CalculateAvailableSlotsHandler) calculateDailySlots(
	ctx context.Context,
	query CalculateAvailableSlotsQuery,
	eventType *domain.EventType,
	date time.Time,
	organizerTZ *time.Location,
	bufferBefore, bufferAfter, minimumGap, slotInterval int,
) ([]domain.Slot, error) {
	intervals, err := h.resolver.DailyAvailableIntervals(ctx, query.OrganizerID, eventType, date, organizerTZ)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrPersistence, err)
	}
	if len(intervals) == 0 {
		return nil, nil
	}

	candidates := h.enumerator.EnumerateAll(intervals, eventType.DurationMinutes, slotInterval)

	var accepted []domain.Slot
	for _, slot := range candidates {
		blocked, err := h.blockFilter.IsSlotBlocked(ctx, query.OrganizerID, eventType, slot, date, organizerTZ)
		if err != nil {
			return nil, fmt.Errorf("%w: %v", domain.ErrPersistence, err)
		}
		if blocked {
			continue
		}

		conflicting, err := h.conflicts.IsSlotConflicting(ctx, query.OrganizerID, eventType, slot,
			query.AttendeeCount, bufferBefore, bufferAfter, minimumGap)
		if err != nil {
			return nil, fmt.Errorf("%w: %v", domain.ErrPersistence, err)
		}
		if conflicting {
			continue
		}

		accepted = append(accepted, slot)
	}

	return accepted, nil
}

func (h *CalculateAvailableSlotsHandler) cachedResult(ctx context.Context, key string) *AvailabilityResult {
	raw, err := h.store.Get(ctx, key)
	if err != nil {
		if !errors.Is(err, cache.ErrCacheMiss) {
			h.logger.Warn("cache read failed", "key", key, "error", err)
		}
		return nil
	}

	var result AvailabilityResult
	if err := json.Unmarshal(raw, &result); err != nil {
		h.logger.Warn("discarding corrupt cached result", "key", key, "error", err)
		return nil
	}
	return &result
}

func (h *CalculateAvailableSlotsHandler) storeResult(ctx context.Context, key string, result *AvailabilityResult) {
	raw, err := json.Marshal(result)
	if err != nil {
		h.logger.Warn("failed to encode result for caching", "key", key, "error", err)
		return
	}
	if err := h.store.Set(ctx, key, raw, h.resultTTL); err != nil {
		h.logger.Warn("cache write failed", "key", key, "error", err)
	}
}
