package api

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/slotfair/slotfair/internal/availability/application/commands"
	"github.com/slotfair/slotfair/internal/availability/application/queries"
	"github.com/slotfair/slotfair/internal/availability/domain"
	"github.com/google/uuid"
)

const dateLayout = "2006-01-02"

// SlotCalculator computes availability for one request.
type SlotCalculator interface {
	Handle(ctx context.Context, query queries.CalculateAvailableSlotsQuery) (*queries.AvailabilityResult, error)
}

// AvailabilityHandler handles availability API requests.
type AvailabilityHandler struct {
	calculator           SlotCalculator
	createRule           *commands.CreateRuleHandler
	createOverride       *commands.CreateOverrideHandler
	createBlockedTime    *commands.CreateBlockedTimeHandler
	createRecurringBlock *commands.CreateRecurringBlockHandler
	updateBuffer         *commands.UpdateBufferSettingsHandler
	logger               *slog.Logger
}

// AvailabilityHandlerConfig holds dependencies for the availability handler.
type AvailabilityHandlerConfig struct {
	Calculator           SlotCalculator
	CreateRule           *commands.CreateRuleHandler
	CreateOverride       *commands.CreateOverrideHandler
	CreateBlockedTime    *commands.CreateBlockedTimeHandler
	CreateRecurringBlock *commands.CreateRecurringBlockHandler
	UpdateBuffer         *commands.UpdateBufferSettingsHandler
	Logger               *slog.Logger
}

// NewAvailabilityHandler creates a new availability handler.
func NewAvailabilityHandler(cfg AvailabilityHandlerConfig) *AvailabilityHandler {
	if cfg.Logger == nil {
		cfg.Logger = slog.Default()
	}
	return &AvailabilityHandler{
		calculator:           cfg.Calculator,
		createRule:           cfg.CreateRule,
		createOverride:       cfg.CreateOverride,
		createBlockedTime:    cfg.CreateBlockedTime,
		createRecurringBlock: cfg.CreateRecurringBlock,
		updateBuffer:         cfg.UpdateBuffer,
		logger:               cfg.Logger,
	}
}

// GetAvailability handles
// GET /api/v1/organizers/{organizerID}/event-types/{slug}/availability
func (h *AvailabilityHandler) GetAvailability(w http.ResponseWriter, r *http.Request) {
	organizerID, err := uuid.Parse(r.PathValue("organizerID"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid organizer ID")
		return
	}
	slug := r.PathValue("slug")

	startDate, err := time.Parse(dateLayout, r.URL.Query().Get("start_date"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "Query parameter 'start_date' must be YYYY-MM-DD")
		return
	}
	endDate, err := time.Parse(dateLayout, r.URL.Query().Get("end_date"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "Query parameter 'end_date' must be YYYY-MM-DD")
		return
	}

	query := queries.CalculateAvailableSlotsQuery{
		OrganizerID:     organizerID,
		EventTypeSlug:   slug,
		StartDate:       startDate,
		EndDate:         endDate,
		InviteeTimezone: r.URL.Query().Get("timezone"),
		AttendeeCount:   parseIntParam(r, "attendee_count", 1),
	}
	if tzs := r.URL.Query().Get("invitee_timezones"); tzs != "" {
		query.InviteeTimezones = strings.Split(tzs, ",")
	}

	result, err := h.calculator.Handle(r.Context(), query)
	if err != nil {
		h.writeDomainError(w, err, "failed to calculate availability")
		return
	}

	writeJSON(w, http.StatusOK, result)
}

type createRuleRequest struct {
	DayOfWeek    int      `json:"day_of_week"`
	StartTime    string   `json:"start_time"`
	EndTime      string   `json:"end_time"`
	EventTypeIDs []string `json:"event_type_ids"`
}

// CreateRule handles POST /api/v1/organizers/{organizerID}/availability-rules
func (h *AvailabilityHandler) CreateRule(w http.ResponseWriter, r *http.Request) {
	organizerID, err := uuid.Parse(r.PathValue("organizerID"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid organizer ID")
		return
	}

	var req createRuleRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	scope, err := parseScope(req.EventTypeIDs)
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid event type ID in scope")
		return
	}

	rule, err := h.createRule.Handle(r.Context(), commands.CreateRuleCommand{
		OrganizerID:  organizerID,
		DayOfWeek:    req.DayOfWeek,
		StartTime:    req.StartTime,
		EndTime:      req.EndTime,
		EventTypeIDs: scope,
	})
	if err != nil {
		h.writeDomainError(w, err, "failed to create availability rule")
		return
	}

	writeJSON(w, http.StatusCreated, map[string]string{"id": rule.ID().String()})
}

type createOverrideRequest struct {
	Date         string   `json:"date"`
	Available    bool     `json:"available"`
	StartTime    string   `json:"start_time,omitempty"`
	EndTime      string   `json:"end_time,omitempty"`
	EventTypeIDs []string `json:"event_type_ids,omitempty"`
	Reason       string   `json:"reason,omitempty"`
}

// CreateOverride handles POST /api/v1/organizers/{organizerID}/date-overrides
func (h *AvailabilityHandler) CreateOverride(w http.ResponseWriter, r *http.Request) {
	organizerID, err := uuid.Parse(r.PathValue("organizerID"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid organizer ID")
		return
	}

	var req createOverrideRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	date, err := time.Parse(dateLayout, req.Date)
	if err != nil {
		writeError(w, http.StatusBadRequest, "Field 'date' must be YYYY-MM-DD")
		return
	}
	scope, err := parseScope(req.EventTypeIDs)
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid event type ID in scope")
		return
	}

	override, err := h.createOverride.Handle(r.Context(), commands.CreateOverrideCommand{
		OrganizerID:  organizerID,
		Date:         date,
		Available:    req.Available,
		StartTime:    req.StartTime,
		EndTime:      req.EndTime,
		EventTypeIDs: scope,
		Reason:       req.Reason,
	})
	if err != nil {
		h.writeDomainError(w, err, "failed to create date override")
		return
	}

	writeJSON(w, http.StatusCreated, map[string]string{"id": override.ID().String()})
}

type createBlockedTimeRequest struct {
	StartTime string `json:"start_time"`
	EndTime   string `json:"end_time"`
	Reason    string `json:"reason,omitempty"`
	Source    string `json:"source,omitempty"`
}

// CreateBlockedTime handles POST /api/v1/organizers/{organizerID}/blocked-times
func (h *AvailabilityHandler) CreateBlockedTime(w http.ResponseWriter, r *http.Request) {
	organizerID, err := uuid.Parse(r.PathValue("organizerID"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid organizer ID")
		return
	}

	var req createBlockedTimeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	start, err := time.Parse(time.RFC3339, req.StartTime)
	if err != nil {
		writeError(w, http.StatusBadRequest, "Field 'start_time' must be RFC 3339")
		return
	}
	end, err := time.Parse(time.RFC3339, req.EndTime)
	if err != nil {
		writeError(w, http.StatusBadRequest, "Field 'end_time' must be RFC 3339")
		return
	}

	block, err := h.createBlockedTime.Handle(r.Context(), commands.CreateBlockedTimeCommand{
		OrganizerID: organizerID,
		StartTime:   start,
		EndTime:     end,
		Reason:      req.Reason,
		Source:      req.Source,
	})
	if err != nil {
		h.writeDomainError(w, err, "failed to create blocked time")
		return
	}

	writeJSON(w, http.StatusCreated, map[string]string{"id": block.ID().String()})
}

type createRecurringBlockRequest struct {
	Name      string `json:"name,omitempty"`
	DayOfWeek int    `json:"day_of_week"`
	StartTime string `json:"start_time"`
	EndTime   string `json:"end_time"`
	StartDate string `json:"start_date,omitempty"`
	EndDate   string `json:"end_date,omitempty"`
}

// CreateRecurringBlock handles
// POST /api/v1/organizers/{organizerID}/recurring-blocks
func (h *AvailabilityHandler) CreateRecurringBlock(w http.ResponseWriter, r *http.Request) {
	organizerID, err := uuid.Parse(r.PathValue("organizerID"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid organizer ID")
		return
	}

	var req createRecurringBlockRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	startDate, err := parseOptionalDate(req.StartDate)
	if err != nil {
		writeError(w, http.StatusBadRequest, "Field 'start_date' must be YYYY-MM-DD")
		return
	}
	endDate, err := parseOptionalDate(req.EndDate)
	if err != nil {
		writeError(w, http.StatusBadRequest, "Field 'end_date' must be YYYY-MM-DD")
		return
	}

	block, err := h.createRecurringBlock.Handle(r.Context(), commands.CreateRecurringBlockCommand{
		OrganizerID: organizerID,
		Name:        req.Name,
		DayOfWeek:   req.DayOfWeek,
		StartTime:   req.StartTime,
		EndTime:     req.EndTime,
		StartDate:   startDate,
		EndDate:     endDate,
	})
	if err != nil {
		h.writeDomainError(w, err, "failed to create recurring block")
		return
	}

	writeJSON(w, http.StatusCreated, map[string]string{"id": block.ID().String()})
}

type updateBufferRequest struct {
	DefaultBufferBefore int `json:"default_buffer_before"`
	DefaultBufferAfter  int `json:"default_buffer_after"`
	MinimumGap          int `json:"minimum_gap"`
	SlotIntervalMinutes int `json:"slot_interval_minutes"`
}

// UpdateBufferSettings handles
// PUT /api/v1/organizers/{organizerID}/buffer-settings
func (h *AvailabilityHandler) UpdateBufferSettings(w http.ResponseWriter, r *http.Request) {
	organizerID, err := uuid.Parse(r.PathValue("organizerID"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid organizer ID")
		return
	}

	var req updateBufferRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	settings, err := h.updateBuffer.Handle(r.Context(), commands.UpdateBufferSettingsCommand{
		OrganizerID:         organizerID,
		DefaultBufferBefore: req.DefaultBufferBefore,
		DefaultBufferAfter:  req.DefaultBufferAfter,
		MinimumGap:          req.MinimumGap,
		SlotIntervalMinutes: req.SlotIntervalMinutes,
	})
	if err != nil {
		h.writeDomainError(w, err, "failed to update buffer settings")
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"default_buffer_before": settings.DefaultBufferBefore(),
		"default_buffer_after":  settings.DefaultBufferAfter(),
		"minimum_gap":           settings.MinimumGap(),
		"slot_interval_minutes": settings.SlotIntervalMinutes(),
	})
}

// writeDomainError maps domain errors onto HTTP statuses.
func (h *AvailabilityHandler) writeDomainError(w http.ResponseWriter, err error, logMsg string) {
	switch {
	case errors.Is(err, domain.ErrNotFound):
		writeError(w, http.StatusNotFound, err.Error())
	case errors.Is(err, domain.ErrRuleOverlap),
		errors.Is(err, domain.ErrRecurringBlockOverlap):
		writeError(w, http.StatusConflict, err.Error())
	case errors.Is(err, domain.ErrPersistence):
		h.logger.Error(logMsg, "error", err)
		writeError(w, http.StatusInternalServerError, "Internal server error")
	case errors.Is(err, domain.ErrInvalidDateRange),
		errors.Is(err, domain.ErrDateRangeTooLong),
		errors.Is(err, domain.ErrEqualTimes),
		errors.Is(err, domain.ErrOverrideTimesRequired),
		errors.Is(err, domain.ErrInvalidBlockRange),
		errors.Is(err, domain.ErrReservedBlockSource),
		errors.Is(err, domain.ErrInvalidDayOfWeek),
		errors.Is(err, domain.ErrNegativeBuffer),
		errors.Is(err, domain.ErrSlotIntervalTooShort),
		errors.Is(err, domain.ErrInvalidTimezone):
		writeError(w, http.StatusBadRequest, err.Error())
	default:
		// Command Validate() failures and time parse errors land here.
		writeError(w, http.StatusBadRequest, err.Error())
	}
}

func parseIntParam(r *http.Request, name string, fallback int) int {
	raw := r.URL.Query().Get(name)
	if raw == "" {
		return fallback
	}
	v, err := strconv.Atoi(raw)
	if err != nil {
		return fallback
	}
	return v
}

func parseScope(ids []string) ([]uuid.UUID, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	scope := make([]uuid.UUID, 0, len(ids))
	for _, raw := range ids {
		id, err := uuid.Parse(raw)
		if err != nil {
			return nil, err
		}
		scope = append(scope, id)
	}
	return scope, nil
}

func parseOptionalDate(s string) (*time.Time, error) {
	if s == "" {
		return nil, nil
	}
	t, err := time.Parse(dateLayout, s)
	if err != nil {
		return nil, err
	}
	return &t, nil
}
