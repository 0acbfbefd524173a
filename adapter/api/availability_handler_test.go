package api

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/slotfair/slotfair/internal/availability/application/commands"
	"github.com/slotfair/slotfair/internal/availability/application/queries"
	"github.com/slotfair/slotfair/internal/availability/domain"
	"github.com/slotfair/slotfair/internal/availability/infrastructure/cache"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

// stubCalculator records the query it received and returns a canned result.
type stubCalculator struct {
	lastQuery queries.CalculateAvailableSlotsQuery
	result    *queries.AvailabilityResult
	err       error
}

func (s *stubCalculator) Handle(ctx context.Context, query queries.CalculateAvailableSlotsQuery) (*queries.AvailabilityResult, error) {
	s.lastQuery = query
	if s.err != nil {
		return nil, s.err
	}
	return s.result, nil
}

type mockRuleRepo struct{ mock.Mock }

func (m *mockRuleRepo) FindActiveByOrganizerAndDay(ctx context.Context, organizerID uuid.UUID, dayOfWeek int) ([]*domain.AvailabilityRule, error) {
	args := m.Called(ctx, organizerID, dayOfWeek)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*domain.AvailabilityRule), args.Error(1)
}

func (m *mockRuleRepo) Save(ctx context.Context, rule *domain.AvailabilityRule) error {
	return m.Called(ctx, rule).Error(0)
}

func newTestServer(calc SlotCalculator, rules domain.AvailabilityRuleRepository) *Server {
	tracker := cache.NewDirtyTracker(cache.NewMemoryStore(), nil)
	handler := NewAvailabilityHandler(AvailabilityHandlerConfig{
		Calculator: calc,
		CreateRule: commands.NewCreateRuleHandler(rules, tracker, nil, nil),
	})
	return NewServer(DefaultServerConfig(), handler, nil)
}

func TestGetAvailability(t *testing.T) {
	organizerID := uuid.New()
	start := time.Date(2025, 6, 2, 9, 0, 0, 0, time.UTC)

	canned := &queries.AvailabilityResult{
		Slots: []domain.Slot{{
			StartTime:       start,
			EndTime:         start.Add(30 * time.Minute),
			DurationMinutes: 30,
		}},
		Warnings:           []string{},
		PerformanceMetrics: queries.PerformanceMetrics{DateRangeDays: 7, TotalSlotsCalculated: 1},
	}

	t.Run("returns slots", func(t *testing.T) {
		calc := &stubCalculator{result: canned}
		server := newTestServer(calc, new(mockRuleRepo))

		req := httptest.NewRequest(http.MethodGet,
			"/api/v1/organizers/"+organizerID.String()+"/event-types/intro-call/availability"+
				"?start_date=2025-06-02&end_date=2025-06-08&timezone=Europe/Berlin"+
				"&attendee_count=2&invitee_timezones=Europe/Berlin,America/New_York", nil)
		rec := httptest.NewRecorder()
		server.mux.ServeHTTP(rec, req)

		require.Equal(t, http.StatusOK, rec.Code)

		var body queries.AvailabilityResult
		require.NoError(t, json.NewDecoder(rec.Body).Decode(&body))
		require.Len(t, body.Slots, 1)
		assert.True(t, body.Slots[0].StartTime.Equal(start))

		assert.Equal(t, organizerID, calc.lastQuery.OrganizerID)
		assert.Equal(t, "intro-call", calc.lastQuery.EventTypeSlug)
		assert.Equal(t, "Europe/Berlin", calc.lastQuery.InviteeTimezone)
		assert.Equal(t, 2, calc.lastQuery.AttendeeCount)
		assert.Equal(t, []string{"Europe/Berlin", "America/New_York"}, calc.lastQuery.InviteeTimezones)
	})

	t.Run("invalid organizer id", func(t *testing.T) {
		server := newTestServer(&stubCalculator{result: canned}, new(mockRuleRepo))

		req := httptest.NewRequest(http.MethodGet,
			"/api/v1/organizers/not-a-uuid/event-types/intro-call/availability?start_date=2025-06-02&end_date=2025-06-08", nil)
		rec := httptest.NewRecorder()
		server.mux.ServeHTTP(rec, req)

		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})

	t.Run("malformed dates", func(t *testing.T) {
		server := newTestServer(&stubCalculator{result: canned}, new(mockRuleRepo))

		req := httptest.NewRequest(http.MethodGet,
			"/api/v1/organizers/"+organizerID.String()+"/event-types/intro-call/availability"+
				"?start_date=June-2&end_date=2025-06-08", nil)
		rec := httptest.NewRecorder()
		server.mux.ServeHTTP(rec, req)

		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})

	t.Run("unknown event type", func(t *testing.T) {
		server := newTestServer(&stubCalculator{err: domain.ErrNotFound}, new(mockRuleRepo))

		req := httptest.NewRequest(http.MethodGet,
			"/api/v1/organizers/"+organizerID.String()+"/event-types/nope/availability?start_date=2025-06-02&end_date=2025-06-08", nil)
		rec := httptest.NewRecorder()
		server.mux.ServeHTTP(rec, req)

		assert.Equal(t, http.StatusNotFound, rec.Code)
	})

	t.Run("date range errors map to 400", func(t *testing.T) {
		server := newTestServer(&stubCalculator{err: domain.ErrDateRangeTooLong}, new(mockRuleRepo))

		req := httptest.NewRequest(http.MethodGet,
			"/api/v1/organizers/"+organizerID.String()+"/event-types/intro-call/availability?start_date=2025-06-02&end_date=2025-06-08", nil)
		rec := httptest.NewRecorder()
		server.mux.ServeHTTP(rec, req)

		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})
}

func TestCreateRuleEndpoint(t *testing.T) {
	organizerID := uuid.New()
	body := `{"day_of_week": 0, "start_time": "09:00", "end_time": "12:00"}`

	t.Run("creates a rule", func(t *testing.T) {
		rules := new(mockRuleRepo)
		rules.On("FindActiveByOrganizerAndDay", mock.Anything, organizerID, 0).Return(
			[]*domain.AvailabilityRule{}, nil)
		rules.On("Save", mock.Anything, mock.Anything).Return(nil)

		server := newTestServer(&stubCalculator{}, rules)

		req := httptest.NewRequest(http.MethodPost,
			"/api/v1/organizers/"+organizerID.String()+"/availability-rules", strings.NewReader(body))
		rec := httptest.NewRecorder()
		server.mux.ServeHTTP(rec, req)

		require.Equal(t, http.StatusCreated, rec.Code)

		var resp map[string]string
		require.NoError(t, json.NewDecoder(rec.Body).Decode(&resp))
		_, err := uuid.Parse(resp["id"])
		assert.NoError(t, err)
	})

	t.Run("overlap maps to 409", func(t *testing.T) {
		existing, err := domain.NewAvailabilityRule(organizerID, 0,
			domain.MustTimeOfDay(10, 0), domain.MustTimeOfDay(14, 0), nil)
		require.NoError(t, err)

		rules := new(mockRuleRepo)
		rules.On("FindActiveByOrganizerAndDay", mock.Anything, organizerID, 0).Return(
			[]*domain.AvailabilityRule{existing}, nil)

		server := newTestServer(&stubCalculator{}, rules)

		req := httptest.NewRequest(http.MethodPost,
			"/api/v1/organizers/"+organizerID.String()+"/availability-rules", strings.NewReader(body))
		rec := httptest.NewRecorder()
		server.mux.ServeHTTP(rec, req)

		assert.Equal(t, http.StatusConflict, rec.Code)
	})

	t.Run("invalid body maps to 400", func(t *testing.T) {
		server := newTestServer(&stubCalculator{}, new(mockRuleRepo))

		req := httptest.NewRequest(http.MethodPost,
			"/api/v1/organizers/"+organizerID.String()+"/availability-rules", strings.NewReader("{"))
		rec := httptest.NewRecorder()
		server.mux.ServeHTTP(rec, req)

		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})
}

func TestHealthEndpoint(t *testing.T) {
	server := newTestServer(&stubCalculator{}, new(mockRuleRepo))

	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	rec := httptest.NewRecorder()
	server.mux.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)

	var body map[string]string
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&body))
	assert.Equal(t, "healthy", body["status"])
}
