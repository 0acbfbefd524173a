package queries

import (
	"context"
	"testing"
	"time"

	"github.com/slotfair/slotfair/internal/availability/application/services"
	"github.com/slotfair/slotfair/internal/availability/domain"
	"github.com/slotfair/slotfair/internal/availability/infrastructure/cache"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

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

type mockOverrideRepo struct{ mock.Mock }

func (m *mockOverrideRepo) FindActiveByOrganizerAndDate(ctx context.Context, organizerID uuid.UUID, date time.Time) ([]*domain.DateOverrideRule, error) {
	args := m.Called(ctx, organizerID, date)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*domain.DateOverrideRule), args.Error(1)
}

func (m *mockOverrideRepo) Save(ctx context.Context, override *domain.DateOverrideRule) error {
	return m.Called(ctx, override).Error(0)
}

type mockBlockedTimeRepo struct{ mock.Mock }

func (m *mockBlockedTimeRepo) FindActiveOverlapping(ctx context.Context, organizerID uuid.UUID, start, end time.Time) ([]*domain.BlockedTime, error) {
	args := m.Called(ctx, organizerID, start, end)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*domain.BlockedTime), args.Error(1)
}

func (m *mockBlockedTimeRepo) Save(ctx context.Context, block *domain.BlockedTime) error {
	return m.Called(ctx, block).Error(0)
}

type mockRecurringBlockRepo struct{ mock.Mock }

func (m *mockRecurringBlockRepo) FindActiveByOrganizerAndDay(ctx context.Context, organizerID uuid.UUID, dayOfWeek int) ([]*domain.RecurringBlockedTime, error) {
	args := m.Called(ctx, organizerID, dayOfWeek)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*domain.RecurringBlockedTime), args.Error(1)
}

func (m *mockRecurringBlockRepo) Save(ctx context.Context, block *domain.RecurringBlockedTime) error {
	return m.Called(ctx, block).Error(0)
}

type mockBufferRepo struct{ mock.Mock }

func (m *mockBufferRepo) GetOrCreate(ctx context.Context, organizerID uuid.UUID) (*domain.BufferSettings, error) {
	args := m.Called(ctx, organizerID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.BufferSettings), args.Error(1)
}

func (m *mockBufferRepo) Save(ctx context.Context, settings *domain.BufferSettings) error {
	return m.Called(ctx, settings).Error(0)
}

type mockBookingReader struct{ mock.Mock }

func (m *mockBookingReader) FindConfirmedOverlapping(ctx context.Context, organizerID uuid.UUID, start, end time.Time) ([]domain.Booking, error) {
	args := m.Called(ctx, organizerID, start, end)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.Booking), args.Error(1)
}

func (m *mockBookingReader) FindConfirmedForEventTypeOverlapping(ctx context.Context, organizerID, eventTypeID uuid.UUID, start, end time.Time) ([]domain.Booking, error) {
	args := m.Called(ctx, organizerID, eventTypeID, start, end)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.Booking), args.Error(1)
}

type mockEventTypeReader struct{ mock.Mock }

func (m *mockEventTypeReader) FindBySlug(ctx context.Context, organizerID uuid.UUID, slug string) (*domain.EventType, error) {
	args := m.Called(ctx, organizerID, slug)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.EventType), args.Error(1)
}

type mockProfileReader struct{ mock.Mock }

func (m *mockProfileReader) Find(ctx context.Context, organizerID uuid.UUID) (*domain.OrganizerProfile, error) {
	args := m.Called(ctx, organizerID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.OrganizerProfile), args.Error(1)
}

// handlerFixture wires real pipeline services over mocked persistence.
type handlerFixture struct {
	organizerID uuid.UUID
	eventType   *domain.EventType

	eventTypes *mockEventTypeReader
	profiles   *mockProfileReader
	buffers    *mockBufferRepo
	rules      *mockRuleRepo
	overrides  *mockOverrideRepo
	blocks     *mockBlockedTimeRepo
	recurring  *mockRecurringBlockRepo
	bookings   *mockBookingReader

	store   *cache.MemoryStore
	keys    *cache.KeyBuilder
	handler *CalculateAvailableSlotsHandler
}

func newHandlerFixture() *handlerFixture {
	f := &handlerFixture{
		organizerID: uuid.New(),
		eventTypes:  new(mockEventTypeReader),
		profiles:    new(mockProfileReader),
		buffers:     new(mockBufferRepo),
		rules:       new(mockRuleRepo),
		overrides:   new(mockOverrideRepo),
		blocks:      new(mockBlockedTimeRepo),
		recurring:   new(mockRecurringBlockRepo),
		bookings:    new(mockBookingReader),
		store:       cache.NewMemoryStore(),
		keys:        cache.NewKeyBuilder(nil, nil),
	}
	f.eventType = &domain.EventType{
		ID:              uuid.New(),
		OrganizerID:     f.organizerID,
		Slug:            "intro-call",
		DurationMinutes: 30,
		MaxAttendees:    1,
	}
	f.handler = NewCalculateAvailableSlotsHandler(CalculateAvailableSlotsConfig{
		EventTypes:  f.eventTypes,
		Profiles:    f.profiles,
		Buffers:     f.buffers,
		Resolver:    services.NewRuleResolver(f.rules, f.overrides),
		Enumerator:  services.NewSlotEnumerator(),
		BlockFilter: services.NewBlockFilter(f.blocks, f.recurring, f.overrides),
		Conflicts:   services.NewConflictChecker(f.bookings),
		Intersector: services.NewInviteeIntersector(nil),
		Store:       f.store,
		Keys:        f.keys,
	})
	return f
}

// expectOpenDay arranges one weekly 09:00-10:00 rule and no blocks,
// overrides, or bookings for the fixture's organizer.
func (f *handlerFixture) expectOpenDay(t *testing.T) {
	t.Helper()
	rule, err := domain.NewAvailabilityRule(f.organizerID, 0,
		domain.MustTimeOfDay(9, 0), domain.MustTimeOfDay(10, 0), nil)
	require.NoError(t, err)

	f.eventTypes.On("FindBySlug", mock.Anything, f.organizerID, "intro-call").Return(f.eventType, nil)
	f.profiles.On("Find", mock.Anything, f.organizerID).Return(nil, nil)
	f.buffers.On("GetOrCreate", mock.Anything, f.organizerID).Return(
		domain.DefaultBufferSettings(f.organizerID), nil)
	f.rules.On("FindActiveByOrganizerAndDay", mock.Anything, f.organizerID, 0).Return(
		[]*domain.AvailabilityRule{rule}, nil)
	f.overrides.On("FindActiveByOrganizerAndDate", mock.Anything, f.organizerID, mock.Anything).Return(
		[]*domain.DateOverrideRule{}, nil)
	f.blocks.On("FindActiveOverlapping", mock.Anything, f.organizerID, mock.Anything, mock.Anything).Return(
		[]*domain.BlockedTime{}, nil)
	f.recurring.On("FindActiveByOrganizerAndDay", mock.Anything, f.organizerID, 0).Return(
		[]*domain.RecurringBlockedTime{}, nil)
	f.bookings.On("FindConfirmedOverlapping", mock.Anything, f.organizerID, mock.Anything, mock.Anything).Return(
		[]domain.Booking{}, nil)
}

var queryMonday = time.Date(2025, 6, 2, 0, 0, 0, 0, time.UTC)

func (f *handlerFixture) query() CalculateAvailableSlotsQuery {
	return CalculateAvailableSlotsQuery{
		OrganizerID:     f.organizerID,
		EventTypeSlug:   "intro-call",
		StartDate:       queryMonday,
		EndDate:         queryMonday,
		InviteeTimezone: "UTC",
		AttendeeCount:   1,
	}
}

func TestCalculateAvailableSlotsValidation(t *testing.T) {
	f := newHandlerFixture()

	t.Run("inverted date range", func(t *testing.T) {
		query := f.query()
		query.EndDate = query.StartDate.AddDate(0, 0, -1)
		_, err := f.handler.Handle(context.Background(), query)
		assert.ErrorIs(t, err, domain.ErrInvalidDateRange)
	})

	t.Run("range beyond the cap", func(t *testing.T) {
		query := f.query()
		query.EndDate = query.StartDate.AddDate(0, 0, MaxDateRangeDays+1)
		_, err := f.handler.Handle(context.Background(), query)
		assert.ErrorIs(t, err, domain.ErrDateRangeTooLong)
	})
}

func TestCalculateAvailableSlotsUnknownEventType(t *testing.T) {
	f := newHandlerFixture()
	f.eventTypes.On("FindBySlug", mock.Anything, f.organizerID, "intro-call").Return(nil, domain.ErrNotFound)

	_, err := f.handler.Handle(context.Background(), f.query())
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestCalculateAvailableSlotsBasicDay(t *testing.T) {
	f := newHandlerFixture()
	f.expectOpenDay(t)

	result, err := f.handler.Handle(context.Background(), f.query())
	require.NoError(t, err)

	// A 09:00-10:00 window with 30-minute meetings on the default
	// 30-minute grid yields two slots.
	require.Len(t, result.Slots, 2)
	assert.Equal(t, queryMonday.Add(9*time.Hour), result.Slots[0].StartTime)
	assert.Equal(t, queryMonday.Add(9*time.Hour+30*time.Minute), result.Slots[1].StartTime)
	assert.Empty(t, result.Warnings)

	require.NotNil(t, result.Slots[0].IsDST)
	assert.False(t, *result.Slots[0].IsDST)

	assert.Equal(t, 1, result.PerformanceMetrics.DateRangeDays)
	assert.Equal(t, 2, result.PerformanceMetrics.TotalSlotsCalculated)
	assert.Greater(t, result.PerformanceMetrics.Duration, 0.0)
}

func TestCalculateAvailableSlotsInvalidTimezones(t *testing.T) {
	f := newHandlerFixture()
	f.expectOpenDay(t)

	query := f.query()
	query.InviteeTimezone = "Not/AZone"
	query.InviteeTimezones = []string{"Europe/Berlin", "Also/Bogus"}

	result, err := f.handler.Handle(context.Background(), query)
	require.NoError(t, err)

	assert.Contains(t, result.Warnings, "Invalid invitee timezone: Not/AZone")
	assert.Contains(t, result.Warnings, "Invalid timezone in list: Also/Bogus")
	require.Len(t, result.Slots, 2)
}

func TestCalculateAvailableSlotsCacheReadThrough(t *testing.T) {
	f := newHandlerFixture()
	f.expectOpenDay(t)

	first, err := f.handler.Handle(context.Background(), f.query())
	require.NoError(t, err)

	second, err := f.handler.Handle(context.Background(), f.query())
	require.NoError(t, err)

	require.Len(t, second.Slots, len(first.Slots))
	assert.True(t, second.Slots[0].StartTime.Equal(first.Slots[0].StartTime))

	// The second call was served from cache before the pipeline ran.
	f.rules.AssertNumberOfCalls(t, "FindActiveByOrganizerAndDay", 1)
	f.buffers.AssertNumberOfCalls(t, "GetOrCreate", 1)
}

func TestCalculateAvailableSlotsMultiInviteeBypassesCache(t *testing.T) {
	f := newHandlerFixture()
	f.expectOpenDay(t)

	query := f.query()
	query.InviteeTimezones = []string{"Europe/Berlin", "America/New_York"}

	first, err := f.handler.Handle(context.Background(), query)
	require.NoError(t, err)
	require.Len(t, first.Slots, 2)
	require.NotNil(t, first.Slots[0].FairnessScore)

	_, err = f.handler.Handle(context.Background(), query)
	require.NoError(t, err)

	// No cache hit: the pipeline ran twice.
	f.rules.AssertNumberOfCalls(t, "FindActiveByOrganizerAndDay", 2)
}

func TestCalculateAvailableSlotsDeadlinePartialResult(t *testing.T) {
	f := newHandlerFixture()
	f.expectOpenDay(t)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	query := f.query()
	result, err := f.handler.Handle(ctx, query)
	require.NoError(t, err)

	assert.Empty(t, result.Slots)
	assert.Contains(t, result.Warnings, "timeout: returning partial results")

	// Partial results never reach the cache.
	key := f.keys.AvailabilityKey(f.organizerID, f.eventType.ID,
		query.StartDate, query.EndDate, query.InviteeTimezone, query.AttendeeCount)
	_, cacheErr := f.store.Get(context.Background(), key)
	assert.ErrorIs(t, cacheErr, cache.ErrCacheMiss)
}

func TestCalculateAvailableSlotsRecoversFromPanic(t *testing.T) {
	f := newHandlerFixture()

	// Booking reader has no expectations, so the conflict check panics
	// mid-pipeline; the handler converts that into a warning result.
	rule, err := domain.NewAvailabilityRule(f.organizerID, 0,
		domain.MustTimeOfDay(9, 0), domain.MustTimeOfDay(10, 0), nil)
	require.NoError(t, err)

	f.eventTypes.On("FindBySlug", mock.Anything, f.organizerID, "intro-call").Return(f.eventType, nil)
	f.profiles.On("Find", mock.Anything, f.organizerID).Return(nil, nil)
	f.buffers.On("GetOrCreate", mock.Anything, f.organizerID).Return(
		domain.DefaultBufferSettings(f.organizerID), nil)
	f.rules.On("FindActiveByOrganizerAndDay", mock.Anything, f.organizerID, 0).Return(
		[]*domain.AvailabilityRule{rule}, nil)
	f.overrides.On("FindActiveByOrganizerAndDate", mock.Anything, f.organizerID, mock.Anything).Return(
		[]*domain.DateOverrideRule{}, nil)
	f.blocks.On("FindActiveOverlapping", mock.Anything, f.organizerID, mock.Anything, mock.Anything).Return(
		[]*domain.BlockedTime{}, nil)
	f.recurring.On("FindActiveByOrganizerAndDay", mock.Anything, f.organizerID, 0).Return(
		[]*domain.RecurringBlockedTime{}, nil)

	result, err := f.handler.Handle(context.Background(), f.query())
	require.NoError(t, err)
	assert.Empty(t, result.Slots)
	require.NotEmpty(t, result.Warnings)
	assert.Contains(t, result.Warnings[len(result.Warnings)-1], "Calculation error:")
}

func TestCalculateAvailableSlotsCacheHitWarnings(t *testing.T) {
	t.Run("hit re-derives the request warning", func(t *testing.T) {
		f := newHandlerFixture()
		f.expectOpenDay(t)

		first, err := f.handler.Handle(context.Background(), f.query())
		require.NoError(t, err)
		assert.Empty(t, first.Warnings)

		// An invalid invitee timezone falls back to UTC and derives the
		// same key; the served hit must still carry the warning.
		flawed := f.query()
		flawed.InviteeTimezone = "Not/AZone"
		second, err := f.handler.Handle(context.Background(), flawed)
		require.NoError(t, err)
		assert.Contains(t, second.Warnings, "Invalid invitee timezone: Not/AZone")
		require.Len(t, second.Slots, 2)
		f.rules.AssertNumberOfCalls(t, "FindActiveByOrganizerAndDay", 1)
	})

	t.Run("cached entry does not leak another request's warning", func(t *testing.T) {
		f := newHandlerFixture()
		f.expectOpenDay(t)

		flawed := f.query()
		flawed.InviteeTimezone = "Not/AZone"
		first, err := f.handler.Handle(context.Background(), flawed)
		require.NoError(t, err)
		assert.Contains(t, first.Warnings, "Invalid invitee timezone: Not/AZone")

		second, err := f.handler.Handle(context.Background(), f.query())
		require.NoError(t, err)
		assert.Empty(t, second.Warnings)
		f.rules.AssertNumberOfCalls(t, "FindActiveByOrganizerAndDay", 1)
	})
}

func TestCalculateAvailableSlotsOrganizerTimezone(t *testing.T) {
	f := newHandlerFixture()

	rule, err := domain.NewAvailabilityRule(f.organizerID, 0,
		domain.MustTimeOfDay(9, 0), domain.MustTimeOfDay(10, 0), nil)
	require.NoError(t, err)

	f.eventTypes.On("FindBySlug", mock.Anything, f.organizerID, "intro-call").Return(f.eventType, nil)
	f.profiles.On("Find", mock.Anything, f.organizerID).Return(
		&domain.OrganizerProfile{OrganizerID: f.organizerID, Timezone: "America/New_York"}, nil)
	f.buffers.On("GetOrCreate", mock.Anything, f.organizerID).Return(
		domain.DefaultBufferSettings(f.organizerID), nil)
	f.rules.On("FindActiveByOrganizerAndDay", mock.Anything, f.organizerID, 0).Return(
		[]*domain.AvailabilityRule{rule}, nil)
	f.overrides.On("FindActiveByOrganizerAndDate", mock.Anything, f.organizerID, mock.Anything).Return(
		[]*domain.DateOverrideRule{}, nil)
	f.blocks.On("FindActiveOverlapping", mock.Anything, f.organizerID, mock.Anything, mock.Anything).Return(
		[]*domain.BlockedTime{}, nil)
	f.recurring.On("FindActiveByOrganizerAndDay", mock.Anything, f.organizerID, 0).Return(
		[]*domain.RecurringBlockedTime{}, nil)
	f.bookings.On("FindConfirmedOverlapping", mock.Anything, f.organizerID, mock.Anything, mock.Anything).Return(
		[]domain.Booking{}, nil)

	winterMonday := time.Date(2025, 1, 6, 0, 0, 0, 0, time.UTC)
	query := f.query()
	query.StartDate = winterMonday
	query.EndDate = winterMonday

	result, err := f.handler.Handle(context.Background(), query)
	require.NoError(t, err)

	// 09:00 Eastern is 14:00 UTC in January.
	require.Len(t, result.Slots, 2)
	assert.Equal(t, winterMonday.Add(14*time.Hour), result.Slots[0].StartTime)
	assert.Equal(t, winterMonday.Add(14*time.Hour+30*time.Minute), result.Slots[1].StartTime)
	assert.Empty(t, result.Warnings)
}
