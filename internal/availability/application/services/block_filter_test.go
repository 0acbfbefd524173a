package services

import (
	"context"
	"testing"
	"time"

	"github.com/slotfair/slotfair/internal/availability/domain"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

func slotAt(hour, minute, durationMinutes int) domain.Slot {
	start := time.Date(2025, 6, 2, hour, minute, 0, 0, time.UTC)
	return domain.Slot{
		StartTime:       start,
		EndTime:         start.Add(time.Duration(durationMinutes) * time.Minute),
		DurationMinutes: durationMinutes,
	}
}

func newBlockFilterMocks() (*mockBlockedTimeRepo, *mockRecurringBlockRepo, *mockOverrideRepo, *BlockFilter) {
	blocks := new(mockBlockedTimeRepo)
	recurring := new(mockRecurringBlockRepo)
	overrides := new(mockOverrideRepo)
	return blocks, recurring, overrides, NewBlockFilter(blocks, recurring, overrides)
}

func TestBlockFilterOneTimeBlocks(t *testing.T) {
	organizerID := uuid.New()
	eventType := &domain.EventType{ID: uuid.New()}
	slot := slotAt(10, 0, 30)

	t.Run("overlapping block rejects the slot", func(t *testing.T) {
		blocks, _, _, filter := newBlockFilterMocks()

		block, err := domain.NewManualBlockedTime(organizerID,
			slot.StartTime.Add(15*time.Minute), slot.StartTime.Add(45*time.Minute), "")
		require.NoError(t, err)
		blocks.On("FindActiveOverlapping", mock.Anything, organizerID, slot.StartTime, slot.EndTime).Return(
			[]*domain.BlockedTime{block}, nil)

		blocked, err := filter.IsSlotBlocked(context.Background(), organizerID, eventType, slot, monday, time.UTC)
		require.NoError(t, err)
		assert.True(t, blocked)
	})

	t.Run("no blocks passes through", func(t *testing.T) {
		blocks, recurring, overrides, filter := newBlockFilterMocks()

		blocks.On("FindActiveOverlapping", mock.Anything, organizerID, slot.StartTime, slot.EndTime).Return(
			[]*domain.BlockedTime{}, nil)
		recurring.On("FindActiveByOrganizerAndDay", mock.Anything, organizerID, 0).Return(
			[]*domain.RecurringBlockedTime{}, nil)
		overrides.On("FindActiveByOrganizerAndDate", mock.Anything, organizerID, monday).Return(
			[]*domain.DateOverrideRule{}, nil)

		blocked, err := filter.IsSlotBlocked(context.Background(), organizerID, eventType, slot, monday, time.UTC)
		require.NoError(t, err)
		assert.False(t, blocked)
	})
}

func TestBlockFilterRecurringBlocks(t *testing.T) {
	organizerID := uuid.New()
	eventType := &domain.EventType{ID: uuid.New()}

	lunch, err := domain.NewRecurringBlockedTime(organizerID, "lunch", 0,
		domain.MustTimeOfDay(12, 0), domain.MustTimeOfDay(13, 0), nil, nil)
	require.NoError(t, err)

	setup := func() (*mockRecurringBlockRepo, *BlockFilter, *mockOverrideRepo) {
		blocks, recurring, overrides, filter := newBlockFilterMocks()
		blocks.On("FindActiveOverlapping", mock.Anything, organizerID, mock.Anything, mock.Anything).Return(
			[]*domain.BlockedTime{}, nil)
		return recurring, filter, overrides
	}

	t.Run("slot inside the recurring window is blocked", func(t *testing.T) {
		recurring, filter, _ := setup()
		recurring.On("FindActiveByOrganizerAndDay", mock.Anything, organizerID, 0).Return(
			[]*domain.RecurringBlockedTime{lunch}, nil)

		blocked, err := filter.IsSlotBlocked(context.Background(), organizerID, eventType, slotAt(12, 30, 30), monday, time.UTC)
		require.NoError(t, err)
		assert.True(t, blocked)
	})

	t.Run("slot outside the window passes", func(t *testing.T) {
		recurring, filter, overrides := setup()
		recurring.On("FindActiveByOrganizerAndDay", mock.Anything, organizerID, 0).Return(
			[]*domain.RecurringBlockedTime{lunch}, nil)
		overrides.On("FindActiveByOrganizerAndDate", mock.Anything, organizerID, monday).Return(
			[]*domain.DateOverrideRule{}, nil)

		blocked, err := filter.IsSlotBlocked(context.Background(), organizerID, eventType, slotAt(14, 0, 30), monday, time.UTC)
		require.NoError(t, err)
		assert.False(t, blocked)
	})

	t.Run("block outside its date bounds is inert", func(t *testing.T) {
		expired := monday.AddDate(0, -2, 0)
		bounded, err := domain.NewRecurringBlockedTime(organizerID, "old", 0,
			domain.MustTimeOfDay(12, 0), domain.MustTimeOfDay(13, 0), nil, &expired)
		require.NoError(t, err)

		recurring, filter, overrides := setup()
		recurring.On("FindActiveByOrganizerAndDay", mock.Anything, organizerID, 0).Return(
			[]*domain.RecurringBlockedTime{bounded}, nil)
		overrides.On("FindActiveByOrganizerAndDate", mock.Anything, organizerID, monday).Return(
			[]*domain.DateOverrideRule{}, nil)

		blocked, err := filter.IsSlotBlocked(context.Background(), organizerID, eventType, slotAt(12, 30, 30), monday, time.UTC)
		require.NoError(t, err)
		assert.False(t, blocked)
	})

	t.Run("window composes in the organizer zone", func(t *testing.T) {
		berlin, err := time.LoadLocation("Europe/Berlin")
		require.NoError(t, err)

		recurring, filter, overrides := setup()
		recurring.On("FindActiveByOrganizerAndDay", mock.Anything, organizerID, 0).Return(
			[]*domain.RecurringBlockedTime{lunch}, nil)
		overrides.On("FindActiveByOrganizerAndDate", mock.Anything, organizerID, monday).Return(
			[]*domain.DateOverrideRule{}, nil)

		// 12:30 Berlin is 10:30 UTC in June; the UTC slot at 10:30 collides.
		blocked, err := filter.IsSlotBlocked(context.Background(), organizerID, eventType, slotAt(10, 30, 30), monday, berlin)
		require.NoError(t, err)
		assert.True(t, blocked)

		// A 12:30 UTC slot is 14:30 in Berlin, past the lunch window.
		blocked, err = filter.IsSlotBlocked(context.Background(), organizerID, eventType, slotAt(12, 30, 30), monday, berlin)
		require.NoError(t, err)
		assert.False(t, blocked)
	})
}

func TestBlockFilterOverrides(t *testing.T) {
	organizerID := uuid.New()
	eventType := &domain.EventType{ID: uuid.New()}

	setup := func(override *domain.DateOverrideRule) *BlockFilter {
		blocks, recurring, overrides, filter := newBlockFilterMocks()
		blocks.On("FindActiveOverlapping", mock.Anything, organizerID, mock.Anything, mock.Anything).Return(
			[]*domain.BlockedTime{}, nil)
		recurring.On("FindActiveByOrganizerAndDay", mock.Anything, organizerID, 0).Return(
			[]*domain.RecurringBlockedTime{}, nil)
		overrides.On("FindActiveByOrganizerAndDate", mock.Anything, organizerID, monday).Return(
			[]*domain.DateOverrideRule{override}, nil)
		return filter
	}

	t.Run("unavailable override blocks every slot", func(t *testing.T) {
		closed, err := domain.NewDateOverrideRule(organizerID, monday, false,
			domain.TimeOfDay{}, domain.TimeOfDay{}, nil, "")
		require.NoError(t, err)

		blocked, err := setup(closed).IsSlotBlocked(context.Background(), organizerID, eventType, slotAt(10, 0, 30), monday, time.UTC)
		require.NoError(t, err)
		assert.True(t, blocked)
	})

	t.Run("available override blocks slots escaping its window", func(t *testing.T) {
		open, err := domain.NewDateOverrideRule(organizerID, monday, true,
			domain.MustTimeOfDay(14, 0), domain.MustTimeOfDay(16, 0), nil, "")
		require.NoError(t, err)
		filter := setup(open)

		blocked, err := filter.IsSlotBlocked(context.Background(), organizerID, eventType, slotAt(14, 30, 30), monday, time.UTC)
		require.NoError(t, err)
		assert.False(t, blocked)

		blocked, err = filter.IsSlotBlocked(context.Background(), organizerID, eventType, slotAt(15, 45, 30), monday, time.UTC)
		require.NoError(t, err)
		assert.True(t, blocked)
	})
}
