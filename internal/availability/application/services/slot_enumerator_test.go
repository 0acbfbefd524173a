package services

import (
	"testing"
	"time"

	"github.com/slotfair/slotfair/internal/availability/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSlotEnumeratorEnumerate(t *testing.T) {
	e := NewSlotEnumerator()
	start := time.Date(2025, 6, 2, 9, 0, 0, 0, time.UTC)

	t.Run("strides through the interval", func(t *testing.T) {
		slots := e.Enumerate(domain.Interval{Start: start, End: start.Add(2 * time.Hour)}, 30, 30)
		require.Len(t, slots, 4)
		assert.Equal(t, start, slots[0].StartTime)
		assert.Equal(t, start.Add(30*time.Minute), slots[0].EndTime)
		// Last slot still fits entirely inside the interval.
		assert.Equal(t, start.Add(90*time.Minute), slots[3].StartTime)
		assert.Equal(t, start.Add(2*time.Hour), slots[3].EndTime)
	})

	t.Run("duration longer than interval yields nothing", func(t *testing.T) {
		slots := e.Enumerate(domain.Interval{Start: start, End: start.Add(20 * time.Minute)}, 30, 30)
		assert.Empty(t, slots)
	})

	t.Run("stride shorter than duration overlaps slots", func(t *testing.T) {
		slots := e.Enumerate(domain.Interval{Start: start, End: start.Add(time.Hour)}, 45, 15)
		// 09:00 and 09:15 fit a 45-minute meeting before 10:00.
		require.Len(t, slots, 2)
		assert.Equal(t, start.Add(15*time.Minute), slots[1].StartTime)
	})

	t.Run("non-positive inputs yield nothing", func(t *testing.T) {
		interval := domain.Interval{Start: start, End: start.Add(time.Hour)}
		assert.Empty(t, e.Enumerate(interval, 0, 30))
		assert.Empty(t, e.Enumerate(interval, 30, 0))
	})

	t.Run("emits UTC regardless of interval zone", func(t *testing.T) {
		berlin, err := time.LoadLocation("Europe/Berlin")
		require.NoError(t, err)
		localStart := time.Date(2025, 6, 2, 9, 0, 0, 0, berlin)

		slots := e.Enumerate(domain.Interval{Start: localStart, End: localStart.Add(time.Hour)}, 60, 60)
		require.Len(t, slots, 1)
		assert.Equal(t, time.UTC, slots[0].StartTime.Location())
		assert.True(t, slots[0].StartTime.Equal(localStart))
	})
}

func TestSlotEnumeratorEnumerateAll(t *testing.T) {
	e := NewSlotEnumerator()
	start := time.Date(2025, 6, 2, 9, 0, 0, 0, time.UTC)

	slots := e.EnumerateAll([]domain.Interval{
		{Start: start, End: start.Add(time.Hour)},
		{Start: start.Add(4 * time.Hour), End: start.Add(5 * time.Hour)},
	}, 30, 30)

	require.Len(t, slots, 4)
	assert.Equal(t, start.Add(4*time.Hour), slots[2].StartTime)
}
