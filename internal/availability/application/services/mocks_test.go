package services

import (
	"context"
	"time"

	"github.com/slotfair/slotfair/internal/availability/domain"
	"github.com/google/uuid"
	"github.com/stretchr/testify/mock"
)

// mockRuleRepo is a mock implementation of domain.AvailabilityRuleRepository.
type mockRuleRepo struct {
	mock.Mock
}

func (m *mockRuleRepo) FindActiveByOrganizerAndDay(ctx context.Context, organizerID uuid.UUID, dayOfWeek int) ([]*domain.AvailabilityRule, error) {
	args := m.Called(ctx, organizerID, dayOfWeek)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*domain.AvailabilityRule), args.Error(1)
}

func (m *mockRuleRepo) Save(ctx context.Context, rule *domain.AvailabilityRule) error {
	args := m.Called(ctx, rule)
	return args.Error(0)
}

// mockOverrideRepo is a mock implementation of domain.DateOverrideRepository.
type mockOverrideRepo struct {
	mock.Mock
}

func (m *mockOverrideRepo) FindActiveByOrganizerAndDate(ctx context.Context, organizerID uuid.UUID, date time.Time) ([]*domain.DateOverrideRule, error) {
	args := m.Called(ctx, organizerID, date)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*domain.DateOverrideRule), args.Error(1)
}

func (m *mockOverrideRepo) Save(ctx context.Context, override *domain.DateOverrideRule) error {
	args := m.Called(ctx, override)
	return args.Error(0)
}

// mockBlockedTimeRepo is a mock implementation of domain.BlockedTimeRepository.
type mockBlockedTimeRepo struct {
	mock.Mock
}

func (m *mockBlockedTimeRepo) FindActiveOverlapping(ctx context.Context, organizerID uuid.UUID, start, end time.Time) ([]*domain.BlockedTime, error) {
	args := m.Called(ctx, organizerID, start, end)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*domain.BlockedTime), args.Error(1)
}

func (m *mockBlockedTimeRepo) Save(ctx context.Context, block *domain.BlockedTime) error {
	args := m.Called(ctx, block)
	return args.Error(0)
}

// mockRecurringBlockRepo is a mock implementation of domain.RecurringBlockRepository.
type mockRecurringBlockRepo struct {
	mock.Mock
}

func (m *mockRecurringBlockRepo) FindActiveByOrganizerAndDay(ctx context.Context, organizerID uuid.UUID, dayOfWeek int) ([]*domain.RecurringBlockedTime, error) {
	args := m.Called(ctx, organizerID, dayOfWeek)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*domain.RecurringBlockedTime), args.Error(1)
}

func (m *mockRecurringBlockRepo) Save(ctx context.Context, block *domain.RecurringBlockedTime) error {
	args := m.Called(ctx, block)
	return args.Error(0)
}

// mockBookingReader is a mock implementation of domain.BookingReader.
type mockBookingReader struct {
	mock.Mock
}

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
