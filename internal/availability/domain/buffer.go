package domain

import (
	"errors"
	"time"

	sharedDomain "github.com/slotfair/slotfair/internal/shared/domain"
	"github.com/google/uuid"
)

var (
	// ErrNegativeBuffer indicates a negative buffer or gap value.
	ErrNegativeBuffer = errors.New("buffer and gap values must not be negative")
	// ErrSlotIntervalTooShort indicates a slot cadence below the minimum.
	ErrSlotIntervalTooShort = errors.New("slot interval must be at least 5 minutes")
)

// MinSlotIntervalMinutes is the shortest supported slot cadence.
const MinSlotIntervalMinutes = 5

// BufferSettings holds an organizer's global scheduling defaults: buffers
// around candidate slots, the minimum idle gap enforced around existing
// bookings, and the slot-start cadence. Exactly one row per organizer,
// lazily created with defaults.
type BufferSettings struct {
	sharedDomain.BaseEntity
	organizerID         uuid.UUID
	defaultBufferBefore int // minutes
	defaultBufferAfter  int // minutes
	minimumGap          int // minutes
	slotIntervalMinutes int
}

// DefaultBufferSettings creates the lazily-initialized defaults for an
// organizer: no buffers, no gap, 30-minute cadence.
func DefaultBufferSettings(organizerID uuid.UUID) *BufferSettings {
	return &BufferSettings{
		BaseEntity:          sharedDomain.NewBaseEntity(),
		organizerID:         organizerID,
		defaultBufferBefore: 0,
		defaultBufferAfter:  0,
		minimumGap:          0,
		slotIntervalMinutes: 30,
	}
}

func (s *BufferSettings) OrganizerID() uuid.UUID   { return s.organizerID }
func (s *BufferSettings) DefaultBufferBefore() int { return s.defaultBufferBefore }
func (s *BufferSettings) DefaultBufferAfter() int  { return s.defaultBufferAfter }
func (s *BufferSettings) MinimumGap() int          { return s.minimumGap }
func (s *BufferSettings) SlotIntervalMinutes() int { return s.slotIntervalMinutes }

// Update replaces all settings after validation.
func (s *BufferSettings) Update(bufferBefore, bufferAfter, minimumGap, slotInterval int) error {
	if bufferBefore < 0 || bufferAfter < 0 || minimumGap < 0 {
		return ErrNegativeBuffer
	}
	if slotInterval < MinSlotIntervalMinutes {
		return ErrSlotIntervalTooShort
	}

	s.defaultBufferBefore = bufferBefore
	s.defaultBufferAfter = bufferAfter
	s.minimumGap = minimumGap
	s.slotIntervalMinutes = slotInterval
	s.Touch()
	return nil
}

// RehydrateBufferSettings recreates buffer settings from persisted state.
func RehydrateBufferSettings(
	id uuid.UUID,
	organizerID uuid.UUID,
	bufferBefore, bufferAfter, minimumGap, slotInterval int,
	createdAt, updatedAt time.Time,
) *BufferSettings {
	return &BufferSettings{
		BaseEntity:          sharedDomain.RehydrateBaseEntity(id, createdAt, updatedAt),
		organizerID:         organizerID,
		defaultBufferBefore: bufferBefore,
		defaultBufferAfter:  bufferAfter,
		minimumGap:          minimumGap,
		slotIntervalMinutes: slotInterval,
	}
}
