package services

import (
	"log/slog"
	"sort"
	"time"

	"github.com/slotfair/slotfair/internal/availability/domain"
)

// InviteeIntersector projects UTC slots into each invitee's timezone,
// scores them for fairness, and annotates single-zone results with DST
// information.
type InviteeIntersector struct {
	logger *slog.Logger
}

// NewInviteeIntersector creates an intersector.
func NewInviteeIntersector(logger *slog.Logger) *InviteeIntersector {
	if logger == nil {
		logger = slog.Default()
	}
	return &InviteeIntersector{logger: logger}
}

// IntersectTimezones renders each slot in every invitee zone, marks which
// local start hours fall inside [reasonableStart, reasonableEnd], and sorts
// by the fraction of zones satisfied, best first. Ties keep chronological
// order. A zone that fails to resolve is dropped from that slot's map; the
// slot itself survives.
func (ii *InviteeIntersector) IntersectTimezones(
	slots []domain.Slot,
	inviteeTimezones []string,
	reasonableStart, reasonableEnd int,
) []domain.Slot {
	if len(inviteeTimezones) == 0 {
		return slots
	}

	enhanced := make([]domain.Slot, 0, len(slots))
	for _, slot := range slots {
		inviteeTimes := make(map[string]domain.InviteeTime, len(inviteeTimezones))
		reasonableCount := 0

		for _, tz := range inviteeTimezones {
			loc, err := time.LoadLocation(tz)
			if err != nil {
				ii.logger.Warn("skipping unresolvable invitee timezone",
					"timezone", tz,
					"error", err,
				)
				continue
			}

			localStart := slot.StartTime.In(loc)
			localEnd := slot.EndTime.In(loc)
			reasonable := localStart.Hour() >= reasonableStart && localStart.Hour() <= reasonableEnd

			inviteeTimes[tz] = domain.InviteeTime{
				StartTime:    localStart,
				EndTime:      localEnd,
				StartHour:    localStart.Hour(),
				EndHour:      localEnd.Hour(),
				IsReasonable: reasonable,
			}
			if reasonable {
				reasonableCount++
			}
		}

		fairness := float64(reasonableCount) / float64(len(inviteeTimezones))
		slot.InviteeTimes = inviteeTimes
		slot.FairnessScore = &fairness
		enhanced = append(enhanced, slot)
	}

	sort.SliceStable(enhanced, func(a, b int) bool {
		return *enhanced[a].FairnessScore > *enhanced[b].FairnessScore
	})

	return enhanced
}

// EnhanceWithDST attaches local start/end times and a DST flag for a single
// invitee zone. A slot that fails conversion is passed through untouched.
func (ii *InviteeIntersector) EnhanceWithDST(slots []domain.Slot, inviteeTimezone string) []domain.Slot {
	loc, err := time.LoadLocation(inviteeTimezone)
	if err != nil {
		ii.logger.Warn("skipping DST enrichment for unresolvable timezone",
			"timezone", inviteeTimezone,
			"error", err,
		)
		return slots
	}

	enhanced := make([]domain.Slot, 0, len(slots))
	for _, slot := range slots {
		localStart := slot.StartTime.In(loc)
		localEnd := slot.EndTime.In(loc)
		isDST := localStart.IsDST()

		slot.LocalStartTime = &localStart
		slot.LocalEndTime = &localEnd
		slot.IsDST = &isDST
		enhanced = append(enhanced, slot)
	}

	return enhanced
}
