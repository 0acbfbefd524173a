package domain

import "time"

// Slot is a candidate bookable start time with its derived end. Slots are
// transient values: the engine computes them per query and never persists
// them. Enrichment fields are populated by the multi-invitee and DST stages
// and stay nil otherwise.
type Slot struct {
	StartTime       time.Time `json:"start_time"`
	EndTime         time.Time `json:"end_time"`
	DurationMinutes int       `json:"duration_minutes"`

	LocalStartTime *time.Time `json:"local_start_time,omitempty"`
	LocalEndTime   *time.Time `json:"local_end_time,omitempty"`
	IsDST          *bool      `json:"is_dst,omitempty"`

	InviteeTimes  map[string]InviteeTime `json:"invitee_times,omitempty"`
	FairnessScore *float64               `json:"fairness_score,omitempty"`
}

// InviteeTime is a slot rendered in one invitee's timezone.
type InviteeTime struct {
	StartTime    time.Time `json:"start_time"`
	EndTime      time.Time `json:"end_time"`
	StartHour    int       `json:"start_hour"`
	EndHour      int       `json:"end_hour"`
	IsReasonable bool      `json:"is_reasonable"`
}

// Interval returns the slot's raw (unbuffered) window.
func (s Slot) Interval() Interval {
	return Interval{Start: s.StartTime, End: s.EndTime}
}

// ProtectedZone returns the slot window padded by the candidate's buffers.
func (s Slot) ProtectedZone(bufferBefore, bufferAfter int) Interval {
	return Interval{
		Start: s.StartTime.Add(-time.Duration(bufferBefore) * time.Minute),
		End:   s.EndTime.Add(time.Duration(bufferAfter) * time.Minute),
	}
}
