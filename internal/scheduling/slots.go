package scheduling

import (
	"github.com/AgendaLivre/service-scheduling/internal/domain/schedule"
)

// ReasonSlotTaken is the user-facing reason attached to occupied slots.
const ReasonSlotTaken = "Horário ocupado"

// Slot is a candidate appointment start time with an availability flag.
// Produced transiently per request; never persisted.
type Slot struct {
	Time      schedule.MinuteOfDay `json:"-"`
	Label     string               `json:"time"`
	Available bool                 `json:"available"`
	Reason    string               `json:"reason,omitempty"`
}

// Generate enumerates candidate start times inside the open interval,
// stepping by stepMinutes, and flags each against the busy intervals using
// the half-open overlap rule. The result is ordered earliest first and is
// recomputed on every call.
//
// A nil open interval (day closed) or a duration longer than the interval
// yields an empty result. When stepMinutes is not positive the step defaults
// to the service duration.
func Generate(open *schedule.Interval, durationMinutes, stepMinutes int, busy []schedule.Interval) []Slot {
	if open == nil || durationMinutes <= 0 {
		return nil
	}
	if stepMinutes <= 0 {
		stepMinutes = durationMinutes
	}
	if open.Start.Add(durationMinutes) > open.End {
		return nil
	}

	var slots []Slot
	for t := open.Start; t.Add(durationMinutes) <= open.End; t = t.Add(stepMinutes) {
		candidate := schedule.Interval{Start: t, End: t.Add(durationMinutes)}
		slot := Slot{Time: t, Label: t.String(), Available: true}
		if overlapsAny(candidate, busy) {
			slot.Available = false
			slot.Reason = ReasonSlotTaken
		}
		slots = append(slots, slot)
	}
	return slots
}

// HasConflict reports whether the candidate interval overlaps any busy
// interval. This is the same predicate the commit-time re-check uses.
func HasConflict(candidate schedule.Interval, busy []schedule.Interval) bool {
	return overlapsAny(candidate, busy)
}

func overlapsAny(candidate schedule.Interval, busy []schedule.Interval) bool {
	for _, b := range busy {
		if candidate.Overlaps(b) {
			return true
		}
	}
	return false
}
