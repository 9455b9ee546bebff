package scheduler

import "github.com/emaximovel/agenda/internal/agenda"

// FindOverlap returns the first existing appointment that collides with the
// candidate, or nil. Only appointments on the same broker and date of the
// same kind compete for the slot: two visits may not overlap, two events may
// not overlap, but an event and a visit coexist side by side. The entry
// identified by excludeID (the record being edited) never conflicts with
// itself.
func FindOverlap(candidate agenda.Appointment, excludeID string, existing []agenda.Appointment) *agenda.Appointment {
	cs, err := ClockMinutes(candidate.StartTime)
	if err != nil {
		return nil
	}
	ce, err := ClockMinutes(candidate.EndTime)
	if err != nil {
		return nil
	}

	for i := range existing {
		other := &existing[i]
		if excludeID != "" && other.ID == excludeID {
			continue
		}
		if other.BrokerID != candidate.BrokerID || other.Date != candidate.Date {
			continue
		}
		if other.IsEvent != candidate.IsEvent {
			continue
		}
		os, err := ClockMinutes(other.StartTime)
		if err != nil {
			continue
		}
		oe, err := ClockMinutes(other.EndTime)
		if err != nil {
			continue
		}
		// Half-open intervals: [cs,ce) and [os,oe) overlap iff cs < oe && os < ce.
		if cs < oe && os < ce {
			return other
		}
	}
	return nil
}
