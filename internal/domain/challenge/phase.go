package challenge

import "time"

// Phase is the time-derived display bucket. It is informational only and
// never drives a persisted status transition.
type Phase string

const (
	PhaseUpcoming Phase = "upcoming"
	PhaseOngoing  Phase = "ongoing"
	PhaseEnded    Phase = "ended"
)

// PhaseAt derives the display phase from the clock alone.
func PhaseAt(now, startDate, endDate time.Time) Phase {
	switch {
	case !now.Before(endDate):
		return PhaseEnded
	case !now.Before(startDate):
		return PhaseOngoing
	default:
		return PhaseUpcoming
	}
}

// PhaseNow is PhaseAt against the challenge's own window.
func (c Challenge) PhaseNow(now time.Time) Phase {
	return PhaseAt(now, c.StartDate, c.EndDate)
}
