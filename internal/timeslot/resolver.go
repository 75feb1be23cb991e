package timeslot

import (
	"sort"
	"time"
)

// DefaultStep is the grid the resolver walks when carving a window into
// candidate slots.
const DefaultStep = 15 * time.Minute

// DayRequest describes one host-day to resolve into bookable slots.
// Windows are the source intervals already chosen for the date (either the
// weekly template entry or a date override); an empty slice yields no slots.
type DayRequest struct {
	Year  int
	Month time.Month
	Day   int

	Location *time.Location
	Duration time.Duration
	Step     time.Duration

	Windows []WallClockRange

	// Busy holds the host's active bookings, unbuffered; each is padded by
	// Buffer on both sides before the overlap test.
	Busy   []Interval
	Buffer time.Duration

	// EarliestStart is now + the host's minimum notice. Candidates starting
	// before it are discarded.
	EarliestStart time.Time
}

// ResolveDay carves each window into duration-length slots on the step grid,
// drops candidates that collide with buffered busy intervals or start before
// EarliestStart, and returns the survivors ordered by start. Overlapping
// windows are a data-entry error and are not de-duplicated here.
func ResolveDay(req DayRequest) []Interval {
	step := req.Step
	if step <= 0 {
		step = DefaultStep
	}
	if req.Duration <= 0 {
		return nil
	}

	buffered := make([]Interval, len(req.Busy))
	for i, b := range req.Busy {
		buffered[i] = b.Buffered(req.Buffer)
	}

	var out []Interval
	for _, w := range req.Windows {
		window := w.On(req.Year, req.Month, req.Day, req.Location)
		for t := window.Start; !t.Add(req.Duration).After(window.End); t = t.Add(step) {
			candidate := Interval{Start: t, End: t.Add(req.Duration)}
			if t.Before(req.EarliestStart) {
				continue
			}
			if overlapsAnyInterval(candidate, buffered) {
				continue
			}
			out = append(out, candidate)
		}
	}

	sort.Slice(out, func(i, j int) bool { return out[i].Before(out[j]) })
	return out
}

func overlapsAnyInterval(candidate Interval, busy []Interval) bool {
	for _, b := range busy {
		if candidate.Overlaps(b) {
			return true
		}
	}
	return false
}
