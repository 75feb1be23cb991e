package timeslot

import (
	"errors"
	"fmt"
	"sort"
	"time"
)

var ErrInvalidWallClock = errors.New("wall-clock time must be HH:MM with end after start")

// Interval is a half-open [Start, End) range of instants. Both bounds are
// kept in UTC internally.
type Interval struct {
	Start time.Time
	End   time.Time
}

// Overlaps reports whether two half-open intervals intersect.
func (iv Interval) Overlaps(o Interval) bool {
	return iv.Start.Before(o.End) && o.Start.Before(iv.End)
}

// Buffered expands both ends of the interval by pad.
func (iv Interval) Buffered(pad time.Duration) Interval {
	if pad <= 0 {
		return iv
	}
	return Interval{Start: iv.Start.Add(-pad), End: iv.End.Add(pad)}
}

// Before orders intervals by Start, then End.
func (iv Interval) Before(o Interval) bool {
	if !iv.Start.Equal(o.Start) {
		return iv.Start.Before(o.Start)
	}
	return iv.End.Before(o.End)
}

func (iv Interval) Duration() time.Duration {
	return iv.End.Sub(iv.Start)
}

// WallClockRange is a same-day "HH:MM"–"HH:MM" range in some timezone,
// not yet anchored to a date.
type WallClockRange struct {
	StartHour, StartMinute int
	EndHour, EndMinute     int
}

// ParseWallClockRange parses "09:00", "17:30" style bounds.
func ParseWallClockRange(start, end string) (WallClockRange, error) {
	sh, sm, err := parseHHMM(start)
	if err != nil {
		return WallClockRange{}, err
	}
	eh, em, err := parseHHMM(end)
	if err != nil {
		return WallClockRange{}, err
	}
	if eh*60+em <= sh*60+sm {
		return WallClockRange{}, ErrInvalidWallClock
	}
	return WallClockRange{StartHour: sh, StartMinute: sm, EndHour: eh, EndMinute: em}, nil
}

func parseHHMM(s string) (hour, minute int, err error) {
	t, perr := time.Parse("15:04", s)
	if perr != nil {
		return 0, 0, fmt.Errorf("%w: %q", ErrInvalidWallClock, s)
	}
	return t.Hour(), t.Minute(), nil
}

// On anchors the range to a calendar date in loc and returns the interval in UTC.
func (w WallClockRange) On(year int, month time.Month, day int, loc *time.Location) Interval {
	start := time.Date(year, month, day, w.StartHour, w.StartMinute, 0, 0, loc)
	end := time.Date(year, month, day, w.EndHour, w.EndMinute, 0, 0, loc)
	return Interval{Start: start.UTC(), End: end.UTC()}
}

// OverlapsAny reports whether any range in rs overlaps another, treating each
// as minutes-of-day. Used to validate a day's template on write.
func OverlapsAny(rs []WallClockRange) bool {
	sorted := make([]WallClockRange, len(rs))
	copy(sorted, rs)
	sort.Slice(sorted, func(i, j int) bool {
		return sorted[i].StartHour*60+sorted[i].StartMinute < sorted[j].StartHour*60+sorted[j].StartMinute
	})
	for i := 1; i < len(sorted); i++ {
		prevEnd := sorted[i-1].EndHour*60 + sorted[i-1].EndMinute
		curStart := sorted[i].StartHour*60 + sorted[i].StartMinute
		if curStart < prevEnd {
			return true
		}
	}
	return false
}
