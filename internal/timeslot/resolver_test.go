package timeslot

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func mustRange(t *testing.T, start, end string) WallClockRange {
	t.Helper()
	r, err := ParseWallClockRange(start, end)
	require.NoError(t, err)
	return r
}

// Monday 2026-03-02, a working day in every fixture below.
var monday = time.Date(2026, 3, 2, 0, 0, 0, 0, time.UTC)

func mondayReq(t *testing.T) DayRequest {
	t.Helper()
	return DayRequest{
		Year:     2026,
		Month:    time.March,
		Day:      2,
		Location: time.UTC,
		Duration: 30 * time.Minute,
		Windows:  []WallClockRange{mustRange(t, "09:00", "17:00")},
		Buffer:   15 * time.Minute,
	}
}

func TestResolveDay_NoticeWindow(t *testing.T) {
	req := mondayReq(t)
	// now = Monday 08:00, min notice 2h
	req.EarliestStart = monday.Add(10 * time.Hour)

	slots := ResolveDay(req)
	require.NotEmpty(t, slots)

	assert.Equal(t, monday.Add(10*time.Hour), slots[0].Start, "first slot should be 10:00")
	assert.Equal(t, monday.Add(10*time.Hour+30*time.Minute), slots[0].End)

	last := slots[len(slots)-1]
	assert.Equal(t, monday.Add(16*time.Hour+30*time.Minute), last.Start, "last slot should be 16:30")
	assert.Equal(t, monday.Add(17*time.Hour), last.End)

	for _, s := range slots {
		assert.False(t, s.Start.Before(req.EarliestStart), "no slot may start before now + notice")
	}
}

func TestResolveDay_BufferExcludesNeighbours(t *testing.T) {
	req := mondayReq(t)
	req.Busy = []Interval{{
		Start: monday.Add(10 * time.Hour),
		End:   monday.Add(10*time.Hour + 30*time.Minute),
	}}

	slots := ResolveDay(req)
	require.NotEmpty(t, slots)

	starts := map[time.Time]bool{}
	for _, s := range slots {
		starts[s.Start] = true
	}

	assert.False(t, starts[monday.Add(9*time.Hour+45*time.Minute)], "09:45 collides with the leading buffer")
	assert.False(t, starts[monday.Add(10*time.Hour)], "10:00 is booked")
	assert.False(t, starts[monday.Add(10*time.Hour+15*time.Minute)], "10:15 collides with the trailing buffer")
	assert.True(t, starts[monday.Add(10*time.Hour+45*time.Minute)], "10:45 is the first slot clear of the buffer")
}

func TestResolveDay_DurationLongerThanWindow(t *testing.T) {
	req := mondayReq(t)
	req.Windows = []WallClockRange{mustRange(t, "09:00", "09:20")}

	assert.Empty(t, ResolveDay(req), "a window shorter than the duration yields no slots, not an error")
}

func TestResolveDay_NoWindows(t *testing.T) {
	req := mondayReq(t)
	req.Windows = nil

	assert.Empty(t, ResolveDay(req))
}

func TestResolveDay_TimezoneAnchoring(t *testing.T) {
	loc, err := time.LoadLocation("America/New_York")
	require.NoError(t, err)

	req := mondayReq(t)
	req.Location = loc

	slots := ResolveDay(req)
	require.NotEmpty(t, slots)
	// 09:00 EST == 14:00 UTC
	assert.Equal(t, monday.Add(14*time.Hour), slots[0].Start)
	assert.Equal(t, time.UTC, slots[0].Start.Location())
}

func TestResolveDay_OrderedByStart(t *testing.T) {
	req := mondayReq(t)
	req.Windows = []WallClockRange{
		mustRange(t, "13:00", "15:00"),
		mustRange(t, "09:00", "11:00"),
	}

	slots := ResolveDay(req)
	require.NotEmpty(t, slots)
	for i := 1; i < len(slots); i++ {
		assert.True(t, slots[i-1].Before(slots[i]), "slots must be in ascending start order")
	}
}

func TestInterval_Overlaps(t *testing.T) {
	base := Interval{Start: monday.Add(10 * time.Hour), End: monday.Add(11 * time.Hour)}

	assert.True(t, base.Overlaps(Interval{Start: monday.Add(10*time.Hour + 30*time.Minute), End: monday.Add(12 * time.Hour)}))
	assert.True(t, base.Overlaps(Interval{Start: monday.Add(9 * time.Hour), End: monday.Add(10*time.Hour + 1*time.Minute)}))
	// Half-open: touching ends do not overlap.
	assert.False(t, base.Overlaps(Interval{Start: monday.Add(11 * time.Hour), End: monday.Add(12 * time.Hour)}))
	assert.False(t, base.Overlaps(Interval{Start: monday.Add(9 * time.Hour), End: monday.Add(10 * time.Hour)}))
}

func TestInterval_Buffered(t *testing.T) {
	base := Interval{Start: monday.Add(10 * time.Hour), End: monday.Add(11 * time.Hour)}
	padded := base.Buffered(15 * time.Minute)

	assert.Equal(t, monday.Add(9*time.Hour+45*time.Minute), padded.Start)
	assert.Equal(t, monday.Add(11*time.Hour+15*time.Minute), padded.End)
	assert.Equal(t, base, base.Buffered(0))
}

func TestParseWallClockRange(t *testing.T) {
	_, err := ParseWallClockRange("09:00", "08:00")
	assert.ErrorIs(t, err, ErrInvalidWallClock)

	_, err = ParseWallClockRange("9am", "17:00")
	assert.ErrorIs(t, err, ErrInvalidWallClock)

	r, err := ParseWallClockRange("09:30", "17:00")
	assert.NoError(t, err)
	assert.Equal(t, 9, r.StartHour)
	assert.Equal(t, 30, r.StartMinute)
}

func TestOverlapsAny(t *testing.T) {
	assert.False(t, OverlapsAny([]WallClockRange{
		mustRange(t, "09:00", "12:00"),
		mustRange(t, "13:00", "17:00"),
	}))
	assert.True(t, OverlapsAny([]WallClockRange{
		mustRange(t, "09:00", "12:00"),
		mustRange(t, "11:00", "17:00"),
	}))
	// Touching windows are fine.
	assert.False(t, OverlapsAny([]WallClockRange{
		mustRange(t, "09:00", "12:00"),
		mustRange(t, "12:00", "17:00"),
	}))
}
