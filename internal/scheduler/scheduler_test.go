package scheduler

import (
	"errors"
	"math/rand"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func at(day, hour, min int) time.Time {
	return time.Date(2026, time.March, day, hour, min, 0, 0, time.UTC)
}

func workday() Window {
	return Window{DayStartHour: 9, DayEndHour: 17}
}

func baseRequest() ScheduleRequest {
	return ScheduleRequest{
		SessionDuration: time.Hour,
		LookaheadDays:   0,
		Window:          workday(),
		Now:             at(10, 8, 0),
	}
}

func starts(slots []ProposedSlot) []time.Time {
	out := make([]time.Time, 0, len(slots))
	for _, s := range slots {
		out = append(out, s.Start)
	}
	return out
}

func TestComputeEmptyCalendarFillsWindow(t *testing.T) {
	res, err := Compute(baseRequest())
	require.NoError(t, err)
	require.Len(t, res.Slots, 8)

	for i, s := range res.Slots {
		assert.Equal(t, at(10, 9+i, 0), s.Start)
		assert.Equal(t, at(10, 10+i, 0), s.End)
	}
	assert.Empty(t, res.Dropped)
}

func TestComputeFullDayBusyYieldsNothing(t *testing.T) {
	req := baseRequest()
	req.Busy = []BusyInterval{{Start: at(10, 9, 0), End: at(10, 17, 0)}}

	res, err := Compute(req)
	require.NoError(t, err)
	assert.Empty(t, res.Slots)
}

func TestComputeSkipsOverBusyInterval(t *testing.T) {
	req := baseRequest()
	req.Busy = []BusyInterval{{Start: at(10, 10, 0), End: at(10, 11, 0)}}

	res, err := Compute(req)
	require.NoError(t, err)
	assert.Equal(t, []time.Time{
		at(10, 9, 0), at(10, 11, 0), at(10, 12, 0), at(10, 13, 0),
		at(10, 14, 0), at(10, 15, 0), at(10, 16, 0),
	}, starts(res.Slots))
}

func TestComputeAllDayEventBlocksItsDate(t *testing.T) {
	req := baseRequest()
	req.LookaheadDays = 2
	req.Busy = []BusyInterval{{Start: at(11, 0, 0), AllDay: true}}

	res, err := Compute(req)
	require.NoError(t, err)

	perDay := map[int]int{}
	for _, s := range res.Slots {
		perDay[s.Start.Day()]++
	}
	assert.Equal(t, map[int]int{10: 8, 12: 8}, perDay)
}

func TestComputeRejectsZeroDuration(t *testing.T) {
	req := baseRequest()
	req.SessionDuration = 0

	res, err := Compute(req)
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrInvalidParameters))
	assert.Nil(t, res.Slots)

	var perr *InvalidParametersError
	require.True(t, errors.As(err, &perr))
	assert.Equal(t, "session_duration", perr.Field)
}

func TestComputeDropsMalformedInterval(t *testing.T) {
	req := baseRequest()
	req.Busy = []BusyInterval{
		{End: at(10, 13, 0)},
		{Start: at(10, 10, 0), End: at(10, 11, 0)},
	}

	res, err := Compute(req)
	require.NoError(t, err)
	assert.Len(t, res.Slots, 7)
	for _, s := range res.Slots {
		assert.False(t, s.Overlaps(at(10, 10, 0), at(10, 11, 0)))
	}

	require.Len(t, res.Dropped, 1)
	assert.Equal(t, 0, res.Dropped[0].Index)
	assert.True(t, errors.Is(res.Dropped[0].Err, ErrMalformedInterval))
	assert.NotEmpty(t, res.Dropped[0].Reason)
}

func TestComputeDropsReversedInterval(t *testing.T) {
	req := baseRequest()
	req.Busy = []BusyInterval{{Start: at(10, 12, 0), End: at(10, 11, 0)}}

	res, err := Compute(req)
	require.NoError(t, err)
	assert.Len(t, res.Slots, 8)
	require.Len(t, res.Dropped, 1)
	assert.True(t, errors.Is(res.Dropped[0].Err, ErrMalformedInterval))
}

func TestComputeIgnoresEmptyInterval(t *testing.T) {
	req := baseRequest()
	req.Busy = []BusyInterval{{Start: at(10, 10, 0), End: at(10, 10, 0)}}

	res, err := Compute(req)
	require.NoError(t, err)
	assert.Len(t, res.Slots, 8)
	assert.Empty(t, res.Dropped)
}

func TestComputeTodayStartsAfterNow(t *testing.T) {
	req := baseRequest()
	req.Now = at(10, 10, 30)

	res, err := Compute(req)
	require.NoError(t, err)
	require.Len(t, res.Slots, 6)
	assert.Equal(t, at(10, 10, 30), res.Slots[0].Start)
	assert.Equal(t, at(10, 15, 30), res.Slots[5].Start)
}

func TestComputeGranularityRoundsNowUp(t *testing.T) {
	req := baseRequest()
	req.Now = at(10, 10, 37)
	req.Granularity = 15 * time.Minute

	res, err := Compute(req)
	require.NoError(t, err)
	require.Len(t, res.Slots, 6)
	assert.Equal(t, at(10, 10, 45), res.Slots[0].Start)
}

func TestComputeAfterWindowMovesToNextDay(t *testing.T) {
	req := baseRequest()
	req.Now = at(10, 18, 0)
	req.LookaheadDays = 1

	res, err := Compute(req)
	require.NoError(t, err)
	require.Len(t, res.Slots, 8)
	assert.Equal(t, at(11, 9, 0), res.Slots[0].Start)
}

func TestComputeBackToBackEventsAreNotOverlapping(t *testing.T) {
	req := baseRequest()
	req.Busy = []BusyInterval{
		{Start: at(10, 11, 0), End: at(10, 12, 0)},
		{Start: at(10, 10, 0), End: at(10, 11, 0)},
	}

	res, err := Compute(req)
	require.NoError(t, err)
	assert.Equal(t, at(10, 9, 0), res.Slots[0].Start)
	assert.Equal(t, at(10, 12, 0), res.Slots[1].Start)
	assert.Len(t, res.Slots, 6)
}

func TestComputeBusyAcrossMidnight(t *testing.T) {
	req := baseRequest()
	req.Now = at(10, 8, 0)
	req.LookaheadDays = 1
	req.Busy = []BusyInterval{{Start: at(10, 16, 30), End: at(11, 10, 0)}}

	res, err := Compute(req)
	require.NoError(t, err)

	var day2 []time.Time
	for _, s := range res.Slots {
		if s.Start.Day() == 11 {
			day2 = append(day2, s.Start)
		}
	}
	require.NotEmpty(t, day2)
	assert.Equal(t, at(11, 10, 0), day2[0])
	assert.Equal(t, at(10, 15, 0), res.Slots[6].Start)
	assert.Equal(t, at(11, 10, 0), res.Slots[7].Start)
}

func TestComputeNormalizesTimezones(t *testing.T) {
	ny, err := time.LoadLocation("America/New_York")
	require.NoError(t, err)

	req := baseRequest()
	req.Location = ny
	req.Now = time.Date(2026, time.March, 10, 8, 0, 0, 0, ny)
	// 10:00-11:00 in New York (EDT, UTC-4).
	req.Busy = []BusyInterval{{Start: at(10, 14, 0), End: at(10, 15, 0)}}

	res, err := Compute(req)
	require.NoError(t, err)
	require.Len(t, res.Slots, 7)
	assert.Equal(t, time.Date(2026, time.March, 10, 11, 0, 0, 0, ny), res.Slots[1].Start)
	assert.Equal(t, ny, res.Slots[0].Start.Location())
}

func TestComputeAllDayKeepsItsDateAcrossZones(t *testing.T) {
	ny, err := time.LoadLocation("America/New_York")
	require.NoError(t, err)

	req := baseRequest()
	req.Location = ny
	req.LookaheadDays = 2
	req.Now = time.Date(2026, time.March, 10, 7, 0, 0, 0, ny)
	// Dated the 11th at UTC midnight, which is still the 10th in New York.
	req.Busy = []BusyInterval{{Start: at(11, 0, 0), AllDay: true}}

	res, err := Compute(req)
	require.NoError(t, err)

	perDay := map[int]int{}
	for _, s := range res.Slots {
		perDay[s.Start.In(ny).Day()]++
	}
	assert.Equal(t, map[int]int{10: 8, 12: 8}, perDay)

	busyStart := time.Date(2026, time.March, 11, 0, 0, 0, 0, ny)
	for _, s := range res.Slots {
		assert.False(t, s.Overlaps(busyStart, busyStart.AddDate(0, 0, 1)), "slot %v overlaps the all-day date", s)
	}
}

func TestComputeGranularityOnDSTDay(t *testing.T) {
	ny, err := time.LoadLocation("America/New_York")
	require.NoError(t, err)

	req := baseRequest()
	req.Location = ny
	// Clocks jump from 02:00 to 03:00 on this date.
	req.Now = time.Date(2026, time.March, 8, 10, 10, 0, 0, ny)
	req.Granularity = 90 * time.Minute

	res, err := Compute(req)
	require.NoError(t, err)
	require.Len(t, res.Slots, 6)
	assert.Equal(t, time.Date(2026, time.March, 8, 10, 30, 0, 0, ny), res.Slots[0].Start)
}

func TestRoundUp(t *testing.T) {
	tests := []struct {
		name string
		in   time.Time
		g    time.Duration
		want time.Time
	}{
		{"no granularity", at(10, 10, 7), 0, at(10, 10, 7)},
		{"already aligned", at(10, 10, 30), 15 * time.Minute, at(10, 10, 30)},
		{"rounds up", at(10, 10, 31), 15 * time.Minute, at(10, 10, 45)},
		{"grid from midnight", at(10, 10, 10), 90 * time.Minute, at(10, 10, 30)},
		{"crosses midnight", at(10, 23, 50), 30 * time.Minute, at(11, 0, 0)},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, roundUp(tt.in, tt.g))
		})
	}
}

func TestComputeWindowEndingAtMidnight(t *testing.T) {
	req := baseRequest()
	req.Window = Window{DayStartHour: 22, DayEndHour: 24}

	res, err := Compute(req)
	require.NoError(t, err)
	require.Len(t, res.Slots, 2)
	assert.Equal(t, at(11, 0, 0), res.Slots[1].End)
}

func TestComputeSinglePerDay(t *testing.T) {
	req := baseRequest()
	req.Mode = ModeSinglePerDay
	req.LookaheadDays = 2
	req.Busy = []BusyInterval{
		{Start: at(10, 9, 0), End: at(10, 9, 30)},
		{Start: at(10, 10, 0), End: at(10, 11, 0)},
		{Start: at(11, 0, 0), AllDay: true},
	}

	res, err := Compute(req)
	require.NoError(t, err)
	assert.Equal(t, []ProposedSlot{
		{Start: at(10, 11, 0), End: at(10, 12, 0)},
		{Start: at(12, 9, 0), End: at(12, 10, 0)},
	}, res.Slots)
}

func TestComputeSinglePerDayTakesGapBeforeBusy(t *testing.T) {
	req := baseRequest()
	req.Mode = ModeSinglePerDay
	req.Busy = []BusyInterval{{Start: at(10, 12, 0), End: at(10, 17, 0)}}

	res, err := Compute(req)
	require.NoError(t, err)
	assert.Equal(t, []ProposedSlot{{Start: at(10, 9, 0), End: at(10, 10, 0)}}, res.Slots)
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name  string
		edit  func(*ScheduleRequest)
		field string
	}{
		{"negative duration", func(r *ScheduleRequest) { r.SessionDuration = -time.Minute }, "session_duration"},
		{"negative lookahead", func(r *ScheduleRequest) { r.LookaheadDays = -1 }, "lookahead_days"},
		{"start equals end", func(r *ScheduleRequest) { r.Window = Window{DayStartHour: 12, DayEndHour: 12} }, "day_start_hour"},
		{"start after end", func(r *ScheduleRequest) { r.Window = Window{DayStartHour: 18, DayEndHour: 9} }, "day_start_hour"},
		{"end past midnight", func(r *ScheduleRequest) { r.Window = Window{DayStartHour: 9, DayEndHour: 25} }, "day_end_hour"},
		{"negative start", func(r *ScheduleRequest) { r.Window = Window{DayStartHour: -1, DayEndHour: 9} }, "day_start_hour"},
		{"zero now", func(r *ScheduleRequest) { r.Now = time.Time{} }, "now"},
		{"negative granularity", func(r *ScheduleRequest) { r.Granularity = -time.Minute }, "granularity"},
		{"unknown mode", func(r *ScheduleRequest) { r.Mode = "greedy" }, "mode"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := baseRequest()
			tt.edit(&req)

			err := Validate(req)
			var perr *InvalidParametersError
			require.True(t, errors.As(err, &perr), "got %v", err)
			assert.Equal(t, tt.field, perr.Field)
			assert.ErrorIs(t, err, ErrInvalidParameters)
		})
	}
}

func randomBusy(rng *rand.Rand, days int) []BusyInterval {
	var out []BusyInterval
	for i := 0; i < 30; i++ {
		day := 10 + rng.Intn(days)
		if rng.Intn(15) == 0 {
			out = append(out, BusyInterval{Start: at(day, 0, 0), AllDay: true})
			continue
		}
		start := at(day, 6+rng.Intn(14), 15*rng.Intn(4))
		out = append(out, BusyInterval{Start: start, End: start.Add(time.Duration(15+15*rng.Intn(12)) * time.Minute)})
	}
	return out
}

func TestComputeProperties(t *testing.T) {
	rng := rand.New(rand.NewSource(42))
	for iter := 0; iter < 200; iter++ {
		for _, mode := range []Mode{ModeExhaustive, ModeSinglePerDay} {
			req := ScheduleRequest{
				Busy:            randomBusy(rng, 5),
				SessionDuration: time.Duration(30+15*rng.Intn(6)) * time.Minute,
				LookaheadDays:   rng.Intn(5),
				Window:          Window{DayStartHour: 7 + rng.Intn(3), DayEndHour: 16 + rng.Intn(6)},
				Now:             at(10, 6+rng.Intn(8), 10*rng.Intn(6)),
				Mode:            mode,
			}
			res, err := Compute(req)
			require.NoError(t, err)

			again, err := Compute(req)
			require.NoError(t, err)
			require.Equal(t, res, again, "compute must be idempotent")

			lastDay := midnight(req.Now).AddDate(0, 0, req.LookaheadDays+1)
			for i, s := range res.Slots {
				require.Equal(t, req.SessionDuration, s.Duration())
				require.False(t, s.Start.Before(req.Now))
				require.True(t, s.Start.Before(lastDay))

				win := dayWindow(midnight(s.Start), req.Window)
				require.False(t, s.Start.Before(win.start))
				require.False(t, s.End.After(win.end))

				for _, b := range req.Busy {
					bs, be := b.Start, b.End
					if b.AllDay {
						bs = midnight(b.Start)
						be = bs.AddDate(0, 0, 1)
					}
					require.False(t, s.Overlaps(bs, be), "slot %v overlaps busy %v-%v", s, bs, be)
				}
				if i > 0 {
					prev := res.Slots[i-1]
					require.True(t, prev.Start.Before(s.Start))
					require.False(t, prev.Overlaps(s.Start, s.End))
				}
			}
		}
	}
}

func TestExhaustiveNeverProposesFewerThanSingle(t *testing.T) {
	rng := rand.New(rand.NewSource(7))
	for iter := 0; iter < 100; iter++ {
		req := ScheduleRequest{
			Busy:            randomBusy(rng, 3),
			SessionDuration: 45 * time.Minute,
			LookaheadDays:   2,
			Window:          workday(),
			Now:             at(10, 7, 0),
		}
		all, err := Compute(req)
		require.NoError(t, err)

		req.Mode = ModeSinglePerDay
		single, err := Compute(req)
		require.NoError(t, err)

		count := func(slots []ProposedSlot) map[int]int {
			m := map[int]int{}
			for _, s := range slots {
				m[s.Start.Day()]++
			}
			return m
		}
		a, s := count(all.Slots), count(single.Slots)
		for day, n := range s {
			assert.LessOrEqual(t, n, 1)
			assert.GreaterOrEqual(t, a[day], n)
		}
	}
}

func TestParseMode(t *testing.T) {
	m, ok := ParseMode("")
	assert.True(t, ok)
	assert.Equal(t, ModeExhaustive, m)

	m, ok = ParseMode("single")
	assert.True(t, ok)
	assert.Equal(t, ModeSinglePerDay, m)

	_, ok = ParseMode("fancy")
	assert.False(t, ok)
}
