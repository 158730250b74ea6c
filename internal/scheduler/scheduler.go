// Package scheduler computes free session slots around busy calendar time.
//
// Compute is a pure function of its request: it performs no I/O, reads no
// clock and keeps no state, so it is safe to call from any goroutine.
package scheduler

import (
	"fmt"
	"sort"
	"time"
)

type span struct {
	start time.Time
	end   time.Time
}

// Compute returns the proposed slots for req in chronological order.
//
// Days are walked from the calendar date of req.Now through LookaheadDays
// dates later, inclusive. Today's scan never starts before req.Now. Busy
// intervals that cannot be used are reported in Result.Dropped; only invalid
// request parameters fail the call.
func Compute(req ScheduleRequest) (Result, error) {
	if err := Validate(req); err != nil {
		return Result{}, err
	}

	loc := req.Location
	if loc == nil {
		loc = req.Now.Location()
	}
	now := req.Now.In(loc)
	busy, dropped := normalize(req.Busy, loc)

	res := Result{Slots: []ProposedSlot{}, Dropped: dropped}
	today := midnight(now)
	for d := 0; d <= req.LookaheadDays; d++ {
		win := dayWindow(today.AddDate(0, 0, d), req.Window)
		if d == 0 {
			if earliest := roundUp(now, req.Granularity); earliest.After(win.start) {
				win.start = earliest
			}
		}
		if win.end.Sub(win.start) < req.SessionDuration {
			continue
		}

		blocked := clip(busy, win)
		if req.Mode == ModeSinglePerDay {
			res.Slots = append(res.Slots, firstFree(win, blocked, req.SessionDuration)...)
		} else {
			res.Slots = append(res.Slots, allFree(win, blocked, req.SessionDuration)...)
		}
	}
	return res, nil
}

// Validate checks the top-level request parameters.
func Validate(req ScheduleRequest) error {
	switch {
	case req.SessionDuration <= 0:
		return invalid("session_duration", "must be positive")
	case req.LookaheadDays < 0:
		return invalid("lookahead_days", "must not be negative")
	case req.Window.DayStartHour < 0 || req.Window.DayStartHour > 23:
		return invalid("day_start_hour", "must be within 0-23")
	case req.Window.DayEndHour < 1 || req.Window.DayEndHour > 24:
		return invalid("day_end_hour", "must be within 1-24")
	case req.Window.DayStartHour >= req.Window.DayEndHour:
		return invalid("day_start_hour", "must be before day_end_hour")
	case req.Now.IsZero():
		return invalid("now", "is required")
	case req.Granularity < 0:
		return invalid("granularity", "must not be negative")
	}
	if _, ok := ParseMode(string(req.Mode)); !ok {
		return invalid("mode", fmt.Sprintf("unknown value %q", req.Mode))
	}
	return nil
}

// normalize converts busy intervals into loc, expands all-day intervals to
// whole dates, drops malformed ones, and merges what overlaps or touches.
func normalize(in []BusyInterval, loc *time.Location) ([]span, []DroppedInterval) {
	var dropped []DroppedInterval
	spans := make([]span, 0, len(in))
	for i, b := range in {
		if err := checkInterval(b); err != nil {
			dropped = append(dropped, DroppedInterval{Index: i, Interval: b, Err: err, Reason: err.Error()})
			continue
		}
		s := span{start: b.Start.In(loc), end: b.End.In(loc)}
		if b.AllDay {
			// The date is read in the interval's own zone, then placed in loc.
			y, m, d := b.Start.Date()
			s.start = time.Date(y, m, d, 0, 0, 0, 0, loc)
			s.end = s.start.AddDate(0, 0, 1)
		}
		if !s.end.After(s.start) {
			// Empty under half-open semantics.
			continue
		}
		spans = append(spans, s)
	}

	sort.Slice(spans, func(i, j int) bool {
		if spans[i].start.Equal(spans[j].start) {
			return spans[i].end.Before(spans[j].end)
		}
		return spans[i].start.Before(spans[j].start)
	})

	merged := spans[:0]
	for _, s := range spans {
		if n := len(merged); n > 0 && !s.start.After(merged[n-1].end) {
			if s.end.After(merged[n-1].end) {
				merged[n-1].end = s.end
			}
			continue
		}
		merged = append(merged, s)
	}
	return merged, dropped
}

func checkInterval(b BusyInterval) error {
	switch {
	case b.Start.IsZero():
		return fmt.Errorf("%w: missing start", ErrMalformedInterval)
	case b.AllDay:
		return nil
	case b.End.IsZero():
		return fmt.Errorf("%w: missing end", ErrMalformedInterval)
	case b.End.Before(b.Start):
		return fmt.Errorf("%w: end %s before start %s", ErrMalformedInterval,
			b.End.Format(time.RFC3339), b.Start.Format(time.RFC3339))
	}
	return nil
}

// clip returns the parts of the sorted, disjoint busy spans inside win.
func clip(busy []span, win span) []span {
	i := sort.Search(len(busy), func(i int) bool { return busy[i].end.After(win.start) })
	var out []span
	for ; i < len(busy) && busy[i].start.Before(win.end); i++ {
		s := busy[i]
		if s.start.Before(win.start) {
			s.start = win.start
		}
		if s.end.After(win.end) {
			s.end = win.end
		}
		out = append(out, s)
	}
	return out
}

// allFree places back-to-back slots from the window start, jumping past each
// busy span a candidate slot would overlap.
func allFree(win span, busy []span, d time.Duration) []ProposedSlot {
	var out []ProposedSlot
	cursor := win.start
	i := 0
	for !cursor.Add(d).After(win.end) {
		end := cursor.Add(d)
		for i < len(busy) && !busy[i].end.After(cursor) {
			i++
		}
		if i < len(busy) && busy[i].start.Before(end) {
			cursor = busy[i].end
			continue
		}
		out = append(out, ProposedSlot{Start: cursor, End: end})
		cursor = end
	}
	return out
}

// firstFree returns the earliest gap of the window that fits one slot.
func firstFree(win span, busy []span, d time.Duration) []ProposedSlot {
	cursor := win.start
	for _, b := range busy {
		if b.start.After(cursor) && b.start.Sub(cursor) >= d {
			return []ProposedSlot{{Start: cursor, End: cursor.Add(d)}}
		}
		if b.end.After(cursor) {
			cursor = b.end
		}
	}
	if win.end.Sub(cursor) >= d {
		return []ProposedSlot{{Start: cursor, End: cursor.Add(d)}}
	}
	return nil
}

func dayWindow(day time.Time, w Window) span {
	y, m, d := day.Date()
	loc := day.Location()
	return span{
		start: time.Date(y, m, d, w.DayStartHour, 0, 0, 0, loc),
		end:   time.Date(y, m, d, w.DayEndHour, 0, 0, 0, loc),
	}
}

func midnight(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, t.Location())
}

// roundUp rounds t up to the next wall-clock multiple of g counted from
// midnight, so DST days keep the same grid as any other day.
func roundUp(t time.Time, g time.Duration) time.Time {
	if g <= 0 {
		return t
	}
	h, m, sec := t.Clock()
	off := time.Duration(h)*time.Hour + time.Duration(m)*time.Minute +
		time.Duration(sec)*time.Second + time.Duration(t.Nanosecond())
	rem := off % g
	if rem == 0 {
		return t
	}
	off += g - rem
	y, mo, d := t.Date()
	r := time.Date(y, mo, d, 0, 0, 0, int(off), t.Location())
	if r.Before(t) {
		// Clock time repeated by a backward shift.
		return t
	}
	return r
}
