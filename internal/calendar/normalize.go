package calendar

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"practiceplanner/internal/scheduler"
)

const (
	dateLayout      = "2006-01-02"
	localTimeLayout = "2006-01-02T15:04:05"

	// maxAllDayDays caps how many dates one all-day event may expand into.
	maxAllDayDays = 366
)

var (
	ErrMissingTime = errors.New("event time has neither dateTime nor date")
	ErrMixedBounds = errors.New("event mixes all-day and timed bounds")
)

// Skipped is an event Normalize could not turn into busy time.
type Skipped struct {
	EventID string `json:"event_id"`
	Reason  string `json:"reason"`
	Err     error  `json:"-"`
}

// ParseEventTime resolves et to an instant in loc. A dateTime with an offset
// is converted; one without is read in et.TimeZone, falling back to loc. A
// date yields midnight in loc and allDay=true.
func ParseEventTime(et EventTime, loc *time.Location) (t time.Time, allDay bool, err error) {
	if loc == nil {
		loc = time.UTC
	}
	switch {
	case strings.TrimSpace(et.DateTime) != "":
		s := strings.TrimSpace(et.DateTime)
		if t, err = time.Parse(time.RFC3339, s); err == nil {
			return t.In(loc), false, nil
		}
		zone := loc
		if et.TimeZone != "" {
			if z, zerr := time.LoadLocation(et.TimeZone); zerr == nil {
				zone = z
			}
		}
		t, err = time.ParseInLocation(localTimeLayout, s, zone)
		if err != nil {
			return time.Time{}, false, fmt.Errorf("parse dateTime %q: %w", s, err)
		}
		return t.In(loc), false, nil
	case strings.TrimSpace(et.Date) != "":
		t, err = time.ParseInLocation(dateLayout, strings.TrimSpace(et.Date), loc)
		if err != nil {
			return time.Time{}, false, fmt.Errorf("parse date %q: %w", et.Date, err)
		}
		return t, true, nil
	}
	return time.Time{}, false, ErrMissingTime
}

// BusyIntervals converts one event. Multi-day all-day events expand into one
// all-day interval per date up to the exclusive end date.
func BusyIntervals(e Event, loc *time.Location) ([]scheduler.BusyInterval, error) {
	start, startAllDay, err := ParseEventTime(e.Start, loc)
	if err != nil {
		return nil, fmt.Errorf("start: %w", err)
	}
	end, endAllDay, endErr := ParseEventTime(e.End, loc)

	if startAllDay {
		if endErr == nil && !endAllDay {
			return nil, ErrMixedBounds
		}
		if endErr != nil {
			end = time.Time{}
		}
		return AllDayIntervals(start, end), nil
	}

	if endErr != nil {
		return nil, fmt.Errorf("end: %w", endErr)
	}
	if endAllDay {
		return nil, ErrMixedBounds
	}
	if end.Before(start) {
		return nil, fmt.Errorf("%w: end before start", scheduler.ErrMalformedInterval)
	}
	return []scheduler.BusyInterval{{Start: start, End: end}}, nil
}

// AllDayIntervals returns one all-day interval per date from start up to the
// exclusive end date. A zero or non-later end yields a single date.
func AllDayIntervals(start, end time.Time) []scheduler.BusyInterval {
	days := 1
	if !end.IsZero() {
		// Rounded so DST transitions inside the range do not lose a date.
		if n := int(end.Sub(start).Hours()+12) / 24; n > days {
			days = n
		}
	}
	if days > maxAllDayDays {
		days = maxAllDayDays
	}
	out := make([]scheduler.BusyInterval, 0, days)
	for d := 0; d < days; d++ {
		out = append(out, scheduler.BusyInterval{Start: start.AddDate(0, 0, d), AllDay: true})
	}
	return out
}

// Normalize converts events into busy intervals in loc. Cancelled events
// are ignored; events whose times cannot be read are reported as skipped and
// never abort the conversion.
func Normalize(events []Event, loc *time.Location) ([]scheduler.BusyInterval, []Skipped) {
	var (
		busy    []scheduler.BusyInterval
		skipped []Skipped
	)
	for _, e := range events {
		if e.Status == StatusCancelled {
			continue
		}
		intervals, err := BusyIntervals(e, loc)
		if err != nil {
			skipped = append(skipped, Skipped{EventID: e.ID, Reason: err.Error(), Err: err})
			continue
		}
		busy = append(busy, intervals...)
	}
	return busy, skipped
}
