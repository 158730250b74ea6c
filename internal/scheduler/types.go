package scheduler

import "time"

// Mode selects how many slots are proposed per day.
type Mode string

const (
	// ModeExhaustive fills every free gap of each day window.
	ModeExhaustive Mode = "exhaustive"
	// ModeSinglePerDay proposes at most the first free slot of each day.
	ModeSinglePerDay Mode = "single"
)

// ParseMode maps a config or request value to a Mode. Empty means exhaustive.
func ParseMode(s string) (Mode, bool) {
	switch Mode(s) {
	case "", ModeExhaustive:
		return ModeExhaustive, true
	case ModeSinglePerDay:
		return ModeSinglePerDay, true
	}
	return "", false
}

// BusyInterval is an existing commitment, half-open [Start, End).
type BusyInterval struct {
	Start  time.Time `json:"start"`
	End    time.Time `json:"end"`
	AllDay bool      `json:"all_day,omitempty"`
}

// Window is the time-of-day range in which sessions may be placed.
type Window struct {
	DayStartHour int `json:"day_start_hour"`
	DayEndHour   int `json:"day_end_hour"`
}

type ScheduleRequest struct {
	Busy            []BusyInterval
	SessionDuration time.Duration
	LookaheadDays   int
	Window          Window
	Now             time.Time

	// Location is the zone days are computed in. Nil uses Now's location.
	Location *time.Location
	Mode     Mode
	// Granularity rounds the start of today's scan up to a clock multiple.
	Granularity time.Duration
}

// ProposedSlot is a free interval of exactly the session duration.
type ProposedSlot struct {
	Start time.Time `json:"start"`
	End   time.Time `json:"end"`
}

// Duration returns End - Start.
func (s ProposedSlot) Duration() time.Duration {
	return s.End.Sub(s.Start)
}

// Overlaps reports whether s and [start, end) share any instant.
func (s ProposedSlot) Overlaps(start, end time.Time) bool {
	return s.Start.Before(end) && s.End.After(start)
}

// DroppedInterval records a busy interval that was left out of the scan.
type DroppedInterval struct {
	Index    int          `json:"index"`
	Interval BusyInterval `json:"interval"`
	Err      error        `json:"-"`
	Reason   string       `json:"reason"`
}

type Result struct {
	Slots   []ProposedSlot    `json:"slots"`
	Dropped []DroppedInterval `json:"dropped,omitempty"`
}
