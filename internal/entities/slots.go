package entities

import (
	"time"

	"practiceplanner/internal/calendar"
	"practiceplanner/internal/scheduler"
)

// SlotsRequest is the body of POST /api/slots. Busy time may be given as
// provider events, as plain intervals, or both. Omitted parameters fall back
// to the server defaults.
type SlotsRequest struct {
	Events             []calendar.Event         `json:"events"`
	Busy               []SlotsBusy              `json:"busy"`
	SessionMinutes     *int                     `json:"session_minutes"`
	LookaheadDays      *int                     `json:"lookahead_days"`
	DayStartHour       *int                     `json:"day_start_hour"`
	DayEndHour         *int                     `json:"day_end_hour"`
	GranularityMinutes *int                     `json:"granularity_minutes"`
	Now                *time.Time               `json:"now"`
	Timezone           string                   `json:"timezone"`
	Mode               string                   `json:"mode"`
}

// SlotsBusy is a plain busy interval as sent by the client. Times stay text
// until the handler parses them, so one unreadable entry is dropped on its own.
// Start and end are RFC 3339; an all-day start may also be a bare date.
type SlotsBusy struct {
	Start  string `json:"start"`
	End    string `json:"end"`
	AllDay bool   `json:"all_day"`
}

// SlotsResponse reports dropped intervals by their position in the request's
// busy list. Intervals taken from events are numbered after it.
type SlotsResponse struct {
	Slots   []scheduler.ProposedSlot    `json:"slots"`
	Dropped []scheduler.DroppedInterval `json:"dropped"`
	Skipped []calendar.Skipped          `json:"skipped"`
}
