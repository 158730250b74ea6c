package utils

import "time"

type TimeOfDay string

const (
	Morning   TimeOfDay = "morning"
	Afternoon TimeOfDay = "afternoon"
	Evening   TimeOfDay = "evening"
	Unknown   TimeOfDay = "unknown"
)

// TimeOfDayOf buckets t by its hour in t's own location.
// Morning is 05-11, afternoon 12-16, anything else evening.
func TimeOfDayOf(t time.Time) TimeOfDay {
	if t.IsZero() {
		return Unknown
	}
	switch h := t.Hour(); {
	case h >= 5 && h < 12:
		return Morning
	case h >= 12 && h < 17:
		return Afternoon
	default:
		return Evening
	}
}
