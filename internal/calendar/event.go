// Package calendar converts provider calendar events into scheduler input.
package calendar

import (
	"strings"
	"time"

	"practiceplanner/internal/utils"
)

const StatusCancelled = "cancelled"

// Event mirrors the Google Calendar v3 event resource, limited to the fields
// the planner stores or classifies on.
type Event struct {
	ID          string     `json:"id"`
	Status      string     `json:"status,omitempty"`
	Summary     string     `json:"summary"`
	Description string     `json:"description,omitempty"`
	Location    string     `json:"location,omitempty"`
	CalendarID  string     `json:"calendarId,omitempty"`
	Start       EventTime  `json:"start"`
	End         EventTime  `json:"end"`
	Created     string     `json:"created,omitempty"`
	Updated     string     `json:"updated,omitempty"`
	Creator     *Person    `json:"creator,omitempty"`
	Organizer   *Person    `json:"organizer,omitempty"`
	Attendees   []Attendee `json:"attendees,omitempty"`
	Reminders   *Reminders `json:"reminders,omitempty"`
	EventType   string     `json:"eventType,omitempty"`
	Recurring   string     `json:"recurringEventId,omitempty"`
}

// EventTime holds either a timed instant (DateTime) or an all-day date.
type EventTime struct {
	DateTime string `json:"dateTime,omitempty"`
	Date     string `json:"date,omitempty"`
	TimeZone string `json:"timeZone,omitempty"`
}

type Person struct {
	Email       string `json:"email"`
	DisplayName string `json:"displayName,omitempty"`
	Self        bool   `json:"self,omitempty"`
}

type Attendee struct {
	Email          string `json:"email"`
	DisplayName    string `json:"displayName,omitempty"`
	ResponseStatus string `json:"responseStatus,omitempty"`
	Self           bool   `json:"self,omitempty"`
	Organizer      bool   `json:"organizer,omitempty"`
	Resource       bool   `json:"resource,omitempty"`
}

type Reminders struct {
	UseDefault bool       `json:"useDefault"`
	Overrides  []Reminder `json:"overrides,omitempty"`
}

type Reminder struct {
	Method  string `json:"method"`
	Minutes int    `json:"minutes"`
}

func (e Event) HasReminders() bool {
	return e.Reminders != nil && (e.Reminders.UseDefault || len(e.Reminders.Overrides) > 0)
}

func (e Event) AttendeeEmails() []string {
	out := make([]string, 0, len(e.Attendees))
	for _, a := range e.Attendees {
		out = append(out, a.Email)
	}
	return out
}

// ClassificationInput is the text and context handed to a project classifier.
type ClassificationInput struct {
	EventID      string          `json:"event_id"`
	Text         string          `json:"event"`
	Calendar     string          `json:"calendar"`
	ISOTime      string          `json:"iso_time"`
	DayOfWeek    string          `json:"day_of_week"`
	TimeOfDay    utils.TimeOfDay `json:"time_of_day"`
	Created      string          `json:"created"`
	Updated      string          `json:"updated"`
	Creator      string          `json:"creator"`
	Organizer    string          `json:"organizer"`
	Attendees    string          `json:"attendees"`
	HasReminders bool            `json:"has_reminders"`
	EventType    string          `json:"event_type"`
}

// NewClassificationInput flattens e for a classifier. The start is rendered
// in loc; an unparseable start leaves the time fields empty.
func NewClassificationInput(e Event, loc *time.Location) ClassificationInput {
	in := ClassificationInput{
		EventID:      e.ID,
		Text:         strings.TrimSpace(e.Summary + " " + e.Description),
		Calendar:     e.CalendarID,
		TimeOfDay:    utils.Unknown,
		Created:      e.Created,
		Updated:      e.Updated,
		Attendees:    strings.Join(e.AttendeeEmails(), ", "),
		HasReminders: e.HasReminders(),
		EventType:    e.EventType,
	}
	if in.EventType == "" {
		in.EventType = "default"
	}
	if e.Creator != nil {
		in.Creator = e.Creator.Email
	}
	if e.Organizer != nil {
		in.Organizer = e.Organizer.Email
	}
	if start, _, err := ParseEventTime(e.Start, loc); err == nil {
		in.ISOTime = start.Format(time.RFC3339)
		in.DayOfWeek = start.Weekday().String()
		in.TimeOfDay = utils.TimeOfDayOf(start)
	}
	return in
}
