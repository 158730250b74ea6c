package db

import (
	"time"

	"github.com/google/uuid"
)

type Project struct {
	ID             int       `json:"id"`
	Name           string    `json:"name"`
	EstimatedHours *int      `json:"estimated_hours,omitempty"`
	Priority       *int      `json:"priority,omitempty"`
	Description    string    `json:"description,omitempty"`
	CreatedAt      time.Time `json:"created_at"`
}

// Event is a stored calendar event. EventID is the provider's identifier
// and the upsert key; ID is ours.
type Event struct {
	ID                       int        `json:"id"`
	EventID                  string     `json:"event_id"`
	Summary                  string     `json:"summary"`
	Description              string     `json:"description,omitempty"`
	Location                 string     `json:"location,omitempty"`
	CalendarID               string     `json:"calendar_id,omitempty"`
	StartTime                *time.Time `json:"start_time,omitempty"`
	EndTime                  *time.Time `json:"end_time,omitempty"`
	AllDay                   bool       `json:"all_day"`
	ProjectID                *int       `json:"project_id,omitempty"`
	ProjectName              *string    `json:"project_name,omitempty"`
	ClassificationConfidence *float64   `json:"classification_confidence,omitempty"`
	UpdatedAt                time.Time  `json:"updated_at"`
}

// ProposedSession is a slot offered to the user, optionally earmarked for
// a project. Confirmed sessions survive regeneration and purging.
type ProposedSession struct {
	ID          uuid.UUID  `json:"id"`
	BatchID     uuid.UUID  `json:"batch_id"`
	ProjectID   *int       `json:"project_id,omitempty"`
	ProjectName *string    `json:"project_name,omitempty"`
	StartTime   time.Time  `json:"start_time"`
	EndTime     time.Time  `json:"end_time"`
	Confirmed   bool       `json:"confirmed"`
	ConfirmedAt *time.Time `json:"confirmed_at,omitempty"`
	CreatedAt   time.Time  `json:"created_at"`
}

type User struct {
	ID           int
	Email        string
	PasswordHash string
}
