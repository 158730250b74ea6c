package entities

import "practiceplanner/internal/calendar"

type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type LoginResponse struct {
	Token     string `json:"token"`
	ExpiresIn int64  `json:"expires_in"`
}

type CreateUserRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type ProjectRequest struct {
	Name           string `json:"name"`
	EstimatedHours *int   `json:"estimated_hours"`
	Priority       *int   `json:"priority"`
	Description    string `json:"description"`
}

// EventProjectRequest assigns an event to a project; a null project_id
// clears the assignment.
type EventProjectRequest struct {
	ProjectID *int `json:"project_id"`
}

type ClassifyRequest struct {
	Limit int `json:"limit"`
}

// ImportRequest accepts the body of a Google Calendar events.list response.
type ImportRequest struct {
	Items []calendar.Event `json:"items"`
}
