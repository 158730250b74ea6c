package service

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"practiceplanner/internal/calendar"
	"practiceplanner/internal/db"
	apperrors "practiceplanner/internal/errors"
)

const defaultEventListLimit = 50

type EventService struct {
	events EventStore
	loc    *time.Location
	log    zerolog.Logger

	Now func() time.Time
}

func NewEventService(events EventStore, loc *time.Location, logger zerolog.Logger) *EventService {
	return &EventService{
		events: events,
		loc:    loc,
		log:    logger.With().Str("service", "events").Logger(),
		Now:    time.Now,
	}
}

// ImportResult summarises an import. Skipped events were stored when they
// had an id but contribute no busy time.
type ImportResult struct {
	Inserted  int                `json:"inserted"`
	Updated   int                `json:"updated"`
	Cancelled int                `json:"cancelled"`
	Skipped   []calendar.Skipped `json:"skipped"`
}

// Import upserts provider events. Cancelled events are ignored and events
// whose times cannot be read are kept without times and reported.
func (s *EventService) Import(ctx context.Context, events []calendar.Event) (*ImportResult, error) {
	res := &ImportResult{Skipped: []calendar.Skipped{}}
	for _, e := range events {
		if e.Status == calendar.StatusCancelled {
			res.Cancelled++
			continue
		}
		if e.ID == "" {
			res.Skipped = append(res.Skipped, calendar.Skipped{Reason: "missing event id"})
			continue
		}

		row := s.toRow(e)
		if _, err := calendar.BusyIntervals(e, s.loc); err != nil {
			s.log.Warn().Err(err).Str("event_id", e.ID).Msg("event has unusable times")
			res.Skipped = append(res.Skipped, calendar.Skipped{EventID: e.ID, Reason: err.Error(), Err: err})
		}

		inserted, err := s.events.Upsert(ctx, row)
		if err != nil {
			return res, fmt.Errorf("import event %s: %w", e.ID, err)
		}
		if inserted {
			res.Inserted++
		} else {
			res.Updated++
		}
	}

	s.log.Info().
		Int("inserted", res.Inserted).
		Int("updated", res.Updated).
		Int("cancelled", res.Cancelled).
		Int("skipped", len(res.Skipped)).
		Msg("imported events")
	return res, nil
}

// toRow maps a provider event onto a stored row. All-day events are stored
// as midnight to midnight of the exclusive end date.
func (s *EventService) toRow(e calendar.Event) *db.Event {
	row := &db.Event{
		EventID:     e.ID,
		Summary:     e.Summary,
		Description: e.Description,
		Location:    e.Location,
		CalendarID:  e.CalendarID,
	}
	start, allDay, err := calendar.ParseEventTime(e.Start, s.loc)
	if err != nil {
		return row
	}
	row.StartTime = &start
	row.AllDay = allDay

	end, endAllDay, err := calendar.ParseEventTime(e.End, s.loc)
	switch {
	case err == nil && endAllDay == allDay:
		row.EndTime = &end
	case allDay:
		next := start.AddDate(0, 0, 1)
		row.EndTime = &next
	}
	return row
}

func (s *EventService) ListUnclassified(ctx context.Context, limit int, includePast bool) ([]db.Event, error) {
	if limit <= 0 {
		limit = defaultEventListLimit
	}
	return s.events.ListUnclassified(ctx, limit, includePast, s.Now())
}

func (s *EventService) ListClassified(ctx context.Context, limit int) ([]db.Event, error) {
	if limit <= 0 {
		limit = defaultEventListLimit
	}
	return s.events.ListClassified(ctx, limit)
}

// SetProject classifies an event by hand. A nil projectID clears it.
func (s *EventService) SetProject(ctx context.Context, id int, projectID *int) (*db.Event, error) {
	if projectID != nil && *projectID <= 0 {
		return nil, apperrors.ErrBadRequest("project_id must be positive")
	}
	if err := s.events.SetProject(ctx, id, projectID, nil); err != nil {
		return nil, err
	}
	return s.events.Get(ctx, id)
}
