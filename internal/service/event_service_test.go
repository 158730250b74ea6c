package service

import (
	"context"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"practiceplanner/internal/calendar"
	"practiceplanner/internal/db"
	apperrors "practiceplanner/internal/errors"
	"practiceplanner/internal/repository"
)

func TestImportEvents(t *testing.T) {
	events := &fakeEvents{existing: map[string]bool{"b": true}}
	svc := NewEventService(events, time.UTC, zerolog.Nop())

	res, err := svc.Import(context.Background(), []calendar.Event{
		{ID: "a", Summary: "Standup", Start: calendar.EventTime{DateTime: "2026-03-10T09:00:00Z"}, End: calendar.EventTime{DateTime: "2026-03-10T09:15:00Z"}},
		{ID: "b", Summary: "Review", Start: calendar.EventTime{DateTime: "2026-03-10T10:00:00Z"}, End: calendar.EventTime{DateTime: "2026-03-10T11:00:00Z"}},
		{ID: "c", Status: calendar.StatusCancelled},
		{Summary: "No id"},
		{ID: "d", Summary: "Broken", Start: calendar.EventTime{DateTime: "soon"}},
		{ID: "e", Summary: "Holiday", Start: calendar.EventTime{Date: "2026-03-11"}},
	})
	require.NoError(t, err)

	assert.Equal(t, 3, res.Inserted)
	assert.Equal(t, 1, res.Updated)
	assert.Equal(t, 1, res.Cancelled)
	require.Len(t, res.Skipped, 2)
	assert.Equal(t, "d", res.Skipped[1].EventID)

	require.Len(t, events.upserted, 4)
	broken := events.upserted[2]
	assert.Nil(t, broken.StartTime)
	assert.Nil(t, broken.EndTime)

	holiday := events.upserted[3]
	assert.True(t, holiday.AllDay)
	assert.Equal(t, time.Date(2026, 3, 11, 0, 0, 0, 0, time.UTC), *holiday.StartTime)
	assert.Equal(t, time.Date(2026, 3, 12, 0, 0, 0, 0, time.UTC), *holiday.EndTime)
}

func TestImportedRowsRoundTripToBusy(t *testing.T) {
	events := &fakeEvents{}
	svc := NewEventService(events, time.UTC, zerolog.Nop())
	_, err := svc.Import(context.Background(), []calendar.Event{
		{ID: "trip", Start: calendar.EventTime{Date: "2026-03-10"}, End: calendar.EventTime{Date: "2026-03-13"}},
	})
	require.NoError(t, err)

	busy := BusyFromEvents(events.upserted, time.UTC)
	assert.Len(t, busy, 3)
}

func TestSetProjectManually(t *testing.T) {
	events := &fakeEvents{rows: []db.Event{{ID: 4, Summary: "Practice"}}}
	svc := NewEventService(events, time.UTC, zerolog.Nop())

	e, err := svc.SetProject(context.Background(), 4, intPtr(2))
	require.NoError(t, err)
	assert.Equal(t, 2, *e.ProjectID)
	require.Len(t, events.set, 1)
	assert.Nil(t, events.set[0].confidence)

	_, err = svc.SetProject(context.Background(), 99, nil)
	assert.ErrorIs(t, err, repository.ErrNotFound)

	_, err = svc.SetProject(context.Background(), 4, intPtr(-1))
	var httpErr *apperrors.HTTPError
	require.ErrorAs(t, err, &httpErr)
	assert.Equal(t, 400, httpErr.Code)
}

func TestProjectServiceValidation(t *testing.T) {
	repo := &fakeProjects{}
	svc := NewProjectService(repo)

	var httpErr *apperrors.HTTPError
	err := svc.Create(context.Background(), &db.Project{Name: "   "})
	require.ErrorAs(t, err, &httpErr)

	err = svc.Create(context.Background(), &db.Project{Name: "Piano", EstimatedHours: intPtr(-2)})
	require.ErrorAs(t, err, &httpErr)

	p := &db.Project{Name: "  Piano ", EstimatedHours: intPtr(10)}
	require.NoError(t, svc.Create(context.Background(), p))
	assert.Equal(t, "Piano", p.Name)
	assert.Equal(t, 1, p.ID)

	p.Name = "Grand piano"
	require.NoError(t, svc.Update(context.Background(), p))
	got, err := svc.Get(context.Background(), 1)
	require.NoError(t, err)
	assert.Equal(t, "Grand piano", got.Name)
}
