package api

import (
	"fmt"
	"net/http"
	"sort"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"practiceplanner/internal/calendar"
	"practiceplanner/internal/config"
	"practiceplanner/internal/entities"
	apperrors "practiceplanner/internal/errors"
	"practiceplanner/internal/scheduler"
	"practiceplanner/internal/service"
)

// maxLookaheadDays bounds ad hoc requests to the public endpoint.
const maxLookaheadDays = 366

type SlotsHandler struct {
	schedule *service.ScheduleService
	cfg      *config.Config
	log      zerolog.Logger
}

func NewSlotsHandler(schedule *service.ScheduleService, cfg *config.Config, log zerolog.Logger) *SlotsHandler {
	return &SlotsHandler{schedule: schedule, cfg: cfg, log: log}
}

// Compute answers POST /api/slots with free slots around the busy time in
// the body. Nothing is stored.
func (h *SlotsHandler) Compute(w http.ResponseWriter, r *http.Request) {
	var req entities.SlotsRequest
	if err := decode(r, &req); err != nil {
		writeError(w, r, h.log, err)
		return
	}
	sreq, err := h.scheduleRequest(req)
	if err != nil {
		writeError(w, r, h.log, err)
		return
	}

	busy, origin, dropped := parseBusy(req.Busy, sreq.Location)
	events, skipped := calendar.Normalize(req.Events, sreq.Location)
	for j := range events {
		origin = append(origin, len(req.Busy)+j)
	}
	sreq.Busy = append(busy, events...)

	res, err := h.schedule.ComputeSlots(sreq)
	if err != nil {
		writeError(w, r, h.log, err)
		return
	}
	for _, d := range res.Dropped {
		d.Index = origin[d.Index]
		dropped = append(dropped, d)
	}
	sort.SliceStable(dropped, func(i, j int) bool { return dropped[i].Index < dropped[j].Index })
	res.Dropped = dropped
	if res.Dropped == nil {
		res.Dropped = []scheduler.DroppedInterval{}
	}
	if skipped == nil {
		skipped = []calendar.Skipped{}
	}
	writeJSON(w, http.StatusOK, entities.SlotsResponse{Slots: res.Slots, Dropped: res.Dropped, Skipped: skipped})
}

// scheduleRequest overlays the body on the configured defaults.
func (h *SlotsHandler) scheduleRequest(req entities.SlotsRequest) (scheduler.ScheduleRequest, error) {
	loc := h.cfg.Location
	if req.Timezone != "" {
		l, err := time.LoadLocation(req.Timezone)
		if err != nil {
			return scheduler.ScheduleRequest{}, apperrors.ErrBadRequest("unknown timezone " + req.Timezone)
		}
		loc = l
	}
	now := h.schedule.Now()
	if req.Now != nil {
		now = *req.Now
	}

	sr := h.cfg.ScheduleRequest(now.In(loc), nil)
	sr.Location = loc
	if req.SessionMinutes != nil {
		sr.SessionDuration = time.Duration(*req.SessionMinutes) * time.Minute
	}
	if req.LookaheadDays != nil {
		if *req.LookaheadDays > maxLookaheadDays {
			return scheduler.ScheduleRequest{}, apperrors.ErrBadRequest("lookahead_days must be at most 366")
		}
		sr.LookaheadDays = *req.LookaheadDays
	}
	if req.DayStartHour != nil {
		sr.Window.DayStartHour = *req.DayStartHour
	}
	if req.DayEndHour != nil {
		sr.Window.DayEndHour = *req.DayEndHour
	}
	if req.GranularityMinutes != nil {
		sr.Granularity = time.Duration(*req.GranularityMinutes) * time.Minute
	}
	if req.Mode != "" {
		sr.Mode = scheduler.Mode(req.Mode)
	}

	return sr, nil
}

// parseBusy converts the body's busy entries. Entries with unreadable times
// are returned as dropped; origin maps each returned interval to its entry.
func parseBusy(in []entities.SlotsBusy, loc *time.Location) ([]scheduler.BusyInterval, []int, []scheduler.DroppedInterval) {
	var (
		busy    []scheduler.BusyInterval
		origin  []int
		dropped []scheduler.DroppedInterval
	)
	for i, b := range in {
		start, err := parseBusyTime(b.Start, b.AllDay, loc)
		if err != nil {
			err = fmt.Errorf("%w: start: %v", scheduler.ErrMalformedInterval, err)
			dropped = append(dropped, scheduler.DroppedInterval{Index: i, Err: err, Reason: err.Error()})
			continue
		}
		end, err := parseBusyTime(b.End, b.AllDay, loc)
		if err != nil {
			err = fmt.Errorf("%w: end: %v", scheduler.ErrMalformedInterval, err)
			dropped = append(dropped, scheduler.DroppedInterval{Index: i, Err: err, Reason: err.Error()})
			continue
		}
		busy = append(busy, scheduler.BusyInterval{Start: start, End: end, AllDay: b.AllDay})
		origin = append(origin, i)
	}
	return busy, origin, dropped
}

// parseBusyTime leaves an empty value zero so the scheduler reports it as
// missing.
func parseBusyTime(s string, allDay bool, loc *time.Location) (time.Time, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return time.Time{}, nil
	}
	t, err := time.Parse(time.RFC3339, s)
	if err == nil {
		return t, nil
	}
	if allDay {
		if d, derr := time.ParseInLocation("2006-01-02", s, loc); derr == nil {
			return d, nil
		}
	}
	return time.Time{}, fmt.Errorf("parse %q: %w", s, err)
}
