package service

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"practiceplanner/internal/calendar"
	"practiceplanner/internal/config"
	"practiceplanner/internal/db"
	"practiceplanner/internal/scheduler"
)

type ScheduleService struct {
	events    EventStore
	projects  ProjectStore
	proposals ProposalStore
	cfg       *config.Config
	log       zerolog.Logger

	// Now is the clock used for proposal generation and confirmation.
	Now func() time.Time
}

func NewScheduleService(events EventStore, projects ProjectStore, proposals ProposalStore, cfg *config.Config, logger zerolog.Logger) *ScheduleService {
	return &ScheduleService{
		events:    events,
		projects:  projects,
		proposals: proposals,
		cfg:       cfg,
		log:       logger.With().Str("service", "schedule").Logger(),
		Now:       time.Now,
	}
}

// ComputeSlots runs the scheduler on an explicit request and logs the busy
// intervals it had to drop.
func (s *ScheduleService) ComputeSlots(req scheduler.ScheduleRequest) (scheduler.Result, error) {
	res, err := scheduler.Compute(req)
	if err != nil {
		return res, err
	}
	for _, d := range res.Dropped {
		s.log.Warn().
			Int("index", d.Index).
			Time("start", d.Interval.Start).
			Time("end", d.Interval.End).
			Str("reason", d.Reason).
			Msg("dropped busy interval")
	}
	return res, nil
}

// ProposalBatch is the outcome of one ProposeSessions run.
type ProposalBatch struct {
	BatchID  uuid.UUID                   `json:"batch_id"`
	From     time.Time                   `json:"from"`
	To       time.Time                   `json:"to"`
	Sessions []db.ProposedSession        `json:"sessions"`
	Dropped  []scheduler.DroppedInterval `json:"dropped,omitempty"`
}

// ProposeSessions computes free slots over the configured lookahead using the
// stored events and confirmed sessions as busy time, earmarks them for
// projects that still need hours, and replaces the unconfirmed proposals.
func (s *ScheduleService) ProposeSessions(ctx context.Context) (*ProposalBatch, error) {
	loc := s.cfg.Location
	now := s.Now().In(loc)
	y, m, d := now.Date()
	from := time.Date(y, m, d, 0, 0, 0, 0, loc)
	to := from.AddDate(0, 0, s.cfg.LookaheadDays+1)

	rows, err := s.events.Overlapping(ctx, from, to)
	if err != nil {
		return nil, fmt.Errorf("load events: %w", err)
	}
	confirmed, err := s.proposals.List(ctx, from, to, true)
	if err != nil {
		return nil, fmt.Errorf("load confirmed sessions: %w", err)
	}

	busy := BusyFromEvents(rows, loc)
	for _, p := range confirmed {
		busy = append(busy, scheduler.BusyInterval{Start: p.StartTime, End: p.EndTime})
	}

	res, err := s.ComputeSlots(s.cfg.ScheduleRequest(now, busy))
	if err != nil {
		return nil, err
	}

	budgets, err := s.budgets(ctx, from, to, confirmed)
	if err != nil {
		return nil, err
	}

	batch := &ProposalBatch{BatchID: uuid.New(), From: now, To: to, Dropped: res.Dropped}
	batch.Sessions = assignSlots(res.Slots, budgets, batch.BatchID, now)

	if err := s.proposals.ReplaceUnconfirmed(ctx, now, to, batch.Sessions); err != nil {
		return nil, fmt.Errorf("store proposals: %w", err)
	}

	s.log.Info().
		Str("batch_id", batch.BatchID.String()).
		Int("busy", len(busy)).
		Int("sessions", len(batch.Sessions)).
		Int("dropped", len(batch.Dropped)).
		Msg("proposed sessions")
	return batch, nil
}

func (s *ScheduleService) ListProposals(ctx context.Context, from, to time.Time, confirmedOnly bool) ([]db.ProposedSession, error) {
	return s.proposals.List(ctx, from, to, confirmedOnly)
}

func (s *ScheduleService) ConfirmProposal(ctx context.Context, id uuid.UUID) (*db.ProposedSession, error) {
	p, err := s.proposals.Confirm(ctx, id, s.Now())
	if err != nil {
		return nil, err
	}
	s.log.Info().Str("proposal_id", id.String()).Msg("proposal confirmed")
	return p, nil
}

// Horizon returns the instants covered by the next proposal run.
func (s *ScheduleService) Horizon() (from, to time.Time) {
	now := s.Now().In(s.cfg.Location)
	y, m, d := now.Date()
	return now, time.Date(y, m, d, 0, 0, 0, 0, s.cfg.Location).AddDate(0, 0, s.cfg.LookaheadDays+1)
}

type projectBudget struct {
	project   db.Project
	remaining time.Duration
}

// budgets lists projects that still need time in [from, to), highest
// priority first.
func (s *ScheduleService) budgets(ctx context.Context, from, to time.Time, confirmed []db.ProposedSession) ([]*projectBudget, error) {
	projects, err := s.projects.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("load projects: %w", err)
	}
	hours, err := s.events.HoursByProject(ctx, from, to)
	if err != nil {
		return nil, fmt.Errorf("load project hours: %w", err)
	}

	scheduled := map[int]time.Duration{}
	for _, p := range confirmed {
		if p.ProjectID != nil {
			scheduled[*p.ProjectID] += p.EndTime.Sub(p.StartTime)
		}
	}

	var out []*projectBudget
	for _, p := range projects {
		if p.EstimatedHours == nil || *p.EstimatedHours <= 0 {
			continue
		}
		remaining := time.Duration(*p.EstimatedHours)*time.Hour -
			time.Duration(hours[p.ID]*float64(time.Hour)) -
			scheduled[p.ID]
		if remaining <= 0 {
			continue
		}
		out = append(out, &projectBudget{project: p, remaining: remaining})
	}

	sort.SliceStable(out, func(i, j int) bool {
		pi, pj := out[i].project.Priority, out[j].project.Priority
		switch {
		case pi != nil && pj != nil && *pi != *pj:
			return *pi < *pj
		case pi != nil && pj == nil:
			return true
		case pi == nil && pj != nil:
			return false
		}
		return out[i].project.Name < out[j].project.Name
	})
	return out, nil
}

// assignSlots walks slots in order and gives each to the first project with
// time remaining. Slots left over once every budget is spent stay unassigned.
func assignSlots(slots []scheduler.ProposedSlot, budgets []*projectBudget, batchID uuid.UUID, now time.Time) []db.ProposedSession {
	out := make([]db.ProposedSession, 0, len(slots))
	for _, slot := range slots {
		sess := db.ProposedSession{
			ID:        uuid.New(),
			BatchID:   batchID,
			StartTime: slot.Start,
			EndTime:   slot.End,
			CreatedAt: now,
		}
		for _, b := range budgets {
			if b.remaining <= 0 {
				continue
			}
			id, name := b.project.ID, b.project.Name
			sess.ProjectID = &id
			sess.ProjectName = &name
			b.remaining -= slot.Duration()
			break
		}
		out = append(out, sess)
	}
	return out
}

// BusyFromEvents converts stored events into scheduler input. Rows without a
// start are skipped; timed rows without an end are passed through so the
// scheduler reports them as dropped.
func BusyFromEvents(rows []db.Event, loc *time.Location) []scheduler.BusyInterval {
	var out []scheduler.BusyInterval
	for _, e := range rows {
		if e.StartTime == nil {
			continue
		}
		if e.AllDay {
			var end time.Time
			if e.EndTime != nil {
				end = e.EndTime.In(loc)
			}
			out = append(out, calendar.AllDayIntervals(e.StartTime.In(loc), end)...)
			continue
		}
		b := scheduler.BusyInterval{Start: *e.StartTime}
		if e.EndTime != nil {
			b.End = *e.EndTime
		}
		out = append(out, b)
	}
	return out
}
