package service

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"practiceplanner/internal/db"
	"practiceplanner/internal/repository"
)

type fakeProjects struct {
	projects []db.Project
	err      error
}

func (f *fakeProjects) List(context.Context) ([]db.Project, error) { return f.projects, f.err }

func (f *fakeProjects) Get(_ context.Context, id int) (*db.Project, error) {
	for i := range f.projects {
		if f.projects[i].ID == id {
			return &f.projects[i], nil
		}
	}
	return nil, fmt.Errorf("project %d: %w", id, repository.ErrNotFound)
}

func (f *fakeProjects) Create(_ context.Context, p *db.Project) error {
	p.ID = len(f.projects) + 1
	f.projects = append(f.projects, *p)
	return nil
}

func (f *fakeProjects) Update(_ context.Context, p *db.Project) error {
	for i := range f.projects {
		if f.projects[i].ID == p.ID {
			f.projects[i] = *p
			return nil
		}
	}
	return repository.ErrNotFound
}

func (f *fakeProjects) Delete(context.Context, int) error { return nil }

type setProjectCall struct {
	id         int
	projectID  *int
	confidence *float64
}

type fakeEvents struct {
	rows     []db.Event
	hours    map[int]float64
	upserted []db.Event
	existing map[string]bool
	set      []setProjectCall
}

func (f *fakeEvents) Upsert(_ context.Context, e *db.Event) (bool, error) {
	f.upserted = append(f.upserted, *e)
	return !f.existing[e.EventID], nil
}

func (f *fakeEvents) Get(_ context.Context, id int) (*db.Event, error) {
	for i := range f.rows {
		if f.rows[i].ID == id {
			return &f.rows[i], nil
		}
	}
	return nil, repository.ErrNotFound
}

func (f *fakeEvents) Overlapping(_ context.Context, from, to time.Time) ([]db.Event, error) {
	return f.rows, nil
}

func (f *fakeEvents) ListUnclassified(_ context.Context, limit int, _ bool, _ time.Time) ([]db.Event, error) {
	var out []db.Event
	for _, e := range f.rows {
		if e.ProjectID == nil && len(out) < limit {
			out = append(out, e)
		}
	}
	return out, nil
}

func (f *fakeEvents) ListClassified(context.Context, int) ([]db.Event, error) { return nil, nil }

func (f *fakeEvents) SetProject(_ context.Context, id int, projectID *int, confidence *float64) error {
	f.set = append(f.set, setProjectCall{id, projectID, confidence})
	for i := range f.rows {
		if f.rows[i].ID == id {
			f.rows[i].ProjectID = projectID
			return nil
		}
	}
	return repository.ErrNotFound
}

func (f *fakeEvents) HoursByProject(context.Context, time.Time, time.Time) (map[int]float64, error) {
	return f.hours, nil
}

type fakeProposals struct {
	mu        sync.Mutex
	sessions  []db.ProposedSession
	replaced  [][2]time.Time
	deleted   []uuid.UUID
	confirmAt time.Time
}

func (f *fakeProposals) ReplaceUnconfirmed(_ context.Context, from, to time.Time, sessions []db.ProposedSession) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.replaced = append(f.replaced, [2]time.Time{from, to})
	kept := f.sessions[:0]
	for _, s := range f.sessions {
		if s.Confirmed || s.StartTime.Before(from) || !s.StartTime.Before(to) {
			kept = append(kept, s)
		}
	}
	f.sessions = append(kept, sessions...)
	return nil
}

func (f *fakeProposals) List(_ context.Context, from, to time.Time, confirmedOnly bool) ([]db.ProposedSession, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []db.ProposedSession
	for _, s := range f.sessions {
		if s.StartTime.Before(from) || !s.StartTime.Before(to) || (confirmedOnly && !s.Confirmed) {
			continue
		}
		out = append(out, s)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].StartTime.Before(out[j].StartTime) })
	return out, nil
}

func (f *fakeProposals) Confirm(_ context.Context, id uuid.UUID, at time.Time) (*db.ProposedSession, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for i := range f.sessions {
		if f.sessions[i].ID == id {
			f.sessions[i].Confirmed = true
			f.sessions[i].ConfirmedAt = &at
			f.confirmAt = at
			s := f.sessions[i]
			return &s, nil
		}
	}
	return nil, repository.ErrNotFound
}

func (f *fakeProposals) StaleIDs(_ context.Context, before time.Time) ([]uuid.UUID, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var ids []uuid.UUID
	for _, s := range f.sessions {
		if !s.Confirmed && s.EndTime.Before(before) {
			ids = append(ids, s.ID)
		}
	}
	return ids, nil
}

func (f *fakeProposals) DeleteByIDs(_ context.Context, ids []uuid.UUID) (int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	drop := map[uuid.UUID]bool{}
	for _, id := range ids {
		drop[id] = true
	}
	kept := f.sessions[:0]
	for _, s := range f.sessions {
		if !drop[s.ID] {
			kept = append(kept, s)
		}
	}
	n := int64(len(f.sessions) - len(kept))
	f.sessions = kept
	f.deleted = append(f.deleted, ids...)
	return n, nil
}

func intPtr(v int) *int { return &v }

func timePtr(t time.Time) *time.Time { return &t }
