package service

import (
	"context"
	"time"

	"github.com/google/uuid"

	"practiceplanner/internal/db"
)

// ProjectStore is satisfied by repository.ProjectRepository.
type ProjectStore interface {
	List(ctx context.Context) ([]db.Project, error)
	Get(ctx context.Context, id int) (*db.Project, error)
	Create(ctx context.Context, p *db.Project) error
	Update(ctx context.Context, p *db.Project) error
	Delete(ctx context.Context, id int) error
}

// EventStore is satisfied by repository.EventRepository.
type EventStore interface {
	Upsert(ctx context.Context, e *db.Event) (bool, error)
	Get(ctx context.Context, id int) (*db.Event, error)
	Overlapping(ctx context.Context, from, to time.Time) ([]db.Event, error)
	ListUnclassified(ctx context.Context, limit int, includePast bool, now time.Time) ([]db.Event, error)
	ListClassified(ctx context.Context, limit int) ([]db.Event, error)
	SetProject(ctx context.Context, id int, projectID *int, confidence *float64) error
	HoursByProject(ctx context.Context, from, to time.Time) (map[int]float64, error)
}

// ProposalStore is satisfied by repository.ProposalRepository.
type ProposalStore interface {
	ReplaceUnconfirmed(ctx context.Context, from, to time.Time, sessions []db.ProposedSession) error
	List(ctx context.Context, from, to time.Time, confirmedOnly bool) ([]db.ProposedSession, error)
	Confirm(ctx context.Context, id uuid.UUID, at time.Time) (*db.ProposedSession, error)
	StaleIDs(ctx context.Context, before time.Time) ([]uuid.UUID, error)
	DeleteByIDs(ctx context.Context, ids []uuid.UUID) (int64, error)
}
