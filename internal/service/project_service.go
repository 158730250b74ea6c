package service

import (
	"context"
	"strings"

	"practiceplanner/internal/db"
	apperrors "practiceplanner/internal/errors"
)

type ProjectService struct {
	repo ProjectStore
}

func NewProjectService(repo ProjectStore) *ProjectService {
	return &ProjectService{repo: repo}
}

func (s *ProjectService) List(ctx context.Context) ([]db.Project, error) {
	return s.repo.List(ctx)
}

func (s *ProjectService) Get(ctx context.Context, id int) (*db.Project, error) {
	return s.repo.Get(ctx, id)
}

func (s *ProjectService) Create(ctx context.Context, p *db.Project) error {
	if err := validateProject(p); err != nil {
		return err
	}
	return s.repo.Create(ctx, p)
}

func (s *ProjectService) Update(ctx context.Context, p *db.Project) error {
	if err := validateProject(p); err != nil {
		return err
	}
	return s.repo.Update(ctx, p)
}

func (s *ProjectService) Delete(ctx context.Context, id int) error {
	return s.repo.Delete(ctx, id)
}

func validateProject(p *db.Project) error {
	p.Name = strings.TrimSpace(p.Name)
	if p.Name == "" {
		return apperrors.ErrBadRequest("project name is required")
	}
	if p.EstimatedHours != nil && *p.EstimatedHours < 0 {
		return apperrors.ErrBadRequest("estimated_hours must not be negative")
	}
	return nil
}
