package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"practiceplanner/internal/db"
)

type ProjectRepository struct {
	DB *sql.DB
}

func NewProjectRepository(conn *sql.DB) *ProjectRepository {
	return &ProjectRepository{DB: conn}
}

const projectColumns = `id, name, estimated_hours, priority, description, created_at`

func (r *ProjectRepository) List(ctx context.Context) ([]db.Project, error) {
	rows, err := r.DB.QueryContext(ctx, `SELECT `+projectColumns+` FROM projects ORDER BY name`)
	if err != nil {
		return nil, fmt.Errorf("query projects: %w", err)
	}
	defer rows.Close()

	var projects []db.Project
	for rows.Next() {
		var p db.Project
		if err := rows.Scan(&p.ID, &p.Name, &p.EstimatedHours, &p.Priority, &p.Description, &p.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan project: %w", err)
		}
		projects = append(projects, p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate projects: %w", err)
	}
	return projects, nil
}

func (r *ProjectRepository) Get(ctx context.Context, id int) (*db.Project, error) {
	var p db.Project
	err := r.DB.QueryRowContext(ctx, `SELECT `+projectColumns+` FROM projects WHERE id = $1`, id).
		Scan(&p.ID, &p.Name, &p.EstimatedHours, &p.Priority, &p.Description, &p.CreatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("project %d: %w", id, ErrNotFound)
		}
		return nil, fmt.Errorf("query project %d: %w", id, err)
	}
	return &p, nil
}

func (r *ProjectRepository) Create(ctx context.Context, p *db.Project) error {
	err := r.DB.QueryRowContext(ctx, `
		INSERT INTO projects (name, estimated_hours, priority, description)
		VALUES ($1, $2, $3, $4)
		RETURNING id, created_at`,
		p.Name, p.EstimatedHours, p.Priority, p.Description,
	).Scan(&p.ID, &p.CreatedAt)
	if err != nil {
		if isUniqueViolation(err) {
			return fmt.Errorf("project %q: %w", p.Name, ErrConflict)
		}
		return fmt.Errorf("insert project: %w", err)
	}
	return nil
}

func (r *ProjectRepository) Update(ctx context.Context, p *db.Project) error {
	res, err := r.DB.ExecContext(ctx, `
		UPDATE projects
		SET name = $2, estimated_hours = $3, priority = $4, description = $5
		WHERE id = $1`,
		p.ID, p.Name, p.EstimatedHours, p.Priority, p.Description,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return fmt.Errorf("project %q: %w", p.Name, ErrConflict)
		}
		return fmt.Errorf("update project %d: %w", p.ID, err)
	}
	return expectOneRow(res, fmt.Sprintf("project %d", p.ID))
}

func (r *ProjectRepository) Delete(ctx context.Context, id int) error {
	res, err := r.DB.ExecContext(ctx, `DELETE FROM projects WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete project %d: %w", id, err)
	}
	return expectOneRow(res, fmt.Sprintf("project %d", id))
}

func expectOneRow(res sql.Result, what string) error {
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("%s: rows affected: %w", what, err)
	}
	if n == 0 {
		return fmt.Errorf("%s: %w", what, ErrNotFound)
	}
	return nil
}
