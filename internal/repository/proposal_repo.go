package repository

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/lib/pq"

	"practiceplanner/internal/db"
)

type ProposalRepository struct {
	DB *sql.DB
}

func NewProposalRepository(conn *sql.DB) *ProposalRepository {
	return &ProposalRepository{DB: conn}
}

const proposalSelect = `
	SELECT s.id, s.batch_id, s.project_id, p.name, s.start_time, s.end_time, s.confirmed, s.confirmed_at, s.created_at
	FROM proposed_sessions s
	LEFT JOIN projects p ON p.id = s.project_id`

func scanProposals(rows *sql.Rows) ([]db.ProposedSession, error) {
	defer rows.Close()
	var out []db.ProposedSession
	for rows.Next() {
		var s db.ProposedSession
		err := rows.Scan(&s.ID, &s.BatchID, &s.ProjectID, &s.ProjectName, &s.StartTime, &s.EndTime, &s.Confirmed, &s.ConfirmedAt, &s.CreatedAt)
		if err != nil {
			return nil, fmt.Errorf("scan proposal: %w", err)
		}
		out = append(out, s)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate proposals: %w", err)
	}
	return out, nil
}

// ReplaceUnconfirmed swaps the unconfirmed proposals starting in [from, to)
// for sessions, in one transaction. Confirmed proposals are kept.
func (r *ProposalRepository) ReplaceUnconfirmed(ctx context.Context, from, to time.Time, sessions []db.ProposedSession) error {
	tx, err := r.DB.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin: %w", err)
	}
	defer tx.Rollback()

	_, err = tx.ExecContext(ctx,
		`DELETE FROM proposed_sessions WHERE NOT confirmed AND start_time >= $1 AND start_time < $2`, from, to)
	if err != nil {
		return fmt.Errorf("delete unconfirmed proposals: %w", err)
	}

	stmt, err := tx.PrepareContext(ctx, `
		INSERT INTO proposed_sessions (id, batch_id, project_id, start_time, end_time, confirmed, created_at)
		VALUES ($1, $2, $3, $4, $5, FALSE, $6)`)
	if err != nil {
		return fmt.Errorf("prepare proposal insert: %w", err)
	}
	defer stmt.Close()

	for _, s := range sessions {
		if _, err := stmt.ExecContext(ctx, s.ID, s.BatchID, s.ProjectID, s.StartTime, s.EndTime, s.CreatedAt); err != nil {
			return fmt.Errorf("insert proposal %s: %w", s.ID, err)
		}
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit proposals: %w", err)
	}
	return nil
}

// List returns proposals starting in [from, to), earliest first.
func (r *ProposalRepository) List(ctx context.Context, from, to time.Time, confirmedOnly bool) ([]db.ProposedSession, error) {
	query := proposalSelect + ` WHERE s.start_time >= $1 AND s.start_time < $2`
	if confirmedOnly {
		query += ` AND s.confirmed`
	}
	query += ` ORDER BY s.start_time`

	rows, err := r.DB.QueryContext(ctx, query, from, to)
	if err != nil {
		return nil, fmt.Errorf("query proposals: %w", err)
	}
	return scanProposals(rows)
}

func (r *ProposalRepository) Confirm(ctx context.Context, id uuid.UUID, at time.Time) (*db.ProposedSession, error) {
	res, err := r.DB.ExecContext(ctx,
		`UPDATE proposed_sessions SET confirmed = TRUE, confirmed_at = $2 WHERE id = $1`, id, at)
	if err != nil {
		return nil, fmt.Errorf("confirm proposal %s: %w", id, err)
	}
	if err := expectOneRow(res, "proposal "+id.String()); err != nil {
		return nil, err
	}

	rows, err := r.DB.QueryContext(ctx, proposalSelect+` WHERE s.id = $1`, id)
	if err != nil {
		return nil, fmt.Errorf("query proposal %s: %w", id, err)
	}
	out, err := scanProposals(rows)
	if err != nil {
		return nil, err
	}
	if len(out) == 0 {
		return nil, fmt.Errorf("proposal %s: %w", id, ErrNotFound)
	}
	return &out[0], nil
}

// StaleIDs returns unconfirmed proposals that ended before the given time.
func (r *ProposalRepository) StaleIDs(ctx context.Context, before time.Time) ([]uuid.UUID, error) {
	rows, err := r.DB.QueryContext(ctx,
		`SELECT id FROM proposed_sessions WHERE NOT confirmed AND end_time < $1`, before)
	if err != nil {
		return nil, fmt.Errorf("query stale proposals: %w", err)
	}
	defer rows.Close()

	var ids []uuid.UUID
	for rows.Next() {
		var id uuid.UUID
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("scan stale proposal id: %w", err)
		}
		ids = append(ids, id)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate stale proposals: %w", err)
	}
	return ids, nil
}

// DeleteByIDs removes the given proposals and reports how many went away.
func (r *ProposalRepository) DeleteByIDs(ctx context.Context, ids []uuid.UUID) (int64, error) {
	if len(ids) == 0 {
		return 0, nil
	}
	strs := make([]string, len(ids))
	for i, id := range ids {
		strs[i] = id.String()
	}
	res, err := r.DB.ExecContext(ctx, `DELETE FROM proposed_sessions WHERE id = ANY($1::uuid[])`, pq.Array(strs))
	if err != nil {
		return 0, fmt.Errorf("delete proposals: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("rows affected: %w", err)
	}
	return n, nil
}
