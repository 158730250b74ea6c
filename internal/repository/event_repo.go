package repository

import (
	"context"
	"database/sql"
	"fmt"
	"strconv"
	"time"

	"practiceplanner/internal/db"
)

type EventRepository struct {
	DB *sql.DB
}

func NewEventRepository(conn *sql.DB) *EventRepository {
	return &EventRepository{DB: conn}
}

const eventSelect = `
	SELECT
		e.id, e.event_id, e.summary, e.description, e.location, e.calendar_id,
		e.start_time, e.end_time, e.all_day, e.project_id, p.name, e.classification_confidence, e.updated_at
	FROM events e
	LEFT JOIN projects p ON p.id = e.project_id`

func scanEvents(rows *sql.Rows) ([]db.Event, error) {
	defer rows.Close()
	var events []db.Event
	for rows.Next() {
		var e db.Event
		err := rows.Scan(
			&e.ID, &e.EventID, &e.Summary, &e.Description, &e.Location, &e.CalendarID,
			&e.StartTime, &e.EndTime, &e.AllDay, &e.ProjectID, &e.ProjectName, &e.ClassificationConfidence, &e.UpdatedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("scan event: %w", err)
		}
		events = append(events, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate events: %w", err)
	}
	return events, nil
}

// Upsert inserts e or, when its provider id is already stored, refreshes the
// descriptive fields and times. Classification is left untouched.
func (r *EventRepository) Upsert(ctx context.Context, e *db.Event) (inserted bool, err error) {
	query := `
		INSERT INTO events (event_id, summary, description, location, calendar_id, start_time, end_time, all_day, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, NOW())
		ON CONFLICT (event_id) DO UPDATE SET
			summary = EXCLUDED.summary,
			description = EXCLUDED.description,
			location = EXCLUDED.location,
			calendar_id = EXCLUDED.calendar_id,
			start_time = EXCLUDED.start_time,
			end_time = EXCLUDED.end_time,
			all_day = EXCLUDED.all_day,
			updated_at = NOW()
		RETURNING id, updated_at, (xmax = 0) AS inserted`
	err = r.DB.QueryRowContext(ctx, query,
		e.EventID, e.Summary, e.Description, e.Location, e.CalendarID, e.StartTime, e.EndTime, e.AllDay,
	).Scan(&e.ID, &e.UpdatedAt, &inserted)
	if err != nil {
		return false, fmt.Errorf("upsert event %s: %w", e.EventID, err)
	}
	return inserted, nil
}

func (r *EventRepository) Get(ctx context.Context, id int) (*db.Event, error) {
	rows, err := r.DB.QueryContext(ctx, eventSelect+` WHERE e.id = $1`, id)
	if err != nil {
		return nil, fmt.Errorf("query event %d: %w", id, err)
	}
	events, err := scanEvents(rows)
	if err != nil {
		return nil, err
	}
	if len(events) == 0 {
		return nil, fmt.Errorf("event %d: %w", id, ErrNotFound)
	}
	return &events[0], nil
}

// Overlapping returns events that may occupy time in [from, to). Rows with a
// start but no end are included so the scheduler can report them.
func (r *EventRepository) Overlapping(ctx context.Context, from, to time.Time) ([]db.Event, error) {
	rows, err := r.DB.QueryContext(ctx, eventSelect+`
	WHERE e.start_time < $2 AND (e.end_time IS NULL OR e.end_time > $1)
	ORDER BY e.start_time`, from, to)
	if err != nil {
		return nil, fmt.Errorf("query events between %s and %s: %w", from.Format(time.RFC3339), to.Format(time.RFC3339), err)
	}
	return scanEvents(rows)
}

// ListUnclassified returns events without a project, soonest first. Unless
// includePast is set, only events starting at or after now are returned.
func (r *EventRepository) ListUnclassified(ctx context.Context, limit int, includePast bool, now time.Time) ([]db.Event, error) {
	query := eventSelect + ` WHERE e.project_id IS NULL`
	args := []interface{}{}
	idx := 1

	if !includePast {
		query += " AND e.start_time >= $" + strconv.Itoa(idx)
		args = append(args, now)
		idx++
	}
	query += " ORDER BY e.start_time ASC NULLS LAST"
	if limit > 0 {
		query += " LIMIT $" + strconv.Itoa(idx)
		args = append(args, limit)
	}

	rows, err := r.DB.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query unclassified events: %w", err)
	}
	return scanEvents(rows)
}

func (r *EventRepository) ListClassified(ctx context.Context, limit int) ([]db.Event, error) {
	rows, err := r.DB.QueryContext(ctx, eventSelect+`
	WHERE e.project_id IS NOT NULL
	ORDER BY e.start_time DESC NULLS LAST
	LIMIT $1`, limit)
	if err != nil {
		return nil, fmt.Errorf("query classified events: %w", err)
	}
	return scanEvents(rows)
}

// SetProject assigns or, with a nil projectID, clears an event's project.
func (r *EventRepository) SetProject(ctx context.Context, id int, projectID *int, confidence *float64) error {
	res, err := r.DB.ExecContext(ctx, `
		UPDATE events SET project_id = $2, classification_confidence = $3, updated_at = NOW()
		WHERE id = $1`, id, projectID, confidence)
	if err != nil {
		if isForeignKeyViolation(err) && projectID != nil {
			return fmt.Errorf("project %d: %w", *projectID, ErrNotFound)
		}
		return fmt.Errorf("update event %d project: %w", id, err)
	}
	return expectOneRow(res, fmt.Sprintf("event %d", id))
}

// HoursByProject sums classified timed event hours per project, clipped to
// [from, to).
func (r *EventRepository) HoursByProject(ctx context.Context, from, to time.Time) (map[int]float64, error) {
	rows, err := r.DB.QueryContext(ctx, `
		SELECT project_id,
			COALESCE(SUM(EXTRACT(EPOCH FROM (LEAST(end_time, $2) - GREATEST(start_time, $1)))) / 3600, 0)
		FROM events
		WHERE project_id IS NOT NULL AND NOT all_day
			AND start_time < $2 AND end_time > $1
		GROUP BY project_id`, from, to)
	if err != nil {
		return nil, fmt.Errorf("query project hours: %w", err)
	}
	defer rows.Close()

	hours := map[int]float64{}
	for rows.Next() {
		var id int
		var h float64
		if err := rows.Scan(&id, &h); err != nil {
			return nil, fmt.Errorf("scan project hours: %w", err)
		}
		hours[id] = h
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate project hours: %w", err)
	}
	return hours, nil
}
