package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"

	"github.com/comebin/ecobin-bot/internal/domain"
)

// EventRepository defines read operations over community events.
type EventRepository interface {
	List(ctx context.Context) ([]*domain.Event, error)
	FindByID(ctx context.Context, id int64) (*domain.Event, error)
}

type eventRepository struct {
	db  *sql.DB
	log *slog.Logger
}

// NewEventRepository creates a new SQL-backed event repository.
func NewEventRepository(db *sql.DB, log *slog.Logger) EventRepository {
	return &eventRepository{
		db:  db,
		log: log,
	}
}

// List returns all events ordered by date.
func (r *eventRepository) List(ctx context.Context) ([]*domain.Event, error) {
	const query = `
		SELECT id, name, description, date, poster_url
		FROM events
		ORDER BY date
	`

	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		if r.log != nil {
			r.log.Error("failed to list events", slog.Any("error", err))
		}
		return nil, fmt.Errorf("select events: %w", err)
	}
	defer rows.Close()

	var events []*domain.Event
	for rows.Next() {
		var event domain.Event
		if err := rows.Scan(
			&event.ID,
			&event.Name,
			&event.Description,
			&event.Date,
			&event.PosterURL,
		); err != nil {
			return nil, fmt.Errorf("scan event row: %w", err)
		}
		events = append(events, &event)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate event rows: %w", err)
	}

	return events, nil
}

// FindByID returns a single event or sql.ErrNoRows.
func (r *eventRepository) FindByID(ctx context.Context, id int64) (*domain.Event, error) {
	const query = `
		SELECT id, name, description, date, poster_url
		FROM events
		WHERE id = $1
	`

	var event domain.Event
	if err := r.db.QueryRowContext(ctx, query, id).Scan(
		&event.ID,
		&event.Name,
		&event.Description,
		&event.Date,
		&event.PosterURL,
	); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, sql.ErrNoRows
		}

		if r.log != nil {
			r.log.Error("failed to fetch event", slog.Int64("event_id", id), slog.Any("error", err))
		}
		return nil, fmt.Errorf("select event by id: %w", err)
	}

	return &event, nil
}
