package postgres

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/fastygo/tasktracker/domain"
	"github.com/fastygo/tasktracker/repository"
)

type eventRepository struct {
	pool *pgxpool.Pool
}

// NewEventRepository returns the Postgres-backed task activity journal.
func NewEventRepository(pool *pgxpool.Pool) repository.EventRepository {
	return &eventRepository{pool: pool}
}

// Append is idempotent on event ID so replays from the buffer are harmless.
func (r *eventRepository) Append(ctx context.Context, event domain.TaskEvent) error {
	const query = `
	INSERT INTO task_events (id, task_id, user_id, name, payload, occurred_at)
	VALUES ($1, $2, $3, $4, $5, COALESCE($6, NOW()))
	ON CONFLICT (id) DO NOTHING
	`

	var payload []byte
	if len(event.Payload) > 0 {
		payload = []byte(event.Payload)
	}

	if _, err := r.pool.Exec(ctx, query,
		event.ID,
		event.TaskID,
		event.UserID,
		string(event.Name),
		payload,
		nullTime(event.OccurredAt),
	); err != nil {
		return fmt.Errorf("append task event: %w", err)
	}
	return nil
}

func (r *eventRepository) ListByTask(ctx context.Context, taskID int64, limit int) ([]domain.TaskEvent, error) {
	const query = `
	SELECT id, task_id, user_id, name, payload, occurred_at
	FROM task_events
	WHERE task_id = $1
	ORDER BY occurred_at ASC
	LIMIT $2
	`
	rows, err := r.pool.Query(ctx, query, taskID, clampLimit(limit))
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var events []domain.TaskEvent
	for rows.Next() {
		var (
			event   domain.TaskEvent
			name    string
			payload []byte
		)
		if err := rows.Scan(&event.ID, &event.TaskID, &event.UserID, &name, &payload, &event.OccurredAt); err != nil {
			return nil, err
		}
		event.Name = domain.TaskEventName(name)
		event.Payload = payload
		events = append(events, event)
	}
	return events, rows.Err()
}

func clampLimit(limit int) int {
	if limit <= 0 || limit > 100 {
		return 100
	}
	return limit
}
