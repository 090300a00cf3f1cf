package postgres

import (
	"context"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/magnetbrain/backend/domain"
	"github.com/magnetbrain/backend/repository"
)

type eventRepository struct {
	pool *pgxpool.Pool
}

// NewEventRepository creates a Postgres-backed EventRepository implementation.
func NewEventRepository(pool *pgxpool.Pool) repository.EventRepository {
	return &eventRepository{pool: pool}
}

func (r *eventRepository) AppendBatch(ctx context.Context, events []domain.TaskEvent) error {
	if len(events) == 0 {
		return nil
	}

	const query = `
	INSERT INTO task_events (id, task_id, actor_id, action, detail, created_at)
	VALUES ($1, $2, $3, $4, $5, $6)
	ON CONFLICT (id) DO NOTHING
	`

	batch := &pgx.Batch{}
	for _, event := range events {
		if event.ID == "" {
			event.ID = uuid.NewString()
		}
		var detail interface{}
		if len(event.Detail) > 0 {
			detail = []byte(event.Detail)
		}
		batch.Queue(query, event.ID, event.TaskID, event.ActorID, event.Action, detail, event.CreatedAt)
	}

	results := r.pool.SendBatch(ctx, batch)
	defer results.Close()

	for range events {
		if _, err := results.Exec(); err != nil {
			return err
		}
	}
	return nil
}

func (r *eventRepository) ListByTask(ctx context.Context, taskID string, limit int) ([]domain.TaskEvent, error) {
	const query = `
	SELECT id, task_id, actor_id, action, detail, created_at
	FROM task_events
	WHERE task_id = $1
	ORDER BY created_at DESC
	LIMIT $2
	`
	rows, err := r.pool.Query(ctx, query, taskID, clampLimit(limit))
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var events []domain.TaskEvent
	for rows.Next() {
		var event domain.TaskEvent
		var detail []byte
		if err := rows.Scan(&event.ID, &event.TaskID, &event.ActorID, &event.Action, &detail, &event.CreatedAt); err != nil {
			return nil, err
		}
		if len(detail) > 0 {
			event.Detail = append(event.Detail[:0], detail...)
		}
		events = append(events, event)
	}
	return events, rows.Err()
}
