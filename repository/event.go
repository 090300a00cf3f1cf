package repository

import (
	"context"

	"github.com/magnetbrain/backend/domain"
)

// EventRepository stores the durable task activity feed. AppendBatch is
// called by the journal flusher; ListByTask serves the activity endpoint.
type EventRepository interface {
	AppendBatch(ctx context.Context, events []domain.TaskEvent) error
	ListByTask(ctx context.Context, taskID string, limit int) ([]domain.TaskEvent, error)
}
