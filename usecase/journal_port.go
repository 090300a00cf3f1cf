package usecase

import (
	"context"

	"github.com/magnetbrain/backend/domain"
)

// ActivityRecorder abstracts the journal so use cases stay storage-agnostic.
// Recording is best-effort: a journaling failure never fails the
// operation that produced the event.
type ActivityRecorder interface {
	RecordTaskEvent(ctx context.Context, event domain.TaskEvent) error
}
