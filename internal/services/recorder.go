package services

import (
	"context"
	"encoding/json"
	"time"

	"github.com/google/uuid"

	"github.com/magnetbrain/backend/domain"
	"github.com/magnetbrain/backend/internal/infrastructure/journal"
	"github.com/magnetbrain/backend/usecase"
)

// JournalRecorder writes task events to the local journal. The flusher
// moves them to durable storage later, so recording stays cheap in the
// request path.
type JournalRecorder struct {
	store *journal.Store
}

func NewJournalRecorder(store *journal.Store) *JournalRecorder {
	return &JournalRecorder{store: store}
}

func (r *JournalRecorder) RecordTaskEvent(ctx context.Context, event domain.TaskEvent) error {
	if r == nil || r.store == nil {
		return domain.ErrInvalidPayload
	}
	if event.ID == "" {
		event.ID = uuid.NewString()
	}
	if event.CreatedAt.IsZero() {
		event.CreatedAt = time.Now()
	}

	payload, err := json.Marshal(event)
	if err != nil {
		return err
	}
	return r.store.Append(journal.Entry{
		ID:        event.ID,
		Data:      payload,
		Timestamp: event.CreatedAt,
	})
}

var _ usecase.ActivityRecorder = (*JournalRecorder)(nil)
