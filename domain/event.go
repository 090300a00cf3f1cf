package domain

import (
	"encoding/json"
	"time"
)

// Task event actions.
const (
	ActionCreated         = "created"
	ActionUpdated         = "updated"
	ActionDeleted         = "deleted"
	ActionStatusChanged   = "status_changed"
	ActionPriorityChanged = "priority_changed"
)

// TaskEvent records one mutation of a task for the activity feed. Events
// are journaled in the request path and flushed to durable storage
// asynchronously; losing one never fails the originating operation.
type TaskEvent struct {
	ID        string          `json:"id"`
	TaskID    string          `json:"task_id"`
	ActorID   string          `json:"actor_id"`
	Action    string          `json:"action"`
	Detail    json.RawMessage `json:"detail,omitempty"`
	CreatedAt time.Time       `json:"created_at"`
}
