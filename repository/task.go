package repository

import (
	"context"

	"github.com/magnetbrain/backend/domain"
)

// TaskSort selects the ordering of a task listing.
type TaskSort int

const (
	// SortCreatedDesc is the default listing order, newest first.
	SortCreatedDesc TaskSort = iota
	// SortDueDateAsc orders by due date, soonest first ("my tasks").
	SortDueDateAsc
)

// TaskFilter is the pure query description produced by the access
// engine. All non-empty fields are AND conjuncts, except MemberID which
// expands to (assigned_to = MemberID OR created_by = MemberID).
type TaskFilter struct {
	MemberID   string
	AssignedTo string
	Status     string
	Priority   string
	Sort       TaskSort
	Offset     int
	Limit      int
}

// TaskRepository is the persistence contract for tasks. List returns the
// page slice together with the total count of matching records so the
// caller can derive page metadata.
type TaskRepository interface {
	GetByID(ctx context.Context, id string) (*domain.Task, error)
	List(ctx context.Context, filter TaskFilter) ([]domain.Task, int, error)
	Create(ctx context.Context, task *domain.Task) (*domain.Task, error)
	Update(ctx context.Context, id string, patch domain.TaskPatch) (*domain.Task, error)
	Delete(ctx context.Context, id string) error
}
