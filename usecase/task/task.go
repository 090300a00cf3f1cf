package task

import (
	"context"
	"encoding/json"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/magnetbrain/backend/domain"
	"github.com/magnetbrain/backend/repository"
	"github.com/magnetbrain/backend/usecase"
)

// UseCase implements every task operation: the permission check, the
// query scoping, the store call, and the read-time enrichment with user
// summaries.
type UseCase struct {
	tasks    repository.TaskRepository
	users    repository.UserRepository
	events   repository.EventRepository
	recorder usecase.ActivityRecorder
	logger   *zap.Logger
}

func New(
	tasks repository.TaskRepository,
	users repository.UserRepository,
	events repository.EventRepository,
	recorder usecase.ActivityRecorder,
	logger *zap.Logger,
) *UseCase {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &UseCase{
		tasks:    tasks,
		users:    users,
		events:   events,
		recorder: recorder,
		logger:   logger,
	}
}

// CreateInput carries the client-supplied fields for a new task.
// CreatedBy is never part of it; the creating principal is forced in.
type CreateInput struct {
	Title       string
	Description string
	DueDate     time.Time
	Priority    string
	AssignedTo  string
}

// Create stores a new task. Any authenticated principal may create one
// and may name any assignee; an empty assignee self-assigns.
func (uc *UseCase) Create(ctx context.Context, p domain.Principal, in CreateInput) (*domain.Task, error) {
	task := &domain.Task{
		Title:       in.Title,
		Description: in.Description,
		Status:      domain.StatusPending,
		Priority:    in.Priority,
		DueDate:     in.DueDate,
		CreatedBy:   p.ID,
		AssignedTo:  in.AssignedTo,
	}
	if in.AssignedTo != "" {
		if _, err := uuid.Parse(in.AssignedTo); err != nil {
			return nil, domain.ErrInvalidAssignee
		}
	}
	if task.AssignedTo == "" {
		task.AssignedTo = p.ID
	}
	if err := task.ValidateNew(); err != nil {
		return nil, err
	}

	created, err := uc.tasks.Create(ctx, task)
	if err != nil {
		return nil, err
	}

	uc.record(ctx, p, created.ID, domain.ActionCreated, map[string]string{"title": created.Title})
	uc.enrich(ctx, created)
	return created, nil
}

// Get returns a single task. Existence is checked before permission, so
// an unknown id reads as not found even for principals who could never
// have seen it.
func (uc *UseCase) Get(ctx context.Context, p domain.Principal, id string) (*domain.Task, error) {
	task, err := uc.load(ctx, id)
	if err != nil {
		return nil, err
	}
	if !domain.CanViewTask(p, task) {
		return nil, domain.ErrAccessDenied
	}
	uc.enrich(ctx, task)
	return task, nil
}

// List returns the role-scoped collection with optional status, priority
// and (admin only) assignee filters.
func (uc *UseCase) List(ctx context.Context, p domain.Principal, q ListQuery) ([]domain.Task, Pagination, error) {
	if err := q.validate(); err != nil {
		return nil, Pagination{}, err
	}

	tasks, total, err := uc.tasks.List(ctx, buildFilter(p, q))
	if err != nil {
		return nil, Pagination{}, err
	}
	uc.enrichAll(ctx, tasks)
	return tasks, paginate(q, len(tasks), total), nil
}

// ListMine returns only tasks assigned to the principal, ordered by due
// date ascending.
func (uc *UseCase) ListMine(ctx context.Context, p domain.Principal, q ListQuery) ([]domain.Task, Pagination, error) {
	if err := q.validate(); err != nil {
		return nil, Pagination{}, err
	}

	tasks, total, err := uc.tasks.List(ctx, buildMineFilter(p, q))
	if err != nil {
		return nil, Pagination{}, err
	}
	uc.enrichAll(ctx, tasks)
	return tasks, paginate(q, len(tasks), total), nil
}

// Update applies a partial edit. Only admins and the creator qualify;
// omitted fields keep their stored values.
func (uc *UseCase) Update(ctx context.Context, p domain.Principal, id string, patch domain.TaskPatch) (*domain.Task, error) {
	if err := patch.Validate(); err != nil {
		return nil, err
	}
	if patch.AssignedTo != nil {
		if _, err := uuid.Parse(*patch.AssignedTo); err != nil {
			return nil, domain.ErrInvalidAssignee
		}
	}

	task, err := uc.load(ctx, id)
	if err != nil {
		return nil, err
	}
	if !domain.CanEditTask(p, task) {
		return nil, domain.ErrAccessDenied
	}

	updated, err := uc.tasks.Update(ctx, id, patch)
	if err != nil {
		return nil, err
	}

	uc.record(ctx, p, id, domain.ActionUpdated, patchDetail(patch))
	uc.enrich(ctx, updated)
	return updated, nil
}

// Delete removes a task under the same rule as Update.
func (uc *UseCase) Delete(ctx context.Context, p domain.Principal, id string) error {
	task, err := uc.load(ctx, id)
	if err != nil {
		return err
	}
	if !domain.CanDeleteTask(p, task) {
		return domain.ErrAccessDenied
	}

	if err := uc.tasks.Delete(ctx, id); err != nil {
		return err
	}
	uc.record(ctx, p, id, domain.ActionDeleted, nil)
	return nil
}

// SetStatus is the narrow transition the assignee is allowed to make.
// Any status is reachable from any status.
func (uc *UseCase) SetStatus(ctx context.Context, p domain.Principal, id, status string) (*domain.Task, error) {
	if !domain.ValidStatus(status) {
		return nil, domain.NewError(domain.ErrCodeInvalid, "status must be pending, in-progress, or completed")
	}

	task, err := uc.load(ctx, id)
	if err != nil {
		return nil, err
	}
	if !domain.CanChangeStatus(p, task) {
		return nil, domain.ErrAccessDenied
	}

	updated, err := uc.tasks.Update(ctx, id, domain.TaskPatch{Status: &status})
	if err != nil {
		return nil, err
	}

	uc.record(ctx, p, id, domain.ActionStatusChanged, map[string]string{"status": status})
	uc.enrich(ctx, updated)
	return updated, nil
}

// SetPriority is restricted to admins and the creator, unlike SetStatus.
func (uc *UseCase) SetPriority(ctx context.Context, p domain.Principal, id, priority string) (*domain.Task, error) {
	if !domain.ValidPriority(priority) {
		return nil, domain.NewError(domain.ErrCodeInvalid, "priority must be low, medium, or high")
	}

	task, err := uc.load(ctx, id)
	if err != nil {
		return nil, err
	}
	if !domain.CanChangePriority(p, task) {
		return nil, domain.ErrAccessDenied
	}

	updated, err := uc.tasks.Update(ctx, id, domain.TaskPatch{Priority: &priority})
	if err != nil {
		return nil, err
	}

	uc.record(ctx, p, id, domain.ActionPriorityChanged, map[string]string{"priority": priority})
	uc.enrich(ctx, updated)
	return updated, nil
}

// Activity lists the durable event feed of a task, gated by the same
// rule as a single read.
func (uc *UseCase) Activity(ctx context.Context, p domain.Principal, id string, limit int) ([]domain.TaskEvent, error) {
	task, err := uc.load(ctx, id)
	if err != nil {
		return nil, err
	}
	if !domain.CanViewTask(p, task) {
		return nil, domain.ErrAccessDenied
	}
	if uc.events == nil {
		return nil, nil
	}
	return uc.events.ListByTask(ctx, id, limit)
}

// load normalizes malformed identifiers before touching the store so a
// driver-level cast error never leaks to the caller.
func (uc *UseCase) load(ctx context.Context, id string) (*domain.Task, error) {
	if _, err := uuid.Parse(id); err != nil {
		return nil, domain.ErrInvalidTaskID
	}
	return uc.tasks.GetByID(ctx, id)
}

func (uc *UseCase) record(ctx context.Context, p domain.Principal, taskID, action string, detail map[string]string) {
	if uc.recorder == nil {
		return
	}
	event := domain.TaskEvent{
		TaskID:    taskID,
		ActorID:   p.ID,
		Action:    action,
		CreatedAt: time.Now(),
	}
	if len(detail) > 0 {
		if payload, err := json.Marshal(detail); err == nil {
			event.Detail = payload
		}
	}
	if err := uc.recorder.RecordTaskEvent(ctx, event); err != nil {
		uc.logger.Warn("failed to journal task event",
			zap.String("task_id", taskID),
			zap.String("action", action),
			zap.Error(err))
	}
}

func (uc *UseCase) enrich(ctx context.Context, tasks ...*domain.Task) {
	ids := make([]string, 0, len(tasks)*2)
	for _, t := range tasks {
		if t == nil {
			continue
		}
		ids = append(ids, t.AssignedTo, t.CreatedBy)
	}

	summaries, err := uc.users.Summaries(ctx, dedupe(ids))
	if err != nil {
		uc.logger.Warn("user summary lookup failed", zap.Error(err))
		return
	}

	for _, t := range tasks {
		if t == nil {
			continue
		}
		if s, ok := summaries[t.AssignedTo]; ok {
			assignee := s
			t.Assignee = &assignee
		}
		if s, ok := summaries[t.CreatedBy]; ok {
			creator := s
			t.Creator = &creator
		}
	}
}

func (uc *UseCase) enrichAll(ctx context.Context, tasks []domain.Task) {
	refs := make([]*domain.Task, len(tasks))
	for i := range tasks {
		refs[i] = &tasks[i]
	}
	uc.enrich(ctx, refs...)
}

func patchDetail(patch domain.TaskPatch) map[string]string {
	detail := make(map[string]string)
	if patch.Title != nil {
		detail["title"] = *patch.Title
	}
	if patch.Status != nil {
		detail["status"] = *patch.Status
	}
	if patch.Priority != nil {
		detail["priority"] = *patch.Priority
	}
	if patch.AssignedTo != nil {
		detail["assigned_to"] = *patch.AssignedTo
	}
	return detail
}

func dedupe(ids []string) []string {
	seen := make(map[string]struct{}, len(ids))
	out := ids[:0]
	for _, id := range ids {
		if id == "" {
			continue
		}
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		out = append(out, id)
	}
	return out
}
