package postgres

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/magnetbrain/backend/domain"
	"github.com/magnetbrain/backend/repository"
)

const taskColumns = `id, title, description, status, priority, due_date, created_by, assigned_to, completed_at, created_at, updated_at`

type taskRepository struct {
	pool *pgxpool.Pool
}

// NewTaskRepository returns a Postgres-backed implementation of TaskRepository.
func NewTaskRepository(pool *pgxpool.Pool) repository.TaskRepository {
	return &taskRepository{pool: pool}
}

func (r *taskRepository) GetByID(ctx context.Context, id string) (*domain.Task, error) {
	const query = `
	SELECT ` + taskColumns + `
	FROM tasks
	WHERE id = $1
	`
	row := r.pool.QueryRow(ctx, query, id)
	return scanTask(row)
}

// assigned_to and created_by are uuid columns, so the scope parameters
// are pinned to uuid and disabled with NULL. Comparing them to '' would
// fix the parameter type as text at parse time and the statement would
// not plan.
const taskFilterClause = `
	WHERE ($1::uuid IS NULL OR assigned_to = $1 OR created_by = $1)
	  AND ($2::uuid IS NULL OR assigned_to = $2)
	  AND ($3 = '' OR status = $3)
	  AND ($4 = '' OR priority = $4)
	`

func (r *taskRepository) List(ctx context.Context, filter repository.TaskFilter) ([]domain.Task, int, error) {
	query := `SELECT ` + taskColumns + ` FROM tasks` + taskFilterClause + orderClause(filter.Sort) + `
	LIMIT $5 OFFSET $6`

	rows, err := r.pool.Query(ctx, query,
		nullableID(filter.MemberID),
		nullableID(filter.AssignedTo),
		filter.Status,
		filter.Priority,
		clampLimit(filter.Limit),
		filter.Offset,
	)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	var tasks []domain.Task
	for rows.Next() {
		task, err := scanTask(rows)
		if err != nil {
			return nil, 0, err
		}
		tasks = append(tasks, *task)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, err
	}

	const countQuery = `SELECT COUNT(*) FROM tasks` + taskFilterClause
	var total int
	if err := r.pool.QueryRow(ctx, countQuery,
		nullableID(filter.MemberID),
		nullableID(filter.AssignedTo),
		filter.Status,
		filter.Priority,
	).Scan(&total); err != nil {
		return nil, 0, err
	}

	return tasks, total, nil
}

func (r *taskRepository) Create(ctx context.Context, task *domain.Task) (*domain.Task, error) {
	if task == nil {
		return nil, domain.ErrInvalidPayload
	}
	if task.ID == "" {
		task.ID = uuid.NewString()
	}
	if task.Status == "" {
		task.Status = domain.StatusPending
	}

	const query = `
	INSERT INTO tasks (id, title, description, status, priority, due_date, created_by, assigned_to)
	VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
	RETURNING created_at, updated_at
	`

	if err := r.pool.QueryRow(ctx, query,
		task.ID,
		task.Title,
		task.Description,
		task.Status,
		task.Priority,
		task.DueDate,
		task.CreatedBy,
		task.AssignedTo,
	).Scan(&task.CreatedAt, &task.UpdatedAt); err != nil {
		return nil, mapWriteError(err)
	}

	return task, nil
}

func (r *taskRepository) Update(ctx context.Context, id string, patch domain.TaskPatch) (*domain.Task, error) {
	// completed_at follows the status column: first transition into
	// completed stamps it, any transition out clears it.
	const query = `
	UPDATE tasks
	SET title = COALESCE($2, title),
		description = COALESCE($3, description),
		due_date = COALESCE($4, due_date),
		priority = COALESCE($5, priority),
		status = COALESCE($6, status),
		assigned_to = COALESCE($7, assigned_to),
		completed_at = CASE
			WHEN $6::text IS NULL THEN completed_at
			WHEN $6::text = 'completed' THEN COALESCE(completed_at, NOW())
			ELSE NULL
		END,
		updated_at = NOW()
	WHERE id = $1
	RETURNING ` + taskColumns + `
	`

	row := r.pool.QueryRow(ctx, query,
		id,
		patch.Title,
		patch.Description,
		patch.DueDate,
		patch.Priority,
		patch.Status,
		patch.AssignedTo,
	)
	task, err := scanTask(row)
	if err != nil {
		return nil, mapWriteError(err)
	}
	return task, nil
}

func (r *taskRepository) Delete(ctx context.Context, id string) error {
	const query = `DELETE FROM tasks WHERE id = $1`
	tag, err := r.pool.Exec(ctx, query, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrTaskNotFound
	}
	return nil
}

func scanTask(row interface {
	Scan(dest ...interface{}) error
}) (*domain.Task, error) {
	var task domain.Task
	var completed *time.Time

	if err := row.Scan(
		&task.ID,
		&task.Title,
		&task.Description,
		&task.Status,
		&task.Priority,
		&task.DueDate,
		&task.CreatedBy,
		&task.AssignedTo,
		&completed,
		&task.CreatedAt,
		&task.UpdatedAt,
	); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrTaskNotFound
		}
		return nil, err
	}

	task.CompletedAt = completed
	return &task, nil
}

func orderClause(sort repository.TaskSort) string {
	switch sort {
	case repository.SortDueDateAsc:
		return `
	ORDER BY due_date ASC`
	default:
		return `
	ORDER BY created_at DESC`
	}
}

func clampLimit(limit int) int {
	if limit <= 0 || limit > 100 {
		return 100
	}
	return limit
}

// nullableID converts an empty filter value into NULL so the clause's
// uuid-typed parameters disable cleanly.
func nullableID(id string) *string {
	if id == "" {
		return nil
	}
	return &id
}

// mapWriteError classifies referential failures on task writes. A
// reference to a user that does not exist is a caller mistake, not a
// server fault.
func mapWriteError(err error) error {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == "23503" {
		return domain.NewError(domain.ErrCodeInvalid, "assigned user not found")
	}
	return err
}
