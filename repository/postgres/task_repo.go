package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/fastygo/tasktracker/domain"
	"github.com/fastygo/tasktracker/repository"
)

type taskRepository struct {
	pool *pgxpool.Pool
	db   querier
	inTx bool
}

// NewTaskRepository returns a Postgres-backed implementation of TaskRepository.
func NewTaskRepository(pool *pgxpool.Pool) repository.TaskRepository {
	return &taskRepository{pool: pool, db: pool}
}

func (r *taskRepository) GetByID(ctx context.Context, id int64) (*domain.Task, error) {
	query := `SELECT ` + taskColumns + ` FROM tasks WHERE id = $1`
	if r.inTx {
		query += ` FOR UPDATE`
	}
	return scanTask(r.db.QueryRow(ctx, query, id))
}

func (r *taskRepository) Query(ctx context.Context, q repository.TaskQuery) ([]domain.Task, error) {
	query, args := buildTaskQuery(q)
	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query tasks: %w", err)
	}
	defer rows.Close()

	var tasks []domain.Task
	for rows.Next() {
		task, err := scanTask(rows)
		if err != nil {
			return nil, err
		}
		tasks = append(tasks, *task)
	}
	return tasks, rows.Err()
}

func (r *taskRepository) CountOpenSubtasks(ctx context.Context, parentID int64) (int, error) {
	const query = `SELECT COUNT(*) FROM tasks WHERE parent_id = $1 AND status <> $2`
	var n int
	if err := r.db.QueryRow(ctx, query, parentID, string(domain.StatusDone)).Scan(&n); err != nil {
		return 0, fmt.Errorf("count open subtasks of %d: %w", parentID, err)
	}
	return n, nil
}

func (r *taskRepository) Create(ctx context.Context, task *domain.Task) (*domain.Task, error) {
	if task == nil {
		return nil, domain.ErrInvalidPayload
	}

	const query = `
	INSERT INTO tasks (user_id, parent_id, title, description, status, priority, completed_at)
	VALUES ($1, $2, $3, $4, $5, $6, $7)
	RETURNING id, created_at, updated_at
	`

	if err := r.db.QueryRow(ctx, query,
		task.UserID,
		task.ParentID,
		task.Title,
		task.Description,
		string(task.Status),
		task.Priority,
		task.CompletedAt,
	).Scan(&task.ID, &task.CreatedAt, &task.UpdatedAt); err != nil {
		if isCheckViolation(err) {
			return nil, domain.WrapError(domain.ErrCodeInvalid, "task violates a table constraint", err)
		}
		return nil, fmt.Errorf("create task: %w", err)
	}

	return task, nil
}

func (r *taskRepository) Update(ctx context.Context, task *domain.Task) error {
	if task == nil {
		return domain.ErrInvalidPayload
	}

	const query = `
	UPDATE tasks
	SET title = $2,
		description = $3,
		status = $4,
		priority = $5,
		completed_at = $6,
		updated_at = NOW()
	WHERE id = $1
	RETURNING updated_at
	`

	if err := r.db.QueryRow(ctx, query,
		task.ID,
		task.Title,
		task.Description,
		string(task.Status),
		task.Priority,
		task.CompletedAt,
	).Scan(&task.UpdatedAt); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return domain.ErrTaskNotFound
		}
		if isCheckViolation(err) {
			return domain.WrapError(domain.ErrCodeInvalid, "task violates a table constraint", err)
		}
		return fmt.Errorf("update task %d: %w", task.ID, err)
	}

	return nil
}

// DeleteCascade relies on the ON DELETE CASCADE constraint of tasks.parent_id
// to remove descendants in the same statement.
func (r *taskRepository) DeleteCascade(ctx context.Context, id int64) error {
	const query = `DELETE FROM tasks WHERE id = $1`
	tag, err := r.db.Exec(ctx, query, id)
	if err != nil {
		return fmt.Errorf("delete task %d: %w", id, err)
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrTaskNotFound
	}
	return nil
}

func (r *taskRepository) Atomic(ctx context.Context, fn func(ctx context.Context, tx repository.TaskRepository) error) error {
	if r.inTx {
		return fn(ctx, r)
	}
	return pgx.BeginFunc(ctx, r.pool, func(tx pgx.Tx) error {
		return fn(ctx, &taskRepository{pool: r.pool, db: tx, inTx: true})
	})
}

func scanTask(row rowScanner) (*domain.Task, error) {
	var (
		task   domain.Task
		status string
	)

	if err := row.Scan(
		&task.ID,
		&task.UserID,
		&task.ParentID,
		&task.Title,
		&task.Description,
		&status,
		&task.Priority,
		&task.CompletedAt,
		&task.CreatedAt,
		&task.UpdatedAt,
	); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrTaskNotFound
		}
		return nil, err
	}

	task.Status = domain.TaskStatus(status)
	return &task, nil
}
