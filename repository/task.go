package repository

import (
	"context"

	"github.com/fastygo/tasktracker/domain"
)

// Sortable columns accepted by TaskQuery.OrderBy.
const (
	OrderByCreatedAt   = "created_at"
	OrderByCompletedAt = "completedAt"
	OrderByPriority    = "priority"

	OrderAsc  = "asc"
	OrderDesc = "desc"
)

// TaskQuery describes which tasks to list and in what order. Zero-valued fields
// do not constrain the result. Rows are ordered by OrderBy/OrderDirection and
// then by id ascending.
type TaskQuery struct {
	// Scope.
	TopLevelOnly bool
	UserID       *int64
	ParentID     *int64

	Status      domain.TaskStatus
	PriorityMin *int
	PriorityMax *int
	// Title matches tasks containing a word prefixed by each search term.
	Title string

	OrderBy        string
	OrderDirection string
}

// Normalized returns a copy with defaults applied and unknown ordering replaced.
func (q TaskQuery) Normalized() TaskQuery {
	switch q.OrderBy {
	case OrderByCreatedAt, OrderByCompletedAt, OrderByPriority:
	default:
		q.OrderBy = OrderByCreatedAt
	}
	switch q.OrderDirection {
	case OrderAsc, OrderDesc:
	default:
		q.OrderDirection = OrderDesc
	}
	return q
}

// TaskRepository is the only component touching task storage.
type TaskRepository interface {
	GetByID(ctx context.Context, id int64) (*domain.Task, error)
	Query(ctx context.Context, query TaskQuery) ([]domain.Task, error)
	CountOpenSubtasks(ctx context.Context, parentID int64) (int, error)
	Create(ctx context.Context, task *domain.Task) (*domain.Task, error)
	Update(ctx context.Context, task *domain.Task) error
	// DeleteCascade removes the task and every task reachable through parent_id.
	DeleteCascade(ctx context.Context, id int64) error
	// Atomic runs fn against a repository bound to a single transaction.
	// GetByID inside fn locks the returned row until fn returns.
	Atomic(ctx context.Context, fn func(ctx context.Context, tx TaskRepository) error) error
}
