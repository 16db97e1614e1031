package repository

import (
	"context"

	"github.com/fastygo/tasktracker/domain"
)

// EventRepository persists the task activity journal.
type EventRepository interface {
	Append(ctx context.Context, event domain.TaskEvent) error
	ListByTask(ctx context.Context, taskID int64, limit int) ([]domain.TaskEvent, error)
}
