package usecase

import (
	"context"

	"github.com/fastygo/tasktracker/domain"
)

// Journal abstracts the task activity journal so use cases stay storage-agnostic.
// Record must not lose an event when the primary store is unavailable.
type Journal interface {
	Record(ctx context.Context, event domain.TaskEvent) error
	History(ctx context.Context, taskID int64, limit int) ([]domain.TaskEvent, error)
}
