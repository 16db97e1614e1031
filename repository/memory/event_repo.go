package memory

import (
	"context"
	"sync"

	"github.com/fastygo/tasktracker/domain"
	"github.com/fastygo/tasktracker/repository"
)

type EventRepository struct {
	mu     sync.Mutex
	events []domain.TaskEvent
	seen   map[string]bool
}

func NewEventRepository() *EventRepository {
	return &EventRepository{seen: map[string]bool{}}
}

var _ repository.EventRepository = (*EventRepository)(nil)

func (r *EventRepository) Append(_ context.Context, event domain.TaskEvent) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.seen[event.ID] {
		return nil
	}
	r.seen[event.ID] = true
	r.events = append(r.events, event)
	return nil
}

func (r *EventRepository) ListByTask(_ context.Context, taskID int64, limit int) ([]domain.TaskEvent, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []domain.TaskEvent
	for _, e := range r.events {
		if e.TaskID != taskID {
			continue
		}
		out = append(out, e)
		if limit > 0 && len(out) == limit {
			break
		}
	}
	return out, nil
}
