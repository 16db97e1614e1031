// Package memory holds map-backed repositories with the same semantics as the
// Postgres ones. They back tests and local runs without a database.
package memory

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/fastygo/tasktracker/domain"
	"github.com/fastygo/tasktracker/repository"
)

type TaskRepository struct {
	mu     sync.RWMutex
	txMu   *sync.Mutex
	tasks  map[int64]domain.Task
	nextID int64
	now    func() time.Time
}

func NewTaskRepository() *TaskRepository {
	return &TaskRepository{
		txMu:  &sync.Mutex{},
		tasks: map[int64]domain.Task{},
		now:   time.Now,
	}
}

var _ repository.TaskRepository = (*TaskRepository)(nil)

// SetClock replaces the source of created_at/updated_at timestamps.
func (r *TaskRepository) SetClock(now func() time.Time) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.now = now
}

func (r *TaskRepository) GetByID(_ context.Context, id int64) (*domain.Task, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	t, ok := r.tasks[id]
	if !ok {
		return nil, domain.ErrTaskNotFound
	}
	return &t, nil
}

func (r *TaskRepository) Query(_ context.Context, q repository.TaskQuery) ([]domain.Task, error) {
	q = q.Normalized()
	terms := repository.SearchTerms(q.Title)

	r.mu.RLock()
	out := make([]domain.Task, 0, len(r.tasks))
	for _, t := range r.tasks {
		if matches(t, q, terms) {
			out = append(out, t)
		}
	}
	r.mu.RUnlock()

	sort.SliceStable(out, func(i, j int) bool {
		if q.OrderBy == repository.OrderByCompletedAt && (out[i].CompletedAt == nil) != (out[j].CompletedAt == nil) {
			return out[j].CompletedAt == nil
		}
		if c := compareBy(out[i], out[j], q.OrderBy); c != 0 {
			if q.OrderDirection == repository.OrderAsc {
				return c < 0
			}
			return c > 0
		}
		return out[i].ID < out[j].ID
	})
	if len(out) == 0 {
		return nil, nil
	}
	return out, nil
}

func (r *TaskRepository) CountOpenSubtasks(_ context.Context, parentID int64) (int, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	n := 0
	for _, t := range r.tasks {
		if t.ParentID != nil && *t.ParentID == parentID && t.Status != domain.StatusDone {
			n++
		}
	}
	return n, nil
}

func (r *TaskRepository) Create(_ context.Context, task *domain.Task) (*domain.Task, error) {
	if task == nil {
		return nil, domain.ErrInvalidPayload
	}
	if strings.TrimSpace(task.Title) == "" {
		return nil, domain.ErrBlankTitle
	}
	r.mu.Lock()
	defer r.mu.Unlock()

	r.nextID++
	now := r.now()
	task.ID = r.nextID
	task.CreatedAt = now
	task.UpdatedAt = now
	r.tasks[task.ID] = *task
	return task, nil
}

func (r *TaskRepository) Update(_ context.Context, task *domain.Task) error {
	if task == nil {
		return domain.ErrInvalidPayload
	}
	if strings.TrimSpace(task.Title) == "" {
		return domain.ErrBlankTitle
	}
	r.mu.Lock()
	defer r.mu.Unlock()

	stored, ok := r.tasks[task.ID]
	if !ok {
		return domain.ErrTaskNotFound
	}
	stored.Title = task.Title
	stored.Description = task.Description
	stored.Status = task.Status
	stored.Priority = task.Priority
	stored.CompletedAt = task.CompletedAt
	stored.UpdatedAt = r.now()
	r.tasks[task.ID] = stored
	task.UpdatedAt = stored.UpdatedAt
	return nil
}

func (r *TaskRepository) DeleteCascade(_ context.Context, id int64) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.tasks[id]; !ok {
		return domain.ErrTaskNotFound
	}

	// Breadth-first over parent_id links; children go before the root.
	doomed := []int64{id}
	for i := 0; i < len(doomed); i++ {
		for childID, t := range r.tasks {
			if t.ParentID != nil && *t.ParentID == doomed[i] {
				doomed = append(doomed, childID)
			}
		}
	}
	for i := len(doomed) - 1; i >= 0; i-- {
		delete(r.tasks, doomed[i])
	}
	return nil
}

// Atomic serializes callers; each repository method still takes its own lock.
func (r *TaskRepository) Atomic(ctx context.Context, fn func(ctx context.Context, tx repository.TaskRepository) error) error {
	r.txMu.Lock()
	defer r.txMu.Unlock()
	return fn(ctx, r)
}

// Len returns the number of stored tasks.
func (r *TaskRepository) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.tasks)
}

func matches(t domain.Task, q repository.TaskQuery, terms []string) bool {
	if q.TopLevelOnly && t.ParentID != nil {
		return false
	}
	if q.UserID != nil && t.UserID != *q.UserID {
		return false
	}
	if q.ParentID != nil && (t.ParentID == nil || *t.ParentID != *q.ParentID) {
		return false
	}
	if q.Status != "" && t.Status != q.Status {
		return false
	}
	if q.PriorityMin != nil && t.Priority < *q.PriorityMin {
		return false
	}
	if q.PriorityMax != nil && t.Priority > *q.PriorityMax {
		return false
	}
	if q.Title != "" {
		if len(terms) == 0 || !repository.MatchesTitle(t.Title, terms) {
			return false
		}
	}
	return true
}

// compareBy compares a and b ascending by orderBy. Tasks without a completion
// time are placed by Query, which keeps them last in either direction.
func compareBy(a, b domain.Task, orderBy string) int {
	switch orderBy {
	case repository.OrderByPriority:
		return a.Priority - b.Priority
	case repository.OrderByCompletedAt:
		if a.CompletedAt == nil || b.CompletedAt == nil {
			return 0
		}
		return a.CompletedAt.Compare(*b.CompletedAt)
	default:
		return a.CreatedAt.Compare(b.CreatedAt)
	}
}
