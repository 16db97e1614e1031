package task

import (
	"context"
	"encoding/json"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/fastygo/tasktracker/domain"
	"github.com/fastygo/tasktracker/pkg/logger"
	"github.com/fastygo/tasktracker/repository"
	"github.com/fastygo/tasktracker/usecase"
)

const historyLimit = 100

// UseCase is the task query service: it turns caller input into storage
// queries and entity transitions and reports every outcome as a Result.
// Storage failures are returned as errors.
type UseCase struct {
	tasks   repository.TaskRepository
	journal usecase.Journal
	logger  *zap.Logger
	now     func() time.Time
}

func New(tasks repository.TaskRepository, journal usecase.Journal, logger *zap.Logger) *UseCase {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &UseCase{
		tasks:   tasks,
		journal: journal,
		logger:  logger,
		now:     time.Now,
	}
}

// ListTopLevel lists tasks without a parent across all users.
func (uc *UseCase) ListTopLevel(ctx context.Context, f Filter) (Result, error) {
	q := f.query()
	q.TopLevelOnly = true
	return uc.list(ctx, q, msgTasksNotFound)
}

// ListForUser lists the top-level tasks owned by userID.
func (uc *UseCase) ListForUser(ctx context.Context, userID int64, f Filter) (Result, error) {
	q := f.query()
	q.TopLevelOnly = true
	q.UserID = &userID
	return uc.list(ctx, q, msgUserTasksNotFound)
}

// ListSubtasksOf lists the direct children of taskID.
func (uc *UseCase) ListSubtasksOf(ctx context.Context, taskID int64, f Filter) (Result, error) {
	q := f.query()
	q.ParentID = &taskID
	return uc.list(ctx, q, msgSubtasksNotFound)
}

func (uc *UseCase) list(ctx context.Context, q repository.TaskQuery, emptyMessage string) (Result, error) {
	tasks, err := uc.tasks.Query(ctx, q)
	if err != nil {
		return Result{}, err
	}
	if len(tasks) == 0 {
		return notFound(emptyMessage), nil
	}
	return ok(tasks), nil
}

// GetByID returns any task or subtask. Reads are not restricted to the owner.
func (uc *UseCase) GetByID(ctx context.Context, id int64) (Result, error) {
	task, err := uc.tasks.GetByID(ctx, id)
	if err != nil {
		if domain.IsDomainError(err, domain.ErrCodeNotFound) {
			return notFound(msgTaskNotFound), nil
		}
		return Result{}, err
	}
	return ok(task), nil
}

// History returns the recorded activity of a task, oldest first.
func (uc *UseCase) History(ctx context.Context, id int64) (Result, error) {
	if _, err := uc.tasks.GetByID(ctx, id); err != nil {
		if domain.IsDomainError(err, domain.ErrCodeNotFound) {
			return notFound(msgTaskNotFound), nil
		}
		return Result{}, err
	}
	events := []domain.TaskEvent{}
	if uc.journal != nil {
		found, err := uc.journal.History(ctx, id, historyLimit)
		if err != nil {
			return Result{}, err
		}
		if found != nil {
			events = found
		}
	}
	return ok(events), nil
}

// Create stores a new top-level task owned by userID. A blank title is
// rejected with domain.ErrBlankTitle.
func (uc *UseCase) Create(ctx context.Context, userID int64, in NewTask) (Result, error) {
	task := domain.NewTask(userID, nil, in.Title, in.Description, in.Priority)
	if task.Title == "" {
		return Result{}, domain.ErrBlankTitle
	}
	created, err := uc.tasks.Create(ctx, task)
	if err != nil {
		return Result{}, err
	}
	uc.record(ctx, domain.EventTaskCreated, created)
	return ok(created), nil
}

// CreateSubtask stores a new task under in.ParentID. The parent must exist,
// belong to userID and be top-level.
func (uc *UseCase) CreateSubtask(ctx context.Context, userID int64, in NewTask) (Result, error) {
	parentID := in.ParentID
	task := domain.NewTask(userID, &parentID, in.Title, in.Description, in.Priority)
	if task.Title == "" {
		return Result{}, domain.ErrBlankTitle
	}

	var created *domain.Task
	err := uc.tasks.Atomic(ctx, func(ctx context.Context, tx repository.TaskRepository) error {
		parent, err := tx.GetByID(ctx, in.ParentID)
		if err != nil {
			return err
		}
		if err := parent.CanAdopt(userID); err != nil {
			return err
		}
		created, err = tx.Create(ctx, task)
		return err
	})
	if err != nil {
		return uc.refuse(ctx, err, "create_subtask", in.ParentID, userID, msgSubtaskBlocked)
	}
	uc.record(ctx, domain.EventTaskCreated, created)
	return ok(created), nil
}

// Update applies a partial patch. An unknown task is reported as forbidden.
func (uc *UseCase) Update(ctx context.Context, userID int64, in UpdateTask) (Result, error) {
	var updated *domain.Task
	err := uc.tasks.Atomic(ctx, func(ctx context.Context, tx repository.TaskRepository) error {
		task, err := tx.GetByID(ctx, in.TaskID)
		if err != nil {
			return err
		}
		if err := task.Update(userID, in.Patch); err != nil {
			return err
		}
		if err := tx.Update(ctx, task); err != nil {
			return err
		}
		updated = task
		return nil
	})
	if err != nil {
		return uc.refuse(ctx, err, "update", in.TaskID, userID, msgUpdateBlocked)
	}
	uc.record(ctx, domain.EventTaskUpdated, updated)
	return ok(updated), nil
}

// Complete marks the task done once every direct subtask is done.
func (uc *UseCase) Complete(ctx context.Context, userID int64, taskID int64) (Result, error) {
	var completed *domain.Task
	err := uc.tasks.Atomic(ctx, func(ctx context.Context, tx repository.TaskRepository) error {
		task, err := tx.GetByID(ctx, taskID)
		if err != nil {
			return err
		}
		if !task.OwnedBy(userID) {
			return domain.ErrNotOwner
		}
		open, err := tx.CountOpenSubtasks(ctx, taskID)
		if err != nil {
			return err
		}
		if err := task.Complete(userID, open, uc.now().UTC()); err != nil {
			return err
		}
		if err := tx.Update(ctx, task); err != nil {
			return err
		}
		completed = task
		return nil
	})
	if err != nil {
		return uc.refuse(ctx, err, "complete", taskID, userID, msgCompleteBlocked)
	}
	uc.record(ctx, domain.EventTaskCompleted, completed)
	return ok(completed), nil
}

// Delete removes an unfinished task together with all of its subtasks.
func (uc *UseCase) Delete(ctx context.Context, userID int64, taskID int64) (Result, error) {
	var deleted *domain.Task
	err := uc.tasks.Atomic(ctx, func(ctx context.Context, tx repository.TaskRepository) error {
		task, err := tx.GetByID(ctx, taskID)
		if err != nil {
			return err
		}
		if err := task.CheckDelete(userID); err != nil {
			return err
		}
		if err := tx.DeleteCascade(ctx, taskID); err != nil {
			return err
		}
		deleted = task
		return nil
	})
	if err != nil {
		return uc.refuse(ctx, err, "delete", taskID, userID, msgDeleteBlocked)
	}
	uc.record(ctx, domain.EventTaskDeleted, deleted)
	return ok(true), nil
}

// refuse reports a refused transition (missing task, ownership or state) as a
// 403 result; any other error is an infrastructure failure and propagates.
func (uc *UseCase) refuse(ctx context.Context, err error, op string, taskID, userID int64, message string) (Result, error) {
	if !domain.IsDomainError(err, domain.ErrCodeNotFound) && !domain.IsDomainError(err, domain.ErrCodeForbidden) {
		return Result{}, err
	}
	logger.WithRequestID(ctx, uc.logger).Debug("task transition refused",
		zap.String("operation", op),
		zap.Int64("task_id", taskID),
		zap.Int64("user_id", userID),
		zap.String("reason", err.Error()))
	return forbidden(message), nil
}

func (uc *UseCase) record(ctx context.Context, name domain.TaskEventName, task *domain.Task) {
	if uc.journal == nil || task == nil {
		return
	}
	payload, err := json.Marshal(task)
	if err != nil {
		uc.logger.Error("failed to encode task event", zap.Error(err))
		return
	}
	event := domain.TaskEvent{
		ID:         uuid.NewString(),
		TaskID:     task.ID,
		UserID:     task.UserID,
		Name:       name,
		Payload:    payload,
		OccurredAt: uc.now().UTC(),
	}
	if err := uc.journal.Record(ctx, event); err != nil {
		logger.WithRequestID(ctx, uc.logger).Error("failed to record task event",
			zap.String("event", string(name)),
			zap.Int64("task_id", task.ID),
			zap.Error(err))
	}
}
