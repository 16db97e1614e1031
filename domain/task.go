package domain

import (
	"strings"
	"time"
)

// TaskStatus is the lifecycle state of a task.
type TaskStatus string

const (
	StatusTodo TaskStatus = "todo"
	StatusDone TaskStatus = "done"
)

const (
	MinPriority = 1
	MaxPriority = 5
)

// Valid reports whether s is a known status.
func (s TaskStatus) Valid() bool {
	return s == StatusTodo || s == StatusDone
}

// Task is a user-owned unit of work. A task with a nil ParentID is top-level;
// otherwise it is a subtask of ParentID.
type Task struct {
	ID          int64      `json:"id"`
	UserID      int64      `json:"user_id"`
	ParentID    *int64     `json:"parent_id"`
	Title       string     `json:"title"`
	Description string     `json:"description"`
	Status      TaskStatus `json:"status"`
	Priority    int        `json:"priority"`
	CompletedAt *time.Time `json:"completedAt"`
	CreatedAt   time.Time  `json:"created_at"`
	UpdatedAt   time.Time  `json:"updated_at"`
}

// TaskPatch is a partial update. A nil field keeps the stored value.
type TaskPatch struct {
	Title       *string
	Description *string
	Priority    *int
}

// NewTask builds a fresh todo task owned by userID.
func NewTask(userID int64, parentID *int64, title, description string, priority int) *Task {
	return &Task{
		UserID:      userID,
		ParentID:    parentID,
		Title:       strings.TrimSpace(title),
		Description: description,
		Status:      StatusTodo,
		Priority:    priority,
	}
}

// IsTopLevel reports whether the task has no parent.
func (t *Task) IsTopLevel() bool {
	return t != nil && t.ParentID == nil
}

// IsDone reports whether the task has been completed.
func (t *Task) IsDone() bool {
	return t != nil && t.Status == StatusDone
}

// OwnedBy reports whether userID owns the task.
func (t *Task) OwnedBy(userID int64) bool {
	return t != nil && t.UserID == userID
}

// Update applies the non-nil fields of patch on behalf of actingUserID.
// Identity, ownership, hierarchy and completion state are never touched.
// The title is trimmed the same way NewTask trims it and may not end up blank.
func (t *Task) Update(actingUserID int64, patch TaskPatch) error {
	if !t.OwnedBy(actingUserID) {
		return ErrNotOwner
	}
	if patch.Title != nil {
		title := strings.TrimSpace(*patch.Title)
		if title == "" {
			return ErrBlankTitle
		}
		t.Title = title
	}
	if patch.Description != nil {
		t.Description = *patch.Description
	}
	if patch.Priority != nil {
		t.Priority = *patch.Priority
	}
	return nil
}

// Complete marks the task done at the given instant. openSubtasks is the number of
// direct children whose status is not done; any open child blocks completion.
func (t *Task) Complete(actingUserID int64, openSubtasks int, at time.Time) error {
	if !t.OwnedBy(actingUserID) {
		return ErrNotOwner
	}
	if openSubtasks > 0 {
		return ErrOpenSubtasks
	}
	completed := at
	t.Status = StatusDone
	t.CompletedAt = &completed
	return nil
}

// CheckDelete reports whether actingUserID may delete the task.
func (t *Task) CheckDelete(actingUserID int64) error {
	if !t.OwnedBy(actingUserID) {
		return ErrNotOwner
	}
	if t.IsDone() {
		return ErrTaskDone
	}
	return nil
}

// CanAdopt reports whether a subtask owned by userID may be attached to t.
// Only top-level tasks of the same owner take subtasks.
func (t *Task) CanAdopt(userID int64) error {
	if !t.OwnedBy(userID) {
		return ErrNotOwner
	}
	if !t.IsTopLevel() {
		return ErrParentNotAllowed
	}
	return nil
}
