package task

import (
	"github.com/fastygo/tasktracker/domain"
	"github.com/fastygo/tasktracker/repository"
)

// Filter carries the optional list criteria supplied by a caller. Inputs are
// structurally validated upstream; unknown ordering falls back to created_at desc.
type Filter struct {
	Status         string
	PriorityMin    *int
	PriorityMax    *int
	Title          string
	OrderBy        string
	OrderDirection string
}

func (f Filter) query() repository.TaskQuery {
	return repository.TaskQuery{
		Status:         domain.TaskStatus(f.Status),
		PriorityMin:    f.PriorityMin,
		PriorityMax:    f.PriorityMax,
		Title:          f.Title,
		OrderBy:        f.OrderBy,
		OrderDirection: f.OrderDirection,
	}.Normalized()
}

// NewTask is the input of Create and CreateSubtask. ParentID is ignored by Create.
type NewTask struct {
	ParentID    int64
	Title       string
	Description string
	Priority    int
}

// UpdateTask identifies the task to change and the fields to overwrite.
type UpdateTask struct {
	TaskID int64
	Patch  domain.TaskPatch
}
