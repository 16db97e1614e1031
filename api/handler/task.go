package handler

import (
	"context"
	"errors"
	"fmt"
	"strconv"

	"github.com/valyala/fasthttp"
	"go.uber.org/zap"

	"github.com/fastygo/tasktracker/api/transport"
	"github.com/fastygo/tasktracker/domain"
	"github.com/fastygo/tasktracker/pkg/httpcontext"
	taskUC "github.com/fastygo/tasktracker/usecase/task"
)

type TaskHandler struct {
	baseHandler
	uc *taskUC.UseCase
}

func NewTaskHandler(uc *taskUC.UseCase, adapter *httpcontext.Adapter, logger *zap.Logger) *TaskHandler {
	return &TaskHandler{
		baseHandler: newBaseHandler(adapter, logger),
		uc:          uc,
	}
}

// List handles POST /api/task/list: top-level tasks of every user.
func (h *TaskHandler) List(ctx *fasthttp.RequestCtx) {
	h.withUser(ctx, func(stdCtx context.Context, _ int64) (taskUC.Result, error) {
		var req transport.FilterRequest
		if !h.bind(stdCtx, ctx, &req) {
			return taskUC.Result{}, errResponded
		}
		res, err := h.uc.ListTopLevel(stdCtx, filterFrom(req))
		return res, err
	})
}

// UserTasks handles POST /api/task/user_task: top-level tasks of the caller.
func (h *TaskHandler) UserTasks(ctx *fasthttp.RequestCtx) {
	h.withUser(ctx, func(stdCtx context.Context, userID int64) (taskUC.Result, error) {
		var req transport.FilterRequest
		if !h.bind(stdCtx, ctx, &req) {
			return taskUC.Result{}, errResponded
		}
		res, err := h.uc.ListForUser(stdCtx, userID, filterFrom(req))
		return res, err
	})
}

// Subtasks handles POST /api/task/subtask.
func (h *TaskHandler) Subtasks(ctx *fasthttp.RequestCtx) {
	h.withUser(ctx, func(stdCtx context.Context, _ int64) (taskUC.Result, error) {
		var req transport.SubtaskListRequest
		if !h.bind(stdCtx, ctx, &req) {
			return taskUC.Result{}, errResponded
		}
		res, err := h.uc.ListSubtasksOf(stdCtx, req.TaskID, filterFrom(req.FilterRequest))
		return res, err
	})
}

// Show handles GET /api/task/task_id/{task_id}.
func (h *TaskHandler) Show(ctx *fasthttp.RequestCtx) {
	h.withUser(ctx, func(stdCtx context.Context, _ int64) (taskUC.Result, error) {
		id, ok := h.pathTaskID(stdCtx, ctx)
		if !ok {
			return taskUC.Result{}, errResponded
		}
		res, err := h.uc.GetByID(stdCtx, id)
		return res, err
	})
}

// Events handles GET /api/task/task_id/{task_id}/events.
func (h *TaskHandler) Events(ctx *fasthttp.RequestCtx) {
	h.withUser(ctx, func(stdCtx context.Context, _ int64) (taskUC.Result, error) {
		id, ok := h.pathTaskID(stdCtx, ctx)
		if !ok {
			return taskUC.Result{}, errResponded
		}
		res, err := h.uc.History(stdCtx, id)
		return res, err
	})
}

// Create handles POST /api/task/create_task.
func (h *TaskHandler) Create(ctx *fasthttp.RequestCtx) {
	h.withUser(ctx, func(stdCtx context.Context, userID int64) (taskUC.Result, error) {
		var req transport.CreateTaskRequest
		if !h.bind(stdCtx, ctx, &req) {
			return taskUC.Result{}, errResponded
		}
		res, err := h.uc.Create(stdCtx, userID, taskUC.NewTask{
			Title:       req.Title,
			Description: req.Description,
			Priority:    req.Priority,
		})
		return res, err
	})
}

// CreateSubtask handles POST /api/task/create_subtask.
func (h *TaskHandler) CreateSubtask(ctx *fasthttp.RequestCtx) {
	h.withUser(ctx, func(stdCtx context.Context, userID int64) (taskUC.Result, error) {
		var req transport.CreateSubtaskRequest
		if !h.bind(stdCtx, ctx, &req) {
			return taskUC.Result{}, errResponded
		}
		res, err := h.uc.CreateSubtask(stdCtx, userID, taskUC.NewTask{
			ParentID:    req.TaskID,
			Title:       req.Title,
			Description: req.Description,
			Priority:    req.Priority,
		})
		return res, err
	})
}

// Update handles POST /api/task/update.
func (h *TaskHandler) Update(ctx *fasthttp.RequestCtx) {
	h.withUser(ctx, func(stdCtx context.Context, userID int64) (taskUC.Result, error) {
		var req transport.UpdateTaskRequest
		if !h.bind(stdCtx, ctx, &req) {
			return taskUC.Result{}, errResponded
		}
		res, err := h.uc.Update(stdCtx, userID, taskUC.UpdateTask{
			TaskID: req.TaskID,
			Patch: domain.TaskPatch{
				Title:       req.Title,
				Description: req.Description,
				Priority:    req.Priority,
			},
		})
		return res, err
	})
}

// Complete handles POST /api/task/completed.
func (h *TaskHandler) Complete(ctx *fasthttp.RequestCtx) {
	h.withUser(ctx, func(stdCtx context.Context, userID int64) (taskUC.Result, error) {
		var req transport.TaskIDRequest
		if !h.bind(stdCtx, ctx, &req) {
			return taskUC.Result{}, errResponded
		}
		res, err := h.uc.Complete(stdCtx, userID, req.TaskID)
		return res, err
	})
}

// Delete handles POST /api/task/delete.
func (h *TaskHandler) Delete(ctx *fasthttp.RequestCtx) {
	h.withUser(ctx, func(stdCtx context.Context, userID int64) (taskUC.Result, error) {
		var req transport.TaskIDRequest
		if !h.bind(stdCtx, ctx, &req) {
			return taskUC.Result{}, errResponded
		}
		res, err := h.uc.Delete(stdCtx, userID, req.TaskID)
		return res, err
	})
}

// errResponded tells withUser that the request was already answered.
var errResponded = errors.New("response already written")

// withUser runs fn for an authenticated caller and writes its Result as the
// response: Data is the body and Status the HTTP status.
func (h *TaskHandler) withUser(ctx *fasthttp.RequestCtx, fn func(context.Context, int64) (taskUC.Result, error)) {
	userID, ok := h.userID(ctx)
	if !ok {
		return
	}
	stdCtx, cancel := h.requestContext(ctx)
	defer cancel()

	res, err := fn(stdCtx, userID)
	if errors.Is(err, errResponded) {
		return
	}
	if err != nil {
		h.respondError(stdCtx, ctx, err)
		return
	}
	h.respondData(ctx, res.Status, res.Data)
}

func (h *TaskHandler) pathTaskID(stdCtx context.Context, ctx *fasthttp.RequestCtx) (int64, bool) {
	raw := fmt.Sprint(ctx.UserValue("task_id"))
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || id <= 0 {
		h.respondError(stdCtx, ctx, &transport.ValidationError{Fields: []transport.FieldError{{
			Field:   "task_id",
			Rule:    "gt",
			Message: "the task_id field must be a positive integer",
		}}})
		return 0, false
	}
	return id, true
}

func filterFrom(req transport.FilterRequest) taskUC.Filter {
	return taskUC.Filter{
		Status:         req.Status,
		PriorityMin:    req.PriorityMin,
		PriorityMax:    req.PriorityMax,
		Title:          req.Title,
		OrderBy:        req.OrderBy,
		OrderDirection: req.OrderDirection,
	}
}
