package transport

// FilterRequest carries the optional list criteria accepted by every list endpoint.
type FilterRequest struct {
	Status         string `json:"status" validate:"omitempty,oneof=todo done"`
	PriorityMin    *int   `json:"priority_min" validate:"omitempty,min=1,max=5"`
	PriorityMax    *int   `json:"priority_max" validate:"omitempty,min=1,max=5"`
	Title          string `json:"title" validate:"omitempty,max=255"`
	OrderBy        string `json:"order_by" validate:"omitempty,oneof=created_at completedAt priority"`
	OrderDirection string `json:"order_direction" validate:"omitempty,oneof=asc desc"`
}

// SubtaskListRequest scopes a filter to the children of TaskID.
type SubtaskListRequest struct {
	FilterRequest
	TaskID int64 `json:"task_id" validate:"required,gt=0"`
}

type CreateTaskRequest struct {
	Title       string `json:"title" validate:"required,notblank,max=255"`
	Description string `json:"description" validate:"required"`
	Priority    int    `json:"priority" validate:"required,min=1,max=5"`
}

type CreateSubtaskRequest struct {
	CreateTaskRequest
	TaskID int64 `json:"task_id" validate:"required,gt=0"`
}

// UpdateTaskRequest only overwrites the fields present in the body.
type UpdateTaskRequest struct {
	TaskID      int64   `json:"task_id" validate:"required,gt=0"`
	Title       *string `json:"title" validate:"omitempty,notblank,max=255"`
	Description *string `json:"description"`
	Priority    *int    `json:"priority" validate:"omitempty,min=1,max=5"`
}

// TaskIDRequest is the body of complete and delete.
type TaskIDRequest struct {
	TaskID int64 `json:"task_id" validate:"required,gt=0"`
}

type RegisterRequest struct {
	Name     string `json:"name" validate:"required,max=255"`
	Email    string `json:"email" validate:"required,email,max=255"`
	Password string `json:"password" validate:"required,min=4,max=72"`
}

type LoginRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}
