package task

import "net/http"

// Result pairs a response payload with the HTTP-style status chosen by the use case.
type Result struct {
	Data   any
	Status int
}

// Message is the payload of every refused or empty result.
type Message struct {
	Message string `json:"message"`
}

const (
	msgTasksNotFound     = "tasks not found"
	msgUserTasksNotFound = "user tasks not found"
	msgSubtasksNotFound  = "subtasks not found"
	msgTaskNotFound      = "task or subtask not found"
	msgUpdateBlocked     = "access to changing the task is blocked"
	msgCompleteBlocked   = "this task cannot be completed"
	msgDeleteBlocked     = "this task cannot be deleted"
	msgSubtaskBlocked    = "access to creating the subtask is blocked"
)

func ok(data any) Result {
	return Result{Data: data, Status: http.StatusOK}
}

// notFound reuses 401 for "nothing matched"; existing clients depend on it.
func notFound(message string) Result {
	return Result{Data: Message{Message: message}, Status: http.StatusUnauthorized}
}

func forbidden(message string) Result {
	return Result{Data: Message{Message: message}, Status: http.StatusForbidden}
}

// OK reports whether the result represents success.
func (r Result) OK() bool {
	return r.Status == http.StatusOK
}
