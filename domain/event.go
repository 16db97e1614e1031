package domain

import (
	"encoding/json"
	"time"
)

// TaskEventName identifies which mutation a TaskEvent records.
type TaskEventName string

const (
	EventTaskCreated   TaskEventName = "task.created"
	EventTaskUpdated   TaskEventName = "task.updated"
	EventTaskCompleted TaskEventName = "task.completed"
	EventTaskDeleted   TaskEventName = "task.deleted"
)

// TaskEvent is an entry of the task activity journal.
type TaskEvent struct {
	ID         string          `json:"id"`
	TaskID     int64           `json:"task_id"`
	UserID     int64           `json:"user_id"`
	Name       TaskEventName   `json:"name"`
	Payload    json.RawMessage `json:"payload,omitempty"`
	OccurredAt time.Time       `json:"occurred_at"`
}
