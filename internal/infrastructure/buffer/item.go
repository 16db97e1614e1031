package buffer

import (
	"fmt"
	"time"

	"github.com/fastygo/tasktracker/domain"
)

// Item is a task event waiting for the primary store to come back.
type Item struct {
	Event      domain.TaskEvent `json:"event"`
	Retries    int              `json:"retries"`
	BufferedAt time.Time        `json:"buffered_at"`
}

// key orders items by buffering time so drains replay events in arrival order.
func (i Item) key() []byte {
	return []byte(fmt.Sprintf("%020d_%s", i.BufferedAt.UnixNano(), i.Event.ID))
}
