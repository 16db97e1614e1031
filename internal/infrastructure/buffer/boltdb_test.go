package buffer

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fastygo/tasktracker/domain"
)

func openStore(t *testing.T, maxSize int) *Store {
	t.Helper()
	store, err := Open(filepath.Join(t.TempDir(), "buffer", "events.db"), maxSize)
	require.NoError(t, err)
	t.Cleanup(func() { _ = store.Close() })

	base := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	n := 0
	store.now = func() time.Time {
		n++
		return base.Add(time.Duration(n) * time.Second)
	}
	return store
}

func event(id string, taskID int64) domain.TaskEvent {
	return domain.TaskEvent{ID: id, TaskID: taskID, UserID: 1, Name: domain.EventTaskUpdated}
}

func TestStore_PeekReturnsArrivalOrder(t *testing.T) {
	store := openStore(t, 0)
	require.NoError(t, store.Enqueue(event("b", 1)))
	require.NoError(t, store.Enqueue(event("a", 2)))
	require.NoError(t, store.Enqueue(event("c", 1)))

	items, err := store.Peek(2)
	require.NoError(t, err)
	require.Len(t, items, 2)
	assert.Equal(t, "b", items[0].Event.ID)
	assert.Equal(t, "a", items[1].Event.ID)

	size, err := store.Size()
	require.NoError(t, err)
	assert.Equal(t, 3, size, "peek must not consume")
}

func TestStore_AckAndRetry(t *testing.T) {
	store := openStore(t, 0)
	require.NoError(t, store.Enqueue(event("a", 1)))
	require.NoError(t, store.Enqueue(event("b", 1)))

	items, err := store.Peek(10)
	require.NoError(t, err)
	require.Len(t, items, 2)

	require.NoError(t, store.Retry(items[0]))
	require.NoError(t, store.Ack(items[1]))

	items, err = store.Peek(10)
	require.NoError(t, err)
	require.Len(t, items, 1)
	assert.Equal(t, "a", items[0].Event.ID)
	assert.Equal(t, 1, items[0].Retries)
}

func TestStore_PendingFiltersByTask(t *testing.T) {
	store := openStore(t, 0)
	require.NoError(t, store.Enqueue(event("a", 1)))
	require.NoError(t, store.Enqueue(event("b", 2)))
	require.NoError(t, store.Enqueue(event("c", 1)))

	pending, err := store.Pending(1)
	require.NoError(t, err)
	require.Len(t, pending, 2)
	assert.Equal(t, "a", pending[0].ID)
	assert.Equal(t, "c", pending[1].ID)
}

func TestStore_RejectsWhenFull(t *testing.T) {
	store := openStore(t, 1)
	require.NoError(t, store.Enqueue(event("a", 1)))
	assert.ErrorIs(t, store.Enqueue(event("b", 1)), ErrFull)
}

func TestStore_CleanupDropsOldItems(t *testing.T) {
	store := openStore(t, 0)
	for _, id := range []string{"a", "b", "c"} {
		require.NoError(t, store.Enqueue(event(id, 1)))
	}

	// Items were buffered at +1s, +2s and +3s.
	cutoff := time.Date(2026, 3, 1, 12, 0, 2, 500, time.UTC)
	removed, err := store.Cleanup(cutoff)
	require.NoError(t, err)
	assert.Equal(t, 2, removed)

	items, err := store.Peek(10)
	require.NoError(t, err)
	require.Len(t, items, 1)
	assert.Equal(t, "c", items[0].Event.ID)
}

func TestStore_NilIsClosed(t *testing.T) {
	var store *Store
	assert.Error(t, store.Enqueue(event("a", 1)))
	assert.NoError(t, store.Close())
}
