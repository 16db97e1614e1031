package services

import (
	"context"
	"errors"
	"path/filepath"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fastygo/tasktracker/domain"
	"github.com/fastygo/tasktracker/internal/infrastructure/buffer"
	"github.com/fastygo/tasktracker/repository/memory"
)

type switchMonitor struct{ online atomic.Bool }

func (m *switchMonitor) IsOnline() bool { return m.online.Load() }

// flakyEvents fails Append while down is set.
type flakyEvents struct {
	*memory.EventRepository
	down atomic.Bool
}

func (f *flakyEvents) Append(ctx context.Context, event domain.TaskEvent) error {
	if f.down.Load() {
		return errors.New("connection refused")
	}
	return f.EventRepository.Append(ctx, event)
}

type journalFixture struct {
	journal *EventJournal
	events  *flakyEvents
	store   *buffer.Store
	monitor *switchMonitor
}

func newJournalFixture(t *testing.T) *journalFixture {
	t.Helper()
	store, err := buffer.Open(filepath.Join(t.TempDir(), "journal.db"), 0)
	require.NoError(t, err)
	t.Cleanup(func() { _ = store.Close() })

	events := &flakyEvents{EventRepository: memory.NewEventRepository()}
	monitor := &switchMonitor{}
	monitor.online.Store(true)

	journal := NewEventJournal(events, store, monitor, nil, JournalConfig{MaxRetries: 2})
	return &journalFixture{journal: journal, events: events, store: store, monitor: monitor}
}

func taskEvent(id string, at time.Time) domain.TaskEvent {
	return domain.TaskEvent{ID: id, TaskID: 7, UserID: 1, Name: domain.EventTaskUpdated, OccurredAt: at}
}

func TestEventJournal_RecordOnlineAppendsDirectly(t *testing.T) {
	f := newJournalFixture(t)
	ctx := context.Background()

	require.NoError(t, f.journal.Record(ctx, taskEvent("a", time.Now())))

	stored, err := f.events.ListByTask(ctx, 7, 0)
	require.NoError(t, err)
	assert.Len(t, stored, 1)
	assert.Equal(t, 0, f.journal.Size())
}

func TestEventJournal_BuffersWhileOfflineAndDrainsLater(t *testing.T) {
	f := newJournalFixture(t)
	ctx := context.Background()
	base := time.Date(2026, 2, 1, 10, 0, 0, 0, time.UTC)

	require.NoError(t, f.journal.Record(ctx, taskEvent("a", base)))

	f.monitor.online.Store(false)
	require.NoError(t, f.journal.Record(ctx, taskEvent("b", base.Add(time.Minute))))
	assert.Equal(t, 1, f.journal.Size())

	history, err := f.journal.History(ctx, 7, 10)
	require.NoError(t, err)
	require.Len(t, history, 2, "history includes buffered events")
	assert.Equal(t, "a", history[0].ID)
	assert.Equal(t, "b", history[1].ID)

	require.NoError(t, f.journal.Drain(ctx))
	assert.Equal(t, 1, f.journal.Size(), "offline drain is a no-op")

	f.monitor.online.Store(true)
	require.NoError(t, f.journal.Drain(ctx))
	assert.Equal(t, 0, f.journal.Size())

	stored, err := f.events.ListByTask(ctx, 7, 0)
	require.NoError(t, err)
	assert.Len(t, stored, 2)
}

func TestEventJournal_AppendFailureFallsBackToBuffer(t *testing.T) {
	f := newJournalFixture(t)
	f.events.down.Store(true)

	require.NoError(t, f.journal.Record(context.Background(), taskEvent("a", time.Now())))
	assert.Equal(t, 1, f.journal.Size())
}

func TestEventJournal_DrainDropsAfterMaxRetries(t *testing.T) {
	f := newJournalFixture(t)
	ctx := context.Background()
	f.events.down.Store(true)
	require.NoError(t, f.journal.Record(ctx, taskEvent("a", time.Now())))

	require.NoError(t, f.journal.Drain(ctx))
	assert.Equal(t, 1, f.journal.Size(), "first failure is retried")

	require.NoError(t, f.journal.Drain(ctx))
	assert.Equal(t, 0, f.journal.Size(), "second failure reaches MaxRetries")
}

func TestEventJournal_HistoryRespectsLimit(t *testing.T) {
	f := newJournalFixture(t)
	ctx := context.Background()
	base := time.Date(2026, 2, 1, 10, 0, 0, 0, time.UTC)

	f.monitor.online.Store(false)
	for i, id := range []string{"a", "b", "c"} {
		require.NoError(t, f.journal.Record(ctx, taskEvent(id, base.Add(time.Duration(i)*time.Second))))
	}

	history, err := f.journal.History(ctx, 7, 2)
	require.NoError(t, err)
	require.Len(t, history, 2)
	assert.Equal(t, "a", history[0].ID)
}
