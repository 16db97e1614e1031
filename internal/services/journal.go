package services

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"time"

	"github.com/robfig/cron/v3"
	"go.uber.org/zap"

	"github.com/fastygo/tasktracker/domain"
	"github.com/fastygo/tasktracker/internal/infrastructure/buffer"
	"github.com/fastygo/tasktracker/pkg/logger"
	"github.com/fastygo/tasktracker/repository"
	"github.com/fastygo/tasktracker/usecase"
)

// ConnectionHealth abstracts the connection monitor functionality.
type ConnectionHealth interface {
	IsOnline() bool
}

// JournalConfig controls how frequently the buffer is drained and pruned.
type JournalConfig struct {
	Interval   time.Duration
	BatchSize  int
	MaxRetries int
	Retention  time.Duration
}

// EventJournal records task events in Postgres and falls back to the local
// buffer while the database is unreachable. A cron job replays the buffer.
type EventJournal struct {
	events  repository.EventRepository
	store   *buffer.Store
	monitor ConnectionHealth
	logger  *zap.Logger
	cron    *cron.Cron
	cfg     JournalConfig
	now     func() time.Time
}

var _ usecase.Journal = (*EventJournal)(nil)

func NewEventJournal(
	events repository.EventRepository,
	store *buffer.Store,
	monitor ConnectionHealth,
	logger *zap.Logger,
	cfg JournalConfig,
) *EventJournal {
	if cfg.Interval <= 0 {
		cfg.Interval = 30 * time.Second
	}
	if cfg.BatchSize <= 0 {
		cfg.BatchSize = 50
	}
	if cfg.MaxRetries <= 0 {
		cfg.MaxRetries = 3
	}
	if cfg.Retention <= 0 {
		cfg.Retention = 24 * time.Hour
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	j := &EventJournal{
		events:  events,
		store:   store,
		monitor: monitor,
		logger:  logger,
		cfg:     cfg,
		cron:    cron.New(cron.WithSeconds()),
		now:     time.Now,
	}

	_, _ = j.cron.AddFunc(fmt.Sprintf("@every %ds", int(cfg.Interval.Seconds())), func() {
		ctx, cancel := context.WithTimeout(context.Background(), cfg.Interval)
		defer cancel()
		if err := j.Drain(ctx); err != nil {
			j.logger.Error("journal drain failed", zap.Error(err))
		}
	})
	_, _ = j.cron.AddFunc("@hourly", func() {
		if j.store == nil {
			return
		}
		removed, err := j.store.Cleanup(j.now().Add(-cfg.Retention))
		if err != nil {
			j.logger.Error("journal buffer cleanup failed", zap.Error(err))
			return
		}
		if removed > 0 {
			j.logger.Warn("expired buffered task events dropped", zap.Int("count", removed))
		}
	})

	return j
}

func (j *EventJournal) Start() {
	if j == nil || j.cron == nil {
		return
	}
	j.cron.Start()
	j.logger.Info("event journal started")
}

func (j *EventJournal) Stop(ctx context.Context) {
	if j == nil || j.cron == nil {
		return
	}
	stopCtx := j.cron.Stop()
	select {
	case <-stopCtx.Done():
	case <-ctx.Done():
	}
	j.logger.Info("event journal stopped")
}

// Record appends the event to Postgres, buffering it when that is not possible.
func (j *EventJournal) Record(ctx context.Context, event domain.TaskEvent) error {
	if j.monitor == nil || j.monitor.IsOnline() {
		err := j.events.Append(ctx, event)
		if err == nil {
			return nil
		}
		if j.store == nil {
			return err
		}
		logger.WithRequestID(ctx, j.logger).Warn("event append failed, buffering",
			zap.String("event_id", event.ID),
			zap.Error(err))
	}
	if j.store == nil {
		return errors.New("event journal has no buffer")
	}
	return j.store.Enqueue(event)
}

// History merges stored and still-buffered events of a task, oldest first.
func (j *EventJournal) History(ctx context.Context, taskID int64, limit int) ([]domain.TaskEvent, error) {
	stored, err := j.events.ListByTask(ctx, taskID, limit)
	if err != nil {
		return nil, err
	}
	if j.store == nil {
		return stored, nil
	}
	pending, err := j.store.Pending(taskID)
	if err != nil {
		j.logger.Warn("buffered events unavailable", zap.Int64("task_id", taskID), zap.Error(err))
		return stored, nil
	}
	if len(pending) == 0 {
		return stored, nil
	}

	seen := make(map[string]struct{}, len(stored))
	merged := append([]domain.TaskEvent(nil), stored...)
	for _, e := range stored {
		seen[e.ID] = struct{}{}
	}
	for _, e := range pending {
		if _, dup := seen[e.ID]; !dup {
			merged = append(merged, e)
		}
	}
	sort.SliceStable(merged, func(a, b int) bool {
		return merged[a].OccurredAt.Before(merged[b].OccurredAt)
	})
	if limit > 0 && len(merged) > limit {
		merged = merged[:limit]
	}
	return merged, nil
}

// Drain replays one batch of buffered events.
func (j *EventJournal) Drain(ctx context.Context) error {
	if j == nil || j.store == nil {
		return nil
	}
	if j.monitor != nil && !j.monitor.IsOnline() {
		j.logger.Debug("skipping journal drain (offline)")
		return nil
	}

	items, err := j.store.Peek(j.cfg.BatchSize)
	if err != nil {
		return err
	}

	for _, item := range items {
		if err := j.events.Append(ctx, item.Event); err != nil {
			j.logger.Error("failed to replay task event",
				zap.String("event_id", item.Event.ID),
				zap.Int64("task_id", item.Event.TaskID),
				zap.Error(err))

			if item.Retries+1 >= j.cfg.MaxRetries {
				j.logger.Warn("dropping task event (max retries reached)", zap.String("event_id", item.Event.ID))
				_ = j.store.Ack(item)
				continue
			}
			if err := j.store.Retry(item); err != nil {
				j.logger.Error("failed to record retry", zap.Error(err))
			}
			continue
		}

		if err := j.store.Ack(item); err != nil {
			j.logger.Warn("failed to purge replayed event", zap.Error(err))
		}
	}
	return nil
}

// Size returns the number of buffered events.
func (j *EventJournal) Size() int {
	if j == nil || j.store == nil {
		return 0
	}
	size, err := j.store.Size()
	if err != nil {
		return 0
	}
	return size
}
