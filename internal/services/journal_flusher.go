package services

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/robfig/cron/v3"
	"go.uber.org/zap"

	"github.com/magnetbrain/backend/domain"
	"github.com/magnetbrain/backend/internal/infrastructure/journal"
	"github.com/magnetbrain/backend/repository"
)

// ConnectionHealth abstracts the connection monitor functionality.
type ConnectionHealth interface {
	IsOnline() bool
}

// FlusherConfig controls how the journal is drained and pruned.
type FlusherConfig struct {
	Interval  time.Duration
	BatchSize int
	Retention time.Duration
}

// JournalFlusher drains locally journaled task events into the durable
// task_events table. Entries that fail to flush stay in the journal and
// are picked up on the next tick; entries past retention are dropped.
type JournalFlusher struct {
	store  *journal.Store
	health ConnectionHealth
	events repository.EventRepository
	logger *zap.Logger
	cron   *cron.Cron
	cfg    FlusherConfig
}

func NewJournalFlusher(
	store *journal.Store,
	health ConnectionHealth,
	events repository.EventRepository,
	logger *zap.Logger,
	cfg FlusherConfig,
) *JournalFlusher {
	if cfg.Interval <= 0 {
		cfg.Interval = 30 * time.Second
	}
	if cfg.BatchSize <= 0 {
		cfg.BatchSize = 50
	}
	if cfg.Retention <= 0 {
		cfg.Retention = 24 * time.Hour
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	f := &JournalFlusher{
		store:  store,
		health: health,
		events: events,
		logger: logger,
		cfg:    cfg,
		cron:   cron.New(cron.WithSeconds()),
	}

	schedule := fmt.Sprintf("@every %ds", int(cfg.Interval.Seconds()))
	_, _ = f.cron.AddFunc(schedule, func() {
		ctx, cancel := context.WithTimeout(context.Background(), cfg.Interval)
		defer cancel()
		if err := f.Flush(ctx); err != nil {
			f.logger.Error("journal flush failed", zap.Error(err))
		}
	})
	_, _ = f.cron.AddFunc("@hourly", func() {
		if err := f.store.Prune(time.Now().Add(-cfg.Retention)); err != nil {
			f.logger.Warn("journal prune failed", zap.Error(err))
		}
	})

	return f
}

// Start launches the cron scheduler.
func (f *JournalFlusher) Start() {
	if f == nil || f.cron == nil {
		return
	}
	f.cron.Start()
	f.logger.Info("journal flusher started")
}

// Stop gracefully stops the scheduler.
func (f *JournalFlusher) Stop(ctx context.Context) {
	if f == nil || f.cron == nil {
		return
	}
	stopCtx := f.cron.Stop()
	select {
	case <-stopCtx.Done():
	case <-ctx.Done():
	}
	f.logger.Info("journal flusher stopped")
}

// Flush drains one batch synchronously.
func (f *JournalFlusher) Flush(ctx context.Context) error {
	if f == nil || f.store == nil {
		return nil
	}
	if f.health != nil && !f.health.IsOnline() {
		f.logger.Debug("skipping journal flush (database offline)")
		return nil
	}

	entries, err := f.store.GetBatch(f.cfg.BatchSize)
	if err != nil {
		return err
	}
	if len(entries) == 0 {
		return nil
	}

	events := make([]domain.TaskEvent, 0, len(entries))
	flushable := entries[:0]
	for _, entry := range entries {
		var event domain.TaskEvent
		if err := json.Unmarshal(entry.Data, &event); err != nil {
			f.logger.Warn("dropping malformed journal entry", zap.String("entry_id", entry.ID))
			_ = f.store.Remove(entry)
			continue
		}
		events = append(events, event)
		flushable = append(flushable, entry)
	}

	if len(events) > 0 {
		if err := f.events.AppendBatch(ctx, events); err != nil {
			return err
		}
	}

	for _, entry := range flushable {
		if err := f.store.Remove(entry); err != nil {
			f.logger.Warn("failed to purge flushed journal entry", zap.Error(err))
		}
	}
	return nil
}

// Backlog returns the number of entries awaiting flush.
func (f *JournalFlusher) Backlog() int {
	if f == nil || f.store == nil {
		return 0
	}
	size, err := f.store.Size()
	if err != nil {
		return 0
	}
	return size
}
