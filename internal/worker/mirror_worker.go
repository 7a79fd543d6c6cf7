package worker

import (
	"context"
	"fmt"
	"time"

	"fintrack/internal/amqp"
	"fintrack/internal/cache"
	"fintrack/internal/core"
	"fintrack/internal/log"
	"fintrack/internal/sheets"
	"fintrack/internal/stats"
)

const (
	DefaultDedupeSize = 1024
	DefaultDedupeTTL  = time.Hour
)

// EventConsumer delivers ledger events until ctx ends.
type EventConsumer interface {
	ConsumeEvents(ctx context.Context, handler func(context.Context, *amqp.LedgerEvent) error) error
}

// Alert is raised when spending enters the warning or blocked level.
type Alert struct {
	Level stats.Level
	Stats core.DashboardStats
	At    time.Time
}

// MirrorWorker keeps a sheets.Mirror in step with ledger events and raises
// spending alerts. Events are handled one at a time; redelivered events are
// recognised by id and skipped.
type MirrorWorker struct {
	mirror sheets.Mirror
	seen   *cache.LRUCache[struct{}]
	logger *log.Logger
	// OnAlert is called for spending.warning and spending.blocked events.
	OnAlert func(ctx context.Context, a Alert)
}

func NewMirrorWorker(mirror sheets.Mirror, seen *cache.LRUCache[struct{}], logger *log.Logger) *MirrorWorker {
	if seen == nil {
		seen = cache.NewLRUCache[struct{}](DefaultDedupeSize, DefaultDedupeTTL)
	}
	if logger == nil {
		logger = log.Default(log.ComponentWorker)
	}
	w := &MirrorWorker{mirror: mirror, seen: seen, logger: logger}
	w.OnAlert = w.logAlert
	return w
}

// Run consumes events until ctx ends or the consumer gives up.
func (w *MirrorWorker) Run(ctx context.Context, consumer EventConsumer) error {
	w.logger.InfoContext(ctx, "Mirror worker started", log.FieldOperation, log.OpStartup)
	err := consumer.ConsumeEvents(ctx, w.HandleEvent)
	if ctx.Err() != nil {
		return nil
	}
	return err
}

// HandleEvent applies one event. A returned error asks for redelivery.
func (w *MirrorWorker) HandleEvent(ctx context.Context, ev *amqp.LedgerEvent) error {
	if !w.seen.Add(ev.EventID, struct{}{}) {
		w.logger.DebugContext(ctx, "Skipping duplicate event", "event_id", ev.EventID, log.FieldEventType, ev.Type)
		return nil
	}
	if err := w.apply(ctx, ev); err != nil {
		w.seen.Delete(ev.EventID)
		return err
	}
	return nil
}

func (w *MirrorWorker) apply(ctx context.Context, ev *amqp.LedgerEvent) error {
	switch ev.Type {
	case amqp.EventTransactionAdded, amqp.EventTransactionEdited:
		if ev.Transaction == nil {
			w.logger.WarnContext(ctx, "Event without transaction, ignoring", "event_id", ev.EventID, log.FieldEventType, ev.Type)
			return nil
		}
		ref, err := w.mirror.Upsert(ctx, *ev.Transaction)
		if err != nil {
			return fmt.Errorf("mirror upsert %s: %w", ev.Transaction.ID, err)
		}
		w.logger.InfoContext(ctx, "Transaction mirrored",
			append(log.NewFields().
				WithOperation(log.OpSync).
				WithTransaction(ev.Transaction.ID, string(ev.Transaction.Kind), ev.Transaction.Amount.String(), ev.Transaction.Category).
				ToSlice(), log.FieldSheetRow, ref)...)

	case amqp.EventTransactionDeleted:
		if ev.Transaction == nil {
			w.logger.WarnContext(ctx, "Delete event without transaction, ignoring", "event_id", ev.EventID)
			return nil
		}
		if err := w.mirror.Delete(ctx, ev.Transaction.ID); err != nil {
			return fmt.Errorf("mirror delete %s: %w", ev.Transaction.ID, err)
		}
		w.logger.InfoContext(ctx, "Transaction removed from mirror", log.FieldTransactionID, ev.Transaction.ID)

	case amqp.EventLedgerReset:
		if err := w.mirror.Replace(ctx, core.SeedTransactions()); err != nil {
			return fmt.Errorf("mirror reset: %w", err)
		}
		w.logger.InfoContext(ctx, "Mirror reset to seed transactions", log.FieldOperation, log.OpReset)

	case amqp.EventSpendingWarning:
		w.OnAlert(ctx, Alert{Level: stats.LevelWarning, Stats: ev.Stats, At: ev.Timestamp})

	case amqp.EventSpendingBlocked:
		w.OnAlert(ctx, Alert{Level: stats.LevelBlocked, Stats: ev.Stats, At: ev.Timestamp})

	case amqp.EventLimitChanged, amqp.EventSettingsChanged:
		w.logger.InfoContext(ctx, "Ledger settings changed",
			log.FieldEventType, ev.Type,
			"monthly_limit", ev.Stats.MonthlySpendingLimit.String(),
			"monthly_spending", ev.Stats.MonthlySpending.String())

	default:
		w.logger.WarnContext(ctx, "Unknown event type, ignoring", log.FieldEventType, ev.Type)
	}
	return nil
}

// Resync replaces the mirror with txns. Used at startup when the worker
// can read the ledger directly, to recover from missed events.
func (w *MirrorWorker) Resync(ctx context.Context, txns []core.Transaction) error {
	if err := w.mirror.Replace(ctx, txns); err != nil {
		return fmt.Errorf("resync mirror: %w", err)
	}
	w.logger.InfoContext(ctx, "Mirror resynced", log.FieldOperation, log.OpSync, "count", len(txns))
	return nil
}

func (w *MirrorWorker) logAlert(ctx context.Context, a Alert) {
	w.logger.WarnContext(ctx, "Spending alert",
		"level", a.Level,
		"monthly_spending", a.Stats.MonthlySpending.String(),
		"monthly_limit", a.Stats.MonthlySpendingLimit.String(),
		"usage_percent", stats.UsagePercent(a.Stats).String())
}
