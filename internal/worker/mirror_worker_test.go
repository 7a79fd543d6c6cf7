package worker

import (
	"context"
	"errors"
	"testing"

	"fintrack/internal/amqp"
	"fintrack/internal/core"
	"fintrack/internal/log"
	"fintrack/internal/sheets/memory"
	"fintrack/internal/stats"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// flakyMirror fails the first n upserts.
type flakyMirror struct {
	*memory.Store
	failures int
}

func (f *flakyMirror) Upsert(ctx context.Context, t core.Transaction) (string, error) {
	if f.failures > 0 {
		f.failures--
		return "", errors.New("sheets unavailable")
	}
	return f.Store.Upsert(ctx, t)
}

// sliceConsumer replays events through the handler, then waits for ctx.
type sliceConsumer struct {
	events []*amqp.LedgerEvent
	errs   []error
}

func (c *sliceConsumer) ConsumeEvents(ctx context.Context, handler func(context.Context, *amqp.LedgerEvent) error) error {
	for _, ev := range c.events {
		c.errs = append(c.errs, handler(ctx, ev))
	}
	return errors.New("message channel closed")
}

func txn(id string, amount int64) *core.Transaction {
	return &core.Transaction{ID: id, Date: "2024-12-18", Month: "2024-12", Kind: core.Debit, Amount: decimal.NewFromInt(amount), Description: "Lunch", Category: "Food"}
}

func TestMirrorWorker_AppliesEvents(t *testing.T) {
	ctx := context.Background()
	mirror := memory.New()
	w := NewMirrorWorker(mirror, nil, log.Discard())

	require.NoError(t, w.HandleEvent(ctx, amqp.NewLedgerEvent(amqp.EventTransactionAdded, txn("a", 100), core.DashboardStats{})))
	require.NoError(t, w.HandleEvent(ctx, amqp.NewLedgerEvent(amqp.EventTransactionAdded, txn("b", 200), core.DashboardStats{})))
	require.NoError(t, w.HandleEvent(ctx, amqp.NewLedgerEvent(amqp.EventTransactionEdited, txn("a", 150), core.DashboardStats{})))
	require.NoError(t, w.HandleEvent(ctx, amqp.NewLedgerEvent(amqp.EventTransactionDeleted, txn("b", 200), core.DashboardStats{})))

	rows, err := mirror.ListTransactions(ctx)
	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.Equal(t, "a", rows[0].ID)
	assert.True(t, rows[0].Amount.Equal(decimal.NewFromInt(150)))
}

func TestMirrorWorker_SkipsDuplicates(t *testing.T) {
	ctx := context.Background()
	mirror := memory.New()
	w := NewMirrorWorker(mirror, nil, log.Discard())

	ev := amqp.NewLedgerEvent(amqp.EventTransactionAdded, txn("a", 100), core.DashboardStats{})
	require.NoError(t, w.HandleEvent(ctx, ev))

	require.NoError(t, mirror.Delete(ctx, "a"))
	require.NoError(t, w.HandleEvent(ctx, ev))

	rows, _ := mirror.ListTransactions(ctx)
	assert.Empty(t, rows, "redelivered event must not be applied twice")
}

func TestMirrorWorker_FailedEventCanBeRetried(t *testing.T) {
	ctx := context.Background()
	mirror := &flakyMirror{Store: memory.New(), failures: 1}
	w := NewMirrorWorker(mirror, nil, log.Discard())

	ev := amqp.NewLedgerEvent(amqp.EventTransactionAdded, txn("a", 100), core.DashboardStats{})
	assert.Error(t, w.HandleEvent(ctx, ev))
	require.NoError(t, w.HandleEvent(ctx, ev))

	rows, _ := mirror.ListTransactions(ctx)
	assert.Len(t, rows, 1)
}

func TestMirrorWorker_ResetAndAlerts(t *testing.T) {
	ctx := context.Background()
	mirror := memory.New()
	w := NewMirrorWorker(mirror, nil, log.Discard())
	var alerts []Alert
	w.OnAlert = func(_ context.Context, a Alert) { alerts = append(alerts, a) }

	_, _ = mirror.Upsert(ctx, *txn("x", 1))
	require.NoError(t, w.HandleEvent(ctx, amqp.NewLedgerEvent(amqp.EventLedgerReset, nil, core.DashboardStats{})))
	rows, _ := mirror.ListTransactions(ctx)
	assert.Len(t, rows, 8)

	st := core.DashboardStats{MonthlySpending: decimal.NewFromInt(12500), MonthlySpendingLimit: decimal.NewFromInt(15000)}
	require.NoError(t, w.HandleEvent(ctx, amqp.NewLedgerEvent(amqp.EventSpendingWarning, nil, st)))
	require.NoError(t, w.HandleEvent(ctx, amqp.NewLedgerEvent(amqp.EventSpendingBlocked, nil, st)))
	require.NoError(t, w.HandleEvent(ctx, amqp.NewLedgerEvent(amqp.EventLimitChanged, nil, st)))

	require.Len(t, alerts, 2)
	assert.Equal(t, stats.LevelWarning, alerts[0].Level)
	assert.Equal(t, stats.LevelBlocked, alerts[1].Level)
	assert.True(t, alerts[0].Stats.MonthlySpending.Equal(decimal.NewFromInt(12500)))
}

func TestMirrorWorker_IgnoresMalformedEvents(t *testing.T) {
	ctx := context.Background()
	w := NewMirrorWorker(memory.New(), nil, log.Discard())
	assert.NoError(t, w.HandleEvent(ctx, amqp.NewLedgerEvent(amqp.EventTransactionAdded, nil, core.DashboardStats{})))
	assert.NoError(t, w.HandleEvent(ctx, amqp.NewLedgerEvent(amqp.EventTransactionDeleted, nil, core.DashboardStats{})))
	assert.NoError(t, w.HandleEvent(ctx, amqp.NewLedgerEvent("something.else", nil, core.DashboardStats{})))
}

func TestMirrorWorker_RunAndResync(t *testing.T) {
	ctx := context.Background()
	mirror := memory.New()
	w := NewMirrorWorker(mirror, nil, log.Discard())

	require.NoError(t, w.Resync(ctx, core.SeedTransactions()))
	consumer := &sliceConsumer{events: []*amqp.LedgerEvent{
		amqp.NewLedgerEvent(amqp.EventTransactionDeleted, txn("1", 0), core.DashboardStats{}),
		amqp.NewLedgerEvent(amqp.EventTransactionAdded, txn("9", 75), core.DashboardStats{}),
	}}

	err := w.Run(ctx, consumer)
	assert.Error(t, err, "consumer failure is returned while ctx is live")
	assert.Equal(t, []error{nil, nil}, consumer.errs)

	rows, _ := mirror.ListTransactions(ctx)
	require.Len(t, rows, 8)
	assert.Equal(t, "2", rows[0].ID)
	assert.Equal(t, "9", rows[7].ID)

	cancelled, cancel := context.WithCancel(ctx)
	cancel()
	assert.NoError(t, w.Run(cancelled, &sliceConsumer{}))
}
