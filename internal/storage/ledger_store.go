package storage

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"fintrack/internal/core"
	"fintrack/internal/stats"
	"fintrack/internal/txlog"
)

// DefaultLedgerKey is the snapshot key shared with the browser app.
const DefaultLedgerKey = "financeTrackerData"

// LedgerStore loads and saves the whole ledger as one JSON snapshot.
type LedgerStore struct {
	kv  KVStore
	key string
	now func() time.Time
}

func NewLedgerStore(kv KVStore, key string) *LedgerStore {
	if key == "" {
		key = DefaultLedgerKey
	}
	return &LedgerStore{kv: kv, key: key, now: time.Now}
}

// WithClock overrides the clock used to pick the current month on load.
func (s *LedgerStore) WithClock(now func() time.Time) *LedgerStore {
	s.now = now
	return s
}

func (s *LedgerStore) Key() string { return s.key }

// Load returns the persisted ledger. On first use it persists and returns
// the seeded default ledger. Months are backfilled and derived fields
// recomputed on every load.
func (s *LedgerStore) Load(ctx context.Context) (core.Ledger, error) {
	month := stats.CurrentMonth(s.now())

	raw, err := s.kv.Get(ctx, s.key)
	if errors.Is(err, ErrNotFound) {
		l := txlog.Refresh(core.DefaultLedger(), month)
		if err := s.Save(ctx, l); err != nil {
			return core.Ledger{}, fmt.Errorf("seed ledger: %w", err)
		}
		slog.InfoContext(ctx, "Seeded default ledger", "key", s.key, "transactions", len(l.Transactions))
		return l, nil
	}
	if err != nil {
		return core.Ledger{}, fmt.Errorf("read ledger: %w", err)
	}

	var l core.Ledger
	if err := json.Unmarshal(raw, &l); err != nil {
		return core.Ledger{}, fmt.Errorf("decode ledger: %w", err)
	}
	return txlog.Refresh(l, month), nil
}

// Save overwrites the snapshot.
func (s *LedgerStore) Save(ctx context.Context, l core.Ledger) error {
	if l.Transactions == nil {
		l.Transactions = []core.Transaction{}
	}
	raw, err := json.Marshal(l)
	if err != nil {
		return fmt.Errorf("encode ledger: %w", err)
	}
	if err := s.kv.Put(ctx, s.key, raw); err != nil {
		return fmt.Errorf("write ledger: %w", err)
	}
	return nil
}

// Reset deletes the snapshot so the next Load re-seeds.
func (s *LedgerStore) Reset(ctx context.Context) error {
	if err := s.kv.Delete(ctx, s.key); err != nil {
		return fmt.Errorf("reset ledger: %w", err)
	}
	return nil
}
