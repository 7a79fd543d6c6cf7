package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"
	"unicode/utf8"

	"fintrack/internal/admission"
	"fintrack/internal/amqp"
	"fintrack/internal/core"
	"fintrack/internal/log"
	"fintrack/internal/stats"
	"fintrack/internal/storage"
	"fintrack/internal/txlog"
	"fintrack/internal/upi"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

const (
	QRCategory      = "QR Payment"
	QRPaymentMethod = "UPI"
)

// EventPublisher receives ledger events after each committed change.
type EventPublisher interface {
	PublishEvent(ctx context.Context, ev *amqp.LedgerEvent) error
}

type Options struct {
	// WarningRatio defaults to stats.DefaultWarningRatio when zero.
	WarningRatio decimal.Decimal
	// GateEdits runs admission on edited debits too.
	GateEdits bool
	Now       func() time.Time
	NewID     func() string
	Scanner   *upi.Scanner
	Parser    *upi.Parser
	Logger    *log.Logger
}

// LedgerService is the only entry point for reading and changing the
// ledger. Every write is a full load, mutate, refresh and save cycle
// serialized by mu. Reads hold mu too, since the first load persists the
// seed ledger.
type LedgerService struct {
	store     *storage.LedgerStore
	publisher EventPublisher
	opts      Options
	logger    *log.Logger

	mu sync.Mutex
}

func NewLedgerService(store *storage.LedgerStore, publisher EventPublisher, opts Options) *LedgerService {
	if opts.WarningRatio.IsZero() {
		opts.WarningRatio = stats.DefaultWarningRatio
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	if opts.NewID == nil {
		opts.NewID = uuid.NewString
	}
	if opts.Parser == nil {
		opts.Parser = upi.DefaultParser
	}
	if opts.Scanner == nil {
		opts.Scanner = upi.NewScanner(nil, opts.Parser)
	}
	logger := opts.Logger
	if logger == nil {
		logger = log.Default(log.ComponentLedger)
	}
	return &LedgerService{store: store, publisher: publisher, opts: opts, logger: logger}
}

// StatsView is DashboardStats plus the figures derived from it for display.
type StatsView struct {
	core.DashboardStats
	Month        string          `json:"month"`
	Net          decimal.Decimal `json:"net"`
	UsagePercent decimal.Decimal `json:"usagePercent"`
	Headroom     decimal.Decimal `json:"headroom"`
	Level        stats.Level     `json:"level"`
}

// Result reports the outcome of a gated write. A denied Decision is not an
// error: nothing was committed and Transaction is nil.
type Result struct {
	Transaction *core.Transaction  `json:"transaction,omitempty"`
	Decision    admission.Decision `json:"decision"`
	Stats       StatsView          `json:"stats"`
}

// TransactionInput is what a user types into the transaction form. Amount
// is raw text so malformed numbers surface as validation errors.
type TransactionInput struct {
	Date          string    `json:"date"`
	Amount        string    `json:"amount"`
	Kind          core.Kind `json:"type"`
	Description   string    `json:"description"`
	Category      string    `json:"category"`
	PaymentMethod string    `json:"paymentMethod"`
}

// Settings holds optional changes; nil fields are left as they are.
type Settings struct {
	InitialBalance       *decimal.Decimal       `json:"initialBalance,omitempty"`
	MonthlySpendingLimit *decimal.Decimal       `json:"monthlySpendingLimit,omitempty"`
	AlertPreferences     *core.AlertPreferences `json:"alertPreferences,omitempty"`
}

type Breakdown struct {
	Month      string                `json:"month"`
	Total      decimal.Decimal       `json:"total"`
	Categories []core.CategoryAmount `json:"categories"`
}

func (s *LedgerService) month() string {
	return stats.CurrentMonth(s.opts.Now())
}

func (s *LedgerService) today() string {
	return s.opts.Now().Format(core.DateLayout)
}

func (s *LedgerService) view(l core.Ledger, month string) StatsView {
	st := stats.ForLedger(l, month)
	return StatsView{
		DashboardStats: st,
		Month:          month,
		Net:            stats.Net(st),
		UsagePercent:   stats.UsagePercent(st),
		Headroom:       stats.Headroom(st),
		Level:          stats.SpendingLevel(st, s.opts.WarningRatio),
	}
}

// load reads the ledger under mu. Load seeds and saves on first use, so an
// unlocked read could overwrite a write that landed after its Get.
func (s *LedgerService) load(ctx context.Context) (core.Ledger, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.store.Load(ctx)
}

func (s *LedgerService) GetStats(ctx context.Context) (StatsView, error) {
	l, err := s.load(ctx)
	if err != nil {
		return StatsView{}, err
	}
	return s.view(l, s.month()), nil
}

func (s *LedgerService) GetLedger(ctx context.Context) (core.Ledger, error) {
	return s.load(ctx)
}

func (s *LedgerService) ListTransactions(ctx context.Context, f txlog.Filter) ([]core.Transaction, error) {
	l, err := s.load(ctx)
	if err != nil {
		return nil, err
	}
	return txlog.Query(l.Transactions, f), nil
}

func (s *LedgerService) CategoryBreakdown(ctx context.Context) (Breakdown, error) {
	l, err := s.load(ctx)
	if err != nil {
		return Breakdown{}, err
	}
	month := s.month()
	cats := stats.CategoryBreakdown(l.Transactions, month)
	total := decimal.Zero
	for _, c := range cats {
		total = total.Add(c.Amount)
	}
	return Breakdown{Month: month, Total: total, Categories: cats}, nil
}

// buildTransaction validates form input and fills defaults. The id is left
// for the caller to assign.
func (s *LedgerService) buildTransaction(in TransactionInput, defaultMethod string) (core.Transaction, error) {
	amount, err := core.ParseAmount(in.Amount)
	if err != nil {
		return core.Transaction{}, &core.ValidationError{Field: "amount", Err: err}
	}
	t := core.Transaction{
		Date:          strings.TrimSpace(in.Date),
		Amount:        amount,
		Kind:          core.Kind(strings.ToLower(strings.TrimSpace(string(in.Kind)))),
		Description:   strings.TrimSpace(in.Description),
		Category:      strings.TrimSpace(in.Category),
		PaymentMethod: strings.TrimSpace(in.PaymentMethod),
	}
	if t.Date == "" {
		t.Date = s.today()
	}
	if t.Category == "" {
		t.Category = core.DefaultCategory
	}
	if t.PaymentMethod == "" {
		t.PaymentMethod = defaultMethod
	}
	if err := t.Validate(); err != nil {
		return core.Transaction{}, err
	}
	return t.WithMonth(), nil
}

// AddTransaction records a manual transaction. Debits go through admission
// first.
func (s *LedgerService) AddTransaction(ctx context.Context, in TransactionInput) (Result, error) {
	t, err := s.buildTransaction(in, core.DefaultPaymentMethod)
	if err != nil {
		return Result{}, err
	}
	return s.admitAndAdd(ctx, t, amqp.EventTransactionAdded)
}

// RecordQRPayment records a debit for a parsed payment intent, dated today.
func (s *LedgerService) RecordQRPayment(ctx context.Context, intent core.PaymentIntent) (Result, error) {
	if !intent.Amount.IsPositive() {
		return Result{}, &core.ValidationError{Field: "amount", Err: core.ErrInvalidAmount}
	}
	t := core.Transaction{
		Date:          s.today(),
		Amount:        intent.Amount,
		Kind:          core.Debit,
		Description:   qrDescription(intent.Merchant),
		Category:      QRCategory,
		PaymentMethod: QRPaymentMethod,
	}
	if err := t.Validate(); err != nil {
		return Result{}, err
	}
	return s.admitAndAdd(ctx, t.WithMonth(), amqp.EventTransactionAdded)
}

// qrDescription names the merchant, shortening long names so the description
// stays within core.MaxDescriptionLength characters.
func qrDescription(merchant string) string {
	const prefix = "QR Payment - "
	room := core.MaxDescriptionLength - utf8.RuneCountInString(prefix)
	if r := []rune(merchant); len(r) > room {
		merchant = string(r[:room])
	}
	return prefix + merchant
}

func (s *LedgerService) admitAndAdd(ctx context.Context, t core.Transaction, ev amqp.EventType) (Result, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	l, err := s.store.Load(ctx)
	if err != nil {
		return Result{}, err
	}
	month := s.month()
	before := s.view(l, month)

	if t.IsDebit() {
		d := admission.CanAdmit(t.Amount, before.RemainingBalance, before.MonthlySpending, before.MonthlySpendingLimit)
		if !d.Allowed {
			s.logger.InfoContext(ctx, "Debit denied",
				log.NewFields().WithTransaction("", string(t.Kind), t.Amount.String(), t.Category).
					WithOperation(log.OpCreate).ToSlice()...)
			return Result{Decision: d, Stats: before}, nil
		}
	}

	t.ID = s.opts.NewID()
	l.Transactions = txlog.Add(l.Transactions, t)
	after, err := s.commit(ctx, l, month, before.Level, ev, &t)
	if err != nil {
		return Result{}, err
	}
	return Result{Transaction: &t, Decision: admission.Allow, Stats: after}, nil
}

// EditTransaction replaces the transaction with id wholesale. Edits are not
// gated unless GateEdits is set, in which case an edited debit is checked
// against the ledger without the record it replaces.
func (s *LedgerService) EditTransaction(ctx context.Context, id string, in TransactionInput) (Result, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	l, err := s.store.Load(ctx)
	if err != nil {
		return Result{}, err
	}
	existing, ok := l.Find(id)
	if !ok {
		return Result{}, fmt.Errorf("edit %s: %w", id, core.ErrTransactionNotFound)
	}
	t, err := s.buildTransaction(in, existing.PaymentMethod)
	if err != nil {
		return Result{}, err
	}
	month := s.month()
	before := s.view(l, month)

	if s.opts.GateEdits && t.IsDebit() {
		without, _ := txlog.Remove(l.Transactions, id)
		st := stats.Compute(without, l.InitialBalance, l.MonthlySpendingLimit, month)
		if d := admission.CanAdmit(t.Amount, st.RemainingBalance, st.MonthlySpending, st.MonthlySpendingLimit); !d.Allowed {
			return Result{Decision: d, Stats: before}, nil
		}
	}

	l.Transactions, err = txlog.Edit(l.Transactions, id, t)
	if err != nil {
		return Result{}, err
	}
	t.ID = id
	after, err := s.commit(ctx, l, month, before.Level, amqp.EventTransactionEdited, &t)
	if err != nil {
		return Result{}, err
	}
	return Result{Transaction: &t, Decision: admission.Allow, Stats: after}, nil
}

// DeleteTransaction removes the transaction with id.
func (s *LedgerService) DeleteTransaction(ctx context.Context, id string) (Result, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	l, err := s.store.Load(ctx)
	if err != nil {
		return Result{}, err
	}
	removed, ok := l.Find(id)
	if !ok {
		return Result{}, fmt.Errorf("delete %s: %w", id, core.ErrTransactionNotFound)
	}
	month := s.month()
	before := s.view(l, month)

	l.Transactions, _ = txlog.Remove(l.Transactions, id)
	after, err := s.commit(ctx, l, month, before.Level, amqp.EventTransactionDeleted, &removed)
	if err != nil {
		return Result{}, err
	}
	return Result{Transaction: &removed, Decision: admission.Allow, Stats: after}, nil
}

func (s *LedgerService) SetMonthlyLimit(ctx context.Context, limit decimal.Decimal) (StatsView, error) {
	if err := core.ValidateLimit(limit); err != nil {
		return StatsView{}, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	l, err := s.store.Load(ctx)
	if err != nil {
		return StatsView{}, err
	}
	month := s.month()
	prev := s.view(l, month).Level
	l.MonthlySpendingLimit = limit
	return s.commit(ctx, l, month, prev, amqp.EventLimitChanged, nil)
}

// UpdateSettings applies the non-nil fields of in and returns the refreshed
// ledger.
func (s *LedgerService) UpdateSettings(ctx context.Context, in Settings) (core.Ledger, error) {
	if in.InitialBalance != nil {
		if err := core.ValidateInitialBalance(*in.InitialBalance); err != nil {
			return core.Ledger{}, err
		}
	}
	if in.MonthlySpendingLimit != nil {
		if err := core.ValidateLimit(*in.MonthlySpendingLimit); err != nil {
			return core.Ledger{}, err
		}
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	l, err := s.store.Load(ctx)
	if err != nil {
		return core.Ledger{}, err
	}
	month := s.month()
	prev := s.view(l, month).Level
	if in.InitialBalance != nil {
		l.InitialBalance = *in.InitialBalance
	}
	if in.MonthlySpendingLimit != nil {
		l.MonthlySpendingLimit = *in.MonthlySpendingLimit
	}
	if in.AlertPreferences != nil {
		l.AlertPreferences = *in.AlertPreferences
	}
	if _, err := s.commit(ctx, l, month, prev, amqp.EventSettingsChanged, nil); err != nil {
		return core.Ledger{}, err
	}
	return txlog.Refresh(l, month), nil
}

// Reset discards the stored ledger and returns the re-seeded default.
func (s *LedgerService) Reset(ctx context.Context) (core.Ledger, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.store.Reset(ctx); err != nil {
		return core.Ledger{}, err
	}
	l, err := s.store.Load(ctx)
	if err != nil {
		return core.Ledger{}, err
	}
	s.logger.InfoContext(ctx, "Ledger reset", log.FieldOperation, log.OpReset)
	s.publish(ctx, amqp.EventLedgerReset, nil, s.view(l, s.month()).DashboardStats)
	return l, nil
}

// ParseQR turns payment text into an intent or upi.ErrInvalidCode.
func (s *LedgerService) ParseQR(text string) (core.PaymentIntent, error) {
	intent, ok := s.opts.Parser.Parse(text)
	if !ok {
		return core.PaymentIntent{}, upi.ErrInvalidCode
	}
	return intent, nil
}

// ScanQR decodes a QR image and parses it. Nothing is recorded.
func (s *LedgerService) ScanQR(ctx context.Context, image []byte) (core.PaymentIntent, error) {
	intent, err := s.opts.Scanner.ScanIntent(ctx, image)
	if err != nil && !errors.Is(err, context.Canceled) {
		s.logger.WarnContext(ctx, "QR scan failed", log.FieldOperation, log.OpScan, log.FieldError, err.Error())
	}
	return intent, err
}

func (s *LedgerService) SampleIntents() []core.PaymentIntent {
	return upi.SampleIntents()
}

// commit refreshes derived fields, persists l and publishes the change plus
// any spending level transition. Caller holds mu.
func (s *LedgerService) commit(ctx context.Context, l core.Ledger, month string, prevLevel stats.Level, ev amqp.EventType, t *core.Transaction) (StatsView, error) {
	l = txlog.Refresh(l, month)
	if err := s.store.Save(ctx, l); err != nil {
		return StatsView{}, fmt.Errorf("save ledger: %w", err)
	}
	v := s.view(l, month)

	fields := log.NewFields().WithOperation(string(ev))
	if t != nil {
		fields = fields.WithTransaction(t.ID, string(t.Kind), t.Amount.String(), t.Category)
	}
	s.logger.InfoContext(ctx, "Ledger updated", append(fields.ToSlice(), "balance", l.CurrentBalance.String(), "level", v.Level)...)

	s.publish(ctx, ev, t, v.DashboardStats)
	if v.Level != prevLevel {
		switch v.Level {
		case stats.LevelWarning:
			s.publish(ctx, amqp.EventSpendingWarning, nil, v.DashboardStats)
		case stats.LevelBlocked:
			s.publish(ctx, amqp.EventSpendingBlocked, nil, v.DashboardStats)
		}
	}
	return v, nil
}

// publish is best effort; the change is already saved.
func (s *LedgerService) publish(ctx context.Context, typ amqp.EventType, t *core.Transaction, st core.DashboardStats) {
	if s.publisher == nil {
		return
	}
	if err := s.publisher.PublishEvent(ctx, amqp.NewLedgerEvent(typ, t, st)); err != nil {
		s.logger.ErrorContext(ctx, "Failed to publish ledger event",
			log.FieldEventType, typ, log.FieldError, err.Error())
	}
}
