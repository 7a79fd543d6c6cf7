package core

import (
	"errors"
	"fmt"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/shopspring/decimal"
)

const (
	Credit Kind = "credit"
	Debit  Kind = "debit"
)

// MaxDescriptionLength caps Transaction.Description, counted in characters.
const MaxDescriptionLength = 200

// DateLayout is the calendar-date format used for Transaction.Date.
const DateLayout = "2006-01-02"

// MonthLayout is the format of Transaction.Month and of the stats month key.
const MonthLayout = "2006-01"

type (
	// Kind is the direction of a transaction: credit adds to the balance, debit subtracts.
	Kind string

	Transaction struct {
		ID            string          `json:"id"`
		Date          string          `json:"date"`
		Amount        decimal.Decimal `json:"amount"`
		Kind          Kind            `json:"type"`
		Description   string          `json:"description"`
		Category      string          `json:"category"`
		PaymentMethod string          `json:"paymentMethod"`
		Month         string          `json:"month"`
	}

	AlertPreferences struct {
		Visual bool `json:"visual"`
		Sound  bool `json:"sound"`
	}

	// Ledger is the whole persisted user state. CurrentBalance and
	// SpendingBlocked are derived and recomputed on every change.
	Ledger struct {
		InitialBalance       decimal.Decimal  `json:"initialBalance"`
		CurrentBalance       decimal.Decimal  `json:"currentBalance"`
		MonthlySpendingLimit decimal.Decimal  `json:"monthlySpendingLimit"`
		Transactions         []Transaction    `json:"transactions"`
		AlertPreferences     AlertPreferences `json:"alertPreferences"`
		SpendingBlocked      bool             `json:"isSpendingBlocked"`
	}

	DashboardStats struct {
		TotalIncome          decimal.Decimal `json:"totalIncome"`
		TotalExpenses        decimal.Decimal `json:"totalExpenses"`
		RemainingBalance     decimal.Decimal `json:"remainingBalance"`
		MonthlySpending      decimal.Decimal `json:"monthlySpending"`
		MonthlySpendingLimit decimal.Decimal `json:"monthlySpendingLimit"`
		LimitExceeded        bool            `json:"isLimitExceeded"`
	}

	// PaymentIntent is the structured result of parsing a UPI-style payment URI.
	PaymentIntent struct {
		Amount      decimal.Decimal `json:"amount"`
		Merchant    string          `json:"merchant"`
		PayeeID     string          `json:"upiId"`
		Description string          `json:"description"`
	}

	// CategoryAmount is the debit total of a single category.
	CategoryAmount struct {
		Name   string          `json:"name"`
		Amount decimal.Decimal `json:"amount"`
	}
)

var (
	ErrInvalidAmount       = errors.New("invalid amount")
	ErrEmptyDescription    = errors.New("empty description")
	ErrInvalidDate         = errors.New("invalid date")
	ErrInvalidKind         = errors.New("invalid transaction type")
	ErrInvalidLimit        = errors.New("invalid spending limit")
	ErrInvalidBalance      = errors.New("invalid initial balance")
	ErrTransactionNotFound = errors.New("transaction not found")
)

// ValidationError reports which input field was rejected.
type ValidationError struct {
	Field string
	Err   error
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("%s: %v", e.Field, e.Err)
}

func (e *ValidationError) Unwrap() error {
	return e.Err
}

func invalid(field string, err error) error {
	return &ValidationError{Field: field, Err: err}
}

func (k Kind) Valid() bool {
	return k == Credit || k == Debit
}

// MonthOf returns the YYYY-MM prefix of a YYYY-MM-DD date, or "" if the
// date is too short to carry one.
func MonthOf(date string) string {
	if len(date) < 7 {
		return ""
	}
	return date[:7]
}

// MonthKey formats t as a YYYY-MM month key.
func MonthKey(t time.Time) string {
	return t.Format(MonthLayout)
}

// Validate checks the caller-supplied fields of a transaction. Derived fields
// (ID, Month) are not checked.
func (t Transaction) Validate() error {
	if !t.Kind.Valid() {
		return invalid("type", ErrInvalidKind)
	}
	if !t.Amount.IsPositive() {
		return invalid("amount", ErrInvalidAmount)
	}
	if strings.TrimSpace(t.Description) == "" {
		return invalid("description", ErrEmptyDescription)
	}
	if utf8.RuneCountInString(t.Description) > MaxDescriptionLength {
		return invalid("description", fmt.Errorf("description too long (max %d characters)", MaxDescriptionLength))
	}
	if _, err := time.Parse(DateLayout, t.Date); err != nil {
		return invalid("date", ErrInvalidDate)
	}
	return nil
}

// WithMonth returns t with Month backfilled from Date when it is empty.
func (t Transaction) WithMonth() Transaction {
	if t.Month == "" {
		t.Month = MonthOf(t.Date)
	}
	return t
}

func (t Transaction) IsDebit() bool {
	return t.Kind == Debit
}

// Clone returns a copy of the ledger that shares no slice storage with l.
func (l Ledger) Clone() Ledger {
	out := l
	out.Transactions = append([]Transaction(nil), l.Transactions...)
	return out
}

// Find returns the transaction with the given id.
func (l Ledger) Find(id string) (Transaction, bool) {
	for _, t := range l.Transactions {
		if t.ID == id {
			return t, true
		}
	}
	return Transaction{}, false
}

// ValidateLimit rejects non-positive spending limits.
func ValidateLimit(limit decimal.Decimal) error {
	if !limit.IsPositive() {
		return invalid("monthlySpendingLimit", ErrInvalidLimit)
	}
	return nil
}

// ValidateInitialBalance rejects negative opening balances.
func ValidateInitialBalance(balance decimal.Decimal) error {
	if balance.IsNegative() {
		return invalid("initialBalance", ErrInvalidBalance)
	}
	return nil
}
