package core

import "github.com/shopspring/decimal"

const (
	DefaultCategory      = "Other"
	DefaultPaymentMethod = "PhonePe"
)

var (
	DefaultInitialBalance = decimal.NewFromInt(25000)
	DefaultMonthlyLimit   = decimal.NewFromInt(15000)
)

// SeedTransactions returns the demo transactions a fresh ledger starts with.
// A new slice is returned on every call.
func SeedTransactions() []Transaction {
	seed := func(id, date string, amount int64, kind Kind, desc, cat, method string) Transaction {
		return Transaction{
			ID:            id,
			Date:          date,
			Amount:        decimal.NewFromInt(amount),
			Kind:          kind,
			Description:   desc,
			Category:      cat,
			PaymentMethod: method,
			Month:         MonthOf(date),
		}
	}
	return []Transaction{
		seed("1", "2024-12-15", 25000, Credit, "Salary Credit", "Income", "Bank Transfer"),
		seed("2", "2024-12-14", 150, Debit, "Coffee Shop", "Food & Dining", "PhonePe"),
		seed("3", "2024-12-13", 450, Debit, "Grocery Store", "Groceries", "Google Pay"),
		seed("4", "2024-12-12", 1200, Debit, "Monthly Rent", "Housing", "Bank Transfer"),
		seed("5", "2024-12-11", 320, Debit, "Movie Ticket", "Entertainment", "Paytm"),
		seed("6", "2024-12-10", 2500, Debit, "Online Shopping", "Shopping", "Google Pay"),
		seed("7", "2024-12-09", 800, Debit, "Fuel", "Transportation", "PhonePe"),
		seed("8", "2024-12-08", 5000, Credit, "Freelance Work", "Income", "Bank Transfer"),
	}
}

// DefaultLedger returns the ledger created on first load. Derived fields are
// left for the caller to recompute.
func DefaultLedger() Ledger {
	return Ledger{
		InitialBalance:       DefaultInitialBalance,
		CurrentBalance:       DefaultInitialBalance,
		MonthlySpendingLimit: DefaultMonthlyLimit,
		Transactions:         SeedTransactions(),
		AlertPreferences:     AlertPreferences{Visual: true, Sound: false},
	}
}
