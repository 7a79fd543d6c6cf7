// Package stats derives dashboard figures from a transaction log.
//
// Every function here is pure. Figures are recomputed on each call and never
// cached, so they always reflect the log they are given.
package stats

import (
	"time"

	"fintrack/internal/core"

	"github.com/shopspring/decimal"
)

// DefaultWarningRatio is the share of the monthly limit above which spending
// is reported as a warning.
var DefaultWarningRatio = decimal.RequireFromString("0.8")

// Level classifies monthly spending against the limit.
type Level string

const (
	LevelNormal  Level = "normal"
	LevelWarning Level = "warning"
	LevelBlocked Level = "blocked"
)

// CurrentMonth returns the YYYY-MM key for now in its own location.
func CurrentMonth(now time.Time) string {
	return core.MonthKey(now)
}

// Compute derives the dashboard stats for asOfMonth.
//
// Income and expenses are summed over all transactions regardless of month;
// MonthlySpending only counts debits whose Month equals asOfMonth. The limit
// counts as exceeded once spending reaches it.
func Compute(txns []core.Transaction, initialBalance, limit decimal.Decimal, asOfMonth string) core.DashboardStats {
	income, expenses, monthly := decimal.Zero, decimal.Zero, decimal.Zero
	for _, t := range txns {
		switch t.Kind {
		case core.Credit:
			income = income.Add(t.Amount)
		case core.Debit:
			expenses = expenses.Add(t.Amount)
			if t.Month == asOfMonth {
				monthly = monthly.Add(t.Amount)
			}
		}
	}
	return core.DashboardStats{
		TotalIncome:          income,
		TotalExpenses:        expenses,
		RemainingBalance:     initialBalance.Add(income).Sub(expenses),
		MonthlySpending:      monthly,
		MonthlySpendingLimit: limit,
		LimitExceeded:        monthly.GreaterThanOrEqual(limit),
	}
}

// ForLedger is Compute over a whole ledger.
func ForLedger(l core.Ledger, asOfMonth string) core.DashboardStats {
	return Compute(l.Transactions, l.InitialBalance, l.MonthlySpendingLimit, asOfMonth)
}

// Net is income minus expenses.
func Net(s core.DashboardStats) decimal.Decimal {
	return s.TotalIncome.Sub(s.TotalExpenses)
}

// UsagePercent is monthly spending as a percentage of the limit, rounded to
// two places. A non-positive limit yields zero.
func UsagePercent(s core.DashboardStats) decimal.Decimal {
	if !s.MonthlySpendingLimit.IsPositive() {
		return decimal.Zero
	}
	return s.MonthlySpending.Div(s.MonthlySpendingLimit).Mul(decimal.NewFromInt(100)).Round(2)
}

// Headroom is what can still be spent this month, floored at zero.
func Headroom(s core.DashboardStats) decimal.Decimal {
	left := s.MonthlySpendingLimit.Sub(s.MonthlySpending)
	if left.IsNegative() {
		return decimal.Zero
	}
	return left
}

// SpendingLevel reports blocked when the limit is reached and warning when
// spending is strictly above warnRatio of the limit.
func SpendingLevel(s core.DashboardStats, warnRatio decimal.Decimal) Level {
	if s.LimitExceeded {
		return LevelBlocked
	}
	if s.MonthlySpendingLimit.IsPositive() &&
		s.MonthlySpending.Div(s.MonthlySpendingLimit).GreaterThan(warnRatio) {
		return LevelWarning
	}
	return LevelNormal
}

// CategoryBreakdown totals debits per category for asOfMonth, in first-seen
// order. Uncategorised debits are grouped under core.DefaultCategory.
func CategoryBreakdown(txns []core.Transaction, asOfMonth string) []core.CategoryAmount {
	byCat := map[string]decimal.Decimal{}
	order := make([]string, 0)
	for _, t := range txns {
		if !t.IsDebit() || t.Month != asOfMonth {
			continue
		}
		name := t.Category
		if name == "" {
			name = core.DefaultCategory
		}
		if _, seen := byCat[name]; !seen {
			order = append(order, name)
			byCat[name] = decimal.Zero
		}
		byCat[name] = byCat[name].Add(t.Amount)
	}
	out := make([]core.CategoryAmount, 0, len(order))
	for _, name := range order {
		out = append(out, core.CategoryAmount{Name: name, Amount: byCat[name]})
	}
	return out
}
