// Package admission decides whether a proposed debit may be recorded.
package admission

import "github.com/shopspring/decimal"

// DeniedReason names the rule that rejected a debit.
type DeniedReason string

const (
	InsufficientBalance  DeniedReason = "insufficient_balance"
	MonthlyLimitExceeded DeniedReason = "monthly_limit_exceeded"
)

// Message is the user-facing text for the reason.
func (r DeniedReason) Message() string {
	switch r {
	case InsufficientBalance:
		return "Insufficient balance"
	case MonthlyLimitExceeded:
		return "Monthly spending limit exceeded"
	default:
		return ""
	}
}

// Decision is the outcome of CanAdmit. Reason is empty when Allowed.
type Decision struct {
	Allowed bool         `json:"allowed"`
	Reason  DeniedReason `json:"reason,omitempty"`
}

func (d Decision) Message() string {
	return d.Reason.Message()
}

// Allow is the decision for operations that are not gated.
var Allow = Decision{Allowed: true}

// CanAdmit checks a debit of amount against the remaining balance and the
// monthly limit. The balance rule wins when both would fail. Debits that land
// exactly on the balance or the limit are allowed.
func CanAdmit(amount, remainingBalance, monthlySpending, limit decimal.Decimal) Decision {
	if amount.GreaterThan(remainingBalance) {
		return Decision{Reason: InsufficientBalance}
	}
	if monthlySpending.Add(amount).GreaterThan(limit) {
		return Decision{Reason: MonthlyLimitExceeded}
	}
	return Allow
}
