// Package txlog applies add, edit and remove operations to a transaction log
// and keeps the ledger's derived fields consistent with it.
//
// Functions never mutate the slice they are given; they return a new one.
package txlog

import (
	"fintrack/internal/core"
	"fintrack/internal/stats"

	"github.com/shopspring/decimal"
)

// Add appends t. It does not gate; admission is the caller's job.
func Add(txns []core.Transaction, t core.Transaction) []core.Transaction {
	out := make([]core.Transaction, 0, len(txns)+1)
	out = append(out, txns...)
	return append(out, t.WithMonth())
}

// Edit replaces the transaction with the given id, keeping its position and
// id. The replacement is taken whole. If no transaction matches, the log is
// returned unchanged together with core.ErrTransactionNotFound.
func Edit(txns []core.Transaction, id string, replacement core.Transaction) ([]core.Transaction, error) {
	idx := indexOf(txns, id)
	if idx < 0 {
		return txns, core.ErrTransactionNotFound
	}
	out := append([]core.Transaction(nil), txns...)
	replacement.ID = id
	replacement.Month = core.MonthOf(replacement.Date)
	out[idx] = replacement
	return out, nil
}

// Remove deletes the transaction with the given id. The boolean reports
// whether anything was removed.
func Remove(txns []core.Transaction, id string) ([]core.Transaction, bool) {
	idx := indexOf(txns, id)
	if idx < 0 {
		return txns, false
	}
	out := make([]core.Transaction, 0, len(txns)-1)
	out = append(out, txns[:idx]...)
	return append(out, txns[idx+1:]...), true
}

// RecomputeBalance returns initial + credits - debits over the whole log.
func RecomputeBalance(txns []core.Transaction, initial decimal.Decimal) decimal.Decimal {
	bal := initial
	for _, t := range txns {
		switch t.Kind {
		case core.Credit:
			bal = bal.Add(t.Amount)
		case core.Debit:
			bal = bal.Sub(t.Amount)
		}
	}
	return bal
}

// Refresh backfills missing months and recomputes CurrentBalance and
// SpendingBlocked from scratch.
func Refresh(l core.Ledger, asOfMonth string) core.Ledger {
	out := l.Clone()
	for i := range out.Transactions {
		out.Transactions[i] = out.Transactions[i].WithMonth()
	}
	out.CurrentBalance = RecomputeBalance(out.Transactions, out.InitialBalance)
	out.SpendingBlocked = stats.ForLedger(out, asOfMonth).LimitExceeded
	return out
}

func indexOf(txns []core.Transaction, id string) int {
	for i, t := range txns {
		if t.ID == id {
			return i
		}
	}
	return -1
}
