package google

import (
	"fmt"
	"strings"

	"fintrack/internal/core"

	"github.com/shopspring/decimal"
)

// quoteSheet wraps a sheet name for A1 notation.
func quoteSheet(name string) string {
	return "'" + strings.ReplaceAll(name, "'", "''") + "'"
}

func transactionToRow(t core.Transaction) []any {
	t = t.WithMonth()
	return []any{
		t.ID,
		t.Date,
		t.Month,
		string(t.Kind),
		t.Amount.StringFixed(2),
		t.Description,
		t.Category,
		t.PaymentMethod,
	}
}

// rowToTransaction is lenient: rows without an id or a readable amount are
// skipped, missing trailing cells are empty.
func rowToTransaction(row []any) (core.Transaction, bool) {
	cols := make([]string, 8)
	for i := 0; i < len(row) && i < len(cols); i++ {
		cols[i] = strings.TrimSpace(fmt.Sprint(row[i]))
	}
	if cols[0] == "" {
		return core.Transaction{}, false
	}
	amount, err := decimal.NewFromString(strings.ReplaceAll(cols[4], ",", ""))
	if err != nil {
		return core.Transaction{}, false
	}
	t := core.Transaction{
		ID:            cols[0],
		Date:          cols[1],
		Month:         cols[2],
		Kind:          core.Kind(strings.ToLower(cols[3])),
		Amount:        amount,
		Description:   cols[5],
		Category:      cols[6],
		PaymentMethod: cols[7],
	}
	return t.WithMonth(), true
}
