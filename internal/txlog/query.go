package txlog

import (
	"sort"
	"strings"

	"fintrack/internal/core"
)

type SortField string

const (
	SortByDate   SortField = "date"
	SortByAmount SortField = "amount"
)

type SortOrder string

const (
	Ascending  SortOrder = "asc"
	Descending SortOrder = "desc"
)

// Filter selects and orders transactions for display.
type Filter struct {
	// Search matches description, category or payment method, case-insensitively.
	Search string
	// Kind restricts results to one direction; empty means all.
	Kind  core.Kind
	Sort  SortField
	Order SortOrder
}

// DefaultFilter lists everything, newest first.
func DefaultFilter() Filter {
	return Filter{Sort: SortByDate, Order: Descending}
}

// Query returns the matching transactions in the requested order. The input
// slice is left untouched.
func Query(txns []core.Transaction, f Filter) []core.Transaction {
	needle := strings.ToLower(strings.TrimSpace(f.Search))
	out := make([]core.Transaction, 0, len(txns))
	for _, t := range txns {
		if f.Kind != "" && t.Kind != f.Kind {
			continue
		}
		if needle != "" && !matches(t, needle) {
			continue
		}
		out = append(out, t)
	}

	var less func(a, b core.Transaction) bool
	switch f.Sort {
	case SortByAmount:
		less = func(a, b core.Transaction) bool { return a.Amount.LessThan(b.Amount) }
	case SortByDate:
		less = func(a, b core.Transaction) bool { return a.Date < b.Date }
	default:
		return out
	}
	sort.SliceStable(out, func(i, j int) bool {
		if f.Order == Descending {
			return less(out[j], out[i])
		}
		return less(out[i], out[j])
	})
	return out
}

func matches(t core.Transaction, needle string) bool {
	for _, field := range []string{t.Description, t.Category, t.PaymentMethod} {
		if strings.Contains(strings.ToLower(field), needle) {
			return true
		}
	}
	return false
}
