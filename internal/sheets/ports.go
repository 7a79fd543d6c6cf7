package sheets

import (
	"context"

	"fintrack/internal/core"
)

// Header is the first row of the mirrored sheet.
var Header = []string{"ID", "Date", "Month", "Type", "Amount", "Description", "Category", "PaymentMethod"}

// Ports for the transaction mirror.
type (
	TransactionWriter interface {
		// Upsert writes t to the row holding its ID, appending when absent.
		Upsert(ctx context.Context, t core.Transaction) (rowRef string, err error)
	}

	TransactionDeleter interface {
		// Delete removes the row holding id. Missing ids are not an error.
		Delete(ctx context.Context, id string) error
	}

	TransactionLister interface {
		ListTransactions(ctx context.Context) ([]core.Transaction, error)
	}

	// Replacer rewrites the whole mirror, used after a ledger reset.
	Replacer interface {
		Replace(ctx context.Context, txns []core.Transaction) error
	}

	Mirror interface {
		TransactionWriter
		TransactionDeleter
		TransactionLister
		Replacer
	}
)
