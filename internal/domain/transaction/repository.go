package transaction

import (
	"context"

	"github.com/jackc/pgx/v5"
)

// Finder looks up previously persisted transactions.
// Both lookups return (nil, nil) when no record exists.
type Finder interface {
	GetByEventID(ctx context.Context, eventID string) (*Transaction, error)
	GetByTransactionID(ctx context.Context, transactionID string) (*Transaction, error)
}

// Repository defines transaction persistence operations
type Repository interface {
	Finder

	// Create inserts the record. A clash on event_id or transaction_id
	// returns ErrDuplicateTransaction.
	Create(ctx context.Context, txn *Transaction) error
	WithTx(tx pgx.Tx) Repository
}

// Unique keys enforced by the storage layer
const (
	KeyEventID       = "event_id"
	KeyTransactionID = "transaction_id"
)

// ErrDuplicateTransaction indicates a uniqueness violation on event_id or transaction_id
type ErrDuplicateTransaction struct {
	Key   string
	Value string
}

func (e ErrDuplicateTransaction) Error() string {
	return "transaction with " + e.Key + " already exists: " + e.Value
}
