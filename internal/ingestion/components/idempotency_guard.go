package components

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/payment-webhook-ledger/internal/domain/transaction"
	"github.com/payment-webhook-ledger/internal/ingestion/service"
)

// IdempotencyGuard looks for a prior transaction with the same event or transaction id.
// It only narrows the window for duplicates; the unique constraints on the
// transactions table are what rule them out.
type IdempotencyGuard struct {
	finder transaction.Finder
	logger *slog.Logger
}

func NewIdempotencyGuard(finder transaction.Finder, logger *slog.Logger) *IdempotencyGuard {
	return &IdempotencyGuard{
		finder: finder,
		logger: logger,
	}
}

// CheckDuplicate returns a *service.DuplicateError carrying the stored record on a hit.
// event_id is checked first and wins when both identifiers match different records.
func (g *IdempotencyGuard) CheckDuplicate(ctx context.Context, eventID, transactionID string) error {
	existing, err := g.finder.GetByEventID(ctx, eventID)
	if err != nil {
		return fmt.Errorf("idempotency check by event_id %s failed: %w", eventID, err)
	}
	if existing != nil {
		g.logger.Info("Event already processed", "event_id", eventID, "transaction_id", existing.TransactionID)
		return &service.DuplicateError{Key: transaction.KeyEventID, Value: eventID, Existing: existing}
	}

	existing, err = g.finder.GetByTransactionID(ctx, transactionID)
	if err != nil {
		return fmt.Errorf("idempotency check by transaction_id %s failed: %w", transactionID, err)
	}
	if existing != nil {
		g.logger.Info("Transaction already processed", "transaction_id", transactionID, "event_id", existing.EventID)
		return &service.DuplicateError{Key: transaction.KeyTransactionID, Value: transactionID, Existing: existing}
	}

	return nil
}
