package components

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/jackc/pgx/v5"

	"github.com/payment-webhook-ledger/internal/domain/outbox"
	"github.com/payment-webhook-ledger/internal/domain/transaction"
)

// TxExecutor runs fn inside a database transaction
type TxExecutor interface {
	ExecuteTx(ctx context.Context, fn func(tx pgx.Tx) error) error
}

// TransactionWriter stores a transaction together with its outbox message.
// Either both rows are committed or neither is.
type TransactionWriter struct {
	db         TxExecutor
	txnRepo    transaction.Repository
	outboxRepo outbox.Repository
	logger     *slog.Logger
}

func NewTransactionWriter(db TxExecutor, txnRepo transaction.Repository, outboxRepo outbox.Repository, logger *slog.Logger) *TransactionWriter {
	return &TransactionWriter{
		db:         db,
		txnRepo:    txnRepo,
		outboxRepo: outboxRepo,
		logger:     logger,
	}
}

// Persist inserts txn. A unique violation surfaces as transaction.ErrDuplicateTransaction.
func (w *TransactionWriter) Persist(ctx context.Context, txn *transaction.Transaction) error {
	return w.db.ExecuteTx(ctx, func(tx pgx.Tx) error {
		if err := w.txnRepo.WithTx(tx).Create(ctx, txn); err != nil {
			return err
		}

		message, err := outbox.NewMessage(txn)
		if err != nil {
			return fmt.Errorf("failed to build outbox message for %s: %w", txn.TransactionID, err)
		}
		if err := w.outboxRepo.WithTx(tx).Create(ctx, message); err != nil {
			w.logger.Error("Failed to create outbox message",
				"transaction_id", txn.TransactionID,
				"error", err,
			)
			return fmt.Errorf("failed to create outbox message for %s: %w", txn.TransactionID, err)
		}

		w.logger.Debug("Transaction stored", "transaction_id", txn.TransactionID, "outbox_id", message.ID)
		return nil
	})
}
