package service

import (
	"context"
	"log/slog"

	"github.com/payment-webhook-ledger/internal/domain/transaction"
)

// TransactionServiceImpl implements the TransactionService interface
type TransactionServiceImpl struct {
	finder transaction.Finder
	logger *slog.Logger
}

// NewTransactionService creates a new transaction service
func NewTransactionService(logger *slog.Logger, finder transaction.Finder) TransactionService {
	return &TransactionServiceImpl{
		finder: finder,
		logger: logger,
	}
}

// GetTransaction retrieves a transaction by its producer-assigned ID. Returns nil if not found
func (s *TransactionServiceImpl) GetTransaction(ctx context.Context, transactionID string) (*transaction.Transaction, error) {
	txn, err := s.finder.GetByTransactionID(ctx, transactionID)
	if err != nil {
		s.logger.Error("Failed to get transaction", "transaction_id", transactionID, "error", err)
		return nil, err
	}
	if txn == nil {
		s.logger.Info("Transaction not found", "transaction_id", transactionID)
	}
	return txn, nil
}
