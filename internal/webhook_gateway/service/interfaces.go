package service

import (
	"context"

	"github.com/payment-webhook-ledger/internal/domain/audit"
	"github.com/payment-webhook-ledger/internal/domain/transaction"
)

// TransactionService defines read access to processed transactions
type TransactionService interface {
	// GetTransaction retrieves a transaction by the producer's transaction ID
	// Returns nil if the transaction is not found
	GetTransaction(ctx context.Context, transactionID string) (*transaction.Transaction, error)
}

// AuditService defines read access to the webhook audit trail
type AuditService interface {
	// GetAuditLogs retrieves a page of audit entries for an event, newest first
	// Returns entries, total count of all entries for the event, and any error
	GetAuditLogs(ctx context.Context, eventID string, page, perPage int) ([]*audit.Entry, int64, error)
}
