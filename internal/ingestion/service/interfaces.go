package service

import (
	"context"

	"github.com/shopspring/decimal"

	"github.com/payment-webhook-ledger/internal/domain/audit"
	"github.com/payment-webhook-ledger/internal/domain/transaction"
	"github.com/payment-webhook-ledger/internal/domain/webhook"
)

// IngestionService runs one webhook delivery through the pipeline
type IngestionService interface {
	Ingest(ctx context.Context, request *Request) *Outcome
}

// SignatureVerifier authenticates a raw delivery.
// timestamp is empty when the producer sent no X-Webhook-Timestamp header.
type SignatureVerifier interface {
	Authenticate(body []byte, signature, timestamp string) error
}

// PayloadValidator checks a decoded event and returns the first violated rule as *ValidationError
type PayloadValidator interface {
	Validate(event *webhook.IncomingEvent) error
}

// FeeCalculator derives processing fee and net amount from a validated amount
type FeeCalculator interface {
	CalculateDerivedFields(amount decimal.Decimal) DerivedFields
}

// IdempotencyGuard reports prior processing of either identifier as *DuplicateError
type IdempotencyGuard interface {
	CheckDuplicate(ctx context.Context, eventID, transactionID string) error
}

// AuditRecorder appends audit entries without ever failing the caller
type AuditRecorder interface {
	Record(ctx context.Context, entry *audit.Entry)
}

// TransactionWriter persists a transaction together with its outbox message.
// A uniqueness clash is returned as transaction.ErrDuplicateTransaction.
type TransactionWriter interface {
	Persist(ctx context.Context, txn *transaction.Transaction) error
}

// DerivedFields holds the computed monetary fields of a transaction
type DerivedFields struct {
	ProcessingFee decimal.Decimal
	NetAmount     decimal.Decimal
}
