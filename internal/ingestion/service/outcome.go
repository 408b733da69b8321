package service

import (
	"errors"

	"github.com/payment-webhook-ledger/internal/domain/transaction"
)

// OutcomeKind discriminates the terminal state of one ingestion
type OutcomeKind int

const (
	OutcomeProcessed OutcomeKind = iota
	OutcomeAuthenticationFailure
	OutcomeValidationFailure
	OutcomeDuplicateDetected
	OutcomePersistenceFailure
)

func (k OutcomeKind) String() string {
	switch k {
	case OutcomeProcessed:
		return "processed"
	case OutcomeAuthenticationFailure:
		return "authentication_failure"
	case OutcomeValidationFailure:
		return "validation_failure"
	case OutcomeDuplicateDetected:
		return "duplicate_detected"
	case OutcomePersistenceFailure:
		return "persistence_failure"
	default:
		return "unknown"
	}
}

// Request is a raw webhook delivery as received by the HTTP layer
type Request struct {
	Body          []byte
	Signature     string
	Timestamp     string
	CorrelationID string
}

// Outcome is the result of one ingestion.
// Transaction is the stored record when Kind is OutcomeProcessed and the
// pre-existing record (possibly nil) when Kind is OutcomeDuplicateDetected.
type Outcome struct {
	Kind        OutcomeKind
	Transaction *transaction.Transaction
	Err         error
}

// Succeeded reports whether a new transaction was stored
func (o *Outcome) Succeeded() bool {
	return o.Kind == OutcomeProcessed
}

// ValidationError returns the field-level failure for OutcomeValidationFailure
func (o *Outcome) ValidationError() *ValidationError {
	var ve *ValidationError
	if errors.As(o.Err, &ve) {
		return ve
	}
	return nil
}

func processed(txn *transaction.Transaction) *Outcome {
	return &Outcome{Kind: OutcomeProcessed, Transaction: txn}
}

func failed(kind OutcomeKind, err error) *Outcome {
	return &Outcome{Kind: kind, Err: err}
}

func duplicate(dup *DuplicateError) *Outcome {
	return &Outcome{Kind: OutcomeDuplicateDetected, Transaction: dup.Existing, Err: dup}
}
