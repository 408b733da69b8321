package service

import (
	"errors"

	"github.com/payment-webhook-ledger/internal/domain/transaction"
)

// ErrBodyTooLarge is wrapped by the validation failure raised for oversized bodies
var ErrBodyTooLarge = errors.New("request body too large")

// AuthenticationError reports a missing, malformed, mismatched or expired signature
type AuthenticationError struct {
	Reason string
}

func (e *AuthenticationError) Error() string {
	return "authentication failed: " + e.Reason
}

// ValidationError names the first payload field that violated a rule
type ValidationError struct {
	Field   string
	Message string
	Err     error
}

func (e *ValidationError) Error() string {
	return e.Field + ": " + e.Message
}

func (e *ValidationError) Unwrap() error {
	return e.Err
}

// DuplicateError signals that the event or transaction was already processed.
// Existing is the stored record; it may be nil if it could not be reloaded.
type DuplicateError struct {
	Key      string
	Value    string
	Existing *transaction.Transaction
}

func (e *DuplicateError) Error() string {
	return "duplicate " + e.Key + ": " + e.Value
}
