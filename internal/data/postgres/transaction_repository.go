// Package postgres provides PostgreSQL implementations of the domain repositories.
// Uniqueness of event_id and transaction_id is enforced here by table constraints,
// which is what makes duplicate delivery safe under concurrent requests.
package postgres

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/shopspring/decimal"

	"github.com/payment-webhook-ledger/internal/domain/shared"
	"github.com/payment-webhook-ledger/internal/domain/transaction"
	"github.com/payment-webhook-ledger/internal/platform/persistence"
)

const uniqueViolationCode = "23505"

// Constraint names from migrations/postgres/000001_create_transactions.up.sql
const (
	eventIDConstraint       = "transactions_event_id_key"
	transactionIDConstraint = "transactions_transaction_id_key"
)

const selectTransactionColumns = `
		SELECT id, event_id, event_type, transaction_id, amount::text, currency,
			sender_id, sender_name, sender_email, sender_country,
			receiver_id, receiver_name, receiver_email, receiver_country,
			status, payment_method, metadata,
			processing_fee::text, net_amount::text, exchange_rate::text,
			processed_at, created_at, updated_at
		FROM transactions`

// TransactionRepository implements the transaction.Repository interface for PostgreSQL
type TransactionRepository struct {
	querier persistence.Querier // Can be *pgxpool.Pool or pgx.Tx
	logger  *slog.Logger
}

// NewTransactionRepository creates a new PostgreSQL transaction repository
func NewTransactionRepository(logger *slog.Logger, db *persistence.PostgresDB) transaction.Repository {
	return &TransactionRepository{
		querier: db.Pool(),
		logger:  logger,
	}
}

// WithTx returns a repository bound to tx
func (r *TransactionRepository) WithTx(tx pgx.Tx) transaction.Repository {
	return &TransactionRepository{
		querier: tx,
		logger:  r.logger,
	}
}

// Create inserts a new transaction. A unique violation on either identifier is
// reported as transaction.ErrDuplicateTransaction so callers can treat it the same
// way as a duplicate found by lookup.
func (r *TransactionRepository) Create(ctx context.Context, txn *transaction.Transaction) error {
	query := `
		INSERT INTO transactions (
			id, event_id, event_type, transaction_id, amount, currency,
			sender_id, sender_name, sender_email, sender_country,
			receiver_id, receiver_name, receiver_email, receiver_country,
			status, payment_method, metadata,
			processing_fee, net_amount, exchange_rate,
			processed_at, created_at, updated_at
		)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17, $18, $19, $20, $21, $22, $23)
	`

	metadata, err := encodeMetadata(txn.Metadata)
	if err != nil {
		return fmt.Errorf("failed to encode transaction metadata: %w", err)
	}

	_, err = r.querier.Exec(ctx, query,
		txn.ID,
		txn.EventID,
		txn.EventType,
		txn.TransactionID,
		txn.Amount.StringFixed(2),
		txn.Currency,
		txn.Sender.ID,
		txn.Sender.Name,
		txn.Sender.Email,
		txn.Sender.Country,
		txn.Receiver.ID,
		txn.Receiver.Name,
		txn.Receiver.Email,
		txn.Receiver.Country,
		string(txn.Status),
		txn.PaymentMethod,
		metadata,
		nullDecimalArg(txn.ProcessingFee, 2),
		nullDecimalArg(txn.NetAmount, 2),
		nullDecimalArg(txn.ExchangeRate, 8),
		txn.ProcessedAt,
		txn.CreatedAt,
		txn.UpdatedAt,
	)
	if err != nil {
		if dup := duplicateFromPgError(err, txn); dup != nil {
			r.logger.Warn("Transaction insert rejected by unique constraint",
				"key", dup.Key,
				"value", dup.Value,
			)
			return *dup
		}
		r.logger.Error("Failed to create transaction",
			"event_id", txn.EventID,
			"transaction_id", txn.TransactionID,
			"error", err,
		)
		return fmt.Errorf("failed to create transaction: %w", err)
	}

	return nil
}

// GetByEventID returns the transaction created for eventID, or nil if none exists
func (r *TransactionRepository) GetByEventID(ctx context.Context, eventID string) (*transaction.Transaction, error) {
	txn, err := scanTransaction(r.querier.QueryRow(ctx, selectTransactionColumns+`
		WHERE event_id = $1
	`, eventID))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		r.logger.Error("Failed to get transaction by event ID", "event_id", eventID, "error", err)
		return nil, fmt.Errorf("failed to get transaction by event ID: %w", err)
	}
	return txn, nil
}

// GetByTransactionID returns the transaction with the producer's transactionID, or nil if none exists
func (r *TransactionRepository) GetByTransactionID(ctx context.Context, transactionID string) (*transaction.Transaction, error) {
	txn, err := scanTransaction(r.querier.QueryRow(ctx, selectTransactionColumns+`
		WHERE transaction_id = $1
	`, transactionID))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		r.logger.Error("Failed to get transaction by transaction ID", "transaction_id", transactionID, "error", err)
		return nil, fmt.Errorf("failed to get transaction by transaction ID: %w", err)
	}
	return txn, nil
}

func scanTransaction(row pgx.Row) (*transaction.Transaction, error) {
	var (
		txn           transaction.Transaction
		amount        string
		status        string
		metadata      []byte
		processingFee *string
		netAmount     *string
		exchangeRate  *string
		processedAt   *time.Time
	)

	err := row.Scan(
		&txn.ID,
		&txn.EventID,
		&txn.EventType,
		&txn.TransactionID,
		&amount,
		&txn.Currency,
		&txn.Sender.ID,
		&txn.Sender.Name,
		&txn.Sender.Email,
		&txn.Sender.Country,
		&txn.Receiver.ID,
		&txn.Receiver.Name,
		&txn.Receiver.Email,
		&txn.Receiver.Country,
		&status,
		&txn.PaymentMethod,
		&metadata,
		&processingFee,
		&netAmount,
		&exchangeRate,
		&processedAt,
		&txn.CreatedAt,
		&txn.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}

	if txn.Amount, err = decimal.NewFromString(amount); err != nil {
		return nil, fmt.Errorf("invalid stored amount %q: %w", amount, err)
	}
	if txn.ProcessingFee, err = parseNullDecimal(processingFee); err != nil {
		return nil, err
	}
	if txn.NetAmount, err = parseNullDecimal(netAmount); err != nil {
		return nil, err
	}
	if txn.ExchangeRate, err = parseNullDecimal(exchangeRate); err != nil {
		return nil, err
	}
	if len(metadata) > 0 {
		if err := json.Unmarshal(metadata, &txn.Metadata); err != nil {
			return nil, fmt.Errorf("invalid stored metadata: %w", err)
		}
	}
	txn.Status = shared.TransactionStatus(status)
	txn.ProcessedAt = processedAt

	return &txn, nil
}

// duplicateFromPgError maps a unique violation onto the identifier that clashed.
// Unknown constraint names fall back to event_id, which is checked first everywhere else.
func duplicateFromPgError(err error, txn *transaction.Transaction) *transaction.ErrDuplicateTransaction {
	var pgErr *pgconn.PgError
	if !errors.As(err, &pgErr) || pgErr.Code != uniqueViolationCode {
		return nil
	}

	switch pgErr.ConstraintName {
	case transactionIDConstraint:
		return &transaction.ErrDuplicateTransaction{Key: transaction.KeyTransactionID, Value: txn.TransactionID}
	case eventIDConstraint:
		return &transaction.ErrDuplicateTransaction{Key: transaction.KeyEventID, Value: txn.EventID}
	default:
		return &transaction.ErrDuplicateTransaction{Key: transaction.KeyEventID, Value: txn.EventID}
	}
}

func encodeMetadata(metadata map[string]any) ([]byte, error) {
	if metadata == nil {
		return nil, nil
	}
	return json.Marshal(metadata)
}

func nullDecimalArg(d decimal.NullDecimal, places int32) *string {
	if !d.Valid {
		return nil
	}
	s := d.Decimal.StringFixed(places)
	return &s
}

func parseNullDecimal(raw *string) (decimal.NullDecimal, error) {
	if raw == nil {
		return decimal.NullDecimal{}, nil
	}
	d, err := decimal.NewFromString(*raw)
	if err != nil {
		return decimal.NullDecimal{}, fmt.Errorf("invalid stored decimal %q: %w", *raw, err)
	}
	return decimal.NewNullDecimal(d), nil
}
