package components

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/pashagolub/pgxmock/v3"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/payment-webhook-ledger/internal/domain/outbox"
	"github.com/payment-webhook-ledger/internal/domain/shared"
	"github.com/payment-webhook-ledger/internal/domain/transaction"
	"github.com/payment-webhook-ledger/internal/platform/persistence"
)

type poolExecutor struct {
	pool pgxmock.PgxPoolIface
}

func (e poolExecutor) ExecuteTx(ctx context.Context, fn func(tx pgx.Tx) error) error {
	return persistence.ExecuteTx(ctx, e.pool, fn)
}

func newWriterTransaction() *transaction.Transaction {
	txn := &transaction.Transaction{
		ID:            uuid.New(),
		EventID:       "evt_1",
		EventType:     "payment.completed",
		TransactionID: "txn_1",
		Amount:        decimal.RequireFromString("100.50"),
		Currency:      "USD",
		Status:        shared.TransactionStatusCompleted,
		PaymentMethod: "card",
	}
	txn.SetDerivedFields(decimal.RequireFromString("2.01"), decimal.RequireFromString("98.49"))
	txn.MarkProcessed(time.Now().UTC())
	return txn
}

func TestTransactionWriter_Persist(t *testing.T) {
	ctx := context.Background()
	logger := newTestLogger()

	setup := func(t *testing.T) (pgxmock.PgxPoolIface, *MockTransactionRepository, *MockOutboxRepository, *TransactionWriter) {
		pool, err := pgxmock.NewPool()
		require.NoError(t, err)
		t.Cleanup(pool.Close)
		txnRepo := new(MockTransactionRepository)
		outboxRepo := new(MockOutboxRepository)
		return pool, txnRepo, outboxRepo, NewTransactionWriter(poolExecutor{pool: pool}, txnRepo, outboxRepo, logger)
	}

	t.Run("commits transaction and outbox message together", func(t *testing.T) {
		pool, txnRepo, outboxRepo, writer := setup(t)
		txn := newWriterTransaction()

		pool.ExpectBegin()
		txnRepo.On("Create", ctx, txn).Return(nil).Once()
		outboxRepo.On("Create", ctx, mock.MatchedBy(func(m *outbox.Message) bool {
			return m.TransactionID == "txn_1" && m.EventID == "evt_1" && m.Status == shared.OutboxStatusPending
		})).Run(func(args mock.Arguments) {
			args.Get(1).(*outbox.Message).ID = 7
		}).Return(nil).Once()
		pool.ExpectCommit()

		require.NoError(t, writer.Persist(ctx, txn))
		txnRepo.AssertExpectations(t)
		outboxRepo.AssertExpectations(t)
		assert.NoError(t, pool.ExpectationsWereMet())
	})

	t.Run("unique violation rolls back and stays typed", func(t *testing.T) {
		pool, txnRepo, outboxRepo, writer := setup(t)
		txn := newWriterTransaction()

		pool.ExpectBegin()
		txnRepo.On("Create", ctx, txn).
			Return(transaction.ErrDuplicateTransaction{Key: transaction.KeyEventID, Value: "evt_1"}).Once()
		pool.ExpectRollback()

		err := writer.Persist(ctx, txn)

		var dupErr transaction.ErrDuplicateTransaction
		require.ErrorAs(t, err, &dupErr)
		assert.Equal(t, "evt_1", dupErr.Value)
		outboxRepo.AssertNotCalled(t, "Create", mock.Anything, mock.Anything)
		assert.NoError(t, pool.ExpectationsWereMet())
	})

	t.Run("outbox failure rolls back the transaction row", func(t *testing.T) {
		pool, txnRepo, outboxRepo, writer := setup(t)
		txn := newWriterTransaction()
		outboxErr := errors.New("outbox insert failed")

		pool.ExpectBegin()
		txnRepo.On("Create", ctx, txn).Return(nil).Once()
		outboxRepo.On("Create", ctx, mock.Anything).Return(outboxErr).Once()
		pool.ExpectRollback()

		err := writer.Persist(ctx, txn)

		assert.ErrorIs(t, err, outboxErr)
		assert.Contains(t, err.Error(), "txn_1")
		assert.NoError(t, pool.ExpectationsWereMet())
	})

	t.Run("begin failure", func(t *testing.T) {
		pool, txnRepo, _, writer := setup(t)
		pool.ExpectBegin().WillReturnError(errors.New("pool exhausted"))

		err := writer.Persist(ctx, newWriterTransaction())

		require.Error(t, err)
		assert.Contains(t, err.Error(), "failed to begin transaction")
		txnRepo.AssertNotCalled(t, "Create", mock.Anything, mock.Anything)
	})
}
