package components

import (
	"context"
	"errors"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/payment-webhook-ledger/internal/domain/transaction"
	"github.com/payment-webhook-ledger/internal/ingestion/service"
)

func TestIdempotencyGuard_CheckDuplicate(t *testing.T) {
	ctx := context.Background()
	logger := newTestLogger()

	t.Run("no prior record", func(t *testing.T) {
		finder := new(MockTransactionRepository)
		guard := NewIdempotencyGuard(finder, logger)
		finder.On("GetByEventID", ctx, "evt_1").Return(nil, nil).Once()
		finder.On("GetByTransactionID", ctx, "txn_1").Return(nil, nil).Once()

		assert.NoError(t, guard.CheckDuplicate(ctx, "evt_1", "txn_1"))
		finder.AssertExpectations(t)
	})

	t.Run("event_id hit short-circuits", func(t *testing.T) {
		finder := new(MockTransactionRepository)
		guard := NewIdempotencyGuard(finder, logger)
		existing := &transaction.Transaction{ID: uuid.New(), EventID: "evt_1", TransactionID: "txn_0"}
		finder.On("GetByEventID", ctx, "evt_1").Return(existing, nil).Once()

		err := guard.CheckDuplicate(ctx, "evt_1", "txn_1")

		var dup *service.DuplicateError
		require.ErrorAs(t, err, &dup)
		assert.Equal(t, transaction.KeyEventID, dup.Key)
		assert.Equal(t, "evt_1", dup.Value)
		assert.Same(t, existing, dup.Existing)
		finder.AssertNotCalled(t, "GetByTransactionID", ctx, "txn_1")
	})

	t.Run("transaction_id hit", func(t *testing.T) {
		finder := new(MockTransactionRepository)
		guard := NewIdempotencyGuard(finder, logger)
		existing := &transaction.Transaction{ID: uuid.New(), EventID: "evt_0", TransactionID: "txn_1"}
		finder.On("GetByEventID", ctx, "evt_1").Return(nil, nil).Once()
		finder.On("GetByTransactionID", ctx, "txn_1").Return(existing, nil).Once()

		err := guard.CheckDuplicate(ctx, "evt_1", "txn_1")

		var dup *service.DuplicateError
		require.ErrorAs(t, err, &dup)
		assert.Equal(t, transaction.KeyTransactionID, dup.Key)
		assert.Same(t, existing, dup.Existing)
	})

	t.Run("lookup errors are not duplicates", func(t *testing.T) {
		finder := new(MockTransactionRepository)
		guard := NewIdempotencyGuard(finder, logger)
		dbErr := errors.New("connection refused")
		finder.On("GetByEventID", ctx, "evt_1").Return(nil, nil).Once()
		finder.On("GetByTransactionID", ctx, "txn_1").Return(nil, dbErr).Once()

		err := guard.CheckDuplicate(ctx, "evt_1", "txn_1")

		assert.ErrorIs(t, err, dbErr)
		var dup *service.DuplicateError
		assert.False(t, errors.As(err, &dup))
	})
}
