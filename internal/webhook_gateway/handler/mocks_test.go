package handler

import (
	"context"
	"log/slog"
	"os"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/mock"

	"github.com/payment-webhook-ledger/internal/domain/audit"
	"github.com/payment-webhook-ledger/internal/domain/shared"
	"github.com/payment-webhook-ledger/internal/domain/transaction"
	"github.com/payment-webhook-ledger/internal/ingestion/service"
)

type MockIngestionService struct {
	mock.Mock
}

func (m *MockIngestionService) Ingest(ctx context.Context, request *service.Request) *service.Outcome {
	args := m.Called(ctx, request)
	return args.Get(0).(*service.Outcome)
}

type MockTransactionService struct {
	mock.Mock
}

func (m *MockTransactionService) GetTransaction(ctx context.Context, transactionID string) (*transaction.Transaction, error) {
	args := m.Called(ctx, transactionID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*transaction.Transaction), args.Error(1)
}

type MockAuditService struct {
	mock.Mock
}

func (m *MockAuditService) GetAuditLogs(ctx context.Context, eventID string, page, perPage int) ([]*audit.Entry, int64, error) {
	args := m.Called(ctx, eventID, page, perPage)
	if args.Get(0) == nil {
		return nil, 0, args.Error(2)
	}
	return args.Get(0).([]*audit.Entry), args.Get(1).(int64), args.Error(2)
}

func newTestLogger() *slog.Logger {
	return slog.New(slog.NewJSONHandler(os.Stdout, nil))
}

func setupTestRouter() *gin.Engine {
	gin.SetMode(gin.TestMode)
	return gin.New()
}

func newTestTransaction() *transaction.Transaction {
	processedAt := time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)
	txn := &transaction.Transaction{
		ID:            uuid.MustParse("7d1c6f1e-3f7a-4d38-9f0e-2b0d4f3a9c11"),
		EventID:       "evt_001",
		EventType:     "payment.completed",
		TransactionID: "txn_001",
		Amount:        decimal.RequireFromString("100.5"),
		Currency:      "USD",
		Sender:        transaction.Party{ID: "s1", Name: "Alice", Email: "alice@example.com", Country: "US"},
		Receiver:      transaction.Party{ID: "r1", Name: "Bob", Email: "bob@example.co.uk", Country: "GB"},
		Status:        shared.TransactionStatusCompleted,
		PaymentMethod: "card",
	}
	txn.SetDerivedFields(decimal.RequireFromString("2.01"), decimal.RequireFromString("98.49"))
	txn.MarkProcessed(processedAt)
	return txn
}
