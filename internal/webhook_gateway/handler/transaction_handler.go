package handler

import (
	"log/slog"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/payment-webhook-ledger/internal/webhook_gateway/service"
)

// TransactionHandler handles transaction read requests
type TransactionHandler struct {
	service service.TransactionService
	logger  *slog.Logger
}

// NewTransactionHandler creates a new transaction handler
func NewTransactionHandler(logger *slog.Logger, service service.TransactionService) *TransactionHandler {
	return &TransactionHandler{
		service: service,
		logger:  logger,
	}
}

// GetTransaction handles GET /api/v1/transactions/:transaction_id
func (h *TransactionHandler) GetTransaction(c *gin.Context) {
	transactionID := strings.TrimSpace(c.Param("transaction_id"))
	if transactionID == "" {
		RespondBadRequest(c, "transaction_id is required")
		return
	}

	txn, err := h.service.GetTransaction(c.Request.Context(), transactionID)
	if err != nil {
		h.logger.Error("Failed to get transaction",
			"transaction_id", transactionID,
			"error", err,
		)
		RespondInternalError(c)
		return
	}
	if txn == nil {
		RespondNotFound(c, "Transaction not found")
		return
	}

	RespondOK(c, mapTransactionToResponse(txn))
}
