package handler

import (
	"errors"
	"io"
	"log/slog"

	"github.com/gin-gonic/gin"

	"github.com/payment-webhook-ledger/internal/domain/shared"
	"github.com/payment-webhook-ledger/internal/ingestion/service"
	"github.com/payment-webhook-ledger/internal/webhook_gateway/middleware"
)

// WebhookHandler handles payment webhook deliveries
type WebhookHandler struct {
	ingestion    service.IngestionService
	maxBodyBytes int64
	logger       *slog.Logger
}

// NewWebhookHandler creates a new webhook handler
func NewWebhookHandler(logger *slog.Logger, ingestion service.IngestionService, maxBodyBytes int64) *WebhookHandler {
	return &WebhookHandler{
		ingestion:    ingestion,
		maxBodyBytes: maxBodyBytes,
		logger:       logger,
	}
}

// HandlePaymentWebhook handles POST /api/v1/webhooks/payments
func (h *WebhookHandler) HandlePaymentWebhook(c *gin.Context) {
	correlationID := middleware.GetCorrelationID(c)
	logger := h.logger.With("correlation_id", correlationID)

	// One byte past the cap is enough for the pipeline to see the body is oversized.
	body, err := io.ReadAll(io.LimitReader(c.Request.Body, h.maxBodyBytes+1))
	if err != nil {
		logger.Warn("Failed to read webhook body", "error", err)
		RespondWebhookValidation(c, "body", "request body could not be read")
		return
	}

	outcome := h.ingestion.Ingest(c.Request.Context(), &service.Request{
		Body:          body,
		Signature:     c.GetHeader(shared.SignatureHeader),
		Timestamp:     c.GetHeader(shared.TimestampHeader),
		CorrelationID: correlationID,
	})

	switch outcome.Kind {
	case service.OutcomeProcessed:
		RespondWebhookProcessed(c, mapProcessedTransaction(outcome.Transaction))
	case service.OutcomeAuthenticationFailure:
		RespondWebhookUnauthorized(c)
	case service.OutcomeValidationFailure:
		h.respondValidation(c, outcome)
	case service.OutcomeDuplicateDetected:
		RespondWebhookDuplicate(c, mapDuplicateTransaction(outcome.Transaction))
	default:
		RespondWebhookInternalError(c)
	}
}

func (h *WebhookHandler) respondValidation(c *gin.Context, outcome *service.Outcome) {
	ve := outcome.ValidationError()
	if ve == nil {
		RespondWebhookValidation(c, "body", "invalid request")
		return
	}
	if errors.Is(ve, service.ErrBodyTooLarge) {
		RespondWebhookValidation(c, ve.Field, "request body exceeds the maximum allowed size")
		return
	}
	RespondWebhookValidation(c, ve.Field, ve.Message)
}
