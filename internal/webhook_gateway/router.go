package webhook_gateway

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/payment-webhook-ledger/internal/webhook_gateway/handler"
	"github.com/payment-webhook-ledger/internal/webhook_gateway/middleware"
)

// setupRouter configures API routes and middleware for the application
func setupRouter(
	logger *slog.Logger,
	r *gin.Engine,
	webhookHandler *handler.WebhookHandler,
	transactionHandler *handler.TransactionHandler,
	auditHandler *handler.AuditHandler,
) {
	r.Use(middleware.Recovery(logger))
	r.Use(middleware.Logger(logger))
	r.Use(middleware.CorrelationID())

	// API v1 endpoints
	v1 := r.Group("/api/v1")
	{
		v1.POST("/webhooks/payments", webhookHandler.HandlePaymentWebhook)

		v1.GET("/transactions/:transaction_id", transactionHandler.GetTransaction)
		v1.GET("/audit-logs", auditHandler.GetAuditLogs)
	}

	// Legacy ingestion path
	r.POST("/webhooks/payment", webhookHandler.HandlePaymentWebhook)

	// Health check endpoint for monitoring
	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "healthy", "timestamp": time.Now().UTC()})
	})

	r.GET("/metrics", gin.WrapH(promhttp.Handler()))
}
