package handler

import (
	"log/slog"

	"github.com/gin-gonic/gin"

	"github.com/payment-webhook-ledger/internal/webhook_gateway/service"
)

// AuditHandler handles audit log requests
type AuditHandler struct {
	service service.AuditService
	logger  *slog.Logger
}

// NewAuditHandler creates a new audit handler
func NewAuditHandler(logger *slog.Logger, service service.AuditService) *AuditHandler {
	return &AuditHandler{
		service: service,
		logger:  logger,
	}
}

// GetAuditLogs handles GET /api/v1/audit-logs
func (h *AuditHandler) GetAuditLogs(c *gin.Context) {
	var query AuditLogQuery
	if err := c.ShouldBindQuery(&query); err != nil {
		RespondBadRequest(c, "event_id is required; page must be >= 1 and per_page between 1 and 100")
		return
	}

	entries, total, err := h.service.GetAuditLogs(c.Request.Context(), query.EventID, query.Page, query.PerPage)
	if err != nil {
		h.logger.Error("Failed to get audit logs",
			"event_id", query.EventID,
			"error", err,
		)
		RespondInternalError(c)
		return
	}

	response := make([]AuditLogResponse, len(entries))
	for i, entry := range entries {
		response[i] = mapAuditEntryToResponse(entry)
	}

	RespondWithPaginatedData(c, response, query.Page, query.PerPage, int(total))
}
