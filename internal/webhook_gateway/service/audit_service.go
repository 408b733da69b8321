package service

import (
	"context"
	"log/slog"

	"github.com/payment-webhook-ledger/internal/domain/audit"
)

// AuditServiceImpl implements the AuditService interface
type AuditServiceImpl struct {
	auditRepo audit.Repository
	logger    *slog.Logger
}

// NewAuditService creates a new audit service
func NewAuditService(logger *slog.Logger, auditRepo audit.Repository) AuditService {
	return &AuditServiceImpl{
		auditRepo: auditRepo,
		logger:    logger,
	}
}

// GetAuditLogs retrieves paginated audit entries for an event
// Returns entries, total count, and any error
func (s *AuditServiceImpl) GetAuditLogs(ctx context.Context, eventID string, page, perPage int) ([]*audit.Entry, int64, error) {
	offset := (page - 1) * perPage

	entries, err := s.auditRepo.GetByEventID(ctx, eventID, perPage, offset)
	if err != nil {
		s.logger.Error("Failed to get audit entries", "event_id", eventID, "error", err)
		return nil, 0, err
	}

	total, err := s.auditRepo.CountByEventID(ctx, eventID)
	if err != nil {
		s.logger.Error("Failed to count audit entries", "event_id", eventID, "error", err)
		return nil, 0, err
	}

	return entries, total, nil
}
