package components

import (
	"fmt"
	"log/slog"
	"time"

	"github.com/payment-webhook-ledger/internal/config"
	"github.com/payment-webhook-ledger/internal/domain/audit"
	"github.com/payment-webhook-ledger/internal/domain/outbox"
	"github.com/payment-webhook-ledger/internal/domain/transaction"
	"github.com/payment-webhook-ledger/internal/ingestion/service"
)

// PipelineDependencies are the storage collaborators of the ingestion pipeline.
// Finder may be a cache in front of TransactionRepo.
type PipelineDependencies struct {
	DB              TxExecutor
	Finder          transaction.Finder
	TransactionRepo transaction.Repository
	OutboxRepo      outbox.Repository
	AuditRepo       audit.Repository
}

// CreateIngestionPipeline wires the ingestion components from configuration.
// The returned recorder must be shut down after the HTTP server stops.
func CreateIngestionPipeline(
	cfg *config.Config,
	deps PipelineDependencies,
	logger *slog.Logger,
) (*service.IngestionPipeline, *AsyncAuditRecorder, error) {
	verifier, err := NewSignatureVerifier(cfg.Webhook.Secret, cfg.Webhook.ToleranceSeconds, cfg.Webhook.RequireTimestamp, time.Now)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to create signature verifier: %w", err)
	}

	recorder, err := NewAsyncAuditRecorder(
		deps.AuditRepo,
		AuditRecorderConfig{PoolSize: cfg.Audit.WorkerPoolSize},
		logger.With("component", "audit_recorder"),
	)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to create audit recorder: %w", err)
	}

	finder := deps.Finder
	if finder == nil {
		finder = deps.TransactionRepo
	}

	pipeline := service.NewIngestionPipeline(
		verifier,
		NewPayloadValidator(),
		NewFeeCalculator(),
		NewIdempotencyGuard(finder, logger.With("component", "idempotency_guard")),
		NewTransactionWriter(deps.DB, deps.TransactionRepo, deps.OutboxRepo, logger.With("component", "transaction_writer")),
		recorder,
		service.PipelineConfig{MaxBodyBytes: cfg.Webhook.MaxBodyBytes},
		logger.With("component", "ingestion_pipeline"),
	)

	if !cfg.Webhook.RequireTimestamp {
		logger.Warn("Body-only webhook signatures are accepted; they carry no replay protection")
	}
	logger.Info("Created ingestion pipeline",
		"audit_pool_size", cfg.Audit.WorkerPoolSize,
		"tolerance_seconds", cfg.Webhook.ToleranceSeconds,
		"require_timestamp", cfg.Webhook.RequireTimestamp,
	)

	return pipeline, recorder, nil
}
