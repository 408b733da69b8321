package components

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/panjf2000/ants/v2"

	"github.com/payment-webhook-ledger/internal/domain/audit"
	"github.com/payment-webhook-ledger/internal/metrics"
)

// AuditRecorderConfig sizes the audit worker pool
type AuditRecorderConfig struct {
	PoolSize int
}

// AsyncAuditRecorder writes audit entries on an ants worker pool.
// Record never returns an error and never drops an entry: it waits for a free
// worker, and writes inline once the pool is closed. Write failures are logged.
type AsyncAuditRecorder struct {
	repo   audit.Repository
	pool   *ants.Pool
	logger *slog.Logger
}

func NewAsyncAuditRecorder(repo audit.Repository, config AuditRecorderConfig, logger *slog.Logger) (*AsyncAuditRecorder, error) {
	pool, err := ants.NewPool(config.PoolSize)
	if err != nil {
		return nil, err
	}

	return &AsyncAuditRecorder{
		repo:   repo,
		pool:   pool,
		logger: logger,
	}, nil
}

// Record schedules entry for writing. The write outlives the request context.
func (r *AsyncAuditRecorder) Record(ctx context.Context, entry *audit.Entry) {
	if entry.CreatedAt.IsZero() {
		entry.CreatedAt = time.Now().UTC()
	}

	logger := r.logger
	if entry.CorrelationID != "" {
		logger = r.logger.With("correlation_id", entry.CorrelationID)
	}

	writeCtx := context.WithoutCancel(ctx)
	err := r.pool.Submit(func() {
		r.write(writeCtx, entry, logger)
	})
	if err != nil {
		// Pool released or overloaded, the caller pays for the write
		logger.Warn("Audit pool unavailable, writing inline", "event_id", entry.EventID, "error", err)
		metrics.AuditWritesTotal.WithLabelValues("inline").Inc()
		r.write(writeCtx, entry, logger)
	}
}

func (r *AsyncAuditRecorder) write(ctx context.Context, entry *audit.Entry, logger *slog.Logger) {
	if err := r.repo.Create(ctx, entry); err != nil {
		metrics.AuditWritesTotal.WithLabelValues("error").Inc()
		logger.Error("Failed to write audit entry",
			"event_id", entry.EventID,
			"status", entry.Status,
			"error", err,
		)
		return
	}
	metrics.AuditWritesTotal.WithLabelValues("ok").Inc()
}

// Shutdown waits up to timeout for pending writes, then releases the pool
func (r *AsyncAuditRecorder) Shutdown(timeout time.Duration) error {
	r.logger.Info("Draining audit writer", "running_workers", r.pool.Running())
	if err := r.pool.ReleaseTimeout(timeout); err != nil {
		if errors.Is(err, ants.ErrTimeout) {
			r.logger.Warn("Audit writer did not drain in time", "timeout", timeout)
		}
		return err
	}
	return nil
}

// Running returns the number of in-flight audit writes
func (r *AsyncAuditRecorder) Running() int {
	return r.pool.Running()
}
