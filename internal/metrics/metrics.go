package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// Ingestion metrics
	WebhooksTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "payment_webhooks_total",
			Help: "Total number of payment webhooks handled, labelled by outcome",
		},
		[]string{"outcome"},
	)

	IngestionDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "payment_webhook_ingestion_duration_seconds",
			Help:    "End-to-end webhook ingestion latency in seconds",
			Buckets: prometheus.DefBuckets,
		},
	)

	WebhookBytesTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "payment_webhook_bytes_total",
			Help: "Total bytes of webhook bodies received",
		},
	)

	// Audit metrics
	AuditWritesTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "payment_webhook_audit_writes_total",
			Help: "Total number of audit writes, labelled by result (ok, error, inline)",
		},
		[]string{"result"},
	)

	// Idempotency cache metrics
	CacheLookupsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "payment_webhook_idempotency_cache_lookups_total",
			Help: "Total number of idempotency cache lookups, labelled by result (hit, miss, error)",
		},
		[]string{"result"},
	)

	// Outbox metrics
	OutboxMessagesTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "payment_webhook_outbox_messages_total",
			Help: "Total number of outbox messages handled by the relay, labelled by status",
		},
		[]string{"status"},
	)
)
