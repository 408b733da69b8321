package outbox_relay

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/payment-webhook-ledger/internal/domain/outbox"
	"github.com/payment-webhook-ledger/internal/domain/shared"
	"github.com/payment-webhook-ledger/internal/metrics"
	"github.com/payment-webhook-ledger/internal/platform/messaging/producers"
)

// ErrUndecodablePayload marks a message that can never be published; it is not retried
var ErrUndecodablePayload = errors.New("outbox payload cannot be decoded")

// EventPublisher publishes one outbox message downstream and marks it done
type EventPublisher interface {
	PublishEvent(ctx context.Context, message *outbox.Message) error
}

// KafkaEventPublisher implements EventPublisher on top of the transaction event producer
type KafkaEventPublisher struct {
	outboxRepo outbox.Repository
	producer   producers.MessagePublisher
	dlq        producers.DeadLetterPublisher
	logger     *slog.Logger
}

// NewKafkaEventPublisher creates a new publisher
func NewKafkaEventPublisher(
	outboxRepo outbox.Repository,
	producer producers.MessagePublisher,
	dlq producers.DeadLetterPublisher,
	logger *slog.Logger,
) EventPublisher {
	return &KafkaEventPublisher{
		outboxRepo: outboxRepo,
		producer:   producer,
		dlq:        dlq,
		logger:     logger,
	}
}

// PublishEvent sends the stored event keyed by transaction_id, then marks the row PROCESSED
func (p *KafkaEventPublisher) PublishEvent(ctx context.Context, message *outbox.Message) error {
	logger := p.logger.With("outbox_id", message.ID, "transaction_id", message.TransactionID, "event_id", message.EventID)

	event, err := message.GetTransactionEvent()
	if err != nil {
		logger.Error("Failed to decode transaction event from outbox payload", "error", err)
		if updateErr := p.outboxRepo.UpdateStatus(ctx, message.ID, shared.OutboxStatusFailedToPublish); updateErr != nil {
			logger.Error("Also failed to mark undecodable outbox message as FAILED_TO_PUBLISH", "update_error", updateErr)
		}
		if dlqErr := p.dlq.PublishToDLQ(ctx, message.TransactionID, message.Payload, "undecodable outbox payload"); dlqErr != nil {
			logger.Error("Failed to forward undecodable outbox message to DLQ", "error", dlqErr)
		}
		metrics.OutboxMessagesTotal.WithLabelValues("dead_lettered").Inc()
		return fmt.Errorf("%w: outbox %d: %v", ErrUndecodablePayload, message.ID, err)
	}

	headers := map[string]string{
		"event-type": event.Type,
		"event-id":   message.EventID,
	}
	if err := p.producer.Publish(ctx, message.TransactionID, message.Payload, headers); err != nil {
		return fmt.Errorf("failed to publish outbox %d: %w", message.ID, err)
	}

	if err := p.outboxRepo.UpdateStatus(ctx, message.ID, shared.OutboxStatusProcessed); err != nil {
		logger.Error("Event published but failed to mark outbox message as PROCESSED", "error", err)
		return fmt.Errorf("event for %s published, but failed to mark outbox %d as PROCESSED: %w", message.TransactionID, message.ID, err)
	}

	metrics.OutboxMessagesTotal.WithLabelValues("published").Inc()
	logger.Info("Outbox message published and marked as PROCESSED")
	return nil
}
