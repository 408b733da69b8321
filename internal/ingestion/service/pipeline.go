package service

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/payment-webhook-ledger/internal/domain/audit"
	"github.com/payment-webhook-ledger/internal/domain/shared"
	"github.com/payment-webhook-ledger/internal/domain/transaction"
	"github.com/payment-webhook-ledger/internal/domain/webhook"
	"github.com/payment-webhook-ledger/internal/metrics"
)

// PipelineConfig holds the tunables of the ingestion pipeline
type PipelineConfig struct {
	MaxBodyBytes int64
}

// IngestionPipeline authenticates, validates, deduplicates and stores webhook deliveries.
// Every call writes a "received" audit entry followed by exactly one terminal entry.
type IngestionPipeline struct {
	verifier   SignatureVerifier
	validator  PayloadValidator
	calculator FeeCalculator
	guard      IdempotencyGuard
	writer     TransactionWriter
	auditor    AuditRecorder
	config     PipelineConfig
	now        func() time.Time
	logger     *slog.Logger
}

func NewIngestionPipeline(
	verifier SignatureVerifier,
	validator PayloadValidator,
	calculator FeeCalculator,
	guard IdempotencyGuard,
	writer TransactionWriter,
	auditor AuditRecorder,
	config PipelineConfig,
	logger *slog.Logger,
) *IngestionPipeline {
	return &IngestionPipeline{
		verifier:   verifier,
		validator:  validator,
		calculator: calculator,
		guard:      guard,
		writer:     writer,
		auditor:    auditor,
		config:     config,
		now:        time.Now,
		logger:     logger,
	}
}

// WithClock replaces the clock used to stamp processed transactions
func (p *IngestionPipeline) WithClock(now func() time.Time) *IngestionPipeline {
	p.now = now
	return p
}

// Ingest runs one delivery to a terminal outcome
func (p *IngestionPipeline) Ingest(ctx context.Context, request *Request) *Outcome {
	start := time.Now()
	envelope := webhook.ParseEnvelope(request.Body)

	logger := p.logger
	if request.CorrelationID != "" {
		logger = logger.With("correlation_id", request.CorrelationID)
	}
	if envelope.EventID != "" {
		logger = logger.With("event_id", envelope.EventID)
	}

	p.record(ctx, request, envelope, shared.AuditStatusReceived, nil)
	metrics.WebhookBytesTotal.Add(float64(len(request.Body)))

	outcome := p.run(ctx, request, logger)

	if outcome.Succeeded() {
		p.record(ctx, request, envelope, shared.AuditStatusProcessed, nil)
		logger.Info("Webhook processed",
			"transaction_id", outcome.Transaction.TransactionID,
			"id", outcome.Transaction.ID.String(),
		)
	} else {
		p.record(ctx, request, envelope, shared.AuditStatusFailed, outcome.Err)
		logOutcome(logger, outcome)
	}

	metrics.WebhooksTotal.WithLabelValues(outcome.Kind.String()).Inc()
	metrics.IngestionDuration.Observe(time.Since(start).Seconds())

	return outcome
}

func (p *IngestionPipeline) run(ctx context.Context, request *Request, logger *slog.Logger) *Outcome {
	if p.config.MaxBodyBytes > 0 && int64(len(request.Body)) > p.config.MaxBodyBytes {
		return failed(OutcomeValidationFailure, &ValidationError{
			Field:   "body",
			Message: fmt.Sprintf("request body exceeds %d bytes", p.config.MaxBodyBytes),
			Err:     ErrBodyTooLarge,
		})
	}

	if err := p.verifier.Authenticate(request.Body, request.Signature, request.Timestamp); err != nil {
		return failed(OutcomeAuthenticationFailure, err)
	}

	event, err := decodeEvent(request.Body)
	if err != nil {
		return failed(OutcomeValidationFailure, err)
	}

	if err := p.validator.Validate(event); err != nil {
		return failed(OutcomeValidationFailure, err)
	}

	if outcome := p.checkDuplicate(ctx, event.EventID, event.Data.TransactionID); outcome != nil {
		return outcome
	}

	// Amount was checked by the validator, so parsing cannot fail here.
	amount, err := decimal.NewFromString(string(event.Data.Amount))
	if err != nil {
		return failed(OutcomeValidationFailure, &ValidationError{Field: "data.amount", Message: "amount must be a number", Err: err})
	}
	derived := p.calculator.CalculateDerivedFields(amount)

	txn := buildTransaction(event, amount, derived, p.now().UTC())

	if err := p.writer.Persist(ctx, txn); err != nil {
		var dupErr transaction.ErrDuplicateTransaction
		if errors.As(err, &dupErr) {
			logger.Warn("Duplicate detected at insert time", "key", dupErr.Key, "value", dupErr.Value)
			return p.remapInsertDuplicate(ctx, event, dupErr)
		}
		return failed(OutcomePersistenceFailure, err)
	}

	return processed(txn)
}

func (p *IngestionPipeline) checkDuplicate(ctx context.Context, eventID, transactionID string) *Outcome {
	err := p.guard.CheckDuplicate(ctx, eventID, transactionID)
	if err == nil {
		return nil
	}

	var dup *DuplicateError
	if errors.As(err, &dup) {
		return duplicate(dup)
	}
	return failed(OutcomePersistenceFailure, err)
}

// remapInsertDuplicate turns a lost insert race into the same outcome as a pre-check hit
func (p *IngestionPipeline) remapInsertDuplicate(ctx context.Context, event *webhook.IncomingEvent, dupErr transaction.ErrDuplicateTransaction) *Outcome {
	if outcome := p.checkDuplicate(ctx, event.EventID, event.Data.TransactionID); outcome != nil && outcome.Kind == OutcomeDuplicateDetected {
		return outcome
	}
	return duplicate(&DuplicateError{Key: dupErr.Key, Value: dupErr.Value})
}

func (p *IngestionPipeline) record(ctx context.Context, request *Request, envelope webhook.Envelope, status shared.AuditStatus, cause error) {
	entry := &audit.Entry{
		EventID:       envelope.EventID,
		EventType:     envelope.EventType,
		Payload:       auditPayload(envelope),
		Status:        status,
		CorrelationID: request.CorrelationID,
		CreatedAt:     time.Now().UTC(),
	}
	if cause != nil {
		msg := cause.Error()
		entry.ErrorMessage = &msg
	}
	p.auditor.Record(ctx, entry)
}

func auditPayload(envelope webhook.Envelope) any {
	if envelope.Payload != nil {
		return envelope.Payload
	}
	return envelope.Raw
}

// decodeEvent decodes the body, naming the offending JSON path on type mismatches
func decodeEvent(body []byte) (*webhook.IncomingEvent, error) {
	var event webhook.IncomingEvent
	decoder := json.NewDecoder(bytes.NewReader(body))
	decoder.UseNumber()

	if err := decoder.Decode(&event); err != nil {
		var typeErr *json.UnmarshalTypeError
		if errors.As(err, &typeErr) && typeErr.Field != "" {
			return nil, &ValidationError{
				Field:   typeErr.Field,
				Message: fmt.Sprintf("%s must not be of type %s", typeErr.Field, typeErr.Value),
				Err:     err,
			}
		}
		return nil, &ValidationError{Field: "body", Message: "request body must be a valid JSON object", Err: err}
	}
	if decoder.More() {
		return nil, &ValidationError{Field: "body", Message: "request body must contain a single JSON object"}
	}
	return &event, nil
}

func buildTransaction(event *webhook.IncomingEvent, amount decimal.Decimal, derived DerivedFields, now time.Time) *transaction.Transaction {
	data := event.Data
	txn := &transaction.Transaction{
		ID:            uuid.New(),
		EventID:       event.EventID,
		EventType:     event.EventType,
		TransactionID: data.TransactionID,
		Amount:        amount,
		Currency:      strings.ToUpper(strings.TrimSpace(data.Currency)),
		Sender:        toParty(data.Sender),
		Receiver:      toParty(data.Receiver),
		Status:        shared.TransactionStatus(data.Status),
		PaymentMethod: data.PaymentMethod,
		Metadata:      data.Metadata,
	}
	txn.SetDerivedFields(derived.ProcessingFee, derived.NetAmount)
	txn.MarkProcessed(now)
	return txn
}

func toParty(p *webhook.Party) transaction.Party {
	return transaction.Party{
		ID:      p.ID,
		Name:    p.Name,
		Email:   p.Email,
		Country: strings.ToUpper(strings.TrimSpace(p.Country)),
	}
}

func logOutcome(logger *slog.Logger, outcome *Outcome) {
	switch outcome.Kind {
	case OutcomePersistenceFailure:
		logger.Error("Webhook ingestion failed", "outcome", outcome.Kind.String(), "error", outcome.Err)
	case OutcomeDuplicateDetected:
		logger.Info("Duplicate webhook ignored", "outcome", outcome.Kind.String(), "error", outcome.Err)
	default:
		logger.Warn("Webhook rejected", "outcome", outcome.Kind.String(), "error", outcome.Err)
	}
}
