package outbox

import (
	"encoding/json"
	"time"

	"github.com/payment-webhook-ledger/internal/domain/shared"
	"github.com/payment-webhook-ledger/internal/domain/transaction"
)

// TransactionEvent is the downstream notification emitted for a stored transaction
type TransactionEvent struct {
	Type        string                   `json:"type"`
	Transaction *transaction.Transaction `json:"transaction"`
	EmittedAt   time.Time                `json:"emitted_at"`
}

// Message stores transaction data for reliable message publishing
type Message struct {
	ID            int64               `json:"id"`
	TransactionID string              `json:"transaction_id"`
	EventID       string              `json:"event_id"`
	Payload       json.RawMessage     `json:"payload"`
	Status        shared.OutboxStatus `json:"status"`
	Attempts      int                 `json:"attempts"`
	CreatedAt     time.Time           `json:"created_at"`
	LastAttemptAt *time.Time          `json:"last_attempt_at,omitempty"`
}

func NewMessage(txn *transaction.Transaction) (*Message, error) {
	payload, err := json.Marshal(TransactionEvent{
		Type:        shared.TransactionEventType,
		Transaction: txn,
		EmittedAt:   time.Now().UTC(),
	})
	if err != nil {
		return nil, err
	}

	return &Message{
		TransactionID: txn.TransactionID,
		EventID:       txn.EventID,
		Payload:       payload,
		Status:        shared.OutboxStatusPending,
		Attempts:      0,
		CreatedAt:     time.Now(),
	}, nil
}

func (m *Message) IncrementAttempts() {
	m.Attempts++
	now := time.Now()
	m.LastAttemptAt = &now
}

func (m *Message) MarkAsProcessed() {
	m.Status = shared.OutboxStatusProcessed
	now := time.Now()
	m.LastAttemptAt = &now
}

func (m *Message) MarkAsFailed() {
	m.Status = shared.OutboxStatusFailedToPublish
	now := time.Now()
	m.LastAttemptAt = &now
}

// GetTransactionEvent extracts the downstream event from the payload
func (m *Message) GetTransactionEvent() (*TransactionEvent, error) {
	var event TransactionEvent
	if err := json.Unmarshal(m.Payload, &event); err != nil {
		return nil, err
	}
	return &event, nil
}
