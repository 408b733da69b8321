package transaction

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/payment-webhook-ledger/internal/domain/shared"
)

// Party is the persisted sender or receiver of a transaction
type Party struct {
	ID      string `json:"id"`
	Name    string `json:"name"`
	Email   string `json:"email"`
	Country string `json:"country"`
}

// Transaction is the authoritative record of a processed payment event.
// It is created once per unique (event_id, transaction_id) pair and never updated afterwards.
type Transaction struct {
	ID            uuid.UUID                `json:"id"`
	EventID       string                   `json:"event_id"`
	EventType     string                   `json:"event_type"`
	TransactionID string                   `json:"transaction_id"`
	Amount        decimal.Decimal          `json:"amount"`
	Currency      string                   `json:"currency"`
	Sender        Party                    `json:"sender"`
	Receiver      Party                    `json:"receiver"`
	Status        shared.TransactionStatus `json:"status"`
	PaymentMethod string                   `json:"payment_method"`
	Metadata      map[string]any           `json:"metadata,omitempty"`
	ProcessingFee decimal.NullDecimal      `json:"processing_fee"`
	NetAmount     decimal.NullDecimal      `json:"net_amount"`
	ExchangeRate  decimal.NullDecimal      `json:"exchange_rate"` // Reserved, never computed
	ProcessedAt   *time.Time               `json:"processed_at,omitempty"`
	CreatedAt     time.Time                `json:"created_at"`
	UpdatedAt     time.Time                `json:"updated_at"`
}

// SetDerivedFields records the computed fee and net amount
func (t *Transaction) SetDerivedFields(fee, net decimal.Decimal) {
	t.ProcessingFee = decimal.NewNullDecimal(fee)
	t.NetAmount = decimal.NewNullDecimal(net)
}

// MarkProcessed stamps the record with its persistence time
func (t *Transaction) MarkProcessed(now time.Time) {
	t.ProcessedAt = &now
	t.CreatedAt = now
	t.UpdatedAt = now
}
