// Package webhook holds the inbound payment event as decoded from a producer request.
// These types are transient: they are never persisted as-is.
package webhook

import (
	"bytes"
	"encoding/json"
)

// IncomingEvent is the decoded body of a payment webhook delivery
type IncomingEvent struct {
	EventID   string           `json:"event_id"`
	EventType string           `json:"event_type"`
	Timestamp any              `json:"timestamp,omitempty"` // Producer-claimed, informational only
	Data      *TransactionData `json:"data"`
}

// TransactionData is the business payload embedded in an IncomingEvent.
// Amount is kept raw so the validator can tell a JSON number from a quoted string.
type TransactionData struct {
	TransactionID string          `json:"transaction_id"`
	Amount        json.RawMessage `json:"amount"`
	Currency      string          `json:"currency"`
	Sender        *Party          `json:"sender"`
	Receiver      *Party          `json:"receiver"`
	Status        string          `json:"status"`
	PaymentMethod string          `json:"payment_method"`
	Metadata      map[string]any  `json:"metadata,omitempty"`
}

// Party identifies the sender or receiver of a payment
type Party struct {
	ID      string `json:"id"`
	Name    string `json:"name"`
	Email   string `json:"email"`
	Country string `json:"country"`
}

// Envelope is a lenient view of a raw body, used to label audit entries
// before the body has been authenticated or validated.
type Envelope struct {
	EventID   string
	EventType string
	Payload   map[string]any
	Raw       string
}

// ParseEnvelope extracts whatever identifying fields it can from a raw body.
// It never fails: non-JSON bodies are kept verbatim in Raw. Numbers stay
// json.Number so amounts keep their exact text.
func ParseEnvelope(body []byte) Envelope {
	var payload map[string]any
	decoder := json.NewDecoder(bytes.NewReader(body))
	decoder.UseNumber()
	if err := decoder.Decode(&payload); err != nil || payload == nil || decoder.More() {
		return Envelope{Raw: string(body)}
	}

	env := Envelope{Payload: payload}
	if id, ok := payload["event_id"].(string); ok {
		env.EventID = id
	}
	if eventType, ok := payload["event_type"].(string); ok {
		env.EventType = eventType
	}
	return env
}
