package shared

// Webhook request headers
const (
	SignatureHeader = "X-Webhook-Signature"
	TimestampHeader = "X-Webhook-Timestamp"
)

// TransactionEventType is the event type published downstream once a transaction is stored
const TransactionEventType = "transaction.processed"
