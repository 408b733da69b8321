package shared

// TransactionStatus is the payment status reported by the producer
type TransactionStatus string

const (
	TransactionStatusPending   TransactionStatus = "pending"
	TransactionStatusCompleted TransactionStatus = "completed"
	TransactionStatusFailed    TransactionStatus = "failed"
)

// ValidTransactionStatuses lists every accepted payload status in reporting order
var ValidTransactionStatuses = []TransactionStatus{
	TransactionStatusPending,
	TransactionStatusCompleted,
	TransactionStatusFailed,
}

// AuditStatus tags an audit log entry with the pipeline stage it records
type AuditStatus string

const (
	AuditStatusReceived  AuditStatus = "received"
	AuditStatusProcessed AuditStatus = "processed"
	AuditStatusFailed    AuditStatus = "failed"
)

// OutboxStatus defines message publishing states
type OutboxStatus string

const (
	OutboxStatusPending         OutboxStatus = "PENDING"
	OutboxStatusProcessed       OutboxStatus = "PROCESSED"
	OutboxStatusFailedToPublish OutboxStatus = "FAILED_TO_PUBLISH"
)

// SupportedCurrencies is the fixed allow-list of ISO currency codes
var SupportedCurrencies = []string{"USD", "EUR", "GBP", "INR", "JPY"}
