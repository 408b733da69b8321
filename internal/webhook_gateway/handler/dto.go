package handler

import (
	"encoding/json"
	"time"

	"github.com/shopspring/decimal"

	"github.com/payment-webhook-ledger/internal/domain/audit"
	"github.com/payment-webhook-ledger/internal/domain/transaction"
)

// WebhookSuccessResponse is the 200 body of the ingestion endpoint
type WebhookSuccessResponse struct {
	Success bool                         `json:"success"`
	Message string                       `json:"message"`
	Data    ProcessedTransactionResponse `json:"data"`
}

// WebhookErrorResponse is the non-200 body of the ingestion endpoint
type WebhookErrorResponse struct {
	Error   string      `json:"error"`
	Message string      `json:"message"`
	Field   string      `json:"field,omitempty"`
	Data    interface{} `json:"data,omitempty"`
}

// ProcessedTransactionResponse summarizes a newly stored transaction
type ProcessedTransactionResponse struct {
	ID            string      `json:"id"`
	TransactionID string      `json:"transaction_id"`
	Status        string      `json:"status"`
	Amount        json.Number `json:"amount"`
	Currency      string      `json:"currency"`
	ProcessingFee json.Number `json:"processing_fee"`
	NetAmount     json.Number `json:"net_amount"`
}

// DuplicateTransactionResponse is the public view of the record a duplicate collided with
type DuplicateTransactionResponse struct {
	ID            string `json:"id"`
	TransactionID string `json:"transaction_id"`
	Status        string `json:"status"`
	ProcessedAt   string `json:"processed_at,omitempty"`
}

// PartyResponse represents a sender or receiver in API responses
type PartyResponse struct {
	ID      string `json:"id"`
	Name    string `json:"name"`
	Email   string `json:"email"`
	Country string `json:"country"`
}

// TransactionResponse represents a stored transaction in API responses
type TransactionResponse struct {
	ID            string         `json:"id"`
	EventID       string         `json:"event_id"`
	EventType     string         `json:"event_type"`
	TransactionID string         `json:"transaction_id"`
	Amount        json.Number    `json:"amount"`
	Currency      string         `json:"currency"`
	Sender        PartyResponse  `json:"sender"`
	Receiver      PartyResponse  `json:"receiver"`
	Status        string         `json:"status"`
	PaymentMethod string         `json:"payment_method"`
	Metadata      map[string]any `json:"metadata,omitempty"`
	ProcessingFee *json.Number   `json:"processing_fee"`
	NetAmount     *json.Number   `json:"net_amount"`
	ExchangeRate  *json.Number   `json:"exchange_rate"`
	ProcessedAt   string         `json:"processed_at,omitempty"`
	CreatedAt     string         `json:"created_at"`
	UpdatedAt     string         `json:"updated_at"`
}

// AuditLogResponse represents one audit entry in API responses
type AuditLogResponse struct {
	EventID       string      `json:"event_id"`
	EventType     string      `json:"event_type"`
	Payload       interface{} `json:"payload"`
	Status        string      `json:"status"`
	ErrorMessage  *string     `json:"error_message"`
	CorrelationID string      `json:"correlation_id,omitempty"`
	CreatedAt     string      `json:"created_at"`
}

// AuditLogQuery represents the query parameters of the audit log endpoint
type AuditLogQuery struct {
	EventID string `form:"event_id" binding:"required"`
	Page    int    `form:"page,default=1" binding:"min=1"`
	PerPage int    `form:"per_page,default=20" binding:"min=1,max=100"`
}

func money(d decimal.Decimal) json.Number {
	return json.Number(d.StringFixed(2))
}

func nullMoney(d decimal.NullDecimal, places int32) *json.Number {
	if !d.Valid {
		return nil
	}
	n := json.Number(d.Decimal.StringFixed(places))
	return &n
}

func mapProcessedTransaction(txn *transaction.Transaction) ProcessedTransactionResponse {
	return ProcessedTransactionResponse{
		ID:            txn.ID.String(),
		TransactionID: txn.TransactionID,
		Status:        string(txn.Status),
		Amount:        money(txn.Amount),
		Currency:      txn.Currency,
		ProcessingFee: money(txn.ProcessingFee.Decimal),
		NetAmount:     money(txn.NetAmount.Decimal),
	}
}

func mapDuplicateTransaction(txn *transaction.Transaction) *DuplicateTransactionResponse {
	if txn == nil {
		return nil
	}
	response := &DuplicateTransactionResponse{
		ID:            txn.ID.String(),
		TransactionID: txn.TransactionID,
		Status:        string(txn.Status),
	}
	if txn.ProcessedAt != nil {
		response.ProcessedAt = txn.ProcessedAt.UTC().Format(time.RFC3339)
	}
	return response
}

func mapTransactionToResponse(txn *transaction.Transaction) TransactionResponse {
	response := TransactionResponse{
		ID:            txn.ID.String(),
		EventID:       txn.EventID,
		EventType:     txn.EventType,
		TransactionID: txn.TransactionID,
		Amount:        money(txn.Amount),
		Currency:      txn.Currency,
		Sender:        PartyResponse(txn.Sender),
		Receiver:      PartyResponse(txn.Receiver),
		Status:        string(txn.Status),
		PaymentMethod: txn.PaymentMethod,
		Metadata:      txn.Metadata,
		ProcessingFee: nullMoney(txn.ProcessingFee, 2),
		NetAmount:     nullMoney(txn.NetAmount, 2),
		ExchangeRate:  nullMoney(txn.ExchangeRate, 8),
		CreatedAt:     txn.CreatedAt.UTC().Format(time.RFC3339),
		UpdatedAt:     txn.UpdatedAt.UTC().Format(time.RFC3339),
	}
	if txn.ProcessedAt != nil {
		response.ProcessedAt = txn.ProcessedAt.UTC().Format(time.RFC3339)
	}
	return response
}

func mapAuditEntryToResponse(entry *audit.Entry) AuditLogResponse {
	return AuditLogResponse{
		EventID:       entry.EventID,
		EventType:     entry.EventType,
		Payload:       entry.Payload,
		Status:        string(entry.Status),
		ErrorMessage:  entry.ErrorMessage,
		CorrelationID: entry.CorrelationID,
		CreatedAt:     entry.CreatedAt.UTC().Format(time.RFC3339Nano),
	}
}
