package audit

import (
	"context"
	"time"

	"github.com/payment-webhook-ledger/internal/domain/shared"
)

// Entry is an append-only record of one delivery attempt or outcome transition.
// Several entries per event_id are expected.
type Entry struct {
	EventID       string             `json:"event_id" bson:"event_id"`
	EventType     string             `json:"event_type" bson:"event_type"`
	Payload       any                `json:"payload" bson:"payload"`
	Status        shared.AuditStatus `json:"status" bson:"status"`
	ErrorMessage  *string            `json:"error_message" bson:"error_message"`
	CorrelationID string             `json:"correlation_id,omitempty" bson:"correlation_id,omitempty"`
	CreatedAt     time.Time          `json:"created_at" bson:"created_at"`
}

// Repository appends and reads audit entries. Entries are never updated or deleted.
type Repository interface {
	Create(ctx context.Context, entry *Entry) error
	GetByEventID(ctx context.Context, eventID string, limit, offset int) ([]*Entry, error)
	CountByEventID(ctx context.Context, eventID string) (int64, error)
}
