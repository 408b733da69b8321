package mongo

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"reflect"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/bsoncodec"
	"go.mongodb.org/mongo-driver/bson/bsonrw"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/payment-webhook-ledger/internal/domain/audit"
	"github.com/payment-webhook-ledger/internal/domain/shared"
)

const (
	// AuditCollectionName is the name of the webhook audit collection in MongoDB
	AuditCollectionName = "webhook_audit_logs"
)

var jsonNumberType = reflect.TypeOf(json.Number(""))

// payloadRegistry stores json.Number values as Decimal128 so payload amounts keep
// their exact digits. Numbers outside the Decimal128 range are stored as strings.
var payloadRegistry = newPayloadRegistry()

func newPayloadRegistry() *bsoncodec.Registry {
	reg := bson.NewRegistry()
	reg.RegisterTypeEncoder(jsonNumberType, bsoncodec.ValueEncoderFunc(encodeJSONNumber))
	return reg
}

func encodeJSONNumber(_ bsoncodec.EncodeContext, vw bsonrw.ValueWriter, val reflect.Value) error {
	if !val.IsValid() || val.Type() != jsonNumberType {
		return bsoncodec.ValueEncoderError{Name: "encodeJSONNumber", Types: []reflect.Type{jsonNumberType}, Received: val}
	}
	if d, err := primitive.ParseDecimal128(val.String()); err == nil {
		return vw.WriteDecimal128(d)
	}
	return vw.WriteString(val.String())
}

// AuditRepository implements the audit.Repository interface for MongoDB.
// The collection is append-only: this type never updates or deletes documents.
type AuditRepository struct {
	db     *mongo.Database
	logger *slog.Logger
}

// NewAuditRepository creates a new MongoDB audit repository
func NewAuditRepository(logger *slog.Logger, db *mongo.Database) *AuditRepository {
	return &AuditRepository{
		db:     db,
		logger: logger,
	}
}

// auditDocument mirrors audit.Entry but keeps the payload raw so it can be
// returned as plain JSON values instead of driver document types.
type auditDocument struct {
	EventID       string        `bson:"event_id"`
	EventType     string        `bson:"event_type"`
	Payload       bson.RawValue `bson:"payload"`
	Status        string        `bson:"status"`
	ErrorMessage  *string       `bson:"error_message"`
	CorrelationID string        `bson:"correlation_id,omitempty"`
	CreatedAt     time.Time     `bson:"created_at"`
}

func (r *AuditRepository) collection() *mongo.Collection {
	return r.db.Collection(AuditCollectionName, options.Collection().SetRegistry(payloadRegistry))
}

// EnsureIndexes creates the lookup index used by GetByEventID
func (r *AuditRepository) EnsureIndexes(ctx context.Context) error {
	collection := r.collection()

	_, err := collection.Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys:    bson.D{{Key: "event_id", Value: 1}, {Key: "created_at", Value: -1}},
		Options: options.Index().SetName("event_id_created_at"),
	})
	if err != nil {
		r.logger.Error("Failed to create audit log index", "error", err)
		return fmt.Errorf("failed to create audit log index: %w", err)
	}
	return nil
}

// Create appends one audit entry
func (r *AuditRepository) Create(ctx context.Context, entry *audit.Entry) error {
	collection := r.collection()

	if _, err := collection.InsertOne(ctx, entry); err != nil {
		r.logger.Error("Failed to create audit log entry",
			"event_id", entry.EventID,
			"status", string(entry.Status),
			"error", err)
		return fmt.Errorf("failed to create audit log entry: %w", err)
	}

	return nil
}

// GetByEventID retrieves paginated audit entries for an event, newest first
func (r *AuditRepository) GetByEventID(ctx context.Context, eventID string, limit, offset int) ([]*audit.Entry, error) {
	collection := r.collection()

	filter := bson.M{"event_id": eventID}
	opts := options.Find().
		SetSort(bson.D{{Key: "created_at", Value: -1}}).
		SetSkip(int64(offset)).
		SetLimit(int64(limit))

	cursor, err := collection.Find(ctx, filter, opts)
	if err != nil {
		r.logger.Error("Failed to get audit log entries",
			"event_id", eventID,
			"error", err)
		return nil, fmt.Errorf("failed to get audit log entries: %w", err)
	}
	defer cursor.Close(ctx)

	var docs []auditDocument
	if err := cursor.All(ctx, &docs); err != nil {
		r.logger.Error("Failed to decode audit log entries",
			"event_id", eventID,
			"error", err)
		return nil, fmt.Errorf("failed to decode audit log entries: %w", err)
	}

	entries := make([]*audit.Entry, 0, len(docs))
	for _, doc := range docs {
		payload, err := decodePayload(doc.Payload)
		if err != nil {
			return nil, fmt.Errorf("failed to decode audit payload: %w", err)
		}
		entries = append(entries, &audit.Entry{
			EventID:       doc.EventID,
			EventType:     doc.EventType,
			Payload:       payload,
			Status:        shared.AuditStatus(doc.Status),
			ErrorMessage:  doc.ErrorMessage,
			CorrelationID: doc.CorrelationID,
			CreatedAt:     doc.CreatedAt,
		})
	}

	return entries, nil
}

// CountByEventID counts the audit entries recorded for an event
func (r *AuditRepository) CountByEventID(ctx context.Context, eventID string) (int64, error) {
	collection := r.collection()

	count, err := collection.CountDocuments(ctx, bson.M{"event_id": eventID})
	if err != nil {
		r.logger.Error("Failed to count audit log entries",
			"event_id", eventID,
			"error", err)
		return 0, fmt.Errorf("failed to count audit log entries: %w", err)
	}

	return count, nil
}

// decodePayload turns a stored payload of any BSON type into plain JSON values.
// Decimal128 values come back as json.Number.
func decodePayload(raw bson.RawValue) (any, error) {
	if raw.Type == 0 {
		return nil, nil
	}

	ext, err := bson.MarshalExtJSON(bson.D{{Key: "v", Value: raw}}, false, false)
	if err != nil {
		return nil, err
	}

	var wrapper struct {
		V any `json:"v"`
	}
	if err := json.Unmarshal(ext, &wrapper); err != nil {
		return nil, err
	}
	return unwrapDecimals(wrapper.V), nil
}

func unwrapDecimals(v any) any {
	switch t := v.(type) {
	case map[string]any:
		if len(t) == 1 {
			if s, ok := t["$numberDecimal"].(string); ok {
				return json.Number(s)
			}
		}
		for k, item := range t {
			t[k] = unwrapDecimals(item)
		}
	case []any:
		for i, item := range t {
			t[i] = unwrapDecimals(item)
		}
	}
	return v
}
