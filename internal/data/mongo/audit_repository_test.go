package mongo

import (
	"context"
	"encoding/json"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo/integration/mtest"

	"github.com/payment-webhook-ledger/internal/domain/audit"
	"github.com/payment-webhook-ledger/internal/domain/shared"
)

func TestAuditRepository_Create(t *testing.T) {
	mt := mtest.New(t, mtest.NewOptions().ClientType(mtest.Mock))

	errMsg := "invalid signature"
	entry := &audit.Entry{
		EventID:      "evt_001",
		EventType:    "payment.completed",
		Payload:      map[string]any{"event_id": "evt_001"},
		Status:       shared.AuditStatusFailed,
		ErrorMessage: &errMsg,
		CreatedAt:    time.Now().UTC(),
	}

	mt.Run("success", func(mt *mtest.T) {
		repo := NewAuditRepository(slog.Default(), mt.DB)
		mt.AddMockResponses(mtest.CreateSuccessResponse())

		err := repo.Create(context.Background(), entry)
		require.NoError(mt, err)

		started := mt.GetStartedEvent()
		require.NotNil(mt, started)
		assert.Equal(mt, "insert", started.CommandName)
		assert.Equal(mt, AuditCollectionName, started.Command.Lookup("insert").StringValue())
	})

	mt.Run("json numbers keep their digits", func(mt *mtest.T) {
		repo := NewAuditRepository(slog.Default(), mt.DB)
		mt.AddMockResponses(mtest.CreateSuccessResponse())

		numeric := &audit.Entry{
			EventID:   "evt_002",
			EventType: "payment.completed",
			Payload: map[string]any{
				"event_id": "evt_002",
				"data":     map[string]any{"amount": json.Number("100.50"), "huge": json.Number("1e100000000")},
			},
			Status:    shared.AuditStatusReceived,
			CreatedAt: time.Now().UTC(),
		}
		require.NoError(mt, repo.Create(context.Background(), numeric))

		started := mt.GetStartedEvent()
		require.NotNil(mt, started)
		amount := started.Command.Lookup("documents", "0", "payload", "data", "amount")
		require.Equal(mt, bson.TypeDecimal128, amount.Type)
		assert.Equal(mt, "100.50", amount.Decimal128().String())
		huge := started.Command.Lookup("documents", "0", "payload", "data", "huge")
		assert.Equal(mt, "1e100000000", huge.StringValue())
	})

	mt.Run("write error", func(mt *mtest.T) {
		repo := NewAuditRepository(slog.Default(), mt.DB)
		mt.AddMockResponses(mtest.CreateWriteErrorsResponse(mtest.WriteError{
			Index:   0,
			Code:    121,
			Message: "document failed validation",
		}))

		err := repo.Create(context.Background(), entry)
		require.Error(mt, err)
		assert.Contains(mt, err.Error(), "failed to create audit log entry")
	})
}

func TestAuditRepository_GetByEventID(t *testing.T) {
	mt := mtest.New(t, mtest.NewOptions().ClientType(mtest.Mock))
	ns := "payment_webhooks." + AuditCollectionName
	createdAt := time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)

	mt.Run("newest first with decoded payload", func(mt *mtest.T) {
		repo := NewAuditRepository(slog.Default(), mt.DB)
		mt.AddMockResponses(mtest.CreateCursorResponse(0, ns, mtest.FirstBatch,
			bson.D{
				{Key: "event_id", Value: "evt_001"},
				{Key: "event_type", Value: "payment.completed"},
				{Key: "payload", Value: bson.D{
					{Key: "event_id", Value: "evt_001"},
					{Key: "data", Value: bson.D{{Key: "amount", Value: 100.5}}},
				}},
				{Key: "status", Value: "processed"},
				{Key: "error_message", Value: nil},
				{Key: "created_at", Value: createdAt.Add(time.Second)},
			},
			bson.D{
				{Key: "event_id", Value: "evt_001"},
				{Key: "event_type", Value: ""},
				{Key: "payload", Value: "not json"},
				{Key: "status", Value: "received"},
				{Key: "error_message", Value: nil},
				{Key: "created_at", Value: createdAt},
			},
		))

		entries, err := repo.GetByEventID(context.Background(), "evt_001", 20, 0)
		require.NoError(mt, err)
		require.Len(mt, entries, 2)

		assert.Equal(mt, shared.AuditStatusProcessed, entries[0].Status)
		assert.Nil(mt, entries[0].ErrorMessage)
		payload, ok := entries[0].Payload.(map[string]any)
		require.True(mt, ok)
		assert.Equal(mt, "evt_001", payload["event_id"])
		data, ok := payload["data"].(map[string]any)
		require.True(mt, ok)
		assert.Equal(mt, 100.5, data["amount"])

		assert.Equal(mt, shared.AuditStatusReceived, entries[1].Status)
		assert.Equal(mt, "not json", entries[1].Payload)
		assert.True(mt, createdAt.Equal(entries[1].CreatedAt))

		started := mt.GetStartedEvent()
		require.NotNil(mt, started)
		assert.Equal(mt, "find", started.CommandName)
		assert.Equal(mt, int64(20), started.Command.Lookup("limit").AsInt64())
	})

	mt.Run("command error", func(mt *mtest.T) {
		repo := NewAuditRepository(slog.Default(), mt.DB)
		mt.AddMockResponses(mtest.CreateCommandErrorResponse(mtest.CommandError{
			Code:    2,
			Name:    "BadValue",
			Message: "bad query",
		}))

		entries, err := repo.GetByEventID(context.Background(), "evt_001", 20, 0)
		assert.Nil(mt, entries)
		require.Error(mt, err)
		assert.Contains(mt, err.Error(), "failed to get audit log entries")
	})
}

func TestAuditRepository_CountByEventID(t *testing.T) {
	mt := mtest.New(t, mtest.NewOptions().ClientType(mtest.Mock))
	ns := "payment_webhooks." + AuditCollectionName

	mt.Run("success", func(mt *mtest.T) {
		repo := NewAuditRepository(slog.Default(), mt.DB)
		mt.AddMockResponses(mtest.CreateCursorResponse(0, ns, mtest.FirstBatch,
			bson.D{{Key: "n", Value: int32(3)}},
		))

		count, err := repo.CountByEventID(context.Background(), "evt_001")
		require.NoError(mt, err)
		assert.Equal(mt, int64(3), count)
	})

	mt.Run("command error", func(mt *mtest.T) {
		repo := NewAuditRepository(slog.Default(), mt.DB)
		mt.AddMockResponses(mtest.CreateCommandErrorResponse(mtest.CommandError{Code: 11600, Name: "InterruptedAtShutdown", Message: "shutting down"}))

		_, err := repo.CountByEventID(context.Background(), "evt_001")
		require.Error(mt, err)
		assert.Contains(mt, err.Error(), "failed to count audit log entries")
	})
}

func TestAuditRepository_EnsureIndexes(t *testing.T) {
	mt := mtest.New(t, mtest.NewOptions().ClientType(mtest.Mock))

	mt.Run("creates event_id index", func(mt *mtest.T) {
		repo := NewAuditRepository(slog.Default(), mt.DB)
		mt.AddMockResponses(mtest.CreateSuccessResponse())

		require.NoError(mt, repo.EnsureIndexes(context.Background()))

		started := mt.GetStartedEvent()
		require.NotNil(mt, started)
		assert.Equal(mt, "createIndexes", started.CommandName)
	})
}

func TestDecodePayload(t *testing.T) {
	t.Run("missing", func(t *testing.T) {
		v, err := decodePayload(bson.RawValue{})
		assert.NoError(t, err)
		assert.Nil(t, v)
	})

	t.Run("array", func(t *testing.T) {
		raw, err := bson.Marshal(bson.D{{Key: "p", Value: bson.A{"a", int32(1)}}})
		require.NoError(t, err)
		v, err := decodePayload(bson.Raw(raw).Lookup("p"))
		require.NoError(t, err)
		assert.Equal(t, []any{"a", float64(1)}, v)
	})

	t.Run("decimal128 comes back as json.Number", func(t *testing.T) {
		amount, err := primitive.ParseDecimal128("100.50")
		require.NoError(t, err)
		raw, err := bson.Marshal(bson.D{{Key: "p", Value: bson.D{
			{Key: "data", Value: bson.D{{Key: "amount", Value: amount}}},
		}}})
		require.NoError(t, err)

		v, err := decodePayload(bson.Raw(raw).Lookup("p"))
		require.NoError(t, err)
		assert.Equal(t, map[string]any{"data": map[string]any{"amount": json.Number("100.50")}}, v)
	})
}
