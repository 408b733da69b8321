// Package redis provides a read-through cache for transaction lookups.
// Stored transactions are immutable, so cached entries never need invalidation.
package redis

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"time"

	goredis "github.com/redis/go-redis/v9"

	"github.com/payment-webhook-ledger/internal/domain/transaction"
	"github.com/payment-webhook-ledger/internal/metrics"
)

const keyPrefix = "payment-webhook:txn:"

// CachedTransactionFinder consults Redis before delegating to the wrapped finder.
// Only positive results are cached. Redis failures fall through to the wrapped finder.
type CachedTransactionFinder struct {
	next   transaction.Finder
	client goredis.Cmdable
	ttl    time.Duration
	logger *slog.Logger
}

// NewCachedTransactionFinder wraps next with a Redis cache of the given TTL
func NewCachedTransactionFinder(logger *slog.Logger, client goredis.Cmdable, next transaction.Finder, ttl time.Duration) *CachedTransactionFinder {
	return &CachedTransactionFinder{
		next:   next,
		client: client,
		ttl:    ttl,
		logger: logger,
	}
}

func (f *CachedTransactionFinder) GetByEventID(ctx context.Context, eventID string) (*transaction.Transaction, error) {
	return f.lookup(ctx, eventIDKey(eventID), func() (*transaction.Transaction, error) {
		return f.next.GetByEventID(ctx, eventID)
	})
}

func (f *CachedTransactionFinder) GetByTransactionID(ctx context.Context, transactionID string) (*transaction.Transaction, error) {
	return f.lookup(ctx, transactionIDKey(transactionID), func() (*transaction.Transaction, error) {
		return f.next.GetByTransactionID(ctx, transactionID)
	})
}

func (f *CachedTransactionFinder) lookup(ctx context.Context, key string, load func() (*transaction.Transaction, error)) (*transaction.Transaction, error) {
	if txn, ok := f.get(ctx, key); ok {
		return txn, nil
	}

	txn, err := load()
	if err != nil || txn == nil {
		return txn, err
	}

	f.put(ctx, txn)
	return txn, nil
}

func (f *CachedTransactionFinder) get(ctx context.Context, key string) (*transaction.Transaction, bool) {
	data, err := f.client.Get(ctx, key).Bytes()
	if err != nil {
		if errors.Is(err, goredis.Nil) {
			metrics.CacheLookupsTotal.WithLabelValues("miss").Inc()
		} else {
			metrics.CacheLookupsTotal.WithLabelValues("error").Inc()
			f.logger.Warn("Transaction cache read failed", "key", key, "error", err)
		}
		return nil, false
	}

	var txn transaction.Transaction
	if err := json.Unmarshal(data, &txn); err != nil {
		metrics.CacheLookupsTotal.WithLabelValues("error").Inc()
		f.logger.Warn("Discarding undecodable cache entry", "key", key, "error", err)
		return nil, false
	}

	metrics.CacheLookupsTotal.WithLabelValues("hit").Inc()
	return &txn, true
}

// put stores txn under both of its identifiers
func (f *CachedTransactionFinder) put(ctx context.Context, txn *transaction.Transaction) {
	data, err := json.Marshal(txn)
	if err != nil {
		f.logger.Warn("Failed to encode transaction for cache", "transaction_id", txn.TransactionID, "error", err)
		return
	}

	_, err = f.client.Pipelined(ctx, func(p goredis.Pipeliner) error {
		p.Set(ctx, eventIDKey(txn.EventID), data, f.ttl)
		p.Set(ctx, transactionIDKey(txn.TransactionID), data, f.ttl)
		return nil
	})
	if err != nil {
		f.logger.Warn("Transaction cache write failed", "transaction_id", txn.TransactionID, "error", err)
	}
}

func eventIDKey(eventID string) string {
	return keyPrefix + "event:" + eventID
}

func transactionIDKey(transactionID string) string {
	return keyPrefix + "id:" + transactionID
}
