package mongo

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"go.mongodb.org/mongo-driver/mongo"

	"github.com/agentfloat-wallet-ledger/internal/domain/wallet"
	"github.com/agentfloat-wallet-ledger/internal/platform/persistence"
)

// IdempotencyStore implements the wallet.IdempotencyStore interface for MongoDB
type IdempotencyStore struct {
	db     *mongo.Database
	logger *slog.Logger
}

// NewIdempotencyStore creates a new MongoDB idempotency store
func NewIdempotencyStore(logger *slog.Logger, db *mongo.Database) wallet.IdempotencyStore {
	return &IdempotencyStore{
		db:     db,
		logger: logger,
	}
}

// Guard inserts the key as a write-once record. The unique index on key is
// the guard itself: a duplicate insert fails and is surfaced as
// ErrIdempotentReplay, distinct from every other failure. Records expire via
// the TTL index on created_at.
func (s *IdempotencyStore) Guard(ctx context.Context, key string, meta map[string]string) error {
	record := wallet.IdempotencyRecord{
		Key:       key,
		Meta:      meta,
		CreatedAt: time.Now().UTC(),
	}

	_, err := s.db.Collection(persistence.IdempotencyCollection).InsertOne(ctx, record)
	if err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return wallet.ErrIdempotentReplay{Key: key}
		}
		s.logger.Error("Failed to insert idempotency record", "key", key, "error", err)
		return fmt.Errorf("failed to insert idempotency record %s: %w", key, err)
	}
	return nil
}
