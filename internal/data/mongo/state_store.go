package mongo

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/agentfloat-wallet-ledger/internal/domain/wallet"
	"github.com/agentfloat-wallet-ledger/internal/platform/persistence"
)

// StateStore implements the wallet.StateStore interface for MongoDB
type StateStore struct {
	db     *mongo.Database
	logger *slog.Logger
}

// NewStateStore creates a new MongoDB wallet state store
func NewStateStore(logger *slog.Logger, db *mongo.Database) wallet.StateStore {
	return &StateStore{
		db:     db,
		logger: logger,
	}
}

func (s *StateStore) collection() *mongo.Collection {
	return s.db.Collection(persistence.WalletStateCollection)
}

// Get returns the wallet state for a business, or nil when no row exists yet.
func (s *StateStore) Get(ctx context.Context, businessID string) (*wallet.State, error) {
	var state wallet.State
	err := s.collection().FindOne(ctx, bson.M{"business_id": businessID}).Decode(&state)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, nil
		}
		s.logger.Error("Failed to get wallet state", "business_id", businessID, "error", err)
		return nil, fmt.Errorf("failed to get wallet state for %s: %w", businessID, err)
	}
	return &state, nil
}

// MarkSeeded upserts the seeded flag for a business. The unique index on
// business_id keeps this a single row per tenant.
func (s *StateStore) MarkSeeded(ctx context.Context, businessID, txnID, seededBy string) error {
	now := time.Now().UTC()
	_, err := s.collection().UpdateOne(ctx,
		bson.M{"business_id": businessID},
		bson.M{
			"$set": bson.M{
				"business_id": businessID,
				"seeded":      true,
				"seed_txn_id": txnID,
				"seeded_at":   now,
				"seeded_by":   seededBy,
				"updated_at":  now,
			},
			"$setOnInsert": bson.M{
				"_id":        primitive.NewObjectID().Hex(),
				"created_at": now,
			},
		},
		options.Update().SetUpsert(true),
	)
	if err != nil {
		s.logger.Error("Failed to mark wallet state seeded", "business_id", businessID, "error", err)
		return fmt.Errorf("failed to mark wallet state seeded for %s: %w", businessID, err)
	}
	return nil
}
