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

// HoldStore implements the wallet.HoldStore interface for MongoDB
type HoldStore struct {
	db     *mongo.Database
	logger *slog.Logger
}

// NewHoldStore creates a new MongoDB hold store
func NewHoldStore(logger *slog.Logger, db *mongo.Database) wallet.HoldStore {
	return &HoldStore{
		db:     db,
		logger: logger,
	}
}

func (s *HoldStore) collection() *mongo.Collection {
	return s.db.Collection(persistence.HoldsCollection)
}

// Create inserts a new hold record.
func (s *HoldStore) Create(ctx context.Context, hold *wallet.Hold) error {
	if hold.ID == "" {
		hold.ID = primitive.NewObjectID().Hex()
	}
	_, err := s.collection().InsertOne(ctx, hold)
	if err != nil {
		s.logger.Error("Failed to create hold", "hold_id", hold.HoldID, "error", err)
		return fmt.Errorf("failed to create hold %s: %w", hold.HoldID, err)
	}
	return nil
}

// GetByHoldID retrieves a hold by its hold id.
// Returns ErrHoldNotFound if no hold exists.
func (s *HoldStore) GetByHoldID(ctx context.Context, holdID string) (*wallet.Hold, error) {
	var hold wallet.Hold
	err := s.collection().FindOne(ctx, bson.M{"hold_id": holdID}).Decode(&hold)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, wallet.ErrHoldNotFound{HoldID: holdID}
		}
		s.logger.Error("Failed to get hold", "hold_id", holdID, "error", err)
		return nil, fmt.Errorf("failed to get hold %s: %w", holdID, err)
	}
	return &hold, nil
}

// MarkCaptured transitions an ACTIVE hold to CAPTURED, recording the capture
// txn id. The status condition makes the transition single-shot: once a hold
// left ACTIVE, the update matches nothing and ErrHoldNotActive is returned.
func (s *HoldStore) MarkCaptured(ctx context.Context, holdID, txnID string) error {
	return s.transition(ctx, holdID, bson.M{
		"status":          wallet.HoldStatusCaptured,
		"captured_txn_id": txnID,
		"updated_at":      time.Now().UTC(),
	})
}

// MarkReleased transitions an ACTIVE hold to RELEASED.
func (s *HoldStore) MarkReleased(ctx context.Context, holdID string) error {
	return s.transition(ctx, holdID, bson.M{
		"status":     wallet.HoldStatusReleased,
		"updated_at": time.Now().UTC(),
	})
}

func (s *HoldStore) transition(ctx context.Context, holdID string, set bson.M) error {
	result, err := s.collection().UpdateOne(ctx,
		bson.M{"hold_id": holdID, "status": wallet.HoldStatusActive},
		bson.M{"$set": set},
	)
	if err != nil {
		s.logger.Error("Failed to transition hold", "hold_id", holdID, "error", err)
		return fmt.Errorf("failed to transition hold %s: %w", holdID, err)
	}
	if result.MatchedCount == 0 {
		hold, getErr := s.GetByHoldID(ctx, holdID)
		if getErr != nil {
			return getErr
		}
		return wallet.ErrHoldNotActive{HoldID: holdID, Status: hold.Status}
	}
	return nil
}

// List retrieves holds for a business with optional agent/account/status and
// time-window filters, using keyset pagination.
func (s *HoldStore) List(ctx context.Context, filter wallet.HoldFilter, page wallet.PageRequest) ([]*wallet.Hold, string, error) {
	q := bson.M{"business_id": filter.BusinessID}
	if filter.AgentID != "" {
		q["agent_id"] = filter.AgentID
	}
	if filter.AccountID != "" {
		q["account_id"] = filter.AccountID
	}
	if len(filter.Statuses) > 0 {
		q["status"] = bson.M{"$in": filter.Statuses}
	}

	applyTimeRange(q, "created_at", filter.From, filter.To)
	applyCursor(q, page.After, page.Sort)

	opts := options.Find().
		SetSort(bson.D{{Key: "_id", Value: sortValue(page.Sort)}}).
		SetLimit(int64(page.Limit))

	cursor, err := s.collection().Find(ctx, q, opts)
	if err != nil {
		s.logger.Error("Failed to list holds", "business_id", filter.BusinessID, "error", err)
		return nil, "", fmt.Errorf("failed to list holds: %w", err)
	}
	defer cursor.Close(ctx)

	var holds []*wallet.Hold
	if err := cursor.All(ctx, &holds); err != nil {
		s.logger.Error("Failed to decode holds", "business_id", filter.BusinessID, "error", err)
		return nil, "", fmt.Errorf("failed to decode holds: %w", err)
	}

	var lastID string
	if len(holds) > 0 {
		lastID = holds[len(holds)-1].ID
	}
	return holds, nextCursor(len(holds), page.Limit, lastID), nil
}
