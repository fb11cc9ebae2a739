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

	"github.com/agentfloat-wallet-ledger/internal/domain/funding"
	"github.com/agentfloat-wallet-ledger/internal/domain/wallet"
	"github.com/agentfloat-wallet-ledger/internal/platform/persistence"
)

// FundingStore implements the funding.Repository interface for MongoDB
type FundingStore struct {
	db     *mongo.Database
	logger *slog.Logger
}

// NewFundingStore creates a new MongoDB funding request store
func NewFundingStore(logger *slog.Logger, db *mongo.Database) funding.Repository {
	return &FundingStore{
		db:     db,
		logger: logger,
	}
}

func (s *FundingStore) collection() *mongo.Collection {
	return s.db.Collection(persistence.FundingRequestsCollection)
}

// Create inserts a new funding request and returns its generated id, which
// callers feed into the idempotency key derivation.
func (s *FundingStore) Create(ctx context.Context, req *funding.Request) (string, error) {
	if req.ID == "" {
		req.ID = primitive.NewObjectID().Hex()
	}
	_, err := s.collection().InsertOne(ctx, req)
	if err != nil {
		s.logger.Error("Failed to create funding request", "business_id", req.BusinessID, "agent_id", req.AgentID, "error", err)
		return "", fmt.Errorf("failed to create funding request: %w", err)
	}
	return req.ID, nil
}

// GetByID retrieves a funding request by its id.
// Returns ErrRequestNotFound if no request exists.
func (s *FundingStore) GetByID(ctx context.Context, id string) (*funding.Request, error) {
	var req funding.Request
	err := s.collection().FindOne(ctx, bson.M{"_id": id}).Decode(&req)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, funding.ErrRequestNotFound{RequestID: id}
		}
		s.logger.Error("Failed to get funding request", "funding_request_id", id, "error", err)
		return nil, fmt.Errorf("failed to get funding request %s: %w", id, err)
	}
	return &req, nil
}

// IncrementAttempts bumps the attempt counter and resets the request to
// PENDING ahead of an execution attempt.
func (s *FundingStore) IncrementAttempts(ctx context.Context, id string) error {
	result, err := s.collection().UpdateOne(ctx,
		bson.M{"_id": id},
		bson.M{
			"$inc": bson.M{"attempts": 1},
			"$set": bson.M{"status": funding.StatusPending, "updated_at": time.Now().UTC()},
		},
	)
	if err != nil {
		s.logger.Error("Failed to increment funding request attempts", "funding_request_id", id, "error", err)
		return fmt.Errorf("failed to increment attempts for funding request %s: %w", id, err)
	}
	if result.MatchedCount == 0 {
		return funding.ErrRequestNotFound{RequestID: id}
	}
	return nil
}

// MarkCompleted records the successful outcome of a funding request.
func (s *FundingStore) MarkCompleted(ctx context.Context, id, txnID, idempotencyKey, reference string) error {
	return s.setOutcome(ctx, id, bson.M{
		"status":          funding.StatusCompleted,
		"txn_id":          txnID,
		"idempotency_key": idempotencyKey,
		"reference":       reference,
		"error":           "",
		"updated_at":      time.Now().UTC(),
	})
}

// MarkFailed records the last error of a funding request for operator visibility.
func (s *FundingStore) MarkFailed(ctx context.Context, id, reason, idempotencyKey, reference string) error {
	return s.setOutcome(ctx, id, bson.M{
		"status":          funding.StatusFailed,
		"error":           reason,
		"idempotency_key": idempotencyKey,
		"reference":       reference,
		"updated_at":      time.Now().UTC(),
	})
}

func (s *FundingStore) setOutcome(ctx context.Context, id string, set bson.M) error {
	result, err := s.collection().UpdateOne(ctx, bson.M{"_id": id}, bson.M{"$set": set})
	if err != nil {
		s.logger.Error("Failed to update funding request outcome", "funding_request_id", id, "error", err)
		return fmt.Errorf("failed to update funding request %s: %w", id, err)
	}
	if result.MatchedCount == 0 {
		return funding.ErrRequestNotFound{RequestID: id}
	}
	return nil
}

// List retrieves funding requests for a business with optional agent/status
// filters and keyset pagination.
func (s *FundingStore) List(ctx context.Context, filter funding.Filter, limit int, after string, sort string) ([]*funding.Request, string, error) {
	q := bson.M{"business_id": filter.BusinessID}
	if filter.AgentID != "" {
		q["agent_id"] = filter.AgentID
	}
	if filter.Status != "" {
		q["status"] = filter.Status
	}

	dir := wallet.SortDesc
	if sort == "asc" {
		dir = wallet.SortAsc
	}
	applyCursor(q, after, dir)

	opts := options.Find().
		SetSort(bson.D{{Key: "_id", Value: sortValue(dir)}}).
		SetLimit(int64(limit))

	cursor, err := s.collection().Find(ctx, q, opts)
	if err != nil {
		s.logger.Error("Failed to list funding requests", "business_id", filter.BusinessID, "error", err)
		return nil, "", fmt.Errorf("failed to list funding requests: %w", err)
	}
	defer cursor.Close(ctx)

	var requests []*funding.Request
	if err := cursor.All(ctx, &requests); err != nil {
		s.logger.Error("Failed to decode funding requests", "business_id", filter.BusinessID, "error", err)
		return nil, "", fmt.Errorf("failed to decode funding requests: %w", err)
	}

	var lastID string
	if len(requests) > 0 {
		lastID = requests[len(requests)-1].ID
	}
	return requests, nextCursor(len(requests), limit, lastID), nil
}
