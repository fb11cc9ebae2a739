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

// AccountStore implements the wallet.AccountStore interface for MongoDB
type AccountStore struct {
	db     *mongo.Database
	logger *slog.Logger
}

// NewAccountStore creates a new MongoDB account store
func NewAccountStore(logger *slog.Logger, db *mongo.Database) wallet.AccountStore {
	return &AccountStore{
		db:     db,
		logger: logger,
	}
}

func (s *AccountStore) collection() *mongo.Collection {
	return s.db.Collection(persistence.AccountsCollection)
}

// Ensure inserts the account if no document with its account_id exists.
// Existing accounts are left untouched, which makes lazy account creation
// idempotent under concurrent callers.
func (s *AccountStore) Ensure(ctx context.Context, acc *wallet.Account) error {
	doc := bson.M{
		"_id":         primitive.NewObjectID().Hex(),
		"account_id":  acc.AccountID,
		"business_id": acc.BusinessID,
		"owner_id":    acc.OwnerID,
		"type":        acc.Type,
		"currency":    acc.Currency,
		"settled":     acc.Settled,
		"available":   acc.Available,
		"version":     acc.Version,
		"created_at":  acc.CreatedAt,
		"updated_at":  acc.UpdatedAt,
	}

	_, err := s.collection().UpdateOne(ctx,
		bson.M{"account_id": acc.AccountID},
		bson.M{"$setOnInsert": doc},
		options.Update().SetUpsert(true),
	)
	if err != nil {
		s.logger.Error("Failed to ensure account", "account_id", acc.AccountID, "error", err)
		return fmt.Errorf("failed to ensure account %s: %w", acc.AccountID, err)
	}
	return nil
}

// Get retrieves an account by its account id.
// Returns ErrAccountNotFound if no account exists.
func (s *AccountStore) Get(ctx context.Context, accountID string) (*wallet.Account, error) {
	var acc wallet.Account
	err := s.collection().FindOne(ctx, bson.M{"account_id": accountID}).Decode(&acc)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, wallet.ErrAccountNotFound{AccountID: accountID}
		}
		s.logger.Error("Failed to get account", "account_id", accountID, "error", err)
		return nil, fmt.Errorf("failed to get account %s: %w", accountID, err)
	}
	return &acc, nil
}

// CompareAndSwapBalances writes new balance strings conditioned on the version
// the caller read. The conditional update matches nothing when a concurrent
// writer already bumped the version, which surfaces as
// ErrConcurrentModification; nothing is written in that case.
func (s *AccountStore) CompareAndSwapBalances(ctx context.Context, accountID string, version int64, settled, available string) (*wallet.Account, error) {
	filter := bson.M{"account_id": accountID, "version": version}
	update := bson.M{
		"$set": bson.M{
			"settled":    settled,
			"available":  available,
			"updated_at": time.Now().UTC(),
		},
		"$inc": bson.M{"version": 1},
	}

	var updated wallet.Account
	err := s.collection().
		FindOneAndUpdate(ctx, filter, update, options.FindOneAndUpdate().SetReturnDocument(options.After)).
		Decode(&updated)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, wallet.ErrConcurrentModification{AccountID: accountID}
		}
		s.logger.Error("Failed to update account balances", "account_id", accountID, "error", err)
		return nil, fmt.Errorf("failed to update balances for account %s: %w", accountID, err)
	}
	return &updated, nil
}

// List retrieves accounts for a business with optional owner/type filters and
// keyset pagination. Returns the page plus the cursor for the next one.
func (s *AccountStore) List(ctx context.Context, filter wallet.AccountFilter, page wallet.PageRequest) ([]*wallet.Account, string, error) {
	q := bson.M{"business_id": filter.BusinessID}
	if filter.OwnerID != "" {
		q["owner_id"] = filter.OwnerID
	}
	if filter.Type != "" {
		q["type"] = filter.Type
	}
	applyCursor(q, page.After, page.Sort)

	opts := options.Find().
		SetSort(bson.D{{Key: "_id", Value: sortValue(page.Sort)}}).
		SetLimit(int64(page.Limit))

	cursor, err := s.collection().Find(ctx, q, opts)
	if err != nil {
		s.logger.Error("Failed to list accounts", "business_id", filter.BusinessID, "error", err)
		return nil, "", fmt.Errorf("failed to list accounts: %w", err)
	}
	defer cursor.Close(ctx)

	var accounts []*wallet.Account
	if err := cursor.All(ctx, &accounts); err != nil {
		s.logger.Error("Failed to decode accounts", "business_id", filter.BusinessID, "error", err)
		return nil, "", fmt.Errorf("failed to decode accounts: %w", err)
	}

	var lastID string
	if len(accounts) > 0 {
		lastID = accounts[len(accounts)-1].ID
	}
	return accounts, nextCursor(len(accounts), page.Limit, lastID), nil
}
