package persistence

import (
	"context"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// Collection names used by the ledger core and the funding orchestrator.
const (
	AccountsCollection        = "accounts"
	LedgerCollection          = "ledger"
	HoldsCollection           = "holds"
	IdempotencyCollection     = "idempotency"
	WalletStateCollection     = "wallet_state"
	FundingRequestsCollection = "funding_requests"
)

// EnsureIndexes creates the unique, secondary, and TTL indexes the ledger
// relies on. The unique indexes are correctness guarantees (duplicate txn
// ids, idempotency keys, and wallet_state rows must be impossible), not just
// query accelerators. Safe to call on every startup.
func EnsureIndexes(ctx context.Context, db *mongo.Database, idempotencyTTL time.Duration) error {
	accounts := []mongo.IndexModel{
		{Keys: bson.D{{Key: "account_id", Value: 1}}, Options: options.Index().SetUnique(true)},
		{Keys: bson.D{{Key: "business_id", Value: 1}}},
		{Keys: bson.D{{Key: "owner_id", Value: 1}}},
		{Keys: bson.D{{Key: "type", Value: 1}}},
	}
	if _, err := db.Collection(AccountsCollection).Indexes().CreateMany(ctx, accounts); err != nil {
		return fmt.Errorf("failed to create account indexes: %w", err)
	}

	ledger := []mongo.IndexModel{
		{Keys: bson.D{{Key: "txn_id", Value: 1}}, Options: options.Index().SetUnique(true)},
		{Keys: bson.D{{Key: "business_id", Value: 1}, {Key: "created_at", Value: 1}}},
		{Keys: bson.D{{Key: "debit_account", Value: 1}}},
		{Keys: bson.D{{Key: "credit_account", Value: 1}}},
	}
	if _, err := db.Collection(LedgerCollection).Indexes().CreateMany(ctx, ledger); err != nil {
		return fmt.Errorf("failed to create ledger indexes: %w", err)
	}

	holds := []mongo.IndexModel{
		{Keys: bson.D{{Key: "hold_id", Value: 1}}, Options: options.Index().SetUnique(true)},
		{Keys: bson.D{{Key: "business_id", Value: 1}, {Key: "account_id", Value: 1}, {Key: "status", Value: 1}}},
	}
	if _, err := db.Collection(HoldsCollection).Indexes().CreateMany(ctx, holds); err != nil {
		return fmt.Errorf("failed to create hold indexes: %w", err)
	}

	idem := []mongo.IndexModel{
		{Keys: bson.D{{Key: "key", Value: 1}}, Options: options.Index().SetUnique(true)},
		{
			Keys: bson.D{{Key: "created_at", Value: 1}},
			Options: options.Index().
				SetName("created_at_ttl").
				SetExpireAfterSeconds(int32(idempotencyTTL.Seconds())),
		},
	}
	if _, err := db.Collection(IdempotencyCollection).Indexes().CreateMany(ctx, idem); err != nil {
		return fmt.Errorf("failed to create idempotency indexes: %w", err)
	}

	state := []mongo.IndexModel{
		{Keys: bson.D{{Key: "business_id", Value: 1}}, Options: options.Index().SetUnique(true)},
	}
	if _, err := db.Collection(WalletStateCollection).Indexes().CreateMany(ctx, state); err != nil {
		return fmt.Errorf("failed to create wallet state indexes: %w", err)
	}

	funding := []mongo.IndexModel{
		{Keys: bson.D{{Key: "business_id", Value: 1}, {Key: "created_at", Value: 1}}, Options: options.Index().SetName("biz_created")},
		{Keys: bson.D{{Key: "agent_id", Value: 1}, {Key: "created_at", Value: 1}}, Options: options.Index().SetName("agent_created")},
		{Keys: bson.D{{Key: "status", Value: 1}, {Key: "created_at", Value: 1}}, Options: options.Index().SetName("status_created")},
	}
	if _, err := db.Collection(FundingRequestsCollection).Indexes().CreateMany(ctx, funding); err != nil {
		return fmt.Errorf("failed to create funding request indexes: %w", err)
	}

	return nil
}
