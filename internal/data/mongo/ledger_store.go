package mongo

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/agentfloat-wallet-ledger/internal/domain/wallet"
	"github.com/agentfloat-wallet-ledger/internal/platform/persistence"
)

// LedgerStore implements the wallet.LedgerStore interface for MongoDB
type LedgerStore struct {
	db     *mongo.Database
	logger *slog.Logger
}

// NewLedgerStore creates a new MongoDB ledger store
func NewLedgerStore(logger *slog.Logger, db *mongo.Database) wallet.LedgerStore {
	return &LedgerStore{
		db:     db,
		logger: logger,
	}
}

func (s *LedgerStore) collection() *mongo.Collection {
	return s.db.Collection(persistence.LedgerCollection)
}

// Append inserts one journal row. The unique txn_id index turns a repeated
// post into ErrDuplicateEntry instead of a silent double-write.
func (s *LedgerStore) Append(ctx context.Context, entry *wallet.Entry) error {
	if entry.ID == "" {
		entry.ID = primitive.NewObjectID().Hex()
	}
	_, err := s.collection().InsertOne(ctx, entry)
	if err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return wallet.ErrDuplicateEntry{TxnID: entry.TxnID}
		}
		s.logger.Error("Failed to append ledger entry", "txn_id", entry.TxnID, "error", err)
		return fmt.Errorf("failed to append ledger entry %s: %w", entry.TxnID, err)
	}
	return nil
}

// GetByTxnID retrieves a journal row by its transaction id.
// Returns ErrEntryNotFound if no entry exists.
func (s *LedgerStore) GetByTxnID(ctx context.Context, txnID string) (*wallet.Entry, error) {
	var entry wallet.Entry
	err := s.collection().FindOne(ctx, bson.M{"txn_id": txnID}).Decode(&entry)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, wallet.ErrEntryNotFound{TxnID: txnID}
		}
		s.logger.Error("Failed to get ledger entry", "txn_id", txnID, "error", err)
		return nil, fmt.Errorf("failed to get ledger entry %s: %w", txnID, err)
	}
	return &entry, nil
}

// List retrieves journal rows for a business with optional account/role and
// time-window filters, using keyset pagination.
//
// With an account filter and no role, rows where the account appears on
// either side are returned; a debit/credit role narrows to that side only.
func (s *LedgerStore) List(ctx context.Context, filter wallet.EntryFilter, page wallet.PageRequest) ([]*wallet.Entry, string, error) {
	q := bson.M{"business_id": filter.BusinessID}

	if filter.AccountID != "" {
		switch filter.Role {
		case wallet.EntryRoleDebit:
			q["debit_account"] = filter.AccountID
		case wallet.EntryRoleCredit:
			q["credit_account"] = filter.AccountID
		default:
			q["$or"] = bson.A{
				bson.M{"debit_account": filter.AccountID},
				bson.M{"credit_account": filter.AccountID},
			}
		}
	}

	applyTimeRange(q, "created_at", filter.From, filter.To)
	applyCursor(q, page.After, page.Sort)

	opts := options.Find().
		SetSort(bson.D{{Key: "_id", Value: sortValue(page.Sort)}}).
		SetLimit(int64(page.Limit))

	cursor, err := s.collection().Find(ctx, q, opts)
	if err != nil {
		s.logger.Error("Failed to list ledger entries", "business_id", filter.BusinessID, "error", err)
		return nil, "", fmt.Errorf("failed to list ledger entries: %w", err)
	}
	defer cursor.Close(ctx)

	var entries []*wallet.Entry
	if err := cursor.All(ctx, &entries); err != nil {
		s.logger.Error("Failed to decode ledger entries", "business_id", filter.BusinessID, "error", err)
		return nil, "", fmt.Errorf("failed to decode ledger entries: %w", err)
	}

	var lastID string
	if len(entries) > 0 {
		lastID = entries[len(entries)-1].ID
	}
	return entries, nextCursor(len(entries), page.Limit, lastID), nil
}
