package service

import (
	"context"

	"github.com/agentfloat-wallet-ledger/internal/domain/wallet"
)

const (
	defaultAccountsLimit = 50
	defaultHoldsLimit    = 100
	defaultEntriesLimit  = 200
)

// WalletQueries serves read-only views over accounts, holds, and the journal.
// Queries run outside transactions against the same stores the mutating
// service writes through.
type WalletQueries struct {
	accounts wallet.AccountStore
	ledger   wallet.LedgerStore
	holds    wallet.HoldStore
}

// NewWalletQueries creates the read-side service.
func NewWalletQueries(accounts wallet.AccountStore, ledger wallet.LedgerStore, holds wallet.HoldStore) *WalletQueries {
	return &WalletQueries{accounts: accounts, ledger: ledger, holds: holds}
}

func normalizePage(page wallet.PageRequest, defaultLimit int) wallet.PageRequest {
	if page.Limit <= 0 {
		page.Limit = defaultLimit
	}
	if page.Sort != wallet.SortAsc {
		page.Sort = wallet.SortDesc
	}
	return page
}

// ListAccounts pages through a business's accounts, optionally narrowed by
// owner or account type.
func (q *WalletQueries) ListAccounts(ctx context.Context, filter wallet.AccountFilter, page wallet.PageRequest) ([]*wallet.Account, string, error) {
	return q.accounts.List(ctx, filter, normalizePage(page, defaultAccountsLimit))
}

// GetAgentAccount returns the float account of one agent.
func (q *WalletQueries) GetAgentAccount(ctx context.Context, businessID, agentID string) (*wallet.Account, error) {
	return q.accounts.Get(ctx, wallet.AgentAccountID(businessID, agentID))
}

// ListHolds pages through holds, optionally narrowed by agent, account,
// status set, or creation time range.
func (q *WalletQueries) ListHolds(ctx context.Context, filter wallet.HoldFilter, page wallet.PageRequest) ([]*wallet.Hold, string, error) {
	return q.holds.List(ctx, filter, normalizePage(page, defaultHoldsLimit))
}

// GetHoldByID returns one hold scoped to the calling business.
func (q *WalletQueries) GetHoldByID(ctx context.Context, businessID, holdID string) (*wallet.Hold, error) {
	hold, err := q.holds.GetByHoldID(ctx, holdID)
	if err != nil {
		return nil, err
	}
	if hold.BusinessID != businessID {
		return nil, wallet.ErrHoldNotFound{HoldID: holdID}
	}
	return hold, nil
}

// ListLedgerEntries pages through the journal. A TxnID in the filter is a
// point lookup and overrides every other filter field.
func (q *WalletQueries) ListLedgerEntries(ctx context.Context, businessID, txnID string, filter wallet.EntryFilter, page wallet.PageRequest) ([]*wallet.Entry, string, error) {
	if txnID != "" {
		entry, err := q.GetLedgerByTxnID(ctx, businessID, txnID)
		if err != nil {
			return nil, "", err
		}
		return []*wallet.Entry{entry}, "", nil
	}
	filter.BusinessID = businessID
	return q.ledger.List(ctx, filter, normalizePage(page, defaultEntriesLimit))
}

// GetLedgerByTxnID returns one journal entry scoped to the calling business.
func (q *WalletQueries) GetLedgerByTxnID(ctx context.Context, businessID, txnID string) (*wallet.Entry, error) {
	entry, err := q.ledger.GetByTxnID(ctx, txnID)
	if err != nil {
		return nil, err
	}
	if entry.BusinessID != businessID {
		return nil, wallet.ErrEntryNotFound{TxnID: txnID}
	}
	return entry, nil
}
