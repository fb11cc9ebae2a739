// Package service implements the wallet ledger operations and the funding
// request orchestrator on top of the domain stores. Every amount-moving
// operation runs inside one multi-document transaction.
package service

import (
	"context"

	"github.com/shopspring/decimal"

	"github.com/agentfloat-wallet-ledger/internal/domain/money"
	"github.com/agentfloat-wallet-ledger/internal/domain/wallet"
)

// BalanceMutator applies signed deltas to an account's settled and available
// balances under optimistic concurrency. It never retries: a version conflict
// surfaces as ErrConcurrentModification and the caller owns the retry policy.
type BalanceMutator struct {
	accounts wallet.AccountStore
}

// NewBalanceMutator creates a mutator over the given account store.
func NewBalanceMutator(accounts wallet.AccountStore) *BalanceMutator {
	return &BalanceMutator{accounts: accounts}
}

// ApplyDelta reads the account, computes new balances, and writes them back
// conditioned on the version it read. When either balance would go negative
// and allowNegative is false, it fails with ErrInsufficientFunds before any
// write. Every successful write increments the account version by one.
func (m *BalanceMutator) ApplyDelta(ctx context.Context, accountID string, deltaSettled, deltaAvailable decimal.Decimal, allowNegative bool) (*wallet.Account, error) {
	acc, err := m.accounts.Get(ctx, accountID)
	if err != nil {
		return nil, err
	}

	settled, err := money.Parse(acc.Settled)
	if err != nil {
		return nil, err
	}
	available, err := money.Parse(acc.Available)
	if err != nil {
		return nil, err
	}

	settled = settled.Add(deltaSettled)
	available = available.Add(deltaAvailable)

	if !allowNegative && (settled.IsNegative() || available.IsNegative()) {
		return nil, wallet.ErrInsufficientFunds{AccountID: accountID}
	}

	return m.accounts.CompareAndSwapBalances(ctx, accountID, acc.Version, money.Format(settled), money.Format(available))
}
