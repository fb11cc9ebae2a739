package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/agentfloat-wallet-ledger/internal/domain/money"
	"github.com/agentfloat-wallet-ledger/internal/domain/wallet"
	"github.com/agentfloat-wallet-ledger/internal/keys"
	"github.com/agentfloat-wallet-ledger/internal/platform/messaging/producers"
)

// WalletService is the public transactional API of the ledger core. Every
// operation ensures the accounts it touches exist, guards against replay,
// posts at most one journal entry, and applies balance deltas to both sides,
// all inside a single multi-document transaction. A failure at any step
// aborts the whole transaction; no partial state is ever visible.
type WalletService struct {
	logger   *slog.Logger
	tx       wallet.TxRunner
	accounts wallet.AccountStore
	ledger   wallet.LedgerStore
	holds    wallet.HoldStore
	idem     wallet.IdempotencyStore
	state    wallet.StateStore
	mutator  *BalanceMutator
	events   producers.MessagePublisher // optional, best-effort after commit
	currency string
}

// NewWalletService wires the ledger core. The events publisher may be nil;
// committed operations are then not announced downstream.
func NewWalletService(
	logger *slog.Logger,
	tx wallet.TxRunner,
	accounts wallet.AccountStore,
	ledger wallet.LedgerStore,
	holds wallet.HoldStore,
	idem wallet.IdempotencyStore,
	state wallet.StateStore,
	events producers.MessagePublisher,
	currency string,
) *WalletService {
	return &WalletService{
		logger:   logger,
		tx:       tx,
		accounts: accounts,
		ledger:   ledger,
		holds:    holds,
		idem:     idem,
		state:    state,
		mutator:  NewBalanceMutator(accounts),
		events:   events,
		currency: currency,
	}
}

// Event announces a committed wallet operation to downstream consumers.
type Event struct {
	Operation  string `json:"operation"`
	TxnID      string `json:"txn_id,omitempty"`
	HoldID     string `json:"hold_id,omitempty"`
	BusinessID string `json:"business_id"`
	Amount     string `json:"amount"`
	Currency   string `json:"currency"`
}

// publishEvent emits a wallet event after a successful commit. Publishing is
// best-effort: the transaction already committed, so a publish failure is
// logged and swallowed rather than turned into a spurious operation error.
func (s *WalletService) publishEvent(ctx context.Context, event Event) {
	if s.events == nil {
		return
	}
	key := event.TxnID
	if key == "" {
		key = event.HoldID
	}
	if err := s.events.Publish(ctx, key, event); err != nil {
		s.logger.Error("Failed to publish wallet event",
			"operation", event.Operation,
			"txn_id", event.TxnID,
			"error", err,
		)
	}
}

func (s *WalletService) ensureAccount(ctx context.Context, businessID, accountID, ownerID string, accountType wallet.AccountType) error {
	return s.accounts.Ensure(ctx, wallet.NewAccount(businessID, accountID, ownerID, s.currency, accountType))
}

// CreditInitialFloatParams drives a treasury-to-agent float credit.
type CreditInitialFloatParams struct {
	BusinessID     string
	AgentID        string
	Amount         string
	IdempotencyKey string
	Reference      string

	// AllowNegativeTreasury lets the treasury go below zero for businesses
	// that front float before topping up. Default is strict.
	AllowNegativeTreasury bool
}

// CreditResult reports a committed float credit.
type CreditResult struct {
	TxnID        string `json:"txn_id"`
	AgentAccount string `json:"agent_account"`
}

// CreditInitialFloat moves funds from the business treasury to an agent float
// account, increasing the agent's settled and available balances. A zero
// amount still posts a journal row for auditability without touching
// balances.
func (s *WalletService) CreditInitialFloat(ctx context.Context, params CreditInitialFloatParams) (*CreditResult, error) {
	amt, err := money.ParseNonNegative(params.Amount)
	if err != nil {
		return nil, err
	}

	treasuryAcct := wallet.TreasuryAccountID(params.BusinessID)
	agentAcct := wallet.AgentAccountID(params.BusinessID, params.AgentID)
	txnID := fmt.Sprintf("init-%s", uuid.NewString())

	err = s.tx.WithinTransaction(ctx, func(ctx context.Context) error {
		if err := s.ensureAccount(ctx, params.BusinessID, treasuryAcct, params.BusinessID, wallet.AccountTypeTreasury); err != nil {
			return err
		}
		if err := s.ensureAccount(ctx, params.BusinessID, agentAcct, params.AgentID, wallet.AccountTypeAgentFloat); err != nil {
			return err
		}

		if err := s.idem.Guard(ctx, params.IdempotencyKey, map[string]string{
			"op":          "credit_initial",
			"business_id": params.BusinessID,
			"agent_id":    params.AgentID,
			"amount":      money.Format(amt),
			"reference":   params.Reference,
		}); err != nil {
			return err
		}

		var meta map[string]string
		if params.Reference != "" {
			meta = map[string]string{"reference": params.Reference}
		}
		if err := s.ledger.Append(ctx, &wallet.Entry{
			TxnID:         txnID,
			BusinessID:    params.BusinessID,
			DebitAccount:  treasuryAcct,
			CreditAccount: agentAcct,
			Amount:        money.Format(amt),
			Currency:      s.currency,
			Meta:          meta,
			CreatedAt:     time.Now().UTC(),
		}); err != nil {
			return err
		}

		if !amt.IsZero() {
			if _, err := s.mutator.ApplyDelta(ctx, treasuryAcct, amt.Neg(), amt.Neg(), params.AllowNegativeTreasury); err != nil {
				return err
			}
			if _, err := s.mutator.ApplyDelta(ctx, agentAcct, amt, amt, false); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.publishEvent(ctx, Event{
		Operation:  "credit_initial_float",
		TxnID:      txnID,
		BusinessID: params.BusinessID,
		Amount:     money.Format(amt),
		Currency:   s.currency,
	})
	return &CreditResult{TxnID: txnID, AgentAccount: agentAcct}, nil
}

// InitResult reports a zero-amount agent account initialization.
type InitResult struct {
	AgentAccount       string `json:"agent_account"`
	TxnID              string `json:"txn_id,omitempty"`
	AlreadyInitialized bool   `json:"already_initialized"`
}

// CreateAgentAccountWithZeroInit ensures the agent account exists and writes
// a zero-amount initial credit for audit. Safe to call any number of times:
// the replay signal is absorbed into an "already initialized" result.
func (s *WalletService) CreateAgentAccountWithZeroInit(ctx context.Context, businessID, agentID string) (*InitResult, error) {
	kp := keys.ForInitZero(businessID, agentID)

	res, err := s.CreditInitialFloat(ctx, CreditInitialFloatParams{
		BusinessID:     businessID,
		AgentID:        agentID,
		Amount:         "0.00",
		IdempotencyKey: kp.Idem,
		Reference:      kp.Ref,
	})
	if err != nil {
		if errors.Is(err, wallet.ErrIdempotentReplay{}) {
			return &InitResult{
				AgentAccount:       wallet.AgentAccountID(businessID, agentID),
				AlreadyInitialized: true,
			}, nil
		}
		return nil, err
	}
	return &InitResult{AgentAccount: res.AgentAccount, TxnID: res.TxnID}, nil
}

// PlaceHoldParams drives the authorize step of the hold protocol.
type PlaceHoldParams struct {
	BusinessID     string
	AgentID        string
	Amount         string
	IdempotencyKey string
	Purpose        string
	Ref            string
}

// HoldResult reports a committed hold placement.
type HoldResult struct {
	HoldID    string `json:"hold_id"`
	AccountID string `json:"account_id"`
	Amount    string `json:"amount"`
}

// PlaceHold reserves funds against the agent's available balance. Only
// available moves; settled is untouched until capture, and no journal entry
// is posted yet.
func (s *WalletService) PlaceHold(ctx context.Context, params PlaceHoldParams) (*HoldResult, error) {
	amt, err := money.ParseNonNegative(params.Amount)
	if err != nil {
		return nil, err
	}

	agentAcct := wallet.AgentAccountID(params.BusinessID, params.AgentID)
	holdID := fmt.Sprintf("hold-%s", uuid.NewString())

	err = s.tx.WithinTransaction(ctx, func(ctx context.Context) error {
		if err := s.ensureAccount(ctx, params.BusinessID, agentAcct, params.AgentID, wallet.AccountTypeAgentFloat); err != nil {
			return err
		}

		if err := s.idem.Guard(ctx, params.IdempotencyKey, map[string]string{
			"op":          "hold",
			"business_id": params.BusinessID,
			"agent_id":    params.AgentID,
			"amount":      money.Format(amt),
			"ref":         params.Ref,
		}); err != nil {
			return err
		}

		if _, err := s.mutator.ApplyDelta(ctx, agentAcct, decimal.Zero, amt.Neg(), false); err != nil {
			return err
		}

		now := time.Now().UTC()
		return s.holds.Create(ctx, &wallet.Hold{
			HoldID:     holdID,
			BusinessID: params.BusinessID,
			AccountID:  agentAcct,
			AgentID:    params.AgentID,
			Amount:     money.Format(amt),
			Currency:   s.currency,
			Status:     wallet.HoldStatusActive,
			Purpose:    params.Purpose,
			Ref:        params.Ref,
			CreatedAt:  now,
			UpdatedAt:  now,
		})
	})
	if err != nil {
		return nil, err
	}

	s.publishEvent(ctx, Event{
		Operation:  "place_hold",
		HoldID:     holdID,
		BusinessID: params.BusinessID,
		Amount:     money.Format(amt),
		Currency:   s.currency,
	})
	return &HoldResult{HoldID: holdID, AccountID: agentAcct, Amount: money.Format(amt)}, nil
}

// CaptureHoldParams drives the success path of the hold protocol.
type CaptureHoldParams struct {
	BusinessID     string
	HoldID         string
	IdempotencyKey string

	// PayoutNetworkAccount overrides the default clearing account when a
	// payout network settles into its own clearing account.
	PayoutNetworkAccount string
	Meta                 map[string]string
}

// CaptureResult reports a committed capture.
type CaptureResult struct {
	TxnID string `json:"txn_id"`
}

// CaptureHold settles an active hold: posts the agent-to-clearing journal
// entry, reduces the agent's settled balance, credits clearing on both
// figures, and marks the hold CAPTURED. Available was already reduced at
// placement time.
func (s *WalletService) CaptureHold(ctx context.Context, params CaptureHoldParams) (*CaptureResult, error) {
	clearingAcct := params.PayoutNetworkAccount
	if clearingAcct == "" {
		clearingAcct = wallet.ClearingAccountID(params.BusinessID)
	}
	txnID := fmt.Sprintf("cap-%s", uuid.NewString())

	err := s.tx.WithinTransaction(ctx, func(ctx context.Context) error {
		hold, err := s.holds.GetByHoldID(ctx, params.HoldID)
		if err != nil {
			return err
		}
		if hold.Status != wallet.HoldStatusActive {
			return wallet.ErrHoldNotActive{HoldID: params.HoldID, Status: hold.Status}
		}
		if hold.BusinessID != params.BusinessID {
			return wallet.ErrBusinessMismatch{BusinessID: params.BusinessID, Resource: "hold " + params.HoldID}
		}

		if err := s.ensureAccount(ctx, params.BusinessID, clearingAcct, params.BusinessID, wallet.AccountTypeClearing); err != nil {
			return err
		}

		if err := s.idem.Guard(ctx, params.IdempotencyKey, map[string]string{
			"op":          "capture",
			"hold_id":     params.HoldID,
			"business_id": params.BusinessID,
		}); err != nil {
			return err
		}

		amt, err := money.Parse(hold.Amount)
		if err != nil {
			return err
		}

		meta := map[string]string{"hold_id": params.HoldID}
		for k, v := range params.Meta {
			meta[k] = v
		}
		if err := s.ledger.Append(ctx, &wallet.Entry{
			TxnID:         txnID,
			BusinessID:    params.BusinessID,
			DebitAccount:  hold.AccountID,
			CreditAccount: clearingAcct,
			Amount:        money.Format(amt),
			Currency:      s.currency,
			Meta:          meta,
			CreatedAt:     time.Now().UTC(),
		}); err != nil {
			return err
		}

		if _, err := s.mutator.ApplyDelta(ctx, hold.AccountID, amt.Neg(), decimal.Zero, false); err != nil {
			return err
		}
		if _, err := s.mutator.ApplyDelta(ctx, clearingAcct, amt, amt, false); err != nil {
			return err
		}

		return s.holds.MarkCaptured(ctx, params.HoldID, txnID)
	})
	if err != nil {
		return nil, err
	}

	s.publishEvent(ctx, Event{
		Operation:  "capture_hold",
		TxnID:      txnID,
		HoldID:     params.HoldID,
		BusinessID: params.BusinessID,
		Currency:   s.currency,
	})
	return &CaptureResult{TxnID: txnID}, nil
}

// ReleaseHoldParams drives the cancel path of the hold protocol.
type ReleaseHoldParams struct {
	BusinessID     string
	HoldID         string
	IdempotencyKey string
}

// ReleaseResult reports a committed release.
type ReleaseResult struct {
	HoldID string `json:"hold_id"`
}

// ReleaseHold cancels an active hold, restoring the agent's available
// balance. No journal entry is posted; nothing actually moved.
func (s *WalletService) ReleaseHold(ctx context.Context, params ReleaseHoldParams) (*ReleaseResult, error) {
	err := s.tx.WithinTransaction(ctx, func(ctx context.Context) error {
		hold, err := s.holds.GetByHoldID(ctx, params.HoldID)
		if err != nil {
			return err
		}
		if hold.Status != wallet.HoldStatusActive {
			return wallet.ErrHoldNotActive{HoldID: params.HoldID, Status: hold.Status}
		}
		if hold.BusinessID != params.BusinessID {
			return wallet.ErrBusinessMismatch{BusinessID: params.BusinessID, Resource: "hold " + params.HoldID}
		}

		if err := s.idem.Guard(ctx, params.IdempotencyKey, map[string]string{
			"op":          "release",
			"hold_id":     params.HoldID,
			"business_id": params.BusinessID,
		}); err != nil {
			return err
		}

		amt, err := money.Parse(hold.Amount)
		if err != nil {
			return err
		}
		if _, err := s.mutator.ApplyDelta(ctx, hold.AccountID, decimal.Zero, amt, false); err != nil {
			return err
		}

		return s.holds.MarkReleased(ctx, params.HoldID)
	})
	if err != nil {
		return nil, err
	}

	s.publishEvent(ctx, Event{
		Operation:  "release_hold",
		HoldID:     params.HoldID,
		BusinessID: params.BusinessID,
		Currency:   s.currency,
	})
	return &ReleaseResult{HoldID: params.HoldID}, nil
}

// RefundCaptureParams drives a reversal of a prior capture.
type RefundCaptureParams struct {
	BusinessID     string
	OriginalTxnID  string
	IdempotencyKey string
	Reason         string
}

// RefundCapture posts a mirrored reversal of the original capture entry,
// moving funds from clearing back to the agent account. The original journal
// row must exist and belong to the calling business.
func (s *WalletService) RefundCapture(ctx context.Context, params RefundCaptureParams) (*CaptureResult, error) {
	txnID := fmt.Sprintf("refund-%s", uuid.NewString())
	var amount string

	err := s.tx.WithinTransaction(ctx, func(ctx context.Context) error {
		if err := s.idem.Guard(ctx, params.IdempotencyKey, map[string]string{
			"op":          "refund",
			"orig":        params.OriginalTxnID,
			"business_id": params.BusinessID,
		}); err != nil {
			return err
		}

		entry, err := s.ledger.GetByTxnID(ctx, params.OriginalTxnID)
		if err != nil {
			return err
		}
		if entry.BusinessID != params.BusinessID {
			return wallet.ErrBusinessMismatch{BusinessID: params.BusinessID, Resource: "transaction " + params.OriginalTxnID}
		}

		amt, err := money.Parse(entry.Amount)
		if err != nil {
			return err
		}
		amount = money.Format(amt)

		agentAcct := entry.DebitAccount
		clearingAcct := entry.CreditAccount

		if err := s.ledger.Append(ctx, &wallet.Entry{
			TxnID:         txnID,
			BusinessID:    params.BusinessID,
			DebitAccount:  clearingAcct,
			CreditAccount: agentAcct,
			Amount:        amount,
			Currency:      entry.Currency,
			Meta:          map[string]string{"refund_of": params.OriginalTxnID, "reason": params.Reason},
			CreatedAt:     time.Now().UTC(),
		}); err != nil {
			return err
		}

		if _, err := s.mutator.ApplyDelta(ctx, clearingAcct, amt.Neg(), amt.Neg(), false); err != nil {
			return err
		}
		if _, err := s.mutator.ApplyDelta(ctx, agentAcct, amt, amt, false); err != nil {
			return err
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.publishEvent(ctx, Event{
		Operation:  "refund_capture",
		TxnID:      txnID,
		BusinessID: params.BusinessID,
		Amount:     amount,
		Currency:   s.currency,
	})
	return &CaptureResult{TxnID: txnID}, nil
}

// TopupTreasuryParams drives an opening-balance-to-treasury top-up.
type TopupTreasuryParams struct {
	BusinessID     string
	Amount         string
	IdempotencyKey string
	Reference      string
}

// TopupTreasuryOpeningBalance credits the business treasury from the opening
// balance account, keeping double entry intact. The opening balance account
// is the designated counterweight and may go negative.
func (s *WalletService) TopupTreasuryOpeningBalance(ctx context.Context, params TopupTreasuryParams) (*CaptureResult, error) {
	amt, err := money.ParseNonNegative(params.Amount)
	if err != nil {
		return nil, err
	}

	treasuryAcct := wallet.TreasuryAccountID(params.BusinessID)
	openingAcct := wallet.OpeningBalanceAccountID(params.BusinessID)
	txnID := fmt.Sprintf("topup-%s", uuid.NewString())

	err = s.tx.WithinTransaction(ctx, func(ctx context.Context) error {
		if err := s.ensureAccount(ctx, params.BusinessID, treasuryAcct, params.BusinessID, wallet.AccountTypeTreasury); err != nil {
			return err
		}
		if err := s.ensureAccount(ctx, params.BusinessID, openingAcct, params.BusinessID, wallet.AccountTypeOpeningBalance); err != nil {
			return err
		}

		if err := s.idem.Guard(ctx, params.IdempotencyKey, map[string]string{
			"op":          "treasury_topup",
			"business_id": params.BusinessID,
			"amount":      money.Format(amt),
			"reference":   params.Reference,
		}); err != nil {
			return err
		}

		var meta map[string]string
		if params.Reference != "" {
			meta = map[string]string{"reference": params.Reference}
		}
		if err := s.ledger.Append(ctx, &wallet.Entry{
			TxnID:         txnID,
			BusinessID:    params.BusinessID,
			DebitAccount:  openingAcct,
			CreditAccount: treasuryAcct,
			Amount:        money.Format(amt),
			Currency:      s.currency,
			Meta:          meta,
			CreatedAt:     time.Now().UTC(),
		}); err != nil {
			return err
		}

		// Allow negative on the opening balance side only
		if _, err := s.mutator.ApplyDelta(ctx, openingAcct, amt.Neg(), decimal.Zero, true); err != nil {
			return err
		}
		if _, err := s.mutator.ApplyDelta(ctx, treasuryAcct, amt, amt, false); err != nil {
			return err
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.publishEvent(ctx, Event{
		Operation:  "topup_treasury_opening_balance",
		TxnID:      txnID,
		BusinessID: params.BusinessID,
		Amount:     money.Format(amt),
		Currency:   s.currency,
	})
	return &CaptureResult{TxnID: txnID}, nil
}

// SeedTreasuryParams drives the one-time treasury seed.
type SeedTreasuryParams struct {
	BusinessID     string
	Amount         string
	SeededBy       string
	IdempotencyKey string
	Reference      string
}

// SeedResult reports a seed attempt. AlreadySeeded is an expected
// steady-state outcome, not an error: it carries the original seed txn.
type SeedResult struct {
	TxnID         string    `json:"txn_id,omitempty"`
	AlreadySeeded bool      `json:"already_seeded"`
	SeedTxnID     string    `json:"seed_txn_id,omitempty"`
	SeededAt      time.Time `json:"seeded_at,omitempty"`
}

// SeedTreasuryOnceOpeningBalance seeds the business treasury exactly once
// with an opening top-up. The wallet state row is checked inside the
// transaction and the idempotency guard covers concurrent seed attempts, so
// N concurrent calls produce one journal entry and N-1 already-seeded
// results.
func (s *WalletService) SeedTreasuryOnceOpeningBalance(ctx context.Context, params SeedTreasuryParams) (*SeedResult, error) {
	amt, err := money.ParseNonNegative(params.Amount)
	if err != nil {
		return nil, err
	}

	treasuryAcct := wallet.TreasuryAccountID(params.BusinessID)
	openingAcct := wallet.OpeningBalanceAccountID(params.BusinessID)
	idemKey := params.IdempotencyKey
	if idemKey == "" {
		idemKey = keys.ForTreasurySeed(params.BusinessID).Idem
	}
	txnID := fmt.Sprintf("seed-%s", uuid.NewString())

	var already *SeedResult
	err = s.tx.WithinTransaction(ctx, func(ctx context.Context) error {
		state, err := s.state.Get(ctx, params.BusinessID)
		if err != nil {
			return err
		}
		if state != nil && state.Seeded {
			already = &SeedResult{
				AlreadySeeded: true,
				SeedTxnID:     state.SeedTxnID,
				SeededAt:      state.SeededAt,
			}
			return nil
		}

		if err := s.ensureAccount(ctx, params.BusinessID, treasuryAcct, params.BusinessID, wallet.AccountTypeTreasury); err != nil {
			return err
		}
		if err := s.ensureAccount(ctx, params.BusinessID, openingAcct, params.BusinessID, wallet.AccountTypeOpeningBalance); err != nil {
			return err
		}

		if err := s.idem.Guard(ctx, idemKey, map[string]string{
			"op":          "treasury_seed",
			"business_id": params.BusinessID,
			"amount":      money.Format(amt),
			"reference":   params.Reference,
			"seeded_by":   params.SeededBy,
		}); err != nil {
			return err
		}

		if err := s.ledger.Append(ctx, &wallet.Entry{
			TxnID:         txnID,
			BusinessID:    params.BusinessID,
			DebitAccount:  openingAcct,
			CreditAccount: treasuryAcct,
			Amount:        money.Format(amt),
			Currency:      s.currency,
			Meta:          map[string]string{"reference": params.Reference, "seed": "true", "seeded_by": params.SeededBy},
			CreatedAt:     time.Now().UTC(),
		}); err != nil {
			return err
		}

		if _, err := s.mutator.ApplyDelta(ctx, openingAcct, amt.Neg(), decimal.Zero, true); err != nil {
			return err
		}
		if _, err := s.mutator.ApplyDelta(ctx, treasuryAcct, amt, amt, false); err != nil {
			return err
		}

		return s.state.MarkSeeded(ctx, params.BusinessID, txnID, params.SeededBy)
	})
	if err != nil {
		return nil, err
	}
	if already != nil {
		return already, nil
	}

	s.publishEvent(ctx, Event{
		Operation:  "seed_treasury_once_opening_balance",
		TxnID:      txnID,
		BusinessID: params.BusinessID,
		Amount:     money.Format(amt),
		Currency:   s.currency,
	})
	return &SeedResult{TxnID: txnID}, nil
}
