package service

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/agentfloat-wallet-ledger/internal/domain/funding"
	"github.com/agentfloat-wallet-ledger/internal/domain/wallet"
)

// memDB backs in-memory store fakes for service tests. All stores share one
// instance so a test can inspect cross-store effects of an operation.
type memDB struct {
	mu       sync.Mutex
	accounts map[string]*wallet.Account
	entries  map[string]*wallet.Entry
	txnOrder []string
	holds    map[string]*wallet.Hold
	idem     map[string]map[string]string
	states   map[string]*wallet.State
	requests map[string]*funding.Request
	nextID   int

	// forceConflict makes every balance CAS fail, simulating a lost race.
	forceConflict bool
}

func newMemDB() *memDB {
	return &memDB{
		accounts: make(map[string]*wallet.Account),
		entries:  make(map[string]*wallet.Entry),
		holds:    make(map[string]*wallet.Hold),
		idem:     make(map[string]map[string]string),
		states:   make(map[string]*wallet.State),
		requests: make(map[string]*funding.Request),
	}
}

func (db *memDB) genID() string {
	db.nextID++
	return fmt.Sprintf("mem-%06d", db.nextID)
}

type memAccounts struct{ db *memDB }

func (s *memAccounts) Ensure(_ context.Context, acc *wallet.Account) error {
	s.db.mu.Lock()
	defer s.db.mu.Unlock()
	if _, ok := s.db.accounts[acc.AccountID]; ok {
		return nil
	}
	cp := *acc
	cp.ID = s.db.genID()
	s.db.accounts[acc.AccountID] = &cp
	return nil
}

func (s *memAccounts) Get(_ context.Context, accountID string) (*wallet.Account, error) {
	s.db.mu.Lock()
	defer s.db.mu.Unlock()
	acc, ok := s.db.accounts[accountID]
	if !ok {
		return nil, wallet.ErrAccountNotFound{AccountID: accountID}
	}
	cp := *acc
	return &cp, nil
}

func (s *memAccounts) CompareAndSwapBalances(_ context.Context, accountID string, version int64, settled, available string) (*wallet.Account, error) {
	s.db.mu.Lock()
	defer s.db.mu.Unlock()
	acc, ok := s.db.accounts[accountID]
	if !ok {
		return nil, wallet.ErrAccountNotFound{AccountID: accountID}
	}
	if s.db.forceConflict || acc.Version != version {
		return nil, wallet.ErrConcurrentModification{AccountID: accountID}
	}
	acc.Settled = settled
	acc.Available = available
	acc.Version++
	acc.UpdatedAt = time.Now().UTC()
	cp := *acc
	return &cp, nil
}

func (s *memAccounts) List(_ context.Context, filter wallet.AccountFilter, _ wallet.PageRequest) ([]*wallet.Account, string, error) {
	s.db.mu.Lock()
	defer s.db.mu.Unlock()
	var out []*wallet.Account
	for _, acc := range s.db.accounts {
		if acc.BusinessID != filter.BusinessID {
			continue
		}
		if filter.OwnerID != "" && acc.OwnerID != filter.OwnerID {
			continue
		}
		if filter.Type != "" && acc.Type != filter.Type {
			continue
		}
		cp := *acc
		out = append(out, &cp)
	}
	return out, "", nil
}

type memLedger struct{ db *memDB }

func (s *memLedger) Append(_ context.Context, entry *wallet.Entry) error {
	s.db.mu.Lock()
	defer s.db.mu.Unlock()
	if _, ok := s.db.entries[entry.TxnID]; ok {
		return wallet.ErrDuplicateEntry{TxnID: entry.TxnID}
	}
	cp := *entry
	s.db.entries[entry.TxnID] = &cp
	s.db.txnOrder = append(s.db.txnOrder, entry.TxnID)
	return nil
}

func (s *memLedger) GetByTxnID(_ context.Context, txnID string) (*wallet.Entry, error) {
	s.db.mu.Lock()
	defer s.db.mu.Unlock()
	entry, ok := s.db.entries[txnID]
	if !ok {
		return nil, wallet.ErrEntryNotFound{TxnID: txnID}
	}
	cp := *entry
	return &cp, nil
}

func (s *memLedger) List(_ context.Context, filter wallet.EntryFilter, _ wallet.PageRequest) ([]*wallet.Entry, string, error) {
	s.db.mu.Lock()
	defer s.db.mu.Unlock()
	var out []*wallet.Entry
	for _, txnID := range s.db.txnOrder {
		entry := s.db.entries[txnID]
		if filter.BusinessID != "" && entry.BusinessID != filter.BusinessID {
			continue
		}
		if filter.AccountID != "" {
			switch filter.Role {
			case wallet.EntryRoleDebit:
				if entry.DebitAccount != filter.AccountID {
					continue
				}
			case wallet.EntryRoleCredit:
				if entry.CreditAccount != filter.AccountID {
					continue
				}
			default:
				if entry.DebitAccount != filter.AccountID && entry.CreditAccount != filter.AccountID {
					continue
				}
			}
		}
		cp := *entry
		out = append(out, &cp)
	}
	return out, "", nil
}

type memHolds struct{ db *memDB }

func (s *memHolds) Create(_ context.Context, hold *wallet.Hold) error {
	s.db.mu.Lock()
	defer s.db.mu.Unlock()
	cp := *hold
	cp.ID = s.db.genID()
	s.db.holds[hold.HoldID] = &cp
	return nil
}

func (s *memHolds) GetByHoldID(_ context.Context, holdID string) (*wallet.Hold, error) {
	s.db.mu.Lock()
	defer s.db.mu.Unlock()
	hold, ok := s.db.holds[holdID]
	if !ok {
		return nil, wallet.ErrHoldNotFound{HoldID: holdID}
	}
	cp := *hold
	return &cp, nil
}

func (s *memHolds) MarkCaptured(_ context.Context, holdID, txnID string) error {
	return s.transition(holdID, wallet.HoldStatusCaptured, txnID)
}

func (s *memHolds) MarkReleased(_ context.Context, holdID string) error {
	return s.transition(holdID, wallet.HoldStatusReleased, "")
}

func (s *memHolds) transition(holdID string, status wallet.HoldStatus, txnID string) error {
	s.db.mu.Lock()
	defer s.db.mu.Unlock()
	hold, ok := s.db.holds[holdID]
	if !ok {
		return wallet.ErrHoldNotFound{HoldID: holdID}
	}
	if hold.Status != wallet.HoldStatusActive {
		return wallet.ErrHoldNotActive{HoldID: holdID, Status: hold.Status}
	}
	hold.Status = status
	hold.CapturedTxnID = txnID
	hold.UpdatedAt = time.Now().UTC()
	return nil
}

func (s *memHolds) List(_ context.Context, filter wallet.HoldFilter, _ wallet.PageRequest) ([]*wallet.Hold, string, error) {
	s.db.mu.Lock()
	defer s.db.mu.Unlock()
	var out []*wallet.Hold
	for _, hold := range s.db.holds {
		if hold.BusinessID != filter.BusinessID {
			continue
		}
		if filter.AgentID != "" && hold.AgentID != filter.AgentID {
			continue
		}
		if len(filter.Statuses) > 0 {
			match := false
			for _, st := range filter.Statuses {
				if hold.Status == st {
					match = true
				}
			}
			if !match {
				continue
			}
		}
		cp := *hold
		out = append(out, &cp)
	}
	return out, "", nil
}

type memIdem struct{ db *memDB }

func (s *memIdem) Guard(_ context.Context, key string, meta map[string]string) error {
	s.db.mu.Lock()
	defer s.db.mu.Unlock()
	if _, ok := s.db.idem[key]; ok {
		return wallet.ErrIdempotentReplay{Key: key}
	}
	s.db.idem[key] = meta
	return nil
}

type memState struct{ db *memDB }

func (s *memState) Get(_ context.Context, businessID string) (*wallet.State, error) {
	s.db.mu.Lock()
	defer s.db.mu.Unlock()
	state, ok := s.db.states[businessID]
	if !ok {
		return nil, nil
	}
	cp := *state
	return &cp, nil
}

func (s *memState) MarkSeeded(_ context.Context, businessID, txnID, seededBy string) error {
	s.db.mu.Lock()
	defer s.db.mu.Unlock()
	now := time.Now().UTC()
	s.db.states[businessID] = &wallet.State{
		ID:         s.db.genID(),
		BusinessID: businessID,
		Seeded:     true,
		SeedTxnID:  txnID,
		SeededAt:   now,
		SeededBy:   seededBy,
		CreatedAt:  now,
		UpdatedAt:  now,
	}
	return nil
}

type memFunding struct{ db *memDB }

func (s *memFunding) Create(_ context.Context, req *funding.Request) (string, error) {
	s.db.mu.Lock()
	defer s.db.mu.Unlock()
	if req.ID == "" {
		req.ID = s.db.genID()
	}
	cp := *req
	s.db.requests[req.ID] = &cp
	return req.ID, nil
}

func (s *memFunding) GetByID(_ context.Context, id string) (*funding.Request, error) {
	s.db.mu.Lock()
	defer s.db.mu.Unlock()
	req, ok := s.db.requests[id]
	if !ok {
		return nil, funding.ErrRequestNotFound{RequestID: id}
	}
	cp := *req
	return &cp, nil
}

func (s *memFunding) IncrementAttempts(_ context.Context, id string) error {
	s.db.mu.Lock()
	defer s.db.mu.Unlock()
	req, ok := s.db.requests[id]
	if !ok {
		return funding.ErrRequestNotFound{RequestID: id}
	}
	req.Attempts++
	req.Status = funding.StatusPending
	return nil
}

func (s *memFunding) MarkCompleted(_ context.Context, id, txnID, idempotencyKey, reference string) error {
	s.db.mu.Lock()
	defer s.db.mu.Unlock()
	req, ok := s.db.requests[id]
	if !ok {
		return funding.ErrRequestNotFound{RequestID: id}
	}
	req.Status = funding.StatusCompleted
	req.TxnID = txnID
	req.IdempotencyKey = idempotencyKey
	req.Reference = reference
	req.Error = ""
	return nil
}

func (s *memFunding) MarkFailed(_ context.Context, id, reason, idempotencyKey, reference string) error {
	s.db.mu.Lock()
	defer s.db.mu.Unlock()
	req, ok := s.db.requests[id]
	if !ok {
		return funding.ErrRequestNotFound{RequestID: id}
	}
	req.Status = funding.StatusFailed
	req.Error = reason
	req.IdempotencyKey = idempotencyKey
	req.Reference = reference
	return nil
}

func (s *memFunding) List(_ context.Context, filter funding.Filter, _ int, _ string, _ string) ([]*funding.Request, string, error) {
	s.db.mu.Lock()
	defer s.db.mu.Unlock()
	var out []*funding.Request
	for _, req := range s.db.requests {
		if req.BusinessID != filter.BusinessID {
			continue
		}
		if filter.AgentID != "" && req.AgentID != filter.AgentID {
			continue
		}
		if filter.Status != "" && req.Status != filter.Status {
			continue
		}
		cp := *req
		out = append(out, &cp)
	}
	return out, "", nil
}

// memSnapshot captures all store state so a failed transaction body can be
// rolled back, mirroring the abort semantics of the real session runner.
type memSnapshot struct {
	accounts map[string]*wallet.Account
	entries  map[string]*wallet.Entry
	txnOrder []string
	holds    map[string]*wallet.Hold
	idem     map[string]map[string]string
	states   map[string]*wallet.State
	requests map[string]*funding.Request
	nextID   int
}

func copyMap[V any](src map[string]*V) map[string]*V {
	dst := make(map[string]*V, len(src))
	for k, v := range src {
		cp := *v
		dst[k] = &cp
	}
	return dst
}

func (db *memDB) snapshot() memSnapshot {
	db.mu.Lock()
	defer db.mu.Unlock()
	idem := make(map[string]map[string]string, len(db.idem))
	for k, v := range db.idem {
		idem[k] = v
	}
	return memSnapshot{
		accounts: copyMap(db.accounts),
		entries:  copyMap(db.entries),
		txnOrder: append([]string(nil), db.txnOrder...),
		holds:    copyMap(db.holds),
		idem:     idem,
		states:   copyMap(db.states),
		requests: copyMap(db.requests),
		nextID:   db.nextID,
	}
}

func (db *memDB) restore(s memSnapshot) {
	db.mu.Lock()
	defer db.mu.Unlock()
	db.accounts = s.accounts
	db.entries = s.entries
	db.txnOrder = s.txnOrder
	db.holds = s.holds
	db.idem = s.idem
	db.states = s.states
	db.requests = s.requests
	db.nextID = s.nextID
}

// memTx aborts the whole body on error by restoring the pre-transaction state.
type memTx struct{ db *memDB }

func (t memTx) WithinTransaction(ctx context.Context, fn func(ctx context.Context) error) error {
	snap := t.db.snapshot()
	if err := fn(ctx); err != nil {
		t.db.restore(snap)
		return err
	}
	return nil
}

func newTestWalletService(db *memDB) *WalletService {
	return NewWalletService(
		slog.Default(),
		memTx{db: db},
		&memAccounts{db: db},
		&memLedger{db: db},
		&memHolds{db: db},
		&memIdem{db: db},
		&memState{db: db},
		nil,
		"GBP",
	)
}

func newTestFundingService(db *memDB) *FundingService {
	return NewFundingService(slog.Default(), &memFunding{db: db}, newTestWalletService(db))
}
