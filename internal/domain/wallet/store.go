package wallet

import (
	"context"
	"time"
)

// SortDirection orders listings by document id.
type SortDirection string

const (
	SortAsc  SortDirection = "asc"
	SortDesc SortDirection = "desc"
)

// PageRequest drives cursor-based pagination. After is an opaque cursor: the
// document id of the last item from the previous page.
type PageRequest struct {
	Limit int
	After string
	Sort  SortDirection
}

// AccountFilter narrows account listings. BusinessID is always required.
type AccountFilter struct {
	BusinessID string
	OwnerID    string
	Type       AccountType
}

// HoldFilter narrows hold listings.
type HoldFilter struct {
	BusinessID string
	AgentID    string
	AccountID  string
	Statuses   []HoldStatus
	From       *time.Time
	To         *time.Time
}

// EntryRole selects which side of a journal row an account filter applies to.
type EntryRole string

const (
	EntryRoleAny    EntryRole = ""
	EntryRoleDebit  EntryRole = "debit"
	EntryRoleCredit EntryRole = "credit"
)

// EntryFilter narrows journal listings.
type EntryFilter struct {
	BusinessID string
	AccountID  string
	Role       EntryRole
	From       *time.Time
	To         *time.Time
}

// AccountStore persists ledger accounts.
type AccountStore interface {
	// Ensure inserts the account if absent; an existing account is untouched.
	Ensure(ctx context.Context, acc *Account) error
	Get(ctx context.Context, accountID string) (*Account, error)

	// CompareAndSwapBalances writes new balance strings conditioned on the
	// version read by the caller, incrementing the version by exactly one.
	// Returns ErrConcurrentModification when the condition matches nothing.
	CompareAndSwapBalances(ctx context.Context, accountID string, version int64, settled, available string) (*Account, error)

	List(ctx context.Context, filter AccountFilter, page PageRequest) ([]*Account, string, error)
}

// LedgerStore persists the append-only journal.
type LedgerStore interface {
	// Append inserts one journal row. Returns ErrDuplicateEntry when the
	// txn id already exists.
	Append(ctx context.Context, entry *Entry) error
	GetByTxnID(ctx context.Context, txnID string) (*Entry, error)
	List(ctx context.Context, filter EntryFilter, page PageRequest) ([]*Entry, string, error)
}

// HoldStore persists two-phase reservations. The terminal transitions are
// conditional on ACTIVE status so a hold can leave ACTIVE exactly once.
type HoldStore interface {
	Create(ctx context.Context, hold *Hold) error
	GetByHoldID(ctx context.Context, holdID string) (*Hold, error)

	// MarkCaptured moves an ACTIVE hold to CAPTURED recording the capture
	// txn id. Returns ErrHoldNotActive when the hold is not ACTIVE.
	MarkCaptured(ctx context.Context, holdID, txnID string) error

	// MarkReleased moves an ACTIVE hold to RELEASED.
	// Returns ErrHoldNotActive when the hold is not ACTIVE.
	MarkReleased(ctx context.Context, holdID string) error

	List(ctx context.Context, filter HoldFilter, page PageRequest) ([]*Hold, string, error)
}

// IdempotencyStore is the write-once guard. Guard must run inside the same
// transaction as the effect it protects.
type IdempotencyStore interface {
	// Guard inserts the key, translating a duplicate-key violation into
	// ErrIdempotentReplay. Any other error is an infrastructure failure.
	Guard(ctx context.Context, key string, meta map[string]string) error
}

// StateStore persists the per-business wallet state row.
type StateStore interface {
	// Get returns nil, nil when no state row exists for the business.
	Get(ctx context.Context, businessID string) (*State, error)
	MarkSeeded(ctx context.Context, businessID, txnID, seededBy string) error
}

// TxRunner wraps a multi-document transaction: every store call made with the
// ctx passed to fn joins the same session, and the whole body commits or
// aborts atomically.
type TxRunner interface {
	WithinTransaction(ctx context.Context, fn func(ctx context.Context) error) error
}
