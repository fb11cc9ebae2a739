package wallet

// ErrAccountNotFound indicates a referenced account id has no record.
type ErrAccountNotFound struct {
	AccountID string
}

func (e ErrAccountNotFound) Error() string {
	return "account not found: " + e.AccountID
}

// Is implements the errors.Is interface for ErrAccountNotFound
func (e ErrAccountNotFound) Is(target error) bool {
	t, ok := target.(ErrAccountNotFound)
	if !ok {
		return false
	}
	return t.AccountID == "" || t.AccountID == e.AccountID
}

// ErrInsufficientFunds indicates a balance mutation would drive settled or
// available negative on an account not flagged to allow it. No write occurs.
type ErrInsufficientFunds struct {
	AccountID string
}

func (e ErrInsufficientFunds) Error() string {
	return "insufficient funds on account: " + e.AccountID
}

// Is implements the errors.Is interface for ErrInsufficientFunds
func (e ErrInsufficientFunds) Is(target error) bool {
	t, ok := target.(ErrInsufficientFunds)
	if !ok {
		return false
	}
	return t.AccountID == "" || t.AccountID == e.AccountID
}

// ErrConcurrentModification indicates the version-gated balance write matched
// no document: a concurrent writer won the race. The caller decides whether
// to retry; nothing in the core retries automatically.
type ErrConcurrentModification struct {
	AccountID string
}

func (e ErrConcurrentModification) Error() string {
	return "concurrent modification detected for account: " + e.AccountID
}

// Is implements the errors.Is interface for ErrConcurrentModification
func (e ErrConcurrentModification) Is(target error) bool {
	t, ok := target.(ErrConcurrentModification)
	if !ok {
		return false
	}
	return t.AccountID == "" || t.AccountID == e.AccountID
}

// ErrIdempotentReplay signals that the idempotency guard saw this key before.
// It is a control-flow signal rather than a hard failure: callers may map it
// to a successful "already done" response.
type ErrIdempotentReplay struct {
	Key string
}

func (e ErrIdempotentReplay) Error() string {
	return "idempotent replay for key: " + e.Key
}

// Is implements the errors.Is interface for ErrIdempotentReplay
func (e ErrIdempotentReplay) Is(target error) bool {
	t, ok := target.(ErrIdempotentReplay)
	if !ok {
		return false
	}
	return t.Key == "" || t.Key == e.Key
}

// ErrHoldNotFound indicates the hold id has no record.
type ErrHoldNotFound struct {
	HoldID string
}

func (e ErrHoldNotFound) Error() string {
	return "hold not found: " + e.HoldID
}

// Is implements the errors.Is interface for ErrHoldNotFound
func (e ErrHoldNotFound) Is(target error) bool {
	t, ok := target.(ErrHoldNotFound)
	if !ok {
		return false
	}
	return t.HoldID == "" || t.HoldID == e.HoldID
}

// ErrHoldNotActive indicates a capture or release was attempted on a hold
// that already reached a terminal state.
type ErrHoldNotActive struct {
	HoldID string
	Status HoldStatus
}

func (e ErrHoldNotActive) Error() string {
	return "hold " + e.HoldID + " is not active (status " + string(e.Status) + ")"
}

// Is implements the errors.Is interface for ErrHoldNotActive
func (e ErrHoldNotActive) Is(target error) bool {
	t, ok := target.(ErrHoldNotActive)
	if !ok {
		return false
	}
	return t.HoldID == "" || t.HoldID == e.HoldID
}

// ErrBusinessMismatch indicates a hold or journal entry belongs to a
// different business than the caller claimed. Always a hard failure; it may
// signal a tenant-isolation violation upstream.
type ErrBusinessMismatch struct {
	BusinessID string
	Resource   string
}

func (e ErrBusinessMismatch) Error() string {
	return "business " + e.BusinessID + " does not own " + e.Resource
}

// Is implements the errors.Is interface for ErrBusinessMismatch
func (e ErrBusinessMismatch) Is(target error) bool {
	_, ok := target.(ErrBusinessMismatch)
	return ok
}

// ErrEntryNotFound indicates a journal lookup by txn id found nothing.
type ErrEntryNotFound struct {
	TxnID string
}

func (e ErrEntryNotFound) Error() string {
	return "ledger entry not found: " + e.TxnID
}

// Is implements the errors.Is interface for ErrEntryNotFound
func (e ErrEntryNotFound) Is(target error) bool {
	t, ok := target.(ErrEntryNotFound)
	if !ok {
		return false
	}
	return t.TxnID == "" || t.TxnID == e.TxnID
}

// ErrDuplicateEntry indicates a journal insert hit the unique txn_id index.
// Defense in depth alongside the idempotency guard: a duplicate post can
// never silently double-write.
type ErrDuplicateEntry struct {
	TxnID string
}

func (e ErrDuplicateEntry) Error() string {
	return "duplicate ledger entry: " + e.TxnID
}

// Is implements the errors.Is interface for ErrDuplicateEntry
func (e ErrDuplicateEntry) Is(target error) bool {
	t, ok := target.(ErrDuplicateEntry)
	if !ok {
		return false
	}
	return t.TxnID == "" || t.TxnID == e.TxnID
}
