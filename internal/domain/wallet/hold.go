package wallet

import "time"

// HoldStatus tracks the two-phase reservation lifecycle. ACTIVE is the only
// non-terminal state; CAPTURED and RELEASED are mutually exclusive and final.
type HoldStatus string

const (
	HoldStatusActive   HoldStatus = "ACTIVE"
	HoldStatusCaptured HoldStatus = "CAPTURED"
	HoldStatusReleased HoldStatus = "RELEASED"
)

// Hold is a reservation against an account's available balance. Placing a
// hold reduces available only; capture moves settled funds and posts a
// journal entry, release restores available without touching the journal.
type Hold struct {
	ID            string     `json:"id,omitempty" bson:"_id,omitempty"`
	HoldID        string     `json:"hold_id" bson:"hold_id"`
	BusinessID    string     `json:"business_id" bson:"business_id"`
	AccountID     string     `json:"account_id" bson:"account_id"`
	AgentID       string     `json:"agent_id" bson:"agent_id"`
	Amount        string     `json:"amount" bson:"amount"`
	Currency      string     `json:"currency" bson:"currency"`
	Status        HoldStatus `json:"status" bson:"status"`
	Purpose       string     `json:"purpose" bson:"purpose"`
	Ref           string     `json:"ref" bson:"ref"`
	CapturedTxnID string     `json:"captured_txn_id,omitempty" bson:"captured_txn_id,omitempty"`
	CreatedAt     time.Time  `json:"created_at" bson:"created_at"`
	UpdatedAt     time.Time  `json:"updated_at" bson:"updated_at"`
}
