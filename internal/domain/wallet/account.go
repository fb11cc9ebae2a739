package wallet

import (
	"fmt"
	"time"
)

// AccountType classifies the ledger accounts kept per business.
type AccountType string

const (
	AccountTypeTreasury       AccountType = "TREASURY"
	AccountTypeAgentFloat     AccountType = "AGENT_FLOAT"
	AccountTypeClearing       AccountType = "CLEARING"
	AccountTypeOpeningBalance AccountType = "OPENING_BALANCE"
)

// Account is one named ledger account. Balances are decimal strings with two
// decimal places; Version gates every balance write (optimistic locking).
type Account struct {
	ID         string      `json:"id,omitempty" bson:"_id,omitempty"`
	AccountID  string      `json:"account_id" bson:"account_id"`
	BusinessID string      `json:"business_id" bson:"business_id"`
	OwnerID    string      `json:"owner_id" bson:"owner_id"`
	Type       AccountType `json:"type" bson:"type"`
	Currency   string      `json:"currency" bson:"currency"`
	Settled    string      `json:"settled" bson:"settled"`
	Available  string      `json:"available" bson:"available"`
	Version    int64       `json:"version" bson:"version"`
	CreatedAt  time.Time   `json:"created_at" bson:"created_at"`
	UpdatedAt  time.Time   `json:"updated_at" bson:"updated_at"`
}

// NewAccount builds a zero-balance account ready for an insert-if-absent write.
func NewAccount(businessID, accountID, ownerID, currency string, accountType AccountType) *Account {
	now := time.Now().UTC()
	return &Account{
		AccountID:  accountID,
		BusinessID: businessID,
		OwnerID:    ownerID,
		Type:       accountType,
		Currency:   currency,
		Settled:    "0.00",
		Available:  "0.00",
		Version:    0,
		CreatedAt:  now,
		UpdatedAt:  now,
	}
}

// Deterministic account id builders. Every operation derives account ids from
// business/agent identifiers so accounts can be created lazily on first use.

// TreasuryAccountID returns the business treasury account id.
func TreasuryAccountID(businessID string) string {
	return fmt.Sprintf("BUSINESS_TREASURY:%s", businessID)
}

// AgentAccountID returns the float account id for an agent of a business.
func AgentAccountID(businessID, agentID string) string {
	return fmt.Sprintf("AGENT_FLOAT:%s:%s", businessID, agentID)
}

// ClearingAccountID returns the payout clearing account id for a business.
func ClearingAccountID(businessID string) string {
	return fmt.Sprintf("CLEARING_PAYOUTS:%s", businessID)
}

// OpeningBalanceAccountID returns the opening balance account id for a business.
// This is the only account allowed to carry a negative balance.
func OpeningBalanceAccountID(businessID string) string {
	return fmt.Sprintf("OPENING_BALANCE:%s", businessID)
}
