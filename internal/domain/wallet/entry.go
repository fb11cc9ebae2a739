package wallet

import "time"

// Entry is one immutable double-entry journal row: value moving from the
// debit account to the credit account. Entries are never updated or deleted;
// account balances are a derived cache of this journal.
type Entry struct {
	ID            string            `json:"id,omitempty" bson:"_id,omitempty"`
	TxnID         string            `json:"txn_id" bson:"txn_id"`
	BusinessID    string            `json:"business_id" bson:"business_id"`
	DebitAccount  string            `json:"debit_account" bson:"debit_account"`
	CreditAccount string            `json:"credit_account" bson:"credit_account"`
	Amount        string            `json:"amount" bson:"amount"`
	Currency      string            `json:"currency" bson:"currency"`
	Meta          map[string]string `json:"meta,omitempty" bson:"meta,omitempty"`
	CreatedAt     time.Time         `json:"created_at" bson:"created_at"`
}
