package wallet

import "time"

// State is the per-business wallet state row. Its only job today is to make
// the one-time treasury seed happen at most once per business, no matter how
// many times (or how concurrently) seeding is attempted.
type State struct {
	ID         string    `json:"id,omitempty" bson:"_id,omitempty"`
	BusinessID string    `json:"business_id" bson:"business_id"`
	Seeded     bool      `json:"seeded" bson:"seeded"`
	SeedTxnID  string    `json:"seed_txn_id,omitempty" bson:"seed_txn_id,omitempty"`
	SeededAt   time.Time `json:"seeded_at,omitempty" bson:"seeded_at,omitempty"`
	SeededBy   string    `json:"seeded_by,omitempty" bson:"seeded_by,omitempty"`
	CreatedAt  time.Time `json:"created_at" bson:"created_at"`
	UpdatedAt  time.Time `json:"updated_at" bson:"updated_at"`
}

// IdempotencyRecord is a write-once guard row. Inserting a duplicate key
// fails on the unique index, which callers surface as ErrIdempotentReplay.
// Rows expire via a TTL index on CreatedAt.
type IdempotencyRecord struct {
	Key       string            `json:"key" bson:"key"`
	Meta      map[string]string `json:"meta,omitempty" bson:"meta,omitempty"`
	CreatedAt time.Time         `json:"created_at" bson:"created_at"`
}
