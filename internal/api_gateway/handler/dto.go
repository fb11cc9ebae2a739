package handler

// CreditInitialFloatRequest credits an agent float account from the treasury.
type CreditInitialFloatRequest struct {
	AgentID               string `json:"agent_id" binding:"required"`
	Amount                string `json:"amount" binding:"required"`
	IdempotencyKey        string `json:"idempotency_key" binding:"required"`
	Reference             string `json:"reference,omitempty"`
	AllowNegativeTreasury bool   `json:"allow_negative_treasury,omitempty"`
}

// InitAgentAccountRequest creates an agent float account with a zero-amount
// initial credit.
type InitAgentAccountRequest struct {
	AgentID string `json:"agent_id" binding:"required"`
}

// PlaceHoldRequest reserves funds on an agent float account.
type PlaceHoldRequest struct {
	AgentID        string `json:"agent_id" binding:"required"`
	Amount         string `json:"amount" binding:"required"`
	IdempotencyKey string `json:"idempotency_key" binding:"required"`
	Purpose        string `json:"purpose,omitempty"`
	Ref            string `json:"ref,omitempty"`
}

// CaptureHoldRequest settles an active hold.
type CaptureHoldRequest struct {
	IdempotencyKey       string            `json:"idempotency_key" binding:"required"`
	PayoutNetworkAccount string            `json:"payout_network_account,omitempty"`
	Meta                 map[string]string `json:"meta,omitempty"`
}

// ReleaseHoldRequest cancels an active hold.
type ReleaseHoldRequest struct {
	IdempotencyKey string `json:"idempotency_key" binding:"required"`
}

// RefundCaptureRequest reverses a prior capture.
type RefundCaptureRequest struct {
	OriginalTxnID  string `json:"original_txn_id" binding:"required"`
	IdempotencyKey string `json:"idempotency_key" binding:"required"`
	Reason         string `json:"reason,omitempty"`
}

// TopupTreasuryRequest credits the treasury from the opening balance account.
type TopupTreasuryRequest struct {
	Amount         string `json:"amount" binding:"required"`
	IdempotencyKey string `json:"idempotency_key" binding:"required"`
	Reference      string `json:"reference,omitempty"`
}

// SeedTreasuryRequest seeds the treasury exactly once per business.
type SeedTreasuryRequest struct {
	Amount         string `json:"amount" binding:"required"`
	SeededBy       string `json:"seeded_by" binding:"required"`
	IdempotencyKey string `json:"idempotency_key,omitempty"`
	Reference      string `json:"reference,omitempty"`
}

// CreateFundingRequestRequest creates a funding request for an agent.
type CreateFundingRequestRequest struct {
	AgentID   string `json:"agent_id" binding:"required"`
	Amount    string `json:"amount" binding:"required"`
	CreatedBy string `json:"created_by" binding:"required"`
	Note      string `json:"note,omitempty"`

	// Async defers execution to the funding worker via Kafka.
	Async bool `json:"async,omitempty"`
}

// PageParams are the cursor pagination query parameters for list endpoints.
type PageParams struct {
	Limit int    `form:"limit,default=0" binding:"min=0,max=500"`
	After string `form:"after"`
	Sort  string `form:"sort,default=desc" binding:"oneof=asc desc"`
}
