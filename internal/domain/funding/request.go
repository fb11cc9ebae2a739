// Package funding holds the funding-request domain model: a retryable record
// driving an agent float credit through the wallet service.
package funding

import (
	"context"
	"time"
)

// Status tracks a funding request through its lifecycle.
// PENDING -> COMPLETED on success, PENDING -> FAILED on error; FAILED
// requests may be re-executed and still end COMPLETED.
type Status string

const (
	StatusPending   Status = "PENDING"
	StatusCompleted Status = "COMPLETED"
	StatusFailed    Status = "FAILED"
)

// Request is one funding request. Its id doubles as the natural key for the
// derived idempotency key, so every retry of the same request replays the
// same wallet operation instead of double-crediting.
type Request struct {
	ID             string    `json:"id,omitempty" bson:"_id,omitempty"`
	BusinessID     string    `json:"business_id" bson:"business_id"`
	AgentID        string    `json:"agent_id" bson:"agent_id"`
	Amount         string    `json:"amount" bson:"amount"`
	CreatedBy      string    `json:"created_by" bson:"created_by"`
	Note           string    `json:"note,omitempty" bson:"note,omitempty"`
	Status         Status    `json:"status" bson:"status"`
	Attempts       int       `json:"attempts" bson:"attempts"`
	IdempotencyKey string    `json:"idempotency_key,omitempty" bson:"idempotency_key,omitempty"`
	Reference      string    `json:"reference,omitempty" bson:"reference,omitempty"`
	TxnID          string    `json:"txn_id,omitempty" bson:"txn_id,omitempty"`
	Error          string    `json:"error,omitempty" bson:"error,omitempty"`
	CreatedAt      time.Time `json:"created_at" bson:"created_at"`
	UpdatedAt      time.Time `json:"updated_at" bson:"updated_at"`
}

// Repository persists funding requests.
type Repository interface {
	Create(ctx context.Context, req *Request) (string, error)
	GetByID(ctx context.Context, id string) (*Request, error)

	// IncrementAttempts bumps the attempt counter and resets status to
	// PENDING ahead of an execution attempt.
	IncrementAttempts(ctx context.Context, id string) error

	// MarkCompleted records the successful outcome.
	MarkCompleted(ctx context.Context, id, txnID, idempotencyKey, reference string) error

	// MarkFailed records the last error for operator visibility.
	MarkFailed(ctx context.Context, id, reason, idempotencyKey, reference string) error

	List(ctx context.Context, filter Filter, limit int, after string, sort string) ([]*Request, string, error)
}

// Filter narrows funding request listings.
type Filter struct {
	BusinessID string
	AgentID    string
	Status     Status
}

// ErrRequestNotFound indicates a funding request id has no record.
type ErrRequestNotFound struct {
	RequestID string
}

func (e ErrRequestNotFound) Error() string {
	return "funding request not found: " + e.RequestID
}

// Is implements the errors.Is interface for ErrRequestNotFound
func (e ErrRequestNotFound) Is(target error) bool {
	t, ok := target.(ErrRequestNotFound)
	if !ok {
		return false
	}
	return t.RequestID == "" || t.RequestID == e.RequestID
}

// ErrUnsupportedStatus indicates an execution attempt on a request whose
// status permits neither execution nor short-circuit.
type ErrUnsupportedStatus struct {
	RequestID string
	Status    Status
}

func (e ErrUnsupportedStatus) Error() string {
	return "funding request " + e.RequestID + " has unsupported status " + string(e.Status)
}

// Is implements the errors.Is interface for ErrUnsupportedStatus
func (e ErrUnsupportedStatus) Is(target error) bool {
	_, ok := target.(ErrUnsupportedStatus)
	return ok
}
