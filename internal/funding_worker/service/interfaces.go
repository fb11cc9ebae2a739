package service

import (
	"context"

	"github.com/agentfloat-wallet-ledger/internal/domain/funding"
)

// ExecutionService defines the interface for executing funding requests.
type ExecutionService interface {
	ExecuteFunding(ctx context.Context, msg *funding.ExecutionMessage) error
}
