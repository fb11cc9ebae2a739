package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/agentfloat-wallet-ledger/internal/domain/funding"
	"github.com/agentfloat-wallet-ledger/internal/domain/wallet"
	walletsvc "github.com/agentfloat-wallet-ledger/internal/service"
)

// ExecutionServiceImpl executes funding requests pulled off the funding
// topic. The heavy lifting lives in the funding orchestrator; this layer
// decides which failures are worth a redelivery.
type ExecutionServiceImpl struct {
	fundingService *walletsvc.FundingService
	logger         *slog.Logger
}

// NewExecutionService creates the worker-side execution service.
func NewExecutionService(logger *slog.Logger, fundingService *walletsvc.FundingService) ExecutionService {
	return &ExecutionServiceImpl{
		fundingService: fundingService,
		logger:         logger,
	}
}

// ExecuteFunding executes one funding request by id. Unknown request ids and
// terminal statuses are swallowed so the message commits; transient failures
// propagate so Kafka redelivers.
func (s *ExecutionServiceImpl) ExecuteFunding(ctx context.Context, msg *funding.ExecutionMessage) error {
	logger := s.logger
	if msg.CorrelationID != "" {
		logger = s.logger.With("correlation_id", msg.CorrelationID)
	}

	logger.Info("Executing funding request", "funding_request_id", msg.FundingRequestID)

	req, err := s.fundingService.ExecuteFundingRequestByID(ctx, msg.FundingRequestID)
	if err != nil {
		if errors.Is(err, funding.ErrRequestNotFound{}) {
			logger.Warn("Funding request no longer exists, dropping message",
				"funding_request_id", msg.FundingRequestID,
			)
			return nil
		}
		if errors.Is(err, funding.ErrUnsupportedStatus{}) {
			logger.Warn("Funding request is not executable, dropping message",
				"funding_request_id", msg.FundingRequestID,
				"error", err,
			)
			return nil
		}
		if errors.Is(err, wallet.ErrInsufficientFunds{}) {
			// Recorded as FAILED on the request; redelivery cannot help until
			// the treasury is topped up and the request re-published.
			logger.Warn("Funding request failed on insufficient treasury funds",
				"funding_request_id", msg.FundingRequestID,
				"error", err,
			)
			return nil
		}
		return fmt.Errorf("executing funding request %s failed: %w", msg.FundingRequestID, err)
	}

	logger.Info("Funding request executed",
		"funding_request_id", req.ID,
		"status", req.Status,
		"txn_id", req.TxnID,
		"attempts", req.Attempts,
	)
	return nil
}
