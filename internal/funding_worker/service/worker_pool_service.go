package service

import (
	"context"
	"log/slog"
	"sync"

	"github.com/panjf2000/ants/v2"

	"github.com/agentfloat-wallet-ledger/internal/domain/funding"
)

// WorkerPoolExecutionService implements the ExecutionService interface
type WorkerPoolExecutionService struct {
	baseService ExecutionService
	pool        *ants.Pool
	logger      *slog.Logger
	// Use a mutex to protect access to the results map
	mu      sync.Mutex
	results map[string]chan error
}

type WorkerPoolConfig struct {
	Size int
}

func NewWorkerPoolExecutionService(
	baseService ExecutionService,
	config WorkerPoolConfig,
	logger *slog.Logger,
) (*WorkerPoolExecutionService, error) {
	// Create a new worker pool with the specified size
	pool, err := ants.NewPool(config.Size)
	if err != nil {
		return nil, err
	}

	return &WorkerPoolExecutionService{
		baseService: baseService,
		pool:        pool,
		logger:      logger,
		results:     make(map[string]chan error),
	}, nil
}

// ExecuteFunding submits a funding execution to the worker pool.
func (s *WorkerPoolExecutionService) ExecuteFunding(ctx context.Context, msg *funding.ExecutionMessage) error {
	logger := s.logger
	if msg.CorrelationID != "" {
		logger = s.logger.With("correlation_id", msg.CorrelationID)
	}

	logger.Info("Submitting funding execution to worker pool",
		"funding_request_id", msg.FundingRequestID,
	)

	// Create a channel to receive the result of the execution
	resultChan := make(chan error, 1)

	requestID := msg.FundingRequestID
	s.mu.Lock()
	s.results[requestID] = resultChan
	s.mu.Unlock()

	// Create a copy of the message to avoid data races
	msgCopy := *msg

	// Submit the task to the worker pool
	err := s.pool.Submit(func() {
		err := s.baseService.ExecuteFunding(ctx, &msgCopy)

		resultChan <- err

		s.mu.Lock()
		delete(s.results, requestID)
		close(resultChan)
		s.mu.Unlock()
	})

	if err != nil {
		// If we couldn't submit the task to the pool, remove the result channel
		s.mu.Lock()
		delete(s.results, requestID)
		close(resultChan)
		s.mu.Unlock()

		logger.Error("Failed to submit funding execution to worker pool",
			"funding_request_id", msg.FundingRequestID,
			"error", err,
		)
		return err
	}

	// Wait for the result from the worker
	return <-resultChan
}

// Shutdown gracefully shuts down the worker pool.
func (s *WorkerPoolExecutionService) Shutdown() {
	s.logger.Info("Shutting down worker pool", "running_workers", s.pool.Running())
	s.pool.Release()
}

// Running returns the number of running workers in the pool.
func (s *WorkerPoolExecutionService) Running() int {
	return s.pool.Running()
}

// Capacity returns the capacity of the worker pool.
func (s *WorkerPoolExecutionService) Capacity() int {
	return s.pool.Cap()
}
