package service

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/agentfloat-wallet-ledger/internal/domain/funding"
	"github.com/agentfloat-wallet-ledger/internal/domain/money"
	"github.com/agentfloat-wallet-ledger/internal/domain/wallet"
	"github.com/agentfloat-wallet-ledger/internal/keys"
)

// FundingService orchestrates funding requests: a durable, retryable record
// wrapped around one CreditInitialFloat call. The request id feeds the
// idempotency key, so any number of execution attempts of the same request
// credit the agent at most once.
type FundingService struct {
	logger   *slog.Logger
	requests funding.Repository
	wallet   *WalletService
}

// NewFundingService creates the funding orchestrator.
func NewFundingService(logger *slog.Logger, requests funding.Repository, wallet *WalletService) *FundingService {
	return &FundingService{
		logger:   logger,
		requests: requests,
		wallet:   wallet,
	}
}

// StartFundingRequestParams creates and executes a new funding request.
type StartFundingRequestParams struct {
	BusinessID string
	AgentID    string
	Amount     string
	CreatedBy  string
	Note       string
}

// CreateFundingRequest records a PENDING request and ensures the agent
// account exists, without executing the credit. Callers either execute
// synchronously via StartFundingRequest or hand the id to the funding worker.
func (s *FundingService) CreateFundingRequest(ctx context.Context, params StartFundingRequestParams) (*funding.Request, error) {
	amt, err := money.ParseNonNegative(params.Amount)
	if err != nil {
		return nil, err
	}

	now := time.Now().UTC()
	req := &funding.Request{
		BusinessID: params.BusinessID,
		AgentID:    params.AgentID,
		Amount:     money.Format(amt),
		CreatedBy:  params.CreatedBy,
		Note:       params.Note,
		Status:     funding.StatusPending,
		CreatedAt:  now,
		UpdatedAt:  now,
	}
	id, err := s.requests.Create(ctx, req)
	if err != nil {
		return nil, err
	}
	req.ID = id

	if _, err := s.wallet.CreateAgentAccountWithZeroInit(ctx, params.BusinessID, params.AgentID); err != nil {
		s.logger.Error("Failed to initialize agent account for funding request",
			"funding_request_id", id,
			"agent_id", params.AgentID,
			"error", err,
		)
		reason := err.Error()
		if markErr := s.requests.MarkFailed(ctx, id, reason, "", ""); markErr != nil {
			s.logger.Error("Failed to mark funding request failed", "funding_request_id", id, "error", markErr)
		}
		return nil, err
	}

	return req, nil
}

// StartFundingRequest records a PENDING request, ensures the agent account
// exists, then executes the credit synchronously. The request row survives
// any failure so a worker or operator can re-execute it later.
func (s *FundingService) StartFundingRequest(ctx context.Context, params StartFundingRequestParams) (*funding.Request, error) {
	req, err := s.CreateFundingRequest(ctx, params)
	if err != nil {
		return nil, err
	}
	return s.execute(ctx, req)
}

// ExecuteFundingRequestByID executes or re-executes a request by id. A
// COMPLETED request short-circuits to its recorded outcome; PENDING and
// FAILED requests execute under the same derived key, so a request that
// already credited once replays instead of double-crediting.
func (s *FundingService) ExecuteFundingRequestByID(ctx context.Context, id string) (*funding.Request, error) {
	req, err := s.requests.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	switch req.Status {
	case funding.StatusCompleted:
		return req, nil
	case funding.StatusPending, funding.StatusFailed:
		return s.execute(ctx, req)
	default:
		return nil, funding.ErrUnsupportedStatus{RequestID: id, Status: req.Status}
	}
}

func (s *FundingService) execute(ctx context.Context, req *funding.Request) (*funding.Request, error) {
	kp := keys.ForFunding(req.BusinessID, req.AgentID, req.ID, req.Amount)

	if err := s.requests.IncrementAttempts(ctx, req.ID); err != nil {
		return nil, err
	}

	res, err := s.wallet.CreditInitialFloat(ctx, CreditInitialFloatParams{
		BusinessID:     req.BusinessID,
		AgentID:        req.AgentID,
		Amount:         req.Amount,
		IdempotencyKey: kp.Idem,
		Reference:      kp.Ref,
	})
	if errors.Is(err, wallet.ErrIdempotentReplay{}) {
		// The credit committed on a prior attempt whose completion mark was
		// lost. Resolve the request without moving funds again.
		s.logger.Warn("Funding request replayed an already-committed credit",
			"funding_request_id", req.ID,
			"idempotency_key", kp.Idem,
		)
		if markErr := s.requests.MarkCompleted(ctx, req.ID, req.TxnID, kp.Idem, kp.Ref); markErr != nil {
			return nil, markErr
		}
		return s.requests.GetByID(ctx, req.ID)
	}
	if err != nil {
		s.logger.Error("Funding request execution failed",
			"funding_request_id", req.ID,
			"business_id", req.BusinessID,
			"agent_id", req.AgentID,
			"error", err,
		)
		if markErr := s.requests.MarkFailed(ctx, req.ID, err.Error(), kp.Idem, kp.Ref); markErr != nil {
			s.logger.Error("Failed to mark funding request failed", "funding_request_id", req.ID, "error", markErr)
		}
		return nil, err
	}

	if err := s.requests.MarkCompleted(ctx, req.ID, res.TxnID, kp.Idem, kp.Ref); err != nil {
		s.logger.Error("Failed to mark funding request completed", "funding_request_id", req.ID, "error", err)
		return nil, err
	}

	s.logger.Info("Funding request completed",
		"funding_request_id", req.ID,
		"business_id", req.BusinessID,
		"agent_id", req.AgentID,
		"txn_id", res.TxnID,
	)
	return s.requests.GetByID(ctx, req.ID)
}

// ListFundingRequests pages through a business's funding requests.
func (s *FundingService) ListFundingRequests(ctx context.Context, filter funding.Filter, limit int, after, sort string) ([]*funding.Request, string, error) {
	if limit <= 0 {
		limit = defaultHoldsLimit
	}
	return s.requests.List(ctx, filter, limit, after, sort)
}

// GetFundingRequest returns one funding request scoped to the calling business.
func (s *FundingService) GetFundingRequest(ctx context.Context, businessID, id string) (*funding.Request, error) {
	req, err := s.requests.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if req.BusinessID != businessID {
		return nil, funding.ErrRequestNotFound{RequestID: id}
	}
	return req, nil
}
