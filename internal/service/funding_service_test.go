package service

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/agentfloat-wallet-ledger/internal/domain/funding"
	"github.com/agentfloat-wallet-ledger/internal/domain/wallet"
)

func TestStartFundingRequest_Success(t *testing.T) {
	db := newMemDB()
	svc := newTestFundingService(db)
	seedTreasury(t, newTestWalletService(db), "500.00")

	req, err := svc.StartFundingRequest(context.Background(), StartFundingRequestParams{
		BusinessID: testBusiness,
		AgentID:    testAgent,
		Amount:     "100.00",
		CreatedBy:  "ops@example.com",
		Note:       "weekly float",
	})
	require.NoError(t, err)

	assert.Equal(t, funding.StatusCompleted, req.Status)
	assert.Equal(t, 1, req.Attempts)
	assert.NotEmpty(t, req.TxnID)
	assert.NotEmpty(t, req.IdempotencyKey)

	settled, _ := accountBalances(t, db, wallet.AgentAccountID(testBusiness, testAgent))
	assert.Equal(t, "100.00", settled)
}

func TestStartFundingRequest_FailureRecordedAndRetryable(t *testing.T) {
	db := newMemDB()
	svc := newTestFundingService(db)
	walletSvc := newTestWalletService(db)
	seedTreasury(t, walletSvc, "50.00")

	req, err := svc.StartFundingRequest(context.Background(), StartFundingRequestParams{
		BusinessID: testBusiness,
		AgentID:    testAgent,
		Amount:     "100.00",
		CreatedBy:  "ops@example.com",
	})
	require.Error(t, err)
	assert.True(t, errors.Is(err, wallet.ErrInsufficientFunds{}))
	require.Nil(t, req)

	// The request row survives with the failure recorded
	var failedID string
	for id, r := range db.requests {
		failedID = id
		assert.Equal(t, funding.StatusFailed, r.Status)
		assert.NotEmpty(t, r.Error)
	}
	require.NotEmpty(t, failedID)

	// Top up and re-execute the same request
	_, err = walletSvc.TopupTreasuryOpeningBalance(context.Background(), TopupTreasuryParams{
		BusinessID:     testBusiness,
		Amount:         "200.00",
		IdempotencyKey: "topup-1",
	})
	require.NoError(t, err)

	executed, err := svc.ExecuteFundingRequestByID(context.Background(), failedID)
	require.NoError(t, err)
	assert.Equal(t, funding.StatusCompleted, executed.Status)
	assert.Equal(t, 2, executed.Attempts)

	settled, _ := accountBalances(t, db, wallet.AgentAccountID(testBusiness, testAgent))
	assert.Equal(t, "100.00", settled)
}

func TestExecuteFundingRequestByID_CompletedShortCircuits(t *testing.T) {
	db := newMemDB()
	svc := newTestFundingService(db)
	seedTreasury(t, newTestWalletService(db), "500.00")

	req, err := svc.StartFundingRequest(context.Background(), StartFundingRequestParams{
		BusinessID: testBusiness,
		AgentID:    testAgent,
		Amount:     "100.00",
		CreatedBy:  "ops@example.com",
	})
	require.NoError(t, err)

	again, err := svc.ExecuteFundingRequestByID(context.Background(), req.ID)
	require.NoError(t, err)
	assert.Equal(t, funding.StatusCompleted, again.Status)
	assert.Equal(t, req.TxnID, again.TxnID)
	assert.Equal(t, req.Attempts, again.Attempts)

	// No second credit happened
	settled, _ := accountBalances(t, db, wallet.AgentAccountID(testBusiness, testAgent))
	assert.Equal(t, "100.00", settled)
}

func TestExecuteFundingRequestByID_ReplayResolvesAsCompleted(t *testing.T) {
	db := newMemDB()
	svc := newTestFundingService(db)
	seedTreasury(t, newTestWalletService(db), "500.00")

	req, err := svc.StartFundingRequest(context.Background(), StartFundingRequestParams{
		BusinessID: testBusiness,
		AgentID:    testAgent,
		Amount:     "100.00",
		CreatedBy:  "ops@example.com",
	})
	require.NoError(t, err)

	// Simulate a lost completion mark: credit committed but status says FAILED
	db.mu.Lock()
	db.requests[req.ID].Status = funding.StatusFailed
	db.mu.Unlock()

	executed, err := svc.ExecuteFundingRequestByID(context.Background(), req.ID)
	require.NoError(t, err)
	assert.Equal(t, funding.StatusCompleted, executed.Status)

	// Still exactly one credit
	settled, _ := accountBalances(t, db, wallet.AgentAccountID(testBusiness, testAgent))
	assert.Equal(t, "100.00", settled)
}

func TestExecuteFundingRequestByID_NotFound(t *testing.T) {
	db := newMemDB()
	svc := newTestFundingService(db)

	_, err := svc.ExecuteFundingRequestByID(context.Background(), "missing")
	assert.True(t, errors.Is(err, funding.ErrRequestNotFound{}))
}

func TestStartFundingRequest_InvalidAmount(t *testing.T) {
	db := newMemDB()
	svc := newTestFundingService(db)

	_, err := svc.StartFundingRequest(context.Background(), StartFundingRequestParams{
		BusinessID: testBusiness,
		AgentID:    testAgent,
		Amount:     "-5.00",
		CreatedBy:  "ops@example.com",
	})
	require.Error(t, err)
	assert.Empty(t, db.requests)
}
