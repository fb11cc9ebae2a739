package handler

import (
	"errors"
	"log/slog"

	"github.com/gin-gonic/gin"

	"github.com/agentfloat-wallet-ledger/internal/domain/wallet"
	"github.com/agentfloat-wallet-ledger/internal/service"
)

// WalletHandler handles HTTP requests for wallet ledger operations
type WalletHandler struct {
	walletService *service.WalletService
	logger        *slog.Logger
}

// NewWalletHandler creates a new wallet handler
func NewWalletHandler(logger *slog.Logger, walletService *service.WalletService) *WalletHandler {
	return &WalletHandler{
		walletService: walletService,
		logger:        logger,
	}
}

// respondReplay turns an idempotent replay into a success-shaped response.
// The caller's original request already committed; repeating it is not a
// client error.
func respondReplay(c *gin.Context, err error) bool {
	var replay wallet.ErrIdempotentReplay
	if errors.As(err, &replay) {
		RespondOK(c, gin.H{
			"replayed":        true,
			"idempotency_key": replay.Key,
		})
		return true
	}
	return false
}

// CreditInitialFloat moves funds from the business treasury to an agent float account
func (h *WalletHandler) CreditInitialFloat(c *gin.Context) {
	businessID := c.Param("business_id")

	var req CreditInitialFloatRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.logger.Error("Invalid request body", "error", err)
		RespondBadRequest(c, "Invalid request body: "+err.Error())
		return
	}

	res, err := h.walletService.CreditInitialFloat(c.Request.Context(), service.CreditInitialFloatParams{
		BusinessID:            businessID,
		AgentID:               req.AgentID,
		Amount:                req.Amount,
		IdempotencyKey:        req.IdempotencyKey,
		Reference:             req.Reference,
		AllowNegativeTreasury: req.AllowNegativeTreasury,
	})
	if err != nil {
		if respondReplay(c, err) {
			return
		}
		h.logger.Error("Failed to credit initial float", "business_id", businessID, "agent_id", req.AgentID, "error", err)
		respondWalletError(c, err)
		return
	}

	RespondCreated(c, res)
}

// InitAgentAccount creates an agent float account with a zero-amount initial credit
func (h *WalletHandler) InitAgentAccount(c *gin.Context) {
	businessID := c.Param("business_id")

	var req InitAgentAccountRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.logger.Error("Invalid request body", "error", err)
		RespondBadRequest(c, "Invalid request body: "+err.Error())
		return
	}

	res, err := h.walletService.CreateAgentAccountWithZeroInit(c.Request.Context(), businessID, req.AgentID)
	if err != nil {
		h.logger.Error("Failed to init agent account", "business_id", businessID, "agent_id", req.AgentID, "error", err)
		respondWalletError(c, err)
		return
	}

	if res.AlreadyInitialized {
		RespondOK(c, res)
		return
	}
	RespondCreated(c, res)
}

// PlaceHold reserves funds against an agent's available balance
func (h *WalletHandler) PlaceHold(c *gin.Context) {
	businessID := c.Param("business_id")

	var req PlaceHoldRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.logger.Error("Invalid request body", "error", err)
		RespondBadRequest(c, "Invalid request body: "+err.Error())
		return
	}

	res, err := h.walletService.PlaceHold(c.Request.Context(), service.PlaceHoldParams{
		BusinessID:     businessID,
		AgentID:        req.AgentID,
		Amount:         req.Amount,
		IdempotencyKey: req.IdempotencyKey,
		Purpose:        req.Purpose,
		Ref:            req.Ref,
	})
	if err != nil {
		if respondReplay(c, err) {
			return
		}
		h.logger.Error("Failed to place hold", "business_id", businessID, "agent_id", req.AgentID, "error", err)
		respondWalletError(c, err)
		return
	}

	RespondCreated(c, res)
}

// CaptureHold settles an active hold
func (h *WalletHandler) CaptureHold(c *gin.Context) {
	businessID := c.Param("business_id")
	holdID := c.Param("hold_id")

	var req CaptureHoldRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.logger.Error("Invalid request body", "error", err)
		RespondBadRequest(c, "Invalid request body: "+err.Error())
		return
	}

	res, err := h.walletService.CaptureHold(c.Request.Context(), service.CaptureHoldParams{
		BusinessID:           businessID,
		HoldID:               holdID,
		IdempotencyKey:       req.IdempotencyKey,
		PayoutNetworkAccount: req.PayoutNetworkAccount,
		Meta:                 req.Meta,
	})
	if err != nil {
		if respondReplay(c, err) {
			return
		}
		h.logger.Error("Failed to capture hold", "business_id", businessID, "hold_id", holdID, "error", err)
		respondWalletError(c, err)
		return
	}

	RespondOK(c, res)
}

// ReleaseHold cancels an active hold
func (h *WalletHandler) ReleaseHold(c *gin.Context) {
	businessID := c.Param("business_id")
	holdID := c.Param("hold_id")

	var req ReleaseHoldRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.logger.Error("Invalid request body", "error", err)
		RespondBadRequest(c, "Invalid request body: "+err.Error())
		return
	}

	res, err := h.walletService.ReleaseHold(c.Request.Context(), service.ReleaseHoldParams{
		BusinessID:     businessID,
		HoldID:         holdID,
		IdempotencyKey: req.IdempotencyKey,
	})
	if err != nil {
		if respondReplay(c, err) {
			return
		}
		h.logger.Error("Failed to release hold", "business_id", businessID, "hold_id", holdID, "error", err)
		respondWalletError(c, err)
		return
	}

	RespondOK(c, res)
}

// RefundCapture reverses a prior capture
func (h *WalletHandler) RefundCapture(c *gin.Context) {
	businessID := c.Param("business_id")

	var req RefundCaptureRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.logger.Error("Invalid request body", "error", err)
		RespondBadRequest(c, "Invalid request body: "+err.Error())
		return
	}

	res, err := h.walletService.RefundCapture(c.Request.Context(), service.RefundCaptureParams{
		BusinessID:     businessID,
		OriginalTxnID:  req.OriginalTxnID,
		IdempotencyKey: req.IdempotencyKey,
		Reason:         req.Reason,
	})
	if err != nil {
		if respondReplay(c, err) {
			return
		}
		h.logger.Error("Failed to refund capture", "business_id", businessID, "original_txn_id", req.OriginalTxnID, "error", err)
		respondWalletError(c, err)
		return
	}

	RespondCreated(c, res)
}

// TopupTreasury credits the treasury from the opening balance account
func (h *WalletHandler) TopupTreasury(c *gin.Context) {
	businessID := c.Param("business_id")

	var req TopupTreasuryRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.logger.Error("Invalid request body", "error", err)
		RespondBadRequest(c, "Invalid request body: "+err.Error())
		return
	}

	res, err := h.walletService.TopupTreasuryOpeningBalance(c.Request.Context(), service.TopupTreasuryParams{
		BusinessID:     businessID,
		Amount:         req.Amount,
		IdempotencyKey: req.IdempotencyKey,
		Reference:      req.Reference,
	})
	if err != nil {
		if respondReplay(c, err) {
			return
		}
		h.logger.Error("Failed to top up treasury", "business_id", businessID, "error", err)
		respondWalletError(c, err)
		return
	}

	RespondCreated(c, res)
}

// SeedTreasury seeds the treasury exactly once per business
func (h *WalletHandler) SeedTreasury(c *gin.Context) {
	businessID := c.Param("business_id")

	var req SeedTreasuryRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.logger.Error("Invalid request body", "error", err)
		RespondBadRequest(c, "Invalid request body: "+err.Error())
		return
	}

	res, err := h.walletService.SeedTreasuryOnceOpeningBalance(c.Request.Context(), service.SeedTreasuryParams{
		BusinessID:     businessID,
		Amount:         req.Amount,
		SeededBy:       req.SeededBy,
		IdempotencyKey: req.IdempotencyKey,
		Reference:      req.Reference,
	})
	if err != nil {
		if respondReplay(c, err) {
			return
		}
		h.logger.Error("Failed to seed treasury", "business_id", businessID, "error", err)
		respondWalletError(c, err)
		return
	}

	if res.AlreadySeeded {
		RespondOK(c, res)
		return
	}
	RespondCreated(c, res)
}
