package handler

import (
	"log/slog"

	"github.com/gin-gonic/gin"

	"github.com/agentfloat-wallet-ledger/internal/api_gateway/middleware"
	"github.com/agentfloat-wallet-ledger/internal/domain/funding"
	"github.com/agentfloat-wallet-ledger/internal/platform/messaging/producers"
	"github.com/agentfloat-wallet-ledger/internal/service"
)

// FundingHandler handles HTTP requests for funding request operations
type FundingHandler struct {
	fundingService *service.FundingService
	producer       producers.MessagePublisher // funding execution topic, optional
	logger         *slog.Logger
}

// NewFundingHandler creates a new funding handler. The producer may be nil,
// in which case async execution falls back to synchronous.
func NewFundingHandler(logger *slog.Logger, fundingService *service.FundingService, producer producers.MessagePublisher) *FundingHandler {
	return &FundingHandler{
		fundingService: fundingService,
		producer:       producer,
		logger:         logger,
	}
}

// Create records a funding request and executes it, either inline or via the
// funding worker when async is requested
func (h *FundingHandler) Create(c *gin.Context) {
	businessID := c.Param("business_id")

	var req CreateFundingRequestRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.logger.Error("Invalid request body", "error", err)
		RespondBadRequest(c, "Invalid request body: "+err.Error())
		return
	}

	params := service.StartFundingRequestParams{
		BusinessID: businessID,
		AgentID:    req.AgentID,
		Amount:     req.Amount,
		CreatedBy:  req.CreatedBy,
		Note:       req.Note,
	}

	if req.Async && h.producer != nil {
		created, err := h.fundingService.CreateFundingRequest(c.Request.Context(), params)
		if err != nil {
			h.logger.Error("Failed to create funding request", "business_id", businessID, "agent_id", req.AgentID, "error", err)
			respondWalletError(c, err)
			return
		}

		msg := funding.ExecutionMessage{
			FundingRequestID: created.ID,
			CorrelationID:    middleware.GetCorrelationID(c),
		}
		if err := h.producer.Publish(c.Request.Context(), created.ID, msg); err != nil {
			// The request row exists; execution can still be triggered later.
			h.logger.Error("Failed to publish funding execution message", "funding_request_id", created.ID, "error", err)
			RespondInternalError(c)
			return
		}

		RespondAccepted(c, created)
		return
	}

	executed, err := h.fundingService.StartFundingRequest(c.Request.Context(), params)
	if err != nil {
		h.logger.Error("Failed to execute funding request", "business_id", businessID, "agent_id", req.AgentID, "error", err)
		respondWalletError(c, err)
		return
	}

	RespondCreated(c, executed)
}

// Execute re-executes a funding request by id
func (h *FundingHandler) Execute(c *gin.Context) {
	businessID := c.Param("business_id")
	id := c.Param("id")

	// Ownership check before execution
	if _, err := h.fundingService.GetFundingRequest(c.Request.Context(), businessID, id); err != nil {
		respondWalletError(c, err)
		return
	}

	executed, err := h.fundingService.ExecuteFundingRequestByID(c.Request.Context(), id)
	if err != nil {
		h.logger.Error("Failed to execute funding request", "funding_request_id", id, "error", err)
		respondWalletError(c, err)
		return
	}

	RespondOK(c, executed)
}

// GetByID retrieves a funding request
func (h *FundingHandler) GetByID(c *gin.Context) {
	businessID := c.Param("business_id")
	id := c.Param("id")

	req, err := h.fundingService.GetFundingRequest(c.Request.Context(), businessID, id)
	if err != nil {
		respondWalletError(c, err)
		return
	}

	RespondOK(c, req)
}

// List retrieves funding requests for a business with cursor pagination
func (h *FundingHandler) List(c *gin.Context) {
	businessID := c.Param("business_id")

	var page PageParams
	if err := c.ShouldBindQuery(&page); err != nil {
		h.logger.Error("Invalid pagination parameters", "error", err)
		RespondBadRequest(c, "Invalid pagination parameters")
		return
	}

	filter := funding.Filter{
		BusinessID: businessID,
		AgentID:    c.Query("agent_id"),
		Status:     funding.Status(c.Query("status")),
	}

	requests, next, err := h.fundingService.ListFundingRequests(c.Request.Context(), filter, page.Limit, page.After, page.Sort)
	if err != nil {
		h.logger.Error("Failed to list funding requests", "business_id", businessID, "error", err)
		respondWalletError(c, err)
		return
	}

	RespondWithPage(c, requests, page.Limit, next)
}
