package handler

import (
	"log/slog"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/agentfloat-wallet-ledger/internal/domain/wallet"
	"github.com/agentfloat-wallet-ledger/internal/service"
)

// QueryHandler handles read-only HTTP requests over accounts, holds, and the
// journal
type QueryHandler struct {
	queries *service.WalletQueries
	logger  *slog.Logger
}

// NewQueryHandler creates a new query handler
func NewQueryHandler(logger *slog.Logger, queries *service.WalletQueries) *QueryHandler {
	return &QueryHandler{
		queries: queries,
		logger:  logger,
	}
}

func bindPage(c *gin.Context) (wallet.PageRequest, bool) {
	var page PageParams
	if err := c.ShouldBindQuery(&page); err != nil {
		RespondBadRequest(c, "Invalid pagination parameters")
		return wallet.PageRequest{}, false
	}
	return wallet.PageRequest{
		Limit: page.Limit,
		After: page.After,
		Sort:  wallet.SortDirection(page.Sort),
	}, true
}

// parseTimeRange reads optional RFC 3339 "from"/"to" query parameters.
func parseTimeRange(c *gin.Context) (from, to *time.Time, ok bool) {
	for _, q := range []struct {
		name string
		dst  **time.Time
	}{
		{"from", &from},
		{"to", &to},
	} {
		raw := c.Query(q.name)
		if raw == "" {
			continue
		}
		t, err := time.Parse(time.RFC3339, raw)
		if err != nil {
			RespondBadRequest(c, "Invalid "+q.name+" timestamp, expected RFC 3339")
			return nil, nil, false
		}
		*q.dst = &t
	}
	return from, to, true
}

// ListAccounts lists a business's accounts
func (h *QueryHandler) ListAccounts(c *gin.Context) {
	businessID := c.Param("business_id")

	page, ok := bindPage(c)
	if !ok {
		return
	}

	filter := wallet.AccountFilter{
		BusinessID: businessID,
		OwnerID:    c.Query("owner_id"),
		Type:       wallet.AccountType(c.Query("type")),
	}

	accounts, next, err := h.queries.ListAccounts(c.Request.Context(), filter, page)
	if err != nil {
		h.logger.Error("Failed to list accounts", "business_id", businessID, "error", err)
		respondWalletError(c, err)
		return
	}

	RespondWithPage(c, accounts, page.Limit, next)
}

// GetAgentAccount returns the float account of one agent
func (h *QueryHandler) GetAgentAccount(c *gin.Context) {
	businessID := c.Param("business_id")
	agentID := c.Param("agent_id")

	account, err := h.queries.GetAgentAccount(c.Request.Context(), businessID, agentID)
	if err != nil {
		respondWalletError(c, err)
		return
	}

	RespondOK(c, account)
}

// ListHolds lists holds with optional agent, status, and time range filters
func (h *QueryHandler) ListHolds(c *gin.Context) {
	businessID := c.Param("business_id")

	page, ok := bindPage(c)
	if !ok {
		return
	}
	from, to, ok := parseTimeRange(c)
	if !ok {
		return
	}

	filter := wallet.HoldFilter{
		BusinessID: businessID,
		AgentID:    c.Query("agent_id"),
		AccountID:  c.Query("account_id"),
		From:       from,
		To:         to,
	}
	for _, s := range c.QueryArray("status") {
		filter.Statuses = append(filter.Statuses, wallet.HoldStatus(s))
	}

	holds, next, err := h.queries.ListHolds(c.Request.Context(), filter, page)
	if err != nil {
		h.logger.Error("Failed to list holds", "business_id", businessID, "error", err)
		respondWalletError(c, err)
		return
	}

	RespondWithPage(c, holds, page.Limit, next)
}

// GetHold returns one hold
func (h *QueryHandler) GetHold(c *gin.Context) {
	businessID := c.Param("business_id")
	holdID := c.Param("hold_id")

	hold, err := h.queries.GetHoldByID(c.Request.Context(), businessID, holdID)
	if err != nil {
		respondWalletError(c, err)
		return
	}

	RespondOK(c, hold)
}

// ListLedgerEntries lists journal entries. A txn_id query parameter is a
// point lookup overriding all other filters
func (h *QueryHandler) ListLedgerEntries(c *gin.Context) {
	businessID := c.Param("business_id")

	page, ok := bindPage(c)
	if !ok {
		return
	}
	from, to, ok := parseTimeRange(c)
	if !ok {
		return
	}

	filter := wallet.EntryFilter{
		AccountID: c.Query("account_id"),
		Role:      wallet.EntryRole(c.Query("role")),
		From:      from,
		To:        to,
	}

	entries, next, err := h.queries.ListLedgerEntries(c.Request.Context(), businessID, c.Query("txn_id"), filter, page)
	if err != nil {
		h.logger.Error("Failed to list ledger entries", "business_id", businessID, "error", err)
		respondWalletError(c, err)
		return
	}

	RespondWithPage(c, entries, page.Limit, next)
}

// GetLedgerEntry returns one journal entry by txn id
func (h *QueryHandler) GetLedgerEntry(c *gin.Context) {
	businessID := c.Param("business_id")
	txnID := c.Param("txn_id")

	entry, err := h.queries.GetLedgerByTxnID(c.Request.Context(), businessID, txnID)
	if err != nil {
		respondWalletError(c, err)
		return
	}

	RespondOK(c, entry)
}
