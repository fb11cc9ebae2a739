package api_gateway

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/agentfloat-wallet-ledger/internal/api_gateway/handler"
	"github.com/agentfloat-wallet-ledger/internal/api_gateway/middleware"
)

// setupRouter configures API routes and middleware for the application
func setupRouter(
	logger *slog.Logger,
	r *gin.Engine,
	walletHandler *handler.WalletHandler,
	queryHandler *handler.QueryHandler,
	fundingHandler *handler.FundingHandler,
) {
	r.Use(middleware.Recovery(logger))
	r.Use(middleware.Logger(logger))
	r.Use(middleware.CorrelationID())

	// API v1 endpoints, all scoped to a business
	v1 := r.Group("/api/v1")
	business := v1.Group("/businesses/:business_id")
	{
		wallet := business.Group("/wallet")
		{
			wallet.POST("/agents/:agent_id/init", walletHandler.InitAgentAccount)
			wallet.POST("/credits", walletHandler.CreditInitialFloat)
			wallet.POST("/holds", walletHandler.PlaceHold)
			wallet.POST("/holds/:hold_id/capture", walletHandler.CaptureHold)
			wallet.POST("/holds/:hold_id/release", walletHandler.ReleaseHold)
			wallet.POST("/refunds", walletHandler.RefundCapture)
			wallet.POST("/treasury/topup", walletHandler.TopupTreasury)
			wallet.POST("/treasury/seed", walletHandler.SeedTreasury)

			wallet.GET("/accounts", queryHandler.ListAccounts)
			wallet.GET("/agents/:agent_id/account", queryHandler.GetAgentAccount)
			wallet.GET("/holds", queryHandler.ListHolds)
			wallet.GET("/holds/:hold_id", queryHandler.GetHold)
			wallet.GET("/ledger", queryHandler.ListLedgerEntries)
			wallet.GET("/ledger/:txn_id", queryHandler.GetLedgerEntry)
		}

		funding := business.Group("/funding-requests")
		{
			funding.POST("", fundingHandler.Create)
			funding.GET("", fundingHandler.List)
			funding.GET("/:id", fundingHandler.GetByID)
			funding.POST("/:id/execute", fundingHandler.Execute)
		}
	}

	// Health check endpoint for monitoring
	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok", "timestamp": time.Now().UTC()})
	})
}
