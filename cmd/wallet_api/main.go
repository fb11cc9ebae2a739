package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/agentfloat-wallet-ledger/internal/api_gateway"
	"github.com/agentfloat-wallet-ledger/internal/config"
	datamongo "github.com/agentfloat-wallet-ledger/internal/data/mongo"
	"github.com/agentfloat-wallet-ledger/internal/logger"
	"github.com/agentfloat-wallet-ledger/internal/platform/messaging/producers"
	"github.com/agentfloat-wallet-ledger/internal/platform/persistence"
	"github.com/agentfloat-wallet-ledger/internal/service"
)

func main() {
	// Create base context with cancellation
	appCtx, cancelAppCtx := context.WithCancel(context.Background())
	defer cancelAppCtx()

	// Initialize configuration
	cfg, err := config.LoadConfig("wallet_api")
	if err != nil {
		// logger is not initialized yet, so we use fmt
		fmt.Printf("Failed to load configuration: %v\n", err)
		os.Exit(1)
	}

	// Initialize logger
	log := logger.NewLogger(cfg)

	// Initialize MongoDB with app context
	mongoDB, err := persistence.NewMongoDB(appCtx, log, &cfg.MongoDB)
	if err != nil {
		log.Error("Failed to initialize MongoDB", "error", err)
		os.Exit(1)
	}

	// Ensure collection indexes before serving traffic
	if err := persistence.EnsureIndexes(appCtx, mongoDB.Database(), cfg.Wallet.IdempotencyTTL); err != nil {
		log.Error("Failed to ensure MongoDB indexes", "error", err)
		os.Exit(1)
	}

	// Initialize Kafka producers
	fundingProducer, err := producers.NewFundingExecutionProducer(appCtx, log, &cfg.Kafka)
	if err != nil {
		log.Error("Failed to initialize funding execution Kafka producer", "error", err)
		os.Exit(1)
	}

	eventsProducer, err := producers.NewWalletEventsProducer(appCtx, log, &cfg.Kafka)
	if err != nil {
		log.Error("Failed to initialize wallet events Kafka producer", "error", err)
		os.Exit(1)
	}

	// Initialize stores
	db := mongoDB.Database()
	accountStore := datamongo.NewAccountStore(log, db)
	ledgerStore := datamongo.NewLedgerStore(log, db)
	holdStore := datamongo.NewHoldStore(log, db)
	idempotencyStore := datamongo.NewIdempotencyStore(log, db)
	stateStore := datamongo.NewStateStore(log, db)
	fundingStore := datamongo.NewFundingStore(log, db)
	txRunner := datamongo.NewSessionRunner(log, mongoDB.Client())

	// Initialize services
	walletService := service.NewWalletService(
		log,
		txRunner,
		accountStore,
		ledgerStore,
		holdStore,
		idempotencyStore,
		stateStore,
		eventsProducer,
		cfg.Wallet.DefaultCurrency,
	)
	walletQueries := service.NewWalletQueries(accountStore, ledgerStore, holdStore)
	fundingService := service.NewFundingService(log, fundingStore, walletService)

	// Initialize REST server
	server := api_gateway.NewServer(log, cfg, walletService, walletQueries, fundingService, fundingProducer)
	log.Info("REST server initialized")

	// Create error channel for server errors
	errChan := make(chan error, 1)

	// Start server in goroutine
	go func() {
		log.Info("Starting HTTP server", "port", cfg.Server.Port)
		if err := server.Start(); err != nil {
			errChan <- fmt.Errorf("HTTP server error: %w", err)
		}
	}()

	// Set up signal handling
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM, syscall.SIGQUIT)

	// Wait for a shutdown signal or error
	var serverErr error
	select {
	case <-quit:
		log.Info("Shutdown signal received")
	case err := <-errChan:
		log.Error("Server error occurred", "error", err)
		serverErr = err
	}

	// Cancel the application context
	cancelAppCtx()

	// Create a shutdown context with timeout
	shutdownCtx, cancelShutdown := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancelShutdown()

	// Graceful shutdown sequence
	log.Info("Starting graceful shutdown...")

	// Shutdown HTTP server
	if err = server.Stop(shutdownCtx); err != nil {
		log.Error("Error during server shutdown", "error", err)
	}

	if err = fundingProducer.Close(); err != nil {
		log.Error("Error closing funding execution Kafka producer", "error", err)
	}

	if err = eventsProducer.Close(); err != nil {
		log.Error("Error closing wallet events Kafka producer", "error", err)
	}

	if err = mongoDB.Close(shutdownCtx); err != nil {
		log.Error("Error closing MongoDB connection", "error", err)
	}

	// Final status
	if serverErr != nil {
		log.Error("HTTP server shutdown with errors", "error", serverErr)
	}
	if err != nil {
		log.Error("Server shutdown completed with errors")
	} else {
		log.Info("Server shutdown completed successfully")
	}
}
