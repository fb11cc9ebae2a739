package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/agentfloat-wallet-ledger/internal/config"
	datamongo "github.com/agentfloat-wallet-ledger/internal/data/mongo"
	"github.com/agentfloat-wallet-ledger/internal/funding_worker/consumer"
	workersvc "github.com/agentfloat-wallet-ledger/internal/funding_worker/service"
	"github.com/agentfloat-wallet-ledger/internal/logger"
	"github.com/agentfloat-wallet-ledger/internal/platform/messaging/consumers"
	"github.com/agentfloat-wallet-ledger/internal/platform/messaging/producers"
	"github.com/agentfloat-wallet-ledger/internal/platform/persistence"
	"github.com/agentfloat-wallet-ledger/internal/service"
)

func main() {
	// Create base context with cancellation
	appCtx, cancelAppCtx := context.WithCancel(context.Background())
	defer cancelAppCtx()

	// Initialize configuration
	cfg, err := config.LoadConfig("funding_worker")
	if err != nil {
		// logger is not initialized yet, so we use fmt
		fmt.Printf("Failed to load configuration: %v\n", err)
		os.Exit(1)
	}

	// Initialize logger
	log := logger.NewLogger(cfg)

	log.Info("Starting Funding Worker",
		"app_name", cfg.Application.Name,
		"env", cfg.Application.Env,
	)

	// Initialize MongoDB with app context
	mongoDB, err := persistence.NewMongoDB(appCtx, log, &cfg.MongoDB)
	if err != nil {
		log.Error("Failed to initialize MongoDB", "error", err)
		os.Exit(1)
	}

	if err := persistence.EnsureIndexes(appCtx, mongoDB.Database(), cfg.Wallet.IdempotencyTTL); err != nil {
		log.Error("Failed to ensure MongoDB indexes", "error", err)
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

	// Initialize Kafka consumer
	kafkaConsumer := consumers.NewKafkaConsumer(appCtx, log, &cfg.Kafka)

	// Initialize Kafka producers
	dlqProducer, err := producers.NewDLQProducer(appCtx, log, &cfg.Kafka)
	if err != nil {
		log.Error("Failed to initialize DLQ Kafka producer", "error", err)
		os.Exit(1)
	}
	// dlqProducer might be nil if DLQTopic is not configured. Handler is nil-safe.

	eventsProducer, err := producers.NewWalletEventsProducer(appCtx, log, &cfg.Kafka)
	if err != nil {
		log.Error("Failed to initialize wallet events Kafka producer", "error", err)
		os.Exit(1)
	}

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
	fundingService := service.NewFundingService(log, fundingStore, walletService)

	baseExecution := workersvc.NewExecutionService(log, fundingService)
	executionService, err := workersvc.NewWorkerPoolExecutionService(
		baseExecution,
		workersvc.WorkerPoolConfig{Size: cfg.WorkerPool.Size},
		log,
	)
	if err != nil {
		log.Error("Failed to initialize worker pool", "error", err)
		os.Exit(1)
	}

	// Initialize funding event handler
	fundingEventHandler := consumer.NewFundingEventHandler(
		log,
		executionService,
		dlqProducer,
	)

	// Create error channel for service errors
	errChan := make(chan error, 1)

	// Create wait group for graceful shutdown
	var wg sync.WaitGroup

	// Start Kafka consumer in a goroutine
	wg.Add(1)
	go func() {
		defer wg.Done()
		log.Info("Starting Kafka consumer",
			"topic", cfg.Kafka.FundingTopic,
			"group", cfg.Kafka.ConsumerGroup,
		)
		if err := kafkaConsumer.Subscribe(appCtx, cfg.Kafka.FundingTopic, cfg.Kafka.ConsumerGroup, fundingEventHandler.HandleMessage); err != nil {
			errChan <- fmt.Errorf("kafka consumer error: %w", err)
		}
	}()

	// Set up signal handling
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM, syscall.SIGQUIT)

	// Wait for a shutdown signal or error
	var serviceErr error
	select {
	case <-quit:
		log.Info("Shutdown signal received")
	case err := <-errChan:
		log.Error("Service error occurred", "error", err)
		serviceErr = err
	}

	// Cancel the application context
	cancelAppCtx()

	// Shutdown the worker pool
	log.Info("Shutting down worker pool", "running_workers", executionService.Running())
	executionService.Shutdown()

	// Create a shutdown context with timeout
	shutdownCtx, cancelShutdown := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancelShutdown()

	// Graceful shutdown sequence
	log.Info("Starting graceful shutdown...")

	// Wait for all goroutines to finish
	wgChan := make(chan struct{})
	go func() {
		wg.Wait()
		close(wgChan)
	}()

	select {
	case <-wgChan:
		log.Info("All services stopped successfully")
	case <-shutdownCtx.Done():
		log.Warn("Shutdown timeout reached, forcing exit")
	}

	// Close DLQ Kafka producer
	if dlqProducer != nil { // dlqProducer can be nil if DLQTopic was not configured
		if err = dlqProducer.Close(); err != nil {
			log.Error("Error closing DLQ Kafka producer", "error", err)
		}
	}

	if err = eventsProducer.Close(); err != nil {
		log.Error("Error closing wallet events Kafka producer", "error", err)
	}

	// Close Kafka consumer
	if err = kafkaConsumer.Close(); err != nil {
		log.Error("Error closing Kafka consumer", "error", err)
	}

	// Close MongoDB connection
	if err = mongoDB.Close(shutdownCtx); err != nil {
		log.Error("Error closing MongoDB connection", "error", err)
	}

	// Final status
	if serviceErr != nil {
		log.Error("Funding Worker shutdown with errors", "error", serviceErr)
	}
	if err != nil {
		log.Error("Funding Worker shutdown completed with errors")
	} else {
		log.Info("Funding Worker shutdown completed successfully")
	}
}
