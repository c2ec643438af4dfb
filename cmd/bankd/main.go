package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/minibank/ledger/internal/api"
	"github.com/minibank/ledger/internal/api/service"
	"github.com/minibank/ledger/internal/audit"
	"github.com/minibank/ledger/internal/chain"
	"github.com/minibank/ledger/internal/config"
	mongodata "github.com/minibank/ledger/internal/data/mongo"
	"github.com/minibank/ledger/internal/data/postgres"
	"github.com/minibank/ledger/internal/email"
	"github.com/minibank/ledger/internal/logger"
	"github.com/minibank/ledger/internal/platform/messaging"
	"github.com/minibank/ledger/internal/platform/persistence"
	"github.com/minibank/ledger/internal/relay"
	"github.com/minibank/ledger/internal/transfer"
)

func main() {
	// Create base context with cancellation
	appCtx, cancelAppCtx := context.WithCancel(context.Background())
	defer cancelAppCtx()

	// Initialize configuration
	cfg, err := config.LoadConfig("bankd")
	if err != nil {
		// logger is not initialized yet, so we use fmt
		fmt.Printf("Failed to load configuration: %v\n", err)
		os.Exit(1)
	}

	// Initialize logger
	log := logger.NewLogger(cfg)

	// Initialize PostgreSQL with app context
	postgresDB, err := persistence.NewPostgresDB(appCtx, log, &cfg.Postgres)
	if err != nil {
		log.Error("Failed to initialize PostgreSQL", "error", err)
		os.Exit(1)
	}

	// Initialize repositories
	accountRepo := postgres.NewAccountRepository(log, postgresDB)
	ledgerRepo := postgres.NewLedgerRepository(log, postgresDB)
	outboxRepo := postgres.NewOutboxRepository(log, postgresDB)

	// Initialize the audit trail. The chain trail decorates the relational
	// log and archives sealed blocks to MongoDB.
	var trail audit.Trail = audit.NewLogTrail(log, ledgerRepo)
	var auditChain *chain.Chain
	var archive chain.Archive
	var mongoDB *persistence.MongoDB
	if cfg.Audit.Trail == config.AuditTrailChain {
		mongoDB, err = persistence.NewMongoDB(appCtx, log, &cfg.MongoDB)
		if err != nil {
			log.Error("Failed to initialize MongoDB", "error", err)
			os.Exit(1)
		}
		auditChain = chain.New(cfg.Audit.ChainDifficulty)
		archive = mongodata.NewBlockRepository(log, mongoDB.Database())
		trail = audit.NewChainTrail(log, trail, auditChain, archive)
	}

	// Initialize transfer engine
	engine := transfer.NewEngine(log, postgresDB, accountRepo, trail, outboxRepo, cfg.Transfer.LockTimeout)

	// Initialize Kafka producer and outbox relay
	producer, err := messaging.NewTransferEventProducer(appCtx, log, &cfg.Kafka)
	if err != nil {
		log.Error("Failed to initialize Kafka producer", "error", err)
		os.Exit(1)
	}

	poller, err := relay.NewPoller(&cfg.Outbox, cfg.WorkerPool.Size, outboxRepo, producer, log)
	if err != nil {
		log.Error("Failed to initialize outbox relay", "error", err)
		os.Exit(1)
	}
	go poller.Start(appCtx)

	// Initialize services
	verifier := email.NewVerifier(log, &cfg.Kickbox)
	accountService := service.NewAccountService(log, accountRepo, ledgerRepo, verifier)

	// Initialize REST server
	server := api.NewServer(log, cfg, accountService, engine, auditChain, archive)
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

	if err = server.Stop(shutdownCtx); err != nil {
		log.Error("Error during server shutdown", "error", err)
	}

	poller.Shutdown()

	if err = producer.Close(); err != nil {
		log.Error("Error closing Kafka producer", "error", err)
	}

	postgresDB.Close()

	if mongoDB != nil {
		if err = mongoDB.Close(shutdownCtx); err != nil {
			log.Error("Error closing MongoDB connection", "error", err)
		}
	}

	// Final status
	if serverErr != nil {
		log.Error("Server shutdown completed with errors", "error", serverErr)
	} else {
		log.Info("Server shutdown completed successfully")
	}
}
