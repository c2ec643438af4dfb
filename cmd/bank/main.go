// Command bank is the interactive terminal front end. It drives the same
// transfer engine as the HTTP server but runs without Kafka; transfer events
// are not relayed from this binary.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/minibank/ledger/internal/audit"
	"github.com/minibank/ledger/internal/chain"
	"github.com/minibank/ledger/internal/config"
	"github.com/minibank/ledger/internal/console"
	mongodata "github.com/minibank/ledger/internal/data/mongo"
	"github.com/minibank/ledger/internal/data/postgres"
	"github.com/minibank/ledger/internal/email"
	"github.com/minibank/ledger/internal/logger"
	"github.com/minibank/ledger/internal/platform/persistence"
	"github.com/minibank/ledger/internal/transfer"
)

func main() {
	appCtx, cancelAppCtx := context.WithCancel(context.Background())
	defer cancelAppCtx()

	cfg, err := config.LoadConfig("bank")
	if err != nil {
		fmt.Printf("Failed to load configuration: %v\n", err)
		os.Exit(1)
	}

	log := logger.NewLogger(cfg)

	postgresDB, err := persistence.NewPostgresDB(appCtx, log, &cfg.Postgres)
	if err != nil {
		log.Error("Failed to initialize PostgreSQL", "error", err)
		os.Exit(1)
	}
	defer postgresDB.Close()

	accountRepo := postgres.NewAccountRepository(log, postgresDB)
	ledgerRepo := postgres.NewLedgerRepository(log, postgresDB)

	var trail audit.Trail = audit.NewLogTrail(log, ledgerRepo)
	var auditChain *chain.Chain
	if cfg.Audit.Trail == config.AuditTrailChain {
		auditChain = chain.New(cfg.Audit.ChainDifficulty)
		var archive chain.Archive
		mongoDB, err := persistence.NewMongoDB(appCtx, log, &cfg.MongoDB)
		if err != nil {
			log.Warn("MongoDB unavailable, sealed blocks will not be archived", "error", err)
		} else {
			archive = mongodata.NewBlockRepository(log, mongoDB.Database())
			defer mongoDB.Close(context.Background())
		}
		trail = audit.NewChainTrail(log, trail, auditChain, archive)
	}

	// No outbox: the console does not relay transfer events.
	engine := transfer.NewEngine(log, postgresDB, accountRepo, trail, nil, cfg.Transfer.LockTimeout)

	verifier := email.NewVerifier(log, &cfg.Kickbox)

	// Ctrl-C cancels in-flight operations and ends the menu loop.
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		<-quit
		cancelAppCtx()
	}()

	ui := console.New(log, os.Stdin, os.Stdout, accountRepo, ledgerRepo, engine, auditChain, verifier)
	if err := ui.Run(appCtx); err != nil {
		log.Error("Console session ended with error", "error", err)
		os.Exit(1)
	}
}
