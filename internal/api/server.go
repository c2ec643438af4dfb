// Package api provides the HTTP presentation layer over the account store,
// transfer engine, and audit chain.
package api

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/minibank/ledger/internal/api/handler"
	"github.com/minibank/ledger/internal/api/service"
	"github.com/minibank/ledger/internal/chain"
	"github.com/minibank/ledger/internal/config"
)

// Server handles HTTP requests and manages the listener's lifecycle.
type Server struct {
	logger     *slog.Logger
	httpServer *http.Server
	httpRouter *gin.Engine
}

// NewServer creates and configures a new HTTP server. auditChain and archive
// may be nil; the chain endpoints are only mounted when a chain is present.
func NewServer(
	log *slog.Logger,
	cfg *config.Config,
	accountService service.AccountService,
	transferService service.TransferService,
	auditChain *chain.Chain,
	archive chain.Archive,
) *Server {
	if cfg.Application.Env == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

	httpRouter := gin.New()

	accountHandler := handler.NewAccountHandler(log, accountService)
	transferHandler := handler.NewTransferHandler(log, transferService)
	var chainHandler *handler.ChainHandler
	if auditChain != nil {
		chainHandler = handler.NewChainHandler(log, auditChain, archive)
	}

	setupRouter(log, httpRouter, accountHandler, transferHandler, chainHandler)

	httpServer := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Server.Port),
		Handler:      httpRouter,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  cfg.Server.IdleTimeout,
	}

	return &Server{
		logger:     log,
		httpServer: httpServer,
		httpRouter: httpRouter,
	}
}

// Start begins listening for HTTP requests.
func (s *Server) Start() error {
	if err := s.httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("failed to start HTTP server: %w", err)
	}
	return nil
}

// Stop gracefully shuts down the HTTP server with a timeout.
func (s *Server) Stop(ctx context.Context) error {
	s.logger.Info("stopping HTTP server")

	shutdownCtx, cancel := context.WithTimeout(ctx, s.httpServer.WriteTimeout)
	defer cancel()

	if err := s.httpServer.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("failed to stop HTTP server: %w", err)
	}

	return nil
}
