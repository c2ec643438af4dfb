package api

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/minibank/ledger/internal/api/handler"
	"github.com/minibank/ledger/internal/api/middleware"
)

// setupRouter configures API routes and middleware. chainHandler is nil when
// the audit trail runs in log mode; the chain endpoints are then absent.
func setupRouter(
	logger *slog.Logger,
	r *gin.Engine,
	accountHandler *handler.AccountHandler,
	transferHandler *handler.TransferHandler,
	chainHandler *handler.ChainHandler,
) {
	r.Use(middleware.Recovery(logger))
	r.Use(middleware.Logger(logger))
	r.Use(middleware.CorrelationID())

	// API v1 endpoints
	v1 := r.Group("/api/v1")
	{
		accounts := v1.Group("/accounts")
		{
			accounts.POST("", accountHandler.Open)
			accounts.GET("/:no", accountHandler.Get)
			accounts.GET("/:no/transactions", accountHandler.Statement)
		}

		v1.POST("/transfers", transferHandler.Create)
	}

	// Audit chain endpoints
	if chainHandler != nil {
		r.GET("/chain/mine", chainHandler.Mine)
		r.GET("/chain", chainHandler.Get)
		r.GET("/chain/valid", chainHandler.Valid)
	}

	// Health check endpoint for monitoring
	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok", "timestamp": time.Now().UTC()})
	})
}
