package handler

import (
	"log/slog"

	"github.com/gin-gonic/gin"

	"github.com/minibank/ledger/internal/chain"
)

// ChainHandler exposes the audit chain: mining pending records into a
// block, dumping the chain, and replaying its validity. Routes are only
// registered when the chain trail is enabled.
type ChainHandler struct {
	chain   *chain.Chain
	archive chain.Archive
	logger  *slog.Logger
}

// NewChainHandler creates a new chain handler. archive may be nil when
// block archiving is not configured.
func NewChainHandler(logger *slog.Logger, c *chain.Chain, archive chain.Archive) *ChainHandler {
	return &ChainHandler{
		chain:   c,
		archive: archive,
		logger:  logger,
	}
}

// Mine seals all pending records into a new block. Normally blocks are mined
// automatically after each transfer commits; this endpoint forces a round,
// sealing an empty block when nothing is pending.
func (h *ChainHandler) Mine(c *gin.Context) {
	block, err := h.chain.Mine(c.Request.Context())
	if err != nil {
		h.logger.Error("Mining aborted", "error", err)
		RespondInternalError(c)
		return
	}

	if h.archive != nil {
		if err := h.archive.Save(c.Request.Context(), block); err != nil {
			h.logger.Error("Failed to archive mined block", "index", block.Index, "error", err)
		}
	}

	RespondOK(c, gin.H{
		"message":       "Congratulations, you just mined a block!",
		"index":         block.Index,
		"timestamp":     block.Timestamp,
		"proof":         block.Proof,
		"previous_hash": block.PreviousHash,
		"transactions":  block.Transactions,
	})
}

// Get returns the full sealed chain and its length.
func (h *ChainHandler) Get(c *gin.Context) {
	blocks := h.chain.Blocks()
	RespondOK(c, gin.H{
		"chain":  blocks,
		"length": len(blocks),
	})
}

// Valid replays every link and proof in the chain and reports the verdict.
func (h *ChainHandler) Valid(c *gin.Context) {
	if err := h.chain.Validate(); err != nil {
		RespondOK(c, gin.H{
			"valid":   false,
			"message": err.Error(),
		})
		return
	}
	RespondOK(c, gin.H{
		"valid":   true,
		"message": "All good. The blockchain is valid.",
	})
}
