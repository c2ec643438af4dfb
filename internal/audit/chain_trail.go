package audit

import (
	"context"
	"log/slog"

	"github.com/jackc/pgx/v5"

	"github.com/minibank/ledger/internal/chain"
	"github.com/minibank/ledger/internal/domain/ledger"
	"github.com/minibank/ledger/internal/money"
)

// ChainTrail decorates a Trail with the hash-chained ledger: every recorded
// event still lands in the relational log, and is additionally queued on the
// chain. After commit a block is mined, folding the pending records in and
// optionally archiving the sealed block.
//
// Mining happens strictly after commit, so a failed unit of work never
// leaves a record on the chain. The reverse is possible (committed transfer,
// mining not yet run); the relational log stays authoritative, the chain is
// the tamper-evidence layer.
type ChainTrail struct {
	inner   Trail
	chain   *chain.Chain
	archive chain.Archive
	logger  *slog.Logger
}

// NewChainTrail layers the hash chain over the given trail. archive may be
// nil, in which case sealed blocks stay in memory only.
func NewChainTrail(logger *slog.Logger, inner Trail, c *chain.Chain, archive chain.Archive) *ChainTrail {
	return &ChainTrail{
		inner:   inner,
		chain:   c,
		archive: archive,
		logger:  logger,
	}
}

// Record delegates to the wrapped trail inside the unit of work.
func (t *ChainTrail) Record(ctx context.Context, tx pgx.Tx, entry *ledger.Entry) error {
	return t.inner.Record(ctx, tx, entry)
}

// Committed queues the entry on the chain and mines a block, mirroring the
// original behavior of mining after every transfer.
func (t *ChainTrail) Committed(ctx context.Context, entry *ledger.Entry) {
	t.inner.Committed(ctx, entry)

	index := t.chain.Append(chain.Record{
		From:      entry.FromAccount,
		To:        entry.ToAccount,
		Amount:    money.Format(entry.Amount),
		Remark:    entry.Remark,
		Timestamp: entry.Time,
	})
	t.logger.Debug("queued transfer on chain", "block_index", index)

	block, err := t.chain.Mine(ctx)
	if err != nil {
		t.logger.Error("failed to mine block", "error", err)
		return
	}
	t.logger.Info("block mined",
		"index", block.Index,
		"proof", block.Proof,
		"transactions", len(block.Transactions),
	)

	if t.archive == nil {
		return
	}
	if err := t.archive.Save(ctx, block); err != nil {
		t.logger.Error("failed to archive mined block", "index", block.Index, "error", err)
	}
}
