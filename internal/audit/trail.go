// Package audit defines the audit-trail capability the transfer engine
// records through. Two interchangeable strategies exist: the plain relational
// transaction log, and the hash-chained ledger layered on top of it. The
// engine only ever sees the Trail interface; the strategy is picked by
// configuration at wiring time.
package audit

import (
	"context"
	"log/slog"

	"github.com/jackc/pgx/v5"

	"github.com/minibank/ledger/internal/domain/ledger"
)

// Trail records balance-affecting events. Record runs inside the transfer
// engine's unit of work and must fail the whole transfer if it cannot
// persist the entry; Committed runs after a successful commit for any
// post-commit bookkeeping a strategy needs.
type Trail interface {
	Record(ctx context.Context, tx pgx.Tx, entry *ledger.Entry) error
	Committed(ctx context.Context, entry *ledger.Entry)
}

// LogTrail is the plain strategy: one immutable transaction-history row per
// event, written in the same unit of work as the balance mutations.
type LogTrail struct {
	history ledger.Repository
	logger  *slog.Logger
}

// NewLogTrail creates the relational-log audit trail.
func NewLogTrail(logger *slog.Logger, history ledger.Repository) *LogTrail {
	return &LogTrail{
		history: history,
		logger:  logger,
	}
}

// Record appends the history entry within the transaction.
func (t *LogTrail) Record(ctx context.Context, tx pgx.Tx, entry *ledger.Entry) error {
	return t.history.WithTx(tx).Append(ctx, entry)
}

// Committed is a no-op; the relational row was already part of the commit.
func (t *LogTrail) Committed(ctx context.Context, entry *ledger.Entry) {}
