package ledger

import (
	"context"

	"github.com/jackc/pgx/v5"
)

// Repository manages transaction-history persistence. Append is only called
// from within a transfer-engine unit of work so that the history stays
// consistent with every balance delta by construction.
type Repository interface {
	Append(ctx context.Context, entry *Entry) error
	ListByAccount(ctx context.Context, accountNo int64, limit, offset int) ([]*Entry, error)
	CountByAccount(ctx context.Context, accountNo int64) (int64, error)
	WithTx(tx pgx.Tx) Repository
}
