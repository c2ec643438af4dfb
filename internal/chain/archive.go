package chain

import (
	"context"
	"fmt"
)

// Archive persists sealed blocks outside the process so the chain survives
// restarts for inspection. Blocks are append-only documents; the archive is
// never read back into the live chain.
type Archive interface {
	Save(ctx context.Context, block Block) error
	Latest(ctx context.Context) (*Block, error)
	List(ctx context.Context, limit, offset int) ([]Block, error)
}

// ErrBlockNotFound indicates the archive holds no block for the query.
type ErrBlockNotFound struct {
	Index int
}

func (e ErrBlockNotFound) Error() string {
	return fmt.Sprintf("archived block not found: %d", e.Index)
}
