package account

import (
	"context"

	"github.com/jackc/pgx/v5"
	"github.com/shopspring/decimal"
)

// Repository defines account persistence operations. SetBalance is only ever
// invoked from within a transfer-engine unit of work; no other component may
// mutate balances, so every balance change has a matching history entry.
type Repository interface {
	Create(ctx context.Context, account *Account) error
	GetByNo(ctx context.Context, accountNo int64) (*Account, error)
	GetBalance(ctx context.Context, accountNo int64) (decimal.Decimal, error)
	Exists(ctx context.Context, accountNo int64) (bool, error)

	// LockForUpdate acquires a pessimistic row lock, held until the enclosing
	// transaction completes.
	LockForUpdate(ctx context.Context, accountNo int64) (*Account, error)
	SetBalance(ctx context.Context, accountNo int64, balance decimal.Decimal) error

	UpdateProfile(ctx context.Context, accountNo int64, name, phone, email string) error
	UpdatePIN(ctx context.Context, accountNo int64, pin int) error

	WithTx(tx pgx.Tx) Repository
}
