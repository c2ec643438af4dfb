package service

import (
	"context"

	"github.com/shopspring/decimal"

	"github.com/minibank/ledger/internal/domain/account"
	"github.com/minibank/ledger/internal/domain/ledger"
)

// AccountService defines the account operations exposed over HTTP.
type AccountService interface {
	// OpenAccount creates a new account after validating the opening
	// parameters and, when verification is enabled, the email address.
	OpenAccount(ctx context.Context, name, phone, email string, pin int, initialDeposit decimal.Decimal, accType account.Type) (*account.Account, error)

	// GetAccount retrieves an account by number.
	// Returns ErrAccountNotFound if the account doesn't exist.
	GetAccount(ctx context.Context, accountNo int64) (*account.Account, error)

	// GetStatement returns one page of the account's transaction history,
	// newest first, together with the total entry count.
	// Returns ErrAccountNotFound if the account doesn't exist.
	GetStatement(ctx context.Context, accountNo int64, page, perPage int) ([]*ledger.Entry, int64, error)
}

// TransferService defines the balance-mutating operations. The transfer
// engine satisfies this interface directly.
type TransferService interface {
	Transfer(ctx context.Context, fromNo, toNo int64, amount decimal.Decimal, remark string) error
	Deposit(ctx context.Context, toNo int64, amount decimal.Decimal, remark string) error
	Withdraw(ctx context.Context, fromNo int64, amount decimal.Decimal, remark string) error
}
