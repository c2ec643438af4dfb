// Package postgres provides PostgreSQL implementations of the domain
// repositories. It handles all database operations while maintaining
// transaction safety and proper error handling for the ledger core.
package postgres

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/jackc/pgx/v5"
	"github.com/shopspring/decimal"

	"github.com/minibank/ledger/internal/domain/account"
	"github.com/minibank/ledger/internal/platform/persistence"
)

// AccountRepository implements the account.Repository interface for PostgreSQL
type AccountRepository struct {
	querier persistence.Querier // Can be *pgxpool.Pool or pgx.Tx
	logger  *slog.Logger
}

// NewAccountRepository creates a new PostgreSQL account repository.
// It expects db.Pool() to satisfy persistence.Querier.
func NewAccountRepository(logger *slog.Logger, db *persistence.PostgresDB) account.Repository {
	return &AccountRepository{
		querier: db.Pool(),
		logger:  logger,
	}
}

// WithTx wraps the repository with a transaction, allowing for atomic
// operations across multiple repository calls.
func (r *AccountRepository) WithTx(tx pgx.Tx) account.Repository {
	return &AccountRepository{
		querier: tx,
		logger:  r.logger,
	}
}

// Create stores a new account and fills in the assigned account number.
func (r *AccountRepository) Create(ctx context.Context, acc *account.Account) error {
	query := `
		INSERT INTO accounts (name, phone_num, email, pin, balance, account_type, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING account_no
	`

	err := r.querier.QueryRow(ctx, query,
		acc.Name,
		acc.Phone,
		acc.Email,
		acc.PIN,
		acc.Balance,
		acc.Type,
		acc.CreatedAt,
	).Scan(&acc.AccountNo)
	if err != nil {
		r.logger.Error("Failed to create account", "error", err)
		return fmt.Errorf("failed to create account: %w", err)
	}

	return nil
}

// GetByNo retrieves an account by its account number.
func (r *AccountRepository) GetByNo(ctx context.Context, accountNo int64) (*account.Account, error) {
	query := `
		SELECT account_no, name, phone_num, email, pin, balance, account_type, created_at
		FROM accounts
		WHERE account_no = $1
	`

	var acc account.Account
	err := r.querier.QueryRow(ctx, query, accountNo).Scan(
		&acc.AccountNo,
		&acc.Name,
		&acc.Phone,
		&acc.Email,
		&acc.PIN,
		&acc.Balance,
		&acc.Type,
		&acc.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, account.ErrAccountNotFound{AccountNo: accountNo}
		}
		r.logger.Error("Failed to get account", "account_no", accountNo, "error", err)
		return nil, fmt.Errorf("failed to get account: %w", err)
	}

	return &acc, nil
}

// GetBalance retrieves the current balance. A missing account is reported as
// ErrAccountNotFound, never as a zero balance.
func (r *AccountRepository) GetBalance(ctx context.Context, accountNo int64) (decimal.Decimal, error) {
	query := `
		SELECT balance
		FROM accounts
		WHERE account_no = $1
	`

	var balance decimal.Decimal
	err := r.querier.QueryRow(ctx, query, accountNo).Scan(&balance)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return decimal.Zero, account.ErrAccountNotFound{AccountNo: accountNo}
		}
		r.logger.Error("Failed to get balance", "account_no", accountNo, "error", err)
		return decimal.Zero, fmt.Errorf("failed to get balance: %w", err)
	}

	return balance, nil
}

// Exists reports whether an account row is present.
func (r *AccountRepository) Exists(ctx context.Context, accountNo int64) (bool, error) {
	query := `
		SELECT EXISTS(SELECT 1 FROM accounts WHERE account_no = $1)
	`

	var exists bool
	if err := r.querier.QueryRow(ctx, query, accountNo).Scan(&exists); err != nil {
		r.logger.Error("Failed to check account existence", "account_no", accountNo, "error", err)
		return false, fmt.Errorf("failed to check account existence: %w", err)
	}

	return exists, nil
}

// LockForUpdate obtains a pessimistic lock on the account row and returns its
// current state. Must be used within a transaction; the lock is held until
// the transaction completes.
func (r *AccountRepository) LockForUpdate(ctx context.Context, accountNo int64) (*account.Account, error) {
	query := `
		SELECT account_no, name, phone_num, email, pin, balance, account_type, created_at
		FROM accounts
		WHERE account_no = $1
		FOR UPDATE
	`

	var acc account.Account
	err := r.querier.QueryRow(ctx, query, accountNo).Scan(
		&acc.AccountNo,
		&acc.Name,
		&acc.Phone,
		&acc.Email,
		&acc.PIN,
		&acc.Balance,
		&acc.Type,
		&acc.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, account.ErrAccountNotFound{AccountNo: accountNo}
		}
		return nil, fmt.Errorf("failed to lock account %d for update: %w", accountNo, err)
	}

	return &acc, nil
}

// SetBalance overwrites the stored balance. Only the transfer engine calls
// this, inside a unit of work that also appends the matching history entry.
func (r *AccountRepository) SetBalance(ctx context.Context, accountNo int64, balance decimal.Decimal) error {
	query := `
		UPDATE accounts
		SET balance = $1
		WHERE account_no = $2
	`

	result, err := r.querier.Exec(ctx, query, balance, accountNo)
	if err != nil {
		r.logger.Error("Failed to set balance", "account_no", accountNo, "error", err)
		return fmt.Errorf("failed to set balance for account %d: %w", accountNo, err)
	}

	if result.RowsAffected() == 0 {
		return account.ErrAccountNotFound{AccountNo: accountNo}
	}

	return nil
}

// UpdateProfile updates the mutable profile fields.
func (r *AccountRepository) UpdateProfile(ctx context.Context, accountNo int64, name, phone, email string) error {
	query := `
		UPDATE accounts
		SET name = $1, phone_num = $2, email = $3
		WHERE account_no = $4
	`

	result, err := r.querier.Exec(ctx, query, name, phone, email, accountNo)
	if err != nil {
		r.logger.Error("Failed to update profile", "account_no", accountNo, "error", err)
		return fmt.Errorf("failed to update profile for account %d: %w", accountNo, err)
	}

	if result.RowsAffected() == 0 {
		return account.ErrAccountNotFound{AccountNo: accountNo}
	}

	return nil
}

// UpdatePIN replaces the account PIN.
func (r *AccountRepository) UpdatePIN(ctx context.Context, accountNo int64, pin int) error {
	query := `
		UPDATE accounts
		SET pin = $1
		WHERE account_no = $2
	`

	result, err := r.querier.Exec(ctx, query, pin, accountNo)
	if err != nil {
		r.logger.Error("Failed to update PIN", "account_no", accountNo, "error", err)
		return fmt.Errorf("failed to update pin for account %d: %w", accountNo, err)
	}

	if result.RowsAffected() == 0 {
		return account.ErrAccountNotFound{AccountNo: accountNo}
	}

	return nil
}
