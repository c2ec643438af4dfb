package postgres

import (
	"context"
	"errors"
	"log/slog"
	"os"
	"testing"
	"time"

	"github.com/pashagolub/pgxmock/v3"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/minibank/ledger/internal/domain/account"
)

func newTestLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelDebug}))
}

func accountColumns() []string {
	return []string{"account_no", "name", "phone_num", "email", "pin", "balance", "account_type", "created_at"}
}

func TestAccountRepository_Create(t *testing.T) {
	ctx := context.Background()
	logger := newTestLogger()
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	repo := &AccountRepository{querier: mock, logger: logger}

	acc := &account.Account{
		Name:      "Test User",
		Phone:     "5551234567",
		Email:     "test@example.com",
		PIN:       4321,
		Balance:   decimal.RequireFromString("1000.50"),
		Type:      account.TypeSavings,
		CreatedAt: time.Now(),
	}

	query := `
		INSERT INTO accounts \(name, phone_num, email, pin, balance, account_type, created_at\)
		VALUES \(\$1, \$2, \$3, \$4, \$5, \$6, \$7\)
		RETURNING account_no
	`

	t.Run("success fills in the assigned number", func(t *testing.T) {
		mock.ExpectQuery(query).
			WithArgs(acc.Name, acc.Phone, acc.Email, acc.PIN, acc.Balance, acc.Type, acc.CreatedAt).
			WillReturnRows(pgxmock.NewRows([]string{"account_no"}).AddRow(int64(12)))

		err := repo.Create(ctx, acc)
		assert.NoError(t, err)
		assert.Equal(t, int64(12), acc.AccountNo)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("failure", func(t *testing.T) {
		expectedErr := errors.New("db error")
		mock.ExpectQuery(query).
			WithArgs(acc.Name, acc.Phone, acc.Email, acc.PIN, acc.Balance, acc.Type, acc.CreatedAt).
			WillReturnError(expectedErr)

		err := repo.Create(ctx, acc)
		assert.ErrorIs(t, err, expectedErr)
		assert.NoError(t, mock.ExpectationsWereMet())
	})
}

func TestAccountRepository_GetByNo(t *testing.T) {
	ctx := context.Background()
	logger := newTestLogger()
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	repo := &AccountRepository{querier: mock, logger: logger}

	query := `
		SELECT account_no, name, phone_num, email, pin, balance, account_type, created_at
		FROM accounts
		WHERE account_no = \$1
	`

	t.Run("found", func(t *testing.T) {
		created := time.Now()
		mock.ExpectQuery(query).
			WithArgs(int64(7)).
			WillReturnRows(pgxmock.NewRows(accountColumns()).
				AddRow(int64(7), "Test User", "5551234567", "test@example.com", 4321,
					decimal.RequireFromString("500.25"), account.TypeCurrent, created))

		acc, err := repo.GetByNo(ctx, 7)
		require.NoError(t, err)
		assert.Equal(t, int64(7), acc.AccountNo)
		assert.Equal(t, "Test User", acc.Name)
		assert.True(t, acc.Balance.Equal(decimal.RequireFromString("500.25")))
		assert.Equal(t, account.TypeCurrent, acc.Type)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("not found", func(t *testing.T) {
		mock.ExpectQuery(query).
			WithArgs(int64(99)).
			WillReturnRows(pgxmock.NewRows(accountColumns()))

		_, err := repo.GetByNo(ctx, 99)
		assert.ErrorIs(t, err, account.ErrAccountNotFound{AccountNo: 99})
		assert.NoError(t, mock.ExpectationsWereMet())
	})
}

func TestAccountRepository_GetBalance(t *testing.T) {
	ctx := context.Background()
	logger := newTestLogger()
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	repo := &AccountRepository{querier: mock, logger: logger}

	query := `
		SELECT balance
		FROM accounts
		WHERE account_no = \$1
	`

	t.Run("zero balance is not a missing account", func(t *testing.T) {
		mock.ExpectQuery(query).
			WithArgs(int64(7)).
			WillReturnRows(pgxmock.NewRows([]string{"balance"}).AddRow(decimal.Zero))

		balance, err := repo.GetBalance(ctx, 7)
		require.NoError(t, err)
		assert.True(t, balance.IsZero())
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("not found", func(t *testing.T) {
		mock.ExpectQuery(query).
			WithArgs(int64(99)).
			WillReturnRows(pgxmock.NewRows([]string{"balance"}))

		_, err := repo.GetBalance(ctx, 99)
		assert.ErrorIs(t, err, account.ErrAccountNotFound{})
		assert.NoError(t, mock.ExpectationsWereMet())
	})
}

func TestAccountRepository_LockForUpdate(t *testing.T) {
	ctx := context.Background()
	logger := newTestLogger()
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	repo := &AccountRepository{querier: mock, logger: logger}

	query := `
		SELECT account_no, name, phone_num, email, pin, balance, account_type, created_at
		FROM accounts
		WHERE account_no = \$1
		FOR UPDATE
	`

	t.Run("returns the locked row state", func(t *testing.T) {
		mock.ExpectQuery(query).
			WithArgs(int64(7)).
			WillReturnRows(pgxmock.NewRows(accountColumns()).
				AddRow(int64(7), "Test User", "5551234567", "", 4321,
					decimal.RequireFromString("1000.50"), account.TypeSavings, time.Now()))

		acc, err := repo.LockForUpdate(ctx, 7)
		require.NoError(t, err)
		assert.True(t, acc.Balance.Equal(decimal.RequireFromString("1000.50")))
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("not found", func(t *testing.T) {
		mock.ExpectQuery(query).
			WithArgs(int64(99)).
			WillReturnRows(pgxmock.NewRows(accountColumns()))

		_, err := repo.LockForUpdate(ctx, 99)
		assert.ErrorIs(t, err, account.ErrAccountNotFound{AccountNo: 99})
		assert.NoError(t, mock.ExpectationsWereMet())
	})
}

func TestAccountRepository_SetBalance(t *testing.T) {
	ctx := context.Background()
	logger := newTestLogger()
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	repo := &AccountRepository{querier: mock, logger: logger}

	query := `
		UPDATE accounts
		SET balance = \$1
		WHERE account_no = \$2
	`

	t.Run("success", func(t *testing.T) {
		balance := decimal.RequireFromString("749.75")
		mock.ExpectExec(query).
			WithArgs(balance, int64(7)).
			WillReturnResult(pgxmock.NewResult("UPDATE", 1))

		err := repo.SetBalance(ctx, 7, balance)
		assert.NoError(t, err)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("no row updated means missing account", func(t *testing.T) {
		mock.ExpectExec(query).
			WithArgs(decimal.Zero, int64(99)).
			WillReturnResult(pgxmock.NewResult("UPDATE", 0))

		err := repo.SetBalance(ctx, 99, decimal.Zero)
		assert.ErrorIs(t, err, account.ErrAccountNotFound{AccountNo: 99})
		assert.NoError(t, mock.ExpectationsWereMet())
	})
}

func TestAccountRepository_UpdatePIN(t *testing.T) {
	ctx := context.Background()
	logger := newTestLogger()
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	repo := &AccountRepository{querier: mock, logger: logger}

	query := `
		UPDATE accounts
		SET pin = \$1
		WHERE account_no = \$2
	`

	mock.ExpectExec(query).
		WithArgs(9876, int64(7)).
		WillReturnResult(pgxmock.NewResult("UPDATE", 1))

	err = repo.UpdatePIN(ctx, 7, 9876)
	assert.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}
