// Package transfer implements the funds-transfer engine: the only component
// allowed to mutate account balances. Every operation runs as one atomic
// unit of work that locks the involved account rows in a fixed global order,
// checks funds, writes both balances, and appends the audit record; any
// failure rolls the whole unit back with no partial effect.
package transfer

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/shopspring/decimal"

	"github.com/minibank/ledger/internal/audit"
	"github.com/minibank/ledger/internal/domain/account"
	"github.com/minibank/ledger/internal/domain/ledger"
	"github.com/minibank/ledger/internal/domain/outbox"
	"github.com/minibank/ledger/internal/platform/persistence"
)

// Engine orchestrates transfers, deposits, and withdrawals against the
// backing store. It holds no in-process locks and caches no balances; all
// mutual exclusion is delegated to the store's row locks.
type Engine struct {
	db          persistence.TxRunner
	accounts    account.Repository
	trail       audit.Trail
	outbox      outbox.Repository
	lockTimeout time.Duration
	logger      *slog.Logger
}

// NewEngine creates a transfer engine. outboxRepo may be nil when event
// publishing is not wired (the console binary runs without Kafka).
func NewEngine(
	logger *slog.Logger,
	db persistence.TxRunner,
	accounts account.Repository,
	trail audit.Trail,
	outboxRepo outbox.Repository,
	lockTimeout time.Duration,
) *Engine {
	return &Engine{
		db:          db,
		accounts:    accounts,
		trail:       trail,
		outbox:      outboxRepo,
		lockTimeout: lockTimeout,
		logger:      logger,
	}
}

// Transfer moves amount from one account to another. Preconditions (amount
// normalized and strictly positive, fromNo != toNo) are enforced by the
// caller at the input boundary.
func (e *Engine) Transfer(ctx context.Context, fromNo, toNo int64, amount decimal.Decimal, remark string) error {
	return e.execute(ctx, ledger.KindTransfer, fromNo, toNo, amount, remark)
}

// Deposit credits an account from outside the system. It is a transfer whose
// source is the external sentinel: only the real account row is locked and
// no funds check applies.
func (e *Engine) Deposit(ctx context.Context, toNo int64, amount decimal.Decimal, remark string) error {
	return e.execute(ctx, ledger.KindDeposit, account.ExternalAccount, toNo, amount, remark)
}

// Withdraw debits an account to outside the system, subject to the same
// funds check as a transfer.
func (e *Engine) Withdraw(ctx context.Context, fromNo int64, amount decimal.Decimal, remark string) error {
	return e.execute(ctx, ledger.KindWithdrawal, fromNo, account.ExternalAccount, amount, remark)
}

func (e *Engine) execute(ctx context.Context, kind ledger.Kind, fromNo, toNo int64, amount decimal.Decimal, remark string) error {
	var entry *ledger.Entry

	txOpts := pgx.TxOptions{IsoLevel: pgx.ReadCommitted}
	err := e.db.ExecuteTxWithOptions(ctx, txOpts, func(tx pgx.Tx) error {
		// Bound the wait on row locks; exceeding it surfaces as SQLSTATE
		// 55P03 and is classified as the retryable lock-timeout outcome.
		lockStmt := fmt.Sprintf("SET LOCAL lock_timeout = '%dms'", e.lockTimeout.Milliseconds())
		if _, err := tx.Exec(ctx, lockStmt); err != nil {
			return classify(err)
		}

		accounts := e.accounts.WithTx(tx)

		balances, err := e.lockBalances(ctx, accounts, fromNo, toNo)
		if err != nil {
			return err
		}

		if fromNo != account.ExternalAccount {
			sourceBalance := balances[fromNo]
			if sourceBalance.LessThan(amount) {
				return ErrInsufficientFunds
			}
			if err := accounts.SetBalance(ctx, fromNo, sourceBalance.Sub(amount)); err != nil {
				return classify(err)
			}
		}
		if toNo != account.ExternalAccount {
			if err := accounts.SetBalance(ctx, toNo, balances[toNo].Add(amount)); err != nil {
				return classify(err)
			}
		}

		now := time.Now()
		entry = &ledger.Entry{
			FromAccount: fromNo,
			ToAccount:   toNo,
			Amount:      amount,
			Kind:        kind,
			Remark:      remark,
			Date:        now,
			Time:        now,
		}
		if err := e.trail.Record(ctx, tx, entry); err != nil {
			return classify(err)
		}

		if e.outbox != nil {
			message, err := outbox.NewMessage(entry)
			if err != nil {
				return classify(err)
			}
			if err := e.outbox.WithTx(tx).Create(ctx, message); err != nil {
				return classify(err)
			}
		}

		return nil
	})
	if err != nil {
		err = classify(err)
		e.logOutcome(kind, fromNo, toNo, amount, err)
		return err
	}

	e.trail.Committed(ctx, entry)

	e.logger.Info("transfer committed",
		"kind", string(kind),
		"from_account", fromNo,
		"to_account", toNo,
		"amount", amount.StringFixed(2),
	)
	return nil
}

// lockBalances acquires exclusive row locks on the real accounts involved,
// lower account number first. The fixed global ordering is the deadlock
// avoidance mechanism: concurrent transfers over the same pair always
// request locks in the same relative order, so no waiter cycle can form.
func (e *Engine) lockBalances(ctx context.Context, accounts account.Repository, fromNo, toNo int64) (map[int64]decimal.Decimal, error) {
	first, second := fromNo, toNo
	if second < first {
		first, second = second, first
	}

	balances := make(map[int64]decimal.Decimal, 2)
	for _, no := range [2]int64{first, second} {
		if no == account.ExternalAccount {
			continue
		}
		locked, err := accounts.LockForUpdate(ctx, no)
		if err != nil {
			if errors.Is(err, account.ErrAccountNotFound{}) {
				side := SideDestination
				if no == fromNo {
					side = SideSource
				}
				return nil, &AccountNotFoundError{AccountNo: no, Side: side}
			}
			return nil, classify(err)
		}
		balances[no] = locked.Balance
	}
	return balances, nil
}

func (e *Engine) logOutcome(kind ledger.Kind, fromNo, toNo int64, amount decimal.Decimal, err error) {
	// Business outcomes are expected results, not system failures.
	var notFound *AccountNotFoundError
	if errors.Is(err, ErrInsufficientFunds) || errors.As(err, &notFound) {
		e.logger.Warn("transfer rejected",
			"kind", string(kind),
			"from_account", fromNo,
			"to_account", toNo,
			"amount", amount.StringFixed(2),
			"reason", err.Error(),
		)
		return
	}
	e.logger.Error("transfer failed",
		"kind", string(kind),
		"from_account", fromNo,
		"to_account", toNo,
		"amount", amount.StringFixed(2),
		"retryable", Retryable(err),
		"error", err,
	)
}
