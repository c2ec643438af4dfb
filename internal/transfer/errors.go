package transfer

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5/pgconn"
)

// SQLSTATE raised when lock_timeout expires while waiting on a row lock.
const pgLockNotAvailable = "55P03"

var (
	// ErrInsufficientFunds is the terminal business outcome for a source
	// balance smaller than the transfer amount. Not a system failure.
	ErrInsufficientFunds = errors.New("insufficient funds in the source account")

	// ErrLockTimeout reports that a bounded wait on an account row lock
	// expired. The unit of work was rolled back; the caller may resubmit.
	ErrLockTimeout = errors.New("timed out waiting for account row locks")
)

// Side names which end of a transfer an error refers to.
type Side string

const (
	SideSource      Side = "source"
	SideDestination Side = "destination"
)

// AccountNotFoundError is the terminal business outcome for a transfer
// naming an account that does not exist, identifying which side.
type AccountNotFoundError struct {
	AccountNo int64
	Side      Side
}

func (e *AccountNotFoundError) Error() string {
	return fmt.Sprintf("%s account does not exist: %d", e.Side, e.AccountNo)
}

// StorageError wraps any backing-store failure that is not a lock timeout.
// It is not retryable; the unit of work was rolled back in full.
type StorageError struct {
	Err error
}

func (e *StorageError) Error() string {
	return "storage failure during transfer: " + e.Err.Error()
}

func (e *StorageError) Unwrap() error {
	return e.Err
}

// Retryable reports whether resubmitting the same transfer may succeed.
// Only lock-wait timeouts qualify; business outcomes and storage failures
// are terminal.
func Retryable(err error) bool {
	return errors.Is(err, ErrLockTimeout)
}

// classify maps raw backing-store errors onto the engine taxonomy. Errors
// already belonging to the taxonomy pass through unchanged so wrapping never
// stacks.
func classify(err error) error {
	if err == nil {
		return nil
	}

	var notFound *AccountNotFoundError
	var storage *StorageError
	if errors.Is(err, ErrInsufficientFunds) ||
		errors.Is(err, ErrLockTimeout) ||
		errors.As(err, &notFound) ||
		errors.As(err, &storage) {
		return err
	}

	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == pgLockNotAvailable {
		return fmt.Errorf("%w: %s", ErrLockTimeout, pgErr.Message)
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return fmt.Errorf("%w: %s", ErrLockTimeout, err)
	}

	return &StorageError{Err: err}
}
