// Package ledger defines the append-only transaction history. Entries are
// written exactly once, inside the same unit of work as the balance writes
// they describe, and never updated or deleted afterwards.
package ledger

import (
	"fmt"
	"time"

	"github.com/shopspring/decimal"
)

// Kind describes the balance-affecting operation an entry records.
type Kind string

const (
	KindTransfer   Kind = "TRANSFER"
	KindDeposit    Kind = "DEPOSIT"
	KindWithdrawal Kind = "WITHDRAWAL"
)

// Entry is one immutable transaction-history row. FromAccount or ToAccount
// may be the external sentinel (0) for withdrawals and deposits respectively.
// Amount is always positive; direction is carried by the account columns.
type Entry struct {
	ID          int64           `json:"id"`
	FromAccount int64           `json:"from_account"`
	ToAccount   int64           `json:"to_account"`
	Amount      decimal.Decimal `json:"amount"`
	Kind        Kind            `json:"kind"`
	Remark      string          `json:"remark"`
	Date        time.Time       `json:"transaction_date"`
	Time        time.Time       `json:"transaction_time"`
}

// Touches reports whether the entry involves the given account on either side.
func (e *Entry) Touches(accountNo int64) bool {
	return e.FromAccount == accountNo || e.ToAccount == accountNo
}

// ErrEntryNotFound indicates a missing history entry.
type ErrEntryNotFound struct {
	ID int64
}

func (e ErrEntryNotFound) Error() string {
	return fmt.Sprintf("transaction history entry not found: %d", e.ID)
}
