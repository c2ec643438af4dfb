package account

import (
	"errors"
	"fmt"
	"time"

	"github.com/shopspring/decimal"
)

// Common errors
var (
	ErrInvalidAmount      = errors.New("amount must be positive")
	ErrEmptyName          = errors.New("account holder name cannot be empty")
	ErrInvalidPIN         = errors.New("pin must be 4 to 6 digits")
	ErrInvalidAccountType = errors.New("account type must be SAVINGS or CURRENT")
)

// Type is the account category.
type Type string

const (
	TypeSavings Type = "SAVINGS"
	TypeCurrent Type = "CURRENT"
)

// ExternalAccount is the sentinel counterparty for deposits and withdrawals.
// A reserved row with this number exists in the store so history foreign keys
// stay valid; it is never locked and never carries a balance.
const ExternalAccount int64 = 0

// Account represents a bank account row. AccountNo is assigned by the store
// on creation and never reused. Balance is authoritative only inside a
// transfer-engine unit of work; the engine never caches it across calls.
type Account struct {
	AccountNo int64           `json:"account_no"`
	Name      string          `json:"name"`
	Phone     string          `json:"phone"`
	Email     string          `json:"email,omitempty"`
	PIN       int             `json:"-"`
	Balance   decimal.Decimal `json:"balance"`
	Type      Type            `json:"account_type"`
	CreatedAt time.Time       `json:"created_at"`
}

// New validates the opening parameters and builds an account with the given
// initial balance. The account number is filled in by Repository.Create.
func New(name, phone string, pin int, initialBalance decimal.Decimal, accType Type) (*Account, error) {
	if name == "" {
		return nil, ErrEmptyName
	}
	if pin < 1000 || pin > 999999 {
		return nil, ErrInvalidPIN
	}
	if accType != TypeSavings && accType != TypeCurrent {
		return nil, ErrInvalidAccountType
	}
	if initialBalance.IsNegative() {
		return nil, ErrInvalidAmount
	}

	return &Account{
		Name:      name,
		Phone:     phone,
		PIN:       pin,
		Balance:   initialBalance,
		Type:      accType,
		CreatedAt: time.Now(),
	}, nil
}

// CheckPIN reports whether the supplied PIN matches.
func (a *Account) CheckPIN(pin int) bool {
	return a.PIN == pin
}

// ErrAccountNotFound indicates a missing account. Callers must treat it as
// distinct from an account whose balance happens to be zero.
type ErrAccountNotFound struct {
	AccountNo int64
}

func (e ErrAccountNotFound) Error() string {
	return fmt.Sprintf("account not found: %d", e.AccountNo)
}

// Is matches any ErrAccountNotFound when the target carries account number 0.
func (e ErrAccountNotFound) Is(target error) bool {
	t, ok := target.(ErrAccountNotFound)
	if !ok {
		return false
	}
	return t.AccountNo == 0 || t.AccountNo == e.AccountNo
}
