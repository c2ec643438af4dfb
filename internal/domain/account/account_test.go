package account

import (
	"errors"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNew(t *testing.T) {
	tests := []struct {
		name        string
		holderName  string
		pin         int
		balance     string
		accType     Type
		expectedErr error
	}{
		{
			name:       "valid savings account",
			holderName: "Test User",
			pin:        4321,
			balance:    "1000.50",
			accType:    TypeSavings,
		},
		{
			name:       "valid current account with six digit pin",
			holderName: "Test User",
			pin:        987654,
			balance:    "0",
			accType:    TypeCurrent,
		},
		{
			name:        "empty name",
			holderName:  "",
			pin:         4321,
			balance:     "100",
			accType:     TypeSavings,
			expectedErr: ErrEmptyName,
		},
		{
			name:        "pin too short",
			holderName:  "Test User",
			pin:         999,
			balance:     "100",
			accType:     TypeSavings,
			expectedErr: ErrInvalidPIN,
		},
		{
			name:        "pin too long",
			holderName:  "Test User",
			pin:         1000000,
			balance:     "100",
			accType:     TypeSavings,
			expectedErr: ErrInvalidPIN,
		},
		{
			name:        "unknown account type",
			holderName:  "Test User",
			pin:         4321,
			balance:     "100",
			accType:     Type("CHECKING"),
			expectedErr: ErrInvalidAccountType,
		},
		{
			name:        "negative opening balance",
			holderName:  "Test User",
			pin:         4321,
			balance:     "-0.01",
			accType:     TypeSavings,
			expectedErr: ErrInvalidAmount,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			acc, err := New(tt.holderName, "5551234567", tt.pin, decimal.RequireFromString(tt.balance), tt.accType)
			if tt.expectedErr != nil {
				assert.ErrorIs(t, err, tt.expectedErr)
				return
			}

			require.NoError(t, err)
			assert.Equal(t, tt.holderName, acc.Name)
			assert.Equal(t, tt.accType, acc.Type)
			assert.True(t, acc.Balance.Equal(decimal.RequireFromString(tt.balance)))
			// The store assigns the number on create.
			assert.Zero(t, acc.AccountNo)
		})
	}
}

func TestAccount_CheckPIN(t *testing.T) {
	acc, err := New("Test User", "5551234567", 4321, decimal.Zero, TypeSavings)
	require.NoError(t, err)

	assert.True(t, acc.CheckPIN(4321))
	assert.False(t, acc.CheckPIN(1234))
}

func TestErrAccountNotFound_Is(t *testing.T) {
	err := error(ErrAccountNotFound{AccountNo: 7})

	// Exact number matches; the zero target matches any account.
	assert.True(t, errors.Is(err, ErrAccountNotFound{AccountNo: 7}))
	assert.True(t, errors.Is(err, ErrAccountNotFound{}))
	assert.False(t, errors.Is(err, ErrAccountNotFound{AccountNo: 8}))
}
