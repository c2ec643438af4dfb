package handler

import (
	"time"

	"github.com/minibank/ledger/internal/domain/account"
	"github.com/minibank/ledger/internal/domain/ledger"
	"github.com/minibank/ledger/internal/money"
)

// Monetary amounts travel as strings so exact decimal values survive the
// wire; binary floating point never touches them.

// OpenAccountRequest is the body for opening a new account.
type OpenAccountRequest struct {
	Name           string `json:"name" binding:"required"`
	Phone          string `json:"phone" binding:"required"`
	Email          string `json:"email,omitempty"`
	PIN            int    `json:"pin" binding:"required,min=1000,max=999999"`
	InitialDeposit string `json:"initial_deposit,omitempty"`
	AccountType    string `json:"account_type" binding:"required,oneof=SAVINGS CURRENT"`
}

// AccountResponse represents an account in API replies. The PIN never
// leaves the server.
type AccountResponse struct {
	AccountNo   int64  `json:"account_no"`
	Name        string `json:"name"`
	Phone       string `json:"phone"`
	Email       string `json:"email,omitempty"`
	Balance     string `json:"balance"`
	AccountType string `json:"account_type"`
	CreatedAt   string `json:"created_at"`
}

// TransferRequest is the body for moving funds. Kind selects the operation:
// TRANSFER needs both accounts, DEPOSIT only the destination, WITHDRAWAL
// only the source.
type TransferRequest struct {
	Kind        string `json:"kind" binding:"required,oneof=TRANSFER DEPOSIT WITHDRAWAL"`
	FromAccount int64  `json:"from_account,omitempty"`
	ToAccount   int64  `json:"to_account,omitempty"`
	Amount      string `json:"amount" binding:"required"`
	Remark      string `json:"remark,omitempty"`
}

// TransferResponse acknowledges a completed operation.
type TransferResponse struct {
	Kind        string `json:"kind"`
	FromAccount int64  `json:"from_account,omitempty"`
	ToAccount   int64  `json:"to_account,omitempty"`
	Amount      string `json:"amount"`
	Remark      string `json:"remark,omitempty"`
}

// EntryResponse represents one transaction-history row.
type EntryResponse struct {
	ID          int64  `json:"id"`
	FromAccount int64  `json:"from_account"`
	ToAccount   int64  `json:"to_account"`
	Amount      string `json:"amount"`
	Kind        string `json:"kind"`
	Remark      string `json:"remark,omitempty"`
	Date        string `json:"date"`
	Time        string `json:"time"`
}

// PaginationParams are the query parameters for list endpoints.
type PaginationParams struct {
	Page    int `form:"page,default=1" binding:"min=1"`
	PerPage int `form:"per_page,default=10" binding:"min=1,max=100"`
}

func mapAccountToResponse(acc *account.Account) AccountResponse {
	return AccountResponse{
		AccountNo:   acc.AccountNo,
		Name:        acc.Name,
		Phone:       acc.Phone,
		Email:       acc.Email,
		Balance:     money.Format(acc.Balance),
		AccountType: string(acc.Type),
		CreatedAt:   acc.CreatedAt.Format(time.RFC3339),
	}
}

func mapEntryToResponse(entry *ledger.Entry) EntryResponse {
	return EntryResponse{
		ID:          entry.ID,
		FromAccount: entry.FromAccount,
		ToAccount:   entry.ToAccount,
		Amount:      money.Format(entry.Amount),
		Kind:        string(entry.Kind),
		Remark:      entry.Remark,
		Date:        entry.Date.Format("2006-01-02"),
		Time:        entry.Time.Format("15:04:05"),
	}
}
