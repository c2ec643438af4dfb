package handler

import (
	"errors"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"

	"github.com/minibank/ledger/internal/api/service"
	"github.com/minibank/ledger/internal/domain/account"
	"github.com/minibank/ledger/internal/money"
)

// AccountHandler handles HTTP requests for account operations.
type AccountHandler struct {
	accountService service.AccountService
	logger         *slog.Logger
}

// NewAccountHandler creates a new account handler.
func NewAccountHandler(logger *slog.Logger, accountService service.AccountService) *AccountHandler {
	return &AccountHandler{
		accountService: accountService,
		logger:         logger,
	}
}

// Open handles account opening, validating the request body and the
// initial deposit amount.
func (h *AccountHandler) Open(c *gin.Context) {
	var req OpenAccountRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.logger.Error("Invalid request body", "error", err)
		RespondBadRequest(c, "Invalid request body: "+err.Error())
		return
	}

	initialDeposit := decimal.Zero
	if req.InitialDeposit != "" {
		var err error
		initialDeposit, err = money.Parse(req.InitialDeposit)
		if err != nil {
			RespondBadRequest(c, "Invalid initial deposit: "+err.Error())
			return
		}
	}

	acc, err := h.accountService.OpenAccount(c.Request.Context(),
		req.Name, req.Phone, req.Email, req.PIN, initialDeposit, account.Type(req.AccountType))
	if err != nil {
		var undeliverable service.ErrUndeliverableEmail
		if errors.As(err, &undeliverable) {
			h.logger.Warn("Rejected undeliverable email address", "email", undeliverable.Email)
			RespondUnprocessable(c, "UNDELIVERABLE_EMAIL", undeliverable.Error())
			return
		}
		if errors.Is(err, account.ErrEmptyName) || errors.Is(err, account.ErrInvalidPIN) ||
			errors.Is(err, account.ErrInvalidAccountType) || errors.Is(err, account.ErrInvalidAmount) {
			RespondBadRequest(c, err.Error())
			return
		}
		h.logger.Error("Failed to open account", "error", err)
		RespondInternalError(c)
		return
	}

	RespondCreated(c, mapAccountToResponse(acc))
}

// Get retrieves an account by number, returning 404 if not found.
func (h *AccountHandler) Get(c *gin.Context) {
	accountNo, ok := h.accountNoParam(c)
	if !ok {
		return
	}

	acc, err := h.accountService.GetAccount(c.Request.Context(), accountNo)
	if err != nil {
		if errors.Is(err, account.ErrAccountNotFound{}) {
			RespondNotFound(c, "Account not found")
			return
		}
		h.logger.Error("Failed to get account", "account_no", accountNo, "error", err)
		RespondInternalError(c)
		return
	}

	RespondOK(c, mapAccountToResponse(acc))
}

// Statement retrieves one page of the account's transaction history.
func (h *AccountHandler) Statement(c *gin.Context) {
	accountNo, ok := h.accountNoParam(c)
	if !ok {
		return
	}

	var params PaginationParams
	if err := c.ShouldBindQuery(&params); err != nil {
		RespondBadRequest(c, "Invalid pagination parameters: "+err.Error())
		return
	}

	entries, total, err := h.accountService.GetStatement(c.Request.Context(), accountNo, params.Page, params.PerPage)
	if err != nil {
		if errors.Is(err, account.ErrAccountNotFound{}) {
			RespondNotFound(c, "Account not found")
			return
		}
		h.logger.Error("Failed to get statement", "account_no", accountNo, "error", err)
		RespondInternalError(c)
		return
	}

	responses := make([]EntryResponse, 0, len(entries))
	for _, entry := range entries {
		responses = append(responses, mapEntryToResponse(entry))
	}

	RespondWithPaginatedData(c, http.StatusOK, responses, params.Page, params.PerPage, total)
}

func (h *AccountHandler) accountNoParam(c *gin.Context) (int64, bool) {
	param := c.Param("no")
	accountNo, err := strconv.ParseInt(param, 10, 64)
	if err != nil || accountNo <= 0 {
		RespondBadRequest(c, "Invalid account number")
		return 0, false
	}
	return accountNo, true
}
