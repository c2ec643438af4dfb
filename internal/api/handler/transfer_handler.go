package handler

import (
	"errors"
	"log/slog"

	"github.com/gin-gonic/gin"

	"github.com/minibank/ledger/internal/api/service"
	"github.com/minibank/ledger/internal/domain/ledger"
	"github.com/minibank/ledger/internal/money"
	"github.com/minibank/ledger/internal/transfer"
)

// TransferHandler handles HTTP requests for transfers, deposits, and
// withdrawals. It enforces the engine's input preconditions (positive
// amount, distinct accounts) before invoking it.
type TransferHandler struct {
	transferService service.TransferService
	logger          *slog.Logger
}

// NewTransferHandler creates a new transfer handler.
func NewTransferHandler(logger *slog.Logger, transferService service.TransferService) *TransferHandler {
	return &TransferHandler{
		transferService: transferService,
		logger:          logger,
	}
}

// Create executes one balance-mutating operation. The reply status encodes
// the outcome: 200 success, 404 missing account, 422 insufficient funds,
// 503 lock timeout (retryable), 500 storage failure.
func (h *TransferHandler) Create(c *gin.Context) {
	var req TransferRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.logger.Error("Invalid request body", "error", err)
		RespondBadRequest(c, "Invalid request body: "+err.Error())
		return
	}

	amount, err := money.Parse(req.Amount)
	if err != nil {
		RespondBadRequest(c, "Invalid amount: "+err.Error())
		return
	}
	if !amount.IsPositive() {
		RespondBadRequest(c, "Amount must be positive")
		return
	}

	ctx := c.Request.Context()
	switch ledger.Kind(req.Kind) {
	case ledger.KindTransfer:
		if req.FromAccount <= 0 || req.ToAccount <= 0 {
			RespondBadRequest(c, "Transfer requires both from_account and to_account")
			return
		}
		if req.FromAccount == req.ToAccount {
			RespondBadRequest(c, "Source and destination accounts must differ")
			return
		}
		err = h.transferService.Transfer(ctx, req.FromAccount, req.ToAccount, amount, req.Remark)
	case ledger.KindDeposit:
		if req.ToAccount <= 0 {
			RespondBadRequest(c, "Deposit requires to_account")
			return
		}
		err = h.transferService.Deposit(ctx, req.ToAccount, amount, req.Remark)
	case ledger.KindWithdrawal:
		if req.FromAccount <= 0 {
			RespondBadRequest(c, "Withdrawal requires from_account")
			return
		}
		err = h.transferService.Withdraw(ctx, req.FromAccount, amount, req.Remark)
	}

	if err != nil {
		h.respondTransferError(c, err)
		return
	}

	RespondOK(c, TransferResponse{
		Kind:        req.Kind,
		FromAccount: req.FromAccount,
		ToAccount:   req.ToAccount,
		Amount:      money.Format(amount),
		Remark:      req.Remark,
	})
}

// respondTransferError maps the engine taxonomy to HTTP statuses.
func (h *TransferHandler) respondTransferError(c *gin.Context, err error) {
	var notFound *transfer.AccountNotFoundError
	switch {
	case errors.As(err, &notFound):
		RespondNotFound(c, notFound.Error())
	case errors.Is(err, transfer.ErrInsufficientFunds):
		RespondUnprocessable(c, "INSUFFICIENT_FUNDS", err.Error())
	case transfer.Retryable(err):
		RespondRetryLater(c, err.Error())
	default:
		h.logger.Error("Transfer failed", "error", err)
		RespondInternalError(c)
	}
}
