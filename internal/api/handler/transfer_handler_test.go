package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"os"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"

	"github.com/minibank/ledger/internal/transfer"
)

type MockTransferService struct {
	mock.Mock
}

func (m *MockTransferService) Transfer(ctx context.Context, fromNo, toNo int64, amount decimal.Decimal, remark string) error {
	args := m.Called(ctx, fromNo, toNo, amount, remark)
	return args.Error(0)
}

func (m *MockTransferService) Deposit(ctx context.Context, toNo int64, amount decimal.Decimal, remark string) error {
	args := m.Called(ctx, toNo, amount, remark)
	return args.Error(0)
}

func (m *MockTransferService) Withdraw(ctx context.Context, fromNo int64, amount decimal.Decimal, remark string) error {
	args := m.Called(ctx, fromNo, amount, remark)
	return args.Error(0)
}

func setupTestRouter() *gin.Engine {
	gin.SetMode(gin.TestMode)
	return gin.New()
}

func postTransfer(t *testing.T, handler *TransferHandler, body TransferRequest) *httptest.ResponseRecorder {
	t.Helper()
	router := setupTestRouter()
	router.POST("/transfers", handler.Create)

	jsonBody, err := json.Marshal(body)
	if err != nil {
		t.Fatalf("marshal request: %v", err)
	}

	req, _ := http.NewRequest(http.MethodPost, "/transfers", bytes.NewBuffer(jsonBody))
	req.Header.Set("Content-Type", "application/json")
	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, req)
	return rr
}

func TestTransferHandler_Create(t *testing.T) {
	logger := slog.New(slog.NewJSONHandler(os.Stdout, nil))

	amount := decimal.RequireFromString("250.75")

	t.Run("successful transfer", func(t *testing.T) {
		mockService := new(MockTransferService)
		handler := NewTransferHandler(logger, mockService)

		mockService.On("Transfer", mock.Anything, int64(1), int64(2), amount, "rent").Return(nil)

		rr := postTransfer(t, handler, TransferRequest{
			Kind:        "TRANSFER",
			FromAccount: 1,
			ToAccount:   2,
			Amount:      "250.75",
			Remark:      "rent",
		})

		assert.Equal(t, http.StatusOK, rr.Code)

		var response Response
		assert.NoError(t, json.Unmarshal(rr.Body.Bytes(), &response))
		assert.Nil(t, response.Error)
		mockService.AssertExpectations(t)
	})

	t.Run("deposit routes to the engine deposit", func(t *testing.T) {
		mockService := new(MockTransferService)
		handler := NewTransferHandler(logger, mockService)

		mockService.On("Deposit", mock.Anything, int64(5), amount, "").Return(nil)

		rr := postTransfer(t, handler, TransferRequest{
			Kind:      "DEPOSIT",
			ToAccount: 5,
			Amount:    "250.75",
		})

		assert.Equal(t, http.StatusOK, rr.Code)
		mockService.AssertExpectations(t)
	})

	t.Run("missing account maps to 404", func(t *testing.T) {
		mockService := new(MockTransferService)
		handler := NewTransferHandler(logger, mockService)

		mockService.On("Transfer", mock.Anything, int64(1), int64(9), amount, "").
			Return(&transfer.AccountNotFoundError{AccountNo: 9, Side: transfer.SideDestination})

		rr := postTransfer(t, handler, TransferRequest{
			Kind:        "TRANSFER",
			FromAccount: 1,
			ToAccount:   9,
			Amount:      "250.75",
		})

		assert.Equal(t, http.StatusNotFound, rr.Code)
	})

	t.Run("insufficient funds maps to 422", func(t *testing.T) {
		mockService := new(MockTransferService)
		handler := NewTransferHandler(logger, mockService)

		mockService.On("Transfer", mock.Anything, int64(1), int64(2), amount, "").
			Return(transfer.ErrInsufficientFunds)

		rr := postTransfer(t, handler, TransferRequest{
			Kind:        "TRANSFER",
			FromAccount: 1,
			ToAccount:   2,
			Amount:      "250.75",
		})

		assert.Equal(t, http.StatusUnprocessableEntity, rr.Code)

		var response Response
		assert.NoError(t, json.Unmarshal(rr.Body.Bytes(), &response))
		assert.Equal(t, "INSUFFICIENT_FUNDS", response.Error.Code)
	})

	t.Run("lock timeout maps to 503 with retry header", func(t *testing.T) {
		mockService := new(MockTransferService)
		handler := NewTransferHandler(logger, mockService)

		mockService.On("Transfer", mock.Anything, int64(1), int64(2), amount, "").
			Return(transfer.ErrLockTimeout)

		rr := postTransfer(t, handler, TransferRequest{
			Kind:        "TRANSFER",
			FromAccount: 1,
			ToAccount:   2,
			Amount:      "250.75",
		})

		assert.Equal(t, http.StatusServiceUnavailable, rr.Code)
		assert.Equal(t, "1", rr.Header().Get("Retry-After"))
	})

	t.Run("rejects malformed amount", func(t *testing.T) {
		mockService := new(MockTransferService)
		handler := NewTransferHandler(logger, mockService)

		rr := postTransfer(t, handler, TransferRequest{
			Kind:        "TRANSFER",
			FromAccount: 1,
			ToAccount:   2,
			Amount:      "12.3.4",
		})

		assert.Equal(t, http.StatusBadRequest, rr.Code)
		mockService.AssertNotCalled(t, "Transfer", mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything)
	})

	t.Run("rejects non-positive amount", func(t *testing.T) {
		mockService := new(MockTransferService)
		handler := NewTransferHandler(logger, mockService)

		rr := postTransfer(t, handler, TransferRequest{
			Kind:        "TRANSFER",
			FromAccount: 1,
			ToAccount:   2,
			Amount:      "-5.00",
		})

		assert.Equal(t, http.StatusBadRequest, rr.Code)
	})

	t.Run("rejects self transfer", func(t *testing.T) {
		mockService := new(MockTransferService)
		handler := NewTransferHandler(logger, mockService)

		rr := postTransfer(t, handler, TransferRequest{
			Kind:        "TRANSFER",
			FromAccount: 1,
			ToAccount:   1,
			Amount:      "5.00",
		})

		assert.Equal(t, http.StatusBadRequest, rr.Code)
		mockService.AssertNotCalled(t, "Transfer", mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything)
	})

	t.Run("rejects withdrawal without source account", func(t *testing.T) {
		mockService := new(MockTransferService)
		handler := NewTransferHandler(logger, mockService)

		rr := postTransfer(t, handler, TransferRequest{
			Kind:   "WITHDRAWAL",
			Amount: "5.00",
		})

		assert.Equal(t, http.StatusBadRequest, rr.Code)
	})
}
