package service

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/shopspring/decimal"

	"github.com/minibank/ledger/internal/domain/account"
	"github.com/minibank/ledger/internal/domain/ledger"
	"github.com/minibank/ledger/internal/email"
)

// ErrUndeliverableEmail rejects account opening when verification marks the
// address undeliverable.
type ErrUndeliverableEmail struct {
	Email  string
	Reason string
}

func (e ErrUndeliverableEmail) Error() string {
	return fmt.Sprintf("email address %s is undeliverable: %s", e.Email, e.Reason)
}

// AccountServiceImpl implements the AccountService interface.
type AccountServiceImpl struct {
	accountRepo account.Repository
	historyRepo ledger.Repository
	verifier    *email.Verifier
	logger      *slog.Logger
}

// NewAccountService creates a new account service. verifier may be nil when
// email verification is not configured.
func NewAccountService(logger *slog.Logger, accountRepo account.Repository, historyRepo ledger.Repository, verifier *email.Verifier) AccountService {
	return &AccountServiceImpl{
		accountRepo: accountRepo,
		historyRepo: historyRepo,
		verifier:    verifier,
		logger:      logger,
	}
}

// OpenAccount validates the opening parameters and persists a new account.
// The store assigns the account number.
func (s *AccountServiceImpl) OpenAccount(ctx context.Context, name, phone, emailAddr string, pin int, initialDeposit decimal.Decimal, accType account.Type) (*account.Account, error) {
	if emailAddr != "" {
		result := s.verifier.Verify(ctx, emailAddr)
		if !result.Deliverable {
			return nil, ErrUndeliverableEmail{Email: emailAddr, Reason: result.Reason}
		}
		s.logger.Debug("email address checked", "email", emailAddr, "reason", result.Reason)
	}

	acc, err := account.New(name, phone, pin, initialDeposit, accType)
	if err != nil {
		return nil, err
	}
	acc.Email = emailAddr

	if err := s.accountRepo.Create(ctx, acc); err != nil {
		return nil, err
	}

	return acc, nil
}

// GetAccount retrieves an account by number.
func (s *AccountServiceImpl) GetAccount(ctx context.Context, accountNo int64) (*account.Account, error) {
	return s.accountRepo.GetByNo(ctx, accountNo)
}

// GetStatement returns one page of history for the account, newest first.
// The account is checked first so a missing account is distinguishable from
// one with no transactions yet.
func (s *AccountServiceImpl) GetStatement(ctx context.Context, accountNo int64, page, perPage int) ([]*ledger.Entry, int64, error) {
	exists, err := s.accountRepo.Exists(ctx, accountNo)
	if err != nil {
		return nil, 0, err
	}
	if !exists {
		return nil, 0, account.ErrAccountNotFound{AccountNo: accountNo}
	}

	offset := (page - 1) * perPage
	entries, err := s.historyRepo.ListByAccount(ctx, accountNo, perPage, offset)
	if err != nil {
		return nil, 0, err
	}

	total, err := s.historyRepo.CountByAccount(ctx, accountNo)
	if err != nil {
		return nil, 0, err
	}

	return entries, total, nil
}
