// Package console implements the interactive terminal front end: the menu
// loops for opening accounts, logging in, and driving the transfer engine
// from a prompt. It holds no business rules; every outcome is produced by
// the engine or the repositories and rendered as a message here.
package console

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strconv"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/minibank/ledger/internal/chain"
	"github.com/minibank/ledger/internal/domain/account"
	"github.com/minibank/ledger/internal/domain/ledger"
	"github.com/minibank/ledger/internal/email"
	"github.com/minibank/ledger/internal/money"
	"github.com/minibank/ledger/internal/transfer"
)

const historyPageSize = 20

// TransferEngine is the slice of the transfer engine the console drives.
type TransferEngine interface {
	Transfer(ctx context.Context, fromNo, toNo int64, amount decimal.Decimal, remark string) error
	Deposit(ctx context.Context, toNo int64, amount decimal.Decimal, remark string) error
	Withdraw(ctx context.Context, fromNo int64, amount decimal.Decimal, remark string) error
}

// Console drives the interactive menus over any reader/writer pair, which
// keeps the loops testable without a TTY.
type Console struct {
	in       *bufio.Scanner
	out      io.Writer
	accounts account.Repository
	history  ledger.Repository
	engine   TransferEngine
	chain    *chain.Chain
	verifier *email.Verifier
	logger   *slog.Logger
}

// New creates a console. chain and verifier may be nil; the corresponding
// menu items degrade gracefully.
func New(
	logger *slog.Logger,
	in io.Reader,
	out io.Writer,
	accounts account.Repository,
	history ledger.Repository,
	engine TransferEngine,
	auditChain *chain.Chain,
	verifier *email.Verifier,
) *Console {
	return &Console{
		in:       bufio.NewScanner(in),
		out:      out,
		accounts: accounts,
		history:  history,
		engine:   engine,
		chain:    auditChain,
		verifier: verifier,
		logger:   logger,
	}
}

// Run executes the top-level menu until the user exits or input ends.
func (c *Console) Run(ctx context.Context) error {
	for {
		c.printf("\n==== MINIBANK ====\n")
		c.printf("1. Open a new account\n")
		c.printf("2. Log in\n")
		c.printf("3. Exit\n")

		choice, ok := c.prompt("Choose an option: ")
		if !ok {
			return nil
		}

		switch strings.TrimSpace(choice) {
		case "1":
			c.openAccount(ctx)
		case "2":
			acc, ok := c.login(ctx)
			if ok {
				if err := c.session(ctx, acc.AccountNo); err != nil {
					return err
				}
			}
		case "3":
			c.printf("Goodbye.\n")
			return nil
		default:
			c.printf("Unknown option.\n")
		}
	}
}

// session runs the per-account menu. Only the account number is retained
// between operations; details and balance are re-read from the store every
// time so the console never acts on stale state.
func (c *Console) session(ctx context.Context, accountNo int64) error {
	for {
		c.printf("\n---- Account %d ----\n", accountNo)
		c.printf("1. Account details\n")
		c.printf("2. Deposit\n")
		c.printf("3. Withdraw\n")
		c.printf("4. Transfer money\n")
		c.printf("5. Transaction history\n")
		c.printf("6. Change PIN\n")
		c.printf("7. Update personal info\n")
		c.printf("8. Audit chain info\n")
		c.printf("9. Log out\n")

		choice, ok := c.prompt("Choose an option: ")
		if !ok {
			return nil
		}

		switch strings.TrimSpace(choice) {
		case "1":
			c.showDetails(ctx, accountNo)
		case "2":
			c.deposit(ctx, accountNo)
		case "3":
			c.withdraw(ctx, accountNo)
		case "4":
			c.transferMoney(ctx, accountNo)
		case "5":
			c.showHistory(ctx, accountNo)
		case "6":
			c.changePIN(ctx, accountNo)
		case "7":
			c.updateInfo(ctx, accountNo)
		case "8":
			c.showChainInfo(accountNo)
		case "9":
			return nil
		default:
			c.printf("Unknown option.\n")
		}
	}
}

func (c *Console) openAccount(ctx context.Context) {
	name, ok := c.prompt("Account holder name: ")
	if !ok {
		return
	}
	phone, ok := c.prompt("Phone number: ")
	if !ok {
		return
	}
	emailAddr, ok := c.prompt("Email (optional): ")
	if !ok {
		return
	}
	emailAddr = strings.TrimSpace(emailAddr)

	if emailAddr != "" {
		result := c.verifier.Verify(ctx, emailAddr)
		if !result.Deliverable {
			c.printf("Cannot open account: email is undeliverable (%s).\n", result.Reason)
			return
		}
	}

	pin, ok := c.promptInt("Choose a PIN (4 to 6 digits): ")
	if !ok {
		return
	}

	accType := account.TypeSavings
	typeChoice, ok := c.prompt("Account type (1 = SAVINGS, 2 = CURRENT): ")
	if !ok {
		return
	}
	if strings.TrimSpace(typeChoice) == "2" {
		accType = account.TypeCurrent
	}

	deposit, ok := c.promptAmount("Initial deposit (0 for none): ")
	if !ok {
		return
	}

	acc, err := account.New(strings.TrimSpace(name), strings.TrimSpace(phone), pin, deposit, accType)
	if err != nil {
		c.printf("Cannot open account: %v\n", err)
		return
	}
	acc.Email = emailAddr

	if err := c.accounts.Create(ctx, acc); err != nil {
		c.logger.Error("account creation failed", "error", err)
		c.printf("Something went wrong while opening the account. Please try again later.\n")
		return
	}

	c.printf("Account opened. Your account number is %d.\n", acc.AccountNo)
}

func (c *Console) login(ctx context.Context) (*account.Account, bool) {
	accountNo, ok := c.promptInt64("Account number: ")
	if !ok {
		return nil, false
	}
	pin, ok := c.promptInt("PIN: ")
	if !ok {
		return nil, false
	}

	acc, err := c.accounts.GetByNo(ctx, accountNo)
	if err != nil {
		if errors.Is(err, account.ErrAccountNotFound{}) {
			c.printf("Wrong account number or PIN.\n")
			return nil, false
		}
		c.logger.Error("login lookup failed", "error", err)
		c.printf("Something went wrong. Please try again later.\n")
		return nil, false
	}
	if !acc.CheckPIN(pin) {
		c.printf("Wrong account number or PIN.\n")
		return nil, false
	}

	c.printf("Welcome, %s.\n", acc.Name)
	return acc, true
}

func (c *Console) showDetails(ctx context.Context, accountNo int64) {
	acc, err := c.accounts.GetByNo(ctx, accountNo)
	if err != nil {
		c.logger.Error("account lookup failed", "error", err)
		c.printf("Could not load account details.\n")
		return
	}

	c.printf("Account number : %d\n", acc.AccountNo)
	c.printf("Holder name    : %s\n", acc.Name)
	c.printf("Phone          : %s\n", acc.Phone)
	if acc.Email != "" {
		c.printf("Email          : %s\n", acc.Email)
	}
	c.printf("Account type   : %s\n", acc.Type)
	c.printf("Balance        : %s\n", money.Format(acc.Balance))
}

func (c *Console) deposit(ctx context.Context, accountNo int64) {
	amount, ok := c.promptPositiveAmount("Amount to deposit: ")
	if !ok {
		return
	}
	remark, ok := c.prompt("Remark (optional): ")
	if !ok {
		return
	}

	if err := c.engine.Deposit(ctx, accountNo, amount, strings.TrimSpace(remark)); err != nil {
		c.printf("%s\n", transferOutcome(err))
		return
	}
	c.printf("Deposited %s.\n", money.Format(amount))
}

func (c *Console) withdraw(ctx context.Context, accountNo int64) {
	amount, ok := c.promptPositiveAmount("Amount to withdraw: ")
	if !ok {
		return
	}
	remark, ok := c.prompt("Remark (optional): ")
	if !ok {
		return
	}

	if err := c.engine.Withdraw(ctx, accountNo, amount, strings.TrimSpace(remark)); err != nil {
		c.printf("%s\n", transferOutcome(err))
		return
	}
	c.printf("Withdrew %s.\n", money.Format(amount))
}

func (c *Console) transferMoney(ctx context.Context, accountNo int64) {
	toNo, ok := c.promptInt64("Destination account number: ")
	if !ok {
		return
	}
	if toNo == accountNo {
		c.printf("Source and destination accounts must differ.\n")
		return
	}
	amount, ok := c.promptPositiveAmount("Amount to transfer: ")
	if !ok {
		return
	}
	remark, ok := c.prompt("Remark (optional): ")
	if !ok {
		return
	}

	if err := c.engine.Transfer(ctx, accountNo, toNo, amount, strings.TrimSpace(remark)); err != nil {
		c.printf("%s\n", transferOutcome(err))
		return
	}
	c.printf("Transferred %s to account %d.\n", money.Format(amount), toNo)
}

func (c *Console) showHistory(ctx context.Context, accountNo int64) {
	entries, err := c.history.ListByAccount(ctx, accountNo, historyPageSize, 0)
	if err != nil {
		c.logger.Error("history lookup failed", "error", err)
		c.printf("Could not load transaction history.\n")
		return
	}
	if len(entries) == 0 {
		c.printf("No transactions yet.\n")
		return
	}

	c.printf("%-12s %-10s %-12s %-12s %-12s %s\n",
		"DATE", "KIND", "FROM", "TO", "AMOUNT", "REMARK")
	for _, entry := range entries {
		c.printf("%-12s %-10s %-12s %-12s %-12s %s\n",
			entry.Date.Format("2006-01-02"),
			entry.Kind,
			formatCounterparty(entry.FromAccount),
			formatCounterparty(entry.ToAccount),
			money.Format(entry.Amount),
			entry.Remark,
		)
	}
}

func (c *Console) changePIN(ctx context.Context, accountNo int64) {
	acc, err := c.accounts.GetByNo(ctx, accountNo)
	if err != nil {
		c.logger.Error("account lookup failed", "error", err)
		c.printf("Could not load the account.\n")
		return
	}

	current, ok := c.promptInt("Current PIN: ")
	if !ok {
		return
	}
	if !acc.CheckPIN(current) {
		c.printf("Wrong PIN.\n")
		return
	}

	next, ok := c.promptInt("New PIN (4 to 6 digits): ")
	if !ok {
		return
	}
	if next < 1000 || next > 999999 {
		c.printf("PIN must be 4 to 6 digits.\n")
		return
	}

	if err := c.accounts.UpdatePIN(ctx, accountNo, next); err != nil {
		c.logger.Error("pin update failed", "error", err)
		c.printf("Could not change the PIN. Please try again later.\n")
		return
	}
	c.printf("PIN changed.\n")
}

func (c *Console) updateInfo(ctx context.Context, accountNo int64) {
	acc, err := c.accounts.GetByNo(ctx, accountNo)
	if err != nil {
		c.logger.Error("account lookup failed", "error", err)
		c.printf("Could not load the account.\n")
		return
	}

	// Blank input keeps the current value.
	name, ok := c.prompt(fmt.Sprintf("Name [%s]: ", acc.Name))
	if !ok {
		return
	}
	phone, ok := c.prompt(fmt.Sprintf("Phone [%s]: ", acc.Phone))
	if !ok {
		return
	}
	emailAddr, ok := c.prompt(fmt.Sprintf("Email [%s]: ", acc.Email))
	if !ok {
		return
	}

	name = strings.TrimSpace(name)
	phone = strings.TrimSpace(phone)
	emailAddr = strings.TrimSpace(emailAddr)
	if name == "" {
		name = acc.Name
	}
	if phone == "" {
		phone = acc.Phone
	}
	if emailAddr == "" {
		emailAddr = acc.Email
	} else {
		result := c.verifier.Verify(ctx, emailAddr)
		if !result.Deliverable {
			c.printf("Email not updated: address is undeliverable (%s).\n", result.Reason)
			return
		}
	}

	if err := c.accounts.UpdateProfile(ctx, accountNo, name, phone, emailAddr); err != nil {
		c.logger.Error("profile update failed", "error", err)
		c.printf("Could not update the account. Please try again later.\n")
		return
	}
	c.printf("Account updated.\n")
}

func (c *Console) showChainInfo(accountNo int64) {
	if c.chain == nil {
		c.printf("The audit chain is not enabled.\n")
		return
	}

	if err := c.chain.Validate(); err != nil {
		c.printf("WARNING: the audit chain failed validation: %v\n", err)
	} else {
		c.printf("Audit chain valid, %d blocks sealed, %d records pending.\n",
			c.chain.Length(), c.chain.Pending())
	}

	records := c.chain.HistoryFor(accountNo)
	if len(records) == 0 {
		c.printf("No sealed records for this account yet.\n")
		return
	}
	for _, rec := range records {
		c.printf("block %d  %s -> %s  %s  %s\n",
			rec.BlockIndex, formatCounterparty(rec.From), formatCounterparty(rec.To),
			rec.Amount, rec.Remark)
	}
}

// transferOutcome renders an engine error as a user-facing message.
func transferOutcome(err error) string {
	var notFound *transfer.AccountNotFoundError
	switch {
	case errors.As(err, &notFound):
		return fmt.Sprintf("The %s account %d does not exist.", notFound.Side, notFound.AccountNo)
	case errors.Is(err, transfer.ErrInsufficientFunds):
		return "Insufficient funds in the source account."
	case transfer.Retryable(err):
		return "The accounts are busy right now. Please try again."
	default:
		return "Something went wrong. The operation was not applied."
	}
}

func formatCounterparty(accountNo int64) string {
	if accountNo == account.ExternalAccount {
		return "EXTERNAL"
	}
	return strconv.FormatInt(accountNo, 10)
}

func (c *Console) printf(format string, args ...any) {
	fmt.Fprintf(c.out, format, args...)
}

// prompt reads one line; ok is false when input is exhausted.
func (c *Console) prompt(label string) (string, bool) {
	fmt.Fprint(c.out, label)
	if !c.in.Scan() {
		return "", false
	}
	return c.in.Text(), true
}

func (c *Console) promptInt(label string) (int, bool) {
	line, ok := c.prompt(label)
	if !ok {
		return 0, false
	}
	n, err := strconv.Atoi(strings.TrimSpace(line))
	if err != nil {
		c.printf("Please enter a whole number.\n")
		return 0, false
	}
	return n, true
}

func (c *Console) promptInt64(label string) (int64, bool) {
	line, ok := c.prompt(label)
	if !ok {
		return 0, false
	}
	n, err := strconv.ParseInt(strings.TrimSpace(line), 10, 64)
	if err != nil || n <= 0 {
		c.printf("Please enter a valid account number.\n")
		return 0, false
	}
	return n, true
}

func (c *Console) promptAmount(label string) (decimal.Decimal, bool) {
	line, ok := c.prompt(label)
	if !ok {
		return decimal.Zero, false
	}
	line = strings.TrimSpace(line)
	if line == "" {
		return decimal.Zero, true
	}
	amount, err := money.Parse(line)
	if err != nil {
		c.printf("Please enter a valid amount.\n")
		return decimal.Zero, false
	}
	return amount, true
}

func (c *Console) promptPositiveAmount(label string) (decimal.Decimal, bool) {
	amount, ok := c.promptAmount(label)
	if !ok {
		return decimal.Zero, false
	}
	if !amount.IsPositive() {
		c.printf("The amount must be positive.\n")
		return decimal.Zero, false
	}
	return amount, true
}
