package postgres

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/jackc/pgx/v5"

	"github.com/minibank/ledger/internal/domain/ledger"
	"github.com/minibank/ledger/internal/platform/persistence"
)

// LedgerRepository implements the ledger.Repository interface for PostgreSQL.
// The backing table is append-only: entries are inserted once and never
// updated or deleted.
type LedgerRepository struct {
	querier persistence.Querier
	logger  *slog.Logger
}

// NewLedgerRepository creates a new PostgreSQL transaction-history repository
func NewLedgerRepository(logger *slog.Logger, db *persistence.PostgresDB) ledger.Repository {
	return &LedgerRepository{
		querier: db.Pool(),
		logger:  logger,
	}
}

// WithTx wraps the repository with a transaction so that the history entry
// commits or rolls back together with the balance writes it describes.
func (r *LedgerRepository) WithTx(tx pgx.Tx) ledger.Repository {
	return &LedgerRepository{
		querier: tx,
		logger:  r.logger,
	}
}

// Append inserts one immutable history entry and fills in its sequence number.
func (r *LedgerRepository) Append(ctx context.Context, entry *ledger.Entry) error {
	query := `
		INSERT INTO transaction_history (from_account, to_account, amount, kind, remark, transaction_date, transaction_time)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING id
	`

	err := r.querier.QueryRow(ctx, query,
		entry.FromAccount,
		entry.ToAccount,
		entry.Amount,
		entry.Kind,
		entry.Remark,
		entry.Date,
		entry.Time,
	).Scan(&entry.ID)
	if err != nil {
		r.logger.Error("Failed to append history entry",
			"from_account", entry.FromAccount,
			"to_account", entry.ToAccount,
			"error", err,
		)
		return fmt.Errorf("failed to append history entry: %w", err)
	}

	return nil
}

// ListByAccount retrieves paginated history entries touching an account,
// newest first.
func (r *LedgerRepository) ListByAccount(ctx context.Context, accountNo int64, limit, offset int) ([]*ledger.Entry, error) {
	query := `
		SELECT id, from_account, to_account, amount, kind, remark, transaction_date, transaction_time
		FROM transaction_history
		WHERE from_account = $1 OR to_account = $1
		ORDER BY transaction_date DESC, transaction_time DESC, id DESC
		LIMIT $2 OFFSET $3
	`

	rows, err := r.querier.Query(ctx, query, accountNo, limit, offset)
	if err != nil {
		r.logger.Error("Failed to list history entries", "account_no", accountNo, "error", err)
		return nil, fmt.Errorf("failed to list history entries: %w", err)
	}
	defer rows.Close()

	var entries []*ledger.Entry
	for rows.Next() {
		var entry ledger.Entry
		err := rows.Scan(
			&entry.ID,
			&entry.FromAccount,
			&entry.ToAccount,
			&entry.Amount,
			&entry.Kind,
			&entry.Remark,
			&entry.Date,
			&entry.Time,
		)
		if err != nil {
			r.logger.Error("Failed to scan history entry", "error", err)
			return nil, fmt.Errorf("failed to scan history entry: %w", err)
		}
		entries = append(entries, &entry)
	}

	if err := rows.Err(); err != nil {
		r.logger.Error("Error iterating over history entries", "error", err)
		return nil, fmt.Errorf("error iterating over history entries: %w", err)
	}

	return entries, nil
}

// CountByAccount counts history entries touching an account.
func (r *LedgerRepository) CountByAccount(ctx context.Context, accountNo int64) (int64, error) {
	query := `
		SELECT COUNT(*)
		FROM transaction_history
		WHERE from_account = $1 OR to_account = $1
	`

	var count int64
	if err := r.querier.QueryRow(ctx, query, accountNo).Scan(&count); err != nil {
		r.logger.Error("Failed to count history entries", "account_no", accountNo, "error", err)
		return 0, fmt.Errorf("failed to count history entries: %w", err)
	}

	return count, nil
}
