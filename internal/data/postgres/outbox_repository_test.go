package postgres

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/pashagolub/pgxmock/v3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/minibank/ledger/internal/domain/outbox"
)

func TestOutboxRepository_Create(t *testing.T) {
	ctx := context.Background()
	logger := newTestLogger()
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	repo := &OutboxRepository{querier: mock, logger: logger}

	message := &outbox.Message{
		EventID:   uuid.New(),
		Payload:   json.RawMessage(`{"kind":"TRANSFER"}`),
		Status:    outbox.StatusPending,
		CreatedAt: time.Now(),
	}

	query := `
		INSERT INTO transfer_outbox \(event_id, payload, status, attempts, created_at\)
		VALUES \(\$1, \$2, \$3, \$4, \$5\)
		RETURNING id
	`

	mock.ExpectQuery(query).
		WithArgs(message.EventID, message.Payload, message.Status, message.Attempts, message.CreatedAt).
		WillReturnRows(pgxmock.NewRows([]string{"id"}).AddRow(int64(3)))

	err = repo.Create(ctx, message)
	assert.NoError(t, err)
	assert.Equal(t, int64(3), message.ID)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestOutboxRepository_GetPending(t *testing.T) {
	ctx := context.Background()
	logger := newTestLogger()
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	repo := &OutboxRepository{querier: mock, logger: logger}

	query := `
		SELECT id, event_id, payload, status, attempts, created_at, last_attempt_at
		FROM transfer_outbox
		WHERE status = \$1
		ORDER BY created_at ASC
		LIMIT \$2
	`

	now := time.Now()
	eventID := uuid.New()
	mock.ExpectQuery(query).
		WithArgs(outbox.StatusPending, 10).
		WillReturnRows(pgxmock.NewRows([]string{"id", "event_id", "payload", "status", "attempts", "created_at", "last_attempt_at"}).
			AddRow(int64(1), eventID, json.RawMessage(`{}`), outbox.StatusPending, 0, now, (*time.Time)(nil)))

	messages, err := repo.GetPending(ctx, 10)
	require.NoError(t, err)
	require.Len(t, messages, 1)
	assert.Equal(t, eventID, messages[0].EventID)
	assert.Equal(t, outbox.StatusPending, messages[0].Status)
	assert.Nil(t, messages[0].LastAttemptAt)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestOutboxRepository_UpdateStatus(t *testing.T) {
	ctx := context.Background()
	logger := newTestLogger()
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	repo := &OutboxRepository{querier: mock, logger: logger}

	query := `
		UPDATE transfer_outbox
		SET status = \$1, last_attempt_at = \$2
		WHERE id = \$3
	`

	t.Run("success", func(t *testing.T) {
		mock.ExpectExec(query).
			WithArgs(outbox.StatusProcessed, pgxmock.AnyArg(), int64(1)).
			WillReturnResult(pgxmock.NewResult("UPDATE", 1))

		err := repo.UpdateStatus(ctx, 1, outbox.StatusProcessed)
		assert.NoError(t, err)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("missing message", func(t *testing.T) {
		mock.ExpectExec(query).
			WithArgs(outbox.StatusProcessed, pgxmock.AnyArg(), int64(99)).
			WillReturnResult(pgxmock.NewResult("UPDATE", 0))

		err := repo.UpdateStatus(ctx, 99, outbox.StatusProcessed)
		assert.ErrorIs(t, err, outbox.ErrMessageNotFound{ID: 99})
		assert.NoError(t, mock.ExpectationsWereMet())
	})
}

func TestOutboxRepository_IncrementAttempts(t *testing.T) {
	ctx := context.Background()
	logger := newTestLogger()
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	repo := &OutboxRepository{querier: mock, logger: logger}

	query := `
		UPDATE transfer_outbox
		SET attempts = attempts \+ 1, last_attempt_at = \$1
		WHERE id = \$2
	`

	mock.ExpectExec(query).
		WithArgs(pgxmock.AnyArg(), int64(1)).
		WillReturnResult(pgxmock.NewResult("UPDATE", 1))

	err = repo.IncrementAttempts(ctx, 1)
	assert.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}
