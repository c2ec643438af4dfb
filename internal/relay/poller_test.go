package relay

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"testing"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/minibank/ledger/internal/config"
	"github.com/minibank/ledger/internal/domain/ledger"
	"github.com/minibank/ledger/internal/domain/outbox"
)

// MockOutboxRepo for testing
type MockOutboxRepo struct {
	mock.Mock
}

func (m *MockOutboxRepo) Create(ctx context.Context, message *outbox.Message) error {
	args := m.Called(ctx, message)
	return args.Error(0)
}

func (m *MockOutboxRepo) GetPending(ctx context.Context, limit int) ([]*outbox.Message, error) {
	args := m.Called(ctx, limit)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*outbox.Message), args.Error(1)
}

func (m *MockOutboxRepo) UpdateStatus(ctx context.Context, id int64, status outbox.Status) error {
	args := m.Called(ctx, id, status)
	return args.Error(0)
}

func (m *MockOutboxRepo) IncrementAttempts(ctx context.Context, id int64) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}

func (m *MockOutboxRepo) WithTx(tx pgx.Tx) outbox.Repository {
	return m
}

// MockPublisher for testing
type MockPublisher struct {
	mock.Mock
}

func (m *MockPublisher) Publish(ctx context.Context, key string, value interface{}) error {
	args := m.Called(ctx, key, value)
	return args.Error(0)
}

func newTestPoller(t *testing.T, repo outbox.Repository, publisher EventPublisher) *Poller {
	t.Helper()
	cfg := &config.OutboxConfig{
		PollingInterval:  time.Second,
		BatchSize:        10,
		MaxRetryAttempts: 3,
	}
	poller, err := NewPoller(cfg, 4, repo, publisher, slog.Default())
	require.NoError(t, err)
	t.Cleanup(poller.Shutdown)
	return poller
}

func pendingMessage(t *testing.T, id int64, attempts int) *outbox.Message {
	t.Helper()
	entry := &ledger.Entry{FromAccount: 1, ToAccount: 2, Kind: ledger.KindTransfer}
	payload, err := json.Marshal(entry)
	require.NoError(t, err)

	msg, err := outbox.NewMessage(entry)
	require.NoError(t, err)
	msg.ID = id
	msg.Payload = payload
	msg.Attempts = attempts
	return msg
}

func TestPoller_ProcessPendingMessages(t *testing.T) {
	ctx := context.Background()

	t.Run("publishes every pending message and marks it processed", func(t *testing.T) {
		mockRepo := &MockOutboxRepo{}
		mockPublisher := &MockPublisher{}
		poller := newTestPoller(t, mockRepo, mockPublisher)

		message1 := pendingMessage(t, 1, 0)
		message2 := pendingMessage(t, 2, 0)

		mockRepo.On("GetPending", mock.Anything, 10).Return([]*outbox.Message{message1, message2}, nil).Once()
		mockPublisher.On("Publish", mock.Anything, message1.EventID.String(), mock.Anything).Return(nil).Once()
		mockPublisher.On("Publish", mock.Anything, message2.EventID.String(), mock.Anything).Return(nil).Once()
		mockRepo.On("UpdateStatus", mock.Anything, int64(1), outbox.StatusProcessed).Return(nil).Once()
		mockRepo.On("UpdateStatus", mock.Anything, int64(2), outbox.StatusProcessed).Return(nil).Once()

		err := poller.processPendingMessages(ctx)
		assert.NoError(t, err)
		mockRepo.AssertExpectations(t)
		mockPublisher.AssertExpectations(t)
	})

	t.Run("no pending messages is a no-op", func(t *testing.T) {
		mockRepo := &MockOutboxRepo{}
		mockPublisher := &MockPublisher{}
		poller := newTestPoller(t, mockRepo, mockPublisher)

		mockRepo.On("GetPending", mock.Anything, 10).Return([]*outbox.Message{}, nil).Once()

		err := poller.processPendingMessages(ctx)
		assert.NoError(t, err)
		mockRepo.AssertExpectations(t)
		mockPublisher.AssertNotCalled(t, "Publish", mock.Anything, mock.Anything, mock.Anything)
	})

	t.Run("surfaces the fetch error", func(t *testing.T) {
		mockRepo := &MockOutboxRepo{}
		mockPublisher := &MockPublisher{}
		poller := newTestPoller(t, mockRepo, mockPublisher)

		mockRepo.On("GetPending", mock.Anything, 10).Return(nil, errors.New("db error")).Once()

		err := poller.processPendingMessages(ctx)
		assert.ErrorContains(t, err, "failed to get pending outbox messages")
		mockRepo.AssertExpectations(t)
	})
}

func TestPoller_RelayMessage(t *testing.T) {
	ctx := context.Background()

	t.Run("publish failure increments the attempt counter", func(t *testing.T) {
		mockRepo := &MockOutboxRepo{}
		mockPublisher := &MockPublisher{}
		poller := newTestPoller(t, mockRepo, mockPublisher)

		msg := pendingMessage(t, 7, 0)

		mockPublisher.On("Publish", mock.Anything, msg.EventID.String(), mock.Anything).Return(errors.New("broker down")).Once()
		mockRepo.On("IncrementAttempts", mock.Anything, int64(7)).Return(nil).Once()

		poller.relayMessage(ctx, msg)
		mockRepo.AssertExpectations(t)
		mockRepo.AssertNotCalled(t, "UpdateStatus", mock.Anything, mock.Anything, mock.Anything)
	})

	t.Run("parks the message after the final attempt", func(t *testing.T) {
		mockRepo := &MockOutboxRepo{}
		mockPublisher := &MockPublisher{}
		poller := newTestPoller(t, mockRepo, mockPublisher)

		msg := pendingMessage(t, 8, 2) // third and final attempt

		mockPublisher.On("Publish", mock.Anything, msg.EventID.String(), mock.Anything).Return(errors.New("broker down")).Once()
		mockRepo.On("IncrementAttempts", mock.Anything, int64(8)).Return(nil).Once()
		mockRepo.On("UpdateStatus", mock.Anything, int64(8), outbox.StatusFailedToPublish).Return(nil).Once()

		poller.relayMessage(ctx, msg)
		mockRepo.AssertExpectations(t)
	})

	t.Run("parks an undecodable payload without publishing", func(t *testing.T) {
		mockRepo := &MockOutboxRepo{}
		mockPublisher := &MockPublisher{}
		poller := newTestPoller(t, mockRepo, mockPublisher)

		msg := pendingMessage(t, 9, 0)
		msg.Payload = json.RawMessage(`{not json`)

		mockRepo.On("UpdateStatus", mock.Anything, int64(9), outbox.StatusFailedToPublish).Return(nil).Once()

		poller.relayMessage(ctx, msg)
		mockRepo.AssertExpectations(t)
		mockPublisher.AssertNotCalled(t, "Publish", mock.Anything, mock.Anything, mock.Anything)
	})
}
