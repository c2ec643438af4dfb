// Package relay moves committed transfer events from the transactional
// outbox to Kafka. The poller fetches pending batches on an interval and
// publishes them through a bounded worker pool; failures increment the
// attempt counter until the message is parked as failed-to-publish.
package relay

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/panjf2000/ants/v2"

	"github.com/minibank/ledger/internal/config"
	"github.com/minibank/ledger/internal/domain/outbox"
)

// EventPublisher publishes one transfer event to the message broker.
type EventPublisher interface {
	Publish(ctx context.Context, key string, value interface{}) error
}

// Poller processes pending outbox messages
type Poller struct {
	outboxRepo       outbox.Repository
	publisher        EventPublisher
	pool             *ants.Pool
	logger           *slog.Logger
	pollInterval     time.Duration
	batchSize        int
	maxRetryAttempts int
}

// NewPoller creates a relay poller backed by a worker pool of the given size.
func NewPoller(
	cfg *config.OutboxConfig,
	poolSize int,
	outboxRepo outbox.Repository,
	publisher EventPublisher,
	logger *slog.Logger,
) (*Poller, error) {
	pool, err := ants.NewPool(poolSize)
	if err != nil {
		return nil, fmt.Errorf("failed to create relay worker pool: %w", err)
	}

	return &Poller{
		outboxRepo:       outboxRepo,
		publisher:        publisher,
		pool:             pool,
		logger:           logger,
		pollInterval:     cfg.PollingInterval,
		batchSize:        cfg.BatchSize,
		maxRetryAttempts: cfg.MaxRetryAttempts,
	}, nil
}

// Start begins polling until the context is canceled.
func (p *Poller) Start(ctx context.Context) {
	p.logger.Info("Starting outbox relay",
		"poll_interval", p.pollInterval.String(),
		"batch_size", p.batchSize,
		"max_retry_attempts", p.maxRetryAttempts,
		"workers", p.pool.Cap(),
	)
	ticker := time.NewTicker(p.pollInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			p.logger.Info("Outbox relay stopping due to context cancellation.")
			return
		case <-ticker.C:
			if err := p.processPendingMessages(ctx); err != nil {
				p.logger.Error("Error during batch processing of pending outbox messages", "error", err)
			}
		}
	}
}

// Shutdown releases the worker pool.
func (p *Poller) Shutdown() {
	p.logger.Info("Shutting down outbox relay worker pool", "running_workers", p.pool.Running())
	p.pool.Release()
}

func (p *Poller) processPendingMessages(ctx context.Context) error {
	messages, err := p.outboxRepo.GetPending(ctx, p.batchSize)
	if err != nil {
		return fmt.Errorf("failed to get pending outbox messages: %w", err)
	}

	if len(messages) == 0 {
		return nil
	}

	p.logger.Info("Fetched pending outbox messages", "count", len(messages))

	var wg sync.WaitGroup
	for _, msg := range messages {
		msg := msg
		wg.Add(1)
		if err := p.pool.Submit(func() {
			defer wg.Done()
			p.relayMessage(ctx, msg)
		}); err != nil {
			wg.Done()
			p.logger.Error("Failed to submit outbox message to worker pool", "outbox_id", msg.ID, "error", err)
		}
	}
	wg.Wait()

	return nil
}

// relayMessage publishes one message and records the outcome. Ordering
// within a batch is not guaranteed across workers; consumers key on the
// event ID, not on arrival order.
func (p *Poller) relayMessage(ctx context.Context, msg *outbox.Message) {
	entry, err := msg.Entry()
	if err != nil {
		p.logger.Error("Failed to decode outbox payload, parking message",
			"outbox_id", msg.ID, "event_id", msg.EventID, "error", err,
		)
		if updateErr := p.outboxRepo.UpdateStatus(ctx, msg.ID, outbox.StatusFailedToPublish); updateErr != nil {
			p.logger.Error("Failed to park undecodable outbox message", "outbox_id", msg.ID, "error", updateErr)
		}
		return
	}

	if err := p.publisher.Publish(ctx, msg.EventID.String(), entry); err != nil {
		p.logger.Error("Failed to publish outbox message",
			"outbox_id", msg.ID, "event_id", msg.EventID, "current_attempts", msg.Attempts, "error", err,
		)

		if errInc := p.outboxRepo.IncrementAttempts(ctx, msg.ID); errInc != nil {
			p.logger.Error("Failed to increment attempts for outbox message", "outbox_id", msg.ID, "error", errInc)
			return
		}

		if msg.Attempts+1 >= p.maxRetryAttempts {
			p.logger.Warn("Max retry attempts reached, marking as FAILED_TO_PUBLISH",
				"outbox_id", msg.ID, "event_id", msg.EventID, "attempts_made", msg.Attempts+1,
			)
			if errUpdate := p.outboxRepo.UpdateStatus(ctx, msg.ID, outbox.StatusFailedToPublish); errUpdate != nil {
				p.logger.Error("Failed to update outbox status after max retries", "outbox_id", msg.ID, "error", errUpdate)
			}
		}
		return
	}

	if err := p.outboxRepo.UpdateStatus(ctx, msg.ID, outbox.StatusProcessed); err != nil {
		p.logger.Error("Published but failed to mark outbox message as PROCESSED",
			"outbox_id", msg.ID, "event_id", msg.EventID, "error", err,
		)
		return
	}

	p.logger.Info("Outbox message published", "outbox_id", msg.ID, "event_id", msg.EventID)
}
