// Package messaging provides the Kafka producer for committed transfer
// events. Publishing sits strictly outside the transfer unit of work: events
// reach Kafka through the transactional outbox, never directly.
package messaging

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"

	"github.com/segmentio/kafka-go"

	"github.com/minibank/ledger/internal/config"
)

// KafkaWriter abstracts the kafka-go writer for testability
type KafkaWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

// TransferEventProducer publishes transfer events to the configured topic.
type TransferEventProducer struct {
	logger *slog.Logger
	writer KafkaWriter
	topic  string
}

// NewTransferEventProducer creates a producer and ensures the topic exists.
func NewTransferEventProducer(ctx context.Context, logger *slog.Logger, cfg *config.KafkaConfig) (*TransferEventProducer, error) {
	if cfg.TransferEventTopic == "" {
		return nil, fmt.Errorf("kafka transfer event topic is not configured")
	}

	conn, err := kafka.Dial("tcp", cfg.Brokers)
	if err != nil {
		return nil, fmt.Errorf("failed to dial kafka for transfer event producer: %w", err)
	}
	defer conn.Close()

	err = createKafkaTopicIfNotExists(conn, cfg.TransferEventTopic, cfg.NumPartitions, cfg.ReplicationFactor, logger)
	if err != nil {
		return nil, fmt.Errorf("failed to ensure topic %s exists: %w", cfg.TransferEventTopic, err)
	}

	writer := &kafka.Writer{
		Addr:         kafka.TCP(cfg.Brokers),
		Topic:        cfg.TransferEventTopic,
		Balancer:     &kafka.LeastBytes{},
		RequiredAcks: kafka.RequireOne,
		WriteTimeout: cfg.WriteTimeout,
	}

	return &TransferEventProducer{
		logger: logger,
		writer: writer,
		topic:  cfg.TransferEventTopic,
	}, nil
}

// Publish writes one event keyed by the given key. The outbox relay retries
// on failure, so writes are synchronous rather than fire-and-forget.
func (p *TransferEventProducer) Publish(ctx context.Context, key string, value interface{}) error {
	jsonValue, err := json.Marshal(value)
	if err != nil {
		return fmt.Errorf("failed to marshal transfer event: %w", err)
	}

	msg := kafka.Message{
		Key:   []byte(key),
		Value: jsonValue,
	}

	if err := p.writer.WriteMessages(ctx, msg); err != nil {
		p.logger.Error("Failed to publish transfer event",
			"topic", p.topic,
			"key", key,
			"error", err,
		)
		return fmt.Errorf("failed to publish transfer event to %s: %w", p.topic, err)
	}

	p.logger.Debug("Published transfer event", "topic", p.topic, "key", key)
	return nil
}

func (p *TransferEventProducer) Close() error {
	p.logger.Info("Closing transfer event producer", "topic", p.topic)
	if err := p.writer.Close(); err != nil {
		return fmt.Errorf("failed to close kafka writer for topic %s: %w", p.topic, err)
	}
	return nil
}
