// Package config provides configuration structures and validation for the
// application. It handles environment-based configuration for all major
// components including the HTTP server, database connections, the transfer
// engine, the audit trail, and the outbox relay.
package config

import (
	"errors"
	"strings"
	"time"
)

// Config holds the complete application configuration. Each field represents
// a major subsystem's configuration and is validated during startup.
type Config struct {
	Application ApplicationConfig
	Logging     LoggingConfig
	Server      ServerConfig
	Postgres    PostgresConfig
	MongoDB     MongoDBConfig
	Kafka       KafkaConfig
	Outbox      OutboxConfig
	WorkerPool  WorkerPoolConfig
	Transfer    TransferConfig
	Audit       AuditConfig
	Kickbox     KickboxConfig
}

// ApplicationConfig contains general application configuration
type ApplicationConfig struct {
	Env  string
	Name string
}

// LoggingConfig contains logging configuration
type LoggingConfig struct {
	Level string
}

// ServerConfig contains HTTP server configuration settings
type ServerConfig struct {
	Port            int
	ShutdownTimeout time.Duration
	ReadTimeout     time.Duration
	WriteTimeout    time.Duration
	IdleTimeout     time.Duration
}

// PostgresConfig contains PostgreSQL configuration
type PostgresConfig struct {
	URL             string
	MaxConns        int32
	MinConns        int32
	ConnMaxLifetime time.Duration
	ConnMaxIdleTime time.Duration
	MigrationsPath  string
}

// MongoDBConfig contains MongoDB configuration for the sealed-block archive
type MongoDBConfig struct {
	URI             string
	Database        string
	Timeout         time.Duration
	MaxPoolSize     uint64
	MinPoolSize     uint64
	MaxConnIdleTime time.Duration
}

// KafkaConfig contains Kafka configuration for transfer-event publishing
type KafkaConfig struct {
	Brokers            string
	TransferEventTopic string
	NumPartitions      int
	ReplicationFactor  int
	WriteTimeout       time.Duration
}

// OutboxConfig contains outbox relay configuration
type OutboxConfig struct {
	PollingInterval  time.Duration
	BatchSize        int
	MaxRetryAttempts int
}

// WorkerPoolConfig contains the outbox relay worker pool configuration
type WorkerPoolConfig struct {
	Size int
}

// TransferConfig contains transfer engine tuning
type TransferConfig struct {
	// LockTimeout bounds the wait on account row locks. Exceeding it
	// surfaces as a retryable lock-timeout outcome instead of blocking
	// indefinitely.
	LockTimeout time.Duration
}

// AuditConfig selects and tunes the audit-trail strategy
type AuditConfig struct {
	// Trail is "log" for the plain transaction history, or "chain" to
	// additionally record transfers in the hash-chained ledger.
	Trail string
	// ChainDifficulty is the number of leading zero hex digits the
	// proof-of-work hash must carry. Tamper-evidence tunable, not a
	// security parameter.
	ChainDifficulty int
}

// KickboxConfig contains the optional email deliverability verifier settings.
// Verification is disabled when APIKey is empty.
type KickboxConfig struct {
	APIKey  string
	BaseURL string
	Timeout time.Duration
}

// AuditTrail values accepted by AuditConfig.Trail.
const (
	AuditTrailLog   = "log"
	AuditTrailChain = "chain"
)

// validate performs comprehensive validation of all configuration values,
// ensuring they meet minimum requirements and logical constraints
func (c *Config) validate() error {
	var validationErrors []string

	if c.Server.Port <= 0 {
		validationErrors = append(validationErrors, "SERVER_PORT must be greater than 0")
	}
	if c.Server.ShutdownTimeout <= 0 {
		validationErrors = append(validationErrors, "SERVER_SHUTDOWN_TIMEOUT must be greater than 0")
	}
	if c.Server.ReadTimeout <= 0 {
		validationErrors = append(validationErrors, "SERVER_READ_TIMEOUT must be greater than 0")
	}
	if c.Server.WriteTimeout <= 0 {
		validationErrors = append(validationErrors, "SERVER_WRITE_TIMEOUT must be greater than 0")
	}
	if c.Server.IdleTimeout <= 0 {
		validationErrors = append(validationErrors, "SERVER_IDLE_TIMEOUT must be greater than 0")
	}

	if c.Postgres.URL == "" {
		validationErrors = append(validationErrors, "POSTGRES_URL is required")
	}
	if c.Postgres.MaxConns <= 0 {
		validationErrors = append(validationErrors, "POSTGRES_MAX_CONNS must be greater than 0")
	}
	if c.Postgres.MinConns <= 0 {
		validationErrors = append(validationErrors, "POSTGRES_MIN_CONNS must be greater than 0")
	}
	if c.Postgres.ConnMaxLifetime <= 0 {
		validationErrors = append(validationErrors, "POSTGRES_MAX_CONN_LIFETIME must be greater than 0")
	}
	if c.Postgres.ConnMaxIdleTime <= 0 {
		validationErrors = append(validationErrors, "POSTGRES_MAX_CONN_IDLE_TIME must be greater than 0")
	}

	if c.MongoDB.URI == "" {
		validationErrors = append(validationErrors, "MONGO_URI is required")
	}
	if c.MongoDB.Database == "" {
		validationErrors = append(validationErrors, "MONGO_DATABASE is required")
	}
	if c.MongoDB.Timeout <= 0 {
		validationErrors = append(validationErrors, "MONGO_TIMEOUT must be greater than 0")
	}

	if len(c.Kafka.Brokers) == 0 {
		validationErrors = append(validationErrors, "KAFKA_BROKERS is required")
	}
	if c.Kafka.TransferEventTopic == "" {
		validationErrors = append(validationErrors, "KAFKA_TRANSFER_EVENT_TOPIC is required")
	}
	if c.Kafka.WriteTimeout <= 0 {
		validationErrors = append(validationErrors, "KAFKA_WRITE_TIMEOUT must be greater than 0")
	}

	if c.Outbox.PollingInterval <= 0 {
		validationErrors = append(validationErrors, "OUTBOX_POLLING_INTERVAL must be greater than 0")
	}
	if c.Outbox.BatchSize <= 0 {
		validationErrors = append(validationErrors, "OUTBOX_BATCH_SIZE must be greater than 0")
	}
	if c.Outbox.MaxRetryAttempts <= 0 {
		validationErrors = append(validationErrors, "OUTBOX_MAX_RETRY_ATTEMPTS must be greater than 0")
	}

	if c.WorkerPool.Size <= 0 {
		validationErrors = append(validationErrors, "WORKER_POOL_SIZE must be greater than 0")
	}

	if c.Transfer.LockTimeout <= 0 {
		validationErrors = append(validationErrors, "TRANSFER_LOCK_TIMEOUT must be greater than 0")
	}

	if c.Audit.Trail != AuditTrailLog && c.Audit.Trail != AuditTrailChain {
		validationErrors = append(validationErrors, "AUDIT_TRAIL must be 'log' or 'chain'")
	}
	if c.Audit.ChainDifficulty <= 0 {
		validationErrors = append(validationErrors, "AUDIT_CHAIN_DIFFICULTY must be greater than 0")
	}

	if len(validationErrors) > 0 {
		return errors.New("configuration validation failed: " + strings.Join(validationErrors, "; "))
	}

	return nil
}
