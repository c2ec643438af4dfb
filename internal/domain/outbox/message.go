// Package outbox implements the transactional-outbox message model for
// transfer events. A message is inserted in the same unit of work as the
// transfer it describes, so downstream consumers only ever observe committed
// transfers.
package outbox

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"

	"github.com/minibank/ledger/internal/domain/ledger"
)

// Status defines message publishing states.
type Status string

const (
	StatusPending         Status = "PENDING"
	StatusProcessed       Status = "PROCESSED"
	StatusFailedToPublish Status = "FAILED_TO_PUBLISH"
)

// Message stores a committed transfer event awaiting publication.
type Message struct {
	ID            int64           `json:"id"`
	EventID       uuid.UUID       `json:"event_id"`
	Payload       json.RawMessage `json:"payload"`
	Status        Status          `json:"status"`
	Attempts      int             `json:"attempts"`
	CreatedAt     time.Time       `json:"created_at"`
	LastAttemptAt *time.Time      `json:"last_attempt_at,omitempty"`
}

// NewMessage wraps a ledger entry as a pending outbox message.
func NewMessage(entry *ledger.Entry) (*Message, error) {
	payload, err := json.Marshal(entry)
	if err != nil {
		return nil, err
	}

	return &Message{
		EventID:   uuid.New(),
		Payload:   payload,
		Status:    StatusPending,
		Attempts:  0,
		CreatedAt: time.Now(),
	}, nil
}

// Entry extracts the ledger entry from the payload.
func (m *Message) Entry() (*ledger.Entry, error) {
	var entry ledger.Entry
	if err := json.Unmarshal(m.Payload, &entry); err != nil {
		return nil, err
	}
	return &entry, nil
}
