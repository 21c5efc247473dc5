package models

import (
	"time"
)

// DeadLetterStatus is the replay state of a parked order event.
type DeadLetterStatus string

const (
	DeadLetterStatusPending   DeadLetterStatus = "pending"
	DeadLetterStatusRetrying  DeadLetterStatus = "retrying"
	DeadLetterStatusResolved  DeadLetterStatus = "resolved"
	DeadLetterStatusDiscarded DeadLetterStatus = "discarded"
)

// DeadLetterMessage is an order event the outbox processor gave up on. The
// full event payload is kept so replay needs nothing from the original row.
type DeadLetterMessage struct {
	ID                int64            `db:"id" json:"id"`
	OriginalMessageID int64            `db:"original_message_id" json:"original_message_id"`
	AggregateType     string           `db:"aggregate_type" json:"aggregate_type"`
	AggregateID       string           `db:"aggregate_id" json:"aggregate_id"`
	EventType         string           `db:"event_type" json:"event_type"`
	Payload           []byte           `db:"payload" json:"payload"`
	ErrorMessage      string           `db:"error_message" json:"error_message"`
	FailureReason     string           `db:"failure_reason" json:"failure_reason"`
	RetryCount        int              `db:"retry_count" json:"retry_count"`
	LastRetryAt       *time.Time       `db:"last_retry_at" json:"last_retry_at,omitempty"`
	Status            DeadLetterStatus `db:"status" json:"status"`
	CreatedAt         time.Time        `db:"created_at" json:"created_at"`
	ResolvedAt        *time.Time       `db:"resolved_at" json:"resolved_at,omitempty"`
}

// NewDeadLetterMessage parks an exhausted outbox message. errorMsg is the
// last delivery error, reason says why the processor gave up.
func NewDeadLetterMessage(outboxMsg *OutboxMessage, errorMsg string, reason string) *DeadLetterMessage {
	return &DeadLetterMessage{
		OriginalMessageID: outboxMsg.ID,
		AggregateType:     outboxMsg.AggregateType,
		AggregateID:       outboxMsg.AggregateID,
		EventType:         outboxMsg.EventType,
		Payload:           outboxMsg.Payload,
		ErrorMessage:      errorMsg,
		FailureReason:     reason,
		RetryCount:        0,
		Status:            DeadLetterStatusPending,
		CreatedAt:         time.Now().UTC(),
	}
}

// ToOutboxMessage rebuilds the parked event as a fresh pending outbox message
// so replay can run it through the regular handlers.
func (m *DeadLetterMessage) ToOutboxMessage() *OutboxMessage {
	return &OutboxMessage{
		AggregateType: m.AggregateType,
		AggregateID:   m.AggregateID,
		EventType:     m.EventType,
		Payload:       m.Payload,
		CreatedAt:     time.Now().UTC(),
		Status:        OutboxStatusPending,
	}
}
