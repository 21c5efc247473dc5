package models

import (
	"encoding/json"
	"time"
)

// Order lifecycle event types published through the outbox.
const (
	EventTypeOrderPlaced    = "order_placed"
	EventTypeOrderCancelled = "order_cancelled"
)

// OutboxStatus represents the status of an outbox message
type OutboxStatus string

const (
	OutboxStatusPending    OutboxStatus = "pending"
	OutboxStatusProcessing OutboxStatus = "processing"
	OutboxStatusCompleted  OutboxStatus = "completed"
	OutboxStatusFailed     OutboxStatus = "failed"
)

// OutboxMessage represents a message to be published from the outbox table
type OutboxMessage struct {
	ID                 int64        `db:"id" json:"id"`
	AggregateType      string       `db:"aggregate_type" json:"aggregate_type"`
	AggregateID        string       `db:"aggregate_id" json:"aggregate_id"`
	EventType          string       `db:"event_type" json:"event_type"`
	Payload            []byte       `db:"payload" json:"payload"`
	CreatedAt          time.Time    `db:"created_at" json:"created_at"`
	ProcessedAt        *time.Time   `db:"processed_at" json:"processed_at,omitempty"`
	ProcessingAttempts int          `db:"processing_attempts" json:"processing_attempts"`
	LastError          *string      `db:"last_error" json:"last_error,omitempty"`
	Status             OutboxStatus `db:"status" json:"status"`
}

// OutboxMessageEvent represents the event data in the outbox message
type OutboxMessageEvent struct {
	EventType   string      `json:"event_type"`
	EventID     string      `json:"event_id"`
	AggregateID string      `json:"aggregate_id"`
	OccurredAt  time.Time   `json:"occurred_at"`
	Data        interface{} `json:"data"`
}

func newOrderOutboxMessage(eventType string, order *Order, data interface{}) (*OutboxMessage, error) {
	event := OutboxMessageEvent{
		EventType:   eventType,
		EventID:     GenerateID("evt"),
		AggregateID: order.OrderNumber,
		OccurredAt:  time.Now().UTC(),
		Data:        data,
	}

	payload, err := json.Marshal(event)

	if err != nil {
		return nil, err
	}

	return &OutboxMessage{
		EventType:          eventType,
		Payload:            payload,
		AggregateType:      "order",
		AggregateID:        order.OrderNumber,
		CreatedAt:          time.Now().UTC(),
		ProcessingAttempts: 0,
		Status:             OutboxStatusPending,
	}, nil
}

// NewOrderPlacedEvent creates the outbox message for a finalized placement.
func NewOrderPlacedEvent(order *Order, payment *Payment) (*OutboxMessage, error) {
	return newOrderOutboxMessage(EventTypeOrderPlaced, order, map[string]interface{}{
		"order_number": order.OrderNumber,
		"user_id":      order.UserID,
		"payment_id":   payment.PaymentID,
		"order_total":  order.OrderTotal,
		"status":       order.Status,
	})
}

// NewOrderCancelledEvent creates the outbox message for a cancellation.
func NewOrderCancelledEvent(order *Order) (*OutboxMessage, error) {
	return newOrderOutboxMessage(EventTypeOrderCancelled, order, map[string]interface{}{
		"order_number": order.OrderNumber,
		"user_id":      order.UserID,
		"reason":       order.CancellationReason,
		"order_total":  order.OrderTotal,
	})
}
