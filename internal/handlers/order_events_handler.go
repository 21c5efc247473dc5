package handlers

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/Shopify/sarama"

	"github.com/agristore/storefront-api/internal/models"
	"github.com/agristore/storefront-api/pkg/logger"
)

// OrderEventsHandler consumes order lifecycle events published through the
// outbox. It closes the loop for observability: every placement and
// cancellation that reached the broker is logged with its event ID.
type OrderEventsHandler struct {
	logger logger.Logger
}

// NewOrderEventsHandler creates a new OrderEventsHandler
func NewOrderEventsHandler(logger logger.Logger) *OrderEventsHandler {
	return &OrderEventsHandler{logger: logger}
}

// HandleMessage processes one consumed Kafka message.
func (h *OrderEventsHandler) HandleMessage(ctx context.Context, msg *sarama.ConsumerMessage) error {
	var event models.OutboxMessageEvent

	if err := json.Unmarshal(msg.Value, &event); err != nil {
		// A malformed payload will never parse on redelivery, log and drop.
		h.logger.Error("Failed to unmarshal order event, skipping",
			"error", err,
			"topic", msg.Topic,
			"offset", msg.Offset)
		return nil
	}

	switch event.EventType {
	case models.EventTypeOrderPlaced:
		h.logger.Info("Order placed event received",
			"eventID", event.EventID,
			"orderNumber", event.AggregateID,
			"occurredAt", event.OccurredAt)
	case models.EventTypeOrderCancelled:
		h.logger.Info("Order cancelled event received",
			"eventID", event.EventID,
			"orderNumber", event.AggregateID,
			"occurredAt", event.OccurredAt)
	default:
		return fmt.Errorf("unknown order event type: %s", event.EventType)
	}

	return nil
}
