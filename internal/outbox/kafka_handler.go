package outbox

import (
	"context"
	"fmt"

	"github.com/agristore/storefront-api/internal/models"
	"github.com/agristore/storefront-api/pkg/kafka"
	"github.com/agristore/storefront-api/pkg/logger"
)

// KafkaMessageHandler publishes outbox messages to a Kafka topic.
type KafkaMessageHandler struct {
	producer *kafka.Producer
	topic    string
	logger   logger.Logger
}

// NewKafkaMessageHandler creates a new KafkaMessageHandler
func NewKafkaMessageHandler(producer *kafka.Producer, topic string, logger logger.Logger) *KafkaMessageHandler {
	return &KafkaMessageHandler{
		producer: producer,
		topic:    topic,
		logger:   logger,
	}
}

// HandleMessage publishes the message payload to Kafka, keyed by aggregate ID
// so events for one order land on one partition in order.
func (h *KafkaMessageHandler) HandleMessage(ctx context.Context, message *models.OutboxMessage) error {
	err := h.producer.SendMessage(ctx, h.topic, message.AggregateID, message.Payload)

	if err != nil {
		return fmt.Errorf("failed to publish outbox message %d to %s: %w", message.ID, h.topic, err)
	}

	h.logger.Debug("Published outbox message",
		"messageID", message.ID,
		"topic", h.topic,
		"eventType", message.EventType)

	return nil
}
