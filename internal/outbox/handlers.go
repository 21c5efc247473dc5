package outbox

import (
	"context"

	"github.com/agristore/storefront-api/internal/models"
	"github.com/agristore/storefront-api/pkg/logger"
)

// LoggingHandler logs outbox messages instead of publishing them. It backs
// local development when no broker is configured.
type LoggingHandler struct {
	logger logger.Logger
}

// NewLoggingHandler creates a new LoggingHandler
func NewLoggingHandler(logger logger.Logger) *LoggingHandler {
	return &LoggingHandler{logger: logger}
}

// HandleMessage logs the message and reports success.
func (h *LoggingHandler) HandleMessage(ctx context.Context, message *models.OutboxMessage) error {
	h.logger.Info("Outbox event",
		"messageID", message.ID,
		"aggregateType", message.AggregateType,
		"aggregateID", message.AggregateID,
		"eventType", message.EventType,
		"payload", string(message.Payload))

	return nil
}
