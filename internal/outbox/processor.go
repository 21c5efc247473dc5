package outbox

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/agristore/storefront-api/internal/models"
	"github.com/agristore/storefront-api/pkg/logger"
)

// MessageHandler defines the interface for handling outbox messages
type MessageHandler interface {
	HandleMessage(ctx context.Context, message *models.OutboxMessage) error
}

// Store is the outbox persistence the processor drives.
type Store interface {
	GetPendingMessages(ctx context.Context, limit int) ([]*models.OutboxMessage, error)
	MarkAsProcessing(ctx context.Context, id int64) error
	MarkAsCompleted(ctx context.Context, id int64) error
	MarkAsFailed(ctx context.Context, id int64, errorMessage string) error
}

// DeadLetterStore receives messages that exhausted their processing attempts.
type DeadLetterStore interface {
	Create(ctx context.Context, message *models.DeadLetterMessage) error
}

// Processor polls the outbox table and dispatches pending messages to the
// handler registered for their event type.
type Processor struct {
	outboxStore     Store
	dlqStore        DeadLetterStore
	handlers        map[string]MessageHandler
	pollingInterval time.Duration
	batchSize       int
	maxRetries      int
	logger          logger.Logger
	ctx             context.Context
	cancel          context.CancelFunc
	wg              sync.WaitGroup
	running         bool
	mu              sync.Mutex
}

// ProcessorConfig holds the configuration for the Processor
type ProcessorConfig struct {
	PollingInterval time.Duration
	BatchSize       int
	MaxRetries      int
}

// NewProcessor creates a new Processor
func NewProcessor(
	outboxStore Store,
	dlqStore DeadLetterStore,
	config ProcessorConfig,
	logger logger.Logger,
) *Processor {
	ctx, cancel := context.WithCancel(context.Background())

	return &Processor{
		outboxStore:     outboxStore,
		dlqStore:        dlqStore,
		handlers:        make(map[string]MessageHandler),
		pollingInterval: config.PollingInterval,
		batchSize:       config.BatchSize,
		maxRetries:      config.MaxRetries,
		logger:          logger,
		ctx:             ctx,
		cancel:          cancel,
		running:         false,
	}
}

// RegisterHandler registers a message handler for a specific event type
func (p *Processor) RegisterHandler(eventType string, handler MessageHandler) {
	p.handlers[eventType] = handler
}

// Start starts the outbox processor
func (p *Processor) Start() {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.running {
		return
	}

	p.running = true
	p.wg.Add(1)

	go func() {
		defer p.wg.Done()
		p.processOutbox()
	}()

	p.logger.Info("Outbox processor started",
		"pollingInterval", p.pollingInterval,
		"batchSize", p.batchSize)
}

// Stop stops the outbox processor
func (p *Processor) Stop() {
	p.mu.Lock()
	defer p.mu.Unlock()

	if !p.running {
		return
	}

	p.cancel()
	p.wg.Wait()
	p.running = false

	p.logger.Info("Outbox processor stopped")
}

// processOutbox processes outbox messages in a loop
func (p *Processor) processOutbox() {
	ticker := time.NewTicker(p.pollingInterval)
	defer ticker.Stop()

	for {
		select {
		case <-p.ctx.Done():
			return
		case <-ticker.C:
			if err := p.ProcessBatch(p.ctx); err != nil {
				p.logger.Error("Failed to process outbox batch", "error", err)
			}
		}
	}
}

// ProcessBatch processes one batch of pending outbox messages.
func (p *Processor) ProcessBatch(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, p.pollingInterval)
	defer cancel()

	messages, err := p.outboxStore.GetPendingMessages(ctx, p.batchSize)

	if err != nil {
		return fmt.Errorf("failed to get pending messages: %w", err)
	}

	if len(messages) == 0 {
		p.logger.Debug("No pending messages to process")
		return nil
	}

	p.logger.Info("Processing batch of outbox messages", "count", len(messages))

	for _, msg := range messages {
		if err := p.processMessage(ctx, msg); err != nil {
			p.logger.Error("Failed to process message",
				"error", err,
				"messageID", msg.ID,
				"aggregateID", msg.AggregateID,
				"eventType", msg.EventType)

			// Continue processing other messages
			continue
		}
	}

	return nil
}

// processMessage processes a single outbox message
func (p *Processor) processMessage(ctx context.Context, msg *models.OutboxMessage) error {
	if err := p.outboxStore.MarkAsProcessing(ctx, msg.ID); err != nil {
		return fmt.Errorf("failed to mark message as processing: %w", err)
	}

	handler, exists := p.handlers[msg.EventType]

	if !exists {
		errorMsg := fmt.Sprintf("no handler registered for event type: %s", msg.EventType)
		p.logger.Error(errorMsg, "messageID", msg.ID)

		if err := p.outboxStore.MarkAsFailed(ctx, msg.ID, errorMsg); err != nil {
			p.logger.Error("Failed to mark message as failed", "error", err, "messageID", msg.ID)
		}

		return fmt.Errorf("no handler registered for event type: %s", msg.EventType)
	}

	err := handler.HandleMessage(ctx, msg)

	if err != nil {
		// Attempts are counted by MarkAsProcessing, so the count in msg is
		// the one recorded before this attempt started.
		if msg.ProcessingAttempts >= p.maxRetries {
			return p.moveToDeadLetter(ctx, msg, err)
		}

		// Leave the status untouched so the next poll retries it.
		p.logger.Warn("Message processing failed, will retry",
			"error", err,
			"messageID", msg.ID,
			"attempt", msg.ProcessingAttempts)
		return err
	}

	if err := p.outboxStore.MarkAsCompleted(ctx, msg.ID); err != nil {
		p.logger.Error("Failed to mark message as completed", "error", err, "messageID", msg.ID)
		return fmt.Errorf("failed to mark message as completed: %w", err)
	}

	p.logger.Info("Successfully processed message",
		"messageID", msg.ID,
		"aggregateID", msg.AggregateID,
		"eventType", msg.EventType)

	return nil
}

// moveToDeadLetter marks the message failed and parks a copy in the dead
// letter queue for later replay.
func (p *Processor) moveToDeadLetter(ctx context.Context, msg *models.OutboxMessage, cause error) error {
	errorMsg := fmt.Sprintf("max retries reached: %s", cause.Error())

	p.logger.Error(errorMsg,
		"messageID", msg.ID,
		"attempts", msg.ProcessingAttempts)

	if err := p.outboxStore.MarkAsFailed(ctx, msg.ID, errorMsg); err != nil {
		p.logger.Error("Failed to mark message as failed", "error", err, "messageID", msg.ID)
	}

	if p.dlqStore != nil {
		dlm := models.NewDeadLetterMessage(msg, cause.Error(), errorMsg)

		if err := p.dlqStore.Create(ctx, dlm); err != nil {
			p.logger.Error("Failed to move message to dead letter queue",
				"error", err, "messageID", msg.ID)
		}
	}

	return fmt.Errorf("message failed after %d attempts: %w", msg.ProcessingAttempts, cause)
}
