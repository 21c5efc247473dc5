package outbox

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/agristore/storefront-api/internal/models"
)

type noopLogger struct{}

func (noopLogger) Debug(msg string, keyvals ...interface{}) {}
func (noopLogger) Info(msg string, keyvals ...interface{})  {}
func (noopLogger) Warn(msg string, keyvals ...interface{})  {}
func (noopLogger) Error(msg string, keyvals ...interface{}) {}

type stubStore struct {
	pending    []*models.OutboxMessage
	processing []int64
	completed  []int64
	failed     map[int64]string
}

func newStubStore(pending ...*models.OutboxMessage) *stubStore {
	return &stubStore{
		pending: pending,
		failed:  make(map[int64]string),
	}
}

func (s *stubStore) GetPendingMessages(ctx context.Context, limit int) ([]*models.OutboxMessage, error) {
	if len(s.pending) > limit {
		return s.pending[:limit], nil
	}
	return s.pending, nil
}

func (s *stubStore) MarkAsProcessing(ctx context.Context, id int64) error {
	s.processing = append(s.processing, id)
	return nil
}

func (s *stubStore) MarkAsCompleted(ctx context.Context, id int64) error {
	s.completed = append(s.completed, id)
	return nil
}

func (s *stubStore) MarkAsFailed(ctx context.Context, id int64, errorMessage string) error {
	s.failed[id] = errorMessage
	return nil
}

type stubDLQ struct {
	created []*models.DeadLetterMessage
}

func (s *stubDLQ) Create(ctx context.Context, message *models.DeadLetterMessage) error {
	s.created = append(s.created, message)
	return nil
}

type recordingHandler struct {
	handled []*models.OutboxMessage
	err     error
}

func (h *recordingHandler) HandleMessage(ctx context.Context, message *models.OutboxMessage) error {
	h.handled = append(h.handled, message)
	return h.err
}

func pendingMessage(id int64, eventType string, attempts int) *models.OutboxMessage {
	return &models.OutboxMessage{
		ID:                 id,
		AggregateType:      "order",
		AggregateID:        "202502101",
		EventType:          eventType,
		Payload:            []byte(`{"event_type":"` + eventType + `"}`),
		CreatedAt:          time.Now().UTC(),
		ProcessingAttempts: attempts,
		Status:             models.OutboxStatusPending,
	}
}

func testConfig() ProcessorConfig {
	return ProcessorConfig{
		PollingInterval: time.Second,
		BatchSize:       10,
		MaxRetries:      3,
	}
}

func TestProcessBatchCompletesHandledMessages(t *testing.T) {
	store := newStubStore(
		pendingMessage(1, models.EventTypeOrderPlaced, 0),
		pendingMessage(2, models.EventTypeOrderCancelled, 0),
	)
	dlq := &stubDLQ{}
	handler := &recordingHandler{}

	p := NewProcessor(store, dlq, testConfig(), noopLogger{})
	p.RegisterHandler(models.EventTypeOrderPlaced, handler)
	p.RegisterHandler(models.EventTypeOrderCancelled, handler)

	if err := p.ProcessBatch(context.Background()); err != nil {
		t.Fatalf("ProcessBatch returned error: %v", err)
	}

	if len(handler.handled) != 2 {
		t.Fatalf("expected 2 handled messages, got %d", len(handler.handled))
	}

	if len(store.completed) != 2 {
		t.Fatalf("expected 2 completed messages, got %v", store.completed)
	}

	if len(dlq.created) != 0 {
		t.Fatal("nothing may reach the dead letter queue on success")
	}
}

func TestProcessBatchLeavesRetryableFailuresPending(t *testing.T) {
	store := newStubStore(pendingMessage(1, models.EventTypeOrderPlaced, 0))
	dlq := &stubDLQ{}
	handler := &recordingHandler{err: errors.New("broker unreachable")}

	p := NewProcessor(store, dlq, testConfig(), noopLogger{})
	p.RegisterHandler(models.EventTypeOrderPlaced, handler)

	if err := p.ProcessBatch(context.Background()); err != nil {
		t.Fatalf("ProcessBatch returned error: %v", err)
	}

	if len(store.completed) != 0 {
		t.Fatal("failed message must not complete")
	}

	if len(store.failed) != 0 {
		t.Fatal("message below the retry cap must stay pending")
	}

	if len(dlq.created) != 0 {
		t.Fatal("message below the retry cap must not be parked")
	}
}

func TestProcessBatchParksExhaustedMessages(t *testing.T) {
	msg := pendingMessage(7, models.EventTypeOrderPlaced, 3)
	store := newStubStore(msg)
	dlq := &stubDLQ{}
	handler := &recordingHandler{err: errors.New("broker unreachable")}

	p := NewProcessor(store, dlq, testConfig(), noopLogger{})
	p.RegisterHandler(models.EventTypeOrderPlaced, handler)

	if err := p.ProcessBatch(context.Background()); err != nil {
		t.Fatalf("ProcessBatch returned error: %v", err)
	}

	if _, ok := store.failed[7]; !ok {
		t.Fatal("exhausted message must be marked failed")
	}

	if len(dlq.created) != 1 {
		t.Fatalf("expected 1 dead letter, got %d", len(dlq.created))
	}

	dlm := dlq.created[0]

	if dlm.OriginalMessageID != 7 || dlm.EventType != models.EventTypeOrderPlaced {
		t.Fatalf("dead letter does not reference the original message: %+v", dlm)
	}
}

func TestProcessBatchFailsUnroutableMessages(t *testing.T) {
	store := newStubStore(pendingMessage(1, "unknown_event", 0))
	dlq := &stubDLQ{}

	p := NewProcessor(store, dlq, testConfig(), noopLogger{})

	if err := p.ProcessBatch(context.Background()); err != nil {
		t.Fatalf("ProcessBatch returned error: %v", err)
	}

	if _, ok := store.failed[1]; !ok {
		t.Fatal("message without a handler must be marked failed")
	}
}

func TestLoggingHandler(t *testing.T) {
	h := NewLoggingHandler(noopLogger{})

	err := h.HandleMessage(context.Background(), pendingMessage(1, models.EventTypeOrderPlaced, 0))

	if err != nil {
		t.Fatalf("LoggingHandler returned error: %v", err)
	}
}
