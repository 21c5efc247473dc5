package notification

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/agristore/storefront-api/internal/models"
	"github.com/agristore/storefront-api/pkg/circuitbreaker"
	"github.com/shopspring/decimal"
)

type noopLogger struct{}

func (noopLogger) Debug(msg string, keyvals ...interface{}) {}
func (noopLogger) Info(msg string, keyvals ...interface{})  {}
func (noopLogger) Warn(msg string, keyvals ...interface{})  {}
func (noopLogger) Error(msg string, keyvals ...interface{}) {}

type fakeMailer struct {
	sent []*Message
	err  error
}

func (m *fakeMailer) Send(ctx context.Context, msg *Message) error {
	if m.err != nil {
		return m.err
	}

	m.sent = append(m.sent, msg)
	return nil
}

func testDispatcher(mailer Mailer) *Dispatcher {
	return NewDispatcher(mailer, Config{
		StoreName:     "Agri Store",
		AdminWhatsApp: "916381623023",
		AdminEmail:    "admin@example.com",
	}, noopLogger{})
}

func testPayment() *models.Payment {
	return &models.Payment{
		ID:        1,
		UserID:    "u1",
		PaymentID: "WA-20250210093000-abcd1234",
	}
}

func testLines() []*models.OrderProduct {
	return []*models.OrderProduct{
		{
			ProductName:  "Organic Jaggery",
			Quantity:     2,
			ProductPrice: decimal.NewFromInt(120),
			Kind:         models.PresentationStandard,
		},
	}
}

func TestDispatchOrderConfirmation(t *testing.T) {
	mailer := &fakeMailer{}
	d := testDispatcher(mailer)

	result := d.DispatchOrderConfirmation(context.Background(), testOrder(), testPayment(), testLines())

	if !result.WhatsAppSent {
		t.Fatal("whatsapp link must always be produced")
	}

	if !strings.HasPrefix(result.WhatsAppURL, "https://wa.me/916381623023?text=") {
		t.Fatalf("unexpected whatsapp url: %q", result.WhatsAppURL)
	}

	if !result.EmailSent || result.EmailError != "" {
		t.Fatalf("expected email sent, got sent=%v error=%q", result.EmailSent, result.EmailError)
	}

	if len(mailer.sent) != 1 {
		t.Fatalf("expected 1 email, got %d", len(mailer.sent))
	}

	msg := mailer.sent[0]

	if msg.To[0] != "asha@example.com" {
		t.Errorf("unexpected recipient %v", msg.To)
	}

	if len(msg.Bcc) != 1 || msg.Bcc[0] != "admin@example.com" {
		t.Errorf("admin must be bcc'd, got %v", msg.Bcc)
	}

	if msg.ReplyTo != "admin@example.com" {
		t.Errorf("unexpected reply-to %q", msg.ReplyTo)
	}

	if msg.Subject != "Order Confirmation #202502105" {
		t.Errorf("unexpected subject %q", msg.Subject)
	}

	if msg.Headers["Message-ID"] != "order-202502105" {
		t.Errorf("unexpected message id %q", msg.Headers["Message-ID"])
	}

	if !strings.Contains(msg.HTMLBody, "202502105") {
		t.Error("html body must carry the order number")
	}

	if msg.TextBody == "" {
		t.Error("plain-text alternative must be set")
	}
}

func TestDispatchOrderConfirmationEmailFailure(t *testing.T) {
	mailer := &fakeMailer{err: errors.New("smtp: connection refused")}
	d := testDispatcher(mailer)

	result := d.DispatchOrderConfirmation(context.Background(), testOrder(), testPayment(), testLines())

	// Email failure must not suppress the link.
	if !result.WhatsAppSent || result.WhatsAppURL == "" {
		t.Fatal("whatsapp link must survive an email failure")
	}

	if result.EmailSent {
		t.Fatal("email must be reported unsent")
	}

	if !strings.Contains(result.EmailError, "connection refused") {
		t.Fatalf("expected send error to be recorded, got %q", result.EmailError)
	}
}

func TestSendCancellationNotices(t *testing.T) {
	mailer := &fakeMailer{}
	d := testDispatcher(mailer)

	order := testOrder()
	order.IsCancelled = true
	order.Status = models.OrderStatusCancelled
	order.CancellationReason = "Ordered by mistake"

	if err := d.SendCancellationNotices(context.Background(), order); err != nil {
		t.Fatalf("SendCancellationNotices returned error: %v", err)
	}

	if len(mailer.sent) != 2 {
		t.Fatalf("expected customer and admin emails, got %d", len(mailer.sent))
	}

	customer, admin := mailer.sent[0], mailer.sent[1]

	if customer.To[0] != "asha@example.com" {
		t.Errorf("unexpected customer recipient %v", customer.To)
	}

	if admin.To[0] != "admin@example.com" {
		t.Errorf("unexpected admin recipient %v", admin.To)
	}

	for _, msg := range mailer.sent {
		if !strings.Contains(msg.TextBody, "Ordered by mistake") {
			t.Errorf("email %q missing cancellation reason", msg.Subject)
		}
	}
}

func TestSendCancellationNoticesBestEffort(t *testing.T) {
	mailer := &fakeMailer{err: errors.New("smtp down")}
	d := testDispatcher(mailer)

	err := d.SendCancellationNotices(context.Background(), testOrder())

	if err == nil {
		t.Fatal("expected combined error when both sends fail")
	}
}

func TestBreakerMailerOpensAfterFailures(t *testing.T) {
	breaker := circuitbreaker.NewCircuitBreaker(circuitbreaker.CircuitBreakerConfig{
		FailureThreshold: 2,
		ResetTimeout:     time.Hour,
		HalfOpenMaxCalls: 1,
	})

	inner := &fakeMailer{err: errors.New("smtp down")}
	bm := NewBreakerMailer(inner, breaker, noopLogger{})

	msg := &Message{To: []string{"asha@example.com"}, Subject: "x", TextBody: "y"}

	for i := 0; i < 2; i++ {
		if err := bm.Send(context.Background(), msg); err == nil {
			t.Fatal("expected send failure")
		}
	}

	err := bm.Send(context.Background(), msg)

	if !errors.Is(err, ErrMailerUnavailable) {
		t.Fatalf("expected breaker to be open, got %v", err)
	}
}
