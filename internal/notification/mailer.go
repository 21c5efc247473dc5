package notification

import (
	"context"
	"errors"
	"fmt"

	gomail "gopkg.in/gomail.v2"

	"github.com/agristore/storefront-api/internal/config"
	"github.com/agristore/storefront-api/pkg/circuitbreaker"
	"github.com/agristore/storefront-api/pkg/logger"
)

// ErrMailerUnavailable is returned when the mail circuit breaker is open.
var ErrMailerUnavailable = errors.New("mail delivery temporarily unavailable")

// Message is one outbound email.
type Message struct {
	To       []string
	Bcc      []string
	ReplyTo  string
	Subject  string
	HTMLBody string
	TextBody string
	Headers  map[string]string
}

// Mailer delivers transactional email.
type Mailer interface {
	Send(ctx context.Context, msg *Message) error
}

// SMTPMailer delivers email over SMTP.
type SMTPMailer struct {
	dialer *gomail.Dialer
	from   string
	logger logger.Logger
}

// NewSMTPMailer creates a mailer from the SMTP configuration.
func NewSMTPMailer(cfg config.SMTPConfig, logger logger.Logger) *SMTPMailer {
	return &SMTPMailer{
		dialer: gomail.NewDialer(cfg.Host, cfg.Port, cfg.Username, cfg.Password),
		from:   cfg.From,
		logger: logger,
	}
}

// Send delivers the message. gomail dials per send; the context is checked
// before dialing since the SMTP conversation itself is not cancellable.
func (m *SMTPMailer) Send(ctx context.Context, msg *Message) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	gm := gomail.NewMessage()
	gm.SetHeader("From", m.from)
	gm.SetHeader("To", msg.To...)

	if len(msg.Bcc) > 0 {
		gm.SetHeader("Bcc", msg.Bcc...)
	}

	if msg.ReplyTo != "" {
		gm.SetHeader("Reply-To", msg.ReplyTo)
	}

	gm.SetHeader("Subject", msg.Subject)

	for key, value := range msg.Headers {
		gm.SetHeader(key, value)
	}

	if msg.HTMLBody != "" {
		gm.SetBody("text/html", msg.HTMLBody)

		if msg.TextBody != "" {
			gm.AddAlternative("text/plain", msg.TextBody)
		}
	} else {
		gm.SetBody("text/plain", msg.TextBody)
	}

	if err := m.dialer.DialAndSend(gm); err != nil {
		return fmt.Errorf("failed to send email: %w", err)
	}

	return nil
}

// BreakerMailer wraps a Mailer with a circuit breaker so a dead mail server
// is not hammered on every order.
type BreakerMailer struct {
	inner   Mailer
	breaker *circuitbreaker.CircuitBreaker
	logger  logger.Logger
}

// NewBreakerMailer wraps the given mailer.
func NewBreakerMailer(inner Mailer, breaker *circuitbreaker.CircuitBreaker, logger logger.Logger) *BreakerMailer {
	return &BreakerMailer{
		inner:   inner,
		breaker: breaker,
		logger:  logger,
	}
}

// Send delivers through the breaker, reporting success/failure to it.
func (b *BreakerMailer) Send(ctx context.Context, msg *Message) error {
	if !b.breaker.Allow() {
		b.logger.Warn("Mail circuit breaker open, skipping send", "subject", msg.Subject)
		return ErrMailerUnavailable
	}

	if err := b.inner.Send(ctx, msg); err != nil {
		b.breaker.Failure()
		return err
	}

	b.breaker.Success()
	return nil
}

// Metrics exposes the breaker state for the admin endpoint.
func (b *BreakerMailer) Metrics() map[string]interface{} {
	return b.breaker.GetMetrics()
}
