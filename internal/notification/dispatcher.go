package notification

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"html/template"

	"github.com/agristore/storefront-api/internal/models"
	"github.com/agristore/storefront-api/pkg/logger"
)

// Config parameterizes the dispatcher. Admin contact details are explicit
// configuration, not ambient globals.
type Config struct {
	StoreName     string
	AdminWhatsApp string
	AdminEmail    string
}

// Result reports the outcome of a placement notification. The messaging link
// and the email are independent: a failed email never suppresses the link.
type Result struct {
	OrderNumber  string
	PaymentID    string
	WhatsAppURL  string
	WhatsAppSent bool
	EmailSent    bool
	EmailError   string
}

// Dispatcher formats order summaries, builds the admin messaging deep link
// and delivers best-effort confirmation emails.
type Dispatcher struct {
	mailer Mailer
	cfg    Config
	tmpl   *template.Template
	logger logger.Logger
}

// NewDispatcher creates a new Dispatcher.
func NewDispatcher(mailer Mailer, cfg Config, logger logger.Logger) *Dispatcher {
	return &Dispatcher{
		mailer: mailer,
		cfg:    cfg,
		tmpl:   template.Must(template.New("order_received").Parse(orderReceivedTemplate)),
		logger: logger,
	}
}

// DispatchOrderConfirmation runs after a placement has committed. The
// WhatsApp link is always produced; the email is attempted strictly after
// the link is ready and its failure only surfaces as a flag.
func (d *Dispatcher) DispatchOrderConfirmation(ctx context.Context, order *models.Order, payment *models.Payment, lines []*models.OrderProduct) *Result {
	summary := OrderSummary(order, lines)

	result := &Result{
		OrderNumber:  order.OrderNumber,
		PaymentID:    payment.PaymentID,
		WhatsAppURL:  WhatsAppLink(d.cfg.AdminWhatsApp, summary),
		WhatsAppSent: true,
	}

	html, renderErr := d.renderConfirmation(order, lines)

	if renderErr != nil {
		result.EmailError = fmt.Sprintf("template error: %v", renderErr)
		html = d.fallbackConfirmation(order)
	}

	msg := &Message{
		To:       []string{order.Email},
		Bcc:      []string{d.cfg.AdminEmail},
		ReplyTo:  d.cfg.AdminEmail,
		Subject:  fmt.Sprintf("Order Confirmation #%s", order.OrderNumber),
		HTMLBody: html,
		TextBody: summary,
		Headers:  map[string]string{"Message-ID": fmt.Sprintf("order-%s", order.OrderNumber)},
	}

	if err := d.mailer.Send(ctx, msg); err != nil {
		result.EmailError = err.Error()
		d.logger.Error("Email sending failed", "error", err, "orderNumber", order.OrderNumber)
		return result
	}

	result.EmailSent = true
	d.logger.Info("Confirmation email sent", "orderNumber", order.OrderNumber)

	return result
}

// SendCancellationNotices emails the customer and the admin about a completed
// cancellation. Both sends are attempted; a combined error is returned when
// either fails. The cancellation itself is never affected.
func (d *Dispatcher) SendCancellationNotices(ctx context.Context, order *models.Order) error {
	customerMsg := &Message{
		To:      []string{order.Email},
		ReplyTo: d.cfg.AdminEmail,
		Subject: fmt.Sprintf("Order Cancellation #%s", order.OrderNumber),
		TextBody: fmt.Sprintf(`Dear %s,

Your order #%s has been cancelled as per your request.

*Cancellation Reason:*
%s

*Order Details:*
- Order Total: ₹%s
- Date: %s

If you didn't request this cancellation or need any assistance, please contact us at:
Email: %s

Thank you,
%s Team
`,
			order.FullName(),
			order.OrderNumber,
			order.CancellationReason,
			order.OrderTotal.StringFixed(2),
			order.CreatedAt.Format(orderDateFormat),
			d.cfg.AdminEmail,
			d.cfg.StoreName,
		),
	}

	adminMsg := &Message{
		To:      []string{d.cfg.AdminEmail},
		Subject: fmt.Sprintf("Order Cancelled: #%s", order.OrderNumber),
		TextBody: fmt.Sprintf(`Order Cancellation Notification

*Order Details:*
- Order Number: %s
- Customer: %s
- Email: %s
- Phone: %s
- Order Total: ₹%s
- Date: %s

*Cancellation Reason:*
%s

Please take necessary actions regarding this cancellation.
`,
			order.OrderNumber,
			order.FullName(),
			order.Email,
			order.Phone,
			order.OrderTotal.StringFixed(2),
			order.CreatedAt.Format(orderDateFormat),
			order.CancellationReason,
		),
	}

	customerErr := d.mailer.Send(ctx, customerMsg)

	if customerErr != nil {
		d.logger.Error("Failed to send cancellation email to customer",
			"error", customerErr, "orderNumber", order.OrderNumber)
	}

	adminErr := d.mailer.Send(ctx, adminMsg)

	if adminErr != nil {
		d.logger.Error("Failed to send cancellation email to admin",
			"error", adminErr, "orderNumber", order.OrderNumber)
	}

	if customerErr == nil && adminErr == nil {
		d.logger.Info("Cancellation emails sent", "orderNumber", order.OrderNumber)
	}

	return errors.Join(customerErr, adminErr)
}

type confirmationData struct {
	Order        *models.Order
	Lines        []*models.OrderProduct
	AdminContact string
	AdminEmail   string
	StoreName    string
}

func (d *Dispatcher) renderConfirmation(order *models.Order, lines []*models.OrderProduct) (string, error) {
	data := confirmationData{
		Order:        order,
		Lines:        lines,
		AdminContact: d.cfg.AdminWhatsApp,
		AdminEmail:   d.cfg.AdminEmail,
		StoreName:    d.cfg.StoreName,
	}

	var buf bytes.Buffer

	if err := d.tmpl.Execute(&buf, data); err != nil {
		return "", err
	}

	return buf.String(), nil
}

// fallbackConfirmation is the minimal body used when template rendering fails.
func (d *Dispatcher) fallbackConfirmation(order *models.Order) string {
	return fmt.Sprintf(`<html>
<body>
<p>Hi %s,</p>
<p>YOUR ORDER HAS BEEN RECEIVED</p>
<p>Order Number: %s</p>
<p>Total: ₹%s</p>
<p>We'll contact you shortly on WhatsApp at %s</p>
</body>
</html>`,
		template.HTMLEscapeString(order.FirstName),
		order.OrderNumber,
		order.OrderTotal.StringFixed(2),
		d.cfg.AdminWhatsApp,
	)
}

const orderReceivedTemplate = `<html>
<body>
<p>Hi {{.Order.FirstName}},</p>
<p>Thank you for your order at {{.StoreName}}!</p>
<p><strong>Order Number:</strong> {{.Order.OrderNumber}}</p>
<table border="0" cellpadding="4">
<tr><th align="left">Item</th><th align="right">Qty</th><th align="right">Price</th></tr>
{{range .Lines}}
<tr>
<td>{{.ProductName}}</td>
<td align="right">{{.Quantity}}</td>
<td align="right">₹{{.ProductPrice.StringFixed 2}}</td>
</tr>
{{end}}
</table>
<p><strong>Total:</strong> ₹{{.Order.OrderTotal.StringFixed 2}}</p>
<p><strong>Delivery Address:</strong> {{.Order.FullAddress}}</p>
<p>We'll contact you shortly on WhatsApp at {{.AdminContact}}.</p>
<p>Questions? Reach us at {{.AdminEmail}}.</p>
<p>{{.StoreName}} Team</p>
</body>
</html>`
