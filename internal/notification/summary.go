package notification

import (
	"fmt"
	"net/url"
	"strings"

	"github.com/agristore/storefront-api/internal/models"
)

// orderDateFormat renders timestamps the way the admin reads them,
// e.g. "10 Feb 2025 09:30 AM".
const orderDateFormat = "02 Jan 2006 03:04 PM"

// ItemLine formats one order line for the admin summary. The product's
// presentation kind decides the detail shown in parentheses: powered devices
// show power (and brand when present), variant products show their selected
// variations, standard products show nothing. Never both.
func ItemLine(line *models.OrderProduct) string {
	var b strings.Builder

	fmt.Fprintf(&b, "• %s x%d", line.ProductName, line.Quantity)

	switch line.Kind {
	case models.PresentationPowered:
		if line.Power.Valid {
			if line.Brand.Valid {
				fmt.Fprintf(&b, " (power: %s, brand: %s)", line.Power.String, line.Brand.String)
			} else {
				fmt.Fprintf(&b, " (power: %s)", line.Power.String)
			}
		}
	case models.PresentationVariant:
		if len(line.Variations) > 0 {
			pairs := make([]string, 0, len(line.Variations))

			for _, v := range line.Variations {
				pairs = append(pairs, fmt.Sprintf("%s: %s", v.Category, v.Value))
			}

			fmt.Fprintf(&b, " (%s)", strings.Join(pairs, ", "))
		}
	}

	return b.String()
}

// OrderSummary builds the human-readable order notification sent to the
// admin over the messaging deep link.
func OrderSummary(order *models.Order, lines []*models.OrderProduct) string {
	itemLines := make([]string, 0, len(lines))

	for _, line := range lines {
		itemLines = append(itemLines, ItemLine(line))
	}

	note := order.OrderNote

	if note == "" {
		note = "None"
	}

	return fmt.Sprintf(`🛍️ *NEW ORDER NOTIFICATION* 🛍️
--------------------------------
*Order #:* %s
*Customer:* %s
*Phone:* %s
*Email:* %s
*Total:* ₹%s
*Date:* %s
--------------------------------
*ITEMS:*
%s
--------------------------------
*ADDRESS:*
%s
--------------------------------
*NOTE:*
%s
`,
		order.OrderNumber,
		order.FullName(),
		order.Phone,
		order.Email,
		order.OrderTotal.StringFixed(2),
		order.CreatedAt.Format(orderDateFormat),
		strings.Join(itemLines, "\n"),
		order.FullAddress(),
		note,
	)
}

// WhatsAppLink builds the wa.me deep link carrying the URL-encoded summary.
// Building the link is pure string formatting and cannot fail; whether the
// operator's endpoint is reachable only matters when the link is opened.
func WhatsAppLink(adminNumber, summary string) string {
	return fmt.Sprintf("https://wa.me/%s?text=%s", adminNumber, url.QueryEscape(summary))
}
