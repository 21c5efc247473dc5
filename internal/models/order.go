package models

import (
	"database/sql"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// Order status labels. Status is a free-text label on the row; these are the
// values this module writes.
const (
	OrderStatusNew       = "New"
	OrderStatusPlaced    = "Sent to admin, admin will contact you shortly!"
	OrderStatusCancelled = "Cancelled"
)

// Order is a customer's checkout request plus its lifecycle state.
// It is created unplaced, transitions to placed during fulfillment and may
// transition to cancelled afterwards. No further states are modeled.
type Order struct {
	ID                 int64           `db:"id" json:"id"`
	UserID             string          `db:"user_id" json:"user_id"`
	PaymentID          sql.NullInt64   `db:"payment_id" json:"-"`
	OrderNumber        string          `db:"order_number" json:"order_number"`
	FirstName          string          `db:"first_name" json:"first_name"`
	LastName           string          `db:"last_name" json:"last_name"`
	Phone              string          `db:"phone" json:"phone"`
	Email              string          `db:"email" json:"email"`
	AddressLine1       string          `db:"address_line_1" json:"address_line_1"`
	AddressLine2       string          `db:"address_line_2" json:"address_line_2"`
	City               string          `db:"city" json:"city"`
	State              string          `db:"state" json:"state"`
	Country            string          `db:"country" json:"country"`
	OrderNote          string          `db:"order_note" json:"order_note"`
	OrderTotal         decimal.Decimal `db:"order_total" json:"order_total"`
	Tax                decimal.Decimal `db:"tax" json:"tax"`
	Status             string          `db:"status" json:"status"`
	IP                 string          `db:"ip" json:"-"`
	IsOrdered          bool            `db:"is_ordered" json:"is_ordered"`
	IsCancelled        bool            `db:"is_cancelled" json:"is_cancelled"`
	CancellationReason string          `db:"cancellation_reason" json:"cancellation_reason,omitempty"`
	CreatedAt          time.Time       `db:"created_at" json:"created_at"`
	UpdatedAt          time.Time       `db:"updated_at" json:"updated_at"`
}

// FullName joins the customer's first and last name.
func (o *Order) FullName() string {
	return strings.TrimSpace(o.FirstName + " " + o.LastName)
}

// FullAddress joins the address lines, dropping an empty second line.
func (o *Order) FullAddress() string {
	parts := []string{o.AddressLine1}

	if o.AddressLine2 != "" {
		parts = append(parts, o.AddressLine2)
	}

	parts = append(parts, o.City, o.State, o.Country)

	return strings.Join(parts, ", ")
}

// CanBeCancelled reports whether the order may still transition to cancelled.
// Any non-cancelled order qualifies.
func (o *Order) CanBeCancelled() bool {
	return !o.IsCancelled
}
