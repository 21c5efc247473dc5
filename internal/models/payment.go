package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// Payment method and status values for the single pseudo-method in place.
const (
	PaymentMethodWhatsApp = "WhatsApp"
	PaymentStatusPending  = "Pending"

	paymentIDPrefixWhatsApp = "WA"
)

// Payment records the (pseudo-)payment tied to one successful placement.
type Payment struct {
	ID            int64           `db:"id" json:"id"`
	UserID        string          `db:"user_id" json:"user_id"`
	PaymentID     string          `db:"payment_id" json:"payment_id"`
	PaymentMethod string          `db:"payment_method" json:"payment_method"`
	AmountPaid    decimal.Decimal `db:"amount_paid" json:"amount_paid"`
	Status        string          `db:"status" json:"status"`
	CreatedAt     time.Time       `db:"created_at" json:"created_at"`
}

// NewWhatsAppPayment creates a pending WhatsApp payment covering the order total.
func NewWhatsAppPayment(userID string, amount decimal.Decimal) *Payment {
	now := GetCurrentTime()

	return &Payment{
		UserID:        userID,
		PaymentID:     NewPaymentID(paymentIDPrefixWhatsApp, now),
		PaymentMethod: PaymentMethodWhatsApp,
		AmountPaid:    amount,
		Status:        PaymentStatusPending,
		CreatedAt:     now,
	}
}
