package models

import (
	"database/sql"
	"time"

	"github.com/shopspring/decimal"
)

// OrderProduct is an immutable snapshot of one cart line at the moment of
// placement. The price is frozen at snapshot time and stays valid when the
// catalog price changes later. Rows are never mutated after creation.
type OrderProduct struct {
	ID           int64            `db:"id" json:"id"`
	OrderID      int64            `db:"order_id" json:"order_id"`
	PaymentID    int64            `db:"payment_id" json:"payment_id"`
	UserID       string           `db:"user_id" json:"user_id"`
	ProductID    int64            `db:"product_id" json:"product_id"`
	ProductName  string           `db:"product_name" json:"product_name"`
	Quantity     int              `db:"quantity" json:"quantity"`
	ProductPrice decimal.Decimal  `db:"product_price" json:"product_price"`
	Ordered      bool             `db:"ordered" json:"ordered"`
	Kind         PresentationKind `db:"kind" json:"kind"`
	Power        sql.NullString   `db:"power" json:"power,omitempty"`
	Brand        sql.NullString   `db:"brand" json:"brand,omitempty"`
	Variations   VariationList    `db:"variations" json:"variations"`
	CreatedAt    time.Time        `db:"created_at" json:"created_at"`
}

// NewOrderProduct snapshots a cart line for the given order and payment.
func NewOrderProduct(order *Order, payment *Payment, line CartLine) *OrderProduct {
	return &OrderProduct{
		OrderID:      order.ID,
		PaymentID:    payment.ID,
		UserID:       order.UserID,
		ProductID:    line.Product.ID,
		ProductName:  line.Product.ProductName,
		Quantity:     line.Item.Quantity,
		ProductPrice: line.Product.Price,
		Ordered:      true,
		Kind:         line.Product.Kind,
		Power:        line.Product.Power,
		Brand:        line.Product.Brand,
		Variations:   line.Item.Variations,
		CreatedAt:    GetCurrentTime(),
	}
}

// LineTotal is the frozen price multiplied by the ordered quantity.
func (p *OrderProduct) LineTotal() decimal.Decimal {
	return p.ProductPrice.Mul(decimal.NewFromInt(int64(p.Quantity)))
}
