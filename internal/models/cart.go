package models

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
	"time"

	"github.com/shopspring/decimal"
)

// SelectedVariation is one chosen variation value on a cart line,
// e.g. {Category: "size", Value: "5 kg"}.
type SelectedVariation struct {
	Category string `json:"category"`
	Value    string `json:"value"`
}

// VariationList stores selected variations as a JSONB column.
type VariationList []SelectedVariation

// Value implements driver.Valuer
func (v VariationList) Value() (driver.Value, error) {
	if v == nil {
		v = VariationList{}
	}

	return json.Marshal(v)
}

// Scan implements sql.Scanner
func (v *VariationList) Scan(src interface{}) error {
	switch data := src.(type) {
	case nil:
		*v = nil
		return nil
	case []byte:
		return json.Unmarshal(data, v)
	case string:
		return json.Unmarshal([]byte(data), v)
	default:
		return fmt.Errorf("unsupported variations column type %T", src)
	}
}

// CartItem is one line in a user's cart. Cart lines are consumed (read,
// snapshotted, then deleted) when the order is fulfilled.
type CartItem struct {
	ID         int64         `db:"id" json:"id"`
	UserID     string        `db:"user_id" json:"user_id"`
	ProductID  int64         `db:"product_id" json:"product_id"`
	Quantity   int           `db:"quantity" json:"quantity"`
	Variations VariationList `db:"variations" json:"variations"`
	CreatedAt  time.Time     `db:"created_at" json:"created_at"`
}

// CartLine is a cart item joined with its product, as read at checkout time.
type CartLine struct {
	Item    CartItem
	Product Product
}

// LineTotal is the live product price multiplied by the line quantity.
func (l CartLine) LineTotal() decimal.Decimal {
	return l.Product.Price.Mul(decimal.NewFromInt(int64(l.Item.Quantity)))
}

// CartSnapshot is the user's cart state captured at checkout time.
type CartSnapshot struct {
	Lines    []CartLine
	Total    decimal.Decimal
	Quantity int
}

// NewCartSnapshot computes totals over the given cart lines.
func NewCartSnapshot(lines []CartLine) CartSnapshot {
	total := decimal.Zero
	quantity := 0

	for _, line := range lines {
		total = total.Add(line.LineTotal())
		quantity += line.Item.Quantity
	}

	return CartSnapshot{
		Lines:    lines,
		Total:    total,
		Quantity: quantity,
	}
}

// IsEmpty reports whether the cart holds no lines.
func (s CartSnapshot) IsEmpty() bool {
	return len(s.Lines) == 0
}
