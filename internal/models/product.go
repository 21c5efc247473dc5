package models

import (
	"database/sql"

	"github.com/shopspring/decimal"
)

// PresentationKind tags how a product is presented on order summaries.
type PresentationKind string

const (
	// PresentationStandard products show only name and quantity.
	PresentationStandard PresentationKind = "standard"
	// PresentationPowered products carry a power rating and optionally a brand.
	PresentationPowered PresentationKind = "powered"
	// PresentationVariant products are described by their selected variations.
	PresentationVariant PresentationKind = "variant"
)

// Product is the store catalog entry. This module does not own the product
// lifecycle; it only decrements stock when an order is fulfilled.
type Product struct {
	ID          int64            `db:"id" json:"id"`
	ProductName string           `db:"product_name" json:"product_name"`
	Price       decimal.Decimal  `db:"price" json:"price"`
	Stock       int              `db:"stock" json:"stock"`
	Kind        PresentationKind `db:"kind" json:"kind"`
	Power       sql.NullString   `db:"power" json:"power,omitempty"`
	Brand       sql.NullString   `db:"brand" json:"brand,omitempty"`
}
