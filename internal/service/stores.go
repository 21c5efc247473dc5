package service

import (
	"context"

	"github.com/agristore/storefront-api/internal/database"
	"github.com/agristore/storefront-api/internal/models"
)

// The services depend on narrow store interfaces so the order lifecycle can
// be exercised without a database. The concrete implementations live in
// internal/repository.

// TxBeginner starts database transactions.
type TxBeginner interface {
	BeginTx(ctx context.Context) (database.Tx, error)
}

// OrderStore persists orders and their state transitions.
type OrderStore interface {
	CreateInTx(tx database.Tx, order *models.Order) error
	SetOrderNumberInTx(tx database.Tx, orderID int64, orderNumber string) error
	GetUnplacedByNumberInTx(tx database.Tx, userID, orderNumber string) (*models.Order, error)
	MarkPlacedInTx(tx database.Tx, order *models.Order) error
	CancelInTx(tx database.Tx, order *models.Order) error
	GetByIDForUser(ctx context.Context, id int64, userID string) (*models.Order, error)
	GetPlacedByNumber(ctx context.Context, orderNumber string) (*models.Order, error)
}

// CartStore reads and clears a user's cart.
type CartStore interface {
	GetLinesByUser(ctx context.Context, userID string) ([]models.CartLine, error)
	GetLinesByUserInTx(tx database.Tx, userID string) ([]models.CartLine, error)
	ClearByUserInTx(tx database.Tx, userID string) error
}

// ProductStore adjusts catalog stock.
type ProductStore interface {
	DecrementStockInTx(tx database.Tx, productID int64, quantity int) error
}

// PaymentStore persists payments.
type PaymentStore interface {
	CreateInTx(tx database.Tx, payment *models.Payment) error
	GetByPaymentID(ctx context.Context, paymentID string) (*models.Payment, error)
}

// OrderProductStore persists the immutable order line snapshots.
type OrderProductStore interface {
	CreateInTx(tx database.Tx, line *models.OrderProduct) error
	GetByOrderID(ctx context.Context, orderID int64) ([]*models.OrderProduct, error)
}

// OutboxStore persists lifecycle events alongside the state change.
type OutboxStore interface {
	CreateInTx(tx database.Tx, message *models.OutboxMessage) error
}
