package repository

import (
	"context"
	"fmt"

	"github.com/agristore/storefront-api/internal/database"
	"github.com/agristore/storefront-api/internal/models"
	"github.com/agristore/storefront-api/pkg/logger"
)

// OrderProductRepository handles the immutable order line snapshots.
// Rows are inserted during fulfillment and never updated.
type OrderProductRepository struct {
	db     *database.Database
	logger logger.Logger
}

// NewOrderProductRepository creates a new OrderProductRepository
func NewOrderProductRepository(db *database.Database, logger logger.Logger) *OrderProductRepository {
	return &OrderProductRepository{
		db:     db,
		logger: logger,
	}
}

// CreateInTx inserts one order line snapshot within a transaction.
func (r *OrderProductRepository) CreateInTx(tx database.Tx, line *models.OrderProduct) error {
	sqlTx, err := asSqlxTx(tx)

	if err != nil {
		return err
	}

	query := `
		INSERT INTO order_products (
			order_id, payment_id, user_id, product_id, product_name,
			quantity, product_price, ordered, kind, power, brand,
			variations, created_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)
		RETURNING id
	`

	var id int64

	err = sqlTx.QueryRow(
		query,
		line.OrderID,
		line.PaymentID,
		line.UserID,
		line.ProductID,
		line.ProductName,
		line.Quantity,
		line.ProductPrice,
		line.Ordered,
		line.Kind,
		line.Power,
		line.Brand,
		line.Variations,
		line.CreatedAt,
	).Scan(&id)

	if err != nil {
		r.logger.Error("Failed to create order product", "error", err, "orderID", line.OrderID)
		return fmt.Errorf("%w: %v", ErrDatabase, err)
	}

	line.ID = id
	return nil
}

// GetByOrderID retrieves the line snapshots for an order.
func (r *OrderProductRepository) GetByOrderID(ctx context.Context, orderID int64) ([]*models.OrderProduct, error) {
	query := `
		SELECT id, order_id, payment_id, user_id, product_id, product_name,
			   quantity, product_price, ordered, kind, power, brand,
			   variations, created_at
		FROM order_products
		WHERE order_id = $1
		ORDER BY id ASC
	`

	var lines []*models.OrderProduct
	err := r.db.DB.SelectContext(ctx, &lines, query, orderID)

	if err != nil {
		r.logger.Error("Failed to get order products", "error", err, "orderID", orderID)
		return nil, fmt.Errorf("%w: %v", ErrDatabase, err)
	}

	return lines, nil
}
