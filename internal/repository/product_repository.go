package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/agristore/storefront-api/internal/database"
	"github.com/agristore/storefront-api/internal/models"
	"github.com/agristore/storefront-api/pkg/logger"
)

// ProductRepository adjusts product stock. Product lifecycle is owned by the
// catalog; the only write this module performs is the stock decrement on
// fulfillment.
type ProductRepository struct {
	db     *database.Database
	logger logger.Logger
}

// NewProductRepository creates a new ProductRepository
func NewProductRepository(db *database.Database, logger logger.Logger) *ProductRepository {
	return &ProductRepository{
		db:     db,
		logger: logger,
	}
}

// GetByID retrieves a product by its id.
func (r *ProductRepository) GetByID(ctx context.Context, id int64) (*models.Product, error) {
	query := `
		SELECT id, product_name, price, stock, kind, power, brand
		FROM products
		WHERE id = $1
	`

	var product models.Product
	err := r.db.DB.GetContext(ctx, &product, query, id)

	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		r.logger.Error("Failed to get product", "error", err, "productID", id)
		return nil, fmt.Errorf("%w: %v", ErrDatabase, err)
	}

	return &product, nil
}

// DecrementStockInTx reduces a product's stock by the ordered quantity.
// There is deliberately no floor check; concurrent overselling drives stock
// negative, matching the documented storefront behavior.
func (r *ProductRepository) DecrementStockInTx(tx database.Tx, productID int64, quantity int) error {
	sqlTx, err := asSqlxTx(tx)

	if err != nil {
		return err
	}

	query := `UPDATE products SET stock = stock - $1 WHERE id = $2`

	result, err := sqlTx.Exec(query, quantity, productID)

	if err != nil {
		r.logger.Error("Failed to decrement stock", "error", err, "productID", productID)
		return fmt.Errorf("%w: %v", ErrDatabase, err)
	}

	rowsAffected, err := result.RowsAffected()

	if err != nil {
		return fmt.Errorf("%w: %v", ErrDatabase, err)
	}

	if rowsAffected == 0 {
		return ErrNotFound
	}

	return nil
}
