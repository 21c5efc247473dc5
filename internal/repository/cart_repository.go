package repository

import (
	"context"
	"fmt"

	"github.com/agristore/storefront-api/internal/database"
	"github.com/agristore/storefront-api/internal/models"
	"github.com/agristore/storefront-api/pkg/logger"
)

// CartRepository reads and clears a user's cart lines. Cart lines are owned
// by the cart module; this repository only consumes them at fulfillment.
type CartRepository struct {
	db     *database.Database
	logger logger.Logger
}

// NewCartRepository creates a new CartRepository
func NewCartRepository(db *database.Database, logger logger.Logger) *CartRepository {
	return &CartRepository{
		db:     db,
		logger: logger,
	}
}

const cartLinesQuery = `
	SELECT ci.id, ci.user_id, ci.product_id, ci.quantity, ci.variations, ci.created_at,
		   p.id AS "product.id", p.product_name AS "product.product_name",
		   p.price AS "product.price", p.stock AS "product.stock",
		   p.kind AS "product.kind", p.power AS "product.power",
		   p.brand AS "product.brand"
	FROM cart_items ci
	JOIN products p ON p.id = ci.product_id
	WHERE ci.user_id = $1
	ORDER BY ci.created_at ASC
`

type cartLineRow struct {
	models.CartItem
	Product models.Product `db:"product"`
}

func cartLinesFromRows(rows []cartLineRow) []models.CartLine {
	lines := make([]models.CartLine, 0, len(rows))

	for _, rw := range rows {
		lines = append(lines, models.CartLine{
			Item:    rw.CartItem,
			Product: rw.Product,
		})
	}

	return lines
}

// GetLinesByUser reads the user's current cart joined with product data.
func (r *CartRepository) GetLinesByUser(ctx context.Context, userID string) ([]models.CartLine, error) {
	var rows []cartLineRow
	err := r.db.DB.SelectContext(ctx, &rows, cartLinesQuery, userID)

	if err != nil {
		r.logger.Error("Failed to get cart lines", "error", err, "userID", userID)
		return nil, fmt.Errorf("%w: %v", ErrDatabase, err)
	}

	return cartLinesFromRows(rows), nil
}

// GetLinesByUserInTx reads the cart within a transaction. Fulfillment snapshots
// the same lines it later clears, so both run on one transaction.
func (r *CartRepository) GetLinesByUserInTx(tx database.Tx, userID string) ([]models.CartLine, error) {
	sqlTx, err := asSqlxTx(tx)

	if err != nil {
		return nil, err
	}

	var rows []cartLineRow
	err = sqlTx.Select(&rows, cartLinesQuery, userID)

	if err != nil {
		r.logger.Error("Failed to get cart lines in transaction", "error", err, "userID", userID)
		return nil, fmt.Errorf("%w: %v", ErrDatabase, err)
	}

	return cartLinesFromRows(rows), nil
}

// ClearByUserInTx deletes all of the user's cart lines within a transaction.
func (r *CartRepository) ClearByUserInTx(tx database.Tx, userID string) error {
	sqlTx, err := asSqlxTx(tx)

	if err != nil {
		return err
	}

	query := `DELETE FROM cart_items WHERE user_id = $1`

	_, err = sqlTx.Exec(query, userID)

	if err != nil {
		r.logger.Error("Failed to clear cart", "error", err, "userID", userID)
		return fmt.Errorf("%w: %v", ErrDatabase, err)
	}

	return nil
}
