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

var (
	ErrNotFound = errors.New("record not found")
	ErrDatabase = errors.New("database error")
)

const orderColumns = `
	id, user_id, payment_id, order_number, first_name, last_name, phone, email,
	address_line_1, address_line_2, city, state, country, order_note,
	order_total, tax, status, ip, is_ordered, is_cancelled,
	cancellation_reason, created_at, updated_at
`

// OrderRepository handles database operations for orders
type OrderRepository struct {
	db     *database.Database
	logger logger.Logger
}

// NewOrderRepository creates a new OrderRepository
func NewOrderRepository(db *database.Database, logger logger.Logger) *OrderRepository {
	return &OrderRepository{
		db:     db,
		logger: logger,
	}
}

// CreateInTx inserts a new order within a transaction and assigns its durable id.
// The order number is left empty; it is derived from the id in a second write.
func (r *OrderRepository) CreateInTx(tx database.Tx, order *models.Order) error {
	sqlTx, err := asSqlxTx(tx)

	if err != nil {
		return err
	}

	query := `
		INSERT INTO orders (
			user_id, order_number, first_name, last_name, phone, email,
			address_line_1, address_line_2, city, state, country, order_note,
			order_total, tax, status, ip, is_ordered, is_cancelled,
			cancellation_reason, created_at, updated_at
		) VALUES (
			$1, '', $2, $3, $4, $5, $6, $7, $8, $9, $10, $11,
			$12, $13, $14, $15, $16, $17, '', $18, $19
		) RETURNING id
	`

	var id int64

	err = sqlTx.QueryRow(
		query,
		order.UserID,
		order.FirstName,
		order.LastName,
		order.Phone,
		order.Email,
		order.AddressLine1,
		order.AddressLine2,
		order.City,
		order.State,
		order.Country,
		order.OrderNote,
		order.OrderTotal,
		order.Tax,
		order.Status,
		order.IP,
		order.IsOrdered,
		order.IsCancelled,
		order.CreatedAt,
		order.UpdatedAt,
	).Scan(&id)

	if err != nil {
		r.logger.Error("Failed to create order", "error", err, "userID", order.UserID)
		return fmt.Errorf("%w: %v", ErrDatabase, err)
	}

	order.ID = id
	return nil
}

// SetOrderNumberInTx persists the derived order number. Second phase of the
// two-step save: the number depends on the id assigned by the insert.
func (r *OrderRepository) SetOrderNumberInTx(tx database.Tx, orderID int64, orderNumber string) error {
	sqlTx, err := asSqlxTx(tx)

	if err != nil {
		return err
	}

	query := `
		UPDATE orders
		SET order_number = $1, updated_at = $2
		WHERE id = $3 AND order_number = ''
	`

	result, err := sqlTx.Exec(query, orderNumber, models.GetCurrentTime(), orderID)

	if err != nil {
		r.logger.Error("Failed to set order number", "error", err, "orderID", orderID)
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

// GetUnplacedByNumberInTx locates an unplaced order by user and order number,
// locking the row for the rest of the fulfillment transaction.
func (r *OrderRepository) GetUnplacedByNumberInTx(tx database.Tx, userID, orderNumber string) (*models.Order, error) {
	sqlTx, err := asSqlxTx(tx)

	if err != nil {
		return nil, err
	}

	query := `
		SELECT ` + orderColumns + `
		FROM orders
		WHERE user_id = $1 AND order_number = $2 AND is_ordered = FALSE
		FOR UPDATE
	`

	var order models.Order
	err = sqlTx.Get(&order, query, userID, orderNumber)

	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		r.logger.Error("Failed to get unplaced order", "error", err, "orderNumber", orderNumber)
		return nil, fmt.Errorf("%w: %v", ErrDatabase, err)
	}

	return &order, nil
}

// MarkPlacedInTx links the payment and flips the order to placed.
func (r *OrderRepository) MarkPlacedInTx(tx database.Tx, order *models.Order) error {
	sqlTx, err := asSqlxTx(tx)

	if err != nil {
		return err
	}

	query := `
		UPDATE orders
		SET payment_id = $1, is_ordered = $2, status = $3, updated_at = $4
		WHERE id = $5
	`

	result, err := sqlTx.Exec(
		query,
		order.PaymentID,
		order.IsOrdered,
		order.Status,
		models.GetCurrentTime(),
		order.ID,
	)

	if err != nil {
		r.logger.Error("Failed to mark order placed", "error", err, "orderID", order.ID)
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

// CancelInTx persists the cancellation transition.
func (r *OrderRepository) CancelInTx(tx database.Tx, order *models.Order) error {
	sqlTx, err := asSqlxTx(tx)

	if err != nil {
		return err
	}

	query := `
		UPDATE orders
		SET status = $1, is_cancelled = $2, cancellation_reason = $3, updated_at = $4
		WHERE id = $5
	`

	result, err := sqlTx.Exec(
		query,
		order.Status,
		order.IsCancelled,
		order.CancellationReason,
		models.GetCurrentTime(),
		order.ID,
	)

	if err != nil {
		r.logger.Error("Failed to cancel order", "error", err, "orderID", order.ID)
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

// GetByIDForUser retrieves an order by id scoped to its owning user.
func (r *OrderRepository) GetByIDForUser(ctx context.Context, id int64, userID string) (*models.Order, error) {
	query := `
		SELECT ` + orderColumns + `
		FROM orders
		WHERE id = $1 AND user_id = $2
	`

	var order models.Order
	err := r.db.DB.GetContext(ctx, &order, query, id, userID)

	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		r.logger.Error("Failed to get order by ID", "error", err, "orderID", id)
		return nil, fmt.Errorf("%w: %v", ErrDatabase, err)
	}

	return &order, nil
}

// GetPlacedByNumber retrieves a placed order by its order number.
func (r *OrderRepository) GetPlacedByNumber(ctx context.Context, orderNumber string) (*models.Order, error) {
	query := `
		SELECT ` + orderColumns + `
		FROM orders
		WHERE order_number = $1 AND is_ordered = TRUE
	`

	var order models.Order
	err := r.db.DB.GetContext(ctx, &order, query, orderNumber)

	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		r.logger.Error("Failed to get placed order", "error", err, "orderNumber", orderNumber)
		return nil, fmt.Errorf("%w: %v", ErrDatabase, err)
	}

	return &order, nil
}

// GetByUser retrieves a user's orders, newest first.
func (r *OrderRepository) GetByUser(ctx context.Context, userID string, limit, offset int) ([]*models.Order, error) {
	query := `
		SELECT ` + orderColumns + `
		FROM orders
		WHERE user_id = $1
		ORDER BY created_at DESC
		LIMIT $2 OFFSET $3
	`

	var orders []*models.Order
	err := r.db.DB.SelectContext(ctx, &orders, query, userID, limit, offset)

	if err != nil {
		r.logger.Error("Failed to get orders by user", "error", err, "userID", userID)
		return nil, fmt.Errorf("%w: %v", ErrDatabase, err)
	}

	return orders, nil
}
