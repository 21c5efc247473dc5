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

// PaymentRepository handles database operations for payments
type PaymentRepository struct {
	db     *database.Database
	logger logger.Logger
}

// NewPaymentRepository creates a new PaymentRepository
func NewPaymentRepository(db *database.Database, logger logger.Logger) *PaymentRepository {
	return &PaymentRepository{
		db:     db,
		logger: logger,
	}
}

// CreateInTx inserts a payment within a transaction and assigns its id.
func (r *PaymentRepository) CreateInTx(tx database.Tx, payment *models.Payment) error {
	sqlTx, err := asSqlxTx(tx)

	if err != nil {
		return err
	}

	query := `
		INSERT INTO payments (user_id, payment_id, payment_method, amount_paid, status, created_at)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING id
	`

	var id int64

	err = sqlTx.QueryRow(
		query,
		payment.UserID,
		payment.PaymentID,
		payment.PaymentMethod,
		payment.AmountPaid,
		payment.Status,
		payment.CreatedAt,
	).Scan(&id)

	if err != nil {
		r.logger.Error("Failed to create payment", "error", err, "paymentID", payment.PaymentID)
		return fmt.Errorf("%w: %v", ErrDatabase, err)
	}

	payment.ID = id
	return nil
}

// GetByPaymentID retrieves a payment by its external payment identifier.
func (r *PaymentRepository) GetByPaymentID(ctx context.Context, paymentID string) (*models.Payment, error) {
	query := `
		SELECT id, user_id, payment_id, payment_method, amount_paid, status, created_at
		FROM payments
		WHERE payment_id = $1
	`

	var payment models.Payment
	err := r.db.DB.GetContext(ctx, &payment, query, paymentID)

	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		r.logger.Error("Failed to get payment", "error", err, "paymentID", paymentID)
		return nil, fmt.Errorf("%w: %v", ErrDatabase, err)
	}

	return &payment, nil
}
