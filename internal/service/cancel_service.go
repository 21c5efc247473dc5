package service

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/agristore/storefront-api/internal/models"
	"github.com/agristore/storefront-api/pkg/logger"
)

// ErrNotCancellable is returned when the cancellability predicate rejects the
// order's current state.
var ErrNotCancellable = errors.New("order cannot be cancelled at this stage")

// defaultCancellationReason is stored when the customer submits no reason.
const defaultCancellationReason = "No reason provided"

// CancelledOrder is the outcome of a cancellation request.
type CancelledOrder struct {
	Order *models.Order
	// AlreadyCancelled is set when the order was cancelled before this
	// request; nothing was written.
	AlreadyCancelled bool
}

// CancellationService drives the cancellation transition. The transition is
// terminal: once persisted it is never reverted, regardless of what happens
// to the follow-up notifications.
type CancellationService struct {
	db          TxBeginner
	orders      OrderStore
	outbox      OutboxStore
	cancellable func(*models.Order) bool
	logger      logger.Logger
}

// NewCancellationService creates a new CancellationService. The cancellable
// predicate may be nil, in which case any non-cancelled order qualifies.
func NewCancellationService(
	db TxBeginner,
	orders OrderStore,
	outbox OutboxStore,
	cancellable func(*models.Order) bool,
	logger logger.Logger,
) *CancellationService {
	return &CancellationService{
		db:          db,
		orders:      orders,
		outbox:      outbox,
		cancellable: cancellable,
		logger:      logger,
	}
}

// CancelOrder transitions the order to Cancelled on behalf of its owner.
// Ownership is mandatory: an order belonging to another user reads as not
// found. Cancelling an already-cancelled order is a no-op.
func (s *CancellationService) CancelOrder(ctx context.Context, userID string, orderID int64, reason string) (*CancelledOrder, error) {
	order, err := s.orders.GetByIDForUser(ctx, orderID, userID)

	if err != nil {
		return nil, err
	}

	if order.IsCancelled || order.Status == models.OrderStatusCancelled {
		s.logger.Warn("Order already cancelled", "orderNumber", order.OrderNumber, "userID", userID)
		return &CancelledOrder{Order: order, AlreadyCancelled: true}, nil
	}

	if s.cancellable != nil && !s.cancellable(order) {
		return nil, ErrNotCancellable
	}

	reason = strings.TrimSpace(reason)

	if reason == "" {
		reason = defaultCancellationReason
	}

	order.Status = models.OrderStatusCancelled
	order.IsCancelled = true
	order.CancellationReason = reason

	outboxMsg, err := models.NewOrderCancelledEvent(order)

	if err != nil {
		s.logger.Error("Failed to create outbox message", "error", err)
		return nil, fmt.Errorf("failed to create outbox message: %w", err)
	}

	tx, err := s.db.BeginTx(ctx)

	if err != nil {
		return nil, err
	}

	// Rollback transaction if any error occurs
	defer func() {
		if err != nil {
			if rbErr := tx.Rollback(); rbErr != nil {
				s.logger.Error("Failed to rollback transaction", "error", rbErr)
			}
		}
	}()

	if err = s.orders.CancelInTx(tx, order); err != nil {
		return nil, err
	}

	if err = s.outbox.CreateInTx(tx, outboxMsg); err != nil {
		return nil, err
	}

	if err = tx.Commit(); err != nil {
		s.logger.Error("Failed to commit transaction", "error", err)
		return nil, fmt.Errorf("failed to commit transaction: %w", err)
	}

	s.logger.Info("Order cancelled",
		"orderNumber", order.OrderNumber,
		"userID", userID,
		"reason", reason)

	return &CancelledOrder{Order: order}, nil
}
