package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/agristore/storefront-api/internal/models"
	"github.com/agristore/storefront-api/pkg/logger"
)

var (
	// ErrEmptyCart is returned when placement is attempted against an empty cart.
	ErrEmptyCart = errors.New("cart is empty")
)

// ValidationError reports malformed checkout form input. Nothing is persisted
// when it is returned; the caller redisplays the form.
type ValidationError struct {
	Fields map[string]string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid checkout form: %d field(s)", len(e.Fields))
}

// CheckoutForm carries the checkout form fields as submitted.
type CheckoutForm struct {
	FirstName    string `json:"first_name"`
	LastName     string `json:"last_name"`
	Phone        string `json:"phone"`
	Email        string `json:"email"`
	AddressLine1 string `json:"address_line_1"`
	AddressLine2 string `json:"address_line_2"`
	City         string `json:"city"`
	State        string `json:"state"`
	Country      string `json:"country"`
	OrderNote    string `json:"order_note"`
}

// Validate checks required fields and basic shape. AddressLine2 and OrderNote
// are optional.
func (f *CheckoutForm) Validate() error {
	fields := make(map[string]string)

	required := map[string]string{
		"first_name":     f.FirstName,
		"last_name":      f.LastName,
		"phone":          f.Phone,
		"email":          f.Email,
		"address_line_1": f.AddressLine1,
		"city":           f.City,
		"state":          f.State,
		"country":        f.Country,
	}

	for name, value := range required {
		if strings.TrimSpace(value) == "" {
			fields[name] = "This field is required"
		}
	}

	if f.Email != "" && !strings.Contains(f.Email, "@") {
		fields["email"] = "Enter a valid email address"
	}

	if len(fields) > 0 {
		return &ValidationError{Fields: fields}
	}

	return nil
}

// PlacedOrder is the payment-page payload returned by PlaceOrder.
type PlacedOrder struct {
	Order *models.Order
	Cart  models.CartSnapshot
}

// FinalizedOrder is the outcome of a successful fulfillment.
type FinalizedOrder struct {
	Order   *models.Order
	Payment *models.Payment
	Lines   []*models.OrderProduct
}

// CompletedOrder is the confirmation-view payload.
type CompletedOrder struct {
	Order    *models.Order
	Payment  *models.Payment
	Lines    []*models.OrderProduct
	Subtotal decimal.Decimal
}

// CheckoutService drives the placement half of the order lifecycle:
// unplaced order creation and fulfillment.
type CheckoutService struct {
	db            TxBeginner
	orders        OrderStore
	carts         CartStore
	products      ProductStore
	payments      PaymentStore
	orderProducts OrderProductStore
	outbox        OutboxStore
	logger        logger.Logger
	now           func() time.Time
}

// NewCheckoutService creates a new CheckoutService
func NewCheckoutService(
	db TxBeginner,
	orders OrderStore,
	carts CartStore,
	products ProductStore,
	payments PaymentStore,
	orderProducts OrderProductStore,
	outbox OutboxStore,
	logger logger.Logger,
) *CheckoutService {
	return &CheckoutService{
		db:            db,
		orders:        orders,
		carts:         carts,
		products:      products,
		payments:      payments,
		orderProducts: orderProducts,
		outbox:        outbox,
		logger:        logger,
		now:           time.Now,
	}
}

// CartSummary reads the user's current cart and computes its totals.
func (s *CheckoutService) CartSummary(ctx context.Context, userID string) (models.CartSnapshot, error) {
	lines, err := s.carts.GetLinesByUser(ctx, userID)

	if err != nil {
		return models.CartSnapshot{}, err
	}

	return models.NewCartSnapshot(lines), nil
}

// PlaceOrder validates the checkout form and persists a new unplaced order.
// The order number is derived from the durable id, so the row is written
// twice: insert, then number assignment. Both writes share one transaction.
func (s *CheckoutService) PlaceOrder(ctx context.Context, userID, ip string, form CheckoutForm) (*PlacedOrder, error) {
	snapshot, err := s.CartSummary(ctx, userID)

	if err != nil {
		return nil, err
	}

	if snapshot.IsEmpty() {
		return nil, ErrEmptyCart
	}

	if err := form.Validate(); err != nil {
		return nil, err
	}

	now := models.GetCurrentTime()

	order := &models.Order{
		UserID:       userID,
		FirstName:    strings.TrimSpace(form.FirstName),
		LastName:     strings.TrimSpace(form.LastName),
		Phone:        strings.TrimSpace(form.Phone),
		Email:        strings.TrimSpace(form.Email),
		AddressLine1: strings.TrimSpace(form.AddressLine1),
		AddressLine2: strings.TrimSpace(form.AddressLine2),
		City:         strings.TrimSpace(form.City),
		State:        strings.TrimSpace(form.State),
		Country:      strings.TrimSpace(form.Country),
		OrderNote:    strings.TrimSpace(form.OrderNote),
		OrderTotal:   snapshot.Total,
		Tax:          decimal.Zero,
		Status:       models.OrderStatusNew,
		IP:           ip,
		IsOrdered:    false,
		CreatedAt:    now,
		UpdatedAt:    now,
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

	if err = s.orders.CreateInTx(tx, order); err != nil {
		return nil, err
	}

	orderNumber := models.OrderNumber(order.ID, s.now())

	if err = s.orders.SetOrderNumberInTx(tx, order.ID, orderNumber); err != nil {
		return nil, err
	}

	order.OrderNumber = orderNumber

	if err = tx.Commit(); err != nil {
		s.logger.Error("Failed to commit transaction", "error", err)
		return nil, fmt.Errorf("failed to commit transaction: %w", err)
	}

	s.logger.Info("Order created",
		"orderID", order.ID,
		"orderNumber", order.OrderNumber,
		"userID", userID,
		"orderTotal", order.OrderTotal)

	return &PlacedOrder{Order: order, Cart: snapshot}, nil
}

// FinalizeOrder converts an unplaced order plus the user's active cart into a
// confirmed order: payment record, placed transition, line snapshots, stock
// decrement and cart clearing all commit or roll back together. The
// order_placed event rides the same transaction through the outbox.
func (s *CheckoutService) FinalizeOrder(ctx context.Context, userID, orderNumber string) (*FinalizedOrder, error) {
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

	order, err := s.orders.GetUnplacedByNumberInTx(tx, userID, orderNumber)

	if err != nil {
		return nil, err
	}

	// Cart lines are read inside the transaction so the snapshots written
	// below match exactly what ClearByUserInTx deletes.
	lines, err := s.carts.GetLinesByUserInTx(tx, userID)

	if err != nil {
		return nil, err
	}

	payment := models.NewWhatsAppPayment(userID, order.OrderTotal)

	if err = s.payments.CreateInTx(tx, payment); err != nil {
		return nil, err
	}

	order.PaymentID = sql.NullInt64{Int64: payment.ID, Valid: true}
	order.IsOrdered = true
	order.Status = models.OrderStatusPlaced

	if err = s.orders.MarkPlacedInTx(tx, order); err != nil {
		return nil, err
	}

	snapshots := make([]*models.OrderProduct, 0, len(lines))

	for _, line := range lines {
		snapshot := models.NewOrderProduct(order, payment, line)

		if err = s.orderProducts.CreateInTx(tx, snapshot); err != nil {
			return nil, err
		}

		if err = s.products.DecrementStockInTx(tx, line.Product.ID, line.Item.Quantity); err != nil {
			return nil, err
		}

		snapshots = append(snapshots, snapshot)
	}

	if err = s.carts.ClearByUserInTx(tx, userID); err != nil {
		return nil, err
	}

	outboxMsg, err := models.NewOrderPlacedEvent(order, payment)

	if err != nil {
		s.logger.Error("Failed to create outbox message", "error", err)
		return nil, fmt.Errorf("failed to create outbox message: %w", err)
	}

	if err = s.outbox.CreateInTx(tx, outboxMsg); err != nil {
		return nil, err
	}

	if err = tx.Commit(); err != nil {
		s.logger.Error("Failed to commit transaction", "error", err)
		return nil, fmt.Errorf("failed to commit transaction: %w", err)
	}

	s.logger.Info("Order finalized",
		"orderNumber", order.OrderNumber,
		"paymentID", payment.PaymentID,
		"lines", len(snapshots),
		"outboxID", outboxMsg.ID)

	return &FinalizedOrder{Order: order, Payment: payment, Lines: snapshots}, nil
}

// OrderComplete looks up a placed order and its payment for the confirmation
// view. Both lookups must succeed.
func (s *CheckoutService) OrderComplete(ctx context.Context, orderNumber, paymentID string) (*CompletedOrder, error) {
	order, err := s.orders.GetPlacedByNumber(ctx, orderNumber)

	if err != nil {
		return nil, err
	}

	payment, err := s.payments.GetByPaymentID(ctx, paymentID)

	if err != nil {
		return nil, err
	}

	lines, err := s.orderProducts.GetByOrderID(ctx, order.ID)

	if err != nil {
		return nil, err
	}

	subtotal := decimal.Zero

	for _, line := range lines {
		subtotal = subtotal.Add(line.LineTotal())
	}

	return &CompletedOrder{
		Order:    order,
		Payment:  payment,
		Lines:    lines,
		Subtotal: subtotal,
	}, nil
}
