package service

import (
	"context"
	"errors"
	"testing"

	"github.com/shopspring/decimal"

	"github.com/agristore/storefront-api/internal/models"
	"github.com/agristore/storefront-api/internal/repository"
)

type cancelFixture struct {
	db     *stubDB
	orders *stubOrderStore
	outbox *stubOutboxStore
	svc    *CancellationService
}

func newCancelFixture(cancellable func(*models.Order) bool) *cancelFixture {
	f := &cancelFixture{
		db:     &stubDB{},
		orders: newStubOrderStore(),
		outbox: &stubOutboxStore{},
	}

	f.svc = NewCancellationService(f.db, f.orders, f.outbox, cancellable, noopLogger{})

	return f
}

func (f *cancelFixture) seedOrder(userID string, cancelled bool) *models.Order {
	order := &models.Order{
		UserID:      userID,
		OrderNumber: "202502105",
		FirstName:   "Asha",
		LastName:    "Nair",
		Email:       "asha@example.com",
		OrderTotal:  decimal.NewFromInt(240),
		Status:      models.OrderStatusPlaced,
		IsOrdered:   true,
		IsCancelled: cancelled,
	}

	if cancelled {
		order.Status = models.OrderStatusCancelled
	}

	f.orders.CreateInTx(nil, order)
	f.orders.byNumber[order.OrderNumber] = order

	return order
}

func TestCancelOrder(t *testing.T) {
	f := newCancelFixture(nil)
	order := f.seedOrder("u1", false)

	cancelled, err := f.svc.CancelOrder(context.Background(), "u1", order.ID, "Ordered by mistake")

	if err != nil {
		t.Fatalf("CancelOrder returned error: %v", err)
	}

	if cancelled.AlreadyCancelled {
		t.Fatal("order was not cancelled before")
	}

	if !cancelled.Order.IsCancelled || cancelled.Order.Status != models.OrderStatusCancelled {
		t.Fatal("order must be transitioned to cancelled")
	}

	if cancelled.Order.CancellationReason != "Ordered by mistake" {
		t.Fatalf("unexpected reason %q", cancelled.Order.CancellationReason)
	}

	if len(f.orders.cancelled) != 1 {
		t.Fatalf("expected 1 cancel write, got %d", len(f.orders.cancelled))
	}

	if len(f.outbox.messages) != 1 || f.outbox.messages[0].EventType != models.EventTypeOrderCancelled {
		t.Fatal("expected one order_cancelled outbox message")
	}

	if f.db.lastTx == nil || !f.db.lastTx.committed {
		t.Fatal("expected transaction to be committed")
	}
}

func TestCancelOrderDefaultsReason(t *testing.T) {
	f := newCancelFixture(nil)
	order := f.seedOrder("u1", false)

	cancelled, err := f.svc.CancelOrder(context.Background(), "u1", order.ID, "   ")

	if err != nil {
		t.Fatalf("CancelOrder returned error: %v", err)
	}

	if cancelled.Order.CancellationReason != "No reason provided" {
		t.Fatalf("expected default reason, got %q", cancelled.Order.CancellationReason)
	}
}

func TestCancelOrderAlreadyCancelled(t *testing.T) {
	f := newCancelFixture(nil)
	order := f.seedOrder("u1", true)

	cancelled, err := f.svc.CancelOrder(context.Background(), "u1", order.ID, "again")

	if err != nil {
		t.Fatalf("CancelOrder returned error: %v", err)
	}

	if !cancelled.AlreadyCancelled {
		t.Fatal("expected AlreadyCancelled")
	}

	if len(f.orders.cancelled) != 0 {
		t.Fatal("no write may happen for an already-cancelled order")
	}

	if len(f.outbox.messages) != 0 {
		t.Fatal("no event may be emitted for an already-cancelled order")
	}
}

func TestCancelOrderWrongUser(t *testing.T) {
	f := newCancelFixture(nil)
	order := f.seedOrder("u1", false)

	_, err := f.svc.CancelOrder(context.Background(), "intruder", order.ID, "")

	if !errors.Is(err, repository.ErrNotFound) {
		t.Fatalf("expected ErrNotFound for foreign order, got %v", err)
	}

	if len(f.orders.cancelled) != 0 {
		t.Fatal("foreign order must not be written")
	}
}

func TestCancelOrderNotCancellable(t *testing.T) {
	f := newCancelFixture(func(*models.Order) bool { return false })
	order := f.seedOrder("u1", false)

	_, err := f.svc.CancelOrder(context.Background(), "u1", order.ID, "")

	if !errors.Is(err, ErrNotCancellable) {
		t.Fatalf("expected ErrNotCancellable, got %v", err)
	}

	if len(f.outbox.messages) != 0 {
		t.Fatal("no event may be emitted when the predicate rejects")
	}
}
