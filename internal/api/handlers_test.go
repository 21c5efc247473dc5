package api

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/shopspring/decimal"

	"github.com/agristore/storefront-api/internal/config"
	"github.com/agristore/storefront-api/internal/database"
	"github.com/agristore/storefront-api/internal/models"
	"github.com/agristore/storefront-api/internal/notification"
	"github.com/agristore/storefront-api/internal/repository"
	"github.com/agristore/storefront-api/internal/service"
	"github.com/agristore/storefront-api/pkg/ratelimit"
)

type noopLogger struct{}

func (noopLogger) Debug(msg string, keyvals ...interface{}) {}
func (noopLogger) Info(msg string, keyvals ...interface{})  {}
func (noopLogger) Warn(msg string, keyvals ...interface{})  {}
func (noopLogger) Error(msg string, keyvals ...interface{}) {}

type fakeTx struct{}

func (fakeTx) Commit() error   { return nil }
func (fakeTx) Rollback() error { return nil }

type fakeDB struct{}

func (fakeDB) BeginTx(ctx context.Context) (database.Tx, error) { return fakeTx{}, nil }

type fakeOrderStore struct {
	byNumber map[string]*models.Order
}

func (s *fakeOrderStore) CreateInTx(tx database.Tx, order *models.Order) error { return nil }

func (s *fakeOrderStore) SetOrderNumberInTx(tx database.Tx, orderID int64, orderNumber string) error {
	return nil
}

func (s *fakeOrderStore) GetUnplacedByNumberInTx(tx database.Tx, userID, orderNumber string) (*models.Order, error) {
	order, ok := s.byNumber[orderNumber]

	if !ok || order.UserID != userID || order.IsOrdered {
		return nil, repository.ErrNotFound
	}

	return order, nil
}

func (s *fakeOrderStore) MarkPlacedInTx(tx database.Tx, order *models.Order) error { return nil }

func (s *fakeOrderStore) CancelInTx(tx database.Tx, order *models.Order) error { return nil }

func (s *fakeOrderStore) GetByIDForUser(ctx context.Context, id int64, userID string) (*models.Order, error) {
	return nil, repository.ErrNotFound
}

func (s *fakeOrderStore) GetPlacedByNumber(ctx context.Context, orderNumber string) (*models.Order, error) {
	return nil, repository.ErrNotFound
}

type fakeCartStore struct {
	lines []models.CartLine
}

func (s *fakeCartStore) GetLinesByUser(ctx context.Context, userID string) ([]models.CartLine, error) {
	return s.lines, nil
}

func (s *fakeCartStore) GetLinesByUserInTx(tx database.Tx, userID string) ([]models.CartLine, error) {
	return s.lines, nil
}

func (s *fakeCartStore) ClearByUserInTx(tx database.Tx, userID string) error { return nil }

type fakeProductStore struct{}

func (fakeProductStore) DecrementStockInTx(tx database.Tx, productID int64, quantity int) error {
	return nil
}

type fakePaymentStore struct{}

func (fakePaymentStore) CreateInTx(tx database.Tx, payment *models.Payment) error {
	payment.ID = 1
	return nil
}

func (fakePaymentStore) GetByPaymentID(ctx context.Context, paymentID string) (*models.Payment, error) {
	return nil, repository.ErrNotFound
}

type fakeOrderProductStore struct{}

func (fakeOrderProductStore) CreateInTx(tx database.Tx, line *models.OrderProduct) error { return nil }

func (fakeOrderProductStore) GetByOrderID(ctx context.Context, orderID int64) ([]*models.OrderProduct, error) {
	return nil, nil
}

type fakeOutboxStore struct{}

func (fakeOutboxStore) CreateInTx(tx database.Tx, message *models.OutboxMessage) error { return nil }

type okMailer struct{}

func (okMailer) Send(ctx context.Context, msg *notification.Message) error { return nil }

func newTestServer(t *testing.T, orders *fakeOrderStore) *Server {
	t.Helper()

	log := noopLogger{}

	checkout := service.NewCheckoutService(
		fakeDB{},
		orders,
		&fakeCartStore{lines: []models.CartLine{{
			Item: models.CartItem{ID: 1, UserID: "u1", ProductID: 7, Quantity: 1},
			Product: models.Product{
				ID:          7,
				ProductName: "Organic Jaggery",
				Price:       decimal.NewFromInt(120),
				Kind:        models.PresentationStandard,
			},
		}}},
		fakeProductStore{},
		fakePaymentStore{},
		fakeOrderProductStore{},
		fakeOutboxStore{},
		log,
	)

	dispatcher := notification.NewDispatcher(okMailer{}, notification.Config{
		StoreName:     "Test Store",
		AdminWhatsApp: "916381623023",
		AdminEmail:    "admin@example.com",
	}, log)

	s := &Server{
		config:          &config.Config{Env: "production"},
		logger:          log,
		checkoutService: checkout,
		dispatcher:      dispatcher,
		rateLimiter:     ratelimit.NewIPRateLimiter(100, 100),
	}
	t.Cleanup(s.rateLimiter.Stop)

	s.setupRoutes()

	return s
}

func unplacedOrder(number string) *fakeOrderStore {
	return &fakeOrderStore{byNumber: map[string]*models.Order{
		number: {
			ID:          1,
			UserID:      "u1",
			OrderNumber: number,
			FirstName:   "Asha",
			Email:       "asha@example.com",
			OrderTotal:  decimal.NewFromInt(120),
			Status:      models.OrderStatusNew,
		},
	}}
}

func TestFinalizeEndpointAcceptsOrderIDKey(t *testing.T) {
	s := newTestServer(t, unplacedOrder("2026082942"))

	req := httptest.NewRequest(http.MethodPost, "/api/v1/checkout/finalize",
		strings.NewReader(`{"orderID":"2026082942"}`))
	req.Header.Set("X-User-ID", "u1")

	rec := httptest.NewRecorder()
	s.router.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}

	var resp struct {
		Success bool                   `json:"success"`
		Data    map[string]interface{} `json:"data"`
	}

	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}

	if !resp.Success {
		t.Fatal("expected success envelope")
	}

	if resp.Data["status"] != "success" {
		t.Fatalf(`expected status "success", got %v`, resp.Data["status"])
	}

	if resp.Data["order_number"] != "2026082942" {
		t.Fatalf("expected order number in response, got %v", resp.Data["order_number"])
	}

	paymentID, _ := resp.Data["payment_id"].(string)

	if !strings.HasPrefix(paymentID, "WA-") {
		t.Fatalf("expected WA- payment id, got %q", paymentID)
	}

	if url, _ := resp.Data["whatsapp_url"].(string); url == "" {
		t.Fatal("expected a whatsapp url")
	}
}

func TestFinalizeEndpointRequiresOrderID(t *testing.T) {
	s := newTestServer(t, unplacedOrder("2026082942"))

	req := httptest.NewRequest(http.MethodPost, "/api/v1/checkout/finalize",
		strings.NewReader(`{}`))
	req.Header.Set("X-User-ID", "u1")

	rec := httptest.NewRecorder()
	s.router.ServeHTTP(rec, req)

	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", rec.Code)
	}
}

func TestFinalizeEndpointRequiresIdentity(t *testing.T) {
	s := newTestServer(t, unplacedOrder("2026082942"))

	req := httptest.NewRequest(http.MethodPost, "/api/v1/checkout/finalize",
		strings.NewReader(`{"orderID":"2026082942"}`))

	rec := httptest.NewRecorder()
	s.router.ServeHTTP(rec, req)

	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %d", rec.Code)
	}
}
