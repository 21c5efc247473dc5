package models

import (
	"strings"
	"testing"
	"time"

	"github.com/shopspring/decimal"
)

func TestOrderNumber(t *testing.T) {
	at := time.Date(2025, 2, 10, 23, 59, 0, 0, time.UTC)

	if got := OrderNumber(41, at); got != "2025021041" {
		t.Fatalf("expected 2025021041, got %q", got)
	}
}

func TestNewPaymentID(t *testing.T) {
	at := time.Date(2025, 2, 10, 9, 30, 15, 0, time.UTC)

	id := NewPaymentID("WA", at)

	if !strings.HasPrefix(id, "WA-20250210093015-") {
		t.Fatalf("unexpected payment id %q", id)
	}

	parts := strings.Split(id, "-")

	if len(parts) != 3 || len(parts[2]) != 8 {
		t.Fatalf("expected 8-char random suffix, got %q", id)
	}

	if id == NewPaymentID("WA", at) {
		t.Fatal("payment ids within the same second must differ")
	}
}

func TestOrderFullAddress(t *testing.T) {
	order := &Order{
		AddressLine1: "12 Market Road",
		City:         "Coimbatore",
		State:        "Tamil Nadu",
		Country:      "India",
	}

	if got := order.FullAddress(); got != "12 Market Road, Coimbatore, Tamil Nadu, India" {
		t.Fatalf("unexpected address %q", got)
	}

	order.AddressLine2 = "Near Bus Stand"

	if got := order.FullAddress(); got != "12 Market Road, Near Bus Stand, Coimbatore, Tamil Nadu, India" {
		t.Fatalf("unexpected address %q", got)
	}
}

func TestCartSnapshotTotals(t *testing.T) {
	lines := []CartLine{
		{
			Item:    CartItem{Quantity: 2},
			Product: Product{Price: decimal.NewFromInt(120)},
		},
		{
			Item:    CartItem{Quantity: 1},
			Product: Product{Price: decimal.RequireFromString("350.50")},
		},
	}

	snapshot := NewCartSnapshot(lines)

	if !snapshot.Total.Equal(decimal.RequireFromString("590.50")) {
		t.Fatalf("expected total 590.50, got %s", snapshot.Total)
	}

	if snapshot.Quantity != 3 {
		t.Fatalf("expected quantity 3, got %d", snapshot.Quantity)
	}

	if snapshot.IsEmpty() {
		t.Fatal("snapshot with lines is not empty")
	}

	if !NewCartSnapshot(nil).IsEmpty() {
		t.Fatal("snapshot without lines is empty")
	}
}

func TestVariationListRoundTrip(t *testing.T) {
	list := VariationList{{Category: "size", Value: "5 kg"}}

	raw, err := list.Value()

	if err != nil {
		t.Fatalf("Value returned error: %v", err)
	}

	var scanned VariationList

	if err := scanned.Scan(raw); err != nil {
		t.Fatalf("Scan returned error: %v", err)
	}

	if len(scanned) != 1 || scanned[0] != list[0] {
		t.Fatalf("round trip mismatch: %+v", scanned)
	}
}

func TestNewOrderProductSnapshotsPresentation(t *testing.T) {
	order := &Order{ID: 5, UserID: "u1"}
	payment := &Payment{ID: 9}

	line := CartLine{
		Item: CartItem{
			ProductID:  7,
			Quantity:   2,
			Variations: VariationList{{Category: "size", Value: "5 kg"}},
		},
		Product: Product{
			ID:          7,
			ProductName: "Rice Bag",
			Price:       decimal.NewFromInt(450),
			Kind:        PresentationVariant,
		},
	}

	snapshot := NewOrderProduct(order, payment, line)

	if snapshot.OrderID != 5 || snapshot.PaymentID != 9 || snapshot.UserID != "u1" {
		t.Fatalf("snapshot keys wrong: %+v", snapshot)
	}

	if snapshot.Kind != PresentationVariant || len(snapshot.Variations) != 1 {
		t.Fatal("presentation attributes must be copied onto the snapshot")
	}

	if !snapshot.LineTotal().Equal(decimal.NewFromInt(900)) {
		t.Fatalf("expected line total 900, got %s", snapshot.LineTotal())
	}
}

func TestOrderPlacedEvent(t *testing.T) {
	order := &Order{
		OrderNumber: "202502105",
		UserID:      "u1",
		OrderTotal:  decimal.NewFromInt(590),
		Status:      OrderStatusPlaced,
	}
	payment := &Payment{PaymentID: "WA-20250210093000-abcd1234"}

	msg, err := NewOrderPlacedEvent(order, payment)

	if err != nil {
		t.Fatalf("NewOrderPlacedEvent returned error: %v", err)
	}

	if msg.EventType != EventTypeOrderPlaced || msg.AggregateID != "202502105" {
		t.Fatalf("unexpected message envelope: %+v", msg)
	}

	if msg.Status != OutboxStatusPending {
		t.Fatalf("new outbox message must be pending, got %s", msg.Status)
	}

	if !strings.Contains(string(msg.Payload), "WA-20250210093000-abcd1234") {
		t.Fatal("payload must carry the payment id")
	}
}

func TestDeadLetterMessageReplay(t *testing.T) {
	original := &OutboxMessage{
		ID:            42,
		AggregateType: "order",
		AggregateID:   "202502105",
		EventType:     EventTypeOrderPlaced,
		Payload:       []byte(`{"event_type":"order_placed"}`),
		Status:        OutboxStatusFailed,
	}

	parked := NewDeadLetterMessage(original, "broker unreachable", "exhausted delivery attempts")

	if parked.OriginalMessageID != 42 {
		t.Fatalf("expected original message id 42, got %d", parked.OriginalMessageID)
	}

	if parked.Status != DeadLetterStatusPending {
		t.Fatalf("parked message must be pending, got %s", parked.Status)
	}

	replayed := parked.ToOutboxMessage()

	if replayed.EventType != EventTypeOrderPlaced || replayed.AggregateID != "202502105" {
		t.Fatalf("replay must keep the event envelope: %+v", replayed)
	}

	if string(replayed.Payload) != string(original.Payload) {
		t.Fatal("replay must keep the original payload")
	}

	if replayed.Status != OutboxStatusPending {
		t.Fatalf("replayed message must start pending, got %s", replayed.Status)
	}

	if replayed.ProcessingAttempts != 0 {
		t.Fatalf("replayed message must start with zero attempts, got %d", replayed.ProcessingAttempts)
	}
}
