package notification

import (
	"database/sql"
	"net/url"
	"strings"
	"testing"
	"time"

	"github.com/shopspring/decimal"

	"github.com/agristore/storefront-api/internal/models"
)

func testOrder() *models.Order {
	return &models.Order{
		ID:           5,
		UserID:       "u1",
		OrderNumber:  "202502105",
		FirstName:    "Asha",
		LastName:     "Nair",
		Phone:        "9876543210",
		Email:        "asha@example.com",
		AddressLine1: "12 Market Road",
		City:         "Coimbatore",
		State:        "Tamil Nadu",
		Country:      "India",
		OrderTotal:   decimal.NewFromInt(590),
		CreatedAt:    time.Date(2025, 2, 10, 9, 30, 0, 0, time.UTC),
	}
}

func TestItemLineStandard(t *testing.T) {
	line := &models.OrderProduct{
		ProductName:  "Organic Jaggery",
		Quantity:     2,
		ProductPrice: decimal.NewFromInt(120),
		Kind:         models.PresentationStandard,
	}

	got := ItemLine(line)

	if got != "• Organic Jaggery x2" {
		t.Fatalf("unexpected line: %q", got)
	}
}

func TestItemLinePowered(t *testing.T) {
	line := &models.OrderProduct{
		ProductName: "Garden Pump",
		Quantity:    1,
		Kind:        models.PresentationPowered,
		Power:       sql.NullString{String: "1.5 HP", Valid: true},
		Brand:       sql.NullString{String: "Kisan", Valid: true},
		// A stray variation must not leak into a powered line
		Variations: models.VariationList{{Category: "color", Value: "red"}},
	}

	got := ItemLine(line)

	if got != "• Garden Pump x1 (power: 1.5 HP, brand: Kisan)" {
		t.Fatalf("unexpected line: %q", got)
	}

	if strings.Contains(got, "color") {
		t.Fatal("powered line must not show variations")
	}
}

func TestItemLinePoweredWithoutBrand(t *testing.T) {
	line := &models.OrderProduct{
		ProductName: "Sprayer",
		Quantity:    3,
		Kind:        models.PresentationPowered,
		Power:       sql.NullString{String: "12V", Valid: true},
	}

	if got := ItemLine(line); got != "• Sprayer x3 (power: 12V)" {
		t.Fatalf("unexpected line: %q", got)
	}
}

func TestItemLineVariant(t *testing.T) {
	line := &models.OrderProduct{
		ProductName: "Rice Bag",
		Quantity:    1,
		Kind:        models.PresentationVariant,
		Variations: models.VariationList{
			{Category: "size", Value: "5 kg"},
			{Category: "grade", Value: "premium"},
		},
	}

	if got := ItemLine(line); got != "• Rice Bag x1 (size: 5 kg, grade: premium)" {
		t.Fatalf("unexpected line: %q", got)
	}
}

func TestOrderSummary(t *testing.T) {
	order := testOrder()

	lines := []*models.OrderProduct{
		{ProductName: "Organic Jaggery", Quantity: 2, Kind: models.PresentationStandard},
	}

	summary := OrderSummary(order, lines)

	for _, want := range []string{
		"*Order #:* 202502105",
		"*Customer:* Asha Nair",
		"*Total:* ₹590.00",
		"• Organic Jaggery x2",
		"12 Market Road, Coimbatore, Tamil Nadu, India",
		"10 Feb 2025 09:30 AM",
		"*NOTE:*\nNone",
	} {
		if !strings.Contains(summary, want) {
			t.Errorf("summary missing %q\n%s", want, summary)
		}
	}
}

func TestWhatsAppLink(t *testing.T) {
	link := WhatsAppLink("916381623023", "order #5 & more")

	if !strings.HasPrefix(link, "https://wa.me/916381623023?text=") {
		t.Fatalf("unexpected link prefix: %q", link)
	}

	parsed, err := url.Parse(link)

	if err != nil {
		t.Fatalf("link does not parse: %v", err)
	}

	if got := parsed.Query().Get("text"); got != "order #5 & more" {
		t.Fatalf("text round-trip failed: %q", got)
	}
}
