package handlers

import (
	"math/rand"
	"testing"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"

	"motoshop/internal/models"
)

func TestNewOrderItemSnapshotsEffectivePrice(t *testing.T) {
	product := models.Product{
		ID:              primitive.NewObjectID(),
		Name:            "Touring Jacket",
		Price:           200,
		DiscountedPrice: 149.99,
		Images: []models.ProductImage{
			{URL: "jacket.jpg", IsPrimary: true},
		},
	}

	item := newOrderItem(product, 2)

	if item.ProductID != product.ID {
		t.Errorf("productId = %s, want %s", item.ProductID.Hex(), product.ID.Hex())
	}
	if item.Name != "Touring Jacket" || item.Image != "jacket.jpg" {
		t.Errorf("snapshot fields = %q/%q", item.Name, item.Image)
	}
	if item.UnitPrice != 200 || item.DiscountedPrice != 149.99 {
		t.Errorf("prices = %v/%v, want 200/149.99", item.UnitPrice, item.DiscountedPrice)
	}
	// Line total follows the discounted price, not the list price.
	if item.LineTotal != 299.98 {
		t.Errorf("lineTotal = %v, want 299.98", item.LineTotal)
	}
	if item.Oversold {
		t.Error("fresh order item marked oversold")
	}
}

func TestNewOrderItemWithoutDiscount(t *testing.T) {
	product := models.Product{ID: primitive.NewObjectID(), Name: "Chain Lube", Price: 12.50}

	item := newOrderItem(product, 3)

	if item.LineTotal != 37.50 {
		t.Errorf("lineTotal = %v, want 37.50", item.LineTotal)
	}
}

func TestRoundMoney(t *testing.T) {
	cases := []struct {
		in   float64
		want float64
	}{
		{10.005, 10.01},
		{10.004, 10.0},
		{0, 0},
		{99.999, 100.0},
		{12.345, 12.35},
	}

	for _, tc := range cases {
		if got := roundMoney(tc.in); got != tc.want {
			t.Errorf("roundMoney(%v) = %v, want %v", tc.in, got, tc.want)
		}
	}
}

func TestFillOrderTotals(t *testing.T) {
	order := &models.Order{
		Items: []models.OrderItem{
			{Quantity: 2, UnitPrice: 50, LineTotal: 100},
			{Quantity: 1, UnitPrice: 25.50, LineTotal: 25.50},
		},
	}

	fillOrderTotals(order, 9.90, 10, 0.22)

	if order.Subtotal != 125.50 {
		t.Errorf("subtotal = %v, want 125.50", order.Subtotal)
	}
	if order.Tax != 25.41 {
		t.Errorf("tax = %v, want 25.41", order.Tax)
	}

	// The invariant every order must satisfy.
	want := roundMoney(order.Subtotal - order.Discount + order.ShippingCost + order.Tax)
	if order.Total != want {
		t.Errorf("total = %v, breaks subtotal-discount+shipping+tax = %v", order.Total, want)
	}
}

func TestFillOrderTotalsZeroTax(t *testing.T) {
	order := &models.Order{
		Items: []models.OrderItem{{Quantity: 1, UnitPrice: 40, LineTotal: 40}},
	}

	fillOrderTotals(order, 0, 0, 0)

	if order.Tax != 0 {
		t.Errorf("tax = %v, want 0", order.Tax)
	}
	if order.Total != 40 {
		t.Errorf("total = %v, want 40", order.Total)
	}
}

func TestFillOrderTotalsInvariantHoldsAcrossInputs(t *testing.T) {
	rng := rand.New(rand.NewSource(1))

	for i := 0; i < 500; i++ {
		itemCount := 1 + rng.Intn(5)
		items := make([]models.OrderItem, 0, itemCount)
		for j := 0; j < itemCount; j++ {
			qty := 1 + rng.Intn(4)
			unit := roundMoney(rng.Float64() * 500)
			items = append(items, models.OrderItem{
				Quantity:  qty,
				UnitPrice: unit,
				LineTotal: roundMoney(unit * float64(qty)),
			})
		}
		order := &models.Order{Items: items}
		shipping := roundMoney(rng.Float64() * 30)
		discount := roundMoney(rng.Float64() * 20)

		fillOrderTotals(order, shipping, discount, 0.22)

		want := roundMoney(order.Subtotal - order.Discount + order.ShippingCost + order.Tax)
		if order.Total != want {
			t.Fatalf("case %d: total = %v, breaks subtotal-discount+shipping+tax = %v (order %+v)",
				i, order.Total, want, order)
		}
	}
}

func TestFillOrderTotalsDiscountReducesTaxBase(t *testing.T) {
	order := &models.Order{
		Items: []models.OrderItem{{Quantity: 1, UnitPrice: 100, LineTotal: 100}},
	}

	fillOrderTotals(order, 0, 50, 0.22)

	// Tax applies to the discounted amount, not the raw subtotal.
	if order.Tax != 11 {
		t.Errorf("tax = %v, want 11", order.Tax)
	}
	if order.Total != 61 {
		t.Errorf("total = %v, want 61", order.Total)
	}
}

func TestFormatOrderNumber(t *testing.T) {
	at := time.Date(2026, time.September, 15, 10, 0, 0, 0, time.UTC)

	got := formatOrderNumber(at, 42, "a1b2c3")
	if got != "ORD-202609-42-a1b2c3" {
		t.Errorf("formatOrderNumber = %s, want ORD-202609-42-a1b2c3", got)
	}

	// The month segment rolls over with the calendar, resetting the visible
	// sequence scope.
	january := time.Date(2027, time.January, 1, 0, 0, 0, 0, time.UTC)
	if got := formatOrderNumber(january, 1, "ffffff"); got != "ORD-202701-1-ffffff" {
		t.Errorf("formatOrderNumber = %s, want ORD-202701-1-ffffff", got)
	}
}

func TestOutOfStockErrorCarriesContext(t *testing.T) {
	err := outOfStockError{Available: 1, Requested: 3}
	if err.Error() == "" {
		t.Error("outOfStockError has empty message")
	}
	if err.Available != 1 || err.Requested != 3 {
		t.Errorf("error lost quantities: %+v", err)
	}
}
