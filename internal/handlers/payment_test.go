package handlers

import (
	"testing"

	"github.com/stripe/stripe-go/v76"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"motoshop/internal/models"
)

func TestMarkOversoldFlagsOnlyTheFailedLine(t *testing.T) {
	failed := primitive.NewObjectID()
	other := primitive.NewObjectID()
	items := []models.OrderItem{
		{ProductID: other, Quantity: 1},
		{ProductID: failed, Quantity: 3},
	}

	markOversold(items, failed)

	if items[0].Oversold {
		t.Error("unaffected line marked oversold")
	}
	if !items[1].Oversold {
		t.Error("failed line not marked oversold")
	}

	// A product id with no matching line is a no-op.
	markOversold(items, primitive.NewObjectID())
	if items[0].Oversold {
		t.Error("no-op mark changed an unaffected line")
	}
}

func TestCartMetadataRoundTrip(t *testing.T) {
	in := []cartEntry{
		{ProductID: "68b1c2d3e4f5a6b7c8d9e0f1", Quantity: 2},
		{ProductID: "68b1c2d3e4f5a6b7c8d9e0f2", Quantity: 1},
	}

	raw, err := encodeCartMetadata(in)
	if err != nil {
		t.Fatalf("encode: %v", err)
	}

	out, err := decodeCartMetadata(raw)
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(out) != len(in) {
		t.Fatalf("got %d entries, want %d", len(out), len(in))
	}
	for i := range in {
		if out[i] != in[i] {
			t.Errorf("entry %d = %+v, want %+v", i, out[i], in[i])
		}
	}
}

func TestCartMetadataStaysCompact(t *testing.T) {
	// Provider metadata values are capped at 500 characters, so the encoded
	// form must use short keys.
	raw, err := encodeCartMetadata([]cartEntry{{ProductID: "68b1c2d3e4f5a6b7c8d9e0f1", Quantity: 3}})
	if err != nil {
		t.Fatalf("encode: %v", err)
	}
	want := `[{"p":"68b1c2d3e4f5a6b7c8d9e0f1","q":3}]`
	if raw != want {
		t.Errorf("encoded cart = %s, want %s", raw, want)
	}
}

func TestDecodeCartMetadataRejectsBadInput(t *testing.T) {
	cases := []struct {
		name string
		raw  string
	}{
		{"not json", "not-json"},
		{"empty array", "[]"},
		{"empty string", ""},
		{"zero quantity", `[{"p":"68b1c2d3e4f5a6b7c8d9e0f1","q":0}]`},
		{"negative quantity", `[{"p":"68b1c2d3e4f5a6b7c8d9e0f1","q":-1}]`},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if _, err := decodeCartMetadata(tc.raw); err == nil {
				t.Errorf("decodeCartMetadata(%q) accepted bad input", tc.raw)
			}
		})
	}
}

func TestToCents(t *testing.T) {
	cases := []struct {
		in   float64
		want int64
	}{
		{10.00, 1000},
		{19.99, 1999},
		{0.1, 10},
		{29.995, 3000},
		{0, 0},
	}

	for _, tc := range cases {
		if got := toCents(tc.in); got != tc.want {
			t.Errorf("toCents(%v) = %d, want %d", tc.in, got, tc.want)
		}
	}
}

func TestAddressFromShippingDetailsProviderWins(t *testing.T) {
	user := models.User{
		Name:    "Marco",
		Surname: "Rossi",
		Addresses: []models.Address{
			{Street: "Via Roma 1", City: "Torino", IsDefault: true},
		},
	}
	details := &stripe.ShippingDetails{
		Name: "Anna Maria Bianchi",
		Address: &stripe.Address{
			Line1:      "Corso Italia 5",
			City:       "Milano",
			State:      "MI",
			PostalCode: "20100",
			Country:    "IT",
		},
	}

	addr := addressFromShippingDetails(details, user)

	if addr.Name != "Anna" || addr.Surname != "Maria Bianchi" {
		t.Errorf("name split = %q %q, want Anna / Maria Bianchi", addr.Name, addr.Surname)
	}
	if addr.Street != "Corso Italia 5" || addr.City != "Milano" {
		t.Errorf("provider address not used: %+v", addr)
	}
}

func TestAddressFromShippingDetailsFallsBackToDefault(t *testing.T) {
	user := models.User{
		Name:    "Marco",
		Surname: "Rossi",
		Addresses: []models.Address{
			{Street: "Via Po 3", City: "Torino", IsDefault: false},
			{Street: "Via Roma 1", City: "Torino", Province: "TO", PostalCode: "10100", Country: "IT", IsDefault: true},
		},
	}

	addr := addressFromShippingDetails(nil, user)

	if addr.Street != "Via Roma 1" {
		t.Errorf("default address not picked: %+v", addr)
	}
	if addr.Name != "Marco" || addr.Surname != "Rossi" {
		t.Errorf("user name not carried: %+v", addr)
	}
}

func TestAddressFromShippingDetailsNoAddressAtAll(t *testing.T) {
	addr := addressFromShippingDetails(nil, models.User{Name: "Marco", Surname: "Rossi"})
	if addr.Street != "" || addr.Name != "Marco" {
		t.Errorf("expected bare name-only snapshot, got %+v", addr)
	}
}
