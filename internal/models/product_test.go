package models

import (
	"encoding/json"
	"strings"
	"testing"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

func TestEffectivePriceUsesDiscountWhenLower(t *testing.T) {
	p := Product{Price: 100, DiscountedPrice: 75}
	if got := p.EffectivePrice(); got != 75 {
		t.Fatalf("expected discounted price 75, got %v", got)
	}
}

func TestEffectivePriceIgnoresInvalidDiscount(t *testing.T) {
	tests := []float64{0, 100, 120}
	for _, discounted := range tests {
		p := Product{Price: 100, DiscountedPrice: discounted}
		if got := p.EffectivePrice(); got != 100 {
			t.Fatalf("expected list price 100 for discountedPrice=%v, got %v", discounted, got)
		}
	}
}

func TestDeriveComputesRatingAndStock(t *testing.T) {
	p := Product{
		Stock: 3,
		Reviews: []Review{
			{Rating: 5, CreatedAt: time.Now()},
			{Rating: 2, CreatedAt: time.Now()},
		},
	}
	p.Derive()

	if !p.InStock {
		t.Fatal("expected inStock to be true")
	}
	if p.ReviewCount != 2 {
		t.Fatalf("expected reviewCount 2, got %d", p.ReviewCount)
	}
	if p.AverageRating != 3.5 {
		t.Fatalf("expected averageRating 3.5, got %v", p.AverageRating)
	}
}

func TestDeriveWithoutReviews(t *testing.T) {
	p := Product{Stock: 0}
	p.Derive()

	if p.InStock {
		t.Fatal("expected inStock to be false at zero stock")
	}
	if p.AverageRating != 0 || p.ReviewCount != 0 {
		t.Fatalf("expected zeroed rating fields, got avg=%v count=%d", p.AverageRating, p.ReviewCount)
	}
}

func TestHasReviewBy(t *testing.T) {
	reviewer := primitive.NewObjectID()
	other := primitive.NewObjectID()
	p := Product{Reviews: []Review{{UserID: reviewer, Rating: 4}}}

	if !p.HasReviewBy(reviewer) {
		t.Fatal("expected existing reviewer to be detected")
	}
	if p.HasReviewBy(other) {
		t.Fatal("expected unknown user to have no review")
	}
}

func TestPrimaryImageFallsBackToFirst(t *testing.T) {
	p := Product{Images: []ProductImage{
		{URL: "a.jpg"},
		{URL: "b.jpg", IsPrimary: true},
	}}
	if got := p.PrimaryImage(); got != "b.jpg" {
		t.Fatalf("expected primary image b.jpg, got %s", got)
	}

	p.Images[1].IsPrimary = false
	if got := p.PrimaryImage(); got != "a.jpg" {
		t.Fatalf("expected fallback image a.jpg, got %s", got)
	}

	p.Images = nil
	if got := p.PrimaryImage(); got != "" {
		t.Fatalf("expected empty string without images, got %s", got)
	}
}

func TestUserJSONNeverExposesSecrets(t *testing.T) {
	expires := time.Now().Add(time.Minute)
	u := User{
		Email:             "alice@example.com",
		PasswordHash:      "$2a$10$secret",
		VerifyTokenHash:   "deadbeef",
		ResetTokenHash:    "cafebabe",
		ResetTokenExpires: &expires,
	}

	body, err := json.Marshal(u)
	if err != nil {
		t.Fatalf("json marshal failed: %v", err)
	}

	jsonBody := string(body)
	for _, secret := range []string{"secret", "deadbeef", "cafebabe", "passwordHash"} {
		if strings.Contains(jsonBody, secret) {
			t.Fatalf("expected %q to be absent from user json, got %s", secret, jsonBody)
		}
	}
}
