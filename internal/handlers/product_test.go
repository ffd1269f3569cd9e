package handlers

import (
	"net/http"
	"testing"
)

func TestReviewRejection(t *testing.T) {
	status, message := reviewRejection(true)
	if status != http.StatusConflict || message != "product already reviewed" {
		t.Errorf("existing product: got %d %q, want 409 duplicate message", status, message)
	}

	status, message = reviewRejection(false)
	if status != http.StatusNotFound || message != "product not found" {
		t.Errorf("vanished product: got %d %q, want 404 not-found message", status, message)
	}
}

func TestParseSortParam(t *testing.T) {
	cases := []struct {
		raw       string
		field     string
		direction int
		ok        bool
	}{
		{"price", "price", 1, true},
		{"price:asc", "price", 1, true},
		{"price:desc", "price", -1, true},
		{"createdAt:desc", "createdAt", -1, true},
		{"price:sideways", "", 0, false},
		{"passwordHash", "", 0, false},
		{"", "", 0, false},
	}

	for _, tc := range cases {
		field, direction, ok := parseSortParam(tc.raw)
		if ok != tc.ok || field != tc.field || direction != tc.direction {
			t.Errorf("parseSortParam(%q) = %q/%d/%v, want %q/%d/%v",
				tc.raw, field, direction, ok, tc.field, tc.direction, tc.ok)
		}
	}
}
