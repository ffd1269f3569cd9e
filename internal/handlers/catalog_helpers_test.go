package handlers

import "testing"

func TestSlugify(t *testing.T) {
	tests := []struct {
		name string
		want string
	}{
		{"Helmet X", "helmet-x"},
		{"  Touring   Gloves  ", "touring-gloves"},
		{"Exhaust (Titanium) 2.0!", "exhaust-titanium-20"},
		{"Café Racer", "caf-racer"},
		{"already-slugged", "already-slugged"},
	}
	for _, tt := range tests {
		if got := slugify(tt.name); got != tt.want {
			t.Fatalf("slugify(%q) = %q, want %q", tt.name, got, tt.want)
		}
	}
}

func TestSlugifyEmptyInput(t *testing.T) {
	if got := slugify("!!!"); got != "" {
		t.Fatalf("expected empty slug for symbol-only name, got %q", got)
	}
	if got := slugify("   "); got != "" {
		t.Fatalf("expected empty slug for blank name, got %q", got)
	}
}
