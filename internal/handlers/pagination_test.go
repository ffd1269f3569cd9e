package handlers

import "testing"

func TestParsePaginationParamsDefaults(t *testing.T) {
	page, limit, err := parsePaginationParams("", "")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if page != 1 {
		t.Errorf("default page = %d, want 1", page)
	}
	if limit != 20 {
		t.Errorf("default limit = %d, want 20", limit)
	}
}

func TestParsePaginationParamsExplicit(t *testing.T) {
	page, limit, err := parsePaginationParams("3", "50")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if page != 3 || limit != 50 {
		t.Errorf("got page=%d limit=%d, want 3/50", page, limit)
	}
}

func TestParsePaginationParamsRejectsBadInput(t *testing.T) {
	cases := []struct {
		name  string
		page  string
		limit string
	}{
		{"zero page", "0", ""},
		{"negative page", "-2", ""},
		{"non-numeric page", "abc", ""},
		{"zero limit", "", "0"},
		{"negative limit", "", "-5"},
		{"non-numeric limit", "", "x"},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if _, _, err := parsePaginationParams(tc.page, tc.limit); err == nil {
				t.Errorf("parsePaginationParams(%q, %q) accepted bad input", tc.page, tc.limit)
			}
		})
	}
}

func TestBuildPaginationMeta(t *testing.T) {
	cases := []struct {
		name       string
		total      int64
		page       int64
		limit      int64
		totalPages int64
		hasMore    bool
		hasPrev    bool
	}{
		{"exact multiple", 40, 1, 20, 2, true, false},
		{"partial last page", 41, 2, 20, 3, true, true},
		{"last page", 41, 3, 20, 3, false, true},
		{"single page", 5, 1, 20, 1, false, false},
		{"empty collection", 0, 1, 20, 0, false, false},
		{"limit one", 3, 2, 1, 3, true, true},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			meta := buildPaginationMeta(tc.total, tc.page, tc.limit)
			if meta.TotalPages != tc.totalPages {
				t.Errorf("totalPages = %d, want %d", meta.TotalPages, tc.totalPages)
			}
			if meta.HasMore != tc.hasMore {
				t.Errorf("hasMore = %v, want %v", meta.HasMore, tc.hasMore)
			}
			if meta.HasPrev != tc.hasPrev {
				t.Errorf("hasPrev = %v, want %v", meta.HasPrev, tc.hasPrev)
			}
			if meta.Total != tc.total || meta.CurrentPage != tc.page {
				t.Errorf("meta echoes total=%d page=%d, want %d/%d", meta.Total, meta.CurrentPage, tc.total, tc.page)
			}
		})
	}
}
