package main

import "testing"

func TestMissingSeedCredentials(t *testing.T) {
	cases := []struct {
		name     string
		email    string
		password string
		want     bool
	}{
		{"both set", "admin@shop.test", "s3cret-pass", false},
		{"no email", "", "s3cret-pass", true},
		{"no password", "admin@shop.test", "", true},
		{"both empty", "", "", true},
		{"whitespace only", "   ", "  ", true},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := missingSeedCredentials(tc.email, tc.password); got != tc.want {
				t.Errorf("missingSeedCredentials(%q, %q) = %v, want %v", tc.email, tc.password, got, tc.want)
			}
		})
	}
}
