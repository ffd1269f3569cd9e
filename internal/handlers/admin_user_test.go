package handlers

import (
	"testing"

	"motoshop/internal/models"
)

func TestCanRemoveAdmin(t *testing.T) {
	cases := []struct {
		name        string
		role        string
		otherAdmins int64
		want        bool
	}{
		{"last admin", models.RoleAdmin, 0, false},
		{"one other admin", models.RoleAdmin, 1, true},
		{"several other admins", models.RoleAdmin, 5, true},
		{"regular user", models.RoleUser, 0, true},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := canRemoveAdmin(tc.role, tc.otherAdmins); got != tc.want {
				t.Errorf("canRemoveAdmin(%q, %d) = %v, want %v", tc.role, tc.otherAdmins, got, tc.want)
			}
		})
	}
}
