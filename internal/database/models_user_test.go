package database

import "testing"

func TestIsAdmin(t *testing.T) {
	cases := []struct {
		role string
		want bool
	}{
		{RoleUser, false},
		{RoleAdmin, true},
		{RoleSuperAdmin, true},
	}
	for _, tc := range cases {
		u := &User{Role: tc.role}
		if got := u.IsAdmin(); got != tc.want {
			t.Errorf("IsAdmin(%q) = %v, want %v", tc.role, got, tc.want)
		}
	}
}

func TestIsActive(t *testing.T) {
	if !(&User{Status: UserStatusActive}).IsActive() {
		t.Error("active account should be active")
	}
	if (&User{Status: UserStatusSuspended}).IsActive() {
		t.Error("suspended account should not be active")
	}
}
