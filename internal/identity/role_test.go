package identity

import "testing"

func TestRoleFromGroups(t *testing.T) {
	cases := []struct {
		name   string
		groups []string
		want   Role
	}{
		{"admin", []string{"Admins"}, RoleAdministrator},
		{"customer", []string{"Customers"}, RoleCustomer},
		{"both prefers admin", []string{"Customers", "Admins"}, RoleAdministrator},
		{"no groups", nil, RoleUnknown},
		{"unrelated groups", []string{"Photographers"}, RoleUnknown},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := RoleFromGroups(tc.groups, "Admins", "Customers"); got != tc.want {
				t.Fatalf("expected %v, got %v", tc.want, got)
			}
		})
	}
}

func TestRoleString(t *testing.T) {
	if RoleAdministrator.String() != "admin" || RoleCustomer.String() != "customer" || RoleUnknown.String() != "unknown" {
		t.Fatalf("unexpected role strings")
	}
}
