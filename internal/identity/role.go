package identity

// Role is the closed set of access levels derived from group-membership
// claims. It is computed per request and never stored.
type Role int

const (
	RoleUnknown Role = iota
	RoleAdministrator
	RoleCustomer
)

func (r Role) String() string {
	switch r {
	case RoleAdministrator:
		return "admin"
	case RoleCustomer:
		return "customer"
	default:
		return "unknown"
	}
}

// RoleFromGroups derives a role from the token's group claims. Admin
// membership wins when both groups are present.
func RoleFromGroups(groups []string, adminGroup, customerGroup string) Role {
	role := RoleUnknown
	for _, g := range groups {
		switch g {
		case adminGroup:
			return RoleAdministrator
		case customerGroup:
			role = RoleCustomer
		}
	}
	return role
}
