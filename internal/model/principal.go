package model

// Role names as carried in the JWT "role" claim and the users.role
// column.  RoleAnonymous is never persisted; it is the synthetic role
// assigned to a principal when no credential is present.
const (
	RoleAnonymous       = "ANONYMOUS"
	RoleCustomer        = "CUSTOMER"
	RoleStaff           = "STAFF"
	RoleRestaurantOwner = "RESTAURANT_OWNER"
	RoleSuperAdmin      = "SUPER_ADMIN"
)

// KnownRole reports whether the given role string is one of the
// persisted application roles.  Anonymous is intentionally excluded:
// it is a resolver artifact, not a stored role.
func KnownRole(role string) bool {
	switch role {
	case RoleCustomer, RoleStaff, RoleRestaurantOwner, RoleSuperAdmin:
		return true
	}
	return false
}

// Principal is the resolved identity of the current actor.  A
// principal always exists once resolution completes; an unauthenticated
// visitor is represented by the anonymous principal rather than a nil
// value so that callers never have to branch on presence.
//
// Fields:
//  ID          – user identifier; zero for the anonymous principal.
//  Email       – email address when authenticated.
//  DisplayName – optional profile name.
//  Role        – one of the Role* constants above.
type Principal struct {
	ID          uint64 `json:"id,omitempty"`
	Email       string `json:"email,omitempty"`
	DisplayName string `json:"display_name,omitempty"`
	Role        string `json:"role"`
}

// Anonymous returns the principal used when no credential is present
// or when resolution failed and the resolver degraded.
func Anonymous() Principal {
	return Principal{Role: RoleAnonymous}
}

// Authenticated reports whether the principal carries a real identity.
func (p Principal) Authenticated() bool {
	return p.Role != RoleAnonymous && p.ID != 0
}
