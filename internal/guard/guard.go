// Package guard decides what a routing shell should render for a
// protected view: the children, a loading placeholder, or a redirect.
// The decision is a pure function of the session resolver's state and
// the route's allowed roles, so every surface that needs routing
// behaviour (the bootstrap endpoint, HTTP middleware, tests) consumes
// the exact same rules. The role-to-home-path mapping lives here and
// nowhere else; a second copy anywhere tends to drift and drift shows
// up as redirect loops.
package guard

import "github.com/itzmeahammed/Qr-Restaurant-Saas-sub003/internal/model"

// Resolver states as seen by the guard. The guard does not care how
// resolution is implemented, only whether it has finished.
type State int

const (
	StateUninitialized State = iota // Initialize has not been called
	StateResolving                  // credential fetch in flight
	StateResolved                   // principal known (possibly anonymous)
	StateDegraded                   // resolution failed; anonymous exposed
)

// Decision kinds returned by Decide and DecidePublicOnly.
type Kind int

const (
	ShowLoading  Kind = iota // role not conclusively known yet
	ShowChildren             // render the protected content
	Redirect                 // navigate to Decision.Path instead
)

// Decision is the guard's verdict for one route evaluation.
type Decision struct {
	Kind Kind   `json:"kind"`
	Path string `json:"path,omitempty"` // set only for Redirect
}

// Client-side paths the guard redirects to. These are part of the UI
// contract and must match the routing shell.
const (
	SignInPath       = "/auth/sign-in"
	UnauthorizedPath = "/unauthorized"
)

// homePaths maps each known role to its landing route. Consumed by
// DecidePublicOnly, by the post-sign-in redirect and by the catch-all
// route; keeping one table is the point.
var homePaths = map[string]string{
	model.RoleCustomer:        "/",
	model.RoleStaff:           "/staff",
	model.RoleRestaurantOwner: "/dashboard",
	model.RoleSuperAdmin:      "/admin",
}

// HomePath returns the landing route for a role. Unknown or anonymous
// roles land on the customer root.
func HomePath(role string) string {
	if p, ok := homePaths[role]; ok {
		return p
	}
	return "/"
}

// Decide evaluates a protected route. requiredRoles is the allow-list
// for the route; an empty list means any resolved principal,
// anonymous included, may see the children.
//
// While the resolver has not conclusively determined the role the
// only acceptable answer is ShowLoading. Redirecting to sign-in
// before resolution finishes produces a visible flicker for every
// already-signed-in user, so unresolved states short-circuit before
// any role logic runs.
//
// A super admin hitting a route it is not listed for is sent to
// /admin rather than /unauthorized: the admin console is always the
// right place for that principal, whichever protected screen it
// wandered into.
func Decide(state State, p model.Principal, requiredRoles []string) Decision {
	switch state {
	case StateUninitialized, StateResolving:
		return Decision{Kind: ShowLoading}
	}
	if len(requiredRoles) == 0 {
		return Decision{Kind: ShowChildren}
	}
	if !p.Authenticated() {
		return Decision{Kind: Redirect, Path: SignInPath}
	}
	for _, r := range requiredRoles {
		if p.Role == r {
			return Decision{Kind: ShowChildren}
		}
	}
	if p.Role == model.RoleSuperAdmin {
		return Decision{Kind: Redirect, Path: HomePath(model.RoleSuperAdmin)}
	}
	return Decision{Kind: Redirect, Path: UnauthorizedPath}
}

// DecidePublicOnly evaluates a route meant only for signed-out
// visitors (sign-in, sign-up). A principal with a known role is sent
// to its home path so a signed-in user cannot re-enter the auth
// screens; everyone else sees the children once resolution finishes.
func DecidePublicOnly(state State, p model.Principal) Decision {
	switch state {
	case StateUninitialized, StateResolving:
		return Decision{Kind: ShowLoading}
	}
	if p.Authenticated() && model.KnownRole(p.Role) {
		return Decision{Kind: Redirect, Path: HomePath(p.Role)}
	}
	return Decision{Kind: ShowChildren}
}
