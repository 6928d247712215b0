package domain

// Route is the navigation metadata consumed by the guard pipeline.
type Route struct {
	Name string

	// Public routes bypass authentication entirely.
	Public bool

	// RequiredRoles, when non-empty, requires the authenticated user's
	// role to be a member of the set.
	RequiredRoles []Role

	// RequiresMFA gates the route behind a fresh step-up verification.
	RequiresMFA bool

	// RestrictToCountry, when set, limits access to clients located in
	// the given ISO country code.
	RestrictToCountry string
}

// RequiresRole reports whether role is a member of the route's required set.
func (r Route) RequiresRole(role Role) bool {
	for _, required := range r.RequiredRoles {
		if required == role {
			return true
		}
	}
	return false
}

// Well-known redirect destinations used by the guard pipeline.
const (
	RouteLogin         = "login"
	RouteMFAVerify     = "mfa-verify"
	RouteMFASetup      = "mfa-setup"
	RouteOAuthCallback = "oauth-callback"
	RouteUnauthorized  = "unauthorized"
)

// Redirect reasons surfaced to the router layer.
const (
	ReasonSessionTimeout  = "session_timeout"
	ReasonMFARequired     = "mfa_required"
	ReasonMFAStale        = "mfa_stale"
	ReasonMFANotEnabled   = "mfa_not_enabled"
	ReasonOAuthPending    = "oauth_pending"
	ReasonLoginRequired   = "login_required"
	ReasonRoleDenied      = "role_denied"
	ReasonGeoRestricted   = "geo_restricted"
	ReasonGeoLookupFailed = "geo_lookup_failed"
)
