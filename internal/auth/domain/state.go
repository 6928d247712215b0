package domain

// AuthState is the mutually exclusive authentication lifecycle state.
// Exactly one state holds at any time; transitions are owned by the
// session store.
type AuthState int

const (
	// StateUnauthenticated is the initial state and the state every
	// teardown path (logout, failed refresh, session timeout) returns to.
	StateUnauthenticated AuthState = iota

	// StateAuthenticated holds tokens and a user identity.
	StateAuthenticated

	// StateMFARequired means credentials were accepted but a second
	// factor is outstanding. No tokens are held yet.
	StateMFARequired

	// StateOAuthPending means an external OAuth flow has been started
	// and the callback has not completed yet.
	StateOAuthPending
)

func (s AuthState) String() string {
	switch s {
	case StateUnauthenticated:
		return "unauthenticated"
	case StateAuthenticated:
		return "authenticated"
	case StateMFARequired:
		return "mfa_required"
	case StateOAuthPending:
		return "oauth_pending"
	default:
		return "unknown"
	}
}
