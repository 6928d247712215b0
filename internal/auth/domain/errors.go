package domain

import "errors"

// Error taxonomy for the authentication core. Expected, user-actionable
// outcomes (bad credentials, rate limiting, bad MFA codes) are reported as
// typed result values by the session store so callers can branch without
// error inspection; these sentinels cover the fault paths and the places
// where a result value would be the wrong shape.
var (
	ErrInvalidCredentials = errors.New("invalid_credentials")
	ErrRateLimited        = errors.New("rate_limited")
	ErrInvalidMFACode     = errors.New("invalid_mfa_code")

	// ErrInvalidState reports an operation invalid for the current
	// lifecycle state (e.g. VerifyMFA while unauthenticated).
	ErrInvalidState = errors.New("invalid_state")

	// ErrTokenRefreshFailed reports a failed refresh. The session has
	// already been torn down by the time callers see this.
	ErrTokenRefreshFailed = errors.New("token_refresh_failed")

	// ErrAuthenticationFailed reports a transport or server fault during
	// login, distinct from a credential rejection.
	ErrAuthenticationFailed = errors.New("authentication_failed")

	// ErrTransport reports that the identity or lookup service was
	// unreachable.
	ErrTransport = errors.New("transport_error")

	// ErrCorruptPersistedState reports persisted tokens that failed to
	// parse. Recovered from locally by discarding the value.
	ErrCorruptPersistedState = errors.New("corrupt_persisted_state")
)
