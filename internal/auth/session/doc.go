// Package session owns the client-side authentication lifecycle: the
// state machine over UNAUTHENTICATED / AUTHENTICATED / MFA_REQUIRED /
// OAUTH_PENDING, the login rate limiter, token persistence, and the
// refresh scheduler that keeps the access token fresh.
//
// All mutations happen under a single mutex, so overlapping operations
// (a manual refresh racing the scheduled one, a guard touching activity
// while a login is in flight) are serialized and readers always observe a
// consistent snapshot. Expected outcomes of login and MFA verification
// (bad credentials, rate limiting, bad codes) are reported as typed
// result values; errors are reserved for faults and state misuse.
package session
