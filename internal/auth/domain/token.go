package domain

import "time"

// TokenSet is the short-lived access token (JWT) plus the opaque refresh
// token, together with the issue metadata the refresh scheduler needs.
type TokenSet struct {
	AccessToken  string
	RefreshToken string
	IssuedAt     time.Time
	ExpiresIn    time.Duration
}

// Snapshot is a consistent read of the session taken under the store lock.
// User and Tokens are non-nil if and only if State is StateAuthenticated.
type Snapshot struct {
	State             AuthState
	User              *User
	Tokens            *TokenSet
	LoginAttempts     int
	LastActivityAt    time.Time
	LastMFAVerifiedAt time.Time
}
