// Package clockx provides pure token-lifetime arithmetic shared by the
// session store and the refresh scheduler. All functions are side-effect
// free and take explicit timestamps so callers can test against fake clocks.
package clockx

import "time"

// RefreshMargin is how long before expiry a token should be refreshed.
const RefreshMargin = 5 * time.Minute

// shortLifetimeFraction is the fraction of the lifetime at which tokens
// with lifetimes shorter than RefreshMargin become due for refresh.
const shortLifetimeFraction = 0.75

// RefreshDueAt computes the point at which a token issued at issuedAt with
// the given lifetime should be refreshed. For normal lifetimes this is the
// expiry minus RefreshMargin. Lifetimes at or below the margin are refreshed
// at a fixed fraction of the lifetime instead, so the due point is always
// strictly after issue. Non-positive lifetimes are due immediately.
func RefreshDueAt(issuedAt time.Time, expiresIn time.Duration) time.Time {
	if expiresIn <= 0 {
		return issuedAt
	}
	if expiresIn <= RefreshMargin {
		return issuedAt.Add(time.Duration(float64(expiresIn) * shortLifetimeFraction))
	}
	return issuedAt.Add(expiresIn - RefreshMargin)
}

// ExpiresAt returns the absolute expiry of a token.
func ExpiresAt(issuedAt time.Time, expiresIn time.Duration) time.Time {
	return issuedAt.Add(expiresIn)
}

// IsExpired reports whether a token issued at issuedAt with the given
// lifetime has expired as of now.
func IsExpired(issuedAt time.Time, expiresIn time.Duration, now time.Time) bool {
	return !now.Before(ExpiresAt(issuedAt, expiresIn))
}
