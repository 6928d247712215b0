package identitysdk

import (
	"fmt"

	"github.com/golang-jwt/jwt/v5"
)

// Identity is the user profile embedded in access token claims.
type Identity struct {
	ID         string
	Email      string
	Role       string
	MFAEnabled bool
}

type identityClaims struct {
	Email      string `json:"email"`
	Role       string `json:"role"`
	MFAEnabled bool   `json:"mfa_enabled"`
	jwt.RegisteredClaims
}

// IdentityFromToken extracts the user profile from an access token's
// claims without verifying the signature. Signature verification is the
// resource server's responsibility; the client only needs the profile to
// render state, and the token was obtained over an authenticated channel.
func IdentityFromToken(accessToken string) (*Identity, error) {
	var claims identityClaims
	parser := jwt.NewParser()
	if _, _, err := parser.ParseUnverified(accessToken, &claims); err != nil {
		return nil, fmt.Errorf("failed to parse access token: %w", err)
	}

	if claims.Subject == "" {
		return nil, fmt.Errorf("access token has no subject claim")
	}

	return &Identity{
		ID:         claims.Subject,
		Email:      claims.Email,
		Role:       claims.Role,
		MFAEnabled: claims.MFAEnabled,
	}, nil
}
