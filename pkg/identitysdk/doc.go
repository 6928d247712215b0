// Package identitysdk is the HTTP client for the platform identity
// service. It implements the three token grants the client shell uses
// (password, mfa_otp, refresh_token) plus best-effort revocation, and
// decodes the user profile embedded in access token claims.
//
// Authentication flows:
//
//	client := identitysdk.NewClient("https://identity.example.com")
//
//	tokens, err := client.PasswordGrant(ctx, "user@example.com", "secret")
//	var challenge *identitysdk.MFAChallengeError
//	switch {
//	case err == nil:
//		// fully authenticated
//	case errors.As(err, &challenge):
//		// prompt for a one-time code, then:
//		tokens, err = client.MFAOTPGrant(ctx, challenge.MFAToken, code)
//	}
//
// Expected rejections are typed: credential failures are an *APIError
// whose CredentialsRejected method reports true, and MFA challenges are a
// *MFAChallengeError. Anything else is a transport or server fault.
//
// Token-endpoint requests pass through a client-side rate limiter
// (Client.Limiter) so retry loops cannot hammer the identity service.
package identitysdk
