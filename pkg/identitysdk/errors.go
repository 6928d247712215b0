package identitysdk

import (
	"encoding/json"
	"fmt"
	"net/http"
)

// Error codes returned by the identity service.
const (
	ErrorCodeInvalidRequest  = "invalid_request"
	ErrorCodeInvalidGrant    = "invalid_grant"
	ErrorCodeServerError     = "server_error"
	ErrorCodeMFARequired     = "mfa_required"
	ErrorCodeTooManyAttempts = "too_many_attempts"
)

// APIError represents an error response from the identity service.
type APIError struct {
	// StatusCode is the HTTP status code of the response
	StatusCode int `json:"-"`

	// Code is the error code (e.g., "invalid_grant")
	Code string `json:"error"`

	// Description is a human-readable description of the error
	Description string `json:"error_description"`
}

// Error implements the error interface.
func (e *APIError) Error() string {
	return fmt.Sprintf("%s: %s", e.Code, e.Description)
}

// CredentialsRejected reports whether the error is a credential rejection
// (wrong email/password or an invalid/expired refresh token) rather than a
// transport or server fault.
func (e *APIError) CredentialsRejected() bool {
	return e.Code == ErrorCodeInvalidGrant
}

// MFAChallengeError is returned from the password grant when the account
// has MFA enabled. The caller completes authentication by submitting the
// challenge token together with a one-time code.
type MFAChallengeError struct {
	// MFAToken is the short-lived token referencing the pending challenge
	MFAToken string `json:"mfa_token"`

	// Methods lists the available MFA methods (e.g., ["totp", "backup_codes"])
	Methods []string `json:"mfa_methods"`
}

// Error implements the error interface.
func (e *MFAChallengeError) Error() string {
	return fmt.Sprintf("MFA required: available methods=%v", e.Methods)
}

// parseErrorResponse attempts to parse an HTTP error response into a typed
// error. It checks for MFA challenges (409) and standard error envelopes.
// Returns nil if the response indicates success (2xx status code).
func parseErrorResponse(resp *http.Response, body []byte) error {
	if resp.StatusCode >= 200 && resp.StatusCode < 300 {
		return nil
	}

	// Check for MFA challenge (409 Conflict)
	if resp.StatusCode == http.StatusConflict {
		var mfaResp struct {
			Error      string   `json:"error"`
			MFAToken   string   `json:"mfa_token"`
			MFAMethods []string `json:"mfa_methods"`
		}
		if err := json.Unmarshal(body, &mfaResp); err == nil {
			if mfaResp.Error == ErrorCodeMFARequired && mfaResp.MFAToken != "" {
				return &MFAChallengeError{
					MFAToken: mfaResp.MFAToken,
					Methods:  mfaResp.MFAMethods,
				}
			}
		}
	}

	var errResp ErrorResponse
	if err := json.Unmarshal(body, &errResp); err == nil && errResp.Error != "" {
		return &APIError{
			StatusCode:  resp.StatusCode,
			Code:        errResp.Error,
			Description: errResp.ErrorDescription,
		}
	}

	// Fallback: create generic error from status code
	return &APIError{
		StatusCode:  resp.StatusCode,
		Code:        ErrorCodeServerError,
		Description: fmt.Sprintf("HTTP %d: %s", resp.StatusCode, http.StatusText(resp.StatusCode)),
	}
}
