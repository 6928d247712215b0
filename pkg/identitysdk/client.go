package identitysdk

import (
	"net/http"
	"strings"
	"time"

	"golang.org/x/time/rate"
)

// Client is a client for the platform identity service. It covers the
// credential, MFA and refresh grants the session store needs, plus
// best-effort token revocation on logout.
type Client struct {
	BaseURL    string
	HTTPClient *http.Client

	// Limiter throttles token-endpoint requests so a misbehaving caller
	// (or a tight retry loop) cannot hammer the identity service. Nil
	// disables client-side throttling.
	Limiter *rate.Limiter
}

// NewClient creates a new identity service client with a conservative
// token-endpoint throttle (30 requests per minute, bursts of 10).
func NewClient(baseURL string) *Client {
	return &Client{
		BaseURL: strings.TrimSuffix(baseURL, "/"),
		HTTPClient: &http.Client{
			Timeout: 10 * time.Second,
		},
		Limiter: rate.NewLimiter(rate.Every(2*time.Second), 10),
	}
}
