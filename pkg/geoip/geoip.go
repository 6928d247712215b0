// Package geoip is a thin client for the external IP-to-country lookup
// service used by geographically restricted routes.
package geoip

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"
)

// Client queries the geographic lookup service.
type Client struct {
	BaseURL    string
	HTTPClient *http.Client
}

// NewClient creates a lookup client with a short timeout; guard
// evaluation blocks on this call, so slow lookups should fail fast.
func NewClient(baseURL string) *Client {
	return &Client{
		BaseURL: strings.TrimSuffix(baseURL, "/"),
		HTTPClient: &http.Client{
			Timeout: 5 * time.Second,
		},
	}
}

type lookupResponse struct {
	CountryCode string `json:"country_code"`
}

// Lookup resolves the ISO country code for the given IP. An empty ip asks
// the service to resolve the caller's own address. Errors propagate so the
// geographic guard can fail closed.
func (c *Client) Lookup(ctx context.Context, ip string) (string, error) {
	u := c.BaseURL + "/v1/lookup"
	if ip != "" {
		u += "?ip=" + url.QueryEscape(ip)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return "", fmt.Errorf("failed to create request: %w", err)
	}

	resp, err := c.HTTPClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("failed to send request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		return "", fmt.Errorf("lookup failed with status %d: %s", resp.StatusCode, string(body))
	}

	var parsed lookupResponse
	if err := json.NewDecoder(resp.Body).Decode(&parsed); err != nil {
		return "", fmt.Errorf("failed to decode response: %w", err)
	}

	if parsed.CountryCode == "" {
		return "", fmt.Errorf("lookup returned no country code")
	}

	return strings.ToUpper(parsed.CountryCode), nil
}
