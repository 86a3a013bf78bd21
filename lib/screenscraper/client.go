// Package screenscraper is a hand-written client for the ScreenScraper.fr
// API (https://www.screenscraper.fr/webapi2.php): game lookup, search, media
// download, and account/infra status endpoints.
package screenscraper

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"time"
)

const defaultBaseURL = "https://api.screenscraper.fr/api2"

// Client is a thin HTTP wrapper over the ScreenScraper API. It injects
// developer and (optionally) user credentials on every request and is safe
// for concurrent use.
type Client struct {
	httpClient *http.Client
	baseURL    string

	devID       string
	devPassword string
	softName    string
	ssID        string
	ssPassword  string
}

// NewClient creates a client with the given developer credentials.
// ssID/ssPassword are optional end-user credentials; without them the
// client operates at ScreenScraper's anonymous rate limits.
func NewClient(devID, devPassword, softName, ssID, ssPassword string) *Client {
	return &Client{
		httpClient:  &http.Client{Timeout: 30 * time.Second},
		baseURL:     defaultBaseURL,
		devID:       devID,
		devPassword: devPassword,
		softName:    softName,
		ssID:        ssID,
		ssPassword:  ssPassword,
	}
}

// WithBaseURL overrides the API base URL, for testing against an httptest server.
func (c *Client) WithBaseURL(baseURL string) *Client {
	c.baseURL = baseURL
	return c
}

// WithTimeout overrides the per-request HTTP timeout.
func (c *Client) WithTimeout(timeout time.Duration) *Client {
	c.httpClient = &http.Client{Timeout: timeout}
	return c
}

// get issues a GET request to the named endpoint with the given query
// parameters (empty-string values are omitted) plus credentials, and
// returns the raw response body. Non-2xx responses are converted to an
// *APIError via the status-code/body-message taxonomy in errors.go.
func (c *Client) get(ctx context.Context, endpoint string, params map[string]string) ([]byte, error) {
	u, err := url.Parse(c.baseURL + "/" + endpoint)
	if err != nil {
		return nil, fmt.Errorf("invalid endpoint %q: %w", endpoint, err)
	}

	q := u.Query()
	q.Set("devid", c.devID)
	q.Set("devpassword", c.devPassword)
	q.Set("softname", c.softName)
	q.Set("output", "json")
	if c.ssID != "" {
		q.Set("ssid", c.ssID)
	}
	if c.ssPassword != "" {
		q.Set("sspassword", c.ssPassword)
	}
	for k, v := range params {
		if v != "" {
			q.Set(k, v)
		}
	}
	u.RawQuery = q.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u.String(), nil)
	if err != nil {
		return nil, fmt.Errorf("build request to %s: %w", endpoint, err)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("request to %s failed: %w", endpoint, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response body from %s: %w", endpoint, err)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		apiErr := newAPIError(resp.StatusCode, string(body))
		apiErr.RetryAfter = parseRetryAfter(resp.Header.Get("Retry-After"))
		return nil, apiErr
	}

	return body, nil
}

// parseRetryAfter parses a Retry-After header's delay-seconds form. The
// HTTP-date form and absent/garbage headers all map to zero, which callers
// treat as "use the configured default".
func parseRetryAfter(header string) time.Duration {
	if header == "" {
		return 0
	}
	secs, err := strconv.Atoi(header)
	if err != nil || secs < 0 {
		return 0
	}
	return time.Duration(secs) * time.Second
}

// validateResponse inspects a parsed Header for an in-body error, since the
// API sometimes reports failures with HTTP 200 and error="..." in the body.
func validateResponse(h Header) error {
	if h.Error != "" {
		return newAPIError(200, h.Error)
	}
	return nil
}
