// Shared HTTP transport for the sync service API
package services

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"

	"golang.org/x/oauth2"
	"golang.org/x/time/rate"

	"github.com/minhvu/tcbsync/internal/shared"
)

// defaultBaseURL points at a locally running sync service.
const defaultBaseURL = "http://127.0.0.1:8000"

// Client makes raw HTTP requests against the sync service.
//
// Authorized requests go through an oauth2 transport whose token source is
// the session manager; public requests (token exchange, registration) bypass
// it. A shared limiter paces all requests so CLI loops cannot hammer the
// service.
type Client struct {
	baseURL    string
	httpClient *http.Client
	authClient *http.Client
	limiter    *rate.Limiter
}

// NewClient creates a Client for the service at baseURL. The credential
// source supplies the bearer token for authorized calls; requests fail before
// leaving the process when it reports no session.
func NewClient(baseURL string, base *http.Client, creds oauth2.TokenSource) *Client {
	if baseURL == "" {
		baseURL = defaultBaseURL
	}
	if base == nil {
		base = http.DefaultClient
	}

	authClient := &http.Client{
		Transport: &oauth2.Transport{Source: creds, Base: base.Transport},
		Timeout:   base.Timeout,
	}

	return &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: base,
		authClient: authClient,
		limiter:    rate.NewLimiter(rate.Limit(10), 5),
	}
}

// BaseURL returns the service base URL without a trailing slash.
func (c *Client) BaseURL() string {
	return c.baseURL
}

// APIResponse represents a raw API response with status and body.
type APIResponse struct {
	StatusCode int
	Headers    http.Header
	Body       []byte
	IsJSON     bool
	JSONData   any
}

// Detail extracts the service's error detail field from the body, falling
// back to the raw body text.
func (r *APIResponse) Detail() string {
	var payload struct {
		Detail string `json:"detail"`
	}
	if err := json.Unmarshal(r.Body, &payload); err == nil && payload.Detail != "" {
		return payload.Detail
	}
	return strings.TrimSpace(string(r.Body))
}

// OK reports whether the status code is in the 2xx range.
func (r *APIResponse) OK() bool {
	return r.StatusCode >= 200 && r.StatusCode < 300
}

// Get performs an authorized GET request to the specified path.
func (c *Client) Get(ctx context.Context, path string) (*APIResponse, error) {
	return c.do(ctx, c.authClient, http.MethodGet, path, "", nil)
}

// Post performs an authorized POST request with a JSON body.
func (c *Client) Post(ctx context.Context, path string, data []byte) (*APIResponse, error) {
	return c.do(ctx, c.authClient, http.MethodPost, path, "application/json", bytes.NewReader(data))
}

// PostPublic performs an unauthenticated POST request with a JSON body.
// Used by endpoints that mint credentials rather than require them.
func (c *Client) PostPublic(ctx context.Context, path string, data []byte) (*APIResponse, error) {
	return c.do(ctx, c.httpClient, http.MethodPost, path, "application/json", bytes.NewReader(data))
}

// PostForm performs an unauthenticated POST request with form-encoded values.
func (c *Client) PostForm(ctx context.Context, path string, values url.Values) (*APIResponse, error) {
	body := strings.NewReader(values.Encode())
	return c.do(ctx, c.httpClient, http.MethodPost, path, "application/x-www-form-urlencoded", body)
}

func (c *Client) do(ctx context.Context, client *http.Client, method, path, contentType string, body io.Reader) (*APIResponse, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return nil, fmt.Errorf("request rate limit: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, body)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}
	if method != http.MethodGet {
		req.Header.Set("X-Request-ID", shared.GenerateID())
	}

	resp, err := client.Do(req)
	if err != nil {
		// The oauth2 transport refuses to send anything when the session
		// manager has no token; surface that as the auth failure it is.
		if errors.Is(err, shared.ErrNotAuthenticated) {
			return nil, shared.ErrNotAuthenticated
		}
		return nil, fmt.Errorf("%w: %v", shared.ErrServiceUnavailable, err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response: %w", err)
	}

	apiResp := &APIResponse{
		StatusCode: resp.StatusCode,
		Headers:    resp.Header,
		Body:       data,
	}

	var jsonData any
	if err := json.Unmarshal(data, &jsonData); err == nil {
		apiResp.IsJSON = true
		apiResp.JSONData = jsonData
	}

	return apiResp, nil
}
