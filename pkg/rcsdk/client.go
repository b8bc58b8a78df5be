package rcsdk

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"
)

const (
	// nearExpiryWindow triggers a proactive refresh before the access token
	// actually lapses, so in-flight calls don't race the expiry.
	nearExpiryWindow = 5 * time.Minute

	refreshPath = "/api/ringcentral/auth?action=refresh"
)

// refreshResponse is the success shape of the internal refresh endpoint.
type refreshResponse struct {
	AccessToken string `json:"accessToken"`
	ExpiresAt   int64  `json:"expiresAt"` // epoch millis
}

// Client makes authenticated calls against the RingCentral REST API on behalf
// of one inbound request. Token state is sourced from the request's cookie
// snapshot and refreshed through the internal refresh endpoint when close to
// expiry. Persisting a refreshed token pair back into cookies is the refresh
// endpoint's job, not ours.
//
// A Client is not safe for concurrent use; create one per request. The Guard,
// by contrast, is process-wide and shared between all Clients.
type Client struct {
	// APIBase is the RingCentral REST base URL.
	APIBase string

	// HTTPClient is used for both refresh and API calls.
	HTTPClient *http.Client

	cookies Cookies
	origin  string // scheme+host to reach the internal refresh endpoint
	guard   *Guard

	now func() time.Time

	accessToken   string
	refreshToken  string
	expiry        time.Time
	authenticated bool
}

// NewClient creates a per-request client. origin is this service's own base
// URL (the refresh endpoint lives there); guard is the shared refresh guard.
func NewClient(cookies Cookies, origin, apiBase string, guard *Guard) *Client {
	return &Client{
		APIBase: strings.TrimSuffix(apiBase, "/"),
		HTTPClient: &http.Client{
			Timeout: 30 * time.Second,
			// A redirect out of the refresh endpoint is a wiring fault;
			// surface the 3xx instead of chasing it into an unrelated page.
			CheckRedirect: func(*http.Request, []*http.Request) error {
				return http.ErrUseLastResponse
			},
		},
		cookies:    cookies,
		origin:     strings.TrimSuffix(origin, "/"),
		guard:      guard,
		now:        time.Now,
	}
}

// IsAuthenticated is a non-authoritative quick check. It reflects the last
// ensureTokenIsValid outcome and must not be trusted before one has run in
// the current request.
func (c *Client) IsAuthenticated() bool {
	return c.authenticated && c.accessToken != ""
}

// GetValidAccessToken runs the validity-ensuring flow and returns the current
// bearer token. Used by collaborators that hand the raw token to something
// this client doesn't wrap (e.g. a browser-side SDK).
func (c *Client) GetValidAccessToken(ctx context.Context) (string, error) {
	if err := c.ensureTokenIsValid(ctx); err != nil {
		return "", err
	}
	if !c.IsAuthenticated() {
		return "", errNotAuthenticated(false)
	}
	return c.accessToken, nil
}

// ensureTokenIsValid loads the token state fresh from the cookie snapshot and
// refreshes it when expired or inside the near-expiry window. Reading fresh
// every time means a request that lost a concurrent refresh race picks up the
// winner's token instead of overwriting it.
func (c *Client) ensureTokenIsValid(ctx context.Context) error {
	accessToken, _ := c.cookies.Get(CookieAccessToken)
	refreshToken, _ := c.cookies.Get(CookieRefreshToken)
	expiryRaw, _ := c.cookies.Get(CookieTokenExpiry)

	c.accessToken = accessToken
	c.refreshToken = refreshToken
	c.expiry = time.Time{}
	if expiryRaw != "" {
		if millis, err := strconv.ParseInt(expiryRaw, 10, 64); err == nil {
			c.expiry = time.UnixMilli(millis)
		}
	}

	now := c.now()

	// Absent expiry is treated as already expired.
	needsRefresh := c.expiry.IsZero() ||
		!c.expiry.After(now) ||
		c.expiry.Sub(now) < nearExpiryWindow

	if !needsRefresh {
		c.authenticated = accessToken != ""
		return nil
	}

	if refreshToken == "" {
		c.authenticated = false
		return nil
	}

	return c.refresh(ctx)
}

// refresh exchanges the refresh-token cookie for a new access token via the
// internal refresh endpoint, forwarding the full cookie set as credentials.
func (c *Client) refresh(ctx context.Context) error {
	c.authenticated = false

	if !c.guard.CanAttemptRefresh() {
		return errNotAuthenticated(true)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.origin+refreshPath, nil)
	if err != nil {
		return fmt.Errorf("failed to create refresh request: %w", err)
	}
	req.Header.Set("Cookie", c.cookies.Header())

	resp, err := c.HTTPClient.Do(req)
	if err != nil {
		return fmt.Errorf("failed to call refresh endpoint: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("failed to read refresh response: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		classified := classifyRefreshFailure(resp.StatusCode, body)
		if classified.RateLimited {
			c.guard.SetRateLimited()
		}
		return classified
	}

	var refreshed refreshResponse
	if err := json.Unmarshal(body, &refreshed); err != nil {
		return fmt.Errorf("failed to decode refresh response: %w", err)
	}

	c.accessToken = refreshed.AccessToken
	c.expiry = time.UnixMilli(refreshed.ExpiresAt)
	c.authenticated = true

	// The refresh endpoint persisted the new pair as cookies; fold the values
	// into our snapshot so the next validity check sees them instead of the
	// pre-refresh state the request arrived with.
	c.cookies = c.cookies.
		With(CookieAccessToken, refreshed.AccessToken).
		With(CookieTokenExpiry, strconv.FormatInt(refreshed.ExpiresAt, 10))
	return nil
}

// Get issues an authenticated GET against the RingCentral API.
func (c *Client) Get(ctx context.Context, endpoint string) (json.RawMessage, error) {
	return c.do(ctx, http.MethodGet, endpoint, nil)
}

// Post issues an authenticated POST with a JSON body.
func (c *Client) Post(ctx context.Context, endpoint string, payload any) (json.RawMessage, error) {
	var body io.Reader
	if payload != nil {
		encoded, err := json.Marshal(payload)
		if err != nil {
			return nil, fmt.Errorf("failed to encode request body: %w", err)
		}
		body = bytes.NewReader(encoded)
	}
	return c.do(ctx, http.MethodPost, endpoint, body)
}

// Delete issues an authenticated DELETE. An HTTP 204 or empty body is treated
// as a synthetic success result rather than a parse error.
func (c *Client) Delete(ctx context.Context, endpoint string) (json.RawMessage, error) {
	return c.do(ctx, http.MethodDelete, endpoint, nil)
}

func (c *Client) do(ctx context.Context, method, endpoint string, body io.Reader) (json.RawMessage, error) {
	if err := c.ensureTokenIsValid(ctx); err != nil {
		return nil, err
	}
	if !c.IsAuthenticated() {
		return nil, errNotAuthenticated(false)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.APIBase+endpoint, body)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+c.accessToken)
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.HTTPClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to send request: %w", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response body: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, classifyAPIFailure(resp.StatusCode, respBody)
	}

	if resp.StatusCode == http.StatusNoContent || len(respBody) == 0 {
		return json.RawMessage(`{"success":true}`), nil
	}

	return json.RawMessage(respBody), nil
}
