package http

import (
	"crypto/rand"
	"crypto/sha256"
	"encoding/base64"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/agentictinkering/brokerd/pkg/cryptox"
	"github.com/agentictinkering/brokerd/pkg/httpx"
	"github.com/agentictinkering/brokerd/pkg/rcsdk"
	"github.com/agentictinkering/brokerd/pkg/slogx"
)

// Short-lived cookies used during the OAuth authorization round trip.
const (
	cookieOAuthState   = "rc_oauth_state"
	cookieCodeVerifier = "rc_code_verifier"
)

const defaultRefreshTokenTTL = 7 * 24 * time.Hour

// AuthHandler owns the RingCentral connection lifecycle: starting the OAuth
// consent flow, refreshing the token pair, and disconnecting. It is the only
// writer of the token cookies; everything else just reads them.
type AuthHandler struct {
	ServerURL    string
	ClientID     string
	ClientSecret string
	RedirectURI  string
	HTTPClient   *http.Client

	// Guard is reset after a successful refresh so an earlier rate-limit
	// episode doesn't outlive the condition that caused it.
	Guard *rcsdk.Guard
}

// ServeHTTP godoc
//
//	@Summary		RingCentral connection lifecycle
//	@Description	Dispatches on the action query parameter: authorize starts the OAuth consent flow,
//	@Description	refresh exchanges the refresh token for a new access token, logout clears the stored tokens
//	@Tags			Telephony
//	@Produce		json
//	@Param			action	query		string	true	"authorize | refresh | logout"
//	@Success		200		{object}	map[string]any
//	@Failure		400		{object}	map[string]any
//	@Failure		401		{object}	map[string]any
//	@Failure		429		{object}	map[string]any
//	@Router			/api/ringcentral/auth [get]
func (h *AuthHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	switch r.URL.Query().Get("action") {
	case "authorize":
		h.handleAuthorize(w, r)
	case "refresh":
		h.handleRefresh(w, r)
	case "logout":
		h.handleLogout(w, r)
	default:
		httpx.WriteJSONError(w, http.StatusBadRequest, "Invalid action")
	}
}

// handleAuthorize redirects to the provider's consent page with PKCE. The
// state and code verifier are parked in short-lived cookies for the callback
// to verify.
func (h *AuthHandler) handleAuthorize(w http.ResponseWriter, r *http.Request) {
	state, err := randomToken()
	if err != nil {
		httpx.WriteJSONError(w, http.StatusInternalServerError, "failed to generate state")
		return
	}
	verifier, err := randomToken()
	if err != nil {
		httpx.WriteJSONError(w, http.StatusInternalServerError, "failed to generate code verifier")
		return
	}

	sum := sha256.Sum256([]byte(verifier))
	challenge := base64.RawURLEncoding.EncodeToString(sum[:])

	setEphemeralCookie(w, cookieOAuthState, state, 10*time.Minute)
	setEphemeralCookie(w, cookieCodeVerifier, verifier, 10*time.Minute)

	authURL, _ := url.Parse(h.ServerURL + "/restapi/oauth/authorize")
	q := authURL.Query()
	q.Set("response_type", "code")
	q.Set("client_id", h.ClientID)
	q.Set("redirect_uri", h.RedirectURI)
	q.Set("state", state)
	q.Set("code_challenge", challenge)
	q.Set("code_challenge_method", "S256")
	authURL.RawQuery = q.Encode()

	http.Redirect(w, r, authURL.String(), http.StatusFound)
}

// tokenResponse is the provider's OAuth2 token endpoint success shape.
type tokenResponse struct {
	AccessToken           string `json:"access_token"`
	RefreshToken          string `json:"refresh_token"`
	ExpiresIn             int64  `json:"expires_in"`               // seconds
	RefreshTokenExpiresIn int64  `json:"refresh_token_expires_in"` // seconds
}

func (h *AuthHandler) handleRefresh(w http.ResponseWriter, r *http.Request) {
	log := slogx.FromContext(r.Context())
	httpx.NoCache(w)

	sealed, err := r.Cookie(rcsdk.CookieRefreshToken)
	if err != nil || sealed.Value == "" {
		httpx.WriteJSON(w, http.StatusUnauthorized, map[string]any{
			"error":       "No refresh token available",
			"reauthorize": true,
		})
		return
	}

	refreshToken, err := cryptox.OpenCookieValue(sealed.Value)
	if err != nil {
		// Unreadable cookie (key rotation, tampering): force a reconnect.
		log.Warn("failed to unseal refresh token cookie", "error", err)
		h.clearTokenCookies(w)
		httpx.WriteJSON(w, http.StatusUnauthorized, map[string]any{
			"error":       "Stored refresh token is unreadable",
			"reauthorize": true,
		})
		return
	}

	form := url.Values{
		"grant_type":    {"refresh_token"},
		"refresh_token": {refreshToken},
	}
	req, err := http.NewRequestWithContext(r.Context(), http.MethodPost,
		h.ServerURL+"/restapi/oauth/token", strings.NewReader(form.Encode()))
	if err != nil {
		httpx.WriteJSONError(w, http.StatusInternalServerError, "failed to build token request")
		return
	}
	req.SetBasicAuth(h.ClientID, h.ClientSecret)
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := h.httpClient().Do(req)
	if err != nil {
		log.Error("token endpoint unreachable", "error", err)
		httpx.WriteJSONError(w, http.StatusBadGateway, "token endpoint unreachable")
		return
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		httpx.WriteJSONError(w, http.StatusBadGateway, "failed to read token response")
		return
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		h.writeRefreshFailure(w, log, resp.StatusCode, body)
		return
	}

	var tokens tokenResponse
	if err := json.Unmarshal(body, &tokens); err != nil {
		httpx.WriteJSONError(w, http.StatusBadGateway, "failed to decode token response")
		return
	}

	expiresAt := time.Now().Add(time.Duration(tokens.ExpiresIn) * time.Second)
	refreshTTL := defaultRefreshTokenTTL
	if tokens.RefreshTokenExpiresIn > 0 {
		refreshTTL = time.Duration(tokens.RefreshTokenExpiresIn) * time.Second
	}

	sealedRefresh, err := cryptox.SealCookieValue(tokens.RefreshToken)
	if err != nil {
		log.Error("failed to seal refresh token", "error", err)
		httpx.WriteJSONError(w, http.StatusInternalServerError, "failed to store refresh token")
		return
	}

	setTokenCookie(w, rcsdk.CookieAccessToken, tokens.AccessToken, time.Until(expiresAt))
	setTokenCookie(w, rcsdk.CookieRefreshToken, sealedRefresh, refreshTTL)
	setTokenCookie(w, rcsdk.CookieTokenExpiry, strconv.FormatInt(expiresAt.UnixMilli(), 10), refreshTTL)

	if h.Guard != nil {
		h.Guard.Reset()
	}

	log.Info("token refreshed", "expires_at", expiresAt)
	httpx.WriteJSON(w, http.StatusOK, map[string]any{
		"accessToken": tokens.AccessToken,
		"expiresAt":   expiresAt.UnixMilli(),
	})
}

// providerErrorBody is the provider's OAuth2 token endpoint failure shape.
type providerErrorBody struct {
	Error            string `json:"error"`
	ErrorDescription string `json:"error_description"`
	ErrorCode        string `json:"errorCode"`
	Message          string `json:"message"`
}

func (h *AuthHandler) writeRefreshFailure(w http.ResponseWriter, log *slog.Logger, statusCode int, body []byte) {
	var parsed providerErrorBody
	_ = json.Unmarshal(body, &parsed)

	if rcsdk.IsRateLimitResponse(statusCode, body) {
		log.Warn("token refresh rate limited", "status", statusCode)
		httpx.WriteJSON(w, http.StatusTooManyRequests, map[string]any{
			"error":     "Rate limit exceeded",
			"errorCode": parsed.ErrorCode,
		})
		return
	}

	if parsed.Error == "invalid_grant" || parsed.ErrorCode == "invalid_grant" {
		// The refresh token itself is dead; stored state is useless now.
		log.Warn("refresh token rejected", "description", parsed.ErrorDescription)
		h.clearTokenCookies(w)
		httpx.WriteJSON(w, http.StatusBadRequest, map[string]any{
			"error":             "invalid_grant",
			"error_description": parsed.ErrorDescription,
			"reauthorize":       true,
		})
		return
	}

	log.Warn("token refresh failed", "status", statusCode, "error", parsed.Error)
	message := parsed.ErrorDescription
	if message == "" {
		message = parsed.Message
	}
	if message == "" {
		message = "Token refresh failed"
	}
	httpx.WriteJSON(w, statusCode, map[string]any{"error": message})
}

func (h *AuthHandler) handleLogout(w http.ResponseWriter, r *http.Request) {
	h.clearTokenCookies(w)
	slogx.FromContext(r.Context()).Info("ringcentral tokens cleared")
	httpx.WriteJSON(w, http.StatusOK, map[string]any{"success": true})
}

func (h *AuthHandler) clearTokenCookies(w http.ResponseWriter) {
	for _, name := range []string{rcsdk.CookieAccessToken, rcsdk.CookieRefreshToken, rcsdk.CookieTokenExpiry} {
		http.SetCookie(w, &http.Cookie{
			Name:     name,
			Value:    "",
			Path:     "/",
			MaxAge:   -1,
			HttpOnly: true,
			SameSite: http.SameSiteLaxMode,
		})
	}
}

func (h *AuthHandler) httpClient() *http.Client {
	if h.HTTPClient != nil {
		return h.HTTPClient
	}
	return http.DefaultClient
}

func setTokenCookie(w http.ResponseWriter, name, value string, ttl time.Duration) {
	http.SetCookie(w, &http.Cookie{
		Name:     name,
		Value:    value,
		Path:     "/",
		MaxAge:   int(ttl.Seconds()),
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	})
}

func setEphemeralCookie(w http.ResponseWriter, name, value string, ttl time.Duration) {
	setTokenCookie(w, name, value, ttl)
}

func randomToken() (string, error) {
	buf := make([]byte, 32)
	if _, err := rand.Read(buf); err != nil {
		return "", err
	}
	return base64.RawURLEncoding.EncodeToString(buf), nil
}
