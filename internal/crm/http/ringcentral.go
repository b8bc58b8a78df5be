package http

import (
	"net/http"

	"github.com/agentictinkering/brokerd/pkg/httpx"
	"github.com/agentictinkering/brokerd/pkg/rcsdk"
)

// RingCentral REST endpoints used by the telephony handlers.
const (
	epRingOut      = "/restapi/v1.0/account/~/extension/~/ring-out"
	epSMS          = "/restapi/v1.0/account/~/extension/~/sms"
	epPhoneNumbers = "/restapi/v1.0/account/~/extension/~/phone-number"
)

func epRingOutCall(callID string) string {
	return epRingOut + "/" + callID
}

func epTelephonySession(sessionID string) string {
	return "/restapi/v1.0/account/~/telephony/sessions/" + sessionID
}

// rcClientFactory builds a per-request RingCentral client from the request's
// cookies.
type rcClientFactory func(r *http.Request) *rcsdk.Client

// writeProviderError maps the client's error taxonomy onto HTTP responses.
// Rate limiting and missing authentication are "try later" conditions; a
// revoked token is the only one that asks the user to reconnect.
func writeProviderError(w http.ResponseWriter, err error) {
	switch {
	case rcsdk.IsRateLimited(err):
		httpx.WriteJSON(w, http.StatusTooManyRequests, map[string]any{
			"error":       "RingCentral rate limit exceeded. Please try again later.",
			"rateLimited": true,
		})
	case rcsdk.IsTokenRevoked(err):
		httpx.WriteJSON(w, http.StatusUnauthorized, map[string]any{
			"error":       "RingCentral authorization was revoked. Please reconnect your account.",
			"reauthorize": true,
		})
	case rcsdk.IsNotAuthenticated(err):
		httpx.WriteJSON(w, http.StatusUnauthorized, map[string]any{
			"error":         "Not authenticated with RingCentral",
			"authenticated": false,
		})
	default:
		httpx.WriteJSONError(w, http.StatusBadGateway, err.Error())
	}
}
