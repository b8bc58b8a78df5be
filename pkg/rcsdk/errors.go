package rcsdk

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
)

// Provider error codes we key decisions off.
const (
	// rateLimitErrorCode is RingCentral's "request rate exceeded" code.
	rateLimitErrorCode = "CMN-301"

	// revokedGrantCode is the OAuth2 error returned when the refresh token
	// itself is invalid, expired or revoked.
	revokedGrantCode = "invalid_grant"
)

// ErrorKind is the closed set of failure classifications surfaced to callers.
// Callers must be able to distinguish "retry later" (NotAuthenticated) from
// "re-authenticate" (TokenRevoked) from "this request failed" (RequestFailed).
type ErrorKind string

const (
	// KindNotAuthenticated means no valid token was available and refresh
	// did not yield one. Includes the rate-limited sub-case.
	KindNotAuthenticated ErrorKind = "not_authenticated"

	// KindTokenRevoked means the provider rejected the refresh token as
	// invalid or revoked. The only condition that should trigger a full
	// re-authentication flow.
	KindTokenRevoked ErrorKind = "token_revoked"

	// KindRequestFailed is any other non-success response from the refresh
	// endpoint or the target API.
	KindRequestFailed ErrorKind = "request_failed"
)

// ProviderError is the typed error for every non-success outcome of the token
// lifecycle client. The Kind discriminator is set by a single classification
// function rather than ad-hoc field inspection at call sites.
type ProviderError struct {
	Kind        ErrorKind
	StatusCode  int
	Code        string // provider error code, e.g. "CMN-301" or "invalid_grant"
	Message     string
	RateLimited bool
	Payload     json.RawMessage // original provider error body, for diagnostics
}

// Error implements the error interface.
func (e *ProviderError) Error() string {
	switch e.Kind {
	case KindNotAuthenticated:
		if e.RateLimited {
			return "ringcentral: not authenticated (rate limited)"
		}
		return "ringcentral: not authenticated"
	case KindTokenRevoked:
		return fmt.Sprintf("ringcentral: token revoked, reauthorization required: %s", e.Message)
	default:
		if e.Message != "" {
			return fmt.Sprintf("ringcentral: request failed (status %d): %s", e.StatusCode, e.Message)
		}
		return fmt.Sprintf("ringcentral: request failed (status %d)", e.StatusCode)
	}
}

// errNotAuthenticated is the no-token / refresh-denied outcome.
func errNotAuthenticated(rateLimited bool) *ProviderError {
	return &ProviderError{
		Kind:        KindNotAuthenticated,
		RateLimited: rateLimited,
	}
}

// IsNotAuthenticated reports whether err carries the NotAuthenticated
// classification (including the rate-limited sub-case).
func IsNotAuthenticated(err error) bool {
	var pe *ProviderError
	return errors.As(err, &pe) && pe.Kind == KindNotAuthenticated
}

// IsTokenRevoked reports whether err requires a full re-authentication flow.
func IsTokenRevoked(err error) bool {
	var pe *ProviderError
	return errors.As(err, &pe) && pe.Kind == KindTokenRevoked
}

// IsRateLimited reports whether err is the rate-limited no-auth sub-case.
func IsRateLimited(err error) bool {
	var pe *ProviderError
	return errors.As(err, &pe) && pe.RateLimited
}

// refreshErrorBody is the failure shape of the internal refresh endpoint.
type refreshErrorBody struct {
	Error            string `json:"error"`
	ErrorCode        string `json:"errorCode,omitempty"`
	ErrorDescription string `json:"error_description,omitempty"`
	Message          string `json:"message,omitempty"`
	Reauthorize      bool   `json:"reauthorize,omitempty"`
}

// classifyRefreshFailure maps a non-success refresh response onto the error
// taxonomy. The reauthorize marker (or an invalid_grant code) always yields
// TokenRevoked; rate limiting yields the NotAuthenticated sub-case.
func classifyRefreshFailure(statusCode int, body []byte) *ProviderError {
	var parsed refreshErrorBody
	_ = json.Unmarshal(body, &parsed)

	if parsed.Reauthorize || parsed.Error == revokedGrantCode || parsed.ErrorCode == revokedGrantCode {
		return &ProviderError{
			Kind:       KindTokenRevoked,
			StatusCode: statusCode,
			Code:       firstNonEmpty(parsed.ErrorCode, parsed.Error),
			Message:    firstNonEmpty(parsed.ErrorDescription, parsed.Message, parsed.Error),
			Payload:    json.RawMessage(body),
		}
	}

	if IsRateLimitResponse(statusCode, body) {
		return &ProviderError{
			Kind:        KindNotAuthenticated,
			StatusCode:  statusCode,
			Code:        parsed.ErrorCode,
			Message:     firstNonEmpty(parsed.Message, parsed.Error),
			RateLimited: true,
			Payload:     json.RawMessage(body),
		}
	}

	return &ProviderError{
		Kind:       KindRequestFailed,
		StatusCode: statusCode,
		Code:       firstNonEmpty(parsed.ErrorCode, parsed.Error),
		Message:    firstNonEmpty(parsed.Message, parsed.ErrorDescription, parsed.Error),
		Payload:    json.RawMessage(body),
	}
}

// apiErrorBody is RingCentral's standard error envelope on data calls.
type apiErrorBody struct {
	ErrorCode string `json:"errorCode"`
	Message   string `json:"message"`
}

// classifyAPIFailure maps a non-success response from a target API call onto
// the error taxonomy. A 401 means the access token was rejected outright,
// which requires re-authentication.
func classifyAPIFailure(statusCode int, body []byte) *ProviderError {
	var parsed apiErrorBody
	_ = json.Unmarshal(body, &parsed)

	switch {
	case IsRateLimitResponse(statusCode, body):
		return &ProviderError{
			Kind:        KindNotAuthenticated,
			StatusCode:  statusCode,
			Code:        parsed.ErrorCode,
			Message:     parsed.Message,
			RateLimited: true,
			Payload:     json.RawMessage(body),
		}
	case statusCode == http.StatusUnauthorized:
		return &ProviderError{
			Kind:       KindTokenRevoked,
			StatusCode: statusCode,
			Code:       parsed.ErrorCode,
			Message:    firstNonEmpty(parsed.Message, "token revoked or expired"),
			Payload:    json.RawMessage(body),
		}
	default:
		return &ProviderError{
			Kind:       KindRequestFailed,
			StatusCode: statusCode,
			Code:       parsed.ErrorCode,
			Message:    parsed.Message,
			Payload:    json.RawMessage(body),
		}
	}
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}
