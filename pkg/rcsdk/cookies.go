package rcsdk

import (
	"net/http"
	"strings"
)

// Cookie names used for the RingCentral token state. The refresh endpoint is
// the only writer; this package only ever reads them.
const (
	CookieAccessToken  = "ringcentral_access_token"
	CookieRefreshToken = "ringcentral_refresh_token"
	CookieTokenExpiry  = "ringcentral_token_expiry" // epoch millis
)

// Cookies is an immutable, synchronous snapshot of a request's cookie set.
// The core token logic only ever sees this snapshot form, so it never has to
// care how the cookies were resolved.
type Cookies struct {
	cookies []*http.Cookie
}

// SnapshotCookies captures the cookie set of an inbound request.
func SnapshotCookies(r *http.Request) Cookies {
	return Cookies{cookies: r.Cookies()}
}

// NewCookies builds a snapshot from an explicit cookie list, useful in tests
// and for callers that source cookies outside an *http.Request.
func NewCookies(cookies []*http.Cookie) Cookies {
	return Cookies{cookies: cookies}
}

// With returns a copy of the snapshot with the named cookie set. Used after
// a successful refresh to reflect the values the refresh endpoint persisted,
// which the original request snapshot predates.
func (c Cookies) With(name, value string) Cookies {
	next := make([]*http.Cookie, 0, len(c.cookies)+1)
	for _, ck := range c.cookies {
		if ck.Name != name {
			next = append(next, ck)
		}
	}
	next = append(next, &http.Cookie{Name: name, Value: value})
	return Cookies{cookies: next}
}

// Get returns the named cookie's value and whether it was present.
func (c Cookies) Get(name string) (string, bool) {
	for _, ck := range c.cookies {
		if ck.Name == name {
			return ck.Value, true
		}
	}
	return "", false
}

// Header renders the snapshot as a Cookie header value ("a=b; c=d") for
// forwarding the full credential set to the internal refresh endpoint.
func (c Cookies) Header() string {
	parts := make([]string, 0, len(c.cookies))
	for _, ck := range c.cookies {
		parts = append(parts, ck.Name+"="+ck.Value)
	}
	return strings.Join(parts, "; ")
}
