package service

import (
	"net/http"
	"strings"

	"github.com/golang-jwt/jwt/v5"
)

// SessionCookie carries the signed session token issued at login.
const SessionCookie = "crm_session"

// SessionService resolves the authenticated user from a request's session
// cookie. Absent, expired or garbled sessions resolve to "no user", never to
// an error: an anonymous request is an expected condition.
type SessionService struct {
	Secret []byte
}

// ResolveUser returns the user id carried by the session cookie, or false if
// the request has no usable session.
func (s *SessionService) ResolveUser(r *http.Request) (string, bool) {
	cookie, err := r.Cookie(SessionCookie)
	if err != nil || cookie.Value == "" {
		return "", false
	}
	return s.resolveToken(cookie.Value)
}

func (s *SessionService) resolveToken(token string) (string, bool) {
	claims := &jwt.RegisteredClaims{}
	parsed, err := jwt.ParseWithClaims(token, claims, func(t *jwt.Token) (any, error) {
		return s.Secret, nil
	}, jwt.WithValidMethods([]string{"HS256"}))
	if err != nil || !parsed.Valid {
		return "", false
	}

	subject := strings.TrimSpace(claims.Subject)
	if subject == "" {
		return "", false
	}
	return subject, true
}

// IssueSession mints a signed session token for a user. Used by the login
// callback and by tests.
func (s *SessionService) IssueSession(userID string, expiresAt jwt.NumericDate) (string, error) {
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.RegisteredClaims{
		Subject:   userID,
		ExpiresAt: &expiresAt,
	})
	return token.SignedString(s.Secret)
}
