package rcsdk

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strconv"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func tokenCookies(access, refresh string, expiry time.Time) Cookies {
	cookies := []*http.Cookie{
		{Name: "theme", Value: "dark"}, // unrelated cookie, must be forwarded too
	}
	if access != "" {
		cookies = append(cookies, &http.Cookie{Name: CookieAccessToken, Value: access})
	}
	if refresh != "" {
		cookies = append(cookies, &http.Cookie{Name: CookieRefreshToken, Value: refresh})
	}
	if !expiry.IsZero() {
		cookies = append(cookies, &http.Cookie{
			Name:  CookieTokenExpiry,
			Value: strconv.FormatInt(expiry.UnixMilli(), 10),
		})
	}
	return NewCookies(cookies)
}

func TestGetSkipsRefreshWhenTokenFresh(t *testing.T) {
	t.Parallel()

	var refreshHits atomic.Int32
	origin := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		refreshHits.Add(1)
		w.WriteHeader(http.StatusOK)
	}))
	defer origin.Close()

	var gotAuth string
	api := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotAuth = r.Header.Get("Authorization")
		_ = json.NewEncoder(w).Encode(map[string]string{"id": "call-1"})
	}))
	defer api.Close()

	cookies := tokenCookies("fresh-token", "refresh-token", time.Now().Add(time.Hour))
	client := NewClient(cookies, origin.URL, api.URL, NewGuard())

	result, err := client.Get(context.Background(), "/restapi/v1.0/account/~")
	require.NoError(t, err)
	require.JSONEq(t, `{"id":"call-1"}`, string(result))

	require.Equal(t, "Bearer fresh-token", gotAuth)
	require.Zero(t, refreshHits.Load(), "no refresh call expected for a fresh token")
}

func TestGetFailsWithoutRefreshTokenNoNetwork(t *testing.T) {
	t.Parallel()

	// Any HTTP traffic at all is a failure here.
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		t.Error("unexpected HTTP call")
	}))
	defer server.Close()

	cookies := tokenCookies("stale-token", "", time.Now().Add(-time.Hour))
	client := NewClient(cookies, server.URL, server.URL, NewGuard())

	_, err := client.Get(context.Background(), "/restapi/v1.0/account/~")
	require.True(t, IsNotAuthenticated(err))
	require.False(t, IsRateLimited(err))
	require.False(t, client.IsAuthenticated())
}

func TestNearExpiryRefreshesOnce(t *testing.T) {
	t.Parallel()

	newExpiry := time.Now().Add(time.Hour)

	var refreshHits atomic.Int32
	origin := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		refreshHits.Add(1)

		// The full inbound cookie set is the refresh credential.
		require.Equal(t, "/api/ringcentral/auth", r.URL.Path)
		require.Equal(t, "refresh", r.URL.Query().Get("action"))
		require.Contains(t, r.Header.Get("Cookie"), CookieRefreshToken+"=refresh-token")
		require.Contains(t, r.Header.Get("Cookie"), "theme=dark")

		_ = json.NewEncoder(w).Encode(refreshResponse{
			AccessToken: "renewed-token",
			ExpiresAt:   newExpiry.UnixMilli(),
		})
	}))
	defer origin.Close()

	var authHeaders []string
	api := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		authHeaders = append(authHeaders, r.Header.Get("Authorization"))
		_ = json.NewEncoder(w).Encode(map[string]bool{"ok": true})
	}))
	defer api.Close()

	cookies := tokenCookies("expiring-token", "refresh-token", time.Now().Add(3*time.Minute))
	client := NewClient(cookies, origin.URL, api.URL, NewGuard())

	_, err := client.Get(context.Background(), "/restapi/v1.0/account/~")
	require.NoError(t, err)

	// The second call sees the adopted token: no second refresh.
	_, err = client.Get(context.Background(), "/restapi/v1.0/account/~/extension")
	require.NoError(t, err)

	require.Equal(t, int32(1), refreshHits.Load())
	require.Equal(t, []string{"Bearer renewed-token", "Bearer renewed-token"}, authHeaders)
}

func TestRefreshRateLimitedBacksOff(t *testing.T) {
	t.Parallel()

	var refreshHits atomic.Int32
	origin := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		refreshHits.Add(1)
		w.WriteHeader(http.StatusTooManyRequests)
		_, _ = w.Write([]byte(`{"errorCode":"CMN-301","message":"Request rate exceeded"}`))
	}))
	defer origin.Close()

	guard := NewGuard()
	cookies := tokenCookies("stale-token", "refresh-token", time.Now().Add(-time.Minute))
	client := NewClient(cookies, origin.URL, origin.URL, guard)

	_, err := client.Get(context.Background(), "/restapi/v1.0/account/~")
	require.True(t, IsNotAuthenticated(err))
	require.True(t, IsRateLimited(err))
	require.True(t, guard.RateLimited())

	// Immediate retry is denied by the guard before any network traffic.
	_, err = client.Get(context.Background(), "/restapi/v1.0/account/~")
	require.True(t, IsRateLimited(err))
	require.Equal(t, int32(1), refreshHits.Load())
}

func TestRefreshDoesNotFollowRedirects(t *testing.T) {
	t.Parallel()

	// A misrouted refresh endpoint answers with a redirect. The client must
	// report the 3xx rather than chase it into whatever page it points at.
	var followed atomic.Int32
	origin := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/onboarding/organization" {
			followed.Add(1)
			w.WriteHeader(http.StatusOK)
			return
		}
		http.Redirect(w, r, "/onboarding/organization", http.StatusFound)
	}))
	defer origin.Close()

	cookies := tokenCookies("stale-token", "refresh-token", time.Now().Add(-time.Minute))
	client := NewClient(cookies, origin.URL, origin.URL, NewGuard())

	_, err := client.Get(context.Background(), "/restapi/v1.0/account/~")
	require.Error(t, err)

	var pe *ProviderError
	require.ErrorAs(t, err, &pe)
	require.Equal(t, KindRequestFailed, pe.Kind)
	require.Equal(t, http.StatusFound, pe.StatusCode)
	require.Zero(t, followed.Load())
}

func TestRefreshRevokedClassification(t *testing.T) {
	t.Parallel()

	body := `{"error":"invalid_grant","error_description":"Token is revoked","reauthorize":true}`
	origin := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
		_, _ = w.Write([]byte(body))
	}))
	defer origin.Close()

	cookies := tokenCookies("stale-token", "revoked-refresh", time.Now().Add(-time.Minute))
	client := NewClient(cookies, origin.URL, origin.URL, NewGuard())

	_, err := client.Get(context.Background(), "/restapi/v1.0/account/~")
	require.True(t, IsTokenRevoked(err))
	require.False(t, IsNotAuthenticated(err))

	var pe *ProviderError
	require.ErrorAs(t, err, &pe)
	require.Equal(t, KindTokenRevoked, pe.Kind)
	require.Equal(t, "invalid_grant", pe.Code)
	require.JSONEq(t, body, string(pe.Payload))
}

func TestAPIUnauthorizedMeansRevoked(t *testing.T) {
	t.Parallel()

	api := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
		_, _ = w.Write([]byte(`{"errorCode":"TokenInvalid","message":"Access token is invalid"}`))
	}))
	defer api.Close()

	cookies := tokenCookies("rejected-token", "refresh-token", time.Now().Add(time.Hour))
	client := NewClient(cookies, api.URL, api.URL, NewGuard())

	_, err := client.Get(context.Background(), "/restapi/v1.0/account/~")
	require.True(t, IsTokenRevoked(err))
}

func TestAPIGenericFailure(t *testing.T) {
	t.Parallel()

	api := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
		_, _ = w.Write([]byte(`{"errorCode":"InvalidParameter","message":"Phone number is invalid"}`))
	}))
	defer api.Close()

	cookies := tokenCookies("good-token", "refresh-token", time.Now().Add(time.Hour))
	client := NewClient(cookies, api.URL, api.URL, NewGuard())

	_, err := client.Post(context.Background(), "/restapi/v1.0/account/~/ring-out", map[string]string{"to": "nope"})
	require.False(t, IsTokenRevoked(err))
	require.False(t, IsNotAuthenticated(err))

	var pe *ProviderError
	require.ErrorAs(t, err, &pe)
	require.Equal(t, KindRequestFailed, pe.Kind)
	require.Equal(t, "Phone number is invalid", pe.Message)
}

func TestDeleteTreatsNoContentAsSuccess(t *testing.T) {
	t.Parallel()

	api := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, http.MethodDelete, r.Method)
		w.WriteHeader(http.StatusNoContent)
	}))
	defer api.Close()

	cookies := tokenCookies("good-token", "refresh-token", time.Now().Add(time.Hour))
	client := NewClient(cookies, api.URL, api.URL, NewGuard())

	result, err := client.Delete(context.Background(), "/restapi/v1.0/account/~/telephony/sessions/s-1")
	require.NoError(t, err)
	require.JSONEq(t, `{"success":true}`, string(result))
}

func TestGetValidAccessToken(t *testing.T) {
	t.Parallel()

	t.Run("fresh token returned as-is", func(t *testing.T) {
		t.Parallel()

		cookies := tokenCookies("fresh-token", "refresh-token", time.Now().Add(time.Hour))
		client := NewClient(cookies, "http://unused.invalid", "http://unused.invalid", NewGuard())

		token, err := client.GetValidAccessToken(context.Background())
		require.NoError(t, err)
		require.Equal(t, "fresh-token", token)
		require.True(t, client.IsAuthenticated())
	})

	t.Run("no cookies at all", func(t *testing.T) {
		t.Parallel()

		client := NewClient(NewCookies(nil), "http://unused.invalid", "http://unused.invalid", NewGuard())

		_, err := client.GetValidAccessToken(context.Background())
		require.True(t, IsNotAuthenticated(err))
	})
}
