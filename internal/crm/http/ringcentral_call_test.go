package http

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strconv"
	"strings"
	"testing"
	"time"

	"github.com/agentictinkering/brokerd/pkg/rcsdk"
	"github.com/stretchr/testify/require"
)

// authedFactory builds clients whose cookies carry a fresh token, so requests
// go straight to the stubbed API without a refresh.
func authedFactory(apiURL string) rcClientFactory {
	return func(r *http.Request) *rcsdk.Client {
		cookies := rcsdk.NewCookies([]*http.Cookie{
			{Name: rcsdk.CookieAccessToken, Value: "test-token"},
			{Name: rcsdk.CookieRefreshToken, Value: "test-refresh"},
			{Name: rcsdk.CookieTokenExpiry, Value: millisFromNow(time.Hour)},
		})
		return rcsdk.NewClient(cookies, apiURL, apiURL, rcsdk.NewGuard())
	}
}

func millisFromNow(d time.Duration) string {
	return strconv.FormatInt(time.Now().Add(d).UnixMilli(), 10)
}

func TestPlaceCall(t *testing.T) {
	api := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, epRingOut, r.URL.Path)

		var payload map[string]any
		require.NoError(t, json.NewDecoder(r.Body).Decode(&payload))
		require.Equal(t, map[string]any{"phoneNumber": "+15559876543"}, payload["to"])
		require.Equal(t, map[string]any{"phoneNumber": "+15551234567"}, payload["from"])
		require.Equal(t, false, payload["playPrompt"])

		_ = json.NewEncoder(w).Encode(map[string]string{"id": "ring-1", "status": "InProgress"})
	}))
	defer api.Close()

	h := &CallHandler{FromNumber: "+15551234567", Clients: authedFactory(api.URL)}

	w := httptest.NewRecorder()
	r := httptest.NewRequest(http.MethodPost, "/api/ringcentral/call", strings.NewReader(`{"to":"+15559876543"}`))
	h.HandlePlace(w, r)

	require.Equal(t, http.StatusOK, w.Code)

	var resp struct {
		Success bool            `json:"success"`
		Data    json.RawMessage `json:"data"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	require.True(t, resp.Success)
	require.JSONEq(t, `{"id":"ring-1","status":"InProgress"}`, string(resp.Data))
}

func TestPlaceCallValidation(t *testing.T) {
	h := &CallHandler{FromNumber: "+15551234567", Clients: nil}

	w := httptest.NewRecorder()
	h.HandlePlace(w, httptest.NewRequest(http.MethodPost, "/api/ringcentral/call", strings.NewReader(`{}`)))
	require.Equal(t, http.StatusBadRequest, w.Code)
}

func TestPlaceCallWithoutFromNumber(t *testing.T) {
	h := &CallHandler{Clients: nil}

	w := httptest.NewRecorder()
	h.HandlePlace(w, httptest.NewRequest(http.MethodPost, "/api/ringcentral/call", strings.NewReader(`{"to":"+15559876543"}`)))
	require.Equal(t, http.StatusInternalServerError, w.Code)
}

func TestCallStatusRequiresIdentifier(t *testing.T) {
	h := &CallHandler{Clients: nil}

	w := httptest.NewRecorder()
	h.HandleStatus(w, httptest.NewRequest(http.MethodGet, "/api/ringcentral/call-status", nil))
	require.Equal(t, http.StatusBadRequest, w.Code)
}

func TestCallStatusNotFoundMeansEnded(t *testing.T) {
	api := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
		_, _ = w.Write([]byte(`{"errorCode":"CMN-102","message":"Resource for parameter [ringOutId] is not found"}`))
	}))
	defer api.Close()

	h := &CallHandler{Clients: authedFactory(api.URL)}

	w := httptest.NewRecorder()
	h.HandleStatus(w, httptest.NewRequest(http.MethodGet, "/api/ringcentral/call-status?callId=ring-1", nil))

	require.Equal(t, http.StatusOK, w.Code)

	var resp struct {
		Success bool `json:"success"`
		Data    struct {
			CallStatus string `json:"callStatus"`
		} `json:"data"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	require.True(t, resp.Success)
	require.Equal(t, "NotFound", resp.Data.CallStatus)
}

func TestCallStatusUsesSessionEndpoint(t *testing.T) {
	var gotPath string
	api := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		_ = json.NewEncoder(w).Encode(map[string]string{"status": "Answered"})
	}))
	defer api.Close()

	h := &CallHandler{Clients: authedFactory(api.URL)}

	w := httptest.NewRecorder()
	h.HandleStatus(w, httptest.NewRequest(http.MethodGet, "/api/ringcentral/call-status?ringSessionId=s-1", nil))

	require.Equal(t, http.StatusOK, w.Code)
	require.Equal(t, epTelephonySession("s-1"), gotPath)
}

func TestCallNotAuthenticated(t *testing.T) {
	// No token cookies at all: the client fails before any API traffic.
	factory := func(r *http.Request) *rcsdk.Client {
		return rcsdk.NewClient(rcsdk.NewCookies(nil), "http://unused.invalid", "http://unused.invalid", rcsdk.NewGuard())
	}
	h := &CallHandler{FromNumber: "+15551234567", Clients: factory}

	w := httptest.NewRecorder()
	h.HandlePlace(w, httptest.NewRequest(http.MethodPost, "/api/ringcentral/call", strings.NewReader(`{"to":"+15559876543"}`)))

	require.Equal(t, http.StatusUnauthorized, w.Code)

	var resp struct {
		Authenticated bool `json:"authenticated"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	require.False(t, resp.Authenticated)
}

func TestEndCall(t *testing.T) {
	api := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, http.MethodDelete, r.Method)
		w.WriteHeader(http.StatusNoContent)
	}))
	defer api.Close()

	h := &CallHandler{Clients: authedFactory(api.URL)}

	w := httptest.NewRecorder()
	h.HandleEnd(w, httptest.NewRequest(http.MethodDelete, "/api/ringcentral/end-call?callId=ring-1", nil))

	require.Equal(t, http.StatusOK, w.Code)

	var resp struct {
		Success bool            `json:"success"`
		Data    json.RawMessage `json:"data"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	require.True(t, resp.Success)
	require.JSONEq(t, `{"success":true}`, string(resp.Data))
}
