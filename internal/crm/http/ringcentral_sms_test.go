package http

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestSendSMS(t *testing.T) {
	api := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, epSMS, r.URL.Path)

		var payload map[string]any
		require.NoError(t, json.NewDecoder(r.Body).Decode(&payload))
		require.Equal(t, map[string]any{"phoneNumber": "+15551234567"}, payload["from"])
		require.Equal(t, []any{map[string]any{"phoneNumber": "+15559876543"}}, payload["to"])
		require.Equal(t, "hello there", payload["text"])

		_ = json.NewEncoder(w).Encode(map[string]string{"id": "sms-1", "messageStatus": "Queued"})
	}))
	defer api.Close()

	h := &SMSHandler{FromNumber: "+15551234567", Clients: authedFactory(api.URL)}

	w := httptest.NewRecorder()
	r := httptest.NewRequest(http.MethodPost, "/api/ringcentral/sms",
		strings.NewReader(`{"to":"+15559876543","text":"hello there"}`))
	h.HandleSend(w, r)

	require.Equal(t, http.StatusOK, w.Code)

	var resp struct {
		Success bool            `json:"success"`
		Data    json.RawMessage `json:"data"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	require.True(t, resp.Success)
	require.JSONEq(t, `{"id":"sms-1","messageStatus":"Queued"}`, string(resp.Data))
}

func TestSendSMSValidation(t *testing.T) {
	h := &SMSHandler{FromNumber: "+15551234567", Clients: authedFactory("http://unused")}

	cases := []string{
		`{"to":"+15559876543"}`,
		`{"text":"hi"}`,
		`not json`,
	}
	for _, body := range cases {
		w := httptest.NewRecorder()
		r := httptest.NewRequest(http.MethodPost, "/api/ringcentral/sms", strings.NewReader(body))
		h.HandleSend(w, r)
		require.Equal(t, http.StatusBadRequest, w.Code, "body %q", body)
	}
}

func TestSendSMSWithoutFromNumber(t *testing.T) {
	h := &SMSHandler{Clients: authedFactory("http://unused")}

	w := httptest.NewRecorder()
	r := httptest.NewRequest(http.MethodPost, "/api/ringcentral/sms",
		strings.NewReader(`{"to":"+15559876543","text":"hi"}`))
	h.HandleSend(w, r)

	require.Equal(t, http.StatusInternalServerError, w.Code)
}

func TestListPhoneNumbers(t *testing.T) {
	api := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, epPhoneNumbers, r.URL.Path)
		require.Equal(t, http.MethodGet, r.Method)
		_, _ = w.Write([]byte(`{"records":[{"phoneNumber":"+15551234567","usageType":"DirectNumber"}]}`))
	}))
	defer api.Close()

	h := &PhoneNumbersHandler{Clients: authedFactory(api.URL)}

	w := httptest.NewRecorder()
	r := httptest.NewRequest(http.MethodGet, "/api/ringcentral/phone-numbers", nil)
	h.HandleList(w, r)

	require.Equal(t, http.StatusOK, w.Code)

	var resp struct {
		Success bool            `json:"success"`
		Data    json.RawMessage `json:"data"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	require.True(t, resp.Success)
	require.Contains(t, string(resp.Data), "DirectNumber")
}
