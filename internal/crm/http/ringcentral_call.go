package http

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/agentictinkering/brokerd/pkg/httpx"
	"github.com/agentictinkering/brokerd/pkg/rcsdk"
	"github.com/agentictinkering/brokerd/pkg/slogx"
)

// CallHandler places outbound RingOut calls and reports on their status.
type CallHandler struct {
	FromNumber string
	Clients    rcClientFactory
}

type placeCallRequest struct {
	To string `json:"to"`
}

// HandlePlace godoc
//
//	@Summary		Place an outbound call
//	@Description	Starts a RingOut call from the organization's configured number to the given destination
//	@Tags			Telephony
//	@Accept			json
//	@Produce		json
//	@Param			request	body		placeCallRequest	true	"destination number"
//	@Success		200		{object}	map[string]any
//	@Failure		400		{object}	map[string]any
//	@Failure		401		{object}	map[string]any
//	@Router			/api/ringcentral/call [post]
func (h *CallHandler) HandlePlace(w http.ResponseWriter, r *http.Request) {
	var req placeCallRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.To == "" {
		httpx.WriteJSONError(w, http.StatusBadRequest, `"to" is required`)
		return
	}

	if h.FromNumber == "" {
		httpx.WriteJSONError(w, http.StatusInternalServerError, "outbound number is not configured")
		return
	}

	client := h.Clients(r)
	payload := map[string]any{
		"from":       map[string]string{"phoneNumber": h.FromNumber},
		"to":         map[string]string{"phoneNumber": req.To},
		"playPrompt": false,
	}

	result, err := client.Post(r.Context(), epRingOut, payload)
	if err != nil {
		slogx.FromContext(r.Context()).Warn("ring-out failed", "error", err, "to", req.To)
		writeProviderError(w, err)
		return
	}

	httpx.WriteJSON(w, http.StatusOK, map[string]any{"success": true, "data": result})
}

// HandleStatus godoc
//
//	@Summary		Check call status
//	@Description	Looks up a RingOut call by callId or a telephony session by ringSessionId.
//	@Description	A 404 from the provider means the call already ended and is reported as callStatus NotFound, not as an error
//	@Tags			Telephony
//	@Produce		json
//	@Param			callId			query		string	false	"RingOut call id"
//	@Param			ringSessionId	query		string	false	"telephony session id"
//	@Success		200				{object}	map[string]any
//	@Failure		400				{object}	map[string]any
//	@Router			/api/ringcentral/call-status [get]
func (h *CallHandler) HandleStatus(w http.ResponseWriter, r *http.Request) {
	callID := r.URL.Query().Get("callId")
	sessionID := r.URL.Query().Get("ringSessionId")
	if callID == "" && sessionID == "" {
		httpx.WriteJSONError(w, http.StatusBadRequest, "callId or ringSessionId is required")
		return
	}

	endpoint := epRingOutCall(callID)
	if sessionID != "" {
		endpoint = epTelephonySession(sessionID)
	}

	client := h.Clients(r)
	result, err := client.Get(r.Context(), endpoint)
	if err != nil {
		// RingOut records are cleaned up once the call ends; a missing
		// resource is a terminal state, not a failure.
		var pe *rcsdk.ProviderError
		if errors.As(err, &pe) && pe.Kind == rcsdk.KindRequestFailed && pe.StatusCode == http.StatusNotFound {
			httpx.WriteJSON(w, http.StatusOK, map[string]any{
				"success": true,
				"data": map[string]any{
					"callStatus": "NotFound",
					"message":    "Call has ended or resource was not found",
				},
			})
			return
		}
		writeProviderError(w, err)
		return
	}

	httpx.WriteJSON(w, http.StatusOK, map[string]any{"success": true, "data": result})
}

// HandleEnd godoc
//
//	@Summary		End an active call
//	@Description	Cancels a RingOut call or drops a telephony session
//	@Tags			Telephony
//	@Produce		json
//	@Param			callId			query		string	false	"RingOut call id"
//	@Param			ringSessionId	query		string	false	"telephony session id"
//	@Success		200				{object}	map[string]any
//	@Failure		400				{object}	map[string]any
//	@Router			/api/ringcentral/end-call [delete]
func (h *CallHandler) HandleEnd(w http.ResponseWriter, r *http.Request) {
	callID := r.URL.Query().Get("callId")
	sessionID := r.URL.Query().Get("ringSessionId")
	if callID == "" && sessionID == "" {
		httpx.WriteJSONError(w, http.StatusBadRequest, "callId or ringSessionId is required")
		return
	}

	endpoint := epRingOutCall(callID)
	if sessionID != "" {
		endpoint = epTelephonySession(sessionID)
	}

	client := h.Clients(r)
	result, err := client.Delete(r.Context(), endpoint)
	if err != nil {
		writeProviderError(w, err)
		return
	}

	httpx.WriteJSON(w, http.StatusOK, map[string]any{"success": true, "data": result})
}
