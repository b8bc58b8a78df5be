package http

import (
	"encoding/json"
	"net/http"

	"github.com/agentictinkering/brokerd/pkg/httpx"
	"github.com/agentictinkering/brokerd/pkg/slogx"
)

// SMSHandler sends outbound text messages from the organization's number.
type SMSHandler struct {
	FromNumber string
	Clients    rcClientFactory
}

type sendSMSRequest struct {
	To   string `json:"to"`
	Text string `json:"text"`
}

// HandleSend godoc
//
//	@Summary		Send an SMS
//	@Tags			Telephony
//	@Accept			json
//	@Produce		json
//	@Param			request	body		sendSMSRequest	true	"destination and message text"
//	@Success		200		{object}	map[string]any
//	@Failure		400		{object}	map[string]any
//	@Failure		401		{object}	map[string]any
//	@Router			/api/ringcentral/sms [post]
func (h *SMSHandler) HandleSend(w http.ResponseWriter, r *http.Request) {
	var req sendSMSRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.To == "" || req.Text == "" {
		httpx.WriteJSONError(w, http.StatusBadRequest, `"to" and "text" are required`)
		return
	}

	if h.FromNumber == "" {
		httpx.WriteJSONError(w, http.StatusInternalServerError, "outbound number is not configured")
		return
	}

	client := h.Clients(r)
	payload := map[string]any{
		"from": map[string]string{"phoneNumber": h.FromNumber},
		"to":   []map[string]string{{"phoneNumber": req.To}},
		"text": req.Text,
	}

	result, err := client.Post(r.Context(), epSMS, payload)
	if err != nil {
		slogx.FromContext(r.Context()).Warn("sms send failed", "error", err, "to", req.To)
		writeProviderError(w, err)
		return
	}

	httpx.WriteJSON(w, http.StatusOK, map[string]any{"success": true, "data": result})
}
