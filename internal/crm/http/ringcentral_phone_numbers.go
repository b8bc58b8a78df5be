package http

import (
	"net/http"

	"github.com/agentictinkering/brokerd/pkg/httpx"
)

// PhoneNumbersHandler lists the numbers available on the connected account.
type PhoneNumbersHandler struct {
	Clients rcClientFactory
}

// HandleList godoc
//
//	@Summary	List account phone numbers
//	@Tags		Telephony
//	@Produce	json
//	@Success	200	{object}	map[string]any
//	@Failure	401	{object}	map[string]any
//	@Router		/api/ringcentral/phone-numbers [get]
func (h *PhoneNumbersHandler) HandleList(w http.ResponseWriter, r *http.Request) {
	client := h.Clients(r)
	result, err := client.Get(r.Context(), epPhoneNumbers)
	if err != nil {
		writeProviderError(w, err)
		return
	}
	httpx.WriteJSON(w, http.StatusOK, map[string]any{"success": true, "data": result})
}
