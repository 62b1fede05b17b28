package handler

import (
	"net/http"

	id "promisetracker/pkg/domain"
	"promisetracker/pkg/platform/httputil"
)

// HandleAnalytics handles GET /analytics?party=<id>.
func (h *Handler) HandleAnalytics(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	var partyID *id.PartyID
	if raw := r.URL.Query().Get("party"); raw != "" {
		parsed, err := id.ParsePartyID(raw)
		if err != nil {
			httputil.WriteError(w, err)
			return
		}
		partyID = &parsed
	}
	records, err := h.AnalyticsReader.Analytics(ctx, partyID)
	if err != nil {
		h.fail(ctx, w, "compute analytics", err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, records)
}
