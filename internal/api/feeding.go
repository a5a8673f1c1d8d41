package api

import "net/http"

// OpenFeeding handles POST /api/feeding.
func (h *Handler) OpenFeeding(w http.ResponseWriter, r *http.Request) {
	var req OpenFeedingRequest
	if r.ContentLength != 0 && !decodeJSON(w, r, &req) {
		return
	}
	snap, err := h.svc.OpenFeedSession(r.Context(), req.RecordID, req.Note)
	if err != nil {
		writeError(w, "open feeding", err)
		return
	}
	writeJSON(w, http.StatusCreated, snap)
}

// GetFeeding handles GET /api/feeding.
func (h *Handler) GetFeeding(w http.ResponseWriter, _ *http.Request) {
	snap, err := h.svc.FeedSession()
	if err != nil {
		writeError(w, "get feeding", err)
		return
	}
	writeJSON(w, http.StatusOK, snap)
}

// SelectSide handles POST /api/feeding/side.
func (h *Handler) SelectSide(w http.ResponseWriter, r *http.Request) {
	var req SideRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	snap, err := h.svc.SelectSide(req.Side)
	if err != nil {
		writeError(w, "select side", err)
		return
	}
	writeJSON(w, http.StatusOK, snap)
}

// StopFeeding handles POST /api/feeding/stop.
func (h *Handler) StopFeeding(w http.ResponseWriter, r *http.Request) {
	res, err := h.svc.StopFeedSession(r.Context())
	if err != nil {
		writeError(w, "stop feeding", err)
		return
	}
	writeJSON(w, http.StatusOK, res)
}

// CancelFeeding handles DELETE /api/feeding.
func (h *Handler) CancelFeeding(w http.ResponseWriter, _ *http.Request) {
	if err := h.svc.CancelFeedSession(); err != nil {
		writeError(w, "cancel feeding", err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
