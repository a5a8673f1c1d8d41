package api

import "net/http"

// WriteDiary handles POST /api/diaries.
func (h *Handler) WriteDiary(w http.ResponseWriter, r *http.Request) {
	var req DiaryRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	d, err := h.svc.WriteDiary(r.Context(), req.Text)
	if err != nil {
		writeError(w, "write diary", err)
		return
	}
	writeJSON(w, http.StatusCreated, d)
}

// ListDiaries handles GET /api/diaries.
func (h *Handler) ListDiaries(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, h.svc.Diaries())
}
