package api

import (
	"net/http"

	"github.com/starford/cradle/internal/models"
)

// GetProfile handles GET /api/profile.
func (h *Handler) GetProfile(w http.ResponseWriter, _ *http.Request) {
	p, err := h.svc.Profile()
	if err != nil {
		writeError(w, "get profile", err)
		return
	}
	writeJSON(w, http.StatusOK, p)
}

// Onboard handles POST /api/profile.
func (h *Handler) Onboard(w http.ResponseWriter, r *http.Request) {
	var p models.Profile
	if !decodeJSON(w, r, &p) {
		return
	}
	out, err := h.svc.Onboard(r.Context(), p)
	if err != nil {
		writeError(w, "onboard", err)
		return
	}
	writeJSON(w, http.StatusCreated, out)
}

// UpdateProfile handles PATCH /api/profile.
func (h *Handler) UpdateProfile(w http.ResponseWriter, r *http.Request) {
	var patch models.ProfilePatch
	if !decodeJSON(w, r, &patch) {
		return
	}
	out, err := h.svc.UpdateProfile(r.Context(), patch)
	if err != nil {
		writeError(w, "update profile", err)
		return
	}
	writeJSON(w, http.StatusOK, out)
}

// Logout handles DELETE /api/profile. Every record, measurement and diary
// entry goes with it.
func (h *Handler) Logout(w http.ResponseWriter, r *http.Request) {
	if err := h.svc.Logout(r.Context()); err != nil {
		writeError(w, "logout", err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// GetHome handles GET /api/home.
func (h *Handler) GetHome(w http.ResponseWriter, r *http.Request) {
	date, err := h.dateParam(r)
	if err != nil {
		writeError(w, "home", err)
		return
	}
	out, err := h.svc.Home(date)
	if err != nil {
		writeError(w, "home", err)
		return
	}
	writeJSON(w, http.StatusOK, out)
}
