package api

import (
	"fmt"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/starford/cradle/internal/apperr"
	"github.com/starford/cradle/internal/models"
	"github.com/starford/cradle/internal/tracker"
)

// Handler holds API route handlers.
type Handler struct {
	svc *tracker.Service
}

// NewHandler creates a new Handler.
func NewHandler(svc *tracker.Service) *Handler {
	return &Handler{svc: svc}
}

// dateParam reads ?date=YYYY-MM-DD, defaulting to today.
func (h *Handler) dateParam(r *http.Request) (models.Date, error) {
	raw := r.URL.Query().Get("date")
	if raw == "" {
		return h.svc.Today(), nil
	}
	d, err := models.ParseDate(raw)
	if err != nil {
		return models.Date{}, fmt.Errorf("%w: date: %w", apperr.ErrInvalid, err)
	}
	return d, nil
}

// ListRecords handles GET /api/records.
//
//	@Summary		List records, newest first, or the records of one day
//	@Tags			records
//	@Produce		json
//	@Param			date	query		string	false	"Day (YYYY-MM-DD)"
//	@Param			limit	query		int		false	"Max records"
//	@Success		200		{array}		models.CareRecord
//	@Security		BearerAuth
//	@Router			/records [get]
func (h *Handler) ListRecords(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	if q.Get("date") != "" {
		d, err := h.dateParam(r)
		if err != nil {
			writeError(w, "list records", err)
			return
		}
		writeJSON(w, http.StatusOK, h.svc.RecordsOn(d))
		return
	}
	limit := -1
	if raw := q.Get("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 0 {
			writeJSON(w, http.StatusBadRequest, errorBody("limit must be a non-negative integer"))
			return
		}
		limit = n
	}
	writeJSON(w, http.StatusOK, h.svc.Records(limit))
}

// GetRecord handles GET /api/records/{id}.
func (h *Handler) GetRecord(w http.ResponseWriter, r *http.Request) {
	rec, err := h.svc.Record(chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, "get record", err)
		return
	}
	writeJSON(w, http.StatusOK, rec)
}

// SaveRecord handles POST /api/records and PUT /api/records/{id}.
//
//	@Summary		Create a record or replace one by id
//	@Tags			records
//	@Accept			json
//	@Produce		json
//	@Param			body	body		RecordRequest	true	"Record"
//	@Success		200		{object}	RecordResponse
//	@Success		201		{object}	RecordResponse
//	@Failure		400		{object}	errResponse
//	@Security		BearerAuth
//	@Router			/records [post]
func (h *Handler) SaveRecord(w http.ResponseWriter, r *http.Request) {
	var req RecordRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	if id := chi.URLParam(r, "id"); id != "" {
		if req.ID != "" && req.ID != id {
			writeJSON(w, http.StatusBadRequest, errorBody("id in body does not match path"))
			return
		}
		req.ID = id
	}
	rec, created, err := h.svc.SaveRecord(r.Context(), req.record())
	if err != nil {
		writeError(w, "save record", err)
		return
	}
	status := http.StatusOK
	if created {
		status = http.StatusCreated
	}
	writeJSON(w, status, RecordResponse{Record: rec, Created: created})
}

// QuickAdd handles POST /api/records/quick.
func (h *Handler) QuickAdd(w http.ResponseWriter, r *http.Request) {
	var req QuickAddRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	rec, err := h.svc.QuickAdd(r.Context(), req.Kind, req.Subtype)
	if err != nil {
		writeError(w, "quick add", err)
		return
	}
	writeJSON(w, http.StatusCreated, rec)
}

// DayTimeline handles GET /api/timeline/day.
func (h *Handler) DayTimeline(w http.ResponseWriter, r *http.Request) {
	d, err := h.dateParam(r)
	if err != nil {
		writeError(w, "day timeline", err)
		return
	}
	writeJSON(w, http.StatusOK, h.svc.DayTimeline(d))
}

// WeekPattern handles GET /api/timeline/week.
//
//	@Summary		Monday-Sunday 24-hour pattern containing date
//	@Tags			timeline
//	@Produce		json
//	@Param			date	query		string	false	"Any day of the week (YYYY-MM-DD)"
//	@Success		200		{object}	timeline.WeekPattern
//	@Security		BearerAuth
//	@Router			/timeline/week [get]
func (h *Handler) WeekPattern(w http.ResponseWriter, r *http.Request) {
	d, err := h.dateParam(r)
	if err != nil {
		writeError(w, "week pattern", err)
		return
	}
	writeJSON(w, http.StatusOK, h.svc.WeekPattern(d))
}

// DailyStats handles GET /api/stats/daily.
func (h *Handler) DailyStats(w http.ResponseWriter, r *http.Request) {
	d, err := h.dateParam(r)
	if err != nil {
		writeError(w, "daily stats", err)
		return
	}
	writeJSON(w, http.StatusOK, h.svc.DailyStats(d))
}
