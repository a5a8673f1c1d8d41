package api

import (
	"fmt"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/starford/cradle/internal/apperr"
	"github.com/starford/cradle/internal/models"
)

func metricParam(r *http.Request) (models.Metric, error) {
	raw := chi.URLParam(r, "metric")
	m, ok := models.ParseMetric(raw)
	if !ok {
		return "", fmt.Errorf("%w: unknown metric %q", apperr.ErrInvalid, raw)
	}
	return m, nil
}

// ListGrowth handles GET /api/growth.
func (h *Handler) ListGrowth(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, h.svc.Growth())
}

// SaveGrowth handles PUT /api/growth/{date}.
//
//	@Summary		Record the measurements of one day, replacing any earlier entry
//	@Tags			growth
//	@Accept			json
//	@Param			date	path		string			true	"Day (YYYY-MM-DD)"
//	@Param			body	body		GrowthRequest	true	"Measurements"
//	@Success		200		{object}	models.GrowthRecord
//	@Success		201		{object}	models.GrowthRecord
//	@Failure		400		{object}	errResponse
//	@Security		BearerAuth
//	@Router			/growth/{date} [put]
func (h *Handler) SaveGrowth(w http.ResponseWriter, r *http.Request) {
	d, err := models.ParseDate(chi.URLParam(r, "date"))
	if err != nil {
		writeJSON(w, http.StatusBadRequest, errorBody("date must be YYYY-MM-DD"))
		return
	}
	var req GrowthRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	g := models.GrowthRecord{
		Date:                d,
		HeightCm:            req.HeightCm,
		WeightKg:            req.WeightKg,
		HeadCircumferenceCm: req.HeadCircumferenceCm,
	}
	created, err := h.svc.SaveGrowth(r.Context(), g)
	if err != nil {
		writeError(w, "save growth", err)
		return
	}
	status := http.StatusOK
	if created {
		status = http.StatusCreated
	}
	writeJSON(w, status, g)
}

// Percentile handles GET /api/growth/{metric}/percentile.
func (h *Handler) Percentile(w http.ResponseWriter, r *http.Request) {
	m, err := metricParam(r)
	if err != nil {
		writeError(w, "percentile", err)
		return
	}
	res, err := h.svc.LatestPercentile(m)
	if err != nil {
		writeError(w, "percentile", err)
		return
	}
	writeJSON(w, http.StatusOK, res)
}

// Series handles GET /api/growth/{metric}/series.
func (h *Handler) Series(w http.ResponseWriter, r *http.Request) {
	m, err := metricParam(r)
	if err != nil {
		writeError(w, "series", err)
		return
	}
	maxMonth := 0
	if raw := r.URL.Query().Get("max_month"); raw != "" {
		if maxMonth, err = strconv.Atoi(raw); err != nil {
			writeJSON(w, http.StatusBadRequest, errorBody("max_month must be an integer"))
			return
		}
	}
	pts, err := h.svc.GrowthSeries(m, maxMonth)
	if err != nil {
		writeError(w, "series", err)
		return
	}
	writeJSON(w, http.StatusOK, pts)
}
