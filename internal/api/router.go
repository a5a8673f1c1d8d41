package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/starford/cradle/internal/tracker"
)

// NewRouter creates a chi router with all API routes mounted.
// sseHandler, if non-nil, is served at GET /events behind the same auth.
func NewRouter(svc *tracker.Service, authEnabled bool, token string, sseHandler http.Handler) chi.Router {
	h := NewHandler(svc)

	r := chi.NewRouter()
	r.Use(AuthMiddleware(authEnabled, token))

	r.Route("/profile", func(r chi.Router) {
		r.Get("/", h.GetProfile)
		r.Post("/", h.Onboard)
		r.Patch("/", h.UpdateProfile)
		r.Delete("/", h.Logout)
	})
	r.Get("/home", h.GetHome)

	r.Route("/records", func(r chi.Router) {
		r.Get("/", h.ListRecords)
		r.Post("/", h.SaveRecord)
		r.Post("/quick", h.QuickAdd)
		r.Get("/{id}", h.GetRecord)
		r.Put("/{id}", h.SaveRecord)
	})

	r.Get("/timeline/day", h.DayTimeline)
	r.Get("/timeline/week", h.WeekPattern)
	r.Get("/stats/daily", h.DailyStats)

	r.Route("/growth", func(r chi.Router) {
		r.Get("/", h.ListGrowth)
		r.Put("/{date}", h.SaveGrowth)
		r.Get("/{metric}/percentile", h.Percentile)
		r.Get("/{metric}/series", h.Series)
	})

	r.Route("/feeding", func(r chi.Router) {
		r.Get("/", h.GetFeeding)
		r.Post("/", h.OpenFeeding)
		r.Delete("/", h.CancelFeeding)
		r.Post("/side", h.SelectSide)
		r.Post("/stop", h.StopFeeding)
	})

	r.Get("/diaries", h.ListDiaries)
	r.Post("/diaries", h.WriteDiary)

	r.Post("/scan", h.ScanStool)

	if sseHandler != nil {
		r.Get("/events", sseHandler.ServeHTTP)
	}

	return r
}
