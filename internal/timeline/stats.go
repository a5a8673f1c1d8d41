package timeline

import (
	"math"
	"time"

	"github.com/starford/cradle/internal/models"
)

// Stats summarises one day.
type Stats struct {
	Date         models.Date `json:"date"`
	SleepHours   float64     `json:"sleep_hours"`
	Feeds        int         `json:"feeds"`
	FeedMinutes  float64     `json:"feed_minutes"`
	FeedMl       float64     `json:"feed_ml"`
	Eliminations int         `json:"eliminations"`
	Urine        int         `json:"urine"`
	Stool        int         `json:"stool"`
	Baths        int         `json:"baths"`
	Anomalous    int         `json:"anomalous"`
}

// DailyStats counts the records starting on day. Sleep hours only include
// completed, non-anomalous sleeps and are rounded to one decimal.
func DailyStats(records []models.CareRecord, day time.Time) Stats {
	st := Stats{Date: models.DateOf(day)}
	var sleep time.Duration
	for _, r := range FilterByDate(records, day) {
		if r.Anomalous() {
			st.Anomalous++
		}
		switch r.Kind {
		case models.KindSleep:
			if d, ok := r.Duration(); ok {
				sleep += d
			}
		case models.KindFeed:
			st.Feeds++
			if r.Feed != nil && r.Feed.Amount != nil {
				switch r.Feed.Unit() {
				case models.UnitMinutes:
					st.FeedMinutes += *r.Feed.Amount
				case models.UnitMilliliters:
					st.FeedMl += *r.Feed.Amount
				}
			}
		case models.KindElimination:
			st.Eliminations++
			if r.Elimination != nil && r.Elimination.Type == models.EliminationStool {
				st.Stool++
			} else {
				st.Urine++
			}
		case models.KindBath:
			st.Baths++
		}
	}
	st.SleepHours = math.Round(sleep.Hours()*10) / 10
	return st
}
