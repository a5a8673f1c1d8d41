// Package timeline places care records on 24-hour day columns and derives
// the weekly pattern and daily statistics.
package timeline

import (
	"slices"
	"time"

	"github.com/starford/cradle/internal/models"
)

// Placement is a record positioned within one day column. Start and End are
// fractions of the day in [0, 1].
type Placement struct {
	Record    models.CareRecord `json:"record"`
	Start     float64           `json:"start"`
	End       float64           `json:"end"`
	Point     bool              `json:"point"`
	Open      bool              `json:"open,omitempty"`
	Anomalous bool              `json:"anomalous,omitempty"`
}

// Column is one day of placements, ordered by start.
type Column struct {
	Date    models.Date `json:"date"`
	Entries []Placement `json:"entries"`
}

// WeekPattern is seven day columns, Monday first.
type WeekPattern struct {
	Start models.Date `json:"start"`
	End   models.Date `json:"end"`
	Days  []Column    `json:"days"`
}

// startOfDay returns midnight of t's calendar day in t's location.
func startOfDay(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, t.Location())
}

// WeekRange returns midnight of the Monday and of the Sunday of anchor's week.
func WeekRange(anchor time.Time) (monday, sunday time.Time) {
	day := startOfDay(anchor)
	offset := (int(day.Weekday()) + 6) % 7 // Monday=0 ... Sunday=6
	monday = day.AddDate(0, 0, -offset)
	return monday, monday.AddDate(0, 0, 6)
}

// FilterByDate returns the records starting on day's date in day's location.
func FilterByDate(records []models.CareRecord, day time.Time) []models.CareRecord {
	out := []models.CareRecord{}
	for _, r := range records {
		if r.StartsOn(day) {
			out = append(out, r)
		}
	}
	return out
}

// FilterByWeek returns the records starting within anchor's Monday-Sunday week.
func FilterByWeek(records []models.CareRecord, anchor time.Time) []models.CareRecord {
	monday, sunday := WeekRange(anchor)
	from, to := models.DateOf(monday), models.DateOf(sunday)
	out := []models.CareRecord{}
	for _, r := range records {
		d := models.DateOf(r.StartTime.In(anchor.Location()))
		if !d.Before(from) && !d.After(to) {
			out = append(out, r)
		}
	}
	return out
}

// PositionOf returns the fraction of the day elapsed at t, with minute
// resolution: (hour + minute/60) / 24.
func PositionOf(t time.Time) float64 {
	return (float64(t.Hour()) + float64(t.Minute())/60) / 24
}

// SpanOf positions r in day's column. Interval records span from start to
// end; an open interval, or one ending on a later day, runs to the end of the
// column. The record is not modified.
func SpanOf(r models.CareRecord, day time.Time) Placement {
	loc := day.Location()
	start := r.StartTime.In(loc)
	p := Placement{
		Record:    r,
		Start:     PositionOf(start),
		Anomalous: r.Anomalous(),
	}
	p.End = p.Start

	if !r.Kind.Interval() {
		p.Point = true
		return p
	}
	switch {
	case r.EndTime == nil:
		p.Open = true
		p.End = 1
	case p.Anomalous:
		// Leave zero-width; consumers check the flag.
	case models.DateOf(r.EndTime.In(loc)).After(models.DateOf(start)):
		p.End = 1
	default:
		p.End = PositionOf(r.EndTime.In(loc))
	}
	return p
}

// Day places the records starting on day.
func Day(records []models.CareRecord, day time.Time) Column {
	col := Column{Date: models.DateOf(day), Entries: []Placement{}}
	for _, r := range FilterByDate(records, day) {
		col.Entries = append(col.Entries, SpanOf(r, day))
	}
	slices.SortStableFunc(col.Entries, func(a, b Placement) int {
		return a.Record.StartTime.Compare(b.Record.StartTime)
	})
	return col
}

// Week builds the seven columns of anchor's week.
func Week(records []models.CareRecord, anchor time.Time) WeekPattern {
	monday, sunday := WeekRange(anchor)
	inWeek := FilterByWeek(records, anchor)
	w := WeekPattern{
		Start: models.DateOf(monday),
		End:   models.DateOf(sunday),
		Days:  make([]Column, 0, 7),
	}
	for i := range 7 {
		w.Days = append(w.Days, Day(inWeek, monday.AddDate(0, 0, i)))
	}
	return w
}
