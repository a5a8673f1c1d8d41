package analytics

import (
	"errors"
	"fmt"
	"math"

	"github.com/starford/cradle/internal/growth"
	"github.com/starford/cradle/internal/models"
)

var (
	ErrNoMeasurement = errors.New("analytics: no measurement for metric")
	ErrOutOfRange    = errors.New("analytics: age outside reference table")
)

// Band is one of the six ranges delimited by the five thresholds.
type Band string

const (
	BandBelowP3  Band = "<p3"
	BandP3P15    Band = "p3–p15"
	BandP15P50   Band = "p15–p50"
	BandP50P85   Band = "p50–p85"
	BandP85P97   Band = "p85–p97"
	BandAboveP97 Band = ">p97"
)

var bands = [...]Band{BandBelowP3, BandP3P15, BandP15P50, BandP50P85, BandP85P97, BandAboveP97}

// PercentileLabel classifies value against row. A value equal to a
// threshold belongs to the band below it.
func PercentileLabel(value float64, row Row) Band {
	for i, th := range row.Thresholds() {
		if value <= th {
			return bands[i]
		}
	}
	return BandAboveP97
}

// Result is the classification of the most recent measurement.
type Result struct {
	Metric    models.Metric `json:"metric"`
	Date      models.Date   `json:"date"`
	Value     float64       `json:"value"`
	AgeMonths float64       `json:"age_months"`
	Month     int           `json:"month"`
	Band      Band          `json:"band"`
	Reference Row           `json:"reference"`
}

// LatestPercentile classifies the latest-dated record carrying metric
// against the reference row for its age rounded to the nearest month.
func LatestPercentile(records []models.GrowthRecord, metric models.Metric, gender models.Gender, birth models.Date, table *Table) (Result, error) {
	var latest *models.GrowthRecord
	for i := range records {
		r := &records[i]
		if r.Value(metric) == nil {
			continue
		}
		if latest == nil || r.Date.After(latest.Date) {
			latest = r
		}
	}
	if latest == nil {
		return Result{}, fmt.Errorf("%w: %s", ErrNoMeasurement, metric)
	}

	age := growth.AgeInMonthsAt(latest.Date, birth)
	month := int(math.Round(age))
	row, ok := table.Row(gender, metric, month)
	if !ok {
		return Result{}, fmt.Errorf("%w: month %d", ErrOutOfRange, month)
	}
	v := *latest.Value(metric)
	return Result{
		Metric:    metric,
		Date:      latest.Date,
		Value:     v,
		AgeMonths: age,
		Month:     month,
		Band:      PercentileLabel(v, row),
		Reference: row,
	}, nil
}

// Point is one chart row: the reference thresholds for a month plus the
// child's own value when one was measured near that month.
type Point struct {
	Row
	MyValue *float64 `json:"my_value"`
}

// SeriesFor returns one point per reference month up to maxMonth. A record
// contributes to a month when its age rounds to that month and lies within
// half a month of it; the latest such record wins. Nothing is interpolated.
func SeriesFor(table *Table, records []models.GrowthRecord, metric models.Metric, gender models.Gender, birth models.Date, maxMonth int) []Point {
	type match struct {
		date  models.Date
		value float64
	}
	mine := map[int]match{}
	for _, r := range records {
		v := r.Value(metric)
		if v == nil {
			continue
		}
		age := growth.AgeInMonthsAt(r.Date, birth)
		month := int(math.Round(age))
		if math.Abs(age-float64(month)) > 0.5 {
			continue
		}
		if prev, ok := mine[month]; ok && !r.Date.After(prev.date) {
			continue
		}
		mine[month] = match{date: r.Date, value: *v}
	}

	out := []Point{}
	for _, row := range table.Rows(gender, metric) {
		if row.Month > maxMonth {
			break
		}
		p := Point{Row: row}
		if m, ok := mine[row.Month]; ok {
			v := m.value
			p.MyValue = &v
		}
		out = append(out, p)
	}
	return out
}
