package models

import validation "github.com/go-ozzo/ozzo-validation/v4"

// Metric names a tracked growth measurement.
type Metric string

const (
	MetricHeight Metric = "height"
	MetricWeight Metric = "weight"
	MetricHead   Metric = "head"
)

// Metrics lists every tracked metric.
var Metrics = []Metric{MetricHeight, MetricWeight, MetricHead}

// ParseMetric validates a metric name.
func ParseMetric(s string) (Metric, bool) {
	for _, m := range Metrics {
		if string(m) == s {
			return m, true
		}
	}
	return "", false
}

// GrowthRecord is one growth snapshot, keyed by its calendar date.
type GrowthRecord struct {
	Date                Date     `json:"date"`
	HeightCm            *float64 `json:"height_cm,omitempty"`
	WeightKg            *float64 `json:"weight_kg,omitempty"`
	HeadCircumferenceCm *float64 `json:"head_circumference_cm,omitempty"`
}

// Value returns the measurement for m, or nil.
func (g GrowthRecord) Value(m Metric) *float64 {
	switch m {
	case MetricHeight:
		return g.HeightCm
	case MetricWeight:
		return g.WeightKg
	case MetricHead:
		return g.HeadCircumferenceCm
	}
	return nil
}

// Validate validates the growth record.
func (g GrowthRecord) Validate() error {
	return validation.ValidateStruct(&g,
		validation.Field(&g.Date, validation.By(func(any) error {
			if g.Date.IsZero() {
				return validation.ErrRequired
			}
			return nil
		})),
		validation.Field(&g.HeightCm, validation.Min(0.0)),
		validation.Field(&g.WeightKg, validation.Min(0.0)),
		validation.Field(&g.HeadCircumferenceCm, validation.Min(0.0)),
	)
}
