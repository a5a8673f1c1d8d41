// Package analytics ranks growth measurements against a percentile
// reference table.
package analytics

import (
	_ "embed"
	"errors"
	"fmt"
	"os"
	"sync"

	validation "github.com/go-ozzo/ozzo-validation/v4"
	"gopkg.in/yaml.v3"

	"github.com/starford/cradle/internal/models"
)

//go:embed reference.yaml
var defaultReference []byte

// Row holds the five thresholds for one month of age.
type Row struct {
	Month int     `json:"month"`
	P3    float64 `json:"p3"`
	P15   float64 `json:"p15"`
	P50   float64 `json:"p50"`
	P85   float64 `json:"p85"`
	P97   float64 `json:"p97"`
}

// Thresholds returns p3, p15, p50, p85, p97 in order.
func (r Row) Thresholds() [5]float64 {
	return [5]float64{r.P3, r.P15, r.P50, r.P85, r.P97}
}

// UnmarshalYAML reads a row written as [month, p3, p15, p50, p85, p97].
func (r *Row) UnmarshalYAML(n *yaml.Node) error {
	var cols []float64
	if err := n.Decode(&cols); err != nil {
		return err
	}
	if len(cols) != 6 {
		return fmt.Errorf("line %d: want 6 columns, got %d", n.Line, len(cols))
	}
	if cols[0] != float64(int(cols[0])) {
		return fmt.Errorf("line %d: month %v is not an integer", n.Line, cols[0])
	}
	*r = Row{Month: int(cols[0]), P3: cols[1], P15: cols[2], P50: cols[3], P85: cols[4], P97: cols[5]}
	return nil
}

// Table is a gender- and metric-specific reference.
type Table struct {
	rows map[models.Gender]map[models.Metric][]Row
}

var loadDefault = sync.OnceValues(func() (*Table, error) { return Load(defaultReference) })

// Default returns the embedded reference table.
func Default() (*Table, error) {
	return loadDefault()
}

// LoadFile reads a custom reference table in the embedded table's format.
func LoadFile(path string) (*Table, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("analytics: read reference: %w", err)
	}
	return Load(data)
}

// Load parses and validates a reference table. Both BOY and GIRL must cover
// every metric with contiguous months from 0 and ascending thresholds.
func Load(data []byte) (*Table, error) {
	var raw map[models.Gender]map[models.Metric][]Row
	if err := yaml.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("analytics: parse reference: %w", err)
	}
	t := &Table{rows: raw}
	if err := t.Validate(); err != nil {
		return nil, fmt.Errorf("analytics: invalid reference: %w", err)
	}
	return t, nil
}

// Validate checks table shape.
func (t *Table) Validate() error {
	var errs []error
	for _, g := range []models.Gender{models.GenderBoy, models.GenderGirl} {
		for _, m := range models.Metrics {
			rows := t.rows[g][m]
			if err := validation.Validate(rows, validation.Required); err != nil {
				errs = append(errs, fmt.Errorf("%s/%s: %w", g, m, err))
				continue
			}
			if err := checkRows(rows); err != nil {
				errs = append(errs, fmt.Errorf("%s/%s: %w", g, m, err))
			}
		}
		if len(t.rows[g][models.MetricWeight]) != len(t.rows[g][models.MetricHeight]) ||
			len(t.rows[g][models.MetricWeight]) != len(t.rows[g][models.MetricHead]) {
			errs = append(errs, fmt.Errorf("%s: metrics cover different month ranges", g))
		}
	}
	if len(t.rows[models.GenderBoy][models.MetricWeight]) != len(t.rows[models.GenderGirl][models.MetricWeight]) {
		errs = append(errs, errors.New("BOY and GIRL cover different month ranges"))
	}
	return errors.Join(errs...)
}

func checkRows(rows []Row) error {
	for i, r := range rows {
		if r.Month != i {
			return fmt.Errorf("row %d: month %d, want %d", i, r.Month, i)
		}
		th := r.Thresholds()
		for j := 1; j < len(th); j++ {
			if th[j] <= th[j-1] {
				return fmt.Errorf("month %d: thresholds not ascending", r.Month)
			}
		}
	}
	return nil
}

// Rows returns the reference rows for gender and metric. OTHER is the
// element-wise mean of the BOY and GIRL rows.
func (t *Table) Rows(g models.Gender, m models.Metric) []Row {
	if g != models.GenderOther {
		return t.rows[g][m]
	}
	boy, girl := t.rows[models.GenderBoy][m], t.rows[models.GenderGirl][m]
	out := make([]Row, min(len(boy), len(girl)))
	for i := range out {
		b, gl := boy[i], girl[i]
		out[i] = Row{
			Month: b.Month,
			P3:    (b.P3 + gl.P3) / 2,
			P15:   (b.P15 + gl.P15) / 2,
			P50:   (b.P50 + gl.P50) / 2,
			P85:   (b.P85 + gl.P85) / 2,
			P97:   (b.P97 + gl.P97) / 2,
		}
	}
	return out
}

// Row returns the row for an exact month.
func (t *Table) Row(g models.Gender, m models.Metric, month int) (Row, bool) {
	rows := t.Rows(g, m)
	if month < 0 || month >= len(rows) {
		return Row{}, false
	}
	return rows[month], true
}

// MaxMonth returns the last month the table covers.
func (t *Table) MaxMonth() int {
	return len(t.rows[models.GenderBoy][models.MetricWeight]) - 1
}
