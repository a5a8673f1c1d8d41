package ml

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/starford/cradle/internal/models"
)

// SummarizeRecords renders records as "KIND: value" joined by ", ".
func SummarizeRecords(recs []models.CareRecord) string {
	parts := make([]string, 0, len(recs))
	for _, r := range recs {
		parts = append(parts, fmt.Sprintf("%s: %s", r.Kind, recordValue(r)))
	}
	return strings.Join(parts, ", ")
}

func recordValue(r models.CareRecord) string {
	switch {
	case r.Feed != nil && r.Feed.Amount != nil:
		return strconv.FormatFloat(*r.Feed.Amount, 'f', -1, 64) + string(r.Feed.Unit())
	case r.Feed != nil:
		return string(r.Feed.Type)
	case r.Elimination != nil:
		return string(r.Elimination.Type)
	}
	if d, ok := r.Duration(); ok {
		return fmt.Sprintf("%dmin", int(d.Minutes()))
	}
	return ""
}
