package api

import (
	"time"

	"github.com/starford/cradle/internal/models"
	"github.com/starford/cradle/internal/timer"
)

// QuickAddRequest is the body of POST /records/quick.
type QuickAddRequest struct {
	Kind    models.Kind `json:"kind" example:"FEED"`
	Subtype string      `json:"subtype,omitempty" example:"FORMULA"`
}

// RecordRequest is the body of POST /records and PUT /records/{id}.
type RecordRequest struct {
	ID          string              `json:"id,omitempty"`
	Kind        models.Kind         `json:"kind" example:"SLEEP"`
	StartTime   time.Time           `json:"start_time"`
	EndTime     *time.Time          `json:"end_time,omitempty"`
	Feed        *models.Feed        `json:"feed,omitempty"`
	Elimination *models.Elimination `json:"elimination,omitempty"`
	Note        string              `json:"note,omitempty"`
}

func (r RecordRequest) record() models.CareRecord {
	return models.CareRecord{
		ID:          r.ID,
		Kind:        r.Kind,
		StartTime:   r.StartTime,
		EndTime:     r.EndTime,
		Feed:        r.Feed,
		Elimination: r.Elimination,
		Note:        r.Note,
	}
}

// RecordResponse wraps a saved record.
type RecordResponse struct {
	Record  models.CareRecord `json:"record"`
	Created bool              `json:"created"`
}

// GrowthRequest is the body of PUT /growth/{date}.
type GrowthRequest struct {
	HeightCm            *float64 `json:"height_cm,omitempty" example:"67.5"`
	WeightKg            *float64 `json:"weight_kg,omitempty" example:"7.2"`
	HeadCircumferenceCm *float64 `json:"head_circumference_cm,omitempty" example:"43.1"`
}

// OpenFeedingRequest is the body of POST /feeding.
type OpenFeedingRequest struct {
	RecordID string `json:"record_id,omitempty"`
	Note     string `json:"note,omitempty"`
}

// SideRequest is the body of POST /feeding/side.
type SideRequest struct {
	Side timer.Side `json:"side" example:"LEFT"`
}

// DiaryRequest is the body of POST /diaries.
type DiaryRequest struct {
	Text string `json:"text" example:"You slept so well today"`
}
