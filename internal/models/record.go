// Package models defines the domain types for cradle.
package models

import (
	"time"

	validation "github.com/go-ozzo/ozzo-validation/v4"
)

// Kind is the closed set of care-event kinds.
type Kind string

const (
	KindSleep       Kind = "SLEEP"
	KindFeed        Kind = "FEED"
	KindElimination Kind = "ELIMINATION"
	KindBath        Kind = "BATH"
)

// Interval reports whether records of this kind span a start and an end.
func (k Kind) Interval() bool {
	return k == KindSleep || k == KindBath
}

// FeedType distinguishes the feeding payloads.
type FeedType string

const (
	FeedBreast  FeedType = "BREAST"
	FeedFormula FeedType = "FORMULA"
	FeedSolid   FeedType = "SOLID"
)

// Unit is the unit a feeding amount is expressed in.
type Unit string

const (
	UnitMinutes     Unit = "min"
	UnitMilliliters Unit = "ml"
	UnitGrams       Unit = "g"
)

// EliminationType distinguishes urine from stool.
type EliminationType string

const (
	EliminationUrine EliminationType = "URINE"
	EliminationStool EliminationType = "STOOL"
)

// Feed is the FEED payload. Amount is in Unit().
type Feed struct {
	Type   FeedType `json:"type"`
	Amount *float64 `json:"amount,omitempty"`
}

// Unit returns the unit implied by the feed type.
func (f Feed) Unit() Unit {
	switch f.Type {
	case FeedBreast:
		return UnitMinutes
	case FeedFormula:
		return UnitMilliliters
	default:
		return UnitGrams
	}
}

// Validate validates the feed payload.
func (f Feed) Validate() error {
	return validation.ValidateStruct(&f,
		validation.Field(&f.Type, validation.Required, validation.In(FeedBreast, FeedFormula, FeedSolid)),
		validation.Field(&f.Amount, validation.Min(0.0)),
	)
}

// Elimination is the ELIMINATION payload.
type Elimination struct {
	Type EliminationType `json:"type"`
}

// Validate validates the elimination payload.
func (e Elimination) Validate() error {
	return validation.ValidateStruct(&e,
		validation.Field(&e.Type, validation.Required, validation.In(EliminationUrine, EliminationStool)),
	)
}

// CareRecord is one discrete or interval care event.
//
// Exactly one of Feed / Elimination is set for FEED / ELIMINATION records;
// SLEEP and BATH carry neither.
type CareRecord struct {
	ID          string       `json:"id"`
	Kind        Kind         `json:"kind"`
	StartTime   time.Time    `json:"start_time"`
	EndTime     *time.Time   `json:"end_time,omitempty"`
	Feed        *Feed        `json:"feed,omitempty"`
	Elimination *Elimination `json:"elimination,omitempty"`
	Note        string       `json:"note,omitempty"`
	CreatedAt   time.Time    `json:"created_at"`
}

// Validate checks the kind and that the payload matches it.
// End-before-start is not a validation error; see Anomalous.
func (r CareRecord) Validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(&r.Kind, validation.Required, validation.In(KindSleep, KindFeed, KindElimination, KindBath)),
		validation.Field(&r.StartTime, validation.Required),
		validation.Field(&r.Feed, validation.When(r.Kind == KindFeed, validation.Required).Else(validation.Nil)),
		validation.Field(&r.Elimination, validation.When(r.Kind == KindElimination, validation.Required).Else(validation.Nil)),
	)
}

// Open reports whether an interval record has not ended yet.
func (r CareRecord) Open() bool {
	return r.Kind.Interval() && r.EndTime == nil
}

// Anomalous reports whether the record ends before it starts.
func (r CareRecord) Anomalous() bool {
	return r.EndTime != nil && r.EndTime.Before(r.StartTime)
}

// Duration returns the elapsed interval. ok is false for open or anomalous records.
func (r CareRecord) Duration() (d time.Duration, ok bool) {
	if r.EndTime == nil || r.Anomalous() {
		return 0, false
	}
	return r.EndTime.Sub(r.StartTime), true
}

// StartsOn reports whether StartTime, read in day's location, falls on day.
func (r CareRecord) StartsOn(day time.Time) bool {
	return DateOf(r.StartTime.In(day.Location())) == DateOf(day)
}

// Clone returns a deep copy so callers cannot mutate stored state.
func (r CareRecord) Clone() CareRecord {
	out := r
	if r.EndTime != nil {
		t := *r.EndTime
		out.EndTime = &t
	}
	if r.Feed != nil {
		f := *r.Feed
		if r.Feed.Amount != nil {
			a := *r.Feed.Amount
			f.Amount = &a
		}
		out.Feed = &f
	}
	if r.Elimination != nil {
		e := *r.Elimination
		out.Elimination = &e
	}
	return out
}
