package domain

import (
	"time"
)

// RawObservation is one row as returned by the Socrata endpoint. All fields
// arrive as strings; any additional columns in the response are ignored.
type RawObservation struct {
	Variant      string `json:"variant"`
	WeekEnding   string `json:"week_ending"`
	CreationDate string `json:"creation_date"`
	Share        string `json:"share"`
}

// Observation is one normalized weekly measurement: the share of sequenced
// cases attributed to a variant in the week ending at WeekEnding.
type Observation struct {
	Variant      string    `json:"variant" validate:"required"`
	WeekEnding   time.Time `json:"week_ending"`
	CreationDate time.Time `json:"creation_date"`
	Share        float64   `json:"share" validate:"min=0,max=1"`
}

// FilteredObservation is an observation that survived filtering, with the
// share rescaled from a fraction to a percentage.
type FilteredObservation struct {
	Variant    string    `json:"variant"`
	WeekEnding time.Time `json:"week_ending"`
	SharePct   float64   `json:"share_pct"`
}

// DateRange restricts observations by week-ending date. Both bounds are
// inclusive. Start after End is allowed and matches nothing.
type DateRange struct {
	Start time.Time `json:"start"`
	End   time.Time `json:"end"`
}

// Contains reports whether t falls within the range, bounds included.
func (r DateRange) Contains(t time.Time) bool {
	return !t.Before(r.Start) && !t.After(r.End)
}
