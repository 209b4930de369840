package domain

import (
	"time"
)

// EmptyResultReason is the human-readable explanation attached to a result
// that matched no observations. The presentation layer renders it verbatim.
const EmptyResultReason = "no data available for the selected criteria"

// ResultRow is one output row of the aggregation step. WeekEnding is set only
// for distribution mode, where each row is a single weekly observation.
type ResultRow struct {
	Variant    string     `json:"variant"`
	SharePct   float64    `json:"share_pct"`
	WeekEnding *time.Time `json:"week_ending,omitempty"`
}

// Result is the aggregated view handed to the presentation layer.
type Result struct {
	Mode   DisplayMode `json:"mode"`
	Rows   []ResultRow `json:"rows"`
	Reason string      `json:"reason,omitempty"`
}

// Empty reports whether the filter matched no observations. An empty result
// is a valid outcome, not an error.
func (r Result) Empty() bool {
	return len(r.Rows) == 0
}
