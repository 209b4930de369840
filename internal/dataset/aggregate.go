package dataset

import (
	"fmt"

	"variantpulse/pkg/contracts/domain"
)

// aggregator is the strategy applied to filtered rows for one display mode.
// New policies register in strategies without touching the filter logic.
type aggregator interface {
	apply(rows []domain.FilteredObservation) []domain.ResultRow
}

var strategies = map[domain.DisplayMode]aggregator{
	domain.ModeDistribution: distributionAggregator{},
	domain.ModeRankedMean:   rankedMeanAggregator{},
}

// Aggregate collapses filtered rows into the view for the given display
// mode. Empty input yields a typed empty Result carrying the standard
// reason; the empty-group mean is never computed.
func Aggregate(rows []domain.FilteredObservation, mode domain.DisplayMode) (domain.Result, error) {
	strategy, ok := strategies[mode]
	if !ok {
		return domain.Result{}, fmt.Errorf("unknown display mode %q", mode)
	}

	if len(rows) == 0 {
		return domain.Result{
			Mode:   mode,
			Rows:   nil,
			Reason: domain.EmptyResultReason,
		}, nil
	}

	return domain.Result{
		Mode: mode,
		Rows: strategy.apply(rows),
	}, nil
}

// distributionAggregator is the identity transform: one row per weekly
// observation, week retained, so spread across weeks stays visible.
type distributionAggregator struct{}

func (distributionAggregator) apply(rows []domain.FilteredObservation) []domain.ResultRow {
	out := make([]domain.ResultRow, len(rows))
	for i, row := range rows {
		week := row.WeekEnding
		out[i] = domain.ResultRow{
			Variant:    row.Variant,
			SharePct:   row.SharePct,
			WeekEnding: &week,
		}
	}
	return out
}

// rankedMeanAggregator groups rows by variant and emits the arithmetic mean
// of the percentage share per group, one row per variant in first-seen
// order. Ranking by value is a presentation concern applied downstream.
type rankedMeanAggregator struct{}

func (rankedMeanAggregator) apply(rows []domain.FilteredObservation) []domain.ResultRow {
	type group struct {
		sum   float64
		count int
	}
	groups := make(map[string]*group)
	var order []string

	for _, row := range rows {
		g, ok := groups[row.Variant]
		if !ok {
			g = &group{}
			groups[row.Variant] = g
			order = append(order, row.Variant)
		}
		g.sum += row.SharePct
		g.count++
	}

	out := make([]domain.ResultRow, 0, len(order))
	for _, variant := range order {
		g := groups[variant]
		out = append(out, domain.ResultRow{
			Variant:  variant,
			SharePct: g.sum / float64(g.count),
		})
	}
	return out
}
