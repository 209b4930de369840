package dataset

import (
	"variantpulse/pkg/contracts/domain"
)

// shareScale converts a fractional share to a display percentage.
const shareScale = 100

// Filter returns the observations matching the date range and variant
// selection, with shares rescaled to percentages. Both range bounds are
// inclusive; an inverted range matches nothing. Dataset order is preserved
// and a fresh slice is returned on every call.
func Filter(ds *Dataset, r domain.DateRange, sel domain.VariantSelection) []domain.FilteredObservation {
	filtered := make([]domain.FilteredObservation, 0, ds.Len())
	ds.each(func(obs domain.Observation) {
		if !sel.Matches(obs.Variant) {
			return
		}
		if !r.Contains(obs.WeekEnding) {
			return
		}
		filtered = append(filtered, domain.FilteredObservation{
			Variant:    obs.Variant,
			WeekEnding: obs.WeekEnding,
			SharePct:   obs.Share * shareScale,
		})
	})
	return filtered
}
