package dataset

import (
	"errors"
	"time"

	"variantpulse/pkg/contracts/domain"
)

// ErrEmptyDataset indicates the source returned no usable rows. A dataset
// without observations has no date bounds and cannot serve any query.
var ErrEmptyDataset = errors.New("dataset contains no observations")

// Dataset is the immutable, ordered collection of normalized observations
// built once at startup. Date bounds, the latest publication date, and the
// variant list are computed at build time and never change afterwards.
type Dataset struct {
	observations    []domain.Observation
	minWeek         time.Time
	maxWeek         time.Time
	latestPublished time.Time
	variants        []string
}

// Build freezes the given observations into a Dataset. The input slice is
// copied, so callers may reuse it. Build fails on empty input.
func Build(observations []domain.Observation) (*Dataset, error) {
	if len(observations) == 0 {
		return nil, ErrEmptyDataset
	}

	ds := &Dataset{
		observations: make([]domain.Observation, len(observations)),
	}
	copy(ds.observations, observations)

	seen := make(map[string]struct{})
	for i, obs := range ds.observations {
		if i == 0 || obs.WeekEnding.Before(ds.minWeek) {
			ds.minWeek = obs.WeekEnding
		}
		if i == 0 || obs.WeekEnding.After(ds.maxWeek) {
			ds.maxWeek = obs.WeekEnding
		}
		if obs.CreationDate.After(ds.latestPublished) {
			ds.latestPublished = obs.CreationDate
		}
		if _, ok := seen[obs.Variant]; !ok {
			seen[obs.Variant] = struct{}{}
			ds.variants = append(ds.variants, obs.Variant)
		}
	}

	return ds, nil
}

// Len returns the number of observations.
func (ds *Dataset) Len() int {
	return len(ds.observations)
}

// MinWeek returns the earliest week-ending date in the dataset.
func (ds *Dataset) MinWeek() time.Time {
	return ds.minWeek
}

// MaxWeek returns the latest week-ending date in the dataset.
func (ds *Dataset) MaxWeek() time.Time {
	return ds.maxWeek
}

// LatestPublished returns the most recent creation date across all
// observations, exposed for the "latest data update" display label.
func (ds *Dataset) LatestPublished() time.Time {
	return ds.latestPublished
}

// Variants returns the distinct variant names in first-seen order. The
// returned slice is a copy.
func (ds *Dataset) Variants() []string {
	variants := make([]string, len(ds.variants))
	copy(variants, ds.variants)
	return variants
}

// Observations returns a copy of all observations in their original order.
func (ds *Dataset) Observations() []domain.Observation {
	observations := make([]domain.Observation, len(ds.observations))
	copy(observations, ds.observations)
	return observations
}

// each iterates the observations without copying. Internal use only so the
// backing slice never escapes.
func (ds *Dataset) each(fn func(domain.Observation)) {
	for _, obs := range ds.observations {
		fn(obs)
	}
}
