package dataset

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"variantpulse/pkg/contracts/domain"
)

func buildFixture(t *testing.T) *Dataset {
	t.Helper()
	ds, err := Build([]domain.Observation{
		obs("A", day(2024, 1, 1), 0.10),
		obs("A", day(2024, 1, 8), 0.30),
		obs("B", day(2024, 1, 8), 0.20),
	})
	require.NoError(t, err)
	return ds
}

func TestFilter(t *testing.T) {
	ds := buildFixture(t)

	tests := []struct {
		name      string
		dateRange domain.DateRange
		selection domain.VariantSelection
		wantPcts  []float64
	}{
		{
			name:      "full range all variants",
			dateRange: domain.DateRange{Start: day(2024, 1, 1), End: day(2024, 1, 8)},
			selection: domain.AllVariants(),
			wantPcts:  []float64{10, 30, 20},
		},
		{
			name:      "single variant",
			dateRange: domain.DateRange{Start: day(2024, 1, 1), End: day(2024, 1, 8)},
			selection: domain.SelectVariants("B"),
			wantPcts:  []float64{20},
		},
		{
			name:      "record exactly on end bound is included",
			dateRange: domain.DateRange{Start: day(2024, 1, 2), End: day(2024, 1, 8)},
			selection: domain.AllVariants(),
			wantPcts:  []float64{30, 20},
		},
		{
			name:      "one day past the end bound is excluded",
			dateRange: domain.DateRange{Start: day(2024, 1, 1), End: day(2024, 1, 7)},
			selection: domain.AllVariants(),
			wantPcts:  []float64{10},
		},
		{
			name:      "record exactly on start bound is included",
			dateRange: domain.DateRange{Start: day(2024, 1, 1), End: day(2024, 1, 1)},
			selection: domain.AllVariants(),
			wantPcts:  []float64{10},
		},
		{
			name:      "inverted range matches nothing",
			dateRange: domain.DateRange{Start: day(2024, 1, 8), End: day(2024, 1, 1)},
			selection: domain.AllVariants(),
			wantPcts:  []float64{},
		},
		{
			name:      "range before all data matches nothing",
			dateRange: domain.DateRange{Start: day(2023, 1, 1), End: day(2023, 1, 2)},
			selection: domain.AllVariants(),
			wantPcts:  []float64{},
		},
		{
			name:      "sentinel wins when mixed with names",
			dateRange: domain.DateRange{Start: day(2024, 1, 1), End: day(2024, 1, 8)},
			selection: domain.SelectVariants("B", "ALL"),
			wantPcts:  []float64{10, 30, 20},
		},
		{
			name:      "empty selection means all",
			dateRange: domain.DateRange{Start: day(2024, 1, 1), End: day(2024, 1, 8)},
			selection: domain.SelectVariants(),
			wantPcts:  []float64{10, 30, 20},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			filtered := Filter(ds, tt.dateRange, tt.selection)

			pcts := make([]float64, 0, len(filtered))
			for _, row := range filtered {
				pcts = append(pcts, row.SharePct)
			}
			assert.Equal(t, tt.wantPcts, pcts)
		})
	}
}

func TestFilterRescalesExactly(t *testing.T) {
	ds, err := Build([]domain.Observation{obs("A", day(2024, 1, 1), 0.0523)})
	require.NoError(t, err)

	filtered := Filter(ds, domain.DateRange{Start: day(2024, 1, 1), End: day(2024, 1, 1)}, domain.AllVariants())
	require.Len(t, filtered, 1)
	assert.Equal(t, 0.0523*100, filtered[0].SharePct)
}

func TestFilterPreservesDatasetOrder(t *testing.T) {
	ds := buildFixture(t)

	filtered := Filter(ds, domain.DateRange{Start: day(2024, 1, 1), End: day(2024, 1, 8)}, domain.AllVariants())
	require.Len(t, filtered, 3)

	assert.Equal(t, "A", filtered[0].Variant)
	assert.Equal(t, day(2024, 1, 1), filtered[0].WeekEnding)
	assert.Equal(t, "A", filtered[1].Variant)
	assert.Equal(t, day(2024, 1, 8), filtered[1].WeekEnding)
	assert.Equal(t, "B", filtered[2].Variant)
}

func TestFilterReturnsFreshSlice(t *testing.T) {
	ds := buildFixture(t)
	r := domain.DateRange{Start: day(2024, 1, 1), End: day(2024, 1, 8)}

	first := Filter(ds, r, domain.AllVariants())
	first[0].SharePct = -1

	second := Filter(ds, r, domain.AllVariants())
	assert.Equal(t, 10.0, second[0].SharePct, "mutating one result must not leak into the next call")
}

func TestFilterWeekValue(t *testing.T) {
	// Week values in the output must match the observation, untouched by
	// the percentage rescale.
	ds := buildFixture(t)
	filtered := Filter(ds, domain.DateRange{Start: day(2024, 1, 8), End: day(2024, 1, 8)}, domain.SelectVariants("B"))
	require.Len(t, filtered, 1)
	assert.True(t, filtered[0].WeekEnding.Equal(day(2024, 1, 8)))
}
