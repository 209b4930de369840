package services

import (
	"context"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"variantpulse/internal/dataset"
	"variantpulse/pkg/contracts/domain"
)

func day(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func testService(t *testing.T) *VariantService {
	t.Helper()

	observations := []domain.Observation{
		{Variant: "A", WeekEnding: day(2024, 1, 1), CreationDate: day(2024, 1, 5), Share: 0.10},
		{Variant: "A", WeekEnding: day(2024, 1, 8), CreationDate: day(2024, 1, 12), Share: 0.30},
		{Variant: "B", WeekEnding: day(2024, 1, 8), CreationDate: day(2024, 1, 12), Share: 0.20},
	}

	ds, err := dataset.Build(observations)
	require.NoError(t, err)

	logger := slog.New(slog.NewJSONHandler(io.Discard, nil))
	svc := NewVariantService(ds, logger, nil)
	svc.now = func() time.Time { return day(2024, 2, 1) }
	return svc
}

func TestViewDistribution(t *testing.T) {
	svc := testService(t)

	r := domain.DateRange{Start: day(2024, 1, 1), End: day(2024, 1, 31)}
	result, err := svc.View(context.Background(), r, domain.AllVariants(), domain.ModeDistribution)
	require.NoError(t, err)

	require.Len(t, result.Rows, 3)
	assert.Equal(t, domain.ModeDistribution, result.Mode)
	assert.InDelta(t, 10.0, result.Rows[0].SharePct, 1e-9)
	assert.Empty(t, result.Reason)
}

func TestViewRankedMean(t *testing.T) {
	svc := testService(t)

	r := domain.DateRange{Start: day(2024, 1, 1), End: day(2024, 1, 31)}
	result, err := svc.View(context.Background(), r, domain.AllVariants(), domain.ModeRankedMean)
	require.NoError(t, err)

	require.Len(t, result.Rows, 2)
	assert.Equal(t, "A", result.Rows[0].Variant)
	assert.InDelta(t, 20.0, result.Rows[0].SharePct, 1e-9)
	assert.Equal(t, "B", result.Rows[1].Variant)
	assert.InDelta(t, 20.0, result.Rows[1].SharePct, 1e-9)
}

func TestViewEmptyResult(t *testing.T) {
	svc := testService(t)

	r := domain.DateRange{Start: day(2030, 1, 1), End: day(2030, 12, 31)}
	result, err := svc.View(context.Background(), r, domain.AllVariants(), domain.ModeDistribution)
	require.NoError(t, err)

	assert.True(t, result.Empty())
	assert.Equal(t, domain.EmptyResultReason, result.Reason)
}

func TestViewUnknownMode(t *testing.T) {
	svc := testService(t)

	r := domain.DateRange{Start: day(2024, 1, 1), End: day(2024, 1, 31)}
	_, err := svc.View(context.Background(), r, domain.AllVariants(), domain.DisplayMode("pie"))
	assert.Error(t, err)
}

func TestMeta(t *testing.T) {
	svc := testService(t)

	meta := svc.Meta(context.Background())

	assert.Equal(t, []string{"A", "B"}, meta.Variants)
	assert.Equal(t, day(2024, 1, 1), meta.MinWeek)
	assert.Equal(t, day(2024, 1, 8), meta.MaxWeek)
	assert.Equal(t, "January 12, 2024", meta.LatestPublished)
	assert.Equal(t, 3, meta.RowCount)
	assert.Equal(t, day(2024, 1, 17), meta.DefaultRange.Start)
	assert.Equal(t, day(2024, 2, 1), meta.DefaultRange.End)
	assert.Equal(t, []string{"distribution", "ranked_mean"}, meta.Modes)
}

func TestHealthService(t *testing.T) {
	hs := NewHealthService("v1.0.0")

	t.Run("live always ok", func(t *testing.T) {
		status := hs.Live(context.Background())
		assert.Equal(t, "ok", status.Status)
		assert.Equal(t, "v1.0.0", status.Version)
	})

	t.Run("not ready before dataset load", func(t *testing.T) {
		status, ready := hs.Ready(context.Background())
		assert.False(t, ready)
		assert.Equal(t, "loading", status.Status)
	})

	t.Run("ready after dataset load", func(t *testing.T) {
		hs.MarkReady(1500)
		status, ready := hs.Ready(context.Background())
		assert.True(t, ready)
		assert.Equal(t, "ready", status.Status)
		assert.Equal(t, 1500, status.RowCount)
	})
}
