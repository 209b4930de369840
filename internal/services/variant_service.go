package services

import (
	"context"
	"log/slog"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"

	"variantpulse/internal/dataset"
	"variantpulse/internal/infrastructure"
	"variantpulse/pkg/contracts/domain"
)

// defaultRangeDays is the lookback window applied when no explicit
// date range is requested
const defaultRangeDays = 15

// latestPublishedLayout is the display format for the publication date
const latestPublishedLayout = "January 2, 2006"

// Meta describes the loaded dataset for client bootstrapping.
type Meta struct {
	Variants        []string         `json:"variants"`
	MinWeek         time.Time        `json:"min_week"`
	MaxWeek         time.Time        `json:"max_week"`
	LatestPublished string           `json:"latest_published"`
	RowCount        int              `json:"row_count"`
	DefaultRange    domain.DateRange `json:"default_range"`
	Modes           []string         `json:"modes"`
}

// VariantService answers proportion queries against the in-memory dataset.
// The dataset is immutable after construction so all methods are safe for
// concurrent use.
type VariantService struct {
	ds      *dataset.Dataset
	logger  *slog.Logger
	metrics *infrastructure.BusinessMetrics
	now     func() time.Time
}

// NewVariantService creates a variant service over a built dataset.
// Metrics may be nil when telemetry is disabled.
func NewVariantService(ds *dataset.Dataset, logger *slog.Logger, metrics *infrastructure.BusinessMetrics) *VariantService {
	return &VariantService{
		ds:      ds,
		logger:  logger,
		metrics: metrics,
		now:     time.Now,
	}
}

// View filters the dataset by date range and variant selection, then
// aggregates under the requested display mode. An empty match produces a
// typed empty result, not an error.
func (s *VariantService) View(ctx context.Context, r domain.DateRange, sel domain.VariantSelection, mode domain.DisplayMode) (domain.Result, error) {
	start := s.now()

	rows := dataset.Filter(s.ds, r, sel)
	result, err := dataset.Aggregate(rows, mode)

	elapsed := time.Since(start).Seconds()
	if s.metrics != nil {
		attrs := metric.WithAttributes(attribute.String("mode", string(mode)))
		s.metrics.FilterRequestsTotal.Add(ctx, 1, attrs)
		s.metrics.FilterDuration.Record(ctx, elapsed, attrs)
		if err == nil && result.Empty() {
			s.metrics.EmptyResultsTotal.Add(ctx, 1, attrs)
		}
	}

	if err != nil {
		s.logger.ErrorContext(ctx, "aggregation failed",
			slog.String("mode", string(mode)),
			slog.String("error", err.Error()),
		)
		return domain.Result{}, err
	}

	s.logger.InfoContext(ctx, "view computed",
		slog.String("mode", string(mode)),
		slog.Int("matched_rows", len(rows)),
		slog.Int("result_rows", len(result.Rows)),
		slog.Bool("empty", result.Empty()),
	)

	return result, nil
}

// Meta returns dataset bounds, known variants and the default date range.
func (s *VariantService) Meta(ctx context.Context) Meta {
	today := s.now().UTC().Truncate(24 * time.Hour)

	return Meta{
		Variants:        s.ds.Variants(),
		MinWeek:         s.ds.MinWeek(),
		MaxWeek:         s.ds.MaxWeek(),
		LatestPublished: s.ds.LatestPublished().Format(latestPublishedLayout),
		RowCount:        s.ds.Len(),
		DefaultRange: domain.DateRange{
			Start: today.AddDate(0, 0, -defaultRangeDays),
			End:   today,
		},
		Modes: []string{string(domain.ModeDistribution), string(domain.ModeRankedMean)},
	}
}

// Filtered returns the rescaled rows matching a range and selection,
// without aggregation. Export endpoints use this directly.
func (s *VariantService) Filtered(ctx context.Context, r domain.DateRange, sel domain.VariantSelection) []domain.FilteredObservation {
	rows := dataset.Filter(s.ds, r, sel)

	s.logger.DebugContext(ctx, "filter computed",
		slog.Int("matched_rows", len(rows)),
	)
	return rows
}

// Observations exposes a copy of the normalized rows for export.
func (s *VariantService) Observations(ctx context.Context) []domain.Observation {
	return s.ds.Observations()
}

// DefaultRange returns the range used when a request omits both bounds.
func (s *VariantService) DefaultRange() domain.DateRange {
	today := s.now().UTC().Truncate(24 * time.Hour)
	return domain.DateRange{
		Start: today.AddDate(0, 0, -defaultRangeDays),
		End:   today,
	}
}
