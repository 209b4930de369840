// Package http contains the HTTP handlers for the variant proportion API.
// Handlers depend on narrow service interfaces so tests can substitute
// in-memory fakes.
package http

import (
	"context"

	"variantpulse/internal/services"
	"variantpulse/pkg/contracts/domain"
)

// VariantService answers proportion queries.
type VariantService interface {
	View(ctx context.Context, r domain.DateRange, sel domain.VariantSelection, mode domain.DisplayMode) (domain.Result, error)
	Filtered(ctx context.Context, r domain.DateRange, sel domain.VariantSelection) []domain.FilteredObservation
	Meta(ctx context.Context) services.Meta
	DefaultRange() domain.DateRange
}

// HealthService reports process liveness and readiness.
type HealthService interface {
	Live(ctx context.Context) services.HealthStatus
	Ready(ctx context.Context) (services.HealthStatus, bool)
}
