// Package dataset implements the variant-proportion transformation pipeline.
// It consolidates normalization, dataset construction, filtering, and
// aggregation into a cohesive package covering the data lifecycle from raw
// Socrata rows to presentation-ready views.
//
// # Architecture
//
// The package is organized into four components:
//
// 1. Normalize: converts raw string rows into typed observations
// 2. Build: freezes observations into an immutable Dataset with cached bounds
// 3. Filter: restricts by date range and variant selection, rescales shares
// 4. Aggregate: produces the distribution or ranked-mean view
//
// # Data Flow
//
//	RawObservation → Normalize → Observation → Build → Dataset → Filter → Aggregate → Result
//
// The Dataset is built once at startup and never mutated afterwards; Filter
// and Aggregate are pure functions and safe to call concurrently.
//
// # Error Handling
//
// Normalization failures return ErrMalformedRecord wrapped with the offending
// field; they are fatal to dataset construction, since the pipeline does not
// tolerate partial data. An empty filter result is not an error: Aggregate
// returns a typed empty Result carrying a human-readable reason instead.
package dataset
