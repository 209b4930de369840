package services

import (
	"context"
	"sync/atomic"
	"time"
)

// HealthStatus is the payload returned by health endpoints.
type HealthStatus struct {
	Status    string    `json:"status"`
	Version   string    `json:"version"`
	Uptime    string    `json:"uptime"`
	RowCount  int       `json:"row_count,omitempty"`
	CheckedAt time.Time `json:"checked_at"`
}

// HealthService reports liveness and readiness. The service becomes
// ready once the dataset has been loaded.
type HealthService struct {
	version  string
	started  time.Time
	ready    atomic.Bool
	rowCount atomic.Int64
}

// NewHealthService creates a health service. It starts not ready.
func NewHealthService(version string) *HealthService {
	return &HealthService{
		version: version,
		started: time.Now(),
	}
}

// MarkReady flips the service to ready and records the dataset size.
func (s *HealthService) MarkReady(rows int) {
	s.rowCount.Store(int64(rows))
	s.ready.Store(true)
}

// Live always succeeds while the process is running.
func (s *HealthService) Live(ctx context.Context) HealthStatus {
	return HealthStatus{
		Status:    "ok",
		Version:   s.version,
		Uptime:    time.Since(s.started).Round(time.Second).String(),
		CheckedAt: time.Now().UTC(),
	}
}

// Ready reports whether the dataset is loaded and queryable.
func (s *HealthService) Ready(ctx context.Context) (HealthStatus, bool) {
	ready := s.ready.Load()

	status := HealthStatus{
		Status:    "ready",
		Version:   s.version,
		Uptime:    time.Since(s.started).Round(time.Second).String(),
		RowCount:  int(s.rowCount.Load()),
		CheckedAt: time.Now().UTC(),
	}
	if !ready {
		status.Status = "loading"
	}

	return status, ready
}
