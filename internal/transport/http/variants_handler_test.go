package http

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"variantpulse/internal/exporter"
	"variantpulse/internal/services"
	"variantpulse/pkg/contracts"
	"variantpulse/pkg/contracts/domain"
)

type stubVariantService struct {
	result    domain.Result
	viewErr   error
	filtered  []domain.FilteredObservation
	meta      services.Meta
	lastRange domain.DateRange
	lastSel   domain.VariantSelection
	lastMode  domain.DisplayMode
}

func (s *stubVariantService) View(ctx context.Context, r domain.DateRange, sel domain.VariantSelection, mode domain.DisplayMode) (domain.Result, error) {
	s.lastRange = r
	s.lastSel = sel
	s.lastMode = mode
	return s.result, s.viewErr
}

func (s *stubVariantService) Filtered(ctx context.Context, r domain.DateRange, sel domain.VariantSelection) []domain.FilteredObservation {
	s.lastRange = r
	s.lastSel = sel
	return s.filtered
}

func (s *stubVariantService) Meta(ctx context.Context) services.Meta {
	return s.meta
}

func (s *stubVariantService) DefaultRange() domain.DateRange {
	return domain.DateRange{
		Start: time.Date(2024, 1, 17, 0, 0, 0, 0, time.UTC),
		End:   time.Date(2024, 2, 1, 0, 0, 0, 0, time.UTC),
	}
}

func newTestHandler(stub *stubVariantService) *VariantsHandler {
	logger := slog.New(slog.NewJSONHandler(io.Discard, nil))
	return NewVariantsHandler(stub, exporter.New(logger), logger)
}

func decodeBody(t *testing.T, rec *httptest.ResponseRecorder) map[string]interface{} {
	t.Helper()
	var body map[string]interface{}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	return body
}

func TestQuerySuccess(t *testing.T) {
	week := time.Date(2024, 1, 8, 0, 0, 0, 0, time.UTC)
	stub := &stubVariantService{
		result: domain.Result{
			Mode: domain.ModeDistribution,
			Rows: []domain.ResultRow{
				{Variant: "JN.1", SharePct: 45.2, WeekEnding: &week},
			},
		},
	}
	handler := newTestHandler(stub)

	req := httptest.NewRequest("GET", "/?start_date=2024-01-01&end_date=2024-01-31&mode=distribution", nil)
	rec := httptest.NewRecorder()
	handler.Query(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)

	body := decodeBody(t, rec)
	assert.Equal(t, "success", body["status"])
	assert.Equal(t, "distribution", body["mode"])
	assert.EqualValues(t, 1, body["count"])

	assert.Equal(t, time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC), stub.lastRange.Start)
	assert.Equal(t, time.Date(2024, 1, 31, 0, 0, 0, 0, time.UTC), stub.lastRange.End)
	assert.Equal(t, domain.ModeDistribution, stub.lastMode)
}

func TestQueryDefaults(t *testing.T) {
	stub := &stubVariantService{result: domain.Result{Mode: domain.ModeDistribution, Rows: []domain.ResultRow{{Variant: "A", SharePct: 1}}}}
	handler := newTestHandler(stub)

	req := httptest.NewRequest("GET", "/", nil)
	rec := httptest.NewRecorder()
	handler.Query(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, stub.DefaultRange(), stub.lastRange)
	assert.Equal(t, domain.ModeRankedMean, stub.lastMode)
	assert.True(t, stub.lastSel.IsAll())
}

func TestQueryVariantSelection(t *testing.T) {
	stub := &stubVariantService{result: domain.Result{Mode: domain.ModeDistribution, Rows: []domain.ResultRow{{Variant: "A", SharePct: 1}}}}
	handler := newTestHandler(stub)

	req := httptest.NewRequest("GET", "/?variants=JN.1,%20XBB.1.5", nil)
	rec := httptest.NewRecorder()
	handler.Query(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.False(t, stub.lastSel.IsAll())
	assert.True(t, stub.lastSel.Matches("JN.1"))
	assert.True(t, stub.lastSel.Matches("XBB.1.5"))
	assert.False(t, stub.lastSel.Matches("BA.2"))
}

func TestQueryEmptyResult(t *testing.T) {
	stub := &stubVariantService{
		result: domain.Result{Mode: domain.ModeRankedMean, Reason: domain.EmptyResultReason},
	}
	handler := newTestHandler(stub)

	req := httptest.NewRequest("GET", "/?mode=ranked_mean", nil)
	rec := httptest.NewRecorder()
	handler.Query(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)

	body := decodeBody(t, rec)
	assert.Equal(t, "empty", body["status"])
	assert.Equal(t, domain.EmptyResultReason, body["message"])
}

func TestQueryValidation(t *testing.T) {
	tests := []struct {
		name  string
		query string
	}{
		{name: "bad start date", query: "?start_date=January"},
		{name: "bad end date", query: "?end_date=2024-13-99"},
		{name: "bad mode", query: "?mode=pie"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			handler := newTestHandler(&stubVariantService{})

			req := httptest.NewRequest("GET", "/"+tt.query, nil)
			rec := httptest.NewRecorder()
			handler.Query(rec, req)

			assert.Equal(t, http.StatusBadRequest, rec.Code)
			assert.Contains(t, rec.Header().Get("Content-Type"), "application/problem+json")
		})
	}
}

func TestMetaEndpoint(t *testing.T) {
	stub := &stubVariantService{
		meta: services.Meta{
			Variants:        []string{"A", "B"},
			LatestPublished: "January 12, 2024",
			RowCount:        3,
		},
	}
	handler := newTestHandler(stub)

	req := httptest.NewRequest("GET", "/meta", nil)
	rec := httptest.NewRecorder()
	handler.Meta(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)

	body := decodeBody(t, rec)
	assert.Equal(t, "success", body["status"])
	data := body["data"].(map[string]interface{})
	assert.Equal(t, "January 12, 2024", data["latest_published"])
	assert.EqualValues(t, 3, data["row_count"])
}

func TestExportCSV(t *testing.T) {
	week := time.Date(2024, 1, 8, 0, 0, 0, 0, time.UTC)
	stub := &stubVariantService{
		filtered: []domain.FilteredObservation{
			{Variant: "JN.1", WeekEnding: week, SharePct: 45.2},
		},
	}
	handler := newTestHandler(stub)

	req := httptest.NewRequest("GET", "/export?format=csv", nil)
	rec := httptest.NewRecorder()
	handler.Export(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Header().Get("Content-Type"), "text/csv")
	assert.Contains(t, rec.Header().Get("Content-Disposition"), "attachment")
	assert.Contains(t, rec.Body.String(), "JN.1,2024-01-08,45.2")
}

func TestExportDefaultsToCSV(t *testing.T) {
	handler := newTestHandler(&stubVariantService{})

	req := httptest.NewRequest("GET", "/export", nil)
	rec := httptest.NewRecorder()
	handler.Export(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Header().Get("Content-Type"), "text/csv")
}

func TestExportUnknownFormat(t *testing.T) {
	handler := newTestHandler(&stubVariantService{})

	req := httptest.NewRequest("GET", "/export?format=pdf", nil)
	rec := httptest.NewRecorder()
	handler.Export(rec, req)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

type stubHealthService struct {
	ready bool
}

func (s *stubHealthService) Live(ctx context.Context) services.HealthStatus {
	return services.HealthStatus{Status: "ok", Version: "v1.0.0"}
}

func (s *stubHealthService) Ready(ctx context.Context) (services.HealthStatus, bool) {
	if !s.ready {
		return services.HealthStatus{Status: "loading"}, false
	}
	return services.HealthStatus{Status: "ready", RowCount: 10}, true
}

func TestVersionEndpoint(t *testing.T) {
	handler := NewHealthHandler(&stubHealthService{})

	rec := httptest.NewRecorder()
	handler.Version(rec, httptest.NewRequest("GET", "/version", nil))

	require.Equal(t, http.StatusOK, rec.Code)

	body := decodeBody(t, rec)
	assert.Equal(t, "success", body["status"])
	data := body["data"].(map[string]interface{})
	assert.Equal(t, contracts.Version, data["version"])
	assert.NotEmpty(t, data["go_version"])
}

func TestHealthEndpoints(t *testing.T) {
	t.Run("live", func(t *testing.T) {
		handler := NewHealthHandler(&stubHealthService{})

		rec := httptest.NewRecorder()
		handler.Live(rec, httptest.NewRequest("GET", "/", nil))

		require.Equal(t, http.StatusOK, rec.Code)
		body := decodeBody(t, rec)
		assert.Equal(t, "ok", body["status"])
	})

	t.Run("live route", func(t *testing.T) {
		router := NewHealthHandler(&stubHealthService{}).Routes()

		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, httptest.NewRequest("GET", "/live", nil))

		require.Equal(t, http.StatusOK, rec.Code)
		body := decodeBody(t, rec)
		assert.Equal(t, "ok", body["status"])
	})

	t.Run("not ready", func(t *testing.T) {
		handler := NewHealthHandler(&stubHealthService{ready: false})

		rec := httptest.NewRecorder()
		handler.Ready(rec, httptest.NewRequest("GET", "/ready", nil))

		assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
	})

	t.Run("ready", func(t *testing.T) {
		handler := NewHealthHandler(&stubHealthService{ready: true})

		rec := httptest.NewRecorder()
		handler.Ready(rec, httptest.NewRequest("GET", "/ready", nil))

		assert.Equal(t, http.StatusOK, rec.Code)
		body := decodeBody(t, rec)
		assert.Equal(t, "ready", body["status"])
	})
}
