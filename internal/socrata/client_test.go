package socrata

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"
)

func TestFetchRecordsSpan(t *testing.T) {
	recorder := tracetest.NewSpanRecorder()
	tp := sdktrace.NewTracerProvider(sdktrace.WithSpanProcessor(recorder))
	prev := otel.GetTracerProvider()
	otel.SetTracerProvider(tp)
	t.Cleanup(func() { otel.SetTracerProvider(prev) })

	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`[{"variant":"JN.1","week_ending":"2024-01-06","creation_date":"2024-01-12","share":"0.05"}]`))
	}, Config{Domain: "data.cdc.gov", Dataset: "jr58-6ysp"})

	_, err := client.Fetch(context.Background())
	require.NoError(t, err)

	spans := recorder.Ended()
	require.Len(t, spans, 1)
	assert.Equal(t, "socrata.fetch", spans[0].Name())

	attrs := spans[0].Attributes()
	var sawRows bool
	for _, attr := range attrs {
		if string(attr.Key) == "source.rows" {
			sawRows = true
			assert.EqualValues(t, 1, attr.Value.AsInt64())
		}
	}
	assert.True(t, sawRows, "span should carry the fetched row count")
}

func newTestClient(t *testing.T, handler http.HandlerFunc, cfg Config) *Client {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)

	client := NewClient(cfg, nil)
	client.baseURL = srv.URL
	return client
}

func TestClientFetch(t *testing.T) {
	t.Run("successful fetch decodes rows and sends token", func(t *testing.T) {
		var gotPath, gotToken, gotLimit string
		client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
			gotPath = r.URL.Path
			gotToken = r.Header.Get("X-App-Token")
			gotLimit = r.URL.Query().Get("$limit")
			w.Header().Set("Content-Type", "application/json")
			w.Write([]byte(`[
				{"variant":"JN.1","week_ending":"2024-01-06T00:00:00.000","creation_date":"2024-01-12T00:00:00.000","share":"0.0523","extra_field":"ignored"},
				{"variant":"XBB.1.5","week_ending":"2024-01-06T00:00:00.000","creation_date":"2024-01-12T00:00:00.000","share":"0.12"}
			]`))
		}, Config{Dataset: "jr58-6ysp", AppToken: "secret", Limit: 1000})

		rows, err := client.Fetch(context.Background())
		require.NoError(t, err)

		assert.Equal(t, "/resource/jr58-6ysp.json", gotPath)
		assert.Equal(t, "secret", gotToken)
		assert.Equal(t, "1000", gotLimit)

		require.Len(t, rows, 2)
		assert.Equal(t, "JN.1", rows[0].Variant)
		assert.Equal(t, "0.0523", rows[0].Share)
		assert.Equal(t, "XBB.1.5", rows[1].Variant)
	})

	t.Run("non-200 status maps to ErrSourceUnavailable", func(t *testing.T) {
		client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
			http.Error(w, "throttled", http.StatusTooManyRequests)
		}, Config{Dataset: "jr58-6ysp"})

		rows, err := client.Fetch(context.Background())
		require.Error(t, err)
		assert.ErrorIs(t, err, ErrSourceUnavailable)
		assert.Nil(t, rows)
	})

	t.Run("invalid JSON maps to ErrSourceUnavailable", func(t *testing.T) {
		client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
			w.Write([]byte(`{"not":"an array"`))
		}, Config{Dataset: "jr58-6ysp"})

		_, err := client.Fetch(context.Background())
		require.Error(t, err)
		assert.ErrorIs(t, err, ErrSourceUnavailable)
	})

	t.Run("timeout maps to ErrSourceUnavailable", func(t *testing.T) {
		client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
			time.Sleep(200 * time.Millisecond)
		}, Config{Dataset: "jr58-6ysp", Timeout: 50 * time.Millisecond})

		_, err := client.Fetch(context.Background())
		require.Error(t, err)
		assert.ErrorIs(t, err, ErrSourceUnavailable)
	})

	t.Run("cancelled context stops the fetch", func(t *testing.T) {
		client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
			time.Sleep(200 * time.Millisecond)
		}, Config{Dataset: "jr58-6ysp"})

		ctx, cancel := context.WithCancel(context.Background())
		cancel()

		_, err := client.Fetch(ctx)
		require.Error(t, err)
		assert.ErrorIs(t, err, ErrSourceUnavailable)
	})

	t.Run("empty response is rows of zero length not an error", func(t *testing.T) {
		client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
			w.Write([]byte(`[]`))
		}, Config{Dataset: "jr58-6ysp"})

		rows, err := client.Fetch(context.Background())
		require.NoError(t, err)
		assert.Empty(t, rows)
	})
}

func TestClientDefaults(t *testing.T) {
	client := NewClient(Config{Domain: "data.cdc.gov", Dataset: "jr58-6ysp"}, nil)

	assert.Equal(t, 1_500_000, client.cfg.Limit)
	assert.Equal(t, 90*time.Second, client.cfg.Timeout)
	assert.Equal(t, "https://data.cdc.gov", client.baseURL)
	assert.Contains(t, client.endpoint(), "%24limit=1500000")
}
