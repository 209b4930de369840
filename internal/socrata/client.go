package socrata

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"golang.org/x/time/rate"

	"variantpulse/pkg/contracts/domain"
)

const tracerName = "variantpulse/socrata"

// ErrSourceUnavailable indicates the remote dataset could not be fetched or
// its response could not be parsed. Fatal at startup: the service never runs
// on a partial or absent dataset.
var ErrSourceUnavailable = errors.New("data source unavailable")

const appTokenHeader = "X-App-Token"

// Config holds the connection parameters for one Socrata dataset.
type Config struct {
	Domain   string        // e.g. "data.cdc.gov"
	Dataset  string        // dataset identifier, e.g. "jr58-6ysp"
	AppToken string        // optional; raises the anonymous rate limit
	Limit    int           // row cap, large enough for the full dataset
	Timeout  time.Duration // whole-request deadline
	RPS      float64       // client-side request rate toward the API
}

// Client fetches rows from a Socrata SODA endpoint. It performs a single
// unpaginated GET per Fetch call and never caches.
type Client struct {
	cfg     Config
	baseURL string
	http    *http.Client
	limiter *rate.Limiter
	logger  *slog.Logger
}

// NewClient creates a client for the configured dataset.
func NewClient(cfg Config, logger *slog.Logger) *Client {
	if cfg.Limit <= 0 {
		cfg.Limit = 1_500_000
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 90 * time.Second
	}
	rps := cfg.RPS
	if rps <= 0 {
		rps = 1
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Client{
		cfg:     cfg,
		baseURL: "https://" + cfg.Domain,
		http:    &http.Client{Timeout: cfg.Timeout},
		limiter: rate.NewLimiter(rate.Limit(rps), 1),
		logger:  logger.With(slog.String("component", "socrata_client")),
	}
}

// Fetch retrieves the full dataset in one call. Any transport, status, or
// decode failure is wrapped in ErrSourceUnavailable.
func (c *Client) Fetch(ctx context.Context) ([]domain.RawObservation, error) {
	ctx, span := otel.Tracer(tracerName).Start(ctx, "socrata.fetch",
		trace.WithAttributes(
			attribute.String("source.domain", c.cfg.Domain),
			attribute.String("source.dataset", c.cfg.Dataset),
		),
	)
	defer span.End()

	rows, err := c.fetch(ctx)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "fetch failed")
		return nil, err
	}

	span.SetAttributes(attribute.Int("source.rows", len(rows)))
	return rows, nil
}

func (c *Client) fetch(ctx context.Context) ([]domain.RawObservation, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrSourceUnavailable, err)
	}

	endpoint := c.endpoint()
	c.logger.InfoContext(ctx, "fetching dataset",
		slog.String("domain", c.cfg.Domain),
		slog.String("dataset", c.cfg.Dataset),
		slog.Int("limit", c.cfg.Limit))

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, fmt.Errorf("%w: building request: %v", ErrSourceUnavailable, err)
	}
	req.Header.Set("Accept", "application/json")
	if c.cfg.AppToken != "" {
		req.Header.Set(appTokenHeader, c.cfg.AppToken)
	}

	start := time.Now()
	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrSourceUnavailable, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return nil, fmt.Errorf("%w: unexpected status %d: %s", ErrSourceUnavailable, resp.StatusCode, body)
	}

	var rows []domain.RawObservation
	if err := json.NewDecoder(resp.Body).Decode(&rows); err != nil {
		return nil, fmt.Errorf("%w: decoding response: %v", ErrSourceUnavailable, err)
	}

	c.logger.InfoContext(ctx, "dataset fetched",
		slog.Int("rows", len(rows)),
		slog.String("duration", time.Since(start).String()))

	return rows, nil
}

func (c *Client) endpoint() string {
	q := url.Values{}
	q.Set("$limit", strconv.Itoa(c.cfg.Limit))
	return fmt.Sprintf("%s/resource/%s.json?%s", c.baseURL, c.cfg.Dataset, q.Encode())
}
