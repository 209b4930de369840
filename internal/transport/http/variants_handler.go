package http

import (
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/render"

	apierrors "variantpulse/internal/errors"
	"variantpulse/internal/exporter"
	custommw "variantpulse/internal/middleware"
	"variantpulse/pkg/contracts/domain"
)

// VariantsHandler serves the proportion query, metadata and export endpoints.
type VariantsHandler struct {
	service      VariantService
	exporter     *exporter.Exporter
	validator    *custommw.QueryParamValidator
	errorHandler *apierrors.ErrorHandler
	logger       *slog.Logger
}

// NewVariantsHandler creates a variants handler
func NewVariantsHandler(service VariantService, exp *exporter.Exporter, logger *slog.Logger) *VariantsHandler {
	return &VariantsHandler{
		service:      service,
		exporter:     exp,
		validator:    custommw.NewQueryParamValidator(),
		errorHandler: apierrors.NewErrorHandler(logger, false),
		logger:       logger,
	}
}

// Routes returns the router for variant endpoints
func (h *VariantsHandler) Routes() chi.Router {
	r := chi.NewRouter()
	r.Get("/", h.Query)
	r.Get("/meta", h.Meta)
	r.Get("/export", h.Export)
	return r
}

// viewParams carries the parsed query parameters shared by Query and Export.
type viewParams struct {
	dateRange domain.DateRange
	selection domain.VariantSelection
	mode      domain.DisplayMode
}

// parseViewParams validates start_date, end_date, variants and mode.
// Missing bounds fall back to the default lookback window.
func (h *VariantsHandler) parseViewParams(r *http.Request) (viewParams, error) {
	q := r.URL.Query()

	start, err := h.validator.ValidateDate("start_date", q.Get("start_date"))
	if err != nil {
		return viewParams{}, err
	}
	end, err := h.validator.ValidateDate("end_date", q.Get("end_date"))
	if err != nil {
		return viewParams{}, err
	}

	defaults := h.service.DefaultRange()
	if start.IsZero() {
		start = defaults.Start
	}
	if end.IsZero() {
		end = defaults.End
	}

	modeParam := q.Get("mode")
	if err := h.validator.ValidateEnum("mode", modeParam, []string{
		string(domain.ModeDistribution),
		string(domain.ModeRankedMean),
	}); err != nil {
		return viewParams{}, err
	}
	// Ranked mean is the default view, matching the upstream dashboard
	mode := domain.ModeRankedMean
	if modeParam != "" {
		mode, _ = domain.ParseDisplayMode(modeParam)
	}

	var names []string
	if raw := q.Get("variants"); raw != "" {
		for _, name := range strings.Split(raw, ",") {
			if trimmed := strings.TrimSpace(name); trimmed != "" {
				names = append(names, trimmed)
			}
		}
	}

	return viewParams{
		dateRange: domain.DateRange{Start: start, End: end},
		selection: domain.SelectVariants(names...),
		mode:      mode,
	}, nil
}

// Query handles GET /api/variants
func (h *VariantsHandler) Query(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	params, err := h.parseViewParams(r)
	if err != nil {
		h.errorHandler.HandleError(w, r, err)
		return
	}

	result, err := h.service.View(ctx, params.dateRange, params.selection, params.mode)
	if err != nil {
		h.errorHandler.HandleError(w, r, err)
		return
	}

	if result.Empty() {
		render.Status(r, http.StatusOK)
		render.JSON(w, r, map[string]interface{}{
			"status":  "empty",
			"message": result.Reason,
			"mode":    string(result.Mode),
		})
		return
	}

	render.Status(r, http.StatusOK)
	render.JSON(w, r, map[string]interface{}{
		"status": "success",
		"mode":   string(result.Mode),
		"data":   result.Rows,
		"count":  len(result.Rows),
	})
}

// Meta handles GET /api/variants/meta
func (h *VariantsHandler) Meta(w http.ResponseWriter, r *http.Request) {
	meta := h.service.Meta(r.Context())

	render.Status(r, http.StatusOK)
	render.JSON(w, r, map[string]interface{}{
		"status": "success",
		"data":   meta,
	})
}

// Export handles GET /api/variants/export
func (h *VariantsHandler) Export(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	format := r.URL.Query().Get("format")
	if err := h.validator.ValidateEnum("format", format, exporter.Formats()); err != nil {
		h.errorHandler.HandleError(w, r, err)
		return
	}
	if format == "" {
		format = exporter.FormatCSV
	}
	format = strings.ToLower(format)

	params, err := h.parseViewParams(r)
	if err != nil {
		h.errorHandler.HandleError(w, r, err)
		return
	}

	rows := h.service.Filtered(ctx, params.dateRange, params.selection)

	filename := exporter.Filename(format, time.Now())
	w.Header().Set("Content-Type", exporter.ContentType(format))
	w.Header().Set("Content-Disposition", fmt.Sprintf(`attachment; filename="%s"`, filename))

	if err := h.exporter.Write(ctx, w, format, rows); err != nil {
		// Headers are already sent; log and abandon the response
		h.logger.ErrorContext(ctx, "export stream failed",
			slog.String("format", format),
			slog.String("error", err.Error()),
		)
	}
}
