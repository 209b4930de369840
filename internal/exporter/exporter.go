// Package exporter renders filtered variant proportions to downloadable
// formats. CSV output is UTF-8 with a BOM so spreadsheet tools detect the
// encoding; Excel output is generated with excelize.
package exporter

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"golang.org/x/sync/errgroup"

	"variantpulse/pkg/contracts/domain"
)

// Supported export formats
const (
	FormatCSV  = "csv"
	FormatXLSX = "xlsx"
)

// ErrUnsupportedFormat reports an export format the exporter cannot render
type unsupportedFormatError struct {
	format string
}

func (e *unsupportedFormatError) Error() string {
	return fmt.Sprintf("unsupported export format: %s", e.format)
}

// Exporter writes result rows in the supported formats.
type Exporter struct {
	logger *slog.Logger
}

// New creates an exporter
func New(logger *slog.Logger) *Exporter {
	return &Exporter{logger: logger}
}

// Formats lists the supported format names.
func Formats() []string {
	return []string{FormatCSV, FormatXLSX}
}

// ContentType returns the MIME type for a format.
func ContentType(format string) string {
	switch format {
	case FormatXLSX:
		return "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
	default:
		return "text/csv; charset=utf-8"
	}
}

// Filename builds a timestamped download name for a format.
func Filename(format string, now time.Time) string {
	return fmt.Sprintf("variant_proportions_%s.%s", now.Format("20060102_150405"), format)
}

// Write renders rows to w in the given format.
func (e *Exporter) Write(ctx context.Context, w io.Writer, format string, rows []domain.FilteredObservation) error {
	start := time.Now()

	var err error
	switch format {
	case FormatCSV:
		err = writeCSV(w, rows)
	case FormatXLSX:
		err = writeExcel(w, rows)
	default:
		return &unsupportedFormatError{format: format}
	}
	if err != nil {
		e.logger.ErrorContext(ctx, "export failed",
			slog.String("format", format),
			slog.String("error", err.Error()),
		)
		return fmt.Errorf("export %s: %w", format, err)
	}

	e.logger.InfoContext(ctx, "export completed",
		slog.String("format", format),
		slog.Int("rows", len(rows)),
		slog.String("duration", time.Since(start).String()),
	)
	return nil
}

// ExportFiles writes one file per requested format into dir, concurrently.
// The first failure cancels the remaining writes.
func (e *Exporter) ExportFiles(ctx context.Context, dir string, formats []string, rows []domain.FilteredObservation) ([]string, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create export dir: %w", err)
	}

	now := time.Now()
	paths := make([]string, len(formats))

	g, ctx := errgroup.WithContext(ctx)
	for i, format := range formats {
		paths[i] = filepath.Join(dir, Filename(format, now))

		g.Go(func() error {
			f, err := os.Create(paths[i])
			if err != nil {
				return fmt.Errorf("create %s: %w", paths[i], err)
			}
			if err := e.Write(ctx, f, format, rows); err != nil {
				f.Close()
				return err
			}
			return f.Close()
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}
	return paths, nil
}
