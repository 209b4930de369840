// Command export fetches the variant proportion dataset and writes it to
// CSV or Excel files without starting a server.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"strings"
	"time"

	"variantpulse/internal/config"
	"variantpulse/internal/dataset"
	"variantpulse/internal/exporter"
	"variantpulse/internal/infrastructure"
	"variantpulse/internal/socrata"
	"variantpulse/pkg/contracts/domain"
)

func main() {
	var (
		outDir    = flag.String("out", "exports", "output directory")
		formats   = flag.String("formats", "csv", "comma-separated formats: csv, xlsx")
		startDate = flag.String("start", "", "start date (YYYY-MM-DD, inclusive)")
		endDate   = flag.String("end", "", "end date (YYYY-MM-DD, inclusive)")
		variants  = flag.String("variants", "", "comma-separated variant names, empty for all")
	)
	flag.Parse()

	if err := run(*outDir, *formats, *startDate, *endDate, *variants); err != nil {
		fmt.Fprintf(os.Stderr, "export failed: %v\n", err)
		os.Exit(1)
	}
}

func run(outDir, formatList, startDate, endDate, variantList string) error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	logger, err := infrastructure.InitializeLogger(cfg.Logging)
	if err != nil {
		return fmt.Errorf("initialize logger: %w", err)
	}
	defer infrastructure.CloseLogFile()

	formats, err := parseFormats(formatList)
	if err != nil {
		return err
	}

	dateRange, err := parseRange(startDate, endDate)
	if err != nil {
		return err
	}

	selection := domain.AllVariants()
	if variantList != "" {
		var names []string
		for _, name := range strings.Split(variantList, ",") {
			if trimmed := strings.TrimSpace(name); trimmed != "" {
				names = append(names, trimmed)
			}
		}
		selection = domain.SelectVariants(names...)
	}

	ctx, cancel := context.WithTimeout(context.Background(), cfg.Source.Timeout+30*time.Second)
	defer cancel()

	client := socrata.NewClient(socrata.Config{
		Domain:   cfg.Source.Domain,
		Dataset:  cfg.Source.Dataset,
		AppToken: cfg.Source.AppToken,
		Limit:    cfg.Source.Limit,
		Timeout:  cfg.Source.Timeout,
		RPS:      cfg.Source.RPS,
	}, logger)

	raws, err := client.Fetch(ctx)
	if err != nil {
		return fmt.Errorf("fetch source data: %w", err)
	}

	observations, err := dataset.NormalizeAll(raws)
	if err != nil {
		return fmt.Errorf("normalize source data: %w", err)
	}

	ds, err := dataset.Build(observations)
	if err != nil {
		return fmt.Errorf("build dataset: %w", err)
	}

	rows := dataset.Filter(ds, dateRange, selection)
	if len(rows) == 0 {
		fmt.Println(domain.EmptyResultReason)
		return nil
	}

	paths, err := exporter.New(logger).ExportFiles(ctx, outDir, formats, rows)
	if err != nil {
		return err
	}

	for _, p := range paths {
		fmt.Println(p)
	}
	return nil
}

func parseFormats(list string) ([]string, error) {
	var formats []string
	for _, f := range strings.Split(list, ",") {
		f = strings.ToLower(strings.TrimSpace(f))
		if f == "" {
			continue
		}
		switch f {
		case exporter.FormatCSV, exporter.FormatXLSX:
			formats = append(formats, f)
		default:
			return nil, fmt.Errorf("unknown format %q, supported: %s", f, strings.Join(exporter.Formats(), ", "))
		}
	}
	if len(formats) == 0 {
		return nil, fmt.Errorf("no export formats given")
	}
	return formats, nil
}

// parseRange applies the default lookback window to missing bounds.
func parseRange(startDate, endDate string) (domain.DateRange, error) {
	today := time.Now().UTC().Truncate(24 * time.Hour)
	r := domain.DateRange{Start: today.AddDate(0, 0, -15), End: today}

	if startDate != "" {
		start, err := time.Parse("2006-01-02", startDate)
		if err != nil {
			return domain.DateRange{}, fmt.Errorf("invalid start date %q: %w", startDate, err)
		}
		r.Start = start
	}
	if endDate != "" {
		end, err := time.Parse("2006-01-02", endDate)
		if err != nil {
			return domain.DateRange{}, fmt.Errorf("invalid end date %q: %w", endDate, err)
		}
		r.End = end
	}
	return r, nil
}
