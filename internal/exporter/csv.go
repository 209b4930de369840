package exporter

import (
	"encoding/csv"
	"fmt"
	"io"
	"strconv"

	"variantpulse/pkg/contracts/domain"
)

// utf8BOM lets Excel and other spreadsheet tools detect the encoding
var utf8BOM = []byte{0xEF, 0xBB, 0xBF}

var csvHeader = []string{"variant", "week_ending", "share_pct"}

const dateLayout = "2006-01-02"

func writeCSV(w io.Writer, rows []domain.FilteredObservation) error {
	if _, err := w.Write(utf8BOM); err != nil {
		return fmt.Errorf("write BOM: %w", err)
	}

	cw := csv.NewWriter(w)

	if err := cw.Write(csvHeader); err != nil {
		return fmt.Errorf("write header: %w", err)
	}

	for _, row := range rows {
		record := []string{
			row.Variant,
			row.WeekEnding.Format(dateLayout),
			strconv.FormatFloat(row.SharePct, 'f', -1, 64),
		}
		if err := cw.Write(record); err != nil {
			return fmt.Errorf("write row: %w", err)
		}
	}

	cw.Flush()
	return cw.Error()
}
