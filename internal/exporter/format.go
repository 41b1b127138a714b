package exporter

import (
	"fmt"
	"strings"

	"retailpulse/internal/analytics"
	apierrors "retailpulse/internal/errors"
)

// Format is an export file format.
type Format string

const (
	FormatCSV  Format = "csv"
	FormatXLSX Format = "xlsx"
)

// ParseFormat accepts "csv" or "xlsx" in any case. An empty string means CSV.
func ParseFormat(s string) (Format, error) {
	switch Format(strings.ToLower(strings.TrimSpace(s))) {
	case "", FormatCSV:
		return FormatCSV, nil
	case FormatXLSX:
		return FormatXLSX, nil
	}
	return "", apierrors.ErrUnsupportedFormat.WithDetails(map[string]any{
		"format":    s,
		"supported": []Format{FormatCSV, FormatXLSX},
	})
}

// ContentType is the MIME type of the format.
func (f Format) ContentType() string {
	if f == FormatXLSX {
		return "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
	}
	return "text/csv; charset=utf-8"
}

// TableFileName names the export of one table.
func TableFileName(table analytics.TableID, f Format) string {
	return fmt.Sprintf("%s.%s", table, f)
}

// WorkbookFileName names a workbook holding every table of a run.
func WorkbookFileName(runID string) string {
	if len(runID) > 8 {
		runID = runID[:8]
	}
	if runID == "" {
		return "retailpulse.xlsx"
	}
	return fmt.Sprintf("retailpulse_%s.xlsx", runID)
}
