package dataprocessing

import (
	"bytes"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/xuri/excelize/v2"

	apierrors "retailpulse/internal/errors"
	"retailpulse/pkg/contracts/domain"
)

// Format identifies a tabular file format.
type Format string

const (
	FormatXLSX Format = "xlsx"
	FormatCSV  Format = "csv"
)

// ErrUnsupportedFormat is returned for file extensions no reader handles.
// It renders as 415 at the HTTP boundary.
var ErrUnsupportedFormat = apierrors.ErrUnsupportedFormat

// DetectFormat maps a file name to its format by extension.
func DetectFormat(name string) (Format, error) {
	switch strings.ToLower(filepath.Ext(name)) {
	case ".xlsx", ".xlsm":
		return FormatXLSX, nil
	case ".csv":
		return FormatCSV, nil
	}
	return "", fmt.Errorf("%w: %q", ErrUnsupportedFormat, filepath.Ext(name))
}

// ReadFile reads every data row of the workbook or CSV file at path.
func ReadFile(path string) ([]domain.RawRow, error) {
	format, err := DetectFormat(path)
	if err != nil {
		return nil, err
	}
	f, err := os.Open(path)
	if err != nil {
		return nil, apierrors.NewParsingError("failed to open file", err).
			WithContext("file", filepath.Base(path))
	}
	defer f.Close()

	rows, err := Read(f, format)
	if err != nil {
		var appErr *apierrors.AppError
		if errors.As(err, &appErr) {
			return nil, appErr.WithContext("file", filepath.Base(path))
		}
		return nil, err
	}
	return rows, nil
}

// Read decodes r as format.
func Read(r io.Reader, format Format) ([]domain.RawRow, error) {
	switch format {
	case FormatXLSX:
		return readXLSX(r)
	case FormatCSV:
		return readCSV(r)
	}
	return nil, fmt.Errorf("%w: %q", ErrUnsupportedFormat, format)
}

// readXLSX reads the first sheet that has any content. Cells are read raw
// so date cells arrive as serial numbers rather than locale formatted text.
func readXLSX(r io.Reader) ([]domain.RawRow, error) {
	f, err := excelize.OpenReader(r)
	if err != nil {
		return nil, apierrors.NewParsingError("failed to open workbook", err)
	}
	defer f.Close()

	for _, sheet := range f.GetSheetList() {
		raw, err := f.GetRows(sheet, excelize.Options{RawCellValue: true})
		if err != nil {
			return nil, apierrors.NewParsingError("failed to read sheet", err).
				WithContext("sheet", sheet)
		}
		records := make([][]any, len(raw))
		for i, rec := range raw {
			records[i] = workbookCells(rec)
		}
		if allBlank(records) {
			continue
		}
		return buildRows(records), nil
	}
	return nil, nil
}

// workbookCells turns raw cell text into values. Anything that parses as a
// number becomes float64 so date serials and amounts keep their type.
func workbookCells(rec []string) []any {
	out := make([]any, len(rec))
	for i, s := range rec {
		s = strings.TrimSpace(s)
		if s == "" {
			continue
		}
		if n, err := strconv.ParseFloat(s, 64); err == nil {
			out[i] = n
			continue
		}
		out[i] = s
	}
	return out
}

func readCSV(r io.Reader) ([]domain.RawRow, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, apierrors.NewParsingError("failed to read csv", err)
	}
	data = bytes.TrimPrefix(data, []byte(utf8BOM))

	cr := csv.NewReader(bytes.NewReader(data))
	cr.FieldsPerRecord = -1
	cr.TrimLeadingSpace = true
	cr.LazyQuotes = true

	var records [][]any
	for {
		rec, err := cr.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, apierrors.NewParsingError("malformed csv", err)
		}
		records = append(records, stringsToCells(rec))
	}
	return buildRows(records), nil
}

func allBlank(records [][]any) bool {
	for _, rec := range records {
		if !isBlank(rec) {
			return false
		}
	}
	return true
}
