package dataprocessing

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	"retailpulse/internal/analytics"
	apierrors "retailpulse/internal/errors"
)

var retailHeader = []any{"Product", "Category", "OrderDate", "Sales", "Cost", "Quantity", "StockLevel", "ReorderPoint", "OrderID"}

func workbook(t *testing.T, sheet string, rows ...[]any) *bytes.Buffer {
	t.Helper()
	f := excelize.NewFile()
	defer f.Close()
	if sheet != "Sheet1" {
		_, err := f.NewSheet(sheet)
		require.NoError(t, err)
	}
	for i, r := range rows {
		cell, err := excelize.CoordinatesToCellName(1, i+1)
		require.NoError(t, err)
		require.NoError(t, f.SetSheetRow(sheet, cell, &r))
	}
	buf, err := f.WriteToBuffer()
	require.NoError(t, err)
	return buf
}

func TestDetectFormat(t *testing.T) {
	tests := []struct {
		name    string
		want    Format
		wantErr bool
	}{
		{"sales.xlsx", FormatXLSX, false},
		{"Sales.XLSM", FormatXLSX, false},
		{"export.csv", FormatCSV, false},
		{"legacy.xls", "", true},
		{"noext", "", true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := DetectFormat(tt.name)
			if tt.wantErr {
				assert.ErrorIs(t, err, ErrUnsupportedFormat)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestReadXLSX(t *testing.T) {
	buf := workbook(t, "Sheet1",
		retailHeader,
		[]any{"Widget", "Tools", "05/01/2024", 300, 120.5, 3, 40, 10, "ORD1"},
		[]any{},
		[]any{"Gadget", "", "06/01/2024", 100, 60, 1, 4, 8, 1002},
	)

	rows, err := Read(buf, FormatXLSX)
	require.NoError(t, err)
	require.Len(t, rows, 2, "blank rows are skipped")

	assert.Equal(t, "Widget", rows[0]["Product"])
	assert.Equal(t, 300.0, rows[0]["Sales"])
	assert.Equal(t, 120.5, rows[0]["Cost"])
	assert.Equal(t, "05/01/2024", rows[0]["OrderDate"])

	assert.Contains(t, rows[1], "Category", "every header key is present")
	assert.Nil(t, rows[1]["Category"])
	assert.Equal(t, 1002.0, rows[1]["OrderID"])
}

func TestReadXLSXDateCellsAreSerials(t *testing.T) {
	f := excelize.NewFile()
	defer f.Close()
	require.NoError(t, f.SetSheetRow("Sheet1", "A1", &[]any{"OrderDate", "Sales"}))
	require.NoError(t, f.SetCellValue("Sheet1", "A2", 45306.0))
	style, err := f.NewStyle(&excelize.Style{NumFmt: 14})
	require.NoError(t, err)
	require.NoError(t, f.SetCellStyle("Sheet1", "A2", "A2", style))
	require.NoError(t, f.SetCellValue("Sheet1", "B2", 10))
	buf, err := f.WriteToBuffer()
	require.NoError(t, err)

	rows, err := Read(buf, FormatXLSX)
	require.NoError(t, err)
	require.Len(t, rows, 1)

	d, ok := analytics.ParseDate(rows[0]["OrderDate"])
	require.True(t, ok)
	assert.Equal(t, "2024-01-15", d.Format("2006-01-02"))
}

func TestReadXLSXSkipsEmptySheets(t *testing.T) {
	f := excelize.NewFile()
	defer f.Close()
	_, err := f.NewSheet("Data")
	require.NoError(t, err)
	require.NoError(t, f.SetSheetRow("Data", "A1", &[]any{"Product", "Sales"}))
	require.NoError(t, f.SetSheetRow("Data", "A2", &[]any{"Widget", 5}))
	buf, err := f.WriteToBuffer()
	require.NoError(t, err)

	rows, err := Read(buf, FormatXLSX)
	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.Equal(t, "Widget", rows[0]["Product"])
}

func TestReadXLSXEmptyWorkbook(t *testing.T) {
	rows, err := Read(workbook(t, "Sheet1"), FormatXLSX)
	require.NoError(t, err)
	assert.Empty(t, rows)
}

func TestReadXLSXCorrupt(t *testing.T) {
	_, err := Read(strings.NewReader("not a zip"), FormatXLSX)
	require.Error(t, err)

	var appErr *apierrors.AppError
	require.ErrorAs(t, err, &appErr)
	assert.Equal(t, apierrors.ErrTypeParsing, appErr.Type)
}

func TestReadCSV(t *testing.T) {
	input := "\uFEFFProduct, Category ,OrderDate,Sales,Cost\n" +
		"Widget,Tools,05/01/2024,\"1,200.50\",120\n" +
		",,,,\n" +
		"Gadget,,06/01/2024,100\n"

	rows, err := Read(strings.NewReader(input), FormatCSV)
	require.NoError(t, err)
	require.Len(t, rows, 2)

	assert.Equal(t, "Widget", rows[0]["Product"], "BOM is stripped from the first header")
	assert.Equal(t, "Tools", rows[0]["Category"], "header names are trimmed")
	assert.Equal(t, "1,200.50", rows[0]["Sales"])
	assert.Equal(t, 1200.5, analytics.ParseNumber(rows[0]["Sales"]))

	assert.Nil(t, rows[1]["Category"])
	assert.Contains(t, rows[1], "Cost", "short records still carry every header")
	assert.Nil(t, rows[1]["Cost"])
}

func TestReadCSVDuplicateAndBlankHeaders(t *testing.T) {
	input := "Product,,Sales,Product\nWidget,x,5,Other\n"
	rows, err := Read(strings.NewReader(input), FormatCSV)
	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.Len(t, rows[0], 2)
	assert.Equal(t, "Widget", rows[0]["Product"], "first duplicate wins")
}

func TestReadCSVHeaderOnly(t *testing.T) {
	rows, err := Read(strings.NewReader("Product,Sales\n"), FormatCSV)
	require.NoError(t, err)
	assert.Empty(t, rows)

	err = analytics.ValidateStructure(rows)
	assert.ErrorIs(t, err, analytics.ErrNoRows)
}

func TestReadFile(t *testing.T) {
	dir := t.TempDir()

	csvPath := filepath.Join(dir, "sales.csv")
	require.NoError(t, os.WriteFile(csvPath, []byte("Product,Sales\nWidget,5\n"), 0o644))
	rows, err := ReadFile(csvPath)
	require.NoError(t, err)
	require.Len(t, rows, 1)

	xlsxPath := filepath.Join(dir, "sales.xlsx")
	buf := workbook(t, "Sheet1", []any{"Product", "Sales"}, []any{"Widget", 5})
	require.NoError(t, os.WriteFile(xlsxPath, buf.Bytes(), 0o644))
	rows, err = ReadFile(xlsxPath)
	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.Equal(t, 5.0, rows[0]["Sales"])

	_, err = ReadFile(filepath.Join(dir, "missing.csv"))
	var appErr *apierrors.AppError
	require.ErrorAs(t, err, &appErr)
	assert.Equal(t, "missing.csv", appErr.Context["file"])

	_, err = ReadFile(filepath.Join(dir, "notes.txt"))
	assert.ErrorIs(t, err, ErrUnsupportedFormat)
}

func TestReadFeedsPipelineValidation(t *testing.T) {
	buf := workbook(t, "Sheet1",
		retailHeader,
		[]any{"Widget", "Tools", "05/01/2024", 300, 120, 3, 40, 10, "ORD1"},
	)
	rows, err := Read(buf, FormatXLSX)
	require.NoError(t, err)
	assert.NoError(t, analytics.ValidateStructure(rows))
}
