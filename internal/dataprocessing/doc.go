// Package dataprocessing turns tabular sources into raw rows for the
// analytics pipeline.
//
// Three sources are supported:
//
//   - Excel workbooks (.xlsx, .xlsm), read with excelize from the first
//     sheet that has a header row
//   - CSV files, with an optional UTF-8 byte order mark
//   - Google Sheets ranges, read through the Sheets v4 API
//
// Every source yields []domain.RawRow keyed by the header row. All header
// keys are present on every row; blank cells are nil so the schema
// resolver sees the full header set even when the first data row is
// sparse. Numeric spreadsheet cells (including date serials) are kept as
// float64, text cells as trimmed strings.
//
//	rows, err := dataprocessing.ReadFile("sales.xlsx")
//	if err != nil {
//	    return err
//	}
//	result, err := pipeline.Run(ctx, rows, filter, business)
package dataprocessing
