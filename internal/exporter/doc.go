// Package exporter writes analysis table views as CSV files or Excel
// workbooks.
//
// CSV output carries a UTF-8 byte order mark so spreadsheet applications
// detect the encoding. Workbooks hold a Summary sheet with the headline
// KPIs followed by one sheet per table view, with numeric cells stored as
// numbers.
//
//	exp := exporter.New(fileManager, logger, metrics)
//	paths, err := exp.ExportAll(ctx, result, views, exporter.FormatCSV)
package exporter
