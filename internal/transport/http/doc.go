// Package http contains the HTTP handlers of the RetailPulse API.
//
// Handlers decode and validate the request, call the service layer, and
// render the response. The success envelope is
//
//	{"status": "success", "data": ...}
//
// and every error is rendered by the shared error handler as RFC 7807
// problem details:
//
//	{
//	    "type": "/errors/analysis/no-dataset",
//	    "title": "Conflict",
//	    "status": 409,
//	    "detail": "No dataset is loaded. Upload a file or load the sample data first.",
//	    "instance": "/api/analysis",
//	    "error_code": "NO_DATASET"
//	}
//
// # Routes
//
//	GET    /api/dataset                        current dataset summary
//	POST   /api/dataset/upload                 multipart CSV upload
//	POST   /api/dataset/rows                   JSON rows
//	POST   /api/dataset/sample                 generated sample dataset
//	POST   /api/dataset/sheets                 Google Sheets range
//	GET    /api/datasets                       CSV files in the data directory
//	POST   /api/datasets/{name}/load           load a file from the data directory
//	GET    /api/analysis                       last analysis result
//	POST   /api/analysis                       rerun with filters and store constants
//	DELETE /api/analysis/filters               clear filters and rerun
//	GET    /api/analysis/options               filter options of the dataset
//	GET    /api/analysis/tables/{table}        sorted table view
//	GET    /api/analysis/tables/{table}/export table as CSV or XLSX
//	POST   /api/analysis/export                write every table to the export directory
//	GET    /api/guide                          KPI and column reference
//
// Health and metrics endpoints are registered by HealthHandler and
// MetricsHandler.
package http
