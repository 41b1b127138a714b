// Package services holds the application logic between the HTTP handlers
// and the analytics engine.
//
// AnalysisService owns the in-memory state of the application: the active
// dataset, the filter and store constants of the next run, the sort order
// chosen for each table and the latest AnalysisResult. Loading a dataset
// from any source (upload, data directory, sample generator, Google
// Sheets or JSON rows) validates its structure, resets the filter and
// sort state and runs the analysis immediately.
//
// Runs are serialized: a second run requested while one executes fails
// fast with ErrAnalysisRunning instead of queueing. Readers never block
// on a run; the latest result is published through an atomic pointer and
// is never modified afterwards.
//
// HealthService answers the health, readiness and version endpoints.
//
// Errors returned by services are either analytics errors (bad input
// data), APIError values from internal/errors, or AppError values with a
// type. All of them map to a problem response in internal/errors.
package services
