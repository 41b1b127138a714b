// Package app wires the RetailPulse server together and manages its
// lifecycle.
//
// # Initialization Flow
//
//  1. Load configuration (.env, environment, optional YAML file)
//  2. Initialize the process logger and OpenTelemetry
//  3. Create the metrics, the WebSocket hub and the analysis pipeline
//  4. Create the file manager, exporter, analysis and health services
//  5. Build the chi router and the HTTP server
//
// # Usage
//
//	a, err := app.NewApplication()
//	if err != nil {
//	    log.Fatal(err)
//	}
//	if err := a.Run(); err != nil {
//	    log.Fatal(err)
//	}
//
// Tests build an application from an explicit configuration with New and
// drive Router through httptest.
//
// # Graceful Shutdown
//
// Run stops on SIGINT or SIGTERM. Stop drains in-flight requests, closes
// WebSocket clients, flushes telemetry and closes the log file.
//
// Initialization errors are returned to the caller; the package never
// calls os.Exit.
package app
