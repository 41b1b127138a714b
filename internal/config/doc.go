// Package config provides centralized configuration management for RetailPulse.
// It loads configuration from multiple sources, validates it, and exposes a
// typed Config used by the server and the CLI.
//
// # Configuration Sources
//
// Sources in order of precedence:
//
//  1. Environment variables (highest priority), optionally from a .env file
//  2. YAML configuration file (config.yaml, configs/config.yaml, or RETAILPULSE_CONFIG)
//  3. Default values (lowest priority)
//
// # Environment Variables
//
// All environment variables follow the pattern RETAILPULSE_<SECTION>_<KEY>:
//
//	RETAILPULSE_SERVER_PORT=8080
//	RETAILPULSE_LOGGING_LEVEL=debug
//	RETAILPULSE_ANALYSIS_SELLING_AREA=7500
//	RETAILPULSE_ANALYSIS_TRAFFIC=12000
//	RETAILPULSE_TELEMETRY_TRACE_EXPORTER=stdout
//	RETAILPULSE_SECURITY_API_KEY_HASH=$2a$10$...
//
// # Usage
//
//	cfg, err := config.Load()
//	if err != nil {
//	    log.Fatal(err)
//	}
//
// Tests use config.Default() or config.LoadFrom with a temporary file.
package config
