// Package config provides configuration management for the gas rate analyzer.
//
// # Configuration Sources
//
// Configuration is assembled from the following sources, later ones winning:
//
//  1. Default values (Default)
//  2. A YAML file (config.yaml or configs/config.yaml)
//  3. Environment variables prefixed with GASRATE_
//
// # Environment Variables
//
// Nested fields join their names with underscores:
//
//	GASRATE_SERVER_PORT=8080
//	GASRATE_LOGGING_LEVEL=debug
//	GASRATE_ANALYSIS_SPIKE_THRESHOLD=10000
//	GASRATE_ANALYSIS_MAX_UPLOAD_MB=32
//	GASRATE_PATHS_BASE_DIR=/var/lib/gasrate
//
// # Path Management
//
// ResolvePaths turns the configured directories into absolute paths:
//
//	paths, err := config.ResolvePaths(cfg.Paths)
//	report := paths.GetReportPath(config.ReportFileName("plant a", time.Now(), "xlsx"))
//
// # Usage
//
//	cfg, err := config.Load()
//	if err != nil {
//	    log.Fatal(err)
//	}
package config
