package config

// Application constants
const (
	AppName    = "gasrate"
	AppVersion = "1.0.0"

	// Analysis defaults
	DefaultSpikeThreshold = 10000.0
	DefaultMaxUploadMB    = 32
	DefaultMaxFiles       = 50

	// File Paths (relative to the base directory)
	DefaultDataDir    = "data"
	DefaultUploadsDir = "data/uploads"
	DefaultReportsDir = "data/reports"
	DefaultLogsDir    = "logs"

	// Endpoints
	APIBasePath     = "/api/v1"
	AnalyzeEndpoint = "/api/v1/analyses"
	HealthEndpoint  = "/health"
	MetricsEndpoint = "/metrics"
)
