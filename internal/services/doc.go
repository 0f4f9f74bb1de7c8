// Package services implements the business logic layer between the HTTP
// handlers and the analysis pipeline.
//
// # Services
//
//   - AnalysisService: runs uploaded file sets through the pipeline, records
//     spans and metrics, keeps the most recent results in memory and renders
//     them as workbook or CSV downloads
//   - HealthService: liveness, readiness and version information
//
// Services take a *slog.Logger in their constructor and never reach for a
// global logger. Errors returned to handlers are the sentinels in errors.go,
// wrapped with fmt.Errorf so callers can match them with errors.Is.
//
// # Example
//
//	svc := services.NewAnalysisService(cfg.Analysis, exporter, metrics, logger)
//	result, err := svc.Analyze(ctx, services.AnalyzeRequest{Files: inputs})
//	if errors.Is(err, services.ErrTooManyFiles) {
//		// reject the upload
//	}
package services
