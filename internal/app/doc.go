// Package app wires the gasrate web application together and manages its
// lifecycle.
//
// New resolves the data directories, starts OpenTelemetry, builds the
// analysis and health services and mounts every handler on a chi router.
// Middleware runs in this order:
//
//	RequestID → RealIP → OTel → Logger → Recoverer → SecurityHeaders → RateLimit → Timeout
//
// /metrics and /api/health sit outside the rate limiter and request timeout
// so probes keep answering under load.
//
// Run serves until SIGINT or SIGTERM and then shuts down gracefully:
// in-flight requests finish within ShutdownTimeout, telemetry is flushed and
// the log file is closed. Errors are returned to the caller; the package
// never calls os.Exit.
//
//	application, err := app.NewApplication()
//	if err != nil {
//	    return err
//	}
//	return application.Run()
package app
