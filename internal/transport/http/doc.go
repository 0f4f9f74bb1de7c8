// Package http implements the HTTP handlers of the gas-rate web service.
// Handlers stay thin: they parse and validate the request, call the
// analysis service and turn the outcome into JSON, a report download or a
// server-rendered page.
//
// # Routes
//
//	GET  /                                   upload form and recent runs
//	POST /analyze                            form upload, redirects to the results page
//	GET  /results/{runID}                    daily, weekly and monthly tables
//	POST /api/v1/analyses                    multipart upload, returns the result as JSON
//	GET  /api/v1/analyses                    recent runs
//	GET  /api/v1/analyses/{runID}            one stored result
//	GET  /api/v1/analyses/{runID}/export     ?format=xlsx|csv&granularity=daily|weekly|monthly
//	POST /api/v1/analyses/{runID}/save       writes the workbook to the reports directory
//	GET  /api/health[/ready|/live|/detailed] health probes
//	GET  /api/version                        build information
//	GET  /api/v1/stats                       runtime statistics
//	GET  /metrics                            Prometheus exposition
//
// # Error Handling
//
// API errors follow RFC 7807 Problem Details and are written by
// errors.ErrorHandler:
//
//	{
//	    "type": "/errors/input/no-files",
//	    "title": "No files were uploaded",
//	    "status": 400,
//	    "instance": "/api/v1/analyses"
//	}
//
// Page routes render the same problem above the upload form instead.
package http
