// Package api contains the JSON contracts of the gasrate HTTP API.
// Version v1 is served under /api/v1.
package api

import (
	"net/url"
	"strings"

	"gasrate/pkg/contracts/domain"
)

// Export formats accepted by the export endpoint.
const (
	FormatXLSX = "xlsx"
	FormatCSV  = "csv"
)

// ExportRequest selects the representation of a stored result
type ExportRequest struct {
	Format      string             `json:"format" form:"format" validate:"required,oneof=xlsx csv"`
	Granularity domain.Granularity `json:"granularity,omitempty" form:"granularity" validate:"omitempty,oneof=daily weekly monthly"`
}

// ExportRequestFromQuery reads format and granularity case-insensitively.
// The format defaults to xlsx.
func ExportRequestFromQuery(q url.Values) ExportRequest {
	req := ExportRequest{
		Format:      strings.ToLower(strings.TrimSpace(q.Get("format"))),
		Granularity: domain.Granularity(strings.ToLower(strings.TrimSpace(q.Get("granularity")))),
	}
	if req.Format == "" {
		req.Format = FormatXLSX
	}
	return req
}
