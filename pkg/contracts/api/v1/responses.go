package api

import (
	"time"

	"gasrate/pkg/contracts/domain"
)

// AnalysisSummary is the list view of a stored run
type AnalysisSummary struct {
	RunID            string    `json:"run_id"`
	GeneratedAt      time.Time `json:"generated_at"`
	NothingToAnalyze bool      `json:"nothing_to_analyze"`
	Files            int       `json:"files"`
	Furnaces         []string  `json:"furnaces"`
	Issues           int       `json:"issues"`
}

// NewAnalysisSummary condenses a result for listings
func NewAnalysisSummary(result *domain.AnalysisResult) AnalysisSummary {
	return AnalysisSummary{
		RunID:            result.RunID,
		GeneratedAt:      result.GeneratedAt,
		NothingToAnalyze: result.NothingToAnalyze,
		Files:            len(result.Files),
		Furnaces:         result.Furnaces(),
		Issues:           len(result.Issues()),
	}
}

// AnalysisList is the response of GET /api/v1/analyses, newest first
type AnalysisList struct {
	Analyses []AnalysisSummary `json:"analyses"`
	Count    int               `json:"count"`
}

// AnalysisResponse wraps a result with its download links
type AnalysisResponse struct {
	*domain.AnalysisResult
	Links map[string]string `json:"links"`
}

// SavedReport names a workbook written to the reports directory
type SavedReport struct {
	File string `json:"file"`
}
