package http

import (
	"context"

	"gasrate/internal/dataprocessing"
	"gasrate/internal/services"
	"gasrate/pkg/contracts/domain"
)

// AnalysisServiceInterface defines the analysis operations the handlers need
type AnalysisServiceInterface interface {
	Analyze(ctx context.Context, req services.AnalyzeRequest) (*domain.AnalysisResult, error)
	Result(ctx context.Context, runID string) (*domain.AnalysisResult, error)
	RecentResults(ctx context.Context) []*domain.AnalysisResult
	Export(ctx context.Context, runID, format string, g domain.Granularity) (*services.ExportedReport, error)
	SaveWorkbook(ctx context.Context, runID string) (string, error)
	Options() dataprocessing.ProcessingOptions
}

var _ AnalysisServiceInterface = (*services.AnalysisService)(nil)
