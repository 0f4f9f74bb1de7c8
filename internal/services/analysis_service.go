package services

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"log/slog"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/go-playground/validator/v10"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"gasrate/internal/config"
	"gasrate/internal/dataprocessing"
	"gasrate/internal/exporter"
	"gasrate/internal/infrastructure"
	"gasrate/pkg/contracts/domain"
)

// DefaultResultRetention is how many recent results stay available for export.
const DefaultResultRetention = 20

// Content types of exported reports.
const (
	ContentTypeXLSX = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
	ContentTypeCSV  = "text/csv; charset=utf-8"
)

// AnalyzeRequest is one submitted file set.
type AnalyzeRequest struct {
	Files []dataprocessing.Input `validate:"required,min=1"`
	// SpikeThreshold overrides the configured threshold when positive.
	SpikeThreshold float64 `validate:"omitempty,gt=0"`
}

// ExportedReport is a rendered report ready for download.
type ExportedReport struct {
	FileName    string
	ContentType string
	Data        []byte
}

// AnalysisService runs the gas-rate pipeline and keeps recent results so they
// can be exported after the request that produced them.
type AnalysisService struct {
	options  dataprocessing.ProcessingOptions
	pipeline *dataprocessing.Pipeline
	exporter *exporter.ReportExporter
	results  *resultStore
	metrics  *infrastructure.AnalysisMetrics
	tracer   trace.Tracer
	logger   *slog.Logger
}

var requestValidator = validator.New()

// validateRequest checks req against its struct tags and maps the first
// failing field to the service error callers switch on.
func validateRequest(req AnalyzeRequest) error {
	err := requestValidator.Struct(req)
	if err == nil {
		return nil
	}
	var fieldErrs validator.ValidationErrors
	if !errors.As(err, &fieldErrs) || len(fieldErrs) == 0 {
		return fmt.Errorf("invalid analysis request: %w", err)
	}
	switch fieldErrs[0].StructField() {
	case "Files":
		return ErrNoFilesUploaded
	case "SpikeThreshold":
		return fmt.Errorf("%w, got %v", ErrInvalidThreshold, req.SpikeThreshold)
	default:
		return fmt.Errorf("invalid analysis request: %w", err)
	}
}

// NewAnalysisService creates the service from the analysis settings. metrics may be nil.
func NewAnalysisService(cfg config.AnalysisConfig, exp *exporter.ReportExporter, metrics *infrastructure.AnalysisMetrics, logger *slog.Logger) *AnalysisService {
	if logger == nil {
		logger = slog.Default()
	}
	logger = infrastructure.WithComponent(logger, "analysis_service")
	if exp == nil {
		exp = exporter.NewReportExporter(nil, logger)
	}

	options := ProcessingOptionsFrom(cfg)
	logger.Info("AnalysisService initialized",
		slog.Float64("spike_threshold", options.SpikeThreshold),
		slog.Int("max_files", options.MaxFiles))

	return &AnalysisService{
		options:  options,
		pipeline: dataprocessing.NewPipeline(options, logger),
		exporter: exp,
		results:  newResultStore(DefaultResultRetention),
		metrics:  metrics,
		tracer:   otel.Tracer(infrastructure.InstrumentationName),
		logger:   logger,
	}
}

// ProcessingOptionsFrom converts the analysis settings into pipeline options.
func ProcessingOptionsFrom(cfg config.AnalysisConfig) dataprocessing.ProcessingOptions {
	options := dataprocessing.DefaultOptions()
	if cfg.SpikeThreshold > 0 {
		options.SpikeThreshold = cfg.SpikeThreshold
	}
	options.MaxFiles = cfg.MaxFiles
	return options
}

// Options returns the effective processing options.
func (s *AnalysisService) Options() dataprocessing.ProcessingOptions {
	return s.options
}

// Analyze runs one file set through the pipeline and stores the result.
func (s *AnalysisService) Analyze(ctx context.Context, req AnalyzeRequest) (*domain.AnalysisResult, error) {
	if err := validateRequest(req); err != nil {
		return nil, err
	}

	pipeline := s.pipeline
	threshold := s.options.SpikeThreshold
	if req.SpikeThreshold > 0 && req.SpikeThreshold != threshold {
		threshold = req.SpikeThreshold
		options := s.options
		options.SpikeThreshold = threshold
		pipeline = dataprocessing.NewPipeline(options, s.logger)
	}

	ctx, span := s.tracer.Start(ctx, "analysis.run",
		trace.WithAttributes(
			attribute.Int("files", len(req.Files)),
			attribute.Float64("spike_threshold", threshold),
		))
	defer span.End()

	start := time.Now()
	result, err := pipeline.Run(ctx, req.Files)
	duration := time.Since(start)
	infrastructure.RecordAnalysis(ctx, s.metrics, result, duration, err)

	if err != nil {
		infrastructure.RecordError(ctx, err)
		s.logger.ErrorContext(ctx, "analysis failed",
			slog.String("error", err.Error()),
			slog.Int("files", len(req.Files)),
			slog.Duration("duration", duration))
		return nil, fmt.Errorf("analysis failed: %w", err)
	}

	span.SetAttributes(
		attribute.String("run.id", result.RunID),
		attribute.Bool("nothing_to_analyze", result.NothingToAnalyze),
		attribute.Int("daily_rows", len(result.Daily)),
	)
	s.results.put(result)

	s.logger.InfoContext(ctx, "analysis stored",
		slog.String("run_id", result.RunID),
		slog.Int("furnaces", len(result.Furnaces())),
		slog.Int("issues", len(result.Issues())),
		slog.Duration("duration", duration))

	return result, nil
}

// Result returns a stored result by run id.
func (s *AnalysisService) Result(_ context.Context, runID string) (*domain.AnalysisResult, error) {
	result, ok := s.results.get(runID)
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrResultNotFound, runID)
	}
	return result, nil
}

// RecentResults lists stored results, newest first.
func (s *AnalysisService) RecentResults(_ context.Context) []*domain.AnalysisResult {
	return s.results.list()
}

// Export renders a stored result. format is "xlsx" or "csv"; the granularity
// selects the CSV table and is ignored for workbooks.
func (s *AnalysisService) Export(ctx context.Context, runID, format string, g domain.Granularity) (*ExportedReport, error) {
	result, err := s.Result(ctx, runID)
	if err != nil {
		return nil, err
	}

	ctx, span := s.tracer.Start(ctx, "analysis.export",
		trace.WithAttributes(
			attribute.String("run.id", runID),
			attribute.String("format", format),
		))
	defer span.End()

	report, err := s.render(result, strings.ToLower(format), g)
	infrastructure.RecordExport(ctx, s.metrics, format, err)
	if err != nil {
		infrastructure.RecordError(ctx, err)
		return nil, err
	}

	s.logger.InfoContext(ctx, "report exported",
		slog.String("run_id", runID),
		slog.String("format", format),
		slog.Int("bytes", len(report.Data)))
	return report, nil
}

// SaveWorkbook writes a stored result into the reports directory.
func (s *AnalysisService) SaveWorkbook(ctx context.Context, runID string) (string, error) {
	result, err := s.Result(ctx, runID)
	if err != nil {
		return "", err
	}
	path, err := s.exporter.SaveWorkbook(result, "")
	infrastructure.RecordExport(ctx, s.metrics, exporter.FormatXLSX, err)
	return path, err
}

func (s *AnalysisService) render(result *domain.AnalysisResult, format string, g domain.Granularity) (*ExportedReport, error) {
	var buf bytes.Buffer
	name := config.ReportFileName(config.AppName, result.GeneratedAt, format)

	switch format {
	case exporter.FormatXLSX:
		if err := s.exporter.WriteWorkbook(&buf, result); err != nil {
			return nil, err
		}
		return &ExportedReport{FileName: name, ContentType: ContentTypeXLSX, Data: buf.Bytes()}, nil

	case exporter.FormatCSV:
		if g == "" {
			g = domain.GranularityDaily
		}
		if err := s.exporter.WriteCSV(&buf, result, g); err != nil {
			return nil, fmt.Errorf("%w: %v", ErrUnsupportedFormat, err)
		}
		ext := filepath.Ext(name)
		name = fmt.Sprintf("%s-%s%s", strings.TrimSuffix(name, ext), g, ext)
		return &ExportedReport{FileName: name, ContentType: ContentTypeCSV, Data: buf.Bytes()}, nil
	}

	return nil, fmt.Errorf("%w: %q", ErrUnsupportedFormat, format)
}

// resultStore keeps the most recent results in memory, evicting the oldest.
type resultStore struct {
	mu       sync.RWMutex
	capacity int
	order    []string
	byID     map[string]*domain.AnalysisResult
}

func newResultStore(capacity int) *resultStore {
	if capacity <= 0 {
		capacity = DefaultResultRetention
	}
	return &resultStore{
		capacity: capacity,
		byID:     make(map[string]*domain.AnalysisResult),
	}
}

func (s *resultStore) put(result *domain.AnalysisResult) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.byID[result.RunID]; !exists {
		s.order = append(s.order, result.RunID)
	}
	s.byID[result.RunID] = result

	for len(s.order) > s.capacity {
		delete(s.byID, s.order[0])
		s.order = s.order[1:]
	}
}

func (s *resultStore) get(runID string) (*domain.AnalysisResult, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	result, ok := s.byID[runID]
	return result, ok
}

func (s *resultStore) list() []*domain.AnalysisResult {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]*domain.AnalysisResult, 0, len(s.order))
	for i := len(s.order) - 1; i >= 0; i-- {
		out = append(out, s.byID[s.order[i]])
	}
	return out
}
