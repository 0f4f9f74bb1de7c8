package exporter

import (
	"bytes"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"gasrate/internal/config"
	"gasrate/pkg/contracts/domain"
)

// Export formats.
const (
	FormatXLSX = "xlsx"
	FormatCSV  = "csv"
)

// ReportExporter renders analysis results as a workbook or as CSV files.
type ReportExporter struct {
	csvWriter *CSVWriter
	paths     *config.Paths
	logger    *slog.Logger
}

// NewReportExporter creates an exporter writing saved reports under paths.
func NewReportExporter(paths *config.Paths, logger *slog.Logger) *ReportExporter {
	if logger == nil {
		logger = slog.Default()
	}
	logger = logger.With(slog.String("component", "exporter"))
	return &ReportExporter{
		csvWriter: NewCSVWriter(paths, logger),
		paths:     paths,
		logger:    logger,
	}
}

// WriteWorkbook writes the Daily, Weekly, Monthly and Unallocated sheets.
func (e *ReportExporter) WriteWorkbook(w io.Writer, result *domain.AnalysisResult) error {
	return writeWorkbook(w, resultTables(result))
}

// WriteCSV writes the table of one granularity as CSV with a UTF-8 BOM.
func (e *ReportExporter) WriteCSV(w io.Writer, result *domain.AnalysisResult, g domain.Granularity) error {
	t, ok := tableFor(result, g)
	if !ok {
		return fmt.Errorf("unsupported granularity %q", g)
	}
	return writeCSV(w, tableOptions(t, true))
}

// SaveWorkbook writes the workbook to path, or to a generated file name in
// the reports directory when path is empty. It returns the written path.
func (e *ReportExporter) SaveWorkbook(result *domain.AnalysisResult, path string) (string, error) {
	if path == "" {
		if e.paths == nil {
			return "", fmt.Errorf("no output path and no reports directory configured")
		}
		path = e.paths.GetReportPath(config.ReportFileName(config.AppName, result.GeneratedAt, FormatXLSX))
	}

	var buf bytes.Buffer
	if err := e.WriteWorkbook(&buf, result); err != nil {
		return "", err
	}

	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return "", fmt.Errorf("failed to create directory: %w", err)
	}
	if err := os.WriteFile(path, buf.Bytes(), 0644); err != nil {
		return "", fmt.Errorf("failed to write workbook: %w", err)
	}

	e.logger.Info("workbook saved",
		slog.String("run_id", result.RunID),
		slog.String("path", path),
		slog.Int("bytes", buf.Len()))
	return path, nil
}

// SaveCSV writes one CSV file per granularity into dir, or into the reports
// directory when dir is empty. File names share the run's report stem.
func (e *ReportExporter) SaveCSV(result *domain.AnalysisResult, dir string) ([]string, error) {
	stem := strings.TrimSuffix(config.ReportFileName(config.AppName, result.GeneratedAt, FormatCSV), "."+FormatCSV)

	var written []string
	for _, g := range []domain.Granularity{domain.GranularityDaily, domain.GranularityWeekly, domain.GranularityMonthly} {
		t, _ := tableFor(result, g)
		name := fmt.Sprintf("%s-%s.%s", stem, g, FormatCSV)
		if dir != "" {
			name = filepath.Join(dir, name)
		}

		path, err := e.csvWriter.WriteCSV(name, tableOptions(t, true))
		if err != nil {
			return written, fmt.Errorf("failed to write %s report: %w", g, err)
		}
		written = append(written, path)
	}
	return written, nil
}
