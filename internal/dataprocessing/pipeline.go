package dataprocessing

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"gasrate/pkg/contracts/domain"
)

// NothingToAnalyzeNotice is reported when a run ingests no gas data at all.
const NothingToAnalyzeNotice = "no gas data to analyze: upload at least one gas meter file"

// ErrTooManyFiles is returned when a run exceeds ProcessingOptions.MaxFiles.
var ErrTooManyFiles = errors.New("too many input files")

// Input is one uploaded file.
type Input struct {
	Name string
	Data io.Reader
}

// Pipeline runs ingestion, normalization, merge, allocation and rollups over
// one file set. A Pipeline holds no per-run state and is safe for concurrent use.
type Pipeline struct {
	options    ProcessingOptions
	normalizer Normalizer
	production *ProductionAggregator
	weekly     *PeriodAggregator
	monthly    *PeriodAggregator
	logger     *slog.Logger
	now        func() time.Time
	newRunID   func() string
}

// NewPipeline creates a pipeline with the given options.
func NewPipeline(options ProcessingOptions, logger *slog.Logger) *Pipeline {
	if logger == nil {
		logger = slog.Default()
	}
	logger = logger.With(slog.String("component", "pipeline"))

	weekly, _ := NewPeriodAggregator(domain.GranularityWeekly)
	monthly, _ := NewPeriodAggregator(domain.GranularityMonthly)

	return &Pipeline{
		options:    options,
		normalizer: NewMeterNormalizer(logger, options.SpikeThreshold),
		production: NewProductionAggregator(logger),
		weekly:     weekly,
		monthly:    monthly,
		logger:     logger,
		now:        time.Now,
		newRunID:   uuid.NewString,
	}
}

// WithClock replaces the clock used for GeneratedAt.
func (p *Pipeline) WithClock(now func() time.Time) *Pipeline {
	cp := *p
	cp.now = now
	return &cp
}

// WithNormalizer replaces the meter normalizer.
func (p *Pipeline) WithNormalizer(n Normalizer) *Pipeline {
	cp := *p
	cp.normalizer = n
	return &cp
}

// fileOutcome is what one input contributed to the run.
type fileOutcome struct {
	report     domain.FileReport
	gas        []domain.DailyGas
	production []domain.ProductionRecord
}

// Run processes inputs in order. A file that fails is reported and skipped;
// only context cancellation or an oversized file set aborts the run.
func (p *Pipeline) Run(ctx context.Context, inputs []Input) (*domain.AnalysisResult, error) {
	if p.options.MaxFiles > 0 && len(inputs) > p.options.MaxFiles {
		return nil, fmt.Errorf("%w: got %d, limit is %d", ErrTooManyFiles, len(inputs), p.options.MaxFiles)
	}

	result := &domain.AnalysisResult{
		RunID:       p.newRunID(),
		GeneratedAt: p.now().UTC(),
		Files:       make([]domain.FileReport, 0, len(inputs)),
	}
	logger := p.logger.With(slog.String("run_id", result.RunID))
	logger.InfoContext(ctx, "analysis started", slog.Int("files", len(inputs)))

	var gas []domain.DailyGas
	var weights []domain.DailyWeight

	for _, in := range inputs {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		outcome := p.processFile(in)
		gas = append(gas, outcome.gas...)

		// Exclusions belong to this file's report; MergeDaily sums per-file weights.
		if len(outcome.production) > 0 {
			fileWeights, exclusions := p.production.Aggregate(outcome.production)
			weights = append(weights, fileWeights...)
			outcome.report.Issues = append(outcome.report.Issues, exclusions...)
			outcome.report.Accepted -= len(exclusions)
		}
		result.Files = append(result.Files, outcome.report)

		logger.InfoContext(ctx, "file processed",
			slog.String("file", in.Name),
			slog.String("kind", string(outcome.report.Kind)),
			slog.Int("rows", outcome.report.Rows),
			slog.Int("accepted", outcome.report.Accepted),
			slog.Bool("skipped", outcome.report.Skipped))
	}

	if len(gas) == 0 {
		result.NothingToAnalyze = true
		result.Notice = NothingToAnalyzeNotice
		logger.WarnContext(ctx, "nothing to analyze", slog.Int("files", len(inputs)))
		return result, nil
	}

	merged := MergeDaily(gas, weights)
	result.Daily, result.Remainders = Allocate(merged)
	result.Weekly = p.weekly.Aggregate(merged)
	result.Monthly = p.monthly.Aggregate(merged)

	logger.InfoContext(ctx, "analysis completed",
		slog.Int("furnaces", len(result.Furnaces())),
		slog.Int("daily_rows", len(result.Daily)),
		slog.Int("weekly_rows", len(result.Weekly)),
		slog.Int("monthly_rows", len(result.Monthly)),
		slog.Int("remainders", len(result.Remainders)))

	return result, nil
}

func (p *Pipeline) processFile(in Input) fileOutcome {
	out := fileOutcome{report: domain.FileReport{Name: in.Name, Kind: domain.FileKindUnknown}}
	fail := func(err error) fileOutcome {
		out.report.Skipped = true
		out.report.Issues = append(out.report.Issues, domain.FileIssue{
			File:     in.Name,
			Severity: domain.SeverityError,
			Message:  err.Error(),
		})
		out.gas = nil
		out.production = nil
		p.logger.Warn("file skipped", slog.String("file", in.Name), slog.String("error", err.Error()))
		return out
	}

	table, err := ReadTable(in.Name, in.Data)
	if err != nil {
		return fail(err)
	}
	out.report.Rows = len(table.Rows)
	out.report.Kind = DetectKind(table)

	switch out.report.Kind {
	case domain.FileKindGas:
		readings, issues, err := ExtractMeterReadings(table)
		out.report.Issues = append(out.report.Issues, issues...)
		if err != nil {
			return fail(err)
		}
		out.report.FurnaceID = FurnaceIDFromFilename(in.Name)
		out.report.Accepted = len(readings)
		out.gas, _ = p.normalizer.Normalize(readings)

	case domain.FileKindProduction:
		records, issues := ExtractProductionRecords(table)
		out.report.Issues = append(out.report.Issues, issues...)
		out.report.Accepted = len(records)
		out.production = records

	default:
		out.report.Skipped = true
		out.report.Issues = append(out.report.Issues, domain.FileIssue{
			File:     in.Name,
			Severity: domain.SeverityInfo,
			Message:  "file matches neither the gas nor the production layout and was ignored",
		})
	}
	return out
}
