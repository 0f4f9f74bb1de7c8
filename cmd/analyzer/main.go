// Command analyzer runs a specific-rate analysis over a directory of gas
// meter logs and production sheets and writes the report to disk.
//
//	analyzer -in ./data -out report.xlsx -csv ./reports
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"
	"text/tabwriter"

	"gasrate/internal/config"
	"gasrate/internal/exporter"
	"gasrate/internal/files"
	"gasrate/internal/infrastructure"
	"gasrate/internal/services"
	"gasrate/internal/validation"
	"gasrate/pkg/contracts/domain"
)

type options struct {
	inDir      string
	outFile    string
	csvDir     string
	spike      float64
	configFile string
	quiet      bool
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, os.Args[1:], os.Stdout, os.Stderr); err != nil {
		if errors.Is(err, flag.ErrHelp) {
			os.Exit(0)
		}
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
}

func parseFlags(args []string, out io.Writer) (*options, error) {
	opts := &options{}
	fs := flag.NewFlagSet("analyzer", flag.ContinueOnError)
	fs.SetOutput(out)
	fs.StringVar(&opts.inDir, "in", "", "directory containing gas logs and production sheets (.csv, .xlsx)")
	fs.StringVar(&opts.outFile, "out", "", "workbook output path (defaults to the reports directory)")
	fs.StringVar(&opts.csvDir, "csv", "", "also write daily, weekly and monthly CSV files into this directory")
	fs.Float64Var(&opts.spike, "spike", 0, "spike threshold override; 0 keeps the configured value")
	fs.StringVar(&opts.configFile, "config", "", "config file (YAML)")
	fs.BoolVar(&opts.quiet, "quiet", false, "do not print the result tables")

	if err := fs.Parse(args); err != nil {
		return nil, err
	}
	if opts.inDir == "" {
		fs.Usage()
		return nil, fmt.Errorf("-in is required")
	}

	abs, err := filepath.Abs(opts.inDir)
	if err != nil {
		return nil, fmt.Errorf("resolve input directory: %w", err)
	}
	opts.inDir = abs
	return opts, nil
}

func run(ctx context.Context, args []string, stdout, stderr io.Writer) error {
	opts, err := parseFlags(args, stdout)
	if err != nil {
		return err
	}

	cfg, err := loadConfig(opts.configFile)
	if err != nil {
		return err
	}

	// stdout carries the report, so logs go to stderr
	logger, err := infrastructure.NewLogger(cfg.Logging, stderr)
	if err != nil {
		return fmt.Errorf("failed to initialize logger: %w", err)
	}
	defer infrastructure.CloseLogFile()

	paths, err := config.ResolvePaths(cfg.Paths)
	if err != nil {
		return fmt.Errorf("failed to get paths: %w", err)
	}

	validator := validation.NewFileValidator(logger)
	if err := validator.ValidateInputDirectory(opts.inDir); err != nil {
		return err
	}
	if opts.spike != 0 {
		if err := validator.ValidateSpikeThreshold(opts.spike); err != nil {
			return err
		}
	}
	if opts.outFile != "" {
		if err := validator.ValidateOutputFile(opts.outFile); err != nil {
			return err
		}
	} else if err := paths.EnsureDirectories(); err != nil {
		return fmt.Errorf("failed to ensure directories: %w", err)
	}
	if opts.csvDir != "" {
		if err := validator.ValidateOutputDirectory(opts.csvDir); err != nil {
			return err
		}
	}

	ctx = infrastructure.EnsureTraceID(ctx)
	logger.InfoContext(ctx, "Starting analysis",
		slog.String("input_dir", opts.inDir),
		slog.String("output", opts.outFile),
		slog.String("csv_dir", opts.csvDir))

	inputs, err := files.NewManager(paths, logger).LoadInputs(ctx, opts.inDir, cfg.Analysis.MaxFiles)
	if err != nil {
		return err
	}
	if len(inputs) == 0 {
		return fmt.Errorf("no .csv or .xlsx files in %s", opts.inDir)
	}

	reports := exporter.NewReportExporter(paths, logger)
	service := services.NewAnalysisService(cfg.Analysis, reports, nil, logger)

	result, err := service.Analyze(ctx, services.AnalyzeRequest{Files: inputs, SpikeThreshold: opts.spike})
	if err != nil {
		return err
	}

	printFiles(stdout, result.Files)
	if result.NothingToAnalyze {
		fmt.Fprintln(stdout, result.Notice)
		return nil
	}
	if !opts.quiet {
		printTables(stdout, exporter.Preview(result))
	}

	workbook, err := reports.SaveWorkbook(result, opts.outFile)
	if err != nil {
		return err
	}
	fmt.Fprintf(stdout, "workbook: %s\n", workbook)

	if opts.csvDir != "" {
		written, err := reports.SaveCSV(result, opts.csvDir)
		if err != nil {
			return err
		}
		for _, path := range written {
			fmt.Fprintf(stdout, "csv: %s\n", path)
		}
	}

	for _, r := range result.Remainders {
		fmt.Fprintf(stdout, "warning: %s has %.1f unallocated gas after %s\n",
			r.FurnaceID, r.UnallocatedGas, r.LastDate.Format("2006-01-02"))
	}
	return nil
}

func loadConfig(path string) (*config.Config, error) {
	if path == "" {
		return config.Load()
	}
	return config.LoadFile(path)
}

func printFiles(out io.Writer, reports []domain.FileReport) {
	tw := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "FILE\tKIND\tFURNACE\tROWS\tSTATUS")
	for _, f := range reports {
		status := "ok"
		if f.Skipped {
			status = "skipped"
		}
		if n := len(f.Issues); n > 0 {
			status = fmt.Sprintf("%s (%d issues)", status, n)
		}
		fmt.Fprintf(tw, "%s\t%s\t%s\t%d\t%s\n", f.Name, f.Kind, f.FurnaceID, f.Accepted, status)
	}
	tw.Flush()
	fmt.Fprintln(out)
}

func printTables(out io.Writer, tables []exporter.TextTable) {
	for _, t := range tables {
		fmt.Fprintf(out, "== %s ==\n", t.Name)
		tw := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
		fmt.Fprintln(tw, strings.Join(t.Headers, "\t"))
		for _, row := range t.Rows {
			fmt.Fprintln(tw, strings.Join(row, "\t"))
		}
		tw.Flush()
		fmt.Fprintln(out)
	}
}
