// Command processor summarizes campaign export files in batch. It
// matches files with a glob, runs each through the analytics pipeline
// and writes one summary per input into the output directory.
package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"golang.org/x/sync/errgroup"

	"mailpulse/internal/config"
	"mailpulse/internal/dataprocessing"
	"mailpulse/internal/exporter"
	"mailpulse/internal/infrastructure"
	"mailpulse/internal/ingest"
	"mailpulse/pkg/contracts/domain"
)

func main() {
	inGlob := flag.String("in", "*.csv", "glob matching campaign export files (.csv, .xlsx)")
	outDir := flag.String("out", "reports", "output directory for summary files")
	format := flag.String("format", "csv", "output format: csv or json")
	campaigns := flag.String("campaigns", "", "comma-separated campaign names to keep (empty keeps all)")
	providers := flag.String("providers", "", "comma-separated email providers to keep (empty keeps all)")
	from := flag.String("from", "", "start of the date range, YYYY-MM-DD (requires -to)")
	to := flag.String("to", "", "end of the date range inclusive, YYYY-MM-DD (requires -from)")
	overrides := flag.String("map", "", "column mapping overrides, e.g. emailAddress=Email,status=Delivery Status")
	workers := flag.Int("workers", 4, "number of files processed concurrently")
	flag.Parse()

	outFormat, err := exporter.ParseFormat(*format)
	if err != nil {
		slog.Error("Invalid output format", "format", *format, "error", err)
		os.Exit(1)
	}

	criteria, err := buildCriteria(*campaigns, *providers, *from, *to)
	if err != nil {
		slog.Error("Invalid filter flags", "error", err)
		os.Exit(1)
	}

	mappingOverrides, err := parseOverrides(*overrides)
	if err != nil {
		slog.Error("Invalid mapping overrides", "error", err)
		os.Exit(1)
	}

	cfg, err := config.Load()
	if err != nil {
		slog.Warn("Failed to load config, using defaults", "error", err)
		cfg = config.Default()
		cfg.Logging.Output = "stdout"
	}

	logger, err := infrastructure.InitializeLogger(cfg.Logging)
	if err != nil {
		slog.Warn("Failed to initialize logger, using default", "error", err)
		logger = slog.Default()
	}
	defer infrastructure.CloseLogFile()

	files, err := filepath.Glob(*inGlob)
	if err != nil {
		logger.Error("Invalid input glob", slog.String("glob", *inGlob), slog.String("error", err.Error()))
		os.Exit(1)
	}
	sort.Strings(files)

	logger.Info("Campaign files discovered",
		slog.String("glob", *inGlob),
		slog.Int("count", len(files)))
	fmt.Printf("Found %d campaign files\n", len(files))

	if len(files) == 0 {
		logger.Warn("No campaign files matched the input glob", slog.String("glob", *inGlob))
		return
	}

	if err := os.MkdirAll(*outDir, 0755); err != nil {
		logger.Error("Error creating output directory", slog.String("error", err.Error()))
		os.Exit(1)
	}

	pipeline := dataprocessing.NewPipeline(logger)
	writer := exporter.NewSummaryWriter(logger)

	start := time.Now()
	g, ctx := errgroup.WithContext(context.Background())
	g.SetLimit(*workers)

	for _, file := range files {
		file := file
		g.Go(func() error {
			return processFile(ctx, logger, pipeline, writer, file, *outDir, outFormat, mappingOverrides, criteria)
		})
	}

	if err := g.Wait(); err != nil {
		logger.Error("Processing failed", slog.String("error", err.Error()))
		os.Exit(1)
	}

	logger.Info("Processing complete",
		slog.Int("files", len(files)),
		slog.Duration("elapsed", time.Since(start)))
	fmt.Printf("Processing complete: %d files\n", len(files))
}

// processFile runs one export file through the pipeline and writes its
// summary next to the others in outDir.
func processFile(ctx context.Context, logger *slog.Logger, pipeline *dataprocessing.Pipeline, writer *exporter.SummaryWriter, file, outDir string, format exporter.Format, overrides domain.FieldMapping, criteria domain.FilterCriteria) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	logger.Info("Processing file", slog.String("filename", file))

	result, err := ingest.ParseFile(file)
	if err != nil {
		return fmt.Errorf("parse %s: %w", file, err)
	}

	mapping := dataprocessing.DetectColumns(result.Headers)
	for field, column := range overrides {
		mapping[field] = column
	}

	summary := pipeline.Process(ctx, result.Records, mapping, criteria)
	if summary == nil {
		logger.Warn("File produced no records, skipping summary",
			slog.String("filename", file))
		return nil
	}

	base := strings.TrimSuffix(filepath.Base(file), filepath.Ext(file))
	outPath := filepath.Join(outDir, fmt.Sprintf("%s-summary%s", base, format.Extension()))
	if err := writer.WriteFile(outPath, format, base, summary); err != nil {
		return fmt.Errorf("write summary for %s: %w", file, err)
	}

	logger.Info("Summary written",
		slog.String("filename", file),
		slog.String("output", outPath),
		slog.Int("total_sent", summary.TotalSent),
		slog.Float64("open_rate", summary.OpenRate))
	return nil
}

// buildCriteria assembles filter criteria from the CLI flags. Both date
// bounds must be given together; the interval is inclusive of the end
// day.
func buildCriteria(campaigns, providers, from, to string) (domain.FilterCriteria, error) {
	var criteria domain.FilterCriteria

	criteria.Campaigns = splitList(campaigns)
	criteria.Providers = splitList(providers)

	if (from == "") != (to == "") {
		return criteria, fmt.Errorf("-from and -to must be used together")
	}
	if from != "" {
		fromTime, err := time.Parse("2006-01-02", from)
		if err != nil {
			return criteria, fmt.Errorf("invalid -from date %q: %w", from, err)
		}
		toTime, err := time.Parse("2006-01-02", to)
		if err != nil {
			return criteria, fmt.Errorf("invalid -to date %q: %w", to, err)
		}
		toTime = toTime.Add(24*time.Hour - time.Nanosecond)
		if toTime.Before(fromTime) {
			return criteria, fmt.Errorf("-to date is before -from date")
		}
		criteria.DateFrom = &fromTime
		criteria.DateTo = &toTime
	}

	return criteria, nil
}

// parseOverrides parses field=Column pairs, validating the field names.
func parseOverrides(s string) (domain.FieldMapping, error) {
	overrides := make(domain.FieldMapping)
	for _, pair := range splitList(s) {
		field, column, ok := strings.Cut(pair, "=")
		if !ok || column == "" {
			return nil, fmt.Errorf("invalid mapping override %q, expected field=Column", pair)
		}
		if !domain.IsValidField(domain.Field(field)) {
			return nil, fmt.Errorf("unknown field %q in mapping override", field)
		}
		overrides[domain.Field(field)] = column
	}
	return overrides, nil
}

// splitList splits a comma-separated flag value, trimming whitespace
// and dropping empty entries.
func splitList(s string) []string {
	if strings.TrimSpace(s) == "" {
		return nil
	}
	var out []string
	for _, part := range strings.Split(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
