package dataprocessing

import (
	"context"
	"log/slog"

	"mailpulse/pkg/contracts/domain"
)

// Pipeline composes the processing stages into one entry point:
// normalize → filter → aggregate. It holds no state between calls; every
// run is an independent computation over its inputs.
type Pipeline struct {
	logger *slog.Logger
}

// NewPipeline creates a pipeline with the given logger.
func NewPipeline(logger *slog.Logger) *Pipeline {
	if logger == nil {
		logger = slog.Default()
	}
	return &Pipeline{
		logger: logger.With(slog.String("component", "pipeline")),
	}
}

// Process runs the full pipeline over the raw rows. With zero raw records
// it produces no summary and returns nil; callers holding a previous
// summary keep it untouched, which is observably different from a zeroed
// summary.
func (p *Pipeline) Process(ctx context.Context, raw []domain.RawRecord, mapping domain.FieldMapping, criteria domain.FilterCriteria) *domain.AggregateSummary {
	if len(raw) == 0 {
		p.logger.DebugContext(ctx, "skipping pipeline run, no raw records")
		return nil
	}

	normalized := NormalizeRecords(raw, mapping)
	filtered := ApplyFilters(normalized, criteria)
	summary := Aggregate(filtered)

	p.logger.InfoContext(ctx, "pipeline run complete",
		slog.Int("raw_records", len(raw)),
		slog.Int("filtered_records", len(filtered)),
		slog.Int("total_delivered", summary.TotalDelivered),
		slog.Int("total_opened", summary.TotalOpened),
		slog.Int("total_clicked", summary.TotalClicked))

	return &summary
}
