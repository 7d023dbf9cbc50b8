package http

import (
	"context"
	"io"

	"mailpulse/internal/exporter"
	"mailpulse/internal/session"
	"mailpulse/pkg/contracts/domain"
)

// DatasetServiceInterface defines the interface for dataset operations
type DatasetServiceInterface interface {
	Upload(ctx context.Context, filename string, r io.Reader) (session.Session, error)
	Get(ctx context.Context, id string) (session.Session, error)
	UpdateMapping(ctx context.Context, id string, mapping domain.FieldMapping) (session.Session, error)
	UpdateFilters(ctx context.Context, id string, criteria domain.FilterCriteria) (session.Session, error)
	Summary(ctx context.Context, id string) (*domain.AggregateSummary, error)
	Export(ctx context.Context, w io.Writer, id, format string) (exporter.Format, error)
	Delete(ctx context.Context, id string) error
}
