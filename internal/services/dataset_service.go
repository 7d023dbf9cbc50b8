package services

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"path/filepath"
	"strings"

	"mailpulse/internal/config"
	"mailpulse/internal/exporter"
	"mailpulse/internal/ingest"
	"mailpulse/internal/session"
	"mailpulse/pkg/contracts/domain"
)

// UploadMetrics receives upload observations. *infrastructure.Metrics
// satisfies this.
type UploadMetrics interface {
	RecordUpload(format, status string)
	RecordIngestedRows(n int)
}

// DatasetService is the facade the transport layer talks to. It owns
// ingestion, session lifecycle and export on behalf of the handlers.
type DatasetService struct {
	store   *session.Store
	writer  *exporter.SummaryWriter
	upload  config.UploadConfig
	metrics UploadMetrics
	logger  *slog.Logger
}

// NewDatasetService creates a dataset service.
func NewDatasetService(store *session.Store, writer *exporter.SummaryWriter, upload config.UploadConfig, metrics UploadMetrics, logger *slog.Logger) *DatasetService {
	if logger == nil {
		logger = slog.Default()
	}
	return &DatasetService{
		store:   store,
		writer:  writer,
		upload:  upload,
		metrics: metrics,
		logger:  logger.With(slog.String("component", "dataset_service")),
	}
}

// Upload parses an uploaded file and creates a dataset session for it.
func (s *DatasetService) Upload(ctx context.Context, filename string, r io.Reader) (session.Session, error) {
	format := strings.TrimPrefix(strings.ToLower(filepath.Ext(filename)), ".")

	result, err := ingest.Parse(r, filename)
	if err != nil {
		s.recordUpload(format, "error")
		return session.Session{}, fmt.Errorf("failed to parse %q: %w", filename, err)
	}

	if s.upload.MaxRows > 0 && len(result.Records) > s.upload.MaxRows {
		s.recordUpload(format, "error")
		return session.Session{}, fmt.Errorf("%w: %d rows (limit %d)", ErrTooManyRows, len(result.Records), s.upload.MaxRows)
	}

	sess, err := s.store.Create(ctx, filename, result.Headers, result.Records)
	if err != nil {
		s.recordUpload(format, "error")
		if errors.Is(err, session.ErrStoreFull) {
			return session.Session{}, ErrStoreFull
		}
		return session.Session{}, err
	}

	s.recordUpload(format, "ok")
	if s.metrics != nil {
		s.metrics.RecordIngestedRows(len(result.Records))
	}

	s.logger.InfoContext(ctx, "dataset uploaded",
		slog.String("session_id", sess.ID),
		slog.String("filename", filename),
		slog.Int("rows", sess.RowCount),
	)

	return sess, nil
}

// Get returns the session for id.
func (s *DatasetService) Get(ctx context.Context, id string) (session.Session, error) {
	sess, err := s.store.Get(id)
	if err != nil {
		return session.Session{}, s.mapStoreErr(err)
	}
	return sess, nil
}

// UpdateMapping validates and applies a new column mapping. Unknown
// fields and columns absent from the dataset's headers are rejected.
func (s *DatasetService) UpdateMapping(ctx context.Context, id string, mapping domain.FieldMapping) (session.Session, error) {
	sess, err := s.store.Get(id)
	if err != nil {
		return session.Session{}, s.mapStoreErr(err)
	}

	headers := make(map[string]struct{}, len(sess.Headers))
	for _, h := range sess.Headers {
		headers[h] = struct{}{}
	}

	for field, column := range mapping {
		if !domain.IsValidField(field) {
			return session.Session{}, fmt.Errorf("%w: unknown field %q", ErrInvalidMapping, field)
		}
		if _, ok := headers[column]; !ok {
			return session.Session{}, fmt.Errorf("%w: column %q not present in dataset", ErrInvalidMapping, column)
		}
	}

	updated, err := s.store.UpdateMapping(ctx, id, mapping)
	if err != nil {
		return session.Session{}, s.mapStoreErr(err)
	}
	return updated, nil
}

// UpdateFilters applies new filter criteria.
func (s *DatasetService) UpdateFilters(ctx context.Context, id string, criteria domain.FilterCriteria) (session.Session, error) {
	updated, err := s.store.UpdateFilters(ctx, id, criteria)
	if err != nil {
		return session.Session{}, s.mapStoreErr(err)
	}
	return updated, nil
}

// Summary returns the current aggregate summary for the session. The
// summary is nil when the dataset had no raw rows.
func (s *DatasetService) Summary(ctx context.Context, id string) (*domain.AggregateSummary, error) {
	sess, err := s.store.Get(id)
	if err != nil {
		return nil, s.mapStoreErr(err)
	}
	return sess.Summary, nil
}

// Export streams the session's summary to w in the requested format.
func (s *DatasetService) Export(ctx context.Context, w io.Writer, id, format string) (exporter.Format, error) {
	f, err := exporter.ParseFormat(format)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrInvalidFormat, err)
	}

	sess, err := s.store.Get(id)
	if err != nil {
		return "", s.mapStoreErr(err)
	}
	if sess.Summary == nil {
		return "", ErrNoSummary
	}

	if err := s.writer.Write(w, f, id, sess.Summary); err != nil {
		return "", fmt.Errorf("failed to export summary: %w", err)
	}

	s.logger.InfoContext(ctx, "summary exported",
		slog.String("session_id", id),
		slog.String("format", string(f)),
	)

	return f, nil
}

// Delete removes a dataset session.
func (s *DatasetService) Delete(ctx context.Context, id string) error {
	if err := s.store.Delete(id); err != nil {
		return s.mapStoreErr(err)
	}
	s.logger.InfoContext(ctx, "session deleted", slog.String("session_id", id))
	return nil
}

func (s *DatasetService) mapStoreErr(err error) error {
	switch {
	case errors.Is(err, session.ErrNotFound):
		return ErrSessionNotFound
	case errors.Is(err, session.ErrStoreFull):
		return ErrStoreFull
	default:
		return err
	}
}

func (s *DatasetService) recordUpload(format, status string) {
	if s.metrics != nil {
		s.metrics.RecordUpload(format, status)
	}
}
