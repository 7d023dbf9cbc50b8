package http

import (
	"bytes"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/render"

	"mailpulse/internal/config"
	apierrors "mailpulse/internal/errors"
	"mailpulse/internal/ingest"
	"mailpulse/internal/middleware"
	"mailpulse/internal/services"
	"mailpulse/internal/session"
	"mailpulse/pkg/contracts/domain"
)

// DatasetHandler handles dataset-related HTTP requests with RFC 7807 compliance
type DatasetHandler struct {
	service      DatasetServiceInterface
	upload       config.UploadConfig
	logger       *slog.Logger
	errorHandler *apierrors.ErrorHandler
	validator    *middleware.ValidationMiddleware
}

// NewDatasetHandler creates a new dataset handler with RFC 7807 error handling
func NewDatasetHandler(service DatasetServiceInterface, upload config.UploadConfig, logger *slog.Logger, errorHandler *apierrors.ErrorHandler) *DatasetHandler {
	return &DatasetHandler{
		service:      service,
		upload:       upload,
		logger:       logger.With(slog.String("component", "dataset_handler")),
		errorHandler: errorHandler,
		validator:    middleware.NewValidationMiddleware(logger, errorHandler),
	}
}

// Routes returns the dataset routes with proper Chi patterns
func (h *DatasetHandler) Routes() chi.Router {
	r := chi.NewRouter()

	// Resource routes following REST patterns
	r.Post("/", h.Upload)

	r.Route("/{id}", func(r chi.Router) {
		r.Use(h.DatasetCtx)
		r.Get("/", h.Get)
		r.Delete("/", h.Delete)
		r.Put("/mapping", h.UpdateMapping)
		r.Put("/filters", h.UpdateFilters)
		r.Get("/summary", h.Summary)
		r.Get("/export/{format}", h.Export)
	})

	return r
}

// DatasetCtx middleware validates the dataset ID parameter
func (h *DatasetHandler) DatasetCtx(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if chi.URLParam(r, "id") == "" {
			h.errorHandler.HandleError(w, r, apierrors.ErrValidation("id", "Dataset ID is required"))
			return
		}
		next.ServeHTTP(w, r)
	})
}

// MappingRequest is the payload for PUT /{id}/mapping
type MappingRequest struct {
	Mapping map[string]string `json:"mapping" validate:"required"`
}

// FiltersRequest is the payload for PUT /{id}/filters. Dates accept
// RFC 3339 timestamps or plain YYYY-MM-DD dates.
type FiltersRequest struct {
	Campaigns []string `json:"campaigns"`
	DateFrom  string   `json:"date_from"`
	DateTo    string   `json:"date_to"`
	Providers []string `json:"providers"`
}

// datasetResponse augments a session with its current summary.
type datasetResponse struct {
	session.Session
	Summary *domain.AggregateSummary `json:"summary"`
}

func newDatasetResponse(s session.Session) datasetResponse {
	return datasetResponse{Session: s, Summary: s.Summary}
}

// Upload handles POST /api/datasets
func (h *DatasetHandler) Upload(w http.ResponseWriter, r *http.Request) {
	reqID := chimiddleware.GetReqID(r.Context())

	r.Body = http.MaxBytesReader(w, r.Body, h.upload.MaxFileSize)

	file, header, err := r.FormFile("file")
	if err != nil {
		var maxBytesErr *http.MaxBytesError
		if errors.As(err, &maxBytesErr) {
			h.errorHandler.HandleError(w, r, apierrors.ErrFileTooLarge)
			return
		}
		h.errorHandler.HandleError(w, r, apierrors.ErrValidation("file", "A file upload is required"))
		return
	}
	defer file.Close()

	h.logger.InfoContext(r.Context(), "dataset upload received",
		slog.String("request_id", reqID),
		slog.String("filename", header.Filename),
		slog.Int64("size", header.Size),
	)

	sess, err := h.service.Upload(r.Context(), header.Filename, file)
	if err != nil {
		h.handleServiceError(w, r, err)
		return
	}

	render.Status(r, http.StatusCreated)
	render.JSON(w, r, newDatasetResponse(sess))
}

// Get handles GET /api/datasets/{id}
func (h *DatasetHandler) Get(w http.ResponseWriter, r *http.Request) {
	sess, err := h.service.Get(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		h.handleServiceError(w, r, err)
		return
	}
	render.JSON(w, r, newDatasetResponse(sess))
}

// UpdateMapping handles PUT /api/datasets/{id}/mapping
func (h *DatasetHandler) UpdateMapping(w http.ResponseWriter, r *http.Request) {
	var req MappingRequest
	if err := render.DecodeJSON(r.Body, &req); err != nil {
		h.errorHandler.HandleError(w, r, apierrors.InvalidRequestWithError(err))
		return
	}
	if err := h.validator.ValidateStruct(req); err != nil {
		h.errorHandler.HandleError(w, r, err)
		return
	}

	mapping := make(domain.FieldMapping, len(req.Mapping))
	for field, column := range req.Mapping {
		mapping[domain.Field(field)] = column
	}

	sess, err := h.service.UpdateMapping(r.Context(), chi.URLParam(r, "id"), mapping)
	if err != nil {
		h.handleServiceError(w, r, err)
		return
	}
	render.JSON(w, r, newDatasetResponse(sess))
}

// UpdateFilters handles PUT /api/datasets/{id}/filters
func (h *DatasetHandler) UpdateFilters(w http.ResponseWriter, r *http.Request) {
	var req FiltersRequest
	if err := render.DecodeJSON(r.Body, &req); err != nil {
		h.errorHandler.HandleError(w, r, apierrors.InvalidRequestWithError(err))
		return
	}

	criteria := domain.FilterCriteria{
		Campaigns: req.Campaigns,
		Providers: req.Providers,
	}

	from, err := parseFilterDate(req.DateFrom, false)
	if err != nil {
		h.errorHandler.HandleError(w, r, apierrors.ErrValidation("date_from", err.Error()))
		return
	}
	to, err := parseFilterDate(req.DateTo, true)
	if err != nil {
		h.errorHandler.HandleError(w, r, apierrors.ErrValidation("date_to", err.Error()))
		return
	}
	criteria.DateFrom = from
	criteria.DateTo = to

	sess, err := h.service.UpdateFilters(r.Context(), chi.URLParam(r, "id"), criteria)
	if err != nil {
		h.handleServiceError(w, r, err)
		return
	}
	render.JSON(w, r, newDatasetResponse(sess))
}

// Summary handles GET /api/datasets/{id}/summary
func (h *DatasetHandler) Summary(w http.ResponseWriter, r *http.Request) {
	summary, err := h.service.Summary(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		h.handleServiceError(w, r, err)
		return
	}
	if summary == nil {
		h.errorHandler.HandleError(w, r, apierrors.ErrEmptyDataset)
		return
	}
	render.JSON(w, r, summary)
}

// Export handles GET /api/datasets/{id}/export/{format}
func (h *DatasetHandler) Export(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	formatParam := chi.URLParam(r, "format")

	// Buffer the export so failures can still produce an error response.
	var buf bytes.Buffer
	format, err := h.service.Export(r.Context(), &buf, id, formatParam)
	if err != nil {
		h.handleServiceError(w, r, err)
		return
	}

	filename := fmt.Sprintf("campaign-summary-%s%s", id, format.Extension())
	w.Header().Set("Content-Type", format.ContentType())
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", filename))
	w.WriteHeader(http.StatusOK)
	w.Write(buf.Bytes())
}

// Delete handles DELETE /api/datasets/{id}
func (h *DatasetHandler) Delete(w http.ResponseWriter, r *http.Request) {
	if err := h.service.Delete(r.Context(), chi.URLParam(r, "id")); err != nil {
		h.handleServiceError(w, r, err)
		return
	}
	render.NoContent(w, r)
}

// handleServiceError maps service errors to API errors
func (h *DatasetHandler) handleServiceError(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case errors.Is(err, services.ErrSessionNotFound):
		h.errorHandler.HandleError(w, r, apierrors.SessionNotFoundError(chi.URLParam(r, "id")))
	case errors.Is(err, services.ErrStoreFull):
		h.errorHandler.HandleError(w, r, apierrors.NewWithDetails(
			http.StatusServiceUnavailable,
			"SERVICE_UNAVAILABLE",
			"Session store is full, retry after sessions expire",
			nil,
		))
	case errors.Is(err, services.ErrTooManyRows):
		h.errorHandler.HandleError(w, r, apierrors.ErrValidation("file", err.Error()))
	case errors.Is(err, services.ErrInvalidMapping):
		h.errorHandler.HandleError(w, r, apierrors.ErrValidation("mapping", err.Error()))
	case errors.Is(err, services.ErrInvalidFormat):
		h.errorHandler.HandleError(w, r, apierrors.ErrValidation("format", err.Error()))
	case errors.Is(err, services.ErrNoSummary):
		h.errorHandler.HandleError(w, r, apierrors.ErrEmptyDataset)
	case errors.Is(err, ingest.ErrUnsupportedFormat):
		h.errorHandler.HandleError(w, r, apierrors.UnsupportedFormatError(err.Error()))
	case errors.Is(err, ingest.ErrEmptyFile), errors.Is(err, ingest.ErrNoDataRows), errors.Is(err, ingest.ErrNoHeaders):
		h.errorHandler.HandleError(w, r, apierrors.NewWithDetails(
			http.StatusBadRequest,
			"EMPTY_DATASET",
			"Uploaded file contains no data rows",
			err.Error(),
		))
	default:
		h.errorHandler.HandleError(w, r, err)
	}
}

// parseFilterDate parses a filter boundary. Plain dates extend to the
// end of the day when endOfDay is set, so a date range is inclusive of
// its final day.
func parseFilterDate(value string, endOfDay bool) (*time.Time, error) {
	if value == "" {
		return nil, nil
	}
	if t, err := time.Parse(time.RFC3339, value); err == nil {
		return &t, nil
	}
	t, err := time.Parse("2006-01-02", value)
	if err != nil {
		return nil, fmt.Errorf("must be an RFC 3339 timestamp or YYYY-MM-DD date")
	}
	if endOfDay {
		t = t.Add(24*time.Hour - time.Nanosecond)
	}
	return &t, nil
}
