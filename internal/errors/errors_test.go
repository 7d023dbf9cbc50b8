package errors

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAPIError_Error(t *testing.T) {
	err := New(http.StatusBadRequest, "INVALID_REQUEST", "Invalid request format")
	assert.Equal(t, "Invalid request format", err.Error())
}

func TestWriteError(t *testing.T) {
	rec := httptest.NewRecorder()
	WriteError(rec, SessionNotFoundError("abc-123"))

	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))

	var resp ErrorResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.False(t, resp.Success)
	assert.Equal(t, "SESSION_NOT_FOUND", resp.Error.ErrorCode)
	assert.Equal(t, "abc-123", resp.Error.Details)
}

func TestPredefinedErrors(t *testing.T) {
	tests := []struct {
		err        *APIError
		wantStatus int
		wantCode   string
	}{
		{ErrSessionNotFound, http.StatusNotFound, "SESSION_NOT_FOUND"},
		{ErrFileTooLarge, http.StatusRequestEntityTooLarge, "FILE_TOO_LARGE"},
		{ErrUnsupportedFormat, http.StatusUnsupportedMediaType, "UNSUPPORTED_FORMAT"},
		{ErrEmptyDataset, http.StatusBadRequest, "EMPTY_DATASET"},
		{ErrPipelineFailed, http.StatusInternalServerError, "PIPELINE_FAILED"},
		{ErrRateLimitExceeded, http.StatusTooManyRequests, "RATE_LIMIT_EXCEEDED"},
	}

	for _, tt := range tests {
		t.Run(tt.wantCode, func(t *testing.T) {
			assert.Equal(t, tt.wantStatus, tt.err.StatusCode)
			assert.Equal(t, tt.wantCode, tt.err.ErrorCode)
		})
	}
}

func TestProblemDetails_MarshalJSON(t *testing.T) {
	pd := NewProblemDetails(
		http.StatusNotFound,
		TypeSessionNotFound,
		"Not Found",
		"Dataset session not found",
		"/api/datasets/xyz",
	).WithExtension("trace_id", "trace-1")

	data, err := json.Marshal(pd)
	require.NoError(t, err)

	var got map[string]interface{}
	require.NoError(t, json.Unmarshal(data, &got))
	assert.Equal(t, TypeSessionNotFound, got["type"])
	assert.Equal(t, float64(http.StatusNotFound), got["status"])
	assert.Equal(t, "Dataset session not found", got["detail"])
	assert.Equal(t, "trace-1", got["trace_id"])
}

