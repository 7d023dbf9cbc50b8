package app

import (
	"bytes"
	"encoding/json"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"mailpulse/internal/infrastructure"
)

const sampleCSV = `Email,Status,Campaign Name
alice@gmail.com,delivered,Spring Sale
bob@yahoo.com,bounced,Spring Sale
`

// newTestApplication builds a full application against a clean
// environment: no config file and logging to stdout.
func newTestApplication(t *testing.T) *Application {
	t.Helper()

	t.Setenv("MAILPULSE_CONFIG_FILE", filepath.Join(t.TempDir(), "no-such-config.yaml"))
	t.Setenv("MAILPULSE_LOGGING_OUTPUT", "stdout")
	infrastructure.ResetLoggerForTesting()

	app, err := NewApplication()
	require.NoError(t, err)
	return app
}

func multipartBody(t *testing.T, filename, content string) (*bytes.Buffer, string) {
	t.Helper()

	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	part, err := mw.CreateFormFile("file", filename)
	require.NoError(t, err)
	_, err = part.Write([]byte(content))
	require.NoError(t, err)
	require.NoError(t, mw.Close())
	return &buf, mw.FormDataContentType()
}

func TestNewApplication(t *testing.T) {
	app := newTestApplication(t)

	assert.NotNil(t, app.Config)
	assert.NotNil(t, app.Router)
	assert.NotNil(t, app.Server)
	assert.NotNil(t, app.Metrics)
	assert.NotNil(t, app.WebSocketHub)
	assert.NotNil(t, app.Store)
	assert.NotNil(t, app.DatasetService)
	assert.NotNil(t, app.HealthService)
	assert.Equal(t, ":8080", app.Server.Addr)
}

func TestRouterHealthEndpoint(t *testing.T) {
	app := newTestApplication(t)

	req := httptest.NewRequest(http.MethodGet, "/api/health", nil)
	rec := httptest.NewRecorder()
	app.Router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)

	var status map[string]interface{}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &status))
	assert.Equal(t, "healthy", status["status"])
	assert.Equal(t, VERSION, status["version"])
	assert.NotEmpty(t, rec.Header().Get("X-Request-ID"))
}

func TestRouterMetricsEndpoint(t *testing.T) {
	app := newTestApplication(t)

	req := httptest.NewRequest(http.MethodGet, "/metrics", nil)
	rec := httptest.NewRecorder()
	app.Router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "mailpulse_active_sessions")
}

func TestRouterUnknownAPIRoute(t *testing.T) {
	app := newTestApplication(t)

	req := httptest.NewRequest(http.MethodGet, "/api/no-such-thing", nil)
	rec := httptest.NewRecorder()
	app.Router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusNotFound, rec.Code)

	var problem map[string]interface{}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &problem))
	assert.Equal(t, float64(http.StatusNotFound), problem["status"])
}

func TestRouterUploadFlow(t *testing.T) {
	app := newTestApplication(t)

	body, contentType := multipartBody(t, "spring.csv", sampleCSV)
	req := httptest.NewRequest(http.MethodPost, "/api/datasets", body)
	req.Header.Set("Content-Type", contentType)
	rec := httptest.NewRecorder()
	app.Router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	var created map[string]interface{}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &created))
	assert.NotEmpty(t, created["id"])
	assert.Equal(t, float64(2), created["row_count"])

	summary, ok := created["summary"].(map[string]interface{})
	require.True(t, ok)
	assert.Equal(t, float64(2), summary["total_sent"])
	assert.Equal(t, float64(1), summary["total_delivered"])

	// Upload should be visible in the metrics exposition
	mreq := httptest.NewRequest(http.MethodGet, "/metrics", nil)
	mrec := httptest.NewRecorder()
	app.Router.ServeHTTP(mrec, mreq)
	assert.Contains(t, mrec.Body.String(), `mailpulse_uploads_total{format="csv",status="ok"} 1`)
}

func TestRouterSecurityHeaders(t *testing.T) {
	app := newTestApplication(t)

	req := httptest.NewRequest(http.MethodGet, "/api/health", nil)
	rec := httptest.NewRecorder()
	app.Router.ServeHTTP(rec, req)

	assert.Equal(t, "nosniff", rec.Header().Get("X-Content-Type-Options"))
	assert.Equal(t, "DENY", rec.Header().Get("X-Frame-Options"))
}
