package server

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/ternarybob/arbor"

	"github.com/ternarybob/govspend/internal/app"
	"github.com/ternarybob/govspend/internal/common"
)

func newTestServer(t *testing.T) *Server {
	t.Helper()

	cfg := common.NewDefaultConfig()
	cfg.Storage.Badger.Path = filepath.Join(t.TempDir(), "govspend")
	// nothing listens here, so upstream calls fail fast
	cfg.USAspending.BaseURL = "http://127.0.0.1:1"
	cfg.Enrichment.Enabled = false

	application, err := app.New(cfg, arbor.NewLogger())
	require.NoError(t, err)
	t.Cleanup(func() { application.Close() })

	return New(application)
}

func serve(t *testing.T, s *Server, method, path, body string) (*httptest.ResponseRecorder, map[string]interface{}) {
	t.Helper()

	var req *http.Request
	if body != "" {
		req = httptest.NewRequest(method, path, strings.NewReader(body))
	} else {
		req = httptest.NewRequest(method, path, nil)
	}
	rec := httptest.NewRecorder()
	s.Handler().ServeHTTP(rec, req)

	var decoded map[string]interface{}
	if rec.Body.Len() > 0 {
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &decoded), rec.Body.String())
	}
	return rec, decoded
}

func TestRoutes_System(t *testing.T) {
	s := newTestServer(t)

	rec, body := serve(t, s, http.MethodGet, "/api/health", "")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "ok", body["status"])
	assert.Equal(t, "*", rec.Header().Get("Access-Control-Allow-Origin"))

	rec, body = serve(t, s, http.MethodGet, "/api/version", "")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, body, "version")

	rec, body = serve(t, s, http.MethodGet, "/api/nope", "")
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Equal(t, "/api/nope", body["path"])

	rec, body = serve(t, s, http.MethodDelete, "/api/health", "")
	assert.Equal(t, http.StatusMethodNotAllowed, rec.Code)
	assert.Equal(t, "error", body["status"])

	rec, _ = serve(t, s, http.MethodOptions, "/api/analyze", "")
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestRoutes_Analyze(t *testing.T) {
	s := newTestServer(t)

	payload := `{
		"as_of": "2024-01-01",
		"records": [
			{"id": "C1", "amount": 2000000, "recipient": "Acme", "agency": "Department of Defense", "period_of_performance": {"end_date": "2024-05-01"}},
			{"id": "C2", "amount": "250000", "recipient": "Acme", "agency": "NASA", "period_of_performance": {"end_date": "2026-01-01"}},
			{"id": "C3", "amount": 50000, "recipient": "Initech", "agency": "NASA"}
		]
	}`
	rec, body := serve(t, s, http.MethodPost, "/api/analyze", payload)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.NotEmpty(t, body["run_id"])
	assert.Equal(t, float64(3), body["overview"].(map[string]interface{})["record_count"])

	rec, _ = serve(t, s, http.MethodPost, "/api/analyze", `{"records": `)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestRoutes_CompaniesUpstreamDown(t *testing.T) {
	s := newTestServer(t)

	rec, body := serve(t, s, http.MethodGet, "/api/companies", "")
	assert.Equal(t, http.StatusBadGateway, rec.Code)
	assert.Equal(t, "error", body["status"])

	rec, _ = serve(t, s, http.MethodGet, "/api/companies/Acme", "")
	assert.Equal(t, http.StatusBadGateway, rec.Code)
}

func TestRoutes_SchedulerJobs(t *testing.T) {
	s := newTestServer(t)

	rec, body := serve(t, s, http.MethodGet, "/api/scheduler/jobs", "")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, false, body["running"])

	rec, _ = serve(t, s, http.MethodPost, "/api/scheduler/jobs/missing/trigger", "")
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestRoutes_SnapshotsEmptyStore(t *testing.T) {
	s := newTestServer(t)

	rec, body := serve(t, s, http.MethodGet, "/api/snapshots", "")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, float64(0), body["count"])
	assert.Equal(t, []interface{}{}, body["snapshots"])
}
