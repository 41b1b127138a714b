package app

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"retailpulse/internal/config"
	apierrors "retailpulse/internal/errors"
	"retailpulse/internal/middleware"
	"retailpulse/internal/shared/testutil"
	"retailpulse/pkg/contracts/events"
)

func testConfig(t *testing.T) *config.Config {
	t.Helper()
	cfg := config.Default()
	cfg.Server.Port = 0
	cfg.Server.ShutdownTimeout = 5 * time.Second
	cfg.Paths = config.PathsConfig{
		DataDir:   t.TempDir(),
		ExportDir: t.TempDir(),
		LogsDir:   t.TempDir(),
	}
	cfg.Security.RateLimit.Enabled = false
	cfg.Analysis.SampleRows = 300
	return cfg
}

func newTestApp(t *testing.T, cfg *config.Config) (*Application, *testutil.CaptureHandler) {
	t.Helper()
	logger, logs := testutil.NewTestLogger(t)
	app, err := New(cfg, logger)
	require.NoError(t, err)
	t.Cleanup(func() { _ = app.OTelProviders.Shutdown(context.Background()) })
	return app, logs
}

func do(t *testing.T, h http.Handler, method, target, body string, header ...string) *httptest.ResponseRecorder {
	t.Helper()
	var req *http.Request
	if body == "" {
		req = httptest.NewRequest(method, target, nil)
	} else {
		req = httptest.NewRequest(method, target, strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
	}
	for i := 0; i+1 < len(header); i += 2 {
		req.Header.Set(header[i], header[i+1])
	}
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func jsonBody(t *testing.T, rec *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var body map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body), rec.Body.String())
	return body
}

func rowsBody(t *testing.T) string {
	t.Helper()
	b, err := json.Marshal(map[string]any{"name": "q1", "rows": testutil.RetailRows()})
	require.NoError(t, err)
	return string(b)
}

func TestApplication_HealthRoutes(t *testing.T) {
	app, _ := newTestApp(t, testConfig(t))

	for _, path := range []string{"/api/health", "/api/health/live", "/api/version", "/api/metrics/runtime"} {
		rec := do(t, app.Router, http.MethodGet, path, "")
		assert.Equal(t, http.StatusOK, rec.Code, path)
	}

	// The hub is wired even before Start, so readiness only depends on the directories.
	rec := do(t, app.Router, http.MethodGet, "/api/health/ready", "")
	assert.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	rec = do(t, app.Router, http.MethodGet, "/api/health", "")
	assert.NotEmpty(t, rec.Header().Get("X-Request-ID"))
	assert.Equal(t, "nosniff", rec.Header().Get("X-Content-Type-Options"))
}

func TestApplication_AnalysisFlow(t *testing.T) {
	app, logs := newTestApp(t, testConfig(t))
	r := app.Router

	rec := do(t, r, http.MethodGet, "/api/analysis", "")
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec = do(t, r, http.MethodPost, "/api/dataset/rows", rowsBody(t))
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	data := jsonBody(t, rec)["data"].(map[string]any)
	core := data["result"].(map[string]any)["core_metrics"].(map[string]any)
	assert.InDelta(t, 650.0, core["total_revenue"], 1e-9)
	assert.EqualValues(t, 4, data["dataset"].(map[string]any)["rows"])

	rec = do(t, r, http.MethodPost, "/api/analysis", `{"categories":["Electronics"]}`)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	core = jsonBody(t, rec)["data"].(map[string]any)["core_metrics"].(map[string]any)
	assert.InDelta(t, 150.0, core["total_revenue"], 1e-9)

	rec = do(t, r, http.MethodPost, "/api/analysis", `{"products":["Nothing"]}`)
	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)
	assert.Equal(t, apierrors.TypeFilterEmpty, jsonBody(t, rec)["type"])

	rec = do(t, r, http.MethodDelete, "/api/analysis/filters", "")
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	rec = do(t, r, http.MethodGet, "/api/analysis/tables/top_products?sort=Revenue&dir=asc", "")
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	rows := jsonBody(t, rec)["data"].(map[string]any)["rows"].([]any)
	require.NotEmpty(t, rows)
	assert.Equal(t, "Cable", rows[0].(map[string]any)["product"])

	rec = do(t, r, http.MethodGet, "/api/analysis/tables/reorder_alerts/export", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.True(t, bytes.HasPrefix(rec.Body.Bytes(), []byte("\uFEFF")))
	assert.Contains(t, rec.Body.String(), "Gadget")

	rec = do(t, r, http.MethodPost, "/api/analysis/export?format=csv", "")
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	assert.EqualValues(t, 4, jsonBody(t, rec)["count"])

	assert.True(t, logs.ContainsMessage("dataset loaded"))
}

func TestApplication_PrometheusMetrics(t *testing.T) {
	app, logs := newTestApp(t, testConfig(t))

	rec := do(t, app.Router, http.MethodPost, "/api/dataset/sample?rows=200", "")
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	rec = do(t, app.Router, http.MethodGet, "/metrics", "")
	require.Equal(t, http.StatusOK, rec.Code)
	body := rec.Body.String()
	assert.Contains(t, body, "analysis_runs")
	assert.Contains(t, body, "http_requests")
	assert.Contains(t, body, "dataset_loads")
	testutil.AssertNoErrors(t, logs)
}

func TestApplication_MetricsDisabled(t *testing.T) {
	cfg := testConfig(t)
	cfg.Telemetry.MetricsEnabled = false
	app, _ := newTestApp(t, cfg)

	rec := do(t, app.Router, http.MethodGet, "/metrics", "")
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestApplication_NotFoundAndMethod(t *testing.T) {
	app, _ := newTestApp(t, testConfig(t))

	rec := do(t, app.Router, http.MethodGet, "/api/nowhere", "")
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Equal(t, apierrors.TypeNotFound, jsonBody(t, rec)["type"])

	rec = do(t, app.Router, http.MethodGet, "/somewhere/else", "")
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestApplication_APIKey(t *testing.T) {
	cfg := testConfig(t)
	hash, err := middleware.HashAPIKey("s3cret")
	require.NoError(t, err)
	cfg.Security.APIKeyHash = hash
	app, _ := newTestApp(t, cfg)

	rec := do(t, app.Router, http.MethodPost, "/api/dataset/rows", rowsBody(t))
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	rec = do(t, app.Router, http.MethodPost, "/api/dataset/rows", rowsBody(t), middleware.APIKeyHeader, "wrong")
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	rec = do(t, app.Router, http.MethodGet, "/api/guide", "")
	assert.Equal(t, http.StatusOK, rec.Code)

	rec = do(t, app.Router, http.MethodPost, "/api/dataset/rows", rowsBody(t), middleware.APIKeyHeader, "s3cret")
	assert.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
}

func TestApplication_CORSPreflight(t *testing.T) {
	app, _ := newTestApp(t, testConfig(t))

	req := httptest.NewRequest(http.MethodOptions, "/api/analysis", nil)
	req.Header.Set("Origin", "http://localhost:8080")
	req.Header.Set("Access-Control-Request-Method", http.MethodPost)
	rec := httptest.NewRecorder()
	app.Router.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusNoContent, rec.Code)
	assert.Equal(t, "http://localhost:8080", rec.Header().Get("Access-Control-Allow-Origin"))
}

func TestApplication_StartLoadsSample(t *testing.T) {
	cfg := testConfig(t)
	cfg.Analysis.LoadSample = true
	app, logs := newTestApp(t, cfg)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	require.NoError(t, app.Start(ctx, cancel))

	assert.True(t, app.Analysis.HasDataset())
	res, err := app.Analysis.Result()
	require.NoError(t, err)
	assert.Positive(t, res.Core.TotalRevenue)

	require.NoError(t, app.Stop(context.Background()))
	assert.True(t, logs.ContainsMessage("application shutdown complete"))
}

func TestApplication_WebSocketProgress(t *testing.T) {
	app, _ := newTestApp(t, testConfig(t))
	app.WebSocketHub.Start()
	defer app.WebSocketHub.Stop()

	srv := httptest.NewServer(app.Router)
	defer srv.Close()

	conn, _, err := websocket.DefaultDialer.Dial("ws"+strings.TrimPrefix(srv.URL, "http")+"/ws", nil)
	require.NoError(t, err)
	defer conn.Close()
	require.NoError(t, conn.SetReadDeadline(time.Now().Add(5*time.Second)))

	var msg events.WebSocketMessage
	require.NoError(t, conn.ReadJSON(&msg))
	require.Equal(t, events.MessageTypeConnect, msg.Type)

	resp, err := http.Post(srv.URL+"/api/dataset/sample?rows=100", "application/json", nil)
	require.NoError(t, err)
	resp.Body.Close()
	require.Equal(t, http.StatusCreated, resp.StatusCode)

	seen := map[events.MessageType]int{}
	for seen[events.MessageTypeAnalysisCompleted] == 0 {
		var m events.WebSocketMessage
		require.NoError(t, conn.ReadJSON(&m))
		seen[m.Type]++
	}
	assert.Equal(t, 1, seen[events.MessageTypeDatasetLoaded])
	assert.GreaterOrEqual(t, seen[events.MessageTypeAnalysisStage], 6)
}
