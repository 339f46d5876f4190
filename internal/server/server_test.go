package server

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"solarsmart/api/internal/config"
	"solarsmart/api/internal/handlers"
	"solarsmart/api/internal/metrics"
)

func testConfig() *config.AppConfig {
	return &config.AppConfig{
		Environment:      "test",
		Metrics:          config.MetricsConfig{Enabled: true, Namespace: "solarsmart"},
		AllowCORSOrigins: []string{"https://dashboard.example"},
	}
}

func serve(t *testing.T, h http.Handler, req *http.Request) *httptest.ResponseRecorder {
	t.Helper()
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func TestMetricsEndpointCountsRoutes(t *testing.T) {
	cfg := testConfig()
	m := metrics.New(cfg.Metrics.Namespace)
	engine := NewEngine(cfg, zerolog.Nop(), handlers.NewHandlerSet(zerolog.Nop(), cfg, handlers.Dependencies{}), m)

	rec := serve(t, engine, httptest.NewRequest(http.MethodGet, "/api/healthz", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	assert.NotEmpty(t, rec.Header().Get("X-Request-Id"))

	serve(t, engine, httptest.NewRequest(http.MethodGet, "/api/nope", nil))

	rec = serve(t, engine, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	body := rec.Body.String()
	assert.Contains(t, body, `solarsmart_http_requests_total{method="GET",path="/api/healthz",status="200"} 1`)
	assert.Contains(t, body, `path="unmatched"`)
	assert.Contains(t, body, "go_goroutines")
}

func TestMetricsDisabled(t *testing.T) {
	cfg := testConfig()
	cfg.Metrics.Enabled = false
	engine := NewEngine(cfg, zerolog.Nop(), handlers.NewHandlerSet(zerolog.Nop(), cfg, handlers.Dependencies{}), nil)

	rec := serve(t, engine, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec = serve(t, engine, httptest.NewRequest(http.MethodGet, "/api/healthz", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestCORSPreflight(t *testing.T) {
	cfg := testConfig()
	engine := NewEngine(cfg, zerolog.Nop(), handlers.NewHandlerSet(zerolog.Nop(), cfg, handlers.Dependencies{}), nil)

	req := httptest.NewRequest(http.MethodOptions, "/api/login", nil)
	req.Header.Set("Origin", "https://dashboard.example")
	rec := serve(t, engine, req)
	assert.Equal(t, http.StatusNoContent, rec.Code)
	assert.Equal(t, "https://dashboard.example", rec.Header().Get("Access-Control-Allow-Origin"))
	assert.Contains(t, rec.Header().Get("Access-Control-Allow-Headers"), "Authorization")

	req = httptest.NewRequest(http.MethodOptions, "/api/login", nil)
	req.Header.Set("Origin", "https://evil.example")
	rec = serve(t, engine, req)
	assert.Empty(t, rec.Header().Get("Access-Control-Allow-Origin"))
}
