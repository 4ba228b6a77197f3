package app

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/inventory-ds/inventory-ds/internal/observability"
)

func testRouter(t *testing.T, checks map[string]HealthCheck) http.Handler {
	t.Helper()
	t.Setenv(TestModeEnv, "1")
	RefreshTestMode()
	require.True(t, InTestMode())
	return NewRouter(RouterParams{
		Logger:       slog.New(slog.NewTextHandler(io.Discard, nil)),
		Config:       &Config{AppEnv: "development"},
		Metrics:      observability.NewMetrics(),
		HealthChecks: checks,
	})
}

func TestHealthz(t *testing.T) {
	h := testRouter(t, map[string]HealthCheck{"postgres": func(context.Context) error { return nil }})
	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/healthz", nil))
	require.Equal(t, http.StatusOK, rr.Code)
	require.JSONEq(t, `{"status":"ok","checks":{"postgres":"ok"}}`, rr.Body.String())
	require.Equal(t, "nosniff", rr.Header().Get("X-Content-Type-Options"))
}

func TestHealthzDegraded(t *testing.T) {
	h := testRouter(t, map[string]HealthCheck{"redis": func(context.Context) error { return errors.New("dial refused") }})
	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/healthz", nil))
	require.Equal(t, http.StatusServiceUnavailable, rr.Code)
	require.Contains(t, rr.Body.String(), "degraded")
}

func TestUnknownRouteIsProblem(t *testing.T) {
	rr := httptest.NewRecorder()
	testRouter(t, nil).ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/nope", nil))
	require.Equal(t, http.StatusNotFound, rr.Code)
	require.Equal(t, "application/problem+json", rr.Header().Get("Content-Type"))
}

func TestMetricsRoute(t *testing.T) {
	h := testRouter(t, nil)
	h.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/healthz", nil))
	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	require.Equal(t, http.StatusOK, rr.Code)
	require.Contains(t, rr.Body.String(), "inventory_http_requests_total")
}

func TestEnableTestModeKeepsExplicitValue(t *testing.T) {
	t.Setenv(TestModeEnv, "0")
	EnableTestMode()
	require.False(t, InTestMode())

	t.Setenv(TestModeEnv, "1")
	RefreshTestMode()
	require.True(t, InTestMode())
}
