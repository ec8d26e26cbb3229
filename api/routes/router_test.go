package routes

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/vendapos/venda-backend/pkg/config"
	"github.com/vendapos/venda-backend/pkg/logger"
	"github.com/vendapos/venda-backend/pkg/redis"
)

type stubPinger struct{}

func (stubPinger) Ping(context.Context) error {
	return nil
}

func testRouter(t *testing.T, cfg *config.Config) http.Handler {
	t.Helper()
	logg := logger.New(logger.Options{ServiceName: "test", Output: io.Discard})
	return NewRouter(cfg, logg, stubPinger{}, &redis.Client{}, nil, nil, nil, nil, nil, prometheus.NewRegistry())
}

func testConfig() *config.Config {
	return &config.Config{
		App:     config.AppConfig{Env: "test", Port: "8080"},
		Metrics: config.MetricsConfig{Enabled: true, Path: "/metrics"},
	}
}

func TestHealthRoutes(t *testing.T) {
	router := testRouter(t, testConfig())

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/health/live", nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("live: expected 200, got %d", rec.Code)
	}
	if env := rec.Header().Get("X-Venda-Env"); env != "test" {
		t.Fatalf("expected env header, got %q", env)
	}

	rec = httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/health/ready", nil))
	// the zero-value redis client fails its ping, readiness must report it
	if rec.Code != http.StatusServiceUnavailable {
		t.Fatalf("ready: expected 503 with unreachable redis, got %d", rec.Code)
	}
}

func TestMetricsRoute(t *testing.T) {
	router := testRouter(t, testConfig())

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200 from metrics, got %d", rec.Code)
	}
}

func TestMetricsRouteDisabled(t *testing.T) {
	cfg := testConfig()
	cfg.Metrics.Enabled = false
	router := testRouter(t, cfg)

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	if rec.Code != http.StatusNotFound {
		t.Fatalf("expected 404 with metrics disabled, got %d", rec.Code)
	}
}

func TestCommitRouteRequiresIdempotencyKey(t *testing.T) {
	router := testRouter(t, testConfig())

	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/api/v1/checkout/sessions/3a9f7c1e-8e1a-4b7e-9a62-0f1f6a3a8d11/commit", nil)
	router.ServeHTTP(rec, req)
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 without Idempotency-Key, got %d", rec.Code)
	}
}

func TestInvalidSessionIDRejected(t *testing.T) {
	router := testRouter(t, testConfig())

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/v1/checkout/sessions/not-a-uuid", nil))
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 for malformed session id, got %d", rec.Code)
	}
}
