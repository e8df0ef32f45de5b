package handler

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/hitoshi/taskman/internal/metrics"
	"github.com/prometheus/client_golang/prometheus"
)

// mockHealthChecker はHealthCheckerのテスト用モック。
type mockHealthChecker struct {
	pingFn func(ctx context.Context) error
}

func (m *mockHealthChecker) PingContext(ctx context.Context) error {
	if m.pingFn != nil {
		return m.pingFn(ctx)
	}
	return nil
}

func TestHealthEndpoint_HealthyDB_Returns200(t *testing.T) {
	router := newTestRouter(t, testRouterOptions{
		healthChecker: &mockHealthChecker{},
	})

	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	resp := w.Result()
	if resp.StatusCode != http.StatusOK {
		t.Errorf("status = %d, want %d", resp.StatusCode, http.StatusOK)
	}
	if !strings.Contains(w.Body.String(), `"status":"ok"`) {
		t.Errorf("body = %q, want status ok", w.Body.String())
	}
}

func TestHealthEndpoint_UnreachableDB_Returns503(t *testing.T) {
	router := newTestRouter(t, testRouterOptions{
		healthChecker: &mockHealthChecker{
			pingFn: func(ctx context.Context) error {
				return errors.New("connection refused")
			},
		},
	})

	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	resp := w.Result()
	if resp.StatusCode != http.StatusServiceUnavailable {
		t.Errorf("status = %d, want %d", resp.StatusCode, http.StatusServiceUnavailable)
	}
	if !strings.Contains(w.Body.String(), `"status":"unavailable"`) {
		t.Errorf("body = %q, want status unavailable", w.Body.String())
	}
}

// DBなしで起動した場合（チェッカーがnil）はヘルスチェックは常にOK。
func TestHealthEndpoint_NilChecker_Returns200(t *testing.T) {
	router := newTestRouter(t, testRouterOptions{})

	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	if w.Result().StatusCode != http.StatusOK {
		t.Errorf("status = %d, want %d", w.Result().StatusCode, http.StatusOK)
	}
}

func TestOpenAPIEndpoint_ServesEmbeddedSpec(t *testing.T) {
	router := newTestRouter(t, testRouterOptions{})

	req := httptest.NewRequest(http.MethodGet, "/api/docs/openapi.yaml", nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	resp := w.Result()
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d, want %d", resp.StatusCode, http.StatusOK)
	}
	if got := resp.Header.Get("Content-Type"); got != "application/yaml" {
		t.Errorf("Content-Type = %q, want %q", got, "application/yaml")
	}
	if !strings.Contains(w.Body.String(), "openapi:") {
		t.Error("body does not look like an OpenAPI document")
	}
}

func TestMetricsEndpoint_ServesPrometheusMetrics(t *testing.T) {
	reg := prometheus.NewRegistry()
	collector := metrics.NewCollector(reg)

	router := newTestRouter(t, testRouterOptions{
		metrics:  collector,
		gatherer: reg,
	})

	// 何かリクエストを処理してからスクレイプする
	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	router.ServeHTTP(httptest.NewRecorder(), req)

	req = httptest.NewRequest(http.MethodGet, "/metrics", nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	resp := w.Result()
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d, want %d", resp.StatusCode, http.StatusOK)
	}
	if !strings.Contains(w.Body.String(), "taskman_http_requests_total") {
		t.Error("metrics output does not contain request counter")
	}
}

func TestRouter_UnknownRoute_Returns404(t *testing.T) {
	router := newTestRouter(t, testRouterOptions{})

	req := httptest.NewRequest(http.MethodGet, "/api/unknown", nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	if w.Result().StatusCode != http.StatusNotFound {
		t.Errorf("status = %d, want %d", w.Result().StatusCode, http.StatusNotFound)
	}
}
