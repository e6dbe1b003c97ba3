package endpoint

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"

	"github.com/kbukum/whisper-srt/component"
)

func serve(t *testing.T, h gin.HandlerFunc) (int, map[string]any) {
	t.Helper()
	gin.SetMode(gin.TestMode)
	engine := gin.New()
	engine.GET("/x", h)
	rr := httptest.NewRecorder()
	engine.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/x", http.NoBody))

	var body map[string]any
	if err := json.Unmarshal(rr.Body.Bytes(), &body); err != nil {
		t.Fatalf("invalid JSON: %v", err)
	}
	return rr.Code, body
}

func checker(statuses ...component.HealthStatus) HealthChecker {
	return func(context.Context) []component.Health {
		out := make([]component.Health, len(statuses))
		for i, s := range statuses {
			out[i] = component.Health{Name: "c", Status: s}
		}
		return out
	}
}

func TestHealth_Aggregation(t *testing.T) {
	tests := []struct {
		name     string
		checker  HealthChecker
		wantCode int
		want     string
	}{
		{"no checker", nil, http.StatusOK, "healthy"},
		{"all healthy", checker(component.StatusHealthy, component.StatusHealthy), http.StatusOK, "healthy"},
		{"degraded", checker(component.StatusHealthy, component.StatusDegraded), http.StatusOK, "degraded"},
		{"unhealthy wins", checker(component.StatusDegraded, component.StatusUnhealthy), http.StatusServiceUnavailable, "unhealthy"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			code, body := serve(t, Health("whisper-srt", tt.checker))
			if code != tt.wantCode {
				t.Errorf("expected %d, got %d", tt.wantCode, code)
			}
			if body["status"] != tt.want {
				t.Errorf("expected status %s, got %v", tt.want, body["status"])
			}
		})
	}
}

func TestReadiness(t *testing.T) {
	code, body := serve(t, Readiness("svc", checker(component.StatusDegraded)))
	if code != http.StatusOK || body["status"] != "ready" {
		t.Errorf("degraded service should stay ready, got %d %v", code, body["status"])
	}
	code, body = serve(t, Readiness("svc", checker(component.StatusUnhealthy)))
	if code != http.StatusServiceUnavailable || body["status"] != "not_ready" {
		t.Errorf("expected not_ready, got %d %v", code, body["status"])
	}
}

func TestLiveness(t *testing.T) {
	code, body := serve(t, Liveness("svc"))
	if code != http.StatusOK || body["status"] != "alive" {
		t.Errorf("unexpected liveness response %d %v", code, body)
	}
}

func TestMetrics_IncludesSources(t *testing.T) {
	src := func() (string, any) { return "worker_pool", map[string]int{"queued": 3} }
	_, body := serve(t, Metrics(src))

	pool, ok := body["worker_pool"].(map[string]any)
	if !ok {
		t.Fatalf("expected worker_pool section, got %v", body)
	}
	if pool["queued"] != float64(3) {
		t.Errorf("expected queued=3, got %v", pool["queued"])
	}
	if _, ok := body["goroutines"]; !ok {
		t.Error("expected runtime stats")
	}
}

func TestVersionAndInfo(t *testing.T) {
	_, body := serve(t, Version())
	if body["version"] == "" || body["version"] == nil {
		t.Errorf("expected version field, got %v", body)
	}
	_, body = serve(t, Info("svc"))
	if body["service"] != "svc" || body["build"] == nil {
		t.Errorf("unexpected info body %v", body)
	}
}
