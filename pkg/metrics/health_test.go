package metrics

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
)

func TestGetHealth_AllHealthy(t *testing.T) {
	reset()
	UpdateComponent("reconciler", true, "")
	UpdateComponent("backend", true, "")

	health := GetHealth()
	if health.Status != "healthy" {
		t.Errorf("Expected healthy, got %s", health.Status)
	}
	if len(health.Components) != 2 {
		t.Errorf("Expected 2 components, got %d", len(health.Components))
	}
}

func TestGetHealth_UnhealthyComponent(t *testing.T) {
	reset()
	UpdateComponent("reconciler", true, "")
	UpdateComponent("backend", false, "connection refused")

	health := GetHealth()
	if health.Status != "unhealthy" {
		t.Errorf("Expected unhealthy, got %s", health.Status)
	}
	if health.Components["backend"] != "unhealthy: connection refused" {
		t.Errorf("Unexpected component status: %s", health.Components["backend"])
	}
}

func TestHealthHandler(t *testing.T) {
	reset()
	UpdateComponent("reconciler", true, "")

	rec := httptest.NewRecorder()
	HealthHandler(rec, httptest.NewRequest(http.MethodGet, "/healthz", nil))

	if rec.Code != http.StatusOK {
		t.Errorf("Expected 200, got %d", rec.Code)
	}

	var health HealthStatus
	if err := json.Unmarshal(rec.Body.Bytes(), &health); err != nil {
		t.Fatalf("Failed to decode response: %v", err)
	}
	if health.Status != "healthy" {
		t.Errorf("Expected healthy, got %s", health.Status)
	}
}

func TestHealthHandler_Unhealthy(t *testing.T) {
	reset()
	UpdateComponent("backend", false, "down")

	rec := httptest.NewRecorder()
	HealthHandler(rec, httptest.NewRequest(http.MethodGet, "/healthz", nil))

	if rec.Code != http.StatusServiceUnavailable {
		t.Errorf("Expected 503, got %d", rec.Code)
	}
}
