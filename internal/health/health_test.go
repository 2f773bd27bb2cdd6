package health

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
)

type stubPinger struct {
	err error
}

func (s *stubPinger) Ping(context.Context) error { return s.err }

func TestHandlerAllHealthy(t *testing.T) {
	h := NewHandler("1.2.3")
	h.RegisterChecker("storage", NewPingChecker("storage", &stubPinger{}))

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/health", nil))

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}

	var resp Response
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if resp.Status != StatusHealthy {
		t.Fatalf("overall status = %q, want healthy", resp.Status)
	}
	if resp.Version != "1.2.3" {
		t.Fatalf("version = %q, want 1.2.3", resp.Version)
	}
	if resp.Checks["storage"].Status != StatusHealthy {
		t.Fatalf("storage check = %+v, want healthy", resp.Checks["storage"])
	}
}

func TestHandlerUnhealthyComponent(t *testing.T) {
	h := NewHandler("dev")
	h.RegisterChecker("storage", NewPingChecker("storage", &stubPinger{err: errors.New("connection refused")}))
	h.RegisterChecker("broker", NewPingChecker("broker", &stubPinger{}))

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/health", nil))

	if rec.Code != http.StatusServiceUnavailable {
		t.Fatalf("status = %d, want 503", rec.Code)
	}

	var resp Response
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if resp.Status != StatusUnhealthy {
		t.Fatalf("overall status = %q, want unhealthy", resp.Status)
	}
	if resp.Checks["storage"].Message != "connection refused" {
		t.Fatalf("storage message = %q", resp.Checks["storage"].Message)
	}
}

func TestReadinessHandler(t *testing.T) {
	h := NewHandler("dev")
	h.RegisterChecker("storage", NewPingChecker("storage", &stubPinger{}))

	rec := httptest.NewRecorder()
	h.ReadinessHandler(rec, httptest.NewRequest(http.MethodGet, "/health/ready", nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("ready status = %d, want 200", rec.Code)
	}

	h.RegisterChecker("broker", NewPingChecker("broker", &stubPinger{err: errors.New("down")}))
	rec = httptest.NewRecorder()
	h.ReadinessHandler(rec, httptest.NewRequest(http.MethodGet, "/health/ready", nil))
	if rec.Code != http.StatusServiceUnavailable {
		t.Fatalf("ready status = %d, want 503", rec.Code)
	}
}

func TestLivenessHandler(t *testing.T) {
	rec := httptest.NewRecorder()
	LivenessHandler(rec, httptest.NewRequest(http.MethodGet, "/health/live", nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("live status = %d, want 200", rec.Code)
	}
}

func TestCheckFunc(t *testing.T) {
	h := NewHandler("dev")
	h.RegisterChecker("custom", CheckFunc(func(context.Context) Check {
		return Check{Name: "custom", Status: StatusHealthy}
	}))

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/health", nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
}
