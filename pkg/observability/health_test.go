package observability

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"
)

func TestHealthChecker_AllHealthy(t *testing.T) {
	hc := NewHealthChecker("test")
	hc.Register(PingProbe())

	report := hc.Report(context.Background())
	if report.Status != HealthStatusHealthy {
		t.Errorf("status = %s, want healthy", report.Status)
	}
	if report.Probes["ping"].Status != HealthStatusHealthy {
		t.Errorf("ping = %+v", report.Probes["ping"])
	}
	if report.Version != "test" {
		t.Errorf("version = %q", report.Version)
	}
}

func TestHealthChecker_CriticalFailureIsUnhealthy(t *testing.T) {
	hc := NewHealthChecker("test")
	hc.Register(PingProbe())
	hc.Register(RedisProbe(func(context.Context) error {
		return errors.New("connection refused")
	}))

	report := hc.Report(context.Background())
	if report.Status != HealthStatusUnhealthy {
		t.Errorf("status = %s, want unhealthy", report.Status)
	}
	if report.Probes["redis"].Message != "connection refused" {
		t.Errorf("redis = %+v", report.Probes["redis"])
	}
}

func TestHealthChecker_NonCriticalFailureDegrades(t *testing.T) {
	hc := NewHealthChecker("test")
	hc.Register(ProviderProbe("provider", func(context.Context) error {
		return errors.New("search backend down")
	}))

	report := hc.Report(context.Background())
	if report.Status != HealthStatusDegraded {
		t.Errorf("status = %s, want degraded", report.Status)
	}
}

func TestHealthChecker_ProbeTimeout(t *testing.T) {
	hc := NewHealthChecker("test")
	hc.Register(Probe{
		Name: "slow",
		Check: func(ctx context.Context) error {
			<-ctx.Done()
			return ctx.Err()
		},
		Timeout:  20 * time.Millisecond,
		Critical: true,
	})

	report := hc.Report(context.Background())
	if report.Status != HealthStatusUnhealthy {
		t.Errorf("status = %s, want unhealthy", report.Status)
	}
}

func TestHealthHandlers(t *testing.T) {
	hc := NewHealthChecker("test")
	hc.Register(RedisProbe(func(context.Context) error {
		return errors.New("down")
	}))

	rec := httptest.NewRecorder()
	hc.Handler()(rec, httptest.NewRequest(http.MethodGet, "/health", nil))
	if rec.Code != http.StatusServiceUnavailable {
		t.Errorf("/health status = %d, want 503", rec.Code)
	}
	var report HealthReport
	if err := json.Unmarshal(rec.Body.Bytes(), &report); err != nil {
		t.Fatalf("decode report: %v", err)
	}
	if report.Status != HealthStatusUnhealthy {
		t.Errorf("report status = %s", report.Status)
	}

	rec = httptest.NewRecorder()
	hc.LivenessHandler()(rec, httptest.NewRequest(http.MethodGet, "/health/live", nil))
	if rec.Code != http.StatusOK {
		t.Errorf("/health/live status = %d, want 200", rec.Code)
	}

	rec = httptest.NewRecorder()
	hc.ReadinessHandler()(rec, httptest.NewRequest(http.MethodGet, "/health/ready", nil))
	if rec.Code != http.StatusServiceUnavailable {
		t.Errorf("/health/ready status = %d, want 503", rec.Code)
	}
}
