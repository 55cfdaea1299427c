package observability

import (
	"context"
	"encoding/json"
	"net/http"
	"runtime"
	"sort"
	"sync"
	"time"
)

// HealthStatus is the aggregate condition of the agent.
type HealthStatus string

const (
	HealthStatusHealthy   HealthStatus = "healthy"
	HealthStatusDegraded  HealthStatus = "degraded"
	HealthStatusUnhealthy HealthStatus = "unhealthy"
)

// Probe checks one collaborator of the agent. A failing critical probe
// makes the whole agent unhealthy; a failing non-critical probe only
// degrades it.
type Probe struct {
	Name     string
	Check    func(context.Context) error
	Timeout  time.Duration
	Critical bool
}

// HealthChecker aggregates probe results into a report for the
// observability endpoints. Safe for concurrent use.
type HealthChecker struct {
	mu        sync.RWMutex
	probes    []Probe
	startedAt time.Time
	version   string
}

// ProbeResult is the evaluated outcome of one probe.
type ProbeResult struct {
	Status    HealthStatus `json:"status"`
	Message   string       `json:"message,omitempty"`
	CheckedAt time.Time    `json:"checked_at"`
	Duration  string       `json:"duration"`
}

// HealthReport is the full payload of the /health endpoint.
type HealthReport struct {
	Status    HealthStatus           `json:"status"`
	Timestamp time.Time              `json:"timestamp"`
	Version   string                 `json:"version"`
	Uptime    string                 `json:"uptime"`
	Probes    map[string]ProbeResult `json:"probes"`
	Runtime   RuntimeInfo            `json:"runtime"`
}

// RuntimeInfo is a snapshot of the Go runtime.
type RuntimeInfo struct {
	Goroutines int    `json:"goroutines"`
	CPUs       int    `json:"cpus"`
	AllocMB    uint64 `json:"alloc_mb"`
	SysMB      uint64 `json:"sys_mb"`
}

// NewHealthChecker creates a checker reporting the given agent version.
func NewHealthChecker(version string) *HealthChecker {
	return &HealthChecker{
		startedAt: time.Now(),
		version:   version,
	}
}

// Register adds a probe. Probes without a timeout get 5 seconds.
func (hc *HealthChecker) Register(p Probe) {
	if p.Timeout <= 0 {
		p.Timeout = 5 * time.Second
	}
	hc.mu.Lock()
	defer hc.mu.Unlock()
	hc.probes = append(hc.probes, p)
}

// Report runs every probe and aggregates the results.
func (hc *HealthChecker) Report(ctx context.Context) HealthReport {
	hc.mu.RLock()
	probes := make([]Probe, len(hc.probes))
	copy(probes, hc.probes)
	hc.mu.RUnlock()

	sort.Slice(probes, func(i, j int) bool { return probes[i].Name < probes[j].Name })

	status := HealthStatusHealthy
	results := make(map[string]ProbeResult, len(probes))
	for _, p := range probes {
		result := runProbe(ctx, p)
		results[p.Name] = result

		switch {
		case result.Status == HealthStatusUnhealthy:
			status = HealthStatusUnhealthy
		case result.Status == HealthStatusDegraded && status == HealthStatusHealthy:
			status = HealthStatusDegraded
		}
	}

	var m runtime.MemStats
	runtime.ReadMemStats(&m)

	return HealthReport{
		Status:    status,
		Timestamp: time.Now(),
		Version:   hc.version,
		Uptime:    time.Since(hc.startedAt).Round(time.Second).String(),
		Probes:    results,
		Runtime: RuntimeInfo{
			Goroutines: runtime.NumGoroutine(),
			CPUs:       runtime.NumCPU(),
			AllocMB:    m.Alloc / 1024 / 1024,
			SysMB:      m.Sys / 1024 / 1024,
		},
	}
}

func runProbe(ctx context.Context, p Probe) ProbeResult {
	start := time.Now()

	ctx, cancel := context.WithTimeout(ctx, p.Timeout)
	defer cancel()

	errCh := make(chan error, 1)
	go func() { errCh <- p.Check(ctx) }()

	var err error
	select {
	case err = <-errCh:
	case <-ctx.Done():
		err = ctx.Err()
	}

	result := ProbeResult{
		Status:    HealthStatusHealthy,
		Message:   "OK",
		CheckedAt: start,
		Duration:  time.Since(start).String(),
	}
	if err != nil {
		result.Message = err.Error()
		if p.Critical {
			result.Status = HealthStatusUnhealthy
		} else {
			result.Status = HealthStatusDegraded
		}
	}
	return result
}

// Handler serves the full health report. Unhealthy reports get a 503.
func (hc *HealthChecker) Handler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		report := hc.Report(r.Context())

		w.Header().Set("Content-Type", "application/json")
		if report.Status == HealthStatusUnhealthy {
			w.WriteHeader(http.StatusServiceUnavailable)
		}
		_ = json.NewEncoder(w).Encode(report)
	}
}

// LivenessHandler serves the liveness probe. It never fails: a process
// that can answer is alive.
func (hc *HealthChecker) LivenessHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(map[string]string{"status": "alive"})
	}
}

// ReadinessHandler serves the readiness probe. Only a fully healthy
// agent is ready for traffic.
func (hc *HealthChecker) ReadinessHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		report := hc.Report(r.Context())

		w.Header().Set("Content-Type", "application/json")
		if report.Status != HealthStatusHealthy {
			w.WriteHeader(http.StatusServiceUnavailable)
			_ = json.NewEncoder(w).Encode(map[string]string{"status": "not ready"})
			return
		}
		_ = json.NewEncoder(w).Encode(map[string]string{"status": "ready"})
	}
}

// PingProbe always succeeds. It keeps the report non-empty on agents
// with no external collaborators.
func PingProbe() Probe {
	return Probe{
		Name:    "ping",
		Check:   func(context.Context) error { return nil },
		Timeout: time.Second,
	}
}

// RedisProbe checks the Redis session store. Critical: the agent cannot
// open sessions without it.
func RedisProbe(ping func(context.Context) error) Probe {
	return Probe{
		Name:     "redis",
		Check:    ping,
		Critical: true,
	}
}

// ProviderProbe checks a destination provider. Non-critical: a failing
// provider degrades recommendations but status inquiries still work.
func ProviderProbe(name string, check func(context.Context) error) Probe {
	return Probe{
		Name:    name,
		Check:   check,
		Timeout: 10 * time.Second,
	}
}
