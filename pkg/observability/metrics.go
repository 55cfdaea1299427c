package observability

import (
	"context"
	"net/http"
	"runtime"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	// Dispatch metrics
	dispatchRequestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "tripgo_dispatch_requests_total",
			Help: "Total number of dispatched skill requests",
		},
		[]string{"skill", "status"},
	)

	dispatchDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "tripgo_dispatch_duration_seconds",
			Help:    "Skill request duration in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"skill"},
	)

	streamChunksTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "tripgo_stream_chunks_total",
			Help: "Total number of streamed chunks",
		},
		[]string{"kind"},
	)

	// Workflow metrics
	workflowRunsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "tripgo_workflow_runs_total",
			Help: "Total number of workflow runs",
		},
		[]string{"status"},
	)

	workflowDuration = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "tripgo_workflow_duration_seconds",
			Help:    "Workflow run duration in seconds",
			Buckets: prometheus.DefBuckets,
		},
	)

	workflowStepsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "tripgo_workflow_steps_total",
			Help: "Total number of executed workflow steps",
		},
		[]string{"step"},
	)

	workflowDegradedTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "tripgo_workflow_degraded_total",
			Help: "Total number of degraded sub-analyses",
		},
	)

	// Session metrics
	activeSessions = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "tripgo_active_sessions",
			Help: "Number of currently open sessions",
		},
	)

	sessionsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "tripgo_sessions_total",
			Help: "Total number of session lifecycle events",
		},
		[]string{"event"},
	)

	sessionDuration = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "tripgo_session_duration_seconds",
			Help:    "Session open duration in seconds",
			Buckets: prometheus.DefBuckets,
		},
	)

	// System metrics
	goroutines = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "tripgo_goroutines",
			Help: "Number of goroutines",
		},
	)

	memoryUsage = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "tripgo_memory_usage_bytes",
			Help: "Memory usage in bytes",
		},
	)

	initOnce sync.Once
)

// InitMetrics registers all Prometheus metrics.
func InitMetrics() {
	initOnce.Do(func() {
		prometheus.MustRegister(
			dispatchRequestsTotal,
			dispatchDuration,
			streamChunksTotal,
			workflowRunsTotal,
			workflowDuration,
			workflowStepsTotal,
			workflowDegradedTotal,
			activeSessions,
			sessionsTotal,
			sessionDuration,
			goroutines,
			memoryUsage,
		)
	})
}

// MetricsHandler returns an HTTP handler for Prometheus metrics.
func MetricsHandler() http.Handler {
	return promhttp.Handler()
}

// RecordDispatch records one dispatched skill request.
func RecordDispatch(skill, status string, duration time.Duration) {
	dispatchRequestsTotal.WithLabelValues(skill, status).Inc()
	dispatchDuration.WithLabelValues(skill).Observe(duration.Seconds())
}

// RecordStreamChunk records one streamed chunk by kind.
func RecordStreamChunk(kind string) {
	streamChunksTotal.WithLabelValues(kind).Inc()
}

// RecordWorkflowRun records one completed or failed workflow run.
func RecordWorkflowRun(status string, duration time.Duration) {
	workflowRunsTotal.WithLabelValues(status).Inc()
	workflowDuration.Observe(duration.Seconds())
}

// RecordWorkflowStep records one executed workflow step.
func RecordWorkflowStep(step string) {
	workflowStepsTotal.WithLabelValues(step).Inc()
}

// RecordWorkflowDegraded records one degraded sub-analysis.
func RecordWorkflowDegraded() {
	workflowDegradedTotal.Inc()
}

// SetActiveSessions sets the open session gauge.
func SetActiveSessions(count int) {
	activeSessions.Set(float64(count))
}

// RecordSessionStarted records one opened session.
func RecordSessionStarted() {
	sessionsTotal.WithLabelValues("started").Inc()
}

// RecordSessionEnded records one closed session with its open duration.
func RecordSessionEnded(duration time.Duration) {
	sessionsTotal.WithLabelValues("ended").Inc()
	sessionDuration.Observe(duration.Seconds())
}

// CollectRuntimeMetrics samples the goroutine and memory gauges every
// interval until ctx is cancelled.
func CollectRuntimeMetrics(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		var m runtime.MemStats
		runtime.ReadMemStats(&m)
		SetGoroutines(runtime.NumGoroutine())
		SetMemoryUsage(m.Alloc)

		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
		}
	}
}

// SetGoroutines sets the goroutines gauge.
func SetGoroutines(count int) {
	goroutines.Set(float64(count))
}

// SetMemoryUsage sets the memory usage gauge.
func SetMemoryUsage(bytes uint64) {
	memoryUsage.Set(float64(bytes))
}
