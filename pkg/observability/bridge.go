package observability

import (
	"errors"
	"sync"
	"sync/atomic"
	"time"

	"github.com/tripgo-dev/tripgo/internal/workflow"
	"github.com/tripgo-dev/tripgo/pkg/session"
)

// WorkflowMetrics feeds workflow lifecycle events into Prometheus.
// Register it on the engine with workflow.WithObserver.
type WorkflowMetrics struct {
	workflow.NopObserver
	starts sync.Map // session ID -> start time
}

// NewWorkflowMetrics creates a workflow metrics observer.
func NewWorkflowMetrics() *WorkflowMetrics {
	return &WorkflowMetrics{}
}

func (m *WorkflowMetrics) OnWorkflowStart(sessionID string) {
	m.starts.Store(sessionID, time.Now())
}

func (m *WorkflowMetrics) OnStepExecuted(sessionID, step string) {
	RecordWorkflowStep(step)
}

func (m *WorkflowMetrics) OnWorkflowComplete(sessionID string, recommendations int) {
	RecordWorkflowRun("completed", m.elapsed(sessionID))
}

func (m *WorkflowMetrics) OnError(sessionID string, err error) {
	var execErr *workflow.ExecutionError
	if errors.As(err, &execErr) {
		RecordWorkflowRun("error", m.elapsed(sessionID))
		return
	}
	// Non-fatal errors are degraded sub-analyses.
	RecordWorkflowDegraded()
}

func (m *WorkflowMetrics) elapsed(sessionID string) time.Duration {
	v, ok := m.starts.LoadAndDelete(sessionID)
	if !ok {
		return 0
	}
	return time.Since(v.(time.Time))
}

// SessionMetrics feeds session lifecycle events into Prometheus.
// Register it on the manager with session.WithListener.
type SessionMetrics struct {
	active atomic.Int64
}

// NewSessionMetrics creates a session metrics listener.
func NewSessionMetrics() *SessionMetrics {
	return &SessionMetrics{}
}

func (m *SessionMetrics) OnSessionStarted(sess *session.Session) {
	RecordSessionStarted()
	SetActiveSessions(int(m.active.Add(1)))
}

func (m *SessionMetrics) OnSessionEnded(sess *session.Session, duration time.Duration) {
	RecordSessionEnded(duration)
	SetActiveSessions(int(m.active.Add(-1)))
}
