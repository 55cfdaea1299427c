package observability

import (
	"errors"
	"testing"
	"time"

	"github.com/tripgo-dev/tripgo/internal/workflow"
	"github.com/tripgo-dev/tripgo/pkg/session"
)

var (
	_ workflow.Observer = (*WorkflowMetrics)(nil)
	_ session.Listener  = (*SessionMetrics)(nil)
)

func TestWorkflowMetrics_TracksRunDuration(t *testing.T) {
	InitMetrics()
	m := NewWorkflowMetrics()

	m.OnWorkflowStart("sess-1")
	m.OnStepExecuted("sess-1", "analyze_preferences")
	m.OnWorkflowComplete("sess-1", 3)

	// The start entry is consumed on completion.
	if _, ok := m.starts.Load("sess-1"); ok {
		t.Error("start entry should be removed after completion")
	}
}

func TestWorkflowMetrics_DistinguishesFatalFromDegraded(t *testing.T) {
	InitMetrics()
	m := NewWorkflowMetrics()

	m.OnWorkflowStart("sess-2")
	m.OnError("sess-2", errors.New("sub-analysis itinerary_planning degraded: boom"))
	if _, ok := m.starts.Load("sess-2"); !ok {
		t.Error("degraded errors must not consume the start entry")
	}

	m.OnError("sess-2", &workflow.ExecutionError{State: workflow.StateError, Err: errors.New("boom")})
	if _, ok := m.starts.Load("sess-2"); ok {
		t.Error("fatal errors end the run")
	}
}

func TestSessionMetrics_ActiveGauge(t *testing.T) {
	InitMetrics()
	m := NewSessionMetrics()

	sess := &session.Session{ID: "sess-3"}
	m.OnSessionStarted(sess)
	m.OnSessionStarted(&session.Session{ID: "sess-4"})
	if got := m.active.Load(); got != 2 {
		t.Errorf("active = %d, want 2", got)
	}

	m.OnSessionEnded(sess, time.Second)
	if got := m.active.Load(); got != 1 {
		t.Errorf("active = %d, want 1", got)
	}
}
