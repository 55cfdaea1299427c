package workflow

import (
	"log"
)

// Observer receives workflow lifecycle events. The engine's correctness
// never depends on any observer being registered; observers must not
// block and must tolerate concurrent calls during the parallel phase.
type Observer interface {
	// OnWorkflowStart fires when a run enters the state machine.
	OnWorkflowStart(sessionID string)
	// OnStateChange fires on every state transition.
	OnStateChange(sessionID string, from, to State)
	// OnStepExecuted fires after each analysis step, including degraded
	// parallel sub-analyses.
	OnStepExecuted(sessionID, step string)
	// OnWorkflowComplete fires when a run reaches StateCompleted.
	OnWorkflowComplete(sessionID string, recommendations int)
	// OnError fires when a run escapes to StateError, and once per
	// degraded parallel sub-analysis. Fatal errors are *ExecutionError.
	OnError(sessionID string, err error)
}

// NopObserver implements Observer with no-ops, for embedding.
type NopObserver struct{}

func (NopObserver) OnWorkflowStart(string)             {}
func (NopObserver) OnStateChange(string, State, State) {}
func (NopObserver) OnStepExecuted(string, string)      {}
func (NopObserver) OnWorkflowComplete(string, int)     {}
func (NopObserver) OnError(string, error)              {}

// LogObserver writes lifecycle events to the standard logger.
type LogObserver struct{}

func (LogObserver) OnWorkflowStart(sessionID string) {
	log.Printf("workflow %s: started", sessionID)
}

func (LogObserver) OnStateChange(sessionID string, from, to State) {
	log.Printf("workflow %s: %s -> %s", sessionID, from, to)
}

func (LogObserver) OnStepExecuted(sessionID, step string) {
	log.Printf("workflow %s: step %s done", sessionID, step)
}

func (LogObserver) OnWorkflowComplete(sessionID string, recommendations int) {
	log.Printf("workflow %s: completed with %d recommendations", sessionID, recommendations)
}

func (LogObserver) OnError(sessionID string, err error) {
	log.Printf("workflow %s: error: %v", sessionID, err)
}
