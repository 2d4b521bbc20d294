package bootstrap

// Phase is the lifecycle position of an Orchestrator.
type Phase string

// Orchestrator phases. A run moves NotStarted → Running → Completed|Aborted;
// a new Start from a terminal phase goes back to Running.
const (
	PhaseNotStarted Phase = "not_started"
	PhaseRunning    Phase = "running"
	PhaseCompleted  Phase = "completed"
	PhaseAborted    Phase = "aborted"
)

// Terminal reports whether p ends a run.
func (p Phase) Terminal() bool {
	return p == PhaseCompleted || p == PhaseAborted
}
