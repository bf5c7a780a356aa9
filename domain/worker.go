// Package domain holds the types shared across the mediator's
// components: the Worker Manager, Decision Engine, Transcript Store,
// File Monitor, Status Aggregator and Streaming Gateway all speak this
// vocabulary instead of passing loosely-typed maps between each other.
package domain

import "time"

// WorkerState is the closed set of states a worker moves through.
// Only running and waiting_confirmation alternate; every other
// transition is one-directional, and terminal states are absorbing.
type WorkerState string

const (
	WorkerSpawning           WorkerState = "spawning"
	WorkerRunning            WorkerState = "running"
	WorkerWaitingConfirmation WorkerState = "waiting_confirmation"
	WorkerCompleted          WorkerState = "completed"
	WorkerFailed             WorkerState = "failed"
	WorkerTerminated         WorkerState = "terminated"
)

// IsTerminal reports whether state has no further transitions.
func (s WorkerState) IsTerminal() bool {
	switch s {
	case WorkerCompleted, WorkerFailed, WorkerTerminated:
		return true
	default:
		return false
	}
}

// Worker is the supervisor's in-memory record of one PTY-backed worker
// subprocess. The Worker Manager is its sole writer; every other
// component only ever reads a Snapshot.
type Worker struct {
	WorkerID  string
	Task      string
	State     WorkerState
	StartTime time.Time
	// FinishTime is zero until the worker reaches a terminal state.
	FinishTime time.Time

	WorkspaceDir string

	OutputLines        int64
	ConfirmationCount  int64
	LastActivity       time.Time
	ErrorMessage       string
}

// Snapshot is an immutable copy of a Worker's fields, safe to hand to
// readers (the Status Aggregator, the Streaming Gateway) without holding
// the owning lock.
type Snapshot struct {
	WorkerID          string    `json:"worker_id"`
	Task              string    `json:"task"`
	State             WorkerState `json:"state"`
	StartTime         time.Time `json:"start_time"`
	CompletedTime     *time.Time `json:"completed_time,omitempty"`
	OutputLines       int64     `json:"output_lines"`
	ConfirmationCount int64     `json:"confirmation_count"`
	LastActivity      time.Time `json:"last_activity"`
	ErrorMessage      string    `json:"error_message,omitempty"`

	// Derived fields, computed by the Status Aggregator (§4.6).
	ElapsedSeconds float64 `json:"elapsed_seconds"`
	Progress       int     `json:"progress"`
	Health         string  `json:"health"`
}

// Health levels for Snapshot.Health.
const (
	HealthHealthy = "healthy"
	HealthIdle    = "idle"
	HealthStalled = "stalled"
)
