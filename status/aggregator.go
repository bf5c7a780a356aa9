// Package status implements the Worker Status Aggregator (§4.6): a
// cheap read API over in-flight worker state for the web UI, with
// derived progress/health fields computed on every read.
package status

import (
	"sync"
	"time"

	"github.com/relaykit/mediator/domain"
)

// entry is the aggregator's per-worker record. Every mutation goes
// through its own lock, so one worker's update never blocks a read of
// another worker's status.
type entry struct {
	mu sync.RWMutex
	w  domain.Worker
}

// Aggregator holds one entry per known worker, keyed by worker ID.
type Aggregator struct {
	mu      sync.RWMutex
	workers map[string]*entry
}

// NewAggregator builds an empty Aggregator.
func NewAggregator() *Aggregator {
	return &Aggregator{workers: make(map[string]*entry)}
}

// Register adds a newly spawned worker. Re-registering an existing
// worker ID overwrites its record. A zero LastActivity is taken to be
// StartTime, so a just-registered worker starts out healthy.
func (a *Aggregator) Register(w domain.Worker) {
	if w.LastActivity.IsZero() {
		w.LastActivity = w.StartTime
	}
	a.mu.Lock()
	defer a.mu.Unlock()
	a.workers[w.WorkerID] = &entry{w: w}
}

// UpdateState sets a worker's state, stamping FinishTime the first time
// it becomes terminal.
func (a *Aggregator) UpdateState(workerID string, state domain.WorkerState) {
	e := a.get(workerID)
	if e == nil {
		return
	}
	e.mu.Lock()
	defer e.mu.Unlock()
	e.w.State = state
	if state.IsTerminal() && e.w.FinishTime.IsZero() {
		e.w.FinishTime = time.Now()
	}
}

// UpdateOutputMetrics adds newLines to the worker's output line count
// and bumps LastActivity.
func (a *Aggregator) UpdateOutputMetrics(workerID string, newLines int64) {
	e := a.get(workerID)
	if e == nil {
		return
	}
	e.mu.Lock()
	defer e.mu.Unlock()
	e.w.OutputLines += newLines
	e.w.LastActivity = time.Now()
}

// UpdateConfirmationCount increments the worker's confirmation counter.
func (a *Aggregator) UpdateConfirmationCount(workerID string) {
	e := a.get(workerID)
	if e == nil {
		return
	}
	e.mu.Lock()
	defer e.mu.Unlock()
	e.w.ConfirmationCount++
	e.w.LastActivity = time.Now()
}

// UpdateErrorMessage records the failure reason for a worker.
func (a *Aggregator) UpdateErrorMessage(workerID, message string) {
	e := a.get(workerID)
	if e == nil {
		return
	}
	e.mu.Lock()
	defer e.mu.Unlock()
	e.w.ErrorMessage = message
}

// RemoveWorker drops a worker's record entirely (used once a worker's
// files and subscriptions have all been released).
func (a *Aggregator) RemoveWorker(workerID string) {
	a.mu.Lock()
	defer a.mu.Unlock()
	delete(a.workers, workerID)
}

func (a *Aggregator) get(workerID string) *entry {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return a.workers[workerID]
}

// GetStatus returns the derived Snapshot for one worker, or ok=false if
// it is not known.
func (a *Aggregator) GetStatus(workerID string) (domain.Snapshot, bool) {
	e := a.get(workerID)
	if e == nil {
		return domain.Snapshot{}, false
	}
	e.mu.RLock()
	defer e.mu.RUnlock()
	return snapshot(e.w), true
}

// ListAll returns a Snapshot for every known worker, in no particular
// order.
func (a *Aggregator) ListAll() []domain.Snapshot {
	a.mu.RLock()
	entries := make([]*entry, 0, len(a.workers))
	for _, e := range a.workers {
		entries = append(entries, e)
	}
	a.mu.RUnlock()

	out := make([]domain.Snapshot, 0, len(entries))
	for _, e := range entries {
		e.mu.RLock()
		out = append(out, snapshot(e.w))
		e.mu.RUnlock()
	}
	return out
}

// Summary is the fleet-wide rollup returned by GetSummary.
type Summary struct {
	Total    int            `json:"total"`
	ByState  map[string]int `json:"by_state"`
	ByHealth map[string]int `json:"by_health"`
}

// GetSummary returns a fleet-wide rollup across every known worker.
func (a *Aggregator) GetSummary() Summary {
	snapshots := a.ListAll()
	s := Summary{
		Total:    len(snapshots),
		ByState:  make(map[string]int),
		ByHealth: make(map[string]int),
	}
	for _, snap := range snapshots {
		s.ByState[string(snap.State)]++
		s.ByHealth[snap.Health]++
	}
	return s
}

// snapshot computes the derived elapsed_seconds/progress/health fields
// for w (§4.6).
func snapshot(w domain.Worker) domain.Snapshot {
	now := time.Now()
	elapsed := now.Sub(w.StartTime).Seconds()
	var completedTime *time.Time
	if !w.FinishTime.IsZero() {
		ct := w.FinishTime
		completedTime = &ct
		elapsed = w.FinishTime.Sub(w.StartTime).Seconds()
	}

	return domain.Snapshot{
		WorkerID:          w.WorkerID,
		Task:              w.Task,
		State:             w.State,
		StartTime:         w.StartTime,
		CompletedTime:     completedTime,
		OutputLines:       w.OutputLines,
		ConfirmationCount: w.ConfirmationCount,
		LastActivity:      w.LastActivity,
		ErrorMessage:      w.ErrorMessage,
		ElapsedSeconds:    elapsed,
		Progress:          progress(w),
		Health:            health(w, now),
	}
}

// progress computes the 0..100 heuristic from §4.6.
func progress(w domain.Worker) int {
	if w.State == domain.WorkerSpawning {
		return 5
	}
	if w.State.IsTerminal() {
		return 100
	}

	outputComponent := minFloat(40, float64(w.OutputLines)/50*40)
	confirmComponent := minFloat(30, float64(w.ConfirmationCount)/5*30)
	elapsedComponent := minFloat(20, time.Since(w.StartTime).Seconds()/300*20)

	p := 10 + outputComponent + confirmComponent + elapsedComponent
	if p > 95 {
		p = 95
	}
	return int(p)
}

// health computes the healthy/idle/stalled classification from §4.6.
func health(w domain.Worker, now time.Time) string {
	if w.State.IsTerminal() {
		return domain.HealthHealthy
	}
	since := now.Sub(w.LastActivity)
	if since > 120*time.Second {
		return domain.HealthStalled
	}
	if since > 30*time.Second {
		return domain.HealthIdle
	}
	return domain.HealthHealthy
}

func minFloat(a, b float64) float64 {
	if a < b {
		return a
	}
	return b
}
