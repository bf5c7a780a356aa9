// Package worker implements the Worker Manager (§4.1): it owns the
// lifecycle of each worker subprocess through a pseudo-terminal,
// recognizes confirmation prompts in its output, routes them through
// the Hybrid Decision Engine, replies through stdin, and records a
// transcript.
package worker

import (
	"context"
	"sync"
	"time"

	"github.com/relaykit/mediator/config"
	"github.com/relaykit/mediator/decision"
	"github.com/relaykit/mediator/domain"
	"github.com/relaykit/mediator/errors"
	"github.com/relaykit/mediator/logger"
	"github.com/relaykit/mediator/transcript"
)

// bufferHardCap is the size at which an unmatched pending buffer is
// drained back down to bufferSlidingWindow (§4.1 edge cases).
const (
	bufferHardCap       = 64 * 1024
	bufferSlidingWindow = 4 * 1024
	readChunkSize       = 4096
	terminateGracePeriod = 5 * time.Second
)

// ErrIdleTimeout marks a worker that produced no output for longer than
// its configured per-worker idle window. Local to the Worker Manager;
// it is not part of the shared error taxonomy because no other
// component needs to branch on it.
var ErrIdleTimeout = errors.New("worker: idle timeout exceeded")

// SessionResult is RunInteractiveSession's return value once the
// dialogue loop exits for any reason other than an error.
type SessionResult struct {
	WorkerID   string
	FinalState domain.WorkerState
	ExitCode   int
	Iterations int
}

// session is the manager's private bookkeeping for one worker. worker
// is guarded by mu; pendingBuf and seq are only ever touched from the
// dialogue loop goroutine, so they need no lock of their own.
type session struct {
	mu     sync.Mutex
	worker domain.Worker

	pty   *ptySession
	store *transcript.Store

	pendingBuf []byte
	seq        int64

	outputCh chan []byte
	readErr  error

	cancelCtx context.Context
	cancel    context.CancelFunc

	terminateOnce sync.Once
}

// Manager owns every worker spawned in this process.
type Manager struct {
	cfg        *config.Config
	engine     *decision.Engine
	onEscalate OnEscalation

	mu       sync.RWMutex
	sessions map[string]*session
}

// NewManager builds a Worker Manager. onEscalate may be nil, in which
// case escalate always falls back to deny immediately.
func NewManager(cfg *config.Config, engine *decision.Engine, onEscalate OnEscalation) *Manager {
	return &Manager{
		cfg:        cfg,
		engine:     engine,
		onEscalate: onEscalate,
		sessions:   make(map[string]*session),
	}
}

// Spawn creates the worker's workspace, opens its transcript files and
// launches the subprocess attached to a PTY. It does not start the
// dialogue loop; call RunInteractiveSession for that.
func (m *Manager) Spawn(workerID, task string, env []string, workingDir string, commandTemplate []string) (*domain.Worker, error) {
	m.mu.Lock()
	if _, exists := m.sessions[workerID]; exists {
		m.mu.Unlock()
		return nil, errors.Wrapf(errors.ErrSpawnFailed, "worker: %s already spawned", workerID)
	}
	m.mu.Unlock()

	store, err := transcript.Open(m.cfg.WorkspaceRoot, workerID, m.cfg)
	if err != nil {
		return nil, err
	}

	pty, err := startPTY(m.cfg.ExecutionMode, workingDir, env, commandTemplate)
	if err != nil {
		store.Close()
		return nil, err
	}

	ctx, cancel := context.WithCancel(context.Background())
	now := time.Now()
	s := &session{
		worker: domain.Worker{
			WorkerID:     workerID,
			Task:         task,
			State:        domain.WorkerSpawning,
			StartTime:    now,
			WorkspaceDir: workingDir,
			LastActivity: now,
		},
		pty:       pty,
		store:     store,
		outputCh:  make(chan []byte, 64),
		cancelCtx: ctx,
		cancel:    cancel,
	}

	m.mu.Lock()
	m.sessions[workerID] = s
	m.mu.Unlock()

	_ = store.WriteEntry(domain.TranscriptEntry{
		Timestamp: domain.NewTimestamp(now),
		WorkerID:  workerID,
		Direction: domain.DirectionSupervisorToWorker,
		Type:      domain.EntryLifecycle,
		Content:   "spawned",
		Seq:       0,
	})
	_ = store.WriteMetric(domain.MetricEvent{
		Type:      domain.MetricWorkerLifecycle,
		Timestamp: domain.NewTimestamp(now),
		WorkerID:  workerID,
		Event:     domain.LifecycleSpawned,
	})

	logger.Infow("worker spawned", logger.FieldWorkerID, workerID, "task", task)

	go s.pump()
	go m.startPerformanceSampler(ctx, s, pty.pid())

	w := s.worker
	return &w, nil
}

// pump is the background output poller: it blocks on PTY reads and
// forwards each chunk to outputCh. Closing outputCh signals EOF or a
// read error (see readErr).
func (s *session) pump() {
	buf := make([]byte, readChunkSize)
	for {
		n, err := s.pty.Read(buf)
		if n > 0 {
			chunk := make([]byte, n)
			copy(chunk, buf[:n])
			select {
			case s.outputCh <- chunk:
			case <-s.cancelCtx.Done():
				close(s.outputCh)
				return
			}
		}
		if err != nil {
			s.readErr = err
			close(s.outputCh)
			return
		}
	}
}

// Terminate idempotently stops a worker: soft signal, bounded grace
// period, then force-kill. Always records a terminated lifecycle event.
func (m *Manager) Terminate(workerID, reason string) error {
	s, err := m.get(workerID)
	if err != nil {
		return err
	}

	s.terminateOnce.Do(func() {
		_ = s.pty.signalTerminate()
		done := make(chan struct{})
		go func() {
			s.pty.wait()
			close(done)
		}()
		select {
		case <-done:
		case <-time.After(terminateGracePeriod):
		}
		_ = s.pty.Close()
		s.cancel()

		s.mu.Lock()
		s.worker.State = domain.WorkerTerminated
		s.worker.FinishTime = time.Now()
		s.worker.ErrorMessage = reason
		s.mu.Unlock()

		_ = s.store.WriteEntry(domain.TranscriptEntry{
			Timestamp: domain.NewTimestamp(time.Now()),
			WorkerID:  workerID,
			Direction: domain.DirectionSupervisorToWorker,
			Type:      domain.EntryLifecycle,
			Content:   "terminated: " + reason,
		})
		_ = s.store.WriteMetric(domain.MetricEvent{
			Type:      domain.MetricWorkerLifecycle,
			Timestamp: domain.NewTimestamp(time.Now()),
			WorkerID:  workerID,
			Event:     domain.LifecycleTerminated,
		})
		_ = s.store.Close()

		logger.Infow("worker terminated", logger.FieldWorkerID, workerID, "reason", reason)
	})

	return nil
}

// ListWorkers returns a snapshot of every worker this manager knows
// about, in no particular order.
func (m *Manager) ListWorkers() []domain.Worker {
	m.mu.RLock()
	defer m.mu.RUnlock()

	out := make([]domain.Worker, 0, len(m.sessions))
	for _, s := range m.sessions {
		s.mu.Lock()
		out = append(out, s.worker)
		s.mu.Unlock()
	}
	return out
}

// GetStatus returns a snapshot of a single worker's in-memory state.
func (m *Manager) GetStatus(workerID string) (*domain.Worker, error) {
	s, err := m.get(workerID)
	if err != nil {
		return nil, err
	}
	s.mu.Lock()
	w := s.worker
	s.mu.Unlock()
	return &w, nil
}

func (m *Manager) get(workerID string) (*session, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	s, ok := m.sessions[workerID]
	if !ok {
		return nil, errors.Wrapf(errors.ErrWorkerNotFound, "worker: %s", workerID)
	}
	return s, nil
}
