package worker

import (
	"context"
	"strings"
	"time"

	"github.com/relaykit/mediator/domain"
	"github.com/relaykit/mediator/errors"
	"github.com/relaykit/mediator/logger"
)

// approveReply/denyReply are the literal lines written to a worker's
// stdin on approve/deny. Overridable per kind via replyOverrides.
const (
	approveReply = "y\n"
	denyReply    = "n\n"
)

// replyOverrides holds the rare per-kind exceptions to the default y/n
// reply convention. Empty today; left as the extension point §4.1
// names ("overridable per kind").
var replyOverrides = map[domain.ConfirmationKind]struct{ approve, deny string }{}

// RunInteractiveSession runs the core dialogue loop for a previously
// spawned worker until it exits, is terminated, hits max_iterations, or
// goes idle past per_iteration_timeout. It must be called at most once
// per worker and is expected to run in its own goroutine.
func (m *Manager) RunInteractiveSession(ctx context.Context, workerID string, maxIterations int, perIterationTimeout time.Duration) (*SessionResult, error) {
	s, err := m.get(workerID)
	if err != nil {
		return nil, err
	}

	if perIterationTimeout <= 0 {
		perIterationTimeout = time.Duration(m.cfg.PerWorkerIdleTimeoutS) * time.Second
	}

	idle := time.NewTimer(perIterationTimeout)
	defer idle.Stop()

	iterations := 0
	for {
		if maxIterations > 0 && iterations >= maxIterations {
			return &SessionResult{WorkerID: workerID, FinalState: s.snapshotState(), Iterations: iterations}, nil
		}

		select {
		case <-ctx.Done():
			_ = m.Terminate(workerID, "context canceled")
			return &SessionResult{WorkerID: workerID, FinalState: domain.WorkerTerminated, Iterations: iterations}, ctx.Err()

		case <-idle.C:
			s.mu.Lock()
			s.worker.State = domain.WorkerFailed
			s.worker.ErrorMessage = "idle timeout exceeded"
			s.worker.FinishTime = time.Now()
			s.mu.Unlock()
			_ = s.store.WriteEntry(domain.TranscriptEntry{
				Timestamp: domain.NewTimestamp(time.Now()), WorkerID: workerID,
				Direction: domain.DirectionSupervisorToWorker,
				Type:      domain.EntryLifecycle, Content: "failed: idle timeout",
			})
			return &SessionResult{WorkerID: workerID, FinalState: domain.WorkerFailed, Iterations: iterations},
				errors.Wrapf(ErrIdleTimeout, "worker: %s", workerID)

		case chunk, ok := <-s.outputCh:
			if !ok {
				return m.finalize(s, iterations), nil
			}
			iterations++
			if !idle.Stop() {
				select {
				case <-idle.C:
				default:
				}
			}
			idle.Reset(perIterationTimeout)

			m.onChunk(ctx, s, chunk)
		}
	}
}

// onChunk records raw output, updates counters, and attempts
// confirmation recognition against the accumulated pending buffer.
func (m *Manager) onChunk(ctx context.Context, s *session, chunk []byte) {
	_ = s.store.WriteRaw(chunk)

	lines := countLines(chunk)

	s.mu.Lock()
	if s.worker.State == domain.WorkerSpawning {
		s.worker.State = domain.WorkerRunning
	}
	s.worker.OutputLines += int64(lines)
	s.worker.LastActivity = time.Now()
	workerID := s.worker.WorkerID
	s.mu.Unlock()

	_ = s.store.WriteMetric(domain.MetricEvent{
		Type: domain.MetricOutput, Timestamp: domain.NewTimestamp(time.Now()), WorkerID: workerID,
		OutputSizeBytes: int64(len(chunk)), LineCount: int64(lines),
	})

	s.pendingBuf = append(s.pendingBuf, chunk...)

	if kind, prompt, details, ok := recognize(s.pendingBuf); ok {
		m.handleConfirmation(ctx, s, kind, prompt, details)
		s.pendingBuf = s.pendingBuf[:0]
		return
	}

	if len(s.pendingBuf) > bufferHardCap {
		keep := s.pendingBuf[len(s.pendingBuf)-bufferSlidingWindow:]
		s.pendingBuf = append([]byte(nil), keep...)
	}
}

// handleConfirmation routes one recognized prompt through the Decision
// Engine (or escalation callback) and writes the reply to the worker's
// stdin.
func (m *Manager) handleConfirmation(ctx context.Context, s *session, kind domain.ConfirmationKind, prompt string, details map[string]string) {
	s.mu.Lock()
	s.worker.State = domain.WorkerWaitingConfirmation
	s.seq++
	seq := s.seq
	s.worker.ConfirmationCount++
	workerID := s.worker.WorkerID
	s.mu.Unlock()

	req := domain.ConfirmationRequest{
		WorkerID:   workerID,
		Kind:       kind,
		RawPrompt:  prompt,
		Details:    details,
		CapturedAt: time.Now(),
		Seq:        seq,
	}

	_ = s.store.WriteEntry(domain.TranscriptEntry{
		Timestamp: domain.NewTimestamp(req.CapturedAt), WorkerID: workerID,
		Direction: domain.DirectionWorkerToSupervisor,
		Type:      domain.EntryConfirmationRequest,
		Content:   prompt, ConfirmationType: kind, Seq: seq,
	})

	start := time.Now()
	decision := m.engine.Decide(ctx, req)

	action := decision.Action
	response := domain.ResponseDenied
	switch action {
	case domain.ActionApprove:
		response = domain.ResponseApproved
	case domain.ActionEscalate:
		approved := m.escalate(req, decision)
		if approved {
			action = domain.ActionApprove
			response = domain.ResponseApproved
		} else {
			action = domain.ActionDeny
			response = domain.ResponseDenied
		}
	}

	reply := denyReply
	if action == domain.ActionApprove {
		reply = approveReply
	}
	if override, ok := replyOverrides[kind]; ok {
		if action == domain.ActionApprove {
			reply = override.approve
		} else {
			reply = override.deny
		}
	}

	if _, err := s.pty.Write([]byte(reply)); err != nil {
		logger.Warnw("worker reply write failed", logger.FieldWorkerID, workerID, logger.FieldError, err)
	}

	_ = s.store.WriteEntry(domain.TranscriptEntry{
		Timestamp: domain.NewTimestamp(time.Now()), WorkerID: workerID,
		Direction: domain.DirectionSupervisorToWorker,
		Type:      domain.EntryConfirmationResponse,
		Content:   strings.TrimSuffix(reply, "\n"), ConfirmationType: kind, Seq: seq,
	})
	_ = s.store.WriteMetric(domain.MetricEvent{
		Type: domain.MetricConfirmation, Timestamp: domain.NewTimestamp(time.Now()), WorkerID: workerID,
		ConfirmationNumber:    seq,
		OrchestratorLatencyMS: time.Since(start).Milliseconds(),
		Response:              response,
		DecidedBy:             decision.DecidedBy,
	})

	s.mu.Lock()
	s.worker.State = domain.WorkerRunning
	s.mu.Unlock()
}

// escalate invokes the host escalation callback and bounds it by the
// configured escalation timeout. A nil callback or a timeout both fall
// back to deny, per §6.4.
func (m *Manager) escalate(req domain.ConfirmationRequest, d domain.Decision) bool {
	if m.onEscalate == nil {
		return false
	}

	timeout := time.Duration(m.cfg.EscalationTimeoutS) * time.Second
	resultCh := make(chan bool, 1)
	go func() {
		resultCh <- m.onEscalate(req, d)
	}()

	select {
	case approved := <-resultCh:
		return approved
	case <-time.After(timeout):
		logger.Warnw("escalation timed out, denying",
			logger.FieldWorkerID, req.WorkerID, logger.FieldConfirmationSeq, req.Seq)
		return false
	}
}

// finalize records the worker's terminal lifecycle event once its PTY
// has reached EOF.
func (m *Manager) finalize(s *session, iterations int) *SessionResult {
	exitCode, waitErr := s.pty.wait()

	s.mu.Lock()
	workerID := s.worker.WorkerID
	started := s.worker.StartTime
	finished := time.Now()
	s.worker.FinishTime = finished
	if waitErr != nil && exitCode < 0 {
		s.worker.State = domain.WorkerFailed
		s.worker.ErrorMessage = waitErr.Error()
	} else if exitCode == 0 {
		s.worker.State = domain.WorkerCompleted
	} else {
		s.worker.State = domain.WorkerFailed
		s.worker.ErrorMessage = "non-zero exit"
	}
	finalState := s.worker.State
	s.mu.Unlock()

	event := domain.LifecycleCompleted
	if finalState == domain.WorkerFailed {
		event = domain.LifecycleFailed
	}
	duration := finished.Sub(started).Seconds()

	_ = s.store.WriteEntry(domain.TranscriptEntry{
		Timestamp: domain.NewTimestamp(finished), WorkerID: workerID,
		Direction: domain.DirectionWorkerToSupervisor,
		Type:      domain.EntryLifecycle, Content: string(event),
	})
	_ = s.store.WriteMetric(domain.MetricEvent{
		Type: domain.MetricWorkerLifecycle, Timestamp: domain.NewTimestamp(finished), WorkerID: workerID,
		Event: event, DurationSeconds: &duration,
	})
	_ = s.store.Close()

	logger.Infow("worker session ended", logger.FieldWorkerID, workerID, logger.FieldState, string(finalState))

	return &SessionResult{WorkerID: workerID, FinalState: finalState, ExitCode: exitCode, Iterations: iterations}
}

func (s *session) snapshotState() domain.WorkerState {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.worker.State
}

func countLines(b []byte) int {
	n := 0
	for _, c := range b {
		if c == '\n' {
			n++
		}
	}
	return n
}
