package worker

import (
	"context"
	"time"

	"github.com/shirou/gopsutil/v3/process"

	"github.com/relaykit/mediator/domain"
	"github.com/relaykit/mediator/logger"
)

// performanceSampleInterval bounds how often a worker's subprocess
// memory/CPU is sampled. Independent of poll_interval_ms, which governs
// PTY read/decision cadence, not resource sampling.
const performanceSampleInterval = 5 * time.Second

// startPerformanceSampler runs until ctx is canceled, periodically
// recording a MetricPerformance event for pid. A failed process lookup
// is logged and ends sampling; a failed memory sample is skipped
// silently. Neither is treated as fatal.
func (m *Manager) startPerformanceSampler(ctx context.Context, s *session, pid int) {
	proc, err := process.NewProcess(int32(pid))
	if err != nil {
		logger.Warnw("performance sampler: process lookup failed",
			logger.FieldWorkerID, s.worker.WorkerID, logger.FieldError, err)
		return
	}

	ticker := time.NewTicker(performanceSampleInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			m.sampleOnce(s, proc)
		}
	}
}

func (m *Manager) sampleOnce(s *session, proc *process.Process) {
	memInfo, err := proc.MemoryInfo()
	if err != nil {
		return
	}
	cpuPct, err := proc.CPUPercent()
	if err != nil {
		cpuPct = 0
	}

	memMB := float64(memInfo.RSS) / (1024 * 1024)
	cpu := cpuPct
	_ = s.store.WriteMetric(domain.MetricEvent{
		Type:       domain.MetricPerformance,
		Timestamp:  domain.NewTimestamp(time.Now()),
		WorkerID:   s.worker.WorkerID,
		MemoryMB:   memMB,
		CPUPercent: &cpu,
	})
}
