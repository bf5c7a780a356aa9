package status

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/relaykit/mediator/domain"
)

func TestAggregator_RegisterAndGetStatus(t *testing.T) {
	a := NewAggregator()
	a.Register(domain.Worker{WorkerID: "w1", State: domain.WorkerSpawning, StartTime: time.Now()})

	snap, ok := a.GetStatus("w1")
	require.True(t, ok)
	assert.Equal(t, 5, snap.Progress)
	assert.Equal(t, domain.HealthHealthy, snap.Health)
}

func TestAggregator_ProgressAdvancesWithOutputAndConfirmations(t *testing.T) {
	a := NewAggregator()
	a.Register(domain.Worker{WorkerID: "w2", State: domain.WorkerRunning, StartTime: time.Now(), LastActivity: time.Now()})

	a.UpdateOutputMetrics("w2", 100)
	a.UpdateConfirmationCount("w2")

	snap, ok := a.GetStatus("w2")
	require.True(t, ok)
	assert.Greater(t, snap.Progress, 10)
	assert.Less(t, snap.Progress, 100)
}

func TestAggregator_TerminalStateIsFullProgressAndHealthy(t *testing.T) {
	a := NewAggregator()
	a.Register(domain.Worker{WorkerID: "w3", State: domain.WorkerRunning, StartTime: time.Now(), LastActivity: time.Now().Add(-200 * time.Second)})

	a.UpdateState("w3", domain.WorkerCompleted)

	snap, ok := a.GetStatus("w3")
	require.True(t, ok)
	assert.Equal(t, 100, snap.Progress)
	assert.Equal(t, domain.HealthHealthy, snap.Health)
	assert.NotNil(t, snap.CompletedTime)
}

func TestAggregator_HealthDegradesWithStaleActivity(t *testing.T) {
	a := NewAggregator()
	a.Register(domain.Worker{
		WorkerID:     "w4",
		State:        domain.WorkerRunning,
		StartTime:    time.Now(),
		LastActivity: time.Now().Add(-150 * time.Second),
	})

	snap, ok := a.GetStatus("w4")
	require.True(t, ok)
	assert.Equal(t, domain.HealthStalled, snap.Health)
}

func TestAggregator_GetSummary(t *testing.T) {
	a := NewAggregator()
	a.Register(domain.Worker{WorkerID: "w5", State: domain.WorkerRunning, StartTime: time.Now(), LastActivity: time.Now()})
	a.Register(domain.Worker{WorkerID: "w6", State: domain.WorkerCompleted, StartTime: time.Now(), LastActivity: time.Now()})

	summary := a.GetSummary()
	assert.Equal(t, 2, summary.Total)
	assert.Equal(t, 1, summary.ByState[string(domain.WorkerRunning)])
	assert.Equal(t, 1, summary.ByState[string(domain.WorkerCompleted)])
}

func TestAggregator_RemoveWorker(t *testing.T) {
	a := NewAggregator()
	a.Register(domain.Worker{WorkerID: "w7", StartTime: time.Now()})
	a.RemoveWorker("w7")

	_, ok := a.GetStatus("w7")
	assert.False(t, ok)
}

func TestAggregator_UnknownWorkerIsNoop(t *testing.T) {
	a := NewAggregator()
	a.UpdateState("missing", domain.WorkerRunning)
	a.UpdateOutputMetrics("missing", 10)
	a.UpdateConfirmationCount("missing")

	_, ok := a.GetStatus("missing")
	assert.False(t, ok)
}
