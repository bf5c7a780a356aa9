package worker

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/relaykit/mediator/config"
	"github.com/relaykit/mediator/decision"
	"github.com/relaykit/mediator/domain"
)

func testManagerConfig(t *testing.T) *config.Config {
	t.Helper()
	return &config.Config{
		WorkspaceRoot:         t.TempDir(),
		ExecutionMode:         config.ExecutionModeSubprocessInShell,
		AutoApproveSafe:       true,
		PerWorkerIdleTimeoutS: 5,
		EscalationTimeoutS:    1,
		RawLogANSIStrip:       true,
	}
}

func TestManager_SpawnAndRunToCompletion(t *testing.T) {
	cfg := testManagerConfig(t)
	engine := decision.NewEngine(cfg, nil)
	mgr := NewManager(cfg, engine, nil)

	w, err := mgr.Spawn("w1", "echo test", nil, t.TempDir(), []string{"echo hello; echo done"})
	require.NoError(t, err)
	assert.Equal(t, domain.WorkerSpawning, w.State)

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	result, err := mgr.RunInteractiveSession(ctx, "w1", 0, 3*time.Second)
	require.NoError(t, err)
	assert.Equal(t, domain.WorkerCompleted, result.FinalState)
	assert.Equal(t, 0, result.ExitCode)

	status, err := mgr.GetStatus("w1")
	require.NoError(t, err)
	assert.Equal(t, domain.WorkerCompleted, status.State)
}

func TestManager_ApprovesSafeFileWritePrompt(t *testing.T) {
	cfg := testManagerConfig(t)
	engine := decision.NewEngine(cfg, nil)
	mgr := NewManager(cfg, engine, nil)

	target := cfg.WorkspaceRoot + "/notes.txt"
	script := "printf 'overwrite " + target + "? (y/n) '\n" +
		`read ans
if [ "$ans" = "y" ]; then echo approved; else echo denied; fi`

	_, err := mgr.Spawn("w2", "write file", nil, t.TempDir(), []string{script})
	require.NoError(t, err)

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	result, err := mgr.RunInteractiveSession(ctx, "w2", 0, 3*time.Second)
	require.NoError(t, err)
	assert.Equal(t, domain.WorkerCompleted, result.FinalState)

	status, err := mgr.GetStatus("w2")
	require.NoError(t, err)
	assert.GreaterOrEqual(t, status.ConfirmationCount, int64(1))
}

func TestManager_GetStatusUnknownWorker(t *testing.T) {
	cfg := testManagerConfig(t)
	engine := decision.NewEngine(cfg, nil)
	mgr := NewManager(cfg, engine, nil)

	_, err := mgr.GetStatus("missing")
	assert.Error(t, err)
}

func TestManager_TerminateIsIdempotent(t *testing.T) {
	cfg := testManagerConfig(t)
	engine := decision.NewEngine(cfg, nil)
	mgr := NewManager(cfg, engine, nil)

	_, err := mgr.Spawn("w3", "sleep", nil, t.TempDir(), []string{"sleep 30"})
	require.NoError(t, err)

	require.NoError(t, mgr.Terminate("w3", "test cleanup"))
	require.NoError(t, mgr.Terminate("w3", "test cleanup again"))

	status, err := mgr.GetStatus("w3")
	require.NoError(t, err)
	assert.Equal(t, domain.WorkerTerminated, status.State)
}
