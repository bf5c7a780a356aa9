package gateway

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/relaykit/mediator/config"
	"github.com/relaykit/mediator/decision"
	"github.com/relaykit/mediator/domain"
	"github.com/relaykit/mediator/monitor"
	"github.com/relaykit/mediator/status"
)

func testGatewayConfig(t *testing.T) *config.Config {
	return &config.Config{
		WorkspaceRoot:      t.TempDir(),
		AutoApproveSafe:    true,
		SafeCommands:       []string{},
		AIAdvisorTimeoutMS: 100,
		WSSendQueueDepth:   16,
	}
}

func newTestServer(t *testing.T) *Server {
	cfg := testGatewayConfig(t)
	reg, err := monitor.NewRegistry(10, 16, 10*time.Millisecond)
	require.NoError(t, err)
	t.Cleanup(func() { reg.Close() })

	agg := status.NewAggregator()
	engine := decision.NewEngine(cfg, nil)
	return NewServer(cfg, agg, engine, reg)
}

func TestHandleListWorkers(t *testing.T) {
	s := newTestServer(t)
	s.status.Register(domain.Worker{WorkerID: "w1", State: domain.WorkerRunning, StartTime: time.Now(), LastActivity: time.Now()})

	srv := httptest.NewServer(s.Handler())
	defer srv.Close()

	resp, err := http.Get(srv.URL + "/api/v1/workers")
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	var body struct {
		Workers []workerListItem `json:"workers"`
		Count   int              `json:"count"`
	}
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
	assert.Equal(t, 1, body.Count)
	assert.Equal(t, "w1", body.Workers[0].WorkerID)
}

func TestHandleGetWorker_NotFound(t *testing.T) {
	s := newTestServer(t)
	srv := httptest.NewServer(s.Handler())
	defer srv.Close()

	resp, err := http.Get(srv.URL + "/api/v1/workers/missing")
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestHandleGetWorker_Found(t *testing.T) {
	s := newTestServer(t)
	s.status.Register(domain.Worker{WorkerID: "w2", State: domain.WorkerCompleted, StartTime: time.Now(), LastActivity: time.Now()})

	srv := httptest.NewServer(s.Handler())
	defer srv.Close()

	resp, err := http.Get(srv.URL + "/api/v1/workers/w2")
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	var snap domain.Snapshot
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&snap))
	assert.Equal(t, 100, snap.Progress)
}

func TestHandleStatusSummary(t *testing.T) {
	s := newTestServer(t)
	s.status.Register(domain.Worker{WorkerID: "a", State: domain.WorkerRunning, StartTime: time.Now(), LastActivity: time.Now()})
	s.status.Register(domain.Worker{WorkerID: "b", State: domain.WorkerCompleted, StartTime: time.Now(), LastActivity: time.Now()})
	s.status.Register(domain.Worker{WorkerID: "c", State: domain.WorkerFailed, StartTime: time.Now(), LastActivity: time.Now()})

	srv := httptest.NewServer(s.Handler())
	defer srv.Close()

	resp, err := http.Get(srv.URL + "/api/v1/status/summary")
	require.NoError(t, err)
	defer resp.Body.Close()

	var summary statusSummary
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&summary))
	assert.Equal(t, 3, summary.TotalWorkers)
	assert.Equal(t, 1, summary.ActiveWorkers)
	assert.Equal(t, 1, summary.CompletedWorkers)
	assert.Equal(t, 1, summary.ErrorWorkers)
}

func TestHandleStatusHealth(t *testing.T) {
	s := newTestServer(t)
	srv := httptest.NewServer(s.Handler())
	defer srv.Close()

	resp, err := http.Get(srv.URL + "/api/v1/status/health")
	require.NoError(t, err)
	defer resp.Body.Close()

	var body map[string]interface{}
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
	assert.Equal(t, "healthy", body["status"])
	assert.Equal(t, true, body["monitor_initialized"])
}

func TestHandleMetricsCurrent(t *testing.T) {
	s := newTestServer(t)
	s.engine.Decide(context.Background(), domain.ConfirmationRequest{
		WorkerID: "w1", Kind: domain.KindFileWrite, Details: map[string]string{"file": filepath.Join(s.cfg.WorkspaceRoot, "a.go")},
	})

	srv := httptest.NewServer(s.Handler())
	defer srv.Close()

	resp, err := http.Get(srv.URL + "/api/v1/metrics/current")
	require.NoError(t, err)
	defer resp.Body.Close()

	var body map[string]interface{}
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
	assert.EqualValues(t, 1, body["total_decisions"])
}

func TestHandleDecisionsRecent(t *testing.T) {
	s := newTestServer(t)
	s.engine.Decide(context.Background(), domain.ConfirmationRequest{
		WorkerID: "w1", Kind: domain.KindFileWrite, Details: map[string]string{"file": filepath.Join(s.cfg.WorkspaceRoot, "a.go")},
	})

	srv := httptest.NewServer(s.Handler())
	defer srv.Close()

	resp, err := http.Get(srv.URL + "/api/v1/decisions/recent?limit=10")
	require.NoError(t, err)
	defer resp.Body.Close()

	var rows []decisionRow
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&rows))
	require.Len(t, rows, 1)
	assert.Equal(t, "w1", rows[0].WorkerID)
}

func TestHandleWorkerMetrics_UnknownWorker(t *testing.T) {
	s := newTestServer(t)
	srv := httptest.NewServer(s.Handler())
	defer srv.Close()

	resp, err := http.Get(srv.URL + "/api/v1/workers/missing/metrics")
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}
