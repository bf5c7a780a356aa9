package gateway

import (
	"context"
	"net/http"
	"path/filepath"
	"time"

	"github.com/gorilla/websocket"

	"github.com/relaykit/mediator/config"
	"github.com/relaykit/mediator/decision"
	"github.com/relaykit/mediator/logger"
	"github.com/relaykit/mediator/monitor"
	"github.com/relaykit/mediator/status"
	"github.com/relaykit/mediator/transcript"
)

// Server is the Streaming Gateway. It owns no worker state itself; every
// handler reads through to the Status Aggregator, Decision Engine or
// File Monitor it was built with.
type Server struct {
	cfg      *config.Config
	status   *status.Aggregator
	engine   *decision.Engine
	monitor  *monitor.Registry
	upgrader websocket.Upgrader

	httpServer *http.Server
}

// NewServer wires the gateway's dependencies. None of status, engine or
// monitor may be nil.
func NewServer(cfg *config.Config, statusAgg *status.Aggregator, engine *decision.Engine, mon *monitor.Registry) *Server {
	return &Server{
		cfg:      cfg,
		status:   statusAgg,
		engine:   engine,
		monitor:  mon,
		upgrader: newUpgrader(cfg.Gateway.AllowedOrigins),
	}
}

func (s *Server) dialoguePath(workerID string) string {
	return filepath.Join(s.cfg.WorkspaceRoot, workerID, transcript.DialogueFileName)
}

func (s *Server) rawLogPath(workerID string) string {
	return filepath.Join(s.cfg.WorkspaceRoot, workerID, transcript.RawLogFileName)
}

func (s *Server) metricsPath(workerID string) string {
	return filepath.Join(s.cfg.WorkspaceRoot, workerID, transcript.MetricsFileName)
}

// Handler builds the gateway's route table (§6.3, bit-exact).
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()

	mux.HandleFunc("GET /api/v1/workers", s.handleListWorkers)
	mux.HandleFunc("GET /api/v1/workers/{worker_id}", s.handleGetWorker)
	mux.HandleFunc("GET /api/v1/status/summary", s.handleStatusSummary)
	mux.HandleFunc("GET /api/v1/status/health", s.handleStatusHealth)
	mux.HandleFunc("GET /api/v1/metrics/current", s.handleMetricsCurrent)
	mux.HandleFunc("GET /api/v1/decisions/recent", s.handleDecisionsRecent)
	mux.HandleFunc("GET /api/v1/workers/{worker_id}/metrics", s.handleWorkerMetrics)
	mux.HandleFunc("GET /api/v1/workers/{worker_id}/metrics/summary", s.handleWorkerMetricsSummary)

	mux.HandleFunc("GET /ws/dialogue/{worker_id}", s.handleWSDialogue)
	mux.HandleFunc("GET /ws/terminal/{worker_id}", s.handleWSTerminal)
	mux.HandleFunc("GET /ws/status/{worker_id}", s.handleWSStatus)

	return mux
}

// Serve starts the HTTP listener and blocks until ctx is cancelled or
// the listener fails. On cancellation it shuts down gracefully within a
// bounded window.
func (s *Server) Serve(ctx context.Context) error {
	addr := s.cfg.Gateway.Addr
	if addr == "" {
		addr = ":8877"
	}

	s.httpServer = &http.Server{
		Addr:    addr,
		Handler: s.Handler(),
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Infow("gateway: listening", logger.FieldAddress, addr)
		errCh <- s.httpServer.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if err == http.ErrServerClosed {
			return nil
		}
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		return s.httpServer.Shutdown(shutdownCtx)
	}
}
