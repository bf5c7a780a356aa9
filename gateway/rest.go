package gateway

import (
	"encoding/json"
	"net/http"

	"github.com/relaykit/mediator/domain"
)

// workerListItem is one row of GET /api/v1/workers.
type workerListItem struct {
	WorkerID          string             `json:"worker_id"`
	State             domain.WorkerState `json:"state"`
	LastActivity      interface{}        `json:"last_activity"`
	OutputLines       int64              `json:"output_lines"`
	ConfirmationCount int64              `json:"confirmation_count"`
}

// handleListWorkers serves GET /api/v1/workers.
func (s *Server) handleListWorkers(w http.ResponseWriter, r *http.Request) {
	snapshots := s.status.ListAll()
	items := make([]workerListItem, 0, len(snapshots))
	for _, snap := range snapshots {
		items = append(items, workerListItem{
			WorkerID:          snap.WorkerID,
			State:             snap.State,
			LastActivity:      snap.LastActivity,
			OutputLines:       snap.OutputLines,
			ConfirmationCount: snap.ConfirmationCount,
		})
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"workers": items,
		"count":   len(items),
	})
}

// handleGetWorker serves GET /api/v1/workers/{worker_id}.
func (s *Server) handleGetWorker(w http.ResponseWriter, r *http.Request) {
	workerID := r.PathValue("worker_id")
	snap, ok := s.status.GetStatus(workerID)
	if !ok {
		writeNotFound(w, workerID)
		return
	}
	writeJSON(w, http.StatusOK, snap)
}

// statusSummary is the response shape of GET /api/v1/status/summary.
type statusSummary struct {
	TotalWorkers     int     `json:"total_workers"`
	ActiveWorkers    int     `json:"active_workers"`
	CompletedWorkers int     `json:"completed_workers"`
	ErrorWorkers     int     `json:"error_workers"`
	AvgProgress      float64 `json:"avg_progress,omitempty"`
}

func (s *Server) handleStatusSummary(w http.ResponseWriter, r *http.Request) {
	snapshots := s.status.ListAll()
	summary := statusSummary{TotalWorkers: len(snapshots)}

	var progressSum int
	for _, snap := range snapshots {
		progressSum += snap.Progress
		switch snap.State {
		case domain.WorkerCompleted:
			summary.CompletedWorkers++
		case domain.WorkerFailed, domain.WorkerTerminated:
			summary.ErrorWorkers++
		default:
			summary.ActiveWorkers++
		}
	}
	if summary.TotalWorkers > 0 {
		summary.AvgProgress = float64(progressSum) / float64(summary.TotalWorkers)
	}
	writeJSON(w, http.StatusOK, summary)
}

func (s *Server) handleStatusHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"status":              "healthy",
		"monitor_initialized": s.monitor != nil,
		"workspace_root":      s.cfg.WorkspaceRoot,
	})
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeNotFound(w http.ResponseWriter, workerID string) {
	writeJSON(w, http.StatusNotFound, map[string]string{
		"error":     "worker not found",
		"worker_id": workerID,
	})
}
