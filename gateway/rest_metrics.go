package gateway

import (
	"bufio"
	"encoding/json"
	"net/http"
	"os"
	"strconv"

	"github.com/relaykit/mediator/domain"
)

// decisionRow is one entry of GET /api/v1/decisions/recent.
type decisionRow struct {
	Timestamp        string                  `json:"timestamp"`
	WorkerID         string                  `json:"worker_id"`
	DecisionType     domain.Level            `json:"decision_type"`
	DecidedBy        domain.DecidedBy        `json:"decided_by"`
	LatencyMS        int64                   `json:"latency_ms"`
	IsFallback       bool                    `json:"is_fallback"`
	ConfirmationType domain.ConfirmationKind `json:"confirmation_type"`
	Reasoning        string                  `json:"reasoning"`
}

const (
	defaultDecisionsLimit = 100
	maxDecisionsLimit     = 1000
)

// handleMetricsCurrent serves GET /api/v1/metrics/current.
func (s *Server) handleMetricsCurrent(w http.ResponseWriter, r *http.Request) {
	snap := s.engine.Snapshot()
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"total_decisions":    snap.Total,
		"rules_decisions":    snap.Rules,
		"ai_decisions":       snap.AI,
		"template_fallbacks": snap.TemplateFallbacks,
		"average_latency_ms": snap.AverageLatencyMS,
		"rules_percentage":   snap.RulesPercentage,
	})
}

// handleDecisionsRecent serves GET /api/v1/decisions/recent?limit=N.
func (s *Server) handleDecisionsRecent(w http.ResponseWriter, r *http.Request) {
	limit := defaultDecisionsLimit
	if raw := r.URL.Query().Get("limit"); raw != "" {
		if n, err := strconv.Atoi(raw); err == nil && n > 0 {
			limit = n
		}
	}
	if limit > maxDecisionsLimit {
		limit = maxDecisionsLimit
	}

	entries := s.engine.Recent(limit)
	rows := make([]decisionRow, 0, len(entries))
	for _, e := range entries {
		rows = append(rows, decisionRow{
			Timestamp:        e.Timestamp.UTC().Format("2006-01-02T15:04:05.000Z"),
			WorkerID:         e.WorkerID,
			DecisionType:     e.DecisionType,
			DecidedBy:        e.DecidedBy,
			LatencyMS:        e.LatencyMS,
			IsFallback:       e.IsFallback,
			ConfirmationType: e.ConfirmationType,
			Reasoning:        e.Reasoning,
		})
	}
	writeJSON(w, http.StatusOK, rows)
}

// handleWorkerMetrics serves GET /api/v1/workers/{id}/metrics: the full
// parsed contents of that worker's metrics.jsonl, skipping malformed
// lines the way every other reader of this file does.
func (s *Server) handleWorkerMetrics(w http.ResponseWriter, r *http.Request) {
	workerID := r.PathValue("worker_id")
	if _, ok := s.status.GetStatus(workerID); !ok {
		writeNotFound(w, workerID)
		return
	}

	events := readMetricsFile(s.metricsPath(workerID))
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"worker_id": workerID,
		"metrics":   events,
		"count":     len(events),
	})
}

// workerMetricsSummary is the response shape of
// GET /api/v1/workers/{id}/metrics/summary.
type workerMetricsSummary struct {
	WorkerID           string  `json:"worker_id"`
	EventCount         int     `json:"event_count"`
	OutputSizeBytes    int64   `json:"output_size_bytes"`
	OutputLineCount    int64   `json:"output_line_count"`
	ConfirmationsTotal int64   `json:"confirmations_total"`
	ApprovedCount      int64   `json:"approved_count"`
	DeniedCount        int64   `json:"denied_count"`
	EscalatedCount     int64   `json:"escalated_count"`
	LatestMemoryMB     float64 `json:"latest_memory_mb,omitempty"`
}

func (s *Server) handleWorkerMetricsSummary(w http.ResponseWriter, r *http.Request) {
	workerID := r.PathValue("worker_id")
	if _, ok := s.status.GetStatus(workerID); !ok {
		writeNotFound(w, workerID)
		return
	}

	events := readMetricsFile(s.metricsPath(workerID))
	summary := workerMetricsSummary{WorkerID: workerID, EventCount: len(events)}
	for _, e := range events {
		switch e.Type {
		case domain.MetricOutput:
			summary.OutputSizeBytes += e.OutputSizeBytes
			summary.OutputLineCount += e.LineCount
		case domain.MetricConfirmation:
			summary.ConfirmationsTotal++
			switch e.Response {
			case domain.ResponseApproved:
				summary.ApprovedCount++
			case domain.ResponseDenied:
				summary.DeniedCount++
			case domain.ResponseEscalated:
				summary.EscalatedCount++
			}
		case domain.MetricPerformance:
			summary.LatestMemoryMB = e.MemoryMB
		}
	}
	writeJSON(w, http.StatusOK, summary)
}

// readMetricsFile parses metrics.jsonl leniently, skipping malformed
// lines instead of aborting (§4.5's lenient-parse discipline applies to
// every reader of these files, not just the File Monitor's tailer).
func readMetricsFile(path string) []domain.MetricEvent {
	f, err := os.Open(path)
	if err != nil {
		return nil
	}
	defer f.Close()

	var events []domain.MetricEvent
	scanner := bufio.NewScanner(f)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	for scanner.Scan() {
		var e domain.MetricEvent
		if err := json.Unmarshal(scanner.Bytes(), &e); err != nil {
			continue
		}
		events = append(events, e)
	}
	return events
}
