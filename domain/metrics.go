package domain

// MetricType is the closed set of metrics.jsonl record kinds (§6.2).
type MetricType string

const (
	MetricWorkerLifecycle MetricType = "worker_lifecycle"
	MetricConfirmation    MetricType = "confirmation"
	MetricOutput          MetricType = "output"
	MetricPerformance     MetricType = "performance"
)

// LifecycleEvent is the closed set of worker_lifecycle metric events.
type LifecycleEvent string

const (
	LifecycleSpawned    LifecycleEvent = "spawned"
	LifecycleCompleted  LifecycleEvent = "completed"
	LifecycleFailed     LifecycleEvent = "failed"
	LifecycleTerminated LifecycleEvent = "terminated"
)

// ConfirmationResponse is the closed set of outcomes a confirmation
// metric records.
type ConfirmationResponse string

const (
	ResponseApproved  ConfirmationResponse = "approved"
	ResponseDenied    ConfirmationResponse = "denied"
	ResponseEscalated ConfirmationResponse = "escalated"
)

// MetricEvent is one line of metrics.jsonl. Only the fields relevant to
// Type are populated; the rest are left zero/omitted on marshal, except
// orchestrator_latency_ms, which is always written.
type MetricEvent struct {
	Type      MetricType `json:"type"`
	Timestamp Timestamp  `json:"timestamp"`
	WorkerID  string     `json:"worker_id"`

	// worker_lifecycle
	Event           LifecycleEvent `json:"event,omitempty"`
	DurationSeconds *float64       `json:"duration_seconds,omitempty"`

	// confirmation
	ConfirmationNumber     int64                `json:"confirmation_number,omitempty"`
	OrchestratorLatencyMS  int64                `json:"orchestrator_latency_ms"`
	Response               ConfirmationResponse `json:"response,omitempty"`
	DecidedBy              DecidedBy            `json:"decided_by,omitempty"`

	// output
	OutputSizeBytes int64 `json:"output_size_bytes,omitempty"`
	LineCount       int64 `json:"line_count,omitempty"`

	// performance
	MemoryMB   float64  `json:"memory_mb,omitempty"`
	CPUPercent *float64 `json:"cpu_percent,omitempty"`
}
