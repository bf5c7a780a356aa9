package domain

import "time"

// ConfirmationKind is the closed set of prompt kinds the Worker Manager's
// pattern recognizer can produce. Tie-break order when more than one
// kind's pattern could match: file_delete > file_write > command_execute
// > package_install > generic_yes_no > unknown.
type ConfirmationKind string

const (
	KindFileWrite       ConfirmationKind = "file_write"
	KindFileDelete      ConfirmationKind = "file_delete"
	KindCommandExecute  ConfirmationKind = "command_execute"
	KindPackageInstall  ConfirmationKind = "package_install"
	KindGenericYesNo    ConfirmationKind = "generic_yes_no"
	KindUnknown         ConfirmationKind = "unknown"
)

// ConfirmationRequest is a single recognized in-band prompt from a
// worker's PTY output, awaiting a Decision.
type ConfirmationRequest struct {
	WorkerID string
	Kind     ConfirmationKind
	// RawPrompt is the matched prompt text, verbatim.
	RawPrompt string
	// Details holds kind-specific extracted fields: "file", "command",
	// "package", etc. Always non-nil.
	Details map[string]string
	CapturedAt time.Time
	// Seq is monotonically increasing per worker, starting at 1.
	Seq int64
}

// Direction of a transcript entry relative to the worker process.
type Direction string

const (
	DirectionWorkerToSupervisor Direction = "worker→supervisor"
	DirectionSupervisorToWorker Direction = "supervisor→worker"
)

// EntryType is the closed set of dialogue_transcript.jsonl line kinds.
type EntryType string

const (
	EntryOutput               EntryType = "output"
	EntryConfirmationRequest  EntryType = "confirmation_request"
	EntryConfirmationResponse EntryType = "confirmation_response"
	EntryLifecycle            EntryType = "lifecycle"
	EntryNote                 EntryType = "note"
)

// TranscriptEntry is one line of dialogue_transcript.jsonl (§6.1).
type TranscriptEntry struct {
	Timestamp           Timestamp        `json:"timestamp"`
	WorkerID            string           `json:"worker_id"`
	Direction           Direction        `json:"direction"`
	Type                EntryType        `json:"type"`
	Content             string           `json:"content"`
	ConfirmationType    ConfirmationKind `json:"confirmation_type,omitempty"`
	ConfirmationMessage string           `json:"confirmation_message,omitempty"`
	Seq                 int64            `json:"seq"`
}
