// Package transcript implements the Transcript Store (§4.4): three
// append-only per-worker files, flushed to the OS on every write, that
// survive process restarts without a database.
package transcript

import (
	"encoding/json"
	"os"
	"path/filepath"
	"sync"

	"github.com/relaykit/mediator/config"
	"github.com/relaykit/mediator/domain"
	"github.com/relaykit/mediator/errors"
)

const (
	DialogueFileName = "dialogue_transcript.jsonl"
	RawLogFileName   = "raw_terminal.log"
	MetricsFileName  = "metrics.jsonl"
)

// Store owns the three append-only files for one worker. The Worker
// Manager is the only writer; every write is flushed before returning.
type Store struct {
	mu sync.Mutex

	dialoguePath string
	rawLogPath   string
	metricsPath  string

	dialogueFile *os.File
	rawLogFile   *os.File
	metricsFile  *os.File

	stripANSI bool
}

// Open creates the worker's workspace directory (if absent) and opens
// its three files for append, creating them if necessary. Returns
// ErrSpawnFailed-wrapped errors on failure (the Worker Manager treats
// workspace init failures the same as a failed spawn).
func Open(workspaceRoot, workerID string, cfg *config.Config) (*Store, error) {
	dir := filepath.Join(workspaceRoot, workerID)
	if err := os.MkdirAll(dir, config.DefaultDirPermissions); err != nil {
		return nil, errors.Wrapf(errors.ErrSpawnFailed, "transcript: create workspace dir %s: %v", dir, err)
	}

	s := &Store{
		dialoguePath: filepath.Join(dir, DialogueFileName),
		rawLogPath:   filepath.Join(dir, RawLogFileName),
		metricsPath:  filepath.Join(dir, MetricsFileName),
		stripANSI:    cfg == nil || cfg.RawLogANSIStrip,
	}

	var err error
	if s.dialogueFile, err = openAppend(s.dialoguePath); err != nil {
		return nil, err
	}
	if s.rawLogFile, err = openAppend(s.rawLogPath); err != nil {
		s.dialogueFile.Close()
		return nil, err
	}
	if s.metricsFile, err = openAppend(s.metricsPath); err != nil {
		s.dialogueFile.Close()
		s.rawLogFile.Close()
		return nil, err
	}

	return s, nil
}

func openAppend(path string) (*os.File, error) {
	f, err := os.OpenFile(path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, config.DefaultFilePermissions)
	if err != nil {
		return nil, errors.Wrapf(errors.ErrSpawnFailed, "transcript: open %s: %v", path, err)
	}
	return f, nil
}

// WriteEntry appends a TranscriptEntry as one JSON line, flushed before
// returning. Entries within a single Store are written in call order.
func (s *Store) WriteEntry(e domain.TranscriptEntry) error {
	return s.writeLine(s.dialogueFile, e)
}

// WriteMetric appends a MetricEvent as one JSON line, flushed before
// returning.
func (s *Store) WriteMetric(m domain.MetricEvent) error {
	return s.writeLine(s.metricsFile, m)
}

// WriteRaw appends raw PTY bytes to raw_terminal.log, stripping ANSI
// escape sequences first unless the store was opened with stripping
// disabled. Ensures the written chunk ends with a newline.
func (s *Store) WriteRaw(chunk []byte) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := chunk
	if s.stripANSI {
		out = StripANSI(chunk)
	}
	if len(out) == 0 {
		return nil
	}
	if out[len(out)-1] != '\n' {
		out = append(out, '\n')
	}

	if _, err := s.rawLogFile.Write(out); err != nil {
		return errors.Wrap(err, "transcript: write raw log")
	}
	return s.rawLogFile.Sync()
}

func (s *Store) writeLine(f *os.File, v interface{}) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	line, err := json.Marshal(v)
	if err != nil {
		return errors.Wrap(err, "transcript: marshal entry")
	}
	line = append(line, '\n')

	if _, err := writeFull(f, line); err != nil {
		return errors.Wrap(err, "transcript: append")
	}
	return f.Sync()
}

// writeFull retries short writes until the full buffer lands or an error
// occurs, per the Transcript Store's "atomically appended" guarantee.
func writeFull(f *os.File, b []byte) (int, error) {
	total := 0
	for total < len(b) {
		n, err := f.Write(b[total:])
		total += n
		if err != nil {
			return total, err
		}
	}
	return total, nil
}

// Close closes all three files.
func (s *Store) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	var firstErr error
	for _, f := range []*os.File{s.dialogueFile, s.rawLogFile, s.metricsFile} {
		if err := f.Close(); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	return firstErr
}

// DialoguePath returns the absolute path to dialogue_transcript.jsonl.
func (s *Store) DialoguePath() string { return s.dialoguePath }

// RawLogPath returns the absolute path to raw_terminal.log.
func (s *Store) RawLogPath() string { return s.rawLogPath }

// MetricsPath returns the absolute path to metrics.jsonl.
func (s *Store) MetricsPath() string { return s.metricsPath }
