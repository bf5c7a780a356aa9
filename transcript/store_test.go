package transcript

import (
	"bufio"
	"encoding/json"
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/relaykit/mediator/domain"
)

func TestStore_WriteEntryAndMetric(t *testing.T) {
	dir := t.TempDir()

	s, err := Open(dir, "worker-1", nil)
	require.NoError(t, err)
	defer s.Close()

	entry := domain.TranscriptEntry{
		Timestamp: domain.NewTimestamp(time.Unix(0, 0).UTC()),
		WorkerID:  "worker-1",
		Direction: domain.DirectionWorkerToSupervisor,
		Type:      domain.EntryOutput,
		Content:   "hello",
		Seq:       1,
	}
	require.NoError(t, s.WriteEntry(entry))

	metric := domain.MetricEvent{
		Type:      domain.MetricWorkerLifecycle,
		Timestamp: domain.NewTimestamp(time.Unix(0, 0).UTC()),
		WorkerID:  "worker-1",
		Event:     domain.LifecycleSpawned,
	}
	require.NoError(t, s.WriteMetric(metric))

	lines := readLines(t, s.DialoguePath())
	require.Len(t, lines, 1)

	var got domain.TranscriptEntry
	require.NoError(t, json.Unmarshal([]byte(lines[0]), &got))
	assert.Equal(t, entry.Content, got.Content)
	assert.Equal(t, entry.Seq, got.Seq)
}

func TestStore_WriteRawStripsANSI(t *testing.T) {
	dir := t.TempDir()

	s, err := Open(dir, "worker-2", nil)
	require.NoError(t, err)
	defer s.Close()

	require.NoError(t, s.WriteRaw([]byte("\x1b[32mok\x1b[0m")))

	lines := readLines(t, s.RawLogPath())
	require.Len(t, lines, 1)
	assert.Equal(t, "ok", lines[0])
}

func readLines(t *testing.T, path string) []string {
	t.Helper()
	f, err := os.Open(path)
	require.NoError(t, err)
	defer f.Close()

	var lines []string
	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		lines = append(lines, scanner.Text())
	}
	require.NoError(t, scanner.Err())
	return lines
}
