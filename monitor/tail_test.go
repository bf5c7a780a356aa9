package monitor

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeLines(t *testing.T, path string, lines ...string) {
	t.Helper()
	f, err := os.OpenFile(path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0644)
	require.NoError(t, err)
	defer f.Close()
	for _, l := range lines {
		_, err := f.WriteString(l + "\n")
		require.NoError(t, err)
	}
}

func drainUntilReady(t *testing.T, ch <-chan Entry) []Entry {
	t.Helper()
	var out []Entry
	for {
		select {
		case e := <-ch:
			if e.IsReady() {
				return out
			}
			out = append(out, e)
		case <-time.After(2 * time.Second):
			t.Fatal("timed out waiting for ready marker")
		}
	}
}

func TestRegistry_HistoricalReplayThenReady(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "dialogue_transcript.jsonl")
	writeLines(t, path, `{"seq":1}`, `{"seq":2}`, "not json")

	reg, err := NewRegistry(10, 10, 50*time.Millisecond)
	require.NoError(t, err)
	defer reg.Close()

	sub := reg.Watch(path)
	defer sub.Close()

	history := drainUntilReady(t, sub.Chan())
	require.Len(t, history, 3)
	assert.NotNil(t, history[0].Data)
	assert.Nil(t, history[2].Data)
}

func TestRegistry_StreamsNewLines(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "metrics.jsonl")
	writeLines(t, path, `{"type":"worker_lifecycle"}`)

	reg, err := NewRegistry(10, 10, 20*time.Millisecond)
	require.NoError(t, err)
	defer reg.Close()

	sub := reg.Watch(path)
	defer sub.Close()
	drainUntilReady(t, sub.Chan())

	writeLines(t, path, `{"type":"confirmation"}`)

	select {
	case e := <-sub.Chan():
		assert.Contains(t, e.Line, "confirmation")
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for streamed line")
	}
}

func TestRegistry_DropOldestOnOverflow(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "raw_terminal.log")
	writeLines(t, path, "line0")

	reg, err := NewRegistry(10, 2, 10*time.Millisecond)
	require.NoError(t, err)
	defer reg.Close()

	sub := reg.Watch(path)
	defer sub.Close()
	drainUntilReady(t, sub.Chan())

	for i := 0; i < 10; i++ {
		writeLines(t, path, "line")
	}
	time.Sleep(200 * time.Millisecond)

	assert.Greater(t, sub.Dropped(), int64(0))
}

func TestRegistry_ReleaseUnregistersAfterTermination(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "dialogue_transcript.jsonl")
	writeLines(t, path, `{"seq":1}`)

	reg, err := NewRegistry(10, 10, 20*time.Millisecond)
	require.NoError(t, err)
	defer reg.Close()

	sub := reg.Watch(path)
	drainUntilReady(t, sub.Chan())

	reg.MarkTerminated(path)
	sub.Close()

	reg.mu.Lock()
	_, stillTracked := reg.tails[path]
	reg.mu.Unlock()
	assert.False(t, stillTracked)
}
