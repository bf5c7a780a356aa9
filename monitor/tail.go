// Package monitor implements the File Monitor (§4.5): low-latency tail
// of append-only worker files with cold-start history replay and
// per-subscriber bounded, drop-oldest delivery.
package monitor

import (
	"bufio"
	"bytes"
	"encoding/json"
	"os"
	"sync"
	"time"

	"github.com/relaykit/mediator/logger"
)

const (
	// DefaultHistoryLimit is how many backlog lines a new subscriber
	// receives before the `ready` marker.
	DefaultHistoryLimit = 100
	// DefaultQueueDepth is the bound on each subscriber's delivery queue.
	DefaultQueueDepth = 1024
	// DefaultPollInterval is the fallback poll cadence used alongside
	// fsnotify, since not every filesystem delivers reliable write events.
	DefaultPollInterval = 250 * time.Millisecond
)

// Entry is one line read from a tailed file. Data is the lenient JSON
// parse of Line; it is nil when the line is not valid JSON (the raw
// terminal log is never JSON, and a mid-write JSONL line is tolerated
// by simply treating it as unparsed rather than aborting the tail).
type Entry struct {
	Line      string
	Data      json.RawMessage
	Timestamp time.Time
}

// IsReady reports whether e is the cold-start "history replay complete"
// marker rather than a real line.
func (e Entry) IsReady() bool { return e.Line == "" && e.Data == nil && e.Timestamp.IsZero() }

// tail owns one watched file: its read offset and its subscriber set.
// It has no goroutine of its own; the Registry's shared fsnotify and
// poll goroutines call poll to keep it current.
type tail struct {
	path string

	mu       sync.Mutex
	offset   int64
	subs     map[uint64]*subscriber
	nextSub  uint64
	stopCh   chan struct{}
	stopOnce sync.Once
	running  bool
}

func newTail(path string) *tail {
	return &tail{
		path: path,
		subs: make(map[uint64]*subscriber),
	}
}

// subscribe registers a new subscriber, replays up to historyLimit
// backlog lines plus a ready marker, and returns a handle for reading
// and eventually unsubscribing.
func (t *tail) subscribe(historyLimit, queueDepth int) *Subscription {
	if historyLimit <= 0 {
		historyLimit = DefaultHistoryLimit
	}
	if queueDepth <= 0 {
		queueDepth = DefaultQueueDepth
	}

	t.mu.Lock()
	id := t.nextSub
	t.nextSub++
	sub := newSubscriber(queueDepth)
	t.subs[id] = sub
	t.mu.Unlock()

	history, newOffset := readHistory(t.path, historyLimit)
	t.mu.Lock()
	if t.offset < newOffset {
		t.offset = newOffset
	}
	t.mu.Unlock()

	for _, e := range history {
		sub.publish(e)
	}
	sub.publish(Entry{})

	return &Subscription{tail: t, id: id, sub: sub}
}

func (t *tail) unsubscribe(id uint64) int {
	t.mu.Lock()
	defer t.mu.Unlock()
	delete(t.subs, id)
	return len(t.subs)
}

// poll reads any bytes appended since the last recorded offset and
// publishes each complete line to every current subscriber.
func (t *tail) poll() {
	f, err := os.Open(t.path)
	if err != nil {
		return
	}
	defer f.Close()

	t.mu.Lock()
	offset := t.offset
	t.mu.Unlock()

	info, err := f.Stat()
	if err != nil {
		return
	}
	if info.Size() < offset {
		// File was truncated/rotated; restart from the top.
		offset = 0
	}
	if info.Size() == offset {
		return
	}

	if _, err := f.Seek(offset, 0); err != nil {
		return
	}

	scanner := bufio.NewScanner(f)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)

	var consumed int64
	var entries []Entry
	for scanner.Scan() {
		line := scanner.Text()
		consumed += int64(len(line)) + 1
		entries = append(entries, parseLine(line))
	}

	t.mu.Lock()
	t.offset = offset + consumed
	subs := make([]*subscriber, 0, len(t.subs))
	for _, s := range t.subs {
		subs = append(subs, s)
	}
	t.mu.Unlock()

	for _, e := range entries {
		for _, s := range subs {
			s.publish(e)
		}
	}
}

func parseLine(line string) Entry {
	e := Entry{Line: line, Timestamp: time.Now()}
	trimmed := bytes.TrimSpace([]byte(line))
	if len(trimmed) > 0 && trimmed[0] == '{' {
		var js json.RawMessage
		if err := json.Unmarshal(trimmed, &js); err == nil {
			e.Data = js
		} else {
			logger.Warnw("monitor: skipping malformed json line", logger.FieldError, err)
		}
	}
	return e
}

// readHistory reads path from the beginning and returns up to limit of
// its most recent complete lines, plus the byte offset of the end of
// the last complete line read (a trailing partial line is not counted).
func readHistory(path string, limit int) ([]Entry, int64) {
	f, err := os.Open(path)
	if err != nil {
		return nil, 0
	}
	defer f.Close()

	scanner := bufio.NewScanner(f)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)

	var all []Entry
	var offset int64
	for scanner.Scan() {
		line := scanner.Text()
		offset += int64(len(line)) + 1
		all = append(all, parseLine(line))
	}

	if len(all) > limit {
		all = all[len(all)-limit:]
	}
	return all, offset
}
