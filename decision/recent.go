package decision

import (
	"sync"
	"time"

	"github.com/relaykit/mediator/domain"
)

// RecentEntry is one row of the bounded recent-decisions log exposed by
// GET /api/v1/decisions/recent.
type RecentEntry struct {
	Timestamp        time.Time
	WorkerID         string
	DecisionType     domain.Level
	DecidedBy        domain.DecidedBy
	LatencyMS        int64
	IsFallback       bool
	ConfirmationType domain.ConfirmationKind
	Reasoning        string
}

// recentLogCapacity bounds the ring buffer independent of any single
// caller's requested limit (the REST handler caps at 1000 too).
const recentLogCapacity = 1000

// recentLog is a fixed-capacity ring buffer of the most recent decisions
// across all workers, oldest entries overwritten first.
type recentLog struct {
	mu      sync.Mutex
	entries []RecentEntry
	next    int
	full    bool
}

func newRecentLog() *recentLog {
	return &recentLog{entries: make([]RecentEntry, recentLogCapacity)}
}

func (l *recentLog) add(e RecentEntry) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.entries[l.next] = e
	l.next++
	if l.next == recentLogCapacity {
		l.next = 0
		l.full = true
	}
}

// recent returns up to limit entries, most recent first.
func (l *recentLog) recent(limit int) []RecentEntry {
	l.mu.Lock()
	defer l.mu.Unlock()

	count := l.next
	if l.full {
		count = recentLogCapacity
	}
	if limit <= 0 || limit > count {
		limit = count
	}

	out := make([]RecentEntry, 0, limit)
	idx := l.next
	for i := 0; i < limit; i++ {
		idx--
		if idx < 0 {
			idx = recentLogCapacity - 1
		}
		out = append(out, l.entries[idx])
	}
	return out
}
