package monitor

import (
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/relaykit/mediator/logger"
)

// Registry owns every actively-tailed file in the process. One
// fsnotify.Watcher and one poll-fallback ticker are shared across all
// tails; individual tail state (offset, subscribers) stays per-file.
type Registry struct {
	historyLimit int
	queueDepth   int
	pollInterval time.Duration

	fsw *fsnotify.Watcher

	mu    sync.Mutex
	tails map[string]*tail
	// liveWorkers tracks paths whose owning worker hasn't terminated yet,
	// so a momentary zero-subscriber gap doesn't unregister a file a
	// still-running worker is about to write to again.
	liveWorkers map[string]bool

	stopCh   chan struct{}
	stopOnce sync.Once
}

// NewRegistry builds a Registry. historyLimit/queueDepth/pollInterval
// of zero fall back to the package defaults.
func NewRegistry(historyLimit, queueDepth int, pollInterval time.Duration) (*Registry, error) {
	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}
	if historyLimit <= 0 {
		historyLimit = DefaultHistoryLimit
	}
	if queueDepth <= 0 {
		queueDepth = DefaultQueueDepth
	}
	if pollInterval <= 0 {
		pollInterval = DefaultPollInterval
	}

	r := &Registry{
		historyLimit: historyLimit,
		queueDepth:   queueDepth,
		pollInterval: pollInterval,
		fsw:          fsw,
		tails:        make(map[string]*tail),
		liveWorkers:  make(map[string]bool),
		stopCh:       make(chan struct{}),
	}
	go r.fsEventLoop()
	go r.pollLoop()
	return r, nil
}

// Watch subscribes to path, starting to tail it if this is the first
// subscriber. The worker that owns path is implicitly marked live.
func (r *Registry) Watch(path string) *Subscription {
	r.mu.Lock()
	t, ok := r.tails[path]
	if !ok {
		t = newTail(path)
		r.tails[path] = t
		r.liveWorkers[path] = true
		if err := r.fsw.Add(path); err != nil {
			logger.Warnw("monitor: fsnotify add failed, relying on poll fallback",
				logger.FieldFile, path, logger.FieldError, err)
		}
	}
	r.mu.Unlock()

	sub := t.subscribe(r.historyLimit, r.queueDepth)
	sub.registry = r
	sub.path = path
	return sub
}

// MarkTerminated records that path's owning worker has reached a
// terminal state. Combined with a zero subscriber count, this causes
// the registry to stop tailing and release the file's offset state.
func (r *Registry) MarkTerminated(path string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.liveWorkers[path] = false
	r.reapLocked(path)
}

// release is called after a Subscription is closed to re-check whether
// path should be unregistered.
func (r *Registry) release(path string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.reapLocked(path)
}

func (r *Registry) reapLocked(path string) {
	t, ok := r.tails[path]
	if !ok {
		return
	}
	t.mu.Lock()
	subCount := len(t.subs)
	t.mu.Unlock()

	if subCount > 0 {
		return
	}
	if r.liveWorkers[path] {
		// Worker still running: keep cheaply watching, drop nothing yet.
		return
	}

	delete(r.tails, path)
	delete(r.liveWorkers, path)
	_ = r.fsw.Remove(path)
}

func (r *Registry) fsEventLoop() {
	for {
		select {
		case <-r.stopCh:
			return
		case event, ok := <-r.fsw.Events:
			if !ok {
				return
			}
			if event.Op&(fsnotify.Write|fsnotify.Create) == 0 {
				continue
			}
			r.mu.Lock()
			t, ok := r.tails[event.Name]
			r.mu.Unlock()
			if ok {
				t.poll()
			}
		case err, ok := <-r.fsw.Errors:
			if !ok {
				return
			}
			logger.Warnw("monitor: fsnotify error", logger.FieldError, err)
		}
	}
}

func (r *Registry) pollLoop() {
	ticker := time.NewTicker(r.pollInterval)
	defer ticker.Stop()
	for {
		select {
		case <-r.stopCh:
			return
		case <-ticker.C:
			r.mu.Lock()
			paths := make([]*tail, 0, len(r.tails))
			for _, t := range r.tails {
				paths = append(paths, t)
			}
			r.mu.Unlock()
			for _, t := range paths {
				t.poll()
			}
		}
	}
}

// Close stops the registry's fsnotify and poll goroutines.
func (r *Registry) Close() error {
	r.stopOnce.Do(func() { close(r.stopCh) })
	return r.fsw.Close()
}
